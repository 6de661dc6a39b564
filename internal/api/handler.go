package api

import (
	"net/http"
	"strconv"
	"time"

	"restaurant-service/internal/models"
	"restaurant-service/internal/service"
	"restaurant-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orders       *service.OrderService
	payments     *service.PaymentService
	reservations *service.ReservationService
	blocks       *service.BlockService
	floor        *service.FloorService
	kitchen      *service.KitchenService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orders *service.OrderService,
	payments *service.PaymentService,
	reservations *service.ReservationService,
	blocks *service.BlockService,
	floor *service.FloorService,
	kitchen *service.KitchenService,
) *Handler {
	return &Handler{
		orders:       orders,
		payments:     payments,
		reservations: reservations,
		blocks:       blocks,
		floor:        floor,
		kitchen:      kitchen,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/pisos", h.layout)
		v1.GET("/pisos/realtime", h.realtimeLayout)

		v1.GET("/mesas/resumen", h.tableSummary)
		v1.GET("/mesas/:id", h.tableDetails)
		v1.PATCH("/mesas/:id/estado", h.updateTableState)
		v1.POST("/mesas/:id/qr", h.generateQR)

		v1.POST("/ordenes", h.createOrder)
		v1.GET("/ordenes", h.listActiveOrders)
		v1.GET("/ordenes/stats", h.orderStats)
		v1.GET("/ordenes/:id", h.getOrder)
		v1.PATCH("/ordenes/:id", h.editOrder)
		v1.PATCH("/ordenes/:id/estado", h.transitionOrder)
		v1.POST("/ordenes/:id/cancelar", h.cancelOrder)
		v1.DELETE("/ordenes/:id", h.deleteOrder)
		v1.POST("/ordenes/:id/items", h.addItem)
		v1.POST("/ordenes/:id/pagar", h.settleOrder)

		v1.PATCH("/items/:id", h.editItem)
		v1.PATCH("/items/:id/estado", h.updateItemState)
		v1.DELETE("/items/:id", h.deleteItem)

		v1.GET("/cocina/urgentes", h.urgentItems)
		v1.GET("/cocina/:estacion", h.stationBoard)
		v1.GET("/cocina/:estacion/stats", h.stationStats)

		v1.GET("/caja/cuentas", h.openAccounts)
		v1.GET("/caja/stats", h.paymentStats)
		v1.POST("/pagos/:id/anular", h.voidPayment)

		v1.POST("/reservas", h.createReservation)
		v1.GET("/reservas", h.listReservations)
		v1.GET("/reservas/hoy", h.todayReservations)
		v1.GET("/reservas/disponibilidad", h.checkAvailability)
		v1.GET("/reservas/:id", h.getReservation)
		v1.POST("/reservas/:id/confirmar", h.confirmReservation)
		v1.POST("/reservas/:id/cancelar", h.cancelReservation)
		v1.POST("/reservas/:id/completar", h.completeReservation)
		v1.PATCH("/reservas/:id/notas", h.updateReservationNotes)
		v1.DELETE("/reservas/:id", h.deleteReservation)

		v1.POST("/bloqueos", h.createBlock)
		v1.GET("/bloqueos", h.listBlocks)
		v1.GET("/bloqueos/:id", h.getBlock)
		v1.POST("/bloqueos/:id/activar", h.activateBlock)
		v1.POST("/bloqueos/:id/completar", h.completeBlock)
		v1.POST("/bloqueos/:id/cancelar", h.cancelBlock)
		v1.DELETE("/bloqueos/:id", h.deleteBlock)
	}
}

// envelope is the uniform response shape
type envelope struct {
	Success bool                 `json:"success"`
	Data    interface{}          `json:"data,omitempty"`
	Error   *service.DomainError `json:"error,omitempty"`
	Message string               `json:"message,omitempty"`
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func okMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: message})
}

func fail(c *gin.Context, err error) {
	de, isDomain := err.(*service.DomainError)
	if !isDomain {
		de = service.ErrInternal("procesar la solicitud", err)
	}

	status := http.StatusInternalServerError
	switch de.Kind {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindBusinessLogic:
		status = http.StatusConflict
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindIntegrity:
		status = http.StatusConflict
	}

	c.JSON(status, envelope{Success: false, Error: de})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{
		Success: false,
		Error:   &service.DomainError{Kind: service.KindValidation, Message: message},
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		badRequest(c, "identificador inválido")
		return 0, false
	}
	return id, true
}

func optionalUserID(c *gin.Context) *int64 {
	if v := c.Query("usuario_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return &id
		}
	}
	return nil
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// --- floor plan ---

func (h *Handler) layout(c *gin.Context) {
	layout, err := h.floor.Layout(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, layout)
}

func (h *Handler) realtimeLayout(c *gin.Context) {
	layout, err := h.floor.RealtimeLayout(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, layout)
}

func (h *Handler) tableSummary(c *gin.Context) {
	summary, err := h.floor.StateSummary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, summary)
}

func (h *Handler) tableDetails(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	detail, err := h.floor.TableDetails(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, detail)
}

func (h *Handler) updateTableState(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req struct {
		Estado string `json:"estado" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cuerpo de solicitud inválido: "+err.Error())
		return
	}
	mesa, err := h.floor.UpdateTableState(c.Request.Context(), id, req.Estado, optionalUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, mesa)
}

func (h *Handler) generateQR(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	mesa, err := h.floor.GenerateQR(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, mesa)
}

// --- orders ---

func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cuerpo de solicitud inválido: "+err.Error())
		return
	}
	order, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, order)
}

func (h *Handler) listActiveOrders(c *gin.Context) {
	orders, err := h.orders.ListActiveOrders(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, orders)
}

func (h *Handler) orderStats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	order, items, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"orden": order, "items": items})
}

func (h *Handler) editOrder(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req service.EditOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cuerpo de solicitud inválido: "+err.Error())
		return
	}
	order, err := h.orders.EditOrder(c.Request.Context(), id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, order)
}

func (h *Handler) transitionOrder(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req struct {
		Estado string `json:"estado" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cuerpo de solicitud inválido: "+err.Error())
		return
	}
	order, err := h.orders.TransitionOrder(c.Request.Context(), id, req.Estado)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, order)
}

func (h *Handler) cancelOrder(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	order, err := h.orders.CancelOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, order)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.orders.DeleteOrder(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "orden eliminada")
}

func (h *Handler) addItem(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cuerpo de solicitud inválido: "+err.Error())
		return
	}
	item, err := h.orders.AddItem(c.Request.Context(), id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, item)
}

func (h *Handler) editItem(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req service.EditItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cuerpo de solicitud inválido: "+err.Error())
		return
	}
	item, err := h.orders.EditItem(c.Request.Context(), id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, item)
}

func (h *Handler) updateItemState(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req struct {
		Estado string `json:"estado" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cuerpo de solicitud inválido: "+err.Error())
		return
	}
	item, err := h.orders.UpdateItemState(c.Request.Context(), id, req.Estado)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, item)
}

func (h *Handler) deleteItem(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.orders.DeleteItem(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "item eliminado")
}

// --- kitchen ---

func (h *Handler) stationBoard(c *gin.Context) {
	board, err := h.kitchen.StationBoard(c.Request.Context(), c.Param("estacion"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, board)
}

func (h *Handler) stationStats(c *gin.Context) {
	stats, err := h.kitchen.Stats(c.Request.Context(), c.Param("estacion"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}

func (h *Handler) urgentItems(c *gin.Context) {
	items, err := h.kitchen.UrgentItems(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// --- cashier ---

func (h *Handler) settleOrder(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req service.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cuerpo de solicitud inválido: "+err.Error())
		return
	}
	payment, err := h.payments.Settle(c.Request.Context(), id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, payment)
}

func (h *Handler) voidPayment(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	payment, err := h.payments.Void(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, payment)
}

func (h *Handler) openAccounts(c *gin.Context) {
	accounts, err := h.payments.OpenAccounts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, accounts)
}

func (h *Handler) paymentStats(c *gin.Context) {
	stats, err := h.payments.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}

// --- reservations ---

func (h *Handler) createReservation(c *gin.Context) {
	var req service.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cuerpo de solicitud inválido: "+err.Error())
		return
	}
	r, err := h.reservations.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, r)
}

func (h *Handler) listReservations(c *gin.Context) {
	var f models.ReservationFilter
	f.Estado = c.Query("estado")
	if v := c.Query("fecha_desde"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.FechaDesde = &t
		}
	}
	if v := c.Query("fecha_hasta"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.FechaHasta = &t
		}
	}
	if v := c.Query("zona_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.ZonaID = &id
		}
	}
	if v := c.Query("mesa_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MesaID = &id
		}
	}

	rs, err := h.reservations.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, rs)
}

func (h *Handler) todayReservations(c *gin.Context) {
	rs, err := h.reservations.Today(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, rs)
}

func (h *Handler) checkAvailability(c *gin.Context) {
	zonaID, err := strconv.ParseInt(c.Query("zona_id"), 10, 64)
	if err != nil {
		badRequest(c, "zona_id es requerido")
		return
	}
	var mesaID *int64
	if v := c.Query("mesa_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			mesaID = &id
		}
	}
	duracion := 0
	if v := c.Query("duracion"); v != "" {
		duracion, _ = strconv.Atoi(v)
	}

	avail, err := h.reservations.CheckAvailability(c.Request.Context(),
		zonaID, mesaID, c.Query("fecha"), c.Query("hora"), duracion)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, avail)
}

func (h *Handler) getReservation(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	r, err := h.reservations.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

func (h *Handler) confirmReservation(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	r, err := h.reservations.Confirm(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

func (h *Handler) cancelReservation(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	r, err := h.reservations.Cancel(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

func (h *Handler) completeReservation(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	r, err := h.reservations.Complete(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

func (h *Handler) updateReservationNotes(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req struct {
		Notas string `json:"notas" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cuerpo de solicitud inválido: "+err.Error())
		return
	}
	r, err := h.reservations.UpdateNotes(c.Request.Context(), id, req.Notas, optionalUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

func (h *Handler) deleteReservation(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.reservations.Delete(c.Request.Context(), id, optionalUserID(c)); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "reserva eliminada")
}

// --- blocks ---

func (h *Handler) createBlock(c *gin.Context) {
	var req service.CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cuerpo de solicitud inválido: "+err.Error())
		return
	}
	block, err := h.blocks.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, block)
}

func (h *Handler) listBlocks(c *gin.Context) {
	var f models.BlockFilter
	f.Estado = c.Query("estado")
	f.Tipo = c.Query("tipo")
	if v := c.Query("fecha_desde"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.FechaDesde = &t
		}
	}
	if v := c.Query("fecha_hasta"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.FechaHasta = &t
		}
	}
	if v := c.Query("mesa_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MesaID = &id
		}
	}
	if v := c.Query("zona_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.ZonaID = &id
		}
	}
	if v := c.Query("piso_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.PisoID = &id
		}
	}

	blocks, err := h.blocks.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, blocks)
}

func (h *Handler) getBlock(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	block, err := h.blocks.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, block)
}

func (h *Handler) activateBlock(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	block, err := h.blocks.Activate(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, block)
}

func (h *Handler) completeBlock(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	block, err := h.blocks.Complete(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, block)
}

func (h *Handler) cancelBlock(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	block, err := h.blocks.Cancel(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, block)
}

func (h *Handler) deleteBlock(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.blocks.Delete(c.Request.Context(), id, optionalUserID(c)); err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "bloqueo eliminado")
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
