package service

import (
	"context"
	"math/rand"
	"time"

	"restaurant-service/internal/models"
	"restaurant-service/internal/store"
	"restaurant-service/internal/util"

	"go.uber.org/zap"
)

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// OrderService handles the order lifecycle: opening a tab on a table, adding
// line items, kitchen-side item transitions and the order state machine.
type OrderService struct {
	store   Store
	auditor *Auditor
	logger  *zap.Logger

	numberLength int
}

// NewOrderService creates a new order service.
func NewOrderService(store Store, auditor *Auditor, numberLength int) *OrderService {
	if numberLength <= 0 {
		numberLength = 8
	}
	return &OrderService{
		store:        store,
		auditor:      auditor,
		logger:       util.GetLogger(),
		numberLength: numberLength,
	}
}

// CreateOrderRequest represents a request to open an order.
type CreateOrderRequest struct {
	MesaID        *int64  `json:"mesa_id"`
	MozoID        int64   `json:"mozo_id" binding:"required"`
	Tipo          string  `json:"tipo"`
	ClienteNombre *string `json:"cliente_nombre"`
	NumComensales int     `json:"num_comensales"`
}

// CreateOrder opens a new order. For dine-in orders the table must be
// disponible; the seize is a conditional update so two concurrent requests
// cannot both win the same table.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	tipo := req.Tipo
	if tipo == "" {
		tipo = models.OrderTypeLocal
	}
	switch tipo {
	case models.OrderTypeLocal, models.OrderTypeTakeaway, models.OrderTypeDelivery:
	default:
		return nil, ErrValidation("tipo", "tipo de orden no válido: %s", tipo)
	}

	numComensales := req.NumComensales
	if numComensales == 0 {
		numComensales = 1
	}
	if numComensales < 1 {
		return nil, ErrValidation("num_comensales", "el número de comensales debe ser al menos 1")
	}

	var seizedTable *models.Table
	if tipo == models.OrderTypeLocal {
		if req.MesaID == nil {
			return nil, ErrValidation("mesa_id", "la mesa es requerida para órdenes en local")
		}
		mesa, err := s.store.GetTable(ctx, *req.MesaID)
		if err != nil {
			return nil, ErrInternal("consultar mesa", err)
		}
		if mesa == nil {
			return nil, ErrValidation("mesa_id", "mesa no encontrada")
		}
		if numComensales > mesa.Capacidad {
			return nil, ErrValidation("num_comensales",
				"número de comensales (%d) excede la capacidad de la mesa (%d)", numComensales, mesa.Capacidad)
		}

		won, err := s.store.SeizeTable(ctx, mesa.ID)
		if err != nil {
			return nil, ErrInternal("ocupar mesa", err)
		}
		if !won {
			util.OrdersFailedTotal.WithLabelValues("mesa_no_disponible").Inc()
			return nil, ErrValidation("mesa_id", "mesa no disponible")
		}
		seizedTable = mesa
	}

	numero, err := s.generateOrderNumber(ctx)
	if err != nil {
		s.releaseSeizedTable(ctx, seizedTable)
		return nil, ErrInternal("generar número de orden", err)
	}

	order := &models.Order{
		Numero:        numero,
		MesaID:        req.MesaID,
		MozoID:        req.MozoID,
		Tipo:          tipo,
		Estado:        models.OrderPending,
		MontoTotal:    0,
		NumComensales: numComensales,
		ClienteNombre: req.ClienteNombre,
	}
	if tipo != models.OrderTypeLocal {
		order.MesaID = nil
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		s.releaseSeizedTable(ctx, seizedTable)
		if store.IsUniqueViolation(err) {
			util.OrdersFailedTotal.WithLabelValues("numero_duplicado").Inc()
			return nil, ErrIntegrity("número de orden duplicado: %s", numero)
		}
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, ErrInternal("crear orden", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("orden_id", order.ID),
		zap.String("numero", order.Numero),
		zap.String("tipo", order.Tipo))

	s.auditor.Record(ctx, &req.MozoID, "orden", "create", order.ID, nil,
		map[string]interface{}{"numero": order.Numero, "tipo": order.Tipo})
	if seizedTable != nil {
		s.auditor.TableState(ctx, seizedTable.ID, models.TableOccupied)
	}

	return order, nil
}

// releaseSeizedTable compensates a won table seize when order creation fails
// midway.
func (s *OrderService) releaseSeizedTable(ctx context.Context, mesa *models.Table) {
	if mesa == nil {
		return
	}
	if err := s.store.UpdateTableState(ctx, mesa.ID, models.TableAvailable); err != nil {
		s.logger.Error("Failed to release table after order creation failure",
			zap.Int64("mesa_id", mesa.ID),
			zap.Error(err))
	}
}

// generateOrderNumber produces a random alphanumeric order number that does
// not collide with any existing order.
func (s *OrderService) generateOrderNumber(ctx context.Context) (string, error) {
	buf := make([]byte, s.numberLength)
	for {
		for i := range buf {
			buf[i] = orderNumberAlphabet[rand.Intn(len(orderNumberAlphabet))]
		}
		numero := string(buf)
		exists, err := s.store.OrderNumberExists(ctx, numero)
		if err != nil {
			return "", err
		}
		if !exists {
			return numero, nil
		}
	}
}

// AddItemRequest represents a line item to append to an order.
type AddItemRequest struct {
	ProductoID     int64    `json:"producto_id" binding:"required"`
	Cantidad       int      `json:"cantidad" binding:"required,min=1"`
	PrecioUnitario *float64 `json:"precio_unitario"`
	Estacion       string   `json:"estacion"`
	Notas          *string  `json:"notas"`
}

// AddItem appends a product line to an open order, queues it for the kitchen
// and recomputes the order total.
func (s *OrderService) AddItem(ctx context.Context, ordenID int64, req *AddItemRequest) (*models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.AddItem")
	defer span.End()

	order, err := s.getOrder(ctx, ordenID)
	if err != nil {
		return nil, err
	}
	if order.Estado == models.OrderPaid || order.Estado == models.OrderCancelled {
		return nil, ErrBusiness("no se puede modificar una orden %s", order.Estado)
	}

	if req.Cantidad < 1 {
		return nil, ErrValidation("cantidad", "la cantidad debe ser al menos 1")
	}

	producto, err := s.store.GetProduct(ctx, req.ProductoID)
	if err != nil {
		return nil, ErrInternal("consultar producto", err)
	}
	if producto == nil {
		return nil, ErrValidation("producto_id", "producto no encontrado")
	}
	if !producto.Disponible {
		return nil, ErrValidation("producto_id", "producto no disponible")
	}

	estacion := req.Estacion
	if estacion == "" {
		estacion = producto.TipoEstacion
	}
	if !models.IsStation(estacion) {
		return nil, ErrValidation("estacion", "estación no válida: %s", estacion)
	}

	precio := producto.Precio
	if req.PrecioUnitario != nil {
		precio = *req.PrecioUnitario
	}

	now := time.Now().UTC()
	item := &models.OrderItem{
		OrdenID:        ordenID,
		ProductoID:     req.ProductoID,
		Cantidad:       req.Cantidad,
		PrecioUnitario: precio,
		Estado:         models.ItemQueued,
		Estacion:       estacion,
		Notas:          req.Notas,
		FechaInicio:    &now,
	}

	existing, err := s.store.ListOrderItems(ctx, ordenID)
	if err != nil {
		return nil, ErrInternal("listar items", err)
	}
	total := computeOrderTotal(append(existing, *item), order.NumComensales)

	var nuevoEstado *string
	if order.Estado == models.OrderPending {
		confirmada := models.OrderConfirmed
		nuevoEstado = &confirmada
	}

	if err := s.store.CreateOrderItemCascade(ctx, item, total, nuevoEstado); err != nil {
		return nil, ErrInternal("agregar item", err)
	}
	order.MontoTotal = total
	if nuevoEstado != nil {
		order.Estado = *nuevoEstado
	}

	s.auditor.Record(ctx, nil, "item_orden", "create", item.ID, nil,
		map[string]interface{}{"orden_id": ordenID, "producto_id": req.ProductoID, "cantidad": req.Cantidad})

	return item, nil
}

// computeOrderTotal sums line items and applies the per-head pricing policy.
// Totals are always rebuilt from the full item list so edits and deletes
// cannot drift, and the rebuilt value is persisted in the same transaction as
// the item write.
func computeOrderTotal(items []models.OrderItem, numComensales int) float64 {
	var total float64
	for _, item := range items {
		total += float64(item.Cantidad) * item.PrecioUnitario
	}
	if numComensales > 1 {
		total *= float64(numComensales)
	}
	return total
}

// UpdateItemState moves an item through the kitchen board. Item transitions
// have no enforced graph; timestamps are stamped on entry to preparando,
// listo and servido. Reaching listo or servido may promote the parent order.
func (s *OrderService) UpdateItemState(ctx context.Context, itemID int64, estado string) (*models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateItemState")
	defer span.End()

	if !models.IsItemState(estado) {
		return nil, ErrValidation("estado", "estado de item no válido: %s", estado)
	}

	item, err := s.store.GetOrderItem(ctx, itemID)
	if err != nil {
		return nil, ErrInternal("consultar item", err)
	}
	if item == nil {
		return nil, ErrNotFound("item", itemID)
	}

	now := time.Now().UTC()
	item.Estado = estado
	switch estado {
	case models.ItemPreparing:
		item.FechaInicio = &now
	case models.ItemReady:
		item.FechaListo = &now
	case models.ItemServed:
		item.FechaServido = &now
	}

	if err := s.store.UpdateOrderItem(ctx, item); err != nil {
		return nil, ErrInternal("actualizar item", err)
	}

	switch estado {
	case models.ItemReady:
		if err := s.promoteOrderIfReady(ctx, item.OrdenID); err != nil {
			return nil, err
		}
	case models.ItemServed:
		if err := s.promoteOrderIfServed(ctx, item.OrdenID); err != nil {
			return nil, err
		}
	}

	s.auditor.Record(ctx, nil, "item_orden", "update_estado", item.ID, nil,
		map[string]interface{}{"estado": estado})

	return item, nil
}

// promoteOrderIfReady marks the order lista when every active item has
// reached listo.
func (s *OrderService) promoteOrderIfReady(ctx context.Context, ordenID int64) error {
	items, err := s.store.ListOrderItems(ctx, ordenID)
	if err != nil {
		return ErrInternal("listar items", err)
	}

	active, ready := 0, 0
	for _, item := range items {
		switch item.Estado {
		case models.ItemQueued, models.ItemPreparing:
			active++
		case models.ItemReady:
			active++
			ready++
		}
	}
	if active == 0 || ready != active {
		return nil
	}

	if err := s.store.UpdateOrderState(ctx, ordenID, models.OrderReady); err != nil {
		return ErrInternal("marcar orden lista", err)
	}
	s.logger.Info("All items ready, order marked lista", zap.Int64("orden_id", ordenID))
	return nil
}

// promoteOrderIfServed marks the order servida once every item has been
// served or cancelled.
func (s *OrderService) promoteOrderIfServed(ctx context.Context, ordenID int64) error {
	items, err := s.store.ListOrderItems(ctx, ordenID)
	if err != nil {
		return ErrInternal("listar items", err)
	}

	served := 0
	for _, item := range items {
		switch item.Estado {
		case models.ItemServed:
			served++
		case models.ItemCancelled:
		default:
			return nil
		}
	}
	if served == 0 {
		return nil
	}

	if err := s.store.UpdateOrderState(ctx, ordenID, models.OrderServed); err != nil {
		return ErrInternal("marcar orden servida", err)
	}
	return nil
}

// TransitionOrder applies the enforced order state machine. Moving to
// cancelada releases the table.
func (s *OrderService) TransitionOrder(ctx context.Context, ordenID int64, estado string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.TransitionOrder")
	defer span.End()

	if !models.IsOrderState(estado) {
		return nil, ErrValidation("estado", "estado de orden no válido: %s", estado)
	}

	order, err := s.getOrder(ctx, ordenID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransitionOrder(order.Estado, estado) {
		return nil, ErrBusiness("no se puede cambiar de %s a %s", order.Estado, estado)
	}

	if estado == models.OrderCancelled {
		if err := s.store.SetOrderStateCascade(ctx, ordenID, estado, order.MesaID); err != nil {
			return nil, ErrInternal("actualizar estado de orden", err)
		}
	} else if err := s.store.UpdateOrderState(ctx, ordenID, estado); err != nil {
		return nil, ErrInternal("actualizar estado de orden", err)
	}
	prev := order.Estado
	order.Estado = estado

	if estado == models.OrderCancelled {
		util.OrdersCancelledTotal.Inc()
		if order.MesaID != nil {
			s.auditor.TableState(ctx, *order.MesaID, models.TableAvailable)
		}
	}

	s.auditor.Record(ctx, nil, "orden", "update_estado", order.ID,
		map[string]interface{}{"estado": prev},
		map[string]interface{}{"estado": estado})

	return order, nil
}

// CancelOrder cancels an order and releases its table. Paid orders cannot be
// cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, ordenID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	order, err := s.getOrder(ctx, ordenID)
	if err != nil {
		return nil, err
	}
	if order.Estado == models.OrderPaid {
		return nil, ErrBusiness("no se puede cancelar una orden pagada")
	}
	if order.Estado == models.OrderCancelled {
		return order, nil
	}

	if err := s.store.SetOrderStateCascade(ctx, ordenID, models.OrderCancelled, order.MesaID); err != nil {
		return nil, ErrInternal("cancelar orden", err)
	}
	order.Estado = models.OrderCancelled

	util.OrdersCancelledTotal.Inc()
	if order.MesaID != nil {
		s.auditor.TableState(ctx, *order.MesaID, models.TableAvailable)
	}

	s.auditor.Record(ctx, nil, "orden", "cancel", order.ID, nil,
		map[string]interface{}{"estado": models.OrderCancelled})

	return order, nil
}

func (s *OrderService) releaseOrderTable(ctx context.Context, order *models.Order) {
	if order.MesaID == nil {
		return
	}
	if err := s.store.UpdateTableState(ctx, *order.MesaID, models.TableAvailable); err != nil {
		s.logger.Error("Failed to release table",
			zap.Int64("mesa_id", *order.MesaID),
			zap.Error(err))
		return
	}
	s.auditor.TableState(ctx, *order.MesaID, models.TableAvailable)
}

// EditOrderRequest carries the editable order fields.
type EditOrderRequest struct {
	ClienteNombre *string `json:"cliente_nombre"`
	NumComensales *int    `json:"num_comensales"`
}

// EditOrder updates customer name and diner count on an open order. Changing
// the diner count re-checks table capacity and rebuilds the total.
func (s *OrderService) EditOrder(ctx context.Context, ordenID int64, req *EditOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.EditOrder")
	defer span.End()

	order, err := s.getOrder(ctx, ordenID)
	if err != nil {
		return nil, err
	}
	if order.Estado == models.OrderPaid || order.Estado == models.OrderCancelled {
		return nil, ErrBusiness("no se puede editar una orden %s", order.Estado)
	}

	if req.NumComensales != nil {
		if *req.NumComensales < 1 {
			return nil, ErrValidation("num_comensales", "el número de comensales debe ser al menos 1")
		}
		if order.MesaID != nil {
			mesa, err := s.store.GetTable(ctx, *order.MesaID)
			if err != nil {
				return nil, ErrInternal("consultar mesa", err)
			}
			if mesa != nil && *req.NumComensales > mesa.Capacidad {
				return nil, ErrValidation("num_comensales",
					"número de comensales (%d) excede la capacidad de la mesa (%d)", *req.NumComensales, mesa.Capacidad)
			}
		}
	}

	var total *float64
	if req.NumComensales != nil {
		items, err := s.store.ListOrderItems(ctx, ordenID)
		if err != nil {
			return nil, ErrInternal("listar items", err)
		}
		t := computeOrderTotal(items, *req.NumComensales)
		total = &t
	}

	if err := s.store.UpdateOrderInfo(ctx, ordenID, req.ClienteNombre, req.NumComensales, total); err != nil {
		return nil, ErrInternal("editar orden", err)
	}
	if req.ClienteNombre != nil {
		order.ClienteNombre = req.ClienteNombre
	}
	if req.NumComensales != nil {
		order.NumComensales = *req.NumComensales
	}
	if total != nil {
		order.MontoTotal = *total
	}

	s.auditor.Record(ctx, nil, "orden", "update", order.ID, nil,
		map[string]interface{}{"num_comensales": order.NumComensales})

	return order, nil
}

// DeleteOrder removes an order outright. Only pendiente and cancelada orders
// may be deleted; an occupied table is released first.
func (s *OrderService) DeleteOrder(ctx context.Context, ordenID int64) error {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer span.End()

	order, err := s.getOrder(ctx, ordenID)
	if err != nil {
		return err
	}
	if order.Estado != models.OrderPending && order.Estado != models.OrderCancelled {
		return ErrBusiness("solo se pueden eliminar órdenes pendientes o canceladas")
	}

	if order.MesaID != nil {
		mesa, err := s.store.GetTable(ctx, *order.MesaID)
		if err != nil {
			return ErrInternal("consultar mesa", err)
		}
		if mesa != nil && mesa.Estado == models.TableOccupied {
			s.releaseOrderTable(ctx, order)
		}
	}

	if err := s.store.DeleteOrder(ctx, ordenID); err != nil {
		return ErrInternal("eliminar orden", err)
	}

	s.auditor.Record(ctx, nil, "orden", "delete", ordenID, nil, nil)
	return nil
}

// EditItemRequest carries the editable item fields.
type EditItemRequest struct {
	Cantidad *int    `json:"cantidad"`
	Notas    *string `json:"notas"`
	Estacion *string `json:"estacion"`
}

// EditItem updates quantity, notes or station on an item of an open order and
// rebuilds the order total.
func (s *OrderService) EditItem(ctx context.Context, itemID int64, req *EditItemRequest) (*models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.EditItem")
	defer span.End()

	item, err := s.store.GetOrderItem(ctx, itemID)
	if err != nil {
		return nil, ErrInternal("consultar item", err)
	}
	if item == nil {
		return nil, ErrNotFound("item", itemID)
	}

	order, err := s.getOrder(ctx, item.OrdenID)
	if err != nil {
		return nil, err
	}
	if order.Estado == models.OrderPaid || order.Estado == models.OrderCancelled {
		return nil, ErrBusiness("no se puede editar items de una orden %s", order.Estado)
	}

	if req.Cantidad != nil {
		if *req.Cantidad < 1 {
			return nil, ErrValidation("cantidad", "la cantidad debe ser al menos 1")
		}
		item.Cantidad = *req.Cantidad
	}
	if req.Notas != nil {
		item.Notas = req.Notas
	}
	if req.Estacion != nil {
		if !models.IsStation(*req.Estacion) {
			return nil, ErrValidation("estacion", "estación no válida: %s", *req.Estacion)
		}
		item.Estacion = *req.Estacion
	}

	var total *float64
	if req.Cantidad != nil {
		items, err := s.store.ListOrderItems(ctx, order.ID)
		if err != nil {
			return nil, ErrInternal("listar items", err)
		}
		for i := range items {
			if items[i].ID == item.ID {
				items[i] = *item
			}
		}
		t := computeOrderTotal(items, order.NumComensales)
		total = &t
	}

	if err := s.store.UpdateOrderItemCascade(ctx, item, total); err != nil {
		return nil, ErrInternal("actualizar item", err)
	}
	if total != nil {
		order.MontoTotal = *total
	}

	s.auditor.Record(ctx, nil, "item_orden", "update", item.ID, nil, nil)
	return item, nil
}

// DeleteItem removes an item from an open order, rebuilds the total and drops
// the order back to pendiente when no items remain.
func (s *OrderService) DeleteItem(ctx context.Context, itemID int64) error {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteItem")
	defer span.End()

	item, err := s.store.GetOrderItem(ctx, itemID)
	if err != nil {
		return ErrInternal("consultar item", err)
	}
	if item == nil {
		return ErrNotFound("item", itemID)
	}

	order, err := s.getOrder(ctx, item.OrdenID)
	if err != nil {
		return err
	}
	if order.Estado == models.OrderPaid || order.Estado == models.OrderCancelled {
		return ErrBusiness("no se puede eliminar items de una orden %s", order.Estado)
	}

	items, err := s.store.ListOrderItems(ctx, order.ID)
	if err != nil {
		return ErrInternal("listar items", err)
	}
	var remaining []models.OrderItem
	for _, it := range items {
		if it.ID != itemID {
			remaining = append(remaining, it)
		}
	}

	total := computeOrderTotal(remaining, order.NumComensales)
	var nuevoEstado *string
	if len(remaining) == 0 && order.Estado != models.OrderPending {
		pendiente := models.OrderPending
		nuevoEstado = &pendiente
	}

	if err := s.store.DeleteOrderItemCascade(ctx, itemID, order.ID, total, nuevoEstado); err != nil {
		return ErrInternal("eliminar item", err)
	}

	s.auditor.Record(ctx, nil, "item_orden", "delete", itemID, nil, nil)
	return nil
}

// GetOrder retrieves an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, ordenID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.getOrder(ctx, ordenID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.store.ListOrderItems(ctx, ordenID)
	if err != nil {
		return nil, nil, ErrInternal("listar items", err)
	}
	return order, items, nil
}

// ListActiveOrders returns all orders visible on the floor Kanban, newest
// first.
func (s *OrderService) ListActiveOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.ListActiveOrders(ctx)
	if err != nil {
		return nil, ErrInternal("listar órdenes", err)
	}
	return orders, nil
}

// Stats returns order counts and today's revenue for the dashboard.
func (s *OrderService) Stats(ctx context.Context) (*models.OrderStats, error) {
	stats, err := s.store.GetOrderStats(ctx)
	if err != nil {
		return nil, ErrInternal("estadísticas de órdenes", err)
	}
	return stats, nil
}

func (s *OrderService) getOrder(ctx context.Context, ordenID int64) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, ordenID)
	if err != nil {
		return nil, ErrInternal("consultar orden", err)
	}
	if order == nil {
		return nil, ErrNotFound("orden", ordenID)
	}
	return order, nil
}
