package service

import (
	"context"
	"time"

	"restaurant-service/internal/models"
	"restaurant-service/internal/util"

	"go.uber.org/zap"
)

// PaymentService handles settlement at the cashier: charging served orders,
// voiding payments and the open-accounts view.
type PaymentService struct {
	store   Store
	auditor *Auditor
	logger  *zap.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(store Store, auditor *Auditor) *PaymentService {
	return &PaymentService{
		store:   store,
		auditor: auditor,
		logger:  util.GetLogger(),
	}
}

// SettleRequest represents a settlement attempt against an order.
type SettleRequest struct {
	Metodo string   `json:"metodo" binding:"required"`
	Monto  *float64 `json:"monto"`
}

// Settle charges a served order. The amount defaults to the order total; the
// order flips to pagada and the table returns to the pool.
func (s *PaymentService) Settle(ctx context.Context, ordenID int64, req *SettleRequest) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Settle")
	defer span.End()

	util.PaymentAttemptsTotal.Inc()

	if !models.IsPaymentMethod(req.Metodo) {
		return nil, ErrValidation("metodo", "método de pago no válido: %s", req.Metodo)
	}

	order, err := s.store.GetOrder(ctx, ordenID)
	if err != nil {
		return nil, ErrInternal("consultar orden", err)
	}
	if order == nil {
		return nil, ErrNotFound("orden", ordenID)
	}
	if order.Estado != models.OrderServed {
		return nil, ErrBusiness("solo se pueden pagar órdenes servidas")
	}

	monto := order.MontoTotal
	if req.Monto != nil {
		monto = *req.Monto
	}
	if monto < 0 {
		return nil, ErrValidation("monto", "el monto no puede ser negativo")
	}

	payment := &models.Payment{
		OrdenID: ordenID,
		Monto:   monto,
		Metodo:  req.Metodo,
		Estado:  models.PaymentPaid,
		Fecha:   time.Now().UTC(),
	}

	if err := s.store.SettlePayment(ctx, payment, order.MesaID); err != nil {
		util.PaymentFailedTotal.Inc()
		return nil, ErrInternal("procesar pago", err)
	}

	util.PaymentSuccessTotal.Inc()
	util.OrdersPaidTotal.Inc()
	s.logger.Info("Payment settled",
		zap.Int64("orden_id", ordenID),
		zap.Int64("pago_id", payment.ID),
		zap.String("metodo", payment.Metodo),
		zap.Float64("monto", payment.Monto))

	s.auditor.Record(ctx, nil, "pago", "create", payment.ID, nil,
		map[string]interface{}{"orden_id": ordenID, "metodo": req.Metodo, "monto": monto})
	if order.MesaID != nil {
		s.auditor.TableState(ctx, *order.MesaID, models.TableAvailable)
	}

	return payment, nil
}

// Void annuls a settled payment. The guard rejects the void when the order
// was modified after the payment was taken, so a tab cannot grow items after
// being charged and then have the charge reversed.
func (s *PaymentService) Void(ctx context.Context, pagoID int64) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Void")
	defer span.End()

	payment, err := s.store.GetPayment(ctx, pagoID)
	if err != nil {
		return nil, ErrInternal("consultar pago", err)
	}
	if payment == nil {
		return nil, ErrNotFound("pago", pagoID)
	}
	if payment.Estado != models.PaymentPaid {
		return nil, ErrBusiness("solo se pueden anular pagos en estado pagado")
	}

	order, err := s.store.GetOrder(ctx, payment.OrdenID)
	if err != nil {
		return nil, ErrInternal("consultar orden", err)
	}
	if order == nil {
		return nil, ErrNotFound("orden", payment.OrdenID)
	}
	if order.Estado != models.OrderPaid {
		return nil, ErrBusiness("no se puede anular: la orden ya no está en estado pagada")
	}

	// Settling bumps the order row itself, so the tamper check looks at the
	// line items instead.
	items, err := s.store.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, ErrInternal("listar items", err)
	}
	for _, item := range items {
		if item.ActualizadoEn.After(payment.Fecha) {
			return nil, ErrBusiness("no se puede anular: la orden fue modificada después del pago")
		}
	}

	if err := s.store.VoidPayment(ctx, payment.ID, order.ID, order.MesaID); err != nil {
		return nil, ErrInternal("anular pago", err)
	}
	payment.Estado = models.PaymentVoided

	util.PaymentsVoidedTotal.Inc()
	s.logger.Warn("Payment voided",
		zap.Int64("pago_id", payment.ID),
		zap.Int64("orden_id", order.ID))

	s.auditor.Record(ctx, nil, "pago", "anular", payment.ID,
		map[string]interface{}{"estado": models.PaymentPaid},
		map[string]interface{}{"estado": models.PaymentVoided})
	if order.MesaID != nil {
		s.auditor.TableState(ctx, *order.MesaID, models.TableOccupied)
	}

	return payment, nil
}

// OpenAccountItem is one line of an account pending payment.
type OpenAccountItem struct {
	ProductoNombre string  `json:"nombre"`
	Cantidad       int     `json:"cantidad"`
	PrecioUnitario float64 `json:"precio_unitario"`
	TotalItem      float64 `json:"total_item"`
}

// OpenAccount is a served order waiting at the cashier.
type OpenAccount struct {
	OrdenID    int64             `json:"id_orden"`
	MesaNumero string            `json:"numero_mesa"`
	MozoID     int64             `json:"mozo_id"`
	Total      float64           `json:"total_orden"`
	Items      []OpenAccountItem `json:"items"`
}

// OpenAccounts lists every served order with its item breakdown.
func (s *PaymentService) OpenAccounts(ctx context.Context) ([]OpenAccount, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.OpenAccounts")
	defer span.End()

	orders, err := s.store.ListOrdersByState(ctx, models.OrderServed)
	if err != nil {
		return nil, ErrInternal("listar cuentas abiertas", err)
	}

	accounts := make([]OpenAccount, 0, len(orders))
	for _, order := range orders {
		items, err := s.store.ListOrderItems(ctx, order.ID)
		if err != nil {
			return nil, ErrInternal("listar items", err)
		}

		account := OpenAccount{
			OrdenID:    order.ID,
			MesaNumero: "Para Llevar",
			MozoID:     order.MozoID,
			Total:      order.MontoTotal,
			Items:      make([]OpenAccountItem, 0, len(items)),
		}
		if order.MesaID != nil {
			mesa, err := s.store.GetTable(ctx, *order.MesaID)
			if err != nil {
				return nil, ErrInternal("consultar mesa", err)
			}
			if mesa != nil {
				account.MesaNumero = mesa.Numero
			}
		}

		for _, item := range items {
			nombre := ""
			if producto, err := s.store.GetProduct(ctx, item.ProductoID); err == nil && producto != nil {
				nombre = producto.Nombre
			}
			account.Items = append(account.Items, OpenAccountItem{
				ProductoNombre: nombre,
				Cantidad:       item.Cantidad,
				PrecioUnitario: item.PrecioUnitario,
				TotalItem:      float64(item.Cantidad) * item.PrecioUnitario,
			})
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// Stats returns payment counts and revenue for the cashier dashboard.
func (s *PaymentService) Stats(ctx context.Context) (*models.PaymentStats, error) {
	stats, err := s.store.GetPaymentStats(ctx)
	if err != nil {
		return nil, ErrInternal("estadísticas de pagos", err)
	}
	return stats, nil
}
