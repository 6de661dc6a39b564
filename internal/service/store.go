package service

import (
	"context"
	"time"

	"restaurant-service/internal/models"
)

// The store interfaces below are what the engines need from persistence.
// internal/store implements all of them over Postgres; tests use an
// in-memory fake. Get* methods return (nil, nil) when the row is absent.

// LayoutStore covers the spatial hierarchy and table occupancy.
type LayoutStore interface {
	ListFloors(ctx context.Context) ([]models.Floor, error)
	GetZone(ctx context.Context, id int64) (*models.Zone, error)
	ListZonesByFloor(ctx context.Context, pisoID int64) ([]models.Zone, error)
	GetTable(ctx context.Context, id int64) (*models.Table, error)
	ListTablesByZone(ctx context.Context, zonaID int64) ([]models.Table, error)
	ListTableIDsByZone(ctx context.Context, zonaID int64) ([]int64, error)
	ListTableIDsByFloor(ctx context.Context, pisoID int64) ([]int64, error)

	// SeizeTable atomically moves a table from disponible to ocupada and
	// reports whether the row was won.
	SeizeTable(ctx context.Context, id int64) (bool, error)
	UpdateTableState(ctx context.Context, id int64, estado string) error
	UpdateTableStates(ctx context.Context, ids []int64, estado string) error
	UpdateTableQR(ctx context.Context, id int64, qr string) error
	CountTablesByState(ctx context.Context) (map[string]int, error)
}

// OrderStore covers orders, their items and the menu slice the engine reads.
type OrderStore interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)

	OrderNumberExists(ctx context.Context, numero string) (bool, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListActiveOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByState(ctx context.Context, estado string) ([]models.Order, error)
	GetActiveOrderByTable(ctx context.Context, mesaID int64) (*models.Order, error)
	ListRecentOrdersByTable(ctx context.Context, mesaID int64, limit int) ([]models.Order, error)
	UpdateOrderState(ctx context.Context, id int64, estado string) error
	UpdateOrderInfo(ctx context.Context, id int64, clienteNombre *string, numComensales *int, total *float64) error
	// SetOrderStateCascade atomically updates the order state and releases
	// the table (when releaseMesaID is non-nil).
	SetOrderStateCascade(ctx context.Context, ordenID int64, estado string, releaseMesaID *int64) error
	DeleteOrder(ctx context.Context, id int64) error
	GetOrderStats(ctx context.Context) (*models.OrderStats, error)

	// The item cascades run the item write and the order-row rewrite (total,
	// optional state change) in one transaction.
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	CreateOrderItemCascade(ctx context.Context, item *models.OrderItem, total float64, nuevoEstado *string) error
	GetOrderItem(ctx context.Context, id int64) (*models.OrderItem, error)
	ListOrderItems(ctx context.Context, ordenID int64) ([]models.OrderItem, error)
	UpdateOrderItem(ctx context.Context, item *models.OrderItem) error
	UpdateOrderItemCascade(ctx context.Context, item *models.OrderItem, total *float64) error
	DeleteOrderItemCascade(ctx context.Context, itemID, ordenID int64, total float64, nuevoEstado *string) error
	ListItemsByStation(ctx context.Context, estacion string, estados []string) ([]models.OrderItem, error)
	ListServedItemsSince(ctx context.Context, estacion string, since time.Time) ([]models.OrderItem, error)
}

// PaymentStore covers settlement records.
type PaymentStore interface {
	// SettlePayment atomically inserts the payment, marks the order pagada
	// and releases the table (when mesaID is non-nil).
	SettlePayment(ctx context.Context, payment *models.Payment, mesaID *int64) error
	// VoidPayment atomically voids the payment, reverts the order to servida
	// and re-occupies the table (when mesaID is non-nil).
	VoidPayment(ctx context.Context, paymentID, ordenID int64, mesaID *int64) error
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	GetPaymentStats(ctx context.Context) (*models.PaymentStats, error)
}

// ReservationStore covers bookings.
type ReservationStore interface {
	CreateReservation(ctx context.Context, r *models.Reservation) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	ListReservations(ctx context.Context, f models.ReservationFilter) ([]models.Reservation, error)
	ListReservationsOnDate(ctx context.Context, fecha time.Time, estados []string) ([]models.Reservation, error)
	ListReservationsBetweenDates(ctx context.Context, desde, hasta time.Time, estados []string, mesaID, zonaID *int64) ([]models.Reservation, error)
	GetConfirmedReservationForTableOnDate(ctx context.Context, mesaID int64, fecha time.Time) (*models.Reservation, error)
	UpdateReservationState(ctx context.Context, id int64, estado string) error
	UpdateReservationNotas(ctx context.Context, id int64, notas string) error
	DeleteReservation(ctx context.Context, id int64) error
}

// BlockStore covers out-of-service windows. Cascade methods run the block
// mutation and the table-state fan-out in one transaction.
type BlockStore interface {
	CreateBlockCascade(ctx context.Context, b *models.Block, tableIDs []int64) error
	GetBlock(ctx context.Context, id int64) (*models.Block, error)
	ListBlocks(ctx context.Context, f models.BlockFilter) ([]models.Block, error)
	UpdateBlockState(ctx context.Context, id int64, estado string) error
	SetBlockStateCascade(ctx context.Context, id int64, estado string, releaseTableIDs []int64) error
	DeleteBlockCascade(ctx context.Context, id int64, releaseTableIDs []int64) error
	FindZoneBlockOverlapping(ctx context.Context, zonaID int64, desde, hasta time.Time, estados []string) (*models.Block, error)
	ListDueScheduledBlocks(ctx context.Context, now time.Time) ([]models.Block, error)
	ListExpiredActiveBlocks(ctx context.Context, now time.Time) ([]models.Block, error)
}

// Store is the full persistence surface.
type Store interface {
	LayoutStore
	OrderStore
	PaymentStore
	ReservationStore
	BlockStore
}

// EventPublisher is the outbound event sink. Implementations must be safe to
// call from request handlers; callers treat failures as log-only.
type EventPublisher interface {
	PublishAudit(ctx context.Context, event *models.AuditEvent) error
	PublishTableState(ctx context.Context, event *models.TableStateChangedEvent) error
}
