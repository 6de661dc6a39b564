package models

import "time"

// Floor represents a building level (piso) grouping zones.
type Floor struct {
	ID          int64     `db:"id" json:"id"`
	Nombre      string    `db:"nombre" json:"nombre"`
	Descripcion string    `db:"descripcion" json:"descripcion,omitempty"`
	Orden       int       `db:"orden" json:"orden"`
	Activo      bool      `db:"activo" json:"activo"`
	CreadoEn    time.Time `db:"creado_en" json:"creado_en"`
}

// Zone represents a named area (zona) inside a floor.
type Zone struct {
	ID              int64     `db:"id" json:"id"`
	Nombre          string    `db:"nombre" json:"nombre"`
	Descripcion     string    `db:"descripcion" json:"descripcion,omitempty"`
	Tipo            string    `db:"tipo" json:"tipo"`
	CapacidadMaxima int       `db:"capacidad_maxima" json:"capacidad_maxima"`
	PisoID          int64     `db:"piso_id" json:"piso_id"`
	Orden           int       `db:"orden" json:"orden"`
	Activo          bool      `db:"activo" json:"activo"`
	Color           string    `db:"color" json:"color,omitempty"`
	Icono           string    `db:"icono" json:"icono,omitempty"`
	CreadoEn        time.Time `db:"creado_en" json:"creado_en"`
}

// Table represents a physical table (mesa), the occupancy unit of the floor plan.
type Table struct {
	ID            int64     `db:"id" json:"id"`
	Numero        string    `db:"numero" json:"numero"`
	Capacidad     int       `db:"capacidad" json:"capacidad"`
	ZonaID        int64     `db:"zona_id" json:"zona_id"`
	Estado        string    `db:"estado" json:"estado"`
	QRCode        string    `db:"qr_code" json:"qr_code,omitempty"`
	PosicionX     float64   `db:"posicion_x" json:"posicion_x"`
	PosicionY     float64   `db:"posicion_y" json:"posicion_y"`
	Activo        bool      `db:"activo" json:"activo"`
	Notas         string    `db:"notas" json:"notas,omitempty"`
	CreadoEn      time.Time `db:"creado_en" json:"creado_en"`
	ActualizadoEn time.Time `db:"actualizado_en" json:"actualizado_en"`
}

// Product is the slice of the menu catalog the order engine needs.
type Product struct {
	ID           int64   `db:"id" json:"id"`
	Nombre       string  `db:"nombre" json:"nombre"`
	Precio       float64 `db:"precio" json:"precio"`
	TipoEstacion string  `db:"tipo_estacion" json:"tipo_estacion"`
	Disponible   bool    `db:"disponible" json:"disponible"`
}

// Order represents a guest's tab (orden). MesaID is nil for takeaway/delivery.
type Order struct {
	ID            int64     `db:"id" json:"id"`
	Numero        string    `db:"numero" json:"numero"`
	MesaID        *int64    `db:"mesa_id" json:"mesa_id"`
	MozoID        int64     `db:"mozo_id" json:"mozo_id"`
	Tipo          string    `db:"tipo" json:"tipo"`
	Estado        string    `db:"estado" json:"estado"`
	MontoTotal    float64   `db:"monto_total" json:"monto_total"`
	NumComensales int       `db:"num_comensales" json:"num_comensales"`
	ClienteNombre *string   `db:"cliente_nombre" json:"cliente_nombre,omitempty"`
	CreadoEn      time.Time `db:"creado_en" json:"creado_en"`
	ActualizadoEn time.Time `db:"actualizado_en" json:"actualizado_en"`
}

// OrderItem is one product line within an order, tracked through kitchen stations.
type OrderItem struct {
	ID             int64      `db:"id" json:"id"`
	OrdenID        int64      `db:"orden_id" json:"orden_id"`
	ProductoID     int64      `db:"producto_id" json:"producto_id"`
	Cantidad       int        `db:"cantidad" json:"cantidad"`
	PrecioUnitario float64    `db:"precio_unitario" json:"precio_unitario"`
	Estado         string     `db:"estado" json:"estado"`
	Estacion       string     `db:"estacion" json:"estacion"`
	FechaInicio    *time.Time `db:"fecha_inicio" json:"fecha_inicio,omitempty"`
	FechaListo     *time.Time `db:"fecha_listo" json:"fecha_listo,omitempty"`
	FechaServido   *time.Time `db:"fecha_servido" json:"fecha_servido,omitempty"`
	Notas          *string    `db:"notas" json:"notas,omitempty"`
	CreadoEn       time.Time  `db:"creado_en" json:"creado_en"`
	ActualizadoEn  time.Time  `db:"actualizado_en" json:"actualizado_en"`
}

// Payment represents a settlement record (pago) against an order.
type Payment struct {
	ID      int64     `db:"id" json:"id"`
	OrdenID int64     `db:"orden_id" json:"orden_id"`
	Monto   float64   `db:"monto" json:"monto"`
	Metodo  string    `db:"metodo" json:"metodo"`
	Estado  string    `db:"estado" json:"estado"`
	Fecha   time.Time `db:"fecha" json:"fecha"`
}

// Reservation represents a future booking (reserva) of a zone or table.
// FechaReserva carries the calendar date; HoraReserva is "HH:MM".
type Reservation struct {
	ID               int64     `db:"id" json:"id"`
	ClienteNombre    string    `db:"cliente_nombre" json:"cliente_nombre"`
	ClienteTelefono  string    `db:"cliente_telefono" json:"cliente_telefono"`
	ClienteEmail     *string   `db:"cliente_email" json:"cliente_email,omitempty"`
	FechaReserva     time.Time `db:"fecha_reserva" json:"fecha_reserva"`
	HoraReserva      string    `db:"hora_reserva" json:"hora_reserva"`
	DuracionEstimada int       `db:"duracion_estimada" json:"duracion_estimada"`
	NumeroPersonas   int       `db:"numero_personas" json:"numero_personas"`
	Estado           string    `db:"estado" json:"estado"`
	TipoReserva      string    `db:"tipo_reserva" json:"tipo_reserva"`
	Notas            *string   `db:"notas" json:"notas,omitempty"`
	ZonaID           int64     `db:"zona_id" json:"zona_id"`
	MesaID           *int64    `db:"mesa_id" json:"mesa_id"`
	UsuarioID        *int64    `db:"usuario_id" json:"usuario_id,omitempty"`
	CreadoEn         time.Time `db:"creado_en" json:"creado_en"`
	ActualizadoEn    time.Time `db:"actualizado_en" json:"actualizado_en"`
}

// Block represents a scheduled out-of-service period (bloqueo) over a table,
// a zone or a whole floor. Exactly one of MesaID/ZonaID/PisoID is set.
type Block struct {
	ID            int64     `db:"id" json:"id"`
	Titulo        string    `db:"titulo" json:"titulo"`
	Descripcion   *string   `db:"descripcion" json:"descripcion,omitempty"`
	FechaInicio   time.Time `db:"fecha_inicio" json:"fecha_inicio"`
	FechaFin      time.Time `db:"fecha_fin" json:"fecha_fin"`
	Tipo          string    `db:"tipo" json:"tipo"`
	Estado        string    `db:"estado" json:"estado"`
	MesaID        *int64    `db:"mesa_id" json:"mesa_id"`
	ZonaID        *int64    `db:"zona_id" json:"zona_id"`
	PisoID        *int64    `db:"piso_id" json:"piso_id"`
	UsuarioID     int64     `db:"usuario_id" json:"usuario_id"`
	CreadoEn      time.Time `db:"creado_en" json:"creado_en"`
	ActualizadoEn time.Time `db:"actualizado_en" json:"actualizado_en"`
}

// Table states
const (
	TableAvailable    = "disponible"
	TableOccupied     = "ocupada"
	TableCleaning     = "limpieza"
	TableReserved     = "reservada"
	TableOutOfService = "fuera_servicio"
)

// Order types
const (
	OrderTypeLocal    = "local"
	OrderTypeTakeaway = "llevar"
	OrderTypeDelivery = "delivery"
)

// Order states
const (
	OrderPending   = "pendiente"
	OrderConfirmed = "confirmada"
	OrderPreparing = "preparando"
	OrderReady     = "lista"
	OrderServed    = "servida"
	OrderPaid      = "pagada"
	OrderCancelled = "cancelada"
)

// Item states
const (
	ItemPending   = "pendiente"
	ItemQueued    = "en_cola"
	ItemPreparing = "preparando"
	ItemReady     = "listo"
	ItemServed    = "servido"
	ItemCancelled = "cancelado"
)

// Kitchen stations
const (
	StationCold    = "frio"
	StationHot     = "caliente"
	StationDrinks  = "bebida"
	StationDessert = "postre"
)

// Payment methods
const (
	MethodCash     = "efectivo"
	MethodCard     = "tarjeta"
	MethodYape     = "yape"
	MethodPlin     = "plin"
	MethodTransfer = "transferencia"
)

// Payment states
const (
	PaymentPending = "pendiente"
	PaymentPaid    = "pagado"
	PaymentVoided  = "anulado"
)

// Reservation states
const (
	ReservationPending   = "pendiente"
	ReservationConfirmed = "confirmada"
	ReservationCancelled = "cancelada"
	ReservationCompleted = "completada"
)

// Reservation types
const (
	ReservationNormal  = "normal"
	ReservationSpecial = "especial"
	ReservationGroup   = "grupo"
)

// Block types
const (
	BlockMaintenance = "mantenimiento"
	BlockEvent       = "evento"
	BlockPrivate     = "reserva_privada"
	BlockOther       = "otro"
)

// Block states
const (
	BlockScheduled = "programado"
	BlockActive    = "activo"
	BlockCompleted = "completado"
	BlockCancelled = "cancelado"
)

// orderTransitions is the enforced state machine for orders. Terminal states
// map to an empty set.
var orderTransitions = map[string][]string{
	OrderPending:   {OrderConfirmed},
	OrderConfirmed: {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderServed, OrderCancelled},
	OrderServed:    {OrderPaid},
	OrderPaid:      {},
	OrderCancelled: {},
}

// CanTransitionOrder reports whether an order may move from one state to another.
func CanTransitionOrder(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOrderState reports whether s is a known order state.
func IsOrderState(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsItemState reports whether s is a known item state. Item transitions have
// no enforced graph; the kitchen may move an item to any known state.
func IsItemState(s string) bool {
	switch s {
	case ItemPending, ItemQueued, ItemPreparing, ItemReady, ItemServed, ItemCancelled:
		return true
	}
	return false
}

// IsTableState reports whether s is a known table state.
func IsTableState(s string) bool {
	switch s {
	case TableAvailable, TableOccupied, TableCleaning, TableReserved, TableOutOfService:
		return true
	}
	return false
}

// IsStation reports whether s is a known kitchen station.
func IsStation(s string) bool {
	switch s {
	case StationCold, StationHot, StationDrinks, StationDessert:
		return true
	}
	return false
}

// IsPaymentMethod reports whether m is a known payment method.
func IsPaymentMethod(m string) bool {
	switch m {
	case MethodCash, MethodCard, MethodYape, MethodPlin, MethodTransfer:
		return true
	}
	return false
}

// IsBlockType reports whether t is a known block type.
func IsBlockType(t string) bool {
	switch t {
	case BlockMaintenance, BlockEvent, BlockPrivate, BlockOther:
		return true
	}
	return false
}

// ActiveItemStates are the item states the kitchen board tracks.
var ActiveItemStates = []string{ItemQueued, ItemPreparing, ItemReady}

// ActiveOrderStates are the order states considered live on the floor.
var ActiveOrderStates = []string{OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderServed}
