package models

import "time"

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	FechaDesde *time.Time
	FechaHasta *time.Time
	Estado     string
	ZonaID     *int64
	MesaID     *int64
}

// BlockFilter narrows block listings.
type BlockFilter struct {
	FechaDesde *time.Time
	FechaHasta *time.Time
	Estado     string
	Tipo       string
	MesaID     *int64
	ZonaID     *int64
	PisoID     *int64
}

// OrderStats feeds the orders dashboard.
type OrderStats struct {
	TotalOrdenes      int     `db:"total_ordenes" json:"total_ordenes"`
	OrdenesActivas    int     `db:"ordenes_activas" json:"ordenes_activas"`
	OrdenesPagadas    int     `db:"ordenes_pagadas" json:"ordenes_pagadas"`
	OrdenesCanceladas int     `db:"ordenes_canceladas" json:"ordenes_canceladas"`
	IngresosHoy       float64 `db:"ingresos_hoy" json:"ingresos_hoy"`
}

// PaymentStats feeds the cashier dashboard.
type PaymentStats struct {
	TotalPagos        int                `db:"total_pagos" json:"total_pagos"`
	PagosActivos      int                `db:"pagos_activos" json:"pagos_activos"`
	PagosAnulados     int                `db:"pagos_anulados" json:"pagos_anulados"`
	IngresosHoy       float64            `db:"ingresos_hoy" json:"ingresos_hoy"`
	IngresosPorMetodo map[string]float64 `db:"-" json:"ingresos_por_metodo"`
}
