package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders successfully paid",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order creations",
	}, []string{"reason"})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of cancelled orders",
	})

	PaymentAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Total number of payment attempts",
	})

	PaymentSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_success_total",
		Help: "Total number of successful payments",
	})

	PaymentFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_failed_total",
		Help: "Total number of failed payments",
	})

	PaymentsVoidedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_voided_total",
		Help: "Total number of voided payments",
	})

	ReservationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_created_total",
		Help: "Total number of reservations created",
	})

	ReservationConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_conflicts_total",
		Help: "Total number of bookings rejected for conflicts",
	})

	BlocksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blocks_created_total",
		Help: "Total number of out-of-service blocks created",
	})

	BlocksAutoTransitionedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blocks_auto_transitioned_total",
		Help: "Total number of block state changes made by the scheduler",
	}, []string{"to"})

	KitchenUrgentItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kitchen_urgent_items_total",
		Help: "Total number of kitchen items flagged urgent",
	})

	TableStateEventsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "table_state_events_consumed_total",
		Help: "Total number of table state events applied to the cache",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
