package service

import (
	"context"
	"time"

	"restaurant-service/internal/models"
	"restaurant-service/internal/util"

	"go.uber.org/zap"
)

// KitchenService drives the per-station Kanban boards the cooks work from.
type KitchenService struct {
	store           Store
	logger          *zap.Logger
	urgentThreshold time.Duration
}

// NewKitchenService creates a new kitchen service. Items queued or in
// preparation longer than urgentThreshold are flagged urgent.
func NewKitchenService(store Store, urgentThreshold time.Duration) *KitchenService {
	return &KitchenService{
		store:           store,
		logger:          util.GetLogger(),
		urgentThreshold: urgentThreshold,
	}
}

// BoardItem is one card on a station board.
type BoardItem struct {
	models.OrderItem
	ProductoNombre string `json:"producto_nombre"`
	OrdenNumero    string `json:"orden_numero"`
	MesaNumero     string `json:"mesa_numero"`
	Urgente        bool   `json:"urgente"`
	MinutosEspera  int    `json:"minutos_espera"`
}

// Board is a station's Kanban: queued, in preparation and ready columns.
type Board struct {
	Estacion   string      `json:"estacion"`
	EnCola     []BoardItem `json:"en_cola"`
	Preparando []BoardItem `json:"preparando"`
	Listos     []BoardItem `json:"listos"`
}

// StationBoard returns the live Kanban for one station.
func (s *KitchenService) StationBoard(ctx context.Context, estacion string) (*Board, error) {
	ctx, span := util.StartSpan(ctx, "KitchenService.StationBoard")
	defer span.End()

	if !models.IsStation(estacion) {
		return nil, ErrValidation("estacion", "estación no válida: %s", estacion)
	}

	items, err := s.store.ListItemsByStation(ctx, estacion, models.ActiveItemStates)
	if err != nil {
		return nil, ErrInternal("listar items de estación", err)
	}

	board := &Board{Estacion: estacion}
	now := time.Now()
	for _, item := range items {
		card, err := s.buildCard(ctx, item, now)
		if err != nil {
			return nil, err
		}
		switch item.Estado {
		case models.ItemQueued:
			board.EnCola = append(board.EnCola, card)
		case models.ItemPreparing:
			board.Preparando = append(board.Preparando, card)
		case models.ItemReady:
			board.Listos = append(board.Listos, card)
		}
	}
	return board, nil
}

func (s *KitchenService) buildCard(ctx context.Context, item models.OrderItem, now time.Time) (BoardItem, error) {
	card := BoardItem{OrderItem: item, MesaNumero: "Para Llevar"}

	if producto, err := s.store.GetProduct(ctx, item.ProductoID); err == nil && producto != nil {
		card.ProductoNombre = producto.Nombre
	}

	order, err := s.store.GetOrder(ctx, item.OrdenID)
	if err != nil {
		return card, ErrInternal("consultar orden", err)
	}
	if order != nil {
		card.OrdenNumero = order.Numero
		if order.MesaID != nil {
			if mesa, err := s.store.GetTable(ctx, *order.MesaID); err == nil && mesa != nil {
				card.MesaNumero = mesa.Numero
			}
		}
	}

	since := item.CreadoEn
	if item.FechaInicio != nil {
		since = *item.FechaInicio
	}
	wait := now.Sub(since)
	card.MinutosEspera = int(wait.Minutes())
	card.Urgente = item.Estado != models.ItemReady && wait >= s.urgentThreshold
	if card.Urgente {
		util.KitchenUrgentItemsTotal.Inc()
	}
	return card, nil
}

// UrgentItems returns the cards across all stations that have waited past the
// urgency threshold.
func (s *KitchenService) UrgentItems(ctx context.Context) ([]BoardItem, error) {
	ctx, span := util.StartSpan(ctx, "KitchenService.UrgentItems")
	defer span.End()

	now := time.Now()
	var urgent []BoardItem
	for _, estacion := range []string{models.StationCold, models.StationHot, models.StationDrinks, models.StationDessert} {
		items, err := s.store.ListItemsByStation(ctx, estacion,
			[]string{models.ItemQueued, models.ItemPreparing})
		if err != nil {
			return nil, ErrInternal("listar items de estación", err)
		}
		for _, item := range items {
			card, err := s.buildCard(ctx, item, now)
			if err != nil {
				return nil, err
			}
			if card.Urgente {
				urgent = append(urgent, card)
			}
		}
	}
	return urgent, nil
}

// StationStats summarizes a station's live load and today's throughput.
type StationStats struct {
	Estacion    string `json:"estacion"`
	EnCola      int    `json:"en_cola"`
	Preparando  int    `json:"preparando"`
	Listos      int    `json:"listos"`
	ServidosHoy int    `json:"servidos_hoy"`
	PromedioMin int    `json:"promedio_minutos"`
}

// Stats returns a station's queue depths plus today's served count and the
// average preparation time in minutes.
func (s *KitchenService) Stats(ctx context.Context, estacion string) (*StationStats, error) {
	ctx, span := util.StartSpan(ctx, "KitchenService.Stats")
	defer span.End()

	if !models.IsStation(estacion) {
		return nil, ErrValidation("estacion", "estación no válida: %s", estacion)
	}

	live, err := s.store.ListItemsByStation(ctx, estacion, models.ActiveItemStates)
	if err != nil {
		return nil, ErrInternal("listar items de estación", err)
	}

	stats := &StationStats{Estacion: estacion}
	for _, item := range live {
		switch item.Estado {
		case models.ItemQueued:
			stats.EnCola++
		case models.ItemPreparing:
			stats.Preparando++
		case models.ItemReady:
			stats.Listos++
		}
	}

	served, err := s.store.ListServedItemsSince(ctx, estacion, truncateToDate(time.Now()))
	if err != nil {
		return nil, ErrInternal("listar items servidos", err)
	}
	stats.ServidosHoy = len(served)

	var total time.Duration
	var measured int
	for _, item := range served {
		if item.FechaInicio != nil && item.FechaListo != nil {
			total += item.FechaListo.Sub(*item.FechaInicio)
			measured++
		}
	}
	if measured > 0 {
		stats.PromedioMin = int(total.Minutes()) / measured
	}
	return stats, nil
}
