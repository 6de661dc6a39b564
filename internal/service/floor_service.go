package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restaurant-service/internal/models"
	"restaurant-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TableStateCache is the realtime occupancy overlay. internal/redisclient
// implements it; a nil cache degrades the floor plan to database reads only.
type TableStateCache interface {
	GetTableStates(ctx context.Context, mesaIDs []int64) (map[int64]string, error)
	SetTableState(ctx context.Context, mesaID int64, estado string) error
}

// FloorService serves the floor plan: the piso/zona/mesa hierarchy, table
// occupancy and the per-table QR codes guests scan to order.
type FloorService struct {
	store   Store
	cache   TableStateCache
	auditor *Auditor
	logger  *zap.Logger
}

// NewFloorService creates a new floor service.
func NewFloorService(store Store, cache TableStateCache, auditor *Auditor) *FloorService {
	return &FloorService{
		store:   store,
		cache:   cache,
		auditor: auditor,
		logger:  util.GetLogger(),
	}
}

// ZoneLayout is a zone with its tables for the floor plan view.
type ZoneLayout struct {
	models.Zone
	Mesas []models.Table `json:"mesas"`
}

// FloorLayout is a floor with its zones for the floor plan view.
type FloorLayout struct {
	models.Floor
	Zonas []ZoneLayout `json:"zonas"`
}

// Layout returns the full floor plan hierarchy from the database.
func (s *FloorService) Layout(ctx context.Context) ([]FloorLayout, error) {
	ctx, span := util.StartSpan(ctx, "FloorService.Layout")
	defer span.End()

	floors, err := s.store.ListFloors(ctx)
	if err != nil {
		return nil, ErrInternal("listar pisos", err)
	}

	layout := make([]FloorLayout, 0, len(floors))
	for _, floor := range floors {
		zones, err := s.store.ListZonesByFloor(ctx, floor.ID)
		if err != nil {
			return nil, ErrInternal("listar zonas", err)
		}
		fl := FloorLayout{Floor: floor, Zonas: make([]ZoneLayout, 0, len(zones))}
		for _, zone := range zones {
			tables, err := s.store.ListTablesByZone(ctx, zone.ID)
			if err != nil {
				return nil, ErrInternal("listar mesas", err)
			}
			fl.Zonas = append(fl.Zonas, ZoneLayout{Zone: zone, Mesas: tables})
		}
		layout = append(layout, fl)
	}
	return layout, nil
}

// RealtimeLayout returns the floor plan with table states overlaid from the
// cache, so the view reflects changes the event pipeline has already seen.
func (s *FloorService) RealtimeLayout(ctx context.Context) ([]FloorLayout, error) {
	ctx, span := util.StartSpan(ctx, "FloorService.RealtimeLayout")
	defer span.End()

	layout, err := s.Layout(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache == nil {
		return layout, nil
	}

	var ids []int64
	for _, floor := range layout {
		for _, zone := range floor.Zonas {
			for _, mesa := range zone.Mesas {
				ids = append(ids, mesa.ID)
			}
		}
	}

	states, err := s.cache.GetTableStates(ctx, ids)
	if err != nil {
		// Cache miss or outage falls back to database state.
		s.logger.Warn("Table state cache unavailable", zap.Error(err))
		return layout, nil
	}

	for fi := range layout {
		for zi := range layout[fi].Zonas {
			mesas := layout[fi].Zonas[zi].Mesas
			for mi := range mesas {
				if estado, ok := states[mesas[mi].ID]; ok && estado != "" {
					mesas[mi].Estado = estado
				}
			}
		}
	}
	return layout, nil
}

// TableDetail bundles a table with what is currently happening on it.
type TableDetail struct {
	Mesa        models.Table        `json:"mesa"`
	OrdenActiva *models.Order       `json:"orden_activa,omitempty"`
	ReservaHoy  *models.Reservation `json:"reserva_hoy,omitempty"`
	Historial   []models.Order      `json:"historial"`
}

// TableDetails returns a table with its active order, today's confirmed
// reservation and recent order history.
func (s *FloorService) TableDetails(ctx context.Context, mesaID int64) (*TableDetail, error) {
	ctx, span := util.StartSpan(ctx, "FloorService.TableDetails")
	defer span.End()

	mesa, err := s.store.GetTable(ctx, mesaID)
	if err != nil {
		return nil, ErrInternal("consultar mesa", err)
	}
	if mesa == nil {
		return nil, ErrNotFound("mesa", mesaID)
	}

	detail := &TableDetail{Mesa: *mesa}

	if detail.OrdenActiva, err = s.store.GetActiveOrderByTable(ctx, mesaID); err != nil {
		return nil, ErrInternal("consultar orden activa", err)
	}
	if detail.ReservaHoy, err = s.store.GetConfirmedReservationForTableOnDate(ctx, mesaID, truncateToDate(time.Now())); err != nil {
		return nil, ErrInternal("consultar reserva", err)
	}
	if detail.Historial, err = s.store.ListRecentOrdersByTable(ctx, mesaID, 10); err != nil {
		return nil, ErrInternal("consultar historial", err)
	}
	return detail, nil
}

// UpdateTableState sets a table's occupancy state by hand, for the host stand.
func (s *FloorService) UpdateTableState(ctx context.Context, mesaID int64, estado string, usuarioID *int64) (*models.Table, error) {
	ctx, span := util.StartSpan(ctx, "FloorService.UpdateTableState")
	defer span.End()

	if !models.IsTableState(estado) {
		return nil, ErrValidation("estado", "estado de mesa no válido: %s", estado)
	}

	mesa, err := s.store.GetTable(ctx, mesaID)
	if err != nil {
		return nil, ErrInternal("consultar mesa", err)
	}
	if mesa == nil {
		return nil, ErrNotFound("mesa", mesaID)
	}
	previo := mesa.Estado

	if err := s.store.UpdateTableState(ctx, mesaID, estado); err != nil {
		return nil, ErrInternal("actualizar mesa", err)
	}
	mesa.Estado = estado

	s.logger.Info("Table state updated",
		zap.Int64("mesa_id", mesaID),
		zap.String("de", previo),
		zap.String("a", estado))

	s.auditor.Record(ctx, usuarioID, "mesa", "update", mesaID,
		map[string]interface{}{"estado": previo},
		map[string]interface{}{"estado": estado})
	s.auditor.TableState(ctx, mesaID, estado)

	return mesa, nil
}

// StateSummary returns the count of tables per occupancy state.
func (s *FloorService) StateSummary(ctx context.Context) (map[string]int, error) {
	counts, err := s.store.CountTablesByState(ctx)
	if err != nil {
		return nil, ErrInternal("resumen de mesas", err)
	}
	// Every known state appears in the summary, even at zero.
	for _, estado := range []string{models.TableAvailable, models.TableOccupied,
		models.TableCleaning, models.TableReserved, models.TableOutOfService} {
		if _, ok := counts[estado]; !ok {
			counts[estado] = 0
		}
	}
	return counts, nil
}

// GenerateQR mints a fresh QR token for a table, invalidating the previous
// one. The token is opaque; the gateway maps it back to the table.
func (s *FloorService) GenerateQR(ctx context.Context, mesaID int64, usuarioID *int64) (*models.Table, error) {
	ctx, span := util.StartSpan(ctx, "FloorService.GenerateQR")
	defer span.End()

	mesa, err := s.store.GetTable(ctx, mesaID)
	if err != nil {
		return nil, ErrInternal("consultar mesa", err)
	}
	if mesa == nil {
		return nil, ErrNotFound("mesa", mesaID)
	}

	token := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	qr := fmt.Sprintf("MESA_%d_%s", mesaID, token)
	if err := s.store.UpdateTableQR(ctx, mesaID, qr); err != nil {
		return nil, ErrInternal("generar código QR", err)
	}
	mesa.QRCode = qr

	s.auditor.Record(ctx, usuarioID, "mesa", "generar_qr", mesaID, nil,
		map[string]interface{}{"qr_code": qr})
	return mesa, nil
}
