package service

import (
	"context"
	"strings"
	"time"

	"restaurant-service/internal/models"
	"restaurant-service/internal/util"

	"go.uber.org/zap"
)

// BlockService manages out-of-service windows over tables, zones and floors.
// Blocks take effect at creation time: every in-scope table is forced to
// fuera_servicio immediately, regardless of the block's own lifecycle state.
type BlockService struct {
	store   Store
	auditor *Auditor
	logger  *zap.Logger
}

// NewBlockService creates a new block service.
func NewBlockService(store Store, auditor *Auditor) *BlockService {
	return &BlockService{
		store:   store,
		auditor: auditor,
		logger:  util.GetLogger(),
	}
}

// CreateBlockRequest represents a new block. Exactly one of MesaID, ZonaID
// and PisoID must be set.
type CreateBlockRequest struct {
	Titulo      string    `json:"titulo" binding:"required"`
	Descripcion *string   `json:"descripcion"`
	Tipo        string    `json:"tipo" binding:"required"`
	FechaInicio time.Time `json:"fecha_inicio" binding:"required"`
	FechaFin    time.Time `json:"fecha_fin" binding:"required"`
	MesaID      *int64    `json:"mesa_id"`
	ZonaID      *int64    `json:"zona_id"`
	PisoID      *int64    `json:"piso_id"`
	UsuarioID   int64     `json:"usuario_id" binding:"required"`
}

// Create validates and inserts a block, forcing every in-scope table out of
// service in the same transaction.
func (s *BlockService) Create(ctx context.Context, req *CreateBlockRequest) (*models.Block, error) {
	ctx, span := util.StartSpan(ctx, "BlockService.Create")
	defer span.End()

	if !models.IsBlockType(req.Tipo) {
		return nil, ErrValidation("tipo", "tipo de bloqueo no válido: %s", req.Tipo)
	}

	scopes := 0
	for _, id := range []*int64{req.MesaID, req.ZonaID, req.PisoID} {
		if id != nil {
			scopes++
		}
	}
	if scopes != 1 {
		return nil, ErrValidation("mesa_id", "debe especificar exactamente una ubicación (mesa, zona o piso)")
	}

	if !req.FechaInicio.Before(req.FechaFin) {
		return nil, ErrValidation("fecha_inicio", "la fecha de inicio debe ser anterior a la fecha de fin")
	}
	if req.FechaInicio.Before(time.Now().UTC()) {
		return nil, ErrValidation("fecha_inicio", "no se pueden crear bloqueos en fechas pasadas")
	}

	// Reservation conflicts are checked at calendar-date granularity, not
	// full datetime windows. A block crossing midnight therefore conflicts
	// with any reservation on either day; the over-blocking is intentional.
	if req.MesaID != nil || req.ZonaID != nil {
		desde := truncateToDate(req.FechaInicio)
		hasta := truncateToDate(req.FechaFin)
		conflicts, err := s.store.ListReservationsBetweenDates(ctx, desde, hasta,
			[]string{models.ReservationConfirmed, models.ReservationPending}, req.MesaID, req.ZonaID)
		if err != nil {
			return nil, ErrInternal("verificar conflictos", err)
		}
		if len(conflicts) > 0 {
			util.ReservationConflictsTotal.Inc()
			names := make([]string, 0, len(conflicts))
			for _, r := range conflicts {
				names = append(names, r.ClienteNombre)
			}
			return nil, ErrBusiness("conflicto con reservas existentes: %s", strings.Join(names, ", "))
		}
	}

	block := &models.Block{
		Titulo:      req.Titulo,
		Descripcion: req.Descripcion,
		FechaInicio: req.FechaInicio,
		FechaFin:    req.FechaFin,
		Tipo:        req.Tipo,
		Estado:      models.BlockScheduled,
		MesaID:      req.MesaID,
		ZonaID:      req.ZonaID,
		PisoID:      req.PisoID,
		UsuarioID:   req.UsuarioID,
	}

	tableIDs, err := s.scopeTableIDs(ctx, block)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateBlockCascade(ctx, block, tableIDs); err != nil {
		return nil, ErrInternal("crear bloqueo", err)
	}

	util.BlocksCreatedTotal.Inc()
	s.logger.Info("Block created",
		zap.Int64("bloqueo_id", block.ID),
		zap.String("tipo", block.Tipo),
		zap.Int("mesas_afectadas", len(tableIDs)))

	s.auditor.Record(ctx, &req.UsuarioID, "bloqueo", "create", block.ID, nil,
		map[string]interface{}{"titulo": block.Titulo, "tipo": block.Tipo})
	s.publishTableStates(ctx, tableIDs, models.TableOutOfService)

	return block, nil
}

// scopeTableIDs resolves the tables affected by a block's scope.
func (s *BlockService) scopeTableIDs(ctx context.Context, block *models.Block) ([]int64, error) {
	switch {
	case block.MesaID != nil:
		mesa, err := s.store.GetTable(ctx, *block.MesaID)
		if err != nil {
			return nil, ErrInternal("consultar mesa", err)
		}
		if mesa == nil {
			return nil, ErrValidation("mesa_id", "mesa no encontrada")
		}
		return []int64{mesa.ID}, nil

	case block.ZonaID != nil:
		zona, err := s.store.GetZone(ctx, *block.ZonaID)
		if err != nil {
			return nil, ErrInternal("consultar zona", err)
		}
		if zona == nil {
			return nil, ErrValidation("zona_id", "zona no encontrada")
		}
		ids, err := s.store.ListTableIDsByZone(ctx, zona.ID)
		if err != nil {
			return nil, ErrInternal("listar mesas de zona", err)
		}
		return ids, nil

	case block.PisoID != nil:
		ids, err := s.store.ListTableIDsByFloor(ctx, *block.PisoID)
		if err != nil {
			return nil, ErrInternal("listar mesas de piso", err)
		}
		return ids, nil
	}
	return nil, ErrValidation("mesa_id", "bloqueo sin ubicación")
}

func (s *BlockService) publishTableStates(ctx context.Context, tableIDs []int64, estado string) {
	for _, id := range tableIDs {
		s.auditor.TableState(ctx, id, estado)
	}
}

// Activate marks a scheduled block active. Tables were already forced out of
// service at creation, so activation has no occupancy side effect.
func (s *BlockService) Activate(ctx context.Context, bloqueoID int64, usuarioID *int64) (*models.Block, error) {
	ctx, span := util.StartSpan(ctx, "BlockService.Activate")
	defer span.End()

	block, err := s.getBlock(ctx, bloqueoID)
	if err != nil {
		return nil, err
	}
	if block.Estado != models.BlockScheduled {
		return nil, ErrBusiness("solo se pueden activar bloqueos programados")
	}

	if err := s.store.UpdateBlockState(ctx, bloqueoID, models.BlockActive); err != nil {
		return nil, ErrInternal("activar bloqueo", err)
	}
	block.Estado = models.BlockActive

	s.auditor.Record(ctx, usuarioID, "bloqueo", "activar", block.ID, nil,
		map[string]interface{}{"estado": models.BlockActive})
	return block, nil
}

// Complete ends a block and releases every in-scope table back to disponible.
func (s *BlockService) Complete(ctx context.Context, bloqueoID int64, usuarioID *int64) (*models.Block, error) {
	return s.finish(ctx, bloqueoID, models.BlockCompleted, "completar", usuarioID)
}

// Cancel aborts a block and releases every in-scope table back to disponible.
func (s *BlockService) Cancel(ctx context.Context, bloqueoID int64, usuarioID *int64) (*models.Block, error) {
	return s.finish(ctx, bloqueoID, models.BlockCancelled, "cancelar", usuarioID)
}

func (s *BlockService) finish(ctx context.Context, bloqueoID int64, estado, accion string, usuarioID *int64) (*models.Block, error) {
	ctx, span := util.StartSpan(ctx, "BlockService.finish")
	defer span.End()

	block, err := s.getBlock(ctx, bloqueoID)
	if err != nil {
		return nil, err
	}
	if block.Estado == models.BlockCompleted || block.Estado == models.BlockCancelled {
		return nil, ErrBusiness("el bloqueo ya está en estado %s", block.Estado)
	}

	tableIDs, err := s.scopeTableIDs(ctx, block)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetBlockStateCascade(ctx, bloqueoID, estado, tableIDs); err != nil {
		return nil, ErrInternal(accion+" bloqueo", err)
	}
	block.Estado = estado

	s.logger.Info("Block finished",
		zap.Int64("bloqueo_id", block.ID),
		zap.String("estado", estado),
		zap.Int("mesas_liberadas", len(tableIDs)))

	s.auditor.Record(ctx, usuarioID, "bloqueo", accion, block.ID, nil,
		map[string]interface{}{"estado": estado})
	s.publishTableStates(ctx, tableIDs, models.TableAvailable)

	return block, nil
}

// Delete removes a block outright, releasing its tables first.
func (s *BlockService) Delete(ctx context.Context, bloqueoID int64, usuarioID *int64) error {
	ctx, span := util.StartSpan(ctx, "BlockService.Delete")
	defer span.End()

	block, err := s.getBlock(ctx, bloqueoID)
	if err != nil {
		return err
	}

	tableIDs, err := s.scopeTableIDs(ctx, block)
	if err != nil {
		return err
	}

	if err := s.store.DeleteBlockCascade(ctx, bloqueoID, tableIDs); err != nil {
		return ErrInternal("eliminar bloqueo", err)
	}

	s.auditor.Record(ctx, usuarioID, "bloqueo", "delete", bloqueoID, nil, nil)
	s.publishTableStates(ctx, tableIDs, models.TableAvailable)
	return nil
}

// List returns blocks matching the filter, ordered by start.
func (s *BlockService) List(ctx context.Context, f models.BlockFilter) ([]models.Block, error) {
	blocks, err := s.store.ListBlocks(ctx, f)
	if err != nil {
		return nil, ErrInternal("listar bloqueos", err)
	}
	return blocks, nil
}

// Get returns a block by ID.
func (s *BlockService) Get(ctx context.Context, bloqueoID int64) (*models.Block, error) {
	return s.getBlock(ctx, bloqueoID)
}

// DueScheduled returns scheduled blocks whose window has started.
func (s *BlockService) DueScheduled(ctx context.Context, now time.Time) ([]models.Block, error) {
	blocks, err := s.store.ListDueScheduledBlocks(ctx, now)
	if err != nil {
		return nil, ErrInternal("listar bloqueos por iniciar", err)
	}
	return blocks, nil
}

// ExpiredActive returns active blocks whose window has ended.
func (s *BlockService) ExpiredActive(ctx context.Context, now time.Time) ([]models.Block, error) {
	blocks, err := s.store.ListExpiredActiveBlocks(ctx, now)
	if err != nil {
		return nil, ErrInternal("listar bloqueos vencidos", err)
	}
	return blocks, nil
}

func (s *BlockService) getBlock(ctx context.Context, bloqueoID int64) (*models.Block, error) {
	block, err := s.store.GetBlock(ctx, bloqueoID)
	if err != nil {
		return nil, ErrInternal("consultar bloqueo", err)
	}
	if block == nil {
		return nil, ErrNotFound("bloqueo", bloqueoID)
	}
	return block, nil
}

// truncateToDate drops the time-of-day component.
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
