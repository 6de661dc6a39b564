package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"restaurant-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateBlockCascade inserts the block and forces every in-scope table out of
// service in one transaction.
func (s *Store) CreateBlockCascade(ctx context.Context, b *models.Block, tableIDs []int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bloqueos (titulo, descripcion, fecha_inicio, fecha_fin, tipo, estado,
			mesa_id, zona_id, piso_id, usuario_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, creado_en, actualizado_en`
	if err := tx.GetContext(ctx, b, query,
		b.Titulo, b.Descripcion, b.FechaInicio, b.FechaFin, b.Tipo, b.Estado,
		b.MesaID, b.ZonaID, b.PisoID, b.UsuarioID); err != nil {
		return err
	}

	if err := setTableStates(ctx, tx, tableIDs, models.TableOutOfService); err != nil {
		return err
	}

	return tx.Commit()
}

// GetBlock retrieves a block by ID
func (s *Store) GetBlock(ctx context.Context, id int64) (*models.Block, error) {
	var b models.Block
	err := s.db.GetContext(ctx, &b, "SELECT * FROM bloqueos WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBlocks retrieves blocks matching the filter, soonest first
func (s *Store) ListBlocks(ctx context.Context, f models.BlockFilter) ([]models.Block, error) {
	var conds []string
	var args []interface{}

	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, cond+" $"+strconv.Itoa(len(args)))
	}

	if f.FechaDesde != nil {
		add("fecha_fin >=", *f.FechaDesde)
	}
	if f.FechaHasta != nil {
		add("fecha_inicio <=", *f.FechaHasta)
	}
	if f.Estado != "" {
		add("estado =", f.Estado)
	}
	if f.Tipo != "" {
		add("tipo =", f.Tipo)
	}
	if f.MesaID != nil {
		add("mesa_id =", *f.MesaID)
	}
	if f.ZonaID != nil {
		add("zona_id =", *f.ZonaID)
	}
	if f.PisoID != nil {
		add("piso_id =", *f.PisoID)
	}

	query := "SELECT * FROM bloqueos"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY fecha_inicio"

	var blocks []models.Block
	err := s.db.SelectContext(ctx, &blocks, query, args...)
	return blocks, err
}

// UpdateBlockState updates block state
func (s *Store) UpdateBlockState(ctx context.Context, id int64, estado string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE bloqueos SET estado = $1, actualizado_en = NOW() WHERE id = $2",
		estado, id)
	return err
}

// SetBlockStateCascade updates the block's state and releases the given
// tables back to disponible in one transaction.
func (s *Store) SetBlockStateCascade(ctx context.Context, id int64, estado string, releaseTableIDs []int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE bloqueos SET estado = $1, actualizado_en = NOW() WHERE id = $2",
		estado, id); err != nil {
		return err
	}

	if err := setTableStates(ctx, tx, releaseTableIDs, models.TableAvailable); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteBlockCascade removes the block and releases its tables in one
// transaction.
func (s *Store) DeleteBlockCascade(ctx context.Context, id int64, releaseTableIDs []int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM bloqueos WHERE id = $1", id); err != nil {
		return err
	}

	if err := setTableStates(ctx, tx, releaseTableIDs, models.TableAvailable); err != nil {
		return err
	}

	return tx.Commit()
}

// FindZoneBlockOverlapping retrieves a block over the zone (or its floor)
// whose window intersects [desde, hasta), if any
func (s *Store) FindZoneBlockOverlapping(ctx context.Context, zonaID int64, desde, hasta time.Time, estados []string) (*models.Block, error) {
	if len(estados) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT b.* FROM bloqueos b
		LEFT JOIN zonas z ON z.id = ?
		WHERE b.estado IN (?)
		  AND (b.zona_id = ? OR b.piso_id = z.piso_id)
		  AND b.fecha_inicio < ? AND ? < b.fecha_fin
		ORDER BY b.fecha_inicio LIMIT 1`,
		zonaID, estados, zonaID, hasta, desde)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var b models.Block
	err = s.db.GetContext(ctx, &b, query, args...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListDueScheduledBlocks retrieves scheduled blocks whose window has started
func (s *Store) ListDueScheduledBlocks(ctx context.Context, now time.Time) ([]models.Block, error) {
	var blocks []models.Block
	err := s.db.SelectContext(ctx, &blocks,
		"SELECT * FROM bloqueos WHERE estado = $1 AND fecha_inicio <= $2 ORDER BY fecha_inicio",
		models.BlockScheduled, now)
	return blocks, err
}

// ListExpiredActiveBlocks retrieves active blocks whose window has ended
func (s *Store) ListExpiredActiveBlocks(ctx context.Context, now time.Time) ([]models.Block, error) {
	var blocks []models.Block
	err := s.db.SelectContext(ctx, &blocks,
		"SELECT * FROM bloqueos WHERE estado = $1 AND fecha_fin <= $2 ORDER BY fecha_fin",
		models.BlockActive, now)
	return blocks, err
}
