package store

import (
	"context"
	"database/sql"

	"restaurant-service/internal/models"
)

// ListFloors retrieves active floors in display order
func (s *Store) ListFloors(ctx context.Context) ([]models.Floor, error) {
	var floors []models.Floor
	err := s.db.SelectContext(ctx, &floors,
		"SELECT * FROM pisos WHERE activo = true ORDER BY orden, id")
	return floors, err
}

// GetZone retrieves a zone by ID
func (s *Store) GetZone(ctx context.Context, id int64) (*models.Zone, error) {
	var zone models.Zone
	err := s.db.GetContext(ctx, &zone, "SELECT * FROM zonas WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

// ListZonesByFloor retrieves active zones of a floor in display order
func (s *Store) ListZonesByFloor(ctx context.Context, pisoID int64) ([]models.Zone, error) {
	var zones []models.Zone
	err := s.db.SelectContext(ctx, &zones,
		"SELECT * FROM zonas WHERE piso_id = $1 AND activo = true ORDER BY orden, id", pisoID)
	return zones, err
}

// GetTable retrieves a table by ID
func (s *Store) GetTable(ctx context.Context, id int64) (*models.Table, error) {
	var table models.Table
	err := s.db.GetContext(ctx, &table, "SELECT * FROM mesas WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// ListTablesByZone retrieves active tables of a zone
func (s *Store) ListTablesByZone(ctx context.Context, zonaID int64) ([]models.Table, error) {
	var tables []models.Table
	err := s.db.SelectContext(ctx, &tables,
		"SELECT * FROM mesas WHERE zona_id = $1 AND activo = true ORDER BY numero", zonaID)
	return tables, err
}

// ListTableIDsByZone retrieves the IDs of a zone's active tables
func (s *Store) ListTableIDsByZone(ctx context.Context, zonaID int64) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		"SELECT id FROM mesas WHERE zona_id = $1 AND activo = true", zonaID)
	return ids, err
}

// ListTableIDsByFloor retrieves the IDs of a floor's active tables
func (s *Store) ListTableIDsByFloor(ctx context.Context, pisoID int64) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `
		SELECT m.id FROM mesas m
		JOIN zonas z ON z.id = m.zona_id
		WHERE z.piso_id = $1 AND m.activo = true`, pisoID)
	return ids, err
}

// SeizeTable atomically occupies a table. The conditional UPDATE makes two
// concurrent seatings race on the row: exactly one caller sees an affected
// row and wins.
func (s *Store) SeizeTable(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE mesas SET estado = $1, actualizado_en = NOW() WHERE id = $2 AND estado = $3",
		models.TableOccupied, id, models.TableAvailable)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateTableState sets a table's occupancy state
func (s *Store) UpdateTableState(ctx context.Context, id int64, estado string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE mesas SET estado = $1, actualizado_en = NOW() WHERE id = $2",
		estado, id)
	return err
}

// UpdateTableStates sets the occupancy state of several tables at once
func (s *Store) UpdateTableStates(ctx context.Context, ids []int64, estado string) error {
	if len(ids) == 0 {
		return nil
	}
	return setTableStates(ctx, s.db, ids, estado)
}

// UpdateTableQR replaces a table's QR token
func (s *Store) UpdateTableQR(ctx context.Context, id int64, qr string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE mesas SET qr_code = $1, actualizado_en = NOW() WHERE id = $2",
		qr, id)
	return err
}

// CountTablesByState groups active tables by occupancy state
func (s *Store) CountTablesByState(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT estado, COUNT(*) FROM mesas WHERE activo = true GROUP BY estado")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var estado string
		var n int
		if err := rows.Scan(&estado, &n); err != nil {
			return nil, err
		}
		counts[estado] = n
	}
	return counts, rows.Err()
}
