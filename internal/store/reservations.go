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

// CreateReservation creates a new reservation
func (s *Store) CreateReservation(ctx context.Context, r *models.Reservation) error {
	query := `
		INSERT INTO reservas (cliente_nombre, cliente_telefono, cliente_email, fecha_reserva,
			hora_reserva, duracion_estimada, numero_personas, estado, tipo_reserva, notas,
			zona_id, mesa_id, usuario_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, creado_en, actualizado_en`

	return s.db.GetContext(ctx, r, query,
		r.ClienteNombre, r.ClienteTelefono, r.ClienteEmail, r.FechaReserva,
		r.HoraReserva, r.DuracionEstimada, r.NumeroPersonas, r.Estado, r.TipoReserva,
		r.Notas, r.ZonaID, r.MesaID, r.UsuarioID)
}

// GetReservation retrieves a reservation by ID
func (s *Store) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	var r models.Reservation
	err := s.db.GetContext(ctx, &r, "SELECT * FROM reservas WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReservations retrieves reservations matching the filter, soonest first
func (s *Store) ListReservations(ctx context.Context, f models.ReservationFilter) ([]models.Reservation, error) {
	var conds []string
	var args []interface{}

	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, cond+" $"+strconv.Itoa(len(args)))
	}

	if f.FechaDesde != nil {
		add("fecha_reserva >=", *f.FechaDesde)
	}
	if f.FechaHasta != nil {
		add("fecha_reserva <=", *f.FechaHasta)
	}
	if f.Estado != "" {
		add("estado =", f.Estado)
	}
	if f.ZonaID != nil {
		add("zona_id =", *f.ZonaID)
	}
	if f.MesaID != nil {
		add("mesa_id =", *f.MesaID)
	}

	query := "SELECT * FROM reservas"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY fecha_reserva, hora_reserva"

	var rs []models.Reservation
	err := s.db.SelectContext(ctx, &rs, query, args...)
	return rs, err
}

// ListReservationsOnDate retrieves a date's reservations in the given states
func (s *Store) ListReservationsOnDate(ctx context.Context, fecha time.Time, estados []string) ([]models.Reservation, error) {
	if len(estados) == 0 {
		return []models.Reservation{}, nil
	}
	query, args, err := sqlx.In(
		"SELECT * FROM reservas WHERE fecha_reserva = ? AND estado IN (?) ORDER BY hora_reserva",
		fecha, estados)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var rs []models.Reservation
	err = s.db.SelectContext(ctx, &rs, query, args...)
	return rs, err
}

// ListReservationsBetweenDates retrieves reservations inside a date range,
// optionally narrowed to a table or zone
func (s *Store) ListReservationsBetweenDates(ctx context.Context, desde, hasta time.Time, estados []string, mesaID, zonaID *int64) ([]models.Reservation, error) {
	if len(estados) == 0 {
		return []models.Reservation{}, nil
	}

	query := "SELECT * FROM reservas WHERE fecha_reserva BETWEEN ? AND ? AND estado IN (?)"
	args := []interface{}{desde, hasta, estados}
	if mesaID != nil {
		query += " AND mesa_id = ?"
		args = append(args, *mesaID)
	}
	if zonaID != nil {
		query += " AND zona_id = ?"
		args = append(args, *zonaID)
	}
	query += " ORDER BY fecha_reserva, hora_reserva"

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var rs []models.Reservation
	err = s.db.SelectContext(ctx, &rs, query, inArgs...)
	return rs, err
}

// GetConfirmedReservationForTableOnDate retrieves the confirmed booking that
// holds a table on a given date, if any
func (s *Store) GetConfirmedReservationForTableOnDate(ctx context.Context, mesaID int64, fecha time.Time) (*models.Reservation, error) {
	var r models.Reservation
	err := s.db.GetContext(ctx, &r, `
		SELECT * FROM reservas
		WHERE mesa_id = $1 AND fecha_reserva = $2 AND estado = $3
		ORDER BY hora_reserva LIMIT 1`,
		mesaID, fecha, models.ReservationConfirmed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateReservationState updates reservation state
func (s *Store) UpdateReservationState(ctx context.Context, id int64, estado string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE reservas SET estado = $1, actualizado_en = NOW() WHERE id = $2",
		estado, id)
	return err
}

// UpdateReservationNotas replaces the notes on a reservation
func (s *Store) UpdateReservationNotas(ctx context.Context, id int64, notas string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE reservas SET notas = $1, actualizado_en = NOW() WHERE id = $2",
		notas, id)
	return err
}

// DeleteReservation removes a reservation
func (s *Store) DeleteReservation(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM reservas WHERE id = $1", id)
	return err
}
