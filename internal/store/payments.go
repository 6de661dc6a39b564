package store

import (
	"context"
	"database/sql"

	"restaurant-service/internal/models"
)

// SettlePayment inserts the payment, flips the order to pagada and releases
// the table in a single transaction, so a crash can never leave a charged
// order on an occupied table.
func (s *Store) SettlePayment(ctx context.Context, payment *models.Payment, mesaID *int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO pagos (orden_id, monto, metodo, estado, fecha)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := tx.GetContext(ctx, &payment.ID, query,
		payment.OrdenID, payment.Monto, payment.Metodo, payment.Estado, payment.Fecha); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE ordenes SET estado = $1, actualizado_en = NOW() WHERE id = $2",
		models.OrderPaid, payment.OrdenID); err != nil {
		return err
	}

	if mesaID != nil {
		if _, err := tx.ExecContext(ctx,
			"UPDATE mesas SET estado = $1, actualizado_en = NOW() WHERE id = $2",
			models.TableAvailable, *mesaID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// VoidPayment annuls the payment, reverts the order to servida and re-occupies
// the table in a single transaction.
func (s *Store) VoidPayment(ctx context.Context, paymentID, ordenID int64, mesaID *int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE pagos SET estado = $1 WHERE id = $2",
		models.PaymentVoided, paymentID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE ordenes SET estado = $1, actualizado_en = NOW() WHERE id = $2",
		models.OrderServed, ordenID); err != nil {
		return err
	}

	if mesaID != nil {
		if _, err := tx.ExecContext(ctx,
			"UPDATE mesas SET estado = $1, actualizado_en = NOW() WHERE id = $2",
			models.TableOccupied, *mesaID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetPayment retrieves a payment by ID
func (s *Store) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment, "SELECT * FROM pagos WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetPaymentStats aggregates payment counts, today's revenue and the revenue
// split by method
func (s *Store) GetPaymentStats(ctx context.Context) (*models.PaymentStats, error) {
	var stats models.PaymentStats
	err := s.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total_pagos,
			COUNT(*) FILTER (WHERE estado = 'pagado') AS pagos_activos,
			COUNT(*) FILTER (WHERE estado = 'anulado') AS pagos_anulados,
			COALESCE(SUM(monto) FILTER (WHERE estado = 'pagado' AND fecha >= CURRENT_DATE), 0) AS ingresos_hoy
		FROM pagos`)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT metodo, COALESCE(SUM(monto), 0)
		FROM pagos
		WHERE estado = 'pagado' AND fecha >= CURRENT_DATE
		GROUP BY metodo`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats.IngresosPorMetodo = make(map[string]float64)
	for rows.Next() {
		var metodo string
		var monto float64
		if err := rows.Scan(&metodo, &monto); err != nil {
			return nil, err
		}
		stats.IngresosPorMetodo[metodo] = monto
	}
	return &stats, rows.Err()
}
