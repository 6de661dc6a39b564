package store

import (
	"context"
	"database/sql"
	"time"

	"restaurant-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// OrderNumberExists checks whether an order number is already taken
func (s *Store) OrderNumberExists(ctx context.Context, numero string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM ordenes WHERE numero = $1)", numero)
	return exists, err
}

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO ordenes (numero, mesa_id, mozo_id, tipo, estado, monto_total, num_comensales, cliente_nombre)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, creado_en, actualizado_en`

	return s.db.GetContext(ctx, order, query,
		order.Numero, order.MesaID, order.MozoID, order.Tipo, order.Estado,
		order.MontoTotal, order.NumComensales, order.ClienteNombre)
}

// GetOrder retrieves an order by ID
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM ordenes WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListActiveOrders retrieves the orders currently live on the floor
func (s *Store) ListActiveOrders(ctx context.Context) ([]models.Order, error) {
	query, args, err := sqlx.In(
		"SELECT * FROM ordenes WHERE estado IN (?) ORDER BY creado_en", models.ActiveOrderStates)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var orders []models.Order
	err = s.db.SelectContext(ctx, &orders, query, args...)
	return orders, err
}

// ListOrdersByState retrieves orders in a given state
func (s *Store) ListOrdersByState(ctx context.Context, estado string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM ordenes WHERE estado = $1 ORDER BY creado_en", estado)
	return orders, err
}

// GetActiveOrderByTable retrieves the live order on a table, if any
func (s *Store) GetActiveOrderByTable(ctx context.Context, mesaID int64) (*models.Order, error) {
	query, args, err := sqlx.In(
		"SELECT * FROM ordenes WHERE mesa_id = ? AND estado IN (?) ORDER BY creado_en DESC LIMIT 1",
		mesaID, models.ActiveOrderStates)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var order models.Order
	err = s.db.GetContext(ctx, &order, query, args...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListRecentOrdersByTable retrieves a table's latest orders
func (s *Store) ListRecentOrdersByTable(ctx context.Context, mesaID int64, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM ordenes WHERE mesa_id = $1 ORDER BY creado_en DESC LIMIT $2", mesaID, limit)
	return orders, err
}

// UpdateOrderState updates order state
func (s *Store) UpdateOrderState(ctx context.Context, id int64, estado string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE ordenes SET estado = $1, actualizado_en = NOW() WHERE id = $2",
		estado, id)
	return err
}

// UpdateOrderInfo updates the customer name, diner count and total in a
// single statement
func (s *Store) UpdateOrderInfo(ctx context.Context, id int64, clienteNombre *string, numComensales *int, total *float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ordenes SET
			cliente_nombre = COALESCE($1, cliente_nombre),
			num_comensales = COALESCE($2, num_comensales),
			monto_total = COALESCE($3, monto_total),
			actualizado_en = NOW()
		WHERE id = $4`,
		clienteNombre, numComensales, total, id)
	return err
}

// SetOrderStateCascade updates the order state and releases its table in one
// transaction, so a cancelled order can never leave its mesa occupied.
func (s *Store) SetOrderStateCascade(ctx context.Context, ordenID int64, estado string, releaseMesaID *int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE ordenes SET estado = $1, actualizado_en = NOW() WHERE id = $2",
		estado, ordenID); err != nil {
		return err
	}

	if releaseMesaID != nil {
		if _, err := tx.ExecContext(ctx,
			"UPDATE mesas SET estado = $1, actualizado_en = NOW() WHERE id = $2",
			models.TableAvailable, *releaseMesaID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteOrder removes an order and its items
func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM items_orden WHERE orden_id = $1", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM ordenes WHERE id = $1", id); err != nil {
		return err
	}
	return tx.Commit()
}

// GetOrderStats aggregates order counts and today's revenue
func (s *Store) GetOrderStats(ctx context.Context) (*models.OrderStats, error) {
	var stats models.OrderStats
	err := s.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total_ordenes,
			COUNT(*) FILTER (WHERE estado IN ('pendiente','confirmada','preparando','lista','servida')) AS ordenes_activas,
			COUNT(*) FILTER (WHERE estado = 'pagada') AS ordenes_pagadas,
			COUNT(*) FILTER (WHERE estado = 'cancelada') AS ordenes_canceladas,
			COALESCE(SUM(monto_total) FILTER (WHERE estado = 'pagada' AND actualizado_en >= CURRENT_DATE), 0) AS ingresos_hoy
		FROM ordenes`)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// CreateOrderItem creates a new order item
func (s *Store) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO items_orden (orden_id, producto_id, cantidad, precio_unitario, estado, estacion, fecha_inicio, notas)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, creado_en, actualizado_en`

	return s.db.GetContext(ctx, item, query,
		item.OrdenID, item.ProductoID, item.Cantidad, item.PrecioUnitario,
		item.Estado, item.Estacion, item.FechaInicio, item.Notas)
}

// CreateOrderItemCascade inserts the item, writes the rebuilt order total and
// optionally advances the order state, all in one transaction. A failure
// cannot leave a committed item next to a stale total.
func (s *Store) CreateOrderItemCascade(ctx context.Context, item *models.OrderItem, total float64, nuevoEstado *string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO items_orden (orden_id, producto_id, cantidad, precio_unitario, estado, estacion, fecha_inicio, notas)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, creado_en, actualizado_en`
	if err := tx.GetContext(ctx, item, query,
		item.OrdenID, item.ProductoID, item.Cantidad, item.PrecioUnitario,
		item.Estado, item.Estacion, item.FechaInicio, item.Notas); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE ordenes SET
			monto_total = $1,
			estado = COALESCE($2, estado),
			actualizado_en = NOW()
		WHERE id = $3`,
		total, nuevoEstado, item.OrdenID); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateOrderItemCascade persists the item's mutable fields and, when the
// quantity changed, the rebuilt order total in one transaction.
func (s *Store) UpdateOrderItemCascade(ctx context.Context, item *models.OrderItem, total *float64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE items_orden SET
			cantidad = $1, precio_unitario = $2, estado = $3, estacion = $4,
			fecha_inicio = $5, fecha_listo = $6, fecha_servido = $7, notas = $8,
			actualizado_en = NOW()
		WHERE id = $9`,
		item.Cantidad, item.PrecioUnitario, item.Estado, item.Estacion,
		item.FechaInicio, item.FechaListo, item.FechaServido, item.Notas, item.ID); err != nil {
		return err
	}

	if total != nil {
		if _, err := tx.ExecContext(ctx,
			"UPDATE ordenes SET monto_total = $1, actualizado_en = NOW() WHERE id = $2",
			*total, item.OrdenID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteOrderItemCascade removes the item, writes the rebuilt order total and
// optionally drops the order back to pendiente, all in one transaction.
func (s *Store) DeleteOrderItemCascade(ctx context.Context, itemID, ordenID int64, total float64, nuevoEstado *string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM items_orden WHERE id = $1", itemID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE ordenes SET
			monto_total = $1,
			estado = COALESCE($2, estado),
			actualizado_en = NOW()
		WHERE id = $3`,
		total, nuevoEstado, ordenID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetOrderItem retrieves an order item by ID
func (s *Store) GetOrderItem(ctx context.Context, id int64) (*models.OrderItem, error) {
	var item models.OrderItem
	err := s.db.GetContext(ctx, &item, "SELECT * FROM items_orden WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListOrderItems retrieves all items of an order
func (s *Store) ListOrderItems(ctx context.Context, ordenID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM items_orden WHERE orden_id = $1 ORDER BY id", ordenID)
	return items, err
}

// UpdateOrderItem persists an item's mutable fields
func (s *Store) UpdateOrderItem(ctx context.Context, item *models.OrderItem) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE items_orden SET
			cantidad = $1, precio_unitario = $2, estado = $3, estacion = $4,
			fecha_inicio = $5, fecha_listo = $6, fecha_servido = $7, notas = $8,
			actualizado_en = NOW()
		WHERE id = $9`,
		item.Cantidad, item.PrecioUnitario, item.Estado, item.Estacion,
		item.FechaInicio, item.FechaListo, item.FechaServido, item.Notas, item.ID)
	return err
}

// ListItemsByStation retrieves a station's items in the given states, oldest first
func (s *Store) ListItemsByStation(ctx context.Context, estacion string, estados []string) ([]models.OrderItem, error) {
	if len(estados) == 0 {
		return []models.OrderItem{}, nil
	}
	query, args, err := sqlx.In(
		"SELECT * FROM items_orden WHERE estacion = ? AND estado IN (?) ORDER BY creado_en",
		estacion, estados)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var items []models.OrderItem
	err = s.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

// ListServedItemsSince retrieves a station's items served after the cutoff
func (s *Store) ListServedItemsSince(ctx context.Context, estacion string, since time.Time) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT * FROM items_orden
		WHERE estacion = $1 AND estado = $2 AND fecha_servido >= $3
		ORDER BY fecha_servido`,
		estacion, models.ItemServed, since)
	return items, err
}
