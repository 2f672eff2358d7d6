package store

import (
	"context"
	"database/sql"

	"storefront/internal/models"
)

// PlaceOrder persists an order and its items and decrements stock for every
// line, all inside one transaction. Each decrement is conditional
// (stock >= quantity AND active), so a shortfall on any line — including one
// caused by a concurrent placement — rolls the whole transaction back and no
// partial stock mutation survives.
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range items {
		res, err := tx.ExecContext(ctx,
			"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND active AND stock >= $1",
			item.Quantity, item.ProductID)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			var exists bool
			if err := tx.GetContext(ctx, &exists,
				"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND active)", item.ProductID); err != nil {
				return err
			}
			if !exists {
				return &models.NotFoundError{Entity: "product", ID: item.ProductID}
			}
			return &models.InsufficientStockError{ProductID: item.ProductID, Requested: item.Quantity, Available: -1}
		}
	}

	query := `
		INSERT INTO orders (user_id, total_amount, shipping_fee, status, payment_method, payment_status,
			address_line, city, postal_code, country, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	if err := tx.GetContext(ctx, order, query,
		order.UserID, order.TotalAmount, order.ShippingFee, order.Status,
		order.PaymentMethod, order.PaymentStatus,
		order.AddressLine, order.City, order.PostalCode, order.Country,
		order.IdempotencyKey); err != nil {
		return err
	}

	for i := range items {
		items[i].OrderID = order.ID
		if err := tx.GetContext(ctx, &items[i].ID,
			"INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4) RETURNING id",
			items[i].OrderID, items[i].ProductID, items[i].Quantity, items[i].UnitPrice); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// TransitionOrderStatus moves an order from one status to another with a
// conditional write. Returns false when the order's status no longer equals
// from, meaning a concurrent transition won the race.
func (s *Store) TransitionOrderStatus(ctx context.Context, orderID int64, from, to, trackingNumber, notes string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $1,
			tracking_number = CASE WHEN $2 <> '' THEN $2 ELSE tracking_number END,
			notes = CASE WHEN $3 <> '' THEN $3 ELSE notes END,
			updated_at = NOW()
		WHERE id = $4 AND status = $5`,
		to, trackingNumber, notes, orderID, from)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// UpdatePaymentStatus updates an order's payment status
func (s *Store) UpdatePaymentStatus(ctx context.Context, orderID int64, paymentStatus string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2",
		paymentStatus, orderID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &models.NotFoundError{Entity: "order", ID: orderID}
	}
	return nil
}

// GetOrdersByUserID retrieves orders for a user
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// ListOrders retrieves orders with an optional status filter, newest first.
func (s *Store) ListOrders(ctx context.Context, status string, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	if status != "" {
		err := s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
			status, limit, offset)
		return orders, err
	}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	return orders, err
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID)
	return items, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
