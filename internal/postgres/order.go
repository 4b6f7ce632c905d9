package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/embla/internal/domain"
)

const orderColumns = `
	id, user_id, full_name, email, phone_number, street, house_number,
	city, postal_code, country, status, payment_intent_id,
	subtotal, shipping, total, fulfilled_at, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.FullName, &o.Email, &o.PhoneNumber, &o.Street, &o.HouseNumber,
		&o.City, &o.PostalCode, &o.Country, &o.Status, &o.PaymentIntentID,
		&o.Subtotal, &o.Shipping, &o.Total, &o.FulfilledAt, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder inserts a new order row. Totals default to zero until
// recomputed from items.
func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO orders (
			id, user_id, full_name, email, phone_number, street, house_number,
			city, postal_code, country, status, payment_intent_id,
			subtotal, shipping, total, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at`,
		o.ID, o.UserID, o.FullName, o.Email, o.PhoneNumber, o.Street, o.HouseNumber,
		o.City, o.PostalCode, o.Country, o.Status, o.PaymentIntentID,
		o.Subtotal, o.Shipping, o.Total, o.Notes,
	)
	if err := row.Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return domain.Internal(err, "postgres.create_order", "failed to create order")
	}
	return nil
}

// CreateOrderItem inserts an order item snapshot.
func (s *Store) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_items (
			id, order_id, product_id, product_name_snapshot,
			unit_price, quantity, grind, weight_grams
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.OrderID, item.ProductID, item.ProductNameSnapshot,
		item.UnitPrice, item.Quantity, item.Grind, item.WeightGrams,
	)
	if err != nil {
		return domain.Internal(err, "postgres.create_order_item", "failed to create order item")
	}
	return nil
}

// GetOrder retrieves an order by ID.
func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := s.db.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, "postgres.get_order", "failed to get order")
	}
	return o, nil
}

// GetOrderForUpdate retrieves an order and locks its row for the rest of the
// transaction. Reconciliation serializes on this lock.
func (s *Store) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := s.db.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	o, err := scanOrder(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, "postgres.get_order_for_update", "failed to lock order")
	}
	return o, nil
}

// GetOrderItems returns an order's item snapshots in insertion order.
func (s *Store) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, product_id, product_name_snapshot,
		       unit_price, quantity, grind, weight_grams
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_name_snapshot ASC, id ASC`, orderID)
	if err != nil {
		return nil, domain.Internal(err, "postgres.get_order_items", "failed to list order items")
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductNameSnapshot,
			&item.UnitPrice, &item.Quantity, &item.Grind, &item.WeightGrams); err != nil {
			return nil, domain.Internal(err, "postgres.get_order_items", "failed to scan order item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "postgres.get_order_items", "failed to read order items")
	}
	return items, nil
}

// ListOrdersByStatus returns orders in any of the given statuses, newest
// first.
func (s *Store) ListOrdersByStatus(ctx context.Context, statuses []domain.OrderStatus, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}

	rows, err := s.db.Query(ctx,
		`SELECT`+orderColumns+` FROM orders WHERE status = ANY($1) ORDER BY created_at DESC LIMIT $2`,
		values, limit)
	if err != nil {
		return nil, domain.Internal(err, "postgres.list_orders_by_status", "failed to list orders")
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, domain.Internal(err, "postgres.list_orders_by_status", "failed to scan order")
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "postgres.list_orders_by_status", "failed to read orders")
	}
	return orders, nil
}

// UpdateOrderStatus sets the order status and, when provided, the
// fulfillment timestamp.
func (s *Store) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, fulfilledAt *time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, fulfilled_at = $3, updated_at = now()
		WHERE id = $1`,
		id, status, fulfilledAt)
	if err != nil {
		return domain.Internal(err, "postgres.update_order_status", "failed to update order status")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// UpdateOrderTotals persists subtotal, shipping, and total together.
func (s *Store) UpdateOrderTotals(ctx context.Context, id uuid.UUID, subtotal, shipping, total decimal.Decimal) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET subtotal = $2, shipping = $3, total = $4, updated_at = now()
		WHERE id = $1`,
		id, subtotal, shipping, total)
	if err != nil {
		return domain.Internal(err, "postgres.update_order_totals", "failed to update order totals")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// SetOrderPaymentIntent attaches a payment intent ID to the order.
func (s *Store) SetOrderPaymentIntent(ctx context.Context, id uuid.UUID, paymentIntentID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders SET payment_intent_id = $2, updated_at = now() WHERE id = $1`,
		id, paymentIntentID)
	if err != nil {
		return domain.Internal(err, "postgres.set_order_payment_intent", "failed to set payment intent")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
