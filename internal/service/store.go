package service

import (
	"context"
	"time"

	"github.com/dukerupert/embla/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the persistence surface the order, checkout, and reconciliation
// services depend on. The PostgreSQL implementation lives in
// internal/postgres; tests use a function-field mock.
type Store interface {
	// WithTx runs fn against a transaction-scoped Store. fn returning an
	// error rolls the transaction back; otherwise it commits. Row locks
	// taken inside fn are held until the transaction ends.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Products
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	GetProductForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListActiveProducts(ctx context.Context) ([]domain.Product, error)
	SaveProduct(ctx context.Context, p *domain.Product) error
	UpdateProductStock(ctx context.Context, id uuid.UUID, stock int) error

	// Batches (FIFO ledger), ordered by received_at asc, id asc
	ListBatchesForUpdate(ctx context.Context, productID uuid.UUID) ([]domain.ProductBatch, error)
	UpdateBatchRemaining(ctx context.Context, batchID uuid.UUID, remainingGrams int) error

	// Orders
	CreateOrder(ctx context.Context, o *domain.Order) error
	CreateOrderItem(ctx context.Context, item *domain.OrderItem) error
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error)
	ListOrdersByStatus(ctx context.Context, statuses []domain.OrderStatus, limit int) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, fulfilledAt *time.Time) error
	UpdateOrderTotals(ctx context.Context, id uuid.UUID, subtotal, shipping, total decimal.Decimal) error
	SetOrderPaymentIntent(ctx context.Context, id uuid.UUID, paymentIntentID string) error
}
