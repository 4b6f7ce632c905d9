package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/embla/internal/domain"
)

// mockStore implements Store with function fields, in the style of the
// billing mock. WithTx defaults to running fn against the mock itself so
// transactional services can be tested without a database.
type mockStore struct {
	WithTxFunc func(ctx context.Context, fn func(tx Store) error) error

	GetProductBySlugFunc    func(ctx context.Context, slug string) (*domain.Product, error)
	GetProductForUpdateFunc func(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListActiveProductsFunc  func(ctx context.Context) ([]domain.Product, error)
	SaveProductFunc         func(ctx context.Context, p *domain.Product) error
	UpdateProductStockFunc  func(ctx context.Context, id uuid.UUID, stock int) error

	ListBatchesForUpdateFunc func(ctx context.Context, productID uuid.UUID) ([]domain.ProductBatch, error)
	UpdateBatchRemainingFunc func(ctx context.Context, batchID uuid.UUID, remainingGrams int) error

	CreateOrderFunc           func(ctx context.Context, o *domain.Order) error
	CreateOrderItemFunc       func(ctx context.Context, item *domain.OrderItem) error
	GetOrderFunc              func(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderForUpdateFunc     func(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderItemsFunc         func(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error)
	ListOrdersByStatusFunc    func(ctx context.Context, statuses []domain.OrderStatus, limit int) ([]domain.Order, error)
	UpdateOrderStatusFunc     func(ctx context.Context, id uuid.UUID, status domain.OrderStatus, fulfilledAt *time.Time) error
	UpdateOrderTotalsFunc     func(ctx context.Context, id uuid.UUID, subtotal, shipping, total decimal.Decimal) error
	SetOrderPaymentIntentFunc func(ctx context.Context, id uuid.UUID, paymentIntentID string) error
}

func (m *mockStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	return fn(m)
}

func (m *mockStore) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return m.GetProductBySlugFunc(ctx, slug)
}

func (m *mockStore) GetProductForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return m.GetProductForUpdateFunc(ctx, id)
}

func (m *mockStore) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	return m.ListActiveProductsFunc(ctx)
}

func (m *mockStore) SaveProduct(ctx context.Context, p *domain.Product) error {
	return m.SaveProductFunc(ctx, p)
}

func (m *mockStore) UpdateProductStock(ctx context.Context, id uuid.UUID, stock int) error {
	return m.UpdateProductStockFunc(ctx, id, stock)
}

func (m *mockStore) ListBatchesForUpdate(ctx context.Context, productID uuid.UUID) ([]domain.ProductBatch, error) {
	if m.ListBatchesForUpdateFunc != nil {
		return m.ListBatchesForUpdateFunc(ctx, productID)
	}
	return nil, nil
}

func (m *mockStore) UpdateBatchRemaining(ctx context.Context, batchID uuid.UUID, remainingGrams int) error {
	return m.UpdateBatchRemainingFunc(ctx, batchID, remainingGrams)
}

func (m *mockStore) CreateOrder(ctx context.Context, o *domain.Order) error {
	return m.CreateOrderFunc(ctx, o)
}

func (m *mockStore) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	return m.CreateOrderItemFunc(ctx, item)
}

func (m *mockStore) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return m.GetOrderFunc(ctx, id)
}

func (m *mockStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return m.GetOrderForUpdateFunc(ctx, id)
}

func (m *mockStore) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	return m.GetOrderItemsFunc(ctx, orderID)
}

func (m *mockStore) ListOrdersByStatus(ctx context.Context, statuses []domain.OrderStatus, limit int) ([]domain.Order, error) {
	return m.ListOrdersByStatusFunc(ctx, statuses, limit)
}

func (m *mockStore) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, fulfilledAt *time.Time) error {
	return m.UpdateOrderStatusFunc(ctx, id, status, fulfilledAt)
}

func (m *mockStore) UpdateOrderTotals(ctx context.Context, id uuid.UUID, subtotal, shipping, total decimal.Decimal) error {
	return m.UpdateOrderTotalsFunc(ctx, id, subtotal, shipping, total)
}

func (m *mockStore) SetOrderPaymentIntent(ctx context.Context, id uuid.UUID, paymentIntentID string) error {
	return m.SetOrderPaymentIntentFunc(ctx, id, paymentIntentID)
}

// mockNotifier records sends and optionally fails them.
type mockNotifier struct {
	PendingCalls      int
	PaidCustomerCalls int
	PaidInternalCalls int

	PendingErr      error
	PaidCustomerErr error
	PaidInternalErr error
}

func (m *mockNotifier) SendOrderPending(ctx context.Context, detail *domain.OrderDetail) error {
	m.PendingCalls++
	return m.PendingErr
}

func (m *mockNotifier) SendOrderPaidCustomer(ctx context.Context, detail *domain.OrderDetail) error {
	m.PaidCustomerCalls++
	return m.PaidCustomerErr
}

func (m *mockNotifier) SendOrderPaidInternal(ctx context.Context, detail *domain.OrderDetail) error {
	m.PaidInternalCalls++
	return m.PaidInternalErr
}
