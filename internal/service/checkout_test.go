package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/embla/internal/billing"
	"github.com/dukerupert/embla/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProduct(slug, name, price string, weightGrams int) *domain.Product {
	return &domain.Product{
		ID:          uuid.New(),
		SKU:         slug,
		Name:        name,
		Slug:        slug,
		Price:       decimal.RequireFromString(price),
		WeightGrams: weightGrams,
		Stock:       100,
		IsActive:    true,
	}
}

func testContact() domain.ContactInfo {
	return domain.ContactInfo{
		FullName:   "Maria Schmidt",
		Email:      "maria@example.com",
		Street:     "Hauptstrasse",
		City:       "Berlin",
		PostalCode: "10115",
		Country:    "Germany",
	}
}

// checkoutFixture wires a mock store that records created rows in memory.
type checkoutFixture struct {
	store    *mockStore
	products map[string]*domain.Product

	createdOrder *domain.Order
	createdItems []domain.OrderItem
	savedTotals  []decimal.Decimal
	intentID     string
}

func newCheckoutFixture(products ...*domain.Product) *checkoutFixture {
	f := &checkoutFixture{products: map[string]*domain.Product{}}
	for _, p := range products {
		f.products[p.Slug] = p
	}

	f.store = &mockStore{
		GetProductBySlugFunc: func(ctx context.Context, slug string) (*domain.Product, error) {
			p, ok := f.products[slug]
			if !ok {
				return nil, domain.ErrProductNotFound
			}
			return p, nil
		},
		CreateOrderFunc: func(ctx context.Context, o *domain.Order) error {
			f.createdOrder = o
			return nil
		},
		CreateOrderItemFunc: func(ctx context.Context, item *domain.OrderItem) error {
			f.createdItems = append(f.createdItems, *item)
			return nil
		},
		UpdateOrderTotalsFunc: func(ctx context.Context, id uuid.UUID, subtotal, shipping, total decimal.Decimal) error {
			f.savedTotals = []decimal.Decimal{subtotal, shipping, total}
			return nil
		},
		SetOrderPaymentIntentFunc: func(ctx context.Context, id uuid.UUID, paymentIntentID string) error {
			f.intentID = paymentIntentID
			return nil
		},
	}
	return f
}

func TestCheckoutCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart rejected", func(t *testing.T) {
		svc := NewCheckoutService(&mockStore{}, billing.NewMockProvider(), nil, testLogger(), 0)

		_, err := svc.CreateOrder(ctx, domain.Cart{}, testContact())
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})

	t.Run("creates order with snapshots and server-side totals", func(t *testing.T) {
		f := newCheckoutFixture(
			testProduct("brazil-santos", "Brazil Santos", "9.50", 250),
			testProduct("ethiopia-yirgacheffe", "Ethiopia Yirgacheffe", "12.90", 250),
		)
		provider := billing.NewMockProvider()
		notifier := &mockNotifier{}
		svc := NewCheckoutService(f.store, provider, notifier, testLogger(), 0)

		cart := domain.Cart{
			// Session shows a stale price; the catalog row must win.
			"ethiopia-yirgacheffe": {Name: "Ethiopia Yirgacheffe", Price: "0.01", Quantity: 2, Grind: "filter"},
			"brazil-santos":        {Name: "Brazil Santos", Price: "9.50", Quantity: 1},
		}

		result, err := svc.CreateOrder(ctx, cart, testContact())
		require.NoError(t, err)

		require.NotNil(t, result.Order)
		assert.Equal(t, domain.StatusNew, result.Order.Status)
		assert.Empty(t, result.Warnings)
		assert.NotEmpty(t, result.ClientSecret)

		require.Len(t, result.Items, 2)
		// Sorted by key: brazil before ethiopia.
		assert.Equal(t, "Brazil Santos", result.Items[0].ProductNameSnapshot)
		assert.Equal(t, "Ethiopia Yirgacheffe", result.Items[1].ProductNameSnapshot)
		assert.Equal(t, "12.90", result.Items[1].UnitPrice.StringFixed(2))
		assert.Equal(t, "filter", result.Items[1].Grind)

		// 9.50 + 2*12.90 = 35.30, below threshold so flat shipping applies.
		assert.Equal(t, "35.30", result.Order.Subtotal.StringFixed(2))
		assert.Equal(t, "4.90", result.Order.Shipping.StringFixed(2))
		assert.Equal(t, "40.20", result.Order.Total.StringFixed(2))

		// Payment intent sized from the recomputed total, in cents.
		require.Len(t, provider.PaymentIntents, 1)
		for _, pi := range provider.PaymentIntents {
			assert.Equal(t, int64(4020), pi.AmountMinorUnits)
			assert.Equal(t, "eur", pi.Currency)
			assert.Equal(t, result.Order.ID.String(), pi.Metadata["order_id"])
		}
		assert.Equal(t, result.Order.PaymentIntentID, f.intentID)

		assert.Equal(t, 1, notifier.PendingCalls)
	})

	t.Run("unavailable products are skipped with warnings", func(t *testing.T) {
		inactive := testProduct("gone-blend", "Gone Blend", "15.00", 250)
		inactive.IsActive = false

		f := newCheckoutFixture(
			testProduct("brazil-santos", "Brazil Santos", "9.50", 250),
			inactive,
		)
		svc := NewCheckoutService(f.store, billing.NewMockProvider(), nil, testLogger(), 0)

		cart := domain.Cart{
			"brazil-santos": {Name: "Brazil Santos", Price: "9.50", Quantity: 1},
			"gone-blend":    {Name: "Gone Blend", Price: "15.00", Quantity: 1},
			"deleted-blend": {Name: "Deleted Blend", Price: "11.00", Quantity: 1},
		}

		result, err := svc.CreateOrder(ctx, cart, testContact())
		require.NoError(t, err)

		require.Len(t, result.Items, 1)
		assert.Equal(t, "Brazil Santos", result.Items[0].ProductNameSnapshot)
		assert.Len(t, result.Warnings, 2)
		assert.Equal(t, "9.50", result.Order.Subtotal.StringFixed(2))
	})

	t.Run("all lines unavailable fails the order", func(t *testing.T) {
		f := newCheckoutFixture()
		svc := NewCheckoutService(f.store, billing.NewMockProvider(), nil, testLogger(), 0)

		cart := domain.Cart{
			"deleted-blend": {Name: "Deleted Blend", Price: "11.00", Quantity: 1},
		}

		_, err := svc.CreateOrder(ctx, cart, testContact())
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})

	t.Run("payment failure aborts the transaction", func(t *testing.T) {
		f := newCheckoutFixture(testProduct("brazil-santos", "Brazil Santos", "9.50", 250))

		provider := billing.NewMockProvider()
		provider.CreatePaymentIntentFunc = func(ctx context.Context, params billing.CreatePaymentIntentParams) (*billing.PaymentIntent, error) {
			return nil, billing.ErrPaymentFailed
		}

		rolledBack := false
		f.store.WithTxFunc = func(ctx context.Context, fn func(tx Store) error) error {
			err := fn(f.store)
			if err != nil {
				rolledBack = true
			}
			return err
		}

		notifier := &mockNotifier{}
		svc := NewCheckoutService(f.store, provider, notifier, testLogger(), 0)

		cart := domain.Cart{
			"brazil-santos": {Name: "Brazil Santos", Price: "9.50", Quantity: 1},
		}

		_, err := svc.CreateOrder(ctx, cart, testContact())
		require.Error(t, err)
		assert.Equal(t, domain.EPAYMENT, domain.ErrorCode(err))
		assert.True(t, errors.Is(err, billing.ErrPaymentFailed))
		assert.True(t, rolledBack)
		assert.Equal(t, 0, notifier.PendingCalls)
	})

	t.Run("free shipping above threshold", func(t *testing.T) {
		f := newCheckoutFixture(testProduct("house-blend", "House Blend", "13.00", 250))
		svc := NewCheckoutService(f.store, billing.NewMockProvider(), nil, testLogger(), 0)

		cart := domain.Cart{
			"house-blend": {Name: "House Blend", Price: "13.00", Quantity: 3},
		}

		result, err := svc.CreateOrder(ctx, cart, testContact())
		require.NoError(t, err)

		assert.Equal(t, "39.00", result.Order.Subtotal.StringFixed(2))
		assert.Equal(t, "0.00", result.Order.Shipping.StringFixed(2))
		assert.Equal(t, "39.00", result.Order.Total.StringFixed(2))
	})

	t.Run("notification failure does not fail checkout", func(t *testing.T) {
		f := newCheckoutFixture(testProduct("brazil-santos", "Brazil Santos", "9.50", 250))
		notifier := &mockNotifier{PendingErr: errors.New("smtp down")}
		svc := NewCheckoutService(f.store, billing.NewMockProvider(), notifier, testLogger(), 0)

		cart := domain.Cart{
			"brazil-santos": {Name: "Brazil Santos", Price: "9.50", Quantity: 1},
		}

		result, err := svc.CreateOrder(ctx, cart, testContact())
		require.NoError(t, err)
		assert.NotNil(t, result.Order)
		assert.Equal(t, 1, notifier.PendingCalls)
	})
}

func TestPaymentDescription(t *testing.T) {
	items := []domain.OrderItem{
		{ProductNameSnapshot: "Brazil Santos"},
	}
	assert.Equal(t, "VV Kaffee - Brazil Santos", paymentDescription(items))

	items = append(items, domain.OrderItem{ProductNameSnapshot: "Ethiopia"}, domain.OrderItem{ProductNameSnapshot: "House"})
	assert.Equal(t, "VV Kaffee - Brazil Santos +2 more", paymentDescription(items))
}

func TestCheckoutBillingTimeout(t *testing.T) {
	f := newCheckoutFixture(testProduct("brazil-santos", "Brazil Santos", "9.50", 250))

	provider := billing.NewMockProvider()
	var deadlineSet bool
	provider.CreatePaymentIntentFunc = func(ctx context.Context, params billing.CreatePaymentIntentParams) (*billing.PaymentIntent, error) {
		_, deadlineSet = ctx.Deadline()
		return billing.NewMockProvider().CreatePaymentIntent(ctx, params)
	}

	svc := NewCheckoutService(f.store, provider, nil, testLogger(), 5*time.Second)

	cart := domain.Cart{
		"brazil-santos": {Name: "Brazil Santos", Price: "9.50", Quantity: 1},
	}

	_, err := svc.CreateOrder(context.Background(), cart, testContact())
	require.NoError(t, err)
	assert.True(t, deadlineSet, "billing call should carry a deadline")
}
