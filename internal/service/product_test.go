package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/embla/internal/domain"
)

func TestComputeSalePrice(t *testing.T) {
	tests := []struct {
		name   string
		cost   string
		markup string
		want   string
	}{
		{"fifty percent markup", "10.00", "50", "15.00"},
		{"zero markup sells at cost", "8.40", "0", "8.40"},
		{"rounds half up", "7.77", "33", "10.33"}, // 7.77 * 1.33 = 10.3341
		{"zero cost", "0.00", "120", "0.00"},
		{"fractional markup", "12.50", "37.5", "17.19"}, // 12.50 * 1.375 = 17.1875
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSalePrice(
				decimal.RequireFromString(tt.cost),
				decimal.RequireFromString(tt.markup),
			)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestBatchStockUnits(t *testing.T) {
	batches := []domain.ProductBatch{
		{RemainingGrams: 600},
		{RemainingGrams: 150},
	}

	// 750g / 250g bags = 3 units; the partial remainder does not count.
	assert.Equal(t, 3, BatchStockUnits(batches, 250))
	assert.Equal(t, 0, BatchStockUnits(batches, 1000))
	assert.Equal(t, 0, BatchStockUnits(nil, 250))
	assert.Equal(t, 0, BatchStockUnits(batches, 0))
}

func TestProductServiceSave(t *testing.T) {
	var saved *domain.Product
	store := &mockStore{
		SaveProductFunc: func(ctx context.Context, p *domain.Product) error {
			saved = p
			return nil
		},
	}
	svc := NewProductService(store, testLogger())

	p := &domain.Product{
		ID:            uuid.New(),
		Name:          "Brazil Santos",
		Slug:          "brazil-santos",
		CostPrice:     decimal.RequireFromString("6.00"),
		MarkupPercent: decimal.RequireFromString("60"),
		// A hand-set price must be overwritten by the derivation.
		Price: decimal.RequireFromString("99.99"),
	}

	err := svc.Save(context.Background(), p)
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.Equal(t, "9.60", saved.Price.StringFixed(2))
}
