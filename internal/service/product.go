package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/embla/internal/domain"
	"github.com/dukerupert/embla/internal/money"
)

var oneHundred = decimal.NewFromInt(100)

// ComputeSalePrice derives the retail price from cost and markup:
// cost * (1 + markup/100), quantized half-up. The sale price is never set
// directly; every product save recomputes it.
func ComputeSalePrice(cost, markupPercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(markupPercent.Div(oneHundred))
	return money.Round2(cost.Mul(factor))
}

// BatchStockUnits projects remaining batch grams onto sellable units of the
// product's bag weight. Partial bags do not count.
func BatchStockUnits(batches []domain.ProductBatch, weightGrams int) int {
	if weightGrams <= 0 {
		return 0
	}
	remaining := 0
	for _, b := range batches {
		remaining += b.RemainingGrams
	}
	return remaining / weightGrams
}

// ProductService owns catalog reads and writes.
type ProductService interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ListActive(ctx context.Context) ([]domain.Product, error)

	// Save persists a product, recomputing Price from CostPrice and
	// MarkupPercent first.
	Save(ctx context.Context, p *domain.Product) error
}

type productService struct {
	store  Store
	logger *slog.Logger
}

// NewProductService creates a ProductService.
func NewProductService(store Store, logger *slog.Logger) ProductService {
	return &productService{store: store, logger: logger}
}

func (s *productService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return s.store.GetProductBySlug(ctx, slug)
}

func (s *productService) ListActive(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListActiveProducts(ctx)
}

func (s *productService) Save(ctx context.Context, p *domain.Product) error {
	p.Price = ComputeSalePrice(p.CostPrice, p.MarkupPercent)
	if err := s.store.SaveProduct(ctx, p); err != nil {
		return domain.Internal(err, "product.save", "failed to save product")
	}
	s.logger.Info("product saved",
		"product_id", p.ID,
		"slug", p.Slug,
		"price", p.Price.StringFixed(2),
	)
	return nil
}
