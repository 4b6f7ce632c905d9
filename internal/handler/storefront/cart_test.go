package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/embla/internal/domain"
	"github.com/dukerupert/embla/internal/router"
	"github.com/dukerupert/embla/internal/service"
	"github.com/dukerupert/embla/internal/telemetry"
)

// metrics registration is process-global; share one instance across tests.
var testMetrics = telemetry.NewMetrics("storefront_test")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockProductService struct {
	GetBySlugFunc  func(ctx context.Context, slug string) (*domain.Product, error)
	ListActiveFunc func(ctx context.Context) ([]domain.Product, error)
	SaveFunc       func(ctx context.Context, p *domain.Product) error
}

func (m *mockProductService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return m.GetBySlugFunc(ctx, slug)
}

func (m *mockProductService) ListActive(ctx context.Context) ([]domain.Product, error) {
	return m.ListActiveFunc(ctx)
}

func (m *mockProductService) Save(ctx context.Context, p *domain.Product) error {
	return m.SaveFunc(ctx, p)
}

func catalogWith(products ...domain.Product) *mockProductService {
	return &mockProductService{
		GetBySlugFunc: func(ctx context.Context, slug string) (*domain.Product, error) {
			for i := range products {
				if products[i].Slug == slug {
					return &products[i], nil
				}
			}
			return nil, domain.ErrProductNotFound
		},
		ListActiveFunc: func(ctx context.Context) ([]domain.Product, error) {
			return products, nil
		},
	}
}

func cartTestRouter(products *mockProductService) *router.Router {
	h := NewCartHandler(products, testMetrics, testLogger(), false)
	r := router.New()
	r.Get("/cart", h.View)
	r.Post("/cart/items", h.Add)
	r.Put("/cart/items/{slug}", h.Update)
	r.Delete("/cart/items/{slug}", h.Remove)
	r.Delete("/cart", h.Clear)
	return r
}

func ethiopiaProduct() domain.Product {
	return domain.Product{
		SKU:         "ETH-250",
		Name:        "Ethiopia Yirgacheffe",
		Slug:        "ethiopia-yirgacheffe",
		Price:       decimal.RequireFromString("12.90"),
		WeightGrams: 250,
		Stock:       10,
		IsActive:    true,
	}
}

func decodeSummary(t *testing.T, body *bytes.Buffer) cartSummaryResponse {
	t.Helper()
	var resp cartSummaryResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func TestCartAddAndView(t *testing.T) {
	r := cartTestRouter(catalogWith(ethiopiaProduct()))

	// Add two bags.
	body := bytes.NewBufferString(`{"product":"ethiopia-yirgacheffe","quantity":2,"grind":"filter"}`)
	req := httptest.NewRequest(http.MethodPost, "/cart/items", body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeSummary(t, w.Body)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assert.Equal(t, "25.80", resp.Subtotal)
	assert.Equal(t, "4.90", resp.Shipping)
	assert.Equal(t, "30.70", resp.Total)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	// View reads the cookie back.
	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeSummary(t, w.Body)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Ethiopia Yirgacheffe", resp.Items[0].Name)
	assert.Equal(t, "filter", resp.Items[0].Grind)
}

func TestCartAddUnknownProduct(t *testing.T) {
	r := cartTestRouter(catalogWith())

	body := bytes.NewBufferString(`{"product":"nope","quantity":1}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cart/items", body))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartAddInactiveProduct(t *testing.T) {
	p := ethiopiaProduct()
	p.IsActive = false
	r := cartTestRouter(catalogWith(p))

	body := bytes.NewBufferString(`{"product":"ethiopia-yirgacheffe","quantity":1}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cart/items", body))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCartUpdateAndRemove(t *testing.T) {
	r := cartTestRouter(catalogWith(ethiopiaProduct()))

	// Seed via add.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cart/items",
		bytes.NewBufferString(`{"product":"ethiopia-yirgacheffe","quantity":1}`)))
	cookies := w.Result().Cookies()

	// Update quantity.
	req := httptest.NewRequest(http.MethodPut, "/cart/items/ethiopia-yirgacheffe",
		bytes.NewBufferString(`{"quantity":4}`))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeSummary(t, w.Body)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 4, resp.Items[0].Quantity)

	// Remove the line.
	cookies = w.Result().Cookies()
	req = httptest.NewRequest(http.MethodDelete, "/cart/items/ethiopia-yirgacheffe", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeSummary(t, w.Body)
	assert.Empty(t, resp.Items)
	assert.Equal(t, "0.00", resp.Total)
}

func TestCartTamperedCookieYieldsEmptyCart(t *testing.T) {
	r := cartTestRouter(catalogWith(ethiopiaProduct()))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "vv_cart", Value: "not!valid!base64"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeSummary(t, w.Body)
	assert.Empty(t, resp.Items)
}

func TestProductHandlers(t *testing.T) {
	products := catalogWith(ethiopiaProduct())
	h := NewProductHandler(products, testLogger())
	r := router.New()
	r.Get("/products", h.List)
	r.Get("/products/{slug}", h.Get)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list []productResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "12.90", list[0].Price)
	assert.True(t, list[0].InStock)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

var _ service.ProductService = (*mockProductService)(nil)
