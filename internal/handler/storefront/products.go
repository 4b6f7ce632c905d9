package storefront

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/embla/internal/domain"
	"github.com/dukerupert/embla/internal/handler"
	"github.com/dukerupert/embla/internal/service"
)

// ProductHandler serves the public catalog.
type ProductHandler struct {
	products service.ProductService
	logger   *slog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(products service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// List handles GET /products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListActive(r.Context())
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for i := range products {
		resp = append(resp, toProductResponse(&products[i]))
	}
	handler.JSON(w, http.StatusOK, resp)
}

// Get handles GET /products/{slug}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}
	handler.JSON(w, http.StatusOK, toProductResponse(product))
}

type productResponse struct {
	SKU             string   `json:"sku"`
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	Origin          string   `json:"origin,omitempty"`
	RoastType       string   `json:"roast_type,omitempty"`
	TastingNotes    string   `json:"tasting_notes,omitempty"`
	Price           string   `json:"price"`
	WeightGrams     int      `json:"weight_grams"`
	InStock         bool     `json:"in_stock"`
	AvailableGrinds []string `json:"available_grinds"`
	ImageURL        string   `json:"image_url,omitempty"`
}

func toProductResponse(p *domain.Product) productResponse {
	grinds := []string{}
	for _, g := range strings.Split(p.AvailableGrinds, ",") {
		if g = strings.TrimSpace(g); g != "" {
			grinds = append(grinds, g)
		}
	}
	return productResponse{
		SKU:             p.SKU,
		Name:            p.Name,
		Slug:            p.Slug,
		Origin:          p.Origin,
		RoastType:       p.RoastType,
		TastingNotes:    p.TastingNotes,
		Price:           p.Price.StringFixed(2),
		WeightGrams:     p.WeightGrams,
		InStock:         p.InStock(),
		AvailableGrinds: grinds,
		ImageURL:        p.ImageURL,
	}
}
