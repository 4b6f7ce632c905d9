package storefront

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/embla/internal/domain"
	"github.com/dukerupert/embla/internal/handler"
	"github.com/dukerupert/embla/internal/service"
	"github.com/dukerupert/embla/internal/telemetry"
)

// CartHandler handles all cart routes. The cart lives in a cookie; every
// mutation rewrites it and returns the freshly priced summary.
type CartHandler struct {
	products service.ProductService
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	secure   bool
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(products service.ProductService, metrics *telemetry.Metrics, logger *slog.Logger, secure bool) *CartHandler {
	return &CartHandler{
		products: products,
		metrics:  metrics,
		logger:   logger,
		secure:   secure,
	}
}

// View handles GET /cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	summary, err := service.ComputeCartSummary(ReadCart(r))
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}
	handler.JSON(w, http.StatusOK, cartResponse(summary))
}

type cartMutation struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
	Grind    string `json:"grind"`
}

// Add handles POST /cart/items
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req cartMutation
	if err := handler.Decode(r, &req); err != nil {
		handler.Error(w, h.logger, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.products.GetBySlug(r.Context(), req.Product)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}
	if !product.IsActive {
		handler.Error(w, h.logger, domain.ErrProductUnavailable)
		return
	}

	cart, err := service.AddToCart(ReadCart(r), product.Slug, product, req.Quantity, req.Grind)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	h.metrics.CartUpdates.WithLabelValues("add").Inc()
	h.respondWithCart(w, r, cart)
}

// Update handles PUT /cart/items/{slug}
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req cartMutation
	if err := handler.Decode(r, &req); err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	cart := service.UpdateCartLine(ReadCart(r), r.PathValue("slug"), req.Quantity, req.Grind)

	h.metrics.CartUpdates.WithLabelValues("update").Inc()
	h.respondWithCart(w, r, cart)
}

// Remove handles DELETE /cart/items/{slug}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	cart := service.RemoveFromCart(ReadCart(r), r.PathValue("slug"))

	h.metrics.CartUpdates.WithLabelValues("remove").Inc()
	h.respondWithCart(w, r, cart)
}

// Clear handles DELETE /cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ClearCart(w, h.secure)

	h.metrics.CartUpdates.WithLabelValues("clear").Inc()
	summary, _ := service.ComputeCartSummary(domain.Cart{})
	handler.JSON(w, http.StatusOK, cartResponse(summary))
}

func (h *CartHandler) respondWithCart(w http.ResponseWriter, r *http.Request, cart domain.Cart) {
	summary, err := service.ComputeCartSummary(cart)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	WriteCart(w, cart, h.secure)
	handler.JSON(w, http.StatusOK, cartResponse(summary))
}

// cartSummaryResponse is the JSON shape of a priced cart.
type cartSummaryResponse struct {
	Items     []cartItemResponse `json:"items"`
	Subtotal  string             `json:"subtotal"`
	Shipping  string             `json:"shipping"`
	Total     string             `json:"total"`
	ItemCount int                `json:"item_count"`
}

type cartItemResponse struct {
	Product     string `json:"product"`
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	Grind       string `json:"grind"`
	GrindLabel  string `json:"grind_label"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
	WeightGrams int    `json:"weight_grams"`
	ImageURL    string `json:"image_url,omitempty"`
}

func cartResponse(summary *domain.CartSummary) cartSummaryResponse {
	resp := cartSummaryResponse{
		Items:     []cartItemResponse{},
		Subtotal:  summary.Subtotal.StringFixed(2),
		Shipping:  summary.Shipping.StringFixed(2),
		Total:     summary.Total.StringFixed(2),
		ItemCount: summary.ItemCount,
	}
	for _, item := range summary.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			Product:     item.Key,
			Name:        item.Name,
			SKU:         item.SKU,
			Grind:       item.Grind,
			GrindLabel:  item.GrindLabel,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			LineTotal:   item.LineTotal.StringFixed(2),
			WeightGrams: item.WeightGrams,
			ImageURL:    item.ImageURL,
		})
	}
	return resp
}
