package storefront

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/dukerupert/embla/internal/billing"
	"github.com/dukerupert/embla/internal/document"
	"github.com/dukerupert/embla/internal/domain"
	"github.com/dukerupert/embla/internal/handler"
	"github.com/dukerupert/embla/internal/service"
	"github.com/dukerupert/embla/internal/telemetry"
)

// OrderHandler serves order confirmation and the fulfillment screens.
type OrderHandler struct {
	orders    service.OrderService
	reconcile service.ReconcileService
	provider  billing.Provider
	documents document.Generator
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(
	orders service.OrderService,
	reconcile service.ReconcileService,
	provider billing.Provider,
	documents document.Generator,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *OrderHandler {
	return &OrderHandler{
		orders:    orders,
		reconcile: reconcile,
		provider:  provider,
		documents: documents,
		metrics:   metrics,
		logger:    logger,
	}
}

func orderIDFromPath(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, domain.Invalid("order.parse_id", "Invalid order ID")
	}
	return id, nil
}

// Get handles GET /orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDFromPath(r)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	detail, err := h.orders.GetOrderDetail(r.Context(), id)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}
	handler.JSON(w, http.StatusOK, toOrderResponse(detail))
}

// Confirm handles POST /orders/{id}/confirm
//
// The thank-you page calls this after the customer returns from payment.
// It polls the provider for the live intent status and funnels the result
// through the same reconciliation path the webhook uses, covering webhook
// delays and outages.
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := orderIDFromPath(r)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	detail, err := h.orders.GetOrderDetail(ctx, id)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	if detail.Order.PaymentIntentID == "" {
		handler.Error(w, h.logger, domain.ErrPaymentNotInitialized)
		return
	}

	status := billing.StatusPending
	if !detail.Order.IsPaid() {
		pi, err := h.provider.GetPaymentIntent(ctx, detail.Order.PaymentIntentID)
		if err != nil {
			// The webhook will reconcile later; show the order as-is.
			h.logger.Warn("failed to poll payment intent",
				"order_id", id,
				"error", err,
			)
		} else {
			status = pi.Status
		}
	}

	result, err := h.reconcile.ReconcilePayment(ctx, id, status)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}
	if result == domain.Reconciled {
		h.metrics.OrdersPaid.Inc()
		h.metrics.RevenueCollected.Add(detail.Order.Total.InexactFloat64())
	}

	// Re-read for the post-reconciliation status.
	detail, err = h.orders.GetOrderDetail(ctx, id)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	resp := toOrderResponse(detail)
	resp.Reconciliation = string(result)
	handler.JSON(w, http.StatusOK, resp)
}

// ListPackable handles GET /fulfillment/orders
func (h *OrderHandler) ListPackable(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListPackableOrders(r.Context(), 100)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}
	handler.JSON(w, http.StatusOK, toOrderListResponse(orders))
}

// ListFulfilled handles GET /fulfillment/orders/fulfilled
func (h *OrderHandler) ListFulfilled(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListRecentlyFulfilled(r.Context(), 100)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}
	handler.JSON(w, http.StatusOK, toOrderListResponse(orders))
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles POST /fulfillment/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDFromPath(r)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	var req statusUpdateRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	h.metrics.OrdersByStatus.WithLabelValues(string(order.Status)).Inc()
	handler.JSON(w, http.StatusOK, toOrderSummary(order))
}

// Picklist handles GET /fulfillment/orders/{id}/picklist
func (h *OrderHandler) Picklist(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDFromPath(r)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	detail, err := h.orders.GetOrderDetail(r.Context(), id)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	// Picklists exist for the packing queue only.
	if detail.Order.Status != domain.StatusPaid && detail.Order.Status != domain.StatusPendingFulfillment {
		handler.Error(w, h.logger, domain.Conflict("order.picklist", "Order is not awaiting fulfillment"))
		return
	}

	doc, err := h.documents.Picklist(detail)
	if err != nil {
		handler.Error(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	_, _ = w.Write(doc.Content)
}

// orderResponse is the JSON shape of an order with items.
type orderResponse struct {
	orderSummary
	Items          []orderItemResponse `json:"items"`
	Reconciliation string              `json:"reconciliation,omitempty"`
}

type orderSummary struct {
	ID          string `json:"id"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Subtotal    string `json:"subtotal"`
	Shipping    string `json:"shipping"`
	Total       string `json:"total"`
	FulfilledAt string `json:"fulfilled_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type orderItemResponse struct {
	Name        string `json:"name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Grind       string `json:"grind"`
	WeightGrams int    `json:"weight_grams"`
	LineTotal   string `json:"line_total"`
}

func toOrderSummary(o *domain.Order) orderSummary {
	s := orderSummary{
		ID:        o.ID.String(),
		Reference: o.Reference(),
		Status:    string(o.Status),
		FullName:  o.FullName,
		Email:     o.Email,
		Subtotal:  o.Subtotal.StringFixed(2),
		Shipping:  o.Shipping.StringFixed(2),
		Total:     o.Total.StringFixed(2),
		CreatedAt: o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if o.FulfilledAt != nil {
		s.FulfilledAt = o.FulfilledAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return s
}

func toOrderResponse(detail *domain.OrderDetail) orderResponse {
	resp := orderResponse{
		orderSummary: toOrderSummary(&detail.Order),
		Items:        []orderItemResponse{},
	}
	for _, item := range detail.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			Name:        item.ProductNameSnapshot,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Quantity:    item.Quantity,
			Grind:       item.Grind,
			WeightGrams: item.WeightGrams,
			LineTotal:   item.LineTotal().StringFixed(2),
		})
	}
	return resp
}

func toOrderListResponse(orders []domain.Order) []orderSummary {
	out := make([]orderSummary, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderSummary(&orders[i]))
	}
	return out
}
