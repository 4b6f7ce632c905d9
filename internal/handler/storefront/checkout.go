package storefront

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/embla/internal/domain"
	"github.com/dukerupert/embla/internal/handler"
	"github.com/dukerupert/embla/internal/service"
	"github.com/dukerupert/embla/internal/telemetry"
)

// CheckoutHandler turns a cart cookie into an order.
type CheckoutHandler struct {
	checkout service.CheckoutService
	validate *validator.Validate
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	secure   bool
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkout service.CheckoutService, metrics *telemetry.Metrics, logger *slog.Logger, secure bool) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		validate: validator.New(),
		metrics:  metrics,
		logger:   logger,
		secure:   secure,
	}
}

type checkoutRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
}

type checkoutResponse struct {
	OrderID      string   `json:"order_id"`
	Reference    string   `json:"reference"`
	Status       string   `json:"status"`
	Subtotal     string   `json:"subtotal"`
	Shipping     string   `json:"shipping"`
	Total        string   `json:"total"`
	ClientSecret string   `json:"client_secret"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Create handles POST /checkout
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.metrics.CheckoutStarted.Inc()

	var req checkoutRequest
	if err := handler.Decode(r, &req); err != nil {
		h.metrics.CheckoutFailed.WithLabelValues(domain.EINVALID).Inc()
		handler.Error(w, h.logger, err)
		return
	}

	contact := domain.ContactInfo{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Street:      req.Street,
		HouseNumber: req.HouseNumber,
		City:        req.City,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
	}
	if err := h.validateContact(contact); err != nil {
		h.metrics.CheckoutFailed.WithLabelValues(domain.EINVALID).Inc()
		handler.Error(w, h.logger, err)
		return
	}

	result, err := h.checkout.CreateOrder(r.Context(), ReadCart(r), contact)
	if err != nil {
		h.metrics.CheckoutFailed.WithLabelValues(domain.ErrorCode(err)).Inc()
		handler.Error(w, h.logger, err)
		return
	}

	h.metrics.CheckoutCompleted.Inc()
	h.metrics.OrdersCreated.Inc()
	h.metrics.OrderValue.Observe(result.Order.Total.InexactFloat64())

	// The cart is spent; the payment page works off the order now.
	ClearCart(w, h.secure)

	resp := checkoutResponse{
		OrderID:      result.Order.ID.String(),
		Reference:    result.Order.Reference(),
		Status:       string(result.Order.Status),
		Subtotal:     result.Order.Subtotal.StringFixed(2),
		Shipping:     result.Order.Shipping.StringFixed(2),
		Total:        result.Order.Total.StringFixed(2),
		ClientSecret: result.ClientSecret,
	}
	for _, warning := range result.Warnings {
		resp.Warnings = append(resp.Warnings, warning.String())
	}

	handler.JSON(w, http.StatusCreated, resp)
}

// validateContact maps validator tag failures onto field-level domain errors.
func (h *CheckoutHandler) validateContact(contact domain.ContactInfo) error {
	err := h.validate.Struct(contact)
	if err == nil {
		return nil
	}

	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.Invalid("checkout.validate", "Invalid checkout form")
	}

	var fieldErr error
	for _, fe := range invalid {
		switch fe.Tag() {
		case "required":
			fieldErr = domain.AddFieldError(fieldErr, fe.Field(), "This field is required")
		case "email":
			fieldErr = domain.AddFieldError(fieldErr, fe.Field(), "Enter a valid email address")
		case "max":
			fieldErr = domain.AddFieldError(fieldErr, fe.Field(), "Value is too long")
		default:
			fieldErr = domain.AddFieldError(fieldErr, fe.Field(), "Invalid value")
		}
	}
	return fieldErr
}
