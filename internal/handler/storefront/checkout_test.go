package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/embla/internal/domain"
	"github.com/dukerupert/embla/internal/router"
	"github.com/dukerupert/embla/internal/service"
)

type mockCheckoutService struct {
	CreateOrderFunc func(ctx context.Context, cart domain.Cart, contact domain.ContactInfo) (*service.CheckoutResult, error)
	LastCart        domain.Cart
}

func (m *mockCheckoutService) CreateOrder(ctx context.Context, cart domain.Cart, contact domain.ContactInfo) (*service.CheckoutResult, error) {
	m.LastCart = cart
	return m.CreateOrderFunc(ctx, cart, contact)
}

func checkoutBody() string {
	return `{
		"full_name": "Maria Schmidt",
		"email": "maria@example.com",
		"street": "Hauptstrasse",
		"house_number": "12a",
		"city": "Berlin",
		"postal_code": "10115",
		"country": "Germany"
	}`
}

func checkoutTestRouter(svc service.CheckoutService) *router.Router {
	h := NewCheckoutHandler(svc, testMetrics, testLogger(), false)
	r := router.New()
	r.Post("/checkout", h.Create)
	return r
}

func TestCheckoutCreate(t *testing.T) {
	t.Run("success returns client secret and clears cart cookie", func(t *testing.T) {
		orderID := uuid.New()
		svc := &mockCheckoutService{
			CreateOrderFunc: func(ctx context.Context, cart domain.Cart, contact domain.ContactInfo) (*service.CheckoutResult, error) {
				return &service.CheckoutResult{
					Order: &domain.Order{
						ID:       orderID,
						Status:   domain.StatusNew,
						Email:    contact.Email,
						Subtotal: decimal.RequireFromString("25.80"),
						Shipping: decimal.RequireFromString("4.90"),
						Total:    decimal.RequireFromString("30.70"),
					},
					ClientSecret: "pi_x_secret",
					Warnings: []domain.CheckoutWarning{
						{ProductKey: "gone", Name: "Gone Blend", Reason: "product is inactive"},
					},
				}, nil
			},
		}
		r := checkoutTestRouter(svc)

		// Seed a cart cookie so the handler has something to hand over.
		seed := httptest.NewRecorder()
		WriteCart(seed, domain.Cart{
			"ethiopia-yirgacheffe": {Name: "Ethiopia", Price: "12.90", Quantity: 2},
		}, false)

		req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(checkoutBody()))
		for _, c := range seed.Result().Cookies() {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var resp checkoutResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, orderID.String(), resp.OrderID)
		assert.Equal(t, "pi_x_secret", resp.ClientSecret)
		assert.Equal(t, "30.70", resp.Total)
		require.Len(t, resp.Warnings, 1)
		assert.Contains(t, resp.Warnings[0], "Gone Blend")

		// The handler saw the cookie cart.
		assert.Len(t, svc.LastCart, 1)

		// The cart cookie is expired.
		var cleared bool
		for _, c := range w.Result().Cookies() {
			if c.Name == "vv_cart" && c.MaxAge < 0 {
				cleared = true
			}
		}
		assert.True(t, cleared, "cart cookie should be expired")
	})

	t.Run("validation failure returns field errors", func(t *testing.T) {
		svc := &mockCheckoutService{
			CreateOrderFunc: func(ctx context.Context, cart domain.Cart, contact domain.ContactInfo) (*service.CheckoutResult, error) {
				t.Fatal("service must not be called on validation failure")
				return nil, nil
			},
		}
		r := checkoutTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/checkout",
			bytes.NewBufferString(`{"full_name": "Maria", "email": "not-an-email"}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)

		var body struct {
			Error struct {
				Code   string            `json:"code"`
				Fields map[string]string `json:"fields"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, domain.EINVALID, body.Error.Code)
		assert.Contains(t, body.Error.Fields, "Email")
		assert.Contains(t, body.Error.Fields, "Street")
	})

	t.Run("empty cart maps to 400", func(t *testing.T) {
		svc := &mockCheckoutService{
			CreateOrderFunc: func(ctx context.Context, cart domain.Cart, contact domain.ContactInfo) (*service.CheckoutResult, error) {
				return nil, domain.ErrEmptyCart
			},
		}
		r := checkoutTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(checkoutBody()))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("payment failure maps to 402", func(t *testing.T) {
		svc := &mockCheckoutService{
			CreateOrderFunc: func(ctx context.Context, cart domain.Cart, contact domain.ContactInfo) (*service.CheckoutResult, error) {
				return nil, &domain.Error{Code: domain.EPAYMENT, Message: "Payment could not be initialized"}
			},
		}
		r := checkoutTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(checkoutBody()))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})
}
