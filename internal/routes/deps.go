package routes

import (
	"net/http"

	"github.com/dukerupert/embla/internal/handler/storefront"
)

// StorefrontDeps contains dependencies for customer-facing routes.
type StorefrontDeps struct {
	ProductHandler  *storefront.ProductHandler
	CartHandler     *storefront.CartHandler
	CheckoutHandler *storefront.CheckoutHandler
	OrderHandler    *storefront.OrderHandler
}

// FulfillmentDeps contains dependencies for the packing-screen routes.
type FulfillmentDeps struct {
	OrderHandler *storefront.OrderHandler
}

// WebhookDeps contains dependencies for webhook routes.
type WebhookDeps struct {
	StripeHandler http.HandlerFunc
}
