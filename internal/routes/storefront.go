package routes

import (
	"github.com/dukerupert/embla/internal/router"
)

// RegisterStorefrontRoutes registers all customer-facing routes: the
// product catalog, the cookie cart, checkout, and order confirmation.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	// Product browsing
	r.Get("/products", deps.ProductHandler.List)
	r.Get("/products/{slug}", deps.ProductHandler.Get)

	// Shopping cart
	r.Get("/cart", deps.CartHandler.View)
	r.Post("/cart/items", deps.CartHandler.Add)
	r.Put("/cart/items/{slug}", deps.CartHandler.Update)
	r.Delete("/cart/items/{slug}", deps.CartHandler.Remove)
	r.Delete("/cart", deps.CartHandler.Clear)

	// Checkout flow
	r.Post("/checkout", deps.CheckoutHandler.Create)

	// Order confirmation. Confirm polls the payment provider as a
	// fallback when the webhook has not arrived yet.
	r.Get("/orders/{id}", deps.OrderHandler.Get)
	r.Post("/orders/{id}/confirm", deps.OrderHandler.Confirm)
}

// RegisterFulfillmentRoutes registers the packing-screen routes.
//
// Note: these are internal endpoints. In production they sit behind the
// shop's reverse proxy with access restricted to staff.
func RegisterFulfillmentRoutes(r *router.Router, deps FulfillmentDeps) {
	r.Get("/fulfillment/orders", deps.OrderHandler.ListPackable)
	r.Get("/fulfillment/orders/fulfilled", deps.OrderHandler.ListFulfilled)
	r.Post("/fulfillment/orders/{id}/status", deps.OrderHandler.UpdateStatus)
	r.Get("/fulfillment/orders/{id}/picklist", deps.OrderHandler.Picklist)
}
