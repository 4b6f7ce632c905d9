package routes

import (
	"github.com/dukerupert/embla/internal/router"
)

// RegisterWebhookRoutes registers incoming webhook routes.
//
// Note: webhook routes do NOT have authentication middleware. The handler
// verifies the request signature itself (Stripe signature verification).
func RegisterWebhookRoutes(r *router.Router, deps WebhookDeps) {
	r.Post("/webhooks/stripe", deps.StripeHandler)
}
