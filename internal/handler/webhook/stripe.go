// Package webhook handles inbound payment provider events.
package webhook

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/embla/internal/billing"
	"github.com/dukerupert/embla/internal/domain"
	"github.com/dukerupert/embla/internal/handler"
	"github.com/dukerupert/embla/internal/service"
	"github.com/dukerupert/embla/internal/telemetry"
)

// maxPayloadBytes bounds the webhook body read. Stripe events are small;
// anything larger is not one.
const maxPayloadBytes = 1 << 16

// StripeHandler handles Stripe webhook events.
type StripeHandler struct {
	provider      billing.Provider
	reconcile     service.ReconcileService
	webhookSecret string
	metrics       *telemetry.Metrics
	logger        *slog.Logger
}

// NewStripeHandler creates a new Stripe webhook handler.
func NewStripeHandler(provider billing.Provider, reconcile service.ReconcileService, webhookSecret string, metrics *telemetry.Metrics, logger *slog.Logger) *StripeHandler {
	return &StripeHandler{
		provider:      provider,
		reconcile:     reconcile,
		webhookSecret: webhookSecret,
		metrics:       metrics,
		logger:        logger,
	}
}

// HandleWebhook processes POST /webhooks/stripe.
//
// Responses follow Stripe's retry contract: 2xx acknowledges the event
// (including events we ignore or have already applied), 400 asks Stripe to
// retry after a bad payload or signature.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:8080/webhooks/stripe
//	stripe trigger payment_intent.succeeded
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.metrics.WebhookLatency.Observe(time.Since(start).Seconds())
	}()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.metrics.WebhookFailed.WithLabelValues("read_body").Inc()
		handler.Error(w, h.logger, domain.Invalid("webhook.stripe", "Error reading request body"))
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		h.metrics.WebhookFailed.WithLabelValues("missing_signature").Inc()
		handler.Error(w, h.logger, domain.Invalid("webhook.stripe", "Missing signature"))
		return
	}

	event, err := h.provider.VerifyWebhookSignature(payload, signature, h.webhookSecret)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		h.metrics.WebhookFailed.WithLabelValues("bad_signature").Inc()
		handler.Error(w, h.logger, domain.Invalid("webhook.stripe", "Invalid signature"))
		return
	}

	h.metrics.WebhookReceived.WithLabelValues(event.Type).Inc()
	h.logger.Info("webhook event received",
		"type", event.Type,
		"event_id", event.ID,
	)

	switch event.Type {
	case "payment_intent.succeeded":
		h.handlePaymentIntentSucceeded(w, r, event)
	default:
		// Unhandled event types are acknowledged so Stripe stops retrying.
		h.metrics.WebhookProcessed.WithLabelValues("ignored").Inc()
		w.WriteHeader(http.StatusOK)
	}
}

// paymentIntentPayload is the slice of Stripe's payment_intent object the
// reconciliation path needs.
type paymentIntentPayload struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

func (h *StripeHandler) handlePaymentIntentSucceeded(w http.ResponseWriter, r *http.Request, event *billing.WebhookEvent) {
	var pi paymentIntentPayload
	if err := json.Unmarshal(event.Raw, &pi); err != nil {
		h.metrics.WebhookFailed.WithLabelValues("bad_payload").Inc()
		handler.Error(w, h.logger, domain.Invalid("webhook.stripe", "Invalid payment intent payload"))
		return
	}

	orderIDRaw, ok := pi.Metadata["order_id"]
	if !ok || orderIDRaw == "" {
		// Not one of our intents (manual dashboard charge, another system).
		// Acknowledge and move on.
		h.logger.Warn("payment intent without order_id metadata",
			"payment_intent_id", pi.ID,
		)
		h.metrics.WebhookProcessed.WithLabelValues("no_order").Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	orderID, err := uuid.Parse(orderIDRaw)
	if err != nil {
		h.metrics.WebhookFailed.WithLabelValues("bad_order_id").Inc()
		handler.Error(w, h.logger, domain.Invalid("webhook.stripe", "Invalid order_id metadata"))
		return
	}

	result, err := h.reconcile.ReconcilePayment(r.Context(), orderID, pi.Status)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			// The order is gone; retrying will not bring it back.
			h.logger.Error("webhook references unknown order",
				"order_id", orderID,
				"payment_intent_id", pi.ID,
			)
			h.metrics.WebhookProcessed.WithLabelValues("order_missing").Inc()
			w.WriteHeader(http.StatusOK)
			return
		}
		h.metrics.WebhookFailed.WithLabelValues("reconcile_error").Inc()
		handler.Error(w, h.logger, err)
		return
	}

	if result == domain.Reconciled {
		h.metrics.OrdersPaid.Inc()
	}
	h.metrics.WebhookProcessed.WithLabelValues(string(result)).Inc()

	h.logger.Info("webhook reconciled payment",
		"order_id", orderID,
		"result", string(result),
	)
	handler.JSON(w, http.StatusOK, map[string]string{"result": string(result)})
}
