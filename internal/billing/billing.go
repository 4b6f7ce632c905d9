package billing

import (
	"context"
	"time"
)

// Provider defines the interface for payment processing.
// Implementations can use Stripe, PayPal, Square, etc.
type Provider interface {
	// CreatePaymentIntent creates a payment intent for a one-time charge.
	// Returns the intent with client_secret for frontend confirmation.
	CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)

	// GetPaymentIntent retrieves an existing payment intent. Used by the
	// thank-you page fallback to poll payment status.
	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)

	// VerifyWebhookSignature verifies that a webhook request is authentic
	// and returns the decoded event payload.
	VerifyWebhookSignature(payload []byte, signature string, secret string) (*WebhookEvent, error)
}

// Payment intent statuses the core cares about. Any other provider status is
// treated as pending.
const (
	StatusSucceeded = "succeeded"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)

// CreatePaymentIntentParams contains parameters for creating a payment intent.
type CreatePaymentIntentParams struct {
	// AmountMinorUnits is the amount in smallest currency unit (cents for EUR).
	AmountMinorUnits int64

	// Currency code (ISO 4217 lowercase) - e.g., "eur".
	Currency string

	// Description appears on the customer's statement and in the dashboard.
	Description string

	// ReceiptEmail is where the provider sends its receipt.
	ReceiptEmail string

	// Metadata for reconciliation (always includes order_id).
	Metadata map[string]string
}

// PaymentIntent represents a payment intent.
type PaymentIntent struct {
	// ID is the provider's payment intent identifier (pi_... for Stripe).
	ID string

	// ClientSecret is used by the frontend to confirm payment.
	ClientSecret string

	// AmountMinorUnits is the amount in smallest currency unit.
	AmountMinorUnits int64

	// Currency code.
	Currency string

	// Status: succeeded, pending, failed.
	Status string

	// Metadata passed during creation.
	Metadata map[string]string

	// CreatedAt is when the payment intent was created.
	CreatedAt time.Time
}

// WebhookEvent is a signature-verified inbound provider event.
type WebhookEvent struct {
	ID   string
	Type string

	// Raw is the event's data.object payload for type-specific decoding.
	Raw []byte
}
