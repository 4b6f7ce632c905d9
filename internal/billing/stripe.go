package billing

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Stripe refuses charges below 50 cents regardless of currency.
const minChargeMinorUnits = 50

// StripeProvider implements Provider using the Stripe API.
type StripeProvider struct {
	apiKey string
}

// NewStripeProvider creates a new Stripe billing provider. The key is set
// process-wide because the Stripe SDK uses a package-level client.
func NewStripeProvider(apiKey string) (*StripeProvider, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}
	stripe.Key = apiKey
	return &StripeProvider{apiKey: apiKey}, nil
}

// CreatePaymentIntent creates a Stripe payment intent for a one-time charge.
func (s *StripeProvider) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error) {
	if params.AmountMinorUnits < minChargeMinorUnits {
		return nil, ErrAmountTooSmall
	}

	piParams := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(params.AmountMinorUnits),
		Currency: stripe.String(params.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if params.Description != "" {
		piParams.Description = stripe.String(params.Description)
	}
	if params.ReceiptEmail != "" {
		piParams.ReceiptEmail = stripe.String(params.ReceiptEmail)
	}
	for k, v := range params.Metadata {
		piParams.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(piParams)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	return fromStripeIntent(pi), nil
}

// GetPaymentIntent retrieves a payment intent from Stripe.
func (s *StripeProvider) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error) {
	pi, err := paymentintent.Get(paymentIntentID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, ErrPaymentIntentNotFound
		}
		return nil, wrapStripeError(err)
	}
	return fromStripeIntent(pi), nil
}

// VerifyWebhookSignature verifies a Stripe webhook signature and decodes the event.
func (s *StripeProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, secret)
	if err != nil {
		return nil, ErrInvalidWebhookSignature
	}
	return &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
		Raw:  event.Data.Raw,
	}, nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:               pi.ID,
		ClientSecret:     pi.ClientSecret,
		AmountMinorUnits: pi.Amount,
		Currency:         string(pi.Currency),
		Status:           normalizeStatus(pi.Status),
		Metadata:         pi.Metadata,
	}
}

// normalizeStatus collapses Stripe's intent statuses into the three the
// order lifecycle cares about.
func normalizeStatus(status stripe.PaymentIntentStatus) string {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return StatusFailed
	default:
		return StatusPending
	}
}

func wrapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return &StripeError{Message: err.Error(), OriginalError: err}
	}
	return &StripeError{
		Message:       stripeErr.Msg,
		Code:          string(stripeErr.Code),
		DeclineCode:   string(stripeErr.DeclineCode),
		RequestID:     stripeErr.RequestID,
		OriginalError: err,
	}
}
