package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing.
// Simulates payment flows without calling the Stripe API.
type MockProvider struct {
	// CreatePaymentIntentFunc allows customizing payment intent creation behavior
	CreatePaymentIntentFunc func(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)

	// GetPaymentIntentFunc allows customizing payment intent retrieval behavior
	GetPaymentIntentFunc func(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)

	// VerifyWebhookSignatureFunc allows customizing webhook verification behavior
	VerifyWebhookSignatureFunc func(payload []byte, signature string, secret string) (*WebhookEvent, error)

	// PaymentIntents stores created payment intents for retrieval
	PaymentIntents map[string]*PaymentIntent

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		PaymentIntents: make(map[string]*PaymentIntent),
		CallLog:        []string{},
	}
}

// CreatePaymentIntent creates a mock payment intent.
func (m *MockProvider) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreatePaymentIntent(%d, %s)", params.AmountMinorUnits, params.Currency))

	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, params)
	}

	pi := &PaymentIntent{
		ID:               "pi_" + uuid.New().String(),
		ClientSecret:     "pi_" + uuid.New().String() + "_secret",
		AmountMinorUnits: params.AmountMinorUnits,
		Currency:         params.Currency,
		Status:           StatusPending,
		Metadata:         params.Metadata,
		CreatedAt:        time.Now(),
	}

	m.PaymentIntents[pi.ID] = pi
	return pi, nil
}

// GetPaymentIntent retrieves a mock payment intent.
func (m *MockProvider) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("GetPaymentIntent(%s)", paymentIntentID))

	if m.GetPaymentIntentFunc != nil {
		return m.GetPaymentIntentFunc(ctx, paymentIntentID)
	}

	pi, exists := m.PaymentIntents[paymentIntentID]
	if !exists {
		return nil, ErrPaymentIntentNotFound
	}
	return pi, nil
}

// VerifyWebhookSignature verifies a mock webhook signature.
func (m *MockProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) (*WebhookEvent, error) {
	m.CallLog = append(m.CallLog, "VerifyWebhookSignature")

	if m.VerifyWebhookSignatureFunc != nil {
		return m.VerifyWebhookSignatureFunc(payload, signature, secret)
	}

	if signature == "" {
		return nil, ErrInvalidWebhookSignature
	}
	return &WebhookEvent{
		ID:   "evt_" + uuid.New().String(),
		Type: "payment_intent.succeeded",
		Raw:  payload,
	}, nil
}

// MarkSucceeded flips a stored payment intent to succeeded, simulating the
// customer completing payment.
func (m *MockProvider) MarkSucceeded(paymentIntentID string) {
	if pi, ok := m.PaymentIntents[paymentIntentID]; ok {
		pi.Status = StatusSucceeded
	}
}
