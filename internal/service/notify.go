package service

import (
	"context"

	"github.com/dukerupert/embla/internal/domain"
)

// Notifier sends order lifecycle mail. Implementations must not be relied on
// for correctness: callers treat every send as best-effort and log failures
// instead of propagating them.
type Notifier interface {
	// SendOrderPending mails the customer that their order was received and
	// payment is being processed.
	SendOrderPending(ctx context.Context, detail *domain.OrderDetail) error

	// SendOrderPaidCustomer mails the customer their payment confirmation.
	SendOrderPaidCustomer(ctx context.Context, detail *domain.OrderDetail) error

	// SendOrderPaidInternal mails the fulfillment team a new-paid-order
	// notification with the picklist attached.
	SendOrderPaidInternal(ctx context.Context, detail *domain.OrderDetail) error
}
