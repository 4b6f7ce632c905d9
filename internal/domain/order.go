package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order domain errors.
var (
	ErrOrderNotFound           = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrOrderHasNoItems         = &Error{Code: EINVALID, Message: "Order has no items"}
	ErrPaymentNotInitialized   = &Error{Code: EPAYMENT, Message: "Payment not initialized for this order"}
	ErrInvalidStatusTransition = &Error{Code: ECONFLICT, Message: "Invalid status change"}
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

// Lifecycle states. Cancelled and refunded are terminal.
const (
	StatusNew                OrderStatus = "new"
	StatusPendingFulfillment OrderStatus = "pending_fulfillment"
	StatusPaid               OrderStatus = "paid"
	StatusFulfilled          OrderStatus = "fulfilled"
	StatusCancelled          OrderStatus = "cancelled"
	StatusRefunded           OrderStatus = "refunded"
)

// statusTransitions is the forward transition table. A same-state transition
// is always permitted and is not listed here.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusNew:                {StatusPendingFulfillment, StatusPaid, StatusCancelled},
	StatusPendingFulfillment: {StatusPaid, StatusFulfilled, StatusCancelled},
	StatusPaid:               {StatusFulfilled, StatusRefunded, StatusCancelled},
	StatusFulfilled:          {StatusRefunded},
}

// CanTransition reports whether an order may move from one status to another.
// Same-state transitions are permitted as no-ops.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusNew, StatusPendingFulfillment, StatusPaid, StatusFulfilled, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Order is a customer checkout capturing payment and fulfillment lifecycle.
type Order struct {
	ID     uuid.UUID
	UserID *uuid.UUID

	// Contact & shipping (Germany-focused but generic)
	FullName    string
	Email       string
	PhoneNumber string
	Street      string
	HouseNumber string
	City        string
	PostalCode  string
	Country     string

	Status          OrderStatus
	PaymentIntentID string
	Subtotal        decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	FulfilledAt     *time.Time

	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reference is the human-friendly order reference used in receipts and
// internal mail.
func (o *Order) Reference() string {
	return fmt.Sprintf("VV-%.8s", o.ID)
}

// IsPaid reports whether the order has reached the paid state or beyond.
// Used by reconciliation to enforce at-most-once stock consumption.
func (o *Order) IsPaid() bool {
	switch o.Status {
	case StatusPaid, StatusFulfilled, StatusRefunded:
		return true
	}
	return false
}

// OrderItem is an immutable snapshot of a product line at purchase time.
// Name, price, and weight are frozen here even if the catalog product later
// changes.
type OrderItem struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	ProductID           uuid.UUID
	ProductNameSnapshot string
	UnitPrice           decimal.Decimal
	Quantity            int
	Grind               string
	WeightGrams         int
}

// LineTotal is the total price for the item line, quantized half-up.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
}

// ContactInfo carries the validated checkout form fields into order creation.
type ContactInfo struct {
	UserID      *uuid.UUID
	FullName    string `validate:"required,max=100"`
	Email       string `validate:"required,email"`
	PhoneNumber string `validate:"max=20"`
	Street      string `validate:"required,max=120"`
	HouseNumber string `validate:"max=10"`
	City        string `validate:"required,max=80"`
	PostalCode  string `validate:"required,max=20"`
	Country     string `validate:"max=60"`
}

// OrderDetail aggregates an order with its item snapshots.
type OrderDetail struct {
	Order Order
	Items []OrderItem
}

// ItemCount is the total quantity of products in the order.
func (d *OrderDetail) ItemCount() int {
	n := 0
	for _, item := range d.Items {
		n += item.Quantity
	}
	return n
}

// CheckoutWarning reports a cart line that could not be carried into the
// order. Non-fatal: the order proceeds with the remaining lines.
type CheckoutWarning struct {
	ProductKey string
	Name       string
	Reason     string
}

func (w CheckoutWarning) String() string {
	return fmt.Sprintf("Item %q is no longer available and was skipped.", w.Name)
}

// ReconciliationResult is the outcome of applying an external payment signal
// to an order. AlreadyReconciled and NotYetSucceeded are expected outcomes of
// retried or premature signals, not errors.
type ReconciliationResult string

const (
	Reconciled        ReconciliationResult = "reconciled"
	AlreadyReconciled ReconciliationResult = "already_reconciled"
	NotYetSucceeded   ReconciliationResult = "not_yet_succeeded"
)
