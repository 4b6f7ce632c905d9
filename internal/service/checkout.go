package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/embla/internal/billing"
	"github.com/dukerupert/embla/internal/domain"
	"github.com/dukerupert/embla/internal/money"
)

// defaultBillingTimeout bounds the payment provider call made inside the
// checkout transaction, so a slow provider cannot hold row locks open.
const defaultBillingTimeout = 15 * time.Second

// CheckoutResult is what checkout hands back to the payment page.
type CheckoutResult struct {
	Order        *domain.Order
	Items        []domain.OrderItem
	ClientSecret string
	Warnings     []domain.CheckoutWarning
}

// CheckoutService converts a session cart into a persisted order with a
// payment intent attached.
type CheckoutService interface {
	// CreateOrder atomically creates an order from the cart: item snapshots,
	// server-side totals, and a payment intent sized from the recomputed
	// total. Cart lines whose product is gone or inactive are skipped and
	// reported as warnings. Payment intent creation failure aborts the whole
	// transaction; no order survives without a payment intent.
	CreateOrder(ctx context.Context, cart domain.Cart, contact domain.ContactInfo) (*CheckoutResult, error)
}

type checkoutService struct {
	store          Store
	provider       billing.Provider
	notifier       Notifier
	logger         *slog.Logger
	billingTimeout time.Duration
}

// NewCheckoutService creates a CheckoutService. A zero billingTimeout uses
// the default.
func NewCheckoutService(store Store, provider billing.Provider, notifier Notifier, logger *slog.Logger, billingTimeout time.Duration) CheckoutService {
	if billingTimeout <= 0 {
		billingTimeout = defaultBillingTimeout
	}
	return &checkoutService{
		store:          store,
		provider:       provider,
		notifier:       notifier,
		logger:         logger,
		billingTimeout: billingTimeout,
	}
}

func (s *checkoutService) CreateOrder(ctx context.Context, cart domain.Cart, contact domain.ContactInfo) (*CheckoutResult, error) {
	const op = "checkout.create_order"

	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	result := &CheckoutResult{}

	err := s.store.WithTx(ctx, func(tx Store) error {
		order := &domain.Order{
			ID:          uuid.New(),
			UserID:      contact.UserID,
			FullName:    contact.FullName,
			Email:       contact.Email,
			PhoneNumber: contact.PhoneNumber,
			Street:      contact.Street,
			HouseNumber: contact.HouseNumber,
			City:        contact.City,
			PostalCode:  contact.PostalCode,
			Country:     contact.Country,
			Status:      domain.StatusNew,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return domain.Internal(err, op, "failed to create order")
		}

		// Deterministic item order regardless of map iteration.
		keys := make([]string, 0, len(cart))
		for key := range cart {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var items []domain.OrderItem
		var warnings []domain.CheckoutWarning
		subtotal := money.Zero()

		for _, key := range keys {
			line := cart[key]

			product, err := tx.GetProductBySlug(ctx, key)
			if err != nil {
				if domain.ErrorCode(err) == domain.ENOTFOUND {
					warnings = append(warnings, domain.CheckoutWarning{
						ProductKey: key,
						Name:       line.Name,
						Reason:     "product no longer exists",
					})
					continue
				}
				return domain.Internal(err, op, "failed to load product")
			}
			if !product.IsActive {
				warnings = append(warnings, domain.CheckoutWarning{
					ProductKey: key,
					Name:       product.Name,
					Reason:     "product is inactive",
				})
				continue
			}

			qty := line.Quantity
			if qty < 1 {
				qty = 1
			}
			grind := line.Grind
			if grind == "" {
				grind = "whole"
			}

			// Snapshot from the live catalog row, not the session line:
			// a price edited after the item was carted must not leak a
			// stale amount into the order.
			item := domain.OrderItem{
				ID:                  uuid.New(),
				OrderID:             order.ID,
				ProductID:           product.ID,
				ProductNameSnapshot: product.Name,
				UnitPrice:           money.Round2(product.Price),
				Quantity:            qty,
				Grind:               grind,
				WeightGrams:         product.WeightGrams,
			}
			if err := tx.CreateOrderItem(ctx, &item); err != nil {
				return domain.Internal(err, op, "failed to create order item")
			}

			items = append(items, item)
			subtotal = subtotal.Add(item.LineTotal())
		}

		if len(items) == 0 {
			return domain.ErrOrderHasNoItems
		}

		subtotal = money.Round2(subtotal)
		shipping := money.Round2(money.ShippingFor(subtotal))
		total := money.Round2(subtotal.Add(shipping))

		if err := tx.UpdateOrderTotals(ctx, order.ID, subtotal, shipping, total); err != nil {
			return domain.Internal(err, op, "failed to persist order totals")
		}
		order.Subtotal = subtotal
		order.Shipping = shipping
		order.Total = total

		piCtx, cancel := context.WithTimeout(ctx, s.billingTimeout)
		defer cancel()

		pi, err := s.provider.CreatePaymentIntent(piCtx, billing.CreatePaymentIntentParams{
			AmountMinorUnits: money.MinorUnits(total),
			Currency:         "eur",
			Description:      paymentDescription(items),
			ReceiptEmail:     contact.Email,
			Metadata: map[string]string{
				"order_id":       order.ID.String(),
				"customer_email": contact.Email,
			},
		})
		if err != nil {
			return &domain.Error{
				Code:    domain.EPAYMENT,
				Op:      op,
				Message: "Payment could not be initialized",
				Err:     err,
			}
		}

		if err := tx.SetOrderPaymentIntent(ctx, order.ID, pi.ID); err != nil {
			return domain.Internal(err, op, "failed to attach payment intent")
		}
		order.PaymentIntentID = pi.ID

		result.Order = order
		result.Items = items
		result.ClientSecret = pi.ClientSecret
		result.Warnings = warnings
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		"order_id", result.Order.ID,
		"reference", result.Order.Reference(),
		"total", result.Order.Total.StringFixed(2),
		"items", len(result.Items),
		"warnings", len(result.Warnings),
	)

	// Post-commit, best-effort. A mail outage must never unwind a placed
	// order.
	if s.notifier != nil {
		detail := &domain.OrderDetail{Order: *result.Order, Items: result.Items}
		if err := s.notifier.SendOrderPending(ctx, detail); err != nil {
			s.logger.Error("failed to send order pending email",
				"order_id", result.Order.ID,
				"error", err,
			)
		}
	}

	return result, nil
}

// paymentDescription summarizes the order for the provider dashboard and the
// customer's statement.
func paymentDescription(items []domain.OrderItem) string {
	if len(items) == 0 {
		return "VV Kaffee order"
	}
	desc := fmt.Sprintf("VV Kaffee - %s", items[0].ProductNameSnapshot)
	if len(items) > 1 {
		desc += fmt.Sprintf(" +%d more", len(items)-1)
	}
	return desc
}
