package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dukerupert/embla/internal/billing"
	"github.com/dukerupert/embla/internal/domain"
)

// ReconcileService applies external payment signals to orders. Both the
// webhook handler and the thank-you page fallback funnel into the same entry
// point, so the same idempotence guarantees cover both paths.
type ReconcileService interface {
	// ReconcilePayment applies a payment status signal to an order. If the
	// order is already paid (or beyond), it returns AlreadyReconciled
	// without touching inventory; if the signal is not "succeeded", it
	// returns NotYetSucceeded and changes nothing. Otherwise it decrements
	// stock at most once, consumes FIFO batches where they exist, and moves
	// the order to paid, all in one transaction under a row lock on the
	// order.
	ReconcilePayment(ctx context.Context, orderID uuid.UUID, externalStatus string) (domain.ReconciliationResult, error)
}

type reconcileService struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
}

// NewReconcileService creates a ReconcileService.
func NewReconcileService(store Store, notifier Notifier, logger *slog.Logger) ReconcileService {
	return &reconcileService{store: store, notifier: notifier, logger: logger}
}

func (s *reconcileService) ReconcilePayment(ctx context.Context, orderID uuid.UUID, externalStatus string) (domain.ReconciliationResult, error) {
	const op = "reconcile.payment"

	var (
		result domain.ReconciliationResult
		detail *domain.OrderDetail
	)

	err := s.store.WithTx(ctx, func(tx Store) error {
		// The row lock serializes concurrent signals for the same order
		// (webhook racing the thank-you fallback). The loser of the race
		// sees the paid state and short-circuits.
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if order.IsPaid() {
			result = domain.AlreadyReconciled
			return nil
		}

		if externalStatus != billing.StatusSucceeded {
			result = domain.NotYetSucceeded
			return nil
		}

		items, err := tx.GetOrderItems(ctx, orderID)
		if err != nil {
			return domain.Internal(err, op, "failed to load order items")
		}

		for _, item := range items {
			if err := s.consumeInventory(ctx, tx, item); err != nil {
				return err
			}
		}

		if !domain.CanTransition(order.Status, domain.StatusPaid) {
			// Unreachable while the transition table admits paid from every
			// non-terminal pre-payment state. Fail the transaction loudly
			// rather than paying out of a state the table forbids.
			s.logger.Error("reconciliation blocked by transition table",
				"order_id", orderID,
				"from", string(order.Status),
			)
			return domain.Errorf(domain.EINTERNAL, op, "cannot mark order paid from status %q", order.Status)
		}

		if err := tx.UpdateOrderStatus(ctx, orderID, domain.StatusPaid, nil); err != nil {
			return domain.Internal(err, op, "failed to mark order paid")
		}

		order.Status = domain.StatusPaid
		detail = &domain.OrderDetail{Order: *order, Items: items}
		result = domain.Reconciled
		return nil
	})
	if err != nil {
		return "", err
	}

	if result != domain.Reconciled {
		return result, nil
	}

	s.logger.Info("payment reconciled",
		"order_id", orderID,
		"reference", detail.Order.Reference(),
		"total", detail.Order.Total.StringFixed(2),
	)

	// Notifications are post-commit and best-effort: the paid state is
	// already durable, a mail failure only costs an email.
	if s.notifier != nil {
		if err := s.notifier.SendOrderPaidCustomer(ctx, detail); err != nil {
			s.logger.Error("failed to send payment confirmation email",
				"order_id", orderID,
				"error", err,
			)
		}
		if err := s.notifier.SendOrderPaidInternal(ctx, detail); err != nil {
			s.logger.Error("failed to send internal paid-order notification",
				"order_id", orderID,
				"error", err,
			)
		}
	}

	return result, nil
}

// consumeInventory decrements stock for one order item. Flat stock is floored
// at zero; oversell is a fulfillment problem, not a payment problem. Where
// FIFO batches exist, the item's gram demand is drawn from them oldest-first
// and the flat counter becomes a projection of what remains.
func (s *reconcileService) consumeInventory(ctx context.Context, tx Store, item domain.OrderItem) error {
	const op = "reconcile.consume_inventory"

	product, err := tx.GetProductForUpdate(ctx, item.ProductID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			// Product deleted after purchase. Nothing to decrement.
			s.logger.Warn("reconciliation found no product for order item",
				"order_item_id", item.ID,
				"product_id", item.ProductID,
			)
			return nil
		}
		return domain.Internal(err, op, "failed to lock product")
	}

	batches, err := tx.ListBatchesForUpdate(ctx, product.ID)
	if err != nil {
		return domain.Internal(err, op, "failed to lock product batches")
	}

	if len(batches) == 0 {
		stock := product.Stock - item.Quantity
		if stock < 0 {
			stock = 0
		}
		if err := tx.UpdateProductStock(ctx, product.ID, stock); err != nil {
			return domain.Internal(err, op, "failed to update product stock")
		}
		return nil
	}

	needed := item.Quantity * item.WeightGrams
	consumed, err := consumeGramsFIFO(ctx, tx, batches, needed)
	if err != nil {
		return err
	}
	if consumed < needed {
		// Best-effort drawdown: the sale already happened, record what we
		// have and let purchasing catch the shortfall.
		s.logger.Warn("batch inventory under-covered order item",
			"product_id", product.ID,
			"needed_grams", needed,
			"consumed_grams", consumed,
		)
	}

	remaining := 0
	for _, b := range batches {
		remaining += b.RemainingGrams
	}
	stock := 0
	if product.WeightGrams > 0 {
		stock = remaining / product.WeightGrams
	}
	if err := tx.UpdateProductStock(ctx, product.ID, stock); err != nil {
		return domain.Internal(err, op, "failed to update derived stock")
	}
	return nil
}

// consumeGramsFIFO draws grams from batches oldest-first, persisting each
// drained batch. Batches are mutated in place so the caller can recompute the
// derived stock from the post-consumption remainders. Returns grams actually
// consumed, which is less than needed when the ledger runs dry.
func consumeGramsFIFO(ctx context.Context, tx Store, batches []domain.ProductBatch, needed int) (int, error) {
	const op = "reconcile.consume_grams_fifo"

	consumed := 0
	for i := range batches {
		if needed <= consumed {
			break
		}
		b := &batches[i]
		if b.RemainingGrams <= 0 {
			continue
		}

		take := needed - consumed
		if take > b.RemainingGrams {
			take = b.RemainingGrams
		}
		b.RemainingGrams -= take
		consumed += take

		if err := tx.UpdateBatchRemaining(ctx, b.ID, b.RemainingGrams); err != nil {
			return consumed, domain.Internal(err, op, "failed to update batch remainder")
		}
	}
	return consumed, nil
}
