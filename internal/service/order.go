package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/embla/internal/domain"
	"github.com/dukerupert/embla/internal/money"
	"github.com/google/uuid"
)

// OrderService owns the order lifecycle: status transitions, total
// recomputation, and order reads for fulfillment screens.
type OrderService interface {
	GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*domain.OrderDetail, error)
	ListPackableOrders(ctx context.Context, limit int) ([]domain.Order, error)
	ListRecentlyFulfilled(ctx context.Context, limit int) ([]domain.Order, error)

	// UpdateStatus advances the order along the lifecycle state machine.
	// Transitions not in the table fail with ErrInvalidStatusTransition and
	// leave the order unchanged. Entering fulfilled stamps FulfilledAt,
	// leaving it clears the stamp.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error)

	// RecalcTotals recomputes subtotal from live item line totals,
	// re-applies the shipping rule, and persists all three fields together.
	// Idempotent.
	RecalcTotals(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
}

type orderService struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewOrderService creates an OrderService. The clock is injectable for tests;
// pass nil for time.Now.
func NewOrderService(store Store, logger *slog.Logger, now func() time.Time) OrderService {
	if now == nil {
		now = time.Now
	}
	return &orderService{store: store, logger: logger, now: now}
}

func (s *orderService) GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*domain.OrderDetail, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, domain.Internal(err, "order.get_detail", "failed to load order items")
	}

	return &domain.OrderDetail{Order: *order, Items: items}, nil
}

// ListPackableOrders returns orders awaiting fulfillment, newest first.
func (s *orderService) ListPackableOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.store.ListOrdersByStatus(ctx, []domain.OrderStatus{domain.StatusPaid, domain.StatusPendingFulfillment}, limit)
}

func (s *orderService) ListRecentlyFulfilled(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.store.ListOrdersByStatus(ctx, []domain.OrderStatus{domain.StatusFulfilled}, limit)
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error) {
	if !domain.ValidStatus(to) {
		return nil, domain.Errorf(domain.EINVALID, "order.update_status", "unknown status %q", to)
	}

	var updated *domain.Order
	err := s.store.WithTx(ctx, func(tx Store) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if !domain.CanTransition(order.Status, to) {
			return &domain.Error{
				Code:    domain.ECONFLICT,
				Op:      "order.update_status",
				Message: domain.ErrInvalidStatusTransition.Message,
			}
		}

		if order.Status == to {
			updated = order
			return nil
		}

		fulfilledAt := order.FulfilledAt
		switch {
		case to == domain.StatusFulfilled:
			t := s.now()
			fulfilledAt = &t
		case order.Status == domain.StatusFulfilled:
			fulfilledAt = nil
		}

		if err := tx.UpdateOrderStatus(ctx, orderID, to, fulfilledAt); err != nil {
			return domain.Internal(err, "order.update_status", "failed to update order status")
		}

		order.Status = to
		order.FulfilledAt = fulfilledAt
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		"order_id", orderID,
		"status", string(to),
	)
	return updated, nil
}

func (s *orderService) RecalcTotals(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	var updated *domain.Order
	err := s.store.WithTx(ctx, func(tx Store) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		items, err := tx.GetOrderItems(ctx, orderID)
		if err != nil {
			return domain.Internal(err, "order.recalc_totals", "failed to load order items")
		}

		subtotal := money.Zero()
		for _, item := range items {
			subtotal = subtotal.Add(item.LineTotal())
		}
		subtotal = money.Round2(subtotal)
		shipping := money.Round2(money.ShippingFor(subtotal))
		total := money.Round2(subtotal.Add(shipping))

		if err := tx.UpdateOrderTotals(ctx, orderID, subtotal, shipping, total); err != nil {
			return domain.Internal(err, "order.recalc_totals", "failed to persist totals")
		}

		order.Subtotal = subtotal
		order.Shipping = shipping
		order.Total = total
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
