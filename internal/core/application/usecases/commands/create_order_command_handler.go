package commands

import (
	"context"
	"time"

	"mrdinner/internal/core/application/events"
	"mrdinner/internal/core/domain/model/order"
)

// CreateOrderCommandHandler places new orders. Pricing, discount evaluation,
// persistence and coupon redemption run in one transaction, and the
// order_created event is published only after it commits.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, notifier)
//	created, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
//	// created is pending with its priced lines and discounts
type CreateOrderCommandHandler struct {
	uowFactory PricingUoWFactory
	notifier   EventNotifier
	builder    OrderBuilder
	now        func() time.Time
}

// NewCreateOrderCommandHandler creates a handler for order creation operations.
func NewCreateOrderCommandHandler(uowFactory PricingUoWFactory, notifier EventNotifier) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		builder:    NewOrderBuilder(),
		now:        time.Now,
	}
}

// Handle processes the order creation command and returns the persisted order.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := h.now()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	created, err := order.NewOrder(
		cmd.OrderID(),
		cmd.CustomerID(),
		cmd.Channel(),
		cmd.Delivery(),
		cmd.Payment(),
		cmd.Meta(),
		now,
	)
	if err != nil {
		return nil, err
	}

	rebuilt, err := h.builder.Rebuild(ctx, uow.CatalogLookup(), created, cmd.Packs())
	if err != nil {
		return nil, err
	}

	promotions := uow.PromotionRepository()
	if err = h.builder.ApplyDiscounts(ctx, promotions, created, rebuilt.Context, cmd.CouponCodes(), now); err != nil {
		return nil, err
	}

	if err = uow.OrderRepository().Add(ctx, created); err != nil {
		return nil, err
	}

	if err = promotions.Redeem(
		ctx, created.ID(), created.CustomerID(), created.Channel().String(), created.Discounts(), now,
	); err != nil {
		return nil, err
	}

	h.notifier.NotifyOnCommit(uow, events.NewOrderEvent(events.OrderCreated, created, "", nil, now))

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return created, nil
}
