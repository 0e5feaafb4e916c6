package commands

import (
	"context"
	"time"

	"mrdinner/internal/core/application/events"
	"mrdinner/internal/core/domain/model/order"
)

// EditOrderCommandHandler edits pending orders under a row lock.
//
// Header fields and metadata are patched first. When the command carries
// packages, the whole line tree is priced again and replaced. Discounts are
// always re-evaluated against the resulting subtotal, reusing the coupons
// already on the order unless new codes were given.
type EditOrderCommandHandler struct {
	uowFactory PricingUoWFactory
	notifier   EventNotifier
	builder    OrderBuilder
	now        func() time.Time
}

func NewEditOrderCommandHandler(uowFactory PricingUoWFactory, notifier EventNotifier) EditOrderCommandHandler {
	return EditOrderCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		builder:    NewOrderBuilder(),
		now:        time.Now,
	}
}

// Handle applies the edit and returns the updated order.
// Orders that are no longer pending yield a DomainConflictError.
func (h *EditOrderCommandHandler) Handle(ctx context.Context, cmd EditOrderCommand) (*order.Order, error) {
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

	orderRepo := uow.OrderRepository()
	edited, err := orderRepo.GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}
	if err = edited.EnsureEditable(); err != nil {
		return nil, err
	}

	codes, ok := cmd.CouponCodes()
	if !ok {
		codes = order.CouponCodes(edited.Discounts())
	}

	if err = edited.UpdateHeader(cmd.Header()); err != nil {
		return nil, err
	}
	if meta := cmd.Meta(); meta != nil {
		if err = edited.MergeMeta(meta); err != nil {
			return nil, err
		}
	}

	dctx := contextFromOrder(edited)
	if cmd.ReplacesLines() {
		rebuilt, err := h.builder.Rebuild(ctx, uow.CatalogLookup(), edited, cmd.Packs())
		if err != nil {
			return nil, err
		}
		dctx = rebuilt.Context

		if err = orderRepo.ReplaceLines(ctx, edited); err != nil {
			return nil, err
		}
	}

	promotions := uow.PromotionRepository()
	if err = h.builder.ApplyDiscounts(ctx, promotions, edited, dctx, codes, now); err != nil {
		return nil, err
	}

	if err = orderRepo.Update(ctx, edited); err != nil {
		return nil, err
	}

	if err = promotions.Redeem(
		ctx, edited.ID(), edited.CustomerID(), edited.Channel().String(), edited.Discounts(), now,
	); err != nil {
		return nil, err
	}

	h.notifier.NotifyOnCommit(uow, events.NewOrderEvent(events.OrderUpdated, edited, "", nil, now))

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return edited, nil
}
