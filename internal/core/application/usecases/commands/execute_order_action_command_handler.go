package commands

import (
	"context"
	"time"

	"mrdinner/internal/core/application/events"
	"mrdinner/internal/core/domain/model/order"
)

// ExecuteOrderActionCommandHandler moves an order through its lifecycle.
// The order row is locked, the transition is checked against the lifecycle
// table, the audit entry and status are persisted, and order_status_changed
// is published after commit with the previous status and the action.
type ExecuteOrderActionCommandHandler struct {
	uowFactory OrderUoWFactory
	notifier   EventNotifier
	now        func() time.Time
}

func NewExecuteOrderActionCommandHandler(
	uowFactory OrderUoWFactory,
	notifier EventNotifier,
) ExecuteOrderActionCommandHandler {
	return ExecuteOrderActionCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		now:        time.Now,
	}
}

// Handle performs the action and returns the updated order. Illegal
// transitions yield a DomainConflictError and leave the order untouched.
func (h *ExecuteOrderActionCommandHandler) Handle(
	ctx context.Context,
	cmd ExecuteOrderActionCommand,
) (*order.Order, error) {
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
	target, err := orderRepo.GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	previous, err := target.Execute(cmd.Action(), cmd.Actor(), cmd.Note(), now)
	if err != nil {
		return nil, err
	}

	if err = orderRepo.Update(ctx, target); err != nil {
		return nil, err
	}

	extra := map[string]any{
		"action": cmd.Action().String(),
		"actor":  cmd.Actor(),
	}
	if cmd.Note() != "" {
		extra["reason"] = cmd.Note()
	}
	h.notifier.NotifyOnCommit(uow,
		events.NewOrderEvent(events.OrderStatusChanged, target, previous.String(), extra, now))

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return target, nil
}
