package commands

import (
	"errors"
	"strings"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/pkg/errs"
	"mrdinner/internal/pkg/guard"
)

var (
	ErrExecuteOrderActionCommandIsNotConstructed = errors.New(
		"ExecuteOrderActionCommand must be created via NewExecuteOrderActionCommand constructor",
	)
)

// ExecuteOrderActionCommand represents a staff action on an order, such as
// accept or cancel. Note is kept in the audit entry, typically the cancel
// reason.
//
// Example:
//
//	action, _ := order.ParseAction("out-for-delivery")
//	cmd, err := NewExecuteOrderActionCommand(orderID, action, "rider-3", "")
type ExecuteOrderActionCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	action  order.Action
	actor   string
	note    string

	guard guard.ConstructorGuard
}

func NewExecuteOrderActionCommand(
	orderID kernel.UUID,
	action order.Action,
	actor string,
	note string,
) (ExecuteOrderActionCommand, error) {
	cmd := ExecuteOrderActionCommand{
		note:  strings.TrimSpace(note),
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setAction(action),
		cmd.setActor(actor),
	); err != nil {
		return ExecuteOrderActionCommand{}, err
	}

	return cmd, nil
}

func (c ExecuteOrderActionCommand) Validate() error {
	return c.guard.Validate(ErrExecuteOrderActionCommandIsNotConstructed)
}

func (c ExecuteOrderActionCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ExecuteOrderActionCommand) Action() order.Action {
	return c.action
}

func (c ExecuteOrderActionCommand) Actor() string {
	return c.actor
}

func (c ExecuteOrderActionCommand) Note() string {
	return c.note
}

func (c *ExecuteOrderActionCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *ExecuteOrderActionCommand) setAction(action order.Action) error {
	if action == order.UnknownAction {
		return errs.NewValueIsRequiredError("action")
	}

	c.action = action
	return nil
}

func (c *ExecuteOrderActionCommand) setActor(actor string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return errs.NewValueIsRequiredError("actor")
	}

	c.actor = actor
	return nil
}
