package commands

import (
	"errors"
	"fmt"
	"maps"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/domain/model/selection"
	"mrdinner/internal/pkg/errs"
	"mrdinner/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
)

// CreateOrderParams carries the already normalized input of an order creation.
type CreateOrderParams struct {
	OrderID     kernel.UUID
	CustomerID  int64
	Channel     order.Channel
	Delivery    order.Delivery
	Payment     order.Payment
	Meta        map[string]any
	Packs       []selection.DinnerPack
	CouponCodes []string
}

// CreateOrderCommand represents a request to place a new order with one or
// more dinner packages.
//
// Example:
//
//	payment, _ := order.NewPayment("tok_123", "4242")
//	cmd, err := NewCreateOrderCommand(CreateOrderParams{
//	    OrderID:    kernel.NewUUID(),
//	    CustomerID: 7,
//	    Channel:    order.ChannelGUI,
//	    Payment:    payment,
//	    Packs:      packs,
//	})
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	created, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	customerID  int64
	channel     order.Channel
	delivery    order.Delivery
	payment     order.Payment
	meta        map[string]any
	packs       []selection.DinnerPack
	couponCodes []string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates p and builds the command.
// All violations are reported together.
func NewCreateOrderCommand(p CreateOrderParams) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		delivery:    p.Delivery,
		meta:        maps.Clone(p.Meta),
		couponCodes: append([]string(nil), p.CouponCodes...),
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(p.OrderID),
		cmd.setCustomerID(p.CustomerID),
		cmd.setChannel(p.Channel),
		cmd.setPayment(p.Payment),
		cmd.setPacks(p.Packs),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) CustomerID() int64 {
	return c.customerID
}

func (c CreateOrderCommand) Channel() order.Channel {
	return c.channel
}

func (c CreateOrderCommand) Delivery() order.Delivery {
	return c.delivery
}

func (c CreateOrderCommand) Payment() order.Payment {
	return c.payment
}

func (c CreateOrderCommand) Meta() map[string]any {
	return maps.Clone(c.meta)
}

func (c CreateOrderCommand) Packs() []selection.DinnerPack {
	return append([]selection.DinnerPack(nil), c.packs...)
}

func (c CreateOrderCommand) CouponCodes() []string {
	return append([]string(nil), c.couponCodes...)
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setCustomerID(customerID int64) error {
	if customerID <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("customer_id",
			fmt.Errorf("%d is not greater than 0", customerID))
	}

	c.customerID = customerID
	return nil
}

func (c *CreateOrderCommand) setChannel(channel order.Channel) error {
	if channel == order.UnknownChannel {
		return errs.NewValueIsRequiredError("order_source")
	}

	c.channel = channel
	return nil
}

func (c *CreateOrderCommand) setPayment(payment order.Payment) error {
	if err := payment.Validate(); err != nil {
		return err
	}

	c.payment = payment
	return nil
}

func (c *CreateOrderCommand) setPacks(packs []selection.DinnerPack) error {
	if len(packs) == 0 {
		return selection.ErrDinnerRequired
	}

	c.packs = append([]selection.DinnerPack(nil), packs...)
	return nil
}
