package commands

import (
	"errors"
	"maps"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/domain/model/selection"
	"mrdinner/internal/pkg/guard"
)

var (
	ErrEditOrderCommandIsNotConstructed = errors.New(
		"EditOrderCommand must be created via NewEditOrderCommand constructor",
	)
)

// EditOrderParams carries a partial update of a pending order. A nil Meta
// leaves the metadata alone, nil Packs keep the current lines and nil
// CouponCodes reuse the coupons already applied to the order.
type EditOrderParams struct {
	OrderID     kernel.UUID
	Header      order.HeaderPatch
	Meta        map[string]any
	Packs       []selection.DinnerPack
	CouponCodes *[]string
}

// EditOrderCommand represents an edit of a pending order: header fields are
// patched by presence and, when packages are given, every line is replaced.
type EditOrderCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	header      order.HeaderPatch
	meta        map[string]any
	packs       []selection.DinnerPack
	couponCodes *[]string

	guard guard.ConstructorGuard
}

func NewEditOrderCommand(p EditOrderParams) (EditOrderCommand, error) {
	cmd := EditOrderCommand{
		header: p.Header,
		meta:   maps.Clone(p.Meta),
		guard:  guard.NewConstructorGuard(),
	}
	if p.Packs != nil {
		cmd.packs = append([]selection.DinnerPack(nil), p.Packs...)
	}
	if p.CouponCodes != nil {
		codes := append([]string(nil), *p.CouponCodes...)
		cmd.couponCodes = &codes
	}

	if err := cmd.setOrderID(p.OrderID); err != nil {
		return EditOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c EditOrderCommand) Validate() error {
	return c.guard.Validate(ErrEditOrderCommandIsNotConstructed)
}

func (c EditOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c EditOrderCommand) Header() order.HeaderPatch {
	return c.header
}

// Meta returns the client metadata to merge, or nil when absent.
func (c EditOrderCommand) Meta() map[string]any {
	return maps.Clone(c.meta)
}

// ReplacesLines reports whether the edit carries new dinner packages.
func (c EditOrderCommand) ReplacesLines() bool {
	return len(c.packs) > 0
}

func (c EditOrderCommand) Packs() []selection.DinnerPack {
	return append([]selection.DinnerPack(nil), c.packs...)
}

// CouponCodes returns the requested codes and whether any were given.
func (c EditOrderCommand) CouponCodes() ([]string, bool) {
	if c.couponCodes == nil {
		return nil, false
	}
	return append([]string(nil), *c.couponCodes...), true
}

func (c *EditOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}
