package commands

import (
	"context"
	"time"

	"mrdinner/internal/core/application/pricing"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/domain/model/promotion"
	"mrdinner/internal/core/domain/model/selection"
	"mrdinner/internal/core/domain/services"
	"mrdinner/internal/core/ports"
)

// RebuildResult describes the lines an order was rebuilt from.
type RebuildResult struct {
	SubtotalCents   int64
	DinnerOptionIDs []int64
	// Representative is the first package. It supplies the dinner and style
	// of the discount context.
	Representative selection.DinnerPack
	Context        promotion.Context
}

// OrderBuilder prices dinner packages into an order and evaluates its
// discounts. It runs inside the caller's transaction.
type OrderBuilder struct{}

func NewOrderBuilder() OrderBuilder {
	return OrderBuilder{}
}

// Rebuild prices packs and replaces every line of o with the result.
// The order must be pending.
func (OrderBuilder) Rebuild(
	ctx context.Context,
	lookup ports.CatalogLookup,
	o *order.Order,
	packs []selection.DinnerPack,
) (RebuildResult, error) {
	if err := o.EnsureEditable(); err != nil {
		return RebuildResult{}, err
	}

	quote, err := pricing.Quote(ctx, lookup, packs)
	if err != nil {
		return RebuildResult{}, err
	}
	if err = o.ReplaceLines(quote.Dinners); err != nil {
		return RebuildResult{}, err
	}

	dctx := services.DiscountContext(packs)
	return RebuildResult{
		SubtotalCents:   quote.SubtotalCents,
		DinnerOptionIDs: dctx.DinnerOptionIDs,
		Representative:  packs[0],
		Context:         dctx,
	}, nil
}

// ApplyDiscounts evaluates the membership and coupon discounts for the
// current subtotal of o and stores the breakdown on it.
func (OrderBuilder) ApplyDiscounts(
	ctx context.Context,
	promos ports.PromotionRepository,
	o *order.Order,
	dctx promotion.Context,
	couponCodes []string,
	now time.Time,
) error {
	res, err := pricing.Discount(ctx, promos, promotion.Request{
		OrderID:       o.ID(),
		SubtotalCents: o.SubtotalCents(),
		CustomerID:    o.CustomerID(),
		Channel:       o.Channel().String(),
		Context:       dctx,
		CouponCodes:   couponCodes,
	}, now)
	if err != nil {
		return err
	}
	return o.ApplyDiscounts(res.Lines)
}

// contextFromOrder rebuilds a discount context from persisted lines, for
// edits that keep the lines. Option ids are not part of the snapshots.
func contextFromOrder(o *order.Order) promotion.Context {
	dinners := o.Dinners()
	if len(dinners) == 0 {
		return promotion.Context{}
	}
	dctx := promotion.Context{
		DinnerCode: dinners[0].DinnerCode(),
		StyleCode:  dinners[0].StyleCode(),
	}
	for _, d := range dinners {
		for _, it := range d.Items() {
			if it.IsDefault() {
				continue
			}
			dctx.Items = append(dctx.Items, selection.ItemLineRef{Code: it.ItemCode(), Qty: it.FinalQty()})
		}
	}
	return dctx
}
