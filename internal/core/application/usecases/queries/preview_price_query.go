package queries

import (
	"errors"

	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/domain/model/selection"
	"mrdinner/internal/pkg/guard"
)

var (
	ErrPreviewPriceQueryIsNotConstructed = errors.New(
		"PreviewPriceQuery must be created via NewPreviewPriceQuery constructor",
	)
)

// PreviewPriceQuery prices a basket without persisting anything. A
// customer id of 0 previews without membership discounts.
type PreviewPriceQuery struct {
	packs       []selection.DinnerPack
	customerID  int64
	channel     order.Channel
	couponCodes []string

	guard guard.ConstructorGuard
}

func NewPreviewPriceQuery(
	packs []selection.DinnerPack,
	customerID int64,
	channel order.Channel,
	couponCodes []string,
) (PreviewPriceQuery, error) {
	if len(packs) == 0 {
		return PreviewPriceQuery{}, selection.ErrDinnerRequired
	}
	if channel == order.UnknownChannel {
		channel = order.ChannelGUI
	}
	return PreviewPriceQuery{
		packs:       append([]selection.DinnerPack(nil), packs...),
		customerID:  max(customerID, 0),
		channel:     channel,
		couponCodes: append([]string(nil), couponCodes...),
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (q PreviewPriceQuery) Validate() error {
	return q.guard.Validate(ErrPreviewPriceQueryIsNotConstructed)
}

func (q PreviewPriceQuery) Packs() []selection.DinnerPack {
	return append([]selection.DinnerPack(nil), q.packs...)
}

func (q PreviewPriceQuery) CustomerID() int64 {
	return q.customerID
}

func (q PreviewPriceQuery) Channel() order.Channel {
	return q.channel
}

func (q PreviewPriceQuery) CouponCodes() []string {
	return append([]string(nil), q.couponCodes...)
}
