package ports

import (
	"context"
	"time"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/domain/model/promotion"
)

// PromotionRepository reads memberships and coupons and records coupon usage.
type PromotionRepository interface {
	// ActiveMembership returns the membership valid for the customer at now,
	// or nil when there is none.
	ActiveMembership(ctx context.Context, customerID int64, now time.Time) (*promotion.Membership, error)

	// CouponCandidates loads the coupons for codes, in the order given, with
	// their current global and per-customer usage. Redemptions made by
	// orderID are left out of the usage; pass the zero UUID to count all of
	// them. Unknown codes are skipped.
	CouponCandidates(
		ctx context.Context,
		codes []string,
		customerID int64,
		orderID kernel.UUID,
	) ([]promotion.CouponCandidate, error)

	// Redeem records one redemption per coupon code in lines for the order.
	// Coupon rows are locked while limits are re-checked, and codes already
	// redeemed for the order are skipped.
	Redeem(
		ctx context.Context,
		orderID kernel.UUID,
		customerID int64,
		channel string,
		lines []order.DiscountLine,
		now time.Time,
	) error
}
