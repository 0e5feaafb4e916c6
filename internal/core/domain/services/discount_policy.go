package services

import (
	"time"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/domain/model/promotion"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountResult is the outcome of a discount evaluation.
type DiscountResult struct {
	Lines              []order.DiscountLine
	TotalDiscountCents int64
	FinalTotalCents    int64
}

// DiscountPolicy applies an active membership first and then the eligible
// coupons. If any eligible coupon does not stack with other coupons, only the
// single best coupon is applied; otherwise coupons apply one after another on
// the running total. The total never drops below zero.
type DiscountPolicy struct{}

func NewDiscountPolicy() DiscountPolicy {
	return DiscountPolicy{}
}

// Evaluate computes discounts for subtotalCents. Candidates are the requested
// coupons in request order, already looked up with their usage.
func (DiscountPolicy) Evaluate(
	subtotalCents int64,
	channel string,
	membership *promotion.Membership,
	candidates []promotion.CouponCandidate,
	now time.Time,
) DiscountResult {
	running := max(subtotalCents, 0)
	var lines []order.DiscountLine

	membershipApplied := false
	if membership != nil && membership.IsValidAt(now) && membership.PercentOff.IsPositive() {
		amount := min(percentOf(running, membership.PercentOff), running)
		if amount > 0 {
			lines = append(lines, order.DiscountLine{
				Type:        order.DiscountTypeMembership,
				Label:       membership.Label,
				AmountCents: amount,
			})
			running -= amount
			membershipApplied = true
		}
	}

	eligible := make([]promotion.Coupon, 0, len(candidates))
	exclusive := false
	for _, c := range candidates {
		if !IsCouponEligible(c, subtotalCents, channel, now) {
			continue
		}
		if membershipApplied && !c.Coupon.StackableWithMembership {
			continue
		}
		eligible = append(eligible, c.Coupon)
		if !c.Coupon.StackableWithCoupons {
			exclusive = true
		}
	}

	if exclusive && len(eligible) > 0 {
		best, bestAmount := -1, int64(0)
		for i, c := range eligible {
			if amount := couponAmount(c, running); amount > bestAmount {
				best, bestAmount = i, amount
			}
		}
		if best >= 0 {
			eligible = eligible[best : best+1]
		} else {
			eligible = nil
		}
	}

	for _, c := range eligible {
		amount := couponAmount(c, running)
		if amount <= 0 {
			continue
		}
		lines = append(lines, order.DiscountLine{
			Type:        order.DiscountTypeCoupon,
			Label:       c.DisplayLabel(),
			Code:        c.Code,
			AmountCents: amount,
		})
		running -= amount
	}

	return DiscountResult{
		Lines:              lines,
		TotalDiscountCents: subtotalCents - running,
		FinalTotalCents:    running,
	}
}

// IsCouponEligible checks the coupon rules that do not depend on other
// discounts: activity window, channel, minimum subtotal and usage limits.
func IsCouponEligible(c promotion.CouponCandidate, subtotalCents int64, channel string, now time.Time) bool {
	coupon := c.Coupon
	if !coupon.IsValidAt(now) || !coupon.AllowsChannel(channel) {
		return false
	}
	if coupon.MinSubtotalCents != nil && subtotalCents < *coupon.MinSubtotalCents {
		return false
	}
	return coupon.HasRoom(c.Usage)
}

func couponAmount(c promotion.Coupon, base int64) int64 {
	var amount int64
	switch c.Kind {
	case promotion.Percent:
		amount = percentOf(base, c.Value)
	case promotion.Fixed:
		amount = kernel.RoundCents(c.Value)
	case promotion.UnknownCouponKind:
		return 0
	}
	if c.MaxDiscountCents != nil {
		amount = min(amount, *c.MaxDiscountCents)
	}
	return min(max(amount, 0), base)
}

func percentOf(base int64, percent decimal.Decimal) int64 {
	return kernel.RoundCents(kernel.Cents(base).Mul(percent).Div(hundred))
}
