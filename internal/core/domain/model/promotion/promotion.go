// Package promotion models memberships and coupons as read by the discount
// policy. Administration of these records happens elsewhere.
package promotion

import (
	"strings"
	"time"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/selection"

	"github.com/shopspring/decimal"
)

// ChannelAny lets a coupon apply on every channel.
const ChannelAny = "ANY"

type CouponKind int

const (
	UnknownCouponKind CouponKind = iota
	Percent
	Fixed
)

func (k CouponKind) String() string {
	switch k {
	case Percent:
		return "PERCENT"
	case Fixed:
		return "FIXED"
	case UnknownCouponKind:
	}
	return "UNKNOWN"
}

// ParseCouponKind reads the stored kind in any letter case.
func ParseCouponKind(s string) CouponKind {
	switch strings.ToUpper(s) {
	case "PERCENT":
		return Percent
	case "FIXED":
		return Fixed
	}
	return UnknownCouponKind
}

// Membership grants a percent-off discount to a customer.
type Membership struct {
	CustomerID int64
	Label      string
	PercentOff decimal.Decimal
	Active     bool
	ValidFrom  *time.Time
	ValidUntil *time.Time
}

// IsValidAt reports whether the membership is active at now.
func (m Membership) IsValidAt(now time.Time) bool {
	return m.Active && withinWindow(now, m.ValidFrom, m.ValidUntil)
}

// Coupon is a redeemable code. Value is a percentage for Percent coupons and
// minor units for Fixed ones.
type Coupon struct {
	Code                    string
	Name                    string
	Label                   string
	Active                  bool
	Kind                    CouponKind
	Value                   decimal.Decimal
	ValidFrom               *time.Time
	ValidUntil              *time.Time
	MinSubtotalCents        *int64
	MaxDiscountCents        *int64
	StackableWithMembership bool
	StackableWithCoupons    bool
	Channel                 string
	MaxRedemptionsGlobal    *int64
	MaxRedemptionsPerUser   *int64
}

// DisplayLabel is the label shown on the discount line.
func (c Coupon) DisplayLabel() string {
	switch {
	case c.Label != "":
		return c.Label
	case c.Name != "":
		return c.Name
	}
	return c.Code
}

// IsValidAt reports whether the coupon is active at now.
func (c Coupon) IsValidAt(now time.Time) bool {
	return c.Active && withinWindow(now, c.ValidFrom, c.ValidUntil)
}

// AllowsChannel reports whether the coupon may be used on channel.
func (c Coupon) AllowsChannel(channel string) bool {
	return c.Channel == "" || strings.EqualFold(c.Channel, ChannelAny) || strings.EqualFold(c.Channel, channel)
}

// Usage is how often a coupon was already redeemed.
type Usage struct {
	Global      int64
	PerCustomer int64
}

// HasRoom reports whether another redemption fits the coupon limits.
func (c Coupon) HasRoom(u Usage) bool {
	if c.MaxRedemptionsGlobal != nil && u.Global >= *c.MaxRedemptionsGlobal {
		return false
	}
	if c.MaxRedemptionsPerUser != nil && u.PerCustomer >= *c.MaxRedemptionsPerUser {
		return false
	}
	return true
}

// CouponCandidate is a requested coupon together with its current usage.
type CouponCandidate struct {
	Coupon Coupon
	Usage  Usage
}

// Context describes what is being ordered, for rules keyed on the basket.
type Context struct {
	DinnerCode      string
	StyleCode       string
	DinnerOptionIDs []int64
	Items           []selection.ItemLineRef
}

// Request is the input of a discount evaluation. OrderID is the order being
// priced; its own coupon redemptions do not count against coupon limits. It
// is the zero UUID for previews.
type Request struct {
	OrderID       kernel.UUID
	SubtotalCents int64
	CustomerID    int64
	Channel       string
	Context       Context
	CouponCodes   []string
}

// NormalizeCodes upper-cases, trims and de-duplicates codes, keeping order.
func NormalizeCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func withinWindow(now time.Time, from, until *time.Time) bool {
	if from != nil && now.Before(*from) {
		return false
	}
	if until != nil && now.After(*until) {
		return false
	}
	return true
}
