// Package promotionrepo persists memberships, coupons and coupon redemptions.
package promotionrepo

import (
	"time"

	"mrdinner/internal/core/domain/model/promotion"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MembershipDTO struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement"`
	CustomerID int64           `gorm:"uniqueIndex;not null"`
	Label      string          `gorm:"size:120;not null"`
	PercentOff decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	Active     bool            `gorm:"not null"`
	ValidFrom  *time.Time
	ValidUntil *time.Time
}

func (MembershipDTO) TableName() string {
	return "memberships"
}

type CouponDTO struct {
	ID                      uint64          `gorm:"primaryKey;autoIncrement"`
	Code                    string          `gorm:"size:64;uniqueIndex;not null"`
	Name                    string          `gorm:"size:120;not null"`
	Label                   string          `gorm:"size:120"`
	Active                  bool            `gorm:"not null"`
	Kind                    string          `gorm:"size:16;not null"`
	Value                   decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	ValidFrom               *time.Time
	ValidUntil              *time.Time
	MinSubtotalCents        *int64
	MaxDiscountCents        *int64
	StackableWithMembership bool   `gorm:"not null"`
	StackableWithCoupons    bool   `gorm:"not null"`
	Channel                 string `gorm:"size:8;not null"`
	MaxRedemptionsGlobal    *int64
	MaxRedemptionsPerUser   *int64
}

func (CouponDTO) TableName() string {
	return "coupons"
}

// CouponRedemptionDTO records one use of a coupon by an order.
type CouponRedemptionDTO struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	CouponID    uint64    `gorm:"uniqueIndex:idx_redemption_coupon_order,priority:1;index;not null"`
	OrderID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_redemption_coupon_order,priority:2;not null"`
	CustomerID  int64     `gorm:"index;not null"`
	Channel     string    `gorm:"size:8;not null"`
	AmountCents int64     `gorm:"not null"`
	RedeemedAt  time.Time `gorm:"not null"`
}

func (CouponRedemptionDTO) TableName() string {
	return "coupon_redemptions"
}

func membershipToDomain(dto MembershipDTO) promotion.Membership {
	return promotion.Membership{
		CustomerID: dto.CustomerID,
		Label:      dto.Label,
		PercentOff: dto.PercentOff,
		Active:     dto.Active,
		ValidFrom:  dto.ValidFrom,
		ValidUntil: dto.ValidUntil,
	}
}

// MembershipFromDomain maps a membership to its row, for seeding.
func MembershipFromDomain(m promotion.Membership) MembershipDTO {
	return MembershipDTO{
		CustomerID: m.CustomerID,
		Label:      m.Label,
		PercentOff: m.PercentOff,
		Active:     m.Active,
		ValidFrom:  m.ValidFrom,
		ValidUntil: m.ValidUntil,
	}
}

func couponToDomain(dto CouponDTO) promotion.Coupon {
	return promotion.Coupon{
		Code:                    dto.Code,
		Name:                    dto.Name,
		Label:                   dto.Label,
		Active:                  dto.Active,
		Kind:                    promotion.ParseCouponKind(dto.Kind),
		Value:                   dto.Value,
		ValidFrom:               dto.ValidFrom,
		ValidUntil:              dto.ValidUntil,
		MinSubtotalCents:        dto.MinSubtotalCents,
		MaxDiscountCents:        dto.MaxDiscountCents,
		StackableWithMembership: dto.StackableWithMembership,
		StackableWithCoupons:    dto.StackableWithCoupons,
		Channel:                 dto.Channel,
		MaxRedemptionsGlobal:    dto.MaxRedemptionsGlobal,
		MaxRedemptionsPerUser:   dto.MaxRedemptionsPerUser,
	}
}

// CouponFromDomain maps a coupon to its row, for seeding. The code is
// stored upper-case and an empty channel becomes ANY.
func CouponFromDomain(c promotion.Coupon) CouponDTO {
	channel := c.Channel
	if channel == "" {
		channel = promotion.ChannelAny
	}
	return CouponDTO{
		Code:                    normalizeCode(c.Code),
		Name:                    c.Name,
		Label:                   c.Label,
		Active:                  c.Active,
		Kind:                    c.Kind.String(),
		Value:                   c.Value,
		ValidFrom:               c.ValidFrom,
		ValidUntil:              c.ValidUntil,
		MinSubtotalCents:        c.MinSubtotalCents,
		MaxDiscountCents:        c.MaxDiscountCents,
		StackableWithMembership: c.StackableWithMembership,
		StackableWithCoupons:    c.StackableWithCoupons,
		Channel:                 channel,
		MaxRedemptionsGlobal:    c.MaxRedemptionsGlobal,
		MaxRedemptionsPerUser:   c.MaxRedemptionsPerUser,
	}
}
