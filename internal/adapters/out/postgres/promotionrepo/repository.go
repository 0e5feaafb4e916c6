package promotionrepo

import (
	"context"
	"strings"
	"time"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/domain/model/promotion"
	"mrdinner/internal/core/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPromotionRepository implements PromotionRepository using GORM.
type GormPromotionRepository struct {
	db *gorm.DB
}

func NewGormPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// Models lists the tables owned by the repository, for migrations.
func Models() []any {
	return []any{&MembershipDTO{}, &CouponDTO{}, &CouponRedemptionDTO{}}
}

// ActiveMembership returns the customer's membership when it is valid at now.
func (r *GormPromotionRepository) ActiveMembership(
	ctx context.Context,
	customerID int64,
	now time.Time,
) (*promotion.Membership, error) {
	var dtos []MembershipDTO
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND active = ?", customerID, true).
		Order("id DESC").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	for _, dto := range dtos {
		m := membershipToDomain(dto)
		if m.IsValidAt(now) {
			return &m, nil
		}
	}
	return nil, nil
}

// CouponCandidates loads the coupons for codes in the given order, each with
// its global and per-customer redemption counts. Redemptions of orderID are
// not counted, so an order being edited keeps the coupons it already used.
func (r *GormPromotionRepository) CouponCandidates(
	ctx context.Context,
	codes []string,
	customerID int64,
	orderID kernel.UUID,
) ([]promotion.CouponCandidate, error) {
	codes = promotion.NormalizeCodes(codes)
	if len(codes) == 0 {
		return nil, nil
	}

	byCode, err := r.couponsByCode(r.db.WithContext(ctx), codes)
	if err != nil {
		return nil, err
	}
	if len(byCode) == 0 {
		return nil, nil
	}

	ids := make([]uint64, 0, len(byCode))
	for _, c := range byCode {
		ids = append(ids, c.ID)
	}
	usage, err := r.usage(ctx, ids, customerID, orderID)
	if err != nil {
		return nil, err
	}

	candidates := make([]promotion.CouponCandidate, 0, len(byCode))
	for _, code := range codes {
		dto, ok := byCode[code]
		if !ok {
			continue
		}
		candidates = append(candidates, promotion.CouponCandidate{
			Coupon: couponToDomain(dto),
			Usage:  usage[dto.ID],
		})
	}
	return candidates, nil
}

// Redeem records coupon usage for an order. Coupon rows are locked while the
// validity window, channel and limits are checked again. A coupon that no
// longer qualifies, or that this order already redeemed, is skipped.
func (r *GormPromotionRepository) Redeem(
	ctx context.Context,
	orderID kernel.UUID,
	customerID int64,
	channel string,
	lines []order.DiscountLine,
	now time.Time,
) error {
	perCode := make(map[string]int64)
	var codes []string
	for _, l := range lines {
		if l.Type != order.DiscountTypeCoupon {
			continue
		}
		code := normalizeCode(l.Code)
		if code == "" {
			continue
		}
		if _, seen := perCode[code]; !seen {
			codes = append(codes, code)
		}
		perCode[code] += l.AmountCents
	}
	if len(codes) == 0 {
		return nil
	}

	db := r.db.WithContext(ctx)
	byCode, err := r.couponsByCode(db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), codes)
	if err != nil {
		return err
	}

	for _, code := range codes {
		dto, ok := byCode[code]
		if !ok {
			continue
		}

		var already int64
		err = db.Model(&CouponRedemptionDTO{}).
			Where("coupon_id = ? AND order_id = ?", dto.ID, orderID.Google()).
			Count(&already).Error
		if err != nil {
			return err
		}
		if already > 0 {
			continue
		}

		coupon := couponToDomain(dto)
		if !coupon.IsValidAt(now) || !coupon.AllowsChannel(channel) {
			continue
		}
		usage, usageErr := r.usage(ctx, []uint64{dto.ID}, customerID, kernel.UUID{})
		if usageErr != nil {
			return usageErr
		}
		if !coupon.HasRoom(usage[dto.ID]) {
			continue
		}

		row := CouponRedemptionDTO{
			CouponID:    dto.ID,
			OrderID:     orderID.Google(),
			CustomerID:  customerID,
			Channel:     channel,
			AmountCents: perCode[code],
			RedeemedAt:  now.UTC(),
		}
		if err = db.Create(&row).Error; err != nil {
			return err
		}
	}

	return nil
}

func (r *GormPromotionRepository) couponsByCode(db *gorm.DB, codes []string) (map[string]CouponDTO, error) {
	var dtos []CouponDTO
	if err := db.Where("UPPER(code) IN ?", codes).Find(&dtos).Error; err != nil {
		return nil, err
	}
	out := make(map[string]CouponDTO, len(dtos))
	for _, dto := range dtos {
		out[normalizeCode(dto.Code)] = dto
	}
	return out, nil
}

// usage counts redemptions per coupon. Redemptions of excludeOrder are left
// out unless it is the zero UUID.
func (r *GormPromotionRepository) usage(
	ctx context.Context,
	couponIDs []uint64,
	customerID int64,
	excludeOrder kernel.UUID,
) (map[uint64]promotion.Usage, error) {
	query := r.db.WithContext(ctx).
		Model(&CouponRedemptionDTO{}).
		Select("coupon_id, COUNT(*), COALESCE(SUM(CASE WHEN customer_id = ? THEN 1 ELSE 0 END), 0)", customerID).
		Where("coupon_id IN ?", couponIDs)
	if excludeOrder.Validate() == nil {
		query = query.Where("order_id <> ?", excludeOrder.Google())
	}
	rows, err := query.Group("coupon_id").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64]promotion.Usage, len(couponIDs))
	for rows.Next() {
		var (
			id uint64
			u  promotion.Usage
		)
		if err = rows.Scan(&id, &u.Global, &u.PerCustomer); err != nil {
			return nil, err
		}
		out[id] = u
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

var _ ports.PromotionRepository = (*GormPromotionRepository)(nil)
