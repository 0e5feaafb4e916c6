package catalogrepo

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"mrdinner/internal/adapters/out/postgres/promotionrepo"
	"mrdinner/internal/core/domain/model/catalog"
	"mrdinner/internal/core/domain/model/promotion"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fixture is the YAML document used to seed the catalog and promotions.
//
// Example:
//
//	styles:
//	  - {code: simple, name: Simple, price_mode: addon, price_value: "0"}
//	items:
//	  - code: steak
//	    name: Steak
//	    base_price_cents: 3000
//	dinners:
//	  - code: valentine
//	    name: Valentine Dinner
//	    base_price_cents: 45000
//	    styles: [simple]
//	    default_items:
//	      - {item: steak, qty: "1", included_in_base: true}
//	coupons:
//	  - {code: LOVE, name: Love, kind: FIXED, value: "1000"}
type Fixture struct {
	Styles      []StyleFixture      `yaml:"styles"`
	Items       []ItemFixture       `yaml:"items"`
	Dinners     []DinnerFixture     `yaml:"dinners"`
	Memberships []MembershipFixture `yaml:"memberships"`
	Coupons     []CouponFixture     `yaml:"coupons"`
}

type StyleFixture struct {
	Code       string          `yaml:"code"`
	Name       string          `yaml:"name"`
	PriceMode  string          `yaml:"price_mode"`
	PriceValue decimal.Decimal `yaml:"price_value"`
}

type OptionFixture struct {
	// ID pins the option id so clients can reference it. Zero lets the
	// database assign one.
	ID              int64            `yaml:"id"`
	Name            string           `yaml:"name"`
	Item            string           `yaml:"item"`
	PriceDeltaCents int64            `yaml:"price_delta_cents"`
	Multiplier      *decimal.Decimal `yaml:"multiplier"`
}

type OptionGroupFixture struct {
	Name      string          `yaml:"name"`
	PriceMode string          `yaml:"price_mode"`
	Options   []OptionFixture `yaml:"options"`
}

type ItemFixture struct {
	Code           string               `yaml:"code"`
	Name           string               `yaml:"name"`
	BasePriceCents int64                `yaml:"base_price_cents"`
	Inactive       bool                 `yaml:"inactive"`
	OptionGroups   []OptionGroupFixture `yaml:"option_groups"`
}

type DefaultItemFixture struct {
	Item           string          `yaml:"item"`
	Qty            decimal.Decimal `yaml:"qty"`
	IncludedInBase bool            `yaml:"included_in_base"`
}

type DinnerFixture struct {
	Code           string               `yaml:"code"`
	Name           string               `yaml:"name"`
	BasePriceCents int64                `yaml:"base_price_cents"`
	Inactive       bool                 `yaml:"inactive"`
	Styles         []string             `yaml:"styles"`
	DefaultItems   []DefaultItemFixture `yaml:"default_items"`
	OptionGroups   []OptionGroupFixture `yaml:"option_groups"`
}

type MembershipFixture struct {
	CustomerID int64           `yaml:"customer_id"`
	Label      string          `yaml:"label"`
	PercentOff decimal.Decimal `yaml:"percent_off"`
	ValidFrom  *time.Time      `yaml:"valid_from"`
	ValidUntil *time.Time      `yaml:"valid_until"`
}

type CouponFixture struct {
	Code                   string          `yaml:"code"`
	Name                   string          `yaml:"name"`
	Label                  string          `yaml:"label"`
	Inactive               bool            `yaml:"inactive"`
	Kind                   string          `yaml:"kind"`
	Value                  decimal.Decimal `yaml:"value"`
	ValidFrom              *time.Time      `yaml:"valid_from"`
	ValidUntil             *time.Time      `yaml:"valid_until"`
	MinSubtotalCents       *int64          `yaml:"min_subtotal_cents"`
	MaxDiscountCents       *int64          `yaml:"max_discount_cents"`
	NotStackableMembership bool            `yaml:"not_stackable_with_membership"`
	NotStackableCoupons    bool            `yaml:"not_stackable_with_coupons"`
	Channel                string          `yaml:"channel"`
	MaxRedemptionsGlobal   *int64          `yaml:"max_redemptions_global"`
	MaxRedemptionsPerUser  *int64          `yaml:"max_redemptions_per_user"`
}

// LoadFixtureFile reads a fixture from path.
func LoadFixtureFile(path string) (Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, err
	}
	defer f.Close()
	return LoadFixture(f)
}

// LoadFixture decodes a fixture and checks that every reference resolves.
func LoadFixture(r io.Reader) (Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return Fixture{}, fmt.Errorf("decode catalog fixture: %w", err)
	}
	return fx, fx.validate()
}

func (fx Fixture) validate() error {
	styles := make(map[string]bool, len(fx.Styles))
	for _, s := range fx.Styles {
		if _, err := catalog.ParsePricingMode(s.PriceMode); err != nil {
			return fmt.Errorf("style %q: %w", s.Code, err)
		}
		styles[s.Code] = true
	}
	items := make(map[string]bool, len(fx.Items))
	for _, it := range fx.Items {
		if err := validateGroups(it.OptionGroups, nil); err != nil {
			return fmt.Errorf("item %q: %w", it.Code, err)
		}
		items[it.Code] = true
	}
	for _, d := range fx.Dinners {
		for _, s := range d.Styles {
			if !styles[s] {
				return fmt.Errorf("dinner %q: unknown style %q", d.Code, s)
			}
		}
		for _, di := range d.DefaultItems {
			if !items[di.Item] {
				return fmt.Errorf("dinner %q: unknown default item %q", d.Code, di.Item)
			}
		}
		if err := validateGroups(d.OptionGroups, items); err != nil {
			return fmt.Errorf("dinner %q: %w", d.Code, err)
		}
	}
	for _, c := range fx.Coupons {
		if promotion.ParseCouponKind(c.Kind) == promotion.UnknownCouponKind {
			return fmt.Errorf("coupon %q: unknown kind %q", c.Code, c.Kind)
		}
	}
	return nil
}

func validateGroups(groups []OptionGroupFixture, items map[string]bool) error {
	for _, g := range groups {
		if _, err := catalog.ParsePricingMode(g.PriceMode); err != nil {
			return fmt.Errorf("option group %q: %w", g.Name, err)
		}
		for _, o := range g.Options {
			if o.Item != "" && (items == nil || !items[o.Item]) {
				return fmt.Errorf("option group %q: unknown item %q", g.Name, o.Item)
			}
		}
	}
	return nil
}

// Seed writes the fixture in one transaction. Rows are matched by code, so
// seeding the same fixture twice leaves the catalog unchanged.
func Seed(ctx context.Context, db *gorm.DB, fx Fixture) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		styleIDs, err := seedStyles(tx, fx.Styles)
		if err != nil {
			return err
		}
		itemIDs, err := seedItems(tx, fx.Items)
		if err != nil {
			return err
		}
		if err = seedDinners(tx, fx.Dinners, styleIDs, itemIDs); err != nil {
			return err
		}
		return seedPromotions(tx, fx)
	})
}

func seedStyles(tx *gorm.DB, styles []StyleFixture) (map[string]int64, error) {
	ids := make(map[string]int64, len(styles))
	for _, s := range styles {
		dto := ServingStyleDTO{Code: s.Code, Name: s.Name, PriceMode: s.PriceMode, PriceValue: s.PriceValue}
		id, err := upsertByCode(tx, "serving_styles", &dto, s.Code, []string{"name", "price_mode", "price_value"})
		if err != nil {
			return nil, err
		}
		ids[s.Code] = id
	}
	return ids, nil
}

func seedItems(tx *gorm.DB, items []ItemFixture) (map[string]int64, error) {
	ids := make(map[string]int64, len(items))
	for _, it := range items {
		dto := MenuItemDTO{Code: it.Code, Name: it.Name, BasePriceCents: it.BasePriceCents, Active: !it.Inactive}
		id, err := upsertByCode(tx, "menu_items", &dto, it.Code, []string{"name", "base_price_cents", "active"})
		if err != nil {
			return nil, err
		}
		dto.ID = id
		ids[it.Code] = id

		groupIDs := tx.Model(&ItemOptionGroupDTO{}).Select("id").Where("item_id = ?", dto.ID)
		if err := tx.Where("group_id IN (?)", groupIDs).Delete(&ItemOptionDTO{}).Error; err != nil {
			return nil, err
		}
		if err := tx.Where("item_id = ?", dto.ID).Delete(&ItemOptionGroupDTO{}).Error; err != nil {
			return nil, err
		}
		for rank, g := range it.OptionGroups {
			group := ItemOptionGroupDTO{ItemID: dto.ID, Name: g.Name, PriceMode: g.PriceMode, Rank: rank}
			for optRank, o := range g.Options {
				group.Options = append(group.Options, ItemOptionDTO{
					ID:              o.ID,
					Name:            o.Name,
					PriceDeltaCents: o.PriceDeltaCents,
					Multiplier:      nullable(o.Multiplier),
					Rank:            optRank,
				})
			}
			if err := tx.Create(&group).Error; err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}

func seedDinners(tx *gorm.DB, dinners []DinnerFixture, styleIDs, itemIDs map[string]int64) error {
	for _, d := range dinners {
		dto := DinnerTypeDTO{Code: d.Code, Name: d.Name, BasePriceCents: d.BasePriceCents, Active: !d.Inactive}
		id, err := upsertByCode(tx, "dinner_types", &dto, d.Code, []string{"name", "base_price_cents", "active"})
		if err != nil {
			return err
		}
		dto.ID = id

		styles := make([]ServingStyleDTO, 0, len(d.Styles))
		for _, code := range d.Styles {
			styles = append(styles, ServingStyleDTO{ID: styleIDs[code]})
		}
		if err := tx.Model(&dto).Omit("AllowedStyles.*").Association("AllowedStyles").Replace(styles); err != nil {
			return err
		}

		if err := tx.Where("dinner_type_id = ?", dto.ID).Delete(&DefaultItemDTO{}).Error; err != nil {
			return err
		}
		for rank, di := range d.DefaultItems {
			row := DefaultItemDTO{
				DinnerTypeID:   dto.ID,
				ItemID:         itemIDs[di.Item],
				DefaultQty:     di.Qty,
				IncludedInBase: di.IncludedInBase,
				Rank:           rank,
			}
			if err := tx.Omit("Item").Create(&row).Error; err != nil {
				return err
			}
		}

		groupIDs := tx.Model(&DinnerOptionGroupDTO{}).Select("id").Where("dinner_type_id = ?", dto.ID)
		if err := tx.Where("group_id IN (?)", groupIDs).Delete(&DinnerOptionDTO{}).Error; err != nil {
			return err
		}
		if err := tx.Where("dinner_type_id = ?", dto.ID).Delete(&DinnerOptionGroupDTO{}).Error; err != nil {
			return err
		}
		for rank, g := range d.OptionGroups {
			group := DinnerOptionGroupDTO{DinnerTypeID: dto.ID, Name: g.Name, PriceMode: g.PriceMode, Rank: rank}
			if err := tx.Create(&group).Error; err != nil {
				return err
			}
			for optRank, o := range g.Options {
				opt := DinnerOptionDTO{
					ID:              o.ID,
					GroupID:         group.ID,
					Name:            o.Name,
					PriceDeltaCents: o.PriceDeltaCents,
					Multiplier:      nullable(o.Multiplier),
					Rank:            optRank,
				}
				if o.Item != "" {
					itemID := itemIDs[o.Item]
					opt.ItemID = &itemID
				}
				if err := tx.Omit("Group", "Item").Create(&opt).Error; err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func seedPromotions(tx *gorm.DB, fx Fixture) error {
	for _, m := range fx.Memberships {
		dto := promotionrepo.MembershipFromDomain(promotion.Membership{
			CustomerID: m.CustomerID,
			Label:      m.Label,
			PercentOff: m.PercentOff,
			Active:     true,
			ValidFrom:  m.ValidFrom,
			ValidUntil: m.ValidUntil,
		})
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"label", "percent_off", "active", "valid_from", "valid_until"}),
		}).Create(&dto).Error
		if err != nil {
			return err
		}
	}

	for _, c := range fx.Coupons {
		dto := promotionrepo.CouponFromDomain(promotion.Coupon{
			Code:                    c.Code,
			Name:                    c.Name,
			Label:                   c.Label,
			Active:                  !c.Inactive,
			Kind:                    promotion.ParseCouponKind(c.Kind),
			Value:                   c.Value,
			ValidFrom:               c.ValidFrom,
			ValidUntil:              c.ValidUntil,
			MinSubtotalCents:        c.MinSubtotalCents,
			MaxDiscountCents:        c.MaxDiscountCents,
			StackableWithMembership: !c.NotStackableMembership,
			StackableWithCoupons:    !c.NotStackableCoupons,
			Channel:                 c.Channel,
			MaxRedemptionsGlobal:    c.MaxRedemptionsGlobal,
			MaxRedemptionsPerUser:   c.MaxRedemptionsPerUser,
		})
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			UpdateAll: true,
		}).Create(&dto).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// upsertByCode inserts the row or updates the listed columns of the row with
// the same code, and returns the stored id.
func upsertByCode(tx *gorm.DB, table string, row any, code string, columns []string) (int64, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Omit(clause.Associations).Create(row).Error
	if err != nil {
		return 0, err
	}

	var ids []int64
	if err = tx.Table(table).Where("code = ?", code).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%s %q was not stored", table, code)
	}
	return ids[0], nil
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
