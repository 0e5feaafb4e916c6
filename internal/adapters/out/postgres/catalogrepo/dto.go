// Package catalogrepo reads the menu catalog used while pricing and seeds it
// from YAML fixtures.
package catalogrepo

import (
	"mrdinner/internal/core/domain/model/catalog"

	"github.com/shopspring/decimal"
)

type DinnerTypeDTO struct {
	ID             int64                  `gorm:"primaryKey;autoIncrement"`
	Code           string                 `gorm:"size:120;uniqueIndex;not null"`
	Name           string                 `gorm:"not null"`
	BasePriceCents int64                  `gorm:"not null"`
	Active         bool                   `gorm:"not null"`
	AllowedStyles  []ServingStyleDTO      `gorm:"many2many:dinner_allowed_styles;joinForeignKey:DinnerTypeID;joinReferences:ServingStyleID"`
	DefaultItems   []DefaultItemDTO       `gorm:"foreignKey:DinnerTypeID"`
	OptionGroups   []DinnerOptionGroupDTO `gorm:"foreignKey:DinnerTypeID"`
}

func (DinnerTypeDTO) TableName() string {
	return "dinner_types"
}

type ServingStyleDTO struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	Code       string          `gorm:"size:60;uniqueIndex;not null"`
	Name       string          `gorm:"not null"`
	PriceMode  string          `gorm:"size:12;not null"`
	PriceValue decimal.Decimal `gorm:"type:numeric(9,3);not null"`
}

func (ServingStyleDTO) TableName() string {
	return "serving_styles"
}

type MenuItemDTO struct {
	ID             int64                `gorm:"primaryKey;autoIncrement"`
	Code           string               `gorm:"size:120;uniqueIndex;not null"`
	Name           string               `gorm:"not null"`
	BasePriceCents int64                `gorm:"not null"`
	Active         bool                 `gorm:"not null"`
	OptionGroups   []ItemOptionGroupDTO `gorm:"foreignKey:ItemID"`
}

func (MenuItemDTO) TableName() string {
	return "menu_items"
}

type ItemOptionGroupDTO struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	ItemID    int64           `gorm:"index;not null"`
	Name      string          `gorm:"not null"`
	PriceMode string          `gorm:"size:12;not null"`
	Rank      int             `gorm:"not null"`
	Options   []ItemOptionDTO `gorm:"foreignKey:GroupID"`
}

func (ItemOptionGroupDTO) TableName() string {
	return "item_option_groups"
}

type ItemOptionDTO struct {
	ID              int64               `gorm:"primaryKey;autoIncrement"`
	GroupID         int64               `gorm:"index;not null"`
	Name            string              `gorm:"not null"`
	PriceDeltaCents int64               `gorm:"not null"`
	Multiplier      decimal.NullDecimal `gorm:"type:numeric(7,3)"`
	Rank            int                 `gorm:"not null"`
}

func (ItemOptionDTO) TableName() string {
	return "item_options"
}

// DefaultItemDTO is an item included in every package of a dinner type.
type DefaultItemDTO struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	DinnerTypeID   int64           `gorm:"uniqueIndex:idx_default_item,priority:1;not null"`
	ItemID         int64           `gorm:"uniqueIndex:idx_default_item,priority:2;not null"`
	Item           MenuItemDTO     `gorm:"foreignKey:ItemID"`
	DefaultQty     decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	IncludedInBase bool            `gorm:"not null"`
	Rank           int             `gorm:"not null"`
}

func (DefaultItemDTO) TableName() string {
	return "dinner_default_items"
}

type DinnerOptionGroupDTO struct {
	ID           int64             `gorm:"primaryKey;autoIncrement"`
	DinnerTypeID int64             `gorm:"index;not null"`
	Name         string            `gorm:"not null"`
	PriceMode    string            `gorm:"size:12;not null"`
	Rank         int               `gorm:"not null"`
	Options      []DinnerOptionDTO `gorm:"foreignKey:GroupID"`
}

func (DinnerOptionGroupDTO) TableName() string {
	return "dinner_option_groups"
}

// DinnerOptionDTO either names an item, such as a wine upgrade, or carries
// its own name.
type DinnerOptionDTO struct {
	ID              int64                `gorm:"primaryKey;autoIncrement"`
	GroupID         int64                `gorm:"index;not null"`
	Group           DinnerOptionGroupDTO `gorm:"foreignKey:GroupID"`
	Name            string
	ItemID          *int64
	Item            *MenuItemDTO        `gorm:"foreignKey:ItemID"`
	PriceDeltaCents int64               `gorm:"not null"`
	Multiplier      decimal.NullDecimal `gorm:"type:numeric(7,3)"`
	Rank            int                 `gorm:"not null"`
}

func (DinnerOptionDTO) TableName() string {
	return "dinner_options"
}

func dinnerToDomain(dto DinnerTypeDTO) catalog.Dinner {
	styles := make([]string, 0, len(dto.AllowedStyles))
	for _, s := range dto.AllowedStyles {
		styles = append(styles, s.Code)
	}
	return catalog.Dinner{
		Code:           dto.Code,
		Name:           dto.Name,
		BasePriceCents: dto.BasePriceCents,
		AllowedStyles:  styles,
	}
}

func styleToDomain(dto ServingStyleDTO) (catalog.ServingStyle, error) {
	mode, err := catalog.ParsePricingMode(dto.PriceMode)
	if err != nil {
		return catalog.ServingStyle{}, err
	}
	return catalog.ServingStyle{
		Code:  dto.Code,
		Name:  dto.Name,
		Mode:  mode,
		Value: dto.PriceValue,
	}, nil
}

func itemToDomain(dto MenuItemDTO) (catalog.MenuItem, error) {
	groups := make([]catalog.ItemOptionGroup, 0, len(dto.OptionGroups))
	for _, g := range dto.OptionGroups {
		mode, err := catalog.ParsePricingMode(g.PriceMode)
		if err != nil {
			return catalog.MenuItem{}, err
		}
		options := make([]catalog.ItemOption, 0, len(g.Options))
		for _, o := range g.Options {
			options = append(options, catalog.ItemOption{
				ID:              o.ID,
				Name:            o.Name,
				PriceDeltaCents: o.PriceDeltaCents,
				Multiplier:      multiplierOrOne(o.Multiplier),
			})
		}
		groups = append(groups, catalog.ItemOptionGroup{
			ID:      g.ID,
			Name:    g.Name,
			Mode:    mode,
			Options: options,
		})
	}
	return catalog.MenuItem{
		Code:           dto.Code,
		Name:           dto.Name,
		BasePriceCents: dto.BasePriceCents,
		OptionGroups:   groups,
	}, nil
}

func dinnerOptionToDomain(dto DinnerOptionDTO) (catalog.DinnerOption, error) {
	mode, err := catalog.ParsePricingMode(dto.Group.PriceMode)
	if err != nil {
		return catalog.DinnerOption{}, err
	}
	opt := catalog.DinnerOption{
		ID:              dto.ID,
		GroupName:       dto.Group.Name,
		Mode:            mode,
		Name:            dto.Name,
		PriceDeltaCents: dto.PriceDeltaCents,
		Multiplier:      multiplierOrOne(dto.Multiplier),
	}
	if dto.Item != nil {
		opt.ItemName = dto.Item.Name
	}
	return opt, nil
}

func multiplierOrOne(m decimal.NullDecimal) decimal.Decimal {
	if !m.Valid {
		return decimal.NewFromInt(1)
	}
	return m.Decimal
}
