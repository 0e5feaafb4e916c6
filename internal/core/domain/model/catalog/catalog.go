package catalog

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Dinner is a dinner type: a curated bundle sold as one package.
type Dinner struct {
	Code           string
	Name           string
	BasePriceCents int64
	AllowedStyles  []string
}

// AllowsStyle reports whether styleCode is in the dinner's allowed set.
func (d Dinner) AllowsStyle(styleCode string) bool {
	return slices.Contains(d.AllowedStyles, styleCode)
}

// ServingStyle modifies a dinner's base price. For Addon the Value is minor
// units, for Multiplier it is the factor.
type ServingStyle struct {
	Code  string
	Name  string
	Mode  PricingMode
	Value decimal.Decimal
}

// MenuItem is an orderable item with its option groups.
type MenuItem struct {
	Code           string
	Name           string
	BasePriceCents int64
	OptionGroups   []ItemOptionGroup
}

// FindOption locates the option with the given id among the item's groups.
func (i MenuItem) FindOption(optionID int64) (ItemOptionGroup, ItemOption, bool) {
	for _, g := range i.OptionGroups {
		for _, o := range g.Options {
			if o.ID == optionID {
				return g, o, true
			}
		}
	}
	return ItemOptionGroup{}, ItemOption{}, false
}

type ItemOptionGroup struct {
	ID      int64
	Name    string
	Mode    PricingMode
	Options []ItemOption
}

type ItemOption struct {
	ID              int64
	Name            string
	PriceDeltaCents int64
	Multiplier      decimal.Decimal
}

// DefaultItem is an item included in every package of a dinner type.
type DefaultItem struct {
	Item           MenuItem
	DefaultQty     decimal.Decimal
	IncludedInBase bool
}

// DinnerOption is an option of a dinner-level group. It either names an item
// (for example a wine upgrade) or carries its own name.
type DinnerOption struct {
	ID              int64
	GroupName       string
	Mode            PricingMode
	Name            string
	ItemName        string
	PriceDeltaCents int64
	Multiplier      decimal.Decimal
}

// Label is the option's display name.
func (o DinnerOption) Label() string {
	if o.Name != "" {
		return o.Name
	}
	return o.ItemName
}
