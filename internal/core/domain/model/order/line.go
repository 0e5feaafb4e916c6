package order

import (
	"errors"
	"fmt"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// ChangeType classifies an item row against the dinner's standard composition.
type ChangeType int

const (
	UnknownChange ChangeType = iota
	Unchanged
	Added
	Removed
	Increased
	Decreased
)

func (c ChangeType) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Increased:
		return "increased"
	case Decreased:
		return "decreased"
	case UnknownChange:
	}
	return "unknown"
}

// ParseChangeType reads a stored change classification.
func ParseChangeType(s string) (ChangeType, error) {
	for _, c := range []ChangeType{Unchanged, Added, Removed, Increased, Decreased} {
		if c.String() == s {
			return c, nil
		}
	}
	return UnknownChange, errs.NewValueIsInvalidErrorWithCause("change_type", fmt.Errorf("unknown change type %q", s))
}

// ClassifyDefault compares the final quantity of a default item with its
// catalog default.
func ClassifyDefault(defaultQty, finalQty decimal.Decimal) ChangeType {
	switch {
	case finalQty.IsZero():
		return Removed
	case finalQty.LessThan(defaultQty):
		return Decreased
	case finalQty.GreaterThan(defaultQty):
		return Increased
	}
	return Unchanged
}

// OptionSnapshot records a chosen option as priced. Multiplier is nil for
// addon options. PriceDeltaCents holds the amount the option contributed.
type OptionSnapshot struct {
	GroupName       string
	OptionName      string
	PriceDeltaCents int64
	Multiplier      *decimal.Decimal
}

// ItemParams carries the priced values of an item row.
type ItemParams struct {
	ItemCode       string
	ItemName       string
	FinalQty       decimal.Decimal
	UnitPriceCents int64
	SubtotalCents  int64
	IsDefault      bool
	ChangeType     ChangeType
	Options        []OptionSnapshot
}

// Item is an item row of a dinner package, either a default item or one the
// guest added. A package holds at most one row per item code.
type Item struct {
	id     kernel.UUID
	params ItemParams
}

func NewItem(id kernel.UUID, p ItemParams) (*Item, error) {
	var all []error
	all = append(all, id.Validate())
	if p.ItemCode == "" {
		all = append(all, errs.NewValueIsRequiredError("item_code"))
	}
	if p.FinalQty.IsNegative() {
		all = append(all, errs.NewValueIsInvalidErrorWithCause("final_qty", fmt.Errorf("%s is negative", p.FinalQty)))
	}
	if p.UnitPriceCents < 0 || p.SubtotalCents < 0 {
		all = append(all, errs.NewValueIsInvalidErrorWithCause("unit_price_cents",
			fmt.Errorf("prices must not be negative: unit %d, subtotal %d", p.UnitPriceCents, p.SubtotalCents)))
	}
	if p.ChangeType == UnknownChange {
		all = append(all, errs.NewValueIsRequiredError("change_type"))
	}
	if err := errors.Join(all...); err != nil {
		return nil, err
	}
	return &Item{id: id, params: p}, nil
}

func (i *Item) ID() kernel.UUID { return i.id }
func (i *Item) ItemCode() string { return i.params.ItemCode }
func (i *Item) ItemName() string { return i.params.ItemName }
func (i *Item) FinalQty() decimal.Decimal { return i.params.FinalQty }
func (i *Item) UnitPriceCents() int64 { return i.params.UnitPriceCents }
func (i *Item) SubtotalCents() int64 { return i.params.SubtotalCents }
func (i *Item) IsDefault() bool { return i.params.IsDefault }
func (i *Item) ChangeType() ChangeType { return i.params.ChangeType }
func (i *Item) Options() []OptionSnapshot { return append([]OptionSnapshot(nil), i.params.Options...) }

// DinnerParams carries the priced values of a dinner package.
type DinnerParams struct {
	DinnerCode       string
	DinnerName       string
	StyleCode        string
	StyleName        string
	Quantity         decimal.Decimal
	BasePriceCents   int64
	StyleAdjustCents int64
	UnitPriceCents   int64
	SubtotalCents    int64
	Options          []OptionSnapshot
}

// Dinner is one dinner package line with its item rows. Prices are snapshots
// taken at pricing time and never follow later catalog changes.
type Dinner struct {
	id     kernel.UUID
	params DinnerParams
	items  []*Item
}

func NewDinner(id kernel.UUID, p DinnerParams, items []*Item) (*Dinner, error) {
	var all []error
	all = append(all, id.Validate())
	if p.DinnerCode == "" {
		all = append(all, errs.NewValueIsRequiredError("dinner_code"))
	}
	if p.StyleCode == "" {
		all = append(all, errs.NewValueIsRequiredError("style_code"))
	}
	if !p.Quantity.IsPositive() {
		all = append(all, errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%s is not greater than 0", p.Quantity)))
	}
	if p.BasePriceCents < 0 || p.UnitPriceCents < 0 || p.SubtotalCents < 0 {
		all = append(all, errs.NewValueIsInvalidErrorWithCause("unit_price_cents",
			fmt.Errorf("prices must not be negative: base %d, unit %d, subtotal %d",
				p.BasePriceCents, p.UnitPriceCents, p.SubtotalCents)))
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it == nil {
			all = append(all, errs.NewValueIsRequiredError("item"))
			continue
		}
		if seen[it.ItemCode()] {
			all = append(all, errs.NewValueIsInvalidErrorWithCause("items",
				fmt.Errorf("item %q appears more than once", it.ItemCode())))
		}
		seen[it.ItemCode()] = true
	}
	if err := errors.Join(all...); err != nil {
		return nil, err
	}
	return &Dinner{id: id, params: p, items: items}, nil
}

func (d *Dinner) ID() kernel.UUID { return d.id }
func (d *Dinner) DinnerCode() string { return d.params.DinnerCode }
func (d *Dinner) DinnerName() string { return d.params.DinnerName }
func (d *Dinner) StyleCode() string { return d.params.StyleCode }
func (d *Dinner) StyleName() string { return d.params.StyleName }
func (d *Dinner) Quantity() decimal.Decimal { return d.params.Quantity }
func (d *Dinner) BasePriceCents() int64 { return d.params.BasePriceCents }
func (d *Dinner) StyleAdjustCents() int64 { return d.params.StyleAdjustCents }
func (d *Dinner) UnitPriceCents() int64 { return d.params.UnitPriceCents }
func (d *Dinner) SubtotalCents() int64 { return d.params.SubtotalCents }
func (d *Dinner) Options() []OptionSnapshot { return append([]OptionSnapshot(nil), d.params.Options...) }
func (d *Dinner) Items() []*Item { return append([]*Item(nil), d.items...) }

// TotalCents is the package subtotal plus the subtotals of its item rows.
func (d *Dinner) TotalCents() int64 {
	total := d.params.SubtotalCents
	for _, it := range d.items {
		total += it.SubtotalCents()
	}
	return total
}

// RowCount is the number of persisted rows this package owns: itself, its
// items, and all option snapshots.
func (d *Dinner) RowCount() int {
	n := 1 + len(d.params.Options)
	for _, it := range d.items {
		n += 1 + len(it.params.Options)
	}
	return n
}
