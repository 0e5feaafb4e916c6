package services

import (
	"errors"
	"fmt"

	"mrdinner/internal/core/domain/model/catalog"
	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/domain/model/promotion"
	"mrdinner/internal/core/domain/model/selection"
	"mrdinner/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// Adjustment types reported alongside a quote.
const (
	AdjustmentStyle           = "style"
	AdjustmentDinnerOption    = "dinner_option"
	AdjustmentDefaultOverride = "default_override"
)

var one = decimal.NewFromInt(1)

// PackInput is one dinner package with the catalog data it refers to.
// DinnerOptions follow the order of Selection.DinnerOptionIDs and Items holds
// every requested item code.
type PackInput struct {
	Selection     selection.DinnerPack
	Dinner        catalog.Dinner
	Style         catalog.ServingStyle
	DinnerOptions []catalog.DinnerOption
	Defaults      []catalog.DefaultItem
	Items         map[string]catalog.MenuItem
}

// Adjustment explains one price change applied to a package.
type Adjustment struct {
	Type       string
	DinnerCode string
	Label      string
	Mode       string
	ValueCents int64
}

// Quote is the result of a pricing pass.
type Quote struct {
	Dinners       []*order.Dinner
	Adjustments   []Adjustment
	SubtotalCents int64
}

// PricingEngine prices dinner packages.
//
// A package's unit price starts at the dinner base price, is adjusted by the
// serving style and then by each dinner option in the order supplied. Every
// step is rounded half-up to whole cents, so the base price plus the
// snapshotted style and option amounts always equals the unit price. The
// package subtotal is that unit price times the package quantity, rounded once.
//
// Default items are priced at zero when included in the base and at their
// own price otherwise. Requested items are priced at
// (base + addon deltas) * multiplier factors, rounded once, times quantity.
// A requested item that is also a default item only pays its option delta on
// the default quantity and the full unit price on the extra quantity.
type PricingEngine struct{}

func NewPricingEngine() PricingEngine {
	return PricingEngine{}
}

// Price prices every package independently and sums the subtotals.
func (e PricingEngine) Price(packs []PackInput) (Quote, error) {
	if len(packs) == 0 {
		return Quote{}, errs.NewValueIsRequiredError("dinner")
	}

	var q Quote
	for i, p := range packs {
		d, adj, err := e.pricePack(i, p)
		if err != nil {
			return Quote{}, err
		}
		q.Dinners = append(q.Dinners, d)
		q.Adjustments = append(q.Adjustments, adj...)
		q.SubtotalCents += d.TotalCents()
	}
	return q, nil
}

func (e PricingEngine) pricePack(index int, p PackInput) (*order.Dinner, []Adjustment, error) {
	sel := p.Selection
	path := sel.DinnerPath(index)
	if !p.Dinner.AllowsStyle(p.Style.Code) {
		return nil, nil, errs.NewValueIsInvalidErrorWithCause(path+".style",
			fmt.Errorf("style %q is not allowed for dinner %q", p.Style.Code, p.Dinner.Code))
	}
	if len(p.DinnerOptions) != len(sel.DinnerOptionIDs) {
		return nil, nil, errs.NewValueIsInvalidErrorWithCause(path+".dinner_options",
			fmt.Errorf("options %v are not all offered for dinner %q", sel.DinnerOptionIDs, p.Dinner.Code))
	}

	var adjustments []Adjustment
	base := p.Dinner.BasePriceCents

	styleDelta, err := modeDelta(kernel.Cents(base), p.Style.Mode, p.Style.Value, p.Style.Value)
	if err != nil {
		return nil, nil, err
	}
	styleAdjust := kernel.RoundCents(styleDelta)
	unit := base + styleAdjust
	adjustments = append(adjustments, Adjustment{
		Type:       AdjustmentStyle,
		DinnerCode: p.Dinner.Code,
		Label:      p.Style.Name,
		Mode:       p.Style.Mode.String(),
		ValueCents: styleAdjust,
	})

	options := make([]order.OptionSnapshot, 0, len(p.DinnerOptions))
	for _, opt := range p.DinnerOptions {
		delta, err := modeDelta(kernel.Cents(unit), opt.Mode, kernel.Cents(opt.PriceDeltaCents), opt.Multiplier)
		if err != nil {
			return nil, nil, err
		}
		snap := order.OptionSnapshot{
			GroupName:       opt.GroupName,
			OptionName:      opt.Label(),
			PriceDeltaCents: kernel.RoundCents(delta),
		}
		unit += snap.PriceDeltaCents
		if opt.Mode == catalog.Multiplier {
			m := opt.Multiplier
			snap.Multiplier = &m
		}
		options = append(options, snap)
		adjustments = append(adjustments, Adjustment{
			Type:       AdjustmentDinnerOption,
			DinnerCode: p.Dinner.Code,
			Label:      opt.Label(),
			Mode:       opt.Mode.String(),
			ValueCents: snap.PriceDeltaCents,
		})
	}

	if unit < 0 {
		return nil, nil, errs.NewValueIsOutOfRangeError(path+".unit_price_cents", unit, 0, "unbounded")
	}
	subtotal := kernel.RoundCents(kernel.Cents(unit).Mul(sel.Quantity))

	rows, rowAdjustments, err := e.priceItems(index, p)
	if err != nil {
		return nil, nil, err
	}
	adjustments = append(adjustments, rowAdjustments...)

	items := make([]*order.Item, 0, len(rows))
	for _, r := range rows {
		it, err := r.toItem()
		if err != nil {
			return nil, nil, err
		}
		items = append(items, it)
	}

	d, err := order.NewDinner(kernel.NewUUID(), order.DinnerParams{
		DinnerCode:       p.Dinner.Code,
		DinnerName:       p.Dinner.Name,
		StyleCode:        p.Style.Code,
		StyleName:        p.Style.Name,
		Quantity:         sel.Quantity,
		BasePriceCents:   p.Dinner.BasePriceCents,
		StyleAdjustCents: styleAdjust,
		UnitPriceCents:   unit,
		SubtotalCents:    subtotal,
		Options:          options,
	}, items)
	if err != nil {
		return nil, nil, err
	}
	return d, adjustments, nil
}

// itemRow accumulates one item row of a package while pricing.
type itemRow struct {
	code       string
	name       string
	isDefault  bool
	defaultQty decimal.Decimal
	finalQty   decimal.Decimal
	// upgradeQty is the default quantity still eligible for an option upgrade
	upgradeQty    decimal.Decimal
	baseCents     int64
	unitCents     int64
	subtotalCents int64
	options       []order.OptionSnapshot
}

func (r *itemRow) toItem() (*order.Item, error) {
	change := order.Added
	if r.isDefault {
		change = order.ClassifyDefault(r.defaultQty, r.finalQty)
	}
	return order.NewItem(kernel.NewUUID(), order.ItemParams{
		ItemCode:       r.code,
		ItemName:       r.name,
		FinalQty:       r.finalQty,
		UnitPriceCents: r.unitCents,
		SubtotalCents:  r.subtotalCents,
		IsDefault:      r.isDefault,
		ChangeType:     change,
		Options:        r.options,
	})
}

func (e PricingEngine) priceItems(index int, p PackInput) ([]*itemRow, []Adjustment, error) {
	sel := p.Selection
	path := sel.DinnerPath(index)
	rows := make([]*itemRow, 0, len(p.Defaults)+len(sel.Items))
	byCode := make(map[string]*itemRow, cap(rows))

	overrides := make(map[string]decimal.Decimal, len(sel.DefaultOverrides))
	for _, o := range sel.DefaultOverrides {
		overrides[o.ItemCode] = o.Qty
	}

	var adjustments []Adjustment
	for _, def := range p.Defaults {
		unit := def.Item.BasePriceCents
		if def.IncludedInBase {
			unit = 0
		}
		qty := def.DefaultQty
		if override, ok := overrides[def.Item.Code]; ok {
			if override.IsNegative() || override.GreaterThan(def.DefaultQty) {
				return nil, nil, errs.NewValueIsOutOfRangeError(
					fmt.Sprintf("%s.default_overrides.%s", path, def.Item.Code), override, decimal.Zero, def.DefaultQty)
			}
			qty = override
			delete(overrides, def.Item.Code)
			if !qty.Equal(def.DefaultQty) {
				adjustments = append(adjustments, Adjustment{
					Type:       AdjustmentDefaultOverride,
					DinnerCode: p.Dinner.Code,
					Label:      def.Item.Name,
					Mode:       "qty",
					ValueCents: -kernel.RoundCents(kernel.Cents(unit).Mul(def.DefaultQty.Sub(qty))),
				})
			}
		}
		row := &itemRow{
			code:          def.Item.Code,
			name:          def.Item.Name,
			isDefault:     true,
			defaultQty:    def.DefaultQty,
			finalQty:      qty,
			upgradeQty:    qty,
			baseCents:     def.Item.BasePriceCents,
			unitCents:     unit,
			subtotalCents: kernel.RoundCents(kernel.Cents(unit).Mul(qty)),
		}
		rows = append(rows, row)
		byCode[row.code] = row
	}
	for code := range overrides {
		return nil, nil, errs.NewValueIsInvalidErrorWithCause(path+".default_overrides",
			fmt.Errorf("%q is not a default item of dinner %q", code, p.Dinner.Code))
	}

	for i, req := range sel.Items {
		itemPath := sel.ItemPath(index, i)
		item, ok := p.Items[req.ItemCode]
		if !ok {
			return nil, nil, errs.NewValueIsInvalidErrorWithCause(itemPath+".code",
				fmt.Errorf("unknown item code %q", req.ItemCode))
		}
		unit, snaps, err := itemUnitPrice(itemPath, item, req.OptionIDs)
		if err != nil {
			return nil, nil, err
		}
		charge := kernel.RoundCents(kernel.Cents(unit).Mul(req.Qty))

		row, exists := byCode[item.Code]
		if !exists {
			row = &itemRow{
				code:       item.Code,
				name:       item.Name,
				defaultQty: decimal.Zero,
				finalQty:   decimal.Zero,
				upgradeQty: decimal.Zero,
				baseCents:  item.BasePriceCents,
				unitCents:  unit,
			}
			rows = append(rows, row)
			byCode[row.code] = row
		}
		if row.isDefault && row.upgradeQty.IsPositive() {
			if upgrade := unit - item.BasePriceCents; upgrade > 0 {
				charge += kernel.RoundCents(kernel.Cents(upgrade).Mul(row.upgradeQty))
			}
			row.upgradeQty = decimal.Zero
		}
		row.finalQty = row.finalQty.Add(req.Qty)
		row.subtotalCents += charge
		row.unitCents = unit
		row.options = append(row.options, snaps...)
	}

	return rows, adjustments, nil
}

// itemUnitPrice computes (base + addon deltas) * multipliers, rounded once.
func itemUnitPrice(path string, item catalog.MenuItem, optionIDs []int64) (int64, []order.OptionSnapshot, error) {
	addons := decimal.Zero
	factor := one
	snaps := make([]order.OptionSnapshot, 0, len(optionIDs))

	for _, id := range optionIDs {
		group, opt, ok := item.FindOption(id)
		if !ok {
			return 0, nil, errs.NewValueIsInvalidErrorWithCause(path+".options",
				fmt.Errorf("option %d does not belong to item %q", id, item.Code))
		}
		switch group.Mode {
		case catalog.Addon:
			addons = addons.Add(kernel.Cents(opt.PriceDeltaCents))
			snaps = append(snaps, order.OptionSnapshot{
				GroupName:       group.Name,
				OptionName:      opt.Name,
				PriceDeltaCents: opt.PriceDeltaCents,
			})
		case catalog.Multiplier:
			m := opt.Multiplier
			factor = factor.Mul(m)
			snaps = append(snaps, order.OptionSnapshot{
				GroupName:  group.Name,
				OptionName: opt.Name,
				Multiplier: &m,
			})
		case catalog.UnknownPricingMode:
			return 0, nil, group.Mode.Validate()
		}
	}

	unit := kernel.RoundCents(kernel.Cents(item.BasePriceCents).Add(addons).Mul(factor))
	if unit < 0 {
		return 0, nil, errs.NewValueIsOutOfRangeError(path+".unit_price_cents", unit, 0, "unbounded")
	}
	return unit, snaps, nil
}

// modeDelta is the change a style or option makes to the running price.
func modeDelta(running decimal.Decimal, mode catalog.PricingMode, addon, factor decimal.Decimal) (decimal.Decimal, error) {
	switch mode {
	case catalog.Addon:
		return addon, nil
	case catalog.Multiplier:
		return running.Mul(factor).Sub(running), nil
	case catalog.UnknownPricingMode:
	}
	return decimal.Zero, errors.Join(errs.NewValueIsInvalidError("price_mode"), mode.Validate())
}

// DiscountContext builds the context handed to discount evaluation: the first
// package supplies the dinner and style, options and items come from all packages.
func DiscountContext(packs []selection.DinnerPack) promotion.Context {
	if len(packs) == 0 {
		return promotion.Context{}
	}
	return promotion.Context{
		DinnerCode:      packs[0].DinnerCode,
		StyleCode:       packs[0].StyleCode,
		DinnerOptionIDs: selection.DinnerOptionIDs(packs),
		Items:           selection.FlattenItems(packs),
	}
}
