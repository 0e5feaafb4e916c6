package selection

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DinnerPack is one dinner package with everything selected for it.
// Path and ItemsPath locate the package and its items in the request body.
type DinnerPack struct {
	DinnerCode       string
	StyleCode        string
	Quantity         decimal.Decimal
	DinnerOptionIDs  []int64
	DefaultOverrides []DefaultOverride
	Items            []ItemSelection
	Path             string
	ItemsPath        string
}

// DinnerPath is the field path of the package, dinners[index] when the
// package was not read from a request.
func (p DinnerPack) DinnerPath(index int) string {
	if p.Path != "" {
		return p.Path
	}
	return fmt.Sprintf("dinners[%d]", index)
}

// ItemPath is the field path of the item at position item.
func (p DinnerPack) ItemPath(index, item int) string {
	if p.ItemsPath != "" {
		return fmt.Sprintf("%s[%d]", p.ItemsPath, item)
	}
	return fmt.Sprintf("%s.items[%d]", p.DinnerPath(index), item)
}

// DefaultOverride lowers the quantity of a default item of the dinner.
type DefaultOverride struct {
	ItemCode string
	Qty      decimal.Decimal
}

// ItemSelection is an item requested on top of the package defaults.
type ItemSelection struct {
	ItemCode  string
	Qty       decimal.Decimal
	OptionIDs []int64
}

// ItemLineRef is the code and quantity of a requested item, used as discount context.
type ItemLineRef struct {
	Code string
	Qty  decimal.Decimal
}

// FlattenItems lists the requested items of every pack in order.
func FlattenItems(packs []DinnerPack) []ItemLineRef {
	var refs []ItemLineRef
	for _, p := range packs {
		for _, it := range p.Items {
			refs = append(refs, ItemLineRef{Code: it.ItemCode, Qty: it.Qty})
		}
	}
	return refs
}

// DinnerOptionIDs aggregates dinner option ids across packs, keeping order.
func DinnerOptionIDs(packs []DinnerPack) []int64 {
	var ids []int64
	for _, p := range packs {
		ids = append(ids, p.DinnerOptionIDs...)
	}
	return ids
}
