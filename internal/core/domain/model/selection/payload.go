package selection

import (
	"errors"
	"fmt"
	"strings"

	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var ErrDinnerRequired = errs.NewValueIsRequiredErrorWithCause("dinner", errors.New("dinner required"))

// Payload is the line-item part of a create, edit or preview request.
// Pointer slices tell an absent key apart from an empty list.
type Payload struct {
	Orders  *[]RawPack   `json:"orders,omitempty"`
	Dinners *[]RawDinner `json:"dinners,omitempty"`
	Dinner  *RawDinner   `json:"dinner,omitempty"`
	Items   []RawItem    `json:"items,omitempty"`
}

type RawPack struct {
	Dinner *RawDinner `json:"dinner"`
	Items  []RawItem  `json:"items"`
}

type RawDinner struct {
	Code             string           `json:"code"`
	Quantity         *decimal.Decimal `json:"quantity"`
	Style            string           `json:"style"`
	DinnerOptions    []int64          `json:"dinner_options"`
	DefaultOverrides []RawOverride    `json:"default_overrides"`
}

type RawOverride struct {
	Code string           `json:"code"`
	Qty  *decimal.Decimal `json:"qty"`
}

type RawItem struct {
	Code    string           `json:"code"`
	Qty     *decimal.Decimal `json:"qty"`
	Options []int64          `json:"options"`
}

// HasLines reports whether any line-replacement key is present.
func (p Payload) HasLines() bool {
	return p.Orders != nil || p.Dinners != nil || p.Dinner != nil
}

// Normalize resolves the payload into dinner packages. Every violation found is
// reported, joined, each naming its field path.
func Normalize(p Payload) ([]DinnerPack, error) {
	switch {
	case p.Orders != nil:
		if len(*p.Orders) == 0 {
			return nil, errs.NewValueIsInvalidErrorWithCause("orders", errors.New("must not be empty"))
		}
		packs := make([]DinnerPack, 0, len(*p.Orders))
		var all []error
		for i, raw := range *p.Orders {
			path := fmt.Sprintf("orders[%d]", i)
			if raw.Dinner == nil {
				all = append(all, errs.NewValueIsRequiredError(path+".dinner"))
				continue
			}
			pack, err := normalizePack(path+".dinner", path+".items", *raw.Dinner, raw.Items)
			all = append(all, err)
			packs = append(packs, pack)
		}
		if err := errors.Join(all...); err != nil {
			return nil, err
		}
		return packs, nil

	case p.Dinners != nil:
		if len(*p.Dinners) == 0 {
			return nil, errs.NewValueIsInvalidErrorWithCause("dinners", errors.New("must not be empty"))
		}
		packs := make([]DinnerPack, 0, len(*p.Dinners))
		var all []error
		for i, raw := range *p.Dinners {
			var items []RawItem
			if i == 0 {
				items = p.Items
			}
			pack, err := normalizePack(fmt.Sprintf("dinners[%d]", i), "items", raw, items)
			all = append(all, err)
			packs = append(packs, pack)
		}
		if err := errors.Join(all...); err != nil {
			return nil, err
		}
		return packs, nil

	case p.Dinner != nil:
		pack, err := normalizePack("dinner", "items", *p.Dinner, p.Items)
		if err != nil {
			return nil, err
		}
		return []DinnerPack{pack}, nil
	}
	return nil, ErrDinnerRequired
}

func normalizePack(dinnerPath, itemsPath string, d RawDinner, items []RawItem) (DinnerPack, error) {
	pack := DinnerPack{
		DinnerCode: strings.TrimSpace(d.Code),
		StyleCode:  strings.TrimSpace(d.Style),
		Quantity:   decimal.NewFromInt(1),
		Path:       dinnerPath,
		ItemsPath:  itemsPath,
	}
	var all []error

	if pack.DinnerCode == "" {
		all = append(all, errs.NewValueIsRequiredError(dinnerPath+".code"))
	}
	if pack.StyleCode == "" {
		all = append(all, errs.NewValueIsRequiredError(dinnerPath+".style"))
	}
	if d.Quantity != nil {
		pack.Quantity = *d.Quantity
		all = append(all, validateQuantity(dinnerPath+".quantity", pack.Quantity))
	}

	ids, err := validateOptionIDs(dinnerPath+".dinner_options", d.DinnerOptions)
	all = append(all, err)
	pack.DinnerOptionIDs = ids

	seen := map[string]bool{}
	for i, o := range d.DefaultOverrides {
		path := fmt.Sprintf("%s.default_overrides[%d]", dinnerPath, i)
		code := strings.TrimSpace(o.Code)
		switch {
		case code == "":
			all = append(all, errs.NewValueIsRequiredError(path+".code"))
			continue
		case seen[code]:
			all = append(all, errs.NewValueIsInvalidErrorWithCause(path+".code", fmt.Errorf("duplicate override for %q", code)))
			continue
		case o.Qty == nil:
			all = append(all, errs.NewValueIsRequiredError(path+".qty"))
			continue
		}
		seen[code] = true
		if o.Qty.IsNegative() || !kernel.HasQuantityScale(*o.Qty) {
			all = append(all, errs.NewValueIsInvalidErrorWithCause(path+".qty", fmt.Errorf("%s is not a valid quantity", o.Qty)))
			continue
		}
		pack.DefaultOverrides = append(pack.DefaultOverrides, DefaultOverride{ItemCode: code, Qty: *o.Qty})
	}

	for i, it := range items {
		path := fmt.Sprintf("%s[%d]", itemsPath, i)
		code := strings.TrimSpace(it.Code)
		if code == "" {
			all = append(all, errs.NewValueIsRequiredError(path+".code"))
			continue
		}
		if it.Qty == nil {
			all = append(all, errs.NewValueIsRequiredError(path+".qty"))
			continue
		}
		if err := validateQuantity(path+".qty", *it.Qty); err != nil {
			all = append(all, err)
			continue
		}
		optionIDs, err := validateOptionIDs(path+".options", it.Options)
		if err != nil {
			all = append(all, err)
			continue
		}
		pack.Items = append(pack.Items, ItemSelection{ItemCode: code, Qty: *it.Qty, OptionIDs: optionIDs})
	}

	if err := errors.Join(all...); err != nil {
		return DinnerPack{}, err
	}
	return pack, nil
}

func validateQuantity(path string, q decimal.Decimal) error {
	if !q.IsPositive() {
		return errs.NewValueIsInvalidErrorWithCause(path, fmt.Errorf("%s is not greater than 0", q))
	}
	if !kernel.HasQuantityScale(q) {
		return errs.NewValueIsInvalidErrorWithCause(path, fmt.Errorf("%s has more than %d decimal places", q, kernel.QuantityScale))
	}
	return nil
}

func validateOptionIDs(path string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, errs.NewValueIsInvalidErrorWithCause(path, fmt.Errorf("%d is not a valid option id", id))
		}
		if seen[id] {
			return nil, errs.NewValueIsInvalidErrorWithCause(path, fmt.Errorf("option %d selected twice", id))
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
