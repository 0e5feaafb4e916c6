// Package pricing binds the pure pricing engine and discount policy to the
// catalog and promotion stores. It is shared by the order commands and the
// price preview query.
package pricing

import (
	"context"
	"errors"
	"time"

	"mrdinner/internal/core/domain/model/catalog"
	"mrdinner/internal/core/domain/model/promotion"
	"mrdinner/internal/core/domain/model/selection"
	"mrdinner/internal/core/domain/services"
	"mrdinner/internal/core/ports"
	"mrdinner/internal/pkg/errs"
)

// Resolve loads the catalog data every pack refers to. Unknown codes are
// reported as ValueIsInvalidError naming the offending field.
func Resolve(ctx context.Context, lookup ports.CatalogLookup, packs []selection.DinnerPack) ([]services.PackInput, error) {
	if len(packs) == 0 {
		return nil, selection.ErrDinnerRequired
	}

	items := make(map[string]catalog.MenuItem)
	inputs := make([]services.PackInput, 0, len(packs))
	for i, p := range packs {
		path := p.DinnerPath(i)

		dinner, err := lookup.GetDinner(ctx, p.DinnerCode)
		if err != nil {
			return nil, invalid(path+".code", err)
		}
		style, err := lookup.GetStyle(ctx, p.StyleCode)
		if err != nil {
			return nil, invalid(path+".style", err)
		}

		var options []catalog.DinnerOption
		if len(p.DinnerOptionIDs) > 0 {
			options, err = lookup.GetDinnerOptions(ctx, dinner.Code, p.DinnerOptionIDs)
			if err != nil {
				return nil, invalid(path+".dinner_options", err)
			}
		}

		defaults, err := lookup.GetDefaultItems(ctx, dinner.Code)
		if err != nil {
			return nil, err
		}

		packItems := make(map[string]catalog.MenuItem, len(p.Items))
		for j, it := range p.Items {
			item, ok := items[it.ItemCode]
			if !ok {
				item, err = lookup.GetItem(ctx, it.ItemCode)
				if err != nil {
					return nil, invalid(p.ItemPath(i, j)+".code", err)
				}
				items[it.ItemCode] = item
			}
			packItems[it.ItemCode] = item
		}

		inputs = append(inputs, services.PackInput{
			Selection:     p,
			Dinner:        dinner,
			Style:         style,
			DinnerOptions: options,
			Defaults:      defaults,
			Items:         packItems,
		})
	}
	return inputs, nil
}

// Quote resolves packs and prices them.
func Quote(ctx context.Context, lookup ports.CatalogLookup, packs []selection.DinnerPack) (services.Quote, error) {
	inputs, err := Resolve(ctx, lookup, packs)
	if err != nil {
		return services.Quote{}, err
	}
	return services.NewPricingEngine().Price(inputs)
}

// Discount evaluates membership and coupon discounts for req. A customer id
// of zero skips the membership lookup.
func Discount(
	ctx context.Context,
	promos ports.PromotionRepository,
	req promotion.Request,
	now time.Time,
) (services.DiscountResult, error) {
	var membership *promotion.Membership
	if req.CustomerID > 0 {
		m, err := promos.ActiveMembership(ctx, req.CustomerID, now)
		if err != nil {
			return services.DiscountResult{}, err
		}
		membership = m
	}

	var candidates []promotion.CouponCandidate
	if codes := promotion.NormalizeCodes(req.CouponCodes); len(codes) > 0 {
		c, err := promos.CouponCandidates(ctx, codes, req.CustomerID, req.OrderID)
		if err != nil {
			return services.DiscountResult{}, err
		}
		candidates = c
	}

	return services.NewDiscountPolicy().Evaluate(req.SubtotalCents, req.Channel, membership, candidates, now), nil
}

func invalid(path string, err error) error {
	if errors.Is(err, errs.ErrObjectNotFound) {
		return errs.NewValueIsInvalidErrorWithCause(path, err)
	}
	return err
}
