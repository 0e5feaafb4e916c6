package services_test

import (
	"testing"

	"mrdinner/internal/core/domain/model/catalog"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/domain/model/selection"
	"mrdinner/internal/core/domain/services"
	"mrdinner/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func valentineDinner() catalog.Dinner {
	return catalog.Dinner{Code: "valentine", Name: "Valentine", BasePriceCents: 45000, AllowedStyles: []string{"simple", "grand"}}
}

func simpleStyle() catalog.ServingStyle {
	return catalog.ServingStyle{Code: "simple", Name: "Simple", Mode: catalog.Addon, Value: decimal.Zero}
}

func wineUpgrade() catalog.DinnerOption {
	return catalog.DinnerOption{ID: 5, GroupName: "wine", Mode: catalog.Addon, Name: "Bordeaux", PriceDeltaCents: 2000}
}

func steakItem() catalog.MenuItem {
	return catalog.MenuItem{
		Code:           "steak",
		Name:           "Steak",
		BasePriceCents: 3000,
		OptionGroups: []catalog.ItemOptionGroup{
			{ID: 1, Name: "portion", Mode: catalog.Multiplier, Options: []catalog.ItemOption{{ID: 11, Name: "large", Multiplier: dec("1.1")}}},
			{ID: 2, Name: "sauce", Mode: catalog.Addon, Options: []catalog.ItemOption{{ID: 21, Name: "pepper", PriceDeltaCents: 500}}},
		},
	}
}

func winePack() services.PackInput {
	return services.PackInput{
		Selection: selection.DinnerPack{
			DinnerCode:      "valentine",
			StyleCode:       "simple",
			Quantity:        dec("1"),
			DinnerOptionIDs: []int64{5},
			Items:           []selection.ItemSelection{{ItemCode: "steak", Qty: dec("2"), OptionIDs: []int64{11}}},
		},
		Dinner:        valentineDinner(),
		Style:         simpleStyle(),
		DinnerOptions: []catalog.DinnerOption{wineUpgrade()},
		Items:         map[string]catalog.MenuItem{"steak": steakItem()},
	}
}

func TestPricingEngine_DinnerWithOptionAndItem(t *testing.T) {
	quote, err := services.NewPricingEngine().Price([]services.PackInput{winePack()})

	require.NoError(t, err)
	require.Len(t, quote.Dinners, 1)
	d := quote.Dinners[0]
	assert.Equal(t, int64(47000), d.UnitPriceCents())
	assert.Equal(t, int64(47000), d.SubtotalCents())
	assert.Equal(t, int64(0), d.StyleAdjustCents())
	require.Len(t, d.Options(), 1)
	assert.Equal(t, int64(2000), d.Options()[0].PriceDeltaCents)

	items := d.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(3300), items[0].UnitPriceCents())
	assert.Equal(t, int64(6600), items[0].SubtotalCents())
	assert.Equal(t, order.Added, items[0].ChangeType())
	assert.Equal(t, int64(53600), quote.SubtotalCents)

	require.Len(t, quote.Adjustments, 2)
	assert.Equal(t, services.AdjustmentStyle, quote.Adjustments[0].Type)
	assert.Equal(t, services.AdjustmentDinnerOption, quote.Adjustments[1].Type)
	assert.Equal(t, int64(2000), quote.Adjustments[1].ValueCents)
}

func TestPricingEngine_StyleAndOptionModes(t *testing.T) {
	t.Run("multiplier style snapshots the applied amount", func(t *testing.T) {
		p := winePack()
		p.Selection.StyleCode = "grand"
		p.Selection.Items = nil
		p.Style = catalog.ServingStyle{Code: "grand", Name: "Grand", Mode: catalog.Multiplier, Value: dec("1.15")}

		quote, err := services.NewPricingEngine().Price([]services.PackInput{p})

		require.NoError(t, err)
		d := quote.Dinners[0]
		assert.Equal(t, int64(6750), d.StyleAdjustCents())
		assert.Equal(t, int64(45000+6750+2000), d.UnitPriceCents())
	})

	t.Run("options apply in the order supplied", func(t *testing.T) {
		double := catalog.DinnerOption{ID: 6, GroupName: "size", Mode: catalog.Multiplier, Name: "double", Multiplier: dec("2")}

		p := winePack()
		p.Selection.Items = nil
		p.Selection.DinnerOptionIDs = []int64{5, 6}
		p.DinnerOptions = []catalog.DinnerOption{wineUpgrade(), double}
		first, err := services.NewPricingEngine().Price([]services.PackInput{p})
		require.NoError(t, err)

		p.Selection.DinnerOptionIDs = []int64{6, 5}
		p.DinnerOptions = []catalog.DinnerOption{double, wineUpgrade()}
		second, err := services.NewPricingEngine().Price([]services.PackInput{p})
		require.NoError(t, err)

		assert.Equal(t, int64((45000+2000)*2), first.Dinners[0].UnitPriceCents())
		assert.Equal(t, int64(45000*2+2000), second.Dinners[0].UnitPriceCents())
		opts := first.Dinners[0].Options()
		require.NotNil(t, opts[1].Multiplier)
		assert.Equal(t, int64(47000), opts[1].PriceDeltaCents)
	})

	t.Run("style result is rounded before options apply", func(t *testing.T) {
		half := catalog.DinnerOption{ID: 7, GroupName: "size", Mode: catalog.Multiplier, Name: "half again", Multiplier: dec("1.5")}

		p := winePack()
		p.Dinner.BasePriceCents = 10001
		p.Selection.Items = nil
		p.Selection.StyleCode = "grand"
		p.Selection.DinnerOptionIDs = []int64{7}
		p.DinnerOptions = []catalog.DinnerOption{half}
		p.Style = catalog.ServingStyle{Code: "grand", Name: "Grand", Mode: catalog.Multiplier, Value: dec("1.5")}

		quote, err := services.NewPricingEngine().Price([]services.PackInput{p})

		require.NoError(t, err)
		d := quote.Dinners[0]
		// 10001 * 1.5 = 15001.5 -> 15002, then 15002 * 0.5 = 7501
		assert.Equal(t, int64(5001), d.StyleAdjustCents())
		assert.Equal(t, int64(7501), d.Options()[0].PriceDeltaCents)
		assert.Equal(t, int64(22503), d.UnitPriceCents())
		assert.Equal(t, d.BasePriceCents()+d.StyleAdjustCents()+d.Options()[0].PriceDeltaCents, d.UnitPriceCents())
	})

	t.Run("explicit zero multiplier is applied as zero", func(t *testing.T) {
		free := catalog.DinnerOption{ID: 8, GroupName: "promo", Mode: catalog.Multiplier, Name: "on the house", Multiplier: decimal.Zero}

		p := winePack()
		p.Selection.Items = nil
		p.Selection.DinnerOptionIDs = []int64{8}
		p.DinnerOptions = []catalog.DinnerOption{free}

		quote, err := services.NewPricingEngine().Price([]services.PackInput{p})

		require.NoError(t, err)
		assert.Equal(t, int64(-45000), quote.Dinners[0].Options()[0].PriceDeltaCents)
		assert.Zero(t, quote.Dinners[0].UnitPriceCents())
	})

	t.Run("rounding happens once per line", func(t *testing.T) {
		p := winePack()
		p.Dinner.BasePriceCents = 1001
		p.Selection.Items = nil
		p.Selection.DinnerOptionIDs = nil
		p.DinnerOptions = nil
		p.Selection.Quantity = dec("1.50")
		p.Style = catalog.ServingStyle{Code: "simple", Name: "Simple", Mode: catalog.Multiplier, Value: dec("1.005")}

		quote, err := services.NewPricingEngine().Price([]services.PackInput{p})

		require.NoError(t, err)
		// 1001 * 1.005 = 1006.005 -> 1006, then 1006 * 1.5 = 1509
		assert.Equal(t, int64(1006), quote.Dinners[0].UnitPriceCents())
		assert.Equal(t, int64(1509), quote.Dinners[0].SubtotalCents())
	})

	t.Run("item addon and multiplier combine before rounding", func(t *testing.T) {
		p := winePack()
		p.Selection.Items = []selection.ItemSelection{{ItemCode: "steak", Qty: dec("1"), OptionIDs: []int64{21, 11}}}

		quote, err := services.NewPricingEngine().Price([]services.PackInput{p})

		require.NoError(t, err)
		assert.Equal(t, int64(3850), quote.Dinners[0].Items()[0].UnitPriceCents())
	})
}

func TestPricingEngine_DefaultItems(t *testing.T) {
	wine := catalog.MenuItem{Code: "wine", Name: "Wine", BasePriceCents: 8000}
	bread := catalog.MenuItem{Code: "bread", Name: "Bread", BasePriceCents: 500}

	pack := func(overrides ...selection.DefaultOverride) services.PackInput {
		p := winePack()
		p.Selection.Items = nil
		p.Selection.DinnerOptionIDs = nil
		p.DinnerOptions = nil
		p.Selection.DefaultOverrides = overrides
		p.Defaults = []catalog.DefaultItem{
			{Item: wine, DefaultQty: dec("2"), IncludedInBase: true},
			{Item: bread, DefaultQty: dec("1"), IncludedInBase: false},
		}
		return p
	}

	tests := []struct {
		name     string
		override []selection.DefaultOverride
		want     order.ChangeType
		wantQty  string
	}{
		{name: "no override", want: order.Unchanged, wantQty: "2"},
		{name: "partial", override: []selection.DefaultOverride{{ItemCode: "wine", Qty: dec("1")}}, want: order.Decreased, wantQty: "1"},
		{name: "to zero", override: []selection.DefaultOverride{{ItemCode: "wine", Qty: dec("0")}}, want: order.Removed, wantQty: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := services.NewPricingEngine().Price([]services.PackInput{pack(tt.override...)})

			require.NoError(t, err)
			items := quote.Dinners[0].Items()
			require.Len(t, items, 2)
			assert.Equal(t, "wine", items[0].ItemCode())
			assert.Equal(t, tt.want, items[0].ChangeType())
			assert.True(t, items[0].FinalQty().Equal(dec(tt.wantQty)))
			assert.True(t, items[0].IsDefault())
			assert.Zero(t, items[0].SubtotalCents())
			assert.Equal(t, int64(500), items[1].SubtotalCents())
			assert.Equal(t, int64(45000+500), quote.SubtotalCents)
		})
	}

	t.Run("override above default is rejected, not clamped", func(t *testing.T) {
		_, err := services.NewPricingEngine().Price([]services.PackInput{
			pack(selection.DefaultOverride{ItemCode: "wine", Qty: dec("3")}),
		})

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("override for a non default item is rejected", func(t *testing.T) {
		_, err := services.NewPricingEngine().Price([]services.PackInput{
			pack(selection.DefaultOverride{ItemCode: "steak", Qty: dec("0")}),
		})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Contains(t, err.Error(), "steak")
	})

	t.Run("requested default item pays upgrade on default qty and full price on extra", func(t *testing.T) {
		steak := steakItem()
		p := winePack()
		p.Selection.DinnerOptionIDs = nil
		p.DinnerOptions = nil
		p.Defaults = []catalog.DefaultItem{{Item: steak, DefaultQty: dec("1"), IncludedInBase: true}}
		p.Selection.Items = []selection.ItemSelection{{ItemCode: "steak", Qty: dec("1"), OptionIDs: []int64{11}}}

		quote, err := services.NewPricingEngine().Price([]services.PackInput{p})

		require.NoError(t, err)
		items := quote.Dinners[0].Items()
		require.Len(t, items, 1)
		// upgrade of the included unit: 3300 - 3000, extra unit: 3300
		assert.Equal(t, int64(300+3300), items[0].SubtotalCents())
		assert.True(t, items[0].FinalQty().Equal(dec("2")))
		assert.Equal(t, order.Increased, items[0].ChangeType())
	})

	t.Run("repeated additions accumulate on one row", func(t *testing.T) {
		p := winePack()
		p.Selection.Items = append(p.Selection.Items, selection.ItemSelection{ItemCode: "steak", Qty: dec("1")})

		quote, err := services.NewPricingEngine().Price([]services.PackInput{p})

		require.NoError(t, err)
		items := quote.Dinners[0].Items()
		require.Len(t, items, 1)
		assert.True(t, items[0].FinalQty().Equal(dec("3")))
		assert.Equal(t, int64(6600+3000), items[0].SubtotalCents())
	})
}

func TestPricingEngine_ValidationErrors(t *testing.T) {
	t.Run("style not allowed", func(t *testing.T) {
		p := winePack()
		p.Style = catalog.ServingStyle{Code: "deluxe", Mode: catalog.Addon}

		_, err := services.NewPricingEngine().Price([]services.PackInput{p})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Contains(t, err.Error(), "deluxe")
	})

	t.Run("item option not owned by item", func(t *testing.T) {
		p := winePack()
		p.Selection.Items[0].OptionIDs = []int64{99}

		_, err := services.NewPricingEngine().Price([]services.PackInput{p})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Contains(t, err.Error(), "option 99")
	})

	t.Run("errors name the field the request used", func(t *testing.T) {
		p := winePack()
		p.Items = nil
		p.Selection.Path = "orders[0].dinner"
		p.Selection.ItemsPath = "orders[0].items"

		_, err := services.NewPricingEngine().Price([]services.PackInput{p})

		var invalid *errs.ValueIsInvalidError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "orders[0].items[0].code", invalid.ParamName)
	})

	t.Run("unknown item", func(t *testing.T) {
		p := winePack()
		p.Items = nil

		_, err := services.NewPricingEngine().Price([]services.PackInput{p})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Contains(t, err.Error(), "steak")
	})

	t.Run("dinner option not offered", func(t *testing.T) {
		p := winePack()
		p.DinnerOptions = nil

		_, err := services.NewPricingEngine().Price([]services.PackInput{p})

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestPricingEngine_MultiplePacksAndContext(t *testing.T) {
	second := winePack()
	second.Selection.Quantity = dec("2")
	second.Selection.DinnerOptionIDs = nil
	second.DinnerOptions = nil
	second.Selection.Items = nil

	quote, err := services.NewPricingEngine().Price([]services.PackInput{winePack(), second})

	require.NoError(t, err)
	assert.Equal(t, int64(53600+90000), quote.SubtotalCents)

	ctx := services.DiscountContext([]selection.DinnerPack{winePack().Selection, second.Selection})
	assert.Equal(t, "valentine", ctx.DinnerCode)
	assert.Equal(t, []int64{5}, ctx.DinnerOptionIDs)
	require.Len(t, ctx.Items, 1)
	assert.Equal(t, "steak", ctx.Items[0].Code)
}
