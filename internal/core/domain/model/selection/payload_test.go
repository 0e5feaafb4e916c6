package selection_test

import (
	"encoding/json"
	"testing"

	"mrdinner/internal/core/domain/model/selection"
	"mrdinner/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) selection.Payload {
	t.Helper()
	var p selection.Payload
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p
}

func TestNormalize_SingleDinner(t *testing.T) {
	p := decode(t, `{
		"dinner": {"code": "valentine", "style": "simple", "dinner_options": [3, 1],
		           "default_overrides": [{"code": "wine", "qty": "0"}]},
		"items": [{"code": "steak", "qty": 2, "options": [7]}]
	}`)

	packs, err := selection.Normalize(p)

	require.NoError(t, err)
	require.Len(t, packs, 1)
	pack := packs[0]
	assert.Equal(t, "valentine", pack.DinnerCode)
	assert.Equal(t, "simple", pack.StyleCode)
	assert.True(t, pack.Quantity.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, []int64{3, 1}, pack.DinnerOptionIDs)
	require.Len(t, pack.DefaultOverrides, 1)
	assert.True(t, pack.DefaultOverrides[0].Qty.IsZero())
	require.Len(t, pack.Items, 1)
	assert.Equal(t, "steak", pack.Items[0].ItemCode)
	assert.True(t, pack.Items[0].Qty.Equal(decimal.NewFromInt(2)))
}

func TestNormalize_Priority(t *testing.T) {
	t.Run("orders wins over dinners and dinner", func(t *testing.T) {
		p := decode(t, `{
			"orders": [{"dinner": {"code": "french", "style": "grand"}, "items": [{"code": "bread", "qty": "1"}]}],
			"dinners": [{"code": "english", "style": "simple"}],
			"dinner": {"code": "champagne", "style": "deluxe"}
		}`)

		packs, err := selection.Normalize(p)

		require.NoError(t, err)
		require.Len(t, packs, 1)
		assert.Equal(t, "french", packs[0].DinnerCode)
		require.Len(t, packs[0].Items, 1)
	})

	t.Run("dinners attaches top level items to the first package", func(t *testing.T) {
		p := decode(t, `{
			"dinners": [{"code": "english", "style": "simple", "quantity": "2.50"}, {"code": "french", "style": "grand"}],
			"items": [{"code": "coffee", "qty": 1}],
			"dinner": {"code": "champagne", "style": "deluxe"}
		}`)

		packs, err := selection.Normalize(p)

		require.NoError(t, err)
		require.Len(t, packs, 2)
		assert.Equal(t, "english", packs[0].DinnerCode)
		assert.True(t, packs[0].Quantity.Equal(decimal.RequireFromString("2.5")))
		assert.Len(t, packs[0].Items, 1)
		assert.Empty(t, packs[1].Items)
	})
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		sentinel  error
		wantField string
	}{
		{name: "no line keys", body: `{"items": []}`, sentinel: errs.ErrValueIsRequired, wantField: "dinner required"},
		{name: "null dinner", body: `{"dinner": null}`, sentinel: errs.ErrValueIsRequired, wantField: "dinner required"},
		{name: "empty orders", body: `{"orders": []}`, sentinel: errs.ErrValueIsInvalid, wantField: "orders"},
		{name: "empty dinners", body: `{"dinners": []}`, sentinel: errs.ErrValueIsInvalid, wantField: "dinners"},
		{name: "orders entry without dinner", body: `{"orders": [{"items": []}]}`, sentinel: errs.ErrValueIsRequired, wantField: "orders[0].dinner"},
		{name: "missing style", body: `{"dinner": {"code": "french"}}`, sentinel: errs.ErrValueIsRequired, wantField: "dinner.style"},
		{name: "zero quantity", body: `{"dinner": {"code": "french", "style": "grand", "quantity": 0}}`, sentinel: errs.ErrValueIsInvalid, wantField: "dinner.quantity"},
		{name: "three decimals", body: `{"dinner": {"code": "french", "style": "grand", "quantity": "1.005"}}`, sentinel: errs.ErrValueIsInvalid, wantField: "dinner.quantity"},
		{name: "duplicate option", body: `{"dinner": {"code": "french", "style": "grand", "dinner_options": [4, 4]}}`, sentinel: errs.ErrValueIsInvalid, wantField: "dinner.dinner_options"},
		{name: "negative override", body: `{"dinner": {"code": "french", "style": "grand", "default_overrides": [{"code": "wine", "qty": -1}]}}`, sentinel: errs.ErrValueIsInvalid, wantField: "dinner.default_overrides[0].qty"},
		{name: "item without qty", body: `{"dinner": {"code": "french", "style": "grand"}, "items": [{"code": "steak"}]}`, sentinel: errs.ErrValueIsRequired, wantField: "items[0].qty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := selection.Normalize(decode(t, tt.body))

			require.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}

func TestFlattenItemsAndOptionIDs(t *testing.T) {
	packs := []selection.DinnerPack{
		{DinnerOptionIDs: []int64{1}, Items: []selection.ItemSelection{{ItemCode: "a", Qty: decimal.NewFromInt(1)}}},
		{DinnerOptionIDs: []int64{2, 3}, Items: []selection.ItemSelection{{ItemCode: "b", Qty: decimal.NewFromInt(2)}}},
	}

	refs := selection.FlattenItems(packs)

	require.Len(t, refs, 2)
	assert.Equal(t, "b", refs[1].Code)
	assert.Equal(t, []int64{1, 2, 3}, selection.DinnerOptionIDs(packs))
}

func TestNormalize_RecordsFieldPaths(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantPath  string
		wantItem  string
		itemIndex int
	}{
		{
			name:     "dinner",
			body:     `{"dinner": {"code": "french", "style": "grand"}, "items": [{"code": "bread", "qty": 1}]}`,
			wantPath: "dinner",
			wantItem: "items[0]",
		},
		{
			name:     "dinners",
			body:     `{"dinners": [{"code": "french", "style": "grand"}], "items": [{"code": "bread", "qty": 1}]}`,
			wantPath: "dinners[0]",
			wantItem: "items[0]",
		},
		{
			name:     "orders",
			body:     `{"orders": [{"dinner": {"code": "french", "style": "grand"}, "items": [{"code": "bread", "qty": 1}]}]}`,
			wantPath: "orders[0].dinner",
			wantItem: "orders[0].items[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packs, err := selection.Normalize(decode(t, tt.body))

			require.NoError(t, err)
			require.Len(t, packs, 1)
			assert.Equal(t, tt.wantPath, packs[0].DinnerPath(0))
			assert.Equal(t, tt.wantItem, packs[0].ItemPath(0, tt.itemIndex))
		})
	}

	t.Run("packages built in code fall back to dinners", func(t *testing.T) {
		var pack selection.DinnerPack

		assert.Equal(t, "dinners[2]", pack.DinnerPath(2))
		assert.Equal(t, "dinners[2].items[1]", pack.ItemPath(2, 1))
	})
}
