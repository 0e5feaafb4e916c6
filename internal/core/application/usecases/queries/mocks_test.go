package queries_test

import (
	"context"
	"testing"
	"time"

	"mrdinner/internal/core/domain/model/catalog"
	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/domain/model/promotion"
	"mrdinner/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderReader struct{ mock.Mock }

func (m *MockOrderReader) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderReader) ListByCustomer(ctx context.Context, customerID int64, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, customerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockPromotionRepository struct{ mock.Mock }

func (m *MockPromotionRepository) ActiveMembership(
	ctx context.Context, customerID int64, now time.Time,
) (*promotion.Membership, error) {
	args := m.Called(ctx, customerID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.Membership), args.Error(1)
}

func (m *MockPromotionRepository) CouponCandidates(
	ctx context.Context, codes []string, customerID int64, orderID kernel.UUID,
) ([]promotion.CouponCandidate, error) {
	args := m.Called(ctx, codes, customerID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]promotion.CouponCandidate), args.Error(1)
}

func (m *MockPromotionRepository) Redeem(
	ctx context.Context, orderID kernel.UUID, customerID int64, channel string, lines []order.DiscountLine, now time.Time,
) error {
	args := m.Called(ctx, orderID, customerID, channel, lines, now)
	return args.Error(0)
}

// stubCatalog serves a dinner with one default item, one dinner option and one item.
type stubCatalog struct{}

func (stubCatalog) GetDinner(_ context.Context, code string) (catalog.Dinner, error) {
	if code != "valentine" {
		return catalog.Dinner{}, errs.NewObjectNotFoundError("dinner", code)
	}
	return catalog.Dinner{Code: "valentine", Name: "Valentine Dinner", BasePriceCents: 45000, AllowedStyles: []string{"simple"}}, nil
}

func (stubCatalog) GetStyle(_ context.Context, code string) (catalog.ServingStyle, error) {
	if code != "simple" {
		return catalog.ServingStyle{}, errs.NewObjectNotFoundError("style", code)
	}
	return catalog.ServingStyle{Code: "simple", Name: "Simple", Mode: catalog.Addon}, nil
}

func (stubCatalog) GetItem(_ context.Context, code string) (catalog.MenuItem, error) {
	if code != "steak" {
		return catalog.MenuItem{}, errs.NewObjectNotFoundError("item", code)
	}
	return catalog.MenuItem{
		Code:           "steak",
		Name:           "Steak",
		BasePriceCents: 3000,
		OptionGroups: []catalog.ItemOptionGroup{{
			ID:   1,
			Name: "Doneness",
			Mode: catalog.Multiplier,
			Options: []catalog.ItemOption{
				{ID: 11, Name: "Well done", Multiplier: decimal.RequireFromString("1.1")},
			},
		}},
	}, nil
}

func (stubCatalog) GetDefaultItems(_ context.Context, _ string) ([]catalog.DefaultItem, error) {
	return []catalog.DefaultItem{{
		Item:           catalog.MenuItem{Code: "bread", Name: "Bread", BasePriceCents: 500},
		DefaultQty:     decimal.NewFromInt(2),
		IncludedInBase: true,
	}}, nil
}

func (stubCatalog) GetDinnerOptions(_ context.Context, _ string, ids []int64) ([]catalog.DinnerOption, error) {
	var out []catalog.DinnerOption
	for _, id := range ids {
		if id == 5 {
			out = append(out, catalog.DinnerOption{
				ID: 5, GroupName: "Wine", Mode: catalog.Addon, Name: "Wine upgrade", PriceDeltaCents: 2000,
			})
		}
	}
	return out, nil
}

func newPendingOrder(t *testing.T, customerID int64) *order.Order {
	t.Helper()
	payment, err := order.NewPayment("tok_1", "4242")
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), customerID, order.ChannelGUI,
		order.Delivery{ReceiverName: "Kim"}, payment, nil, time.Now())
	require.NoError(t, err)
	return o
}
