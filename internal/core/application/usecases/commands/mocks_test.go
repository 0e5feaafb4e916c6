package commands_test

import (
	"context"
	"testing"
	"time"

	"mrdinner/internal/core/application/events"
	"mrdinner/internal/core/application/usecases/commands"
	"mrdinner/internal/core/domain/model/catalog"
	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/domain/model/promotion"
	"mrdinner/internal/core/domain/model/selection"
	"mrdinner/internal/core/ports"
	"mrdinner/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) ReplaceLines(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByCustomer(_ context.Context, _ int64, _ int) ([]*order.Order, error) {
	return nil, nil
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

type MockPricingUoW struct{ mock.Mock }

func (m *MockPricingUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPricingUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPricingUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPricingUoW) AfterCommit(fn func(ctx context.Context)) {
	m.Called(fn)
}

func (m *MockPricingUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockPricingUoW) CatalogLookup() ports.CatalogLookup {
	args := m.Called()
	return args.Get(0).(ports.CatalogLookup)
}

func (m *MockPricingUoW) PromotionRepository() ports.PromotionRepository {
	args := m.Called()
	return args.Get(0).(ports.PromotionRepository)
}

type MockPricingUoWFactory struct{ mock.Mock }

func (m *MockPricingUoWFactory) Create() commands.PricingUoW {
	args := m.Called()
	return args.Get(0).(commands.PricingUoW)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) AfterCommit(fn func(ctx context.Context)) {
	m.Called(fn)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifyOnCommit(hooks events.CommitHooks, event events.OrderEvent) {
	m.Called(hooks, event)
}

func eventNamed(name string) any {
	return mock.MatchedBy(func(e events.OrderEvent) bool { return e.Event == name })
}

// stubCatalog serves one dinner with one option and one item.
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
	return nil, nil
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

func valentinePacks() []selection.DinnerPack {
	return []selection.DinnerPack{{
		DinnerCode:      "valentine",
		StyleCode:       "simple",
		Quantity:        decimal.NewFromInt(1),
		DinnerOptionIDs: []int64{5},
		Items: []selection.ItemSelection{
			{ItemCode: "steak", Qty: decimal.NewFromInt(2), OptionIDs: []int64{11}},
		},
	}}
}

func newPayment(t *testing.T) order.Payment {
	t.Helper()
	payment, err := order.NewPayment("tok_1", "4242")
	require.NoError(t, err)
	return payment
}

func newPendingOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), 7, order.ChannelGUI,
		order.Delivery{ReceiverName: "Kim", Address: "1 Main St"}, newPayment(t), nil, time.Now())
	require.NoError(t, err)
	return o
}

// newPricedOrder is a pending order with the valentine lines and a coupon applied.
func newPricedOrder(t *testing.T) *order.Order {
	t.Helper()
	o := newPendingOrder(t)
	_, err := commands.NewOrderBuilder().Rebuild(t.Context(), stubCatalog{}, o, valentinePacks())
	require.NoError(t, err)
	require.NoError(t, o.ApplyDiscounts([]order.DiscountLine{
		{Type: order.DiscountTypeCoupon, Label: "Love", Code: "LOVE", AmountCents: 1000},
	}))
	return o
}
