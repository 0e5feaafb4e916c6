package postgres_test

import (
	"context"
	"testing"
	"time"

	postgres_adapter "mrdinner/internal/adapters/out/postgres"
	"mrdinner/internal/adapters/out/postgres/pgtest"
	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// UnitOfWorkTestSuite covers transaction lifecycle and post-commit hooks.
// It runs on SQLite and, outside of -short runs, on PostgreSQL, where
// isolation between concurrent units of work is checked as well.
type UnitOfWorkTestSuite struct {
	suite.Suite
	usePostgres bool
	pg          *pgtest.Postgres
	db          *gorm.DB
	factory     ports.UnitOfWorkFactory
}

func TestUnitOfWorkSQLite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkTestSuite))
}

func TestUnitOfWorkIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	suite.Run(t, &UnitOfWorkTestSuite{usePostgres: true})
}

func (suite *UnitOfWorkTestSuite) SetupSuite() {
	if !suite.usePostgres {
		suite.db = pgtest.OpenSQLite(suite.T())
	} else {
		pg, err := pgtest.StartPostgres(context.Background())
		suite.Require().NoError(err)
		suite.pg = pg
		suite.db = pg.DB
	}
	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(suite.db)
}

// SetupTest ensures clean database state before each test.
func (suite *UnitOfWorkTestSuite) SetupTest() {
	suite.Require().NoError(pgtest.Reset(suite.db))
}

// TearDownSuite cleans up PostgreSQL container after all tests complete.
func (suite *UnitOfWorkTestSuite) TearDownSuite() {
	if suite.pg != nil {
		suite.Require().NoError(suite.pg.Terminate(context.Background()))
	}
}

// TestUnitOfWorkFactory_Create verifies factory creates separate instances
// that expose every repository.
func (suite *UnitOfWorkTestSuite) TestUnitOfWorkFactory_Create() {
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	suite.NotSame(uow1, uow2, "Factory should create separate instances")
	suite.NotNil(uow1.OrderRepository())
	suite.NotNil(uow1.CatalogLookup())
	suite.NotNil(uow1.PromotionRepository())
}

func (suite *UnitOfWorkTestSuite) TestUnitOfWork_TransactionLifecycle() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Begin(ctx), "Multiple begin calls should be safe")
	suite.Require().NoError(uow.Commit(ctx))

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Rollback(ctx))

	suite.Require().Error(uow.Commit(ctx), "Should error when committing without active transaction")
	suite.Require().Error(uow.Rollback(ctx), "Should error when rolling back without active transaction")
}

// TestUnitOfWork_CommitRunsHooksAfterWrite verifies that hooks run in
// registration order and see the committed order.
func (suite *UnitOfWorkTestSuite) TestUnitOfWork_CommitRunsHooksAfterWrite() {
	ctx := context.Background()
	uow := suite.factory.Create()
	testOrder := createTestOrder(suite.T())

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))

	var calls []string
	uow.AfterCommit(func(ctx context.Context) {
		stored, err := suite.factory.Create().OrderRepository().Get(ctx, testOrder.ID())
		suite.NoError(err, "Hook should observe the committed order")
		if err == nil {
			calls = append(calls, "first:"+stored.Status().String())
		}
	})
	uow.AfterCommit(func(context.Context) { calls = append(calls, "second") })
	suite.Empty(calls, "Hooks must not run before commit")

	suite.Require().NoError(uow.Commit(ctx))
	suite.Equal([]string{"first:pending", "second"}, calls)

	suite.Require().Error(uow.Rollback(ctx))
	suite.Len(calls, 2, "Hooks run once")
}

type hookKey struct{}

func (suite *UnitOfWorkTestSuite) TestUnitOfWork_HooksOutliveCanceledCaller() {
	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(context.Background()))
	suite.Require().NoError(uow.OrderRepository().Add(context.Background(), createTestOrder(suite.T())))

	var (
		hookErr error
		value   any
	)
	uow.AfterCommit(func(ctx context.Context) {
		hookErr = ctx.Err()
		value = ctx.Value(hookKey{})
	})

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), hookKey{}, "request-1"))
	cancel()
	suite.Require().NoError(uow.Commit(ctx))

	suite.NoError(hookErr)
	suite.Equal("request-1", value)
}

// TestUnitOfWork_RollbackDiscardsWritesAndHooks verifies that nothing of a
// rolled back unit of work is observable.
func (suite *UnitOfWorkTestSuite) TestUnitOfWork_RollbackDiscardsWritesAndHooks() {
	ctx := context.Background()
	uow := suite.factory.Create()
	testOrder := createTestOrder(suite.T())

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))
	_, err := uow.OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err, "Order should be visible inside the transaction")

	fired := false
	uow.AfterCommit(func(context.Context) { fired = true })
	suite.Require().NoError(uow.Rollback(ctx))

	_, err = suite.factory.Create().OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().Error(err, "Order should not exist after rollback")
	suite.False(fired)

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Commit(ctx))
	suite.False(fired, "Hooks of a rolled back transaction never run")
}

// TestUnitOfWork_RepositoryIsolation verifies that repositories obtained
// from different unit of work instances operate independently.
func (suite *UnitOfWorkTestSuite) TestUnitOfWork_RepositoryIsolation() {
	if !suite.usePostgres {
		suite.T().Skip("SQLite serializes writers on one connection")
	}
	ctx := context.Background()
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()
	order1 := createTestOrder(suite.T())
	order2 := createTestOrder(suite.T())

	suite.Require().NoError(uow1.Begin(ctx))
	suite.Require().NoError(uow2.Begin(ctx))
	suite.Require().NoError(uow1.OrderRepository().Add(ctx, order1))
	suite.Require().NoError(uow2.OrderRepository().Add(ctx, order2))

	_, err := uow1.OrderRepository().Get(ctx, order2.ID())
	suite.Require().Error(err, "UOW1 should not see order2")
	_, err = uow2.OrderRepository().Get(ctx, order1.ID())
	suite.Require().Error(err, "UOW2 should not see order1")

	suite.Require().NoError(uow1.Commit(ctx))
	suite.Require().NoError(uow2.Rollback(ctx))

	newUow := suite.factory.Create()
	_, err = newUow.OrderRepository().Get(ctx, order1.ID())
	suite.Require().NoError(err, "Order1 should persist after commit")
	_, err = newUow.OrderRepository().Get(ctx, order2.ID())
	suite.Require().Error(err, "Order2 should not persist after rollback")
}

// TestUnitOfWork_WithoutTransaction verifies that repositories work
// without explicit transaction boundaries.
func (suite *UnitOfWorkTestSuite) TestUnitOfWork_WithoutTransaction() {
	ctx := context.Background()
	uow := suite.factory.Create()
	testOrder := createTestOrder(suite.T())

	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))

	retrieved, err := suite.factory.Create().OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.True(retrieved.ID().IsEqual(testOrder.ID()))
}

// createTestOrder creates a pending order with one dinner package.
func createTestOrder(t *testing.T) *order.Order {
	t.Helper()

	payment, err := order.NewPayment("tok_test", "")
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), 7, order.ChannelGUI, order.Delivery{
		ReceiverName: "Guest",
		Address:      "1 Main St",
	}, payment, nil, time.Now().UTC().Truncate(time.Second))
	require.NoError(t, err)

	dinner, err := order.NewDinner(kernel.NewUUID(), order.DinnerParams{
		DinnerCode:     "english",
		StyleCode:      "simple",
		Quantity:       decimal.NewFromInt(1),
		BasePriceCents: 30000,
		UnitPriceCents: 30000,
		SubtotalCents:  30000,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, o.ReplaceLines([]*order.Dinner{dinner}))
	return o
}
