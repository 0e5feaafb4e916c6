package pgnotify_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"mrdinner/internal/adapters/out/broker"
	"mrdinner/internal/adapters/out/pgnotify"
	"mrdinner/internal/adapters/out/postgres/pgtest"
	"mrdinner/internal/core/application/events"
	"mrdinner/internal/core/application/views"
	"mrdinner/internal/core/domain/model/kernel"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
)

type NotifyTestSuite struct {
	suite.Suite
	pg     *pgtest.Postgres
	pool   *pgxpool.Pool
	hub    *broker.Hub
	cancel context.CancelFunc
	done   chan error
}

func TestNotifyIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(NotifyTestSuite))
}

func (suite *NotifyTestSuite) SetupSuite() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pg, err := pgtest.StartPostgres(ctx)
	suite.Require().NoError(err)
	suite.pg = pg

	suite.pool, err = pgxpool.New(ctx, pg.DSN)
	suite.Require().NoError(err)

	suite.hub = broker.NewHub(16, logger)
	listener, err := pgnotify.NewListener(suite.pool, "orders_events", suite.hub, nil, logger)
	suite.Require().NoError(err)

	runCtx, cancel := context.WithCancel(ctx)
	suite.cancel = cancel
	suite.done = make(chan error, 1)
	go func() { suite.done <- listener.Run(runCtx) }()
}

func (suite *NotifyTestSuite) TearDownSuite() {
	if suite.cancel != nil {
		suite.cancel()
		suite.NoError(<-suite.done)
	}
	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.pg != nil {
		suite.NoError(suite.pg.Terminate(context.Background()))
	}
}

// publishUntilReceived repeats the notification until the listener, which
// starts asynchronously, has delivered one copy of it to sub.
func (suite *NotifyTestSuite) publishUntilReceived(sub *broker.Subscription, ev events.OrderEvent) events.OrderEvent {
	publisher, err := pgnotify.NewPublisher(suite.pool, "orders_events", slog.New(slog.NewTextHandler(io.Discard, nil)))
	suite.Require().NoError(err)

	var got events.OrderEvent
	suite.Require().Eventually(func() bool {
		if err := publisher.Publish(context.Background(), ev); err != nil {
			return false
		}
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		msg, err := sub.Next(ctx)
		if err != nil || msg.Event == nil || msg.Event.OrderID != ev.OrderID {
			return false
		}
		got = *msg.Event
		return true
	}, 15*time.Second, 50*time.Millisecond)
	return got
}

func (suite *NotifyTestSuite) TestPublishedEventReachesLocalHub() {
	sub := suite.hub.Subscribe(nil)
	defer sub.Close()

	id := kernel.NewUUID().String()
	got := suite.publishUntilReceived(sub, events.OrderEvent{
		Version:    events.Version,
		Event:      events.OrderCreated,
		OrderID:    id,
		Status:     "pending",
		Order:      &views.Order{ID: id, Status: "pending", TotalCents: 48240},
		OccurredAt: time.Now().UTC(),
	})

	suite.Equal(id, got.OrderID)
	suite.Require().NotNil(got.Order)
	suite.Equal(int64(48240), got.Order.TotalCents)
}

func (suite *NotifyTestSuite) TestOversizedEventArrivesTruncated() {
	sub := suite.hub.Subscribe(nil)
	defer sub.Close()

	id := kernel.NewUUID().String()
	got := suite.publishUntilReceived(sub, events.OrderEvent{
		Version: events.Version,
		Event:   events.OrderUpdated,
		OrderID: id,
		Status:  "pending",
		Order: &views.Order{
			ID:   id,
			Meta: map[string]any{"note": strings.Repeat("z", 9000)},
		},
		OccurredAt: time.Now().UTC(),
	})

	suite.Equal(id, got.OrderID)
	suite.True(got.Truncated)
	suite.Nil(got.Order)
}
