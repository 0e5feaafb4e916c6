package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"mrdinner/internal/core/application/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, ev events.OrderEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type fakeHooks struct {
	hooks []func(ctx context.Context)
}

func (f *fakeHooks) AfterCommit(fn func(ctx context.Context)) {
	f.hooks = append(f.hooks, fn)
}

func (f *fakeHooks) commit(ctx context.Context) {
	for _, fn := range f.hooks {
		fn(ctx)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifier_PublishesOnlyAfterCommit(t *testing.T) {
	ctx := t.Context()
	ev := events.NewOrderEvent(events.OrderCreated, newPendingOrder(t), "", nil, time.Now())
	pub := new(MockPublisher)
	hooks := &fakeHooks{}

	events.NewNotifier(pub, discardLogger()).NotifyOnCommit(hooks, ev)

	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	require.Len(t, hooks.hooks, 1)

	pub.On("Publish", ctx, ev).Return(nil).Once()
	hooks.commit(ctx)
	pub.AssertExpectations(t)
}

func TestNotifier_SwallowsPublishErrors(t *testing.T) {
	ctx := t.Context()
	ev := events.NewOrderEvent(events.OrderCreated, newPendingOrder(t), "", nil, time.Now())
	pub := new(MockPublisher)
	pub.On("Publish", ctx, ev).Return(errors.New("channel down")).Once()
	hooks := &fakeHooks{}

	events.NewNotifier(pub, discardLogger()).NotifyOnCommit(hooks, ev)

	assert.NotPanics(t, func() { hooks.commit(ctx) })
	pub.AssertExpectations(t)
}
