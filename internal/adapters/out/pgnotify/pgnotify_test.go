package pgnotify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"mrdinner/internal/core/application/events"
	"mrdinner/internal/core/application/usecases/queries"
	"mrdinner/internal/core/application/views"
	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev events.OrderEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type MockSnapshotLoader struct {
	mock.Mock
}

func (m *MockSnapshotLoader) GetOrder(ctx context.Context, query queries.GetOrderQuery) (views.Order, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(views.Order), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEvent(orderID string, meta map[string]any) events.OrderEvent {
	return events.OrderEvent{
		Version: events.Version,
		Event:   events.OrderCreated,
		OrderID: orderID,
		Status:  "pending",
		Order: &views.Order{
			ID:     orderID,
			Status: "pending",
			Meta:   meta,
		},
		OccurredAt: time.Date(2025, 2, 14, 18, 0, 0, 0, time.UTC),
	}
}

func TestValidateChannel(t *testing.T) {
	assert.NoError(t, ValidateChannel("orders_events"))
	assert.ErrorIs(t, ValidateChannel(""), errs.ErrValueIsRequired)
	assert.ErrorIs(t, ValidateChannel("orders; DROP TABLE orders"), errs.ErrValueIsInvalid)
	assert.ErrorIs(t, ValidateChannel("orders-events"), errs.ErrValueIsInvalid)
}

func TestEncode_KeepsSnapshotWhenItFits(t *testing.T) {
	ev := newEvent(kernel.NewUUID().String(), map[string]any{"note": "ring twice"})

	payload, err := Encode(ev)
	require.NoError(t, err)

	decoded, err := events.Decode(payload)
	require.NoError(t, err)
	assert.False(t, decoded.Truncated)
	require.NotNil(t, decoded.Order)
	assert.Equal(t, "ring twice", decoded.Order.Meta["note"])
}

func TestEncode_DropsSnapshotWhenTooLarge(t *testing.T) {
	ev := newEvent(kernel.NewUUID().String(), map[string]any{"note": strings.Repeat("x", MaxPayloadBytes)})

	payload, err := Encode(ev)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(payload), MaxPayloadBytes)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))
	assert.NotContains(t, raw, "order")
	assert.Equal(t, true, raw["truncated"])
	assert.Equal(t, ev.OrderID, raw["order_id"])
}

func TestEncode_RejectsOversizedEnvelopeWithoutSnapshot(t *testing.T) {
	ev := newEvent(kernel.NewUUID().String(), nil)
	ev.Extra = map[string]any{"blob": strings.Repeat("y", MaxPayloadBytes)}

	_, err := Encode(ev)
	assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func newTestListener(sink events.Publisher, loader SnapshotLoader) *Listener {
	return &Listener{
		channel: "orders_events",
		sink:    sink,
		loader:  loader,
		logger:  discardLogger(),
	}
}

func TestListener_DispatchForwardsDecodedEvent(t *testing.T) {
	ctx := context.Background()
	sink := &MockPublisher{}
	ev := newEvent(kernel.NewUUID().String(), nil)
	payload, err := Encode(ev)
	require.NoError(t, err)

	sink.On("Publish", ctx, mock.MatchedBy(func(got events.OrderEvent) bool {
		return got.OrderID == ev.OrderID && got.Order != nil && !got.Truncated
	})).Return(nil).Once()

	newTestListener(sink, nil).dispatch(ctx, payload)

	sink.AssertExpectations(t)
}

func TestListener_DispatchDropsMalformedPayloads(t *testing.T) {
	ctx := context.Background()
	sink := &MockPublisher{}
	l := newTestListener(sink, nil)

	l.dispatch(ctx, []byte("not json"))
	l.dispatch(ctx, []byte(`{"version":99,"event":"order_created","order_id":"x"}`))

	sink.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestListener_DispatchRehydratesTruncatedEvent(t *testing.T) {
	ctx := context.Background()
	sink := &MockPublisher{}
	loader := &MockSnapshotLoader{}
	id := kernel.NewUUID()
	payload, err := json.Marshal(newEvent(id.String(), nil).WithoutSnapshot())
	require.NoError(t, err)

	snapshot := views.Order{ID: id.String(), Status: "pending", TotalCents: 48240}
	mock.InOrder(
		loader.On("GetOrder", ctx, mock.MatchedBy(func(q queries.GetOrderQuery) bool {
			return q.OrderID().IsEqual(id)
		})).Return(snapshot, nil).Once(),
		sink.On("Publish", ctx, mock.MatchedBy(func(got events.OrderEvent) bool {
			return !got.Truncated && got.Order != nil && got.Order.TotalCents == 48240
		})).Return(nil).Once(),
	)

	newTestListener(sink, loader).dispatch(ctx, payload)

	loader.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestListener_DispatchForwardsTruncatedEventWhenReloadFails(t *testing.T) {
	ctx := context.Background()
	sink := &MockPublisher{}
	loader := &MockSnapshotLoader{}
	id := kernel.NewUUID()
	payload, err := json.Marshal(newEvent(id.String(), nil).WithoutSnapshot())
	require.NoError(t, err)

	loader.On("GetOrder", ctx, mock.Anything).
		Return(views.Order{}, errs.NewObjectNotFoundError("order", id)).Once()
	sink.On("Publish", ctx, mock.MatchedBy(func(got events.OrderEvent) bool {
		return got.Truncated && got.Order == nil
	})).Return(nil).Once()

	newTestListener(sink, loader).dispatch(ctx, payload)

	loader.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestListener_DispatchSwallowsSinkErrors(t *testing.T) {
	ctx := context.Background()
	sink := &MockPublisher{}
	payload, err := Encode(newEvent(kernel.NewUUID().String(), nil))
	require.NoError(t, err)

	sink.On("Publish", ctx, mock.Anything).Return(errors.New("closed")).Once()

	assert.NotPanics(t, func() { newTestListener(sink, nil).dispatch(ctx, payload) })
	sink.AssertExpectations(t)
}

func TestNewListener_Validates(t *testing.T) {
	_, err := NewListener(nil, "orders_events", &MockPublisher{}, nil, discardLogger())
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
}
