package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"mrdinner/internal/core/application/events"
	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingOrder(t *testing.T) *order.Order {
	t.Helper()
	payment, err := order.NewPayment("tok_1", "4242")
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), 7, order.ChannelGUI,
		order.Delivery{ReceiverName: "Kim"}, payment, map[string]any{"note": "ring twice"}, time.Now().UTC())
	require.NoError(t, err)
	return o
}

func TestNewOrderEvent(t *testing.T) {
	o := newPendingOrder(t)
	_, err := o.Execute(order.Accept, "kitchen", "", time.Now())
	require.NoError(t, err)

	ev := events.NewOrderEvent(events.OrderStatusChanged, o, "pending", nil, time.Now())

	assert.Equal(t, events.Version, ev.Version)
	assert.Equal(t, o.ID().String(), ev.OrderID)
	assert.Equal(t, "preparing", ev.Status)
	assert.Equal(t, "pending", ev.PreviousStatus)
	assert.False(t, ev.Ready)
	require.NotNil(t, ev.Order)
	assert.Equal(t, "Kim", ev.Order.ReceiverName)
	require.Len(t, ev.Order.StaffOps, 1)
	assert.Equal(t, "accept", ev.Order.StaffOps[0].Event)
}

func TestDecode(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		ev := events.NewOrderEvent(events.OrderCreated, newPendingOrder(t), "", map[string]any{"source": "api"}, time.Now())
		payload, err := json.Marshal(ev)
		require.NoError(t, err)

		got, err := events.Decode(payload)

		require.NoError(t, err)
		assert.Equal(t, ev.OrderID, got.OrderID)
		assert.Equal(t, events.OrderCreated, got.Event)
		assert.Equal(t, "api", got.Extra["source"])
	})

	t.Run("unknown version", func(t *testing.T) {
		_, err := events.Decode([]byte(`{"version":2,"event":"order_created","order_id":"x"}`))

		require.ErrorIs(t, err, errs.ErrVersionIsInvalid)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := events.Decode([]byte(`{"version":`))

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("missing order id", func(t *testing.T) {
		_, err := events.Decode([]byte(`{"version":1,"event":"order_created"}`))

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestOrderEvent_MatchesStatus(t *testing.T) {
	filter := map[string]struct{}{"pending": {}}

	tests := []struct {
		name string
		ev   events.OrderEvent
		want bool
	}{
		{name: "current status", ev: events.OrderEvent{Status: "pending"}, want: true},
		{name: "left the filtered status", ev: events.OrderEvent{Status: "preparing", PreviousStatus: "pending"}, want: true},
		{name: "unrelated", ev: events.OrderEvent{Status: "delivered", PreviousStatus: "out_for_delivery"}},
		{name: "unrelated without previous", ev: events.OrderEvent{Status: "preparing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ev.MatchesStatus(filter))
			assert.True(t, tt.ev.MatchesStatus(nil))
		})
	}
}

func TestOrderEvent_WithoutSnapshot(t *testing.T) {
	ev := events.NewOrderEvent(events.OrderCreated, newPendingOrder(t), "", nil, time.Now())

	light := ev.WithoutSnapshot()

	assert.Nil(t, light.Order)
	assert.True(t, light.Truncated)
	assert.NotNil(t, ev.Order)
}
