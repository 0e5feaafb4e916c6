// Package events defines the order event envelope and the notifier that
// publishes it once the enclosing transaction has committed.
//
// Delivery is best effort: a publish failure is logged and never fails the
// business operation, and observers that miss an event recover from the
// next one or from a fresh bootstrap snapshot.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mrdinner/internal/core/application/views"
	"mrdinner/internal/core/domain/model/order"
	"mrdinner/internal/pkg/errs"
)

// Version is the envelope schema version written by this build.
const Version = 1

// Event names.
const (
	OrderCreated       = "order_created"
	OrderStatusChanged = "order_status_changed"
	OrderUpdated       = "order_updated"
)

// OrderEvent is the envelope published for every order change. Order holds
// the full snapshot unless Truncated is set, in which case receivers reload
// it by OrderID.
type OrderEvent struct {
	Version        int            `json:"version"`
	Event          string         `json:"event"`
	OrderID        string         `json:"order_id"`
	Status         string         `json:"status"`
	PreviousStatus string         `json:"previous_status,omitempty"`
	Ready          bool           `json:"ready"`
	Order          *views.Order   `json:"order,omitempty"`
	Truncated      bool           `json:"truncated,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

// NewOrderEvent snapshots o. previous is the status before a transition and
// is left empty for other events.
func NewOrderEvent(name string, o *order.Order, previous string, extra map[string]any, at time.Time) OrderEvent {
	snapshot := views.FromOrder(o)
	return OrderEvent{
		Version:        Version,
		Event:          name,
		OrderID:        snapshot.ID,
		Status:         snapshot.Status,
		PreviousStatus: previous,
		Ready:          snapshot.Ready,
		Order:          &snapshot,
		Extra:          extra,
		OccurredAt:     at.UTC(),
	}
}

// Decode parses an envelope received from a transport and checks its version.
func Decode(payload []byte) (OrderEvent, error) {
	var ev OrderEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return OrderEvent{}, errs.NewValueIsInvalidErrorWithCause("event", err)
	}
	if ev.Version != Version {
		return OrderEvent{}, errs.NewVersionIsInvalidError("version",
			fmt.Errorf("got %d, want %d", ev.Version, Version))
	}
	if ev.Event == "" || ev.OrderID == "" {
		return OrderEvent{}, errs.NewValueIsRequiredError("event")
	}
	return ev, nil
}

// WithoutSnapshot returns a copy that carries no order snapshot.
func (e OrderEvent) WithoutSnapshot() OrderEvent {
	e.Order = nil
	e.Truncated = true
	return e
}

// MatchesStatus reports whether the event concerns an order that is in, or
// just left, one of statuses. An empty set matches everything.
func (e OrderEvent) MatchesStatus(statuses map[string]struct{}) bool {
	if len(statuses) == 0 {
		return true
	}
	if _, ok := statuses[e.Status]; ok {
		return true
	}
	if e.PreviousStatus == "" {
		return false
	}
	_, ok := statuses[e.PreviousStatus]
	return ok
}

// Publisher delivers events to observers, locally or through a broker.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}
