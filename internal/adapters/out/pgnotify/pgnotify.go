// Package pgnotify carries order events between service instances over
// PostgreSQL LISTEN/NOTIFY.
//
// The Publisher sends every event with pg_notify on one channel. Each
// instance runs a Listener on that channel which decodes the envelopes and
// forwards them to its local distributor. NOTIFY payloads are limited to
// 8000 bytes, so oversized envelopes are sent without the order snapshot
// and the listener reloads it from the order store.
package pgnotify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"mrdinner/internal/core/application/events"
	"mrdinner/internal/core/application/usecases/queries"
	"mrdinner/internal/core/application/views"
	"mrdinner/internal/core/domain/model/kernel"
	"mrdinner/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// MaxPayloadBytes is the largest envelope sent with its snapshot attached.
const MaxPayloadBytes = 7900

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 10 * time.Second
)

var channelPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateChannel rejects channel names that are not plain identifiers.
func ValidateChannel(channel string) error {
	if channel == "" {
		return errs.NewValueIsRequiredError("channel")
	}
	if !channelPattern.MatchString(channel) {
		return errs.NewValueIsInvalidError("channel")
	}
	return nil
}

// Encode marshals event for NOTIFY, dropping the snapshot when the result
// would not fit.
func Encode(event events.OrderEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	if len(payload) <= MaxPayloadBytes {
		return payload, nil
	}

	payload, err = json.Marshal(event.WithoutSnapshot())
	if err != nil {
		return nil, err
	}
	if len(payload) > MaxPayloadBytes {
		return nil, errs.NewValueIsOutOfRangeError("payload", len(payload), 0, MaxPayloadBytes)
	}
	return payload, nil
}

// Publisher sends order events with pg_notify.
type Publisher struct {
	pool    *pgxpool.Pool
	channel string
	logger  *slog.Logger
}

func NewPublisher(pool *pgxpool.Pool, channel string, logger *slog.Logger) (*Publisher, error) {
	if pool == nil {
		return nil, errs.NewValueIsRequiredError("pool")
	}
	if err := ValidateChannel(channel); err != nil {
		return nil, err
	}
	return &Publisher{
		pool:    pool,
		channel: channel,
		logger:  logger.With("component", "pgnotify_publisher"),
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, event events.OrderEvent) error {
	payload, err := Encode(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Event, err)
	}

	if _, err = p.pool.Exec(ctx, "SELECT pg_notify($1, $2)", p.channel, string(payload)); err != nil {
		return fmt.Errorf("pg_notify %s: %w", p.channel, err)
	}
	p.logger.DebugContext(ctx, "Event notified", "channel", p.channel, "event", event.Event,
		"order_id", event.OrderID, "bytes", len(payload))
	return nil
}

// SnapshotLoader reloads an order for envelopes that arrived truncated.
type SnapshotLoader interface {
	GetOrder(ctx context.Context, query queries.GetOrderQuery) (views.Order, error)
}

// Listener forwards notifications received on a channel to sink.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	sink    events.Publisher
	loader  SnapshotLoader
	logger  *slog.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewListener builds a listener. loader may be nil, in which case truncated
// envelopes are forwarded without a snapshot.
func NewListener(pool *pgxpool.Pool, channel string, sink events.Publisher, loader SnapshotLoader, logger *slog.Logger) (*Listener, error) {
	if pool == nil {
		return nil, errs.NewValueIsRequiredError("pool")
	}
	if sink == nil {
		return nil, errs.NewValueIsRequiredError("sink")
	}
	if err := ValidateChannel(channel); err != nil {
		return nil, err
	}
	return &Listener{
		pool:       pool,
		channel:    channel,
		sink:       sink,
		loader:     loader,
		logger:     logger.With("component", "pgnotify_listener", "channel", channel),
		minBackoff: minBackoff,
		maxBackoff: maxBackoff,
	}, nil
}

// Run listens until ctx is canceled. A lost connection is re-established
// after a delay that starts at half a second and doubles up to ten seconds.
func (l *Listener) Run(ctx context.Context) error {
	backoff := l.minBackoff
	for {
		err := l.listen(ctx, func() { backoff = l.minBackoff })
		if ctx.Err() != nil {
			return nil
		}
		l.logger.WarnContext(ctx, "Listen loop failed, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, l.maxBackoff)
	}
}

func (l *Listener) listen(ctx context.Context, onListening func()) error {
	pooled, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	// The session stays subscribed, so it must never return to the pool.
	conn := pooled.Hijack()
	defer func() { _ = conn.Close(context.Background()) }()

	if _, err = conn.Exec(ctx, "LISTEN "+pq.QuoteIdentifier(l.channel)); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	onListening()
	l.logger.InfoContext(ctx, "Listening for order events")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.dispatch(ctx, []byte(n.Payload))
	}
}

func (l *Listener) dispatch(ctx context.Context, payload []byte) {
	event, err := events.Decode(payload)
	if err != nil {
		l.logger.WarnContext(ctx, "Dropping malformed notification", "error", err, "bytes", len(payload))
		return
	}

	if event.Truncated {
		event = l.rehydrate(ctx, event)
	}

	if err = l.sink.Publish(ctx, event); err != nil {
		l.logger.WarnContext(ctx, "Forwarding order event failed", "event", event.Event,
			"order_id", event.OrderID, "error", err)
	}
}

func (l *Listener) rehydrate(ctx context.Context, event events.OrderEvent) events.OrderEvent {
	if l.loader == nil {
		return event
	}

	id, err := kernel.UUIDFromString(event.OrderID)
	if err != nil {
		l.logger.WarnContext(ctx, "Truncated event has an invalid order id", "order_id", event.OrderID)
		return event
	}
	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return event
	}

	snapshot, err := l.loader.GetOrder(ctx, query)
	if err != nil {
		l.logger.WarnContext(ctx, "Reloading order snapshot failed", "order_id", event.OrderID, "error", err)
		return event
	}
	event.Order = &snapshot
	event.Truncated = false
	return event
}
