// Package rabbitmq carries order events between service instances through a
// RabbitMQ fanout exchange.
//
// Every instance publishes to the same exchange and consumes from its own
// exclusive, auto-deleted queue bound to it, so each event reaches every
// running instance once. Messages are transient: an instance that is down
// misses them and its observers recover from a fresh bootstrap.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mrdinner/internal/core/application/events"
	"mrdinner/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchangeKind   = "fanout"
	publishTimeout = 10 * time.Second
	minBackoff     = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second
)

// session is one connection with one channel on which the exchange has been
// declared.
type session struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func openSession(url, exchange string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,     // name
		exchangeKind, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &session{conn: conn, ch: ch}, nil
}

func (s *session) closed() bool {
	return s == nil || s.conn.IsClosed() || s.ch.IsClosed()
}

func (s *session) close() {
	if s == nil {
		return
	}
	_ = s.ch.Close()
	_ = s.conn.Close()
}

// Publisher sends order events to the fanout exchange. The connection is
// re-established on the next Publish after it was lost.
type Publisher struct {
	url      string
	exchange string
	logger   *slog.Logger

	mu      sync.Mutex
	session *session
}

// NewPublisher connects to url and declares exchange.
func NewPublisher(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	if url == "" {
		return nil, errs.NewValueIsRequiredError("url")
	}
	if exchange == "" {
		return nil, errs.NewValueIsRequiredError("exchange")
	}

	s, err := openSession(url, exchange)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		url:      url,
		exchange: exchange,
		logger:   logger.With("component", "rabbitmq_publisher", "exchange", exchange),
		session:  s,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, event events.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Event, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session.closed() {
		p.session.close()
		p.session = nil
		s, err := openSession(p.url, p.exchange)
		if err != nil {
			return err
		}
		p.session = s
		p.logger.InfoContext(ctx, "Reconnected to RabbitMQ")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.session.ch.PublishWithContext(ctx,
		p.exchange, // exchange
		"",         // routing key (ignored for fanout)
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient,
			Type:         event.Event,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.exchange, err)
	}

	p.logger.DebugContext(ctx, "Event published", "event", event.Event, "order_id", event.OrderID, "bytes", len(body))
	return nil
}

// Close closes the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session.close()
	p.session = nil
	return nil
}

// Consumer binds a private queue to the exchange and forwards every event to
// sink.
type Consumer struct {
	url      string
	exchange string
	sink     events.Publisher
	logger   *slog.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewConsumer(url, exchange string, sink events.Publisher, logger *slog.Logger) (*Consumer, error) {
	if url == "" {
		return nil, errs.NewValueIsRequiredError("url")
	}
	if exchange == "" {
		return nil, errs.NewValueIsRequiredError("exchange")
	}
	if sink == nil {
		return nil, errs.NewValueIsRequiredError("sink")
	}
	return &Consumer{
		url:        url,
		exchange:   exchange,
		sink:       sink,
		logger:     logger.With("component", "rabbitmq_consumer", "exchange", exchange),
		minBackoff: minBackoff,
		maxBackoff: maxBackoff,
	}, nil
}

// Run consumes until ctx is canceled, reconnecting with a delay that starts
// at half a second and doubles up to ten seconds.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.minBackoff
	for {
		err := c.consume(ctx, func() { backoff = c.minBackoff })
		if ctx.Err() != nil {
			return nil
		}
		c.logger.WarnContext(ctx, "Consumer stopped, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.maxBackoff)
	}
}

func (c *Consumer) consume(ctx context.Context, onConsuming func()) error {
	s, err := openSession(c.url, c.exchange)
	if err != nil {
		return err
	}
	defer s.close()

	q, err := s.ch.QueueDeclare(
		"",    // name, server generated
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err = s.ch.QueueBind(q.Name, "", c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", q.Name, err)
	}

	deliveries, err := s.ch.ConsumeWithContext(ctx,
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", q.Name, err)
	}
	onConsuming()
	c.logger.InfoContext(ctx, "Consuming order events", "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return amqp.ErrClosed
			}
			c.forward(ctx, d.Body)
		}
	}
}

func (c *Consumer) forward(ctx context.Context, body []byte) {
	event, err := events.Decode(body)
	if err != nil {
		c.logger.WarnContext(ctx, "Dropping malformed message", "error", err, "bytes", len(body))
		return
	}
	if err = c.sink.Publish(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "Forwarding order event failed", "event", event.Event,
			"order_id", event.OrderID, "error", err)
	}
}
