// Package broker fans order events out to live observers inside one process.
//
// Every subscriber owns a bounded queue. Publishing never blocks: when a
// queue is full its oldest message is dropped and the subscriber's drop
// counter grows. A slow stream therefore loses history instead of stalling
// the publisher or other streams, and recovers by reconnecting for a fresh
// bootstrap snapshot.
package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"mrdinner/internal/core/application/events"
)

// ErrSubscriptionClosed is returned by Next once the subscription was closed.
var ErrSubscriptionClosed = errors.New("subscription closed")

// DefaultBuffer is the queue size used when NewHub gets a non-positive one.
const DefaultBuffer = 64

// Message is one queued item: an order event or a keepalive tick.
type Message struct {
	Event     *events.OrderEvent
	Keepalive bool
}

// Stats is a snapshot of the hub counters.
type Stats struct {
	Subscribers int
	Published   uint64
	Dropped     uint64
}

// Hub is the in-process event distributor.
type Hub struct {
	buffer int
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64

	published atomic.Uint64
	dropped   atomic.Uint64
}

func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer: buffer,
		logger: logger.With("component", "event_hub"),
		subs:   make(map[uint64]*Subscription),
	}
}

// Subscribe registers a new observer. An empty statuses list receives every
// event, otherwise only events whose current or previous status is listed.
func (h *Hub) Subscribe(statuses []string) *Subscription {
	filter := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		filter[s] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:     h.nextID,
		hub:    h,
		filter: filter,
		limit:  h.buffer,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	h.subs[sub.id] = sub
	h.logger.Debug("Subscriber joined", "subscriber_id", sub.id, "subscribers", len(h.subs))
	return sub
}

// Publish queues event on every matching subscription. It never blocks and
// never fails.
func (h *Hub) Publish(_ context.Context, event events.OrderEvent) error {
	h.published.Add(1)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if !event.MatchesStatus(sub.filter) {
			continue
		}
		ev := event
		if sub.push(Message{Event: &ev}) {
			h.dropped.Add(1)
		}
	}
	return nil
}

// Keepalive queues a keepalive tick on every subscription whose queue is
// empty, so idle streams keep their connection open.
func (h *Hub) Keepalive() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, sub := range h.subs {
		if sub.pushIfIdle(Message{Keepalive: true}) {
			sent++
		}
	}
	return sent
}

// Stats returns the current counters.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	n := len(h.subs)
	h.mu.RUnlock()

	return Stats{
		Subscribers: n,
		Published:   h.published.Load(),
		Dropped:     h.dropped.Load(),
	}
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[uint64]*Subscription)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.closeOnce.Do(func() { close(sub.done) })
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	n := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("Subscriber left", "subscriber_id", id, "subscribers", n)
}

// Subscription is one observer's queue.
type Subscription struct {
	id     uint64
	hub    *Hub
	filter map[string]struct{}
	limit  int

	mu      sync.Mutex
	queue   []Message
	dropped uint64

	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// ID identifies the subscription in logs.
func (s *Subscription) ID() uint64 {
	return s.id
}

// Next waits for the next queued message.
func (s *Subscription) Next(ctx context.Context) (Message, error) {
	for {
		if msg, ok := s.pop(); ok {
			return msg, nil
		}

		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case <-s.done:
			return Message{}, ErrSubscriptionClosed
		case <-s.notify:
		}
	}
}

// Dropped is how many messages this subscription lost to a full queue.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close removes the subscription from the hub. It is safe to call more
// than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.hub.remove(s.id)
	})
}

// push appends msg, dropping the oldest message when the queue is full.
// It reports whether a message was dropped.
func (s *Subscription) push(msg Message) bool {
	s.mu.Lock()
	dropped := false
	if len(s.queue) >= s.limit {
		s.queue = s.queue[1:]
		s.dropped++
		dropped = true
	}
	s.queue = append(s.queue, msg)
	s.mu.Unlock()

	s.wake()
	return dropped
}

func (s *Subscription) pushIfIdle(msg Message) bool {
	s.mu.Lock()
	if len(s.queue) > 0 {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, msg)
	s.mu.Unlock()

	s.wake()
	return true
}

func (s *Subscription) pop() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return Message{}, false
	}
	msg := s.queue[0]
	s.queue[0] = Message{}
	s.queue = s.queue[1:]
	return msg, true
}

func (s *Subscription) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

var _ events.Publisher = (*Hub)(nil)
