package events

import (
	"context"
	"log/slog"
)

// CommitHooks is the part of a unit of work the notifier needs.
type CommitHooks interface {
	AfterCommit(fn func(ctx context.Context))
}

// Notifier schedules events to be published after commit.
type Notifier struct {
	publisher Publisher
	logger    *slog.Logger
}

func NewNotifier(publisher Publisher, logger *slog.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		logger:    logger.With("component", "order_notifier"),
	}
}

// NotifyOnCommit registers the publication of event on hooks. Publish errors
// are logged and swallowed.
func (n *Notifier) NotifyOnCommit(hooks CommitHooks, event OrderEvent) {
	hooks.AfterCommit(func(ctx context.Context) {
		if err := n.publisher.Publish(ctx, event); err != nil {
			n.logger.WarnContext(ctx, "Publishing order event failed",
				"event", event.Event, "order_id", event.OrderID, "error", err)
			return
		}
		n.logger.DebugContext(ctx, "Order event published", "event", event.Event, "order_id", event.OrderID)
	})
}
