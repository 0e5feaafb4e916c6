package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mrdinner/internal/adapters/out/broker"
	"mrdinner/internal/core/application/usecases/queries"
	"mrdinner/internal/core/domain/model/order"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// Frame names written by the order stream besides the event names.
const (
	FrameReady     = "ready"
	FrameBootstrap = "bootstrap"
	FrameError     = "error"
)

// sseWriter writes server-sent event frames and flushes after each one.
type sseWriter struct {
	w       io.Writer
	flusher http.Flusher
}

func (s sseWriter) event(name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s sseWriter) comment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// StreamOrders handles GET /api/staff/sse/orders.
//
// The stream writes a ready frame, then a bootstrap frame with the most
// recent orders matching the filter, then every matching order event as it
// is published. The subscription is taken before the bootstrap is read, so
// no event committed in between is lost, though it may also appear in the
// bootstrap. Delivery is at most once: events dropped for a slow client or
// published while it was disconnected are not replayed.
func (s *Server) StreamOrders(c echo.Context) error {
	var (
		statusParam []string
		since       *time.Time
		limit       *int
	)
	if err := runtime.BindQueryParameter("form", false, false, "status", c.QueryParams(), &statusParam); err != nil {
		return validationProblem("status", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "since", c.QueryParams(), &since); err != nil {
		return validationProblem("since", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", c.QueryParams(), &limit); err != nil {
		return validationProblem("limit", err)
	}

	statuses, names, err := parseStatuses(statusParam)
	if err != nil {
		return err
	}
	query, err := queries.NewListRecentOrdersQuery(statuses, since, deref(limit))
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	sub := s.feed.Subscribe(names)
	defer sub.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream; charset=utf-8")
	res.Header().Set(echo.HeaderCacheControl, "no-cache, no-transform")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	stream := sseWriter{w: res, flusher: res}
	logger := s.logger.With("subscriber_id", sub.ID())
	logger.InfoContext(ctx, "Order stream opened", "statuses", names)
	defer func() {
		logger.InfoContext(ctx, "Order stream closed", "dropped", sub.Dropped())
	}()

	if err = stream.event(FrameReady, map[string]bool{"ok": true}); err != nil {
		return nil
	}

	summaries, err := s.orders.ListRecentOrders(ctx, query)
	if err != nil {
		logger.WarnContext(ctx, "Bootstrap failed", "error", err)
		err = stream.event(FrameError, map[string]string{"message": "bootstrap failed"})
	} else {
		err = stream.event(FrameBootstrap, map[string]any{"orders": summaries})
	}
	if err != nil {
		return nil
	}

	for {
		msg, err := sub.Next(ctx)
		switch {
		case errors.Is(err, broker.ErrSubscriptionClosed):
			_ = stream.event(FrameError, map[string]string{"message": "stream closed"})
			return nil
		case err != nil:
			return nil
		}

		if msg.Keepalive {
			err = stream.comment("keepalive")
		} else {
			err = stream.event(msg.Event.Event, msg.Event)
		}
		if err != nil {
			return nil
		}
	}
}

// parseStatuses splits and validates the status filter. It returns the
// statuses for the bootstrap query and their canonical names for the
// subscription.
func parseStatuses(raw []string) ([]order.Status, []string, error) {
	var (
		statuses []order.Status
		names    []string
	)
	for _, part := range raw {
		for _, name := range strings.Split(part, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			st, err := order.ParseStatus(name)
			if err != nil {
				return nil, nil, err
			}
			statuses = append(statuses, st)
			names = append(names, st.String())
		}
	}
	return statuses, names, nil
}
