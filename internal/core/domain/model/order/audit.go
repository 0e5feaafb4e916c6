package order

import (
	"time"
)

// AuditEntry is one record of the order's append-only staff operations log.
type AuditEntry struct {
	Event     string
	Actor     string
	Timestamp time.Time
	Note      string
}

// readyEvent marks kitchen completion. The ready flag is derived from the log.
const readyEvent = "mark_ready"

func isReady(log []AuditEntry) bool {
	for _, e := range log {
		if e.Event == readyEvent {
			return true
		}
	}
	return false
}
