// Package order provides the Order aggregate root: a guest order with its
// priced dinner packages, delivery and payment snapshots, discount breakdown
// and staff audit log.
//
// The package includes:
//   - Order: the aggregate root, created pending and edited only while pending
//   - Dinner, Item, OptionSnapshot: priced line snapshots owned by the order
//   - Status and Action: the lifecycle state machine
//   - AuditEntry: the append-only staff operations log
//
// Key business rules:
//   - Status follows pending -> preparing -> out_for_delivery -> delivered
//   - Any non-final status may be canceled; delivered and canceled are final
//   - mark_ready keeps the order preparing and only adds an audit entry
//   - The ready flag is computed from the audit log on every read
//   - total = subtotal - discount and none of them is negative
package order
