package queries

import (
	"context"
	"encoding/json"
	"strings"

	"mrdinner/internal/core/application/views"
	"mrdinner/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListRecentOrdersQueryHandler reads order summaries straight from the
// orders table, newest first. The ready flag is derived from the staff
// operations log stored in the meta column.
//
// Example:
//
//	handler := NewListRecentOrdersQueryHandler(db)
//	query, _ := NewListRecentOrdersQuery([]order.Status{order.Pending, order.Preparing}, nil, 50)
//
//	summaries, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return err
//	}
type ListRecentOrdersQueryHandler struct {
	db *gorm.DB
}

func NewListRecentOrdersQueryHandler(db *gorm.DB) ListRecentOrdersQueryHandler {
	return ListRecentOrdersQueryHandler{db: db}
}

func (h ListRecentOrdersQueryHandler) Handle(
	ctx context.Context,
	query ListRecentOrdersQuery,
) ([]views.Summary, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if statuses := query.Statuses(); len(statuses) > 0 {
		names := make([]string, 0, len(statuses))
		for _, s := range statuses {
			names = append(names, s.String())
		}
		where = append(where, "status IN ?")
		args = append(args, names)
	}
	if since := query.Since(); since != nil {
		where = append(where, "ordered_at >= ?")
		args = append(args, since.UTC())
	}

	sql := `
		SELECT
			id,
			status,
			meta,
			ordered_at,
			customer_id,
			order_source,
			subtotal_cents,
			total_cents,
			receiver_name,
			place_label
		FROM orders`
	if len(where) > 0 {
		sql += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	sql += "\n\t\tORDER BY ordered_at DESC\n\t\tLIMIT ?"
	args = append(args, query.Limit())

	rows, err := h.db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]views.Summary, 0, query.Limit())
	for rows.Next() {
		var (
			s    views.Summary
			id   uuid.UUID
			meta []byte
		)
		err = rows.Scan(
			&id,
			&s.Status,
			&meta,
			&s.OrderedAt,
			&s.CustomerID,
			&s.OrderSource,
			&s.SubtotalCents,
			&s.TotalCents,
			&s.ReceiverName,
			&s.PlaceLabel,
		)
		if err != nil {
			return nil, err
		}
		s.ID = id.String()
		s.Ready = readyFromMeta(meta)
		summaries = append(summaries, s)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

type staffOpsMeta struct {
	StaffOps []struct {
		Event string `json:"event"`
	} `json:"staff_ops"`
}

func readyFromMeta(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	var m staffOpsMeta
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	for _, op := range m.StaffOps {
		if op.Event == order.MarkReady.String() {
			return true
		}
	}
	return false
}
