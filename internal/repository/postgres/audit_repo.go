package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/pontofacil/internal/audit"
	"github.com/and161185/pontofacil/internal/model"
)

// AuditRepo implements AuditRepository using PostgreSQL.
type AuditRepo struct{ db *DB }

// NewAuditRepo constructs an audit trail reader.
func NewAuditRepo(db *DB) *AuditRepo { return &AuditRepo{db: db} }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildAuditQuery renders the filtered keyset query and its arguments.
func buildAuditQuery(f model.AuditQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.EmployeeID != nil {
		where = append(where, "a.employee_id = "+arg(*f.EmployeeID))
	}
	if f.Action != nil {
		where = append(where, "a.action = "+arg(string(*f.Action)))
	}
	if f.EventID != nil {
		where = append(where, "a.event_id = "+arg(*f.EventID))
	}
	if f.ReasonContains != "" {
		where = append(where, "a.reason ILIKE "+arg("%"+likeEscaper.Replace(f.ReasonContains)+"%"))
	}
	if f.From != nil {
		where = append(where, "a.created_at >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "a.created_at < "+arg(*f.To))
	}
	if f.After != nil {
		at, id := arg(f.After.CreatedAt), arg(f.After.ID)
		where = append(where, fmt.Sprintf("(a.created_at < %s OR (a.created_at = %s AND a.id < %s))", at, at, id))
	}

	var b strings.Builder
	b.WriteString(`SELECT a.id, a.action, a.event_id, a.employee_id, e.email, COALESCE(e.name, ''),
a.admin_id, ad.email, a.reason, a.before_json, a.after_json, a.created_at
FROM event_audit a
JOIN users e ON e.id = a.employee_id
JOIN users ad ON ad.id = a.admin_id`)
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString("\nORDER BY a.created_at DESC, a.id DESC\nLIMIT ")
	b.WriteString(arg(f.Limit))
	return b.String(), args
}

// List returns one page of the audit trail.
func (r *AuditRepo) List(ctx context.Context, f model.AuditQuery) ([]model.AuditEntry, error) {
	q, args := buildAuditQuery(f)
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.AuditEntry, 0)
	for rows.Next() {
		var (
			e             model.AuditEntry
			before, after *string
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.EventID, &e.EmployeeID, &e.EmployeeEmail, &e.EmployeeName,
			&e.AdminID, &e.AdminEmail, &e.Reason, &before, &after, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.CreatedAt = e.CreatedAt.UTC()
		e.Before = audit.DecodeSnapshot(before)
		e.After = audit.DecodeSnapshot(after)
		out = append(out, e)
	}
	return out, rows.Err()
}
