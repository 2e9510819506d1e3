package model

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/pontofacil/internal/errs"
)

// AuditAction names an administrative mutation of a punch.
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// ParseAuditAction validates an action filter.
func ParseAuditAction(s string) (AuditAction, error) {
	switch a := AuditAction(s); a {
	case AuditCreate, AuditUpdate, AuditDelete:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", errs.ErrInvalidAction, s)
}

// EventSnapshot is the JSON shape stored in audit before/after columns.
type EventSnapshot struct {
	ID         string   `json:"id"`
	UserID     string   `json:"user_id"`
	Kind       string   `json:"tipo"`
	RecordedAt string   `json:"registrado_em"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	AccuracyM  *float64 `json:"accuracy_m"`
	DistanceM  *float64 `json:"distancia_m"`
}

// Snapshot captures every field of the event; the timestamp is RFC 3339 in UTC.
func (e ClockEvent) Snapshot() EventSnapshot {
	return EventSnapshot{
		ID:         e.ID.String(),
		UserID:     e.UserID.String(),
		Kind:       e.Kind.String(),
		RecordedAt: e.RecordedAt.UTC().Format(time.RFC3339Nano),
		Lat:        e.Lat,
		Lng:        e.Lng,
		AccuracyM:  e.AccuracyM,
		DistanceM:  e.DistanceM,
	}
}

// AuditRecord is an append-only record of one administrative change.
type AuditRecord struct {
	ID         uuid.UUID
	Action     AuditAction
	EventID    *uuid.UUID
	EmployeeID uuid.UUID
	AdminID    uuid.UUID
	Reason     string
	Before     *EventSnapshot // nil on create
	After      *EventSnapshot // nil on delete
	CreatedAt  time.Time
}

// AuditEntry is an audit record as listed, joined with display data.
// Snapshots are decoded loosely; a corrupted column yields nil.
type AuditEntry struct {
	ID            uuid.UUID
	Action        AuditAction
	EventID       *uuid.UUID
	EmployeeID    uuid.UUID
	EmployeeEmail string
	EmployeeName  string
	AdminID       uuid.UUID
	AdminEmail    string
	Reason        string
	Before        map[string]any
	After         map[string]any
	CreatedAt     time.Time
}

// AuditQuery filters an audit listing. Range bounds are UTC instants.
type AuditQuery struct {
	EmployeeID     *uuid.UUID
	Action         *AuditAction
	EventID        *uuid.UUID
	ReasonContains string
	From           *time.Time
	To             *time.Time // exclusive
	After          *AuditCursor
	Limit          int
}

// AuditCursor is the keyset position of the last returned row.
type AuditCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// AuditPage is one page of audit entries. NextCursor is empty on the last page.
type AuditPage struct {
	Items      []AuditEntry
	NextCursor string
}
