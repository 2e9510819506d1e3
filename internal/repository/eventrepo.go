package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/pontofacil/internal/model"
)

// EventRepository stores punches. Administrative writes go through the
// *Audited methods, which persist the change and its audit record atomically.
type EventRepository interface {
	// Create inserts a self-service punch.
	Create(ctx context.Context, e *model.ClockEvent) error
	// GetByID loads one punch.
	GetByID(ctx context.Context, id uuid.UUID) (*model.ClockEvent, error)
	// Last returns the user's most recent punch of any day.
	Last(ctx context.Context, userID uuid.UUID) (*model.ClockEvent, error)
	// LastBetween returns the most recent punch in [from, to).
	LastBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (*model.ClockEvent, error)
	// Between returns all punches in [from, to), oldest first.
	Between(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.ClockEvent, error)
	// List returns punches newest first; nil bounds leave that side open.
	List(ctx context.Context, userID uuid.UUID, from, to *time.Time, limit int) ([]model.ClockEvent, error)

	CreateAudited(ctx context.Context, e *model.ClockEvent, rec *model.AuditRecord) error
	UpdateAudited(ctx context.Context, e *model.ClockEvent, rec *model.AuditRecord) error
	DeleteAudited(ctx context.Context, id uuid.UUID, rec *model.AuditRecord) error
}

// AuditRepository reads the audit trail.
type AuditRepository interface {
	// List returns entries ordered by (created_at, id) descending.
	List(ctx context.Context, q model.AuditQuery) ([]model.AuditEntry, error)
}
