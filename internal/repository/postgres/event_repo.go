package postgres

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/pontofacil/internal/audit"
	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/model"
)

// EventRepo implements EventRepository using PostgreSQL.
type EventRepo struct{ db *DB }

// NewEventRepo constructs a punch repository.
func NewEventRepo(db *DB) *EventRepo { return &EventRepo{db: db} }

const eventCols = `id, user_id, kind, recorded_at, lat, lng, accuracy_m, distance_m`

func scanEvent(row pgx.Row) (*model.ClockEvent, error) {
	var e model.ClockEvent
	if err := row.Scan(&e.ID, &e.UserID, &e.Kind, &e.RecordedAt, &e.Lat, &e.Lng, &e.AccuracyM, &e.DistanceM); err != nil {
		return nil, notFound(err)
	}
	e.RecordedAt = e.RecordedAt.UTC()
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]model.ClockEvent, error) {
	defer rows.Close()
	out := make([]model.ClockEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func insertEvent(ctx context.Context, q querier, e *model.ClockEvent) error {
	const ins = `
INSERT INTO clock_events (id, user_id, kind, recorded_at, lat, lng, accuracy_m, distance_m)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.Exec(ctx, ins, e.ID, e.UserID, string(e.Kind), e.RecordedAt, e.Lat, e.Lng, e.AccuracyM, e.DistanceM)
	return err
}

func insertAudit(ctx context.Context, q querier, rec *model.AuditRecord) error {
	before, err := audit.EncodeSnapshot(rec.Before)
	if err != nil {
		return err
	}
	after, err := audit.EncodeSnapshot(rec.After)
	if err != nil {
		return err
	}
	const ins = `
INSERT INTO event_audit (id, action, event_id, employee_id, admin_id, reason, before_json, after_json, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = q.Exec(ctx, ins, rec.ID, string(rec.Action), rec.EventID, rec.EmployeeID, rec.AdminID,
		rec.Reason, before, after, rec.CreatedAt)
	return err
}

// Create inserts a punch.
func (r *EventRepo) Create(ctx context.Context, e *model.ClockEvent) error {
	return insertEvent(ctx, r.db.Pool, e)
}

// GetByID selects a punch by ID.
func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.ClockEvent, error) {
	q := `SELECT ` + eventCols + ` FROM clock_events WHERE id=$1`
	return scanEvent(r.db.Pool.QueryRow(ctx, q, id))
}

// Last selects the user's most recent punch.
func (r *EventRepo) Last(ctx context.Context, userID uuid.UUID) (*model.ClockEvent, error) {
	q := `SELECT ` + eventCols + ` FROM clock_events WHERE user_id=$1 ORDER BY recorded_at DESC, id DESC LIMIT 1`
	return scanEvent(r.db.Pool.QueryRow(ctx, q, userID))
}

// LastBetween selects the most recent punch in [from, to).
func (r *EventRepo) LastBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (*model.ClockEvent, error) {
	q := `SELECT ` + eventCols + ` FROM clock_events
WHERE user_id=$1 AND recorded_at >= $2 AND recorded_at < $3
ORDER BY recorded_at DESC, id DESC LIMIT 1`
	return scanEvent(r.db.Pool.QueryRow(ctx, q, userID, from, to))
}

// Between selects every punch in [from, to), oldest first.
func (r *EventRepo) Between(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.ClockEvent, error) {
	q := `SELECT ` + eventCols + ` FROM clock_events
WHERE user_id=$1 AND recorded_at >= $2 AND recorded_at < $3
ORDER BY recorded_at ASC, id ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID, from, to)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// List selects up to limit punches, newest first.
func (r *EventRepo) List(ctx context.Context, userID uuid.UUID, from, to *time.Time, limit int) ([]model.ClockEvent, error) {
	q := `SELECT ` + eventCols + ` FROM clock_events
WHERE user_id=$1
  AND ($2::timestamptz IS NULL OR recorded_at >= $2)
  AND ($3::timestamptz IS NULL OR recorded_at < $3)
ORDER BY recorded_at DESC, id DESC LIMIT $4`
	rows, err := r.db.Pool.Query(ctx, q, userID, from, to, limit)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// CreateAudited inserts a punch and its audit record in one transaction.
func (r *EventRepo) CreateAudited(ctx context.Context, e *model.ClockEvent, rec *model.AuditRecord) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := insertEvent(ctx, tx, e); err != nil {
			return err
		}
		return insertAudit(ctx, tx, rec)
	})
}

// UpdateAudited rewrites a punch and appends its audit record in one transaction.
func (r *EventRepo) UpdateAudited(ctx context.Context, e *model.ClockEvent, rec *model.AuditRecord) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		const upd = `
UPDATE clock_events
SET kind=$2, recorded_at=$3, lat=$4, lng=$5, accuracy_m=$6, distance_m=$7
WHERE id=$1`
		tag, err := tx.Exec(ctx, upd, e.ID, string(e.Kind), e.RecordedAt, e.Lat, e.Lng, e.AccuracyM, e.DistanceM)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		return insertAudit(ctx, tx, rec)
	})
}

// DeleteAudited removes a punch and appends its audit record in one transaction.
func (r *EventRepo) DeleteAudited(ctx context.Context, id uuid.UUID, rec *model.AuditRecord) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM clock_events WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}
		return insertAudit(ctx, tx, rec)
	})
}
