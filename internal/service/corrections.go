package service

import (
	"context"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/pontofacil/internal/audit"
	"github.com/and161185/pontofacil/internal/civiltime"
	"github.com/and161185/pontofacil/internal/clock"
	"github.com/and161185/pontofacil/internal/correction"
	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/model"
	"github.com/and161185/pontofacil/internal/repository"
)

// CorrectionInput describes an administrative create or update of a punch.
// Date and Time are civil values in the deployment zone.
type CorrectionInput struct {
	Kind      model.Kind
	Date      string
	Time      string
	Lat       float64
	Lng       float64
	AccuracyM *float64
	DistanceM *float64
	Reason    string
}

// AuditFilter is the raw audit query as received from the caller.
type AuditFilter struct {
	EmployeeID     *uuid.UUID
	Action         string
	EventID        *uuid.UUID
	ReasonContains string
	StartDate      string
	EndDate        string
	Limit          int
	Cursor         string
}

// CorrectionService lets administrators inspect and rewrite punches. Every
// write is bounded by the correction window and leaves an audit record.
type CorrectionService interface {
	Create(ctx context.Context, admin *model.User, employeeID uuid.UUID, in CorrectionInput) (*model.ClockEvent, *model.User, error)
	Update(ctx context.Context, admin *model.User, eventID uuid.UUID, in CorrectionInput) (*model.ClockEvent, *model.User, error)
	Delete(ctx context.Context, admin *model.User, eventID uuid.UUID, reason string) error
	List(ctx context.Context, employeeID uuid.UUID, startDate, endDate string) ([]model.ClockEvent, *model.User, error)
	Last(ctx context.Context, employeeID uuid.UUID) (*model.ClockEvent, *model.User, error)
	Audit(ctx context.Context, f AuditFilter) (*model.AuditPage, error)
}

type CorrectionServiceImpl struct {
	users    repository.UserRepository
	events   repository.EventRepository
	audits   repository.AuditRepository
	settings repository.SettingsRepository
	zone     *civiltime.Zone
	clk      clock.Clock
}

// NewCorrectionService constructs CorrectionService.
func NewCorrectionService(
	users repository.UserRepository,
	events repository.EventRepository,
	audits repository.AuditRepository,
	settings repository.SettingsRepository,
	zone *civiltime.Zone,
	clk clock.Clock,
) *CorrectionServiceImpl {
	return &CorrectionServiceImpl{users: users, events: events, audits: audits, settings: settings, zone: zone, clk: clk}
}

// checkWindow reads the configured window fresh and checks target against now.
func (s *CorrectionServiceImpl) checkWindow(ctx context.Context, now, target time.Time) error {
	cfg, err := s.settings.CorrectionWindow(ctx)
	if err != nil {
		return err
	}
	return correction.Window{Days: cfg.WindowDays}.Check(now, target)
}

func (s *CorrectionServiceImpl) newRecord(admin *model.User, action model.AuditAction, employeeID uuid.UUID, eventID uuid.UUID, reason string, now time.Time) (*model.AuditRecord, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	return &model.AuditRecord{
		ID:         id,
		Action:     action,
		EventID:    &eventID,
		EmployeeID: employeeID,
		AdminID:    admin.ID,
		Reason:     reason,
		CreatedAt:  now.UTC(),
	}, nil
}

func (s *CorrectionServiceImpl) Create(ctx context.Context, admin *model.User, employeeID uuid.UUID, in CorrectionInput) (*model.ClockEvent, *model.User, error) {
	if err := audit.ValidateReason(in.Reason); err != nil {
		return nil, nil, err
	}
	if !in.Kind.Valid() {
		return nil, nil, errs.ErrInvalidKind
	}
	emp, err := loadEmployee(ctx, s.users, employeeID)
	if err != nil {
		return nil, nil, err
	}
	at, err := s.zone.At(in.Date, in.Time)
	if err != nil {
		return nil, nil, err
	}
	now := s.clk.Now()
	if err := s.checkWindow(ctx, now, at); err != nil {
		return nil, nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, nil, err
	}
	ev := &model.ClockEvent{
		ID:         id,
		UserID:     emp.ID,
		Kind:       in.Kind,
		RecordedAt: at,
		Lat:        in.Lat,
		Lng:        in.Lng,
		AccuracyM:  in.AccuracyM,
		DistanceM:  in.DistanceM,
	}
	rec, err := s.newRecord(admin, model.AuditCreate, emp.ID, ev.ID, in.Reason, now)
	if err != nil {
		return nil, nil, err
	}
	after := ev.Snapshot()
	rec.After = &after

	if err := s.events.CreateAudited(ctx, ev, rec); err != nil {
		return nil, nil, err
	}
	return ev, emp, nil
}

func (s *CorrectionServiceImpl) Update(ctx context.Context, admin *model.User, eventID uuid.UUID, in CorrectionInput) (*model.ClockEvent, *model.User, error) {
	if err := audit.ValidateReason(in.Reason); err != nil {
		return nil, nil, err
	}
	if !in.Kind.Valid() {
		return nil, nil, errs.ErrInvalidKind
	}
	cur, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	emp, err := loadEmployee(ctx, s.users, cur.UserID)
	if err != nil {
		return nil, nil, err
	}
	at, err := s.zone.At(in.Date, in.Time)
	if err != nil {
		return nil, nil, err
	}
	now := s.clk.Now()
	if err := s.checkWindow(ctx, now, at); err != nil {
		return nil, nil, err
	}

	before := cur.Snapshot()
	next := *cur
	next.Kind = in.Kind
	next.RecordedAt = at
	next.Lat = in.Lat
	next.Lng = in.Lng
	next.AccuracyM = in.AccuracyM
	next.DistanceM = in.DistanceM
	after := next.Snapshot()

	rec, err := s.newRecord(admin, model.AuditUpdate, emp.ID, cur.ID, in.Reason, now)
	if err != nil {
		return nil, nil, err
	}
	rec.Before = &before
	rec.After = &after

	if err := s.events.UpdateAudited(ctx, &next, rec); err != nil {
		return nil, nil, err
	}
	return &next, emp, nil
}

// Delete checks the window against the punch's current timestamp.
func (s *CorrectionServiceImpl) Delete(ctx context.Context, admin *model.User, eventID uuid.UUID, reason string) error {
	if err := audit.ValidateReason(reason); err != nil {
		return err
	}
	cur, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	emp, err := loadEmployee(ctx, s.users, cur.UserID)
	if err != nil {
		return err
	}
	now := s.clk.Now()
	if err := s.checkWindow(ctx, now, cur.RecordedAt); err != nil {
		return err
	}

	rec, err := s.newRecord(admin, model.AuditDelete, emp.ID, cur.ID, reason, now)
	if err != nil {
		return err
	}
	before := cur.Snapshot()
	rec.Before = &before
	return s.events.DeleteAudited(ctx, cur.ID, rec)
}

func (s *CorrectionServiceImpl) List(ctx context.Context, employeeID uuid.UUID, startDate, endDate string) ([]model.ClockEvent, *model.User, error) {
	from, to, err := s.zone.Range(startDate, endDate)
	if err != nil {
		return nil, nil, err
	}
	emp, err := s.users.GetByID(ctx, employeeID)
	if err != nil {
		return nil, nil, err
	}
	evs, err := s.events.List(ctx, employeeID, from, to, ListLimit)
	if err != nil {
		return nil, nil, err
	}
	return evs, emp, nil
}

func (s *CorrectionServiceImpl) Last(ctx context.Context, employeeID uuid.UUID) (*model.ClockEvent, *model.User, error) {
	emp, err := s.users.GetByID(ctx, employeeID)
	if err != nil {
		return nil, nil, err
	}
	ev, err := s.events.Last(ctx, employeeID)
	if err != nil {
		return nil, nil, err
	}
	return ev, emp, nil
}

// Audit resolves the filter into a keyset query and derives the next cursor.
func (s *CorrectionServiceImpl) Audit(ctx context.Context, f AuditFilter) (*model.AuditPage, error) {
	q := model.AuditQuery{
		EmployeeID:     f.EmployeeID,
		EventID:        f.EventID,
		ReasonContains: strings.TrimSpace(f.ReasonContains),
		Limit:          audit.ClampLimit(f.Limit),
	}
	if f.Action != "" {
		a, err := model.ParseAuditAction(f.Action)
		if err != nil {
			return nil, err
		}
		q.Action = &a
	}
	from, to, err := s.zone.Range(f.StartDate, f.EndDate)
	if err != nil {
		return nil, err
	}
	q.From, q.To = from, to
	if f.Cursor != "" {
		c, err := audit.DecodeCursor(f.Cursor)
		if err != nil {
			return nil, err
		}
		q.After = &c
	}

	items, err := s.audits.List(ctx, q)
	if err != nil {
		return nil, err
	}
	next, err := audit.NextCursor(items, q.Limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.AuditEntry{}
	}
	return &model.AuditPage{Items: items, NextCursor: next}, nil
}
