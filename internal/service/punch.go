package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/pontofacil/internal/civiltime"
	"github.com/and161185/pontofacil/internal/clock"
	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/geofence"
	"github.com/and161185/pontofacil/internal/model"
	"github.com/and161185/pontofacil/internal/repository"
	"github.com/and161185/pontofacil/internal/sequence"
)

// Debounce is the minimum spacing between two auto-detected punches.
const Debounce = 15 * time.Second

// ListLimit caps punch and employee listings.
const ListLimit = 200

// PunchService records and lists an employee's own punches.
type PunchService interface {
	// Punch admits an explicitly typed punch.
	Punch(ctx context.Context, u *model.User, kind model.Kind, loc model.Location) (*model.ClockEvent, error)
	// AutoPunch infers the next kind from today's last punch.
	AutoPunch(ctx context.Context, u *model.User, loc model.Location) (*model.ClockEvent, error)
	// ListOwn returns the caller's punches in an optional civil date range, newest first.
	ListOwn(ctx context.Context, u *model.User, startDate, endDate string) ([]model.ClockEvent, error)
}

type PunchServiceImpl struct {
	events   repository.EventRepository
	settings repository.SettingsRepository
	zone     *civiltime.Zone
	clk      clock.Clock
}

// NewPunchService constructs PunchService.
func NewPunchService(events repository.EventRepository, settings repository.SettingsRepository, zone *civiltime.Zone, clk clock.Clock) *PunchServiceImpl {
	return &PunchServiceImpl{events: events, settings: settings, zone: zone, clk: clk}
}

func requireEmployee(u *model.User) error {
	if u == nil || !u.IsEmployee() {
		return errs.ErrRoleNotPermitted
	}
	return nil
}

// lastToday returns the kind of the most recent punch of the civil day containing now.
func (s *PunchServiceImpl) lastToday(ctx context.Context, userID uuid.UUID, now time.Time) (*model.Kind, error) {
	start, end, err := s.zone.DayBounds(s.zone.DateOf(now))
	if err != nil {
		return nil, err
	}
	last, err := s.events.LastBetween(ctx, userID, start, end)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	k := last.Kind
	return &k, nil
}

// measure evaluates the geofence against the current site, if any.
func (s *PunchServiceImpl) measure(ctx context.Context, loc model.Location) (*float64, error) {
	site, err := s.settings.Site(ctx)
	if errors.Is(err, errs.ErrNotFound) {
		site = nil
	} else if err != nil {
		return nil, err
	}
	return geofence.Check(site, loc)
}

func (s *PunchServiceImpl) record(ctx context.Context, u *model.User, kind model.Kind, loc model.Location, now time.Time) (*model.ClockEvent, error) {
	dist, err := s.measure(ctx, loc)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	ev := &model.ClockEvent{
		ID:         id,
		UserID:     u.ID,
		Kind:       kind,
		RecordedAt: now.UTC(),
		Lat:        loc.Lat,
		Lng:        loc.Lng,
		AccuracyM:  loc.AccuracyM,
		DistanceM:  dist,
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Punch checks the role, the strict order of today's punches and the geofence,
// then persists the event.
func (s *PunchServiceImpl) Punch(ctx context.Context, u *model.User, kind model.Kind, loc model.Location) (*model.ClockEvent, error) {
	if err := requireEmployee(u); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, errs.ErrInvalidKind
	}
	now := s.clk.Now()
	last, err := s.lastToday(ctx, u.ID, now)
	if err != nil {
		return nil, err
	}
	if err := sequence.Admit(last, kind); err != nil {
		return nil, err
	}
	return s.record(ctx, u, kind, loc, now)
}

// AutoPunch applies the debounce against the last punch of any day before
// inferring the kind. A closed day yields errs.ErrSequenceExhausted.
func (s *PunchServiceImpl) AutoPunch(ctx context.Context, u *model.User, loc model.Location) (*model.ClockEvent, error) {
	if err := requireEmployee(u); err != nil {
		return nil, err
	}
	now := s.clk.Now()

	prev, err := s.events.Last(ctx, u.ID)
	switch {
	case errors.Is(err, errs.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		if d := now.Sub(prev.RecordedAt); d >= 0 && d < Debounce {
			return nil, errs.ErrTooFrequent
		}
	}

	last, err := s.lastToday(ctx, u.ID, now)
	if err != nil {
		return nil, err
	}
	kind, err := sequence.Next(last)
	if errors.Is(err, errs.ErrDayAlreadyClosed) {
		return nil, errs.ErrSequenceExhausted
	}
	if err != nil {
		return nil, err
	}
	return s.record(ctx, u, kind, loc, now)
}

// ListOwn returns at most ListLimit punches.
func (s *PunchServiceImpl) ListOwn(ctx context.Context, u *model.User, startDate, endDate string) ([]model.ClockEvent, error) {
	if u == nil {
		return nil, errs.ErrUnauthorized
	}
	from, to, err := s.zone.Range(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.events.List(ctx, u.ID, from, to, ListLimit)
}
