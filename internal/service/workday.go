package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/pontofacil/internal/civiltime"
	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/model"
	"github.com/and161185/pontofacil/internal/repository"
	"github.com/and161185/pontofacil/internal/workday"
)

// WorkdayService reconstructs civil days.
type WorkdayService interface {
	// Own reconstructs the caller's day; administrators are refused.
	Own(ctx context.Context, u *model.User, date string) (workday.Day, error)
	// ForEmployee reconstructs an employee's day for an administrator.
	ForEmployee(ctx context.Context, employeeID uuid.UUID, date string) (*model.User, workday.Day, error)
}

type WorkdayServiceImpl struct {
	users    repository.UserRepository
	events   repository.EventRepository
	settings repository.SettingsRepository
	zone     *civiltime.Zone
}

// NewWorkdayService constructs WorkdayService.
func NewWorkdayService(users repository.UserRepository, events repository.EventRepository, settings repository.SettingsRepository, zone *civiltime.Zone) *WorkdayServiceImpl {
	return &WorkdayServiceImpl{users: users, events: events, settings: settings, zone: zone}
}

func (s *WorkdayServiceImpl) Own(ctx context.Context, u *model.User, date string) (workday.Day, error) {
	if err := requireEmployee(u); err != nil {
		return workday.Day{}, err
	}
	return s.day(ctx, u.ID, date)
}

func (s *WorkdayServiceImpl) ForEmployee(ctx context.Context, employeeID uuid.UUID, date string) (*model.User, workday.Day, error) {
	u, err := loadEmployee(ctx, s.users, employeeID)
	if err != nil {
		return nil, workday.Day{}, err
	}
	d, err := s.day(ctx, u.ID, date)
	if err != nil {
		return nil, workday.Day{}, err
	}
	return u, d, nil
}

// day reads the punches of the civil day and applies blocking validation when
// it is enabled.
func (s *WorkdayServiceImpl) day(ctx context.Context, userID uuid.UUID, date string) (workday.Day, error) {
	start, end, err := s.zone.DayBounds(date)
	if err != nil {
		return workday.Day{}, err
	}
	evs, err := s.events.Between(ctx, userID, start, end)
	if err != nil {
		return workday.Day{}, err
	}
	d := workday.Reconstruct(date, evs, s.zone.Location())
	if d.BreakPunchMismatch {
		cfg, err := s.settings.Validation(ctx)
		if err != nil {
			return workday.Day{}, err
		}
		if cfg.RequireFourPunches {
			return workday.Day{}, errs.ErrWorkdayRejected
		}
	}
	return d, nil
}

// loadEmployee fetches a user that must exist with the employee role.
func loadEmployee(ctx context.Context, users repository.UserRepository, id uuid.UUID) (*model.User, error) {
	u, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsEmployee() {
		return nil, errs.ErrNotFound
	}
	return u, nil
}
