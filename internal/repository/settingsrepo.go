package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/pontofacil/internal/model"
)

// SettingsRepository manages the singleton configuration rows. Getters other
// than Site create the row with defaults on first read.
type SettingsRepository interface {
	// Site returns errs.ErrNotFound while no site is configured.
	Site(ctx context.Context) (*model.SiteConfig, error)
	UpsertSite(ctx context.Context, s model.SiteConfig) (*model.SiteConfig, error)
	CorrectionWindow(ctx context.Context) (*model.CorrectionWindowConfig, error)
	SetCorrectionWindow(ctx context.Context, days int, at time.Time) (*model.CorrectionWindowConfig, error)
	Validation(ctx context.Context) (*model.ValidationConfig, error)
	SetValidation(ctx context.Context, requireFour bool, at time.Time) (*model.ValidationConfig, error)
}

// PolicyRepository manages per-employee login policies.
type PolicyRepository interface {
	// Get returns the policy, creating the default one on first access.
	Get(ctx context.Context, employeeID uuid.UUID) (*model.AuthPolicy, error)
	Upsert(ctx context.Context, p model.AuthPolicy) (*model.AuthPolicy, error)
}

// DeviceRepository manages paired devices and pairing codes.
type DeviceRepository interface {
	// GetActiveByDeviceID returns the non-revoked device bound to deviceID.
	GetActiveByDeviceID(ctx context.Context, deviceID string) (*model.Device, error)
	// IssuePairingCode revokes the employee's active devices and stores code.
	IssuePairingCode(ctx context.Context, code *model.PairingCode) error
	// PendingCodes returns unconsumed codes still valid at now, newest first.
	PendingCodes(ctx context.Context, now time.Time, limit int) ([]model.PairingCode, error)
	// Pair consumes the code, revokes prior devices and stores the new one.
	// A code consumed concurrently yields errs.ErrPairingCodeInvalid.
	Pair(ctx context.Context, p *model.PairDevice) error
}
