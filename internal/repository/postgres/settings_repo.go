package postgres

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/pontofacil/internal/model"
)

// SettingsRepo implements SettingsRepository using PostgreSQL singleton rows (id = 1).
type SettingsRepo struct{ db *DB }

// NewSettingsRepo constructs a settings repository.
func NewSettingsRepo(db *DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Site returns the configured site or errs.ErrNotFound.
func (r *SettingsRepo) Site(ctx context.Context) (*model.SiteConfig, error) {
	const q = `SELECT lat, lng, radius_m, updated_at FROM site_config WHERE id=1`
	var s model.SiteConfig
	if err := r.db.Pool.QueryRow(ctx, q).Scan(&s.Lat, &s.Lng, &s.RadiusM, &s.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// UpsertSite stores the site.
func (r *SettingsRepo) UpsertSite(ctx context.Context, s model.SiteConfig) (*model.SiteConfig, error) {
	const q = `
INSERT INTO site_config (id, lat, lng, radius_m, updated_at)
VALUES (1, $1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET lat=EXCLUDED.lat, lng=EXCLUDED.lng, radius_m=EXCLUDED.radius_m, updated_at=EXCLUDED.updated_at
RETURNING lat, lng, radius_m, updated_at`
	var out model.SiteConfig
	if err := r.db.Pool.QueryRow(ctx, q, s.Lat, s.Lng, s.RadiusM, s.UpdatedAt).
		Scan(&out.Lat, &out.Lng, &out.RadiusM, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// CorrectionWindow returns the window, creating the default row on first read.
// The CTE's SELECT does not see the row it inserts, so exactly one branch yields.
func (r *SettingsRepo) CorrectionWindow(ctx context.Context) (*model.CorrectionWindowConfig, error) {
	const q = `
WITH ins AS (
  INSERT INTO correction_window_config (id, window_days, updated_at)
  VALUES (1, $1, now())
  ON CONFLICT (id) DO NOTHING
  RETURNING window_days, updated_at
)
SELECT window_days, updated_at FROM ins
UNION ALL
SELECT window_days, updated_at FROM correction_window_config WHERE id=1
LIMIT 1`
	var c model.CorrectionWindowConfig
	if err := r.db.Pool.QueryRow(ctx, q, model.DefaultCorrectionWindowDays).Scan(&c.WindowDays, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// SetCorrectionWindow stores the window size.
func (r *SettingsRepo) SetCorrectionWindow(ctx context.Context, days int, at time.Time) (*model.CorrectionWindowConfig, error) {
	const q = `
INSERT INTO correction_window_config (id, window_days, updated_at)
VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET window_days=EXCLUDED.window_days, updated_at=EXCLUDED.updated_at
RETURNING window_days, updated_at`
	var c model.CorrectionWindowConfig
	if err := r.db.Pool.QueryRow(ctx, q, days, at).Scan(&c.WindowDays, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validation returns the workday validation flag, creating the default row on first read.
func (r *SettingsRepo) Validation(ctx context.Context) (*model.ValidationConfig, error) {
	const q = `
WITH ins AS (
  INSERT INTO workday_validation_config (id, require_four_punches, updated_at)
  VALUES (1, false, now())
  ON CONFLICT (id) DO NOTHING
  RETURNING require_four_punches, updated_at
)
SELECT require_four_punches, updated_at FROM ins
UNION ALL
SELECT require_four_punches, updated_at FROM workday_validation_config WHERE id=1
LIMIT 1`
	var v model.ValidationConfig
	if err := r.db.Pool.QueryRow(ctx, q).Scan(&v.RequireFourPunches, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// SetValidation stores the workday validation flag.
func (r *SettingsRepo) SetValidation(ctx context.Context, requireFour bool, at time.Time) (*model.ValidationConfig, error) {
	const q = `
INSERT INTO workday_validation_config (id, require_four_punches, updated_at)
VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET require_four_punches=EXCLUDED.require_four_punches, updated_at=EXCLUDED.updated_at
RETURNING require_four_punches, updated_at`
	var v model.ValidationConfig
	if err := r.db.Pool.QueryRow(ctx, q, requireFour, at).Scan(&v.RequireFourPunches, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// PolicyRepo implements PolicyRepository using PostgreSQL.
type PolicyRepo struct{ db *DB }

// NewPolicyRepo constructs an auth policy repository.
func NewPolicyRepo(db *DB) *PolicyRepo { return &PolicyRepo{db: db} }

// Get returns the employee's policy, creating the default on first access.
func (r *PolicyRepo) Get(ctx context.Context, employeeID uuid.UUID) (*model.AuthPolicy, error) {
	const q = `
WITH ins AS (
  INSERT INTO employee_auth_policies (employee_id, allow_password_login, allow_device_login, updated_at)
  VALUES ($1, true, false, now())
  ON CONFLICT (employee_id) DO NOTHING
  RETURNING allow_password_login, allow_device_login, updated_at
)
SELECT allow_password_login, allow_device_login, updated_at FROM ins
UNION ALL
SELECT allow_password_login, allow_device_login, updated_at FROM employee_auth_policies WHERE employee_id=$1
LIMIT 1`
	p := model.AuthPolicy{EmployeeID: employeeID}
	if err := r.db.Pool.QueryRow(ctx, q, employeeID).Scan(&p.AllowPasswordLogin, &p.AllowDeviceLogin, &p.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// Upsert stores the policy.
func (r *PolicyRepo) Upsert(ctx context.Context, p model.AuthPolicy) (*model.AuthPolicy, error) {
	const q = `
INSERT INTO employee_auth_policies (employee_id, allow_password_login, allow_device_login, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (employee_id) DO UPDATE
SET allow_password_login=EXCLUDED.allow_password_login,
    allow_device_login=EXCLUDED.allow_device_login,
    updated_at=EXCLUDED.updated_at
RETURNING allow_password_login, allow_device_login, updated_at`
	out := model.AuthPolicy{EmployeeID: p.EmployeeID}
	if err := r.db.Pool.QueryRow(ctx, q, p.EmployeeID, p.AllowPasswordLogin, p.AllowDeviceLogin, p.UpdatedAt).
		Scan(&out.AllowPasswordLogin, &out.AllowDeviceLogin, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}
