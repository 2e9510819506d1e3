// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects an issued access token.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// Role distinguishes administrators from employees.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// User is an account. Employees carry a display name; admins usually don't.
type User struct {
	ID           uuid.UUID // PK
	Email        string    // unique
	PasswordHash string    // encoded argon2id
	Role         Role
	Name         string // empty when no profile name was set
	Active       bool
	CreatedAt    time.Time
}

// DisplayName returns the profile name, falling back to the email.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// IsEmployee reports whether the user is an employee account.
func (u User) IsEmployee() bool { return u.Role == RoleEmployee }

// Location is a reported device position.
type Location struct {
	Lat       float64
	Lng       float64
	AccuracyM *float64
}

// ClockEvent is a single punch. RecordedAt is a UTC instant.
type ClockEvent struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Kind       Kind
	RecordedAt time.Time
	Lat        float64
	Lng        float64
	AccuracyM  *float64
	DistanceM  *float64 // nil when geofencing was off
}

// SiteConfig is the geofence singleton. Absence disables geofencing.
type SiteConfig struct {
	Lat       float64
	Lng       float64
	RadiusM   int
	UpdatedAt time.Time
}

// DefaultCorrectionWindowDays applies until an administrator sets another value.
const DefaultCorrectionWindowDays = 30

// CorrectionWindowConfig bounds how far back administrators may edit punches.
type CorrectionWindowConfig struct {
	WindowDays int
	UpdatedAt  time.Time
}

// ValidationConfig toggles blocking workday validation.
type ValidationConfig struct {
	RequireFourPunches bool // reject days with a break but not exactly 4 punches
	UpdatedAt          time.Time
}

// AuthPolicy controls which login methods an employee may use.
type AuthPolicy struct {
	EmployeeID         uuid.UUID
	AllowPasswordLogin bool
	AllowDeviceLogin   bool
	UpdatedAt          time.Time
}

// DefaultAuthPolicy is applied lazily on first access.
func DefaultAuthPolicy(employeeID uuid.UUID) AuthPolicy {
	return AuthPolicy{EmployeeID: employeeID, AllowPasswordLogin: true, AllowDeviceLogin: false}
}

// Device is a paired employee device. At most one is active per employee.
type Device struct {
	ID         uuid.UUID
	EmployeeID uuid.UUID
	DeviceID   string // client-supplied identifier
	DeviceName string
	SecretHash string
	CreatedAt  time.Time
	RevokedAt  *time.Time
}

// PairingCodeTTL is how long an issued pairing code stays usable.
const PairingCodeTTL = 10 * time.Minute

// PairingCode is a hashed one-time code binding a device to an employee.
type PairingCode struct {
	ID               uuid.UUID
	EmployeeID       uuid.UUID
	CodeHash         string
	ExpiresAt        time.Time
	CreatedAt        time.Time
	ConsumedAt       *time.Time
	ConsumedDeviceID string
}

// PairDevice is the atomic unit of a successful pairing.
type PairDevice struct {
	CodeID uuid.UUID
	Device Device
}
