// Package service contains the application services of the timekeeping backend.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/pontofacil/internal/clock"
	pkgcrypto "github.com/and161185/pontofacil/internal/crypto"
	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/limiter"
	"github.com/and161185/pontofacil/internal/model"
	"github.com/and161185/pontofacil/internal/repository"
)

// pairingScanLimit bounds how many pending codes a pairing attempt verifies.
const pairingScanLimit = 50

// deviceSecretBytes is the entropy of a minted device secret.
const deviceSecretBytes = 32

// AuthService defines authentication and bootstrap operations.
type AuthService interface {
	// Login authenticates with email and password, throttled by (email, ip).
	Login(ctx context.Context, email, password, ip string) (model.Tokens, *model.User, error)
	// DeviceLogin authenticates a paired device, throttled by (device id, ip).
	DeviceLogin(ctx context.Context, deviceID, secret, ip string) (model.Tokens, *model.User, error)
	// PairDevice redeems a pairing code and mints the device secret.
	PairDevice(ctx context.Context, req PairRequest, ip string) (*PairResult, error)
	// Authenticate verifies a bearer token and reloads its active user.
	Authenticate(ctx context.Context, token string) (*model.User, error)
	// EnsureAdmin creates the bootstrap administrator unless the email exists.
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

// PairRequest is a device pairing attempt.
type PairRequest struct {
	Code       string
	DeviceID   string
	DeviceName string
}

// PairResult carries the plaintext device secret, shown exactly once.
type PairResult struct {
	DeviceSecret string
	EmployeeID   uuid.UUID
}

// AuthConfig holds token settings.
type AuthConfig struct {
	SignKey   []byte
	AccessTTL time.Duration
}

type AuthServiceImpl struct {
	users    repository.UserRepository
	policies repository.PolicyRepository
	devices  repository.DeviceRepository
	lim      limiter.Limiter
	clk      clock.Clock
	cfg      AuthConfig
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(
	users repository.UserRepository,
	policies repository.PolicyRepository,
	devices repository.DeviceRepository,
	lim limiter.Limiter,
	clk clock.Clock,
	cfg AuthConfig,
) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, policies: policies, devices: devices, lim: lim, clk: clk, cfg: cfg}
}

// accessClaims is the bearer token payload.
type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// allow consults the limiter before any credential check.
func (s *AuthServiceImpl) allow(ctx context.Context, key limiter.Key) error {
	allowed, _, err := s.lim.Allow(ctx, key)
	if err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	if !allowed {
		return errs.ErrRateLimited
	}
	return nil
}

// fail records a failed attempt and returns the credential error unchanged.
func (s *AuthServiceImpl) fail(ctx context.Context, key limiter.Key, err error) error {
	_, _, _ = s.lim.Failure(ctx, key)
	return err
}

// Login authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) Login(ctx context.Context, email, password, ip string) (model.Tokens, *model.User, error) {
	key := limiter.NewKey(limiter.ScopePassword, email, ip)
	if err := s.allow(ctx, key); err != nil {
		return model.Tokens{}, nil, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, nil, err
	}
	if u == nil || !u.Active {
		return model.Tokens{}, nil, s.fail(ctx, key, errs.ErrInvalidCredentials)
	}

	if u.IsEmployee() {
		policy, err := s.policies.Get(ctx, u.ID)
		if err != nil {
			return model.Tokens{}, nil, err
		}
		if !policy.AllowPasswordLogin {
			return model.Tokens{}, nil, errs.ErrPasswordLoginDisabled
		}
	}

	if !pkgcrypto.Verify(password, u.PasswordHash) {
		return model.Tokens{}, nil, s.fail(ctx, key, errs.ErrInvalidCredentials)
	}

	_ = s.lim.Success(ctx, key)

	tok, err := s.issueAccessToken(u)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	return tok, u, nil
}

// DeviceLogin authenticates a paired device. Every failure except a disabled
// policy collapses to ErrDeviceNotRegistered.
func (s *AuthServiceImpl) DeviceLogin(ctx context.Context, deviceID, secret, ip string) (model.Tokens, *model.User, error) {
	key := limiter.NewKey(limiter.ScopeDevice, deviceID, ip)
	if err := s.allow(ctx, key); err != nil {
		return model.Tokens{}, nil, err
	}

	d, err := s.devices.GetActiveByDeviceID(ctx, deviceID)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, nil, s.fail(ctx, key, errs.ErrDeviceNotRegistered)
	}
	if err != nil {
		return model.Tokens{}, nil, err
	}

	u, err := s.users.GetByID(ctx, d.EmployeeID)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, nil, err
	}
	if u == nil || !u.Active || !u.IsEmployee() {
		return model.Tokens{}, nil, s.fail(ctx, key, errs.ErrDeviceNotRegistered)
	}

	policy, err := s.policies.Get(ctx, u.ID)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	if !policy.AllowDeviceLogin {
		return model.Tokens{}, nil, errs.ErrDeviceLoginDisabled
	}

	if !pkgcrypto.Verify(secret, d.SecretHash) {
		return model.Tokens{}, nil, s.fail(ctx, key, errs.ErrDeviceNotRegistered)
	}

	_ = s.lim.Success(ctx, key)

	tok, err := s.issueAccessToken(u)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	return tok, u, nil
}

func validatePairRequest(req PairRequest) error {
	if utf8.RuneCountInString(req.Code) < 8 {
		return errs.Invalid("code must have at least 8 characters")
	}
	if n := utf8.RuneCountInString(req.DeviceID); n < 8 || n > 128 {
		return errs.Invalid("device_id must have between 8 and 128 characters")
	}
	if utf8.RuneCountInString(req.DeviceName) > 255 {
		return errs.Invalid("device_name must have at most 255 characters")
	}
	return nil
}

// PairDevice scans recent pending codes, verifying each hash against the
// supplied code, and binds the first match to the device atomically.
func (s *AuthServiceImpl) PairDevice(ctx context.Context, req PairRequest, ip string) (*PairResult, error) {
	if err := validatePairRequest(req); err != nil {
		return nil, err
	}
	key := limiter.NewKey(limiter.ScopePairing, "", ip)
	if err := s.allow(ctx, key); err != nil {
		return nil, err
	}

	now := s.clk.Now().UTC()
	pending, err := s.devices.PendingCodes(ctx, now, pairingScanLimit)
	if err != nil {
		return nil, err
	}
	var match *model.PairingCode
	for i := range pending {
		if pkgcrypto.Verify(req.Code, pending[i].CodeHash) {
			match = &pending[i]
			break
		}
	}
	if match == nil {
		return nil, s.fail(ctx, key, errs.ErrPairingCodeInvalid)
	}

	secret, err := pkgcrypto.RandToken(deviceSecretBytes)
	if err != nil {
		return nil, err
	}
	secretHash, err := pkgcrypto.Hash(secret)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	p := &model.PairDevice{
		CodeID: match.ID,
		Device: model.Device{
			ID:         id,
			EmployeeID: match.EmployeeID,
			DeviceID:   req.DeviceID,
			DeviceName: req.DeviceName,
			SecretHash: secretHash,
			CreatedAt:  now,
		},
	}
	if err := s.devices.Pair(ctx, p); err != nil {
		return nil, err
	}

	_ = s.lim.Success(ctx, key)
	return &PairResult{DeviceSecret: secret, EmployeeID: match.EmployeeID}, nil
}

// issueAccessToken creates a signed HS256 JWT carrying the subject and role.
func (s *AuthServiceImpl) issueAccessToken(u *model.User) (model.Tokens, error) {
	now := s.clk.Now()
	exp := now.Add(s.cfg.AccessTTL)
	claims := accessClaims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.cfg.SignKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}

// Authenticate verifies HS256 and expiry, then reloads the user: unknown or
// inactive accounts are rejected even while the token is still valid.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*model.User, error) {
	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.cfg.SignKey, nil
	}, jwt.WithTimeFunc(s.clk.Now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, errs.ErrUnauthorized
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, errs.ErrUnauthorized
	}
	return u, nil
}

// EnsureAdmin inserts the administrator keyed by email; existing rows are left untouched.
func (s *AuthServiceImpl) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, errs.Invalid("admin email and password are required")
	}
	hash, err := pkgcrypto.Hash(password)
	if err != nil {
		return false, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return false, err
	}
	return s.users.EnsureAdmin(ctx, &model.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Active:       true,
		CreatedAt:    s.clk.Now().UTC(),
	})
}
