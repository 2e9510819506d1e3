package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/limiter"
	"github.com/and161185/pontofacil/internal/model"
)

func TestAuth_Login_Success(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	u := env.seedUser(t, model.RoleEmployee, "ana@example.com", "secret1")
	s := env.auth()

	tok, got, err := s.Login(context.Background(), "ana@example.com", "secret1", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotEmpty(t, tok.AccessToken)
	require.True(t, tok.ExpiresAt.Equal(t0.Add(time.Hour)))
	require.Equal(t, 1, env.lim.successCalls)
	require.Equal(t, limiter.NewKey(limiter.ScopePassword, "ana@example.com", "10.0.0.1"), env.lim.keys[0])

	who, err := s.Authenticate(context.Background(), tok.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, who.ID)
	require.Equal(t, model.RoleEmployee, who.Role)
}

func TestAuth_Login_CredentialFailuresAreGeneric(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedUser(t, model.RoleEmployee, "ana@example.com", "secret1")
	off := env.seedUser(t, model.RoleEmployee, "off@example.com", "secret1")
	_, err := env.users.SetActive(context.Background(), off.ID, false)
	require.NoError(t, err)
	s := env.auth()
	ctx := context.Background()

	_, _, err = s.Login(ctx, "nobody@example.com", "secret1", "ip")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "off@example.com", "secret1", "ip")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "ana@example.com", "wrong", "ip")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)

	require.Equal(t, 3, env.lim.failureCalls)
	require.Zero(t, env.lim.successCalls)
}

func TestAuth_Login_PolicyDisabled(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	u := env.seedUser(t, model.RoleEmployee, "ana@example.com", "secret1")
	_, err := env.policies.Upsert(context.Background(), model.AuthPolicy{EmployeeID: u.ID, AllowPasswordLogin: false, AllowDeviceLogin: true})
	require.NoError(t, err)
	s := env.auth()

	_, _, err = s.Login(context.Background(), "ana@example.com", "secret1", "ip")
	require.ErrorIs(t, err, errs.ErrPasswordLoginDisabled)
	require.Zero(t, env.lim.failureCalls)
}

func TestAuth_Login_AdminIgnoresPolicy(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedUser(t, model.RoleAdmin, "root@example.com", "admin")
	s := env.auth()

	_, u, err := s.Login(context.Background(), "root@example.com", "admin", "ip")
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, u.Role)
}

func TestAuth_Login_RateLimited(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seedUser(t, model.RoleEmployee, "ana@example.com", "secret1")
	env.lim.blocked = true
	s := env.auth()

	_, _, err := s.Login(context.Background(), "ana@example.com", "secret1", "ip")
	require.ErrorIs(t, err, errs.ErrRateLimited)

	env.lim.blocked = false
	env.lim.allowErr = errors.New("db down")
	_, _, err = s.Login(context.Background(), "ana@example.com", "secret1", "ip")
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrInvalidCredentials)
}

// pairedDevice issues a code, pairs a device and enables device login.
func pairedDevice(t *testing.T, env *testEnv, emp *model.User, deviceID string) string {
	t.Helper()
	ctx := context.Background()
	code, err := env.employees().IssuePairingCode(ctx, emp.ID)
	require.NoError(t, err)
	res, err := env.auth().PairDevice(ctx, PairRequest{Code: code.Code, DeviceID: deviceID, DeviceName: "tablet"}, "ip")
	require.NoError(t, err)
	require.Equal(t, emp.ID, res.EmployeeID)
	_, err = env.policies.Upsert(ctx, model.AuthPolicy{EmployeeID: emp.ID, AllowPasswordLogin: true, AllowDeviceLogin: true})
	require.NoError(t, err)
	return res.DeviceSecret
}

func TestAuth_DeviceLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	emp := env.seedUser(t, model.RoleEmployee, "ana@example.com", "")
	secret := pairedDevice(t, env, emp, "device-0001")
	s := env.auth()
	ctx := context.Background()

	tok, u, err := s.DeviceLogin(ctx, "device-0001", secret, "ip")
	require.NoError(t, err)
	require.Equal(t, emp.ID, u.ID)
	require.NotEmpty(t, tok.AccessToken)

	_, _, err = s.DeviceLogin(ctx, "device-0001", "wrong-secret", "ip")
	require.ErrorIs(t, err, errs.ErrDeviceNotRegistered)

	_, _, err = s.DeviceLogin(ctx, "device-9999", secret, "ip")
	require.ErrorIs(t, err, errs.ErrDeviceNotRegistered)

	_, err = env.policies.Upsert(ctx, model.AuthPolicy{EmployeeID: emp.ID, AllowPasswordLogin: true, AllowDeviceLogin: false})
	require.NoError(t, err)
	_, _, err = s.DeviceLogin(ctx, "device-0001", secret, "ip")
	require.ErrorIs(t, err, errs.ErrDeviceLoginDisabled)
}

func TestAuth_DeviceLogin_InactiveEmployee(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	emp := env.seedUser(t, model.RoleEmployee, "ana@example.com", "")
	secret := pairedDevice(t, env, emp, "device-0001")
	_, err := env.users.SetActive(context.Background(), emp.ID, false)
	require.NoError(t, err)

	_, _, err = env.auth().DeviceLogin(context.Background(), "device-0001", secret, "ip")
	require.ErrorIs(t, err, errs.ErrDeviceNotRegistered)
}

func TestAuth_PairDevice_CodeIsSingleUse(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	emp := env.seedUser(t, model.RoleEmployee, "ana@example.com", "")
	ctx := context.Background()
	code, err := env.employees().IssuePairingCode(ctx, emp.ID)
	require.NoError(t, err)
	s := env.auth()

	first, err := s.PairDevice(ctx, PairRequest{Code: code.Code, DeviceID: "device-0001"}, "ip")
	require.NoError(t, err)
	require.NotEmpty(t, first.DeviceSecret)

	_, err = s.PairDevice(ctx, PairRequest{Code: code.Code, DeviceID: "device-0002"}, "ip")
	require.ErrorIs(t, err, errs.ErrPairingCodeInvalid)
	require.Equal(t, 1, env.lim.failureCalls)
}

func TestAuth_PairDevice_ExpiredAndRevoking(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	emp := env.seedUser(t, model.RoleEmployee, "ana@example.com", "")
	ctx := context.Background()
	s := env.auth()

	oldSecret := pairedDevice(t, env, emp, "device-0001")

	code, err := env.employees().IssuePairingCode(ctx, emp.ID)
	require.NoError(t, err)
	// issuing a new code already revoked the paired device
	_, _, err = s.DeviceLogin(ctx, "device-0001", oldSecret, "ip")
	require.ErrorIs(t, err, errs.ErrDeviceNotRegistered)

	env.clk.Advance(model.PairingCodeTTL)
	_, err = s.PairDevice(ctx, PairRequest{Code: code.Code, DeviceID: "device-0002"}, "ip")
	require.ErrorIs(t, err, errs.ErrPairingCodeInvalid)
}

func TestAuth_PairDevice_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	s := env.auth()
	ctx := context.Background()

	for name, req := range map[string]PairRequest{
		"short code":      {Code: "abc", DeviceID: "device-0001"},
		"short device id": {Code: "abcdefgh", DeviceID: "dev"},
		"long device id":  {Code: "abcdefgh", DeviceID: string(make([]byte, 129))},
		"long name":       {Code: "abcdefgh", DeviceID: "device-0001", DeviceName: string(make([]rune, 256))},
	} {
		_, err := s.PairDevice(ctx, req, "ip")
		require.ErrorIs(t, err, errs.ErrValidation, name)
	}
	require.Empty(t, env.lim.keys)
}

func TestAuth_Authenticate_Rejects(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	u := env.seedUser(t, model.RoleEmployee, "ana@example.com", "secret1")
	s := env.auth()
	ctx := context.Background()

	tok, _, err := s.Login(ctx, "ana@example.com", "secret1", "ip")
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "not-a-jwt")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
	})
	forged, err := other.SignedString([]byte("another-key"))
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, forged)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = env.users.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, tok.AccessToken)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = env.users.SetActive(ctx, u.ID, true)
	require.NoError(t, err)
	env.clk.Advance(2 * time.Hour)
	_, err = s.Authenticate(ctx, tok.AccessToken)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestAuth_EnsureAdmin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	s := env.auth()
	ctx := context.Background()

	created, err := s.EnsureAdmin(ctx, "admin@local.com", "admin")
	require.NoError(t, err)
	require.True(t, created)

	created, err = s.EnsureAdmin(ctx, "admin@local.com", "changed")
	require.NoError(t, err)
	require.False(t, created)

	_, u, err := s.Login(ctx, "admin@local.com", "admin", "ip")
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, u.Role)

	_, err = s.EnsureAdmin(ctx, "", "x")
	require.ErrorIs(t, err, errs.ErrValidation)
}
