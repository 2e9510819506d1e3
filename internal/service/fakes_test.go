package service

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/pontofacil/internal/civiltime"
	"github.com/and161185/pontofacil/internal/clock"
	pkgcrypto "github.com/and161185/pontofacil/internal/crypto"
	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/limiter"
	"github.com/and161185/pontofacil/internal/model"
	"github.com/and161185/pontofacil/internal/repository"
)

// memStore backs every fake repository so services see one consistent state.
type memStore struct {
	mu sync.Mutex

	users      map[uuid.UUID]*model.User
	events     map[uuid.UUID]*model.ClockEvent
	audit      []model.AuditRecord
	site       *model.SiteConfig
	window     model.CorrectionWindowConfig
	validation model.ValidationConfig
	policies   map[uuid.UUID]*model.AuthPolicy
	devices    []*model.Device
	codes      []*model.PairingCode

	createEventErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uuid.UUID]*model.User{},
		events:   map[uuid.UUID]*model.ClockEvent{},
		window:   model.CorrectionWindowConfig{WindowDays: model.DefaultCorrectionWindowDays},
		policies: map[uuid.UUID]*model.AuthPolicy{},
	}
}

func (s *memStore) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// ---- users ----

type fakeUsers struct{ st *memStore }

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, x := range f.st.users {
		if x.Email == u.Email {
			return errs.ErrAlreadyExists
		}
	}
	c := *u
	f.st.users[u.ID] = &c
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, u := range f.st.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) ListEmployees(_ context.Context, limit int) ([]model.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []model.User
	for _, u := range f.st.users {
		if u.IsEmployee() {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUsers) SetActive(_ context.Context, id uuid.UUID, active bool) (*model.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	u.Active = active
	c := *u
	return &c, nil
}

func (f *fakeUsers) EnsureAdmin(_ context.Context, u *model.User) (bool, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, x := range f.st.users {
		if x.Email == u.Email {
			return false, nil
		}
	}
	c := *u
	f.st.users[u.ID] = &c
	return true, nil
}

// ---- events ----

type fakeEvents struct{ st *memStore }

var _ repository.EventRepository = (*fakeEvents)(nil)

func (f *fakeEvents) Create(_ context.Context, e *model.ClockEvent) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if f.st.createEventErr != nil {
		return f.st.createEventErr
	}
	c := *e
	f.st.events[e.ID] = &c
	return nil
}

func (f *fakeEvents) GetByID(_ context.Context, id uuid.UUID) (*model.ClockEvent, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	e, ok := f.st.events[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *e
	return &c, nil
}

// sorted returns the user's events in [from, to), oldest first.
func (f *fakeEvents) sorted(userID uuid.UUID, from, to *time.Time) []model.ClockEvent {
	var out []model.ClockEvent
	for _, e := range f.st.events {
		if e.UserID != userID {
			continue
		}
		if from != nil && e.RecordedAt.Before(*from) {
			continue
		}
		if to != nil && !e.RecordedAt.Before(*to) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.Before(out[j].RecordedAt)
		}
		return bytes.Compare(out[i].ID.Bytes(), out[j].ID.Bytes()) < 0
	})
	return out
}

func (f *fakeEvents) Last(_ context.Context, userID uuid.UUID) (*model.ClockEvent, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	all := f.sorted(userID, nil, nil)
	if len(all) == 0 {
		return nil, errs.ErrNotFound
	}
	return &all[len(all)-1], nil
}

func (f *fakeEvents) LastBetween(_ context.Context, userID uuid.UUID, from, to time.Time) (*model.ClockEvent, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	all := f.sorted(userID, &from, &to)
	if len(all) == 0 {
		return nil, errs.ErrNotFound
	}
	return &all[len(all)-1], nil
}

func (f *fakeEvents) Between(_ context.Context, userID uuid.UUID, from, to time.Time) ([]model.ClockEvent, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.sorted(userID, &from, &to), nil
}

func (f *fakeEvents) List(_ context.Context, userID uuid.UUID, from, to *time.Time, limit int) ([]model.ClockEvent, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	all := f.sorted(userID, from, to)
	out := make([]model.ClockEvent, 0, len(all))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (f *fakeEvents) CreateAudited(_ context.Context, e *model.ClockEvent, rec *model.AuditRecord) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	c := *e
	f.st.events[e.ID] = &c
	f.st.audit = append(f.st.audit, *rec)
	return nil
}

func (f *fakeEvents) UpdateAudited(_ context.Context, e *model.ClockEvent, rec *model.AuditRecord) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if _, ok := f.st.events[e.ID]; !ok {
		return errs.ErrNotFound
	}
	c := *e
	f.st.events[e.ID] = &c
	f.st.audit = append(f.st.audit, *rec)
	return nil
}

func (f *fakeEvents) DeleteAudited(_ context.Context, id uuid.UUID, rec *model.AuditRecord) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if _, ok := f.st.events[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.st.events, id)
	f.st.audit = append(f.st.audit, *rec)
	return nil
}

// ---- audit ----

type fakeAudits struct{ st *memStore }

var _ repository.AuditRepository = (*fakeAudits)(nil)

func auditLess(a, b model.AuditEntry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return bytes.Compare(a.ID.Bytes(), b.ID.Bytes()) > 0
}

func (f *fakeAudits) List(_ context.Context, q model.AuditQuery) ([]model.AuditEntry, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []model.AuditEntry
	for _, r := range f.st.audit {
		switch {
		case q.EmployeeID != nil && r.EmployeeID != *q.EmployeeID,
			q.Action != nil && r.Action != *q.Action,
			q.EventID != nil && (r.EventID == nil || *r.EventID != *q.EventID),
			q.ReasonContains != "" && !strings.Contains(strings.ToLower(r.Reason), strings.ToLower(q.ReasonContains)),
			q.From != nil && r.CreatedAt.Before(*q.From),
			q.To != nil && !r.CreatedAt.Before(*q.To):
			continue
		}
		e := model.AuditEntry{
			ID:         r.ID,
			Action:     r.Action,
			EventID:    r.EventID,
			EmployeeID: r.EmployeeID,
			AdminID:    r.AdminID,
			Reason:     r.Reason,
			CreatedAt:  r.CreatedAt,
		}
		if emp, ok := f.st.users[r.EmployeeID]; ok {
			e.EmployeeEmail, e.EmployeeName = emp.Email, emp.Name
		}
		if adm, ok := f.st.users[r.AdminID]; ok {
			e.AdminEmail = adm.Email
		}
		if q.After != nil && !auditLess(e, model.AuditEntry{CreatedAt: q.After.CreatedAt, ID: q.After.ID}) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return auditLess(out[i], out[j]) })
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// ---- settings ----

type fakeSettings struct{ st *memStore }

var _ repository.SettingsRepository = (*fakeSettings)(nil)

func (f *fakeSettings) Site(context.Context) (*model.SiteConfig, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if f.st.site == nil {
		return nil, errs.ErrNotFound
	}
	c := *f.st.site
	return &c, nil
}

func (f *fakeSettings) UpsertSite(_ context.Context, s model.SiteConfig) (*model.SiteConfig, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.site = &s
	c := s
	return &c, nil
}

func (f *fakeSettings) CorrectionWindow(context.Context) (*model.CorrectionWindowConfig, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	c := f.st.window
	return &c, nil
}

func (f *fakeSettings) SetCorrectionWindow(_ context.Context, days int, at time.Time) (*model.CorrectionWindowConfig, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.window = model.CorrectionWindowConfig{WindowDays: days, UpdatedAt: at}
	c := f.st.window
	return &c, nil
}

func (f *fakeSettings) Validation(context.Context) (*model.ValidationConfig, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	c := f.st.validation
	return &c, nil
}

func (f *fakeSettings) SetValidation(_ context.Context, requireFour bool, at time.Time) (*model.ValidationConfig, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.validation = model.ValidationConfig{RequireFourPunches: requireFour, UpdatedAt: at}
	c := f.st.validation
	return &c, nil
}

// ---- policies ----

type fakePolicies struct{ st *memStore }

var _ repository.PolicyRepository = (*fakePolicies)(nil)

func (f *fakePolicies) Get(_ context.Context, employeeID uuid.UUID) (*model.AuthPolicy, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	p, ok := f.st.policies[employeeID]
	if !ok {
		d := model.DefaultAuthPolicy(employeeID)
		p = &d
		f.st.policies[employeeID] = p
	}
	c := *p
	return &c, nil
}

func (f *fakePolicies) Upsert(_ context.Context, p model.AuthPolicy) (*model.AuthPolicy, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.st.policies[p.EmployeeID] = &p
	c := p
	return &c, nil
}

// ---- devices ----

type fakeDevices struct{ st *memStore }

var _ repository.DeviceRepository = (*fakeDevices)(nil)

func (f *fakeDevices) GetActiveByDeviceID(_ context.Context, deviceID string) (*model.Device, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, d := range f.st.devices {
		if d.DeviceID == deviceID && d.RevokedAt == nil {
			c := *d
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeDevices) IssuePairingCode(_ context.Context, code *model.PairingCode) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	at := code.CreatedAt
	for _, d := range f.st.devices {
		if d.EmployeeID == code.EmployeeID && d.RevokedAt == nil {
			d.RevokedAt = &at
		}
	}
	c := *code
	f.st.codes = append(f.st.codes, &c)
	return nil
}

func (f *fakeDevices) PendingCodes(_ context.Context, now time.Time, limit int) ([]model.PairingCode, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []model.PairingCode
	for i := len(f.st.codes) - 1; i >= 0 && len(out) < limit; i-- {
		c := f.st.codes[i]
		if c.ConsumedAt == nil && c.ExpiresAt.After(now) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeDevices) Pair(_ context.Context, p *model.PairDevice) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	now := p.Device.CreatedAt
	var code *model.PairingCode
	for _, c := range f.st.codes {
		if c.ID == p.CodeID && c.ConsumedAt == nil && c.ExpiresAt.After(now) {
			code = c
		}
	}
	if code == nil {
		return errs.ErrPairingCodeInvalid
	}
	code.ConsumedAt = &now
	code.ConsumedDeviceID = p.Device.DeviceID
	for _, d := range f.st.devices {
		if d.RevokedAt == nil && (d.EmployeeID == p.Device.EmployeeID || d.DeviceID == p.Device.DeviceID) {
			d.RevokedAt = &now
		}
	}
	d := p.Device
	f.st.devices = append(f.st.devices, &d)
	return nil
}

// ---- limiter ----

type fakeLimiter struct {
	mu sync.Mutex

	blocked  bool
	allowErr error

	keys         []limiter.Key
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(_ context.Context, k limiter.Key) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, k)
	if l.blocked {
		return false, time.Minute, l.allowErr
	}
	return true, 0, l.allowErr
}

func (l *fakeLimiter) Success(context.Context, limiter.Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.successCalls++
	return nil
}

func (l *fakeLimiter) Failure(context.Context, limiter.Key) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failureCalls++
	return false, 0, nil
}

// ---- wiring ----

// t0 is Monday 2025-03-10 09:00 in Sao Paulo.
var t0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	st   *memStore
	clk  *clock.Fake
	zone *civiltime.Zone
	lim  *fakeLimiter

	users    *fakeUsers
	events   *fakeEvents
	audits   *fakeAudits
	settings *fakeSettings
	policies *fakePolicies
	devices  *fakeDevices
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	zone, err := civiltime.Load("America/Sao_Paulo")
	require.NoError(t, err)
	st := newMemStore()
	return &testEnv{
		st:       st,
		clk:      clock.NewFake(t0),
		zone:     zone,
		lim:      &fakeLimiter{},
		users:    &fakeUsers{st: st},
		events:   &fakeEvents{st: st},
		audits:   &fakeAudits{st: st},
		settings: &fakeSettings{st: st},
		policies: &fakePolicies{st: st},
		devices:  &fakeDevices{st: st},
	}
}

func (e *testEnv) auth() *AuthServiceImpl {
	return NewAuthService(e.users, e.policies, e.devices, e.lim, e.clk, AuthConfig{SignKey: []byte("test-secret"), AccessTTL: time.Hour})
}

func (e *testEnv) punches() *PunchServiceImpl {
	return NewPunchService(e.events, e.settings, e.zone, e.clk)
}

func (e *testEnv) workdays() *WorkdayServiceImpl {
	return NewWorkdayService(e.users, e.events, e.settings, e.zone)
}

func (e *testEnv) employees() *EmployeeServiceImpl {
	return NewEmployeeService(e.users, e.policies, e.devices, e.clk)
}

func (e *testEnv) corrections() *CorrectionServiceImpl {
	return NewCorrectionService(e.users, e.events, e.audits, e.settings, e.zone, e.clk)
}

// seedUser stores an account; an empty password skips hashing.
func (e *testEnv) seedUser(t *testing.T, role model.Role, email, password string) *model.User {
	t.Helper()
	u := &model.User{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     email,
		Role:      role,
		Active:    true,
		CreatedAt: e.clk.Now(),
	}
	if password != "" {
		h, err := pkgcrypto.Hash(password)
		require.NoError(t, err)
		u.PasswordHash = h
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

// seedEvent stores a punch directly, bypassing admission.
func (e *testEnv) seedEvent(t *testing.T, userID uuid.UUID, kind model.Kind, at time.Time) *model.ClockEvent {
	t.Helper()
	ev := &model.ClockEvent{ID: uuid.Must(uuid.NewV7()), UserID: userID, Kind: kind, RecordedAt: at.UTC()}
	require.NoError(t, e.events.Create(context.Background(), ev))
	return ev
}
