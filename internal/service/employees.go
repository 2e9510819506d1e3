package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/pontofacil/internal/clock"
	pkgcrypto "github.com/and161185/pontofacil/internal/crypto"
	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/model"
	"github.com/and161185/pontofacil/internal/repository"
)

// pairingCodeBytes yields a 12 character url-safe code.
const pairingCodeBytes = 9

// NewEmployee is the input of EmployeeService.Create.
type NewEmployee struct {
	Email    string
	Password string
	Name     string
}

// IssuedCode is a plaintext pairing code, returned only at issue time.
type IssuedCode struct {
	Code      string
	ExpiresAt time.Time
}

// EmployeeService manages employee accounts for administrators.
type EmployeeService interface {
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, in NewEmployee) (*model.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error)
	Policy(ctx context.Context, id uuid.UUID) (*model.AuthPolicy, error)
	UpdatePolicy(ctx context.Context, id uuid.UUID, allowPassword, allowDevice bool) (*model.AuthPolicy, error)
	// IssuePairingCode revokes the employee's devices and returns a fresh code.
	IssuePairingCode(ctx context.Context, id uuid.UUID) (*IssuedCode, error)
}

type EmployeeServiceImpl struct {
	users    repository.UserRepository
	policies repository.PolicyRepository
	devices  repository.DeviceRepository
	clk      clock.Clock
}

// NewEmployeeService constructs EmployeeService.
func NewEmployeeService(users repository.UserRepository, policies repository.PolicyRepository, devices repository.DeviceRepository, clk clock.Clock) *EmployeeServiceImpl {
	return &EmployeeServiceImpl{users: users, policies: policies, devices: devices, clk: clk}
}

func (s *EmployeeServiceImpl) List(ctx context.Context) ([]model.User, error) {
	return s.users.ListEmployees(ctx, ListLimit)
}

// validateNewEmployee holds the account rules; address syntax is checked at the edge.
func validateNewEmployee(in NewEmployee) error {
	if utf8.RuneCountInString(in.Password) < 4 {
		return errs.Invalid("password must have at least 4 characters")
	}
	if in.Email == "" || in.Name == "" {
		return errs.Invalid("email and name are required")
	}
	return nil
}

// Create registers an active employee. A taken email yields errs.ErrAlreadyExists.
func (s *EmployeeServiceImpl) Create(ctx context.Context, in NewEmployee) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateNewEmployee(in); err != nil {
		return nil, err
	}
	hash, err := pkgcrypto.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:           id,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleEmployee,
		Name:         in.Name,
		Active:       true,
		CreatedAt:    s.clk.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *EmployeeServiceImpl) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error) {
	if _, err := loadEmployee(ctx, s.users, id); err != nil {
		return nil, err
	}
	return s.users.SetActive(ctx, id, active)
}

func (s *EmployeeServiceImpl) Policy(ctx context.Context, id uuid.UUID) (*model.AuthPolicy, error) {
	if _, err := loadEmployee(ctx, s.users, id); err != nil {
		return nil, err
	}
	return s.policies.Get(ctx, id)
}

func (s *EmployeeServiceImpl) UpdatePolicy(ctx context.Context, id uuid.UUID, allowPassword, allowDevice bool) (*model.AuthPolicy, error) {
	if _, err := loadEmployee(ctx, s.users, id); err != nil {
		return nil, err
	}
	return s.policies.Upsert(ctx, model.AuthPolicy{
		EmployeeID:         id,
		AllowPasswordLogin: allowPassword,
		AllowDeviceLogin:   allowDevice,
		UpdatedAt:          s.clk.Now().UTC(),
	})
}

func (s *EmployeeServiceImpl) IssuePairingCode(ctx context.Context, id uuid.UUID) (*IssuedCode, error) {
	if _, err := loadEmployee(ctx, s.users, id); err != nil {
		return nil, err
	}
	code, err := pkgcrypto.RandToken(pairingCodeBytes)
	if err != nil {
		return nil, err
	}
	hash, err := pkgcrypto.Hash(code)
	if err != nil {
		return nil, err
	}
	codeID, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	now := s.clk.Now().UTC()
	pc := &model.PairingCode{
		ID:         codeID,
		EmployeeID: id,
		CodeHash:   hash,
		ExpiresAt:  now.Add(model.PairingCodeTTL),
		CreatedAt:  now,
	}
	if err := s.devices.IssuePairingCode(ctx, pc); err != nil {
		return nil, err
	}
	return &IssuedCode{Code: code, ExpiresAt: pc.ExpiresAt}, nil
}
