package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, email, password_hash, role, COALESCE(name, ''), is_active, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name, &u.Active, &u.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, email, password_hash, role, name, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Email, u.PasswordHash, string(u.Role), nullIfEmpty(u.Name), u.Active, u.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	q := `SELECT ` + userCols + ` FROM users WHERE id=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	q := `SELECT ` + userCols + ` FROM users WHERE email=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

// ListEmployees returns up to limit employees, newest first.
func (r *UserRepo) ListEmployees(ctx context.Context, limit int) ([]model.User, error) {
	q := `SELECT ` + userCols + ` FROM users WHERE role='employee' ORDER BY created_at DESC, id DESC LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// SetActive updates is_active of an employee.
func (r *UserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error) {
	q := `UPDATE users SET is_active=$2 WHERE id=$1 AND role='employee' RETURNING ` + userCols
	return scanUser(r.db.Pool.QueryRow(ctx, q, id, active))
}

// EnsureAdmin inserts the bootstrap administrator if the email is free.
func (r *UserRepo) EnsureAdmin(ctx context.Context, u *model.User) (bool, error) {
	const q = `
INSERT INTO users (id, email, password_hash, role, is_active, created_at)
VALUES ($1, $2, $3, 'admin', true, $4)
ON CONFLICT (email) DO NOTHING`
	tag, err := r.db.Pool.Exec(ctx, q, u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
