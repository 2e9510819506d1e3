package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/and161185/pontofacil/internal/clock"
)

// PG is a PostgreSQL-backed limiter with a fixed failure window and lockout.
type PG struct {
	pool     pgxQuerier
	clk      clock.Clock
	window   time.Duration
	maxFails int
	blockFor time.Duration
}

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config holds throttling thresholds.
type Config struct {
	Window   time.Duration
	MaxFails int
	BlockFor time.Duration
}

// NewPG constructs a PostgreSQL-backed limiter. A *pgxpool.Pool satisfies q.
func NewPG(q pgxQuerier, clk clock.Clock, cfg Config) *PG {
	return &PG{pool: q, clk: clk, window: cfg.Window, maxFails: cfg.MaxFails, blockFor: cfg.BlockFor}
}

// Allow reports whether an attempt is currently allowed and a retry-after duration.
func (l *PG) Allow(ctx context.Context, key Key) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM auth_throttle WHERE scope=$1 AND subject=$2 AND ip_hash=$3`
	var blockedUntil time.Time
	err := l.pool.QueryRow(ctx, q, key.Scope, key.Subject, key.IPHash).Scan(&blockedUntil)
	switch {
	case err == nil:
		now := l.clk.Now()
		if blockedUntil.After(now) {
			return false, blockedUntil.Sub(now), nil
		}
		return true, 0, nil
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	default:
		return false, 0, err
	}
}

// Success resets counters for the key.
func (l *PG) Success(ctx context.Context, key Key) error {
	const q = `
INSERT INTO auth_throttle (scope, subject, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,$3,0,'epoch',$4)
ON CONFLICT (scope, subject, ip_hash)
DO UPDATE SET fail_count=0, blocked_until='epoch', updated_at=EXCLUDED.updated_at`
	_, err := l.pool.Exec(ctx, q, key.Scope, key.Subject, key.IPHash, l.clk.Now())
	return err
}

// Failure records a failed attempt; may set a block until a future time.
func (l *PG) Failure(ctx context.Context, key Key) (bool, time.Duration, error) {
	now := l.clk.Now()

	const q = `
INSERT INTO auth_throttle (scope, subject, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,$3,1,'epoch',$4)
ON CONFLICT (scope, subject, ip_hash) DO UPDATE
SET
  fail_count = CASE WHEN EXCLUDED.updated_at - auth_throttle.updated_at > $5::interval THEN 1 ELSE auth_throttle.fail_count + 1 END,
  updated_at = EXCLUDED.updated_at
RETURNING fail_count`
	var fails int
	if err := l.pool.QueryRow(ctx, q, key.Scope, key.Subject, key.IPHash, now, l.window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails >= l.maxFails {
		blockUntil := now.Add(l.blockFor)
		const upd = `UPDATE auth_throttle SET blocked_until=$4 WHERE scope=$1 AND subject=$2 AND ip_hash=$3`
		if _, err := l.pool.Exec(ctx, upd, key.Scope, key.Subject, key.IPHash, blockUntil); err != nil {
			return false, 0, err
		}
		return true, l.blockFor, nil
	}
	return false, 0, nil
}
