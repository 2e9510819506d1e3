// Package limiter defines interfaces and implementations for authentication
// attempt throttling.
package limiter

import (
	"context"
	"crypto/sha256"
	"time"
)

// Throttled scopes.
const (
	ScopePassword = "password"
	ScopeDevice   = "device"
	ScopePairing  = "pairing"
)

// Key identifies one throttled counter.
type Key struct {
	Scope   string
	Subject string // email or device id; empty for ip-only scopes
	IPHash  []byte
}

// NewKey builds a key, hashing the raw client ip.
func NewKey(scope, subject, ip string) Key {
	return Key{Scope: scope, Subject: subject, IPHash: HashIP(ip)}
}

// Limiter controls authentication attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether an attempt is currently allowed and optional retry-after.
	Allow(ctx context.Context, key Key) (bool, time.Duration, error)
	// Success resets counters after a successful attempt.
	Success(ctx context.Context, key Key) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, key Key) (bool, time.Duration, error)
}

// HashIP returns a stable hash for an IP string to avoid storing raw addresses.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}

// Nop never throttles.
type Nop struct{}

func (Nop) Allow(context.Context, Key) (bool, time.Duration, error)   { return true, 0, nil }
func (Nop) Success(context.Context, Key) error                        { return nil }
func (Nop) Failure(context.Context, Key) (bool, time.Duration, error) { return false, 0, nil }
