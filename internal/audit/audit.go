// Package audit holds the rules shared by the audit trail writers and readers:
// reason validation, page size clamping and the opaque keyset cursor.
package audit

import (
	"encoding/base64"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/model"
)

// Page size limits.
const (
	DefaultLimit = 200
	MaxLimit     = 500
)

// Reason length limits, in characters.
const (
	MinReason = 3
	MaxReason = 500
)

// ValidateReason enforces the free-text justification length.
func ValidateReason(reason string) error {
	n := utf8.RuneCountInString(reason)
	if n < MinReason || n > MaxReason {
		return errs.ErrInvalidReason
	}
	return nil
}

// ClampLimit maps a requested page size into [1, MaxLimit]. Callers apply
// DefaultLimit when no size was requested.
func ClampLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

type cursorPayload struct {
	At int64  `cbor:"1,keyasint"` // unix microseconds, matching timestamptz precision
	ID []byte `cbor:"2,keyasint"`
}

// EncodeCursor returns the opaque token for the row at (createdAt, id).
func EncodeCursor(c model.AuditCursor) (string, error) {
	raw, err := cbor.Marshal(cursorPayload{At: c.CreatedAt.UnixMicro(), ID: c.ID.Bytes()})
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (model.AuditCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return model.AuditCursor{}, errs.ErrInvalidCursor
	}
	var p cursorPayload
	if err := cbor.Unmarshal(raw, &p); err != nil {
		return model.AuditCursor{}, errs.ErrInvalidCursor
	}
	id, err := uuid.FromBytes(p.ID)
	if err != nil || id == uuid.Nil {
		return model.AuditCursor{}, errs.ErrInvalidCursor
	}
	return model.AuditCursor{CreatedAt: time.UnixMicro(p.At).UTC(), ID: id}, nil
}

// NextCursor derives the continuation token: present only when the page is full.
func NextCursor(items []model.AuditEntry, limit int) (string, error) {
	if len(items) == 0 || len(items) != limit {
		return "", nil
	}
	last := items[len(items)-1]
	return EncodeCursor(model.AuditCursor{CreatedAt: last.CreatedAt, ID: last.ID})
}
