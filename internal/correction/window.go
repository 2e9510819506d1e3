// Package correction bounds the instants an administrator may write to.
package correction

import (
	"time"

	"github.com/and161185/pontofacil/internal/errs"
)

// Lookahead is the fixed tolerance into the future.
const Lookahead = 24 * time.Hour

// Window admits targets within [now - Days, now + Lookahead], both ends inclusive.
type Window struct {
	Days int
}

// Bounds returns the earliest and latest admissible instants.
func (w Window) Bounds(now time.Time) (time.Time, time.Time) {
	return now.Add(-time.Duration(w.Days) * 24 * time.Hour), now.Add(Lookahead)
}

// Check fails with *errs.WindowError when target falls outside the window.
func (w Window) Check(now, target time.Time) error {
	lo, hi := w.Bounds(now)
	if target.Before(lo) || target.After(hi) {
		return &errs.WindowError{Days: w.Days}
	}
	return nil
}
