// Package civiltime converts between stored UTC instants and civil days of the
// deployment's timezone. Day boundaries follow the zone's DST rules, so a civil
// day may span 23 or 25 hours of stored time.
package civiltime

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	// Containers often ship without a zoneinfo database.
	_ "time/tzdata"

	"github.com/and161185/pontofacil/internal/errs"
)

// DateLayout is the wire format of a civil date.
const DateLayout = "2006-01-02"

var hhmmRe = regexp.MustCompile(`^(\d{2}):(\d{2})$`)

// Zone is the fixed civil timezone of the deployment.
type Zone struct {
	loc *time.Location
}

// Load resolves an IANA zone name.
func Load(name string) (*Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return &Zone{loc: loc}, nil
}

// New wraps an already resolved location.
func New(loc *time.Location) *Zone { return &Zone{loc: loc} }

// Location returns the underlying location.
func (z *Zone) Location() *time.Location { return z.loc }

// Local converts a stored instant to civil time for display.
func (z *Zone) Local(t time.Time) time.Time { return t.In(z.loc) }

// DateOf returns the civil date containing t.
func (z *Zone) DateOf(t time.Time) string { return t.In(z.loc).Format(DateLayout) }

func parseDate(date string) (y int, m time.Month, d int, err error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", errs.ErrInvalidDate, date)
	}
	y, m, d = t.Date()
	return y, m, d, nil
}

// DayBounds returns the inclusive start and exclusive end of the civil day, in UTC.
func (z *Zone) DayBounds(date string) (start, end time.Time, err error) {
	y, m, d, err := parseDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = time.Date(y, m, d, 0, 0, 0, 0, z.loc).UTC()
	end = time.Date(y, m, d+1, 0, 0, 0, 0, z.loc).UTC()
	return start, end, nil
}

// Range converts optional civil start/end dates into UTC bounds. The end bound is
// exclusive and covers the whole end day. Empty strings leave a side open.
func (z *Zone) Range(startDate, endDate string) (from, to *time.Time, err error) {
	if startDate != "" {
		s, _, err := z.DayBounds(startDate)
		if err != nil {
			return nil, nil, err
		}
		from = &s
	}
	if endDate != "" {
		_, e, err := z.DayBounds(endDate)
		if err != nil {
			return nil, nil, err
		}
		to = &e
	}
	return from, to, nil
}

// At returns the UTC instant of the civil date at HH:MM.
func (z *Zone) At(date, hhmm string) (time.Time, error) {
	mm := hhmmRe.FindStringSubmatch(hhmm)
	if mm == nil {
		return time.Time{}, errs.ErrInvalidTimeFormat
	}
	hour, _ := strconv.Atoi(mm[1])
	minute, _ := strconv.Atoi(mm[2])
	if hour > 23 || minute > 59 {
		return time.Time{}, errs.ErrInvalidTimeFormat
	}
	y, m, d, err := parseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(y, m, d, hour, minute, 0, 0, z.loc).UTC(), nil
}
