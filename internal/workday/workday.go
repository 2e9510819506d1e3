// Package workday rebuilds a civil day from its raw punches.
//
// Reconstruction is lenient: out-of-order or duplicated punches are reported as
// anomalies and skipped rather than failing the day. Admission of new punches is
// strict and lives in package sequence.
package workday

import (
	"fmt"
	"sort"
	"time"

	"github.com/and161185/pontofacil/internal/model"
)

// Anomaly messages.
const (
	AnomalyDuplicateEntrada     = "duplicate entrada"
	AnomalyEntradaWithBreakOpen = "entrada while break open"
	AnomalyBreakStartNoEntrada  = "break start without entrada"
	AnomalyDuplicateBreakStart  = "duplicate break start"
	AnomalyBreakEndNoStart      = "break end without break start"
	AnomalyBreakEndBeforeStart  = "break end before break start"
	AnomalySaidaNoEntrada       = "saida without entrada"
	AnomalySaidaWithBreakOpen   = "saida with break open"
	AnomalySaidaBeforeEntrada   = "saida before entrada"
	AnomalyBreakNeverClosed     = "break never closed"
	AnomalyEntradaNoSaida       = "entrada without saida"
	AnomalyNoEvents             = "no events recorded"
	AnomalyBreakNeedsFour       = "break requires exactly 4 punches (entrada, break start, break end, saida)"
)

// SegmentKind labels a reconstructed span.
type SegmentKind string

const (
	SegmentWork  SegmentKind = "work"
	SegmentBreak SegmentKind = "break"
)

// Segment is a closed span in civil time. Work segments exclude their breaks.
type Segment struct {
	Kind    SegmentKind
	Start   time.Time
	End     time.Time
	Seconds int64
}

// Day is the reconstructed jornada.
type Day struct {
	Date         string
	TotalSeconds int64
	Segments     []Segment
	Anomalies    []string

	// BreakPunchMismatch is set when a break punch exists and the day does not
	// have exactly four punches. Callers with blocking validation reject the day.
	BreakPunchMismatch bool
}

// TotalHHMM formats the worked total.
func (d Day) TotalHHMM() string { return FormatHHMM(d.TotalSeconds) }

// FormatHHMM renders seconds as zero-padded HH:MM. Negative input counts as zero.
func FormatHHMM(total int64) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/3600, (total%3600)/60)
}

func seconds(from, to time.Time) int64 { return int64(to.Sub(from) / time.Second) }

// Reconstruct walks the punches of one employee's civil day. Comparisons use the
// stored instants; segment bounds are converted to loc for display.
func Reconstruct(date string, events []model.ClockEvent, loc *time.Location) Day {
	sorted := make([]model.ClockEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RecordedAt.Before(sorted[j].RecordedAt) })

	day := Day{Date: date, Segments: []Segment{}, Anomalies: []string{}}
	anomaly := func(s string) { day.Anomalies = append(day.Anomalies, s) }

	var (
		workStart  *time.Time
		breakStart *time.Time
		breakSecs  int64
		hasBreak   bool
	)

	for _, ev := range sorted {
		ts := ev.RecordedAt
		if ev.Kind.IsBreak() {
			hasBreak = true
		}

		switch ev.Kind {
		case model.KindEntrada:
			if workStart != nil {
				anomaly(AnomalyDuplicateEntrada)
				continue
			}
			if breakStart != nil {
				anomaly(AnomalyEntradaWithBreakOpen)
				breakStart = nil
			}
			workStart = &ts

		case model.KindIntervaloInicio:
			if workStart == nil {
				anomaly(AnomalyBreakStartNoEntrada)
				continue
			}
			if breakStart != nil {
				anomaly(AnomalyDuplicateBreakStart)
				continue
			}
			breakStart = &ts

		case model.KindIntervaloFim:
			if breakStart == nil {
				anomaly(AnomalyBreakEndNoStart)
				continue
			}
			if !ts.After(*breakStart) {
				anomaly(AnomalyBreakEndBeforeStart)
				breakStart = nil
				continue
			}
			secs := seconds(*breakStart, ts)
			breakSecs += secs
			day.Segments = append(day.Segments, Segment{
				Kind:    SegmentBreak,
				Start:   breakStart.In(loc),
				End:     ts.In(loc),
				Seconds: secs,
			})
			breakStart = nil

		case model.KindSaida:
			if workStart == nil {
				anomaly(AnomalySaidaNoEntrada)
				continue
			}
			if breakStart != nil {
				anomaly(AnomalySaidaWithBreakOpen)
				breakStart = nil
			}
			if !ts.After(*workStart) {
				anomaly(AnomalySaidaBeforeEntrada)
				workStart = nil
				breakSecs = 0
				continue
			}
			worked := seconds(*workStart, ts) - breakSecs
			if worked < 0 {
				worked = 0
			}
			day.Segments = append(day.Segments, Segment{
				Kind:    SegmentWork,
				Start:   workStart.In(loc),
				End:     ts.In(loc),
				Seconds: worked,
			})
			day.TotalSeconds += worked
			workStart, breakStart, breakSecs = nil, nil, 0

		default:
			anomaly(fmt.Sprintf("unknown punch kind: %s", ev.Kind))
		}
	}

	if breakStart != nil {
		anomaly(AnomalyBreakNeverClosed)
	}
	if workStart != nil {
		anomaly(AnomalyEntradaNoSaida)
	}
	if len(sorted) == 0 {
		anomaly(AnomalyNoEvents)
	}
	if hasBreak && len(sorted) != 4 {
		day.BreakPunchMismatch = true
		anomaly(AnomalyBreakNeedsFour)
	}
	return day
}
