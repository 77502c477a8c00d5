// Package classify tags each record with the activity context it occurred in
// by testing its interval against sleep, workout and activity segments taken
// from the same table.
package classify

import (
	"github.com/lucasjlepore/fitdaily/records"
)

// Flags are the mutually exclusive activity contexts of one record.
type Flags struct {
	Sleep    bool
	Workout  bool
	Activity bool
	Resting  bool
}

// Context names the single flag that is set.
func (f Flags) Context() string {
	switch {
	case f.Sleep:
		return "sleep"
	case f.Workout:
		return "workout"
	case f.Activity:
		return "activity"
	default:
		return "resting"
	}
}

// Valid reports whether exactly one flag is set.
func (f Flags) Valid() bool {
	n := 0
	for _, b := range []bool{f.Sleep, f.Workout, f.Activity, f.Resting} {
		if b {
			n++
		}
	}
	return n == 1
}

// Row is an event with its derived flags.
type Row struct {
	records.Event
	Flags Flags
}

// Table is the classified copy of a records.Table.
type Table struct {
	rows []Row
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.rows) }

// Rows returns a copy of the rows.
func (t Table) Rows() []Row { return append([]Row(nil), t.rows...) }

// Stream returns the classified rows whose DataSource equals id.
func (t Table) Stream(id string) []Row {
	var out []Row
	for _, r := range t.rows {
		if r.DataSource == id {
			out = append(out, r)
		}
	}
	return out
}

// References selects which rows of the table act as reference segments.
type References struct {
	Sleep    func(records.Event) bool
	Workout  func(records.Event) bool
	Activity func(records.Event) bool
}

// DefaultReferences uses the merged Google Fit streams: sleep segments,
// per-source calorie segments (workouts), and active-minute / estimated-step
// segments.
func DefaultReferences() References {
	return References{
		Sleep: func(e records.Event) bool {
			return e.DataSource == records.StreamSleepSegment
		},
		Workout: func(e records.Event) bool {
			return e.DataSource == records.StreamCaloriesExpended &&
				e.OriginDataSourceID != records.StreamCaloriesExpended
		},
		Activity: func(e records.Event) bool {
			return e.DataSource == records.StreamActiveMinutes ||
				e.DataSource == records.StreamEstimatedSteps
		},
	}
}

// Option tunes Classify.
type Option func(*References)

// WithReferences replaces the reference stream selectors.
func WithReferences(refs References) Option {
	return func(r *References) { *r = refs }
}

// Classify flags every row of t. Sleep wins over workout, workout over
// activity; resting is whatever is left. Overlap is inclusive at both ends.
// t itself is not modified.
func Classify(t records.Table, opts ...Option) Table {
	refs := DefaultReferences()
	for _, opt := range opts {
		opt(&refs)
	}
	rows := t.Rows()
	if len(rows) == 0 {
		return Table{}
	}

	sleep := newIntervalIndex(t.Where(refs.Sleep).Rows())
	workout := newIntervalIndex(t.Where(refs.Workout).Rows())
	activity := newIntervalIndex(t.Where(refs.Activity).Rows())

	out := make([]Row, len(rows))
	for i, e := range rows {
		var f Flags
		switch {
		case sleep.overlaps(e.StartDate, e.EndDate):
			f.Sleep = true
		case workout.overlaps(e.StartDate, e.EndDate):
			f.Workout = true
		case activity.overlaps(e.StartDate, e.EndDate):
			f.Activity = true
		default:
			f.Resting = true
		}
		out[i] = Row{Event: e, Flags: f}
	}
	return Table{rows: out}
}
