package window

import (
	"time"

	"github.com/lucasjlepore/fitdaily/records"
)

// Governing selects the timestamp tested against a window.
type Governing int

const (
	ByStartDate Governing = iota
	ByModifiedTime
)

func (g Governing) of(e records.Event) time.Time {
	if g == ByModifiedTime {
		return e.ModifiedTime
	}
	return e.StartDate
}

type filterConfig struct {
	governing  Governing
	requireEnd bool
}

// Option tunes Filter.
type Option func(*filterConfig)

// GovernedBy picks the governing timestamp. The default is ByStartDate.
func GovernedBy(g Governing) Option {
	return func(c *filterConfig) { c.governing = g }
}

// RequireEndWithin additionally requires EndDate to lie inside the window, so
// records that run past the window edge are left out.
func RequireEndWithin() Option {
	return func(c *filterConfig) { c.requireEnd = true }
}

// Filter returns the rows of t that fall inside spec. ExplicitList specs are
// resolved one date at a time and the union is de-duplicated. An empty result
// is a valid answer, not an error.
func Filter(t records.Table, spec Spec, opts ...Option) records.Table {
	cfg := filterConfig{governing: ByStartDate}
	for _, opt := range opts {
		opt(&cfg)
	}
	if t.Empty() || spec == nil {
		return records.Table{}
	}

	intervals := spec.Intervals()
	if _, ok := spec.(ExplicitList); !ok {
		out := records.Table{}
		for _, iv := range intervals {
			out = out.Concat(filterInterval(t, iv, cfg))
		}
		return out
	}

	parts := make([]records.Table, 0, len(intervals))
	for _, iv := range intervals {
		parts = append(parts, filterInterval(t, iv, cfg))
	}
	return records.Table{}.Concat(parts...).Distinct()
}

func filterInterval(t records.Table, iv Interval, cfg filterConfig) records.Table {
	return t.Where(func(e records.Event) bool {
		if !iv.Contains(cfg.governing.of(e)) {
			return false
		}
		if cfg.requireEnd && !iv.Contains(e.EndDate) {
			return false
		}
		return true
	})
}

// FilterWorkout returns the trackpoints of w for which every timestamp picked
// by times lies inside one interval of spec. Order is preserved; a point that
// matches several list dates is kept once.
func FilterWorkout(w records.Workout, spec Spec, times ...func(records.Trackpoint) time.Time) records.Workout {
	if w.Empty() || spec == nil || len(times) == 0 {
		return records.Workout{}
	}
	intervals := spec.Intervals()
	return w.Where(func(p records.Trackpoint) bool {
		for _, iv := range intervals {
			if allWithin(iv, p, times) {
				return true
			}
		}
		return false
	})
}

func allWithin(iv Interval, p records.Trackpoint, times []func(records.Trackpoint) time.Time) bool {
	for _, pick := range times {
		if !iv.Contains(pick(p)) {
			return false
		}
	}
	return true
}
