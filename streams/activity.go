package streams

import (
	"github.com/lucasjlepore/fitdaily/records"
	"github.com/lucasjlepore/fitdaily/window"
)

// Steps extracts estimated step deltas whose interval lies inside spec.
func (e *Extractor) Steps(t records.Table, spec window.Spec) Table {
	return e.activity("steps", t.Stream(e.ids.Steps), spec, UnitSteps, nil)
}

// Distance extracts distance deltas, converted from meters to kilometers.
func (e *Extractor) Distance(t records.Table, spec window.Spec) Table {
	return e.activity("distance", t.Stream(e.ids.Distance), spec, UnitKM, func(m float64) float64 {
		return m / 1000
	})
}

// ActivityCalories extracts calorie segments attributed to a concrete source.
// Self-referential merge rows are used only when nothing else is present.
func (e *Extractor) ActivityCalories(t records.Table, spec window.Spec) Table {
	return e.activity("activity calories", e.sourcedCalories(t), spec, UnitKcal, nil)
}

func (e *Extractor) sourcedCalories(t records.Table) records.Table {
	all := t.Stream(e.ids.Calories)
	sourced := all.Where(func(ev records.Event) bool {
		return ev.OriginDataSourceID != e.ids.Calories
	})
	if sourced.Empty() {
		return all
	}
	return sourced
}

func (e *Extractor) activity(signal string, rows records.Table, spec window.Spec, unit string, convert func(float64) float64) Table {
	rows = window.Filter(rows, spec, window.GovernedBy(window.ByStartDate), window.RequireEndWithin())
	if rows.Empty() {
		return e.empty(signal, spec)
	}
	now := e.generatedAt()
	out := make([]Sample, 0, rows.Len())
	for _, ev := range rows.Rows() {
		s := e.sample(ev, unit, now)
		if s.Value != nil && convert != nil {
			s.Value = ptr(convert(*s.Value))
		}
		out = append(out, s)
	}
	sortByDateDesc(out, byStart, nil)
	return Table{samples: out}
}
