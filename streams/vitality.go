package streams

import (
	"github.com/lucasjlepore/fitdaily/classify"
	"github.com/lucasjlepore/fitdaily/records"
	"github.com/lucasjlepore/fitdaily/window"
)

// HeartRate extracts heart-rate samples tagged with the activity context they
// fall in. Classification runs over every stream inside the window, so sleep,
// workout and activity segments must be present in t.
func (e *Extractor) HeartRate(t records.Table, spec window.Spec) Table {
	inWindow := window.Filter(t, spec, window.GovernedBy(window.ByStartDate), window.RequireEndWithin())
	rows := classify.Classify(inWindow, e.classify...).Stream(e.ids.HeartRate)
	if len(rows) == 0 {
		return e.empty("heart rate", spec)
	}
	now := e.generatedAt()
	out := make([]Sample, 0, len(rows))
	for _, r := range rows {
		s := e.sample(r.Event, UnitBPM, now)
		s.Flags = r.Flags
		out = append(out, s)
	}
	sortByDateDesc(out, byStart, byStart)
	return Table{samples: out}
}

// TotalCalories extracts every calorie segment modified inside spec and marks
// it active (attributed to a concrete source) or resting (merge baseline).
func (e *Extractor) TotalCalories(t records.Table, spec window.Spec) Table {
	rows := window.Filter(t.Stream(e.ids.Calories), spec, window.GovernedBy(window.ByModifiedTime))
	if rows.Empty() {
		return e.empty("total calories", spec)
	}
	now := e.generatedAt()
	out := make([]Sample, 0, rows.Len())
	for _, ev := range rows.Rows() {
		s := e.sample(ev, UnitKcal, now)
		s.ActiveCalories = ev.OriginDataSourceID != e.ids.Calories
		s.RestingCalories = !s.ActiveCalories
		out = append(out, s)
	}
	sortByDateDesc(out, byModified, nil)
	return Table{samples: out}
}
