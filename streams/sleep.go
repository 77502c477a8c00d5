package streams

import (
	"math"

	"github.com/lucasjlepore/fitdaily/records"
	"github.com/lucasjlepore/fitdaily/window"
)

// Sleep stage labels.
const (
	StageAwake    = "Awake"
	StageSleep    = "Sleep"
	StageOutOfBed = "OutOfBed"
	StageLight    = "LightSleep"
	StageDeep     = "DeepSleep"
	StageREM      = "REMSleep"
	StageUnknown  = "Unknown"
)

var sleepStages = map[int]string{
	1: StageAwake,
	2: StageSleep,
	3: StageOutOfBed,
	4: StageLight,
	5: StageDeep,
	6: StageREM,
}

// StageLabel maps a Google Fit sleep segment code to its stage name.
func StageLabel(code float64) string {
	if code != math.Trunc(code) {
		return StageUnknown
	}
	if label, ok := sleepStages[int(code)]; ok {
		return label
	}
	return StageUnknown
}

// Sleep extracts sleep segments modified inside spec, labelled by stage with
// their length in minutes.
func (e *Extractor) Sleep(t records.Table, spec window.Spec) Table {
	rows := window.Filter(t.Stream(e.ids.Sleep), spec, window.GovernedBy(window.ByModifiedTime))
	if rows.Empty() {
		return e.empty("sleep", spec)
	}
	now := e.generatedAt()
	out := make([]Sample, 0, rows.Len())
	for _, ev := range rows.Rows() {
		s := e.sample(ev, UnitMin, now)
		s.Label = StageUnknown
		if s.Value != nil {
			s.Label = StageLabel(*s.Value)
		}
		if !ev.StartDate.IsZero() && !ev.EndDate.IsZero() {
			s.Duration = ptr(round(ev.EndDate.Sub(ev.StartDate).Minutes(), 1))
		}
		out = append(out, s)
	}
	sortByDateDesc(out, byModified, nil)
	return Table{samples: out}
}
