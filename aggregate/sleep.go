package aggregate

import (
	"sort"
	"time"

	"github.com/lucasjlepore/fitdaily/records"
	"github.com/lucasjlepore/fitdaily/streams"
)

// TotalSleepDuration is the sum of light, deep and REM sleep for a day.
const TotalSleepDuration = "TotalSleepDuration"

var stageValueTypes = map[string]string{
	streams.StageLight: "TotalLightSleepDuration",
	streams.StageDeep:  "TotalDeepSleepDuration",
	streams.StageREM:   "TotalREMSleepDuration",
	streams.StageAwake: "TotalAwakeDuration",
}

// StageValueType names the per-day total of one sleep stage.
func StageValueType(label string) string {
	if vt, ok := stageValueTypes[label]; ok {
		return vt
	}
	return "Total" + label + "Duration"
}

func countsAsSleep(label string) bool {
	return label == streams.StageLight || label == streams.StageDeep || label == streams.StageREM
}

// Sleep sums segment durations per (user, day, stage) and adds a
// TotalSleepDuration row per day. The day is the segment's modification date.
func (a *Aggregator) Sleep(samples streams.Table) Table {
	rows := samples.Distinct().Samples()
	if len(rows) == 0 {
		return a.empty(SNameSleep)
	}
	typ := rows[0].Type

	type dayKey struct {
		user string
		date time.Time
		unit string
	}
	type stageKey struct {
		dayKey
		label string
	}
	stages := make(map[stageKey]float64)
	totals := make(map[dayKey]float64)
	for _, s := range rows {
		if s.ModifiedTime.IsZero() {
			continue
		}
		d := dayKey{user: s.UserName, date: records.Day(s.ModifiedTime), unit: s.Unit}
		var dur float64
		if s.Duration != nil {
			dur = *s.Duration
		}
		stages[stageKey{dayKey: d, label: s.Label}] += dur
		if countsAsSleep(s.Label) {
			totals[d] += dur
		}
	}

	now := a.generatedAt()
	out := make([]Row, 0, len(stages)+len(totals))
	for k, v := range stages {
		out = append(out, Row{
			UserName:         k.user,
			ValueGeneratedAt: now,
			SName:            SNameSleep,
			Date:             k.date,
			Type:             typ,
			Unit:             k.unit,
			ValueType:        StageValueType(k.label),
			Value:            ptr(round1(v)),
		})
	}
	for k, v := range totals {
		out = append(out, Row{
			UserName:         k.user,
			ValueGeneratedAt: now,
			SName:            SNameSleep,
			Date:             k.date,
			Type:             typ,
			Unit:             k.unit,
			ValueType:        TotalSleepDuration,
			Value:            ptr(round1(v)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		x, y := out[i], out[j]
		if !x.Date.Equal(y.Date) {
			return x.Date.After(y.Date)
		}
		if x.UserName != y.UserName {
			return x.UserName < y.UserName
		}
		if x.Type != y.Type {
			return x.Type > y.Type
		}
		if *x.Value != *y.Value {
			return *x.Value > *y.Value
		}
		return x.ValueType < y.ValueType
	})
	return Table{rows: out}
}
