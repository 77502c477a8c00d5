package aggregate

import (
	"time"

	"github.com/lucasjlepore/fitdaily/records"
	"github.com/lucasjlepore/fitdaily/streams"
)

// Value types of the calorie series.
const (
	TotalCaloriesBurned   = "TotalCaloriesBurned"
	ActiveCaloriesBurned  = "ActiveCaloriesBurned"
	RestingCaloriesBurned = "RestingCaloriesBurned"
)

// Calories sums calorie samples per modification day into total, active and
// resting rows.
func (a *Aggregator) Calories(samples streams.Table) Table {
	rows := samples.Distinct().Samples()
	if len(rows) == 0 {
		return a.empty(SNameCalories)
	}
	typ := rows[0].Type

	type dayKey struct {
		user string
		date time.Time
		unit string
	}
	type split struct{ total, active, resting float64 }
	days := make(map[dayKey]*split)
	var order []dayKey
	for _, s := range rows {
		if s.ModifiedTime.IsZero() || s.Value == nil {
			continue
		}
		k := dayKey{user: s.UserName, date: records.Day(s.ModifiedTime), unit: s.Unit}
		d, ok := days[k]
		if !ok {
			d = &split{}
			days[k] = d
			order = append(order, k)
		}
		d.total += *s.Value
		switch {
		case s.ActiveCalories:
			d.active += *s.Value
		case s.RestingCalories:
			d.resting += *s.Value
		}
	}

	now := a.generatedAt()
	out := make([]Row, 0, len(order)*3)
	for _, k := range order {
		d := days[k]
		for _, m := range []struct {
			valueType string
			value     float64
		}{
			{TotalCaloriesBurned, d.total},
			{ActiveCaloriesBurned, d.active},
			{RestingCaloriesBurned, d.resting},
		} {
			out = append(out, Row{
				UserName:         k.user,
				ValueGeneratedAt: now,
				SName:            SNameCalories,
				Date:             k.date,
				Type:             typ,
				Unit:             k.unit,
				ValueType:        m.valueType,
				Value:            ptr(round1(m.value)),
			})
		}
	}
	return NewTable(out).SortByDateDesc()
}
