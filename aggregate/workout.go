package aggregate

import (
	"time"

	"github.com/lucasjlepore/fitdaily/records"
	"github.com/lucasjlepore/fitdaily/streams"
)

// Value types of the workout series.
const (
	TotalWorkoutDuration = "TotalWorkoutDuration"
	WorkoutCount         = "WorkoutCount"
	WorkoutAvg           = "workoutAvg"
	WorkoutMax           = "workoutMax"

	UnitCount = "count"
)

type workoutDay struct {
	user  string
	date  time.Time
	sport string
}

// WorkoutDuration sums lap durations per (user, day, sport) and counts the
// distinct activities behind them. The day is the lap start date.
func (a *Aggregator) WorkoutDuration(laps streams.Table) Table {
	rows := laps.Distinct().Samples()
	if len(rows) == 0 {
		return a.empty(SNameWorkoutDuration)
	}

	type acc struct {
		unit       string
		minutes    float64
		activities map[int64]struct{}
	}
	days := make(map[workoutDay]*acc)
	var order []workoutDay
	for _, s := range rows {
		if s.LapStart.IsZero() {
			continue
		}
		k := workoutDay{user: s.UserName, date: records.Day(s.LapStart), sport: s.Sport}
		d, ok := days[k]
		if !ok {
			d = &acc{unit: s.Unit, activities: make(map[int64]struct{})}
			days[k] = d
			order = append(order, k)
		}
		if s.Duration != nil {
			d.minutes += *s.Duration
		}
		d.activities[s.ModifiedTime.UnixNano()] = struct{}{}
	}

	now := a.generatedAt()
	out := make([]Row, 0, len(order)*2)
	for _, k := range order {
		d := days[k]
		out = append(out,
			Row{
				UserName:         k.user,
				ValueGeneratedAt: now,
				SName:            SNameWorkoutDuration,
				Date:             k.date,
				Type:             k.sport,
				Unit:             d.unit,
				ValueType:        TotalWorkoutDuration,
				Value:            ptr(round1(d.minutes)),
			},
			Row{
				UserName:         k.user,
				ValueGeneratedAt: now,
				SName:            SNameWorkoutDuration,
				Date:             k.date,
				Type:             k.sport,
				Unit:             UnitCount,
				ValueType:        WorkoutCount,
				Value:            ptr(float64(len(d.activities))),
			},
		)
	}
	return NewTable(out).SortByDateDesc()
}

// WorkoutHeartRate reports the mean and peak trackpoint heart rate per
// (user, day, sport).
func (a *Aggregator) WorkoutHeartRate(points streams.Table) Table {
	rows := points.Distinct().Samples()
	if len(rows) == 0 {
		return a.empty(SNameWorkoutHeartRate)
	}

	days := make(map[workoutDay]*stats)
	units := make(map[workoutDay]string)
	var order []workoutDay
	for _, s := range rows {
		if s.StartDate.IsZero() {
			continue
		}
		k := workoutDay{user: s.UserName, date: records.Day(s.StartDate), sport: s.Sport}
		st, ok := days[k]
		if !ok {
			st = &stats{}
			days[k] = st
			units[k] = s.Unit
			order = append(order, k)
		}
		if s.Value != nil {
			st.add(*s.Value)
		}
	}

	now := a.generatedAt()
	out := make([]Row, 0, len(order)*2)
	for _, k := range order {
		st := days[k]
		for _, m := range []struct {
			valueType string
			value     *float64
		}{
			{WorkoutAvg, st.avg()},
			{WorkoutMax, st.maximum()},
		} {
			out = append(out, Row{
				UserName:         k.user,
				ValueGeneratedAt: now,
				SName:            SNameWorkoutHeartRate,
				Date:             k.date,
				Type:             k.sport,
				Unit:             units[k],
				ValueType:        m.valueType,
				Value:            rounded(m.value),
			})
		}
	}
	return NewTable(out).SortByDateDesc()
}
