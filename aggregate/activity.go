package aggregate

import (
	"sort"
	"time"

	"github.com/lucasjlepore/fitdaily/records"
	"github.com/lucasjlepore/fitdaily/streams"
)

// Value types of the activity series.
const (
	TotalStepCount              = "TotalStepCount"
	TotalWalkingRunningDistance = "TotalWalkingRunningDistance"
	TotalActivityCalories       = "TotalActivityCalories"
)

// StepCount sums step samples per day.
func (a *Aggregator) StepCount(samples streams.Table) Table {
	return a.summed(samples, SNameStepCount, TotalStepCount)
}

// Distance sums distance samples per day.
func (a *Aggregator) Distance(samples streams.Table) Table {
	return a.summed(samples, SNameDistance, TotalWalkingRunningDistance)
}

// ActivityCalories sums per-activity calorie samples per day.
func (a *Aggregator) ActivityCalories(samples streams.Table) Table {
	return a.summed(samples, SNameActivityCalories, TotalActivityCalories)
}

type sumKey struct {
	user     string
	date     time.Time
	startDay time.Time
	endDay   time.Time
	unit     string
}

func (k sumKey) less(o sumKey) bool {
	switch {
	case k.user != o.user:
		return k.user < o.user
	case !k.date.Equal(o.date):
		return k.date.Before(o.date)
	case !k.startDay.Equal(o.startDay):
		return k.startDay.Before(o.startDay)
	case !k.endDay.Equal(o.endDay):
		return k.endDay.Before(o.endDay)
	default:
		return k.unit < o.unit
	}
}

type sumGroup struct {
	key sumKey
	sum float64
}

// summed groups samples by (user, start day, end day, unit), sums each group
// and applies the tie-break policy within every (user, date).
func (a *Aggregator) summed(samples streams.Table, series, valueType string) Table {
	rows := samples.Distinct().Samples()
	if len(rows) == 0 {
		return a.empty(series)
	}
	typ := rows[0].Type

	sums := make(map[sumKey]float64)
	for _, s := range rows {
		if s.StartDate.IsZero() || s.EndDate.IsZero() {
			continue
		}
		day := records.Day(s.StartDate)
		k := sumKey{user: s.UserName, date: day, startDay: day, endDay: records.Day(s.EndDate), unit: s.Unit}
		v := sums[k]
		if s.Value != nil {
			v += *s.Value
		}
		sums[k] = v
	}
	groups := make([]sumGroup, 0, len(sums))
	for k, v := range sums {
		groups = append(groups, sumGroup{key: k, sum: v})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].key.less(groups[j].key) })

	kept := groups
	if a.tieBreak == KeepMax {
		kept = keepMax(groups)
	}

	now := a.generatedAt()
	out := make([]Row, 0, len(kept))
	for _, g := range kept {
		out = append(out, Row{
			UserName:         g.key.user,
			ValueGeneratedAt: now,
			SName:            series,
			Date:             g.key.date,
			Type:             typ,
			Unit:             g.key.unit,
			ValueType:        valueType,
			Value:            ptr(round1(g.sum)),
		})
	}
	return NewTable(out).SortByDateDesc()
}

// keepMax keeps the largest group per (user, date). groups must be sorted by
// key; the first of equal maxima wins.
func keepMax(groups []sumGroup) []sumGroup {
	type day struct {
		user string
		date time.Time
	}
	best := make(map[day]int)
	var order []day
	for i, g := range groups {
		d := day{user: g.key.user, date: g.key.date}
		j, ok := best[d]
		if !ok {
			best[d] = i
			order = append(order, d)
			continue
		}
		if g.sum > groups[j].sum {
			best[d] = i
		}
	}
	out := make([]sumGroup, 0, len(order))
	for _, d := range order {
		out = append(out, groups[best[d]])
	}
	return out
}
