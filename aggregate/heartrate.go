package aggregate

import (
	"sort"
	"time"

	"github.com/lucasjlepore/fitdaily/classify"
	"github.com/lucasjlepore/fitdaily/records"
	"github.com/lucasjlepore/fitdaily/streams"
)

// Heart-rate contexts in output order.
var hrContexts = []struct {
	name string
	in   func(classify.Flags) bool
}{
	{"day", func(classify.Flags) bool { return true }},
	{"activity", func(f classify.Flags) bool { return f.Activity }},
	{"sleep", func(f classify.Flags) bool { return f.Sleep }},
	{"workout", func(f classify.Flags) bool { return f.Workout }},
	{"resting", func(f classify.Flags) bool { return f.Resting }},
}

// HeartRateValueTypes lists the fifteen heart-rate metrics in output order.
func HeartRateValueTypes() []string {
	out := make([]string, 0, len(hrContexts)*3)
	for _, c := range hrContexts {
		out = append(out, c.name+"Avg", c.name+"Min", c.name+"Max")
	}
	return out
}

// stats is the running min/max/mean of a set of values.
type stats struct {
	n             int
	sum, min, max float64
}

func (s *stats) add(v float64) {
	if s.n == 0 || v < s.min {
		s.min = v
	}
	if s.n == 0 || v > s.max {
		s.max = v
	}
	s.sum += v
	s.n++
}

func (s stats) avg() *float64 {
	if s.n == 0 {
		return nil
	}
	return ptr(s.sum / float64(s.n))
}

func (s stats) minimum() *float64 {
	if s.n == 0 {
		return nil
	}
	return ptr(s.min)
}

func (s stats) maximum() *float64 {
	if s.n == 0 {
		return nil
	}
	return ptr(s.max)
}

// HeartRate computes avg/min/max per day for the whole day and for each
// activity context. Samples without a start are dropped, and only the first
// sample per start timestamp counts. Contexts with no samples yield nil values.
func (a *Aggregator) HeartRate(samples streams.Table) Table {
	rows := samples.Distinct().Samples()
	if len(rows) == 0 {
		return a.empty(SNameHeartRate)
	}
	typ, unit := rows[0].Type, rows[0].Unit

	type dayKey struct {
		user string
		date time.Time
	}
	type startKey struct {
		user  string
		start int64
	}
	seen := make(map[startKey]struct{})
	days := make(map[dayKey][]stats)
	var order []dayKey
	for _, s := range rows {
		if s.StartDate.IsZero() {
			continue
		}
		sk := startKey{user: s.UserName, start: s.StartDate.UnixNano()}
		if _, dup := seen[sk]; dup {
			continue
		}
		seen[sk] = struct{}{}

		dk := dayKey{user: s.UserName, date: records.Day(s.StartDate)}
		acc, ok := days[dk]
		if !ok {
			acc = make([]stats, len(hrContexts))
			order = append(order, dk)
		}
		if s.Value != nil {
			for i, c := range hrContexts {
				if c.in(s.Flags) {
					acc[i].add(*s.Value)
				}
			}
		}
		days[dk] = acc
	}
	if len(order) == 0 {
		return a.empty(SNameHeartRate)
	}
	sort.SliceStable(order, func(i, j int) bool {
		if !order[i].date.Equal(order[j].date) {
			return order[i].date.After(order[j].date)
		}
		return order[i].user < order[j].user
	})

	now := a.generatedAt()
	out := make([]Row, 0, len(order)*len(hrContexts)*3)
	for _, dk := range order {
		acc := days[dk]
		for i, c := range hrContexts {
			for _, m := range []struct {
				suffix string
				value  *float64
			}{
				{"Avg", acc[i].avg()},
				{"Min", acc[i].minimum()},
				{"Max", acc[i].maximum()},
			} {
				out = append(out, Row{
					UserName:         dk.user,
					ValueGeneratedAt: now,
					SName:            SNameHeartRate,
					Date:             dk.date,
					Type:             typ,
					Unit:             unit,
					ValueType:        c.name + m.suffix,
					Value:            rounded(m.value),
				})
			}
		}
	}
	return Table{rows: out}
}
