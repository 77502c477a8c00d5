package streams

import (
	"sort"
	"time"

	"github.com/lucasjlepore/fitdaily/classify"
)

// Sample is one extracted, typed data point of a single signal. Fields that do
// not apply to a signal stay at their zero value.
type Sample struct {
	UserName         string
	ValueGeneratedAt time.Time
	Type             string
	Origin           string
	DataSource       string
	ModifiedTime     time.Time
	StartDate        time.Time
	EndDate          time.Time
	Unit             string
	Value            *float64

	// Sleep stage name and segment length in minutes.
	Label    string
	Duration *float64

	// Heart-rate context.
	Flags classify.Flags

	// Calorie split.
	ActiveCalories  bool
	RestingCalories bool

	// Workout laps and trackpoints.
	Sport           string
	LapStart        time.Time
	Distance        *float64
	LapAvgHeartRate *float64
	LapMaxHeartRate *float64
}

type sampleKey struct {
	userName, typ, origin, dataSource, unit, label, sport string
	generated, modified, start, end, lapStart             int64
	value, duration, distance, lapAvg, lapMax             optional
	flags                                                 classify.Flags
	active, resting                                       bool
}

type optional struct {
	set bool
	v   float64
}

func opt(p *float64) optional {
	if p == nil {
		return optional{}
	}
	return optional{set: true, v: *p}
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func (s Sample) key() sampleKey {
	return sampleKey{
		userName:   s.UserName,
		typ:        s.Type,
		origin:     s.Origin,
		dataSource: s.DataSource,
		unit:       s.Unit,
		label:      s.Label,
		sport:      s.Sport,
		generated:  unixNano(s.ValueGeneratedAt),
		modified:   unixNano(s.ModifiedTime),
		start:      unixNano(s.StartDate),
		end:        unixNano(s.EndDate),
		lapStart:   unixNano(s.LapStart),
		value:      opt(s.Value),
		duration:   opt(s.Duration),
		distance:   opt(s.Distance),
		lapAvg:     opt(s.LapAvgHeartRate),
		lapMax:     opt(s.LapMaxHeartRate),
		flags:      s.Flags,
		active:     s.ActiveCalories,
		resting:    s.RestingCalories,
	}
}

// Table is an immutable, ordered set of samples.
type Table struct {
	samples []Sample
}

// NewTable copies samples into a new table.
func NewTable(samples []Sample) Table {
	if len(samples) == 0 {
		return Table{}
	}
	return Table{samples: append([]Sample(nil), samples...)}
}

// Len returns the number of samples.
func (t Table) Len() int { return len(t.samples) }

// Empty reports whether the table has no samples.
func (t Table) Empty() bool { return len(t.samples) == 0 }

// At returns sample i.
func (t Table) At(i int) Sample { return t.samples[i] }

// Samples returns a copy of the samples.
func (t Table) Samples() []Sample {
	return append([]Sample(nil), t.samples...)
}

// Distinct removes samples equal by value in every field, keeping the first.
func (t Table) Distinct() Table {
	seen := make(map[sampleKey]struct{}, len(t.samples))
	out := make([]Sample, 0, len(t.samples))
	for _, s := range t.samples {
		k := s.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return Table{samples: out}
}

func dayOf(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

// sortByDateDesc orders samples by the day of date(s) descending, then by
// Type descending, then by the optional tie key ascending. The sort is stable.
func sortByDateDesc(samples []Sample, date func(Sample) time.Time, tie func(Sample) time.Time) {
	sort.SliceStable(samples, func(i, j int) bool {
		di, dj := dayOf(date(samples[i])), dayOf(date(samples[j]))
		if di != dj {
			return di > dj
		}
		if tie != nil {
			ti, tj := tie(samples[i]), tie(samples[j])
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
		}
		return samples[i].Type > samples[j].Type
	})
}
