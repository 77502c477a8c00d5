package streams

import (
	"sort"
	"time"

	"github.com/lucasjlepore/fitdaily/records"
	"github.com/lucasjlepore/fitdaily/window"
)

func activityID(p records.Trackpoint) time.Time { return p.ActivityID }
func pointTime(p records.Trackpoint) time.Time  { return p.Time }

// WorkoutDuration emits one sample per lap of every activity started inside
// spec. StartDate and EndDate span the lap's trackpoints; Duration is the
// recorded lap time in minutes and Distance the lap distance in meters.
func (e *Extractor) WorkoutDuration(w records.Workout, spec window.Spec) Table {
	points := window.FilterWorkout(w, spec, activityID)
	if points.Empty() {
		return e.empty("workout duration", spec)
	}

	type lapKey struct {
		user  string
		start int64
	}
	laps := make(map[lapKey]*Sample)
	var order []lapKey
	now := e.generatedAt()
	for _, p := range points.Points() {
		k := lapKey{user: p.UserName, start: unixNano(p.LapStartTime)}
		lap, ok := laps[k]
		if !ok {
			lap = &Sample{
				UserName:         p.UserName,
				ValueGeneratedAt: now,
				Type:             p.Sport,
				Sport:            p.Sport,
				LapStart:         p.LapStartTime,
				ModifiedTime:     p.ActivityID,
				Unit:             UnitMin,
			}
			if p.LapTotalTimeSeconds != nil {
				lap.Duration = ptr(round(*p.LapTotalTimeSeconds/60, 1))
				lap.Value = clone(lap.Duration)
			}
			if p.LapDistanceMeters != nil {
				lap.Distance = ptr(round(*p.LapDistanceMeters, 3))
			}
			laps[k] = lap
			order = append(order, k)
		}
		if p.Time.IsZero() {
			continue
		}
		if lap.StartDate.IsZero() || p.Time.Before(lap.StartDate) {
			lap.StartDate = p.Time
		}
		if lap.EndDate.IsZero() || p.Time.After(lap.EndDate) {
			lap.EndDate = p.Time
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].start < order[j].start })
	out := make([]Sample, 0, len(order))
	for _, k := range order {
		out = append(out, *laps[k])
	}
	sortByDateDesc(out, func(s Sample) time.Time { return s.LapStart }, func(s Sample) time.Time { return s.LapStart })
	return Table{samples: out}
}

// WorkoutHeartRate emits one sample per trackpoint whose activity and
// timestamp both fall inside spec. Repeated trackpoint timestamps are kept once.
func (e *Extractor) WorkoutHeartRate(w records.Workout, spec window.Spec) Table {
	points := window.FilterWorkout(w, spec, activityID, pointTime)
	if points.Empty() {
		return e.empty("workout heart rate", spec)
	}
	now := e.generatedAt()
	seen := make(map[int64]struct{}, points.Len())
	out := make([]Sample, 0, points.Len())
	for _, p := range points.Points() {
		k := unixNano(p.Time)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		s := Sample{
			UserName:         p.UserName,
			ValueGeneratedAt: now,
			Type:             p.Sport,
			Sport:            p.Sport,
			LapStart:         p.LapStartTime,
			ModifiedTime:     p.ActivityID,
			StartDate:        p.Time,
			EndDate:          p.Time,
			Unit:             UnitBPM,
			Value:            clone(p.HeartRate),
			LapMaxHeartRate:  clone(p.LapMaxHeartRate),
		}
		if p.LapAvgHeartRate != nil {
			s.LapAvgHeartRate = ptr(round(*p.LapAvgHeartRate, 1))
		}
		out = append(out, s)
	}
	sortByDateDesc(out, byStart, byStart)
	return Table{samples: out}
}
