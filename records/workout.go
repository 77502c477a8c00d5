package records

import "time"

// Trackpoint is one sample of a recorded workout (TCX or FIT), flattened with
// the activity and lap it belongs to.
type Trackpoint struct {
	UserName            string
	Sport               string
	ActivityID          time.Time // activity start, used as the governing timestamp
	LapStartTime        time.Time
	Time                time.Time
	LapTotalTimeSeconds *float64
	LapDistanceMeters   *float64
	LapCalories         *float64
	LapAvgHeartRate     *float64
	LapMaxHeartRate     *float64
	HeartRate           *float64
}

// Workout is an immutable table of trackpoints.
type Workout struct {
	points []Trackpoint
}

// NewWorkout copies points into a new workout table.
func NewWorkout(points []Trackpoint) Workout {
	if len(points) == 0 {
		return Workout{}
	}
	return Workout{points: append([]Trackpoint(nil), points...)}
}

// Len returns the number of trackpoints.
func (w Workout) Len() int { return len(w.points) }

// Empty reports whether the table has no trackpoints.
func (w Workout) Empty() bool { return len(w.points) == 0 }

// Points returns a copy of the trackpoints.
func (w Workout) Points() []Trackpoint {
	return append([]Trackpoint(nil), w.points...)
}

// Where returns the trackpoints matching keep, in order.
func (w Workout) Where(keep func(Trackpoint) bool) Workout {
	out := make([]Trackpoint, 0, len(w.points))
	for _, p := range w.points {
		if keep(p) {
			out = append(out, p)
		}
	}
	return Workout{points: out}
}

// Concat appends the trackpoints of others after w.
func (w Workout) Concat(others ...Workout) Workout {
	out := append([]Trackpoint(nil), w.points...)
	for _, o := range others {
		out = append(out, o.points...)
	}
	return Workout{points: out}
}
