package ingest

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tormoder/fit"

	"github.com/lucasjlepore/fitdaily/records"
)

// ReadFITFile decodes an activity FIT file into trackpoint rows. Each record
// message is assigned to the last lap that started at or before it.
func ReadFITFile(path, user string, loc *time.Location) (records.Workout, error) {
	f, err := os.Open(path)
	if err != nil {
		return records.Workout{}, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()
	return DecodeFIT(f, user, loc)
}

// ReadFITDir reads every *.fit file in dir, in name order.
func ReadFITDir(dir, user string, loc *time.Location) (records.Workout, error) {
	paths, err := listFiles(dir, ".fit")
	if err != nil {
		return records.Workout{}, err
	}
	out := records.Workout{}
	for _, p := range paths {
		w, err := ReadFITFile(p, user, loc)
		if err != nil {
			return records.Workout{}, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = out.Concat(w)
	}
	return out, nil
}

// ReadActivitiesDir reads the TCX files and then the FIT files of dir into
// one workout table.
func ReadActivitiesDir(dir, user string, loc *time.Location) (records.Workout, error) {
	tcx, err := ReadTCXDir(dir, user, loc)
	if err != nil {
		return records.Workout{}, err
	}
	fitw, err := ReadFITDir(dir, user, loc)
	if err != nil {
		return records.Workout{}, err
	}
	return tcx.Concat(fitw), nil
}

// DecodeFIT is ReadFITFile over an arbitrary reader.
func DecodeFIT(r io.Reader, user string, loc *time.Location) (records.Workout, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return records.Workout{}, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return records.Workout{}, fmt.Errorf("activity FIT expected: %w", err)
	}

	sport := "Other"
	var start time.Time
	if len(activity.Sessions) > 0 && activity.Sessions[0] != nil {
		session := activity.Sessions[0]
		sport = fmt.Sprint(session.Sport)
		start = validTimeOrZero(session.StartTime)
	}

	laps := make([]*fit.LapMsg, 0, len(activity.Laps))
	for _, lap := range activity.Laps {
		if lap != nil && !validTimeOrZero(lap.StartTime).IsZero() {
			laps = append(laps, lap)
		}
	}
	sort.SliceStable(laps, func(i, j int) bool { return laps[i].StartTime.Before(laps[j].StartTime) })
	if start.IsZero() && len(laps) > 0 {
		start = laps[0].StartTime
	}

	var points []records.Trackpoint
	for _, rec := range activity.Records {
		if rec == nil {
			continue
		}
		ts := validTimeOrZero(rec.Timestamp)
		if ts.IsZero() {
			continue
		}
		if start.IsZero() {
			start = ts
		}
		p := records.Trackpoint{
			UserName:   user,
			Sport:      sport,
			ActivityID: records.Naive(start, loc),
			Time:       records.Naive(ts, loc),
			HeartRate:  heartRate(rec.HeartRate),
		}
		if lap := lapAt(laps, ts); lap != nil {
			p.LapStartTime = records.Naive(lap.StartTime, loc)
			p.LapTotalTimeSeconds = lapSeconds(lap)
			p.LapDistanceMeters = finite(lap.GetTotalDistanceScaled())
			if lap.TotalCalories != math.MaxUint16 {
				p.LapCalories = ptr(float64(lap.TotalCalories))
			}
			p.LapAvgHeartRate = heartRate(lap.AvgHeartRate)
			p.LapMaxHeartRate = heartRate(lap.MaxHeartRate)
		} else {
			p.LapStartTime = p.ActivityID
		}
		points = append(points, p)
	}
	return records.NewWorkout(points), nil
}

func lapAt(laps []*fit.LapMsg, ts time.Time) *fit.LapMsg {
	idx := sort.Search(len(laps), func(i int) bool { return laps[i].StartTime.After(ts) })
	if idx == 0 {
		return nil
	}
	return laps[idx-1]
}

func lapSeconds(lap *fit.LapMsg) *float64 {
	if v := finite(lap.GetTotalTimerTimeScaled()); v != nil {
		return v
	}
	return finite(lap.GetTotalElapsedTimeScaled())
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func heartRate(v uint8) *float64 {
	if v == math.MaxUint8 || v == 0 {
		return nil
	}
	return ptr(float64(v))
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return ptr(v)
}

func ptr(v float64) *float64 { return &v }
