package ingest

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lucasjlepore/fitdaily/records"
)

type tcxDatabase struct {
	Activities []tcxActivity `xml:"Activities>Activity"`
}

type tcxActivity struct {
	Sport string   `xml:"Sport,attr"`
	ID    string   `xml:"Id"`
	Laps  []tcxLap `xml:"Lap"`
}

type tcxLap struct {
	StartTime        string          `xml:"StartTime,attr"`
	TotalTimeSeconds string          `xml:"TotalTimeSeconds"`
	DistanceMeters   string          `xml:"DistanceMeters"`
	Calories         string          `xml:"Calories"`
	AverageHeartRate string          `xml:"AverageHeartRateBpm>Value"`
	MaximumHeartRate string          `xml:"MaximumHeartRateBpm>Value"`
	Trackpoints      []tcxTrackpoint `xml:"Track>Trackpoint"`
}

type tcxTrackpoint struct {
	Time      string `xml:"Time"`
	HeartRate string `xml:"HeartRateBpm>Value"`
}

// ReadTCXDir reads every *.tcx file in dir, in name order.
func ReadTCXDir(dir, user string, loc *time.Location) (records.Workout, error) {
	paths, err := listFiles(dir, ".tcx")
	if err != nil {
		return records.Workout{}, err
	}
	out := records.Workout{}
	for _, p := range paths {
		w, err := ReadTCXFile(p, user, loc)
		if err != nil {
			return records.Workout{}, err
		}
		out = out.Concat(w)
	}
	return out, nil
}

// ReadTCXFile flattens a Training Center XML file into one trackpoint row per
// <Trackpoint>, carrying its activity and lap fields.
func ReadTCXFile(path, user string, loc *time.Location) (records.Workout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return records.Workout{}, fmt.Errorf("read tcx file: %w", err)
	}
	var db tcxDatabase
	if err := xml.Unmarshal(data, &db); err != nil {
		return records.Workout{}, fmt.Errorf("decode tcx file %s: %w", filepath.Base(path), err)
	}

	var points []records.Trackpoint
	for _, act := range db.Activities {
		activityID := parseTCXTime(act.ID, loc)
		for _, lap := range act.Laps {
			base := records.Trackpoint{
				UserName:            user,
				Sport:               act.Sport,
				ActivityID:          activityID,
				LapStartTime:        parseTCXTime(lap.StartTime, loc),
				LapTotalTimeSeconds: parseOptionalFloat(lap.TotalTimeSeconds),
				LapDistanceMeters:   parseOptionalFloat(lap.DistanceMeters),
				LapCalories:         parseOptionalFloat(lap.Calories),
				LapAvgHeartRate:     parseOptionalFloat(lap.AverageHeartRate),
				LapMaxHeartRate:     parseOptionalFloat(lap.MaximumHeartRate),
			}
			for _, tp := range lap.Trackpoints {
				p := base
				p.Time = parseTCXTime(tp.Time, loc)
				p.HeartRate = parseOptionalFloat(tp.HeartRate)
				points = append(points, p)
			}
			// a lap without samples still carries its totals
			if len(lap.Trackpoints) == 0 {
				points = append(points, base)
			}
		}
	}
	return records.NewWorkout(points), nil
}

func parseTCXTime(value string, loc *time.Location) time.Time {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		// Some exporters omit the zone; those are UTC.
		t, err = time.Parse("2006-01-02T15:04:05", v)
		if err != nil {
			return time.Time{}
		}
	}
	return records.Naive(t, loc)
}

func parseOptionalFloat(value string) *float64 {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}
