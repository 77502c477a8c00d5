// Package records holds the immutable raw-event tables every other stage reads.
package records

import (
	"strconv"
	"strings"
	"time"
)

// Event is one raw fitness data point as produced by an export reader.
//
// Timestamps are timezone-naive wall-clock times in a single reference zone,
// stored in the UTC location. The zero time means the timestamp was absent or
// could not be parsed.
type Event struct {
	UserName           string
	DataSource         string
	OriginDataSourceID string
	Type               string
	StartDate          time.Time
	EndDate            time.Time
	ModifiedTime       time.Time
	Value              string
	ValueKind          string // intVal|fpVal|stringVal
	Unit               string
}

// Numeric coerces the raw value to a float. Failures yield ok=false.
func (e Event) Numeric() (float64, bool) {
	s := strings.TrimSpace(e.Value)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NumericPtr is Numeric as an optional value.
func (e Event) NumericPtr() *float64 {
	v, ok := e.Numeric()
	if !ok {
		return nil
	}
	return &v
}

// Overlaps reports whether the event's [StartDate, EndDate] interval overlaps
// [start, end] inclusively. Events with a missing bound never overlap.
func (e Event) Overlaps(start, end time.Time) bool {
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return false
	}
	return !e.StartDate.After(end) && !e.EndDate.Before(start)
}

type eventKey struct {
	userName, dataSource, origin, typ string
	start, end, modified              int64
	value, valueKind, unit            string
}

func (e Event) key() eventKey {
	return eventKey{
		userName:   e.UserName,
		dataSource: e.DataSource,
		origin:     e.OriginDataSourceID,
		typ:        e.Type,
		start:      nanos(e.StartDate),
		end:        nanos(e.EndDate),
		modified:   nanos(e.ModifiedTime),
		value:      e.Value,
		valueKind:  e.ValueKind,
		unit:       e.Unit,
	}
}

func nanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

// Naive drops the zone of t after converting it to loc, keeping the wall clock.
func Naive(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	if loc != nil {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Day truncates a naive timestamp to its calendar date.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
