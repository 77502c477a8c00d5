// Package window resolves date specifications into day-aligned query windows
// and filters record tables against them.
package window

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lucasjlepore/fitdaily/records"
)

// ErrMalformedSpec marks a date specification that cannot be resolved.
var ErrMalformedSpec = errors.New("malformed date specification")

// DateLayout is the calendar date format accepted from callers.
const DateLayout = "2006-01-02"

// Interval is a closed [Start, End] window of naive timestamps.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts lies inside the interval. A zero ts never does.
func (iv Interval) Contains(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return !ts.Before(iv.Start) && !ts.After(iv.End)
}

// Spec is a date specification. The concrete variants are SingleDay, Range,
// Offset and ExplicitList; build them with the constructors in this package.
type Spec interface {
	Intervals() []Interval
	fmt.Stringer
}

// Direction is the side an Offset extends towards.
type Direction string

const (
	Forward  Direction = "+"
	Backward Direction = "-"
)

// SingleDay covers one calendar day.
type SingleDay struct {
	date time.Time
}

// Range covers start..end inclusive.
type Range struct {
	start, end time.Time
}

// Offset covers start extended by a number of days in one direction.
type Offset struct {
	start time.Time
	days  int
	dir   Direction
}

// ExplicitList covers each listed day independently.
type ExplicitList struct {
	dates []time.Time
}

// Day builds a SingleDay.
func Day(date time.Time) SingleDay {
	return SingleDay{date: records.Day(wall(date))}
}

// NewRange builds a Range. end must not fall before start.
func NewRange(start, end time.Time) (Range, error) {
	s, e := records.Day(wall(start)), records.Day(wall(end))
	if s.IsZero() || e.IsZero() {
		return Range{}, fmt.Errorf("%w: range bounds are required", ErrMalformedSpec)
	}
	if e.Before(s) {
		return Range{}, fmt.Errorf("%w: range end %s before start %s", ErrMalformedSpec, e.Format(DateLayout), s.Format(DateLayout))
	}
	return Range{start: s, end: e}, nil
}

// NewOffset builds an Offset of days (>= 0) in direction dir.
func NewOffset(start time.Time, days int, dir Direction) (Offset, error) {
	if start.IsZero() {
		return Offset{}, fmt.Errorf("%w: offset start is required", ErrMalformedSpec)
	}
	if days < 0 {
		return Offset{}, fmt.Errorf("%w: negative offset %d", ErrMalformedSpec, days)
	}
	if dir != Forward && dir != Backward {
		return Offset{}, fmt.Errorf("%w: unknown offset direction %q (expected + or -)", ErrMalformedSpec, dir)
	}
	return Offset{start: records.Day(wall(start)), days: days, dir: dir}, nil
}

// NewList builds an ExplicitList. At least one date is required.
func NewList(dates ...time.Time) (ExplicitList, error) {
	if len(dates) == 0 {
		return ExplicitList{}, fmt.Errorf("%w: empty date list", ErrMalformedSpec)
	}
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			return ExplicitList{}, fmt.Errorf("%w: zero date in list", ErrMalformedSpec)
		}
		out = append(out, records.Day(wall(d)))
	}
	return ExplicitList{dates: out}, nil
}

func (s SingleDay) Intervals() []Interval { return []Interval{dayInterval(s.date, s.date)} }

func (s SingleDay) String() string { return s.date.Format(DateLayout) }

func (r Range) Intervals() []Interval { return []Interval{dayInterval(r.start, r.end)} }

func (r Range) String() string {
	return r.start.Format(DateLayout) + ".." + r.end.Format(DateLayout)
}

func (o Offset) Intervals() []Interval {
	shift := time.Duration(o.days) * 24 * time.Hour
	if o.dir == Forward {
		return []Interval{dayInterval(o.start, o.start.Add(shift))}
	}
	return []Interval{dayInterval(o.start.Add(-shift), o.start)}
}

func (o Offset) String() string {
	return fmt.Sprintf("%s%s%dd", o.start.Format(DateLayout), o.dir, o.days)
}

func (l ExplicitList) Intervals() []Interval {
	out := make([]Interval, 0, len(l.dates))
	for _, d := range l.dates {
		out = append(out, dayInterval(d, d))
	}
	return out
}

func (l ExplicitList) String() string {
	parts := make([]string, 0, len(l.dates))
	for _, d := range l.dates {
		parts = append(parts, d.Format(DateLayout))
	}
	return strings.Join(parts, ",")
}

// Contains reports whether ts falls in any interval of spec.
func Contains(spec Spec, ts time.Time) bool {
	for _, iv := range spec.Intervals() {
		if iv.Contains(ts) {
			return true
		}
	}
	return false
}

// FromArgs builds a Spec from positional CLI arguments:
//
//	date               SingleDay
//	start end          Range
//	start days sign    Offset
//
// Any other arity is an error.
func FromArgs(args []string) (Spec, error) {
	switch len(args) {
	case 1:
		d, err := ParseDate(args[0])
		if err != nil {
			return nil, err
		}
		return Day(d), nil
	case 2:
		s, err := ParseDate(args[0])
		if err != nil {
			return nil, err
		}
		e, err := ParseDate(args[1])
		if err != nil {
			return nil, err
		}
		return NewRange(s, e)
	case 3:
		s, err := ParseDate(args[0])
		if err != nil {
			return nil, err
		}
		days, err := strconv.Atoi(strings.TrimSpace(args[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: offset days %q: %v", ErrMalformedSpec, args[1], err)
		}
		return NewOffset(s, days, Direction(strings.TrimSpace(args[2])))
	default:
		return nil, fmt.Errorf("%w: expected 1, 2 or 3 arguments, got %d", ErrMalformedSpec, len(args))
	}
}

// FromList builds an ExplicitList from date strings.
func FromList(values []string) (Spec, error) {
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		d, err := ParseDate(v)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return NewList(dates...)
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp; only the wall-clock
// date is kept.
func ParseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if d, err := time.Parse(DateLayout, v); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return records.Day(wall(ts)), nil
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q", ErrMalformedSpec, value)
}

func dayInterval(start, end time.Time) Interval {
	s := records.Day(start)
	e := records.Day(end)
	return Interval{
		Start: s,
		End:   e.Add(24*time.Hour - time.Microsecond),
	}
}

// wall keeps the wall clock of t regardless of its location.
func wall(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
