// Package aggregate reduces extracted samples into daily metric rows in long
// format, one row per (user, date, valueType).
package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lucasjlepore/fitdaily/records"
)

// Series names written to the s_name column.
const (
	SNameStepCount        = "A_StepCount"
	SNameDistance         = "A_WalkingRunningDistance"
	SNameActivityCalories = "A_ActivityCalories"
	SNameSleep            = "S_SleepType"
	SNameHeartRate        = "V_HR"
	SNameCalories         = "V_TotalCaloriesBurned"
	SNameWorkoutDuration  = "W_Duration"
	SNameWorkoutHeartRate = "W_HeartRate"
)

// Row is one daily metric. A nil Value marks a metric with no underlying data.
type Row struct {
	UserName         string
	ValueGeneratedAt time.Time
	SName            string
	Date             time.Time
	Type             string
	Unit             string
	ValueType        string
	Value            *float64
}

// Table is an immutable, ordered set of aggregate rows.
type Table struct {
	rows []Row
}

// NewTable copies rows into a new table.
func NewTable(rows []Row) Table {
	if len(rows) == 0 {
		return Table{}
	}
	return Table{rows: append([]Row(nil), rows...)}
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.rows) }

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.rows) == 0 }

// At returns row i.
func (t Table) At(i int) Row { return t.rows[i] }

// Rows returns a copy of the rows.
func (t Table) Rows() []Row { return append([]Row(nil), t.rows...) }

// Concat appends the rows of others after t.
func (t Table) Concat(others ...Table) Table {
	out := append([]Row(nil), t.rows...)
	for _, o := range others {
		out = append(out, o.rows...)
	}
	return Table{rows: out}
}

// Find returns the first row with the given date and valueType.
func (t Table) Find(date time.Time, valueType string) (Row, bool) {
	for _, r := range t.rows {
		if r.Date.Equal(date) && r.ValueType == valueType {
			return r, true
		}
	}
	return Row{}, false
}

// SortByDateDesc orders rows by date descending, then by user and s_name.
// Rows that tie keep their relative order.
func (t Table) SortByDateDesc() Table {
	out := t.Rows()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.UserName != b.UserName {
			return a.UserName < b.UserName
		}
		if a.SName != b.SName {
			return a.SName < b.SName
		}
		return false
	})
	return Table{rows: out}
}

// TieBreak decides which summed groups survive for a date.
type TieBreak int

const (
	// KeepMax keeps the largest group per date. Equal maxima resolve to the
	// first group in (user, date, start day, end day, unit) order.
	KeepMax TieBreak = iota
	// KeepAll keeps every group.
	KeepAll
)

func (tb TieBreak) String() string {
	if tb == KeepAll {
		return "keep-all"
	}
	return "keep-max"
}

// ParseTieBreak accepts "keep-max" or "keep-all".
func ParseTieBreak(value string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "keep-max", "max":
		return KeepMax, nil
	case "keep-all", "all":
		return KeepAll, nil
	default:
		return KeepMax, fmt.Errorf("unknown tie-break policy %q (expected keep-max or keep-all)", value)
	}
}

// Aggregator builds daily rows from sample tables. It holds no mutable state
// and is safe for concurrent use.
type Aggregator struct {
	clock    func() time.Time
	logger   *zap.Logger
	tieBreak TieBreak
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock sets the source of ValueGeneratedAt.
func WithClock(clock func() time.Time) Option {
	return func(a *Aggregator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithTieBreak sets the step and distance tie-break policy.
func WithTieBreak(tb TieBreak) Option {
	return func(a *Aggregator) { a.tieBreak = tb }
}

// New builds an Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		clock:    time.Now,
		logger:   zap.NewNop(),
		tieBreak: KeepMax,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) generatedAt() time.Time {
	return records.Naive(a.clock(), nil).Truncate(time.Second)
}

func (a *Aggregator) empty(series string) Table {
	a.logger.Info("nothing to aggregate", zap.String("s_name", series))
	return Table{}
}

// round1 rounds half to even at one decimal place.
func round1(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).RoundBank(1).Float64()
	return f
}

func ptr(v float64) *float64 { return &v }

func rounded(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return ptr(round1(*v))
}
