// Package streams turns raw record tables into per-signal sample tables:
// stream selection, window filtering, value coercion and unit stamping.
package streams

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lucasjlepore/fitdaily/classify"
	"github.com/lucasjlepore/fitdaily/records"
	"github.com/lucasjlepore/fitdaily/window"
)

// Units stamped on extracted samples.
const (
	UnitSteps = "steps"
	UnitKM    = "km"
	UnitKcal  = "kcal"
	UnitBPM   = "bpm"
	UnitMin   = "min"
)

// IDs are the stream identities each extractor reads.
type IDs struct {
	Steps     string
	Distance  string
	Calories  string
	HeartRate string
	Sleep     string
}

// DefaultIDs returns the merged Google Fit stream identities.
func DefaultIDs() IDs {
	return IDs{
		Steps:     records.StreamEstimatedSteps,
		Distance:  records.StreamDistanceDelta,
		Calories:  records.StreamCaloriesExpended,
		HeartRate: records.StreamHeartRate,
		Sleep:     records.StreamSleepSegment,
	}
}

// Extractor extracts samples for each supported signal. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	clock    func() time.Time
	logger   *zap.Logger
	ids      IDs
	classify []classify.Option
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the source of ValueGeneratedAt.
func WithClock(clock func() time.Time) Option {
	return func(e *Extractor) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the logger used for empty-result notices.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIDs overrides the stream identities.
func WithIDs(ids IDs) Option {
	return func(e *Extractor) { e.ids = ids }
}

// WithClassifyOptions passes options to the heart-rate classifier.
func WithClassifyOptions(opts ...classify.Option) Option {
	return func(e *Extractor) { e.classify = append(e.classify, opts...) }
}

// New builds an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		clock:  time.Now,
		logger: zap.NewNop(),
		ids:    DefaultIDs(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// generatedAt returns the clock reading as a naive second-resolution stamp.
func (e *Extractor) generatedAt() time.Time {
	return records.Naive(e.clock(), nil).Truncate(time.Second)
}

func (e *Extractor) empty(signal string, spec window.Spec) Table {
	span := "<nil>"
	if spec != nil {
		span = spec.String()
	}
	e.logger.Info("no data available for the given window",
		zap.String("signal", signal),
		zap.String("window", span),
	)
	return Table{}
}

func (e *Extractor) sample(ev records.Event, unit string, now time.Time) Sample {
	return Sample{
		UserName:         ev.UserName,
		ValueGeneratedAt: now,
		Type:             ev.Type,
		Origin:           ev.OriginDataSourceID,
		DataSource:       ev.DataSource,
		ModifiedTime:     ev.ModifiedTime,
		StartDate:        ev.StartDate,
		EndDate:          ev.EndDate,
		Unit:             unit,
		Value:            ev.NumericPtr(),
	}
}

func byStart(s Sample) time.Time    { return s.StartDate }
func byModified(s Sample) time.Time { return s.ModifiedTime }

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).RoundBank(places).Float64()
	return f
}

func ptr(v float64) *float64 { return &v }

func clone(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return ptr(*p)
}
