// Package pipeline runs a full export: ingest the raw exports, extract and
// aggregate every signal for a window, then write the series files, a JSON
// manifest, a readable summary and, optionally, the SQLite metrics store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lucasjlepore/fitdaily"
	"github.com/lucasjlepore/fitdaily/aggregate"
	"github.com/lucasjlepore/fitdaily/ingest"
	"github.com/lucasjlepore/fitdaily/output"
	"github.com/lucasjlepore/fitdaily/records"
	"github.com/lucasjlepore/fitdaily/streams"
	"github.com/lucasjlepore/fitdaily/window"
)

// File names written next to the series files.
const (
	ManifestFile = "manifest.json"
	SummaryFile  = "summary.md"
)

// series is one signal: how to build its aggregate table from the inputs.
type series struct {
	sname string
	build func(events records.Table, workout records.Workout, spec window.Spec) aggregate.Table
}

func buildSeries(ext *streams.Extractor, agg *aggregate.Aggregator) []series {
	return []series{
		{aggregate.SNameStepCount, func(ev records.Table, _ records.Workout, spec window.Spec) aggregate.Table {
			return agg.StepCount(ext.Steps(ev, spec))
		}},
		{aggregate.SNameDistance, func(ev records.Table, _ records.Workout, spec window.Spec) aggregate.Table {
			return agg.Distance(ext.Distance(ev, spec))
		}},
		{aggregate.SNameActivityCalories, func(ev records.Table, _ records.Workout, spec window.Spec) aggregate.Table {
			return agg.ActivityCalories(ext.ActivityCalories(ev, spec))
		}},
		{aggregate.SNameSleep, func(ev records.Table, _ records.Workout, spec window.Spec) aggregate.Table {
			return agg.Sleep(ext.Sleep(ev, spec))
		}},
		{aggregate.SNameHeartRate, func(ev records.Table, _ records.Workout, spec window.Spec) aggregate.Table {
			return agg.HeartRate(ext.HeartRate(ev, spec))
		}},
		{aggregate.SNameCalories, func(ev records.Table, _ records.Workout, spec window.Spec) aggregate.Table {
			return agg.Calories(ext.TotalCalories(ev, spec))
		}},
		{aggregate.SNameWorkoutDuration, func(_ records.Table, w records.Workout, spec window.Spec) aggregate.Table {
			return agg.WorkoutDuration(ext.WorkoutDuration(w, spec))
		}},
		{aggregate.SNameWorkoutHeartRate, func(_ records.Table, w records.Workout, spec window.Spec) aggregate.Table {
			return agg.WorkoutHeartRate(ext.WorkoutHeartRate(w, spec))
		}},
	}
}

// Run executes the export and writes all artifacts into opts.OutDir.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.DataDir) == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.Window == nil {
		return nil, fmt.Errorf("%w: no window given", window.ErrMalformedSpec)
	}
	if opts.Format == "" {
		opts.Format = output.FormatParquet
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	begin := time.Now()
	runID := output.NewRunID()
	started := opts.Clock()
	logger = logger.With(zap.String("run_id", runID), zap.String("window", opts.Window.String()))

	if err := output.EnsureDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	events, err := ingest.ReadGoogleFitDir(opts.DataDir, opts.UserName, opts.Location)
	if err != nil {
		return nil, fmt.Errorf("read google fit export: %w", err)
	}
	workout := records.Workout{}
	if opts.ActivitiesDir != "" {
		workout, err = ingest.ReadActivitiesDir(opts.ActivitiesDir, opts.UserName, opts.Location)
		if err != nil {
			return nil, fmt.Errorf("read activities: %w", err)
		}
	}
	users := events.Users()
	logger.Info("inputs loaded",
		zap.Strings("users", users),
		zap.Int("events", events.Len()),
		zap.Int("trackpoints", workout.Len()),
	)

	ext := streams.New(streams.WithClock(opts.Clock), streams.WithLogger(logger))
	agg := aggregate.New(
		aggregate.WithClock(opts.Clock),
		aggregate.WithLogger(logger),
		aggregate.WithTieBreak(opts.TieBreak),
	)

	all := buildSeries(ext, agg)
	tables := make([]aggregate.Table, len(all))
	files := make([]output.SeriesFile, len(all))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range all {
		i, s := i, s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := s.build(events, workout, opts.Window)
			tables[i] = t
			if t.Empty() {
				return nil
			}
			name := s.sname + "." + opts.Format.Extension()
			if err := output.WriteTable(filepath.Join(opts.OutDir, name), opts.Format, t); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
			files[i] = output.SeriesFile{SName: s.sname, Path: name, RowCount: t.Len()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := aggregate.Table{}.Concat(tables...).SortByDateDesc()
	res := &Result{
		RunID:        runID,
		OutputDir:    opts.OutDir,
		ManifestPath: filepath.Join(opts.OutDir, ManifestFile),
		Rows:         rows,
	}
	for _, f := range files {
		if f.Path != "" {
			res.Series = append(res.Series, f)
		}
	}

	if notes := fitdaily.BuildDailyNotes(rows); notes != "" {
		res.SummaryPath = filepath.Join(opts.OutDir, SummaryFile)
		if err := os.WriteFile(res.SummaryPath, []byte(notes+"\n"), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", SummaryFile, err)
		}
	}

	if opts.StorePath != "" {
		n, err := persist(ctx, opts, runID, started, rows)
		if err != nil {
			return nil, err
		}
		res.StoredRows = n
	}

	manifest := output.Manifest{
		FormatVersion: output.ManifestVersion,
		RunID:         runID,
		GeneratedAt:   started.UTC().Truncate(time.Second),
		UserName:      opts.UserName,
		Window:        opts.Window.String(),
		Timezone:      opts.Location.String(),
		Format:        opts.Format,
		TieBreak:      opts.TieBreak.String(),
		Sources: output.ManifestInputs{
			DataDir:         opts.DataDir,
			ActivitiesDir:   opts.ActivitiesDir,
			Users:           users,
			EventCount:      events.Len(),
			TrackpointCount: workout.Len(),
		},
		Series:   res.Series,
		RowCount: rows.Len(),
	}
	if err := output.WriteJSON(res.ManifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write %s: %w", ManifestFile, err)
	}

	logger.Info("export finished",
		zap.Int("rows", rows.Len()),
		zap.Int("series", len(res.Series)),
		zap.Duration("elapsed", time.Since(begin)),
	)
	return res, nil
}

func persist(ctx context.Context, opts Options, runID string, started time.Time, rows aggregate.Table) (n int, err error) {
	store, err := output.OpenStore(opts.StorePath)
	if err != nil {
		return 0, fmt.Errorf("open metrics store: %w", err)
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	n, err = store.SaveRun(ctx, output.Run{
		ID:        runID,
		UserName:  opts.UserName,
		Window:    opts.Window.String(),
		StartedAt: started,
	}, rows)
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	return n, nil
}
