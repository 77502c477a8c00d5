package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lucasjlepore/fitdaily/aggregate"
	"github.com/lucasjlepore/fitdaily/config"
	"github.com/lucasjlepore/fitdaily/ingest"
	"github.com/lucasjlepore/fitdaily/output"
	"github.com/lucasjlepore/fitdaily/pipeline"
	"github.com/lucasjlepore/fitdaily/window"
)

func main() {
	cfg := config.Load()
	var (
		dataDir       = flag.String("data", cfg.DataDir, "Google Fit \"All Data\" export directory (*.json)")
		activitiesDir = flag.String("activities", cfg.ActivitiesDir, "Directory of TCX / FIT workout files (optional)")
		outDir        = flag.String("out", cfg.OutDir, "Output directory")
		user          = flag.String("user", cfg.UserName, "User name stamped on every row")
		timezone      = flag.String("tz", cfg.Timezone, "Reference timezone for naive timestamps")
		format        = flag.String("format", cfg.Format, "Series format: parquet|csv")
		dbPath        = flag.String("db", cfg.StorePath, "SQLite metrics store (optional)")
		tieBreak      = flag.String("tie-break", cfg.TieBreak, "Step/distance tie-break: keep-max|keep-all")
		dates         = flag.String("dates", "", "Comma-separated explicit date list (instead of positional window)")
		overwrite     = flag.Bool("overwrite", cfg.Overwrite, "Allow writing into non-empty output directories")
		logLevel      = flag.String("log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <date> | <start> <end> | <start> <days> <+|->\n       %s [flags] --dates 2024-01-01,2024-01-05\n", filepath.Base(os.Args[0]), filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	spec, err := parseWindow(flag.Args(), *dates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitdaily: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}
	outFormat, err := output.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitdaily: %v\n", err)
		os.Exit(2)
	}
	tb, err := aggregate.ParseTieBreak(*tieBreak)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitdaily: %v\n", err)
		os.Exit(2)
	}
	loc, err := ingest.LoadLocation(*timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitdaily: %v\n", err)
		os.Exit(2)
	}

	cfg.LogLevel = *logLevel
	logger, err := newLogger(cfg.Level())
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitdaily: build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.Run(ctx, pipeline.Options{
		DataDir:       *dataDir,
		ActivitiesDir: *activitiesDir,
		OutDir:        *outDir,
		UserName:      *user,
		Location:      loc,
		Window:        spec,
		Format:        outFormat,
		TieBreak:      tb,
		StorePath:     *dbPath,
		Overwrite:     *overwrite,
		Logger:        logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitdaily failed: %v\n", err)
		stop()
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}

	fmt.Printf("fitdaily complete\n")
	fmt.Printf("Run id:          %s\n", result.RunID)
	fmt.Printf("Output dir:      %s\n", result.OutputDir)
	fmt.Printf("manifest.json:   %s\n", result.ManifestPath)
	if result.SummaryPath != "" {
		fmt.Printf("summary:         %s\n", result.SummaryPath)
	}
	for _, s := range result.Series {
		fmt.Printf("%-16s %s (%d rows)\n", s.SName+":", s.Path, s.RowCount)
	}
	if *dbPath != "" {
		fmt.Printf("stored rows:     %d\n", result.StoredRows)
	}
}

// parseWindow builds the window from positional arguments, or from the
// -dates list when one is given. Supplying both is an error.
func parseWindow(args []string, dates string) (window.Spec, error) {
	if strings.TrimSpace(dates) != "" {
		if len(args) > 0 {
			return nil, errors.New("use either positional window arguments or --dates, not both")
		}
		return window.FromList(strings.Split(dates, ","))
	}
	return window.FromArgs(args)
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
