package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/lucasjlepore/fitdaily/aggregate"
	"github.com/lucasjlepore/fitdaily/output"
	"github.com/lucasjlepore/fitdaily/window"
)

// Options configures one export run.
type Options struct {
	DataDir       string
	ActivitiesDir string // optional TCX / FIT directory
	OutDir        string
	UserName      string
	Location      *time.Location // reference zone; nil means UTC
	Window        window.Spec
	Format        output.Format
	TieBreak      aggregate.TieBreak
	StorePath     string // optional SQLite store
	Overwrite     bool

	Clock  func() time.Time
	Logger *zap.Logger
}

// Result returns generated output paths.
type Result struct {
	RunID        string              `json:"run_id"`
	OutputDir    string              `json:"output_dir"`
	ManifestPath string              `json:"manifest_path"`
	SummaryPath  string              `json:"summary_path,omitempty"`
	Series       []output.SeriesFile `json:"series"`
	StoredRows   int                 `json:"stored_rows"`
	Rows         aggregate.Table     `json:"-"`
}
