package output

import (
	"time"

	"github.com/google/uuid"
)

// ManifestVersion is bumped whenever the manifest layout changes.
const ManifestVersion = "fitdaily.v1"

// Manifest describes one export run.
type Manifest struct {
	FormatVersion string         `json:"format_version"`
	RunID         string         `json:"run_id"`
	GeneratedAt   time.Time      `json:"generated_at"`
	UserName      string         `json:"user_name"`
	Window        string         `json:"window"`
	Timezone      string         `json:"timezone"`
	Format        Format         `json:"format"`
	TieBreak      string         `json:"tie_break"`
	Sources       ManifestInputs `json:"sources"`
	Series        []SeriesFile   `json:"series"`
	RowCount      int            `json:"row_count"`
}

// ManifestInputs counts what was read.
type ManifestInputs struct {
	DataDir         string   `json:"data_dir"`
	ActivitiesDir   string   `json:"activities_dir,omitempty"`
	Users           []string `json:"users"`
	EventCount      int      `json:"event_count"`
	TrackpointCount int      `json:"trackpoint_count"`
}

// SeriesFile is one written aggregate table.
type SeriesFile struct {
	SName    string `json:"s_name"`
	Path     string `json:"path"`
	RowCount int    `json:"row_count"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}
