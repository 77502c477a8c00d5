package output

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/fitdaily/aggregate"
)

func f(v float64) *float64 { return &v }

func sampleRows() aggregate.Table {
	gen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return aggregate.NewTable([]aggregate.Row{
		{UserName: "asha", ValueGeneratedAt: gen, SName: aggregate.SNameStepCount, Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Type: "com.google.step_count.delta", Unit: "steps", ValueType: aggregate.TotalStepCount, Value: f(5000)},
		{UserName: "asha", ValueGeneratedAt: gen, SName: aggregate.SNameHeartRate, Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Type: "com.google.heart_rate.bpm", Unit: "bpm", ValueType: "sleepAvg"},
	})
}

func TestParseFormat(t *testing.T) {
	got, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatParquet, got)

	got, err = ParseFormat(" CSV ")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, got)
	require.Equal(t, "csv", got.Extension())

	_, err = ParseFormat("xlsx")
	require.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.csv")
	require.NoError(t, WriteTable(path, FormatCSV, sampleRows()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 3)
	require.Equal(t, Columns, lines[0])
	require.Equal(t, []string{"asha", "2024-06-01 12:00:00", "A_StepCount", "2024-05-02", "com.google.step_count.delta", "steps", "TotalStepCount", "5000.0"}, lines[1])
	require.Equal(t, "", lines[2][7], "null values are empty cells")
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.parquet")
	require.NoError(t, WriteTable(path, FormatParquet, sampleRows()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("PAR1")))
	require.True(t, bytes.HasSuffix(data, []byte("PAR1")))

	mem, err := MarshalParquet(sampleRows())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(mem, []byte("PAR1")))
}

func TestEnsureDirRefusesNonEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnsureDir(filepath.Join(dir, "fresh"), false))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing"), []byte("x"), 0o644))
	require.Error(t, EnsureDir(dir, false))
	require.NoError(t, EnsureDir(dir, true))
}

func TestWriteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	m := Manifest{
		FormatVersion: ManifestVersion,
		RunID:         NewRunID(),
		Format:        FormatCSV,
		Series:        []SeriesFile{{SName: aggregate.SNameStepCount, Path: "a.csv", RowCount: 1}},
		RowCount:      1,
	}
	require.NoError(t, WriteJSON(path, m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back Manifest
	require.NoError(t, json.Unmarshal(data, &back))
	_, err = uuid.Parse(back.RunID)
	require.NoError(t, err)
	require.Equal(t, FormatCSV, back.Format)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreUpsertAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	run := Run{ID: NewRunID(), UserName: "asha", Window: "2024-05-01..2024-05-02", StartedAt: time.Now()}
	n, err := s.SaveRun(ctx, run, sampleRows())
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := s.List(ctx, "asha", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	require.Equal(t, aggregate.SNameStepCount, got.At(0).SName)
	require.Equal(t, 5000.0, *got.At(0).Value)
	require.Nil(t, got.At(1).Value)

	// A second run over the same window replaces values instead of adding rows.
	updated := aggregate.NewTable([]aggregate.Row{func() aggregate.Row {
		r := sampleRows().At(0)
		r.Value = f(6100)
		return r
	}()})
	_, err = s.SaveRun(ctx, Run{ID: NewRunID(), UserName: "asha", Window: "2024-05-02", StartedAt: time.Now()}, updated)
	require.NoError(t, err)

	got, err = s.List(ctx, "asha", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	require.Equal(t, 6100.0, *got.At(0).Value)

	runs, err := s.RunCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, runs)
}

func TestStoreReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "fitdaily.db")
	s, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenStore(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	require.Equal(t, storeVersion, version)
}

func TestStoreKeepsRowsPerSport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	gen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	workout := func(sport string, v float64) aggregate.Row {
		return aggregate.Row{
			UserName: "asha", ValueGeneratedAt: gen, SName: aggregate.SNameWorkoutDuration, Date: day,
			Type: sport, Unit: "min", ValueType: aggregate.TotalWorkoutDuration, Value: f(v),
		}
	}
	rows := aggregate.NewTable([]aggregate.Row{workout("Running", 30), workout("Biking", 45)})

	n, err := s.SaveRun(ctx, Run{ID: NewRunID(), UserName: "asha", Window: "2024-05-01", StartedAt: gen}, rows)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := s.List(ctx, "asha", day, day)
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	require.Equal(t, "Biking", got.At(0).Type)
	require.Equal(t, 45.0, *got.At(0).Value)
	require.Equal(t, "Running", got.At(1).Type)
	require.Equal(t, 30.0, *got.At(1).Value)
}

func TestStoreKeepsIdenticallyKeyedRows(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	first := sampleRows().At(0)
	second := first
	second.Value = f(1200)
	rows := aggregate.NewTable([]aggregate.Row{first, second})

	n, err := s.SaveRun(ctx, Run{ID: NewRunID(), UserName: "asha", Window: "2024-05-02", StartedAt: time.Now()}, rows)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := s.List(ctx, "asha", day, day)
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	require.Equal(t, 5000.0, *got.At(0).Value)
	require.Equal(t, 1200.0, *got.At(1).Value)

	// A rerun with a single group drops the stale second row.
	_, err = s.SaveRun(ctx, Run{ID: NewRunID(), UserName: "asha", Window: "2024-05-02", StartedAt: time.Now()}, aggregate.NewTable([]aggregate.Row{first}))
	require.NoError(t, err)
	got, err = s.List(ctx, "asha", day, day)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	require.Equal(t, 5000.0, *got.At(0).Value)
}

func TestStoreMigratesVersionOneRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fitdaily.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	old := &Store{db: db}
	require.NoError(t, old.migrateV1())
	_, err = db.Exec("PRAGMA user_version = 1")
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO runs (run_id, user_name, window_spec, started_at) VALUES ('r1', 'asha', '2024-05-02', '2024-06-01T12:00:00Z')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO daily_metrics (user_name, s_name, date, value_type, type, unit, value, value_generated_at, run_id)
		VALUES ('asha', 'A_StepCount', '2024-05-02', 'TotalStepCount', 'com.google.step_count.delta', 'steps', 5000, '2024-06-01 12:00:00', 'r1')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := OpenStore(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	require.Equal(t, 2, version)

	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	got, err := s.List(ctx, "asha", day, day)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	require.Equal(t, 5000.0, *got.At(0).Value)

	// the widened key accepts a second sport on the same day
	rows := aggregate.NewTable([]aggregate.Row{
		{UserName: "asha", ValueGeneratedAt: day, SName: aggregate.SNameWorkoutDuration, Date: day, Type: "Running", ValueType: aggregate.TotalWorkoutDuration, Value: f(30)},
		{UserName: "asha", ValueGeneratedAt: day, SName: aggregate.SNameWorkoutDuration, Date: day, Type: "Biking", ValueType: aggregate.TotalWorkoutDuration, Value: f(45)},
	})
	_, err = s.SaveRun(ctx, Run{ID: NewRunID(), UserName: "asha", Window: "2024-05-02", StartedAt: day}, rows)
	require.NoError(t, err)
	got, err = s.List(ctx, "asha", day, day)
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
}
