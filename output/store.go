package output

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lucasjlepore/fitdaily/aggregate"
)

const storeVersion = 2

// Store persists aggregate rows in SQLite. A row is keyed by
// (user, s_name, date, valueType, type, unit, seq); seq numbers rows that
// share the rest of the key, as keep-all tie-breaking produces. Re-running a
// window replaces the rows of every (user, s_name, date) it writes.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the database at path and runs migrations.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// OpenMemoryStore opens a throwaway in-memory store.
func OpenMemoryStore() (*Store, error) {
	return OpenStore(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= storeVersion {
		return nil
	}
	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", storeVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id      TEXT PRIMARY KEY,
		user_name   TEXT NOT NULL,
		window_spec TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		row_count   INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS daily_metrics (
		user_name          TEXT NOT NULL,
		s_name             TEXT NOT NULL,
		date               TEXT NOT NULL,
		value_type         TEXT NOT NULL,
		type               TEXT NOT NULL DEFAULT '',
		unit               TEXT NOT NULL DEFAULT '',
		value              REAL,
		value_generated_at TEXT NOT NULL,
		run_id             TEXT NOT NULL REFERENCES runs(run_id),
		PRIMARY KEY (user_name, s_name, date, value_type)
	);

	CREATE INDEX IF NOT EXISTS idx_metrics_date ON daily_metrics(date);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// migrateV2 widens the daily_metrics key so rows per sport and keep-all
// groups no longer overwrite each other.
func (s *Store) migrateV2() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE daily_metrics_v2 (
			user_name          TEXT NOT NULL,
			s_name             TEXT NOT NULL,
			date               TEXT NOT NULL,
			value_type         TEXT NOT NULL,
			type               TEXT NOT NULL DEFAULT '',
			unit               TEXT NOT NULL DEFAULT '',
			seq                INTEGER NOT NULL DEFAULT 0,
			value              REAL,
			value_generated_at TEXT NOT NULL,
			run_id             TEXT NOT NULL REFERENCES runs(run_id),
			PRIMARY KEY (user_name, s_name, date, value_type, type, unit, seq)
		)`,
		`INSERT INTO daily_metrics_v2 (user_name, s_name, date, value_type, type, unit, seq, value, value_generated_at, run_id)
		 SELECT user_name, s_name, date, value_type, type, unit, 0, value, value_generated_at, run_id FROM daily_metrics`,
		`DROP TABLE daily_metrics`,
		`ALTER TABLE daily_metrics_v2 RENAME TO daily_metrics`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_date ON daily_metrics(date)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migrate v2: %w", err)
		}
	}
	return tx.Commit()
}

// Run is one recorded export.
type Run struct {
	ID        string
	UserName  string
	Window    string
	StartedAt time.Time
}

type metricKey struct {
	user, sname, date, valueType, typ, unit string
}

// SaveRun writes rows under run in one transaction and returns how many rows
// were written. Stored rows of every (user, s_name, date) present in rows are
// replaced.
func (s *Store) SaveRun(ctx context.Context, run Run, rows aggregate.Table) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, user_name, window_spec, started_at, row_count) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET row_count = excluded.row_count`,
		run.ID, run.UserName, run.Window, run.StartedAt.UTC().Format(time.RFC3339), rows.Len(),
	)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}

	del, err := tx.PrepareContext(ctx, `DELETE FROM daily_metrics WHERE user_name = ? AND s_name = ? AND date = ?`)
	if err != nil {
		return 0, fmt.Errorf("prepare delete: %w", err)
	}
	defer del.Close()

	type dayKey struct{ user, sname, date string }
	cleared := map[dayKey]bool{}
	for _, r := range rows.Rows() {
		k := dayKey{r.UserName, r.SName, r.Date.Format(DateLayout)}
		if cleared[k] {
			continue
		}
		if _, err := del.ExecContext(ctx, k.user, k.sname, k.date); err != nil {
			return 0, fmt.Errorf("clear %s %s: %w", k.sname, k.date, err)
		}
		cleared[k] = true
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_metrics (user_name, s_name, date, value_type, type, unit, seq, value, value_generated_at, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_name, s_name, date, value_type, type, unit, seq) DO UPDATE SET
			value = excluded.value,
			value_generated_at = excluded.value_generated_at,
			run_id = excluded.run_id`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	seqs := map[metricKey]int{}
	n := 0
	for _, r := range rows.Rows() {
		var value sql.NullFloat64
		if r.Value != nil {
			value = sql.NullFloat64{Float64: *r.Value, Valid: true}
		}
		k := metricKey{r.UserName, r.SName, r.Date.Format(DateLayout), r.ValueType, r.Type, r.Unit}
		seq := seqs[k]
		seqs[k] = seq + 1
		if _, err := stmt.ExecContext(ctx,
			k.user, k.sname, k.date, k.valueType, k.typ, k.unit, seq,
			value, r.ValueGeneratedAt.Format(TimestampLayout), run.ID,
		); err != nil {
			return n, fmt.Errorf("upsert %s %s %s: %w", r.SName, r.Date.Format(DateLayout), r.ValueType, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// List returns the stored rows of user with from <= date <= to, newest
// first.
func (s *Store) List(ctx context.Context, user string, from, to time.Time) (aggregate.Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_name, value_generated_at, s_name, date, type, unit, value_type, value
		FROM daily_metrics
		WHERE user_name = ? AND date >= ? AND date <= ?
		ORDER BY date DESC, s_name, value_type, type, unit, seq`,
		user, from.Format(DateLayout), to.Format(DateLayout),
	)
	if err != nil {
		return aggregate.Table{}, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()

	var out []aggregate.Row
	for rows.Next() {
		var (
			r               aggregate.Row
			generated, date string
			value           sql.NullFloat64
		)
		if err := rows.Scan(&r.UserName, &generated, &r.SName, &date, &r.Type, &r.Unit, &r.ValueType, &value); err != nil {
			return aggregate.Table{}, fmt.Errorf("scan metric: %w", err)
		}
		r.ValueGeneratedAt, _ = time.Parse(TimestampLayout, generated)
		r.Date, _ = time.Parse(DateLayout, date)
		if value.Valid {
			v := value.Float64
			r.Value = &v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return aggregate.Table{}, fmt.Errorf("list metrics: %w", err)
	}
	return aggregate.NewTable(out), nil
}

// RunCount returns how many runs have been recorded.
func (s *Store) RunCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}
