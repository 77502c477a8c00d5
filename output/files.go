// Package output writes aggregate tables to disk (CSV, parquet, JSON
// manifest) and persists them in a SQLite metrics store.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lucasjlepore/fitdaily/aggregate"
)

// Layouts used for dates and generation stamps in every output format.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Columns is the long-format column order shared by CSV and parquet.
var Columns = []string{"userName", "valueGeneratedAt", "s_name", "date", "type", "unit", "valueType", "value"}

// Format is an on-disk table format.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// ParseFormat accepts parquet or csv; empty means parquet.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FormatParquet, nil
	case FormatParquet, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected parquet|csv)", value)
	}
}

// Extension is the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == FormatCSV {
		return "csv"
	}
	return "parquet"
}

// WriteTable writes rows to path in format f.
func WriteTable(path string, f Format, rows aggregate.Table) error {
	if f == FormatCSV {
		return WriteCSV(path, rows)
	}
	return WriteParquet(path, rows)
}

// EnsureDir creates path. Unless overwrite is set, an existing non-empty
// directory is an error.
func EnsureDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCSV writes rows in long format with a header line. Null values are
// written as empty cells.
func WriteCSV(path string, rows aggregate.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows.Rows() {
		record := []string{
			r.UserName,
			r.ValueGeneratedAt.Format(TimestampLayout),
			r.SName,
			r.Date.Format(DateLayout),
			r.Type,
			r.Unit,
			r.ValueType,
			formatFloatPtr(r.Value),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
