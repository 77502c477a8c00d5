// Package ingest reads fitness exports from disk into record tables. Every
// timestamp is converted to the reference zone and stored as a naive wall
// clock.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lucasjlepore/fitdaily/records"
)

type googleFitFile struct {
	DataSource string           `json:"Data Source"`
	DataPoints []googleFitPoint `json:"Data Points"`
}

type googleFitPoint struct {
	DataTypeName       string           `json:"dataTypeName"`
	OriginDataSourceID string           `json:"originDataSourceId"`
	StartTimeNanos     flexInt          `json:"startTimeNanos"`
	EndTimeNanos       flexInt          `json:"endTimeNanos"`
	ModifiedTimeMillis flexInt          `json:"modifiedTimeMillis"`
	FitValue           []googleFitValue `json:"fitValue"`
}

type googleFitValue struct {
	Value map[string]json.RawMessage `json:"value"`
}

// flexInt accepts a JSON number or a quoted integer. Absent or null leaves it
// unset.
type flexInt struct {
	v   int64
	set bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fv, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("parse integer %q: %w", s, err)
		}
		v = int64(fv)
	}
	f.v, f.set = v, true
	return nil
}

// ReadGoogleFitDir reads every *.json file in dir, in name order.
func ReadGoogleFitDir(dir, user string, loc *time.Location) (records.Table, error) {
	paths, err := listFiles(dir, ".json")
	if err != nil {
		return records.Table{}, err
	}
	out := records.Table{}
	for _, p := range paths {
		t, err := ReadGoogleFitFile(p, user, loc)
		if err != nil {
			return records.Table{}, err
		}
		out = out.Concat(t)
	}
	return out, nil
}

// ReadGoogleFitFile reads one Google Fit "All Data" stream export. The
// file-level "Data Source" becomes the DataSource of every row.
func ReadGoogleFitFile(path, user string, loc *time.Location) (records.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return records.Table{}, fmt.Errorf("read google fit file: %w", err)
	}
	var file googleFitFile
	if err := json.Unmarshal(data, &file); err != nil {
		return records.Table{}, fmt.Errorf("decode google fit file %s: %w", filepath.Base(path), err)
	}

	events := make([]records.Event, 0, len(file.DataPoints))
	for _, p := range file.DataPoints {
		kind, value := firstFitValue(p.FitValue)
		events = append(events, records.Event{
			UserName:           user,
			DataSource:         file.DataSource,
			OriginDataSourceID: p.OriginDataSourceID,
			Type:               p.DataTypeName,
			StartDate:          fromUnix(p.StartTimeNanos, time.Nanosecond, loc),
			EndDate:            fromUnix(p.EndTimeNanos, time.Nanosecond, loc),
			ModifiedTime:       fromUnix(p.ModifiedTimeMillis, time.Millisecond, loc),
			Value:              value,
			ValueKind:          kind,
		})
	}
	return records.NewTable(events), nil
}

func firstFitValue(values []googleFitValue) (kind, value string) {
	if len(values) == 0 || len(values[0].Value) == 0 {
		return "", ""
	}
	keys := make([]string, 0, len(values[0].Value))
	for k := range values[0].Value {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kind = keys[0]
	raw := bytes.TrimSpace(values[0].Value[kind])
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return kind, s
	}
	return kind, string(raw)
}

// fromUnix converts an epoch count in the given unit to a naive timestamp in
// loc. Unset or non-positive counts map to the zero time.
func fromUnix(v flexInt, unit time.Duration, loc *time.Location) time.Time {
	if !v.set || v.v <= 0 {
		return time.Time{}
	}
	var t time.Time
	switch unit {
	case time.Millisecond:
		t = time.UnixMilli(v.v)
	default:
		t = time.Unix(0, v.v)
	}
	return records.Naive(t.UTC(), loc)
}

func listFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// LoadLocation resolves a zone name, treating "" as UTC.
func LoadLocation(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}
