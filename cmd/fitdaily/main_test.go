package main

import (
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/lucasjlepore/fitdaily/window"
)

func TestParseWindow(t *testing.T) {
	spec, err := parseWindow([]string{"2024-01-01", "2024-01-03"}, "")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if _, ok := spec.(window.Range); !ok {
		t.Fatalf("expected Range, got %T", spec)
	}

	spec, err = parseWindow(nil, "2024-01-01, 2024-01-05")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := len(spec.Intervals()); got != 2 {
		t.Fatalf("expected 2 intervals, got %d", got)
	}

	if _, err := parseWindow([]string{"2024-01-01"}, "2024-01-02"); err == nil {
		t.Fatal("expected error when both forms are given")
	}
	if _, err := parseWindow(nil, ""); !errors.Is(err, window.ErrMalformedSpec) {
		t.Fatalf("expected ErrMalformedSpec, got %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(zapcore.WarnLevel)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info should be disabled at warn level")
	}
}
