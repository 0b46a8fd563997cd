package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestCompactHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.Info("loaded snapshot", "path", "atlas.json", "nodes", 120, "nodeID", 7)

	line := buf.String()
	if !strings.HasPrefix(line, "[INFO]  ") {
		t.Errorf("Expected INFO prefix, got %q", line)
	}
	for _, want := range []string{"loaded snapshot |", "path=atlas.json", "nodes=120", "node=7"} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected %q in %q", want, line)
		}
	}
}

func TestCompactHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, nil)).With("component", "watcher").WithGroup("reload")

	log.Info("done", "result", "ok")

	line := buf.String()
	if !strings.Contains(line, "component=watcher") {
		t.Errorf("Expected accumulated attribute in %q", line)
	}
	if !strings.Contains(line, "reload.result=ok") {
		t.Errorf("Expected grouped attribute in %q", line)
	}
}

func TestCompactHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("hidden")
	log.Warn("shown", "error", "boom here")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info line should be filtered, got %q", out)
	}
	if !strings.Contains(out, `error="boom here"`) {
		t.Errorf("Expected quoted error, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		verbose int
		want    slog.Level
		wantErr bool
	}{
		{"", 0, slog.LevelInfo, false},
		{"debug", 0, slog.LevelDebug, false},
		{"WARN", 0, slog.LevelWarn, false},
		{"", 1, slog.LevelDebug, false},
		{"", 2, LevelTrace, false},
		{"error", 5, LevelTrace, false},
		{"loud", 0, slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.name, tt.verbose)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q, %d) error = %v, wantErr %v", tt.name, tt.verbose, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q, %d) = %v, want %v", tt.name, tt.verbose, got, tt.want)
		}
	}
}
