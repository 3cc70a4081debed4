package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "console", Output: &buf})

	l.With("component", "driver").WithGroup("frame").Info("cube respawned", "source", "click")

	line := buf.String()
	for _, want := range []string{"INFO ", "cube respawned", "component=driver", "frame.source=click"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		debugOn bool
		warnOn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"error", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Level: tt.level, Format: "console", Output: &buf})
			if got := l.Enabled(context.Background(), slog.LevelDebug); got != tt.debugOn {
				t.Errorf("debug enabled = %v, want %v", got, tt.debugOn)
			}
			if got := l.Enabled(context.Background(), slog.LevelWarn); got != tt.warnOn {
				t.Errorf("warn enabled = %v, want %v", got, tt.warnOn)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: "info", Format: "json", Output: &buf}).Info("frame", "n", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "frame" || rec["n"] != float64(3) {
		t.Errorf("record = %v", rec)
	}
}

func TestAutoFormatFallsBackToTextForPipes(t *testing.T) {
	var buf bytes.Buffer
	if got := resolveFormat("auto", &buf); got != "text" {
		t.Errorf("resolveFormat(auto, buffer) = %q, want text", got)
	}
	if got := resolveFormat("JSON", &buf); got != "json" {
		t.Errorf("resolveFormat(JSON) = %q, want json", got)
	}
}

func TestInitInstallsDefault(t *testing.T) {
	var buf bytes.Buffer
	l := Init(Config{Level: "info", Format: "text", Output: &buf})
	if L() != l {
		t.Fatal("L() did not return the installed logger")
	}
	slog.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("default logger not replaced: %q", buf.String())
	}
}
