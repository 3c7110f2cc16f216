package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{level: "debug"},
		{level: "info"},
		{level: "warn"},
		{level: "error"},
		{level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			_, err := New(&bytes.Buffer{}, tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v", tt.level, err)
			}
		})
	}
}

func TestLoggerSink(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	if err != nil {
		t.Fatal(err)
	}
	sink := LoggerSink{Logger: logger}

	sink.Emit(SeverityInfo, "general", "loader message")
	sink.Emit(SeverityWarning, "performance", "slow path")
	sink.Emit(SeverityError, "validation", "vkQueueSubmit: fence in use")

	out := buf.String()
	if strings.Contains(out, "loader message") {
		t.Error("info message passed a warn-level logger")
	}
	for _, want := range []string{"slow path", "category=performance", "fence in use", "category=validation", prefix} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSeverityString(t *testing.T) {
	if SeverityWarning.String() != "warning" || Severity(9).String() != "unknown" {
		t.Error("unexpected severity names")
	}
	Discard.Emit(SeverityError, "validation", "ignored")
}
