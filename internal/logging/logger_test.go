package logging

import (
	"bytes"
	"strings"
	"testing"
)

func newBufferLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Output: &buf}), &buf
}

func TestLoggerLevels(t *testing.T) {
	l, buf := newBufferLogger(LevelInfo)

	l.Debug("hidden debug")
	l.Info("shown info", "n", 1)
	l.Warn("shown warn")
	l.Error("shown error", "err", "E")

	out := buf.String()
	if strings.Contains(out, "hidden debug") {
		t.Errorf("debug message emitted at info level: %s", out)
	}
	for _, want := range []string{"shown info", "n=1", "shown warn", "shown error", "err=E"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output: %s", want, out)
		}
	}
}

func TestWithComponentSharesLevel(t *testing.T) {
	root, buf := newBufferLogger(LevelInfo)
	child := root.WithComponent("muse")

	child.Debug("before")
	root.SetLevel(LevelDebug)
	child.Debug("after")

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Errorf("debug emitted before level change: %s", out)
	}
	if !strings.Contains(out, "after") || !strings.Contains(out, "component=muse") {
		t.Errorf("missing component debug output: %s", out)
	}
	if child.Level() != LevelDebug {
		t.Errorf("child Level() = %v", child.Level())
	}
}

func TestFormattedHelpers(t *testing.T) {
	l, buf := newBufferLogger(LevelDebug)
	l.Debugf("hello %s", "dbg")
	l.Infof("info %d", 2)

	out := buf.String()
	if !strings.Contains(out, "hello dbg") || !strings.Contains(out, "info 2") {
		t.Errorf("missing formatted output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"Warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
	if l.Enabled(LevelError) {
		t.Error("discard logger should not enable error level")
	}
	if OrDiscard(nil) == nil {
		t.Error("OrDiscard(nil) returned nil")
	}
}
