package xlog

import (
	"strings"
	"testing"
)

func TestWarnfAndDebugfWriteThroughPrefix(t *testing.T) {
	var buf strings.Builder
	l := New(&buf, "")

	l.Warnf("sheet %q truncated", "Data")
	l.Debugf("opened %d entries", 3)

	out := buf.String()
	if !strings.Contains(out, "WARN sheet \"Data\" truncated") {
		t.Fatalf("missing WARN line, got %q", out)
	}
	if !strings.Contains(out, "DEBUG opened 3 entries") {
		t.Fatalf("missing DEBUG line, got %q", out)
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	l.Warnf("should not panic")
	l.Debugf("should not panic")
}

func TestDiscardDropsOutput(t *testing.T) {
	Discard.Warnf("dropped")
	Discard.Debugf("dropped")
}
