// Package xlog is the module's shared logging sink: a thin wrapper
// around *log.Logger every component writes diagnostic and
// best-effort-failure messages through, generalised from this
// module's teacher's per-Book logfile field into a standalone type so
// drivers that have no workbook yet (dispatch, container opening) can
// still log.
package xlog

import (
	"io"
	"log"
)

// Logger is a leveled wrapper over a *log.Logger. A nil *Logger is
// valid and discards everything, so callers that construct one from a
// zero-value ParseOptions never need a nil check.
type Logger struct {
	std *log.Logger
}

// New builds a Logger writing to w with the given prefix. Passing
// io.Discard yields a Logger that still satisfies the interface but
// emits nothing, cheaper than leaving *Logger nil when a concrete
// value is more convenient to thread through.
func New(w io.Writer, prefix string) *Logger {
	return &Logger{std: log.New(w, prefix, log.LstdFlags)}
}

// Warnf logs a recoverable condition: a format driver chose a
// best-effort fallback, a codepage guess, a speculative extraction
// path. Never called for fatal errors, which propagate via returned
// errors instead.
func (l *Logger) Warnf(format string, args ...interface{}) {
	if l == nil || l.std == nil {
		return
	}
	l.std.Printf("WARN "+format, args...)
}

// Debugf logs low-level trace detail (record types seen, sector
// chains walked). Intended to be compiled out or filtered by sink
// configuration in callers that care about volume; this package
// itself applies no filtering.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l == nil || l.std == nil {
		return
	}
	l.std.Printf("DEBUG "+format, args...)
}

// Discard is a Logger that drops every message, used as the default
// when ParseOptions carries no explicit sink.
var Discard = New(io.Discard, "")
