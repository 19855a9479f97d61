// Package parseopts holds the recognised parser option keys (spec §6)
// as a plain struct shared between the top-level gosheet.ParseOptions
// and every driver, avoiding an import cycle between the root package
// and dispatch/drivers.
package parseopts

import "github.com/asportagro/gosheet/internal/xlog"

// Options mirrors gosheet.ParseOptions field-for-field; gosheet.Parse
// converts its public ParseOptions into this type before dispatch.
type Options struct {
	Delimiter        rune
	Encoding         string
	TableIndex       int
	FirstRowAsHeader bool
	WorksheetIndex   int // reserved, ignored by all drivers

	// Logger receives driver diagnostics (container-open detail,
	// truncated/best-effort recoveries). Never nil by the time a
	// driver sees it: gosheet.Parse substitutes xlog.Discard.
	Logger *xlog.Logger
}
