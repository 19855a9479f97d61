// Package gosheet parses legacy and modern spreadsheet container
// formats into one uniform workbook model (see package workbook),
// generalising the teacher's single-format (BIFF8/.xls) reader into a
// dispatch across eleven format families while keeping its "produced
// once, refined by a normaliser, thereafter immutable" entity
// lifecycle.
package gosheet

import (
	"context"
	"fmt"

	"github.com/asportagro/gosheet/dispatch"
	_ "github.com/asportagro/gosheet/drivers/csv"
	_ "github.com/asportagro/gosheet/drivers/dbf"
	_ "github.com/asportagro/gosheet/drivers/dif"
	_ "github.com/asportagro/gosheet/drivers/htmltable"
	_ "github.com/asportagro/gosheet/drivers/lotus"
	_ "github.com/asportagro/gosheet/drivers/numbers"
	_ "github.com/asportagro/gosheet/drivers/ods"
	_ "github.com/asportagro/gosheet/drivers/sylk"
	_ "github.com/asportagro/gosheet/drivers/xls"
	_ "github.com/asportagro/gosheet/drivers/xlsx"
	_ "github.com/asportagro/gosheet/drivers/xmlss"
	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/internal/xlog"
	"github.com/asportagro/gosheet/normalize"
	"github.com/asportagro/gosheet/workbook"
)

// Source is the input surface spec §6 describes: a path string, a raw
// buffer, or a host-provided blob-like opaque all reduce to this one
// method. Callers adapt file-path/browser-blob loading themselves
// (spec §1 scopes the input loader out); gosheet only needs the bytes.
type Source interface {
	// Bytes returns the full input content. Called at most once.
	Bytes() ([]byte, error)
}

// BytesSource is the trivial Source over an in-memory buffer.
type BytesSource []byte

func (b BytesSource) Bytes() ([]byte, error) { return b, nil }

// ParseOptions is the public form of the recognised parser option keys
// (spec §6): Delimiter (CSV), Encoding (CSV/DIF), TableIndex (HTML),
// FirstRowAsHeader (HTML/CSV variants), WorksheetIndex (reserved).
type ParseOptions struct {
	Delimiter        rune
	Encoding         string
	TableIndex       int
	FirstRowAsHeader bool
	WorksheetIndex   int

	// Logger, if set, receives driver diagnostics (container-open
	// detail, best-effort recoveries taken). Left nil, Parse uses
	// xlog.Discard and nothing is logged.
	Logger *xlog.Logger
}

// DefaultParseOptions returns the spec-mandated defaults: comma
// delimiter, first-row-as-header on. Parse substitutes these when
// called with the zero-value ParseOptions{}, since a bare Go bool
// cannot distinguish "caller explicitly wants false" from "caller
// didn't set this field" — the zero-value case is the common one
// (caller only cares about overriding extHint-specific options) and
// is treated as "use the defaults".
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Delimiter: ',', FirstRowAsHeader: true}
}

func (o ParseOptions) toParseOpts() parseopts.Options {
	if o == (ParseOptions{}) {
		o = DefaultParseOptions()
	}
	logger := o.Logger
	if logger == nil {
		logger = xlog.Discard
	}
	return parseopts.Options{
		Delimiter:        o.Delimiter,
		Encoding:         o.Encoding,
		TableIndex:       o.TableIndex,
		FirstRowAsHeader: o.FirstRowAsHeader,
		WorksheetIndex:   o.WorksheetIndex,
		Logger:           logger,
	}
}

// Parse reads src through the driver selected by extHint (a bare
// extension, with or without a leading dot, case-insensitive) and
// returns the normalised workbook. A failed parse returns a non-nil
// error identifying the driver, the error kind, and an informative
// context token (spec §7); a partially-parsed success returns a
// workbook whose Warnings field carries any contained, non-fatal
// degradations.
func Parse(ctx context.Context, src Source, extHint string, opts ParseOptions) (*workbook.Workbook, error) {
	if src == nil {
		return nil, NewError(InputInvalid, "", "nil source", nil)
	}
	data, err := src.Bytes()
	if err != nil {
		return nil, NewError(InputInvalid, "", "reading source", err)
	}
	if len(data) == 0 {
		return nil, NewError(InputInvalid, "", "empty input", nil)
	}

	ext := trimLeadingDot(extHint)
	driver, ok := dispatch.DriverFor(ext)
	if !ok {
		return nil, NewError(UnsupportedExtension, "", fmt.Sprintf("extension %q", extHint), nil)
	}

	parseOpts := opts.toParseOpts()
	parseOpts.Logger.Debugf("gosheet: dispatching %q (%d bytes) to driver %q", ext, len(data), driver.Name)

	raw, err := driver.Parse(ctx, data, parseOpts)
	if err != nil {
		if gerr, ok := err.(*Error); ok {
			if gerr.Driver == "" {
				gerr.Driver = driver.Name
			}
			return nil, gerr
		}
		return nil, NewError(DecodeFailure, driver.Name, "driver parse", err)
	}
	for _, w := range raw.Warnings {
		parseOpts.Logger.Warnf("%s: %s", driver.Name, w)
	}

	wb := normalize.Run(raw)
	return wb, nil
}

func trimLeadingDot(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}

var _ Source = BytesSource(nil)
