// Package csv implements the CSV/TSV/plain-text driver. Spec §1 places
// CSV tokenisation itself out of scope ("a straightforward state
// machine"), so this driver is a thin adapter over the standard
// library's encoding/csv rather than a hand-rolled tokeniser — the
// spec's own framing is the justification for reaching for stdlib
// here, not a gap in the example pack.
package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"

	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/internal/textenc"
	"github.com/asportagro/gosheet/normalize"
	"github.com/asportagro/gosheet/workbook"

	"github.com/asportagro/gosheet/dispatch"
)

func init() {
	dispatch.Register(dispatch.Driver{Name: "csv", Parse: Parse}, "csv")
	dispatch.Register(dispatch.Driver{Name: "csv", Parse: ParseTab}, "tsv", "tab", "txt")
}

// Parse reads comma-delimited text (or opts.Delimiter, if set) into a
// single-worksheet raw workbook.
func Parse(ctx context.Context, data []byte, opts parseopts.Options) (normalize.Raw, error) {
	return parse(ctx, data, opts, ',')
}

// ParseTab reads tab-delimited text, the driver spec §6 selects for
// tsv/tab/txt extensions, unless opts.Delimiter overrides it.
func ParseTab(ctx context.Context, data []byte, opts parseopts.Options) (normalize.Raw, error) {
	return parse(ctx, data, opts, '\t')
}

func parse(ctx context.Context, data []byte, opts parseopts.Options, defaultDelim rune) (normalize.Raw, error) {
	text := textenc.Decode(data, opts.Encoding)

	delim := opts.Delimiter
	if delim == 0 {
		delim = defaultDelim
	}

	r := csv.NewReader(bytes.NewReader([]byte(text)))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		select {
		case <-ctx.Done():
			return normalize.Raw{}, ctx.Err()
		default:
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed line is contained, not fatal: the rest of
			// the file still parses, matching spec §7's "sub-
			// structural anomalies are contained" propagation rule.
			continue
		}
		rows = append(rows, rec)
	}

	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}

	ws := workbook.NewWorksheet("Sheet1", len(rows), cols)
	for ri, row := range rows {
		for ci, field := range row {
			ws.Set(ri, ci, workbook.CellValue{Kind: workbook.KindText, Text: field})
		}
	}

	return normalize.Raw{Worksheets: []*workbook.Worksheet{ws}}, nil
}

