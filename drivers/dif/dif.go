// Package dif implements the Data Interchange Format driver. Like
// SYLK, DIF is a line-oriented text format with no third-party parser
// anywhere in the example pack, so this is a bufio.Scanner-based
// tokeniser, grounded on DIF's well-known public two-line-per-record
// shape (a `type,value` header line followed by a string-data line)
// rather than on any example source — spec groups it with SYLK/XML-SS
// as a "tokenised text format" and names no further detail.
package dif

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/asportagro/gosheet/dispatch"
	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/internal/textenc"
	"github.com/asportagro/gosheet/normalize"
	"github.com/asportagro/gosheet/workbook"
)

func init() {
	dispatch.Register(dispatch.Driver{Name: "dif", Parse: Parse}, "dif")
}

// Parse reads a DIF stream: a header of TABLE/VECTORS/TUPLES items
// (each three lines: the topic, a number,value line and a string line,
// skipped here since the workbook's shape is computed from the DATA
// section directly) ending with a DATA item, followed by BOT-delimited
// rows. Each row holds one two-line value record per cell: a numeric
// record is `0,<num>` followed by an indicator line (V or empty for a
// plain number, NA/ERROR for error markers, TRUE/FALSE for booleans),
// a text record is `1,0` followed by a quoted string.
func Parse(ctx context.Context, data []byte, opts parseopts.Options) (normalize.Raw, error) {
	text := textenc.Decode(data, opts.Encoding)
	lines := splitLines(text)

	var rows [][]workbook.CellValue
	var row []workbook.CellValue
	inData := false
	maxCols := 0

scan:
	for i := 0; i+1 < len(lines); i += 2 {
		select {
		case <-ctx.Done():
			return normalize.Raw{}, ctx.Err()
		default:
		}
		header := strings.TrimSpace(lines[i])
		strLine := strings.TrimSpace(lines[i+1])

		if header == "DATA" {
			inData = true
			i++ // header items are three lines long
			continue
		}
		if !inData {
			i++ // header items are three lines long
			continue
		}

		switch {
		case strLine == "BOT":
			if row != nil {
				rows = append(rows, row)
			}
			row = nil
			continue
		case strLine == "EOD":
			if row != nil {
				rows = append(rows, row)
				row = nil
			}
			break scan
		}

		parts := strings.SplitN(header, ",", 2)
		if len(parts) != 2 {
			continue
		}
		typeCode := parts[0]

		var cell workbook.CellValue
		switch typeCode {
		case "1":
			cell = workbook.CellValue{Kind: workbook.KindText, Text: unquote(strLine)}
		case "0":
			switch strLine {
			case "V", "":
				if n, err := strconv.ParseFloat(parts[1], 64); err == nil {
					cell = workbook.CellValue{Kind: workbook.KindNumber, Number: n}
				}
			case "NA":
				cell = workbook.CellValue{Kind: workbook.KindError, Text: "#N/A"}
			case "ERROR":
				cell = workbook.CellValue{Kind: workbook.KindError, Text: "#ERROR"}
			case "TRUE":
				cell = workbook.CellValue{Kind: workbook.KindBoolean, Boolean: true}
			case "FALSE":
				cell = workbook.CellValue{Kind: workbook.KindBoolean, Boolean: false}
			default:
				if n, err := strconv.ParseFloat(parts[1], 64); err == nil {
					cell = workbook.CellValue{Kind: workbook.KindNumber, Number: n}
				}
			}
		default:
			continue
		}
		row = append(row, cell)
	}

	for _, r := range rows {
		if len(r) > maxCols {
			maxCols = len(r)
		}
	}

	ws := workbook.NewWorksheet("Sheet1", len(rows), maxCols)
	for ri, r := range rows {
		for ci, c := range r {
			ws.Set(ri, ci, c)
		}
	}

	return normalize.Raw{Worksheets: []*workbook.Worksheet{ws}}, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}
