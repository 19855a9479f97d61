// Package lotus implements the Lotus 1-2-3 WK1/WK3/WK4 driver. These
// formats use the identical `[u16 type][u16 length][payload]` framing
// BIFF uses (spec §4.8), so this driver reuses the biff package's
// Reader directly against a Lotus-specific record-type table instead
// of reimplementing record iteration — the same record-stream idiom
// the teacher's `xlrd/biff.go` BiffRecordIterator established,
// rebuilt once in `biff.Reader` and reused here rather than copied.
package lotus

import (
	"context"
	"math"

	"github.com/asportagro/gosheet/biff"
	"github.com/asportagro/gosheet/dispatch"
	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/internal/textenc"
	"github.com/asportagro/gosheet/normalize"
	"github.com/asportagro/gosheet/workbook"
)

func init() {
	d := dispatch.Driver{Name: "lotus", Parse: Parse}
	dispatch.Register(d, "wks", "wk1", "wk3", "wk4", "123")
}

// Lotus record type codes (spec §4.8).
const (
	recBOF        = 0x00
	recEOF        = 0x01
	recDimensions = 0x06
	recLabelWK1   = 0x0D
	recNumberWK1  = 0x0E
	recLabelWK3   = 0x16
	recNumberWK3  = 0x17
	recFormulaWK3 = 0x27
	recSheetName  = 0x18 // WK3/WK4 multi-sheet container marker
)

type cellEvent struct {
	sheet    int
	row, col int
	val      workbook.CellValue
}

// Parse reads a WK1/WK3/WK4 stream. WK3/WK4 nest multiple worksheets
// under one container via SHEETNAME records (spec §4.8); WK1 has
// exactly one implicit worksheet. Lotus formula token streams are kept
// as opaque raw bytes (spec §9 Open Question: left undecided), so
// FORMULA records only surface their cached numeric result.
func Parse(ctx context.Context, data []byte, opts parseopts.Options) (normalize.Raw, error) {
	r := biff.NewReader(data)

	sheetNames := []string{"Sheet1"}
	currentSheet := 0
	var events []cellEvent
	maxRow := map[int]int{}
	maxCol := map[int]int{}

	for {
		select {
		case <-ctx.Done():
			return normalize.Raw{}, ctx.Err()
		default:
		}
		rec, ok, err := r.Next()
		if err != nil {
			break // truncated stream: stop gracefully with what was accumulated (spec §7)
		}
		if !ok {
			break
		}

		switch rec.Type {
		case recSheetName:
			name := textenc.Decode(trimNul(rec.Data), opts.Encoding)
			if name != "" {
				if len(sheetNames) == 1 && sheetNames[0] == "Sheet1" && len(events) == 0 {
					sheetNames[0] = name
				} else {
					sheetNames = append(sheetNames, name)
					currentSheet = len(sheetNames) - 1
				}
			}
		case recLabelWK1, recLabelWK3:
			row, col, text, ok := decodeLabel(rec.Data)
			if !ok {
				continue
			}
			events = append(events, cellEvent{sheet: currentSheet, row: row, col: col,
				val: workbook.CellValue{Kind: workbook.KindText, Text: textenc.Decode([]byte(text), opts.Encoding)}})
			trackExtent(maxRow, maxCol, currentSheet, row, col)
		case recNumberWK1:
			row, col, val, ok := decodeNumberWK1(rec.Data)
			if !ok {
				continue
			}
			events = append(events, cellEvent{sheet: currentSheet, row: row, col: col,
				val: workbook.CellValue{Kind: workbook.KindNumber, Number: val}})
			trackExtent(maxRow, maxCol, currentSheet, row, col)
		case recNumberWK3:
			row, col, val, ok := decodeNumberWK3(rec.Data)
			if !ok {
				continue
			}
			events = append(events, cellEvent{sheet: currentSheet, row: row, col: col,
				val: workbook.CellValue{Kind: workbook.KindNumber, Number: val}})
			trackExtent(maxRow, maxCol, currentSheet, row, col)
		case recFormulaWK3:
			row, col, val, ok := decodeFormulaResult(rec.Data)
			if !ok {
				continue
			}
			events = append(events, cellEvent{sheet: currentSheet, row: row, col: col,
				val: workbook.CellValue{Kind: workbook.KindNumber, Number: val}})
			trackExtent(maxRow, maxCol, currentSheet, row, col)
		}
	}

	sheets := make([]*workbook.Worksheet, len(sheetNames))
	for i, name := range sheetNames {
		sheets[i] = workbook.NewWorksheet(name, maxRow[i]+1, maxCol[i]+1)
	}
	for _, e := range events {
		if e.sheet < len(sheets) {
			sheets[e.sheet].Set(e.row, e.col, e.val)
		}
	}

	return normalize.Raw{Worksheets: sheets}, nil
}

func trackExtent(maxRow, maxCol map[int]int, sheet, row, col int) {
	if row > maxRow[sheet] {
		maxRow[sheet] = row
	}
	if col > maxCol[sheet] {
		maxCol[sheet] = col
	}
}

func trimNul(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

// decodeLabel parses a WK1/WK3 LABEL record: col(2) row(2) attr(1
// WK1-only)/format cell-pointer, then a NUL-terminated string. The
// exact fixed prefix differs slightly between WK1 and WK3; both share
// the col/row-then-string shape this decoder relies on.
func decodeLabel(data []byte) (row, col int, text string, ok bool) {
	if len(data) < 5 {
		return 0, 0, "", false
	}
	col = int(data[0]) | int(data[1])<<8
	row = int(data[2]) | int(data[3])<<8
	rest := data[5:]
	nul := len(rest)
	for i, c := range rest {
		if c == 0 {
			nul = i
			break
		}
	}
	return row, col, string(rest[:nul]), true
}

// decodeNumberWK1 unpacks a WK1 NUMBER record: col(2) row(2) then
// either an 8-byte IEEE double or, for the older packed variant
// (6-byte payload), Lotus's "low-precision binary floating point"
// 16-bit value — a biased-64 exponent in the high byte and a
// 2's-complement mantissa in the low byte (spec §4.8).
func decodeNumberWK1(data []byte) (row, col int, val float64, ok bool) {
	if len(data) < 6 {
		return 0, 0, 0, false
	}
	col = int(data[0]) | int(data[1])<<8
	row = int(data[2]) | int(data[3])<<8

	if len(data) >= 12 {
		bits := uint64(0)
		for i := 0; i < 8; i++ {
			bits |= uint64(data[4+i]) << (8 * i)
		}
		return row, col, math.Float64frombits(bits), true
	}

	packed := int16(uint16(data[4]) | uint16(data[5])<<8)
	return row, col, decodePackedWK1Number(packed), true
}

// decodePackedWK1Number decodes Lotus's 16-bit packed floating point:
// bit 15 sign, bits 14-8 biased-64 exponent, bits 7-0 2's-complement
// mantissa (value = mantissa * 2^(exponent-64-7), sign bit negates).
func decodePackedWK1Number(packed int16) float64 {
	u := uint16(packed)
	sign := 1.0
	if u&0x8000 != 0 {
		sign = -1.0
	}
	exponent := int((u>>8)&0x7F) - 64
	mantissa := int8(u & 0xFF)
	return sign * float64(mantissa) * math.Pow(2, float64(exponent-7))
}

func decodeNumberWK3(data []byte) (row, col int, val float64, ok bool) {
	return decodeNumberWK1(data)
}

// decodeFormulaResult extracts the cached result from a WK3 FORMULA
// record: col(2) row(2) value(8, IEEE double) then the opaque token
// stream, which this driver does not decode (spec §9 Open Question).
func decodeFormulaResult(data []byte) (row, col int, val float64, ok bool) {
	return decodeNumberWK1(data)
}
