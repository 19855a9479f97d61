// Package dbf implements the xBase/DBF driver: a fixed binary header
// (field descriptor table) followed by fixed-width records. No repo in
// the example pack ships a DBF reader, so this driver decodes the
// header/record layout with encoding/binary directly, the same
// fixed-offset primitive decoding the teacher's BIFF reader uses for
// its own binary records (DESIGN.md's justified stdlib use for this
// driver).
package dbf

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/asportagro/gosheet/dispatch"
	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/internal/textenc"
	"github.com/asportagro/gosheet/normalize"
	"github.com/asportagro/gosheet/workbook"
)

func init() {
	dispatch.Register(dispatch.Driver{Name: "dbf", Parse: Parse}, "dbf")
}

const (
	headerSize     = 32
	fieldDescrSize = 32
)

type fieldDescr struct {
	name   string
	typ    byte
	length int
}

// Parse reads a DBF (dBASE III/IV-family) file. The 32-byte file
// header gives the header length and record length; the field
// descriptor array runs from offset 32 to the header terminator byte
// 0x0D. Each data record starts with a one-byte deletion flag ('*' if
// deleted, skipped here) followed by each field's fixed-width text
// representation, right-padded with spaces.
func Parse(ctx context.Context, data []byte, opts parseopts.Options) (normalize.Raw, error) {
	if len(data) < headerSize {
		return normalize.Raw{}, fmt.Errorf("dbf: truncated file header")
	}

	numRecords := int(binary.LittleEndian.Uint32(data[4:8]))
	headerLen := int(binary.LittleEndian.Uint16(data[8:10]))
	recordLen := int(binary.LittleEndian.Uint16(data[10:12]))

	var fields []fieldDescr
	for off := headerSize; off+fieldDescrSize <= headerLen-1 && off+fieldDescrSize <= len(data); off += fieldDescrSize {
		if data[off] == 0x0D {
			break
		}
		name := strings.TrimRight(string(data[off:off+11]), "\x00")
		typ := data[off+11]
		length := int(data[off+16])
		fields = append(fields, fieldDescr{name: name, typ: typ, length: length})
	}

	ws := workbook.NewWorksheet("Sheet1", numRecords+1, len(fields))
	for ci, f := range fields {
		ws.Set(0, ci, workbook.CellValue{Kind: workbook.KindText, Text: f.name})
	}

	recStart := headerLen
	for r := 0; r < numRecords; r++ {
		select {
		case <-ctx.Done():
			return normalize.Raw{}, ctx.Err()
		default:
		}
		offset := recStart + r*recordLen
		if offset+recordLen > len(data) {
			break
		}
		rec := data[offset : offset+recordLen]
		if len(rec) > 0 && rec[0] == '*' {
			continue // deleted record
		}
		fieldOff := 1
		for ci, f := range fields {
			if fieldOff+f.length > len(rec) {
				break
			}
			raw := strings.TrimSpace(textenc.Decode(rec[fieldOff:fieldOff+f.length], opts.Encoding))
			ws.Set(r+1, ci, decodeField(f.typ, raw))
			fieldOff += f.length
		}
	}

	return normalize.Raw{Worksheets: []*workbook.Worksheet{ws}}, nil
}

// decodeField converts a field's trimmed text representation per its
// xBase type character: 'N'/'F' numeric, 'L' logical, everything else
// (character, date, memo marker) stored as text verbatim.
func decodeField(typ byte, raw string) workbook.CellValue {
	switch typ {
	case 'N', 'F':
		if raw == "" {
			return workbook.CellValue{Kind: workbook.KindEmpty}
		}
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return workbook.CellValue{Kind: workbook.KindNumber, Number: n}
		}
		return workbook.CellValue{Kind: workbook.KindText, Text: raw}
	case 'L':
		switch raw {
		case "T", "Y", "t", "y":
			return workbook.CellValue{Kind: workbook.KindBoolean, Boolean: true}
		case "F", "N", "f", "n":
			return workbook.CellValue{Kind: workbook.KindBoolean, Boolean: false}
		}
		return workbook.CellValue{Kind: workbook.KindEmpty}
	default:
		if raw == "" {
			return workbook.CellValue{Kind: workbook.KindEmpty}
		}
		return workbook.CellValue{Kind: workbook.KindText, Text: raw}
	}
}

