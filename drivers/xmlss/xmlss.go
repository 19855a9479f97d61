// Package xmlss implements the XML-Spreadsheet-2003 driver (spec
// §4.6): encoding/xml struct-tag decoding over the ss: namespace,
// grounded on the teacher/pack's typed-XML-decode idiom (tsawler-
// tabula, dolthub-dolt's tealeg/xlsx vendor) generalised to this
// format's own element set. Formulas are stored in R1C1 form and
// translated to A1 via the reference package.
package xmlss

import (
	"context"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/asportagro/gosheet/dispatch"
	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/normalize"
	"github.com/asportagro/gosheet/reference"
	"github.com/asportagro/gosheet/workbook"
)

func init() {
	dispatch.Register(dispatch.Driver{Name: "xmlss", Parse: Parse}, "xml")
}

type ssWorkbook struct {
	XMLName   xml.Name    `xml:"Workbook"`
	Worksheet []ssSheet   `xml:"Worksheet"`
	Names     []ssNamedRange `xml:"Names>NamedRange"`
}

type ssNamedRange struct {
	Name    string `xml:"Name,attr"`
	RefersTo string `xml:"RefersTo,attr"`
}

type ssSheet struct {
	Name  string  `xml:"Name,attr"`
	Table ssTable `xml:"Table"`
}

type ssTable struct {
	Rows []ssRow `xml:"Row"`
}

type ssRow struct {
	Index int      `xml:"Index,attr"`
	Cells []ssCell `xml:"Cell"`
}

type ssCell struct {
	Index       int    `xml:"Index,attr"`
	Formula     string `xml:"Formula,attr"`
	MergeAcross int    `xml:"MergeAcross,attr"`
	MergeDown   int    `xml:"MergeDown,attr"`
	Data        ssData `xml:"Data"`
}

type ssData struct {
	Type  string `xml:"Type,attr"`
	Value string `xml:",chardata"`
}

// Parse decodes an XML-Spreadsheet-2003 document. ss:Row/ss:Cell
// `Index` attributes (1-based) skip ahead to a specific position,
// leaving intervening cells empty, per spec §4.6.
func Parse(ctx context.Context, data []byte, opts parseopts.Options) (normalize.Raw, error) {
	var doc ssWorkbook
	if err := xml.Unmarshal(data, &doc); err != nil {
		return normalize.Raw{}, err
	}

	raw := normalize.Raw{Names: map[string]string{}}
	for _, n := range doc.Names {
		raw.Names[n.Name] = n.RefersTo
	}

	for _, sheet := range doc.Worksheet {
		select {
		case <-ctx.Done():
			return normalize.Raw{}, ctx.Err()
		default:
		}
		ws, merges := buildSheet(sheet)
		for addr, ext := range merges {
			ws.MergeCells[addr] = ext
		}
		raw.Worksheets = append(raw.Worksheets, ws)
	}

	return raw, nil
}

func buildSheet(sheet ssSheet) (*workbook.Worksheet, map[string]workbook.MergeExtent) {
	type placedCell struct {
		row, col int
		val      workbook.CellValue
		formula  string
	}

	var placed []placedCell
	merges := map[string]workbook.MergeExtent{}
	maxRow, maxCol := 0, 0
	rowCursor := -1

	for _, row := range sheet.Rows {
		if row.Index > 0 {
			rowCursor = row.Index - 1
		} else {
			rowCursor++
		}
		colCursor := -1
		for _, cell := range row.Cells {
			if cell.Index > 0 {
				colCursor = cell.Index - 1
			} else {
				colCursor++
			}

			val := classifyData(cell.Data)
			formula := ""
			if cell.Formula != "" {
				formula = reference.TranslateR1C1ToA1(cell.Formula, rowCursor, colCursor)
				val.Kind = workbook.KindFormula
			}
			placed = append(placed, placedCell{row: rowCursor, col: colCursor, val: val, formula: formula})

			if cell.MergeAcross > 0 || cell.MergeDown > 0 {
				addr := reference.CellName(colCursor, rowCursor)
				merges[addr] = workbook.MergeExtent{ColSpan: cell.MergeAcross + 1, RowSpan: cell.MergeDown + 1}
			}

			if rowCursor > maxRow {
				maxRow = rowCursor
			}
			if colCursor > maxCol {
				maxCol = colCursor
			}
		}
	}

	ws := workbook.NewWorksheet(sheet.Name, maxRow+1, maxCol+1)
	for _, p := range placed {
		ws.Set(p.row, p.col, p.val)
		if p.formula != "" {
			addr := reference.CellName(p.col, p.row)
			ws.Cells[addr] = workbook.CellMeta{FormulaText: p.formula}
		}
	}
	return ws, merges
}

func classifyData(d ssData) workbook.CellValue {
	text := strings.TrimSpace(d.Value)
	switch d.Type {
	case "Number":
		if n, err := strconv.ParseFloat(text, 64); err == nil {
			return workbook.CellValue{Kind: workbook.KindNumber, Number: n}
		}
		return workbook.CellValue{Kind: workbook.KindText, Text: text}
	case "Boolean":
		return workbook.CellValue{Kind: workbook.KindBoolean, Boolean: text == "1" || strings.EqualFold(text, "true")}
	case "Error":
		return workbook.CellValue{Kind: workbook.KindError, Text: text}
	default:
		if text == "" {
			return workbook.CellValue{Kind: workbook.KindEmpty}
		}
		return workbook.CellValue{Kind: workbook.KindText, Text: text}
	}
}
