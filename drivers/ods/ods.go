// Package ods implements the OpenDocument Spreadsheet driver (spec
// §4.1): archive/zip over the package plus encoding/xml decoding of
// content.xml's table:table/table:table-row/table:table-cell tree.
// Grounded on other_examples/0c58c78c_pigletfly-tablib-go__ods.go.go's
// namespace-qualified struct tags and cell value-type switch, and on
// other_examples/a97cd9ca_uppercaveman-go-1__spreadsheet-ods-ods.go.go's
// automatic-styles (style:style / table-column-properties /
// table-row-properties / text-properties) for column width, row
// height and font styling.
package ods

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/asportagro/gosheet/dispatch"
	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/internal/stylecss"
	"github.com/asportagro/gosheet/normalize"
	"github.com/asportagro/gosheet/reference"
	"github.com/asportagro/gosheet/workbook"
)

func init() {
	dispatch.Register(dispatch.Driver{Name: "ods", Parse: Parse}, "ods", "fods")
}

// maxRepeat bounds table:number-columns-repeated and
// table:number-rows-repeated: ODF routinely declares a single trailing
// row or column with a repeat count in the tens of thousands to mean
// "the rest of the sheet is empty". Expanding that verbatim would
// blow up the in-memory matrix for no information gained, so runs
// longer than maxRepeat are truncated and the truncation is recorded
// as a warning instead of silently dropped.
const maxRepeat = 100

type contentXML struct {
	XMLName         xml.Name        `xml:"urn:oasis:names:tc:opendocument:xmlns:office:1.0 document-content"`
	AutomaticStyles stylesSectionXML `xml:"urn:oasis:names:tc:opendocument:xmlns:office:1.0 automatic-styles"`
	Body            bodyXML         `xml:"urn:oasis:names:tc:opendocument:xmlns:office:1.0 body"`
}

type bodyXML struct {
	Spreadsheet spreadsheetXML `xml:"urn:oasis:names:tc:opendocument:xmlns:office:1.0 spreadsheet"`
}

type spreadsheetXML struct {
	Tables []tableXML `xml:"urn:oasis:names:tc:opendocument:xmlns:table:1.0 table"`
}

type tableXML struct {
	Name    string           `xml:"urn:oasis:names:tc:opendocument:xmlns:table:1.0 name,attr"`
	Columns []tableColumnXML `xml:"urn:oasis:names:tc:opendocument:xmlns:table:1.0 table-column"`
	Rows    []tableRowXML    `xml:"urn:oasis:names:tc:opendocument:xmlns:table:1.0 table-row"`
}

type tableColumnXML struct {
	StyleName             string `xml:"urn:oasis:names:tc:opendocument:xmlns:table:1.0 style-name,attr"`
	NumberColumnsRepeated int    `xml:"urn:oasis:names:tc:opendocument:xmlns:table:1.0 number-columns-repeated,attr"`
	Visibility            string `xml:"urn:oasis:names:tc:opendocument:xmlns:table:1.0 visibility,attr"`
}

// tableRowXML decodes manually: a row mixes table:table-cell and
// table:covered-table-cell children (the latter marks a cell a merge
// from an earlier row/column already covers) in document order, and
// encoding/xml's declarative struct tags can't preserve the interleave
// of two differently-named sibling elements.
type tableRowXML struct {
	StyleName          string
	NumberRowsRepeated int
	Visibility         string
	Cells              []tableCellXML
}

func (r *tableRowXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	r.NumberRowsRepeated = 1
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "style-name":
			r.StyleName = a.Value
		case "number-rows-repeated":
			r.NumberRowsRepeated = atoiOr(a.Value, 1)
		case "visibility":
			r.Visibility = a.Value
		}
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "table-cell", "covered-table-cell":
				var c tableCellXML
				c.covered = t.Name.Local == "covered-table-cell"
				if err := d.DecodeElement(&c, &t); err != nil {
					return err
				}
				r.Cells = append(r.Cells, c)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

type tableCellXML struct {
	covered               bool
	ValueType             string `xml:"urn:oasis:names:tc:opendocument:xmlns:office:1.0 value-type,attr"`
	Value                 string `xml:"urn:oasis:names:tc:opendocument:xmlns:office:1.0 value,attr"`
	DateValue             string `xml:"urn:oasis:names:tc:opendocument:xmlns:office:1.0 date-value,attr"`
	BooleanValue          string `xml:"urn:oasis:names:tc:opendocument:xmlns:office:1.0 boolean-value,attr"`
	StringValue           string `xml:"urn:oasis:names:tc:opendocument:xmlns:office:1.0 string-value,attr"`
	Formula               string `xml:"urn:oasis:names:tc:opendocument:xmlns:table:1.0 formula,attr"`
	StyleName             string `xml:"urn:oasis:names:tc:opendocument:xmlns:table:1.0 style-name,attr"`
	NumberColumnsRepeated int    `xml:"urn:oasis:names:tc:opendocument:xmlns:table:1.0 number-columns-repeated,attr"`
	ColumnsSpanned        int    `xml:"urn:oasis:names:tc:opendocument:xmlns:table:1.0 number-columns-spanned,attr"`
	RowsSpanned           int    `xml:"urn:oasis:names:tc:opendocument:xmlns:table:1.0 number-rows-spanned,attr"`
	P                     []string `xml:"urn:oasis:names:tc:opendocument:xmlns:text:1.0 p"`
}

func (c tableCellXML) text() string {
	return strings.Join(c.P, "\n")
}

type stylesSectionXML struct {
	Styles []styleXML `xml:"urn:oasis:names:tc:opendocument:xmlns:style:1.0 style"`
}

type styleXML struct {
	Name       string          `xml:"urn:oasis:names:tc:opendocument:xmlns:style:1.0 name,attr"`
	Family     string          `xml:"urn:oasis:names:tc:opendocument:xmlns:style:1.0 family,attr"`
	ColumnProp *columnPropsXML `xml:"urn:oasis:names:tc:opendocument:xmlns:style:1.0 table-column-properties"`
	RowProp    *rowPropsXML    `xml:"urn:oasis:names:tc:opendocument:xmlns:style:1.0 table-row-properties"`
	CellProp   *cellPropsXML   `xml:"urn:oasis:names:tc:opendocument:xmlns:style:1.0 table-cell-properties"`
	TextProp   *textPropsXML   `xml:"urn:oasis:names:tc:opendocument:xmlns:style:1.0 text-properties"`
}

type columnPropsXML struct {
	ColumnWidth string `xml:"urn:oasis:names:tc:opendocument:xmlns:style:1.0 column-width,attr"`
}

type rowPropsXML struct {
	RowHeight string `xml:"urn:oasis:names:tc:opendocument:xmlns:style:1.0 row-height,attr"`
}

type cellPropsXML struct {
	BackgroundColor string `xml:"urn:oasis:names:tc:opendocument:xmlns:style:1.0 background-color,attr"`
}

type textPropsXML struct {
	FontWeight string `xml:"urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0 font-weight,attr"`
	FontStyle  string `xml:"urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0 font-style,attr"`
	Color      string `xml:"urn:oasis:names:tc:opendocument:xmlns:style:1.0 color,attr"`
	FontSize   string `xml:"urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0 font-size,attr"`
}

// Parse decodes an ODF spreadsheet package.
func Parse(ctx context.Context, data []byte, opts parseopts.Options) (normalize.Raw, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return normalize.Raw{}, fmt.Errorf("ods: %w", err)
	}

	var contentData []byte
	for _, f := range zr.File {
		if f.Name == "content.xml" {
			rc, err := f.Open()
			if err != nil {
				return normalize.Raw{}, fmt.Errorf("ods: opening content.xml: %w", err)
			}
			contentData, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return normalize.Raw{}, fmt.Errorf("ods: reading content.xml: %w", err)
			}
			break
		}
	}
	if contentData == nil {
		return normalize.Raw{}, fmt.Errorf("ods: content.xml not found")
	}
	opts.Logger.Debugf("ods: opened container, %d entries, content.xml is %d bytes", len(zr.File), len(contentData))

	var doc contentXML
	if err := xml.Unmarshal(contentData, &doc); err != nil {
		return normalize.Raw{}, fmt.Errorf("ods: decoding content.xml: %w", err)
	}

	styles := indexStyles(doc.AutomaticStyles.Styles)
	opts.Logger.Debugf("ods: %d automatic styles, %d tables", len(doc.AutomaticStyles.Styles), len(doc.Body.Spreadsheet.Tables))

	raw := normalize.Raw{
		Names:             map[string]string{},
		WorksheetStyleCSS: map[string]map[string]string{},
	}

	for _, tbl := range doc.Body.Spreadsheet.Tables {
		select {
		case <-ctx.Done():
			return normalize.Raw{}, ctx.Err()
		default:
		}
		ws, cssMap, warnings := parseTable(tbl, styles)
		raw.Worksheets = append(raw.Worksheets, ws)
		raw.WorksheetStyleCSS[ws.Name] = cssMap
		raw.Warnings = append(raw.Warnings, warnings...)
	}

	return raw, nil
}

type styleInfo struct {
	columnWidthPx int
	rowHeightPx   int
	css           string
}

func indexStyles(list []styleXML) map[string]styleInfo {
	out := make(map[string]styleInfo, len(list))
	for _, s := range list {
		info := styleInfo{}
		if s.ColumnProp != nil {
			info.columnWidthPx = cmOrInToPx(s.ColumnProp.ColumnWidth)
		}
		if s.RowProp != nil {
			info.rowHeightPx = cmOrInToPx(s.RowProp.RowHeight)
		}
		info.css = cellCSS(s)
		out[s.Name] = info
	}
	return out
}

func cellCSS(s styleXML) string {
	attrs := stylecss.Attrs{}
	if s.TextProp != nil {
		attrs.Bold = s.TextProp.FontWeight == "bold"
		attrs.Italic = s.TextProp.FontStyle == "italic"
		attrs.FontColor = s.TextProp.Color
		if s.TextProp.FontSize != "" {
			if pt, err := strconv.ParseFloat(strings.TrimSuffix(s.TextProp.FontSize, "pt"), 64); err == nil {
				attrs.FontSize = pt
			}
		}
	}
	if s.CellProp != nil {
		attrs.Background = s.CellProp.BackgroundColor
	}
	return stylecss.Build(attrs)
}

// cmOrInToPx converts an ODF "2.5cm"/"1in" measurement to pixels at
// 96dpi; unrecognised units or empty strings yield 0.
func cmOrInToPx(measure string) int {
	switch {
	case strings.HasSuffix(measure, "cm"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(measure, "cm"), 64)
		if err != nil {
			return 0
		}
		return int(v / 2.54 * 96)
	case strings.HasSuffix(measure, "in"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(measure, "in"), 64)
		if err != nil {
			return 0
		}
		return int(v * 96)
	default:
		return 0
	}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseTable(tbl tableXML, styles map[string]styleInfo) (*workbook.Worksheet, map[string]string, []string) {
	var warnings []string

	// First pass: expand repeats (capped) to size the matrix.
	type expandedRow struct {
		cells     []tableCellXML
		styleName string
	}
	var rows []expandedRow
	maxCol := 0
	for _, r := range tbl.Rows {
		reps := r.NumberRowsRepeated
		if reps < 1 {
			reps = 1
		}
		if reps > maxRepeat {
			warnings = append(warnings, fmt.Sprintf("ods: sheet %q row repeated %d times, truncated to %d", tbl.Name, reps, maxRepeat))
			reps = maxRepeat
		}
		col := 0
		for _, c := range r.Cells {
			creps := c.NumberColumnsRepeated
			if creps < 1 {
				creps = 1
			}
			if creps > maxRepeat {
				warnings = append(warnings, fmt.Sprintf("ods: sheet %q cell repeated %d times, truncated to %d", tbl.Name, creps, maxRepeat))
				creps = maxRepeat
			}
			col += creps
		}
		if col > maxCol {
			maxCol = col
		}
		for i := 0; i < reps; i++ {
			rows = append(rows, expandedRow{cells: r.Cells, styleName: r.StyleName})
		}
	}

	ws := workbook.NewWorksheet(tbl.Name, len(rows), maxCol)
	cssMap := map[string]string{}

	for ri, er := range rows {
		if info, ok := styles[er.styleName]; ok {
			if info.rowHeightPx > 0 {
				ws.RowProps[ri] = workbook.Row{HeightPx: info.rowHeightPx}
			}
		}
		col := 0
		for _, c := range er.cells {
			creps := c.NumberColumnsRepeated
			if creps < 1 {
				creps = 1
			}
			if creps > maxRepeat {
				creps = maxRepeat
			}
			if c.covered {
				col += creps
				continue
			}
			val, meta := classifyCell(c)
			for k := 0; k < creps; k++ {
				if col+k >= ws.Cols {
					break
				}
				ws.Set(ri, col+k, val)
				addr := reference.CellName(col+k, ri)
				if meta != (workbook.CellMeta{}) {
					ws.Cells[addr] = meta
				}
				if info, ok := styles[c.StyleName]; ok && info.css != "" {
					cssMap[addr] = info.css
				}
			}
			if c.ColumnsSpanned > 1 || c.RowsSpanned > 1 {
				colSpan, rowSpan := c.ColumnsSpanned, c.RowsSpanned
				if colSpan < 1 {
					colSpan = 1
				}
				if rowSpan < 1 {
					rowSpan = 1
				}
				ws.MergeCells[reference.CellName(col, ri)] = workbook.MergeExtent{ColSpan: colSpan, RowSpan: rowSpan}
			}
			col += creps
		}
	}

	col := 0
	for _, colDef := range tbl.Columns {
		reps := colDef.NumberColumnsRepeated
		if reps < 1 {
			reps = 1
		}
		if reps > maxRepeat {
			warnings = append(warnings, fmt.Sprintf("ods: sheet %q column definition repeated %d times, truncated to %d", tbl.Name, reps, maxRepeat))
			reps = maxRepeat
		}
		info, ok := styles[colDef.StyleName]
		for i := 0; i < reps; i++ {
			c := col + i
			if c >= ws.Cols {
				break
			}
			if ok {
				ws.ColProps[c] = workbook.Column{WidthPx: info.columnWidthPx, Hidden: colDef.Visibility == "collapse"}
			}
		}
		col += reps
	}

	ws.ShowGrid = true
	return ws, cssMap, warnings
}

func classifyCell(c tableCellXML) (workbook.CellValue, workbook.CellMeta) {
	var meta workbook.CellMeta
	if c.Formula != "" {
		text := "=" + strings.TrimPrefix(c.Formula, "of:=")
		meta.FormulaText = text
		if n, err := strconv.ParseFloat(c.Value, 64); err == nil {
			return workbook.CellValue{Kind: workbook.KindFormula, Number: n, Text: text}, meta
		}
		return workbook.CellValue{Kind: workbook.KindFormula, Text: text}, meta
	}

	switch c.ValueType {
	case "float", "percentage", "currency":
		n, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return workbook.CellValue{Kind: workbook.KindText, Text: c.text()}, meta
		}
		if c.ValueType == "percentage" {
			meta.NumberFormat = "0%"
		}
		return workbook.CellValue{Kind: workbook.KindNumber, Number: n}, meta
	case "boolean":
		return workbook.CellValue{Kind: workbook.KindBoolean, Boolean: c.BooleanValue == "true"}, meta
	case "date":
		meta.NumberFormat = "date"
		return workbook.CellValue{Kind: workbook.KindText, Text: c.DateValue}, meta
	case "time":
		meta.NumberFormat = "time"
		return workbook.CellValue{Kind: workbook.KindText, Text: c.Value}, meta
	case "string":
		text := c.StringValue
		if text == "" {
			text = c.text()
		}
		return workbook.CellValue{Kind: workbook.KindText, Text: text}, meta
	default:
		text := c.text()
		if text == "" {
			return workbook.CellValue{Kind: workbook.KindEmpty}, meta
		}
		return workbook.CellValue{Kind: workbook.KindText, Text: text}, meta
	}
}
