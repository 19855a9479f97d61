// Package xlsx implements the OOXML SpreadsheetML driver (spec §4.1):
// archive/zip over the package parts plus encoding/xml struct-tag
// decoding of workbook.xml, the workbook relationships, sharedStrings,
// styles, and each worksheet part. Grounded on the tsawler/tabula xlsx
// reader (other_examples/dc64cb74_tsawler-tabula__xlsx-reader.go.go,
// c66ae1e5_tsawler-tabula__xlsx-types.go.go): same part-name resolution
// via workbook.xml.rels, same shared-string/style-index cell typing.
package xlsx

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
	"github.com/asportagro/gosheet/internal/numfmt"
	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/internal/stylecss"
	"github.com/asportagro/gosheet/normalize"
	"github.com/asportagro/gosheet/reference"
	"github.com/asportagro/gosheet/workbook"
)

func init() {
	dispatch.Register(dispatch.Driver{Name: "xlsx", Parse: Parse}, "xlsx", "xlsm")
}

type workbookXML struct {
	XMLName     xml.Name       `xml:"workbook"`
	Sheets      sheetsXML      `xml:"sheets"`
	DefinedName []definedNameXML `xml:"definedNames>definedName"`
}

type sheetsXML struct {
	Sheet []sheetRefXML `xml:"sheet"`
}

type sheetRefXML struct {
	Name string `xml:"name,attr"`
	RID  string `xml:"id,attr"`
}

type definedNameXML struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type worksheetXML struct {
	XMLName    xml.Name       `xml:"worksheet"`
	Cols       *colsXML       `xml:"cols"`
	SheetData  sheetDataXML   `xml:"sheetData"`
	MergeCells *mergeCellsXML `xml:"mergeCells"`
	SheetViews *sheetViewsXML `xml:"sheetViews"`
}

type colsXML struct {
	Col []colXML `xml:"col"`
}

type colXML struct {
	Min    int     `xml:"min,attr"`
	Max    int     `xml:"max,attr"`
	Width  float64 `xml:"width,attr"`
	Hidden bool    `xml:"hidden,attr"`
}

type sheetViewsXML struct {
	SheetView []sheetViewXML `xml:"sheetView"`
}

type sheetViewXML struct {
	ShowGridLines *bool   `xml:"showGridLines,attr"`
	Pane          *paneXML `xml:"pane"`
}

type paneXML struct {
	XSplit float64 `xml:"xSplit,attr"`
	YSplit float64 `xml:"ySplit,attr"`
}

type sheetDataXML struct {
	Row []rowXML `xml:"row"`
}

type rowXML struct {
	R      int       `xml:"r,attr"`
	Ht     float64   `xml:"ht,attr"`
	Hidden bool      `xml:"hidden,attr"`
	Cell   []cellXML `xml:"c"`
}

type cellXML struct {
	R  string        `xml:"r,attr"`
	T  string        `xml:"t,attr"`
	S  int           `xml:"s,attr"`
	V  string        `xml:"v"`
	F  string        `xml:"f"`
	Is *inlineStrXML `xml:"is"`
}

type inlineStrXML struct {
	T string `xml:"t"`
}

type mergeCellsXML struct {
	MergeCell []mergeCellXML `xml:"mergeCell"`
}

type mergeCellXML struct {
	Ref string `xml:"ref,attr"`
}

type sharedStringsXML struct {
	XMLName xml.Name `xml:"sst"`
	SI      []siXML  `xml:"si"`
}

type siXML struct {
	T string  `xml:"t"`
	R []rXML  `xml:"r"`
}

type rXML struct {
	T string `xml:"t"`
}

type stylesXML struct {
	XMLName xml.Name    `xml:"styleSheet"`
	NumFmts *numFmtsXML `xml:"numFmts"`
	Fonts   *fontsXML   `xml:"fonts"`
	CellXfs *cellXfsXML `xml:"cellXfs"`
}

type numFmtsXML struct {
	NumFmt []numFmtXML `xml:"numFmt"`
}

type numFmtXML struct {
	NumFmtID   int    `xml:"numFmtId,attr"`
	FormatCode string `xml:"formatCode,attr"`
}

type fontsXML struct {
	Font []fontXML `xml:"font"`
}

type fontXML struct {
	Bold      *struct{}   `xml:"b"`
	Italic    *struct{}   `xml:"i"`
	Underline *struct{}   `xml:"u"`
	Sz        *floatAttr  `xml:"sz"`
	Name      *valAttr    `xml:"name"`
	Color     *colorAttr  `xml:"color"`
}

type floatAttr struct {
	Val float64 `xml:"val,attr"`
}

type valAttr struct {
	Val string `xml:"val,attr"`
}

type colorAttr struct {
	RGB string `xml:"rgb,attr"`
}

type cellXfsXML struct {
	Xf []xfXML `xml:"xf"`
}

type xfXML struct {
	NumFmtID   int  `xml:"numFmtId,attr"`
	FontID     int  `xml:"fontId,attr"`
	ApplyAlign bool `xml:"applyAlignment,attr"`
	Alignment  *alignmentXML `xml:"alignment"`
}

type alignmentXML struct {
	Horizontal string `xml:"horizontal,attr"`
	WrapText   bool   `xml:"wrapText,attr"`
}

type relationshipsXML struct {
	XMLName      xml.Name          `xml:"Relationships"`
	Relationship []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
}

// Parse decodes an OOXML package.
func Parse(ctx context.Context, data []byte, opts parseopts.Options) (normalize.Raw, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return normalize.Raw{}, fmt.Errorf("xlsx: %w", err)
	}
	parts := indexParts(zr)

	wbData, ok := parts["xl/workbook.xml"]
	if !ok {
		return normalize.Raw{}, fmt.Errorf("xlsx: missing xl/workbook.xml")
	}
	var wb workbookXML
	if err := xml.Unmarshal(wbData, &wb); err != nil {
		return normalize.Raw{}, fmt.Errorf("xlsx: decoding workbook.xml: %w", err)
	}

	rels := map[string]string{}
	if relData, ok := parts["xl/_rels/workbook.xml.rels"]; ok {
		var rs relationshipsXML
		if xml.Unmarshal(relData, &rs) == nil {
			for _, rel := range rs.Relationship {
				rels[rel.ID] = rel.Target
			}
		}
	}

	sharedStrings := parseSharedStrings(parts["xl/sharedStrings.xml"])
	styles := parseStyles(parts["xl/styles.xml"])

	raw := normalize.Raw{
		Names:             map[string]string{},
		WorksheetStyleCSS: map[string]map[string]string{},
	}
	for _, dn := range wb.DefinedName {
		raw.Names[dn.Name] = strings.TrimSpace(dn.Value)
	}

	for i, sheetRef := range wb.Sheets.Sheet {
		select {
		case <-ctx.Done():
			return normalize.Raw{}, ctx.Err()
		default:
		}
		target := rels[sheetRef.RID]
		if target == "" {
			target = fmt.Sprintf("worksheets/sheet%d.xml", i+1)
		}
		target = normalizePartPath(target)

		sheetData, ok := parts[target]
		if !ok {
			raw.Warnings = append(raw.Warnings, fmt.Sprintf("xlsx: sheet %q part %q not found, skipped", sheetRef.Name, target))
			continue
		}
		ws, cssMap, err := parseSheet(sheetData, sheetRef.Name, sharedStrings, styles)
		if err != nil {
			raw.Warnings = append(raw.Warnings, fmt.Sprintf("xlsx: sheet %q: %v", sheetRef.Name, err))
			continue
		}
		raw.Worksheets = append(raw.Worksheets, ws)
		raw.WorksheetStyleCSS[ws.Name] = cssMap
	}

	return raw, nil
}

func indexParts(zr *zip.Reader) map[string][]byte {
	parts := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			continue
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		parts[f.Name] = b
	}
	return parts
}

func normalizePartPath(target string) string {
	target = strings.TrimPrefix(target, "/")
	if !strings.HasPrefix(target, "xl/") {
		target = "xl/" + target
	}
	return target
}

func parseSharedStrings(data []byte) []string {
	if data == nil {
		return nil
	}
	var sst sharedStringsXML
	if xml.Unmarshal(data, &sst) != nil {
		return nil
	}
	out := make([]string, len(sst.SI))
	for i, si := range sst.SI {
		if si.T != "" {
			out[i] = si.T
			continue
		}
		var b strings.Builder
		for _, run := range si.R {
			b.WriteString(run.T)
		}
		out[i] = b.String()
	}
	return out
}

type styleTable struct {
	numFmtCodes map[int]string
	fonts       []fontXML
	xfs         []xfXML
}

func parseStyles(data []byte) styleTable {
	st := styleTable{numFmtCodes: map[int]string{}}
	if data == nil {
		return st
	}
	var sx stylesXML
	if xml.Unmarshal(data, &sx) != nil {
		return st
	}
	if sx.NumFmts != nil {
		for _, nf := range sx.NumFmts.NumFmt {
			st.numFmtCodes[nf.NumFmtID] = nf.FormatCode
		}
	}
	if sx.Fonts != nil {
		st.fonts = sx.Fonts.Font
	}
	if sx.CellXfs != nil {
		st.xfs = sx.CellXfs.Xf
	}
	return st
}

func parseSheet(data []byte, name string, sharedStrings []string, styles styleTable) (*workbook.Worksheet, map[string]string, error) {
	var wsx worksheetXML
	if err := xml.Unmarshal(data, &wsx); err != nil {
		return nil, nil, err
	}

	maxRow, maxCol := 0, 0
	for _, row := range wsx.SheetData.Row {
		if row.R > maxRow {
			maxRow = row.R
		}
		for _, c := range row.Cell {
			coords, err := reference.CoordsFromCellName(c.R)
			if err != nil || coords.Col == nil {
				continue
			}
			if *coords.Col > maxCol {
				maxCol = *coords.Col
			}
		}
	}

	ws := workbook.NewWorksheet(name, maxRow, maxCol+1)
	cssMap := map[string]string{}

	for _, row := range wsx.SheetData.Row {
		r := row.R - 1
		if r < 0 {
			continue
		}
		if row.Ht > 0 || row.Hidden {
			ws.RowProps[r] = workbook.Row{HeightPx: int(row.Ht * 96 / 72), Hidden: row.Hidden}
		}
		for _, c := range row.Cell {
			coords, err := reference.CoordsFromCellName(c.R)
			if err != nil || coords.Col == nil || coords.Row == nil {
				continue
			}
			col := *coords.Col
			val, meta := classifyCell(c, sharedStrings, styles)
			ws.Set(r, col, val)
			if meta != (workbook.CellMeta{}) {
				ws.Cells[reference.CellName(col, r)] = meta
			}
			if css := cellCSS(c.S, styles); css != "" {
				cssMap[reference.CellName(col, r)] = css
			}
		}
	}

	if wsx.Cols != nil {
		for _, col := range wsx.Cols.Col {
			for c := col.Min - 1; c <= col.Max-1 && c >= 0; c++ {
				ws.ColProps[c] = workbook.Column{WidthPx: int(col.Width * 7), Hidden: col.Hidden}
			}
		}
	}
	if wsx.MergeCells != nil {
		for _, mc := range wsx.MergeCells.MergeCell {
			rng, err := reference.CoordsFromRange(mc.Ref, false, 0, 0)
			if err != nil {
				continue
			}
			addr := reference.CellName(rng.C1, rng.R1)
			ws.MergeCells[addr] = workbook.MergeExtent{
				ColSpan: rng.C2 - rng.C1 + 1,
				RowSpan: rng.R2 - rng.R1 + 1,
			}
		}
	}
	ws.ShowGrid = true
	if wsx.SheetViews != nil && len(wsx.SheetViews.SheetView) > 0 {
		sv := wsx.SheetViews.SheetView[0]
		if sv.ShowGridLines != nil {
			ws.ShowGrid = *sv.ShowGridLines
		}
		if sv.Pane != nil {
			ws.FrozenCols = int(sv.Pane.XSplit)
			ws.FrozenRows = int(sv.Pane.YSplit)
		}
	}

	return ws, cssMap, nil
}

func classifyCell(c cellXML, sharedStrings []string, styles styleTable) (workbook.CellValue, workbook.CellMeta) {
	meta := cellMeta(c.S, styles)
	if c.F != "" {
		meta.FormulaText = "=" + c.F
		if c.T == "str" {
			return workbook.CellValue{Kind: workbook.KindFormula, Text: "=" + c.F}, meta
		}
		if n, err := strconv.ParseFloat(c.V, 64); err == nil {
			return workbook.CellValue{Kind: workbook.KindFormula, Number: n, Text: "=" + c.F}, meta
		}
		return workbook.CellValue{Kind: workbook.KindFormula, Text: "=" + c.F}, meta
	}

	switch c.T {
	case "s":
		idx, err := strconv.Atoi(c.V)
		if err != nil || idx < 0 || idx >= len(sharedStrings) {
			return workbook.CellValue{Kind: workbook.KindText, Text: ""}, meta
		}
		return workbook.CellValue{Kind: workbook.KindText, Text: sharedStrings[idx]}, meta
	case "str", "inlineStr":
		text := c.V
		if c.Is != nil {
			text = c.Is.T
		}
		return workbook.CellValue{Kind: workbook.KindText, Text: text}, meta
	case "b":
		return workbook.CellValue{Kind: workbook.KindBoolean, Boolean: c.V == "1"}, meta
	case "e":
		return workbook.CellValue{Kind: workbook.KindError, Text: c.V}, meta
	default:
		if c.V == "" {
			return workbook.CellValue{Kind: workbook.KindEmpty}, meta
		}
		n, err := strconv.ParseFloat(c.V, 64)
		if err != nil {
			return workbook.CellValue{Kind: workbook.KindText, Text: c.V}, meta
		}
		return workbook.CellValue{Kind: workbook.KindNumber, Number: n}, meta
	}
}

func cellMeta(styleIdx int, styles styleTable) workbook.CellMeta {
	var meta workbook.CellMeta
	if styleIdx < 0 || styleIdx >= len(styles.xfs) {
		return meta
	}
	xf := styles.xfs[styleIdx]
	code := styles.numFmtCodes[xf.NumFmtID]
	mask := numfmt.Resolve(xf.NumFmtID, code)
	if mask != "General" {
		meta.NumberFormat = mask
	}
	if xf.Alignment != nil {
		meta.Wrap = xf.Alignment.WrapText
		switch xf.Alignment.Horizontal {
		case "left":
			meta.Align = workbook.AlignLeft
		case "center", "centerContinuous":
			meta.Align = workbook.AlignCenter
		case "right":
			meta.Align = workbook.AlignRight
		case "fill":
			meta.Align = workbook.AlignFill
		case "justify":
			meta.Align = workbook.AlignJustify
		}
	}
	return meta
}

func cellCSS(styleIdx int, styles styleTable) string {
	if styleIdx < 0 || styleIdx >= len(styles.xfs) {
		return ""
	}
	xf := styles.xfs[styleIdx]
	if xf.FontID < 0 || xf.FontID >= len(styles.fonts) {
		return ""
	}
	f := styles.fonts[xf.FontID]
	attrs := stylecss.Attrs{
		Bold:      f.Bold != nil,
		Italic:    f.Italic != nil,
		Underline: f.Underline != nil,
	}
	if f.Sz != nil {
		attrs.FontSize = f.Sz.Val
	}
	if f.Name != nil {
		attrs.FontName = f.Name.Val
	}
	if f.Color != nil && f.Color.RGB != "" {
		attrs.FontColor = "#" + strings.TrimPrefix(f.Color.RGB, "FF")
	}
	return stylecss.Build(attrs)
}
