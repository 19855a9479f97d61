// Package xls implements the legacy Excel BIFF8/CFB driver (spec
// §4.2): opens the OLE2 container via cfb, locates the Workbook
// stream, and walks its global records (fonts, formats, XFs, SST,
// BOUNDSHEET, NAME) before walking each worksheet substream embedded
// at its BOUNDSHEET-declared offset. This is the direct descendant of
// the teacher's book.go (parseGlobals/handleBoundsheet/handleName),
// rebuilt on top of the standalone cfb/biff/ptg packages instead of
// the teacher's single monolithic Book type.
package xls

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/asportagro/gosheet/biff"
	"github.com/asportagro/gosheet/cfb"
	"github.com/asportagro/gosheet/dispatch"
	"github.com/asportagro/gosheet/internal/numfmt"
	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/internal/stylecss"
	"github.com/asportagro/gosheet/internal/textenc"
	"github.com/asportagro/gosheet/normalize"
	"github.com/asportagro/gosheet/ptg"
	"github.com/asportagro/gosheet/reference"
	"github.com/asportagro/gosheet/workbook"
)

func init() {
	dispatch.Register(dispatch.Driver{Name: "xls", Parse: Parse}, "xls", "xlw", "xlt")
}

// BOUNDSHEET sheet-type byte (spec §4.2); only worksheet-type entries
// carry tabular data the rest of this module can represent.
const boundsheetWorksheet = 0x00

type boundSheet struct {
	name       string
	offset     int
	visibility byte
}

// globals holds everything decoded from the Workbook stream's global
// substream, needed before any worksheet substream can be decoded.
type globals struct {
	fonts      []biff.Font
	formats    map[int]string
	xfs        []biff.XF
	sst        biff.SST
	sheets     []boundSheet
	names      map[string]string
	styleCache map[int]int // XF index -> interned style table index, filled lazily per workbook
}

// Parse reads an XLS/XLW/XLT OLE2 compound file.
func Parse(ctx context.Context, data []byte, opts parseopts.Options) (normalize.Raw, error) {
	container, err := cfb.Open(data)
	if err != nil {
		return normalize.Raw{}, fmt.Errorf("xls: %w", err)
	}

	wbBytes, err := workbookStream(container)
	if err != nil {
		return normalize.Raw{}, err
	}

	g, err := parseGlobals(wbBytes, opts)
	if err != nil {
		return normalize.Raw{}, err
	}

	raw := normalize.Raw{
		Names:             g.names,
		WorksheetStyleCSS: map[string]map[string]string{},
	}

	for _, sh := range g.sheets {
		select {
		case <-ctx.Done():
			return normalize.Raw{}, ctx.Err()
		default:
		}
		if sh.offset < 0 || sh.offset >= len(wbBytes) {
			raw.Warnings = append(raw.Warnings, fmt.Sprintf("xls: sheet %q offset out of range, skipped", sh.name))
			continue
		}
		ws, cssMap, warn := parseSheet(wbBytes[sh.offset:], sh, g, opts)
		if warn != "" {
			raw.Warnings = append(raw.Warnings, warn)
		}
		raw.Worksheets = append(raw.Worksheets, ws)
		raw.WorksheetStyleCSS[ws.Name] = cssMap
	}

	return raw, nil
}

// workbookStream returns the bytes of the "Workbook" stream, falling
// back to the older "Book" name BIFF4-era files use.
func workbookStream(r *cfb.Reader) ([]byte, error) {
	for _, name := range []string{"Workbook", "Book"} {
		if b, err := r.Stream(name); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("xls: no Workbook/Book stream in container")
}

// parseGlobals walks the global substream: BOF at offset 0 through the
// matching EOF, collecting every table a worksheet substream depends
// on to decode its own records.
func parseGlobals(wbBytes []byte, opts parseopts.Options) (*globals, error) {
	g := &globals{formats: map[int]string{}, names: map[string]string{}}
	r := biff.NewReader(wbBytes)

	for {
		rec, ok, err := r.Next()
		if err != nil {
			break // truncated globals: proceed with whatever was collected (spec §7)
		}
		if !ok {
			break
		}
		switch rec.Type {
		case biff.RecEOF:
			return g, nil
		case biff.RecFont:
			f, err := biff.ParseFont(rec.Data)
			if err == nil {
				g.fonts = append(g.fonts, f)
			}
		case biff.RecFormat:
			f, err := biff.ParseFormat(rec.Data)
			if err == nil {
				g.formats[f.Index] = f.Code
			}
		case biff.RecXF:
			x, err := biff.ParseXF(rec.Data)
			if err == nil {
				g.xfs = append(g.xfs, x)
			}
		case biff.RecSST:
			sst, err := biff.ParseSST(rec.Data)
			if err == nil {
				g.sst = sst
			}
		case biff.RecBoundSheet:
			sh, err := parseBoundSheet(rec.Data, opts.Encoding)
			if err == nil && sh.name != "" {
				g.sheets = append(g.sheets, sh)
			}
		case biff.RecName:
			name, ref := parseName(rec.Data)
			if name != "" {
				g.names[name] = ref
			}
		}
	}
	return g, nil
}

// parseBoundSheet decodes a BOUNDSHEET record: 4-byte stream offset of
// the worksheet's own BOF (relative to the Workbook stream start),
// visibility byte, sheet-type byte, then a byte-count-prefixed name
// (spec §4.2).
func parseBoundSheet(data []byte, encodingHint string) (boundSheet, error) {
	if len(data) < 8 {
		return boundSheet{}, fmt.Errorf("xls: BOUNDSHEET record too short")
	}
	offset := int(int32(binary.LittleEndian.Uint32(data[0:4])))
	visibility := data[4]
	sheetType := data[5]
	if sheetType != boundsheetWorksheet {
		return boundSheet{}, nil
	}

	nameLen := int(data[6])
	flags := data[7]
	pos := 8
	var name string
	if flags&0x01 != 0 {
		// Double-byte (UTF-16LE) name.
		need := nameLen * 2
		if pos+need > len(data) {
			return boundSheet{}, fmt.Errorf("xls: BOUNDSHEET name truncated")
		}
		u16 := make([]uint16, nameLen)
		for i := 0; i < nameLen; i++ {
			u16[i] = binary.LittleEndian.Uint16(data[pos+i*2:])
		}
		name = string(utf16DecodeSimple(u16))
	} else {
		if pos+nameLen > len(data) {
			return boundSheet{}, fmt.Errorf("xls: BOUNDSHEET name truncated")
		}
		name = textenc.Decode(data[pos:pos+nameLen], encodingHint)
	}

	return boundSheet{name: name, offset: offset, visibility: visibility}, nil
}

func utf16DecodeSimple(u []uint16) []rune {
	out := make([]rune, 0, len(u))
	for i := 0; i < len(u); i++ {
		r := rune(u[i])
		if r >= 0xD800 && r <= 0xDBFF && i+1 < len(u) {
			r2 := rune(u[i+1])
			if r2 >= 0xDC00 && r2 <= 0xDFFF {
				out = append(out, ((r-0xD800)<<10|(r2-0xDC00))+0x10000)
				i++
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// parseName decodes a NAME record's defined-name text and, best
// effort, its reference expression. The formula token stream is
// decoded with an empty CellContext; on any failure the reference is
// left blank rather than failing the whole parse (spec §7), matching
// the teacher's own handleName, which likewise treats name decoding as
// lossy and never propagates a decode error upward.
func parseName(data []byte) (name, ref string) {
	if len(data) < 14 {
		return "", ""
	}
	nameLen := int(data[3])
	formulaLen := int(binary.LittleEndian.Uint16(data[4:6]))
	pos := 14
	if pos+nameLen > len(data) {
		return "", ""
	}
	name = string(data[pos : pos+nameLen])
	pos += nameLen
	if pos+formulaLen > len(data) || formulaLen == 0 {
		return name, ""
	}
	tokens := data[pos : pos+formulaLen]
	text, err := ptg.Decode(tokens, ptg.CellContext{})
	if err != nil {
		return name, ""
	}
	return name, text
}

// parseSheet decodes one worksheet substream (already sliced to start
// at its own BOF record): presentation records (ROW, COLINFO,
// MERGECELLS, WINDOW2, PANE) in one pass, then cell records via
// biff.ParseCellRecords in a second pass over a fresh Reader, since
// biff.Reader carries no rewind.
func parseSheet(sub []byte, sh boundSheet, g *globals, opts parseopts.Options) (*workbook.Worksheet, map[string]string, string) {
	pres := scanPresentation(sub)

	cellReader := biff.NewReader(sub)
	cells, err := biff.ParseCellRecords(cellReader, g.sst)
	var warn string
	if err != nil {
		warn = fmt.Sprintf("xls: sheet %q cell records truncated: %v", sh.name, err)
	}

	groups := scanSharedFormulaGroups(sub)

	maxRow, maxCol := 0, 0
	for _, c := range cells {
		if c.Row > maxRow {
			maxRow = c.Row
		}
		if c.Col > maxCol {
			maxCol = c.Col
		}
	}
	for r := range pres.rows {
		if r > maxRow {
			maxRow = r
		}
	}

	ws := workbook.NewWorksheet(sh.name, maxRow+1, maxCol+1)
	cssMap := map[string]string{}

	for _, c := range cells {
		addr := reference.CellName(c.Col, c.Row)
		val, meta := cellToValue(c, g, &groups)
		ws.Set(c.Row, c.Col, val)
		if meta != (workbook.CellMeta{}) {
			ws.Cells[addr] = meta
		}
		if css := xfToCSS(c.XFIndex, g); css != "" {
			cssMap[addr] = css
		}
	}

	for addr, ext := range pres.merges {
		ws.MergeCells[addr] = ext
	}
	for r, row := range pres.rows {
		ws.RowProps[r] = row
	}
	for c, col := range pres.cols {
		ws.ColProps[c] = col
	}
	ws.FrozenRows = pres.frozenRows
	ws.FrozenCols = pres.frozenCols
	ws.ShowGrid = pres.showGrid
	switch sh.visibility {
	case 1:
		ws.Visibility = workbook.VisibilityHidden
	case 2:
		ws.Visibility = workbook.VisibilityVeryHidden
	}

	return ws, cssMap, warn
}

type presentation struct {
	rows       map[int]workbook.Row
	cols       map[int]workbook.Column
	merges     map[string]workbook.MergeExtent
	frozenRows int
	frozenCols int
	showGrid   bool
}

// scanPresentation makes an independent pass over the worksheet
// substream collecting ROW/COLINFO/MERGECELLS/WINDOW2/PANE records,
// which biff.ParseCellRecords does not surface since it is scoped to
// cell-bearing records only.
func scanPresentation(sub []byte) presentation {
	p := presentation{
		rows:     map[int]workbook.Row{},
		cols:     map[int]workbook.Column{},
		merges:   map[string]workbook.MergeExtent{},
		showGrid: true,
	}
	r := biff.NewReader(sub)
	for {
		rec, ok, err := r.Next()
		if err != nil || !ok {
			break
		}
		switch rec.Type {
		case biff.RecEOF:
			return p
		case biff.RecRow:
			if len(rec.Data) < 16 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(rec.Data[0:2]))
			heightWord := binary.LittleEndian.Uint16(rec.Data[6:8])
			grbit := binary.LittleEndian.Uint16(rec.Data[12:14])
			p.rows[row] = workbook.Row{
				HeightPx: twipsToPx(int(heightWord & 0x7FFF)),
				Hidden:   grbit&0x20 != 0,
			}
		case biff.RecColInfo:
			if len(rec.Data) < 10 {
				continue
			}
			first := int(binary.LittleEndian.Uint16(rec.Data[0:2]))
			last := int(binary.LittleEndian.Uint16(rec.Data[2:4]))
			width := int(binary.LittleEndian.Uint16(rec.Data[4:6]))
			grbit := binary.LittleEndian.Uint16(rec.Data[8:10])
			for c := first; c <= last; c++ {
				p.cols[c] = workbook.Column{
					WidthPx: charWidthUnitsToPx(width),
					Hidden:  grbit&0x01 != 0,
				}
			}
		case biff.RecMergeCells:
			if len(rec.Data) < 2 {
				continue
			}
			count := int(binary.LittleEndian.Uint16(rec.Data[0:2]))
			pos := 2
			for i := 0; i < count && pos+8 <= len(rec.Data); i++ {
				rFirst := int(binary.LittleEndian.Uint16(rec.Data[pos : pos+2]))
				rLast := int(binary.LittleEndian.Uint16(rec.Data[pos+2 : pos+4]))
				cFirst := int(binary.LittleEndian.Uint16(rec.Data[pos+4 : pos+6]))
				cLast := int(binary.LittleEndian.Uint16(rec.Data[pos+6 : pos+8]))
				addr := reference.CellName(cFirst, rFirst)
				p.merges[addr] = workbook.MergeExtent{ColSpan: cLast - cFirst + 1, RowSpan: rLast - rFirst + 1}
				pos += 8
			}
		case biff.RecWindow2:
			if len(rec.Data) < 2 {
				continue
			}
			grbit := binary.LittleEndian.Uint16(rec.Data[0:2])
			p.showGrid = grbit&0x02 != 0
		case biff.RecPane:
			if len(rec.Data) < 4 {
				continue
			}
			p.frozenCols = int(binary.LittleEndian.Uint16(rec.Data[0:2]))
			p.frozenRows = int(binary.LittleEndian.Uint16(rec.Data[2:4]))
		}
	}
	return p
}

// scanSharedFormulaGroups makes a third pass collecting SHRFMLA group
// definitions, in record order, so cellToValue can match a
// shared-member FORMULA record by containment (spec §4.5.4).
func scanSharedFormulaGroups(sub []byte) []biff.SharedFormulaGroup {
	var groups []biff.SharedFormulaGroup
	r := biff.NewReader(sub)
	for {
		rec, ok, err := r.Next()
		if err != nil || !ok {
			break
		}
		if rec.Type == biff.RecEOF {
			break
		}
		if rec.Type == biff.RecShrFmla {
			if g, err := biff.ParseSharedFormulaGroup(rec.Data); err == nil {
				groups = append(groups, g)
			}
		}
	}
	return groups
}

func cellToValue(c biff.Cell, g *globals, groups *[]biff.SharedFormulaGroup) (workbook.CellValue, workbook.CellMeta) {
	meta := workbook.CellMeta{}
	if fmtCode, align, wrap := xfPresentation(c.XFIndex, g); fmtCode != "" || wrap || align != workbook.AlignDefault {
		meta.NumberFormat = fmtCode
		meta.Align = align
		meta.Wrap = wrap
	}

	switch c.Kind {
	case biff.CellBlank:
		return workbook.CellValue{Kind: workbook.KindEmpty}, meta
	case biff.CellNumber:
		return workbook.CellValue{Kind: workbook.KindNumber, Number: c.Number}, meta
	case biff.CellString:
		return workbook.CellValue{Kind: workbook.KindText, Text: c.Text}, meta
	case biff.CellBool:
		return workbook.CellValue{Kind: workbook.KindBoolean, Boolean: c.Bool}, meta
	case biff.CellError:
		return workbook.CellValue{Kind: workbook.KindError, Text: errorCodeText(c.ErrCode)}, meta
	case biff.CellFormula:
		var group *biff.SharedFormulaGroup
		if c.Shared {
			for i := range *groups {
				if (*groups)[i].Contains(c.Row, c.Col) {
					group = &(*groups)[i]
					break
				}
			}
		}
		text, err := biff.ResolveFormula(c, group)
		if err != nil {
			text = "" // decode failure: fall back to the cached literal result only (spec §7)
		} else {
			meta.FormulaText = "=" + text
		}
		switch c.ResultKind {
		case biff.CellString:
			return workbook.CellValue{Kind: workbook.KindFormula, Text: meta.FormulaText}, meta
		case biff.CellBool:
			return workbook.CellValue{Kind: workbook.KindFormula, Text: meta.FormulaText}, meta
		case biff.CellError:
			return workbook.CellValue{Kind: workbook.KindFormula, Text: meta.FormulaText}, meta
		default:
			v := workbook.CellValue{Kind: workbook.KindFormula, Number: c.Number, Text: meta.FormulaText}
			return v, meta
		}
	}
	return workbook.CellValue{Kind: workbook.KindEmpty}, meta
}

func errorCodeText(code byte) string {
	switch code {
	case 0x00:
		return "#NULL!"
	case 0x07:
		return "#DIV/0!"
	case 0x0F:
		return "#VALUE!"
	case 0x17:
		return "#REF!"
	case 0x1D:
		return "#NAME?"
	case 0x24:
		return "#NUM!"
	case 0x2A:
		return "#N/A"
	default:
		return "#ERR!"
	}
}

// xfPresentation resolves an XF index to its number-format mask text,
// horizontal alignment, and wrap flag.
func xfPresentation(xfIndex int, g *globals) (numFmt string, align workbook.Alignment, wrap bool) {
	if xfIndex < 0 || xfIndex >= len(g.xfs) {
		return "", workbook.AlignDefault, false
	}
	xf := g.xfs[xfIndex]
	code := g.formats[xf.FormatIndex]
	numFmt = numfmt.Resolve(xf.FormatIndex, code)
	if numFmt == "General" {
		numFmt = ""
	}
	switch xf.Alignment & 0x07 {
	case 1:
		align = workbook.AlignLeft
	case 2:
		align = workbook.AlignCenter
	case 3:
		align = workbook.AlignRight
	case 4:
		align = workbook.AlignFill
	case 5:
		align = workbook.AlignJustify
	default:
		align = workbook.AlignDefault
	}
	wrap = xf.Alignment&0x08 != 0
	return numFmt, align, wrap
}

// xfToCSS builds the interned CSS-style string for a cell's XF:
// font italic/underline/size/name/color from the XF's font index (bold
// is not derived from the font weight), borders from the XF's border
// nibbles, via internal/stylecss.
func xfToCSS(xfIndex int, g *globals) string {
	if xfIndex < 0 || xfIndex >= len(g.xfs) {
		return ""
	}
	xf := g.xfs[xfIndex]
	attrs := stylecss.Attrs{}
	if xf.FontIndex >= 0 && xf.FontIndex < len(g.fonts) {
		f := g.fonts[xf.FontIndex]
		attrs.Italic = f.Italic
		attrs.Underline = f.Underline != 0
		attrs.FontSize = float64(f.HeightTwips) / 20
		attrs.FontName = f.Name
		attrs.FontColor = stylecss.ResolveColor(int(f.Color))
	}
	attrs.Top = stylecss.BorderSide{Style: stylecss.BorderLineStyle(int(xf.Borders[0]))}
	attrs.Left = stylecss.BorderSide{Style: stylecss.BorderLineStyle(int(xf.Borders[1]))}
	attrs.Bottom = stylecss.BorderSide{Style: stylecss.BorderLineStyle(int(xf.Borders[2]))}
	attrs.Right = stylecss.BorderSide{Style: stylecss.BorderLineStyle(int(xf.Borders[3]))}
	return stylecss.Build(attrs)
}

func twipsToPx(twips int) int {
	if twips <= 0 {
		return 0
	}
	return twips * 96 / 1440
}

func charWidthUnitsToPx(units int) int {
	if units <= 0 {
		return 0
	}
	// Column width is stored in 1/256ths of the default font's '0'
	// character width; ~7px per character is the common Excel default.
	return units * 7 / 256
}
