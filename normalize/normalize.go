// Package normalize implements the format-agnostic finishing stage
// (spec §4.7) every driver's raw workbook passes through before it is
// handed back to the caller: style interning, border deduplication,
// address canonicalisation, validation unification, and minDimensions
// computation.
//
// It is grounded on the style-table/border logic this module's
// BIFF12-style reference reader keeps in its styles/stylesheet
// packages, adapted here to operate on the already-format-agnostic
// workbook.Workbook rather than on BIFF records directly.
package normalize

import (
	"sort"

	"github.com/asportagro/gosheet/reference"
	"github.com/asportagro/gosheet/workbook"
)

// Raw is what a format driver hands to Run: one or more worksheets
// whose Styles maps still hold raw CSS strings instead of table
// indices, plus loose per-worksheet validations the driver has not
// yet sheet-qualified.
type Raw struct {
	Worksheets         []*workbook.Worksheet
	WorksheetStyleCSS  map[string]map[string]string // worksheet name -> address -> css string
	WorksheetValidations map[string][]workbook.Validation
	Names              map[string]string

	// Warnings carries non-fatal degradations a driver wants surfaced
	// on the resulting Workbook (spec §7): an unrecognised record, a
	// speculative extraction, a shared-formula fallback.
	Warnings []string
}

// Run produces the canonical workbook.Workbook: interned style table,
// deduplicated borders, canonical addresses, unified validations, and
// minDimensions-sized matrices (spec §4.7).
func Run(raw Raw) *workbook.Workbook {
	wb := &workbook.Workbook{
		Names:    raw.Names,
		Warnings: raw.Warnings,
	}
	if wb.Names == nil {
		wb.Names = make(map[string]string)
	}

	internTable, assign := newStyleInterner()

	for _, ws := range raw.Worksheets {
		canonicalizeAddresses(ws)
		cssMap := raw.WorksheetStyleCSS[ws.Name]
		dedupeBorders(ws, cssMap)
		ws.Styles = assign(cssMap)
		applyMinDimensions(ws)
		wb.Worksheets = append(wb.Worksheets, ws)

		for _, v := range raw.WorksheetValidations[ws.Name] {
			wb.Validations = append(wb.Validations, qualifyValidation(v, ws.Name))
		}
	}

	wb.StyleTable = internTable.strings
	return wb
}

// styleInterner builds the workbook-global style-string vector (spec
// §4.7 "Style interning"): identical CSS strings share one index,
// assigned in first-seen order so index assignment is stable within
// one parse, as the spec's ordering guarantee requires.
type styleInterner struct {
	index   map[string]int
	strings []string
}

func newStyleInterner() (*styleInterner, func(map[string]string) map[string]int) {
	si := &styleInterner{index: make(map[string]int)}
	assign := func(cssByAddr map[string]string) map[string]int {
		out := make(map[string]int, len(cssByAddr))
		addrs := make([]string, 0, len(cssByAddr))
		for addr := range cssByAddr {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)
		for _, addr := range addrs {
			out[addr] = si.intern(cssByAddr[addr])
		}
		return out
	}
	return si, assign
}

func (si *styleInterner) intern(css string) int {
	if idx, ok := si.index[css]; ok {
		return idx
	}
	idx := len(si.strings)
	si.index[css] = idx
	si.strings = append(si.strings, css)
	return idx
}

// canonicalizeAddresses rewrites every address-keyed map's keys to
// bare A1 form (no `$`), per spec §4.7's cell-address canonicalisation
// rule. Validations and named ranges are explicitly exempted by the
// spec and are not touched here.
func canonicalizeAddresses(ws *workbook.Worksheet) {
	ws.Cells = canonicalizeMetaMap(ws.Cells)
	ws.MergeCells = canonicalizeMergeMap(ws.MergeCells)
	ws.Comments = canonicalizeTextMap(ws.Comments)
}

func canonicalizeMetaMap(m map[string]workbook.CellMeta) map[string]workbook.CellMeta {
	out := make(map[string]workbook.CellMeta, len(m))
	for addr, v := range m {
		out[canonicalAddress(addr)] = v
	}
	return out
}

func canonicalizeMergeMap(m map[string]workbook.MergeExtent) map[string]workbook.MergeExtent {
	out := make(map[string]workbook.MergeExtent, len(m))
	for addr, v := range m {
		out[canonicalAddress(addr)] = v
	}
	return out
}

func canonicalizeTextMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for addr, v := range m {
		out[canonicalAddress(addr)] = v
	}
	return out
}

func canonicalAddress(addr string) string {
	coords, err := reference.CoordsFromCellName(addr)
	if err != nil || coords.Col == nil || coords.Row == nil {
		return addr
	}
	return reference.CellName(*coords.Col, *coords.Row)
}

// qualifyValidation prefixes an unqualified range with its owning
// worksheet's name (spec §4.7 "Validation unification").
func qualifyValidation(v workbook.Validation, sheetName string) workbook.Validation {
	for i := 0; i < len(v.Range); i++ {
		if v.Range[i] == '!' {
			return v // already sheet-qualified
		}
	}
	v.Range = sheetName + "!" + v.Range
	return v
}

// applyMinDimensions ensures the worksheet's matrix covers both every
// written cell and the bottom-right of every merge (spec §4.7). Drivers
// size the matrix up front via workbook.NewWorksheet, so written cells
// are already covered; when a merge reaches past Rows/Cols, Data is
// reallocated at the larger size and Rows/Cols are updated to match.
func applyMinDimensions(ws *workbook.Worksheet) {
	maxRow, maxCol := ws.Rows-1, ws.Cols-1
	for addr, ext := range ws.MergeCells {
		coords, err := reference.CoordsFromCellName(addr)
		if err != nil || coords.Col == nil || coords.Row == nil {
			continue
		}
		if r := *coords.Row + ext.RowSpan - 1; r > maxRow {
			maxRow = r
		}
		if c := *coords.Col + ext.ColSpan - 1; c > maxCol {
			maxCol = c
		}
	}
	if maxRow+1 <= ws.Rows && maxCol+1 <= ws.Cols {
		return
	}
	grown := workbook.NewWorksheet(ws.Name, maxRow+1, maxCol+1)
	for r := 0; r < ws.Rows; r++ {
		for c := 0; c < ws.Cols; c++ {
			grown.Data[r][c] = ws.Data[r][c]
		}
	}
	ws.Rows, ws.Cols, ws.Data = grown.Rows, grown.Cols, grown.Data
}
