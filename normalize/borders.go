package normalize

import (
	"strings"

	"github.com/asportagro/gosheet/reference"
	"github.com/asportagro/gosheet/workbook"
)

// dedupeBorders implements spec §4.7's border-deduplication pass: for
// every cell with a right border, strip the right neighbour's left
// border declaration if it has one (likewise bottom/top); the two
// declarations' values are not compared. It must run on the per-address raw CSS map
// before style interning — once two addresses are interned to the
// same shared index, stripping a border from one of them based on its
// neighbour would corrupt every other cell pointing at that index.
func dedupeBorders(ws *workbook.Worksheet, cssMap map[string]string) {
	if cssMap == nil {
		return
	}
	merges := ws.MergeCells

	for addr, css := range cssMap {
		coords, err := reference.CoordsFromCellName(addr)
		if err != nil || coords.Col == nil || coords.Row == nil {
			continue
		}
		col, row := *coords.Col, *coords.Row
		colspan, rowspan := 1, 1
		if ext, ok := merges[addr]; ok {
			colspan, rowspan = ext.ColSpan, ext.RowSpan
		}

		if hasBorder(css, "right") {
			for j := 0; j < rowspan; j++ {
				neighbor := reference.CellName(col+colspan, row+j)
				stripBorderSide(cssMap, neighbor, "left")
			}
		}
		if hasBorder(css, "bottom") {
			for j := 0; j < colspan; j++ {
				neighbor := reference.CellName(col+j, row+rowspan)
				stripBorderSide(cssMap, neighbor, "top")
			}
		}
	}
}

func hasBorder(css, side string) bool {
	return strings.Contains(css, "border-"+side+":")
}

// stripBorderSide removes the border-<side> declaration from the CSS
// string stored for addr, if any.
func stripBorderSide(cssMap map[string]string, addr, side string) {
	css, ok := cssMap[addr]
	if !ok {
		return
	}
	pattern := "border-" + side + ":"
	idx := strings.Index(css, pattern)
	if idx < 0 {
		return
	}
	end := strings.IndexByte(css[idx:], ';')
	if end < 0 {
		cssMap[addr] = strings.TrimSpace(css[:idx])
		return
	}
	cssMap[addr] = strings.TrimSpace(css[:idx] + css[idx+end+1:])
}
