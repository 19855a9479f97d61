// Package stylecss builds the opaque CSS-like style string spec §3's
// "Style string" entity describes (an interned textual record of
// font/colour/border/alignment properties), grounded on the property
// surface this module's teacher's excelize-family style sheet
// (xlsxStyleSheet, xlsxFont, xlsxLine) exposes — generalised here into
// a driver-agnostic builder so both the XLS/BIFF XF record and the
// XLSX styleSheet XML can feed the same textual format.
package stylecss

import (
	"strconv"
	"strings"
)

// BorderSide describes one edge of a cell border. An empty Style means
// no border is declared on that edge.
type BorderSide struct {
	Style string // e.g. "1px solid", "2px dashed"
	Color string // "#RRGGBB", empty omits the colour
}

func (b BorderSide) declared() bool {
	return b.Style != ""
}

// Attrs is the full set of visual properties a driver can gather for
// one cell's style, independent of whether the source was a BIFF XF
// record or an XLSX cellXfs entry.
type Attrs struct {
	Bold       bool
	Italic     bool
	Underline  bool
	FontSize   float64
	FontName   string
	FontColor  string // "#RRGGBB"
	Background string // "#RRGGBB", fill foreground colour
	Left       BorderSide
	Right      BorderSide
	Top        BorderSide
	Bottom     BorderSide
	HAlign     string // "left" | "center" | "right" | "justify" | ""
	VAlign     string // "top" | "middle" | "bottom" | ""
	Wrap       bool
}

// Build renders Attrs into the CSS-like string stored in
// Workbook.StyleTable, one `property:value;` declaration per set
// attribute, in a fixed deterministic order so identical Attrs always
// produce byte-identical strings (required for style interning's
// dedupe-by-string-equality to work).
func Build(a Attrs) string {
	var b strings.Builder

	if a.Bold {
		b.WriteString("font-weight:bold;")
	}
	if a.Italic {
		b.WriteString("font-style:italic;")
	}
	if a.Underline {
		b.WriteString("text-decoration:underline;")
	}
	if a.FontSize > 0 {
		b.WriteString("font-size:")
		b.WriteString(trimFloat(a.FontSize))
		b.WriteString("pt;")
	}
	if a.FontName != "" {
		b.WriteString("font-family:")
		b.WriteString(a.FontName)
		b.WriteString(";")
	}
	if a.FontColor != "" {
		b.WriteString("color:")
		b.WriteString(a.FontColor)
		b.WriteString(";")
	}
	if a.Background != "" {
		b.WriteString("background-color:")
		b.WriteString(a.Background)
		b.WriteString(";")
	}
	writeBorder(&b, "left", a.Left)
	writeBorder(&b, "right", a.Right)
	writeBorder(&b, "top", a.Top)
	writeBorder(&b, "bottom", a.Bottom)
	if a.HAlign != "" {
		b.WriteString("text-align:")
		b.WriteString(a.HAlign)
		b.WriteString(";")
	}
	if a.VAlign != "" {
		b.WriteString("vertical-align:")
		b.WriteString(a.VAlign)
		b.WriteString(";")
	}
	if a.Wrap {
		b.WriteString("white-space:normal;")
	}
	return b.String()
}

func writeBorder(b *strings.Builder, side string, s BorderSide) {
	if !s.declared() {
		return
	}
	b.WriteString("border-")
	b.WriteString(side)
	b.WriteString(":")
	b.WriteString(s.Style)
	if s.Color != "" {
		b.WriteString(" ")
		b.WriteString(s.Color)
	}
	b.WriteString(";")
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// borderLineStyles maps the BIFF XF border-field 4-bit line-style
// nibble (spec §6: "Border-field dword ... packs left/right/top/bottom
// line styles in 4-bit nibbles") to a CSS border style/width pair. 0
// means "no border", handled by callers before BorderSide is built.
var borderLineStyles = map[int]string{
	1:  "1px solid",
	2:  "1px solid",
	3:  "1px dashed",
	4:  "1px dotted",
	5:  "2px solid",
	6:  "1px double",
	7:  "1px dotted",
	8:  "2px dashed",
	9:  "2px dashed",
	10: "2px dashed",
	11: "2px dashed",
	12: "2px dashed",
	13: "1px dashed",
}

// BorderLineStyle resolves a BIFF border nibble to its CSS style/width
// declaration. Nibble 0 (no border) resolves to "", signalling callers
// to leave that BorderSide undeclared.
func BorderLineStyle(nibble int) string {
	if nibble == 0 {
		return ""
	}
	if s, ok := borderLineStyles[nibble]; ok {
		return s
	}
	return "1px solid"
}
