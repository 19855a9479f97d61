// Package numfmt resolves a BIFF/OOXML number-format index or mask to
// its display classification (date vs. plain number). The workbook
// model stores the format mask as text for the host grid component to
// render (spec §3.1's "Cell metadata" is the mask string, not a
// rendered value); this package exists for the one decision drivers
// actually need to make during parsing — whether a numeric cell's
// source value should be treated as a date for `CellValue` purposes.
// Custom mask classification is cross-checked by parsing the mask
// with github.com/xuri/nfp rather than relying solely on the
// character-scan heuristic, the same tokenizer this module's BIFF12
// reference reader's numfmt package uses for full rendering.
package numfmt

import (
	"github.com/xuri/nfp"
)

// BuiltIn is the canonical built-in number-format table, indices 0-49
// (spec §6): "0='General'", "1='0'", "2='0.00'", "9='0%'",
// "14='m/d/yy'", and so on through the reserved currency/date/time
// and accounting formats BIFF and OOXML both recognise by index.
var BuiltIn = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "m/d/yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: "#,##0 ;(#,##0)",
	38: "#,##0 ;[Red](#,##0)",
	39: "#,##0.00;(#,##0.00)",
	40: "#,##0.00;[Red](#,##0.00)",
	41: "_(* #,##0_);_(* (#,##0);_(* \"-\"_);_(@_)",
	42: "_(\"$\"* #,##0_);_(\"$\"* (#,##0);_(\"$\"* \"-\"_);_(@_)",
	43: "_(* #,##0.00_);_(* (#,##0.00);_(* \"-\"??_);_(@_)",
	44: "_(\"$\"* #,##0.00_);_(\"$\"* (#,##0.00);_(\"$\"* \"-\"??_);_(@_)",
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mmss.0",
	48: "##0.0E+0",
	49: "@",
}

// dateIndexRanges are the built-in index ranges spec's BuiltIn table
// classifies as date/time formats (mirrors BuiltIn's own 14-22 and
// 45-47 spans plus the reserved-but-unlisted 27-36 range BIFF
// documents for the same purpose).
func isBuiltinDateIndex(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	}
	return false
}

// Resolve returns the effective format code for a cell's numFmtID,
// preferring an explicit custom fmtStr (from a FORMAT/numFmt record)
// over the built-in table, and falling back to "General".
func Resolve(numFmtID int, fmtStr string) string {
	if fmtStr != "" {
		return fmtStr
	}
	if s, ok := BuiltIn[numFmtID]; ok {
		return s
	}
	return "General"
}

// IsDate reports whether the effective format represents a date or
// time value, used to route CellValue.Kind/display rendering. A
// custom mask that nfp cannot even tokenize is almost never a
// deliberate date format (malformed masks fall back to General in
// practice), so an nfp parse failure short-circuits to false before
// the character scan runs; a successful parse still defers to the
// scan, since classifying "is this a date" from nfp's token stream
// needs distinguishing date tokens from escaped literals, which the
// scan already does character-by-character.
func IsDate(numFmtID int, fmtStr string) bool {
	if fmtStr == "" {
		return isBuiltinDateIndex(numFmtID)
	}
	if sections := nfp.NumberFormatParser().Parse(fmtStr); len(sections) == 0 {
		return false
	}
	return scanForDateTokens(fmtStr)
}

// scanForDateTokens inspects a custom format string outside quoted
// literals and bracketed locale/color tags for date/time token
// characters (y, m, d, h, s), the same heuristic the teacher/pack's
// BIFF12 reader applies to classify custom formats without fully
// parsing them.
func scanForDateTokens(s string) bool {
	inQuote := false
	inBracket := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
			continue
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
			continue
		case r == 'y' || r == 'm' || r == 'd' || r == 'h' || r == 's':
			return true
		}
	}
	return false
}
