package reference

import (
	"regexp"
	"strconv"
	"strings"
)

// r1c1Token matches one R[n]C[n] occurrence. Each of R and C is either
// absent (bare R or C, relative offset 0), a bracketed signed integer
// (relative offset), or a bare unsigned integer (absolute, 1-based).
var r1c1Token = regexp.MustCompile(`R(\[-?\d+\]|\d+)?C(\[-?\d+\]|\d+)?`)

// TranslateR1C1ToA1 rewrites every R[·]C[·] occurrence in formula
// (anchored at the cell (row, col), zero-based) into A1 notation. XML
// entities are decoded first, per spec §4.1.
func TranslateR1C1ToA1(formula string, row, col int) string {
	formula = DecodeXMLEntities(formula)
	return r1c1Token.ReplaceAllStringFunc(formula, func(tok string) string {
		m := r1c1Token.FindStringSubmatch(tok)
		rowPart, colPart := m[1], m[2]
		return translateColPart(colPart, col) + translateRowPart(rowPart, row)
	})
}

// translateRowPart renders the row half of one R1C1 token as A1 text.
func translateRowPart(part string, target int) string {
	switch {
	case part == "":
		return strconv.Itoa(target + 1)
	case strings.HasPrefix(part, "["):
		offset, _ := strconv.Atoi(part[1 : len(part)-1])
		return strconv.Itoa(target + offset + 1)
	default:
		n, _ := strconv.Atoi(part)
		return "$" + strconv.Itoa(n)
	}
}

func translateColPart(part string, target int) string {
	switch {
	case part == "":
		return ColumnName(target)
	case strings.HasPrefix(part, "["):
		offset, _ := strconv.Atoi(part[1 : len(part)-1])
		return ColumnName(target + offset)
	default:
		n, _ := strconv.Atoi(part)
		return "$" + ColumnName(n-1)
	}
}

// odsRef matches an ODS bracketed cell/range reference, e.g. "[.A1:.B2]"
// or "[.$A$1:.$B$2]". The leading "of:" namespace prefix and argument
// separators are handled by NormalizeODSFormula, not here.
var odsRef = regexp.MustCompile(`\[\.([A-Z$]+\d+)(?::\.([A-Z$]+\d+))?\]`)

// NormalizeODSFormula strips the "of:" prefix, decodes XML entities,
// rewrites "[.A1:.B2]"-style bracketed references to plain "A1:B2",
// and turns semicolon argument separators into commas.
func NormalizeODSFormula(formula string) string {
	formula = strings.TrimPrefix(formula, "of:")
	formula = DecodeXMLEntities(formula)
	formula = odsRef.ReplaceAllStringFunc(formula, func(tok string) string {
		m := odsRef.FindStringSubmatch(tok)
		if m[2] == "" {
			return m[1]
		}
		return m[1] + ":" + m[2]
	})
	formula = strings.ReplaceAll(formula, ";", ",")
	return formula
}
