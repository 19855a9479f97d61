// Package ptg reconstructs an infix Excel formula string from the
// reverse-Polish "Parse Token" (PTG) bytecode BIFF stores formulas in.
//
// It is a from-scratch rewrite of the token-dispatch architecture in
// this module's BIFF reader (xlrd/formula.go's DecompileFormula),
// scoped to exactly the spec's contract: single-sheet cell-relative
// reconstruction, not full external-reference/3D-range resolution.
package ptg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/asportagro/gosheet/byteio"
	"github.com/asportagro/gosheet/reference"
)

// Base token codes (0x01-0x1F), classless.
const (
	tExp     = 0x01
	tTbl     = 0x02
	tAdd     = 0x03
	tSub     = 0x04
	tMul     = 0x05
	tDiv     = 0x06
	tPower   = 0x07
	tConcat  = 0x08
	tLT      = 0x09
	tLE      = 0x0A
	tEQ      = 0x0B
	tGE      = 0x0C
	tGT      = 0x0D
	tNE      = 0x0E
	tIsect   = 0x0F // range intersection (space)
	tUnion   = 0x10 // tList: union (,)
	tRange   = 0x11 // range (:)
	tUplus   = 0x12
	tUminus  = 0x13
	tPercent = 0x14
	tParen   = 0x15
	tMissArg = 0x16
	tStr     = 0x17
	tAttr    = 0x19
	tErr     = 0x1C
	tBool    = 0x1D
	tInt     = 0x1E
	tNum     = 0x1F
)

// Class-bearing token kinds. BIFF packs each classified token into
// three byte values sharing one base identifier: ref class at
// 0x20+base, value class at 0x40+base, array class at 0x60+base. All
// three reduce to the same `code & 0x1F` result, so the class tag
// itself never needs tracking for textual reconstruction (spec
// §4.4.1) — only the base identifier does.
const (
	classMask = 0x1F
	kRef      = 0x04 // PtgRef:    0x24 / 0x44 / 0x64
	kArea     = 0x05 // PtgArea:   0x25 / 0x45 / 0x65
	kRefN     = 0x0C // PtgRefN:   0x2C / 0x4C / 0x6C
	kAreaN    = 0x0D // PtgAreaN:  0x2D / 0x4D / 0x6D
	kName     = 0x03 // PtgName:   0x23 / 0x43 / 0x63
	kFunc     = 0x01 // PtgFunc:   0x21 / 0x41 / 0x61
	kFuncVar  = 0x02 // PtgFuncVar:0x22 / 0x42 / 0x62
)

// CellContext supplies the anchors PTG relative references resolve
// against. Target is the cell the formula instance lives in; Base is
// the anchor cell of a shared-formula body (only meaningful when the
// formula was reached via a SHRFMLA shared-formula, per spec §4.1's
// shared-formula relativisation rule). HasBase is false for an
// ordinary (non-shared) formula.
type CellContext struct {
	TargetRow, TargetCol int
	BaseRow, BaseCol     int
	HasBase              bool
}

// DecodeError reports that the token stream could not be fully
// decoded; per spec §4.4.2 and §7 ("DecodeFailure"), Partial holds
// whatever the stack-top was at the point emission stopped.
type DecodeError struct {
	Partial string
	Reason  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ptg: decode failed: %s", e.Reason)
}

// Decode walks tokens left to right, maintaining a stack of text
// fragments, and returns the reconstructed infix formula. Unknown
// tokens stop emission; the last stack element (if any) is returned
// together with a *DecodeError so callers can choose the
// "best-effort" behaviour spec §7 requires (Decode never panics).
func Decode(tokens []byte, ctx CellContext) (string, error) {
	var stack []string
	pos := 0

	top := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1]
	}
	popN := func(n int) []string {
		if n > len(stack) {
			n = len(stack)
		}
		args := append([]string(nil), stack[len(stack)-n:]...)
		stack = stack[:len(stack)-n]
		return args
	}
	push := func(s string) { stack = append(stack, s) }
	binary := func(op string) bool {
		if len(stack) < 2 {
			return false
		}
		b := stack[len(stack)-1]
		a := stack[len(stack)-2]
		stack = stack[:len(stack)-2]
		push(a + op + b)
		return true
	}
	unaryPrefix := func(op string) bool {
		if len(stack) < 1 {
			return false
		}
		a := stack[len(stack)-1]
		stack[len(stack)-1] = op + a
		return true
	}

	for pos < len(tokens) {
		code := int(tokens[pos])
		pos++

		switch {
		case code <= 0x1F:
			switch code {
			case tAdd:
				if !binary("+") {
					return stopAt(top())
				}
			case tSub:
				if !binary("-") {
					return stopAt(top())
				}
			case tMul:
				if !binary("*") {
					return stopAt(top())
				}
			case tDiv:
				if !binary("/") {
					return stopAt(top())
				}
			case tPower:
				if !binary("^") {
					return stopAt(top())
				}
			case tConcat:
				if !binary("&") {
					return stopAt(top())
				}
			case tLT:
				if !binary("<") {
					return stopAt(top())
				}
			case tLE:
				if !binary("<=") {
					return stopAt(top())
				}
			case tEQ:
				if !binary("=") {
					return stopAt(top())
				}
			case tGE:
				if !binary(">=") {
					return stopAt(top())
				}
			case tGT:
				if !binary(">") {
					return stopAt(top())
				}
			case tNE:
				if !binary("<>") {
					return stopAt(top())
				}
			case tIsect:
				if !binary(" ") {
					return stopAt(top())
				}
			case tUnion:
				if !binary(",") {
					return stopAt(top())
				}
			case tRange:
				if !binary(":") {
					return stopAt(top())
				}
			case tUplus:
				if !unaryPrefix("+") {
					return stopAt(top())
				}
			case tUminus:
				if !unaryPrefix("-") {
					return stopAt(top())
				}
			case tPercent:
				if len(stack) < 1 {
					return stopAt(top())
				}
				stack[len(stack)-1] += "%"
			case tParen:
				if len(stack) < 1 {
					return stopAt(top())
				}
				stack[len(stack)-1] = "(" + stack[len(stack)-1] + ")"
			case tMissArg:
				push("")
			case tStr:
				s, n, err := readPascalString(tokens, pos)
				if err != nil {
					return stopAt(top())
				}
				pos += n
				push("\"" + s + "\"")
			case tErr:
				b, err := byteio.U8(tokens, pos)
				if err != nil {
					return stopAt(top())
				}
				pos++
				push(errorText(b))
			case tBool:
				b, err := byteio.U8(tokens, pos)
				if err != nil {
					return stopAt(top())
				}
				pos++
				if b != 0 {
					push("TRUE")
				} else {
					push("FALSE")
				}
			case tInt:
				v, err := byteio.U16LE(tokens, pos)
				if err != nil {
					return stopAt(top())
				}
				pos += 2
				push(strconv.Itoa(int(v)))
			case tNum:
				v, err := byteio.F64LE(tokens, pos)
				if err != nil {
					return stopAt(top())
				}
				pos += 8
				push(formatNumber(v))
			case tAttr:
				if pos+3 > len(tokens) {
					return stopAt(top())
				}
				pos += 3 // control-flow metadata, no stack effect (spec §4.4.2)
			case tExp:
				// Shared-formula marker: handled by the caller before
				// Decode is invoked (spec §4.5.4's two-pass linkage);
				// seeing it here means an unresolved reference.
				return stopAt(top())
			default:
				return stopAt(top())
			}

		default:
			kind := code & classMask
			switch kind {
			case kRef, kRefN:
				cell, n, err := decodeRef(tokens, pos, ctx, kind == kRefN)
				if err != nil {
					return stopAt(top())
				}
				pos += n
				push(cell)
			case kArea, kAreaN:
				rng, n, err := decodeArea(tokens, pos, ctx, kind == kAreaN)
				if err != nil {
					return stopAt(top())
				}
				pos += n
				push(rng)
			case kFunc:
				idx, err := byteio.U16LE(tokens, pos)
				if err != nil {
					return stopAt(top())
				}
				pos += 2
				argc := FixedArgCount(int(idx))
				if argc > len(stack) {
					return stopAt(top())
				}
				args := popN(argc)
				push(FunctionName(int(idx)) + "(" + strings.Join(args, ",") + ")")
			case kFuncVar:
				if pos+3 > len(tokens) {
					return stopAt(top())
				}
				countByte, _ := byteio.U8(tokens, pos)
				idxWord, _ := byteio.U16LE(tokens, pos+1)
				pos += 3
				count := int(countByte & 0x7F)
				idx := int(idxWord & 0x7FFF)
				if count > len(stack) {
					return stopAt(top())
				}
				args := popN(count)
				push(FunctionName(idx) + "(" + strings.Join(args, ",") + ")")
			case kName:
				// Name-table lookup is outside this package's scope
				// (it requires workbook-level name resolution); render
				// the raw name index as a best-effort placeholder.
				idx, err := byteio.U16LE(tokens, pos)
				if err != nil {
					return stopAt(top())
				}
				pos += 2
				push(fmt.Sprintf("NAME%d", idx))
			default:
				return stopAt(top())
			}
		}
	}

	return top(), nil
}

func stopAt(partial string) (string, error) {
	return partial, &DecodeError{Partial: partial, Reason: "unrecognized token or truncated operand"}
}

func readPascalString(buf []byte, off int) (string, int, error) {
	count, err := byteio.U8(buf, off)
	if err != nil {
		return "", 0, err
	}
	flags, err := byteio.U8(buf, off+1)
	if err != nil {
		return "", 0, err
	}
	unicode := flags&0x01 != 0
	n := int(count)
	if unicode {
		raw, err := byteio.Slice(buf, off+2, n*2)
		if err != nil {
			return "", 0, err
		}
		u16 := make([]uint16, n)
		for i := 0; i < n; i++ {
			u16[i] = uint16(raw[i*2]) | uint16(raw[i*2+1])<<8
		}
		return string(utf16Decode(u16)), 2 + n*2, nil
	}
	raw, err := byteio.Slice(buf, off+2, n)
	if err != nil {
		return "", 0, err
	}
	return string(raw), 2 + n, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var errorCodes = map[byte]string{
	0x00: "#NULL!",
	0x07: "#DIV/0!",
	0x0F: "#VALUE!",
	0x17: "#REF!",
	0x1D: "#NAME?",
	0x24: "#NUM!",
	0x2A: "#N/A",
}

func errorText(code byte) string {
	if s, ok := errorCodes[code]; ok {
		return s
	}
	return fmt.Sprintf("#ERR%d!", code)
}

// decodeRef reads a single tRef/tRefN: 2-byte row, 2-byte
// column-with-flags (bit 15 row-relative, bit 14 column-relative, low
// 14 bits the row, low 8 bits the column per spec §4.4.2).
func decodeRef(buf []byte, off int, ctx CellContext, isN bool) (string, int, error) {
	rowWord, err := byteio.U16LE(buf, off)
	if err != nil {
		return "", 0, err
	}
	colWord, err := byteio.U16LE(buf, off+2)
	if err != nil {
		return "", 0, err
	}
	col, row, colRel, rowRel := unpackColRow(rowWord, colWord, ctx, isN)
	return renderCell(col, row, colRel, rowRel), 4, nil
}

func decodeArea(buf []byte, off int, ctx CellContext, isN bool) (string, int, error) {
	row1Word, err := byteio.U16LE(buf, off)
	if err != nil {
		return "", 0, err
	}
	row2Word, err := byteio.U16LE(buf, off+2)
	if err != nil {
		return "", 0, err
	}
	col1Word, err := byteio.U16LE(buf, off+4)
	if err != nil {
		return "", 0, err
	}
	col2Word, err := byteio.U16LE(buf, off+6)
	if err != nil {
		return "", 0, err
	}
	c1, r1, c1rel, r1rel := unpackColRow(row1Word, col1Word, ctx, isN)
	c2, r2, c2rel, r2rel := unpackColRow(row2Word, col2Word, ctx, isN)
	return renderCell(c1, r1, c1rel, r1rel) + ":" + renderCell(c2, r2, c2rel, r2rel), 8, nil
}

// unpackColRow decodes one (row-word, col-word) pair into an absolute
// (col, row) plus whether each axis carries a relative ($-less)
// marker, applying the anchor rules of spec §4.4.2/§4.4.3: tRefN/tAreaN
// offsets are always relative to ctx.Target; tRef/tArea with the
// relative bit set resolve against ctx.Base when a shared-formula
// context (HasBase) is present, and otherwise are treated as already
// absolute (no cellContext supplied).
func unpackColRow(rowWord, colWord uint16, ctx CellContext, isN bool) (col, row int, colRel, rowRel bool) {
	// Row word holds the 14-bit row value; the column word carries the
	// 8-bit column plus the two relative-reference flags (spec §4.4.2:
	// bit 15 of the column word = row-relative, bit 14 = column-relative).
	rowRel = colWord&0x8000 != 0
	colRel = colWord&0x4000 != 0

	rawRow := int(rowWord & 0x3FFF)
	rawCol := int(colWord & 0x00FF)

	if isN {
		if rowRel {
			row = ctx.TargetRow + byteio.SignExtend(uint32(rawRow), 14)
		} else {
			row = rawRow
		}
		if colRel {
			col = ctx.TargetCol + byteio.SignExtend(uint32(rawCol), 8)
		} else {
			col = rawCol
		}
		return col, row, colRel, rowRel
	}

	switch {
	case rowRel && ctx.HasBase:
		row = ctx.BaseRow + byteio.SignExtend(uint32(rawRow), 14)
	default:
		row = rawRow
	}
	switch {
	case colRel && ctx.HasBase:
		col = ctx.BaseCol + byteio.SignExtend(uint32(rawCol), 8)
	default:
		col = rawCol
	}
	return col, row, colRel, rowRel
}

func renderCell(col, row int, colRel, rowRel bool) string {
	var b strings.Builder
	if !colRel {
		b.WriteByte('$')
	}
	b.WriteString(reference.ColumnName(col))
	if !rowRel {
		b.WriteByte('$')
	}
	b.WriteString(strconv.Itoa(row + 1))
	return b.String()
}

func utf16Decode(u []uint16) []rune {
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
