package ptg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u16le(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func TestDecodeArithmetic(t *testing.T) {
	// tInt(2) tInt(3) tAdd -> "2+3"
	tokens := append([]byte{tInt}, u16le(2)...)
	tokens = append(tokens, tInt)
	tokens = append(tokens, u16le(3)...)
	tokens = append(tokens, tAdd)

	got, err := Decode(tokens, CellContext{})
	require.NoError(t, err)
	assert.Equal(t, "2+3", got)
}

func TestDecodeFunctionCall(t *testing.T) {
	// tInt(10) tInt(20) tFuncVar(argc=2, idx=SUM=4) -> "SUM(10,20)"
	tokens := append([]byte{tInt}, u16le(10)...)
	tokens = append(tokens, tInt)
	tokens = append(tokens, u16le(20)...)
	tokens = append(tokens, byte(0x22)) // PtgFuncVar, ref class
	tokens = append(tokens, 2)          // arg count
	tokens = append(tokens, u16le(4)...)

	got, err := Decode(tokens, CellContext{})
	require.NoError(t, err)
	assert.Equal(t, "SUM(10,20)", got)
}

func TestDecodeSharedFormulaRelativisation(t *testing.T) {
	// Shared formula body "A7+B7" stored relative to base anchor A7,
	// instantiated at target B7. tRefN tokens would encode offsets
	// relative to the TARGET cell; this test uses tRef tokens, which
	// resolve against the base — "=RC+RC[1]" in R1C1 terms from A7.
	//
	// Concretely: tRef (classed, relative both axes) pointing at row 6
	// col 0 stored as an offset from the shared-formula's base anchor
	// (row 6, col 0 itself, i.e. offset 0,0) when HasBase is set, and a
	// second tRef at offset (0, +1) from the same base -> B7.
	ctx := CellContext{
		TargetRow: 6, TargetCol: 1, // B7 zero-based
		BaseRow: 6, BaseCol: 0, // A7 zero-based
		HasBase: true,
	}

	refToken := func(rowOffset, colOffset int, rowRel, colRel bool) []byte {
		rowWord := uint16(rowOffset) & 0x3FFF
		colWord := uint16(colOffset) & 0x00FF
		if rowRel {
			colWord |= 0x8000
		}
		if colRel {
			colWord |= 0x4000
		}
		out := append([]byte{byte(0x24)}, u16le(rowWord)...) // PtgRef, ref class
		out = append(out, u16le(colWord)...)
		return out
	}

	tokens := refToken(0, 0, true, true) // -> A7 (base + (0,0))
	tokens = append(tokens, refToken(0, 1, true, true)...)
	tokens = append(tokens, tAdd)

	got, err := Decode(tokens, ctx)
	require.NoError(t, err)
	assert.Equal(t, "A7+B7", got)
}

func TestDecodeUnknownTokenStopsWithPartial(t *testing.T) {
	tokens := append([]byte{tInt}, u16le(5)...)
	tokens = append(tokens, 0xFF) // not a recognized token

	got, err := Decode(tokens, CellContext{})
	require.Error(t, err)
	assert.Equal(t, "5", got)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestDecodeStringAndBoolAndError(t *testing.T) {
	tokens := []byte{tStr, 3, 0, 'f', 'o', 'o'}
	got, err := Decode(tokens, CellContext{})
	require.NoError(t, err)
	assert.Equal(t, "\"foo\"", got)

	got, err = Decode([]byte{tBool, 1}, CellContext{})
	require.NoError(t, err)
	assert.Equal(t, "TRUE", got)

	got, err = Decode([]byte{tErr, 0x07}, CellContext{})
	require.NoError(t, err)
	assert.Equal(t, "#DIV/0!", got)
}

func TestDecodeParenAndUnaryAndPercent(t *testing.T) {
	tokens := append([]byte{tInt}, u16le(5)...)
	tokens = append(tokens, tUminus, tParen, tPercent)

	got, err := Decode(tokens, CellContext{})
	require.NoError(t, err)
	assert.Equal(t, "(-5)%", got)
}

func TestDecodeAreaReference(t *testing.T) {
	// Absolute area A1:B2, no relative flags.
	tokens := []byte{0x25} // PtgArea, ref class
	tokens = append(tokens, u16le(0)...) // row1 = 0
	tokens = append(tokens, u16le(1)...) // row2 = 1
	tokens = append(tokens, u16le(0)...) // col1 = 0
	tokens = append(tokens, u16le(1)...) // col2 = 1

	got, err := Decode(tokens, CellContext{})
	require.NoError(t, err)
	assert.Equal(t, "$A$1:$B$2", got)
}

func TestFunctionNameFallback(t *testing.T) {
	assert.Equal(t, "SUM", FunctionName(4))
	assert.Equal(t, "CHOOSE", FunctionName(100))
	assert.Equal(t, "HLOOKUP", FunctionName(101))
	assert.Equal(t, "VLOOKUP", FunctionName(102))
	assert.Equal(t, "FUNC{9999}", FunctionName(9999))
}

func TestFixedArgCountDefaultsToOne(t *testing.T) {
	assert.Equal(t, 2, FixedArgCount(39)) // MOD
	assert.Equal(t, 1, FixedArgCount(123456))
}
