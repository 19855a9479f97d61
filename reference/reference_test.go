package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnNameRoundTrip(t *testing.T) {
	for i := 0; i <= 10000; i++ {
		name := ColumnName(i)
		idx, err := ColumnIndex(name)
		require.NoError(t, err)
		assert.Equal(t, i, idx, "round trip broke at %d (%s)", i, name)
	}
}

func TestColumnNameKnownValues(t *testing.T) {
	cases := map[int]string{0: "A", 25: "Z", 26: "AA", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for idx, want := range cases {
		assert.Equal(t, want, ColumnName(idx))
	}
}

func TestCellNameRoundTrip(t *testing.T) {
	for c := 0; c < 1000; c += 37 {
		for r := 0; r < 1000000; r += 104729 {
			name := CellName(c, r)
			coords, err := CoordsFromCellName(name)
			require.NoError(t, err)
			require.NotNil(t, coords.Col)
			require.NotNil(t, coords.Row)
			assert.Equal(t, c, *coords.Col)
			assert.Equal(t, r, *coords.Row)
		}
	}
}

func TestCoordsFromCellNamePartial(t *testing.T) {
	c, err := CoordsFromCellName("A")
	require.NoError(t, err)
	assert.Nil(t, c.Row)
	require.NotNil(t, c.Col)
	assert.Equal(t, 0, *c.Col)

	r, err := CoordsFromCellName("5")
	require.NoError(t, err)
	assert.Nil(t, r.Col)
	require.NotNil(t, r.Row)
	assert.Equal(t, 4, *r.Row)
}

func TestCoordsFromRangeSheetPrefix(t *testing.T) {
	rng, err := CoordsFromRange("Sheet1!A1:B2", true, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, Range{C1: 0, R1: 0, C2: 1, R2: 1}, rng)
}

func TestCoordsFromRangeAdjust(t *testing.T) {
	rng, err := CoordsFromRange("A:A", true, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, Range{C1: 0, R1: 0, C2: 0, R2: 4}, rng)
}

func TestTokenIdentifier(t *testing.T) {
	assert.True(t, TokenIdentifier("A1"))
	assert.True(t, TokenIdentifier("$A$1:$B$2"))
	assert.True(t, TokenIdentifier("Sheet1!A1"))
	assert.True(t, TokenIdentifier("'My Sheet'!A1:B2"))
	assert.False(t, TokenIdentifier("A1:B2:C3"))
	assert.False(t, TokenIdentifier("'My:Sheet'!A1"))
	assert.False(t, TokenIdentifier("AAAA1"))
}

func TestTranslateR1C1ToA1(t *testing.T) {
	cases := []struct {
		formula string
		row     int
		col     int
		want    string
	}{
		{"R[-1]C[1]", 6, 2, "D6"},
		{"RC", 6, 2, "C7"},
		{"R1C1", 6, 2, "$A$1"},
		{"R[0]C[0]+R5C3", 9, 3, "D10+$C$5"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TranslateR1C1ToA1(c.formula, c.row, c.col))
	}
}

func TestNormalizeODSFormula(t *testing.T) {
	got := NormalizeODSFormula("of:=SUM([.A1:.B2];[.C1])")
	assert.Equal(t, "=SUM(A1:B2,C1)", got)

	got2 := NormalizeODSFormula("of:=[.$A$1:.$B$2]")
	assert.Equal(t, "=$A$1:$B$2", got2)
}
