package csv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/workbook"
)

func TestParseBuildsDenseMatrix(t *testing.T) {
	data := []byte("a,b,c\n1,2\n")
	raw, err := Parse(context.Background(), data, parseopts.Options{})
	require.NoError(t, err)
	require.Len(t, raw.Worksheets, 1)
	ws := raw.Worksheets[0]
	assert.Equal(t, 2, ws.Rows)
	assert.Equal(t, 3, ws.Cols)
	assert.Equal(t, "a", ws.Get(0, 0).Text)
	assert.Equal(t, workbook.KindText, ws.Get(0, 0).Kind)
	assert.True(t, ws.Get(1, 2).Empty())
}

func TestParseTabUsesTabDelimiter(t *testing.T) {
	data := []byte("a\tb\n1\t2\n")
	raw, err := ParseTab(context.Background(), data, parseopts.Options{})
	require.NoError(t, err)
	ws := raw.Worksheets[0]
	assert.Equal(t, "b", ws.Get(0, 1).Text)
}

func TestParseHonorsDelimiterOverride(t *testing.T) {
	data := []byte("a;b;c\n")
	raw, err := Parse(context.Background(), data, parseopts.Options{Delimiter: ';'})
	require.NoError(t, err)
	ws := raw.Worksheets[0]
	assert.Equal(t, "c", ws.Get(0, 2).Text)
}
