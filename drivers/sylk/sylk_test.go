package sylk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/workbook"
)

func TestParseCellsByPosition(t *testing.T) {
	data := []byte("ID;PWXL\nB;Y2;X2\nC;X1;Y1;K\"hello\"\nC;X2;Y1;K42\nE\n")
	raw, err := Parse(context.Background(), data, parseopts.Options{})
	require.NoError(t, err)
	require.Len(t, raw.Worksheets, 1)
	ws := raw.Worksheets[0]
	assert.Equal(t, "hello", ws.Get(0, 0).Text)
	assert.Equal(t, workbook.KindNumber, ws.Get(0, 1).Kind)
	assert.Equal(t, 42.0, ws.Get(0, 1).Number)
}

func TestParseValueClassification(t *testing.T) {
	assert.Equal(t, workbook.KindBoolean, parseSylkValue("TRUE").Kind)
	assert.True(t, parseSylkValue("TRUE").Boolean)
	assert.Equal(t, workbook.KindNumber, parseSylkValue("3.14").Kind)
	assert.Equal(t, workbook.KindText, parseSylkValue("N/A").Kind)
}
