package htmltable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asportagro/gosheet/internal/parseopts"
)

const sampleHTML = `
<html><body>
<table>
<tr><th>Name</th><th>Age</th></tr>
<tr><td>Ann</td><td>30</td></tr>
<tr><td colspan="2">spans two</td></tr>
</table>
</body></html>
`

func TestParseExtractsRowsAndHeader(t *testing.T) {
	raw, err := Parse(context.Background(), []byte(sampleHTML), parseopts.Options{FirstRowAsHeader: true})
	require.NoError(t, err)
	require.Len(t, raw.Worksheets, 1)
	ws := raw.Worksheets[0]
	assert.Equal(t, 3, ws.Rows)
	assert.Equal(t, 2, ws.Cols)
	assert.Equal(t, "Ann", ws.Get(1, 0).Text)
	assert.Equal(t, "30", ws.Get(1, 1).Text)
	assert.Equal(t, "Name", ws.ColProps[0].Title)
	assert.Equal(t, "spans two", ws.Get(2, 0).Text)
	assert.Equal(t, "", ws.Get(2, 1).Text)
}

func TestParseNoTableReturnsEmptySheet(t *testing.T) {
	raw, err := Parse(context.Background(), []byte("<html><body>no tables here</body></html>"), parseopts.Options{})
	require.NoError(t, err)
	require.Len(t, raw.Worksheets, 1)
	assert.Equal(t, 0, raw.Worksheets[0].Rows)
}
