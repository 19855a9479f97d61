package dif

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/workbook"
)

const sample = `TABLE
0,1
""
VECTORS
0,2
""
TUPLES
0,1
""
DATA
0,0
""
-1,0
BOT
1,0
"hello"
0,42
V
-1,0
EOD
`

func TestParseReadsTextAndNumericCells(t *testing.T) {
	raw, err := Parse(context.Background(), []byte(sample), parseopts.Options{})
	require.NoError(t, err)
	require.Len(t, raw.Worksheets, 1)
	ws := raw.Worksheets[0]
	assert.Equal(t, "hello", ws.Get(0, 0).Text)
	assert.Equal(t, workbook.KindNumber, ws.Get(0, 1).Kind)
	assert.Equal(t, 42.0, ws.Get(0, 1).Number)
}
