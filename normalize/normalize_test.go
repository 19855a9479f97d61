package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asportagro/gosheet/workbook"
)

func TestStyleInterningDeduplicatesIdenticalCSS(t *testing.T) {
	ws := workbook.NewWorksheet("Sheet1", 2, 2)
	raw := Raw{
		Worksheets: []*workbook.Worksheet{ws},
		WorksheetStyleCSS: map[string]map[string]string{
			"Sheet1": {
				"A1": "font-weight:bold;",
				"B1": "font-weight:bold;",
				"A2": "color:#FF0000;",
			},
		},
	}

	wb := Run(raw)
	require.Len(t, wb.Worksheets, 1)
	out := wb.Worksheets[0]
	assert.Equal(t, out.Styles["A1"], out.Styles["B1"])
	assert.NotEqual(t, out.Styles["A1"], out.Styles["A2"])
	assert.Len(t, wb.StyleTable, 2)
}

func TestBorderDedupeStripsSharedEdge(t *testing.T) {
	ws := workbook.NewWorksheet("Sheet1", 1, 2)
	raw := Raw{
		Worksheets: []*workbook.Worksheet{ws},
		WorksheetStyleCSS: map[string]map[string]string{
			"Sheet1": {
				"A1": "border-right:1px solid #000;",
				"B1": "border-left:1px solid #000;color:#333;",
			},
		},
	}

	wb := Run(raw)
	out := wb.Worksheets[0]
	bIdx := out.Styles["B1"]
	assert.NotContains(t, wb.StyleTable[bIdx], "border-left")
	assert.Contains(t, wb.StyleTable[bIdx], "color:#333;")
}

func TestValidationGetsSheetQualified(t *testing.T) {
	ws := workbook.NewWorksheet("Sheet1", 1, 1)
	raw := Raw{
		Worksheets: []*workbook.Worksheet{ws},
		WorksheetValidations: map[string][]workbook.Validation{
			"Sheet1": {{Range: "A1:B2", Type: workbook.ValNumber, Action: workbook.ActionReject}},
		},
	}

	wb := Run(raw)
	require.Len(t, wb.Validations, 1)
	assert.Equal(t, "Sheet1!A1:B2", wb.Validations[0].Range)
}

func TestMinDimensionsGrowsForMerge(t *testing.T) {
	ws := workbook.NewWorksheet("Sheet1", 2, 2)
	ws.MergeCells["A1"] = workbook.MergeExtent{ColSpan: 3, RowSpan: 1}

	raw := Raw{Worksheets: []*workbook.Worksheet{ws}}
	wb := Run(raw)
	out := wb.Worksheets[0]
	assert.Equal(t, 3, out.Cols)
	assert.Equal(t, 2, out.Rows)
}
