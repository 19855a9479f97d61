// Package media turns the shallow drawing/anchor XML spec §1 calls out
// as "deliberately out of scope" to traverse exhaustively into the
// handful of conversions a driver still needs once it has already
// walked that XML and extracted an anchor and an image blob: EMU to
// pixel conversion for the workbook's PixelBox, and best-effort image
// dimension sniffing. Grounded on the xdr:from/xdr:to EMU anchor model
// this module's teacher's excelize-family drawing reader
// (xmlDrawing.go's xdrCellAnchor/xlsxFrom/xlsxTo) exposes.
package media

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/asportagro/gosheet/workbook"
)

// emuPerPixel is the DrawingML fixed conversion factor (914400 EMU per
// inch, 96 px per inch).
const emuPerPixel = 914400 / 96

// CellAnchor mirrors the two-cell anchor shape the OOXML drawing part
// uses to place a picture/shape/chart relative to row/column offsets,
// pre-converted row/col/offset fields as read off xdr:from and xdr:to.
type CellAnchor struct {
	FromCol, FromColOffEMU int
	FromRow, FromRowOffEMU int
	ToCol, ToColOffEMU     int
	ToRow, ToRowOffEMU     int
	// ColWidthsPx/RowHeightsPx let the caller resolve a column/row
	// index to its pixel offset; index i is the width/height of
	// column/row i using the worksheet's effective defaults.
	ColWidthsPx  func(col int) int
	RowHeightsPx func(row int) int
}

// PixelBox computes the anchor's absolute pixel bounding box by
// summing column widths/row heights up to the from/to cell plus the
// EMU offset within that cell, converted to pixels.
func PixelBox(a CellAnchor) workbook.PixelBox {
	x := sumUpTo(a.ColWidthsPx, a.FromCol) + emuToPx(a.FromColOffEMU)
	y := sumUpTo(a.RowHeightsPx, a.FromRow) + emuToPx(a.FromRowOffEMU)
	x2 := sumUpTo(a.ColWidthsPx, a.ToCol) + emuToPx(a.ToColOffEMU)
	y2 := sumUpTo(a.RowHeightsPx, a.ToRow) + emuToPx(a.ToRowOffEMU)
	width := x2 - x
	height := y2 - y
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return workbook.PixelBox{X: x, Y: y, Width: width, Height: height}
}

func sumUpTo(size func(int) int, n int) int {
	if size == nil {
		return 0
	}
	total := 0
	for i := 0; i < n; i++ {
		total += size(i)
	}
	return total
}

func emuToPx(emu int) int {
	return emu / emuPerPixel
}

// SniffDimensions best-effort decodes an embedded image's pixel
// dimensions via image.DecodeConfig, covering PNG/JPEG/GIF (stdlib)
// plus BMP/TIFF (golang.org/x/image), all registered by this package's
// blank imports. A decode failure is never fatal — spec's
// Media entity carries the raw bytes regardless and a host renderer
// can retry with a fuller decoder; callers get (0, 0) back and log a
// warning instead of aborting the parse.
func SniffDimensions(raw []byte) (width, height int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
