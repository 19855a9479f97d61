package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformWidths(px int) func(int) int {
	return func(int) int { return px }
}

func TestPixelBoxSumsColumnsAndRows(t *testing.T) {
	a := CellAnchor{
		FromCol: 2, FromRow: 1,
		ToCol: 4, ToRow: 3,
		ColWidthsPx:  uniformWidths(64),
		RowHeightsPx: uniformWidths(20),
	}
	box := PixelBox(a)
	assert.Equal(t, 128, box.X)
	assert.Equal(t, 20, box.Y)
	assert.Equal(t, 128, box.Width)
	assert.Equal(t, 40, box.Height)
}

func TestPixelBoxNilSizersDefaultToZero(t *testing.T) {
	box := PixelBox(CellAnchor{FromCol: 3, ToCol: 5})
	assert.Equal(t, 0, box.X)
	assert.Equal(t, 0, box.Width)
}

func TestSniffDimensionsDecodesPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 5))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	w, h, ok := SniffDimensions(buf.Bytes())
	require.True(t, ok)
	assert.Equal(t, 10, w)
	assert.Equal(t, 5, h)
}

func TestSniffDimensionsFailsGracefullyOnGarbage(t *testing.T) {
	w, h, ok := SniffDimensions([]byte("not an image"))
	assert.False(t, ok)
	assert.Equal(t, 0, w)
	assert.Equal(t, 0, h)
}
