package biff

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(typ uint16, data []byte) []byte {
	header := make([]byte, 4)
	binary.LittleEndian.PutUint16(header[0:2], typ)
	binary.LittleEndian.PutUint16(header[2:4], uint16(len(data)))
	return append(header, data...)
}

func TestDecodeRKInteger(t *testing.T) {
	// Integer form: value 17 shifted left 2, bit1 set (integer), bit0 clear.
	rk := uint32(17<<2) | 0x02
	assert.Equal(t, float64(17), DecodeRK(rk))
}

func TestDecodeRKFractionWithHundredScale(t *testing.T) {
	// Encode 1.23*100 = 123 as a double, take its high 32 bits as the
	// RK payload, and set the /100 flag so the decoder divides back down.
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(1.23*100))
	top32 := binary.LittleEndian.Uint32(buf[4:8])
	rk := (top32 &^ 0x3) | 0x01 // clear low 2 bits, set /100 flag, leave bit1=0 (float form)
	got := DecodeRK(rk)
	assert.InDelta(t, 1.23, got, 0.01)
}

func TestRecordReaderMergesContinue(t *testing.T) {
	var buf []byte
	buf = append(buf, rec(RecSST, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})...)
	buf = append(buf, rec(RecContinue, []byte{0xAA, 0xBB})...)
	buf = append(buf, rec(RecEOF, nil)...)

	r := NewReader(buf)
	got, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(RecSST), got.Type)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0xAA, 0xBB}, got.Data)

	got, ok, err = r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(RecEOF), got.Type)

	_, ok, err = r.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseCellRecordsNumberAndLabelSST(t *testing.T) {
	sst := SST{Strings: []string{"hello"}}

	numData := make([]byte, 14)
	binary.LittleEndian.PutUint16(numData[0:2], 0) // row
	binary.LittleEndian.PutUint16(numData[2:4], 0) // col
	binary.LittleEndian.PutUint16(numData[4:6], 5) // xf
	binary.LittleEndian.PutUint64(numData[6:14], math.Float64bits(42.5))

	labelData := make([]byte, 10)
	binary.LittleEndian.PutUint16(labelData[0:2], 1)
	binary.LittleEndian.PutUint16(labelData[2:4], 0)
	binary.LittleEndian.PutUint16(labelData[4:6], 0)
	binary.LittleEndian.PutUint32(labelData[6:10], 0) // SST index 0

	var buf []byte
	buf = append(buf, rec(RecNumber, numData)...)
	buf = append(buf, rec(RecLabelSST, labelData)...)
	buf = append(buf, rec(RecEOF, nil)...)

	cells, err := ParseCellRecords(NewReader(buf), sst)
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, CellNumber, cells[0].Kind)
	assert.Equal(t, 42.5, cells[0].Number)
	assert.Equal(t, CellString, cells[1].Kind)
	assert.Equal(t, "hello", cells[1].Text)
}
