package xls

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/workbook"
)

func record(typ uint16, payload []byte) []byte {
	buf := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint16(buf[0:2], typ)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(payload)))
	copy(buf[4:], payload)
	return buf
}

func boundSheetPayload(offset int32, name string) []byte {
	p := make([]byte, 8+len(name))
	binary.LittleEndian.PutUint32(p[0:4], uint32(offset))
	p[4] = 0    // visible
	p[5] = 0x00 // worksheet type
	p[6] = byte(len(name))
	p[7] = 0x00 // compressed (single-byte) chars
	copy(p[8:], name)
	return p
}

func labelCellPayload(row, col, xf uint16, s string) []byte {
	p := make([]byte, 6+3+len(s))
	binary.LittleEndian.PutUint16(p[0:2], row)
	binary.LittleEndian.PutUint16(p[2:4], col)
	binary.LittleEndian.PutUint16(p[4:6], xf)
	binary.LittleEndian.PutUint16(p[6:8], uint16(len(s)))
	p[8] = 0x00
	copy(p[9:], s)
	return p
}

func numberCellPayload(row, col, xf uint16, v float64) []byte {
	p := make([]byte, 14)
	binary.LittleEndian.PutUint16(p[0:2], row)
	binary.LittleEndian.PutUint16(p[2:4], col)
	binary.LittleEndian.PutUint16(p[4:6], xf)
	binary.LittleEndian.PutUint64(p[6:14], math.Float64bits(v))
	return p
}

// buildWorkbookStream assembles a minimal single-sheet BIFF8 Workbook
// stream: a global substream (BOF, one BOUNDSHEET, EOF) followed
// immediately by the declared worksheet substream (BOF, one LABEL, one
// NUMBER, EOF) at the offset the BOUNDSHEET record announces.
func buildWorkbookStream(t *testing.T) []byte {
	t.Helper()
	globalsBOF := record(0x0809, make([]byte, 4))
	globalsEOF := record(0x000A, nil)

	sheetBOF := record(0x0809, make([]byte, 4))
	labelRec := record(0x0204, labelCellPayload(0, 0, 0, "hi"))
	numberRec := record(0x0203, numberCellPayload(0, 1, 0, 3.5))
	sheetEOF := record(0x000A, nil)
	sheetSubstream := append(append(append(sheetBOF, labelRec...), numberRec...), sheetEOF...)

	// BOUNDSHEET offset is relative to the start of this Workbook
	// stream; the sheet substream is appended right after the globals.
	bsRecLen := 4 + 8 + len("Sheet1")
	boundSheetOffset := int32(len(globalsBOF) + bsRecLen + len(globalsEOF))
	var globals []byte
	globals = append(globals, globalsBOF...)
	globals = append(globals, record(0x0085, boundSheetPayload(boundSheetOffset, "Sheet1"))...)
	globals = append(globals, globalsEOF...)

	return append(globals, sheetSubstream...)
}

func buildCFBContainer(t *testing.T, wbStream []byte) []byte {
	t.Helper()
	const sectorSize = 512
	le32 := binary.LittleEndian.PutUint32
	le16 := binary.LittleEndian.PutUint16

	dataSectors := (len(wbStream) + sectorSize - 1) / sectorSize
	if dataSectors == 0 {
		dataSectors = 1
	}
	totalSectors := 2 + dataSectors
	buf := make([]byte, 512+totalSectors*sectorSize)

	copy(buf[0:8], []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	buf[28], buf[29] = 0xFE, 0xFF
	le16(buf[30:], 9) // 512-byte sectors
	le16(buf[32:], 6) // 64-byte mini sectors
	le32(buf[44:], 1) // num FAT sectors
	le32(buf[48:], 1) // directory start sector
	le32(buf[56:], 0) // mini cutoff: everything uses the regular FAT
	le32(buf[60:], 0xFFFFFFFE)
	le32(buf[64:], 0)
	le32(buf[68:], 0xFFFFFFFE)
	le32(buf[72:], 0)
	le32(buf[76:], 0)
	for i := 1; i < 109; i++ {
		le32(buf[76+i*4:], 0xFFFFFFFF)
	}

	fatOff := 512
	dirOff := 512 + sectorSize
	dataOff := 512 + 2*sectorSize

	le32(buf[fatOff+0*4:], 0xFFFFFFFD) // FAT sector describes itself
	le32(buf[fatOff+1*4:], 0xFFFFFFFE) // directory sector: end of chain
	for i := 0; i < dataSectors; i++ {
		sect := uint32(2 + i)
		if i == dataSectors-1 {
			le32(buf[fatOff+int(sect)*4:], 0xFFFFFFFE)
		} else {
			le32(buf[fatOff+int(sect)*4:], sect+1)
		}
	}

	writeDirEntry(buf[dirOff:dirOff+128], "Root Entry", 5, -1, -1, 1, 0, 0)
	writeDirEntry(buf[dirOff+128:dirOff+256], "Workbook", 2, -1, -1, -1, 2, uint64(len(wbStream)))

	copy(buf[dataOff:], wbStream)
	return buf
}

func writeDirEntry(dst []byte, name string, etype byte, left, right, child int32, startSect uint32, size uint64) {
	for i, r := range name {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(r))
	}
	binary.LittleEndian.PutUint16(dst[64:], uint16((len(name)+1)*2))
	dst[66] = etype
	binary.LittleEndian.PutUint32(dst[68:], uint32(left))
	binary.LittleEndian.PutUint32(dst[72:], uint32(right))
	binary.LittleEndian.PutUint32(dst[76:], uint32(child))
	binary.LittleEndian.PutUint32(dst[116:], startSect)
	binary.LittleEndian.PutUint64(dst[120:], size)
}

func TestParseReadsBoundSheetAndCells(t *testing.T) {
	wbStream := buildWorkbookStream(t)
	mem := buildCFBContainer(t, wbStream)

	raw, err := Parse(context.Background(), mem, parseopts.Options{})
	require.NoError(t, err)
	require.Len(t, raw.Worksheets, 1)

	ws := raw.Worksheets[0]
	assert.Equal(t, "Sheet1", ws.Name)
	assert.Equal(t, "hi", ws.Get(0, 0).Text)
	assert.Equal(t, workbook.KindNumber, ws.Get(0, 1).Kind)
	assert.Equal(t, 3.5, ws.Get(0, 1).Number)
}

func TestParseRejectsNonCFB(t *testing.T) {
	_, err := Parse(context.Background(), []byte("not a compound file"), parseopts.Options{})
	assert.Error(t, err)
}

func TestErrorCodeTextMapsKnownCodes(t *testing.T) {
	assert.Equal(t, "#DIV/0!", errorCodeText(0x07))
	assert.Equal(t, "#N/A", errorCodeText(0x2A))
}
