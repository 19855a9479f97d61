package cfb

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildContainer assembles a minimal, single-FAT-sector OLE2 container
// with one root-level stream named "Workbook" holding `content`. It
// keeps everything inside the 109 inline DIFAT slots and a single FAT
// sector, avoiding the need to exercise DIFAT-extension or mini-FAT
// machinery for basic extraction coverage.
func buildContainer(t *testing.T, content []byte, miniCutoff uint32) []byte {
	t.Helper()
	const sectorSize = 512
	le32 := binary.LittleEndian.PutUint32
	le16 := binary.LittleEndian.PutUint16

	// Sector layout: 0 = FAT sector, 1 = directory sector, 2.. = stream data.
	dataSectors := (len(content) + sectorSize - 1) / sectorSize
	if dataSectors == 0 {
		dataSectors = 1
	}
	totalSectors := 2 + dataSectors
	buf := make([]byte, headerSize+totalSectors*sectorSize)

	copy(buf[0:8], signature[:])
	buf[28], buf[29] = 0xFE, 0xFF
	le16(buf[30:], 9) // sector shift -> 512
	le16(buf[32:], 6) // mini sector shift -> 64
	le32(buf[44:], 1) // num FAT sectors
	le32(buf[48:], 1) // directory start sector
	le32(buf[56:], miniCutoff)
	le32(buf[60:], ENDOFCHAIN) // no mini-FAT
	le32(buf[64:], 0)
	le32(buf[68:], ENDOFCHAIN) // no DIFAT extension
	le32(buf[72:], 0)

	// Inline DIFAT: sector 0 holds the FAT.
	le32(buf[76:], 0)
	for i := 1; i < numDIFATInHdr; i++ {
		le32(buf[76+i*4:], FREESECT)
	}

	fatOff := headerSize + 0*sectorSize
	dirOff := headerSize + 1*sectorSize
	dataOff := headerSize + 2*sectorSize

	// FAT: sector 0 (itself) = FATSECT, sector 1 (dir) = ENDOFCHAIN,
	// data sectors chained then terminated.
	le32(buf[fatOff+0*4:], FATSECT)
	le32(buf[fatOff+1*4:], ENDOFCHAIN)
	for i := 0; i < dataSectors; i++ {
		sect := uint32(2 + i)
		if i == dataSectors-1 {
			le32(buf[fatOff+int(sect)*4:], ENDOFCHAIN)
		} else {
			le32(buf[fatOff+int(sect)*4:], sect+1)
		}
	}

	// Directory: entry 0 = root, entry 1 = "Workbook" stream.
	writeDirEntry(buf[dirOff:dirOff+128], "Root Entry", EntryRoot, -1, -1, 1, 0, 0)
	writeDirEntry(buf[dirOff+128:dirOff+256], "Workbook", EntryStream, -1, -1, -1, 2, uint64(len(content)))

	copy(buf[dataOff:], content)
	return buf
}

func writeDirEntry(dst []byte, name string, etype EntryType, left, right, child int32, startSect uint32, size uint64) {
	u16 := make([]uint16, 0, len(name))
	for _, r := range name {
		u16 = append(u16, uint16(r))
	}
	for i, w := range u16 {
		dst[i*2] = byte(w)
		dst[i*2+1] = byte(w >> 8)
	}
	binary.LittleEndian.PutUint16(dst[64:], uint16((len(name)+1)*2))
	dst[66] = byte(etype)
	binary.LittleEndian.PutUint32(dst[68:], uint32(left))
	binary.LittleEndian.PutUint32(dst[72:], uint32(right))
	binary.LittleEndian.PutUint32(dst[76:], uint32(child))
	binary.LittleEndian.PutUint32(dst[116:], startSect)
	binary.LittleEndian.PutUint64(dst[120:], size)
}

func TestOpenAndLocateStream(t *testing.T) {
	content := make([]byte, 2100)
	for i := range content {
		content[i] = byte(i)
	}
	mem := buildContainer(t, content, 0) // cutoff 0: everything is a "standard" FAT stream

	r, err := Open(mem)
	require.NoError(t, err)

	got, err := r.Stream("Workbook")
	require.NoError(t, err)
	assert.Equal(t, len(content), len(got))
	assert.Equal(t, content, got)
}

func TestStreamNotFound(t *testing.T) {
	mem := buildContainer(t, []byte("hi"), 0)
	r, err := Open(mem)
	require.NoError(t, err)

	_, err = r.Stream("NoSuchStream")
	assert.ErrorIs(t, err, ErrStreamNotFound)
}

func TestBadSignatureRejected(t *testing.T) {
	mem := buildContainer(t, []byte("hi"), 0)
	mem[0] = 0x00
	_, err := Open(mem)
	require.Error(t, err)
	var malformedErr *MalformedContainerError
	assert.ErrorAs(t, err, &malformedErr)
}

func TestPathsListsEveryEntry(t *testing.T) {
	mem := buildContainer(t, []byte("hi"), 0)
	r, err := Open(mem)
	require.NoError(t, err)
	assert.Contains(t, r.Paths(), "/Workbook")
}
