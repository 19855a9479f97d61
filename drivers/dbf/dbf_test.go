package dbf

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/workbook"
)

// buildDBF constructs a minimal one-field, one-record DBF buffer:
// field "NAME" (character, width 10), one record holding "Bob".
func buildDBF(t *testing.T) []byte {
	t.Helper()
	const fieldName = "NAME"
	const fieldLen = 10

	headerLen := headerSize + fieldDescrSize + 1 // +1 for the 0x0D terminator
	recordLen := 1 + fieldLen                    // deletion flag + field

	var buf bytes.Buffer
	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[4:8], 1) // numRecords
	binary.LittleEndian.PutUint16(header[8:10], uint16(headerLen))
	binary.LittleEndian.PutUint16(header[10:12], uint16(recordLen))
	buf.Write(header)

	fd := make([]byte, fieldDescrSize)
	copy(fd[0:11], fieldName)
	fd[11] = 'C'
	fd[16] = fieldLen
	buf.Write(fd)
	buf.WriteByte(0x0D)

	rec := make([]byte, recordLen)
	rec[0] = ' '
	copy(rec[1:], []byte("Bob       "))
	buf.Write(rec)

	return buf.Bytes()
}

func TestParseReadsHeaderAndRecord(t *testing.T) {
	data := buildDBF(t)
	raw, err := Parse(context.Background(), data, parseopts.Options{})
	require.NoError(t, err)
	require.Len(t, raw.Worksheets, 1)
	ws := raw.Worksheets[0]
	assert.Equal(t, "NAME", ws.Get(0, 0).Text)
	assert.Equal(t, "Bob", ws.Get(1, 0).Text)
	assert.Equal(t, workbook.KindText, ws.Get(1, 0).Kind)
}

func TestParseTruncatedHeaderErrors(t *testing.T) {
	_, err := Parse(context.Background(), []byte{1, 2, 3}, parseopts.Options{})
	assert.Error(t, err)
}
