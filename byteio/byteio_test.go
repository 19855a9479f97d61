package byteio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadsAndBounds(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

	b, err := U8(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b)

	u16, err := U16LE(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), u16)

	u32, err := U32LE(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), u32)

	u64, err := U64LE(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0807060504030201), u64)

	_, err = U32LE(buf, 6)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestSignExtend(t *testing.T) {
	// 14-bit row offset: bit 13 set means negative.
	assert.Equal(t, -1, SignExtend(0x3FFF, 14))
	assert.Equal(t, 1, SignExtend(0x0001, 14))
	// 8-bit column offset.
	assert.Equal(t, -1, SignExtend(0xFF, 8))
	assert.Equal(t, 127, SignExtend(0x7F, 8))
}
