// Package biff implements the BIFF8 record-stream engine: iterating
// the type/length-framed records inside a Workbook stream, building
// the shared-string, font, format and style tables, and dispatching
// cell records into raw cell events a driver assembles into a
// worksheet.
//
// It is grounded on this module's former xlrd-derived book reader,
// rebuilt around an explicit Reader type instead of an offset cursor
// into one large byte slice, in the style this module's BIFF12
// reference reader (io.ReadSeeker-based record framing) uses.
package biff

import (
	"encoding/binary"
	"fmt"
)

// Record type codes actually consumed by this engine. Names and
// values are cross-checked against the BIFF8 record catalogue; types
// this module never needs (drawings, pivot caches, outlines, ...) are
// intentionally absent rather than declared and ignored.
const (
	RecFormula     = 0x0006
	RecEOF         = 0x000A
	RecCalcCount   = 0x000C
	RecCalcMode    = 0x000D
	RecPrecision   = 0x000E
	RecDelta       = 0x0010
	RecDateMode    = 0x0022
	RecExternSheet = 0x0017
	RecName        = 0x0018
	RecWindow2     = 0x023E
	RecRK          = 0x027E
	RecMulRK       = 0x00BD
	RecMulBlank    = 0x00BE
	RecFont        = 0x0031
	RecFormat      = 0x041E
	RecXF          = 0x00E0
	RecSST         = 0x00FC
	RecExtSST      = 0x00FF
	RecContinue    = 0x003C
	RecLabel       = 0x0204
	RecLabelSST    = 0x00FD
	RecNumber      = 0x0203
	RecBlank       = 0x0201
	RecBoolErr     = 0x0205
	RecString      = 0x0207
	RecRow         = 0x0208
	RecShrFmla     = 0x04BC
	RecArray       = 0x0221
	RecBoundSheet  = 0x0085
	RecBOF         = 0x0809
	RecCodePage    = 0x0042
	RecColInfo     = 0x007D
	RecMergeCells  = 0x00E5
	RecDimension   = 0x0200
	RecStyle       = 0x0293
	RecPalette     = 0x0092
	RecDefColWidth = 0x0055
	RecPane        = 0x0041
)

// continuable lists the record types whose payload may legally
// overflow into one or more following CONTINUE records (spec §4.5.1);
// every other type ends at its own declared length.
var continuable = map[uint16]bool{
	RecSST:    true,
	RecLabel:  true,
	RecFormat: true,
	RecName:   true,
	RecString: true,
}

// Record is one fully assembled BIFF record: its type code and the
// payload with any CONTINUE extensions already concatenated in.
type Record struct {
	Type uint16
	Data []byte
}

// Reader iterates the records of a single BIFF8 stream held entirely
// in memory (Workbook globals or a worksheet substream, both handed
// to it as already-extracted CFB stream bytes).
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for record-at-a-time iteration starting at
// offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// ErrTruncated indicates the stream ends mid-record: a record header
// or its declared payload runs past the end of the buffer.
var ErrTruncated = fmt.Errorf("biff: truncated record stream")

// Next returns the next record, merging in any trailing CONTINUE
// records for types that spec §4.5.1 allows to overflow. It returns
// (Record{}, false, nil) at clean end of stream.
func (r *Reader) Next() (Record, bool, error) {
	if r.pos >= len(r.buf) {
		return Record{}, false, nil
	}
	if r.pos+4 > len(r.buf) {
		return Record{}, false, ErrTruncated
	}
	typ := binary.LittleEndian.Uint16(r.buf[r.pos:])
	length := int(binary.LittleEndian.Uint16(r.buf[r.pos+2:]))
	r.pos += 4
	if r.pos+length > len(r.buf) {
		return Record{}, false, ErrTruncated
	}
	data := append([]byte(nil), r.buf[r.pos:r.pos+length]...)
	r.pos += length

	if continuable[typ] {
		for r.pos+4 <= len(r.buf) {
			nextType := binary.LittleEndian.Uint16(r.buf[r.pos:])
			if nextType != RecContinue {
				break
			}
			contLen := int(binary.LittleEndian.Uint16(r.buf[r.pos+2:]))
			if r.pos+4+contLen > len(r.buf) {
				return Record{}, false, ErrTruncated
			}
			data = append(data, r.buf[r.pos+4:r.pos+4+contLen]...)
			r.pos += 4 + contLen
		}
	}

	return Record{Type: typ, Data: data}, true, nil
}

// Pos reports the reader's current byte offset, mainly useful in
// error messages pinpointing where decoding failed.
func (r *Reader) Pos() int { return r.pos }
