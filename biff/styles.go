package biff

import (
	"encoding/binary"
	"fmt"
)

// Font is a decoded FONT record (spec §4.5.3 style tables). Only the
// fields the normaliser's style-string builder consumes are kept. Weight
// is decoded but no bold state is derived from it or from any other
// FONT field (see DESIGN.md's Open Question notes).
type Font struct {
	HeightTwips int
	Color       uint16
	Weight      uint16
	Italic      bool
	Underline   byte
	Name        string
}

// ParseFont decodes a FONT record payload.
func ParseFont(data []byte) (Font, error) {
	if len(data) < 14 {
		return Font{}, fmt.Errorf("biff: FONT record too short")
	}
	f := Font{
		HeightTwips: int(binary.LittleEndian.Uint16(data[0:2])),
		Color:       binary.LittleEndian.Uint16(data[4:6]),
		Weight:      binary.LittleEndian.Uint16(data[6:8]),
		Italic:      data[2]&0x02 != 0,
		Underline:   data[10],
	}
	name, _, err := readByteCountString(data, 14)
	if err == nil {
		f.Name = name
	}
	return f, nil
}

// Format is a decoded FORMAT record: a custom number-format code
// string keyed by its format index (shared with built-in indices 0-163
// that never get an explicit FORMAT record).
type Format struct {
	Index int
	Code  string
}

// ParseFormat decodes a FORMAT record payload.
func ParseFormat(data []byte) (Format, error) {
	if len(data) < 2 {
		return Format{}, fmt.Errorf("biff: FORMAT record too short")
	}
	idx := int(binary.LittleEndian.Uint16(data[0:2]))
	s, _, err := readUnicodeString(data, 2)
	if err != nil {
		return Format{}, err
	}
	return Format{Index: idx, Code: s}, nil
}

// XF is a decoded extended-format record: the cross-reference from a
// cell's XF index to its font, number format and border/fill/alignment
// attributes (spec §4.5.3).
type XF struct {
	FontIndex   int
	FormatIndex int
	Alignment   byte
	Borders     [4]byte // top, left, bottom, right line-style codes
	FillPattern byte
}

// ParseXF decodes a BIFF8 XF record payload (20 bytes).
func ParseXF(data []byte) (XF, error) {
	if len(data) < 20 {
		return XF{}, fmt.Errorf("biff: XF record too short")
	}
	x := XF{
		FontIndex:   int(binary.LittleEndian.Uint16(data[0:2])),
		FormatIndex: int(binary.LittleEndian.Uint16(data[2:4])),
		Alignment:   data[6],
	}
	borderWord1 := binary.LittleEndian.Uint32(data[10:14])
	borderWord2 := binary.LittleEndian.Uint32(data[14:18])
	x.Borders[0] = byte((borderWord1 >> 8) & 0xF)  // top
	x.Borders[1] = byte(borderWord1 & 0xF)         // left
	x.Borders[2] = byte((borderWord1 >> 12) & 0xF) // bottom
	x.Borders[3] = byte((borderWord1 >> 4) & 0xF)  // right
	x.FillPattern = byte((borderWord2 >> 26) & 0x3F)
	return x, nil
}

// readByteCountString reads a 1-byte-length, single-byte-per-char
// string as used by FONT's name field (spec §4.5.3's simplified
// "compressed name" case; BIFF8 fonts can also carry a unicode name
// but callers treat a decode miss as "unnamed" rather than failing
// the whole record).
func readByteCountString(buf []byte, off int) (string, int, error) {
	if off >= len(buf) {
		return "", 0, fmt.Errorf("biff: truncated font name")
	}
	n := int(buf[off])
	if off+1+n > len(buf) {
		return "", 0, fmt.Errorf("biff: truncated font name data")
	}
	return string(buf[off+1 : off+1+n]), 1 + n, nil
}
