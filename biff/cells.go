package biff

import (
	"encoding/binary"
	"fmt"
	"math"
)

// CellKind tags which BIFF record produced a Cell.
type CellKind int

const (
	CellBlank CellKind = iota
	CellNumber
	CellString // LABEL / LABELSST: resolved text
	CellBool
	CellError
	CellFormula
)

// Cell is one decoded cell event, row/col zero-based.
type Cell struct {
	Row, Col int
	XFIndex  int
	Kind     CellKind
	Number   float64
	Text     string
	Bool     bool
	ErrCode  byte
	// Formula-only fields: raw PTG token bytes and the cached result
	// BIFF stores alongside the formula (spec §4.5.4). ResultKind lets
	// the caller distinguish a cached-number result from a
	// cached-string result signalled by a following STRING record.
	FormulaTokens []byte
	ResultKind    CellKind
	Shared        bool // this FORMULA belongs to a shared-formula group (spec §4.5.4)
}

// ParseCellRecords decodes one sheet substream's cell-bearing records
// into a flat list of Cell events, resolving MULRK/MULBLANK into their
// individual cells and threading a following STRING record into the
// preceding string-result FORMULA record. It does not interpret
// formula tokens; that is the caller's job via the ptg package, once
// shared-formula base anchors are known (spec §4.5.4).
func ParseCellRecords(r *Reader, sst SST) ([]Cell, error) {
	var cells []Cell
	var pendingFormula *int // index into cells awaiting a STRING record

	for {
		rec, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		switch rec.Type {
		case RecEOF:
			return cells, nil

		case RecBlank:
			row, col, xf, err := rowColXF(rec.Data)
			if err != nil {
				return nil, err
			}
			cells = append(cells, Cell{Row: row, Col: col, XFIndex: xf, Kind: CellBlank})

		case RecMulBlank:
			rows, err := parseMulBlank(rec.Data)
			if err != nil {
				return nil, err
			}
			cells = append(cells, rows...)

		case RecRK:
			c, err := parseRKCell(rec.Data)
			if err != nil {
				return nil, err
			}
			cells = append(cells, c)

		case RecMulRK:
			rows, err := parseMulRK(rec.Data)
			if err != nil {
				return nil, err
			}
			cells = append(cells, rows...)

		case RecNumber:
			c, err := parseNumberCell(rec.Data)
			if err != nil {
				return nil, err
			}
			cells = append(cells, c)

		case RecLabel:
			row, col, xf, err := rowColXF(rec.Data)
			if err != nil {
				return nil, err
			}
			s, _, err := readUnicodeString(rec.Data, 6)
			if err != nil {
				return nil, err
			}
			cells = append(cells, Cell{Row: row, Col: col, XFIndex: xf, Kind: CellString, Text: s})

		case RecLabelSST:
			row, col, xf, err := rowColXF(rec.Data)
			if err != nil {
				return nil, err
			}
			if len(rec.Data) < 10 {
				return nil, fmt.Errorf("biff: LABELSST record too short")
			}
			idx := int(binary.LittleEndian.Uint32(rec.Data[6:10]))
			text := ""
			if idx >= 0 && idx < len(sst.Strings) {
				text = sst.Strings[idx]
			}
			cells = append(cells, Cell{Row: row, Col: col, XFIndex: xf, Kind: CellString, Text: text})

		case RecBoolErr:
			row, col, xf, err := rowColXF(rec.Data)
			if err != nil {
				return nil, err
			}
			if len(rec.Data) < 8 {
				return nil, fmt.Errorf("biff: BOOLERR record too short")
			}
			value := rec.Data[6]
			isErr := rec.Data[7]
			if isErr != 0 {
				cells = append(cells, Cell{Row: row, Col: col, XFIndex: xf, Kind: CellError, ErrCode: value})
			} else {
				cells = append(cells, Cell{Row: row, Col: col, XFIndex: xf, Kind: CellBool, Bool: value != 0})
			}

		case RecFormula:
			c, shared, err := parseFormulaCell(rec.Data)
			if err != nil {
				return nil, err
			}
			c.Shared = shared
			cells = append(cells, c)
			if c.ResultKind == CellString {
				idx := len(cells) - 1
				pendingFormula = &idx
			}

		case RecString:
			if pendingFormula == nil {
				break
			}
			s, _, err := readUnicodeString(rec.Data, 0)
			if err != nil {
				return nil, err
			}
			cells[*pendingFormula].Text = s
			pendingFormula = nil

		case RecShrFmla:
			// Shared-formula group definitions are collected by the
			// caller (drivers/xls), which has the sheet-wide view
			// needed to match groups to their member FORMULA records
			// by range; this package only flags membership via Shared.
		}
	}
	return cells, nil
}

func rowColXF(data []byte) (row, col, xf int, err error) {
	if len(data) < 6 {
		return 0, 0, 0, fmt.Errorf("biff: cell record too short")
	}
	row = int(binary.LittleEndian.Uint16(data[0:2]))
	col = int(binary.LittleEndian.Uint16(data[2:4]))
	xf = int(binary.LittleEndian.Uint16(data[4:6]))
	return row, col, xf, nil
}

func parseRKCell(data []byte) (Cell, error) {
	row, col, xf, err := rowColXF(data)
	if err != nil {
		return Cell{}, err
	}
	if len(data) < 10 {
		return Cell{}, fmt.Errorf("biff: RK record too short")
	}
	rk := binary.LittleEndian.Uint32(data[6:10])
	return Cell{Row: row, Col: col, XFIndex: xf, Kind: CellNumber, Number: DecodeRK(rk)}, nil
}

func parseNumberCell(data []byte) (Cell, error) {
	row, col, xf, err := rowColXF(data)
	if err != nil {
		return Cell{}, err
	}
	if len(data) < 14 {
		return Cell{}, fmt.Errorf("biff: NUMBER record too short")
	}
	bits := binary.LittleEndian.Uint64(data[6:14])
	return Cell{Row: row, Col: col, XFIndex: xf, Kind: CellNumber, Number: math.Float64frombits(bits)}, nil
}

func parseMulBlank(data []byte) ([]Cell, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("biff: MULBLANK record too short")
	}
	row := int(binary.LittleEndian.Uint16(data[0:2]))
	firstCol := int(binary.LittleEndian.Uint16(data[2:4]))
	lastCol := int(binary.LittleEndian.Uint16(data[len(data)-2:]))
	var cells []Cell
	pos := 4
	for col := firstCol; col <= lastCol && pos+2 <= len(data)-2; col++ {
		xf := int(binary.LittleEndian.Uint16(data[pos:]))
		cells = append(cells, Cell{Row: row, Col: col, XFIndex: xf, Kind: CellBlank})
		pos += 2
	}
	return cells, nil
}

func parseMulRK(data []byte) ([]Cell, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("biff: MULRK record too short")
	}
	row := int(binary.LittleEndian.Uint16(data[0:2]))
	firstCol := int(binary.LittleEndian.Uint16(data[2:4]))
	lastCol := int(binary.LittleEndian.Uint16(data[len(data)-2:]))
	var cells []Cell
	pos := 4
	for col := firstCol; col <= lastCol && pos+6 <= len(data)-2; col++ {
		xf := int(binary.LittleEndian.Uint16(data[pos:]))
		rk := binary.LittleEndian.Uint32(data[pos+2:])
		cells = append(cells, Cell{Row: row, Col: col, XFIndex: xf, Kind: CellNumber, Number: DecodeRK(rk)})
		pos += 6
	}
	return cells, nil
}

// parseFormulaCell decodes a FORMULA record: row/col/xf, an 8-byte
// result area (a cached number, or a marker meaning "string/bool/error
// follows"), option flags, and the trailing PTG token stream. shared
// reports whether the options word's "shared formula" bit is set
// (spec §4.5.4): such a FORMULA's tokens use offsets relative to the
// shared group's base cell rather than this cell.
func parseFormulaCell(data []byte) (Cell, bool, error) {
	row, col, xf, err := rowColXF(data)
	if err != nil {
		return Cell{}, false, err
	}
	if len(data) < 22 {
		return Cell{}, false, fmt.Errorf("biff: FORMULA record too short")
	}
	result := data[6:14]
	options := binary.LittleEndian.Uint16(data[14:16])
	shared := options&0x08 != 0
	tokenLen := int(binary.LittleEndian.Uint16(data[20:22]))
	tokens := []byte{}
	if 22+tokenLen <= len(data) {
		tokens = append([]byte(nil), data[22:22+tokenLen]...)
	}

	c := Cell{Row: row, Col: col, XFIndex: xf, Kind: CellFormula, FormulaTokens: tokens}

	// A cached result whose last two bytes (6 and 7) are 0xFFFF and
	// whose first byte is 0,1,2,3 signals string/bool/error/blank-string
	// instead of a literal double (spec §4.5.4).
	if result[6] == 0xFF && result[7] == 0xFF {
		switch result[0] {
		case 0:
			c.ResultKind = CellString
		case 1:
			c.ResultKind = CellBool
			c.Bool = result[2] != 0
		case 2:
			c.ResultKind = CellError
			c.ErrCode = result[2]
		default:
			c.ResultKind = CellString
			c.Text = ""
		}
	} else {
		bits := binary.LittleEndian.Uint64(result)
		c.ResultKind = CellNumber
		c.Number = math.Float64frombits(bits)
	}

	return c, shared, nil
}
