package biff

import (
	"encoding/binary"
	"fmt"

	"github.com/asportagro/gosheet/ptg"
)

// SharedFormulaGroup is a decoded SHRFMLA record: the rectangular
// range its member cells span and the base-anchor token stream every
// member's FORMULA record's relative offsets are interpreted against
// (spec §4.5.4). The base anchor is the group's top-left cell.
type SharedFormulaGroup struct {
	FirstRow, LastRow int
	FirstCol, LastCol int
	Tokens            []byte
}

// ParseSharedFormulaGroup decodes a SHRFMLA record payload.
func ParseSharedFormulaGroup(data []byte) (SharedFormulaGroup, error) {
	if len(data) < 10 {
		return SharedFormulaGroup{}, fmt.Errorf("biff: SHRFMLA record too short")
	}
	g := SharedFormulaGroup{
		FirstRow: int(binary.LittleEndian.Uint16(data[0:2])),
		LastRow:  int(binary.LittleEndian.Uint16(data[2:4])),
		FirstCol: int(data[4]),
		LastCol:  int(data[5]),
	}
	tokenLen := int(binary.LittleEndian.Uint16(data[8:10]))
	if 10+tokenLen <= len(data) {
		g.Tokens = append([]byte(nil), data[10:10+tokenLen]...)
	}
	return g, nil
}

// Contains reports whether (row, col) falls inside the group's range.
func (g SharedFormulaGroup) Contains(row, col int) bool {
	return row >= g.FirstRow && row <= g.LastRow && col >= g.FirstCol && col <= g.LastCol
}

// ResolveFormula decodes a cell's formula tokens into infix text. When
// the cell belongs to a shared-formula group, group.Tokens (the
// group's base-anchor token stream) is decoded instead of the cell's
// own tokens, with the base/target distinction from spec §4.4.3
// supplied via ctx — the cell's own FORMULA record only ever carries
// real tokens for the group's anchor cell itself; every other member
// stores a tExp placeholder pointing back at the anchor.
func ResolveFormula(cell Cell, group *SharedFormulaGroup) (string, error) {
	tokens := cell.FormulaTokens
	ctx := ptg.CellContext{TargetRow: cell.Row, TargetCol: cell.Col}
	if group != nil {
		tokens = group.Tokens
		ctx.BaseRow, ctx.BaseCol = group.FirstRow, group.FirstCol
		ctx.HasBase = true
	}
	text, err := ptg.Decode(tokens, ctx)
	if err != nil {
		return text, fmt.Errorf("biff: resolving formula at row %d col %d: %w", cell.Row, cell.Col, err)
	}
	return text, nil
}
