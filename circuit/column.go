package circuit

import (
	"fmt"

	"github.com/eon-protocol/plonkish/poly"
)

type ColumnType uint8

const (
	Fixed ColumnType = iota
	Advice
	Instance
)

func (t ColumnType) String() string {
	switch t {
	case Fixed:
		return "fixed"
	case Advice:
		return "advice"
	case Instance:
		return "instance"
	}
	return fmt.Sprintf("column_type(%d)", uint8(t))
}

// Column is a typed reference to a column of the circuit table.
type Column struct {
	Index int        `cbor:"1,keyasint"`
	Type  ColumnType `cbor:"2,keyasint"`
}

func (c Column) String() string {
	return fmt.Sprintf("%s[%d]", c.Type, c.Index)
}

// Phase orders advice commitments: advice columns of phase p may depend on
// challenges squeezed after phase p-1.
type Phase uint8

const (
	FirstPhase Phase = iota
	SecondPhase
	ThirdPhase
)

// ColumnQuery is a (column, rotation) pair.
type ColumnQuery struct {
	Column   int           `cbor:"1,keyasint"`
	Rotation poly.Rotation `cbor:"2,keyasint"`
}

// Selector is a simple selector, backed by a dedicated fixed column holding 0/1.
type Selector struct {
	column Column
}

func (s Selector) Column() Column {
	return s.column
}
