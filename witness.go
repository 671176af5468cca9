package plonkish

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/circuit"
)

// witnessAssembly collects the advice values of one phase. Fixed cells and
// selectors were fixed at keygen: the synthesis must agree with the key's
// values. Copies are only bounds checked.
type witnessAssembly struct {
	cs     *circuit.ConstraintSystem
	phase  circuit.Phase
	usable int
	// fixed columns of the proving key, selectors expanded
	fixed [][]fr.Element

	advice     [][]fr.Element
	challenges []fr.Element
	// known[i] once challenges[i] has been squeezed
	known []bool
	ns    circuit.Namespace
}

func (me *witnessAssembly) checkRow(row int) error {
	if row < 0 || row >= me.usable {
		return fmt.Errorf("%w: row %d in %s, %d usable rows", circuit.ErrNotEnoughRowsAvailable, row, me.ns, me.usable)
	}
	return nil
}

func (me *witnessAssembly) EnableSelector(s circuit.Selector, row int) error {
	if err := me.checkRow(row); err != nil {
		return err
	}
	col := s.Column()
	if !me.fixed[col.Index][row].IsOne() {
		return fmt.Errorf("%w: selector %s enabled at row %d in %s but not in the key", errCircuitMismatch, col, row, me.ns)
	}
	return nil
}

func (me *witnessAssembly) AssignFixed(col circuit.Column, row int, v fr.Element) error {
	if err := me.checkRow(row); err != nil {
		return err
	}
	if col.Type != circuit.Fixed || col.Index >= len(me.fixed) {
		return fmt.Errorf("%w: %s is not a fixed column", circuit.ErrBoundsFailure, col)
	}
	if !me.fixed[col.Index][row].Equal(&v) {
		return fmt.Errorf("%w: %s differs from the key at row %d in %s", errCircuitMismatch, col, row, me.ns)
	}
	return nil
}

func (me *witnessAssembly) AssignAdvice(col circuit.Column, row int, v circuit.Value) error {
	if err := me.checkRow(row); err != nil {
		return err
	}
	if col.Type != circuit.Advice || col.Index >= len(me.advice) {
		return fmt.Errorf("%w: %s is not an advice column", circuit.ErrBoundsFailure, col)
	}
	if me.cs.AdvicePhases[col.Index] != me.phase {
		return nil
	}
	val, err := v.Get()
	if err != nil {
		return fmt.Errorf("%w: %s at row %d in %s: %w", circuit.ErrSynthesis, col, row, me.ns, err)
	}
	me.advice[col.Index][row] = val
	return nil
}

func (me *witnessAssembly) Copy(_ circuit.Column, leftRow int, _ circuit.Column, rightRow int) error {
	if err := me.checkRow(leftRow); err != nil {
		return err
	}
	return me.checkRow(rightRow)
}

func (me *witnessAssembly) Challenge(ch circuit.Challenge) circuit.Value {
	if ch.Index >= len(me.known) || !me.known[ch.Index] {
		return circuit.Unknown()
	}
	return circuit.Known(me.challenges[ch.Index])
}

func (me *witnessAssembly) PushNamespace(name string) {
	me.ns.Push(name)
}

func (me *witnessAssembly) PopNamespace() {
	me.ns.Pop()
}
