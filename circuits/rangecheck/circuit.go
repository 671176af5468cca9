// Package rangecheck checks that advice values lie in [0, 2^Bits) with a
// lookup into a fixed table.
package rangecheck

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/poly"
)

type Config struct {
	Value circuit.Column
	Table circuit.Column
	Q     circuit.Selector
}

// Circuit checks Rows values. Rows is part of the circuit shape: the prover
// and the key must agree on it.
type Circuit struct {
	Kind   circuit.LookupKind
	Bits   int
	Rows   int
	Values []circuit.Value
}

// New returns a circuit checking values over rows rows, padded with zeros.
// Values are not checked: an out of range value yields a proof that does not
// verify.
func New(kind circuit.LookupKind, bits, rows int, values ...uint64) *Circuit {
	c := &Circuit{Kind: kind, Bits: bits, Rows: rows, Values: make([]circuit.Value, len(values))}
	for i, v := range values {
		c.Values[i] = circuit.KnownUint64(v)
	}
	return c
}

func (me *Circuit) Configure(cs *circuit.ConstraintSystem) Config {
	cfg := Config{
		Value: cs.AdviceColumn(),
		Table: cs.FixedColumn(),
		Q:     cs.Selector(),
	}
	cs.Lookup(fmt.Sprintf("range %d bits", me.Bits), me.Kind, func(vc *circuit.VirtualCells) ([]circuit.Expression, []circuit.Expression) {
		q := vc.QuerySelector(cfg.Q)
		v := vc.QueryAdvice(cfg.Value, poly.Cur)
		return []circuit.Expression{circuit.Mul(q, v)}, []circuit.Expression{vc.QueryFixed(cfg.Table, poly.Cur)}
	})
	return cfg
}

func (me *Circuit) Synthesize(cfg Config, asg circuit.Assignment) error {
	asg.PushNamespace("table")
	for i := range 1 << me.Bits {
		if err := asg.AssignFixed(cfg.Table, i, fr.NewElement(uint64(i))); err != nil {
			return err
		}
	}
	asg.PopNamespace()

	asg.PushNamespace("values")
	defer asg.PopNamespace()
	if len(me.Values) > me.Rows {
		return fmt.Errorf("%w: %d values for %d rows", circuit.ErrSynthesis, len(me.Values), me.Rows)
	}
	for i := range me.Rows {
		v := circuit.KnownUint64(0)
		if i < len(me.Values) {
			v = me.Values[i]
		}
		if err := asg.EnableSelector(cfg.Q, i); err != nil {
			return err
		}
		if err := asg.AssignAdvice(cfg.Value, i, v); err != nil {
			return err
		}
	}
	return nil
}
