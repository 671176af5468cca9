// Package mul is the smallest useful circuit: c = a·b, with c exposed as the
// first public input.
package mul

import (
	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/poly"
)

type Config struct {
	A, B, C  circuit.Column
	Instance circuit.Column
	SMul     circuit.Selector
	SPub     circuit.Selector
}

// Circuit proves knowledge of A and B with A·B equal to the public input.
type Circuit struct {
	A, B circuit.Value
}

func New(a, b uint64) *Circuit {
	return &Circuit{A: circuit.KnownUint64(a), B: circuit.KnownUint64(b)}
}

func (*Circuit) Configure(cs *circuit.ConstraintSystem) Config {
	cfg := Config{
		A:        cs.AdviceColumn(),
		B:        cs.AdviceColumn(),
		C:        cs.AdviceColumn(),
		Instance: cs.InstanceColumn(),
		SMul:     cs.Selector(),
		SPub:     cs.Selector(),
	}
	cs.EnableEquality(cfg.A)
	cs.EnableEquality(cfg.C)

	cs.CreateGate("mul", func(vc *circuit.VirtualCells) []circuit.Expression {
		s := vc.QuerySelector(cfg.SMul)
		a := vc.QueryAdvice(cfg.A, poly.Cur)
		b := vc.QueryAdvice(cfg.B, poly.Cur)
		c := vc.QueryAdvice(cfg.C, poly.Cur)
		return []circuit.Expression{circuit.Mul(s, circuit.Sub(circuit.Mul(a, b), c))}
	})
	// the product is copied into a on the next row and checked against the
	// instance of the previous row
	cs.CreateGate("public input", func(vc *circuit.VirtualCells) []circuit.Expression {
		s := vc.QuerySelector(cfg.SPub)
		a := vc.QueryAdvice(cfg.A, poly.Cur)
		pub := vc.QueryInstance(cfg.Instance, poly.Prev)
		return []circuit.Expression{circuit.Mul(s, circuit.Sub(a, pub))}
	})
	return cfg
}

func (me *Circuit) Synthesize(cfg Config, asg circuit.Assignment) error {
	asg.PushNamespace("mul")
	defer asg.PopNamespace()

	if err := asg.EnableSelector(cfg.SMul, 0); err != nil {
		return err
	}
	if err := asg.EnableSelector(cfg.SPub, 1); err != nil {
		return err
	}
	c := me.A.Mul(me.B)
	for _, cell := range []struct {
		col circuit.Column
		row int
		v   circuit.Value
	}{
		{cfg.A, 0, me.A},
		{cfg.B, 0, me.B},
		{cfg.C, 0, c},
		{cfg.A, 1, c},
	} {
		if err := asg.AssignAdvice(cell.col, cell.row, cell.v); err != nil {
			return err
		}
	}
	return asg.Copy(cfg.C, 0, cfg.A, 1)
}
