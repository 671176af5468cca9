// Package shuffled proves that one advice column is a reordering of another.
package shuffled

import (
	"fmt"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/poly"
)

type Config struct {
	Original, Shuffled circuit.Column
	Q                  circuit.Selector
}

// Circuit compares the first Rows cells of both columns, zero padded. Rows
// is part of the circuit shape.
type Circuit struct {
	Rows               int
	Original, Shuffled []circuit.Value
}

func New(rows int, original, shuffled []uint64) *Circuit {
	c := &Circuit{
		Rows:     rows,
		Original: make([]circuit.Value, len(original)),
		Shuffled: make([]circuit.Value, len(shuffled)),
	}
	for i, v := range original {
		c.Original[i] = circuit.KnownUint64(v)
	}
	for i, v := range shuffled {
		c.Shuffled[i] = circuit.KnownUint64(v)
	}
	return c
}

func (*Circuit) Configure(cs *circuit.ConstraintSystem) Config {
	cfg := Config{
		Original: cs.AdviceColumn(),
		Shuffled: cs.AdviceColumn(),
		Q:        cs.Selector(),
	}
	cs.Shuffle("reorder", func(vc *circuit.VirtualCells) ([]circuit.Expression, []circuit.Expression) {
		q := vc.QuerySelector(cfg.Q)
		a := vc.QueryAdvice(cfg.Original, poly.Cur)
		b := vc.QueryAdvice(cfg.Shuffled, poly.Cur)
		return []circuit.Expression{circuit.Mul(q, a)}, []circuit.Expression{circuit.Mul(q, b)}
	})
	return cfg
}

func (me *Circuit) Synthesize(cfg Config, asg circuit.Assignment) error {
	if len(me.Original) > me.Rows || len(me.Shuffled) > me.Rows {
		return fmt.Errorf("%w: %d and %d values for %d rows", circuit.ErrSynthesis, len(me.Original), len(me.Shuffled), me.Rows)
	}
	cell := func(vs []circuit.Value, i int) circuit.Value {
		if i < len(vs) {
			return vs[i]
		}
		return circuit.KnownUint64(0)
	}
	for i := range me.Rows {
		if err := asg.EnableSelector(cfg.Q, i); err != nil {
			return err
		}
		if err := asg.AssignAdvice(cfg.Original, i, cell(me.Original, i)); err != nil {
			return err
		}
		if err := asg.AssignAdvice(cfg.Shuffled, i, cell(me.Shuffled, i)); err != nil {
			return err
		}
	}
	return nil
}
