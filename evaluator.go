package plonkish

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/poly"
)

// evaluator holds every gate constraint flattened into a single graph, so that
// shared subexpressions are computed once per row.
type evaluator struct {
	graph       *circuit.Graph
	constraints []circuit.ValueSource
}

func newEvaluator(cs *circuit.ConstraintSystem) *evaluator {
	ev := &evaluator{graph: circuit.NewGraph()}
	for _, gate := range cs.Gates {
		for _, p := range gate.Polys {
			ev.constraints = append(ev.constraints, ev.graph.Add(p))
		}
	}
	return ev
}

// evaluate returns Σ y^{m-1-i}·c_i over the extended coset, where c_i are the
// gate constraints in declaration order.
func (me *evaluator) evaluate(c *circuit.Coset) poly.Polynomial[poly.ExtendedLagrangeCoeff] {
	values := c.Domain.EmptyExtended()
	if len(me.constraints) == 0 {
		return values
	}
	poly.Parallelize(len(values), func(start, end int) {
		s := me.graph.NewScratch()
		for row := start; row < end; row++ {
			me.graph.Compute(c.Tables, row, s)
			var acc fr.Element
			for _, src := range me.constraints {
				v := me.graph.Value(src, c.Tables, s)
				acc.Mul(&acc, &c.Y).Add(&acc, &v)
			}
			values[row] = acc
		}
	})
	return values
}
