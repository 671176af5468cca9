package circuit

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/poly"
)

// Coset is the extended-coset view of a proof in progress, shared by every
// argument contributing constraints to the quotient.
type Coset struct {
	Domain *poly.EvaluationDomain
	// Tables hold extended evaluations; RotationScale is ExtendedN/N.
	Tables *Tables

	L0, LLast, LActive poly.Polynomial[poly.ExtendedLagrangeCoeff]
	Y                  fr.Element
}

// Accumulate folds one constraint into values: values[i] <- values[i]·y + term(i).
func (c *Coset) Accumulate(values []fr.Element, term func(row int) fr.Element) {
	poly.Parallelize(len(values), func(start, end int) {
		for i := start; i < end; i++ {
			t := term(i)
			values[i].Mul(&values[i], &c.Y).Add(&values[i], &t)
		}
	})
}

// Rotated returns the coset row r rotations away from row.
func (c *Coset) Rotated(row int, r poly.Rotation) int {
	return RotatedRow(row, int(r)*c.Tables.RotationScale, c.Tables.Size)
}

// CompressExpressions returns θ-compression of es in Horner form,
// Σ θ^{m-1-i}·es[i].
func CompressExpressions(es []Expression, theta fr.Element) Expression {
	acc := es[0]
	for _, e := range es[1:] {
		acc = Add(Scale(acc, theta), e)
	}
	return acc
}
