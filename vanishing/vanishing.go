// Package vanishing commits to the quotient h = (Σ y^i·c_i) / (Xⁿ-1) of the
// combined constraints and checks it at the opening point.
package vanishing

import (
	"fmt"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/multiopen"
	"github.com/eon-protocol/plonkish/poly"
	"github.com/eon-protocol/plonkish/transcript"
)

// Committed holds the pieces h_i of h = Σ X^{n·i} h_i.
type Committed struct {
	pieces []poly.Polynomial[poly.Coeff]
}

// Commit divides the y-combined constraint evaluations over the extended
// coset by Xⁿ-1, splits the quotient into pieces of n coefficients and writes
// their commitments.
func Commit(w transcript.Writer, scheme commitment.Scheme, d *poly.EvaluationDomain, numerator poly.Polynomial[poly.ExtendedLagrangeCoeff]) (*Committed, error) {
	h := d.ExtendedToCoeff(d.DivideByVanishingPoly(numerator))
	h = h[:d.N*d.QuotientDegree]

	res := &Committed{pieces: make([]poly.Polynomial[poly.Coeff], d.QuotientDegree)}
	for i := range res.pieces {
		res.pieces[i] = h[i*d.N : (i+1)*d.N]
		c, err := scheme.Commit(res.pieces[i])
		if err != nil {
			return nil, fmt.Errorf("commit quotient piece %d: %w", i, err)
		}
		if err := w.WritePoint(c); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Evaluated is h collapsed at x: Σ x^{n·i} h_i(X), a polynomial of degree
// below n agreeing with h at x.
type Evaluated struct {
	h poly.Polynomial[poly.Coeff]
}

func (c *Committed) Evaluate(d *poly.EvaluationDomain, x fr.Element) *Evaluated {
	xn := xToN(d, x)
	h := d.EmptyCoeff()
	for i := len(c.pieces) - 1; i >= 0; i-- {
		p := c.pieces[i]
		poly.Parallelize(len(h), func(start, end int) {
			for j := start; j < end; j++ {
				h[j].Mul(&h[j], &xn).Add(&h[j], &p[j])
			}
		})
	}
	return &Evaluated{h: h}
}

func (e *Evaluated) Queries(x fr.Element) []multiopen.ProverQuery {
	return []multiopen.ProverQuery{{Point: x, Poly: e.h}}
}

type VerifierCommitted struct {
	pieces []bls12381.G1Affine
}

func ReadCommitments(r transcript.Reader, d *poly.EvaluationDomain) (*VerifierCommitted, error) {
	res := &VerifierCommitted{pieces: make([]bls12381.G1Affine, d.QuotientDegree)}
	for i := range res.pieces {
		p, err := r.ReadPoint()
		if err != nil {
			return nil, fmt.Errorf("read quotient piece %d: %w", i, err)
		}
		res.pieces[i] = p
	}
	return res, nil
}

type VerifierEvaluated struct {
	commitment *commitment.MSM
	expected   fr.Element
}

// Verify derives the value h(x) must take from the constraint evaluations at
// x, combined with y in the order the prover folded them, and the
// commitment [h] = Σ x^{n·i}[h_i].
func (c *VerifierCommitted) Verify(d *poly.EvaluationDomain, expressions []fr.Element, y, x fr.Element) *VerifierEvaluated {
	var expected fr.Element
	for i := range expressions {
		expected.Mul(&expected, &y).Add(&expected, &expressions[i])
	}
	zh := d.VanishingEval(x)
	zh.Inverse(&zh)
	expected.Mul(&expected, &zh)

	xn := xToN(d, x)
	msm := commitment.NewMSM()
	scale := fr.One()
	for _, p := range c.pieces {
		msm.Append(scale, p)
		scale.Mul(&scale, &xn)
	}
	return &VerifierEvaluated{commitment: msm, expected: expected}
}

func (e *VerifierEvaluated) Queries(x fr.Element) []multiopen.VerifierQuery {
	return []multiopen.VerifierQuery{{Point: x, Commitment: e.commitment, Eval: e.expected}}
}

func xToN(d *poly.EvaluationDomain, x fr.Element) fr.Element {
	var res fr.Element
	res.Exp(x, big.NewInt(int64(d.N)))
	return res
}
