// Package shuffle proves that two compressed expression streams are equal as
// multisets of rows, with the grand product
//
//	z(ωX)·(B(X)+β) = z(X)·(A(X)+β)
//
// over the usable rows.
package shuffle

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/multiopen"
	"github.com/eon-protocol/plonkish/poly"
	"github.com/eon-protocol/plonkish/transcript"
)

type Committed struct {
	arg *circuit.ShuffleArgument

	inputCoset, shuffleCoset poly.Polynomial[poly.ExtendedLagrangeCoeff]

	coeffs poly.Polynomial[poly.Coeff]
	coset  poly.Polynomial[poly.ExtendedLagrangeCoeff]
}

// CommitProduct compresses arg with θ and commits its grand product.
func CommitProduct(
	w transcript.Writer,
	scheme commitment.Scheme,
	d *poly.EvaluationDomain,
	arg *circuit.ShuffleArgument,
	lagrange, extended *circuit.Tables,
	theta, beta fr.Element,
	blindingFactors int,
) (*Committed, error) {
	inputGraph := circuit.Compile(circuit.CompressExpressions(arg.Inputs, theta))
	shuffleGraph := circuit.Compile(circuit.CompressExpressions(arg.Shuffles, theta))
	input := inputGraph.Evaluate(lagrange)
	shuffle := shuffleGraph.Evaluate(lagrange)

	usable := d.N - (blindingFactors + 1)
	den := make([]fr.Element, usable)
	poly.Parallelize(usable, func(start, end int) {
		for i := start; i < end; i++ {
			den[i].Add(&shuffle[i], &beta)
		}
	})
	poly.ParallelBatchInvert(den)

	z := d.EmptyLagrange()
	z[0].SetOne()
	var t fr.Element
	for i := 0; i < usable; i++ {
		t.Add(&input[i], &beta).Mul(&t, &den[i])
		z[i+1].Mul(&z[i], &t)
	}
	for i := usable + 1; i < d.N; i++ {
		if _, err := z[i].SetRandom(); err != nil {
			return nil, fmt.Errorf("blind shuffle product: %w", err)
		}
	}

	c, err := scheme.CommitLagrange(z)
	if err != nil {
		return nil, fmt.Errorf("commit shuffle product of %q: %w", arg.Name, err)
	}
	if err := w.WritePoint(c); err != nil {
		return nil, err
	}
	coeffs := d.LagrangeToCoeff(z)
	return &Committed{
		arg:          arg,
		inputCoset:   inputGraph.Evaluate(extended),
		shuffleCoset: shuffleGraph.Evaluate(extended),
		coeffs:       coeffs,
		coset:        d.CoeffToExtended(coeffs),
	}, nil
}

// Accumulate folds l0·(1-z), l_last·(z²-z) and the transition constraint
// into the quotient numerator.
func (c *Committed) Accumulate(values []fr.Element, coset *circuit.Coset, beta fr.Element) {
	one := fr.One()
	z, a, b := c.coset, c.inputCoset, c.shuffleCoset
	coset.Accumulate(values, func(i int) fr.Element {
		var t fr.Element
		t.Sub(&one, &z[i]).Mul(&t, &coset.L0[i])
		return t
	})
	coset.Accumulate(values, func(i int) fr.Element {
		var t fr.Element
		t.Square(&z[i]).Sub(&t, &z[i]).Mul(&t, &coset.LLast[i])
		return t
	})
	coset.Accumulate(values, func(i int) fr.Element {
		var left, right fr.Element
		left.Add(&b[i], &beta).Mul(&left, &z[coset.Rotated(i, poly.Next)])
		right.Add(&a[i], &beta).Mul(&right, &z[i])
		left.Sub(&left, &right).Mul(&left, &coset.LActive[i])
		return left
	})
}

// Evaluate writes z(x) and z(ωx).
func (c *Committed) Evaluate(w transcript.Writer, d *poly.EvaluationDomain, x fr.Element) error {
	for _, q := range c.Queries(d, x) {
		if err := w.WriteScalar(poly.Eval(q.Poly, q.Point)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Committed) Queries(d *poly.EvaluationDomain, x fr.Element) []multiopen.ProverQuery {
	return []multiopen.ProverQuery{
		{Point: x, Poly: c.coeffs},
		{Point: d.RotateOmega(x, poly.Next), Poly: c.coeffs},
	}
}

type VerifierCommitted struct {
	arg     *circuit.ShuffleArgument
	product *commitment.MSM
}

func ReadProduct(r transcript.Reader, arg *circuit.ShuffleArgument) (*VerifierCommitted, error) {
	p, err := r.ReadPoint()
	if err != nil {
		return nil, fmt.Errorf("read shuffle product of %q: %w", arg.Name, err)
	}
	return &VerifierCommitted{arg: arg, product: commitment.Single(p)}, nil
}

type VerifierEvaluated struct {
	*VerifierCommitted
	z, zNext fr.Element
}

func (c *VerifierCommitted) ReadEvals(r transcript.Reader) (*VerifierEvaluated, error) {
	res := &VerifierEvaluated{VerifierCommitted: c}
	for _, e := range []*fr.Element{&res.z, &res.zNext} {
		v, err := r.ReadScalar()
		if err != nil {
			return nil, fmt.Errorf("read evaluation of %q: %w", c.arg.Name, err)
		}
		*e = v
	}
	return res, nil
}

func (e *VerifierEvaluated) Expressions(evals *circuit.QueryEvals, l0, lLast, lBlind, theta, beta fr.Element) []fr.Element {
	one := fr.One()
	var lActive fr.Element
	lActive.Add(&lLast, &lBlind)
	lActive.Sub(&one, &lActive)

	a := circuit.Compress(e.arg.Inputs, theta, evals)
	b := circuit.Compress(e.arg.Shuffles, theta, evals)

	res := make([]fr.Element, 3)
	res[0].Sub(&one, &e.z).Mul(&res[0], &l0)
	res[1].Square(&e.z).Sub(&res[1], &e.z).Mul(&res[1], &lLast)

	var right fr.Element
	res[2].Add(&b, &beta).Mul(&res[2], &e.zNext)
	right.Add(&a, &beta).Mul(&right, &e.z)
	res[2].Sub(&res[2], &right).Mul(&res[2], &lActive)
	return res
}

func (e *VerifierEvaluated) Queries(d *poly.EvaluationDomain, x fr.Element) []multiopen.VerifierQuery {
	return []multiopen.VerifierQuery{
		{Point: x, Commitment: e.product, Eval: e.z},
		{Point: d.RotateOmega(x, poly.Next), Commitment: e.product, Eval: e.zNext},
	}
}
