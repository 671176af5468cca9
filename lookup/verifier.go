package lookup

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/multiopen"
	"github.com/eon-protocol/plonkish/poly"
	"github.com/eon-protocol/plonkish/transcript"
)

// VerifierPermuted holds [A′], [S′] or [m].
type VerifierPermuted struct {
	arg                          *circuit.LookupArgument
	permutedInput, permutedTable *commitment.MSM
	multiplicities               *commitment.MSM
}

func readPoint(r transcript.Reader, what, name string) (*commitment.MSM, error) {
	p, err := r.ReadPoint()
	if err != nil {
		return nil, fmt.Errorf("read %s of %q: %w", what, name, err)
	}
	return commitment.Single(p), nil
}

func ReadPermuted(r transcript.Reader, arg *circuit.LookupArgument) (*VerifierPermuted, error) {
	res := &VerifierPermuted{arg: arg}
	var err error
	if arg.Kind == circuit.SortedLookup {
		if res.permutedInput, err = readPoint(r, "permuted input", arg.Name); err != nil {
			return nil, err
		}
		if res.permutedTable, err = readPoint(r, "permuted table", arg.Name); err != nil {
			return nil, err
		}
		return res, nil
	}
	if res.multiplicities, err = readPoint(r, "multiplicities", arg.Name); err != nil {
		return nil, err
	}
	return res, nil
}

type VerifierCommitted struct {
	*VerifierPermuted
	product *commitment.MSM
}

func (p *VerifierPermuted) ReadProduct(r transcript.Reader) (*VerifierCommitted, error) {
	product, err := readPoint(r, "product", p.arg.Name)
	if err != nil {
		return nil, err
	}
	return &VerifierCommitted{VerifierPermuted: p, product: product}, nil
}

type VerifierEvaluated struct {
	*VerifierCommitted
	z, zNext             fr.Element
	aPrime, aPrimePrev   fr.Element
	sPrime, multiplicity fr.Element
}

func (c *VerifierCommitted) ReadEvals(r transcript.Reader) (*VerifierEvaluated, error) {
	res := &VerifierEvaluated{VerifierCommitted: c}
	dst := []*fr.Element{&res.z, &res.zNext}
	if c.arg.Kind == circuit.SortedLookup {
		dst = append(dst, &res.aPrime, &res.aPrimePrev, &res.sPrime)
	} else {
		dst = append(dst, &res.multiplicity)
	}
	for _, e := range dst {
		v, err := r.ReadScalar()
		if err != nil {
			return nil, fmt.Errorf("read evaluation of %q: %w", c.arg.Name, err)
		}
		*e = v
	}
	return res, nil
}

// Expressions evaluates at x the constraints folded by Committed.Accumulate,
// in the same order.
func (e *VerifierEvaluated) Expressions(evals *circuit.QueryEvals, l0, lLast, lBlind, theta, beta, gamma fr.Element) []fr.Element {
	one := fr.One()
	var lActive fr.Element
	lActive.Add(&lLast, &lBlind)
	lActive.Sub(&one, &lActive)

	a := circuit.Compress(e.arg.Inputs, theta, evals)
	s := circuit.Compress(e.arg.Tables, theta, evals)

	var res []fr.Element
	var t, u fr.Element

	if e.arg.Kind == circuit.SortedLookup {
		t.Sub(&one, &e.z).Mul(&t, &l0)
		res = append(res, t)

		t.Square(&e.z).Sub(&t, &e.z).Mul(&t, &lLast)
		res = append(res, t)

		var left, right fr.Element
		left.Add(&e.aPrime, &beta)
		t.Add(&e.sPrime, &gamma)
		left.Mul(&left, &t).Mul(&left, &e.zNext)
		right.Add(&a, &beta)
		t.Add(&s, &gamma)
		right.Mul(&right, &t).Mul(&right, &e.z)
		left.Sub(&left, &right).Mul(&left, &lActive)
		res = append(res, left)

		t.Sub(&e.aPrime, &e.sPrime).Mul(&t, &l0)
		res = append(res, t)

		t.Sub(&e.aPrime, &e.sPrime)
		u.Sub(&e.aPrime, &e.aPrimePrev)
		t.Mul(&t, &u).Mul(&t, &lActive)
		return append(res, t)
	}

	t.Mul(&e.z, &l0)
	res = append(res, t)

	t.Mul(&e.z, &lLast)
	res = append(res, t)

	var aBeta, sBeta, left, right fr.Element
	aBeta.Add(&a, &beta)
	sBeta.Add(&s, &beta)
	left.Sub(&e.zNext, &e.z).Mul(&left, &aBeta).Mul(&left, &sBeta)
	right.Mul(&e.multiplicity, &aBeta)
	right.Sub(&sBeta, &right)
	left.Sub(&left, &right).Mul(&left, &lActive)
	return append(res, left)
}

// Queries mirrors Committed.Queries.
func (e *VerifierEvaluated) Queries(d *poly.EvaluationDomain, x fr.Element) []multiopen.VerifierQuery {
	res := []multiopen.VerifierQuery{
		{Point: x, Commitment: e.product, Eval: e.z},
		{Point: d.RotateOmega(x, poly.Next), Commitment: e.product, Eval: e.zNext},
	}
	if e.arg.Kind == circuit.SortedLookup {
		return append(res,
			multiopen.VerifierQuery{Point: x, Commitment: e.permutedInput, Eval: e.aPrime},
			multiopen.VerifierQuery{Point: d.RotateOmega(x, poly.Prev), Commitment: e.permutedInput, Eval: e.aPrimePrev},
			multiopen.VerifierQuery{Point: x, Commitment: e.permutedTable, Eval: e.sPrime},
		)
	}
	return append(res, multiopen.VerifierQuery{Point: x, Commitment: e.multiplicities, Eval: e.multiplicity})
}
