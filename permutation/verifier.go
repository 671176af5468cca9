package permutation

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/multiopen"
	"github.com/eon-protocol/plonkish/poly"
	"github.com/eon-protocol/plonkish/transcript"
)

type verifierSet struct {
	commitment *commitment.MSM
	z, zNext   fr.Element
	zLast      fr.Element
}

type VerifierCommitted struct {
	commitments []*commitment.MSM
}

func (a *Argument) ReadCommitments(r transcript.Reader) (*VerifierCommitted, error) {
	res := &VerifierCommitted{}
	for range a.chunks() {
		c, err := r.ReadPoint()
		if err != nil {
			return nil, fmt.Errorf("read permutation product: %w", err)
		}
		res.commitments = append(res.commitments, commitment.Single(c))
	}
	return res, nil
}

type VerifierEvaluated struct {
	sets []verifierSet
}

func (a *Argument) ReadEvals(r transcript.Reader, committed *VerifierCommitted) (*VerifierEvaluated, error) {
	res := &VerifierEvaluated{sets: make([]verifierSet, len(committed.commitments))}
	for s, c := range committed.commitments {
		set := &res.sets[s]
		set.commitment = c
		dst := []*fr.Element{&set.z, &set.zNext}
		if s < len(committed.commitments)-1 {
			dst = append(dst, &set.zLast)
		}
		for _, e := range dst {
			v, err := r.ReadScalar()
			if err != nil {
				return nil, fmt.Errorf("read permutation evaluation: %w", err)
			}
			*e = v
		}
	}
	return res, nil
}

// CommonEvaluated holds σ_j(x).
type CommonEvaluated struct {
	Evals []fr.Element
}

func (vk *VerifyingKey) ReadEvals(r transcript.Reader) (*CommonEvaluated, error) {
	res := &CommonEvaluated{Evals: make([]fr.Element, len(vk.Commitments))}
	for j := range res.Evals {
		v, err := r.ReadScalar()
		if err != nil {
			return nil, fmt.Errorf("read permutation common evaluation: %w", err)
		}
		res.Evals[j] = v
	}
	return res, nil
}

// Expressions evaluates at x the constraints folded by Accumulate, in the
// same order. lBlind is the sum of the Lagrange basis over the blinding rows.
func (a *Argument) Expressions(
	cs *circuit.ConstraintSystem,
	e *VerifierEvaluated,
	common *CommonEvaluated,
	evals *circuit.QueryEvals,
	l0, lLast, lBlind fr.Element,
	beta, gamma, x fr.Element,
) []fr.Element {
	if len(e.sets) == 0 {
		return nil
	}
	one := fr.One()
	var res []fr.Element
	var t fr.Element

	t.Sub(&one, &e.sets[0].z).Mul(&t, &l0)
	res = append(res, t)

	last := &e.sets[len(e.sets)-1]
	t.Square(&last.z).Sub(&t, &last.z).Mul(&t, &lLast)
	res = append(res, t)

	for s := 1; s < len(e.sets); s++ {
		t.Sub(&e.sets[s].z, &e.sets[s-1].zLast).Mul(&t, &l0)
		res = append(res, t)
	}

	var lActive fr.Element
	lActive.Add(&lLast, &lBlind)
	lActive.Sub(&one, &lActive)

	deltas := poly.Powers(Delta, len(a.Columns))
	var betaX fr.Element
	betaX.Mul(&beta, &x)
	for chunkIdx, columns := range a.chunks() {
		offset := chunkIdx * a.ChunkLen
		set := &e.sets[chunkIdx]
		left, right := set.zNext, set.z
		for j, col := range columns {
			v := evals.At(cs, col, poly.Cur)
			t.Mul(&beta, &common.Evals[offset+j]).Add(&t, &gamma).Add(&t, &v)
			left.Mul(&left, &t)
			t.Mul(&betaX, &deltas[offset+j]).Add(&t, &gamma).Add(&t, &v)
			right.Mul(&right, &t)
		}
		left.Sub(&left, &right).Mul(&left, &lActive)
		res = append(res, left)
	}
	return res
}

func (a *Argument) VerifierQueries(d *poly.EvaluationDomain, e *VerifierEvaluated, x fr.Element) []multiopen.VerifierQuery {
	xNext := d.RotateOmega(x, poly.Next)
	xLast := d.RotateOmega(x, a.lastRotation())
	var res []multiopen.VerifierQuery
	for s, set := range e.sets {
		res = append(res,
			multiopen.VerifierQuery{Point: x, Commitment: set.commitment, Eval: set.z},
			multiopen.VerifierQuery{Point: xNext, Commitment: set.commitment, Eval: set.zNext},
		)
		if s < len(e.sets)-1 {
			res = append(res, multiopen.VerifierQuery{Point: xLast, Commitment: set.commitment, Eval: set.zLast})
		}
	}
	return res
}

func (vk *VerifyingKey) Queries(common *CommonEvaluated, x fr.Element) []multiopen.VerifierQuery {
	res := make([]multiopen.VerifierQuery, len(vk.Commitments))
	for j, c := range vk.Commitments {
		res[j] = multiopen.VerifierQuery{Point: x, Commitment: commitment.Single(c), Eval: common.Evals[j]}
	}
	return res
}
