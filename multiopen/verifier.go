package multiopen

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/transcript"
)

// VerifierQuery claims that the commitment Commitment evaluates to Eval at
// Point. Queries on the same commitment must share the MSM pointer.
type VerifierQuery struct {
	Point      fr.Element
	Commitment *commitment.MSM
	Eval       fr.Element
}

// Verify reads [f] and the final opening from r and checks every query.
func Verify(r transcript.Reader, scheme commitment.Scheme, queries []VerifierQuery) error {
	if len(queries) == 0 {
		return errNoQueries
	}
	qs := make([]query[*commitment.MSM], len(queries))
	for i, q := range queries {
		qs[i] = query[*commitment.MSM]{poly: q.Commitment, point: q.Point, eval: q.Eval}
	}
	points, groups := construct(qs)

	x1 := r.SqueezeChallenge()
	x2 := r.SqueezeChallenge()

	fCommitment, err := r.ReadPoint()
	if err != nil {
		return fmt.Errorf("read f: %w", err)
	}

	u := r.SqueezeChallenge()
	weights, rEvals, zT := linearisation(points, groups, x1, x2, u)

	msm := commitment.NewMSM()
	var value, t fr.Element
	one := fr.One()
	for s, g := range groups {
		q := commitment.NewMSM()
		for _, c := range g.polys {
			q.Scale(x1).AddMSM(c, one)
		}
		msm.AddMSM(q, weights[s])

		t.Mul(&weights[s], &rEvals[s])
		value.Add(&value, &t)
	}
	var negZT fr.Element
	negZT.Neg(&zT)
	msm.Append(negZT, fCommitment)

	return scheme.Verify(r, msm, u, value)
}
