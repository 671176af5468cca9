package plonkish

import (
	"errors"
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/lookup"
	"github.com/eon-protocol/plonkish/multiopen"
	"github.com/eon-protocol/plonkish/permutation"
	"github.com/eon-protocol/plonkish/poly"
	"github.com/eon-protocol/plonkish/shuffle"
	"github.com/eon-protocol/plonkish/transcript"
	"github.com/eon-protocol/plonkish/vanishing"
)

// Verify reads a proof from r and checks it against vk and the instance
// columns. A proof that decodes but does not verify returns an error wrapping
// ErrVerificationFailed; malformed bytes return transcript.ErrDecode.
func Verify(scheme commitment.Scheme, vk *Vk, instances [][]fr.Element, r transcript.Reader) (err error) {
	start := time.Now()
	defer func() { observeVerification(start, err) }()

	cs, d := vk.cs, vk.domain
	if scheme.N() != d.N {
		return fmt.Errorf("%w: params for n = %d, key for n = %d", errInvalidK, scheme.N(), d.N)
	}
	if err := checkInstances(cs, d, instances); err != nil {
		return err
	}
	if err := absorbPublic(r, vk, instances); err != nil {
		return err
	}

	// advice commitments and challenges, phase by phase
	advice := make([]*commitment.MSM, cs.NumAdvice)
	challenges := make([]fr.Element, len(cs.ChallengePhases))
	for _, phase := range cs.Phases() {
		for i, p := range cs.AdvicePhases {
			if p != phase {
				continue
			}
			c, err := r.ReadPoint()
			if err != nil {
				return fmt.Errorf("read advice commitment %d: %w", i, err)
			}
			advice[i] = commitment.Single(c)
		}
		for i, p := range cs.ChallengePhases {
			if p == phase {
				challenges[i] = r.SqueezeChallenge()
			}
		}
	}

	theta := r.SqueezeChallenge()
	permuted := make([]*lookup.VerifierPermuted, len(cs.Lookups))
	for i := range cs.Lookups {
		if permuted[i], err = lookup.ReadPermuted(r, &cs.Lookups[i]); err != nil {
			return err
		}
	}

	beta := r.SqueezeChallenge()
	gamma := r.SqueezeChallenge()
	permArg := permutation.NewArgument(cs)
	permCommitted, err := permArg.ReadCommitments(r)
	if err != nil {
		return err
	}
	lookups := make([]*lookup.VerifierCommitted, len(permuted))
	for i, p := range permuted {
		if lookups[i], err = p.ReadProduct(r); err != nil {
			return err
		}
	}
	shuffles := make([]*shuffle.VerifierCommitted, len(cs.Shuffles))
	for i := range cs.Shuffles {
		if shuffles[i], err = shuffle.ReadProduct(r, &cs.Shuffles[i]); err != nil {
			return err
		}
	}

	y := r.SqueezeChallenge()
	quotient, err := vanishing.ReadCommitments(r, d)
	if err != nil {
		return err
	}

	x := r.SqueezeChallenge()
	evals := &circuit.QueryEvals{
		Advice:     make([]fr.Element, len(cs.AdviceQueries)),
		Fixed:      make([]fr.Element, len(cs.FixedQueries)),
		Instance:   instanceEvals(cs, d, instances, x),
		Challenges: challenges,
	}
	for _, dst := range [][]fr.Element{evals.Advice, evals.Fixed} {
		for i := range dst {
			if dst[i], err = r.ReadScalar(); err != nil {
				return fmt.Errorf("read query evaluation: %w", err)
			}
		}
	}
	common, err := vk.Permutation.ReadEvals(r)
	if err != nil {
		return err
	}
	permEvals, err := permArg.ReadEvals(r, permCommitted)
	if err != nil {
		return err
	}
	lookupEvals := make([]*lookup.VerifierEvaluated, len(lookups))
	for i, l := range lookups {
		if lookupEvals[i], err = l.ReadEvals(r); err != nil {
			return err
		}
	}
	shuffleEvals := make([]*shuffle.VerifierEvaluated, len(shuffles))
	for i, s := range shuffles {
		if shuffleEvals[i], err = s.ReadEvals(r); err != nil {
			return err
		}
	}

	// rows u, u+1..n-1 and 0 as rotations from row 0
	bf := cs.BlindingFactors()
	rows := make([]int, bf+2)
	for i := range rows {
		rows[i] = i - (bf + 1)
	}
	ls := d.LagrangeBasisEvals(x, rows)
	lLast, l0 := ls[0], ls[bf+1]
	var lBlind fr.Element
	for _, l := range ls[1 : bf+1] {
		lBlind.Add(&lBlind, &l)
	}

	var expressions []fr.Element
	for _, gate := range cs.Gates {
		for _, p := range gate.Polys {
			expressions = append(expressions, circuit.Evaluate(p, evals))
		}
	}
	expressions = append(expressions, permArg.Expressions(cs, permEvals, common, evals, l0, lLast, lBlind, beta, gamma, x)...)
	for _, e := range lookupEvals {
		expressions = append(expressions, e.Expressions(evals, l0, lLast, lBlind, theta, beta, gamma)...)
	}
	for _, e := range shuffleEvals {
		expressions = append(expressions, e.Expressions(evals, l0, lLast, lBlind, theta, beta)...)
	}
	h := quotient.Verify(d, expressions, y, x)

	var queries []multiopen.VerifierQuery
	for i, q := range cs.AdviceQueries {
		queries = append(queries, multiopen.VerifierQuery{
			Point:      d.RotateOmega(x, q.Rotation),
			Commitment: advice[q.Column],
			Eval:       evals.Advice[i],
		})
	}
	queries = append(queries, permArg.VerifierQueries(d, permEvals, x)...)
	for _, e := range lookupEvals {
		queries = append(queries, e.Queries(d, x)...)
	}
	for _, e := range shuffleEvals {
		queries = append(queries, e.Queries(d, x)...)
	}
	fixed := make([]*commitment.MSM, len(vk.FixedCommitments))
	for i, c := range vk.FixedCommitments {
		fixed[i] = commitment.Single(c)
	}
	for i, q := range cs.FixedQueries {
		queries = append(queries, multiopen.VerifierQuery{
			Point:      d.RotateOmega(x, q.Rotation),
			Commitment: fixed[q.Column],
			Eval:       evals.Fixed[i],
		})
	}
	queries = append(queries, vk.Permutation.Queries(common, x)...)
	queries = append(queries, h.Queries(x)...)

	if err := multiopen.Verify(r, scheme, queries); err != nil {
		if errors.Is(err, commitment.ErrOpeningFailed) {
			return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
		}
		return err
	}
	return r.Finish()
}

// instanceEvals evaluates every instance query at x: Σ_j v_j·L_j(ω^r x).
func instanceEvals(cs *circuit.ConstraintSystem, d *poly.EvaluationDomain, instances [][]fr.Element, x fr.Element) []fr.Element {
	res := make([]fr.Element, len(cs.InstanceQueries))
	for i, q := range cs.InstanceQueries {
		values := instances[q.Column]
		if len(values) == 0 {
			continue
		}
		rows := make([]int, len(values))
		for j := range rows {
			rows[j] = j
		}
		ls := d.LagrangeBasisEvals(d.RotateOmega(x, q.Rotation), rows)
		var t fr.Element
		for j := range values {
			t.Mul(&values[j], &ls[j])
			res[i].Add(&res[i], &t)
		}
	}
	return res
}

func isVerificationFailure(err error) bool {
	return errors.Is(err, ErrVerificationFailed)
}
