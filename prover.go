package plonkish

import (
	"bytes"
	"fmt"
	"time"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

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

// Prove writes to w a proof that c, with the given instance columns, is
// satisfied. Each instance column holds at most UsableRows values; missing
// rows are zero.
func Prove[C any](scheme commitment.Scheme, pk *Pk, c circuit.Circuit[C], instances [][]fr.Element, w transcript.Writer) (err error) {
	start := time.Now()
	defer func() { observeProof(start, err) }()

	vk := pk.vk
	if scheme.N() != vk.domain.N {
		return fmt.Errorf("%w: params for n = %d, key for n = %d", errInvalidK, scheme.N(), vk.domain.N)
	}
	if err := checkInstances(vk.cs, vk.domain, instances); err != nil {
		return err
	}

	log := logger.Logger().With().
		Str("backend", "plonkish").
		Uint8("k", vk.domain.K).
		Int("nbAdvice", vk.cs.NumAdvice).
		Int("nbLookups", len(vk.cs.Lookups)).Logger()

	inst := &proverInstance[C]{
		scheme:    scheme,
		pk:        pk,
		cs:        vk.cs,
		d:         vk.domain,
		w:         w,
		log:       &log,
		circuit:   c,
		instances: instances,
	}
	for _, step := range []func() error{
		inst.absorbInstances,
		inst.commitAdvice,
		inst.commitPermuted,
		inst.commitProducts,
		inst.commitQuotient,
		inst.evaluate,
		inst.open,
	} {
		if err := step(); err != nil {
			return err
		}
	}

	log.Debug().Dur("took", time.Since(start)).Msg("prover done")
	return nil
}

type proverInstance[C any] struct {
	scheme commitment.Scheme
	pk     *Pk
	cs     *circuit.ConstraintSystem
	d      *poly.EvaluationDomain
	w      transcript.Writer
	log    *zerolog.Logger

	circuit   circuit.Circuit[C]
	instances [][]fr.Element

	lagrange, extended *circuit.Tables
	adviceValues       [][]fr.Element
	advicePolys        []poly.Polynomial[poly.Coeff]
	instancePolys      []poly.Polynomial[poly.Coeff]

	theta, beta, gamma, y, x fr.Element

	permArg   *permutation.Argument
	perm      *permutation.Committed
	permEvals *permutation.Evaluated
	permuted  []*lookup.Permuted
	lookups   []*lookup.Committed
	shuffles  []*shuffle.Committed
	quotient  *vanishing.Committed
}

func checkInstances(cs *circuit.ConstraintSystem, d *poly.EvaluationDomain, instances [][]fr.Element) error {
	if len(instances) != cs.NumInstance {
		return fmt.Errorf("%w: %d columns, circuit has %d", ErrInvalidInstances, len(instances), cs.NumInstance)
	}
	usable := cs.UsableRows(d.N)
	for i, col := range instances {
		if len(col) > usable {
			return fmt.Errorf("%w: column %d has %d values, %d usable rows", ErrInvalidInstances, i, len(col), usable)
		}
	}
	return nil
}

// absorbPublic absorbs the key digest and every instance value.
func absorbPublic(t transcript.Transcript, vk *Vk, instances [][]fr.Element) error {
	if err := t.CommonScalar(vk.digest); err != nil {
		return err
	}
	for _, col := range instances {
		if err := t.CommonScalar(fr.NewElement(uint64(len(col)))); err != nil {
			return err
		}
		for _, v := range col {
			if err := t.CommonScalar(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// absorbInstances absorbs the public inputs and interpolates the instance
// columns.
func (me *proverInstance[C]) absorbInstances() error {
	if err := absorbPublic(me.w, me.pk.vk, me.instances); err != nil {
		return err
	}
	values := make([][]fr.Element, len(me.instances))
	me.instancePolys = make([]poly.Polynomial[poly.Coeff], len(me.instances))
	for i, col := range me.instances {
		v := me.d.EmptyLagrange()
		copy(v, col)
		values[i] = v
		me.instancePolys[i] = me.d.LagrangeToCoeff(v)
	}
	me.lagrange = &circuit.Tables{
		Fixed:         columns(me.pk.fixedValues),
		Instance:      values,
		RotationScale: 1,
		Size:          me.d.N,
	}
	return nil
}

// commitAdvice synthesizes the circuit once per phase, committing the advice
// columns of the phase and squeezing its challenges before the next one.
func (me *proverInstance[C]) commitAdvice() error {
	cs := circuit.NewConstraintSystem()
	config := me.circuit.Configure(cs)
	got, err := cs.MarshalBinary()
	if err != nil {
		return err
	}
	want, err := me.cs.MarshalBinary()
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return errCircuitMismatch
	}

	n, usable := me.d.N, me.cs.UsableRows(me.d.N)
	me.adviceValues = make([][]fr.Element, me.cs.NumAdvice)
	for i := range me.adviceValues {
		me.adviceValues[i] = me.d.EmptyLagrange()
	}
	challenges := make([]fr.Element, len(me.cs.ChallengePhases))
	known := make([]bool, len(challenges))
	me.advicePolys = make([]poly.Polynomial[poly.Coeff], me.cs.NumAdvice)

	for _, phase := range me.cs.Phases() {
		asm := &witnessAssembly{
			cs:         me.cs,
			phase:      phase,
			usable:     usable,
			fixed:      me.lagrange.Fixed,
			advice:     me.adviceValues,
			challenges: challenges,
			known:      known,
		}
		if err := me.circuit.Synthesize(config, asm); err != nil {
			return fmt.Errorf("synthesize phase %d: %w", phase, err)
		}

		var cols []int
		for i, p := range me.cs.AdvicePhases {
			if p == phase {
				cols = append(cols, i)
			}
		}
		commitments := make([]bls12381.G1Affine, len(cols))
		g := new(errgroup.Group)
		for j, col := range cols {
			g.Go(func() (err error) {
				values := me.adviceValues[col]
				for row := usable; row < n; row++ {
					if _, err := values[row].SetRandom(); err != nil {
						return fmt.Errorf("blind advice column %d: %w", col, err)
					}
				}
				if commitments[j], err = me.scheme.CommitLagrange(values); err != nil {
					return fmt.Errorf("commit advice column %d: %w", col, err)
				}
				me.advicePolys[col] = me.d.LagrangeToCoeff(values)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for _, c := range commitments {
			if err := me.w.WritePoint(c); err != nil {
				return err
			}
		}

		for i, p := range me.cs.ChallengePhases {
			if p == phase {
				challenges[i] = me.w.SqueezeChallenge()
				known[i] = true
			}
		}
		me.log.Debug().Uint8("phase", uint8(phase)).Int("columns", len(cols)).Msg("advice committed")
	}

	me.lagrange.Advice = me.adviceValues
	me.lagrange.Challenges = challenges
	me.extended = &circuit.Tables{
		Fixed:         columns(me.pk.fixedCosets),
		Advice:        make([][]fr.Element, me.cs.NumAdvice),
		Instance:      make([][]fr.Element, me.cs.NumInstance),
		Challenges:    challenges,
		RotationScale: me.d.RotationScale(),
		Size:          me.d.ExtendedN,
	}
	poly.Parallelize(me.cs.NumAdvice, func(start, end int) {
		for i := start; i < end; i++ {
			me.extended.Advice[i] = me.d.CoeffToExtended(me.advicePolys[i])
		}
	})
	for i, p := range me.instancePolys {
		me.extended.Instance[i] = me.d.CoeffToExtended(p)
	}
	return nil
}

func (me *proverInstance[C]) commitPermuted() (err error) {
	me.theta = me.w.SqueezeChallenge()
	bf := me.cs.BlindingFactors()
	me.permuted = make([]*lookup.Permuted, len(me.cs.Lookups))
	for i := range me.cs.Lookups {
		me.permuted[i], err = lookup.CommitPermuted(me.w, me.scheme, me.d, &me.cs.Lookups[i], me.lagrange, me.extended, me.theta, bf)
		if err != nil {
			return err
		}
	}
	return nil
}

func (me *proverInstance[C]) commitProducts() (err error) {
	me.beta = me.w.SqueezeChallenge()
	me.gamma = me.w.SqueezeChallenge()
	bf := me.cs.BlindingFactors()

	me.permArg = permutation.NewArgument(me.cs)
	if me.perm, err = me.permArg.Commit(me.w, me.scheme, me.d, me.pk.permutation, me.lagrange, me.beta, me.gamma); err != nil {
		return err
	}
	me.lookups = make([]*lookup.Committed, len(me.permuted))
	for i, p := range me.permuted {
		if me.lookups[i], err = p.CommitProduct(me.w, me.scheme, me.d, me.beta, me.gamma, bf); err != nil {
			return err
		}
	}
	me.shuffles = make([]*shuffle.Committed, len(me.cs.Shuffles))
	for i := range me.cs.Shuffles {
		me.shuffles[i], err = shuffle.CommitProduct(me.w, me.scheme, me.d, &me.cs.Shuffles[i], me.lagrange, me.extended, me.theta, me.beta, bf)
		if err != nil {
			return err
		}
	}
	return nil
}

// commitQuotient folds gates, permutation, lookups and shuffles with y, in
// that order, and commits to the quotient.
func (me *proverInstance[C]) commitQuotient() (err error) {
	me.y = me.w.SqueezeChallenge()
	coset := &circuit.Coset{
		Domain:  me.d,
		Tables:  me.extended,
		L0:      me.pk.l0,
		LLast:   me.pk.lLast,
		LActive: me.pk.lActive,
		Y:       me.y,
	}
	values := me.pk.ev.evaluate(coset)
	me.permArg.Accumulate(values, coset, me.pk.permutation, me.perm, me.beta, me.gamma)
	for _, l := range me.lookups {
		l.Accumulate(values, coset, me.beta, me.gamma)
	}
	for _, s := range me.shuffles {
		s.Accumulate(values, coset, me.beta)
	}
	me.quotient, err = vanishing.Commit(me.w, me.scheme, me.d, values)
	return err
}

func (me *proverInstance[C]) evaluate() (err error) {
	me.x = me.w.SqueezeChallenge()
	for _, q := range me.cs.AdviceQueries {
		if err := me.w.WriteScalar(poly.Eval(me.advicePolys[q.Column], me.d.RotateOmega(me.x, q.Rotation))); err != nil {
			return err
		}
	}
	for _, q := range me.cs.FixedQueries {
		if err := me.w.WriteScalar(poly.Eval(me.pk.fixedPolys[q.Column], me.d.RotateOmega(me.x, q.Rotation))); err != nil {
			return err
		}
	}
	if err := me.pk.permutation.Evaluate(me.w, me.x); err != nil {
		return err
	}
	if me.permEvals, err = me.permArg.Evaluate(me.w, me.d, me.perm, me.x); err != nil {
		return err
	}
	for _, l := range me.lookups {
		if err := l.Evaluate(me.w, me.d, me.x); err != nil {
			return err
		}
	}
	for _, s := range me.shuffles {
		if err := s.Evaluate(me.w, me.d, me.x); err != nil {
			return err
		}
	}
	return nil
}

func (me *proverInstance[C]) open() error {
	var queries []multiopen.ProverQuery
	for _, q := range me.cs.AdviceQueries {
		queries = append(queries, multiopen.ProverQuery{
			Point: me.d.RotateOmega(me.x, q.Rotation),
			Poly:  me.advicePolys[q.Column],
		})
	}
	queries = append(queries, me.permArg.Queries(me.d, me.permEvals, me.x)...)
	for _, l := range me.lookups {
		queries = append(queries, l.Queries(me.d, me.x)...)
	}
	for _, s := range me.shuffles {
		queries = append(queries, s.Queries(me.d, me.x)...)
	}
	for _, q := range me.cs.FixedQueries {
		queries = append(queries, multiopen.ProverQuery{
			Point: me.d.RotateOmega(me.x, q.Rotation),
			Poly:  me.pk.fixedPolys[q.Column],
		})
	}
	queries = append(queries, me.pk.permutation.Queries(me.x)...)
	queries = append(queries, me.quotient.Evaluate(me.d, me.x).Queries(me.x)...)
	return multiopen.Open(me.w, me.scheme, queries)
}
