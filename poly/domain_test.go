package poly

import (
	"math/rand"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func randomVector(rng *rand.Rand, n int) []fr.Element {
	v := make([]fr.Element, n)
	for i := range v {
		v[i].SetUint64(rng.Uint64())
		v[i].Mul(&v[i], &v[i])
	}
	return v
}

func TestDomainRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("lagrange to coeff inverts coeff to lagrange", prop.ForAll(
		func(k uint8, seed int64) bool {
			d := NewEvaluationDomain(k, 3)
			p := Polynomial[Coeff](randomVector(rand.New(rand.NewSource(seed)), d.N))
			back := d.LagrangeToCoeff(d.CoeffToLagrange(p))
			for i := range p {
				if !back[i].Equal(&p[i]) {
					return false
				}
			}
			return true
		},
		gen.UInt8Range(1, 8), gen.Int64(),
	))

	properties.Property("extended to coeff inverts coeff to extended", prop.ForAll(
		func(k uint8, degree int, seed int64) bool {
			d := NewEvaluationDomain(k, degree)
			p := Polynomial[Coeff](randomVector(rand.New(rand.NewSource(seed)), d.N))
			back := d.ExtendedToCoeff(d.CoeffToExtended(p))
			for i := range back {
				if i < d.N && !back[i].Equal(&p[i]) {
					return false
				}
				if i >= d.N && !back[i].IsZero() {
					return false
				}
			}
			return true
		},
		gen.UInt8Range(1, 6), gen.IntRange(3, 9), gen.Int64(),
	))

	properties.Property("rotation by zero is the identity", prop.ForAll(
		func(k uint8, seed int64) bool {
			d := NewEvaluationDomain(k, 3)
			rng := rand.New(rand.NewSource(seed))
			var x fr.Element
			x.SetUint64(rng.Uint64())
			r := d.RotateOmega(x, Cur)
			p := Polynomial[LagrangeCoeff](randomVector(rng, d.N))
			q := RotateLagrange(p, Cur)
			for i := range p {
				if !p[i].Equal(&q[i]) {
					return false
				}
			}
			return r.Equal(&x)
		},
		gen.UInt8Range(1, 8), gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestDomainSizes(t *testing.T) {
	d := NewEvaluationDomain(3, 3)
	require.Equal(t, 8, d.N)
	require.Equal(t, 16, d.ExtendedN)
	require.Equal(t, 2, d.QuotientDegree)

	d = NewEvaluationDomain(4, 5)
	require.Equal(t, 64, d.ExtendedN)
	require.Equal(t, 4, d.RotationScale())

	var one fr.Element
	one.SetOne()
	w := d.RotateOmega(one, Rotation(d.N))
	require.True(t, w.IsOne(), "ωⁿ = 1")
	back := d.RotateOmega(d.RotateOmega(one, Next), Prev)
	require.True(t, back.IsOne())
}

func TestExtendedRotation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	d := NewEvaluationDomain(3, 4)
	p := Polynomial[Coeff](randomVector(rng, d.N))

	ext := d.CoeffToExtended(p)
	for _, r := range []Rotation{Prev, Next, 3} {
		direct := d.CoeffToExtendedRotated(p, r)
		shifted := RotateExtended(d, ext, r)
		require.Equal(t, direct, shifted, "rotation %d", r)
	}

	lagrange := d.CoeffToLagrange(p)
	x := d.RotateOmega(fr.One(), Next)
	got := Eval(p, x)
	require.True(t, got.Equal(&lagrange[1]))
	require.True(t, RotateLagrange(lagrange, Next)[0].Equal(&lagrange[1]))
}

func TestDivideByVanishingPoly(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	d := NewEvaluationDomain(3, 3)

	// (Xⁿ-1)·q for a random q of degree < n
	q := randomVector(rng, d.N)
	prod := make(Polynomial[Coeff], d.ExtendedN)
	for i := range q {
		prod[i].Sub(&prod[i], &q[i])
		prod[i+d.N].Add(&prod[i+d.N], &q[i])
	}

	// evaluate on the coset by hand, then divide
	ext := d.EmptyExtended()
	var x fr.Element
	x.Set(&d.G)
	for i := range ext {
		ext[i] = Eval(prod, x)
		x.Mul(&x, &d.extended.Generator)
	}
	got := d.ExtendedToCoeff(d.DivideByVanishingPoly(ext))
	for i := range got {
		if i < d.N {
			require.True(t, got[i].Equal(&q[i]))
		} else {
			require.True(t, got[i].IsZero())
		}
	}
}

func TestLagrangeBasisEvals(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	d := NewEvaluationDomain(3, 3)
	values := randomVector(rng, d.N)
	p := d.LagrangeToCoeff(values)

	var x fr.Element
	x.SetUint64(rng.Uint64())
	rows := make([]int, d.N)
	for i := range rows {
		rows[i] = i
	}
	ls := d.LagrangeBasisEvals(x, rows)
	var acc, t0 fr.Element
	for i := range ls {
		t0.Mul(&ls[i], &values[i])
		acc.Add(&acc, &t0)
	}
	want := Eval(p, x)
	require.True(t, acc.Equal(&want))

	last := d.LagrangeBasisEvals(x, []int{-1})
	require.True(t, last[0].Equal(&ls[d.N-1]))
}

func TestInterpolate(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for n := 1; n <= 4; n++ {
		points := randomVector(rng, n)
		evals := randomVector(rng, n)
		c := Interpolate(points, evals)
		require.Len(t, c, n)
		for i := range points {
			got := Eval(c, points[i])
			require.True(t, got.Equal(&evals[i]), "n=%d point %d", n, i)
		}
	}
}

func TestDividePolyByXminusA(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	f := randomVector(rng, 8)
	var a fr.Element
	a.SetUint64(42)
	fa := Eval(f, a)
	orig := append([]fr.Element(nil), f...)
	q := DividePolyByXminusA(f, fa, a)

	// check f(z)-f(a) = q(z)(z-a) at a random z
	var z, lhs, rhs, t0 fr.Element
	z.SetUint64(rng.Uint64())
	lhs = Eval(orig, z)
	lhs.Sub(&lhs, &fa)
	rhs = Eval(q, z)
	t0.Sub(&z, &a)
	rhs.Mul(&rhs, &t0)
	require.True(t, lhs.Equal(&rhs))
}

func TestParallelBatchInvert(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	v := randomVector(rng, 1000)
	for i := range v {
		if v[i].IsZero() {
			v[i].SetOne()
		}
	}
	orig := append([]fr.Element(nil), v...)
	ParallelBatchInvert(v)
	var prod fr.Element
	for i := range v {
		prod.Mul(&v[i], &orig[i])
		require.True(t, prod.IsOne())
	}
}
