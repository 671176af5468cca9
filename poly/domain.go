package poly

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/fft"
)

// EvaluationDomain converts polynomials between coefficient form, evaluations
// over H = <ω> of size n = 2^k, and evaluations over the coset g·H' where H'
// is the extended domain of size n·2^j ≥ n·(degree-1).
type EvaluationDomain struct {
	K, ExtendedK   uint8
	N, ExtendedN   int
	QuotientDegree int

	Omega, OmegaInv fr.Element
	ExtendedOmega   fr.Element
	G, GInv         fr.Element
	NInv            fr.Element

	small, extended *fft.Domain

	// 1/(Xⁿ-1) over the coset, periodic with period ExtendedN/N
	tInvEvals []fr.Element
}

// NewEvaluationDomain builds a domain of size 2^k able to hold constraints of
// the given degree.
func NewEvaluationDomain(k uint8, degree int) *EvaluationDomain {
	quotientDegree := degree - 1
	if quotientDegree < 1 {
		quotientDegree = 1
	}
	n := 1 << k
	extendedK := k
	for (1 << extendedK) < n*quotientDegree {
		extendedK++
	}
	d := &EvaluationDomain{
		K:              k,
		ExtendedK:      extendedK,
		N:              n,
		ExtendedN:      1 << extendedK,
		QuotientDegree: quotientDegree,
		small:          fft.NewDomain(uint64(n)),
		extended:       fft.NewDomain(uint64(1) << extendedK),
	}
	d.Omega = d.small.Generator
	d.OmegaInv = d.small.GeneratorInv
	d.NInv = d.small.CardinalityInv
	d.ExtendedOmega = d.extended.Generator
	d.G = d.extended.FrMultiplicativeGen
	d.GInv = d.extended.FrMultiplicativeGenInv
	d.tInvEvals = d.evaluateXnMinusOneOnCoset()
	return d
}

func (d *EvaluationDomain) String() string {
	return fmt.Sprintf("domain(k=%d, extended_k=%d)", d.K, d.ExtendedK)
}

// RotationScale is the index shift in the extended domain corresponding to
// one row of the base domain.
func (d *EvaluationDomain) RotationScale() int {
	return d.ExtendedN / d.N
}

func (d *EvaluationDomain) EmptyLagrange() Polynomial[LagrangeCoeff] {
	return make(Polynomial[LagrangeCoeff], d.N)
}

func (d *EvaluationDomain) EmptyCoeff() Polynomial[Coeff] {
	return make(Polynomial[Coeff], d.N)
}

func (d *EvaluationDomain) EmptyExtended() Polynomial[ExtendedLagrangeCoeff] {
	return make(Polynomial[ExtendedLagrangeCoeff], d.ExtendedN)
}

// ConstantExtended returns the extended evaluations of the constant c.
func (d *EvaluationDomain) ConstantExtended(c fr.Element) Polynomial[ExtendedLagrangeCoeff] {
	res := d.EmptyExtended()
	for i := range res {
		res[i] = c
	}
	return res
}

func (d *EvaluationDomain) CoeffToLagrange(p Polynomial[Coeff]) Polynomial[LagrangeCoeff] {
	d.checkLen(len(p), d.N)
	res := make(Polynomial[LagrangeCoeff], d.N)
	copy(res, p)
	d.small.FFT(res, fft.DIF)
	fft.BitReverse(res)
	return res
}

func (d *EvaluationDomain) LagrangeToCoeff(p Polynomial[LagrangeCoeff]) Polynomial[Coeff] {
	d.checkLen(len(p), d.N)
	res := make(Polynomial[Coeff], d.N)
	copy(res, p)
	d.small.FFTInverse(res, fft.DIF)
	fft.BitReverse(res)
	return res
}

// CoeffToExtended evaluates p over the extended coset.
func (d *EvaluationDomain) CoeffToExtended(p Polynomial[Coeff]) Polynomial[ExtendedLagrangeCoeff] {
	return d.coeffToExtended(p, d.G)
}

// CoeffToExtendedRotated evaluates p(ω^r X) over the extended coset.
func (d *EvaluationDomain) CoeffToExtendedRotated(p Polynomial[Coeff], r Rotation) Polynomial[ExtendedLagrangeCoeff] {
	shift := d.RotateOmega(d.G, r)
	return d.coeffToExtended(p, shift)
}

func (d *EvaluationDomain) coeffToExtended(p Polynomial[Coeff], shift fr.Element) Polynomial[ExtendedLagrangeCoeff] {
	d.checkLen(len(p), d.N)
	res := make(Polynomial[ExtendedLagrangeCoeff], d.ExtendedN)
	copy(res, p)
	scalePowers(res[:d.N], shift)
	d.extended.FFT(res, fft.DIF)
	fft.BitReverse(res)
	return res
}

// CosetPoints returns the points g·ω_ext^i of the extended coset.
func (d *EvaluationDomain) CosetPoints() Polynomial[ExtendedLagrangeCoeff] {
	res := d.EmptyExtended()
	Parallelize(len(res), func(start, end int) {
		var acc fr.Element
		acc.Exp(d.ExtendedOmega, big.NewInt(int64(start)))
		acc.Mul(&acc, &d.G)
		for i := start; i < end; i++ {
			res[i] = acc
			acc.Mul(&acc, &d.ExtendedOmega)
		}
	})
	return res
}

// ExtendedToCoeff interpolates extended evaluations back to coefficient form.
// The result has ExtendedN coefficients.
func (d *EvaluationDomain) ExtendedToCoeff(p Polynomial[ExtendedLagrangeCoeff]) Polynomial[Coeff] {
	d.checkLen(len(p), d.ExtendedN)
	res := make(Polynomial[Coeff], d.ExtendedN)
	copy(res, p)
	d.extended.FFTInverse(res, fft.DIF)
	fft.BitReverse(res)
	scalePowers(res, d.GInv)
	return res
}

// DivideByVanishingPoly divides, in place, extended evaluations by Xⁿ-1.
func (d *EvaluationDomain) DivideByVanishingPoly(p Polynomial[ExtendedLagrangeCoeff]) Polynomial[ExtendedLagrangeCoeff] {
	d.checkLen(len(p), d.ExtendedN)
	rho := len(d.tInvEvals)
	Parallelize(len(p), func(start, end int) {
		for i := start; i < end; i++ {
			p[i].Mul(&p[i], &d.tInvEvals[i%rho])
		}
	})
	return p
}

// RotateOmega returns x·ω^r.
func (d *EvaluationDomain) RotateOmega(x fr.Element, r Rotation) fr.Element {
	var res fr.Element
	if r >= 0 {
		res.Exp(d.Omega, big.NewInt(int64(r)))
	} else {
		res.Exp(d.OmegaInv, big.NewInt(-int64(r)))
	}
	return *res.Mul(&res, &x)
}

// VanishingEval returns xⁿ-1.
func (d *EvaluationDomain) VanishingEval(x fr.Element) fr.Element {
	var res fr.Element
	one := fr.One()
	res.Exp(x, big.NewInt(int64(d.N)))
	return *res.Sub(&res, &one)
}

// LagrangeBasisEvals returns L_i(x) for every row i in rows, where rows may be
// negative and are taken modulo n.
//
// L_i(x) = ωⁱ(xⁿ-1) / (n(x-ωⁱ))
func (d *EvaluationDomain) LagrangeBasisEvals(x fr.Element, rows []int) []fr.Element {
	one := fr.One()
	zh := d.VanishingEval(x)
	num := make([]fr.Element, len(rows))
	den := make([]fr.Element, len(rows))
	for i, row := range rows {
		num[i] = d.RotateOmega(one, Rotation(row))
		den[i].Sub(&x, &num[i])
	}
	den = fr.BatchInvert(den)
	for i := range num {
		num[i].Mul(&num[i], &zh).Mul(&num[i], &d.NInv).Mul(&num[i], &den[i])
	}
	return num
}

// evaluateXnMinusOneOnCoset evaluates 1/(Xⁿ-1) on the extended coset, which
// takes only ExtendedN/N distinct values.
func (d *EvaluationDomain) evaluateXnMinusOneOnCoset() []fr.Element {
	rho := d.ExtendedN / d.N

	res := make([]fr.Element, rho)

	expo := big.NewInt(int64(d.N))
	res[0].Exp(d.G, expo)

	var t fr.Element
	t.Exp(d.extended.Generator, expo)

	one := fr.One()

	for i := 1; i < rho; i++ {
		res[i].Mul(&res[i-1], &t)
		res[i-1].Sub(&res[i-1], &one)
	}
	res[len(res)-1].Sub(&res[len(res)-1], &one)

	return fr.BatchInvert(res)
}

func (d *EvaluationDomain) checkLen(got, want int) {
	if got != want {
		panic(fmt.Sprintf("poly: length %d does not match domain size %d", got, want))
	}
}

// p <- <p, (1, w, .., wⁿ)>
func scalePowers(p []fr.Element, w fr.Element) {
	var acc fr.Element
	acc.SetOne()
	for i := range p {
		p[i].Mul(&p[i], &acc)
		acc.Mul(&acc, &w)
	}
}
