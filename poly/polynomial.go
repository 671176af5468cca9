package poly

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Coeff marks a polynomial given by its coefficients.
type Coeff struct{}

// LagrangeCoeff marks a polynomial given by its evaluations over the 2^k domain.
type LagrangeCoeff struct{}

// ExtendedLagrangeCoeff marks a polynomial given by its evaluations over the
// extended coset domain.
type ExtendedLagrangeCoeff struct{}

type Basis interface {
	Coeff | LagrangeCoeff | ExtendedLagrangeCoeff
}

// Polynomial is a vector of field elements in the basis B.
type Polynomial[B Basis] []fr.Element

// Rotation is a signed row offset relative to the current row.
type Rotation int

const (
	Cur  Rotation = 0
	Next Rotation = 1
	Prev Rotation = -1
)

func (p Polynomial[B]) Clone() Polynomial[B] {
	res := make(Polynomial[B], len(p))
	copy(res, p)
	return res
}

// Evaluate evaluates a coefficient-form polynomial at x.
func Evaluate(p Polynomial[Coeff], x fr.Element) fr.Element {
	return Eval(p, x)
}

// RotateLagrange returns q with q[i] = p[i+r mod n].
func RotateLagrange(p Polynomial[LagrangeCoeff], r Rotation) Polynomial[LagrangeCoeff] {
	return rotate(p, int(r))
}

// RotateExtended returns the extended evaluations of p(ω^r X), given those of p.
func RotateExtended(d *EvaluationDomain, p Polynomial[ExtendedLagrangeCoeff], r Rotation) Polynomial[ExtendedLagrangeCoeff] {
	return rotate(p, int(r)*d.RotationScale())
}

func rotate[B Basis](p Polynomial[B], shift int) Polynomial[B] {
	n := len(p)
	res := make(Polynomial[B], n)
	if n == 0 {
		return res
	}
	shift %= n
	if shift < 0 {
		shift += n
	}
	copy(res, p[shift:])
	copy(res[n-shift:], p[:shift])
	return res
}
