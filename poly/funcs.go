package poly

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Eval evaluates the coefficients p at point with Horner's rule.
func Eval(p []fr.Element, point fr.Element) fr.Element {
	var res fr.Element
	n := len(p)
	if n == 0 {
		return res
	}
	res.Set(&p[n-1])
	for i := n - 2; i >= 0; i-- {
		res.Mul(&res, &point).Add(&res, &p[i])
	}
	return res
}

// DividePolyByXminusA returns (f-f(a))/(X-a). f is modified and the result
// shares its memory.
func DividePolyByXminusA(f []fr.Element, fa, a fr.Element) []fr.Element {

	// first we compute f-f(a)
	f[0].Sub(&f[0], &fa)

	// now we use synthetic division to divide by x-a
	var t fr.Element
	for i := len(f) - 2; i >= 0; i-- {
		t.Mul(&f[i+1], &a)

		f[i].Add(&f[i], &t)
	}

	// the result is of degree deg(f)-1
	return f[1:]
}

// Powers returns (1, x, .., x^{n-1}).
func Powers(x fr.Element, n int) []fr.Element {
	res := make([]fr.Element, n)
	if n == 0 {
		return res
	}
	res[0].SetOne()
	for i := 1; i < n; i++ {
		res[i].Mul(&res[i-1], &x)
	}
	return res
}

// Interpolate returns the coefficients of the polynomial of degree < len(points)
// taking evals[i] at points[i]. Points must be distinct.
func Interpolate(points, evals []fr.Element) []fr.Element {
	n := len(points)
	res := make([]fr.Element, n)
	if n == 0 {
		return res
	}
	denoms := make([]fr.Element, 0, n*(n-1))
	for j := 0; j < n; j++ {
		for k := 0; k < n; k++ {
			if k == j {
				continue
			}
			var d fr.Element
			d.Sub(&points[j], &points[k])
			denoms = append(denoms, d)
		}
	}
	denoms = fr.BatchInvert(denoms)

	var t fr.Element
	basis := make([]fr.Element, n)
	for j := 0; j < n; j++ {
		// basis <- ∏_{k≠j} (X-x_k)/(x_j-x_k)
		for i := range basis {
			basis[i].SetZero()
		}
		basis[0].SetOne()
		deg := 0
		for k, d := 0, 0; k < n; k++ {
			if k == j {
				continue
			}
			inv := denoms[j*(n-1)+d]
			d++
			// basis <- basis·(X-x_k)·inv
			for i := deg + 1; i > 0; i-- {
				t.Mul(&basis[i], &points[k])
				basis[i].Sub(&basis[i-1], &t)
				basis[i].Mul(&basis[i], &inv)
			}
			t.Mul(&basis[0], &points[k]).Neg(&t)
			basis[0].Mul(&t, &inv)
			deg++
		}
		for i := range res {
			t.Mul(&basis[i], &evals[j])
			res[i].Add(&res[i], &t)
		}
	}
	return res
}
