package permutation

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/poly"
)

// Delta = 7^(2^32) generates the cosets δ^j·H that keep the columns of the
// permutation apart.
var Delta = func() fr.Element {
	d := fr.NewElement(7)
	for i := 0; i < 32; i++ {
		d.Square(&d)
	}
	return d
}()

// Assembly records copy constraints as cycles over the cells of the
// permutation columns. A cell is identified by column·n + row.
type Assembly struct {
	n       int
	columns []circuit.Column

	// mapping[c] is the next cell in the cycle of c
	mapping []int
	// aux[c] identifies the cycle of c
	aux []int
	// sizes[c] is the size of the cycle identified by c
	sizes []int
}

func NewAssembly(n int, columns []circuit.Column) *Assembly {
	size := n * len(columns)
	a := &Assembly{
		n:       n,
		columns: columns,
		mapping: make([]int, size),
		aux:     make([]int, size),
		sizes:   make([]int, size),
	}
	for i := 0; i < size; i++ {
		a.mapping[i] = i
		a.aux[i] = i
		a.sizes[i] = 1
	}
	return a
}

func (a *Assembly) cell(col circuit.Column, row int) (int, error) {
	i := slices.Index(a.columns, col)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", circuit.ErrColumnNotInPermutation, col)
	}
	if row < 0 || row >= a.n {
		return 0, fmt.Errorf("%w: row %d of %s with n = %d", circuit.ErrBoundsFailure, row, col, a.n)
	}
	return i*a.n + row, nil
}

// Copy constrains two cells to be equal by merging their cycles.
func (a *Assembly) Copy(left circuit.Column, leftRow int, right circuit.Column, rightRow int) error {
	l, err := a.cell(left, leftRow)
	if err != nil {
		return err
	}
	r, err := a.cell(right, rightRow)
	if err != nil {
		return err
	}

	lc, rc := a.aux[l], a.aux[r]
	if lc == rc {
		return nil
	}
	// merge the smaller cycle into the larger
	if a.sizes[lc] < a.sizes[rc] {
		l, r = r, l
		lc, rc = rc, lc
	}

	a.aux[r] = lc
	for c := a.mapping[r]; c != r; c = a.mapping[c] {
		a.aux[c] = lc
	}
	a.sizes[lc] += a.sizes[rc]

	a.mapping[l], a.mapping[r] = a.mapping[r], a.mapping[l]
	return nil
}

// Mapping returns the (column index, row) the cell (column, row) points to.
func (a *Assembly) Mapping(column, row int) (int, int) {
	next := a.mapping[column*a.n+row]
	return next / a.n, next % a.n
}

// SameCycle reports whether two cells are constrained equal.
func (a *Assembly) SameCycle(left circuit.Column, leftRow int, right circuit.Column, rightRow int) (bool, error) {
	l, err := a.cell(left, leftRow)
	if err != nil {
		return false, err
	}
	r, err := a.cell(right, rightRow)
	if err != nil {
		return false, err
	}
	return a.aux[l] == a.aux[r], nil
}

// BuildPermutations returns σ_j in Lagrange form, σ_j(ωⁱ) = δ^c·ω^r where
// (c, r) is the cell following (j, i) in its cycle.
func (a *Assembly) BuildPermutations(d *poly.EvaluationDomain) []poly.Polynomial[poly.LagrangeCoeff] {
	omegas := poly.Powers(d.Omega, a.n)
	deltas := poly.Powers(Delta, len(a.columns))

	res := make([]poly.Polynomial[poly.LagrangeCoeff], len(a.columns))
	for j := range res {
		sigma := d.EmptyLagrange()
		poly.Parallelize(a.n, func(start, end int) {
			for i := start; i < end; i++ {
				c, r := a.Mapping(j, i)
				sigma[i].Mul(&deltas[c], &omegas[r])
			}
		})
		res[j] = sigma
	}
	return res
}

// identity returns δ^j·ω^start, the identity permutation value of column j
// at row start.
func identity(d *poly.EvaluationDomain, j, start int) fr.Element {
	var res, t fr.Element
	res.Exp(Delta, big.NewInt(int64(j)))
	t.Exp(d.Omega, big.NewInt(int64(start)))
	return *res.Mul(&res, &t)
}
