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

// Argument is the permutation argument of a constraint system. Its columns
// are split into chunks of ChunkLen so that each grand product constraint
// fits the circuit degree.
type Argument struct {
	Columns         []circuit.Column
	ChunkLen        int
	BlindingFactors int
}

func NewArgument(cs *circuit.ConstraintSystem) *Argument {
	return &Argument{
		Columns:         cs.Permutation,
		ChunkLen:        cs.Degree() - 2,
		BlindingFactors: cs.BlindingFactors(),
	}
}

func (a *Argument) chunks() [][]circuit.Column {
	var res [][]circuit.Column
	for start := 0; start < len(a.Columns); start += a.ChunkLen {
		res = append(res, a.Columns[start:min(start+a.ChunkLen, len(a.Columns))])
	}
	return res
}

// lastRotation points at the last usable row from row 0.
func (a *Argument) lastRotation() poly.Rotation {
	return poly.Rotation(-(a.BlindingFactors + 1))
}

type committedSet struct {
	coeffs poly.Polynomial[poly.Coeff]
	coset  poly.Polynomial[poly.ExtendedLagrangeCoeff]
}

// Committed holds one running product z per chunk.
type Committed struct {
	sets []committedSet
}

// Commit builds, blinds and commits the running product of every chunk.
func (a *Argument) Commit(
	w transcript.Writer,
	scheme commitment.Scheme,
	d *poly.EvaluationDomain,
	pk *ProvingKey,
	lagrange *circuit.Tables,
	beta, gamma fr.Element,
) (*Committed, error) {
	n := d.N
	res := &Committed{}
	lastZ := fr.One()

	for chunkIdx, columns := range a.chunks() {
		offset := chunkIdx * a.ChunkLen

		// modified[i] = ∏ (p + δ^j·β·ωⁱ + γ) / ∏ (p + β·σ + γ)
		modified := make([]fr.Element, n)
		for i := range modified {
			modified[i].SetOne()
		}
		for j, col := range columns {
			values := lagrange.Column(col)
			sigma := pk.Permutations[offset+j]
			poly.Parallelize(n, func(start, end int) {
				var t fr.Element
				for i := start; i < end; i++ {
					t.Mul(&beta, &sigma[i]).Add(&t, &gamma).Add(&t, &values[i])
					modified[i].Mul(&modified[i], &t)
				}
			})
		}
		poly.ParallelBatchInvert(modified)

		for j, col := range columns {
			values := lagrange.Column(col)
			poly.Parallelize(n, func(start, end int) {
				dw := identity(d, offset+j, start)
				dw.Mul(&dw, &beta)
				var t fr.Element
				for i := start; i < end; i++ {
					t.Add(&values[i], &dw).Add(&t, &gamma)
					modified[i].Mul(&modified[i], &t)
					dw.Mul(&dw, &d.Omega)
				}
			})
		}

		z := d.EmptyLagrange()
		z[0] = lastZ
		for row := 1; row < n; row++ {
			z[row].Mul(&z[row-1], &modified[row-1])
		}
		for row := n - a.BlindingFactors; row < n; row++ {
			if _, err := z[row].SetRandom(); err != nil {
				return nil, fmt.Errorf("blind permutation product: %w", err)
			}
		}
		lastZ = z[n-(a.BlindingFactors+1)]

		c, err := scheme.CommitLagrange(z)
		if err != nil {
			return nil, fmt.Errorf("commit permutation product %d: %w", chunkIdx, err)
		}
		if err := w.WritePoint(c); err != nil {
			return nil, err
		}

		coeffs := d.LagrangeToCoeff(z)
		res.sets = append(res.sets, committedSet{coeffs: coeffs, coset: d.CoeffToExtended(coeffs)})
	}
	return res, nil
}

// Accumulate folds the permutation constraints into the quotient numerator.
func (a *Argument) Accumulate(values []fr.Element, c *circuit.Coset, pk *ProvingKey, committed *Committed, beta, gamma fr.Element) {
	if len(committed.sets) == 0 {
		return
	}
	one := fr.One()
	first, last := committed.sets[0].coset, committed.sets[len(committed.sets)-1].coset

	// l0·(1 - z_0)
	c.Accumulate(values, func(i int) fr.Element {
		var t fr.Element
		t.Sub(&one, &first[i]).Mul(&t, &c.L0[i])
		return t
	})
	// l_last·(z_last² - z_last)
	c.Accumulate(values, func(i int) fr.Element {
		var t fr.Element
		t.Square(&last[i]).Sub(&t, &last[i]).Mul(&t, &c.LLast[i])
		return t
	})
	// l0·(z_i - z_{i-1}(ω^last X))
	for s := 1; s < len(committed.sets); s++ {
		cur, prev := committed.sets[s].coset, committed.sets[s-1].coset
		c.Accumulate(values, func(i int) fr.Element {
			var t fr.Element
			t.Sub(&cur[i], &prev[c.Rotated(i, a.lastRotation())]).Mul(&t, &c.L0[i])
			return t
		})
	}

	// l_active·(z(ωX)·∏(p + βσ + γ) - z(X)·∏(p + δ^j·β·X + γ))
	points := c.Domain.CosetPoints()
	deltas := poly.Powers(Delta, len(a.Columns))
	for chunkIdx, columns := range a.chunks() {
		offset := chunkIdx * a.ChunkLen
		z := committed.sets[chunkIdx].coset
		c.Accumulate(values, func(i int) fr.Element {
			left := z[c.Rotated(i, poly.Next)]
			right := z[i]
			var t, betaX fr.Element
			betaX.Mul(&beta, &points[i])
			for j, col := range columns {
				v := &c.Tables.Column(col)[i]
				t.Mul(&beta, &pk.Cosets[offset+j][i]).Add(&t, &gamma).Add(&t, v)
				left.Mul(&left, &t)
				t.Mul(&betaX, &deltas[offset+j]).Add(&t, &gamma).Add(&t, v)
				right.Mul(&right, &t)
			}
			left.Sub(&left, &right).Mul(&left, &c.LActive[i])
			return left
		})
	}
}

// Evaluated holds the running products once their evaluations are written.
type Evaluated struct {
	committed *Committed
}

// Evaluate writes z(x) and z(ωx) of every chunk, and z(ω^last x) of every
// chunk but the last.
func (a *Argument) Evaluate(w transcript.Writer, d *poly.EvaluationDomain, committed *Committed, x fr.Element) (*Evaluated, error) {
	xNext := d.RotateOmega(x, poly.Next)
	xLast := d.RotateOmega(x, a.lastRotation())
	for s, set := range committed.sets {
		evals := []fr.Element{poly.Eval(set.coeffs, x), poly.Eval(set.coeffs, xNext)}
		if s < len(committed.sets)-1 {
			evals = append(evals, poly.Eval(set.coeffs, xLast))
		}
		for _, e := range evals {
			if err := w.WriteScalar(e); err != nil {
				return nil, err
			}
		}
	}
	return &Evaluated{committed: committed}, nil
}

func (a *Argument) Queries(d *poly.EvaluationDomain, e *Evaluated, x fr.Element) []multiopen.ProverQuery {
	xNext := d.RotateOmega(x, poly.Next)
	xLast := d.RotateOmega(x, a.lastRotation())
	var res []multiopen.ProverQuery
	for s, set := range e.committed.sets {
		res = append(res,
			multiopen.ProverQuery{Point: x, Poly: set.coeffs},
			multiopen.ProverQuery{Point: xNext, Poly: set.coeffs},
		)
		if s < len(e.committed.sets)-1 {
			res = append(res, multiopen.ProverQuery{Point: xLast, Poly: set.coeffs})
		}
	}
	return res
}

// Evaluate writes σ_j(x) for every column.
func (pk *ProvingKey) Evaluate(w transcript.Writer, x fr.Element) error {
	for _, p := range pk.Polys {
		if err := w.WriteScalar(poly.Eval(p, x)); err != nil {
			return err
		}
	}
	return nil
}

func (pk *ProvingKey) Queries(x fr.Element) []multiopen.ProverQuery {
	res := make([]multiopen.ProverQuery, len(pk.Polys))
	for j, p := range pk.Polys {
		res[j] = multiopen.ProverQuery{Point: x, Poly: p}
	}
	return res
}
