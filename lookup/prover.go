package lookup

import (
	"fmt"
	"slices"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/logger"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/multiopen"
	"github.com/eon-protocol/plonkish/poly"
	"github.com/eon-protocol/plonkish/transcript"
)

type committedPoly struct {
	lagrange poly.Polynomial[poly.LagrangeCoeff]
	coeffs   poly.Polynomial[poly.Coeff]
	coset    poly.Polynomial[poly.ExtendedLagrangeCoeff]
}

func commitPoly(w transcript.Writer, scheme commitment.Scheme, d *poly.EvaluationDomain, values poly.Polynomial[poly.LagrangeCoeff]) (committedPoly, error) {
	c, err := scheme.CommitLagrange(values)
	if err != nil {
		return committedPoly{}, err
	}
	if err := w.WritePoint(c); err != nil {
		return committedPoly{}, err
	}
	coeffs := d.LagrangeToCoeff(values)
	return committedPoly{lagrange: values, coeffs: coeffs, coset: d.CoeffToExtended(coeffs)}, nil
}

func randomize(values []fr.Element) error {
	for i := range values {
		if _, err := values[i].SetRandom(); err != nil {
			return fmt.Errorf("blind lookup: %w", err)
		}
	}
	return nil
}

// Permuted is a lookup after θ: the compressed input A and table S, and the
// committed A′, S′ (sorted) or multiplicities m (log derivative).
type Permuted struct {
	arg *circuit.LookupArgument

	input, table           poly.Polynomial[poly.LagrangeCoeff]
	inputCoset, tableCoset poly.Polynomial[poly.ExtendedLagrangeCoeff]

	// A′ and S′, or m alone
	permutedInput, permutedTable committedPoly
	multiplicities               committedPoly
}

// CommitPermuted compresses arg with θ and commits its witness polynomials.
func CommitPermuted(
	w transcript.Writer,
	scheme commitment.Scheme,
	d *poly.EvaluationDomain,
	arg *circuit.LookupArgument,
	lagrange, extended *circuit.Tables,
	theta fr.Element,
	blindingFactors int,
) (*Permuted, error) {
	inputGraph := circuit.Compile(circuit.CompressExpressions(arg.Inputs, theta))
	tableGraph := circuit.Compile(circuit.CompressExpressions(arg.Tables, theta))
	p := &Permuted{
		arg:        arg,
		input:      inputGraph.Evaluate(lagrange),
		table:      tableGraph.Evaluate(lagrange),
		inputCoset: inputGraph.Evaluate(extended),
		tableCoset: tableGraph.Evaluate(extended),
	}
	usable := d.N - (blindingFactors + 1)

	var err error
	switch arg.Kind {
	case circuit.SortedLookup:
		aPrime, sPrime := permuteExpressionPair(arg.Name, p.input[:usable], p.table[:usable])
		aPrime = append(aPrime, make([]fr.Element, d.N-usable)...)
		sPrime = append(sPrime, make([]fr.Element, d.N-usable)...)
		if err := randomize(aPrime[usable:]); err != nil {
			return nil, err
		}
		if err := randomize(sPrime[usable:]); err != nil {
			return nil, err
		}
		if p.permutedInput, err = commitPoly(w, scheme, d, aPrime); err != nil {
			return nil, fmt.Errorf("commit permuted input of %q: %w", arg.Name, err)
		}
		if p.permutedTable, err = commitPoly(w, scheme, d, sPrime); err != nil {
			return nil, fmt.Errorf("commit permuted table of %q: %w", arg.Name, err)
		}
	case circuit.LogDerivativeLookup:
		m := multiplicities(arg.Name, p.input[:usable], p.table[:usable])
		m = append(m, make([]fr.Element, d.N-usable)...)
		if err := randomize(m[usable:]); err != nil {
			return nil, err
		}
		if p.multiplicities, err = commitPoly(w, scheme, d, m); err != nil {
			return nil, fmt.Errorf("commit multiplicities of %q: %w", arg.Name, err)
		}
	}
	return p, nil
}

// permuteExpressionPair returns A′, the input sorted in descending order, and
// S′, the table reordered so that every first occurrence of a value in A′
// sits next to the same value in S′. An input value missing from the table
// is kept, which makes the proof fail verification.
func permuteExpressionPair(name string, input, table []fr.Element) (poly.Polynomial[poly.LagrangeCoeff], poly.Polynomial[poly.LagrangeCoeff]) {
	aPrime := make(poly.Polynomial[poly.LagrangeCoeff], len(input))
	copy(aPrime, input)
	slices.SortFunc(aPrime, func(a, b fr.Element) int { return b.Cmp(&a) })

	available := make(map[fr.Element]int, len(table))
	for _, v := range table {
		available[v]++
	}

	sPrime := make(poly.Polynomial[poly.LagrangeCoeff], len(table))
	var repeated []int
	missing := 0
	for row := range aPrime {
		if row > 0 && aPrime[row].Equal(&aPrime[row-1]) {
			repeated = append(repeated, row)
			continue
		}
		sPrime[row] = aPrime[row]
		if available[aPrime[row]] > 0 {
			available[aPrime[row]]--
		} else {
			missing++
		}
	}
	if missing > 0 {
		log := logger.Logger().With().Str("lookup", name).Logger()
		log.Warn().Int("missing", missing).Msg("input values not in table")
	}

	// leftover table rows fill the repeated input rows, in table order
	for _, v := range table {
		if len(repeated) == 0 {
			break
		}
		if available[v] == 0 {
			continue
		}
		available[v]--
		sPrime[repeated[0]] = v
		repeated = repeated[1:]
	}
	return aPrime, sPrime
}

// multiplicities counts, for each table row, how many input rows look it
// up. Repeated table values are counted on their first row only.
func multiplicities(name string, input, table []fr.Element) poly.Polynomial[poly.LagrangeCoeff] {
	firstRow := make(map[fr.Element]int, len(table))
	for row := len(table) - 1; row >= 0; row-- {
		firstRow[table[row]] = row
	}
	counts := make([]uint64, len(table))
	missing := 0
	for _, v := range input {
		row, ok := firstRow[v]
		if !ok {
			missing++
			continue
		}
		counts[row]++
	}
	if missing > 0 {
		log := logger.Logger().With().Str("lookup", name).Logger()
		log.Warn().Int("missing", missing).Msg("input values not in table")
	}
	m := make(poly.Polynomial[poly.LagrangeCoeff], len(table))
	for i, c := range counts {
		m[i].SetUint64(c)
	}
	return m
}

// Committed is a lookup with its running product z (sorted) or running sum
// φ (log derivative) committed.
type Committed struct {
	*Permuted
	product committedPoly
}

// CommitProduct builds and commits z or φ.
func (p *Permuted) CommitProduct(
	w transcript.Writer,
	scheme commitment.Scheme,
	d *poly.EvaluationDomain,
	beta, gamma fr.Element,
	blindingFactors int,
) (*Committed, error) {
	usable := d.N - (blindingFactors + 1)
	values := d.EmptyLagrange()

	switch p.arg.Kind {
	case circuit.SortedLookup:
		// z(ωX) = z(X)·(A+β)(S+γ) / ((A′+β)(S′+γ))
		den := make([]fr.Element, usable)
		aPrime, sPrime := p.permutedInput.lagrange, p.permutedTable.lagrange
		poly.Parallelize(usable, func(start, end int) {
			var t fr.Element
			for i := start; i < end; i++ {
				den[i].Add(&aPrime[i], &beta)
				t.Add(&sPrime[i], &gamma)
				den[i].Mul(&den[i], &t)
			}
		})
		poly.ParallelBatchInvert(den)
		values[0].SetOne()
		var num, t fr.Element
		for i := 0; i < usable; i++ {
			num.Add(&p.input[i], &beta)
			t.Add(&p.table[i], &gamma)
			num.Mul(&num, &t).Mul(&num, &den[i])
			values[i+1].Mul(&values[i], &num)
		}
	case circuit.LogDerivativeLookup:
		// φ(ωX) = φ(X) + 1/(A+β) - m/(S+β)
		inv := make([]fr.Element, 2*usable)
		poly.Parallelize(usable, func(start, end int) {
			for i := start; i < end; i++ {
				inv[2*i].Add(&p.input[i], &beta)
				inv[2*i+1].Add(&p.table[i], &beta)
			}
		})
		poly.ParallelBatchInvert(inv)
		m := p.multiplicities.lagrange
		var t fr.Element
		for i := 0; i < usable; i++ {
			t.Mul(&m[i], &inv[2*i+1])
			values[i+1].Add(&values[i], &inv[2*i]).Sub(&values[i+1], &t)
		}
	}
	if err := randomize(values[usable+1:]); err != nil {
		return nil, err
	}

	product, err := commitPoly(w, scheme, d, values)
	if err != nil {
		return nil, fmt.Errorf("commit lookup product of %q: %w", p.arg.Name, err)
	}
	return &Committed{Permuted: p, product: product}, nil
}

// Accumulate folds the lookup constraints into the quotient numerator.
func (c *Committed) Accumulate(values []fr.Element, coset *circuit.Coset, beta, gamma fr.Element) {
	one := fr.One()
	z := c.product.coset
	a, s := c.inputCoset, c.tableCoset

	switch c.arg.Kind {
	case circuit.SortedLookup:
		aPrime, sPrime := c.permutedInput.coset, c.permutedTable.coset
		// l0·(1 - z)
		coset.Accumulate(values, func(i int) fr.Element {
			var t fr.Element
			t.Sub(&one, &z[i]).Mul(&t, &coset.L0[i])
			return t
		})
		// l_last·(z² - z)
		coset.Accumulate(values, func(i int) fr.Element {
			var t fr.Element
			t.Square(&z[i]).Sub(&t, &z[i]).Mul(&t, &coset.LLast[i])
			return t
		})
		// l_active·(z(ωX)(A′+β)(S′+γ) - z(A+β)(S+γ))
		coset.Accumulate(values, func(i int) fr.Element {
			var left, right, t fr.Element
			left.Add(&aPrime[i], &beta)
			t.Add(&sPrime[i], &gamma)
			left.Mul(&left, &t).Mul(&left, &z[coset.Rotated(i, poly.Next)])
			right.Add(&a[i], &beta)
			t.Add(&s[i], &gamma)
			right.Mul(&right, &t).Mul(&right, &z[i])
			left.Sub(&left, &right).Mul(&left, &coset.LActive[i])
			return left
		})
		// l0·(A′ - S′)
		coset.Accumulate(values, func(i int) fr.Element {
			var t fr.Element
			t.Sub(&aPrime[i], &sPrime[i]).Mul(&t, &coset.L0[i])
			return t
		})
		// l_active·(A′ - S′)(A′ - A′(ω⁻¹X))
		coset.Accumulate(values, func(i int) fr.Element {
			var t, u fr.Element
			t.Sub(&aPrime[i], &sPrime[i])
			u.Sub(&aPrime[i], &aPrime[coset.Rotated(i, poly.Prev)])
			t.Mul(&t, &u).Mul(&t, &coset.LActive[i])
			return t
		})
	case circuit.LogDerivativeLookup:
		m := c.multiplicities.coset
		// l0·φ
		coset.Accumulate(values, func(i int) fr.Element {
			var t fr.Element
			t.Mul(&z[i], &coset.L0[i])
			return t
		})
		// l_last·φ
		coset.Accumulate(values, func(i int) fr.Element {
			var t fr.Element
			t.Mul(&z[i], &coset.LLast[i])
			return t
		})
		// l_active·((φ(ωX) - φ)(A+β)(S+β) - ((S+β) - m(A+β)))
		coset.Accumulate(values, func(i int) fr.Element {
			var aBeta, sBeta, left, right fr.Element
			aBeta.Add(&a[i], &beta)
			sBeta.Add(&s[i], &beta)
			left.Sub(&z[coset.Rotated(i, poly.Next)], &z[i]).Mul(&left, &aBeta).Mul(&left, &sBeta)
			right.Mul(&m[i], &aBeta)
			right.Sub(&sBeta, &right)
			left.Sub(&left, &right).Mul(&left, &coset.LActive[i])
			return left
		})
	}
}

// Evaluate writes the lookup evaluations at x.
func (c *Committed) Evaluate(w transcript.Writer, d *poly.EvaluationDomain, x fr.Element) error {
	for _, q := range c.Queries(d, x) {
		if err := w.WriteScalar(poly.Eval(q.Poly, q.Point)); err != nil {
			return err
		}
	}
	return nil
}

// Queries lists the openings in evaluation order: z(x), z(ωx), then A′(x),
// A′(ω⁻¹x), S′(x) or m(x).
func (c *Committed) Queries(d *poly.EvaluationDomain, x fr.Element) []multiopen.ProverQuery {
	res := []multiopen.ProverQuery{
		{Point: x, Poly: c.product.coeffs},
		{Point: d.RotateOmega(x, poly.Next), Poly: c.product.coeffs},
	}
	if c.arg.Kind == circuit.SortedLookup {
		return append(res,
			multiopen.ProverQuery{Point: x, Poly: c.permutedInput.coeffs},
			multiopen.ProverQuery{Point: d.RotateOmega(x, poly.Prev), Poly: c.permutedInput.coeffs},
			multiopen.ProverQuery{Point: x, Poly: c.permutedTable.coeffs},
		)
	}
	return append(res, multiopen.ProverQuery{Point: x, Poly: c.multiplicities.coeffs})
}
