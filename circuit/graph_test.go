package circuit

import (
	"math/rand"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/eon-protocol/plonkish/poly"
)

func randomColumns(rng *rand.Rand, cols, size int) [][]fr.Element {
	res := make([][]fr.Element, cols)
	for i := range res {
		res[i] = make([]fr.Element, size)
		for j := range res[i] {
			res[i][j].SetUint64(rng.Uint64())
		}
	}
	return res
}

func testExpression(t *testing.T) (*ConstraintSystem, Expression) {
	t.Helper()
	cs := NewConstraintSystem()
	a, b := cs.AdviceColumn(), cs.AdviceColumn()
	f := cs.FixedColumn()
	inst := cs.InstanceColumn()
	ch := cs.ChallengeUsableAfter(FirstPhase)

	var e Expression
	cs.CreateGate("g", func(vc *VirtualCells) []Expression {
		x := vc.QueryAdvice(a, poly.Cur)
		y := vc.QueryAdvice(b, poly.Next)
		z := vc.QueryAdvice(a, poly.Prev)
		e = Sub(
			Mul(vc.QueryFixed(f, poly.Cur), Add(Mul(x, y), Scale(z, fr.NewElement(7)))),
			Add(Mul(y, x), Mul(vc.QueryInstance(inst, poly.Cur), vc.QueryChallenge(ch))),
		)
		return []Expression{e}
	})
	return cs, e
}

func TestGraphMatchesDirectEvaluation(t *testing.T) {
	cs, e := testExpression(t)
	const size = 16
	rng := rand.New(rand.NewSource(1))
	tables := &Tables{
		Fixed:         randomColumns(rng, cs.NumFixed, size),
		Advice:        randomColumns(rng, cs.NumAdvice, size),
		Instance:      randomColumns(rng, cs.NumInstance, size),
		Challenges:    randomColumns(rng, 1, 1)[0],
		RotationScale: 1,
		Size:          size,
	}
	g := Compile(e)
	got := g.Evaluate(tables)

	at := func(queries []ColumnQuery, cols [][]fr.Element, row int) []fr.Element {
		res := make([]fr.Element, len(queries))
		for i, q := range queries {
			res[i] = cols[q.Column][RotatedRow(row, int(q.Rotation), size)]
		}
		return res
	}
	for row := 0; row < size; row++ {
		want := Evaluate(e, &QueryEvals{
			Fixed:      at(cs.FixedQueries, tables.Fixed, row),
			Advice:     at(cs.AdviceQueries, tables.Advice, row),
			Instance:   at(cs.InstanceQueries, tables.Instance, row),
			Challenges: tables.Challenges,
		})
		require.True(t, want.Equal(&got[row]), "row %d", row)
	}
}

func TestGraphDeduplicates(t *testing.T) {
	_, e := testExpression(t)
	g := Compile(e)
	// x*y and y*x share one product
	require.Equal(t, 8, g.NumCalculations())

	g = Compile(Add(Mul(Const(1), Const(0)), Mul(Const(1), AdviceQuery{Column: 0})))
	require.Equal(t, 0, g.NumCalculations())
}

func TestCompareSources(t *testing.T) {
	a := ValueSource{kind: srcFixed, index: 2, rotation: 1}
	b := ValueSource{kind: srcAdvice, index: 0, rotation: 0}
	require.Negative(t, compareSources(a, b))
	require.Positive(t, compareSources(b, a))
	require.Zero(t, compareSources(a, a))
	require.Negative(t, compareSources(ValueSource{kind: srcAdvice, index: 1}, ValueSource{kind: srcAdvice, index: 1, rotation: 2}))

	g := NewGraph()
	x, y := g.Add(AdviceQuery{Column: 0}), g.Add(AdviceQuery{Column: 1, Rotation: poly.Next})
	require.Equal(t, g.product(x, y), g.product(y, x))
	require.Equal(t, 1, g.NumCalculations())
}

func TestRotatedRow(t *testing.T) {
	require.Equal(t, 15, RotatedRow(0, -1, 16))
	require.Equal(t, 0, RotatedRow(15, 1, 16))
	require.Equal(t, 12, RotatedRow(4, -8, 16))
}
