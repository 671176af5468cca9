package permutation

import (
	"bytes"
	"math/big"
	"math/rand"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/poly"
	"github.com/eon-protocol/plonkish/transcript"
)

func advice(i int) circuit.Column {
	return circuit.Column{Index: i, Type: circuit.Advice}
}

func TestAssemblyErrors(t *testing.T) {
	a := NewAssembly(8, []circuit.Column{advice(0), advice(1)})
	require.ErrorIs(t, a.Copy(advice(0), 0, advice(2), 0), circuit.ErrColumnNotInPermutation)
	require.ErrorIs(t, a.Copy(advice(0), 8, advice(1), 0), circuit.ErrBoundsFailure)
	require.ErrorIs(t, a.Copy(advice(0), -1, advice(1), 0), circuit.ErrBoundsFailure)
	require.NoError(t, a.Copy(advice(0), 7, advice(1), 0))
}

func TestAssemblyCycles(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	const n, cols = 8, 3
	columns := []circuit.Column{advice(0), advice(1), advice(2)}

	properties.Property("copies land in one cycle and cycles are closed", prop.ForAll(
		func(seed int64, nbCopies int) bool {
			rng := rand.New(rand.NewSource(seed))
			a := NewAssembly(n, columns)
			type cell struct{ col, row int }
			var copies [][2]cell
			for range nbCopies {
				l := cell{rng.Intn(cols), rng.Intn(n)}
				r := cell{rng.Intn(cols), rng.Intn(n)}
				if err := a.Copy(columns[l.col], l.row, columns[r.col], r.row); err != nil {
					return false
				}
				copies = append(copies, [2]cell{l, r})
			}
			for _, c := range copies {
				same, err := a.SameCycle(columns[c[0].col], c[0].row, columns[c[1].col], c[1].row)
				if err != nil || !same {
					return false
				}
			}
			// walking a cycle returns to its start after sizes[aux] steps
			for start := 0; start < n*cols; start++ {
				steps, c := 1, a.mapping[start]
				for c != start {
					if a.aux[c] != a.aux[start] {
						return false
					}
					c = a.mapping[c]
					steps++
				}
				if steps != a.sizes[a.aux[start]] {
					return false
				}
			}
			return true
		},
		gen.Int64(), gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}

type grandProductFixture struct {
	d        *poly.EvaluationDomain
	params   *commitment.Params
	arg      *Argument
	assembly *Assembly
	tables   *circuit.Tables
}

// newGrandProductFixture wires column 0 row i to column 1 row i+1 for every
// usable row and fills both columns consistently.
func newGrandProductFixture(t *testing.T, chunkLen int) *grandProductFixture {
	t.Helper()
	const k = 4
	d := poly.NewEvaluationDomain(k, 4)
	params, err := commitment.Setup(k, big.NewInt(77))
	require.NoError(t, err)

	columns := []circuit.Column{advice(0), advice(1), advice(2)}
	arg := &Argument{Columns: columns, ChunkLen: chunkLen, BlindingFactors: 5}
	a := NewAssembly(d.N, columns)
	usable := d.N - arg.BlindingFactors - 1

	tables := &circuit.Tables{Advice: make([][]fr.Element, 3), RotationScale: 1, Size: d.N}
	rng := rand.New(rand.NewSource(3))
	for c := range tables.Advice {
		tables.Advice[c] = make([]fr.Element, d.N)
		for i := range tables.Advice[c] {
			tables.Advice[c][i].SetUint64(rng.Uint64())
		}
	}
	for i := 0; i+1 < usable; i++ {
		require.NoError(t, a.Copy(advice(0), i, advice(1), i+1))
		tables.Advice[1][i+1] = tables.Advice[0][i]
		require.NoError(t, a.Copy(advice(2), i, advice(0), i))
		tables.Advice[2][i] = tables.Advice[0][i]
	}
	return &grandProductFixture{d: d, params: params, arg: arg, assembly: a, tables: tables}
}

func (f *grandProductFixture) products(t *testing.T) []poly.Polynomial[poly.LagrangeCoeff] {
	var beta, gamma fr.Element
	beta.SetUint64(1234)
	gamma.SetUint64(5678)
	pk := f.assembly.BuildProvingKey(f.d)
	var buf bytes.Buffer
	committed, err := f.arg.Commit(transcript.NewWriter(&buf, transcript.NewPoseidon2()), f.params, f.d, pk, f.tables, beta, gamma)
	require.NoError(t, err)
	res := make([]poly.Polynomial[poly.LagrangeCoeff], len(committed.sets))
	for s, set := range committed.sets {
		res[s] = f.d.CoeffToLagrange(set.coeffs)
	}
	return res
}

func TestGrandProductTelescopes(t *testing.T) {
	for _, chunkLen := range []int{1, 2, 3} {
		f := newGrandProductFixture(t, chunkLen)
		zs := f.products(t)
		require.Len(t, zs, (3+chunkLen-1)/chunkLen)
		last := f.d.N - f.arg.BlindingFactors - 1

		one := fr.One()
		require.True(t, zs[0][0].Equal(&one))
		for s := 1; s < len(zs); s++ {
			require.True(t, zs[s][0].Equal(&zs[s-1][last]), "chunk %d is chained", s)
		}
		require.True(t, zs[len(zs)-1][last].Equal(&one), "chunk length %d", chunkLen)
	}
}

func TestGrandProductDetectsBrokenCopy(t *testing.T) {
	f := newGrandProductFixture(t, 3)
	f.tables.Advice[1][3].SetUint64(42)
	zs := f.products(t)
	last := f.d.N - f.arg.BlindingFactors - 1
	one := fr.One()
	require.False(t, zs[0][last].Equal(&one))
}
