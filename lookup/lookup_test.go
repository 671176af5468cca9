package lookup

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(rng *rand.Rand, n, bound int) []fr.Element {
	res := make([]fr.Element, n)
	for i := range res {
		res[i].SetUint64(uint64(rng.Intn(bound)))
	}
	return res
}

func sorted(v []fr.Element) []fr.Element {
	res := slices.Clone(v)
	slices.SortFunc(res, func(a, b fr.Element) int { return a.Cmp(&b) })
	return res
}

func TestPermuteExpressionPair(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("A′ and S′ satisfy the sorted lookup relations", prop.ForAll(
		func(seed int64, n int) bool {
			rng := rand.New(rand.NewSource(seed))
			table := sample(rng, n, 8)
			// inputs drawn from the table
			input := make([]fr.Element, n)
			for i := range input {
				input[i] = table[rng.Intn(n)]
			}
			aPrime, sPrime := permuteExpressionPair("test", input, table)

			if !slices.Equal(sorted(aPrime), sorted(input)) || !slices.Equal(sorted(sPrime), sorted(table)) {
				return false
			}
			if !aPrime[0].Equal(&sPrime[0]) {
				return false
			}
			for i := 1; i < n; i++ {
				if aPrime[i].Cmp(&aPrime[i-1]) > 0 {
					return false
				}
				if !aPrime[i].Equal(&sPrime[i]) && !aPrime[i].Equal(&aPrime[i-1]) {
					return false
				}
			}
			return true
		},
		gen.Int64(), gen.IntRange(1, 40),
	))

	properties.TestingRun(t)
}

func TestPermuteMissingValue(t *testing.T) {
	table := []fr.Element{fr.NewElement(1), fr.NewElement(2), fr.NewElement(3)}
	input := []fr.Element{fr.NewElement(2), fr.NewElement(9), fr.NewElement(2)}

	aPrime, sPrime := permuteExpressionPair("test", input, table)
	assert.Equal(t, []fr.Element{fr.NewElement(9), fr.NewElement(2), fr.NewElement(2)}, []fr.Element(aPrime))
	// 9 is kept next to itself, so S′ is no longer a permutation of the table
	assert.True(t, sPrime[0].Equal(&aPrime[0]))
	assert.NotEqual(t, sorted(table), sorted(sPrime))
}

func TestMultiplicities(t *testing.T) {
	table := []fr.Element{fr.NewElement(5), fr.NewElement(6), fr.NewElement(5), fr.NewElement(7)}
	input := []fr.Element{fr.NewElement(5), fr.NewElement(5), fr.NewElement(7), fr.NewElement(5)}

	m := multiplicities("test", input, table)
	require.Len(t, m, 4)
	assert.Equal(t, uint64(3), m[0].Uint64())
	assert.Equal(t, uint64(0), m[1].Uint64())
	assert.Equal(t, uint64(0), m[2].Uint64(), "repeated table values count once")
	assert.Equal(t, uint64(1), m[3].Uint64())

	// Σ 1/(a+β) = Σ m/(s+β)
	beta := fr.NewElement(1000)
	var lhs, rhs, t1 fr.Element
	for _, a := range input {
		t1.Add(&a, &beta).Inverse(&t1)
		lhs.Add(&lhs, &t1)
	}
	for i, s := range table {
		t1.Add(&s, &beta).Inverse(&t1).Mul(&t1, &m[i])
		rhs.Add(&rhs, &t1)
	}
	assert.True(t, lhs.Equal(&rhs))
}
