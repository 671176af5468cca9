package circuit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eon-protocol/plonkish/poly"
)

func TestDescriptorRoundTrip(t *testing.T) {
	cs, _ := testExpression(t)
	a := Column{Index: 0, Type: Advice}
	table := cs.FixedColumn()
	cs.EnableEquality(a)
	cs.EnableEquality(Column{Index: 0, Type: Instance})
	cs.Lookup("table", LogDerivativeLookup, func(vc *VirtualCells) ([]Expression, []Expression) {
		return []Expression{vc.QueryAdvice(a, poly.Next)}, []Expression{vc.QueryFixed(table, poly.Cur)}
	})
	cs.Shuffle("shuffle", func(vc *VirtualCells) ([]Expression, []Expression) {
		return []Expression{vc.QueryAdvice(a, poly.Cur)}, []Expression{vc.QueryAdvice(Column{Index: 1, Type: Advice}, poly.Cur)}
	})

	data, err := cs.MarshalBinary()
	require.NoError(t, err)

	var decoded ConstraintSystem
	require.NoError(t, decoded.UnmarshalBinary(data))
	require.Equal(t, cs.Degree(), decoded.Degree())
	require.Equal(t, cs.BlindingFactors(), decoded.BlindingFactors())
	require.Equal(t, cs.AdviceQueries, decoded.AdviceQueries)
	require.Equal(t, cs.FixedQueries, decoded.FixedQueries)
	require.Equal(t, cs.Permutation, decoded.Permutation)
	require.Equal(t, String(cs.Gates[0].Polys[0]), String(decoded.Gates[0].Polys[0]))
	require.Equal(t, cs.Lookups[0].Kind, decoded.Lookups[0].Kind)
	require.Equal(t, cs.Lookups[0].Inputs, decoded.Lookups[0].Inputs)
	require.Equal(t, cs.Shuffles[0].Shuffles, decoded.Shuffles[0].Shuffles)

	again, err := decoded.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, data, again, "encoding is deterministic")
}

func TestDescriptorRejectsGarbage(t *testing.T) {
	var cs ConstraintSystem
	require.ErrorIs(t, cs.UnmarshalBinary([]byte{0xff, 0x00}), errInvalidDescriptor)

	bad := descriptor{NumAdvice: 1, AdvicePhases: []Phase{FirstPhase}, NumAdviceQueries: []int{0}}
	bad.Gates = []gateDesc{{Name: "g", Polys: []exprNode{{Kind: nodeAdvice, Index: 3}}}}
	data, err := encMode.Marshal(&bad)
	require.NoError(t, err)
	require.ErrorIs(t, cs.UnmarshalBinary(data), errInvalidDescriptor)
}
