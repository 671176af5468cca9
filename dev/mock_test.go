package dev

import (
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/circuits/mul"
	"github.com/eon-protocol/plonkish/circuits/rangecheck"
	"github.com/eon-protocol/plonkish/circuits/rlc"
	"github.com/eon-protocol/plonkish/circuits/shuffled"
)

func failures(t *testing.T, err error) []*Failure {
	t.Helper()
	var res []*Failure
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var f *Failure
		require.True(t, errors.As(e, &f))
		res = append(res, f)
	}
	return res
}

func TestMul(t *testing.T) {
	instances := [][]fr.Element{{fr.NewElement(6)}}

	m, err := Run[mul.Config](3, mul.New(2, 3), instances)
	require.NoError(t, err)
	require.NoError(t, m.Verify())

	m, err = Run[mul.Config](3, mul.New(2, 4), instances)
	require.NoError(t, err)
	err = m.Verify()
	require.Error(t, err)
	require.Equal(t, []*Failure{{Kind: "gate", Name: "public input", Row: 1}}, failures(t, err))
}

func TestRangeCheck(t *testing.T) {
	for _, kind := range []circuit.LookupKind{circuit.SortedLookup, circuit.LogDerivativeLookup} {
		m, err := Run[rangecheck.Config](4, rangecheck.New(kind, 2, 6, 0, 1, 2, 3), nil)
		require.NoError(t, err)
		require.NoError(t, m.Verify())

		m, err = Run[rangecheck.Config](4, rangecheck.New(kind, 2, 6, 0, 4, 2), nil)
		require.NoError(t, err)
		require.Equal(t, []*Failure{{Kind: "lookup", Name: "range 2 bits", Row: 1}}, failures(t, m.Verify()))
	}
}

func TestShuffle(t *testing.T) {
	m, err := Run[shuffled.Config](4, shuffled.New(4, []uint64{5, 6, 7}, []uint64{7, 5, 6}), nil)
	require.NoError(t, err)
	require.NoError(t, m.Verify())

	m, err = Run[shuffled.Config](4, shuffled.New(4, []uint64{5, 6, 7}, []uint64{7, 5, 5}), nil)
	require.NoError(t, err)
	require.Equal(t, []*Failure{{Kind: "shuffle", Name: "reorder"}}, failures(t, m.Verify()))
}

func TestChallenge(t *testing.T) {
	m, err := Run[rlc.Config](4, rlc.New(1, 2, 3), nil)
	require.NoError(t, err)
	require.NoError(t, m.Verify())
}

// broken copies a cell into one holding a different value.
type broken struct{}

func (broken) Configure(cs *circuit.ConstraintSystem) [2]circuit.Column {
	cols := [2]circuit.Column{cs.AdviceColumn(), cs.AdviceColumn()}
	cs.EnableEquality(cols[0])
	cs.EnableEquality(cols[1])
	return cols
}

func (broken) Synthesize(cols [2]circuit.Column, asg circuit.Assignment) error {
	if err := asg.AssignAdvice(cols[0], 0, circuit.KnownUint64(1)); err != nil {
		return err
	}
	if err := asg.AssignAdvice(cols[1], 1, circuit.KnownUint64(2)); err != nil {
		return err
	}
	return asg.Copy(cols[0], 0, cols[1], 1)
}

func TestPermutation(t *testing.T) {
	m, err := Run[[2]circuit.Column](3, broken{}, nil)
	require.NoError(t, err)
	require.Len(t, failures(t, m.Verify()), 2)
}

func TestRunErrors(t *testing.T) {
	_, err := Run[mul.Config](2, mul.New(1, 1), [][]fr.Element{{}})
	require.ErrorIs(t, err, circuit.ErrNotEnoughRowsAvailable)

	_, err = Run[mul.Config](3, &mul.Circuit{}, [][]fr.Element{{}})
	require.ErrorIs(t, err, circuit.ErrSynthesis)

	_, err = Run[rangecheck.Config](4, rangecheck.New(circuit.SortedLookup, 2, 2, 0, 1, 2), nil)
	require.ErrorIs(t, err, circuit.ErrSynthesis)

	_, err = Run[shuffled.Config](4, shuffled.New(2, []uint64{1, 2, 3}, nil), nil)
	require.ErrorIs(t, err, circuit.ErrSynthesis)
}
