package commitment

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eon-protocol/plonkish/poly"
	"github.com/eon-protocol/plonkish/transcript"
)

func testParams(t *testing.T, k uint8) *Params {
	params, err := Setup(k, new(big.Int).SetUint64(0xdeadbeef))
	require.NoError(t, err)
	return params
}

func TestCommitLagrangeMatchesCoeff(t *testing.T) {
	params := testParams(t, 3)
	d := poly.NewEvaluationDomain(3, 3)

	coeffs := make(poly.Polynomial[poly.Coeff], d.N)
	for i := range coeffs {
		coeffs[i].SetUint64(uint64(i*i + 1))
	}
	c1, err := params.Commit(coeffs)
	require.NoError(t, err)
	c2, err := params.CommitLagrange(d.CoeffToLagrange(coeffs))
	require.NoError(t, err)
	assert.True(t, c1.Equal(&c2))
}

func TestOpenVerify(t *testing.T) {
	params := testParams(t, 3)
	coeffs := make([]fr.Element, params.N())
	for i := range coeffs {
		coeffs[i].SetUint64(uint64(3*i + 2))
	}
	c, err := params.Commit(coeffs)
	require.NoError(t, err)
	var point fr.Element
	point.SetUint64(99)
	value := poly.Eval(coeffs, point)

	var buf bytes.Buffer
	require.NoError(t, params.Open(transcript.NewWriter(&buf, transcript.NewPoseidon2()), coeffs, point))

	t.Run("Valid", func(t *testing.T) {
		r := transcript.NewReader(bytes.NewReader(buf.Bytes()), transcript.NewPoseidon2())
		require.NoError(t, params.Verify(r, Single(c), point, value))
	})

	t.Run("WrongValue", func(t *testing.T) {
		one := fr.One()
		var wrong fr.Element
		wrong.Add(&value, &one)
		r := transcript.NewReader(bytes.NewReader(buf.Bytes()), transcript.NewPoseidon2())
		err := params.Verify(r, Single(c), point, wrong)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrOpeningFailed))
	})

	t.Run("ScaledMSM", func(t *testing.T) {
		// 2·[p] opens to 2·p(point)
		two := fr.NewElement(2)
		var twice fr.Element
		twice.Mul(&value, &two)
		msm := NewMSM().AddMSM(Single(c), two)
		r := transcript.NewReader(bytes.NewReader(buf.Bytes()), transcript.NewPoseidon2())
		require.Error(t, params.Verify(r, msm, point, twice), "proof is for p, not 2p")

		var buf2 bytes.Buffer
		doubled := make([]fr.Element, len(coeffs))
		for i := range coeffs {
			doubled[i].Mul(&coeffs[i], &two)
		}
		require.NoError(t, params.Open(transcript.NewWriter(&buf2, transcript.NewPoseidon2()), doubled, point))
		r = transcript.NewReader(bytes.NewReader(buf2.Bytes()), transcript.NewPoseidon2())
		require.NoError(t, params.Verify(r, msm, point, twice))
	})
}

func TestParamsSerialization(t *testing.T) {
	params := testParams(t, 2)
	var buf bytes.Buffer
	n, err := params.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	var got Params
	m, err := got.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, params.K, got.K)
	assert.Equal(t, params.Lagrange.G1, got.Lagrange.G1)
	assert.Equal(t, params.Srs.Pk.G1, got.Srs.Pk.G1)
}
