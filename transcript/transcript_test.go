package transcript

import (
	"bytes"
	"errors"
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderAgree(t *testing.T) {
	_, _, g1, _ := bls12381.Generators()
	var s fr.Element
	s.SetUint64(12345)

	for _, name := range []string{"poseidon2", "blake2b"} {
		t.Run(name, func(t *testing.T) {
			hw, err := NewHasher(name)
			require.NoError(t, err)
			var buf bytes.Buffer
			w := NewWriter(&buf, hw)
			require.NoError(t, w.CommonScalar(fr.NewElement(7)))
			require.NoError(t, w.WritePoint(g1))
			c1 := w.SqueezeChallenge()
			require.NoError(t, w.WriteScalar(s))
			c2 := w.SqueezeChallenge()
			assert.False(t, c1.Equal(&c2))
			assert.Equal(t, bls12381.SizeOfG1AffineCompressed+fr.Bytes, buf.Len())

			hr, err := NewHasher(name)
			require.NoError(t, err)
			r := NewReader(bytes.NewReader(buf.Bytes()), hr)
			require.NoError(t, r.CommonScalar(fr.NewElement(7)))
			p, err := r.ReadPoint()
			require.NoError(t, err)
			assert.True(t, p.Equal(&g1))
			d1 := r.SqueezeChallenge()
			got, err := r.ReadScalar()
			require.NoError(t, err)
			assert.True(t, got.Equal(&s))
			d2 := r.SqueezeChallenge()
			assert.True(t, c1.Equal(&d1))
			assert.True(t, c2.Equal(&d2))
		})
	}
}

func TestChallengesDependOnAbsorbedData(t *testing.T) {
	a := NewWriter(&bytes.Buffer{}, NewPoseidon2())
	b := NewWriter(&bytes.Buffer{}, NewPoseidon2())
	require.NoError(t, a.CommonScalar(fr.NewElement(1)))
	require.NoError(t, b.CommonScalar(fr.NewElement(2)))
	ca, cb := a.SqueezeChallenge(), b.SqueezeChallenge()
	assert.False(t, ca.Equal(&cb))

	// squeezing twice yields distinct challenges
	ca2 := a.SqueezeChallenge()
	assert.False(t, ca.Equal(&ca2))
}

func TestDecodeErrors(t *testing.T) {
	t.Run("TrailingBytes", func(t *testing.T) {
		s := fr.NewElement(7)
		b := s.Bytes()

		r := NewReader(bytes.NewReader(b[:]), NewPoseidon2())
		_, err := r.ReadScalar()
		require.NoError(t, err)
		require.NoError(t, r.Finish())

		r = NewReader(bytes.NewReader(append(b[:], 0)), NewPoseidon2())
		_, err = r.ReadScalar()
		require.NoError(t, err)
		require.ErrorIs(t, r.Finish(), ErrDecode)
	})

	t.Run("Truncated", func(t *testing.T) {
		r := NewReader(bytes.NewReader(make([]byte, 10)), NewPoseidon2())
		_, err := r.ReadScalar()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDecode))
	})

	t.Run("ScalarOutOfRange", func(t *testing.T) {
		buf := bytes.Repeat([]byte{0xff}, fr.Bytes)
		r := NewReader(bytes.NewReader(buf), NewPoseidon2())
		_, err := r.ReadScalar()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDecode))
	})

	t.Run("PointNotOnCurve", func(t *testing.T) {
		_, _, g1, _ := bls12381.Generators()
		b := g1.Bytes()
		b[len(b)-1] ^= 1
		r := NewReader(bytes.NewReader(b[:]), NewPoseidon2())
		_, err := r.ReadPoint()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDecode))
	})
}

func TestUnknownHasher(t *testing.T) {
	_, err := NewHasher("sha1")
	require.Error(t, err)
}
