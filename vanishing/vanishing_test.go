package vanishing

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/multiopen"
	"github.com/eon-protocol/plonkish/poly"
	"github.com/eon-protocol/plonkish/transcript"
)

// a(X)² - a²(X) vanishes on H, where a² interpolates the squares of a.
func TestQuotientRoundTrip(t *testing.T) {
	const k = 3
	d := poly.NewEvaluationDomain(k, 4)
	params, err := commitment.Setup(k, big.NewInt(31337))
	require.NoError(t, err)

	a := d.EmptyLagrange()
	sq := d.EmptyLagrange()
	for i := range a {
		a[i].SetUint64(uint64(5*i + 3))
		sq[i].Square(&a[i])
	}
	aCoeffs := d.LagrangeToCoeff(a)
	sqCoeffs := d.LagrangeToCoeff(sq)
	aExt := d.CoeffToExtended(aCoeffs)
	sqExt := d.CoeffToExtended(sqCoeffs)
	numerator := d.EmptyExtended()
	for i := range numerator {
		numerator[i].Square(&aExt[i]).Sub(&numerator[i], &sqExt[i])
	}

	var buf bytes.Buffer
	w := transcript.NewWriter(&buf, transcript.NewPoseidon2())
	committed, err := Commit(w, params, d, numerator)
	require.NoError(t, err)
	require.Len(t, committed.pieces, d.QuotientDegree)

	x := fr.NewElement(987654321)
	evaluated := committed.Evaluate(d, x)
	require.NoError(t, multiopen.Open(w, params, evaluated.Queries(x)))

	r := transcript.NewReader(bytes.NewReader(buf.Bytes()), transcript.NewPoseidon2())
	vc, err := ReadCommitments(r, d)
	require.NoError(t, err)

	ax := poly.Eval(aCoeffs, x)
	ax.Square(&ax)
	sqx := poly.Eval(sqCoeffs, x)
	var c fr.Element
	c.Sub(&ax, &sqx)

	ve := vc.Verify(d, []fr.Element{c}, fr.NewElement(2), x)
	require.NoError(t, multiopen.Verify(r, params, ve.Queries(x)))

	// a wrong constraint value moves the expected h(x)
	one := fr.One()
	c.Add(&c, &one)
	r = transcript.NewReader(bytes.NewReader(buf.Bytes()), transcript.NewPoseidon2())
	vc, err = ReadCommitments(r, d)
	require.NoError(t, err)
	ve = vc.Verify(d, []fr.Element{c}, fr.NewElement(2), x)
	require.ErrorIs(t, multiopen.Verify(r, params, ve.Queries(x)), commitment.ErrOpeningFailed)
}
