package commitment

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/kzg"

	"github.com/eon-protocol/plonkish/transcript"
)

// Params are KZG public parameters for polynomials of 2^K coefficients.
type Params struct {
	K        uint8
	Srs      *kzg.SRS
	Lagrange kzg.ProvingKey
}

var _ Scheme = (*Params)(nil)

// Setup samples parameters from a known toxic waste alpha. For tests and
// local tooling only.
func Setup(k uint8, alpha *big.Int) (*Params, error) {
	srs, err := kzg.NewSRS(uint64(1)<<k+3, alpha)
	if err != nil {
		return nil, fmt.Errorf("new srs: %w", err)
	}
	return NewParams(srs, k)
}

// NewParams derives parameters for 2^k rows from a larger SRS.
func NewParams(srs *kzg.SRS, k uint8) (*Params, error) {
	n := 1 << k
	if len(srs.Pk.G1) < n {
		return nil, fmt.Errorf("srs holds %d points, need %d", len(srs.Pk.G1), n)
	}
	lagrange, err := kzg.ToLagrangeG1(srs.Pk.G1[:n])
	if err != nil {
		return nil, fmt.Errorf("lagrange srs: %w", err)
	}
	return &Params{K: k, Srs: srs, Lagrange: kzg.ProvingKey{G1: lagrange}}, nil
}

func (me *Params) N() int {
	return 1 << me.K
}

func (me *Params) Commit(coeffs []fr.Element) (bls12381.G1Affine, error) {
	return kzg.Commit(coeffs, me.Srs.Pk)
}

func (me *Params) CommitLagrange(evals []fr.Element) (bls12381.G1Affine, error) {
	if len(evals) != len(me.Lagrange.G1) {
		return bls12381.G1Affine{}, fmt.Errorf("lagrange commit: %d evaluations for %d bases", len(evals), len(me.Lagrange.G1))
	}
	return kzg.Commit(evals, me.Lagrange)
}

func (me *Params) Open(w transcript.Writer, coeffs []fr.Element, point fr.Element) error {
	proof, err := kzg.Open(coeffs, point, me.Srs.Pk)
	if err != nil {
		return fmt.Errorf("kzg open: %w", err)
	}
	return w.WritePoint(proof.H)
}

func (me *Params) Verify(r transcript.Reader, msm *MSM, point, value fr.Element) error {
	h, err := r.ReadPoint()
	if err != nil {
		return err
	}
	digest, err := msm.Eval()
	if err != nil {
		return err
	}
	proof := kzg.OpeningProof{H: h, ClaimedValue: value}
	if err := kzg.Verify(&digest, &proof, point, me.Srs.Vk); err != nil {
		if errors.Is(err, kzg.ErrVerifyOpeningProof) {
			return fmt.Errorf("%w: %w", ErrOpeningFailed, err)
		}
		return fmt.Errorf("kzg verify: %w", err)
	}
	return nil
}

func (me *Params) WriteTo(w io.Writer) (int64, error) {
	if n, err := w.Write([]byte{me.K}); err != nil {
		return int64(n), err
	}
	n, err := me.Srs.WriteTo(w)
	if err != nil {
		return n + 1, err
	}
	enc := bls12381.NewEncoder(w)
	if err := enc.Encode(me.Lagrange.G1); err != nil {
		return n + 1 + enc.BytesWritten(), err
	}
	return n + 1 + enc.BytesWritten(), nil
}

func (me *Params) ReadFrom(r io.Reader) (int64, error) {
	k := [1]byte{}
	if n, err := io.ReadFull(r, k[:]); err != nil {
		return int64(n), err
	}
	me.K = k[0]
	me.Srs = new(kzg.SRS)
	n, err := me.Srs.ReadFrom(r)
	if err != nil {
		return n + 1, err
	}
	dec := bls12381.NewDecoder(r)
	if err := dec.Decode(&me.Lagrange.G1); err != nil {
		return n + 1 + dec.BytesRead(), err
	}
	if len(me.Lagrange.G1) != me.N() {
		return n + 1 + dec.BytesRead(), fmt.Errorf("lagrange srs holds %d points, need %d", len(me.Lagrange.G1), me.N())
	}
	return n + 1 + dec.BytesRead(), nil
}
