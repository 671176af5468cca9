package commitment

import (
	"errors"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/transcript"
)

// ErrOpeningFailed is returned when an opening proof does not check.
var ErrOpeningFailed = errors.New("opening proof check failed")

// Scheme is a polynomial commitment scheme over BLS12-381 G1.
type Scheme interface {
	// N is the size of the evaluation domain the scheme was set up for.
	N() int
	Commit(coeffs []fr.Element) (bls12381.G1Affine, error)
	// CommitLagrange commits to the polynomial taking evals over the 2^k domain.
	CommitLagrange(evals []fr.Element) (bls12381.G1Affine, error)
	// Open writes to w a proof that the committed polynomial evaluates to
	// coeffs(point) at point.
	Open(w transcript.Writer, coeffs []fr.Element, point fr.Element) error
	// Verify reads an opening proof from r and checks that the commitment
	// msm evaluates to value at point.
	Verify(r transcript.Reader, msm *MSM, point, value fr.Element) error
}
