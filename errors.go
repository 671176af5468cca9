package plonkish

import (
	"errors"
)

var (
	// ErrVerificationFailed is returned for a well formed proof that does
	// not verify.
	ErrVerificationFailed = errors.New("proof verification failed")
	ErrInvalidInstances   = errors.New("invalid instances")

	errCircuitMismatch = errors.New("circuit does not match verifying key")
	errInvalidK        = errors.New("invalid k")
)
