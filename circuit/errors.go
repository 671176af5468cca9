package circuit

import "errors"

var (
	ErrNotEnoughRowsAvailable = errors.New("not enough rows available")
	ErrColumnNotInPermutation = errors.New("column not in permutation argument")
	ErrBoundsFailure          = errors.New("out of bounds")
	ErrSynthesis              = errors.New("synthesis failed")
	ErrUnknownValue           = errors.New("witness value unknown")
)
