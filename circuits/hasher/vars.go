// Centralizes the Poseidon2 parameters shared with the transcript.
package hasher

import (
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/poseidon2"

	"github.com/eon-protocol/plonkish/transcript"
)

const WIDTH = transcript.HASH_T
const ROUND_FULL = transcript.HASH_RF
const ROUND_PARTIAL = transcript.HASH_RP
const SEED = transcript.HASH_SEED

// ROWS is the number of rows one compression occupies: the initial external
// matrix, one row per round and the output row.
const ROWS = 1 + ROUND_FULL + ROUND_PARTIAL + 1

// GetParameters returns the Poseidon2 round keys for the parameters above.
var GetParameters = sync.OnceValue(func() *poseidon2.Parameters {
	return poseidon2.NewParametersWithSeed(WIDTH, ROUND_FULL, ROUND_PARTIAL, SEED)
})
