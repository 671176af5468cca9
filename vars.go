package plonkish

import (
	"os"
	"path"
)

const MAX_K = 28
const DEFAULT_HASH = "poseidon2"
const PARAMS_FILE_FMT = "PARAMS.K%d.BIN"
const INSECURE_PARAMS_FILE_FMT = "PARAMS.K%d.INSECURE.BIN"
const MAX_PROOF_SIZE = 1 << 24

// bytes per field element when hashing a serialized verifying key
const DIGEST_CHUNK = 31

var DATA_CACHE_DIR = func() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return path.Join(os.TempDir(), "plonkish")
	}
	return path.Join(dir, "plonkish")
}()
