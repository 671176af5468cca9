package plonkish

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/kzg"
	"github.com/consensys/gnark/logger"
	"github.com/schollz/progressbar/v3"

	"github.com/eon-protocol/plonkish/commitment"
)

// LoadParams returns KZG parameters for 2^k rows from the cache directory.
// On a miss they are derived from the SRS at srsURL, or from a fresh random
// setup when srsURL is empty, and cached with their sha256 digest. Random
// setups are cached under their own name and never served for a srsURL.
func LoadParams(k uint8, srsURL string) (*commitment.Params, error) {
	if k == 0 || k > MAX_K {
		return nil, fmt.Errorf("%w: %d", errInvalidK, k)
	}
	log := logger.Logger().With().Str("backend", "plonkish").Uint8("k", k).Logger()
	pathParams := paramsPath(k, srsURL)
	insecure := srsURL == ""

	raw, errRead := os.ReadFile(pathParams)
	sum, errSum := os.ReadFile(pathParams + ".sha256")
	if errRead == nil && errSum == nil && digestHex(raw) == string(bytes.TrimSpace(sum)) {
		params := new(commitment.Params)
		if _, err := params.ReadFrom(bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("read cached params: %w", err)
		}
		if params.K == k {
			if insecure {
				log.Warn().Str("path", pathParams).Msg("using an insecure local setup")
			}
			return params, nil
		}
	}

	log.Info().Msg("local params cache not found; generating ...")
	var srs *kzg.SRS
	var err error
	if insecure {
		log.Warn().Msg("no srs url given, sampling an insecure local setup")
		srs, err = localSRS(k)
	} else {
		srs, err = downloadSRS(srsURL)
	}
	if err != nil {
		return nil, err
	}
	params, err := commitment.NewParams(srs, k)
	if err != nil {
		return nil, err
	}
	return params, SaveParams(params, pathParams)
}

func paramsPath(k uint8, srsURL string) string {
	format := PARAMS_FILE_FMT
	if srsURL == "" {
		format = INSECURE_PARAMS_FILE_FMT
	}
	return path.Join(DATA_CACHE_DIR, fmt.Sprintf(format, k))
}

// SaveParams writes params and their sha256 digest next to each other.
func SaveParams(params *commitment.Params, file string) error {
	var buf bytes.Buffer
	if _, err := params.WriteTo(&buf); err != nil {
		return err
	}
	if err := os.MkdirAll(path.Dir(file), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(file, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.WriteFile(file+".sha256", []byte(digestHex(buf.Bytes())), 0o644)
}

func digestHex(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func downloadSRS(url string) (*kzg.SRS, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download srs: %s", resp.Status)
	}
	var buf bytes.Buffer
	bar := progressbar.DefaultBytes(resp.ContentLength, "Downloading SRS")
	if _, err := io.Copy(io.MultiWriter(&buf, bar), resp.Body); err != nil {
		return nil, err
	}
	srs := new(kzg.SRS)
	if _, err := srs.ReadFrom(&buf); err != nil {
		return nil, fmt.Errorf("decode srs: %w", err)
	}
	return srs, nil
}

func localSRS(k uint8) (*kzg.SRS, error) {
	alpha, err := rand.Int(rand.Reader, fr.Modulus())
	if err != nil {
		return nil, err
	}
	return kzg.NewSRS(uint64(1)<<k+3, alpha)
}
