package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/eon-protocol/plonkish"
	"github.com/eon-protocol/plonkish/commitment"
)

// loadVk reads the verifying key given with --vk, or derives it from the
// configured circuit.
func loadVk(params *commitment.Params) (*plonkish.Vk, error) {
	if verifyVk == "" {
		pk, err := cfg.Sample().Keygen(params)
		if err != nil {
			return nil, err
		}
		return pk.Vk(), nil
	}
	raw, err := os.ReadFile(verifyVk)
	if err != nil {
		return nil, err
	}
	vk := new(plonkish.Vk)
	if _, err := vk.ReadFrom(hex.NewDecoder(bytes.NewReader(bytes.TrimSpace(raw)))); err != nil {
		return nil, fmt.Errorf("decode vk %s: %w", verifyVk, err)
	}
	if vk.K() != params.K {
		return nil, fmt.Errorf("vk is for k = %d, params for k = %d", vk.K(), params.K)
	}
	return vk, nil
}
