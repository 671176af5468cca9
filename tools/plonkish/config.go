package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eon-protocol/plonkish"
	"github.com/eon-protocol/plonkish/commitment"
)

// Config selects the circuit, its size and where the KZG parameters come from.
type Config struct {
	K       uint8     `yaml:"k"`
	Hash    string    `yaml:"hash"`
	Circuit string    `yaml:"circuit"`
	SRS     SRSConfig `yaml:"srs"`
}

// SRSConfig points at serialized parameters, or at a remote SRS to derive
// and cache them from. Both empty means an insecure local setup.
type SRSConfig struct {
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
}

// LoadConfig reads file, when given, over the defaults.
func LoadConfig(file string) (*Config, error) {
	c := &Config{Hash: plonkish.DEFAULT_HASH, Circuit: "mul"}
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
	}
	s, ok := samples[c.Circuit]
	if !ok {
		return nil, fmt.Errorf("unknown circuit %q", c.Circuit)
	}
	if c.K == 0 {
		c.K = s.MinK()
	}
	if c.K < s.MinK() || c.K > plonkish.MAX_K {
		return nil, fmt.Errorf("k = %d out of range [%d, %d] for %s", c.K, s.MinK(), plonkish.MAX_K, c.Circuit)
	}
	return c, nil
}

func (me *Config) Sample() Sample {
	return samples[me.Circuit]
}

// Params loads the parameters for 2^K rows.
func (me *Config) Params() (*commitment.Params, error) {
	if me.SRS.Path == "" {
		return plonkish.LoadParams(me.K, me.SRS.URL)
	}
	f, err := os.Open(me.SRS.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	params := new(commitment.Params)
	if _, err := params.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("read params %s: %w", me.SRS.Path, err)
	}
	if params.K != me.K {
		return nil, fmt.Errorf("params %s are for k = %d, config asks for %d", me.SRS.Path, params.K, me.K)
	}
	return params, nil
}
