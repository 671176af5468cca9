package main

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish"
	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/circuits/hasher"
	"github.com/eon-protocol/plonkish/circuits/mul"
	"github.com/eon-protocol/plonkish/commitment"
)

// Sample is a circuit the CLI knows how to key, prove and verify.
type Sample interface {
	MinK() uint8
	Keygen(scheme commitment.Scheme) (*plonkish.Pk, error)
	// Prove takes the private inputs and returns the proof with its instances.
	Prove(scheme commitment.Scheme, pk *plonkish.Pk, inputs []fr.Element, hash string) (plonkish.Proof, [][]fr.Element, error)
	// Instances builds the public inputs a verifier checks against.
	Instances(public []fr.Element) ([][]fr.Element, error)
}

var samples = map[string]Sample{
	"mul": sample[mul.Config]{
		minK:   3,
		shape:  &mul.Circuit{},
		inputs: 2,
		public: 1,
		build: func(in []fr.Element) (circuit.Circuit[mul.Config], [][]fr.Element) {
			var c fr.Element
			c.Mul(&in[0], &in[1])
			return &mul.Circuit{A: circuit.Known(in[0]), B: circuit.Known(in[1])}, [][]fr.Element{{c}}
		},
	},
	"hasher": sample[hasher.CircuitConfig]{
		minK:   7,
		shape:  &hasher.Circuit{},
		inputs: 2,
		public: 3,
		build: func(in []fr.Element) (circuit.Circuit[hasher.CircuitConfig], [][]fr.Element) {
			out := hasher.Compress(in[0], in[1])
			return &hasher.Circuit{X: circuit.Known(in[0]), Y: circuit.Known(in[1])}, [][]fr.Element{{in[0], in[1], out}}
		},
	},
}

type sample[C any] struct {
	minK           uint8
	shape          circuit.Circuit[C]
	inputs, public int
	build          func(in []fr.Element) (circuit.Circuit[C], [][]fr.Element)
}

func (me sample[C]) MinK() uint8 {
	return me.minK
}

func (me sample[C]) Keygen(scheme commitment.Scheme) (*plonkish.Pk, error) {
	vk, err := plonkish.KeygenVk(scheme, me.shape)
	if err != nil {
		return nil, err
	}
	return plonkish.KeygenPk(scheme, vk, me.shape)
}

func (me sample[C]) Prove(scheme commitment.Scheme, pk *plonkish.Pk, inputs []fr.Element, hash string) (plonkish.Proof, [][]fr.Element, error) {
	if len(inputs) != me.inputs {
		return nil, nil, fmt.Errorf("expected %d private inputs, got %d", me.inputs, len(inputs))
	}
	c, instances := me.build(inputs)
	proof, err := plonkish.CreateProof(scheme, pk, c, instances, hash)
	if err != nil {
		return nil, nil, err
	}
	return proof, instances, nil
}

func (me sample[C]) Instances(public []fr.Element) ([][]fr.Element, error) {
	if len(public) != me.public {
		return nil, fmt.Errorf("expected %d public inputs, got %d", me.public, len(public))
	}
	return [][]fr.Element{public}, nil
}

func parseElements(args []string) ([]fr.Element, error) {
	res := make([]fr.Element, len(args))
	for i, a := range args {
		if _, err := res[i].SetString(a); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return res, nil
}
