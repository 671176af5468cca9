package plonkish

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/permutation"
	"github.com/eon-protocol/plonkish/poly"
)

// Pk is a proving key. It is rebuilt from a Vk and the circuit with KeygenPk
// and never serialized.
type Pk struct {
	vk *Vk

	fixedValues []poly.Polynomial[poly.LagrangeCoeff]
	fixedPolys  []poly.Polynomial[poly.Coeff]
	fixedCosets []poly.Polynomial[poly.ExtendedLagrangeCoeff]

	// l0, l_last and l_active over the extended coset
	l0, lLast, lActive poly.Polynomial[poly.ExtendedLagrangeCoeff]

	permutation *permutation.ProvingKey
	ev          *evaluator
}

func (me *Pk) Vk() *Vk {
	return me.vk
}

func columns[B poly.Basis](ps []poly.Polynomial[B]) [][]fr.Element {
	res := make([][]fr.Element, len(ps))
	for i := range ps {
		res[i] = ps[i]
	}
	return res
}
