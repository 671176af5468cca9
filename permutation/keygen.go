package permutation

import (
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"golang.org/x/sync/errgroup"

	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/poly"
)

type VerifyingKey struct {
	Commitments []bls12381.G1Affine
}

// ProvingKey holds σ in every basis the prover needs.
type ProvingKey struct {
	Permutations []poly.Polynomial[poly.LagrangeCoeff]
	Polys        []poly.Polynomial[poly.Coeff]
	Cosets       []poly.Polynomial[poly.ExtendedLagrangeCoeff]
}

// BuildVerifyingKey commits to every σ_j.
func (a *Assembly) BuildVerifyingKey(scheme commitment.Scheme, d *poly.EvaluationDomain) (*VerifyingKey, error) {
	perms := a.BuildPermutations(d)
	vk := &VerifyingKey{Commitments: make([]bls12381.G1Affine, len(perms))}

	g := new(errgroup.Group)
	for j := range perms {
		g.Go(func() (err error) {
			vk.Commitments[j], err = scheme.CommitLagrange(perms[j])
			if err != nil {
				return fmt.Errorf("commit permutation %d: %w", j, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vk, nil
}

func (a *Assembly) BuildProvingKey(d *poly.EvaluationDomain) *ProvingKey {
	perms := a.BuildPermutations(d)
	pk := &ProvingKey{
		Permutations: perms,
		Polys:        make([]poly.Polynomial[poly.Coeff], len(perms)),
		Cosets:       make([]poly.Polynomial[poly.ExtendedLagrangeCoeff], len(perms)),
	}
	for j, p := range perms {
		pk.Polys[j] = d.LagrangeToCoeff(p)
		pk.Cosets[j] = d.CoeffToExtended(pk.Polys[j])
	}
	return pk
}
