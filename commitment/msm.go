package commitment

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// MSM is a lazily evaluated linear combination of G1 points.
type MSM struct {
	bases   []bls12381.G1Affine
	scalars []fr.Element
}

func NewMSM() *MSM {
	return &MSM{}
}

// Single returns the MSM 1·p.
func Single(p bls12381.G1Affine) *MSM {
	return NewMSM().Append(fr.One(), p)
}

func (me *MSM) Append(scalar fr.Element, base bls12381.G1Affine) *MSM {
	me.bases = append(me.bases, base)
	me.scalars = append(me.scalars, scalar)
	return me
}

// AddMSM adds scale·other to me.
func (me *MSM) AddMSM(other *MSM, scale fr.Element) *MSM {
	for i := range other.bases {
		var s fr.Element
		s.Mul(&other.scalars[i], &scale)
		me.Append(s, other.bases[i])
	}
	return me
}

func (me *MSM) Scale(s fr.Element) *MSM {
	for i := range me.scalars {
		me.scalars[i].Mul(&me.scalars[i], &s)
	}
	return me
}

func (me *MSM) Len() int {
	return len(me.bases)
}

func (me *MSM) Eval() (bls12381.G1Affine, error) {
	var res bls12381.G1Affine
	if len(me.bases) == 0 {
		return res, nil
	}
	if _, err := res.MultiExp(me.bases, me.scalars, ecc.MultiExpConfig{}); err != nil {
		return res, fmt.Errorf("msm: %w", err)
	}
	return res, nil
}
