package transcript

import (
	"log"
	"math/big"
	"sync"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/poseidon2"
)

const HASH_T = 2
const HASH_RF = 8
const HASH_RP = 56
const HASH_SEED = "PLONKISH_POSEIDON2_TRANSCRIPT_SEED"

var (
	tagPoint     = fr.NewElement(1)
	tagScalar    = fr.NewElement(2)
	tagChallenge = fr.NewElement(3)
)

var permutation = sync.OnceValue(func() *poseidon2.Permutation {
	return poseidon2.NewPermutationWithSeed(HASH_T, HASH_RF, HASH_RP, HASH_SEED)
})

// DecomposeG1 splits each base field coordinate into quotient and remainder
// modulo the scalar field.
func DecomposeG1(val bls12381.G1Affine) [2][2]fr.Element {
	var ixq, ixm, iyq, iym big.Int
	var exq, exm, eyq, eym fr.Element
	val.X.BigInt(&ixq)
	val.Y.BigInt(&iyq)
	ixq.DivMod(&ixq, fr.Modulus(), &ixm)
	iyq.DivMod(&iyq, fr.Modulus(), &iym)
	exq.SetBigInt(&ixq)
	exm.SetBigInt(&ixm)
	eyq.SetBigInt(&iyq)
	eym.SetBigInt(&iym)
	return [2][2]fr.Element{{exq, exm}, {eyq, eym}}
}

func HashG1(val bls12381.G1Affine) fr.Element {
	decompose := DecomposeG1(val)
	x := HashCompress(decompose[0][0], decompose[0][1])
	y := HashCompress(decompose[1][0], decompose[1][1])
	return HashCompress(x, y)
}

func HashCompress(x, y fr.Element) fr.Element {
	vars := [2]fr.Element{x, y}
	if err := permutation().Permutation(vars[:]); err != nil {
		log.Fatalln(err)
	}
	var ret fr.Element
	ret.Add(&vars[1], &y)
	return ret
}

func HashSum(val ...fr.Element) fr.Element {
	var ret fr.Element
	for _, v := range val {
		ret = HashCompress(ret, v)
	}
	return ret
}

type poseidon2Hasher struct {
	state fr.Element
}

// NewPoseidon2 returns an algebraic hasher chaining Poseidon2 compressions.
func NewPoseidon2() Hasher {
	return &poseidon2Hasher{}
}

func (me *poseidon2Hasher) AbsorbPoint(p bls12381.G1Affine) {
	me.state = HashCompress(HashCompress(me.state, tagPoint), HashG1(p))
}

func (me *poseidon2Hasher) AbsorbScalar(s fr.Element) {
	me.state = HashCompress(HashCompress(me.state, tagScalar), s)
}

func (me *poseidon2Hasher) Squeeze() fr.Element {
	me.state = HashCompress(me.state, tagChallenge)
	return me.state
}
