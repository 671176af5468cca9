package transcript

import (
	"hash"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/crypto/blake2b"
)

const (
	blake2bPrefixChallenge byte = 0
	blake2bPrefixPoint     byte = 1
	blake2bPrefixScalar    byte = 2
)

var blake2bPersonalization = []byte("Plonkish-Transcript")

type blake2bHasher struct {
	h hash.Hash
}

// NewBlake2b returns a hasher over a running BLAKE2b-512 state. Challenges
// reduce the 64 byte digest modulo r.
func NewBlake2b() Hasher {
	h, err := blake2b.New512(nil)
	if err != nil {
		panic(err)
	}
	h.Write(blake2bPersonalization)
	return &blake2bHasher{h: h}
}

func (me *blake2bHasher) AbsorbPoint(p bls12381.G1Affine) {
	b := p.RawBytes()
	me.h.Write([]byte{blake2bPrefixPoint})
	me.h.Write(b[:])
}

func (me *blake2bHasher) AbsorbScalar(s fr.Element) {
	b := s.Bytes()
	me.h.Write([]byte{blake2bPrefixScalar})
	me.h.Write(b[:])
}

func (me *blake2bHasher) Squeeze() fr.Element {
	me.h.Write([]byte{blake2bPrefixChallenge})
	var res fr.Element
	res.SetBytes(me.h.Sum(nil))
	return res
}
