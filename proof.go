package plonkish

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/transcript"
)

// Proof is a serialized transcript.
type Proof []byte

// CreateProof proves c with a transcript over the named hash.
func CreateProof[C any](scheme commitment.Scheme, pk *Pk, c circuit.Circuit[C], instances [][]fr.Element, hash string) (Proof, error) {
	h, err := transcript.NewHasher(hash)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Prove(scheme, pk, c, instances, transcript.NewWriter(&buf, h)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Verify checks the proof with a transcript over the named hash.
func (me Proof) Verify(scheme commitment.Scheme, vk *Vk, instances [][]fr.Element, hash string) error {
	h, err := transcript.NewHasher(hash)
	if err != nil {
		return err
	}
	return Verify(scheme, vk, instances, transcript.NewReader(bytes.NewReader(me), h))
}

func (me Proof) WriteTo(w io.Writer) (int64, error) {
	buf := [4]byte{}
	binary.BigEndian.PutUint32(buf[:], uint32(len(me)))
	if n, err := w.Write(buf[:]); err != nil {
		return int64(n), err
	}
	n, err := w.Write(me)
	return 4 + int64(n), err
}

func (me *Proof) ReadFrom(r io.Reader) (int64, error) {
	buf := [4]byte{}
	if n, err := io.ReadFull(r, buf[:]); err != nil {
		return int64(n), err
	}
	size := binary.BigEndian.Uint32(buf[:])
	if size > MAX_PROOF_SIZE {
		return 4, fmt.Errorf("%w: proof of %d bytes", transcript.ErrDecode, size)
	}
	*me = make(Proof, size)
	n, err := io.ReadFull(r, *me)
	return 4 + int64(n), err
}
