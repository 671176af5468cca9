package plonkish

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/permutation"
	"github.com/eon-protocol/plonkish/poly"
	"github.com/eon-protocol/plonkish/transcript"
)

// Vk is a verifying key: the commitments to the fixed columns and the
// permutation, and the constraint system they belong to.
type Vk struct {
	domain *poly.EvaluationDomain
	cs     *circuit.ConstraintSystem

	FixedCommitments []bls12381.G1Affine
	Permutation      permutation.VerifyingKey

	digest fr.Element
}

func (me *Vk) K() uint8 {
	return me.domain.K
}

func (me *Vk) ConstraintSystem() *circuit.ConstraintSystem {
	return me.cs
}

// Digest is the hash of the serialized key, absorbed first by every proof.
func (me *Vk) Digest() fr.Element {
	return me.digest
}

func (me *Vk) computeDigest() error {
	var buf bytes.Buffer
	if _, err := me.WriteTo(&buf); err != nil {
		return err
	}
	raw := buf.Bytes()
	elems := make([]fr.Element, 0, len(raw)/DIGEST_CHUNK+2)
	elems = append(elems, fr.NewElement(uint64(len(raw))))
	for start := 0; start < len(raw); start += DIGEST_CHUNK {
		var e fr.Element
		e.SetBytes(raw[start:min(start+DIGEST_CHUNK, len(raw))])
		elems = append(elems, e)
	}
	me.digest = transcript.HashSum(elems...)
	return nil
}

func (me *Vk) WriteTo(w io.Writer) (int64, error) {
	desc, err := me.cs.MarshalBinary()
	if err != nil {
		return 0, err
	}
	if n, err := w.Write([]byte{me.domain.K}); err != nil {
		return int64(n), err
	}
	enc := bls12381.NewEncoder(w)
	if err := enc.Encode(me.FixedCommitments); err != nil {
		return 1 + enc.BytesWritten(), err
	}
	if err := enc.Encode(me.Permutation.Commitments); err != nil {
		return 1 + enc.BytesWritten(), err
	}
	written := 1 + enc.BytesWritten()
	buf := [4]byte{}
	binary.BigEndian.PutUint32(buf[:], uint32(len(desc)))
	if n, err := w.Write(buf[:]); err != nil {
		return written + int64(n), err
	}
	n, err := w.Write(desc)
	return written + 4 + int64(n), err
}

func (me *Vk) ReadFrom(r io.Reader) (int64, error) {
	k := [1]byte{}
	if n, err := io.ReadFull(r, k[:]); err != nil {
		return int64(n), err
	}
	if k[0] == 0 || k[0] > MAX_K {
		return 1, fmt.Errorf("%w: %d", errInvalidK, k[0])
	}
	dec := bls12381.NewDecoder(r)
	me.FixedCommitments = nil
	me.Permutation.Commitments = nil
	if err := dec.Decode(&me.FixedCommitments); err != nil {
		return 1 + dec.BytesRead(), err
	}
	if err := dec.Decode(&me.Permutation.Commitments); err != nil {
		return 1 + dec.BytesRead(), err
	}
	read := 1 + dec.BytesRead()
	buf := [4]byte{}
	if n, err := io.ReadFull(r, buf[:]); err != nil {
		return read + int64(n), err
	}
	read += 4
	desc := make([]byte, binary.BigEndian.Uint32(buf[:]))
	if n, err := io.ReadFull(r, desc); err != nil {
		return read + int64(n), err
	}
	read += int64(len(desc))

	cs := circuit.NewConstraintSystem()
	if err := cs.UnmarshalBinary(desc); err != nil {
		return read, err
	}
	if len(me.FixedCommitments) != cs.NumFixed || len(me.Permutation.Commitments) != len(cs.Permutation) {
		return read, fmt.Errorf("%w: commitment count does not match descriptor", errCircuitMismatch)
	}
	if 1<<k[0] < cs.MinimumRows() {
		return read, fmt.Errorf("%w: k = %d below minimum rows %d", errInvalidK, k[0], cs.MinimumRows())
	}
	me.cs = cs
	me.domain = poly.NewEvaluationDomain(k[0], cs.Degree())
	return read, me.computeDigest()
}
