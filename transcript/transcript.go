package transcript

import (
	"errors"
	"fmt"
	"io"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// ErrDecode is returned for malformed proof bytes: short reads, points that
// are not on the curve or not in the subgroup, and non canonical scalars.
var ErrDecode = errors.New("malformed proof")

// Transcript derives Fiat-Shamir challenges. It is not safe for concurrent use:
// absorb and squeeze calls must follow protocol order.
type Transcript interface {
	// CommonPoint absorbs a point known to both parties.
	CommonPoint(p bls12381.G1Affine) error
	// CommonScalar absorbs a scalar known to both parties.
	CommonScalar(s fr.Element) error
	SqueezeChallenge() fr.Element
}

// Writer is the prover side: written values are absorbed and appended to the proof.
type Writer interface {
	Transcript
	WritePoint(p bls12381.G1Affine) error
	WriteScalar(s fr.Element) error
}

// Reader is the verifier side: read values are taken from the proof and absorbed.
type Reader interface {
	Transcript
	ReadPoint() (bls12381.G1Affine, error)
	ReadScalar() (fr.Element, error)
	// Finish returns ErrDecode if the proof has bytes left.
	Finish() error
}

// Hasher is the sponge behind a transcript.
type Hasher interface {
	AbsorbPoint(p bls12381.G1Affine)
	AbsorbScalar(s fr.Element)
	Squeeze() fr.Element
}

// NewHasher returns the hasher registered under name ("poseidon2" or "blake2b").
func NewHasher(name string) (Hasher, error) {
	switch name {
	case "", "poseidon2":
		return NewPoseidon2(), nil
	case "blake2b":
		return NewBlake2b(), nil
	}
	return nil, fmt.Errorf("unknown transcript hash %q", name)
}

type hashTranscript struct {
	h Hasher
}

func (me *hashTranscript) CommonPoint(p bls12381.G1Affine) error {
	me.h.AbsorbPoint(p)
	return nil
}

func (me *hashTranscript) CommonScalar(s fr.Element) error {
	me.h.AbsorbScalar(s)
	return nil
}

func (me *hashTranscript) SqueezeChallenge() fr.Element {
	return me.h.Squeeze()
}

type writer struct {
	hashTranscript
	enc *bls12381.Encoder
}

// NewWriter returns a prover transcript appending the proof to w.
func NewWriter(w io.Writer, h Hasher) Writer {
	return &writer{hashTranscript: hashTranscript{h: h}, enc: bls12381.NewEncoder(w)}
}

func (me *writer) WritePoint(p bls12381.G1Affine) error {
	me.h.AbsorbPoint(p)
	if err := me.enc.Encode(&p); err != nil {
		return fmt.Errorf("write point: %w", err)
	}
	return nil
}

func (me *writer) WriteScalar(s fr.Element) error {
	me.h.AbsorbScalar(s)
	if err := me.enc.Encode(&s); err != nil {
		return fmt.Errorf("write scalar: %w", err)
	}
	return nil
}

// BytesWritten returns the proof size so far.
func (me *writer) BytesWritten() int64 {
	return me.enc.BytesWritten()
}

type reader struct {
	hashTranscript
	r   io.Reader
	dec *bls12381.Decoder
}

// NewReader returns a verifier transcript reading the proof from r.
func NewReader(r io.Reader, h Hasher) Reader {
	return &reader{hashTranscript: hashTranscript{h: h}, r: r, dec: bls12381.NewDecoder(r)}
}

// Finish relies on the decoder reading r unbuffered.
func (me *reader) Finish() error {
	var b [1]byte
	switch _, err := io.ReadFull(me.r, b[:]); {
	case err == io.EOF:
		return nil
	case err != nil:
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return fmt.Errorf("%w: trailing bytes after byte %d", ErrDecode, me.dec.BytesRead())
}

func (me *reader) ReadPoint() (bls12381.G1Affine, error) {
	var p bls12381.G1Affine
	if err := me.dec.Decode(&p); err != nil {
		return p, fmt.Errorf("%w: read point at byte %d: %w", ErrDecode, me.dec.BytesRead(), err)
	}
	me.h.AbsorbPoint(p)
	return p, nil
}

func (me *reader) ReadScalar() (fr.Element, error) {
	var s fr.Element
	if err := me.dec.Decode(&s); err != nil {
		return s, fmt.Errorf("%w: read scalar at byte %d: %w", ErrDecode, me.dec.BytesRead(), err)
	}
	me.h.AbsorbScalar(s)
	return s, nil
}
