package plonkish

import (
	"bytes"
	"errors"
	"math/big"
	"os"
	"sync"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/circuits/hasher"
	"github.com/eon-protocol/plonkish/circuits/mul"
	"github.com/eon-protocol/plonkish/circuits/rangecheck"
	"github.com/eon-protocol/plonkish/circuits/rlc"
	"github.com/eon-protocol/plonkish/circuits/shuffled"
	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/poly"
	"github.com/eon-protocol/plonkish/transcript"
)

func TestMain(m *testing.M) {
	logger.Disable()
	os.Exit(m.Run())
}

var (
	paramsMu    sync.Mutex
	paramsCache = map[uint8]*commitment.Params{}
)

func testParams(t *testing.T, k uint8) *commitment.Params {
	t.Helper()
	paramsMu.Lock()
	defer paramsMu.Unlock()
	if p, ok := paramsCache[k]; ok {
		return p
	}
	p, err := commitment.Setup(k, big.NewInt(1234567))
	require.NoError(t, err)
	paramsCache[k] = p
	return p
}

func setup[C any](t *testing.T, k uint8, c circuit.Circuit[C]) (*commitment.Params, *Pk) {
	t.Helper()
	params := testParams(t, k)
	vk, err := KeygenVk(params, c)
	require.NoError(t, err)
	pk, err := KeygenPk(params, vk, c)
	require.NoError(t, err)
	return params, pk
}

func proveAndVerify[C any](t *testing.T, params *commitment.Params, pk *Pk, c circuit.Circuit[C], instances [][]fr.Element) error {
	t.Helper()
	proof, err := CreateProof(params, pk, c, instances, DEFAULT_HASH)
	require.NoError(t, err)
	return proof.Verify(params, pk.Vk(), instances, DEFAULT_HASH)
}

func elements(vs ...uint64) []fr.Element {
	res := make([]fr.Element, len(vs))
	for i, v := range vs {
		res[i].SetUint64(v)
	}
	return res
}

func TestMul(t *testing.T) {
	params, pk := setup[mul.Config](t, 3, &mul.Circuit{})
	instances := [][]fr.Element{elements(2)}

	t.Run("satisfied", func(t *testing.T) {
		require.NoError(t, proveAndVerify[mul.Config](t, params, pk, mul.New(1, 2), instances))
	})
	t.Run("wrong product", func(t *testing.T) {
		err := proveAndVerify[mul.Config](t, params, pk, mul.New(1, 3), instances)
		require.ErrorIs(t, err, ErrVerificationFailed)
	})
	t.Run("wrong public input", func(t *testing.T) {
		proof, err := CreateProof[mul.Config](params, pk, mul.New(1, 2), instances, DEFAULT_HASH)
		require.NoError(t, err)
		err = proof.Verify(params, pk.Vk(), [][]fr.Element{elements(3)}, DEFAULT_HASH)
		require.ErrorIs(t, err, ErrVerificationFailed)
	})
	t.Run("flipped proof byte", func(t *testing.T) {
		proof, err := CreateProof[mul.Config](params, pk, mul.New(1, 2), instances, DEFAULT_HASH)
		require.NoError(t, err)
		for _, i := range []int{0, len(proof) / 2, len(proof) - 1} {
			tampered := Proof(bytes.Clone(proof))
			tampered[i] ^= 1
			err := tampered.Verify(params, pk.Vk(), instances, DEFAULT_HASH)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrVerificationFailed) || errors.Is(err, transcript.ErrDecode), err)
		}
	})
	t.Run("truncated proof", func(t *testing.T) {
		proof, err := CreateProof[mul.Config](params, pk, mul.New(1, 2), instances, DEFAULT_HASH)
		require.NoError(t, err)
		err = proof[:len(proof)-10].Verify(params, pk.Vk(), instances, DEFAULT_HASH)
		require.ErrorIs(t, err, transcript.ErrDecode)
	})
	t.Run("trailing bytes", func(t *testing.T) {
		proof, err := CreateProof[mul.Config](params, pk, mul.New(1, 2), instances, DEFAULT_HASH)
		require.NoError(t, err)
		err = append(proof, 0).Verify(params, pk.Vk(), instances, DEFAULT_HASH)
		require.ErrorIs(t, err, transcript.ErrDecode)
	})
	t.Run("blake2b transcript", func(t *testing.T) {
		proof, err := CreateProof[mul.Config](params, pk, mul.New(1, 2), instances, "blake2b")
		require.NoError(t, err)
		require.NoError(t, proof.Verify(params, pk.Vk(), instances, "blake2b"))
		require.ErrorIs(t, proof.Verify(params, pk.Vk(), instances, DEFAULT_HASH), ErrVerificationFailed)
	})
	t.Run("instance count", func(t *testing.T) {
		_, err := CreateProof[mul.Config](params, pk, mul.New(1, 2), nil, DEFAULT_HASH)
		require.ErrorIs(t, err, ErrInvalidInstances)
		_, err = CreateProof[mul.Config](params, pk, mul.New(1, 2), [][]fr.Element{elements(1, 2, 3)}, DEFAULT_HASH)
		require.ErrorIs(t, err, ErrInvalidInstances)
	})
	t.Run("wrong params", func(t *testing.T) {
		_, err := CreateProof[mul.Config](testParams(t, 4), pk, mul.New(1, 2), instances, DEFAULT_HASH)
		require.ErrorIs(t, err, errInvalidK)
	})
}

// flipped adds one to a single cell as c assigns it.
type flipped[C any] struct {
	circuit.Circuit[C]
	col circuit.Column
	row int
}

func flip[C any](c circuit.Circuit[C], col circuit.Column, row int) *flipped[C] {
	return &flipped[C]{Circuit: c, col: col, row: row}
}

func (me *flipped[C]) Synthesize(cfg C, asg circuit.Assignment) error {
	return me.Circuit.Synthesize(cfg, &flippingAssignment{Assignment: asg, col: me.col, row: me.row})
}

type flippingAssignment struct {
	circuit.Assignment
	col circuit.Column
	row int
}

func (me *flippingAssignment) AssignAdvice(col circuit.Column, row int, v circuit.Value) error {
	if col == me.col && row == me.row {
		v = v.Add(circuit.KnownUint64(1))
	}
	return me.Assignment.AssignAdvice(col, row, v)
}

func (me *flippingAssignment) AssignFixed(col circuit.Column, row int, v fr.Element) error {
	if col == me.col && row == me.row {
		one := fr.One()
		v.Add(&v, &one)
	}
	return me.Assignment.AssignFixed(col, row, v)
}

func TestRangeCheck(t *testing.T) {
	for _, kind := range []circuit.LookupKind{circuit.SortedLookup, circuit.LogDerivativeLookup} {
		t.Run(kind.String(), func(t *testing.T) {
			params, pk := setup[rangecheck.Config](t, 4, rangecheck.New(kind, 3, 6))
			value := circuit.Column{Index: 0, Type: circuit.Advice}

			err := proveAndVerify[rangecheck.Config](t, params, pk, rangecheck.New(kind, 3, 6, 0, 7, 3, 3, 5, 1), nil)
			require.NoError(t, err)

			err = proveAndVerify[rangecheck.Config](t, params, pk, rangecheck.New(kind, 3, 6, 0, 7, 9, 3), nil)
			require.ErrorIs(t, err, ErrVerificationFailed)

			// 7 becomes 8, one past the table
			c := flip[rangecheck.Config](rangecheck.New(kind, 3, 6, 0, 7, 3, 3, 5, 1), value, 1)
			err = proveAndVerify[rangecheck.Config](t, params, pk, c, nil)
			require.ErrorIs(t, err, ErrVerificationFailed)
		})
	}
}

// TestWitnessMatchesKey checks that a synthesis whose fixed cells or
// selectors differ from the key is refused instead of proved.
func TestWitnessMatchesKey(t *testing.T) {
	kind := circuit.LogDerivativeLookup
	params, pk := setup[rangecheck.Config](t, 4, rangecheck.New(kind, 3, 4))

	t.Run("more selected rows", func(t *testing.T) {
		_, err := CreateProof[rangecheck.Config](params, pk, rangecheck.New(kind, 3, 6, 9, 9, 9, 9, 9, 9), nil, DEFAULT_HASH)
		require.ErrorIs(t, err, errCircuitMismatch)
	})
	t.Run("keyed without values", func(t *testing.T) {
		_, pk := setup[rangecheck.Config](t, 4, rangecheck.New(kind, 3, 0))
		_, err := CreateProof[rangecheck.Config](params, pk, rangecheck.New(kind, 3, 4, 0, 7, 9, 3), nil, DEFAULT_HASH)
		require.ErrorIs(t, err, errCircuitMismatch)
	})
	t.Run("flipped table cell", func(t *testing.T) {
		table := circuit.Column{Index: 0, Type: circuit.Fixed}
		c := flip[rangecheck.Config](rangecheck.New(kind, 3, 4, 1, 2, 3, 4), table, 2)
		_, err := CreateProof[rangecheck.Config](params, pk, c, nil, DEFAULT_HASH)
		require.ErrorIs(t, err, errCircuitMismatch)
	})
	t.Run("same shape", func(t *testing.T) {
		require.NoError(t, proveAndVerify[rangecheck.Config](t, params, pk, rangecheck.New(kind, 3, 4, 1, 2), nil))
	})
}

func TestShuffle(t *testing.T) {
	params, pk := setup[shuffled.Config](t, 4, shuffled.New(5, nil, nil))

	err := proveAndVerify[shuffled.Config](t, params, pk, shuffled.New(5, []uint64{1, 2, 3, 4, 4}, []uint64{4, 3, 4, 1, 2}), nil)
	require.NoError(t, err)

	err = proveAndVerify[shuffled.Config](t, params, pk, shuffled.New(5, []uint64{1, 2, 3, 4, 4}, []uint64{4, 3, 2, 1, 2}), nil)
	require.ErrorIs(t, err, ErrVerificationFailed)

	_, err = CreateProof[shuffled.Config](params, pk, shuffled.New(6, []uint64{1, 2, 3, 4, 4, 5}, []uint64{4, 3, 2, 1, 2, 7}), nil, DEFAULT_HASH)
	require.ErrorIs(t, err, errCircuitMismatch)
}

func TestChallengePhase(t *testing.T) {
	params, pk := setup[rlc.Config](t, 4, &rlc.Circuit{Values: make([]circuit.Value, 5)})
	require.Equal(t, []circuit.Phase{circuit.FirstPhase, circuit.SecondPhase}, pk.Vk().ConstraintSystem().Phases())

	require.NoError(t, proveAndVerify[rlc.Config](t, params, pk, rlc.New(3, 1, 4, 1, 5), nil))

	tampered := rlc.New(3, 1, 4, 1, 5)
	tampered.Tamper = circuit.KnownUint64(1)
	require.ErrorIs(t, proveAndVerify[rlc.Config](t, params, pk, tampered, nil), ErrVerificationFailed)

	// an accumulator cell in the middle of the second phase column
	acc := circuit.Column{Index: 1, Type: circuit.Advice}
	c := flip[rlc.Config](rlc.New(3, 1, 4, 1, 5), acc, 2)
	require.ErrorIs(t, proveAndVerify[rlc.Config](t, params, pk, c, nil), ErrVerificationFailed)

	// a first phase value
	values := circuit.Column{Index: 0, Type: circuit.Advice}
	c = flip[rlc.Config](rlc.New(3, 1, 4, 1, 5), values, 3)
	require.ErrorIs(t, proveAndVerify[rlc.Config](t, params, pk, c, nil), ErrVerificationFailed)
}

func TestHasher(t *testing.T) {
	params, pk := setup[hasher.CircuitConfig](t, 7, &hasher.Circuit{})
	x, y := fr.NewElement(11), fr.NewElement(22)
	out := transcript.HashCompress(x, y)
	c := &hasher.Circuit{X: circuit.Known(x), Y: circuit.Known(y)}

	require.NoError(t, proveAndVerify[hasher.CircuitConfig](t, params, pk, c, [][]fr.Element{{x, y, out}}))

	out.Add(&out, &x)
	require.ErrorIs(t, proveAndVerify[hasher.CircuitConfig](t, params, pk, c, [][]fr.Element{{x, y, out}}), ErrVerificationFailed)
}

// rotations queries one advice column at 12 rotations.
type rotations struct{}

type rotationsConfig struct {
	a circuit.Column
	q circuit.Selector
}

func (rotations) Configure(cs *circuit.ConstraintSystem) rotationsConfig {
	cfg := rotationsConfig{a: cs.AdviceColumn(), q: cs.Selector()}
	cs.CreateGate("rotations", func(vc *circuit.VirtualCells) []circuit.Expression {
		var sum []circuit.Expression
		for r := range 12 {
			sum = append(sum, vc.QueryAdvice(cfg.a, poly.Rotation(r)))
		}
		return []circuit.Expression{circuit.Mul(vc.QuerySelector(cfg.q), circuit.SumOf(sum...))}
	})
	return cfg
}

// Synthesize leaves the selector off: with 16 rows every rotation but 0 lands
// in the blinding rows.
func (rotations) Synthesize(cfg rotationsConfig, asg circuit.Assignment) error {
	return asg.AssignAdvice(cfg.a, 0, circuit.KnownUint64(0))
}

func TestMinimumRows(t *testing.T) {
	cs := circuit.NewConstraintSystem()
	rotations{}.Configure(cs)
	require.Equal(t, 14, cs.BlindingFactors())
	require.Equal(t, 16, cs.MinimumRows())

	_, err := KeygenVk[rotationsConfig](testParams(t, 3), rotations{})
	require.ErrorIs(t, err, circuit.ErrNotEnoughRowsAvailable)

	params, pk := setup[rotationsConfig](t, 4, rotations{})
	require.NoError(t, proveAndVerify[rotationsConfig](t, params, pk, rotations{}, nil))
}

// copies makes one copy between two cells.
type copies struct {
	right circuit.Column
	row   int
}

type copiesConfig struct {
	a, b circuit.Column
}

func (me *copies) Configure(cs *circuit.ConstraintSystem) copiesConfig {
	cfg := copiesConfig{a: cs.AdviceColumn(), b: cs.AdviceColumn()}
	cs.EnableEquality(cfg.a)
	cs.CreateGate("b", func(vc *circuit.VirtualCells) []circuit.Expression {
		return []circuit.Expression{vc.QueryAdvice(cfg.b, poly.Cur)}
	})
	return cfg
}

func (me *copies) Synthesize(cfg copiesConfig, asg circuit.Assignment) error {
	return asg.Copy(cfg.a, 0, circuit.Column{Index: me.right.Index, Type: circuit.Advice}, me.row)
}

func TestKeygenErrors(t *testing.T) {
	params := testParams(t, 3)

	_, err := KeygenVk[copiesConfig](params, &copies{right: circuit.Column{Index: 1}, row: 0})
	require.ErrorIs(t, err, circuit.ErrColumnNotInPermutation)

	_, err = KeygenVk[copiesConfig](params, &copies{right: circuit.Column{Index: 0}, row: 1})
	require.NoError(t, err)

	_, err = KeygenVk[copiesConfig](params, &copies{right: circuit.Column{Index: 0}, row: 7})
	require.ErrorIs(t, err, circuit.ErrNotEnoughRowsAvailable)

	_, err = KeygenVk[copiesConfig](params, &copies{right: circuit.Column{Index: 0}, row: 8})
	require.ErrorIs(t, err, circuit.ErrBoundsFailure)

	vk, err := KeygenVk[mul.Config](params, &mul.Circuit{})
	require.NoError(t, err)
	_, err = KeygenPk[copiesConfig](params, vk, &copies{right: circuit.Column{Index: 0}})
	require.ErrorIs(t, err, errCircuitMismatch)
}

func TestVkSerialization(t *testing.T) {
	params, pk := setup[rangecheck.Config](t, 4, rangecheck.New(circuit.LogDerivativeLookup, 3, 3))
	vk := pk.Vk()

	var buf bytes.Buffer
	written, err := vk.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), written)

	var decoded Vk
	read, err := decoded.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, written, read)
	require.Equal(t, vk.K(), decoded.K())
	require.Equal(t, vk.FixedCommitments, decoded.FixedCommitments)
	require.Equal(t, vk.Permutation.Commitments, decoded.Permutation.Commitments)
	require.Equal(t, vk.Digest(), decoded.Digest())

	c := rangecheck.New(circuit.LogDerivativeLookup, 3, 3, 1, 2, 3)
	proof, err := CreateProof[rangecheck.Config](params, pk, c, nil, DEFAULT_HASH)
	require.NoError(t, err)
	require.NoError(t, proof.Verify(params, &decoded, nil, DEFAULT_HASH))

	t.Run("digest binds the key", func(t *testing.T) {
		other, err := KeygenVk[rangecheck.Config](params, rangecheck.New(circuit.SortedLookup, 3, 3))
		require.NoError(t, err)
		require.NotEqual(t, vk.Digest(), other.Digest())
	})
	t.Run("truncated", func(t *testing.T) {
		_, err := new(Vk).ReadFrom(bytes.NewReader(buf.Bytes()[:buf.Len()-1]))
		require.Error(t, err)
	})
}

func TestProofFraming(t *testing.T) {
	proof := Proof{1, 2, 3, 4, 5}
	var buf bytes.Buffer
	n, err := proof.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(9), n)

	var decoded Proof
	n, err = decoded.ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(9), n)
	require.Equal(t, proof, decoded)
}
