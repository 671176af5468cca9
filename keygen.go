package plonkish

import (
	"bytes"
	"fmt"
	"math/bits"

	"github.com/bits-and-blooms/bitset"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/sync/errgroup"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/commitment"
	"github.com/eon-protocol/plonkish/permutation"
	"github.com/eon-protocol/plonkish/poly"
)

// keygenAssembly records the fixed cells, enabled selectors and copy
// constraints of a circuit. Advice values are ignored.
type keygenAssembly struct {
	n, usable int
	fixed     [][]fr.Element
	// selectors[i] holds the rows where the i-th selector is enabled
	selectors   []*bitset.BitSet
	selectorIdx map[int]int
	permutation *permutation.Assembly
	ns          circuit.Namespace
}

func newKeygenAssembly(cs *circuit.ConstraintSystem, n int) *keygenAssembly {
	a := &keygenAssembly{
		n:           n,
		usable:      cs.UsableRows(n),
		fixed:       make([][]fr.Element, cs.NumFixed),
		selectors:   make([]*bitset.BitSet, len(cs.Selectors)),
		selectorIdx: make(map[int]int, len(cs.Selectors)),
		permutation: permutation.NewAssembly(n, cs.Permutation),
	}
	for i := range a.fixed {
		a.fixed[i] = make([]fr.Element, n)
	}
	for i, col := range cs.Selectors {
		a.selectors[i] = bitset.New(uint(n))
		a.selectorIdx[col.Index] = i
	}
	return a
}

func (me *keygenAssembly) checkRow(row int) error {
	if row < 0 || row >= me.usable {
		return fmt.Errorf("%w: row %d in %s, %d usable rows", circuit.ErrNotEnoughRowsAvailable, row, me.ns, me.usable)
	}
	return nil
}

func (me *keygenAssembly) EnableSelector(s circuit.Selector, row int) error {
	if err := me.checkRow(row); err != nil {
		return err
	}
	me.selectors[me.selectorIdx[s.Column().Index]].Set(uint(row))
	return nil
}

func (me *keygenAssembly) AssignFixed(col circuit.Column, row int, v fr.Element) error {
	if err := me.checkRow(row); err != nil {
		return err
	}
	if col.Type != circuit.Fixed || col.Index >= len(me.fixed) {
		return fmt.Errorf("%w: %s is not a fixed column", circuit.ErrBoundsFailure, col)
	}
	me.fixed[col.Index][row] = v
	return nil
}

func (me *keygenAssembly) AssignAdvice(col circuit.Column, row int, _ circuit.Value) error {
	return me.checkRow(row)
}

func (me *keygenAssembly) Copy(left circuit.Column, leftRow int, right circuit.Column, rightRow int) error {
	for _, row := range []int{leftRow, rightRow} {
		if row >= me.usable && row < me.n {
			return me.checkRow(row)
		}
	}
	if err := me.permutation.Copy(left, leftRow, right, rightRow); err != nil {
		return fmt.Errorf("copy in %s: %w", me.ns, err)
	}
	return nil
}

func (me *keygenAssembly) Challenge(circuit.Challenge) circuit.Value {
	return circuit.Unknown()
}

func (me *keygenAssembly) PushNamespace(name string) {
	me.ns.Push(name)
}

func (me *keygenAssembly) PopNamespace() {
	me.ns.Pop()
}

// fixedColumns returns the fixed columns with selectors expanded to 0/1.
func (me *keygenAssembly) fixedColumns() []poly.Polynomial[poly.LagrangeCoeff] {
	one := fr.One()
	for col, i := range me.selectorIdx {
		for row, ok := me.selectors[i].NextSet(0); ok; row, ok = me.selectors[i].NextSet(row + 1) {
			me.fixed[col][row] = one
		}
	}
	res := make([]poly.Polynomial[poly.LagrangeCoeff], len(me.fixed))
	for i := range me.fixed {
		res[i] = me.fixed[i]
	}
	return res
}

func kOf(scheme commitment.Scheme) (uint8, error) {
	n := scheme.N()
	if n <= 0 || bits.OnesCount(uint(n)) != 1 || bits.TrailingZeros(uint(n)) > MAX_K {
		return 0, fmt.Errorf("%w: domain size %d", errInvalidK, n)
	}
	return uint8(bits.TrailingZeros(uint(n))), nil
}

// synthesizeKeygen configures c and records its fixed data over 2^k rows.
func synthesizeKeygen[C any](scheme commitment.Scheme, c circuit.Circuit[C]) (*circuit.ConstraintSystem, *poly.EvaluationDomain, *keygenAssembly, error) {
	k, err := kOf(scheme)
	if err != nil {
		return nil, nil, nil, err
	}
	cs := circuit.NewConstraintSystem()
	config := c.Configure(cs)

	n := 1 << k
	if n < cs.MinimumRows() {
		return nil, nil, nil, fmt.Errorf("%w: k = %d gives %d rows, circuit needs %d", circuit.ErrNotEnoughRowsAvailable, k, n, cs.MinimumRows())
	}
	domain := poly.NewEvaluationDomain(k, cs.Degree())

	asm := newKeygenAssembly(cs, n)
	if err := c.Synthesize(config, asm); err != nil {
		return nil, nil, nil, fmt.Errorf("synthesize: %w", err)
	}
	return cs, domain, asm, nil
}

// KeygenVk builds the verifying key of c for the domain of scheme.
func KeygenVk[C any](scheme commitment.Scheme, c circuit.Circuit[C]) (*Vk, error) {
	cs, domain, asm, err := synthesizeKeygen(scheme, c)
	if err != nil {
		return nil, err
	}

	fixed := asm.fixedColumns()
	vk := &Vk{
		domain:           domain,
		cs:               cs,
		FixedCommitments: make([]bls12381.G1Affine, len(fixed)),
	}
	g := new(errgroup.Group)
	for i := range fixed {
		g.Go(func() (err error) {
			vk.FixedCommitments[i], err = scheme.CommitLagrange(fixed[i])
			if err != nil {
				return fmt.Errorf("commit fixed column %d: %w", i, err)
			}
			return nil
		})
	}
	var permVk *permutation.VerifyingKey
	g.Go(func() (err error) {
		permVk, err = asm.permutation.BuildVerifyingKey(scheme, domain)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	vk.Permutation = *permVk

	if err := vk.computeDigest(); err != nil {
		return nil, err
	}
	return vk, nil
}

// KeygenPk builds the proving key of c, which must be the circuit vk was
// generated from.
func KeygenPk[C any](scheme commitment.Scheme, vk *Vk, c circuit.Circuit[C]) (*Pk, error) {
	cs, domain, asm, err := synthesizeKeygen(scheme, c)
	if err != nil {
		return nil, err
	}
	got, err := cs.MarshalBinary()
	if err != nil {
		return nil, err
	}
	want, err := vk.cs.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if domain.K != vk.domain.K || !bytes.Equal(got, want) {
		return nil, errCircuitMismatch
	}

	fixed := asm.fixedColumns()
	pk := &Pk{
		vk:          vk,
		fixedValues: fixed,
		fixedPolys:  make([]poly.Polynomial[poly.Coeff], len(fixed)),
		fixedCosets: make([]poly.Polynomial[poly.ExtendedLagrangeCoeff], len(fixed)),
		permutation: asm.permutation.BuildProvingKey(domain),
		ev:          newEvaluator(cs),
	}
	for i, p := range fixed {
		pk.fixedPolys[i] = domain.LagrangeToCoeff(p)
		pk.fixedCosets[i] = domain.CoeffToExtended(pk.fixedPolys[i])
	}

	// l0, l_last and l_active over the extended coset
	usable := cs.UsableRows(domain.N)
	l0, lLast, lActive := domain.EmptyLagrange(), domain.EmptyLagrange(), domain.EmptyLagrange()
	l0[0].SetOne()
	lLast[usable].SetOne()
	for i := 0; i < usable; i++ {
		lActive[i].SetOne()
	}
	pk.l0 = domain.CoeffToExtended(domain.LagrangeToCoeff(l0))
	pk.lLast = domain.CoeffToExtended(domain.LagrangeToCoeff(lLast))
	pk.lActive = domain.CoeffToExtended(domain.LagrangeToCoeff(lActive))
	return pk, nil
}
