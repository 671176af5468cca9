// Package dev checks a circuit's constraints directly on its assignment,
// without committing to anything. Failures name the gate, argument or cell
// at fault.
package dev

import (
	"errors"
	"fmt"
	"slices"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/permutation"
)

// Failure is one unsatisfied constraint.
type Failure struct {
	// Kind is "gate", "lookup", "shuffle" or "permutation".
	Kind string
	Name string
	// Index is the constraint index within a gate.
	Index int
	Row   int
}

func (f *Failure) Error() string {
	switch f.Kind {
	case "gate":
		return fmt.Sprintf("gate %q constraint %d not satisfied at row %d", f.Name, f.Index, f.Row)
	case "shuffle":
		return fmt.Sprintf("shuffle %q inputs and shuffles differ", f.Name)
	}
	return fmt.Sprintf("%s %q not satisfied at row %d", f.Kind, f.Name, f.Row)
}

// MockProver holds a full assignment of a circuit over 2^k rows.
type MockProver struct {
	cs     *circuit.ConstraintSystem
	n      int
	usable int

	fixed, advice, instance [][]fr.Element
	challenges              []fr.Element
	permutation             *permutation.Assembly
	ns                      circuit.Namespace
}

// Run configures and synthesizes c over 2^k rows. Challenges are sampled at
// random and every phase is synthesized at once.
func Run[C any](k uint8, c circuit.Circuit[C], instances [][]fr.Element) (*MockProver, error) {
	cs := circuit.NewConstraintSystem()
	config := c.Configure(cs)

	n := 1 << k
	if n < cs.MinimumRows() {
		return nil, fmt.Errorf("%w: k = %d gives %d rows, circuit needs %d", circuit.ErrNotEnoughRowsAvailable, k, n, cs.MinimumRows())
	}
	usable := cs.UsableRows(n)
	if len(instances) != cs.NumInstance {
		return nil, fmt.Errorf("%d instance columns, circuit has %d", len(instances), cs.NumInstance)
	}

	me := &MockProver{
		cs:          cs,
		n:           n,
		usable:      usable,
		fixed:       make([][]fr.Element, cs.NumFixed),
		advice:      make([][]fr.Element, cs.NumAdvice),
		instance:    make([][]fr.Element, cs.NumInstance),
		challenges:  make([]fr.Element, len(cs.ChallengePhases)),
		permutation: permutation.NewAssembly(n, cs.Permutation),
	}
	for _, cols := range [][][]fr.Element{me.fixed, me.advice, me.instance} {
		for i := range cols {
			cols[i] = make([]fr.Element, n)
		}
	}
	for i, col := range instances {
		if len(col) > usable {
			return nil, fmt.Errorf("instance column %d has %d values, %d usable rows", i, len(col), usable)
		}
		copy(me.instance[i], col)
	}
	for i := range me.challenges {
		if _, err := me.challenges[i].SetRandom(); err != nil {
			return nil, err
		}
	}

	if err := c.Synthesize(config, me); err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	return me, nil
}

func (me *MockProver) checkRow(row int) error {
	if row < 0 || row >= me.usable {
		return fmt.Errorf("%w: row %d in %s, %d usable rows", circuit.ErrNotEnoughRowsAvailable, row, me.ns, me.usable)
	}
	return nil
}

func (me *MockProver) EnableSelector(s circuit.Selector, row int) error {
	if err := me.checkRow(row); err != nil {
		return err
	}
	me.fixed[s.Column().Index][row].SetOne()
	return nil
}

func (me *MockProver) AssignFixed(col circuit.Column, row int, v fr.Element) error {
	if err := me.checkRow(row); err != nil {
		return err
	}
	me.fixed[col.Index][row] = v
	return nil
}

func (me *MockProver) AssignAdvice(col circuit.Column, row int, v circuit.Value) error {
	if err := me.checkRow(row); err != nil {
		return err
	}
	val, err := v.Get()
	if err != nil {
		return fmt.Errorf("%w: %s at row %d in %s: %w", circuit.ErrSynthesis, col, row, me.ns, err)
	}
	me.advice[col.Index][row] = val
	return nil
}

func (me *MockProver) Copy(left circuit.Column, leftRow int, right circuit.Column, rightRow int) error {
	if err := me.checkRow(leftRow); err != nil {
		return err
	}
	if err := me.checkRow(rightRow); err != nil {
		return err
	}
	return me.permutation.Copy(left, leftRow, right, rightRow)
}

func (me *MockProver) Challenge(ch circuit.Challenge) circuit.Value {
	return circuit.Known(me.challenges[ch.Index])
}

func (me *MockProver) PushNamespace(name string) {
	me.ns.Push(name)
}

func (me *MockProver) PopNamespace() {
	me.ns.Pop()
}

func (me *MockProver) tables() *circuit.Tables {
	return &circuit.Tables{
		Fixed:         me.fixed,
		Advice:        me.advice,
		Instance:      me.instance,
		Challenges:    me.challenges,
		RotationScale: 1,
		Size:          me.n,
	}
}

// Verify checks every gate on every usable row, every lookup, shuffle and
// copy constraint. It returns nil or the joined failures.
func (me *MockProver) Verify() error {
	var failures []error
	t := me.tables()

	for _, gate := range me.cs.Gates {
		for i, p := range gate.Polys {
			g := circuit.Compile(p)
			s := g.NewScratch()
			for row := 0; row < me.usable; row++ {
				if v := g.EvaluateRow(t, row, s); !v.IsZero() {
					failures = append(failures, &Failure{Kind: "gate", Name: gate.Name, Index: i, Row: row})
				}
			}
		}
	}

	var theta fr.Element
	if _, err := theta.SetRandom(); err != nil {
		return err
	}
	for _, l := range me.cs.Lookups {
		input := me.compress(l.Inputs, theta, t)
		table := make(map[fr.Element]struct{}, me.usable)
		for _, v := range me.compress(l.Tables, theta, t) {
			table[v] = struct{}{}
		}
		for row, v := range input {
			if _, ok := table[v]; !ok {
				failures = append(failures, &Failure{Kind: "lookup", Name: l.Name, Row: row})
			}
		}
	}

	for _, s := range me.cs.Shuffles {
		input := me.compress(s.Inputs, theta, t)
		shuffled := me.compress(s.Shuffles, theta, t)
		slices.SortFunc(input, func(a, b fr.Element) int { return a.Cmp(&b) })
		slices.SortFunc(shuffled, func(a, b fr.Element) int { return a.Cmp(&b) })
		if !slices.Equal(input, shuffled) {
			failures = append(failures, &Failure{Kind: "shuffle", Name: s.Name})
		}
	}

	for j, col := range me.cs.Permutation {
		values := t.Column(col)
		for row := 0; row < me.n; row++ {
			c, r := me.permutation.Mapping(j, row)
			if !values[row].Equal(&t.Column(me.cs.Permutation[c])[r]) {
				failures = append(failures, &Failure{Kind: "permutation", Name: col.String(), Row: row})
			}
		}
	}
	return errors.Join(failures...)
}

func (me *MockProver) compress(es []circuit.Expression, theta fr.Element, t *circuit.Tables) []fr.Element {
	return circuit.Compile(circuit.CompressExpressions(es, theta)).Evaluate(t)[:me.usable]
}

var _ circuit.Assignment = (*MockProver)(nil)
