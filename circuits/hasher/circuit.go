// Package hasher provides a Poseidon2 compression chip, proving
// out = perm([x, y])[1] + y with one row per round.
package hasher

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/poseidon2"

	"github.com/eon-protocol/plonkish/circuit"
	"github.com/eon-protocol/plonkish/poly"
)

// Config is the column layout of the chip.
type Config struct {
	State      [WIDTH]circuit.Column
	Carry, Out circuit.Column
	RoundKeys  [WIDTH]circuit.Column

	QExternal, QFull, QPartial, QOut circuit.Selector
}

// ---------------------- constraints ----------------------

func pow(e circuit.Expression, d int) circuit.Expression {
	res := e
	for i := 1; i < d; i++ {
		res = circuit.Mul(res, e)
	}
	return res
}

// external applies the width 2 external matrix: (2a0 + a1, a0 + 2a1).
func external(a0, a1 circuit.Expression) (circuit.Expression, circuit.Expression) {
	tmp := circuit.Add(a0, a1)
	return circuit.Add(tmp, a0), circuit.Add(tmp, a1)
}

// internal applies the width 2 internal matrix: (2a0 + a1, a0 + 3a1).
func internal(a0, a1 circuit.Expression) (circuit.Expression, circuit.Expression) {
	sum := circuit.Add(a0, a1)
	return circuit.Add(a0, sum), circuit.Add(circuit.Add(a1, a1), sum)
}

// Configure allocates the chip columns and gates.
func Configure(cs *circuit.ConstraintSystem) Config {
	var cfg Config
	for i := range cfg.State {
		cfg.State[i] = cs.AdviceColumn()
		cfg.RoundKeys[i] = cs.FixedColumn()
	}
	cfg.Carry = cs.AdviceColumn()
	cfg.Out = cs.AdviceColumn()
	cfg.QExternal = cs.Selector()
	cfg.QFull = cs.Selector()
	cfg.QPartial = cs.Selector()
	cfg.QOut = cs.Selector()
	degree := poseidon2.DegreeSBox()

	transition := func(vc *circuit.VirtualCells, q circuit.Expression, n0, n1 circuit.Expression) []circuit.Expression {
		next0 := vc.QueryAdvice(cfg.State[0], poly.Next)
		next1 := vc.QueryAdvice(cfg.State[1], poly.Next)
		return []circuit.Expression{
			circuit.Mul(q, circuit.Sub(next0, n0)),
			circuit.Mul(q, circuit.Sub(next1, n1)),
		}
	}

	cs.CreateGate("poseidon2 external", func(vc *circuit.VirtualCells) []circuit.Expression {
		q := vc.QuerySelector(cfg.QExternal)
		n0, n1 := external(vc.QueryAdvice(cfg.State[0], poly.Cur), vc.QueryAdvice(cfg.State[1], poly.Cur))
		return transition(vc, q, n0, n1)
	})
	cs.CreateGate("poseidon2 full round", func(vc *circuit.VirtualCells) []circuit.Expression {
		q := vc.QuerySelector(cfg.QFull)
		var a [WIDTH]circuit.Expression
		for i := range a {
			s := vc.QueryAdvice(cfg.State[i], poly.Cur)
			c := vc.QueryFixed(cfg.RoundKeys[i], poly.Cur)
			a[i] = pow(circuit.Add(s, c), degree)
		}
		n0, n1 := external(a[0], a[1])
		return transition(vc, q, n0, n1)
	})
	cs.CreateGate("poseidon2 partial round", func(vc *circuit.VirtualCells) []circuit.Expression {
		q := vc.QuerySelector(cfg.QPartial)
		s0 := vc.QueryAdvice(cfg.State[0], poly.Cur)
		s1 := vc.QueryAdvice(cfg.State[1], poly.Cur)
		a0 := pow(circuit.Add(s0, vc.QueryFixed(cfg.RoundKeys[0], poly.Cur)), degree)
		a1 := circuit.Add(s1, vc.QueryFixed(cfg.RoundKeys[1], poly.Cur))
		n0, n1 := internal(a0, a1)
		return transition(vc, q, n0, n1)
	})
	// the right input rides along in carry until the output row
	cs.CreateGate("poseidon2 carry", func(vc *circuit.VirtualCells) []circuit.Expression {
		ext := vc.QuerySelector(cfg.QExternal)
		active := circuit.SumOf(ext, vc.QuerySelector(cfg.QFull), vc.QuerySelector(cfg.QPartial))
		carry := vc.QueryAdvice(cfg.Carry, poly.Cur)
		return []circuit.Expression{
			circuit.Mul(ext, circuit.Sub(carry, vc.QueryAdvice(cfg.State[1], poly.Cur))),
			circuit.Mul(active, circuit.Sub(vc.QueryAdvice(cfg.Carry, poly.Next), carry)),
		}
	})
	cs.CreateGate("poseidon2 output", func(vc *circuit.VirtualCells) []circuit.Expression {
		q := vc.QuerySelector(cfg.QOut)
		out := vc.QueryAdvice(cfg.Out, poly.Cur)
		s1 := vc.QueryAdvice(cfg.State[1], poly.Cur)
		carry := vc.QueryAdvice(cfg.Carry, poly.Cur)
		return []circuit.Expression{circuit.Mul(q, circuit.Sub(out, circuit.Add(s1, carry)))}
	})

	for _, col := range []circuit.Column{cfg.State[0], cfg.State[1], cfg.Out} {
		cs.EnableEquality(col)
	}
	return cfg
}

// ---------------------- witness ----------------------

// roundKey returns the key of lane i in round r; partial rounds only key lane 0.
func roundKey(r, i int) fr.Element {
	keys := GetParameters().RoundKeys[r]
	if i < len(keys) {
		return keys[i]
	}
	return fr.Element{}
}

func sBox(v fr.Element) fr.Element {
	var res fr.Element
	res.Exp(v, big.NewInt(int64(poseidon2.DegreeSBox())))
	return res
}

func mulExternal(s *[WIDTH]fr.Element) {
	var tmp fr.Element
	tmp.Add(&s[0], &s[1])
	s[0].Add(&tmp, &s[0])
	s[1].Add(&tmp, &s[1])
}

func mulInternal(s *[WIDTH]fr.Element) {
	var sum fr.Element
	sum.Add(&s[0], &s[1])
	s[0].Add(&s[0], &sum)
	s[1].Double(&s[1]).Add(&s[1], &sum)
}

// Trace returns the state of every row of a compression of (x, y). Row 0
// holds the input and row ROWS-1 the permuted state.
func Trace(x, y fr.Element) [][WIDTH]fr.Element {
	rows := make([][WIDTH]fr.Element, 0, ROWS)
	s := [WIDTH]fr.Element{x, y}
	rows = append(rows, s)
	mulExternal(&s)
	rows = append(rows, s)

	rf := ROUND_FULL / 2
	for r := 0; r < ROUND_FULL+ROUND_PARTIAL; r++ {
		if r < rf || r >= rf+ROUND_PARTIAL {
			for i := range s {
				k := roundKey(r, i)
				s[i].Add(&s[i], &k)
				s[i] = sBox(s[i])
			}
			mulExternal(&s)
		} else {
			k0, k1 := roundKey(r, 0), roundKey(r, 1)
			s[0].Add(&s[0], &k0)
			s[0] = sBox(s[0])
			s[1].Add(&s[1], &k1)
			mulInternal(&s)
		}
		rows = append(rows, s)
	}
	return rows
}

// Compress computes the compression natively from its trace.
func Compress(x, y fr.Element) fr.Element {
	rows := Trace(x, y)
	var out fr.Element
	out.Add(&rows[len(rows)-1][1], &y)
	return out
}

// Assign lays one compression of (x, y) out from row offset and returns the
// output cell's value. The inputs sit in State at offset, the output in Out
// at offset+ROWS-1.
func (cfg Config) Assign(asg circuit.Assignment, offset int, x, y circuit.Value) (circuit.Value, error) {
	asg.PushNamespace("poseidon2")
	defer asg.PopNamespace()

	rf := ROUND_FULL / 2
	for r := 0; r < ROUND_FULL+ROUND_PARTIAL; r++ {
		row := offset + 1 + r
		q := cfg.QPartial
		if r < rf || r >= rf+ROUND_PARTIAL {
			q = cfg.QFull
		}
		if err := asg.EnableSelector(q, row); err != nil {
			return circuit.Value{}, err
		}
		for i := range cfg.RoundKeys {
			if err := asg.AssignFixed(cfg.RoundKeys[i], row, roundKey(r, i)); err != nil {
				return circuit.Value{}, err
			}
		}
	}
	last := offset + ROWS - 1
	if err := asg.EnableSelector(cfg.QExternal, offset); err != nil {
		return circuit.Value{}, err
	}
	if err := asg.EnableSelector(cfg.QOut, last); err != nil {
		return circuit.Value{}, err
	}

	xv, errX := x.Get()
	yv, errY := y.Get()
	var trace [][WIDTH]fr.Element
	if errX == nil && errY == nil {
		trace = Trace(xv, yv)
	}
	cell := func(row, lane int) circuit.Value {
		if trace == nil {
			return circuit.Unknown()
		}
		return circuit.Known(trace[row][lane])
	}

	for row := 0; row < ROWS; row++ {
		for i := range cfg.State {
			if err := asg.AssignAdvice(cfg.State[i], offset+row, cell(row, i)); err != nil {
				return circuit.Value{}, err
			}
		}
		if err := asg.AssignAdvice(cfg.Carry, offset+row, y); err != nil {
			return circuit.Value{}, err
		}
	}
	out := cell(ROWS-1, 1).Add(y)
	if err := asg.AssignAdvice(cfg.Out, last, out); err != nil {
		return circuit.Value{}, err
	}
	return out, nil
}

// Circuit proves one compression with public inputs [x, y, out].
type Circuit struct {
	X, Y circuit.Value
}

type CircuitConfig struct {
	Chip     Config
	Instance circuit.Column
}

func (*Circuit) Configure(cs *circuit.ConstraintSystem) CircuitConfig {
	cfg := CircuitConfig{Chip: Configure(cs), Instance: cs.InstanceColumn()}
	cs.EnableEquality(cfg.Instance)
	return cfg
}

func (me *Circuit) Synthesize(cfg CircuitConfig, asg circuit.Assignment) error {
	if _, err := cfg.Chip.Assign(asg, 0, me.X, me.Y); err != nil {
		return err
	}
	for i, cell := range []struct {
		col circuit.Column
		row int
	}{
		{cfg.Chip.State[0], 0},
		{cfg.Chip.State[1], 0},
		{cfg.Chip.Out, ROWS - 1},
	} {
		if err := asg.Copy(cell.col, cell.row, cfg.Instance, i); err != nil {
			return err
		}
	}
	return nil
}
