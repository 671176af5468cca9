package circuit

import (
	"cmp"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/poly"
)

type sourceKind uint8

const (
	srcConstant sourceKind = iota
	srcIntermediate
	srcFixed
	srcAdvice
	srcInstance
	srcChallenge
)

// ValueSource locates an operand of a calculation.
type ValueSource struct {
	kind     sourceKind
	index    int
	rotation int
}

type calcOp uint8

const (
	opAdd calcOp = iota
	opMul
	opNeg
)

type calculation struct {
	op   calcOp
	a, b ValueSource
}

// Graph is an expression flattened into a deduplicated list of calculations,
// evaluated row by row.
type Graph struct {
	constants    []fr.Element
	rotations    []int
	calculations []calculation
	result       ValueSource

	constIdx map[fr.Element]int
	rotIdx   map[int]int
	calcIdx  map[calculation]int
}

// Tables are the column evaluations a Graph reads. RotationScale is the row
// offset of one base-domain rotation.
type Tables struct {
	Fixed, Advice, Instance [][]fr.Element
	Challenges              []fr.Element
	RotationScale           int
	Size                    int
}

// Column returns the values of col.
func (t *Tables) Column(col Column) []fr.Element {
	switch col.Type {
	case Fixed:
		return t.Fixed[col.Index]
	case Advice:
		return t.Advice[col.Index]
	default:
		return t.Instance[col.Index]
	}
}

func NewGraph() *Graph {
	return &Graph{
		constIdx: make(map[fr.Element]int),
		rotIdx:   make(map[int]int),
		calcIdx:  make(map[calculation]int),
	}
}

// Compile flattens e into a new graph.
func Compile(e Expression) *Graph {
	g := NewGraph()
	g.result = g.Add(e)
	return g
}

// Add flattens e into g and returns the source holding its value.
func (g *Graph) Add(e Expression) ValueSource {
	return Fold(e, &Folder[ValueSource]{
		Constant: g.constant,
		Fixed: func(q FixedQuery) ValueSource {
			return ValueSource{kind: srcFixed, index: q.Column, rotation: g.rotation(int(q.Rotation))}
		},
		Advice: func(q AdviceQuery) ValueSource {
			return ValueSource{kind: srcAdvice, index: q.Column, rotation: g.rotation(int(q.Rotation))}
		},
		Instance: func(q InstanceQuery) ValueSource {
			return ValueSource{kind: srcInstance, index: q.Column, rotation: g.rotation(int(q.Rotation))}
		},
		Challenge: func(c Challenge) ValueSource {
			return ValueSource{kind: srcChallenge, index: c.Index}
		},
		Negated: func(a ValueSource) ValueSource {
			if g.isConstant(a) {
				var v fr.Element
				return g.constant(*v.Neg(&g.constants[a.index]))
			}
			return g.calc(calculation{op: opNeg, a: a})
		},
		Sum: func(a, b ValueSource) ValueSource {
			switch {
			case g.isZero(a):
				return b
			case g.isZero(b):
				return a
			}
			if compareSources(a, b) > 0 {
				a, b = b, a
			}
			return g.calc(calculation{op: opAdd, a: a, b: b})
		},
		Product: g.product,
		Scaled: func(a ValueSource, f fr.Element) ValueSource {
			return g.product(a, g.constant(f))
		},
	})
}

func (g *Graph) product(a, b ValueSource) ValueSource {
	switch {
	case g.isZero(a) || g.isZero(b):
		return g.constant(fr.Element{})
	case g.isOne(a):
		return b
	case g.isOne(b):
		return a
	}
	if compareSources(a, b) > 0 {
		a, b = b, a
	}
	return g.calc(calculation{op: opMul, a: a, b: b})
}

// compareSources orders commutative operands so that a+b and b+a share a
// calculation.
func compareSources(a, b ValueSource) int {
	return cmp.Or(
		cmp.Compare(a.kind, b.kind),
		cmp.Compare(a.index, b.index),
		cmp.Compare(a.rotation, b.rotation),
	)
}

func (g *Graph) constant(v fr.Element) ValueSource {
	i, ok := g.constIdx[v]
	if !ok {
		i = len(g.constants)
		g.constants = append(g.constants, v)
		g.constIdx[v] = i
	}
	return ValueSource{kind: srcConstant, index: i}
}

func (g *Graph) rotation(r int) int {
	i, ok := g.rotIdx[r]
	if !ok {
		i = len(g.rotations)
		g.rotations = append(g.rotations, r)
		g.rotIdx[r] = i
	}
	return i
}

func (g *Graph) calc(c calculation) ValueSource {
	i, ok := g.calcIdx[c]
	if !ok {
		i = len(g.calculations)
		g.calculations = append(g.calculations, c)
		g.calcIdx[c] = i
	}
	return ValueSource{kind: srcIntermediate, index: i}
}

func (g *Graph) isConstant(s ValueSource) bool {
	return s.kind == srcConstant
}

func (g *Graph) isZero(s ValueSource) bool {
	return s.kind == srcConstant && g.constants[s.index].IsZero()
}

func (g *Graph) isOne(s ValueSource) bool {
	return s.kind == srcConstant && g.constants[s.index].IsOne()
}

// NumCalculations reports the size of the flattened graph.
func (g *Graph) NumCalculations() int {
	return len(g.calculations)
}

// Scratch is per-goroutine working memory for row evaluation.
type Scratch struct {
	intermediates []fr.Element
	rows          []int
}

func (g *Graph) NewScratch() *Scratch {
	return &Scratch{
		intermediates: make([]fr.Element, len(g.calculations)),
		rows:          make([]int, len(g.rotations)),
	}
}

// EvaluateRow evaluates the graph result at row.
func (g *Graph) EvaluateRow(t *Tables, row int, s *Scratch) fr.Element {
	g.Compute(t, row, s)
	return g.Value(g.result, t, s)
}

// Compute runs every calculation at row, leaving the results in s.
func (g *Graph) Compute(t *Tables, row int, s *Scratch) {
	for i, r := range g.rotations {
		s.rows[i] = RotatedRow(row, r*t.RotationScale, t.Size)
	}
	for i, c := range g.calculations {
		a := g.value(c.a, t, s)
		switch c.op {
		case opAdd:
			s.intermediates[i].Add(a, g.value(c.b, t, s))
		case opMul:
			s.intermediates[i].Mul(a, g.value(c.b, t, s))
		case opNeg:
			s.intermediates[i].Neg(a)
		}
	}
}

// Value reads src, as returned by Add, after Compute.
func (g *Graph) Value(src ValueSource, t *Tables, s *Scratch) fr.Element {
	return *g.value(src, t, s)
}

// Evaluate evaluates the graph on every row of the tables.
func (g *Graph) Evaluate(t *Tables) []fr.Element {
	res := make([]fr.Element, t.Size)
	poly.Parallelize(t.Size, func(start, end int) {
		s := g.NewScratch()
		for row := start; row < end; row++ {
			res[row] = g.EvaluateRow(t, row, s)
		}
	})
	return res
}

func (g *Graph) value(src ValueSource, t *Tables, s *Scratch) *fr.Element {
	switch src.kind {
	case srcConstant:
		return &g.constants[src.index]
	case srcIntermediate:
		return &s.intermediates[src.index]
	case srcFixed:
		return &t.Fixed[src.index][s.rows[src.rotation]]
	case srcAdvice:
		return &t.Advice[src.index][s.rows[src.rotation]]
	case srcInstance:
		return &t.Instance[src.index][s.rows[src.rotation]]
	default:
		return &t.Challenges[src.index]
	}
}

// RotatedRow returns (row + shift) mod size.
func RotatedRow(row, shift, size int) int {
	r := (row + shift) % size
	if r < 0 {
		r += size
	}
	return r
}
