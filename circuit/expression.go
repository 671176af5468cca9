package circuit

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/eon-protocol/plonkish/poly"
)

// Expression is a polynomial expression over queried cells and challenges.
// The set of node types is closed.
type Expression interface {
	expression()
}

type Constant struct {
	Value fr.Element
}

type FixedQuery struct {
	Index    int
	Column   int
	Rotation poly.Rotation
}

type AdviceQuery struct {
	Index    int
	Column   int
	Rotation poly.Rotation
	Phase    Phase
}

type InstanceQuery struct {
	Index    int
	Column   int
	Rotation poly.Rotation
}

// Challenge is a verifier challenge usable once its phase is committed.
type Challenge struct {
	Index int
	Phase Phase
}

type Negated struct {
	Expr Expression
}

type Sum struct {
	Left, Right Expression
}

type Product struct {
	Left, Right Expression
}

type Scaled struct {
	Expr   Expression
	Factor fr.Element
}

func (Constant) expression()      {}
func (FixedQuery) expression()    {}
func (AdviceQuery) expression()   {}
func (InstanceQuery) expression() {}
func (Challenge) expression()     {}
func (Negated) expression()       {}
func (Sum) expression()           {}
func (Product) expression()       {}
func (Scaled) expression()        {}

func Const(v uint64) Expression {
	return Constant{Value: fr.NewElement(v)}
}

func ConstElement(v fr.Element) Expression {
	return Constant{Value: v}
}

func Add(a, b Expression) Expression {
	return Sum{Left: a, Right: b}
}

func Sub(a, b Expression) Expression {
	return Sum{Left: a, Right: Negated{Expr: b}}
}

func Mul(a, b Expression) Expression {
	return Product{Left: a, Right: b}
}

func Neg(a Expression) Expression {
	return Negated{Expr: a}
}

func Scale(a Expression, f fr.Element) Expression {
	return Scaled{Expr: a, Factor: f}
}

func Square(a Expression) Expression {
	return Product{Left: a, Right: a}
}

// SumOf folds es with Add. It returns the constant 0 for no terms.
func SumOf(es ...Expression) Expression {
	if len(es) == 0 {
		return Const(0)
	}
	acc := es[0]
	for _, e := range es[1:] {
		acc = Add(acc, e)
	}
	return acc
}

// Folder holds one callback per node type.
type Folder[T any] struct {
	Constant  func(fr.Element) T
	Fixed     func(FixedQuery) T
	Advice    func(AdviceQuery) T
	Instance  func(InstanceQuery) T
	Challenge func(Challenge) T
	Negated   func(T) T
	Sum       func(T, T) T
	Product   func(T, T) T
	Scaled    func(T, fr.Element) T
}

// Fold evaluates e bottom-up with f.
func Fold[T any](e Expression, f *Folder[T]) T {
	switch e := e.(type) {
	case Constant:
		return f.Constant(e.Value)
	case FixedQuery:
		return f.Fixed(e)
	case AdviceQuery:
		return f.Advice(e)
	case InstanceQuery:
		return f.Instance(e)
	case Challenge:
		return f.Challenge(e)
	case Negated:
		return f.Negated(Fold(e.Expr, f))
	case Sum:
		return f.Sum(Fold(e.Left, f), Fold(e.Right, f))
	case Product:
		return f.Product(Fold(e.Left, f), Fold(e.Right, f))
	case Scaled:
		return f.Scaled(Fold(e.Expr, f), e.Factor)
	}
	panic(fmt.Sprintf("circuit: unknown expression %T", e))
}

var degreeFolder = Folder[int]{
	Constant:  func(fr.Element) int { return 0 },
	Fixed:     func(FixedQuery) int { return 1 },
	Advice:    func(AdviceQuery) int { return 1 },
	Instance:  func(InstanceQuery) int { return 1 },
	Challenge: func(Challenge) int { return 0 },
	Negated:   func(d int) int { return d },
	Sum:       func(a, b int) int { return max(a, b) },
	Product:   func(a, b int) int { return a + b },
	Scaled:    func(d int, _ fr.Element) int { return d },
}

// Degree is the structural degree of e in the queried cells.
func Degree(e Expression) int {
	return Fold(e, &degreeFolder)
}

var stringFolder = Folder[string]{
	Constant: func(v fr.Element) string { return v.String() },
	Fixed: func(q FixedQuery) string {
		return fmt.Sprintf("fixed[%d]@%d", q.Column, q.Rotation)
	},
	Advice: func(q AdviceQuery) string {
		return fmt.Sprintf("advice[%d]@%d", q.Column, q.Rotation)
	},
	Instance: func(q InstanceQuery) string {
		return fmt.Sprintf("instance[%d]@%d", q.Column, q.Rotation)
	},
	Challenge: func(c Challenge) string { return fmt.Sprintf("challenge[%d]", c.Index) },
	Negated:   func(s string) string { return "-" + s },
	Sum:       func(a, b string) string { return "(" + a + " + " + b + ")" },
	Product:   func(a, b string) string { return a + "*" + b },
	Scaled:    func(s string, f fr.Element) string { return s + "*" + f.String() },
}

func String(e Expression) string {
	return Fold(e, &stringFolder)
}

// QueryEvals holds evaluations at the opening point indexed by query index.
type QueryEvals struct {
	Fixed, Advice, Instance []fr.Element
	Challenges              []fr.Element
}

// At returns the evaluation of col queried at rot.
func (e *QueryEvals) At(cs *ConstraintSystem, col Column, rot poly.Rotation) fr.Element {
	i := cs.QueryIndex(col, rot)
	switch col.Type {
	case Fixed:
		return e.Fixed[i]
	case Advice:
		return e.Advice[i]
	default:
		return e.Instance[i]
	}
}

// Evaluate evaluates e from per-query evaluations.
func Evaluate(e Expression, evals *QueryEvals) fr.Element {
	return Fold(e, &Folder[fr.Element]{
		Constant:  func(v fr.Element) fr.Element { return v },
		Fixed:     func(q FixedQuery) fr.Element { return evals.Fixed[q.Index] },
		Advice:    func(q AdviceQuery) fr.Element { return evals.Advice[q.Index] },
		Instance:  func(q InstanceQuery) fr.Element { return evals.Instance[q.Index] },
		Challenge: func(c Challenge) fr.Element { return evals.Challenges[c.Index] },
		Negated: func(a fr.Element) fr.Element {
			return *a.Neg(&a)
		},
		Sum: func(a, b fr.Element) fr.Element {
			return *a.Add(&a, &b)
		},
		Product: func(a, b fr.Element) fr.Element {
			return *a.Mul(&a, &b)
		},
		Scaled: func(a, f fr.Element) fr.Element {
			return *a.Mul(&a, &f)
		},
	})
}

// Compress returns Σ θ^{m-1-i}·e_i (Horner in θ) evaluated from evals.
func Compress(es []Expression, theta fr.Element, evals *QueryEvals) fr.Element {
	var acc fr.Element
	for _, e := range es {
		v := Evaluate(e, evals)
		acc.Mul(&acc, &theta).Add(&acc, &v)
	}
	return acc
}
