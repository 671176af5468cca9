package circuit

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/fxamacker/cbor/v2"

	"github.com/eon-protocol/plonkish/poly"
)

var errInvalidDescriptor = errors.New("invalid constraint system descriptor")

type nodeKind uint8

const (
	nodeConstant nodeKind = iota
	nodeFixed
	nodeAdvice
	nodeInstance
	nodeChallenge
	nodeNegated
	nodeSum
	nodeProduct
	nodeScaled
)

type exprNode struct {
	Kind     nodeKind      `cbor:"1,keyasint"`
	Value    []byte        `cbor:"2,keyasint,omitempty"`
	Index    int           `cbor:"3,keyasint,omitempty"`
	Column   int           `cbor:"4,keyasint,omitempty"`
	Rotation poly.Rotation `cbor:"5,keyasint,omitempty"`
	Phase    Phase         `cbor:"6,keyasint,omitempty"`
	Children []exprNode    `cbor:"7,keyasint,omitempty"`
}

type gateDesc struct {
	Name  string     `cbor:"1,keyasint"`
	Polys []exprNode `cbor:"2,keyasint"`
}

type lookupDesc struct {
	Name   string     `cbor:"1,keyasint"`
	Kind   LookupKind `cbor:"2,keyasint"`
	Inputs []exprNode `cbor:"3,keyasint"`
	Tables []exprNode `cbor:"4,keyasint"`
}

type shuffleDesc struct {
	Name     string     `cbor:"1,keyasint"`
	Inputs   []exprNode `cbor:"2,keyasint"`
	Shuffles []exprNode `cbor:"3,keyasint"`
}

type descriptor struct {
	NumFixed         int           `cbor:"1,keyasint"`
	NumAdvice        int           `cbor:"2,keyasint"`
	NumInstance      int           `cbor:"3,keyasint"`
	AdvicePhases     []Phase       `cbor:"4,keyasint"`
	ChallengePhases  []Phase       `cbor:"5,keyasint"`
	Selectors        []Column      `cbor:"6,keyasint"`
	FixedQueries     []ColumnQuery `cbor:"7,keyasint"`
	AdviceQueries    []ColumnQuery `cbor:"8,keyasint"`
	InstanceQueries  []ColumnQuery `cbor:"9,keyasint"`
	NumAdviceQueries []int         `cbor:"10,keyasint"`
	Permutation      []Column      `cbor:"11,keyasint"`
	Gates            []gateDesc    `cbor:"12,keyasint"`
	Lookups          []lookupDesc  `cbor:"13,keyasint"`
	Shuffles         []shuffleDesc `cbor:"14,keyasint"`
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// MarshalBinary encodes cs as deterministic CBOR.
func (cs *ConstraintSystem) MarshalBinary() ([]byte, error) {
	d := descriptor{
		NumFixed:         cs.NumFixed,
		NumAdvice:        cs.NumAdvice,
		NumInstance:      cs.NumInstance,
		AdvicePhases:     cs.AdvicePhases,
		ChallengePhases:  cs.ChallengePhases,
		Selectors:        cs.Selectors,
		FixedQueries:     cs.FixedQueries,
		AdviceQueries:    cs.AdviceQueries,
		InstanceQueries:  cs.InstanceQueries,
		NumAdviceQueries: cs.NumAdviceQueries,
		Permutation:      cs.Permutation,
	}
	for _, g := range cs.Gates {
		d.Gates = append(d.Gates, gateDesc{Name: g.Name, Polys: encodeExprs(g.Polys)})
	}
	for _, l := range cs.Lookups {
		d.Lookups = append(d.Lookups, lookupDesc{
			Name:   l.Name,
			Kind:   l.Kind,
			Inputs: encodeExprs(l.Inputs),
			Tables: encodeExprs(l.Tables),
		})
	}
	for _, s := range cs.Shuffles {
		d.Shuffles = append(d.Shuffles, shuffleDesc{
			Name:     s.Name,
			Inputs:   encodeExprs(s.Inputs),
			Shuffles: encodeExprs(s.Shuffles),
		})
	}
	return encMode.Marshal(&d)
}

// UnmarshalBinary restores a constraint system encoded by MarshalBinary.
func (cs *ConstraintSystem) UnmarshalBinary(data []byte) error {
	var d descriptor
	if err := cbor.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("%w: %w", errInvalidDescriptor, err)
	}
	if len(d.AdvicePhases) != d.NumAdvice || len(d.NumAdviceQueries) != d.NumAdvice {
		return fmt.Errorf("%w: %d advice columns with %d phases", errInvalidDescriptor, d.NumAdvice, len(d.AdvicePhases))
	}
	for _, q := range d.AdviceQueries {
		if q.Column < 0 || q.Column >= d.NumAdvice {
			return fmt.Errorf("%w: advice query on column %d", errInvalidDescriptor, q.Column)
		}
	}
	res := ConstraintSystem{
		NumFixed:         d.NumFixed,
		NumAdvice:        d.NumAdvice,
		NumInstance:      d.NumInstance,
		AdvicePhases:     d.AdvicePhases,
		ChallengePhases:  d.ChallengePhases,
		Selectors:        d.Selectors,
		FixedQueries:     d.FixedQueries,
		AdviceQueries:    d.AdviceQueries,
		InstanceQueries:  d.InstanceQueries,
		NumAdviceQueries: d.NumAdviceQueries,
		Permutation:      d.Permutation,
	}
	dec := exprDecoder{cs: &res}
	for _, g := range d.Gates {
		res.Gates = append(res.Gates, Gate{Name: g.Name, Polys: dec.decodeAll(g.Polys)})
	}
	for _, l := range d.Lookups {
		if len(l.Inputs) != len(l.Tables) {
			return fmt.Errorf("%w: lookup %q arity", errInvalidDescriptor, l.Name)
		}
		res.Lookups = append(res.Lookups, LookupArgument{
			Name:   l.Name,
			Kind:   l.Kind,
			Inputs: dec.decodeAll(l.Inputs),
			Tables: dec.decodeAll(l.Tables),
		})
	}
	for _, s := range d.Shuffles {
		if len(s.Inputs) != len(s.Shuffles) {
			return fmt.Errorf("%w: shuffle %q arity", errInvalidDescriptor, s.Name)
		}
		res.Shuffles = append(res.Shuffles, ShuffleArgument{
			Name:     s.Name,
			Inputs:   dec.decodeAll(s.Inputs),
			Shuffles: dec.decodeAll(s.Shuffles),
		})
	}
	if dec.err != nil {
		return dec.err
	}
	*cs = res
	return nil
}

func encodeExprs(es []Expression) []exprNode {
	res := make([]exprNode, len(es))
	for i, e := range es {
		res[i] = encodeExpr(e)
	}
	return res
}

func encodeExpr(e Expression) exprNode {
	return Fold(e, &Folder[exprNode]{
		Constant: func(v fr.Element) exprNode {
			b := v.Bytes()
			return exprNode{Kind: nodeConstant, Value: b[:]}
		},
		Fixed: func(q FixedQuery) exprNode {
			return exprNode{Kind: nodeFixed, Index: q.Index, Column: q.Column, Rotation: q.Rotation}
		},
		Advice: func(q AdviceQuery) exprNode {
			return exprNode{Kind: nodeAdvice, Index: q.Index, Column: q.Column, Rotation: q.Rotation, Phase: q.Phase}
		},
		Instance: func(q InstanceQuery) exprNode {
			return exprNode{Kind: nodeInstance, Index: q.Index, Column: q.Column, Rotation: q.Rotation}
		},
		Challenge: func(c Challenge) exprNode {
			return exprNode{Kind: nodeChallenge, Index: c.Index, Phase: c.Phase}
		},
		Negated: func(a exprNode) exprNode {
			return exprNode{Kind: nodeNegated, Children: []exprNode{a}}
		},
		Sum: func(a, b exprNode) exprNode {
			return exprNode{Kind: nodeSum, Children: []exprNode{a, b}}
		},
		Product: func(a, b exprNode) exprNode {
			return exprNode{Kind: nodeProduct, Children: []exprNode{a, b}}
		},
		Scaled: func(a exprNode, f fr.Element) exprNode {
			b := f.Bytes()
			return exprNode{Kind: nodeScaled, Value: b[:], Children: []exprNode{a}}
		},
	})
}

// exprDecoder rebuilds expressions, keeping the first error and validating
// every query index against the restored query lists.
type exprDecoder struct {
	cs  *ConstraintSystem
	err error
}

func (dec *exprDecoder) decodeAll(nodes []exprNode) []Expression {
	res := make([]Expression, len(nodes))
	for i := range nodes {
		res[i] = dec.decode(&nodes[i])
	}
	return res
}

func (dec *exprDecoder) fail(format string, args ...any) Expression {
	if dec.err == nil {
		dec.err = fmt.Errorf("%w: "+format, append([]any{errInvalidDescriptor}, args...)...)
	}
	return Const(0)
}

func (dec *exprDecoder) checkQuery(queries []ColumnQuery, n *exprNode) bool {
	return n.Index >= 0 && n.Index < len(queries) &&
		queries[n.Index] == ColumnQuery{Column: n.Column, Rotation: n.Rotation}
}

func (dec *exprDecoder) decode(n *exprNode) Expression {
	arity := map[nodeKind]int{nodeNegated: 1, nodeScaled: 1, nodeSum: 2, nodeProduct: 2}[n.Kind]
	if len(n.Children) != arity {
		return dec.fail("node kind %d has %d children", n.Kind, len(n.Children))
	}
	switch n.Kind {
	case nodeConstant, nodeScaled:
		var v fr.Element
		if err := v.SetBytesCanonical(n.Value); err != nil {
			return dec.fail("constant: %v", err)
		}
		if n.Kind == nodeConstant {
			return Constant{Value: v}
		}
		return Scaled{Expr: dec.decode(&n.Children[0]), Factor: v}
	case nodeFixed:
		if !dec.checkQuery(dec.cs.FixedQueries, n) {
			return dec.fail("fixed query %d", n.Index)
		}
		return FixedQuery{Index: n.Index, Column: n.Column, Rotation: n.Rotation}
	case nodeAdvice:
		if !dec.checkQuery(dec.cs.AdviceQueries, n) || dec.cs.AdvicePhases[n.Column] != n.Phase {
			return dec.fail("advice query %d", n.Index)
		}
		return AdviceQuery{Index: n.Index, Column: n.Column, Rotation: n.Rotation, Phase: n.Phase}
	case nodeInstance:
		if !dec.checkQuery(dec.cs.InstanceQueries, n) {
			return dec.fail("instance query %d", n.Index)
		}
		return InstanceQuery{Index: n.Index, Column: n.Column, Rotation: n.Rotation}
	case nodeChallenge:
		if n.Index < 0 || n.Index >= len(dec.cs.ChallengePhases) {
			return dec.fail("challenge %d", n.Index)
		}
		return Challenge{Index: n.Index, Phase: n.Phase}
	case nodeNegated:
		return Negated{Expr: dec.decode(&n.Children[0])}
	case nodeSum:
		return Sum{Left: dec.decode(&n.Children[0]), Right: dec.decode(&n.Children[1])}
	case nodeProduct:
		return Product{Left: dec.decode(&n.Children[0]), Right: dec.decode(&n.Children[1])}
	}
	return dec.fail("unknown node kind %d", n.Kind)
}
