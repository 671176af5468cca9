package circuit

import (
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Assignment receives the cells, selectors and copy constraints of a circuit.
// Keygen and the prover each provide one.
type Assignment interface {
	EnableSelector(s Selector, row int) error
	AssignFixed(col Column, row int, v fr.Element) error
	AssignAdvice(col Column, row int, v Value) error
	Copy(left Column, leftRow int, right Column, rightRow int) error
	// Challenge is unknown until the challenge's phase is committed.
	Challenge(ch Challenge) Value

	PushNamespace(name string)
	PopNamespace()
}

// Circuit describes a circuit with configuration C.
type Circuit[C any] interface {
	Configure(cs *ConstraintSystem) C
	Synthesize(config C, asg Assignment) error
}

// Namespace is the stack of names pushed during synthesis, used in error
// messages.
type Namespace []string

func (ns *Namespace) Push(name string) {
	*ns = append(*ns, name)
}

func (ns *Namespace) Pop() {
	if len(*ns) > 0 {
		*ns = (*ns)[:len(*ns)-1]
	}
}

func (ns Namespace) String() string {
	if len(ns) == 0 {
		return "<root>"
	}
	return strings.Join(ns, "/")
}
