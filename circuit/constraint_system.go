package circuit

import (
	"fmt"
	"slices"

	"github.com/eon-protocol/plonkish/poly"
)

type Gate struct {
	Name  string
	Polys []Expression
}

type LookupKind uint8

const (
	// SortedLookup permutes the compressed input and table into A′, S′ with
	// A′ sorted and each A′ row either equal to its predecessor or to S′.
	SortedLookup LookupKind = iota
	// LogDerivativeLookup proves Σ 1/(A+β) = Σ m/(S+β) with committed
	// multiplicities m.
	LogDerivativeLookup
)

func (k LookupKind) String() string {
	switch k {
	case SortedLookup:
		return "sorted"
	case LogDerivativeLookup:
		return "logderivative"
	}
	return fmt.Sprintf("lookup_kind(%d)", uint8(k))
}

type LookupArgument struct {
	Name   string
	Kind   LookupKind
	Inputs []Expression
	Tables []Expression
}

// Degree is the degree the lookup constraints need from the vanishing argument.
func (l *LookupArgument) Degree() int {
	in, table := 1, 1
	for _, e := range l.Inputs {
		in = max(in, Degree(e))
	}
	for _, e := range l.Tables {
		table = max(table, Degree(e))
	}
	return max(4, 2+in+table)
}

type ShuffleArgument struct {
	Name     string
	Inputs   []Expression
	Shuffles []Expression
}

func (s *ShuffleArgument) Degree() int {
	d := 0
	for i := range s.Inputs {
		d = max(d, Degree(s.Inputs[i]), Degree(s.Shuffles[i]))
	}
	return 2 + d
}

// ConstraintSystem is the configured shape of a circuit: columns, gates,
// queries and arguments. It is built once by Circuit.Configure.
type ConstraintSystem struct {
	NumFixed    int
	NumAdvice   int
	NumInstance int

	AdvicePhases    []Phase
	ChallengePhases []Phase
	Selectors       []Column

	Gates []Gate

	FixedQueries     []ColumnQuery
	AdviceQueries    []ColumnQuery
	InstanceQueries  []ColumnQuery
	NumAdviceQueries []int

	Permutation []Column
	Lookups     []LookupArgument
	Shuffles    []ShuffleArgument
}

func NewConstraintSystem() *ConstraintSystem {
	return &ConstraintSystem{}
}

func (cs *ConstraintSystem) FixedColumn() Column {
	c := Column{Index: cs.NumFixed, Type: Fixed}
	cs.NumFixed++
	return c
}

func (cs *ConstraintSystem) AdviceColumn() Column {
	return cs.AdviceColumnInPhase(FirstPhase)
}

// AdviceColumnInPhase allocates an advice column committed in phase p. Phase p
// may only be used once phase p-1 has at least one advice column.
func (cs *ConstraintSystem) AdviceColumnInPhase(p Phase) Column {
	if p > FirstPhase && !slices.Contains(cs.AdvicePhases, p-1) {
		panic(fmt.Sprintf("circuit: phase %d used before phase %d", p, p-1))
	}
	c := Column{Index: cs.NumAdvice, Type: Advice}
	cs.NumAdvice++
	cs.AdvicePhases = append(cs.AdvicePhases, p)
	cs.NumAdviceQueries = append(cs.NumAdviceQueries, 0)
	return c
}

func (cs *ConstraintSystem) InstanceColumn() Column {
	c := Column{Index: cs.NumInstance, Type: Instance}
	cs.NumInstance++
	return c
}

// Selector allocates a simple selector backed by its own fixed column.
func (cs *ConstraintSystem) Selector() Selector {
	c := cs.FixedColumn()
	cs.Selectors = append(cs.Selectors, c)
	return Selector{column: c}
}

// ChallengeUsableAfter allocates a challenge squeezed once every advice column
// of phase p is committed.
func (cs *ConstraintSystem) ChallengeUsableAfter(p Phase) Challenge {
	if !slices.Contains(cs.AdvicePhases, p) {
		panic(fmt.Sprintf("circuit: challenge after phase %d, which has no advice column", p))
	}
	c := Challenge{Index: len(cs.ChallengePhases), Phase: p}
	cs.ChallengePhases = append(cs.ChallengePhases, p)
	return c
}

// EnableEquality adds col to the permutation argument.
func (cs *ConstraintSystem) EnableEquality(col Column) {
	cs.queryAnyIndex(col, poly.Cur)
	if !slices.Contains(cs.Permutation, col) {
		cs.Permutation = append(cs.Permutation, col)
	}
}

// PermutationIndex returns the position of col in the permutation argument.
func (cs *ConstraintSystem) PermutationIndex(col Column) (int, bool) {
	i := slices.Index(cs.Permutation, col)
	return i, i >= 0
}

func (cs *ConstraintSystem) CreateGate(name string, constraints func(vc *VirtualCells) []Expression) {
	polys := constraints(&VirtualCells{cs: cs})
	if len(polys) == 0 {
		panic(fmt.Sprintf("circuit: gate %q has no constraints", name))
	}
	cs.Gates = append(cs.Gates, Gate{Name: name, Polys: polys})
}

// Lookup adds a lookup argument asserting every row of inputs appears as a
// row of tables.
func (cs *ConstraintSystem) Lookup(name string, kind LookupKind, fn func(vc *VirtualCells) (inputs, tables []Expression)) {
	inputs, tables := fn(&VirtualCells{cs: cs})
	if len(inputs) != len(tables) || len(inputs) == 0 {
		panic(fmt.Sprintf("circuit: lookup %q has %d inputs and %d tables", name, len(inputs), len(tables)))
	}
	if kind != SortedLookup && kind != LogDerivativeLookup {
		panic(fmt.Sprintf("circuit: lookup %q has unknown kind %s", name, kind))
	}
	cs.Lookups = append(cs.Lookups, LookupArgument{Name: name, Kind: kind, Inputs: inputs, Tables: tables})
}

// Shuffle adds a shuffle argument asserting inputs and shuffles are equal as
// multisets of rows.
func (cs *ConstraintSystem) Shuffle(name string, fn func(vc *VirtualCells) (inputs, shuffles []Expression)) {
	inputs, shuffles := fn(&VirtualCells{cs: cs})
	if len(inputs) != len(shuffles) || len(inputs) == 0 {
		panic(fmt.Sprintf("circuit: shuffle %q has %d inputs and %d shuffles", name, len(inputs), len(shuffles)))
	}
	cs.Shuffles = append(cs.Shuffles, ShuffleArgument{Name: name, Inputs: inputs, Shuffles: shuffles})
}

// Degree is the maximum degree of every constraint the prover must satisfy.
func (cs *ConstraintSystem) Degree() int {
	d := 3 // permutation
	for i := range cs.Lookups {
		d = max(d, cs.Lookups[i].Degree())
	}
	for i := range cs.Shuffles {
		d = max(d, cs.Shuffles[i].Degree())
	}
	for _, g := range cs.Gates {
		for _, p := range g.Polys {
			d = max(d, Degree(p))
		}
	}
	return d
}

// BlindingFactors is the number of random rows at the end of every advice
// column.
func (cs *ConstraintSystem) BlindingFactors() int {
	factors := 1
	for _, q := range cs.NumAdviceQueries {
		factors = max(factors, q)
	}
	return max(3, factors) + 2
}

// MinimumRows is the smallest n with at least one usable row.
func (cs *ConstraintSystem) MinimumRows() int {
	return cs.BlindingFactors() + 2
}

// UsableRows is the number of rows a circuit of size n may assign.
func (cs *ConstraintSystem) UsableRows(n int) int {
	return n - (cs.BlindingFactors() + 1)
}

// Phases lists every phase up to the highest one used.
func (cs *ConstraintSystem) Phases() []Phase {
	var last Phase
	for _, p := range cs.AdvicePhases {
		last = max(last, p)
	}
	res := make([]Phase, 0, last+1)
	for p := FirstPhase; p <= last; p++ {
		res = append(res, p)
	}
	return res
}

// QueryIndex returns the index of an existing (col, rot) query.
func (cs *ConstraintSystem) QueryIndex(col Column, rot poly.Rotation) int {
	var queries []ColumnQuery
	switch col.Type {
	case Fixed:
		queries = cs.FixedQueries
	case Advice:
		queries = cs.AdviceQueries
	case Instance:
		queries = cs.InstanceQueries
	}
	i := slices.Index(queries, ColumnQuery{Column: col.Index, Rotation: rot})
	if i < 0 {
		panic(fmt.Sprintf("circuit: %s not queried at rotation %d", col, rot))
	}
	return i
}

func (cs *ConstraintSystem) queryAnyIndex(col Column, rot poly.Rotation) int {
	switch col.Type {
	case Fixed:
		return cs.queryFixedIndex(col.Index, rot)
	case Advice:
		return cs.queryAdviceIndex(col.Index, rot)
	default:
		return cs.queryInstanceIndex(col.Index, rot)
	}
}

func (cs *ConstraintSystem) queryFixedIndex(col int, rot poly.Rotation) int {
	q := ColumnQuery{Column: col, Rotation: rot}
	if i := slices.Index(cs.FixedQueries, q); i >= 0 {
		return i
	}
	cs.FixedQueries = append(cs.FixedQueries, q)
	return len(cs.FixedQueries) - 1
}

func (cs *ConstraintSystem) queryAdviceIndex(col int, rot poly.Rotation) int {
	q := ColumnQuery{Column: col, Rotation: rot}
	if i := slices.Index(cs.AdviceQueries, q); i >= 0 {
		return i
	}
	cs.AdviceQueries = append(cs.AdviceQueries, q)
	cs.NumAdviceQueries[col]++
	return len(cs.AdviceQueries) - 1
}

func (cs *ConstraintSystem) queryInstanceIndex(col int, rot poly.Rotation) int {
	q := ColumnQuery{Column: col, Rotation: rot}
	if i := slices.Index(cs.InstanceQueries, q); i >= 0 {
		return i
	}
	cs.InstanceQueries = append(cs.InstanceQueries, q)
	return len(cs.InstanceQueries) - 1
}

// VirtualCells builds query expressions while a gate or argument is being
// defined.
type VirtualCells struct {
	cs *ConstraintSystem
}

func (vc *VirtualCells) QueryFixed(col Column, rot poly.Rotation) Expression {
	vc.checkType(col, Fixed)
	return FixedQuery{Index: vc.cs.queryFixedIndex(col.Index, rot), Column: col.Index, Rotation: rot}
}

func (vc *VirtualCells) QueryAdvice(col Column, rot poly.Rotation) Expression {
	vc.checkType(col, Advice)
	return AdviceQuery{
		Index:    vc.cs.queryAdviceIndex(col.Index, rot),
		Column:   col.Index,
		Rotation: rot,
		Phase:    vc.cs.AdvicePhases[col.Index],
	}
}

func (vc *VirtualCells) QueryInstance(col Column, rot poly.Rotation) Expression {
	vc.checkType(col, Instance)
	return InstanceQuery{Index: vc.cs.queryInstanceIndex(col.Index, rot), Column: col.Index, Rotation: rot}
}

func (vc *VirtualCells) QueryAny(col Column, rot poly.Rotation) Expression {
	switch col.Type {
	case Fixed:
		return vc.QueryFixed(col, rot)
	case Advice:
		return vc.QueryAdvice(col, rot)
	default:
		return vc.QueryInstance(col, rot)
	}
}

// QuerySelector queries s at the current row.
func (vc *VirtualCells) QuerySelector(s Selector) Expression {
	return vc.QueryFixed(s.column, poly.Cur)
}

func (vc *VirtualCells) QueryChallenge(ch Challenge) Expression {
	return ch
}

func (vc *VirtualCells) checkType(col Column, want ColumnType) {
	if col.Type != want {
		panic(fmt.Sprintf("circuit: %s queried as %s", col, want))
	}
}
