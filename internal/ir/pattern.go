package ir

import "github.com/rtfs-lang/rtfs/internal/types"

// PatternKind enumerates the match pattern shapes the evaluator unifies
// against a scrutinee. Destructuring patterns (let/fn) never survive to IR
// as patterns — the converter flattens them into VariableBinding + accessor
// expressions — so this sum only needs to cover the match grammar.
type PatternKind int

const (
	PatLiteral PatternKind = iota
	PatWildcard
	PatVariable // binds, introducing BindingID
	PatType     // runtime type test, optionally also binding
	PatVector
	PatMap
	PatAs
)

// MapKey mirrors ast.MapKeyLit in resolved form (evaluated at convert time
// so the evaluator never re-evaluates a key expression during matching).
type MapKey struct {
	Kind  MapKeyKind
	Value interface{}
}

// MapKeyKind lines up 1:1 with ast.MapKeyKind; duplicated here rather than
// importing ast purely for an enum.
type MapKeyKind int

const (
	MapKeyKeyword MapKeyKind = iota
	MapKeyString
	MapKeyInt
)

// MapPatternEntry is one key/pattern pair inside a PatMap.
type MapPatternEntry struct {
	Key     MapKey
	Pattern Pattern
}

// Pattern is a compiled match-clause pattern.
type Pattern struct {
	Kind    PatternKind
	Literal interface{}

	BindingID uint64
	Name      string

	MatchType types.Type

	Elements []Pattern
	Rest     string // variable name for "rest" binding, empty if absent
	RestID   uint64

	MapEntries []MapPatternEntry
	MapRest    string
	MapRestID  uint64

	AsInner *Pattern
}
