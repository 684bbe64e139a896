// Package builtins registers the primitive function table the evaluator
// calls into for arithmetic, comparison, string, and I/O operations. RTFS
// treats the stdlib as an external collaborator; this package is the
// reference table an embedder installs, not a mandated implementation.
package builtins

import (
	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/eval"
)

// Primitive is one named, arity-checked host function.
type Primitive struct {
	Name  string
	Arity eval.Arity
	Fn    func(args []eval.Value) (eval.Value, *errors.Report)
	// Pure marks primitives the optimizer may constant-fold or duplicate
	// freely: free of observable side effects and failure-independent of
	// anything but their arguments.
	Pure bool
}

// Register installs every primitive in this package's table into env under
// its name, so that converted IR referencing e.g. "+" resolves to a
// *eval.FunctionValue. nextID supplies fresh binding ids for each entry,
// shared with whatever convert.Context will later compile code against
// env (see convert.Globals) so ids never collide. The returned table maps
// each primitive's name to its reserved id, letting a caller seed both a
// converter's Globals and the optimizer's purity table from the same
// source of truth (All()).
func Register(env *eval.Environment, nextID func() uint64) map[string]uint64 {
	ids := make(map[string]uint64)
	for _, p := range All() {
		id := nextID()
		env.Define(id, p.Name, &eval.FunctionValue{Name: p.Name, Arity: p.Arity, Primitive: p.Fn})
		ids[p.Name] = id
	}
	return ids
}

// All returns the full built-in table: arithmetic, comparison, boolean,
// string, conversion, result, and I/O primitives.
func All() []Primitive {
	var out []Primitive
	out = append(out, arithmeticPrimitives()...)
	out = append(out, comparisonPrimitives()...)
	out = append(out, booleanPrimitives()...)
	out = append(out, stringPrimitives()...)
	out = append(out, conversionPrimitives()...)
	out = append(out, resultPrimitives()...)
	out = append(out, ioPrimitives()...)
	return out
}

// ByName indexes All() by primitive name, for the optimizer's purity lookup
// and for tests that want a single primitive without building the whole
// table.
func ByName() map[string]Primitive {
	m := make(map[string]Primitive)
	for _, p := range All() {
		m[p.Name] = p
	}
	return m
}
