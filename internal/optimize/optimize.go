// Package optimize implements the IR optimizer: constant folding,
// constant-condition elimination, dead-code elimination, and function
// inlining, run as a small fixed pipeline driven by a requested Level.
package optimize

import (
	"time"

	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/eval"
	"github.com/rtfs-lang/rtfs/internal/ir"
)

// PrimitiveInfo is what the optimizer needs to know about a host primitive
// reachable at a given binding id: whether it is pure (eligible for
// constant folding / free duplication) and, when pure, the function itself
// so a fully-literal call can be folded at compile time.
type PrimitiveInfo struct {
	Pure bool
	Fn   func(args []eval.Value) (eval.Value, *errors.Report)
}

// Level selects how aggressively the pipeline rewrites IR.
type Level int

const (
	// None runs no passes; the tree returned is the one given.
	None Level = iota
	// Basic runs every pass of basicPasses exactly once, in a fixed order;
	// it never inlines.
	Basic
	// Aggressive iterates the full pass sequence to a fixpoint (no pass
	// reports a change), capped at maxPasses.
	Aggressive
)

// maxPasses bounds Aggressive iteration so a pathological or buggy rewrite
// cycle cannot hang the optimizer.
const maxPasses = 16

// Stats records one pass's effect on tree size and how long it ran, for
// diagnostics.
type Stats struct {
	PassName    string
	NodesBefore int
	NodesAfter  int
	DurationMS  float64
	Changed     bool
}

// pass is one rewrite stage. It returns the (possibly new) tree and
// whether it changed anything.
type pass struct {
	name string
	run  func(*context, ir.Node) (ir.Node, bool)
}

// context threads cross-pass configuration: which binding ids name pure
// primitives (constant folding may only fold calls to these) and which
// user-defined functions are themselves free of side effects (computed by
// the purity pass and consulted by later passes in the same run).
type context struct {
	primitives map[uint64]PrimitiveInfo
	pureUser   map[uint64]bool
}

// basicPasses is the Basic pipeline: constant folding, constant-condition
// elimination, dead-code elimination (plus the purity pre-pass those
// DCE/folding decisions depend on). Function inlining is Aggressive-only.
func basicPasses() []pass {
	return []pass{
		{"purity", purityPass},
		{"constant-fold", constantFoldPass},
		{"constant-condition", constantConditionPass},
		{"dead-code", deadCodePass},
	}
}

func aggressivePasses() []pass {
	return append(basicPasses(), pass{"inline", inlinePass})
}

// Run optimizes root at the requested level. primitives maps a binding id
// (as seeded by convert.Globals.Primitives via the runtime) to that
// primitive's purity and implementation.
func Run(root ir.Node, level Level, primitives map[uint64]PrimitiveInfo) (ir.Node, []Stats) {
	if level == None {
		return root, nil
	}
	ctx := &context{primitives: primitives, pureUser: map[uint64]bool{}}
	var allStats []Stats

	passes := basicPasses()
	if level == Basic {
		for _, p := range passes {
			var st Stats
			root, st = runPass(ctx, p, root)
			allStats = append(allStats, st)
		}
		return root, allStats
	}

	passes = aggressivePasses()
	for i := 0; i < maxPasses; i++ {
		anyChanged := false
		for _, p := range passes {
			var st Stats
			root, st = runPass(ctx, p, root)
			allStats = append(allStats, st)
			anyChanged = anyChanged || st.Changed
		}
		if !anyChanged {
			break
		}
	}
	return root, allStats
}

func runPass(ctx *context, p pass, root ir.Node) (ir.Node, Stats) {
	before := ir.CountNodes(root)
	start := time.Now()
	next, changed := p.run(ctx, root)
	elapsed := time.Since(start)
	return next, Stats{
		PassName:    p.name,
		NodesBefore: before,
		NodesAfter:  ir.CountNodes(next),
		DurationMS:  float64(elapsed.Microseconds()) / 1000.0,
		Changed:     changed,
	}
}
