package optimize_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/rtfs-lang/rtfs/internal/builtins"
	"github.com/rtfs-lang/rtfs/internal/convert"
	"github.com/rtfs-lang/rtfs/internal/eval"
	"github.com/rtfs-lang/rtfs/internal/ir"
	"github.com/rtfs-lang/rtfs/internal/optimize"
	"github.com/rtfs-lang/rtfs/internal/parser"
)

// optimizeWithBuiltins parses src, converts it against the real builtin
// table (each primitive reserving its own binding id, matching how
// internal/runtime wires a Runtime), and runs the optimizer at level.
func optimizeWithBuiltins(t *testing.T, src string, level optimize.Level) ir.Node {
	t.Helper()
	var seq uint64
	nextID := func() uint64 { seq++; return seq }

	names := map[string]uint64{}
	primitiveInfo := map[uint64]optimize.PrimitiveInfo{}
	for _, p := range builtins.All() {
		id := nextID()
		names[p.Name] = id
		primitiveInfo[id] = optimize.PrimitiveInfo{Pure: p.Pure, Fn: p.Fn}
	}

	parsed := parser.New()
	forms, err := parsed.ParseProgram([]byte(src), "t.rtfs")
	require.NoError(t, err)
	prog, cerr := convert.ConvertProgram(nil, convert.Globals{NextID: nextID, Primitives: names}, forms)
	require.Nil(t, cerr)

	out, _ := optimize.Run(prog, level, primitiveInfo)
	return out
}

func firstForm(t *testing.T, root ir.Node) ir.Node {
	t.Helper()
	prog, ok := root.(*ir.Program)
	require.True(t, ok)
	require.NotEmpty(t, prog.Forms)
	return prog.Forms[0]
}

// Scenario 1: (+ 1 2) folds to literal 3 at Basic.
func TestConstantFoldAddition(t *testing.T) {
	out := optimizeWithBuiltins(t, "(+ 1 2)", optimize.Basic)
	lit, ok := firstForm(t, out).(*ir.Literal)
	require.True(t, ok)
	require.Equal(t, int64(3), lit.Value.(*eval.IntValue).Value)
}

func TestConstantFoldLeavesNonLiteralArgsAlone(t *testing.T) {
	out := optimizeWithBuiltins(t, "(let [x 1] (+ x 2))", optimize.Basic)
	let, ok := firstForm(t, out).(*ir.Let)
	require.True(t, ok)
	_, isApply := let.Body[0].(*ir.Apply)
	require.True(t, isApply, "can't fold an Apply whose argument isn't a literal")
}

func TestConstantFoldNeverFoldsAnErroringCall(t *testing.T) {
	// (/ 1 0) would raise DivisionByZero at runtime; folding must not hide
	// that by silently replacing it with some literal.
	out := optimizeWithBuiltins(t, "(/ 1 0)", optimize.Basic)
	_, ok := firstForm(t, out).(*ir.Apply)
	require.True(t, ok, "a call that would error is left unfolded")
}

// Scenario 2: (if true 42 0) optimizes to literal 42 at Basic.
func TestConstantConditionTrueBranch(t *testing.T) {
	out := optimizeWithBuiltins(t, "(if true 42 0)", optimize.Basic)
	lit, ok := firstForm(t, out).(*ir.Literal)
	require.True(t, ok)
	require.Equal(t, int64(42), lit.Value)
}

func TestConstantConditionFalseBranch(t *testing.T) {
	out := optimizeWithBuiltins(t, "(if false 42 0)", optimize.Basic)
	lit, ok := firstForm(t, out).(*ir.Literal)
	require.True(t, ok)
	require.Equal(t, int64(0), lit.Value)
}

func TestConstantConditionFalsyNoElseYieldsNil(t *testing.T) {
	out := optimizeWithBuiltins(t, "(if false 42)", optimize.Basic)
	lit, ok := firstForm(t, out).(*ir.Literal)
	require.True(t, ok)
	require.Nil(t, lit.Value)
}

func TestConstantConditionLeavesNonLiteralCondAlone(t *testing.T) {
	out := optimizeWithBuiltins(t, "(let [c (> 1 0)] (if c 1 2))", optimize.Basic)
	let := firstForm(t, out).(*ir.Let)
	_, isIf := let.Body[0].(*ir.If)
	require.True(t, isIf)
}

// Scenario 3: (do 1 2 "result") optimizes to "result" at Basic (prefix
// literals are dead).
func TestDeadCodeEliminationDropsPureDoPrefix(t *testing.T) {
	out := optimizeWithBuiltins(t, `(do 1 2 "result")`, optimize.Basic)
	lit, ok := firstForm(t, out).(*ir.Literal)
	require.True(t, ok)
	require.Equal(t, "result", lit.Value)
}

func TestDeadCodeEliminationKeepsEffectfulDoPrefix(t *testing.T) {
	out := optimizeWithBuiltins(t, `(do (log-step :info "s" [] 1) "result")`, optimize.Basic)
	do, ok := firstForm(t, out).(*ir.Do)
	require.True(t, ok)
	require.Len(t, do.Exprs, 2)
}

func TestDeadCodeEliminationDropsUnreadPureLetBinding(t *testing.T) {
	out := optimizeWithBuiltins(t, "(let [x 1 y 2] y)", optimize.Basic)
	// x is never referenced and its initializer is pure, so the pass must
	// drop it, leaving just the y binding (or folding away the Let if y's
	// own initializer becomes trivially inlineable — either way x is gone).
	ir.Visit(out, func(n ir.Node) {
		vb, ok := n.(*ir.VariableBinding)
		if ok {
			require.NotEqual(t, "x", vb.Name)
		}
	})
}

func TestDeadCodeEliminationKeepsEffectfulLetBindingEvenIfUnread(t *testing.T) {
	out := optimizeWithBuiltins(t, `(let [x (log-step :info "s" [] 1)] 2)`, optimize.Basic)
	var sawLogStep bool
	ir.Visit(out, func(n ir.Node) {
		if _, ok := n.(*ir.LogStep); ok {
			sawLogStep = true
		}
	})
	require.True(t, sawLogStep, "an effectful binding's initializer must still run even if unread")
}

func TestDeadCodeEliminationIsIterative(t *testing.T) {
	// y is read only by x's initializer; once x (unread) is dropped, y
	// itself becomes unread and must also be dropped on a later fixpoint
	// iteration within the same pass.
	out := optimizeWithBuiltins(t, "(let [y 1 x y] 2)", optimize.Basic)
	ir.Visit(out, func(n ir.Node) {
		vb, ok := n.(*ir.VariableBinding)
		if ok {
			require.NotEqual(t, "y", vb.Name)
			require.NotEqual(t, "x", vb.Name)
		}
	})
}

// Scenario 4: ((fn (x) x) 5) inlines and folds to literal 5 at Aggressive.
func TestInlineImmediatelyInvokedLambda(t *testing.T) {
	out := optimizeWithBuiltins(t, "((fn [x] x) 5)", optimize.Aggressive)
	lit, ok := firstForm(t, out).(*ir.Literal)
	require.True(t, ok)
	require.Equal(t, int64(5), lit.Value)
}

func TestInlineNamedFunctionDef(t *testing.T) {
	out := optimizeWithBuiltins(t, "(do (defn id [x] x) (id 7))", optimize.Aggressive)
	do := firstForm(t, out).(*ir.Do)
	lit, ok := do.Exprs[len(do.Exprs)-1].(*ir.Literal)
	require.True(t, ok)
	require.Equal(t, int64(7), lit.Value)
}

func TestInlineSkipsRecursiveFunction(t *testing.T) {
	out := optimizeWithBuiltins(t, "(do (defn loop [n] (loop n)) (loop 1))", optimize.Aggressive)
	do := firstForm(t, out).(*ir.Do)
	_, isApply := do.Exprs[len(do.Exprs)-1].(*ir.Apply)
	require.True(t, isApply, "a self-recursive function must never be inlined")
}

func TestInlineSkipsVariadicFunction(t *testing.T) {
	out := optimizeWithBuiltins(t, "(do (defn variadic [& xs] xs) (variadic 1 2))", optimize.Aggressive)
	do := firstForm(t, out).(*ir.Do)
	_, isApply := do.Exprs[len(do.Exprs)-1].(*ir.Apply)
	require.True(t, isApply, "a variadic function must never be inlined")
}

func TestBasicLevelNeverInlines(t *testing.T) {
	out := optimizeWithBuiltins(t, "((fn [x] x) 5)", optimize.Basic)
	_, isApply := firstForm(t, out).(*ir.Apply)
	require.True(t, isApply, "Basic must not run the inline pass, only Aggressive")
}

func TestNoneLevelIsIdentity(t *testing.T) {
	out := optimizeWithBuiltins(t, "(+ 1 2)", optimize.None)
	_, isApply := firstForm(t, out).(*ir.Apply)
	require.True(t, isApply)
}

// Testable property 3: constant folding at Basic is idempotent.
func TestConstantFoldIdempotent(t *testing.T) {
	once := optimizeWithBuiltins(t, "(+ (+ 1 2) (+ 3 4))", optimize.Basic)
	prog := once.(*ir.Program)
	var seq uint64
	nextID := func() uint64 { seq++; return seq }
	names := map[string]uint64{}
	primitiveInfo := map[uint64]optimize.PrimitiveInfo{}
	for _, p := range builtins.All() {
		id := nextID()
		names[p.Name] = id
		primitiveInfo[id] = optimize.PrimitiveInfo{Pure: p.Pure, Fn: p.Fn}
	}
	twice, _ := optimize.Run(prog, optimize.Basic, primitiveInfo)
	require.Equal(t, prog.Forms[0].(*ir.Literal).Value, twice.(*ir.Program).Forms[0].(*ir.Literal).Value)
}

// Soundness: for programs without observable side effects, every level
// evaluates to the same result as the unoptimized tree.
func TestOptimizerSoundnessAcrossLevels(t *testing.T) {
	programs := []string{
		"(+ 1 2)",
		"(if true 42 0)",
		`(do 1 2 "result")`,
		"((fn [x] x) 5)",
		"(let [x 2 y 3] (* x y))",
		"(do (defn increment [n] (+ n 1)) (increment 41))",
		"(match 5 (x :when (> x 0) x) (_ 0))",
	}
	levels := []optimize.Level{optimize.None, optimize.Basic, optimize.Aggressive}
	for _, src := range programs {
		var rendered []string
		for _, level := range levels {
			var seq uint64
			nextID := func() uint64 { seq++; return seq }
			env := eval.NewEnvironment()
			ids := builtins.Register(env, nextID)
			primitiveInfo := map[uint64]optimize.PrimitiveInfo{}
			byName := builtins.ByName()
			for name, id := range ids {
				p := byName[name]
				primitiveInfo[id] = optimize.PrimitiveInfo{Pure: p.Pure, Fn: p.Fn}
			}

			forms, err := parser.New().ParseProgram([]byte(src), "t.rtfs")
			require.NoError(t, err)
			prog, cerr := convert.ConvertProgram(nil, convert.Globals{NextID: nextID, Primitives: ids}, forms)
			require.Nil(t, cerr, src)

			out, _ := optimize.Run(prog, level, primitiveInfo)
			v, rerr := eval.NewEvaluator(nil, nil).EvalProgram(out.(*ir.Program), env.Child())
			require.Nil(t, rerr, src)
			rendered = append(rendered, v.String())
		}
		require.Empty(t, cmp.Diff(rendered[0], rendered[1]), "None vs Basic: %s", src)
		require.Empty(t, cmp.Diff(rendered[0], rendered[2]), "None vs Aggressive: %s", src)
	}
}

func TestRunReportsStats(t *testing.T) {
	var seq uint64
	nextID := func() uint64 { seq++; return seq }
	names := map[string]uint64{}
	primitiveInfo := map[uint64]optimize.PrimitiveInfo{}
	for _, p := range builtins.All() {
		id := nextID()
		names[p.Name] = id
		primitiveInfo[id] = optimize.PrimitiveInfo{Pure: p.Pure, Fn: p.Fn}
	}
	parsed := parser.New()
	forms, err := parsed.ParseProgram([]byte("(+ 1 2)"), "t.rtfs")
	require.NoError(t, err)
	prog, cerr := convert.ConvertProgram(nil, convert.Globals{NextID: nextID, Primitives: names}, forms)
	require.Nil(t, cerr)

	_, stats := optimize.Run(prog, optimize.Basic, primitiveInfo)
	require.NotEmpty(t, stats)
	var sawFold bool
	for _, s := range stats {
		if s.PassName == "constant-fold" {
			sawFold = true
			require.True(t, s.Changed)
			require.Greater(t, s.NodesBefore, s.NodesAfter)
		}
	}
	require.True(t, sawFold)
}
