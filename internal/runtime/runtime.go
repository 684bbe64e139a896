// Package runtime wires the converter, optimizer, evaluator and module
// registry into the single host-facing type an embedder (the CLI, the REPL,
// or a Go program linking this module directly) actually talks to.
package runtime

import (
	"sync"

	"github.com/rtfs-lang/rtfs/internal/ast"
	"github.com/rtfs-lang/rtfs/internal/builtins"
	"github.com/rtfs-lang/rtfs/internal/convert"
	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/eval"
	"github.com/rtfs-lang/rtfs/internal/ir"
	"github.com/rtfs-lang/rtfs/internal/module"
	"github.com/rtfs-lang/rtfs/internal/optimize"
)

// Strategy selects which of the three execution pipelines Evaluate drives.
type Strategy int

const (
	// StrategyASTWalker evaluates surface ast.Expr trees directly, skipping
	// conversion and optimization entirely.
	StrategyASTWalker Strategy = iota
	// StrategyIR converts to IR, optimizes, and evaluates the result.
	StrategyIR
	// StrategyIRWithASTFallback behaves like StrategyIR, but re-evaluates
	// via the AST walker if (and only if) conversion itself fails — a
	// runtime error from the IR evaluator is never retried.
	StrategyIRWithASTFallback
)

// Options configures a Runtime.
type Options struct {
	Strategy      Strategy
	OptimizeLevel optimize.Level
	ModulePaths   []string
	Parser        module.Parser
	Logger        eval.Logger
}

// Runtime is the embedding surface over the compiler/runtime pipeline: one
// shared root environment and id allocator, one module registry, and the two
// evaluation strategies (IR and AST-walker) that can both run against it.
type Runtime struct {
	opts Options

	idMu   sync.Mutex
	nextID uint64

	rootEnv       *eval.Environment
	globals       convert.Globals
	primitiveInfo map[uint64]optimize.PrimitiveInfo

	registry  *module.Registry
	evaluator *eval.Evaluator
	walker    *eval.ASTWalker

	statsMu   sync.Mutex
	lastStats []optimize.Stats
}

// New constructs a Runtime: registers the builtin primitive table into a
// fresh root environment, builds the shared id allocator every subsequently
// converted compilation unit must use (convert.Globals), and wires a module
// registry over opts.ModulePaths/opts.Parser.
func New(opts Options) *Runtime {
	r := &Runtime{opts: opts}
	r.rootEnv = eval.NewEnvironment()

	ids := builtins.Register(r.rootEnv, r.allocID)
	byName := builtins.ByName()
	primitiveInfo := make(map[uint64]optimize.PrimitiveInfo, len(ids))
	for name, id := range ids {
		p := byName[name]
		primitiveInfo[id] = optimize.PrimitiveInfo{Pure: p.Pure, Fn: p.Fn}
	}
	r.primitiveInfo = primitiveInfo
	r.globals = convert.Globals{NextID: r.allocID, Primitives: ids}

	r.registry = module.NewRegistry(opts.ModulePaths, opts.Parser, r.globals, r.rootEnv)
	if opts.Logger != nil {
		r.registry.SetLogger(opts.Logger)
	}
	r.evaluator = eval.NewEvaluator(r.registry, opts.Logger)
	r.walker = eval.NewASTWalker(r.registry, opts.Logger)
	return r
}

func (r *Runtime) allocID() uint64 {
	r.idMu.Lock()
	defer r.idMu.Unlock()
	r.nextID++
	return r.nextID
}

// RegisterPrimitive installs an additional host primitive into the root
// environment, seeding both the converter's Globals and the optimizer's
// purity table the same way the builtin table is seeded in New, so a program
// referencing it by name resolves and folds identically to a builtin.
func (r *Runtime) RegisterPrimitive(p builtins.Primitive) {
	id := r.allocID()
	r.rootEnv.Define(id, p.Name, &eval.FunctionValue{Name: p.Name, Arity: p.Arity, Primitive: p.Fn})
	r.globals.Primitives[p.Name] = id
	r.primitiveInfo[id] = optimize.PrimitiveInfo{Pure: p.Pure, Fn: p.Fn}
}

// Evaluate runs forms under the configured Strategy against a fresh child of
// the root environment.
func (r *Runtime) Evaluate(forms []ast.Expr) (eval.Value, *errors.Report) {
	switch r.opts.Strategy {
	case StrategyASTWalker:
		return r.evalASTWalker(forms)
	case StrategyIRWithASTFallback:
		v, err := r.evalIR(forms)
		if err != nil && err.Phase == "convert" {
			return r.evalASTWalker(forms)
		}
		return v, err
	default:
		return r.evalIR(forms)
	}
}

func (r *Runtime) evalASTWalker(forms []ast.Expr) (eval.Value, *errors.Report) {
	env := r.rootEnv.Child()
	return r.walker.EvalProgram(forms, env)
}

func (r *Runtime) evalIR(forms []ast.Expr) (eval.Value, *errors.Report) {
	prog, cerr := convert.ConvertProgram(r.registry, r.globals, forms)
	if cerr != nil {
		return nil, cerr
	}
	optimized, stats := optimize.Run(prog, r.opts.OptimizeLevel, r.primitiveInfo)
	r.statsMu.Lock()
	r.lastStats = stats
	r.statsMu.Unlock()
	optProg, ok := optimized.(*ir.Program)
	if !ok {
		return nil, errors.InternalError("optimizer returned a non-program root")
	}
	env := r.rootEnv.Child()
	return r.evaluator.EvalProgram(optProg, env)
}

// LoadModule ensures name (and its transitive imports) is loaded, converted,
// and evaluated exactly once, returning the cached *module.Module on success.
func (r *Runtime) LoadModule(name string) (*module.Module, *errors.Report) {
	if err := r.registry.EnsureLoaded(name); err != nil {
		return nil, err
	}
	m, _ := r.registry.Get(name)
	return m, nil
}

// RootEnv exposes the shared root environment, mainly for embedders that
// want to Define additional bindings without going through RegisterPrimitive
// (e.g. seeding non-function constants).
func (r *Runtime) RootEnv() *eval.Environment { return r.rootEnv }

// OptimizeStats returns the per-pass statistics of the most recent
// IR-strategy Evaluate call (nil if none has run yet).
func (r *Runtime) OptimizeStats() []optimize.Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.lastStats
}
