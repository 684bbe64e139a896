package eval

import (
	"context"
	"strconv"
	"sync"

	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/ir"
)

// ModuleResolver is the collaborator the evaluator consults to resolve a
// qualified "ns/name" reference. internal/module implements it; keeping it
// as an interface here avoids an eval<->module import cycle.
type ModuleResolver interface {
	ResolveExport(moduleName, name string) (Value, *errors.Report)
}

// Logger receives the (level, id, values) triple a log-step form forwards
// to the host.
type Logger interface {
	LogStep(level, id string, values []Value)
}

// Evaluator is a tree-walking interpreter over optimized IR.
type Evaluator struct {
	resolver  ModuleResolver
	logger    Logger
	nextResID uint64
	resIDMu   sync.Mutex
}

// NewEvaluator constructs an evaluator. resolver and logger may be nil.
func NewEvaluator(resolver ModuleResolver, logger Logger) *Evaluator {
	return &Evaluator{resolver: resolver, logger: logger}
}

// SetResolver installs (or replaces) the module resolver.
func (e *Evaluator) SetResolver(r ModuleResolver) { e.resolver = r }

// SetLogger installs (or replaces) the log-step destination.
func (e *Evaluator) SetLogger(l Logger) { e.logger = l }

func (e *Evaluator) allocResourceID() uint64 {
	e.resIDMu.Lock()
	defer e.resIDMu.Unlock()
	e.nextResID++
	return e.nextResID
}

// Eval evaluates node in env, returning a value or a structured error.
func (e *Evaluator) Eval(node ir.Node, env *Environment) (Value, *errors.Report) {
	return e.evalCtx(context.Background(), node, env)
}

// EvalProgram evaluates each top-level form in order and returns the value
// of the last one (Unit-equivalent nil if the program is empty).
func (e *Evaluator) EvalProgram(prog *ir.Program, env *Environment) (Value, *errors.Report) {
	var last Value = Nil
	for _, form := range prog.Forms {
		v, err := e.Eval(form, env)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func (e *Evaluator) evalCtx(ctx context.Context, node ir.Node, env *Environment) (Value, *errors.Report) {
	switch n := node.(type) {
	case *ir.Literal:
		return literalValue(n.Value), nil

	case *ir.VariableRef:
		v, ok := env.LookupID(n.BindingID)
		if !ok {
			return nil, errors.UndefinedSymbol(n.Name)
		}
		return v, nil

	case *ir.VectorIndex:
		return e.evalVectorIndex(ctx, n, env)

	case *ir.MapLookup:
		return e.evalMapLookup(ctx, n, env)

	case *ir.MapRestOf:
		return e.evalMapRestOf(ctx, n, env)

	case *ir.VectorLit:
		elems := make([]Value, len(n.Elements))
		for i, el := range n.Elements {
			v, err := e.evalCtx(ctx, el, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &VectorValue{Elements: elems}, nil

	case *ir.MapLit:
		m := NewMap()
		for _, entry := range n.Entries {
			k, err := e.evalCtx(ctx, entry.Key, env)
			if err != nil {
				return nil, err
			}
			v, err := e.evalCtx(ctx, entry.Value, env)
			if err != nil {
				return nil, err
			}
			if serr := m.Set(k, v); serr != nil {
				return nil, errors.InvalidArgument(serr.Error())
			}
		}
		return m, nil

	case *ir.ModuleRef:
		if e.resolver == nil {
			return nil, errors.UnresolvedQualified(n.ModuleName, n.Name)
		}
		return e.resolver.ResolveExport(n.ModuleName, n.Name)

	case *ir.Lambda:
		return &FunctionValue{
			Params:       paramNames(n.Params),
			VariadicName: variadicName(n.Params),
			Body:         n,
			Env:          env,
		}, nil

	case *ir.Apply:
		return e.evalApply(ctx, n, env)

	case *ir.If:
		cond, err := e.evalCtx(ctx, n.Cond, env)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return e.evalCtx(ctx, n.Then, env)
		}
		if n.Else == nil {
			return Nil, nil
		}
		return e.evalCtx(ctx, n.Else, env)

	case *ir.Let:
		inner := env.Child()
		for _, b := range n.Bindings {
			v, err := e.evalCtx(ctx, b.Init, inner)
			if err != nil {
				return nil, err
			}
			inner.Define(b.Binding.NodeID, b.Binding.Name, v)
		}
		return e.evalSeq(ctx, n.Body, inner)

	case *ir.Do:
		return e.evalSeq(ctx, n.Exprs, env)

	case *ir.Match:
		return e.evalMatch(ctx, n, env)

	case *ir.TryCatch:
		return e.evalTryCatch(ctx, n, env)

	case *ir.Parallel:
		return e.evalParallel(ctx, n, env)

	case *ir.WithResource:
		return e.evalWithResource(ctx, n, env)

	case *ir.LogStep:
		return e.evalLogStep(ctx, n, env)

	case *ir.FunctionDef:
		fn, err := e.evalCtx(ctx, n.Lambda, env)
		if err != nil {
			return nil, err
		}
		env.Define(n.BindingID, n.Name, fn)
		return fn, nil

	case *ir.VariableDef:
		v, err := e.evalCtx(ctx, n.Init, env)
		if err != nil {
			return nil, err
		}
		env.Define(n.BindingID, n.Name, v)
		return v, nil

	case *ir.Module:
		return e.evalModuleBody(ctx, n, env)

	case *ir.Import:
		return Nil, nil

	case *ir.Task:
		taskEnv := env.Child()
		if n.Intent != nil {
			if _, err := e.evalCtx(ctx, n.Intent, taskEnv); err != nil {
				return nil, err
			}
		}
		if n.Contract != nil {
			if _, err := e.evalCtx(ctx, n.Contract, taskEnv); err != nil {
				return nil, err
			}
		}
		if n.Plan != nil {
			return e.evalCtx(ctx, n.Plan, taskEnv)
		}
		return Nil, nil

	case *ir.TaskContextAccess:
		// Task context fields are seeded by the host under "@field" names.
		if v, ok := env.LookupName("@" + n.FieldName); ok {
			return v, nil
		}
		return Nil, nil

	case nil:
		return Nil, nil

	default:
		return nil, errors.InvalidProgram("unhandled IR node in evaluator")
	}
}

func (e *Evaluator) evalModuleBody(ctx context.Context, m *ir.Module, env *Environment) (Value, *errors.Report) {
	var last Value = Nil
	for _, def := range m.Definitions {
		v, err := e.evalCtx(ctx, def, env)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func (e *Evaluator) evalSeq(ctx context.Context, exprs []ir.Node, env *Environment) (Value, *errors.Report) {
	var last Value = Nil
	for _, ex := range exprs {
		v, err := e.evalCtx(ctx, ex, env)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func (e *Evaluator) evalApply(ctx context.Context, n *ir.Apply, env *Environment) (Value, *errors.Report) {
	fnVal, err := e.evalCtx(ctx, n.Fn, env)
	if err != nil {
		return nil, err
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.evalCtx(ctx, a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return e.callFunction(ctx, fnVal, args)
}

func (e *Evaluator) callFunction(ctx context.Context, fnVal Value, args []Value) (Value, *errors.Report) {
	fn, ok := fnVal.(*FunctionValue)
	if !ok {
		return nil, errors.NotCallable("value of type " + fnVal.Type() + " is not callable")
	}
	if fn.Primitive != nil {
		if !fn.Arity.Check(len(args)) {
			return nil, errors.ArityMismatch(fn.Name, arityString(fn.Arity), len(args))
		}
		return fn.Primitive(args)
	}

	body, _ := fn.Body.(*ir.Lambda)
	if body == nil {
		return nil, errors.InternalError("user function missing lambda body")
	}
	required := len(fn.Params)
	if fn.VariadicName == "" && len(args) != required {
		return nil, errors.ArityMismatch("lambda", arityExact(required), len(args))
	}
	if fn.VariadicName != "" && len(args) < required {
		return nil, errors.ArityMismatch("lambda", arityAtLeast(required), len(args))
	}

	call := fn.Env.Child()
	for i, p := range body.Params {
		if p.Variadic {
			continue
		}
		call.Define(p.Binding.NodeID, p.Binding.Name, args[i])
	}
	if fn.VariadicName != "" {
		rest := args[required:]
		call.Define(body.Params[len(body.Params)-1].Binding.NodeID, fn.VariadicName, &VectorValue{Elements: append([]Value{}, rest...)})
	}
	return e.evalCtx(ctx, body.Body, call)
}

func paramNames(params []*ir.Param) []string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		if !p.Variadic {
			names = append(names, p.Binding.Name)
		}
	}
	return names
}

func variadicName(params []*ir.Param) string {
	for _, p := range params {
		if p.Variadic {
			return p.Binding.Name
		}
	}
	return ""
}

func arityString(a Arity) string {
	switch a.Kind {
	case ArityExact:
		return arityExact(a.Min)
	case ArityAtLeast:
		return arityAtLeast(a.Min)
	case ArityRange:
		return "range"
	default:
		return "any"
	}
}

func arityExact(n int) string   { return "exactly " + strconv.Itoa(n) }
func arityAtLeast(n int) string { return "at least " + strconv.Itoa(n) }

// LiteralToValue converts an ir.Literal.Value payload (a plain Go scalar,
// or an already-built Value for kinds — keywords — that have no bare-Go
// representation) into a runtime Value. Exported for the optimizer's
// constant-folding pass, which needs to feed literal operands to a
// primitive's Go function the same way the evaluator would.
func LiteralToValue(v interface{}) Value { return literalValue(v) }

func literalValue(v interface{}) Value {
	switch x := v.(type) {
	case int64:
		return &IntValue{Value: x}
	case int:
		return &IntValue{Value: int64(x)}
	case float64:
		return &FloatValue{Value: x}
	case string:
		return &StringValue{Value: x}
	case bool:
		return &BoolValue{Value: x}
	case nil:
		return Nil
	case Value:
		return x
	default:
		return Nil
	}
}
