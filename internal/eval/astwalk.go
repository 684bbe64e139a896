package eval

import (
	"context"
	"sync"

	"github.com/rtfs-lang/rtfs/internal/ast"
	"github.com/rtfs-lang/rtfs/internal/errors"
)

// ASTWalker evaluates surface ast.Expr trees directly, with no conversion to
// IR. It shares Value, the name-keyed half of Environment, and the builtins
// table with the IR evaluator, and exists to serve StrategyASTWalker and as
// the fallback target of StrategyIRWithASTFallback when a program fails to
// convert.
type ASTWalker struct {
	resolver  ModuleResolver
	logger    Logger
	nextResID uint64
	resIDMu   sync.Mutex
}

// NewASTWalker constructs a walker. resolver and logger may be nil.
func NewASTWalker(resolver ModuleResolver, logger Logger) *ASTWalker {
	return &ASTWalker{resolver: resolver, logger: logger}
}

func (w *ASTWalker) SetResolver(r ModuleResolver) { w.resolver = r }
func (w *ASTWalker) SetLogger(l Logger)           { w.logger = l }

func (w *ASTWalker) allocResourceID() uint64 {
	w.resIDMu.Lock()
	defer w.resIDMu.Unlock()
	w.nextResID++
	return w.nextResID
}

// Eval evaluates a single expression in env.
func (w *ASTWalker) Eval(expr ast.Expr, env *Environment) (Value, *errors.Report) {
	return w.evalCtx(context.Background(), expr, env)
}

// EvalProgram evaluates a top-level sequence of forms, yielding the value of
// the last one (Nil if empty).
func (w *ASTWalker) EvalProgram(forms []ast.Expr, env *Environment) (Value, *errors.Report) {
	var last Value = Nil
	for _, f := range forms {
		v, err := w.evalCtx(context.Background(), f, env)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func (w *ASTWalker) evalCtx(ctx context.Context, expr ast.Expr, env *Environment) (Value, *errors.Report) {
	switch n := expr.(type) {
	case *ast.Literal:
		return literalValue(n.Value), nil

	case *ast.Symbol:
		return w.evalSymbol(n, env)

	case *ast.Keyword:
		return &KeywordValue{Name: n.Name}, nil

	case *ast.Vector:
		elems := make([]Value, len(n.Elements))
		for i, e := range n.Elements {
			v, err := w.evalCtx(ctx, e, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &VectorValue{Elements: elems}, nil

	case *ast.List:
		elems := make([]Value, len(n.Elements))
		for i, e := range n.Elements {
			v, err := w.evalCtx(ctx, e, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &VectorValue{Elements: elems}, nil

	case *ast.MapExpr:
		m := NewMap()
		for _, entry := range n.Entries {
			k, err := w.evalCtx(ctx, entry.Key, env)
			if err != nil {
				return nil, err
			}
			v, err := w.evalCtx(ctx, entry.Value, env)
			if err != nil {
				return nil, err
			}
			if serr := m.Set(k, v); serr != nil {
				return nil, errors.InvalidArgument(serr.Error())
			}
		}
		return m, nil

	case *ast.Apply:
		return w.evalApply(ctx, n, env)

	case *ast.If:
		cond, err := w.evalCtx(ctx, n.Cond, env)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return w.evalCtx(ctx, n.Then, env)
		}
		if n.Else == nil {
			return Nil, nil
		}
		return w.evalCtx(ctx, n.Else, env)

	case *ast.Do:
		return w.evalSeq(ctx, n.Exprs, env)

	case *ast.Let:
		inner := env.Child()
		for _, b := range n.Bindings {
			v, err := w.evalCtx(ctx, b.Init, inner)
			if err != nil {
				return nil, err
			}
			if err := w.destructure(inner, b.Pattern, v); err != nil {
				return nil, err
			}
		}
		return w.evalSeq(ctx, n.Body, inner)

	case *ast.Fn:
		return w.makeClosure(n.Params, n.VariadicName, n.Body, env), nil

	case *ast.Def:
		v, err := w.evalCtx(ctx, n.Value, env)
		if err != nil {
			return nil, err
		}
		env.Define(0, n.Name, v)
		return v, nil

	case *ast.Defn:
		fn := w.makeClosure(n.Params, n.VariadicName, n.Body, env)
		env.Define(0, n.Name, fn)
		return fn, nil

	case *ast.Match:
		return w.evalMatch(ctx, n, env)

	case *ast.TryCatch:
		return w.evalTryCatch(ctx, n, env)

	case *ast.Parallel:
		return w.evalParallel(ctx, n, env)

	case *ast.WithResource:
		return w.evalWithResource(ctx, n, env)

	case *ast.LogStep:
		return w.evalLogStep(ctx, n, env)

	case *ast.Import:
		return Nil, nil

	case *ast.ModuleForm:
		var last Value = Nil
		for _, f := range n.Body {
			v, err := w.evalCtx(ctx, f, env)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil

	case *ast.Task:
		taskEnv := env.Child()
		if n.Intent != nil {
			if _, err := w.evalCtx(ctx, n.Intent, taskEnv); err != nil {
				return nil, err
			}
		}
		if n.Contract != nil {
			if _, err := w.evalCtx(ctx, n.Contract, taskEnv); err != nil {
				return nil, err
			}
		}
		if n.Plan != nil {
			return w.evalCtx(ctx, n.Plan, taskEnv)
		}
		return Nil, nil

	case *ast.TaskContextAccess:
		if v, ok := env.LookupName("@" + n.Field); ok {
			return v, nil
		}
		return Nil, nil

	case nil:
		return Nil, nil

	default:
		return nil, errors.InvalidProgram("unhandled AST node in walker")
	}
}

func (w *ASTWalker) evalSymbol(n *ast.Symbol, env *Environment) (Value, *errors.Report) {
	if idx := lastSlash(n.Name); idx >= 0 {
		ns, name := n.Name[:idx], n.Name[idx+1:]
		if w.resolver == nil {
			return nil, errors.UnresolvedQualified(ns, name)
		}
		return w.resolver.ResolveExport(ns, name)
	}
	v, ok := env.LookupName(n.Name)
	if !ok {
		return nil, errors.UndefinedSymbol(n.Name)
	}
	return v, nil
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func (w *ASTWalker) evalSeq(ctx context.Context, exprs []ast.Expr, env *Environment) (Value, *errors.Report) {
	var last Value = Nil
	for _, e := range exprs {
		v, err := w.evalCtx(ctx, e, env)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func (w *ASTWalker) evalApply(ctx context.Context, n *ast.Apply, env *Environment) (Value, *errors.Report) {
	fnVal, err := w.evalCtx(ctx, n.Fn, env)
	if err != nil {
		return nil, err
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := w.evalCtx(ctx, a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return w.callFunction(ctx, fnVal, args)
}

func (w *ASTWalker) callFunction(ctx context.Context, fnVal Value, args []Value) (Value, *errors.Report) {
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

	body, _ := fn.Body.(astClosureBody)
	required := len(body.params)
	if fn.VariadicName == "" && len(args) != required {
		return nil, errors.ArityMismatch("lambda", arityExact(required), len(args))
	}
	if fn.VariadicName != "" && len(args) < required {
		return nil, errors.ArityMismatch("lambda", arityAtLeast(required), len(args))
	}

	call := fn.Env.Child()
	for i, p := range body.params {
		if err := w.destructure(call, p.Pattern, args[i]); err != nil {
			return nil, err
		}
	}
	if fn.VariadicName != "" {
		rest := args[required:]
		call.Define(0, fn.VariadicName, &VectorValue{Elements: append([]Value{}, rest...)})
	}
	return w.evalSeq(ctx, body.exprs, call)
}

// astClosureBody is the Body payload an ASTWalker-made FunctionValue carries,
// mirroring how the IR evaluator stashes *ir.Lambda in the same field, but
// keeping the full parameter patterns (not just flattened names) since
// destructuring happens dynamically per call rather than once at convert time.
type astClosureBody struct {
	params []ast.FnParam
	exprs  []ast.Expr
}

func (w *ASTWalker) makeClosure(params []ast.FnParam, variadicName string, body []ast.Expr, env *Environment) *FunctionValue {
	return &FunctionValue{
		VariadicName: variadicName,
		Body:         astClosureBody{params: params, exprs: body},
		Env:          env,
	}
}

func (w *ASTWalker) destructure(env *Environment, pat ast.Pattern, v Value) *errors.Report {
	switch p := pat.(type) {
	case *ast.SymbolPattern:
		env.Define(0, p.Name, v)
		return nil

	case *ast.VectorPattern:
		vec, ok := v.(*VectorValue)
		if !ok {
			return errors.TypeError("vector", v.Type(), "vector pattern destructuring")
		}
		if len(vec.Elements) < len(p.Elements) {
			return errors.InvalidArgument("vector pattern expects at least " + arityExact(len(p.Elements)) + " elements")
		}
		for i, ep := range p.Elements {
			if err := w.destructure(env, ep, vec.Elements[i]); err != nil {
				return err
			}
		}
		if p.Rest != "" {
			rest := append([]Value{}, vec.Elements[len(p.Elements):]...)
			env.Define(0, p.Rest, &VectorValue{Elements: rest})
		}
		if p.As != "" {
			env.Define(0, p.As, v)
		}
		return nil

	case *ast.MapPattern:
		m, ok := v.(*MapValue)
		if !ok {
			return errors.TypeError("map", v.Type(), "map pattern destructuring")
		}
		used := map[string]bool{}
		for _, key := range p.Keys {
			kv, found := m.Get(&KeywordValue{Name: key})
			if !found {
				if dflt, hasDflt := p.Defaults[key]; hasDflt {
					dv, err := w.Eval(dflt, env)
					if err != nil {
						return err
					}
					kv = dv
				} else {
					kv = Nil
				}
			}
			env.Define(0, key, kv)
			used[key] = true
		}
		for _, entry := range p.Entries {
			keyVal := mapKeyLitValue(entry.Key)
			ev, found := m.Get(keyVal)
			if !found {
				ev = Nil
			}
			if err := w.destructure(env, entry.Pattern, ev); err != nil {
				return err
			}
			if entry.Key.Kind == ast.MapKeyKeyword {
				used[entry.Key.Value.(string)] = true
			}
		}
		if p.Rest != "" {
			rest := NewMap()
			m.Each(func(k, val Value) {
				if kw, ok := k.(*KeywordValue); ok && used[kw.Name] {
					return
				}
				rest.Set(k, val)
			})
			env.Define(0, p.Rest, rest)
		}
		if p.As != "" {
			env.Define(0, p.As, v)
		}
		return nil

	default:
		return errors.InvalidProgram("unsupported pattern shape in AST walker")
	}
}

func mapKeyLitValue(k ast.MapKeyLit) Value {
	switch k.Kind {
	case ast.MapKeyKeyword:
		return &KeywordValue{Name: k.Value.(string)}
	case ast.MapKeyString:
		return &StringValue{Value: k.Value.(string)}
	case ast.MapKeyInt:
		return &IntValue{Value: k.Value.(int64)}
	default:
		return Nil
	}
}

func (w *ASTWalker) evalMatch(ctx context.Context, n *ast.Match, env *Environment) (Value, *errors.Report) {
	scrut, err := w.evalCtx(ctx, n.Scrutinee, env)
	if err != nil {
		return nil, err
	}
	for _, clause := range n.Clauses {
		clauseEnv := env.Child()
		ok, err := w.matchPattern(clauseEnv, clause.Pattern, scrut)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if clause.Guard != nil {
			gv, err := w.evalCtx(ctx, clause.Guard, clauseEnv)
			if err != nil {
				return nil, err
			}
			if !Truthy(gv) {
				continue
			}
		}
		return w.evalSeq(ctx, clause.Body, clauseEnv)
	}
	return nil, errors.MatchError("no match clause matched the scrutinee")
}

func (w *ASTWalker) matchPattern(env *Environment, pat ast.MatchPattern, v Value) (bool, *errors.Report) {
	switch pat.Kind {
	case ast.MatchWildcard:
		return true, nil
	case ast.MatchSymbol:
		env.Define(0, pat.Symbol, v)
		return true, nil
	case ast.MatchLiteral:
		return Equal(literalValue(pat.Literal), v), nil
	case ast.MatchKeyword:
		kw, ok := v.(*KeywordValue)
		return ok && kw.Name == pat.Keyword, nil
	case ast.MatchType:
		if !valueMatchesTypeExpr(v, pat.Type) {
			return false, nil
		}
		if pat.Symbol != "" {
			env.Define(0, pat.Symbol, v)
		}
		return true, nil
	case ast.MatchAs:
		ok, err := w.matchPattern(env, *pat.AsInner, v)
		if err != nil || !ok {
			return ok, err
		}
		env.Define(0, pat.AsName, v)
		return true, nil
	case ast.MatchVector:
		vec, ok := v.(*VectorValue)
		if !ok || len(vec.Elements) < len(pat.Elements) {
			return false, nil
		}
		for i, ep := range pat.Elements {
			ok, err := w.matchPattern(env, ep, vec.Elements[i])
			if err != nil || !ok {
				return ok, err
			}
		}
		if pat.Rest != "" {
			rest := append([]Value{}, vec.Elements[len(pat.Elements):]...)
			env.Define(0, pat.Rest, &VectorValue{Elements: rest})
		}
		return true, nil
	case ast.MatchMap:
		m, ok := v.(*MapValue)
		if !ok {
			return false, nil
		}
		used := map[string]bool{}
		for _, entry := range pat.MapEntries {
			keyVal := mapKeyLitValue(entry.Key)
			ev, found := m.Get(keyVal)
			if !found {
				return false, nil
			}
			ok, err := w.matchPattern(env, entry.Pattern, ev)
			if err != nil || !ok {
				return ok, err
			}
			if entry.Key.Kind == ast.MapKeyKeyword {
				used[entry.Key.Value.(string)] = true
			}
		}
		if pat.MapRest != "" {
			rest := NewMap()
			m.Each(func(k, val Value) {
				if kw, ok := k.(*KeywordValue); ok && used[kw.Name] {
					return
				}
				rest.Set(k, val)
			})
			env.Define(0, pat.MapRest, rest)
		}
		return true, nil
	default:
		return false, errors.InvalidProgram("unsupported match pattern shape")
	}
}

// valueMatchesTypeExpr runtime-type-tests v against te. Only the variants
// with a direct runtime-value correspondence (primitive, vector, resource,
// union, intersection, any, never) are supported; every other variant
// (aliases, maps, functions, literals) — which the AST walker, never
// consulting the converter's alias table, does not resolve — reports no
// match.
func valueMatchesTypeExpr(v Value, te ast.TypeExpr) bool {
	switch t := te.(type) {
	case *ast.AnyType:
		return true
	case *ast.NeverType:
		return false
	case *ast.PrimitiveType:
		switch t.Kind {
		case ast.TInt:
			return v.Type() == "int"
		case ast.TFloat:
			return v.Type() == "float"
		case ast.TString:
			return v.Type() == "string"
		case ast.TBool:
			return v.Type() == "bool"
		case ast.TNil:
			return v.Type() == "nil"
		case ast.TKeyword:
			return v.Type() == "keyword"
		case ast.TSymbol:
			return v.Type() == "symbol"
		}
		return false
	case *ast.VectorType:
		vec, ok := v.(*VectorValue)
		if !ok {
			return false
		}
		for _, el := range vec.Elements {
			if !valueMatchesTypeExpr(el, t.Element) {
				return false
			}
		}
		return true
	case *ast.ResourceType:
		r, ok := v.(*ResourceValue)
		return ok && r.TypeTag == t.Tag
	case *ast.UnionType:
		for _, opt := range t.Options {
			if valueMatchesTypeExpr(v, opt) {
				return true
			}
		}
		return false
	case *ast.IntersectionType:
		for _, opt := range t.Options {
			if !valueMatchesTypeExpr(v, opt) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (w *ASTWalker) evalTryCatch(ctx context.Context, n *ast.TryCatch, env *Environment) (Value, *errors.Report) {
	result, tryErr := w.evalSeq(ctx, n.Try, env)
	if tryErr != nil {
		for _, clause := range n.Catches {
			if !astCatchMatches(clause.Pattern, tryErr) {
				continue
			}
			clauseEnv := env.Child()
			if clause.Binding != "" {
				clauseEnv.Define(0, clause.Binding, ReportToValue(tryErr))
			}
			result, tryErr = w.evalSeq(ctx, clause.Body, clauseEnv)
			break
		}
	}
	if len(n.Finally) > 0 {
		if _, ferr := w.evalSeq(ctx, n.Finally, env.Child()); ferr != nil {
			return nil, ferr
		}
	}
	if tryErr != nil {
		return nil, tryErr
	}
	return result, nil
}

func astCatchMatches(pat ast.CatchPattern, report *errors.Report) bool {
	switch pat.Kind {
	case ast.CatchBySymbol:
		return true
	case ast.CatchByKeyword:
		return report.Kind.String() == pat.Keyword
	case ast.CatchByType:
		return valueMatchesTypeExpr(ReportToValue(report), pat.Type)
	default:
		return false
	}
}

func (w *ASTWalker) evalWithResource(ctx context.Context, n *ast.WithResource, env *Environment) (Value, *errors.Report) {
	initVal, err := w.evalCtx(ctx, n.Init, env)
	if err != nil {
		return nil, err
	}
	res, ok := initVal.(*ResourceValue)
	if !ok {
		tag := ""
		if rt, ok := n.Type.(*ast.ResourceType); ok {
			tag = rt.Tag
		}
		res = &ResourceValue{
			ID:       w.allocResourceID(),
			TypeTag:  tag,
			State:    ResourceActive,
			Metadata: map[string]Value{"value": initVal},
		}
	} else if res.State == ResourceReleased {
		return nil, errors.ResourceError("use-after-release", "with-resource initializer yielded a released resource")
	}
	if res.ID == 0 {
		res.ID = w.allocResourceID()
	}
	inner := env.Child()
	inner.Define(0, n.Name, res)

	result, bodyErr := w.evalSeq(ctx, n.Body, inner)

	if res.State != ResourceReleased {
		res.State = ResourceReleased
		if res.ReleaseFn != nil {
			if rerr := res.ReleaseFn(res); rerr != nil {
				if bodyErr == nil {
					return nil, errors.ResourceError(res.TypeTag, rerr.Error())
				}
			}
		}
	}
	if bodyErr != nil {
		return nil, bodyErr
	}
	return result, nil
}

func (w *ASTWalker) evalLogStep(ctx context.Context, n *ast.LogStep, env *Environment) (Value, *errors.Report) {
	values := make([]Value, len(n.Values))
	for i, ve := range n.Values {
		v, err := w.evalCtx(ctx, ve, env)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	if w.logger != nil {
		w.logger.LogStep(n.Level, n.ID, values)
	}
	return w.evalCtx(ctx, n.Inner, env)
}

func (w *ASTWalker) evalParallel(ctx context.Context, n *ast.Parallel, env *Environment) (Value, *errors.Report) {
	type result struct {
		name      string
		v         Value
		err       *errors.Report
		cancelled bool
	}
	results := make([]result, len(n.Bindings))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i, b := range n.Bindings {
		wg.Add(1)
		go func(i int, b ast.ParallelBinding) {
			defer wg.Done()
			if runCtx.Err() != nil {
				// Skipped after another binding failed; not itself a failure,
				// so it must not shadow the real one below.
				results[i] = result{name: b.Name, cancelled: true}
				return
			}
			v, err := w.evalCtx(runCtx, b.Expr, env.ReadOnlyView())
			results[i] = result{name: b.Name, v: v, err: err}
			if err != nil {
				cancel()
			}
		}(i, b)
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return nil, errors.ApplicationError("parallel-binding-error", r.err.Message, map[string]any{"wrapped": r.err.Code})
		}
	}
	for _, r := range results {
		if r.cancelled {
			return nil, errors.InternalError("parallel binding " + r.name + " cancelled before start")
		}
	}
	// Bindings land in the enclosing scope itself, matching the IR
	// evaluator's evalParallel: parallel has no body of its own, so its
	// names become visible to whatever follows it.
	for _, r := range results {
		env.Define(0, r.name, r.v)
	}
	var last Value = Nil
	if len(results) > 0 {
		last = results[len(results)-1].v
	}
	return last, nil
}
