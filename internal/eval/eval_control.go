package eval

import (
	"context"
	"sync"

	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/ir"
	"github.com/rtfs-lang/rtfs/internal/types"
)

func (e *Evaluator) evalMatch(ctx context.Context, n *ir.Match, env *Environment) (Value, *errors.Report) {
	scrutinee, err := e.evalCtx(ctx, n.Scrutinee, env)
	if err != nil {
		return nil, err
	}
	for _, arm := range n.Arms {
		bindings := map[uint64]namedValue{}
		if !matchPattern(arm.Pattern, scrutinee, bindings) {
			continue
		}
		clauseEnv := env.Child()
		for id, nv := range bindings {
			clauseEnv.Define(id, nv.name, nv.value)
		}
		if arm.Guard != nil {
			g, err := e.evalCtx(ctx, arm.Guard, clauseEnv)
			if err != nil {
				return nil, err
			}
			if !Truthy(g) {
				continue
			}
		}
		return e.evalCtx(ctx, arm.Body, clauseEnv)
	}
	return nil, errors.MatchError("no pattern matched in match expression")
}

type namedValue struct {
	name  string
	value Value
}

// matchPattern attempts to unify pat against v, recording any bindings
// introduced into out. Returns false (with out left partially populated,
// which is fine since callers discard it on failure) if the shapes don't
// line up.
func matchPattern(pat ir.Pattern, v Value, out map[uint64]namedValue) bool {
	switch pat.Kind {
	case ir.PatWildcard:
		return true

	case ir.PatLiteral:
		return Equal(literalValue(pat.Literal), v)

	case ir.PatVariable:
		out[pat.BindingID] = namedValue{pat.Name, v}
		return true

	case ir.PatType:
		if !valueMatchesType(v, pat.MatchType) {
			return false
		}
		if pat.Name != "" {
			out[pat.BindingID] = namedValue{pat.Name, v}
		}
		return true

	case ir.PatVector:
		vec, ok := v.(*VectorValue)
		if !ok {
			return false
		}
		if pat.Rest == "" {
			if len(vec.Elements) != len(pat.Elements) {
				return false
			}
		} else if len(vec.Elements) < len(pat.Elements) {
			return false
		}
		for i, ep := range pat.Elements {
			if !matchPattern(ep, vec.Elements[i], out) {
				return false
			}
		}
		if pat.Rest != "" {
			rest := append([]Value{}, vec.Elements[len(pat.Elements):]...)
			out[pat.RestID] = namedValue{pat.Rest, &VectorValue{Elements: rest}}
		}
		return true

	case ir.PatMap:
		m, ok := v.(*MapValue)
		if !ok {
			return false
		}
		matched := map[string]bool{}
		for _, entry := range pat.MapEntries {
			key := mapKeyToValue(entry.Key)
			val, present := m.Get(key)
			if !present {
				return false
			}
			if !matchPattern(entry.Pattern, val, out) {
				return false
			}
			k, _ := mapKey(key)
			matched[k] = true
		}
		if pat.MapRest != "" {
			rest := NewMap()
			m.Each(func(k, val Value) {
				kk, _ := mapKey(k)
				if !matched[kk] {
					rest.Set(k, val)
				}
			})
			out[pat.MapRestID] = namedValue{pat.MapRest, rest}
		}
		return true

	case ir.PatAs:
		if !matchPattern(*pat.AsInner, v, out) {
			return false
		}
		out[pat.BindingID] = namedValue{pat.Name, v}
		return true

	default:
		return false
	}
}

func mapKeyToValue(k ir.MapKey) Value {
	switch k.Kind {
	case ir.MapKeyKeyword:
		return &KeywordValue{Name: k.Value.(string)}
	case ir.MapKeyString:
		return &StringValue{Value: k.Value.(string)}
	case ir.MapKeyInt:
		return &IntValue{Value: k.Value.(int64)}
	default:
		return Nil
	}
}

// valueMatchesType is the runtime type test behind match type patterns and
// type-selected catch clauses. Structural: vectors check every element, maps
// check every non-optional entry.
func valueMatchesType(v Value, t types.Type) bool {
	switch t.Kind {
	case types.KAny:
		return true
	case types.KNever:
		return false
	case types.KInt:
		_, ok := v.(*IntValue)
		return ok
	case types.KFloat:
		_, ok := v.(*FloatValue)
		return ok
	case types.KString:
		_, ok := v.(*StringValue)
		return ok
	case types.KBool:
		_, ok := v.(*BoolValue)
		return ok
	case types.KNil:
		_, ok := v.(*NilValue)
		return ok
	case types.KKeyword:
		_, ok := v.(*KeywordValue)
		return ok
	case types.KSymbol:
		_, ok := v.(*SymbolValue)
		return ok
	case types.KVector:
		vec, ok := v.(*VectorValue)
		if !ok {
			return false
		}
		for _, e := range vec.Elements {
			if !valueMatchesType(e, *t.Elem) {
				return false
			}
		}
		return true
	case types.KMap:
		m, ok := v.(*MapValue)
		if !ok {
			return false
		}
		for _, entry := range t.Entries {
			val, present := m.Get(&KeywordValue{Name: entry.Key})
			if !present {
				if entry.Optional {
					continue
				}
				return false
			}
			if !valueMatchesType(val, entry.Value) {
				return false
			}
		}
		return true
	case types.KFunction:
		_, ok := v.(*FunctionValue)
		return ok
	case types.KResource:
		r, ok := v.(*ResourceValue)
		if !ok {
			return false
		}
		return t.ResourceTag == "" || r.TypeTag == t.ResourceTag
	case types.KUnion:
		for _, o := range t.Options {
			if valueMatchesType(v, o) {
				return true
			}
		}
		return false
	case types.KIntersection:
		for _, o := range t.Options {
			if !valueMatchesType(v, o) {
				return false
			}
		}
		return true
	case types.KLiteral:
		return Equal(literalValue(t.LiteralValue), v)
	default:
		return true
	}
}

func (e *Evaluator) evalTryCatch(ctx context.Context, n *ir.TryCatch, env *Environment) (Value, *errors.Report) {
	result, tryErr := e.evalTryBody(ctx, n.Try, env)

	if tryErr != nil {
		handled := false
		for _, clause := range n.Catches {
			if !catchMatches(clause, tryErr) {
				continue
			}
			clauseEnv := env.Child()
			if clause.BindingNm != "" {
				clauseEnv.Define(clause.BindingID, clause.BindingNm, ReportToValue(tryErr))
			}
			result, tryErr = e.evalCtx(ctx, clause.Body, clauseEnv)
			handled = true
			break
		}
		// An unhandled error still flows through finally below; tryErr keeps
		// propagating unless finally itself errors, which supersedes it.
		if !handled && n.Finally == nil {
			return nil, tryErr
		}
	}

	if n.Finally != nil {
		_, finallyErr := e.evalCtx(ctx, n.Finally, env)
		if finallyErr != nil {
			return nil, finallyErr
		}
	}
	if tryErr != nil {
		return nil, tryErr
	}
	return result, nil
}

func (e *Evaluator) evalTryBody(ctx context.Context, try ir.Node, env *Environment) (Value, *errors.Report) {
	return e.evalCtx(ctx, try, env)
}

func catchMatches(clause ir.CatchClause, report *errors.Report) bool {
	switch clause.Kind {
	case ir.CatchKindSymbol:
		return true // catch-all
	case ir.CatchKindKeyword:
		return report.Kind.String() == clause.Keyword || (report.Data != nil && report.Data["kind"] == clause.Keyword)
	case ir.CatchKindType:
		return valueMatchesType(ReportToValue(report), clause.MatchType)
	default:
		return false
	}
}

func (e *Evaluator) evalWithResource(ctx context.Context, n *ir.WithResource, env *Environment) (Value, *errors.Report) {
	initVal, err := e.evalCtx(ctx, n.Init, env)
	if err != nil {
		return nil, err
	}
	res, ok := initVal.(*ResourceValue)
	if !ok {
		// Initializer produced a plain value; wrap it in a fresh handle so
		// the body still sees a scoped resource.
		res = &ResourceValue{
			ID:       e.allocResourceID(),
			TypeTag:  n.TypeTag,
			State:    ResourceActive,
			Metadata: map[string]Value{"value": initVal},
		}
	} else if res.State == ResourceReleased {
		return nil, errors.ResourceError("use-after-release", "with-resource initializer yielded a released resource")
	}
	if res.ID == 0 {
		res.ID = e.allocResourceID()
	}

	inner := env.Child()
	inner.Define(n.Binding.NodeID, n.Binding.Name, res)

	result, bodyErr := e.evalCtx(ctx, n.Body, inner)

	if res.State != ResourceReleased {
		res.State = ResourceReleased
		if res.ReleaseFn != nil {
			if relErr := res.ReleaseFn(res); relErr != nil && bodyErr == nil {
				return nil, errors.ResourceError(n.TypeTag, relErr.Error())
			}
		}
	}

	if bodyErr != nil {
		return nil, bodyErr
	}
	return result, nil
}

func (e *Evaluator) evalLogStep(ctx context.Context, n *ir.LogStep, env *Environment) (Value, *errors.Report) {
	values := make([]Value, len(n.Values))
	for i, v := range n.Values {
		val, err := e.evalCtx(ctx, v, env)
		if err != nil {
			return nil, err
		}
		values[i] = val
	}
	if e.logger != nil {
		e.logger.LogStep(n.Level, n.StepID, values)
	}
	return e.evalCtx(ctx, n.Inner, env)
}

// evalParallel evaluates each binding on its own goroutine. Results are
// joined with a WaitGroup and bound to their declared names in declaration
// order regardless of completion order. If any binding fails, the
// first-by-declaration-order failure wins: errs is pre-sized by index so
// there's no race picking "first", and a shared cancellable context lets
// not-yet-started bindings bail out cooperatively at their one suspension
// point (the start of their own evaluation).
func (e *Evaluator) evalParallel(ctx context.Context, n *ir.Parallel, env *Environment) (Value, *errors.Report) {
	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Value, len(n.Bindings))
	errs := make([]*errors.Report, len(n.Bindings))
	cancelled := make([]bool, len(n.Bindings))

	var wg sync.WaitGroup
	for i, b := range n.Bindings {
		wg.Add(1)
		go func(i int, b ir.ParallelBinding) {
			defer wg.Done()
			select {
			case <-pctx.Done():
				// Never-started binding skipped after another binding failed;
				// not itself a failure, so it must not shadow the real one.
				cancelled[i] = true
				return
			default:
			}
			v, err := e.evalCtx(pctx, b.Init, env.ReadOnlyView())
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			results[i] = v
		}(i, b)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, errors.ApplicationError("parallel-binding-error", err.Message, map[string]any{"index": i, "wrapped": err.Code})
		}
	}
	for i, c := range cancelled {
		if c {
			return nil, errors.InternalError("parallel binding " + n.Bindings[i].Binding.Name + " cancelled before start")
		}
	}

	// Bindings land in the enclosing scope itself — parallel has no body of
	// its own; it is a statement-like form whose bound names become visible
	// to whatever follows it in the surrounding do/let.
	for i, b := range n.Bindings {
		env.Define(b.Binding.NodeID, b.Binding.Name, results[i])
	}
	var last Value = Nil
	if len(results) > 0 {
		last = results[len(results)-1]
	}
	return last, nil
}
