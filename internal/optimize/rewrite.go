package optimize

import "github.com/rtfs-lang/rtfs/internal/ir"

// rewriteChildren applies rec to every direct Node child of n and returns a
// shallow copy of n with those children substituted, plus whether any child
// actually changed. Every pass is a bottom-up tree walk built on top of this:
// recurse via rewriteChildren, then apply the pass's own rewrite at the
// current node.
func rewriteChildren(n ir.Node, rec func(ir.Node) (ir.Node, bool)) (ir.Node, bool) {
	changed := false
	apply := func(c ir.Node) ir.Node {
		if c == nil {
			return nil
		}
		nc, ch := rec(c)
		if ch {
			changed = true
		}
		return nc
	}

	switch x := n.(type) {
	case *ir.Program:
		forms := make([]ir.Node, len(x.Forms))
		for i, f := range x.Forms {
			forms[i] = apply(f)
		}
		y := *x
		y.Forms = forms
		return &y, changed

	case *ir.VectorIndex:
		y := *x
		y.Target = apply(x.Target)
		return &y, changed

	case *ir.MapLookup:
		y := *x
		y.Target = apply(x.Target)
		y.Default = apply(x.Default)
		return &y, changed

	case *ir.MapRestOf:
		y := *x
		y.Target = apply(x.Target)
		return &y, changed

	case *ir.VectorLit:
		elems := make([]ir.Node, len(x.Elements))
		for i, e := range x.Elements {
			elems[i] = apply(e)
		}
		y := *x
		y.Elements = elems
		return &y, changed

	case *ir.MapLit:
		entries := make([]ir.MapLitEntry, len(x.Entries))
		for i, e := range x.Entries {
			entries[i] = ir.MapLitEntry{Key: apply(e.Key), Value: apply(e.Value)}
		}
		y := *x
		y.Entries = entries
		return &y, changed

	case *ir.Lambda:
		y := *x
		y.Body = apply(x.Body)
		return &y, changed

	case *ir.Apply:
		fn := apply(x.Fn)
		args := make([]ir.Node, len(x.Args))
		for i, a := range x.Args {
			args[i] = apply(a)
		}
		y := *x
		y.Fn = fn
		y.Args = args
		return &y, changed

	case *ir.If:
		y := *x
		y.Cond = apply(x.Cond)
		y.Then = apply(x.Then)
		y.Else = apply(x.Else)
		return &y, changed

	case *ir.Let:
		bindings := make([]ir.LetBinding, len(x.Bindings))
		for i, b := range x.Bindings {
			bindings[i] = ir.LetBinding{Binding: b.Binding, Init: apply(b.Init)}
		}
		body := make([]ir.Node, len(x.Body))
		for i, e := range x.Body {
			body[i] = apply(e)
		}
		y := *x
		y.Bindings = bindings
		y.Body = body
		return &y, changed

	case *ir.Do:
		exprs := make([]ir.Node, len(x.Exprs))
		for i, e := range x.Exprs {
			exprs[i] = apply(e)
		}
		y := *x
		y.Exprs = exprs
		return &y, changed

	case *ir.Match:
		scrutinee := apply(x.Scrutinee)
		arms := make([]ir.MatchArm, len(x.Arms))
		for i, a := range x.Arms {
			arms[i] = ir.MatchArm{Pattern: a.Pattern, Guard: apply(a.Guard), Body: apply(a.Body)}
		}
		y := *x
		y.Scrutinee = scrutinee
		y.Arms = arms
		return &y, changed

	case *ir.TryCatch:
		try := apply(x.Try)
		catches := make([]ir.CatchClause, len(x.Catches))
		for i, cl := range x.Catches {
			cc := cl
			cc.Body = apply(cl.Body)
			catches[i] = cc
		}
		fin := apply(x.Finally)
		y := *x
		y.Try = try
		y.Catches = catches
		y.Finally = fin
		return &y, changed

	case *ir.Parallel:
		bindings := make([]ir.ParallelBinding, len(x.Bindings))
		for i, b := range x.Bindings {
			bindings[i] = ir.ParallelBinding{Binding: b.Binding, Init: apply(b.Init)}
		}
		y := *x
		y.Bindings = bindings
		return &y, changed

	case *ir.WithResource:
		y := *x
		y.Init = apply(x.Init)
		y.Body = apply(x.Body)
		return &y, changed

	case *ir.LogStep:
		values := make([]ir.Node, len(x.Values))
		for i, v := range x.Values {
			values[i] = apply(v)
		}
		y := *x
		y.Values = values
		y.Inner = apply(x.Inner)
		return &y, changed

	case *ir.Module:
		defs := make([]ir.Node, len(x.Definitions))
		for i, d := range x.Definitions {
			defs[i] = apply(d)
		}
		y := *x
		y.Definitions = defs
		return &y, changed

	case *ir.FunctionDef:
		lam := apply(x.Lambda)
		y := *x
		if l, ok := lam.(*ir.Lambda); ok {
			y.Lambda = l
		}
		return &y, changed

	case *ir.VariableDef:
		y := *x
		y.Init = apply(x.Init)
		return &y, changed

	case *ir.Task:
		meta := make(map[string]ir.Node, len(x.Metadata))
		for k, v := range x.Metadata {
			meta[k] = apply(v)
		}
		y := *x
		y.Metadata = meta
		y.Intent = apply(x.Intent)
		y.Contract = apply(x.Contract)
		y.Plan = apply(x.Plan)
		return &y, changed

	default:
		// Literal, VariableRef, ModuleRef, VariableBinding, Import,
		// TaskContextAccess, Param: no Node children to rewrite.
		return n, false
	}
}
