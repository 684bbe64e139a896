package optimize

import "github.com/rtfs-lang/rtfs/internal/ir"

// inlineSizeThreshold bounds which function bodies inlinePass will graft
// into a call site, so inlining cannot blow up tree size unboundedly.
const inlineSizeThreshold = 8

// inlinePass beta-reduces a direct call to a small, non-recursive,
// non-variadic function, or to a small non-variadic lambda literal:
// Apply(VariableRef(f), args...) becomes Let(params bound to args, body),
// where literal and variable-reference arguments are substituted into the
// body instead of bound, and the bare body is returned when no binding is
// left. Binding the lambda's own parameter VariableBinding nodes (rather
// than fresh copies) means two inlined call sites can end up
// sharing a binding id — harmless, since each Let opens its own evaluation
// frame and env lookups are scoped per frame, not per id globally.
func inlinePass(ctx *context, root ir.Node) (ir.Node, bool) {
	candidates := collectInlineCandidates(root)
	if len(candidates) == 0 {
		return root, false
	}
	return inlineRec(candidates, root)
}

func collectInlineCandidates(root ir.Node) map[uint64]*ir.Lambda {
	out := map[uint64]*ir.Lambda{}
	ir.Visit(root, func(n ir.Node) {
		def, ok := n.(*ir.FunctionDef)
		if !ok || def.Lambda == nil {
			return
		}
		lam := def.Lambda
		if ir.CountNodes(lam.Body) > inlineSizeThreshold {
			return
		}
		if hasVariadicParam(lam.Params) {
			return
		}
		if referencesBinding(lam.Body, def.BindingID) {
			return
		}
		out[def.BindingID] = lam
	})
	return out
}

func hasVariadicParam(params []*ir.Param) bool {
	for _, p := range params {
		if p.Variadic {
			return true
		}
	}
	return false
}

func referencesBinding(n ir.Node, id uint64) bool {
	found := false
	ir.Visit(n, func(node ir.Node) {
		if ref, ok := node.(*ir.VariableRef); ok && ref.BindingID == id {
			found = true
		}
	})
	return found
}

func inlineRec(candidates map[uint64]*ir.Lambda, n ir.Node) (ir.Node, bool) {
	if n == nil {
		return nil, false
	}
	n2, changed := rewriteChildren(n, func(c ir.Node) (ir.Node, bool) { return inlineRec(candidates, c) })

	apply, ok := n2.(*ir.Apply)
	if !ok {
		return n2, changed
	}

	var lam *ir.Lambda
	switch fn := apply.Fn.(type) {
	case *ir.VariableRef:
		lam = candidates[fn.BindingID]
	case *ir.Lambda:
		// Immediately-invoked lambda literal: ((fn (x) x) 5). Unlike a named
		// FunctionDef, it has no binding id to self-reference through, so the
		// only eligibility checks are size and variadic-arity.
		if ir.CountNodes(fn.Body) <= inlineSizeThreshold && !hasVariadicParam(fn.Params) {
			lam = fn
		}
	}
	if lam == nil || len(lam.Params) != len(apply.Args) {
		return n2, changed
	}

	// Trivial arguments (literals and variable references — pure and safe to
	// duplicate) substitute straight into the body, so a body that is just a
	// parameter reference collapses to the argument itself and later fold
	// passes see literals where parameters were. Anything else stays a Let
	// binding to preserve evaluation order and sharing.
	bindings := make([]ir.LetBinding, 0, len(lam.Params))
	body := lam.Body
	for i, p := range lam.Params {
		arg := apply.Args[i]
		switch arg.(type) {
		case *ir.Literal, *ir.VariableRef:
			body = substituteRef(body, p.Binding.NodeID, arg)
		default:
			bindings = append(bindings, ir.LetBinding{Binding: p.Binding, Init: arg})
		}
	}
	if len(bindings) == 0 {
		return body, true
	}
	return &ir.Let{Base: apply.Base, Bindings: bindings, Body: []ir.Node{body}}, true
}

// substituteRef returns n with every VariableRef to id replaced by repl,
// copying nodes along the way (the original lambda body stays intact for
// call sites that are not inlined).
func substituteRef(n ir.Node, id uint64, repl ir.Node) ir.Node {
	if ref, ok := n.(*ir.VariableRef); ok {
		if ref.BindingID == id {
			return repl
		}
		return n
	}
	out, _ := rewriteChildren(n, func(c ir.Node) (ir.Node, bool) {
		nc := substituteRef(c, id, repl)
		return nc, nc != c
	})
	return out
}
