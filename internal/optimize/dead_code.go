package optimize

import "github.com/rtfs-lang/rtfs/internal/ir"

// deadCodePass drops two kinds of dead code to a fixpoint within one pass:
// a Do's non-last expression whose value is discarded and which has no
// side effect, and a Let binding nothing downstream reads whose Init has
// no side effect either.
func deadCodePass(ctx *context, root ir.Node) (ir.Node, bool) {
	return deadRec(ctx, root)
}

func deadRec(ctx *context, n ir.Node) (ir.Node, bool) {
	if n == nil {
		return nil, false
	}
	n2, changed := rewriteChildren(n, func(c ir.Node) (ir.Node, bool) { return deadRec(ctx, c) })

	switch x := n2.(type) {
	case *ir.Do:
		pruned, prChanged := pruneDo(ctx, x.Exprs)
		changed = changed || prChanged
		if len(pruned) == 1 {
			return pruned[0], true
		}
		y := *x
		y.Exprs = pruned
		return &y, changed

	case *ir.Let:
		bindings, lChanged := pruneLet(ctx, x.Bindings, x.Body)
		changed = changed || lChanged
		if len(bindings) == 0 {
			if len(x.Body) == 1 {
				return x.Body[0], true
			}
			return &ir.Do{Base: x.Base, Exprs: x.Body}, true
		}
		y := *x
		y.Bindings = bindings
		return &y, changed
	}
	return n2, changed
}

// pruneDo drops every non-last expression whose value is both unused and
// side-effect-free. The last expression is always kept: it is the Do's
// result.
func pruneDo(ctx *context, exprs []ir.Node) ([]ir.Node, bool) {
	if len(exprs) <= 1 {
		return exprs, false
	}
	out := make([]ir.Node, 0, len(exprs))
	changed := false
	last := len(exprs) - 1
	for i, e := range exprs {
		if i != last && isPureBody(ctx, e) {
			changed = true
			continue
		}
		out = append(out, e)
	}
	return out, changed
}

// pruneLet drops bindings nothing downstream reads, processing back to
// front so a binding kept only because a later binding's (kept) Init reads
// it is itself correctly counted as live.
func pruneLet(ctx *context, bindings []ir.LetBinding, body []ir.Node) ([]ir.LetBinding, bool) {
	live := map[uint64]bool{}
	for _, b := range body {
		collectRefs(b, live)
	}
	keep := make([]bool, len(bindings))
	for i := len(bindings) - 1; i >= 0; i-- {
		b := bindings[i]
		if live[b.Binding.NodeID] || !isPureBody(ctx, b.Init) {
			keep[i] = true
			collectRefs(b.Init, live)
		}
	}
	out := make([]ir.LetBinding, 0, len(bindings))
	changed := false
	for i, b := range bindings {
		if keep[i] {
			out = append(out, b)
		} else {
			changed = true
		}
	}
	return out, changed
}

func collectRefs(n ir.Node, live map[uint64]bool) {
	ir.Visit(n, func(node ir.Node) {
		if ref, ok := node.(*ir.VariableRef); ok {
			live[ref.BindingID] = true
		}
	})
}
