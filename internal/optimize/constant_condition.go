package optimize

import (
	"github.com/rtfs-lang/rtfs/internal/eval"
	"github.com/rtfs-lang/rtfs/internal/ir"
)

// constantConditionPass collapses an If whose Cond is already a literal to
// whichever branch Truthy selects, dropping the other branch entirely (and
// any side effects it would have had — an If's branches are exclusive by
// construction, so this changes nothing observable).
func constantConditionPass(ctx *context, root ir.Node) (ir.Node, bool) {
	return condRec(ctx, root)
}

func condRec(ctx *context, n ir.Node) (ir.Node, bool) {
	if n == nil {
		return nil, false
	}
	n2, childChanged := rewriteChildren(n, func(c ir.Node) (ir.Node, bool) { return condRec(ctx, c) })

	ifNode, ok := n2.(*ir.If)
	if !ok {
		return n2, childChanged
	}
	lit, ok := ifNode.Cond.(*ir.Literal)
	if !ok {
		return n2, childChanged
	}

	branch := ifNode.Else
	if eval.Truthy(eval.LiteralToValue(lit.Value)) {
		branch = ifNode.Then
	}
	if branch == nil {
		return &ir.Literal{Base: ifNode.Base, Value: nil}, true
	}
	return branch, true
}
