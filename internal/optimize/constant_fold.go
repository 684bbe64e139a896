package optimize

import (
	"github.com/rtfs-lang/rtfs/internal/eval"
	"github.com/rtfs-lang/rtfs/internal/ir"
)

// constantFoldPass replaces a call to a known-pure primitive whose
// arguments are all literals with the literal result of running it now. A
// call that would error at runtime is left alone — folding must never
// change what the program reports.
func constantFoldPass(ctx *context, root ir.Node) (ir.Node, bool) {
	return foldRec(ctx, root)
}

func foldRec(ctx *context, n ir.Node) (ir.Node, bool) {
	if n == nil {
		return nil, false
	}
	n2, childChanged := rewriteChildren(n, func(c ir.Node) (ir.Node, bool) { return foldRec(ctx, c) })

	apply, ok := n2.(*ir.Apply)
	if !ok {
		return n2, childChanged
	}
	ref, ok := apply.Fn.(*ir.VariableRef)
	if !ok {
		return n2, childChanged
	}
	info, ok := ctx.primitives[ref.BindingID]
	if !ok || !info.Pure || info.Fn == nil {
		return n2, childChanged
	}

	args := make([]eval.Value, len(apply.Args))
	for i, a := range apply.Args {
		lit, ok := a.(*ir.Literal)
		if !ok {
			return n2, childChanged
		}
		args[i] = eval.LiteralToValue(lit.Value)
	}

	result, rerr := info.Fn(args)
	if rerr != nil {
		return n2, childChanged
	}
	return &ir.Literal{Base: apply.Base, Value: result}, true
}
