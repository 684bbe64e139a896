package optimize

import "github.com/rtfs-lang/rtfs/internal/ir"

// purityPass classifies user-defined functions as pure or not, to a
// fixpoint: a FunctionDef is pure if its body contains no WithResource,
// LogStep, Parallel, TryCatch, nested definition, Module, Import or
// ModuleRef anywhere, and every Apply it contains targets either a pure
// primitive, another already-classified-pure function, or a lambda literal
// whose own body is pure. It never
// rewrites the tree; it only populates ctx.pureUser for the passes after it.
func purityPass(ctx *context, root ir.Node) (ir.Node, bool) {
	defs := collectFunctionDefs(root)
	for {
		progress := false
		for _, def := range defs {
			if ctx.pureUser[def.BindingID] {
				continue
			}
			if def.Lambda != nil && isPureBody(ctx, def.Lambda.Body) {
				ctx.pureUser[def.BindingID] = true
				progress = true
			}
		}
		if !progress {
			break
		}
	}
	return root, false
}

func collectFunctionDefs(root ir.Node) []*ir.FunctionDef {
	var out []*ir.FunctionDef
	ir.Visit(root, func(n ir.Node) {
		if def, ok := n.(*ir.FunctionDef); ok {
			out = append(out, def)
		}
	})
	return out
}

// isPureBody reports whether n can be evaluated with no observable side
// effect and no dependence on unclassified calls, given what ctx already
// knows. A recursive function can never be proven pure this way: at the
// point its own body is checked, ctx.pureUser for its own binding id is
// still false, so the self-call looks unclassified and isPureBody returns
// false — a deliberately conservative result, not a bug.
func isPureBody(ctx *context, n ir.Node) bool {
	pure := true
	ir.Visit(n, func(node ir.Node) {
		switch x := node.(type) {
		case *ir.WithResource, *ir.LogStep, *ir.Parallel, *ir.TryCatch:
			pure = false
		case *ir.FunctionDef, *ir.VariableDef, *ir.Module, *ir.Import:
			// Definitions mutate the enclosing scope: dropping one would strand
			// every reference to its binding id.
			pure = false
		case *ir.ModuleRef:
			// Resolving an export may trigger a module load.
			pure = false
		case *ir.Apply:
			if !isCalleePure(ctx, x.Fn) {
				pure = false
			}
		default:
			_ = x
		}
	})
	return pure
}

func isCalleePure(ctx *context, fn ir.Node) bool {
	switch f := fn.(type) {
	case *ir.VariableRef:
		if info, ok := ctx.primitives[f.BindingID]; ok {
			return info.Pure
		}
		return ctx.pureUser[f.BindingID]
	case *ir.Lambda:
		return isPureBody(ctx, f.Body)
	default:
		return false
	}
}
