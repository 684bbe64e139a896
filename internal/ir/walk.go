package ir

// Visit calls f on n and on every node reachable from it, in the same
// traversal order as CountNodes. f is responsible for any state it wants to
// accumulate (e.g. "does this subtree reference binding id X").
func Visit(n Node, f func(Node)) {
	if n == nil {
		return
	}
	f(n)
	switch x := n.(type) {
	case *Program:
		for _, form := range x.Forms {
			Visit(form, f)
		}
	case *Literal, *VariableRef, *ModuleRef, *VariableBinding, *Import, *TaskContextAccess:
	case *VectorIndex:
		Visit(x.Target, f)
	case *MapLookup:
		Visit(x.Target, f)
		Visit(x.Default, f)
	case *MapRestOf:
		Visit(x.Target, f)
	case *VectorLit:
		for _, e := range x.Elements {
			Visit(e, f)
		}
	case *MapLit:
		for _, e := range x.Entries {
			Visit(e.Key, f)
			Visit(e.Value, f)
		}
	case *Param:
		Visit(x.Binding, f)
	case *Lambda:
		for _, p := range x.Params {
			Visit(p, f)
		}
		Visit(x.Body, f)
	case *Apply:
		Visit(x.Fn, f)
		for _, a := range x.Args {
			Visit(a, f)
		}
	case *If:
		Visit(x.Cond, f)
		Visit(x.Then, f)
		Visit(x.Else, f)
	case *Let:
		for _, b := range x.Bindings {
			Visit(b.Binding, f)
			Visit(b.Init, f)
		}
		for _, b := range x.Body {
			Visit(b, f)
		}
	case *Do:
		for _, e := range x.Exprs {
			Visit(e, f)
		}
	case *Match:
		Visit(x.Scrutinee, f)
		for _, arm := range x.Arms {
			Visit(arm.Guard, f)
			Visit(arm.Body, f)
		}
	case *TryCatch:
		Visit(x.Try, f)
		for _, cl := range x.Catches {
			Visit(cl.Body, f)
		}
		Visit(x.Finally, f)
	case *Parallel:
		for _, b := range x.Bindings {
			Visit(b.Binding, f)
			Visit(b.Init, f)
		}
	case *WithResource:
		Visit(x.Binding, f)
		Visit(x.Init, f)
		Visit(x.Body, f)
	case *LogStep:
		for _, v := range x.Values {
			Visit(v, f)
		}
		Visit(x.Inner, f)
	case *Module:
		for _, d := range x.Definitions {
			Visit(d, f)
		}
	case *FunctionDef:
		Visit(x.Lambda, f)
	case *VariableDef:
		Visit(x.Init, f)
	case *Task:
		for _, v := range x.Metadata {
			Visit(v, f)
		}
		Visit(x.Intent, f)
		Visit(x.Contract, f)
		Visit(x.Plan, f)
	}
}

// CountNodes counts n and every node reachable from it. Used by the
// optimizer for before/after pass statistics and the inliner's body-size
// threshold, not for any semantic purpose.
func CountNodes(n Node) int {
	if n == nil {
		return 0
	}
	count := 1
	switch x := n.(type) {
	case *Program:
		for _, f := range x.Forms {
			count += CountNodes(f)
		}
	case *Literal, *VariableRef, *ModuleRef, *VariableBinding, *Import, *TaskContextAccess:
		// leaf nodes
	case *VectorIndex:
		count += CountNodes(x.Target)
	case *MapLookup:
		count += CountNodes(x.Target) + CountNodes(x.Default)
	case *MapRestOf:
		count += CountNodes(x.Target)
	case *VectorLit:
		for _, e := range x.Elements {
			count += CountNodes(e)
		}
	case *MapLit:
		for _, e := range x.Entries {
			count += CountNodes(e.Key) + CountNodes(e.Value)
		}
	case *Param:
		count += CountNodes(x.Binding)
	case *Lambda:
		for _, p := range x.Params {
			count += CountNodes(p)
		}
		count += CountNodes(x.Body)
	case *Apply:
		count += CountNodes(x.Fn)
		for _, a := range x.Args {
			count += CountNodes(a)
		}
	case *If:
		count += CountNodes(x.Cond) + CountNodes(x.Then) + CountNodes(x.Else)
	case *Let:
		for _, b := range x.Bindings {
			count += CountNodes(b.Binding) + CountNodes(b.Init)
		}
		for _, b := range x.Body {
			count += CountNodes(b)
		}
	case *Do:
		for _, e := range x.Exprs {
			count += CountNodes(e)
		}
	case *Match:
		count += CountNodes(x.Scrutinee)
		for _, arm := range x.Arms {
			count += CountNodes(arm.Guard) + CountNodes(arm.Body)
		}
	case *TryCatch:
		count += CountNodes(x.Try)
		for _, cl := range x.Catches {
			count += CountNodes(cl.Body)
		}
		count += CountNodes(x.Finally)
	case *Parallel:
		for _, b := range x.Bindings {
			count += CountNodes(b.Binding) + CountNodes(b.Init)
		}
	case *WithResource:
		count += CountNodes(x.Binding) + CountNodes(x.Init) + CountNodes(x.Body)
	case *LogStep:
		for _, v := range x.Values {
			count += CountNodes(v)
		}
		count += CountNodes(x.Inner)
	case *Module:
		for _, d := range x.Definitions {
			count += CountNodes(d)
		}
	case *FunctionDef:
		count += CountNodes(x.Lambda)
	case *VariableDef:
		count += CountNodes(x.Init)
	case *Task:
		for _, v := range x.Metadata {
			count += CountNodes(v)
		}
		count += CountNodes(x.Intent) + CountNodes(x.Contract) + CountNodes(x.Plan)
	}
	return count
}
