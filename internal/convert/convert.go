package convert

import (
	"strings"

	"github.com/rtfs-lang/rtfs/internal/ast"
	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/eval"
	"github.com/rtfs-lang/rtfs/internal/ir"
	"github.com/rtfs-lang/rtfs/internal/types"
)

// ConvertProgram converts a top-level sequence of forms (as produced by
// parsing a source file outside of any module declaration) into an
// ir.Program.
func ConvertProgram(registry ModuleLookup, g Globals, forms []ast.Expr) (*ir.Program, *errors.Report) {
	c := NewContext(registry, g.NextID)
	for name, id := range g.Primitives {
		c.SeedPrimitive(name, id)
	}
	out := make([]ir.Node, 0, len(forms))
	for _, f := range forms {
		n, err := c.Convert(f)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return &ir.Program{Base: ir.Base{NodeID: c.allocID()}, Forms: out}, nil
}

// Convert compiles a single surface expression into IR, resolving names
// against the current lexical scope and the module registry.
func (c *Context) Convert(expr ast.Expr) (ir.Node, *errors.Report) {
	pos := expr.Position()
	switch e := expr.(type) {
	case *ast.Literal:
		return &ir.Literal{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Value: e.Value}, nil

	case *ast.Symbol:
		return c.convertSymbol(e)

	case *ast.Keyword:
		return &ir.Literal{Base: ir.Base{NodeID: c.allocID(), Position: pos, Typ: types.Keyword()}, Value: &eval.KeywordValue{Name: e.Name}}, nil

	case *ast.Vector:
		elems, err := c.convertExprList(e.Elements)
		if err != nil {
			return nil, err
		}
		return &ir.VectorLit{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Elements: elems}, nil

	case *ast.List:
		elems, err := c.convertExprList(e.Elements)
		if err != nil {
			return nil, err
		}
		return &ir.VectorLit{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Elements: elems}, nil

	case *ast.MapExpr:
		entries := make([]ir.MapLitEntry, 0, len(e.Entries))
		for _, entry := range e.Entries {
			k, err := c.Convert(entry.Key)
			if err != nil {
				return nil, err
			}
			v, err := c.Convert(entry.Value)
			if err != nil {
				return nil, err
			}
			entries = append(entries, ir.MapLitEntry{Key: k, Value: v})
		}
		return &ir.MapLit{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Entries: entries}, nil

	case *ast.Apply:
		fn, err := c.Convert(e.Fn)
		if err != nil {
			return nil, err
		}
		args, err := c.convertExprList(e.Args)
		if err != nil {
			return nil, err
		}
		return &ir.Apply{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Fn: fn, Args: args}, nil

	case *ast.If:
		cond, err := c.Convert(e.Cond)
		if err != nil {
			return nil, err
		}
		then, err := c.Convert(e.Then)
		if err != nil {
			return nil, err
		}
		var els ir.Node
		if e.Else != nil {
			els, err = c.Convert(e.Else)
			if err != nil {
				return nil, err
			}
		}
		return &ir.If{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Cond: cond, Then: then, Else: els}, nil

	case *ast.Do:
		exprs, err := c.convertExprList(e.Exprs)
		if err != nil {
			return nil, err
		}
		return &ir.Do{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Exprs: exprs}, nil

	case *ast.Let:
		return c.convertLet(e)

	case *ast.Fn:
		return c.convertFn(e, pos)

	case *ast.Def:
		return c.convertDef(e, pos)

	case *ast.Defn:
		return c.convertDefn(e, pos)

	case *ast.Parallel:
		return c.convertParallel(e, pos)

	case *ast.WithResource:
		return c.convertWithResource(e, pos)

	case *ast.TryCatch:
		return c.convertTryCatch(e, pos)

	case *ast.Match:
		return c.convertMatch(e, pos)

	case *ast.LogStep:
		return c.convertLogStep(e, pos)

	case *ast.Import:
		c.AddImport(e.ModuleName, e.Alias)
		return &ir.Import{Base: ir.Base{NodeID: c.allocID(), Position: pos}, ModuleName: e.ModuleName, Alias: e.Alias}, nil

	case *ast.ModuleForm:
		return c.convertModuleForm(e)

	case *ast.Task:
		return c.convertTask(e, pos)

	case *ast.TaskContextAccess:
		return &ir.TaskContextAccess{Base: ir.Base{NodeID: c.allocID(), Position: pos}, FieldName: e.Field}, nil

	default:
		return nil, errors.ConvIllegalPattern("unsupported expression node")
	}
}

func (c *Context) convertExprList(in []ast.Expr) ([]ir.Node, *errors.Report) {
	out := make([]ir.Node, 0, len(in))
	for _, e := range in {
		n, err := c.Convert(e)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// convertSymbol resolves a bare or namespaced symbol. A namespaced symbol
// "ns/name" is resolved through the module registry via c.imports (alias
// or raw module name), never through the lexical scope stack.
func (c *Context) convertSymbol(s *ast.Symbol) (ir.Node, *errors.Report) {
	if ns, name, ok := splitQualified(s.Name); ok {
		ns, name = normalizeQualified(ns, name)
		moduleName := ns
		if c.imports != nil {
			if real, found := c.imports[ns]; found {
				moduleName = real
			}
		}
		if c.registry != nil {
			if err := c.registry.EnsureLoaded(moduleName); err != nil {
				return nil, err
			}
			if !c.registry.HasExport(moduleName, name) {
				return nil, errors.ConvUnresolvedIdentifier(s.Name)
			}
		}
		return &ir.ModuleRef{Base: ir.Base{NodeID: c.allocID(), Position: s.Pos}, ModuleName: moduleName, Name: name}, nil
	}

	id, level, ok := c.resolve(s.Name)
	if !ok {
		return nil, errors.ConvUnresolvedIdentifier(s.Name)
	}
	c.recordUse(s.Name, id, level, types.Any)
	return &ir.VariableRef{Base: ir.Base{NodeID: c.allocID(), Position: s.Pos}, Name: s.Name, BindingID: id}, nil
}

func splitQualified(name string) (ns, rest string, ok bool) {
	idx := strings.IndexByte(name, '/')
	if idx <= 0 || idx == len(name)-1 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

func (c *Context) convertLet(e *ast.Let) (ir.Node, *errors.Report) {
	c.pushScope()
	defer c.popScope()

	var bindings []ir.LetBinding
	for _, b := range e.Bindings {
		bt, err := c.resolveType(b.Type)
		if err != nil {
			return nil, err
		}
		init, err := c.Convert(b.Init)
		if err != nil {
			return nil, err
		}
		// seen is per-binding: a later binding may shadow an earlier one,
		// only a repeat within a single pattern is an error.
		flattened, err := c.flattenPattern(b.Pattern, init, map[string]bool{})
		if err != nil {
			return nil, err
		}
		if _, ok := b.Pattern.(*ast.SymbolPattern); ok && len(flattened) == 1 {
			flattened[0].Binding.Typ = bt
		}
		bindings = append(bindings, flattened...)
	}

	body, err := c.convertExprList(e.Body)
	if err != nil {
		return nil, err
	}
	return &ir.Let{Base: ir.Base{NodeID: c.allocID(), Position: e.Pos}, Bindings: bindings, Body: body}, nil
}

// convertFnBody shares parameter-scope and capture-frame setup between
// ast.Fn and the function created implicitly by ast.Defn.
func (c *Context) convertFnBody(params []ast.FnParam, variadicName string, body []ast.Expr, pos ast.Pos) (*ir.Lambda, *errors.Report) {
	c.pushScope()
	lf := c.pushLambda()
	defer func() {
		c.popLambda()
		c.popScope()
	}()

	seen := map[string]bool{}
	irParams := make([]*ir.Param, 0, len(params))
	var preamble []ir.LetBinding
	for _, p := range params {
		if sym, ok := p.Pattern.(*ast.SymbolPattern); ok {
			if seen[sym.Name] {
				return nil, errors.ConvDuplicateBinding(sym.Name)
			}
			seen[sym.Name] = true
			pt, err := c.resolveType(p.Type)
			if err != nil {
				return nil, err
			}
			vb := &ir.VariableBinding{Base: ir.Base{NodeID: c.allocID(), Typ: pt}, Name: sym.Name}
			c.define(sym.Name, vb.NodeID)
			irParams = append(irParams, &ir.Param{Base: ir.Base{NodeID: c.allocID()}, Binding: vb})
			continue
		}
		// Non-symbol param pattern: bind a synthetic positional param, then
		// destructure it at the top of the lambda body as flattened lets.
		vb := &ir.VariableBinding{Base: ir.Base{NodeID: c.allocID()}, Name: c.tempName()}
		irParams = append(irParams, &ir.Param{Base: ir.Base{NodeID: c.allocID()}, Binding: vb})
		ref := &ir.VariableRef{Base: ir.Base{NodeID: c.allocID()}, Name: vb.Name, BindingID: vb.NodeID}
		flattened, err := c.flattenPattern(p.Pattern, ref, seen)
		if err != nil {
			return nil, err
		}
		preamble = append(preamble, flattened...)
	}

	if variadicName != "" {
		if seen[variadicName] {
			return nil, errors.ConvDuplicateBinding(variadicName)
		}
		vb := &ir.VariableBinding{Base: ir.Base{NodeID: c.allocID()}, Name: variadicName}
		c.define(variadicName, vb.NodeID)
		irParams = append(irParams, &ir.Param{Base: ir.Base{NodeID: c.allocID()}, Binding: vb, Variadic: true})
	}

	bodyNodes, err := c.convertExprList(body)
	if err != nil {
		return nil, err
	}
	var bodyNode ir.Node
	if len(preamble) == 0 {
		bodyNode = wrapDo(c, bodyNodes)
	} else {
		bodyNode = &ir.Let{Base: ir.Base{NodeID: c.allocID()}, Bindings: preamble, Body: bodyNodes}
	}

	captures := make([]ir.Capture, 0, len(lf.captures))
	for _, cv := range lf.captures {
		captures = append(captures, ir.Capture{Name: cv.name, BindingID: cv.id, Type: cv.typ})
	}

	return &ir.Lambda{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Params: irParams, Body: bodyNode, Captures: captures}, nil
}

func (c *Context) convertFn(e *ast.Fn, pos ast.Pos) (ir.Node, *errors.Report) {
	return c.convertFnBody(e.Params, e.VariadicName, e.Body, pos)
}

func (c *Context) convertDef(e *ast.Def, pos ast.Pos) (ir.Node, *errors.Report) {
	init, err := c.Convert(e.Value)
	if err != nil {
		return nil, err
	}
	id := c.allocID()
	c.define(e.Name, id)
	return &ir.VariableDef{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Name: e.Name, BindingID: id, Init: init}, nil
}

func (c *Context) convertDefn(e *ast.Defn, pos ast.Pos) (ir.Node, *errors.Report) {
	// The function's own name is in scope before its body converts, so
	// direct (non-mutual) recursion resolves without a forward-reference
	// pass.
	id := c.allocID()
	c.define(e.Name, id)
	lambda, err := c.convertFnBody(e.Params, e.VariadicName, e.Body, pos)
	if err != nil {
		return nil, err
	}
	return &ir.FunctionDef{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Name: e.Name, BindingID: id, Lambda: lambda}, nil
}

func (c *Context) convertParallel(e *ast.Parallel, pos ast.Pos) (ir.Node, *errors.Report) {
	bindings := make([]ir.ParallelBinding, 0, len(e.Bindings))
	for _, b := range e.Bindings {
		init, err := c.Convert(b.Expr)
		if err != nil {
			return nil, err
		}
		vb := &ir.VariableBinding{Base: ir.Base{NodeID: c.allocID()}, Name: b.Name}
		c.define(b.Name, vb.NodeID)
		bindings = append(bindings, ir.ParallelBinding{Binding: vb, Init: init})
	}
	return &ir.Parallel{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Bindings: bindings}, nil
}

func (c *Context) convertWithResource(e *ast.WithResource, pos ast.Pos) (ir.Node, *errors.Report) {
	init, err := c.Convert(e.Init)
	if err != nil {
		return nil, err
	}
	typeTag := ""
	if rt, ok := e.Type.(*ast.ResourceType); ok {
		typeTag = rt.Tag
	}

	c.pushScope()
	defer c.popScope()
	vb := &ir.VariableBinding{Base: ir.Base{NodeID: c.allocID()}, Name: e.Name}
	c.define(e.Name, vb.NodeID)

	bodyNodes, err := c.convertExprList(e.Body)
	if err != nil {
		return nil, err
	}
	body := wrapDo(c, bodyNodes)
	return &ir.WithResource{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Binding: vb, Init: init, Body: body, TypeTag: typeTag}, nil
}

func wrapDo(c *Context, exprs []ir.Node) ir.Node {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &ir.Do{Base: ir.Base{NodeID: c.allocID()}, Exprs: exprs}
}

func (c *Context) convertTryCatch(e *ast.TryCatch, pos ast.Pos) (ir.Node, *errors.Report) {
	tryBody, err := c.convertExprList(e.Try)
	if err != nil {
		return nil, err
	}
	catches := make([]ir.CatchClause, 0, len(e.Catches))
	for _, clause := range e.Catches {
		c.pushScope()
		var kind ir.CatchClauseKind
		var keyword string
		var matchType types.Type
		switch clause.Pattern.Kind {
		case ast.CatchByKeyword:
			kind = ir.CatchKindKeyword
			keyword = clause.Pattern.Keyword
		case ast.CatchByType:
			kind = ir.CatchKindType
			matchType, err = c.resolveType(clause.Pattern.Type)
			if err != nil {
				c.popScope()
				return nil, err
			}
		case ast.CatchBySymbol:
			kind = ir.CatchKindSymbol
		}
		var bindingID uint64
		if clause.Binding != "" {
			bindingID = c.allocID()
			c.define(clause.Binding, bindingID)
		}
		clauseBody, err := c.convertExprList(clause.Body)
		if err != nil {
			c.popScope()
			return nil, err
		}
		catches = append(catches, ir.CatchClause{
			Kind:      kind,
			Keyword:   keyword,
			MatchType: matchType,
			BindingID: bindingID,
			BindingNm: clause.Binding,
			Body:      wrapDo(c, clauseBody),
		})
		c.popScope()
	}
	var finally ir.Node
	if e.Finally != nil {
		finallyNodes, err := c.convertExprList(e.Finally)
		if err != nil {
			return nil, err
		}
		finally = wrapDo(c, finallyNodes)
	}
	return &ir.TryCatch{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Try: wrapDo(c, tryBody), Catches: catches, Finally: finally}, nil
}

func (c *Context) convertMatch(e *ast.Match, pos ast.Pos) (ir.Node, *errors.Report) {
	scrutinee, err := c.Convert(e.Scrutinee)
	if err != nil {
		return nil, err
	}
	arms := make([]ir.MatchArm, 0, len(e.Clauses))
	for _, clause := range e.Clauses {
		c.pushScope()
		pat, err := c.convertMatchPattern(clause.Pattern)
		if err != nil {
			c.popScope()
			return nil, err
		}
		var guard ir.Node
		if clause.Guard != nil {
			guard, err = c.Convert(clause.Guard)
			if err != nil {
				c.popScope()
				return nil, err
			}
		}
		bodyNodes, err := c.convertExprList(clause.Body)
		if err != nil {
			c.popScope()
			return nil, err
		}
		arms = append(arms, ir.MatchArm{Pattern: pat, Guard: guard, Body: wrapDo(c, bodyNodes)})
		c.popScope()
	}
	return &ir.Match{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Scrutinee: scrutinee, Arms: arms}, nil
}

func (c *Context) convertLogStep(e *ast.LogStep, pos ast.Pos) (ir.Node, *errors.Report) {
	values, err := c.convertExprList(e.Values)
	if err != nil {
		return nil, err
	}
	inner, err := c.Convert(e.Inner)
	if err != nil {
		return nil, err
	}
	return &ir.LogStep{Base: ir.Base{NodeID: c.allocID(), Position: pos}, Level: e.Level, StepID: e.ID, Values: values, Inner: inner}, nil
}

func (c *Context) convertTask(e *ast.Task, pos ast.Pos) (ir.Node, *errors.Report) {
	meta := make(map[string]ir.Node, len(e.Metadata))
	for k, v := range e.Metadata {
		n, err := c.Convert(v)
		if err != nil {
			return nil, err
		}
		meta[k] = n
	}
	var intent, contract, plan ir.Node
	var err *errors.Report
	if e.Intent != nil {
		if intent, err = c.Convert(e.Intent); err != nil {
			return nil, err
		}
	}
	if e.Contract != nil {
		if contract, err = c.Convert(e.Contract); err != nil {
			return nil, err
		}
	}
	if e.Plan != nil {
		if plan, err = c.Convert(e.Plan); err != nil {
			return nil, err
		}
	}
	return &ir.Task{Base: ir.Base{NodeID: c.allocID(), Position: pos}, TaskID: e.TaskID, Metadata: meta, Intent: intent, Contract: contract, Plan: plan}, nil
}
