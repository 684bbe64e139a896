package convert

import (
	"github.com/rtfs-lang/rtfs/internal/ast"
	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/eval"
	"github.com/rtfs-lang/rtfs/internal/ir"
)

// flattenPattern expands a let/fn destructuring pattern into a sequence of
// flat LetBindings over synthetic VectorIndex/MapLookup/MapRestOf
// accessors; the surface pattern is discarded once flattened. source is
// the IR expression producing the value the whole pattern matches against;
// seen dedups binding names within one pattern conversion (a pattern
// cannot bind the same name twice — CNV004).
func (c *Context) flattenPattern(pat ast.Pattern, source ir.Node, seen map[string]bool) ([]ir.LetBinding, *errors.Report) {
	switch p := pat.(type) {
	case *ast.SymbolPattern:
		if seen[p.Name] {
			return nil, errors.ConvDuplicateBinding(p.Name)
		}
		seen[p.Name] = true
		vb := &ir.VariableBinding{Base: ir.Base{NodeID: c.allocID()}, Name: p.Name}
		c.define(p.Name, vb.NodeID)
		return []ir.LetBinding{{Binding: vb, Init: source}}, nil

	case *ast.VectorPattern:
		return c.flattenVectorPattern(p, source, seen)

	case *ast.MapPattern:
		return c.flattenMapPattern(p, source, seen)

	default:
		return nil, errors.ConvIllegalPattern("unknown pattern node")
	}
}

func (c *Context) flattenVectorPattern(p *ast.VectorPattern, source ir.Node, seen map[string]bool) ([]ir.LetBinding, *errors.Report) {
	temp := c.tempName()
	tempVB := &ir.VariableBinding{Base: ir.Base{NodeID: c.allocID()}, Name: temp}
	c.define(temp, tempVB.NodeID)
	tempRef := &ir.VariableRef{Base: ir.Base{NodeID: c.allocID()}, Name: temp, BindingID: tempVB.NodeID}

	bindings := []ir.LetBinding{{Binding: tempVB, Init: source}}

	for i, elem := range p.Elements {
		accessor := &ir.VectorIndex{Base: ir.Base{NodeID: c.allocID()}, Target: tempRef, Index: i}
		sub, err := c.flattenPattern(elem, accessor, seen)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, sub...)
	}

	if p.Rest != "" {
		if seen[p.Rest] {
			return nil, errors.ConvDuplicateBinding(p.Rest)
		}
		seen[p.Rest] = true
		restAccessor := &ir.VectorIndex{Base: ir.Base{NodeID: c.allocID()}, Target: tempRef, Index: len(p.Elements), FromRest: true}
		restVB := &ir.VariableBinding{Base: ir.Base{NodeID: c.allocID()}, Name: p.Rest}
		c.define(p.Rest, restVB.NodeID)
		bindings = append(bindings, ir.LetBinding{Binding: restVB, Init: restAccessor})
	}

	if p.As != "" {
		if seen[p.As] {
			return nil, errors.ConvDuplicateBinding(p.As)
		}
		seen[p.As] = true
		asVB := &ir.VariableBinding{Base: ir.Base{NodeID: c.allocID()}, Name: p.As}
		c.define(p.As, asVB.NodeID)
		bindings = append(bindings, ir.LetBinding{Binding: asVB, Init: tempRef})
	}

	return bindings, nil
}

func (c *Context) flattenMapPattern(p *ast.MapPattern, source ir.Node, seen map[string]bool) ([]ir.LetBinding, *errors.Report) {
	temp := c.tempName()
	tempVB := &ir.VariableBinding{Base: ir.Base{NodeID: c.allocID()}, Name: temp}
	c.define(temp, tempVB.NodeID)
	tempRef := &ir.VariableRef{Base: ir.Base{NodeID: c.allocID()}, Name: temp, BindingID: tempVB.NodeID}

	bindings := []ir.LetBinding{{Binding: tempVB, Init: source}}
	excluded := []ir.MapKey{}

	for _, name := range p.Keys {
		if seen[name] {
			return nil, errors.ConvDuplicateBinding(name)
		}
		seen[name] = true
		key := ir.MapKey{Kind: ir.MapKeyKeyword, Value: name}
		excluded = append(excluded, key)
		var def ir.Node
		if d, ok := p.Defaults[name]; ok {
			cd, err := c.Convert(d)
			if err != nil {
				return nil, err
			}
			def = cd
		}
		accessor := &ir.MapLookup{Base: ir.Base{NodeID: c.allocID()}, Target: tempRef, Key: key, Default: def}
		vb := &ir.VariableBinding{Base: ir.Base{NodeID: c.allocID()}, Name: name}
		c.define(name, vb.NodeID)
		bindings = append(bindings, ir.LetBinding{Binding: vb, Init: accessor})
	}

	for _, entry := range p.Entries {
		key := convMapKeyLit(entry.Key)
		excluded = append(excluded, key)
		var def ir.Node
		if sym, ok := entry.Pattern.(*ast.SymbolPattern); ok {
			if d, has := p.Defaults[sym.Name]; has {
				cd, err := c.Convert(d)
				if err != nil {
					return nil, err
				}
				def = cd
			}
		}
		accessor := &ir.MapLookup{Base: ir.Base{NodeID: c.allocID()}, Target: tempRef, Key: key, Default: def}
		sub, err := c.flattenPattern(entry.Pattern, accessor, seen)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, sub...)
	}

	if p.Rest != "" {
		if seen[p.Rest] {
			return nil, errors.ConvDuplicateBinding(p.Rest)
		}
		seen[p.Rest] = true
		restAccessor := &ir.MapRestOf{Base: ir.Base{NodeID: c.allocID()}, Target: tempRef, Excluding: excluded}
		restVB := &ir.VariableBinding{Base: ir.Base{NodeID: c.allocID()}, Name: p.Rest}
		c.define(p.Rest, restVB.NodeID)
		bindings = append(bindings, ir.LetBinding{Binding: restVB, Init: restAccessor})
	}

	if p.As != "" {
		if seen[p.As] {
			return nil, errors.ConvDuplicateBinding(p.As)
		}
		seen[p.As] = true
		asVB := &ir.VariableBinding{Base: ir.Base{NodeID: c.allocID()}, Name: p.As}
		c.define(p.As, asVB.NodeID)
		bindings = append(bindings, ir.LetBinding{Binding: asVB, Init: tempRef})
	}

	return bindings, nil
}

func convMapKeyLit(k ast.MapKeyLit) ir.MapKey {
	switch k.Kind {
	case ast.MapKeyKeyword:
		return ir.MapKey{Kind: ir.MapKeyKeyword, Value: k.Value}
	case ast.MapKeyString:
		return ir.MapKey{Kind: ir.MapKeyString, Value: k.Value}
	case ast.MapKeyInt:
		return ir.MapKey{Kind: ir.MapKeyInt, Value: k.Value}
	default:
		return ir.MapKey{}
	}
}

// convertMatchPattern compiles the richer match-clause pattern grammar
// into ir.Pattern, defining any bindings it introduces into the current
// scope so the clause body and guard can resolve them.
func (c *Context) convertMatchPattern(mp ast.MatchPattern) (ir.Pattern, *errors.Report) {
	switch mp.Kind {
	case ast.MatchLiteral:
		return ir.Pattern{Kind: ir.PatLiteral, Literal: mp.Literal}, nil

	case ast.MatchKeyword:
		return ir.Pattern{Kind: ir.PatLiteral, Literal: &eval.KeywordValue{Name: mp.Keyword}}, nil

	case ast.MatchWildcard:
		return ir.Pattern{Kind: ir.PatWildcard}, nil

	case ast.MatchSymbol:
		id := c.allocID()
		c.define(mp.Symbol, id)
		return ir.Pattern{Kind: ir.PatVariable, BindingID: id, Name: mp.Symbol}, nil

	case ast.MatchType:
		t, err := c.resolveType(mp.Type)
		if err != nil {
			return ir.Pattern{}, err
		}
		pat := ir.Pattern{Kind: ir.PatType, MatchType: t}
		if mp.Symbol != "" {
			id := c.allocID()
			c.define(mp.Symbol, id)
			pat.BindingID = id
			pat.Name = mp.Symbol
		}
		return pat, nil

	case ast.MatchVector:
		elems := make([]ir.Pattern, 0, len(mp.Elements))
		for _, e := range mp.Elements {
			ep, err := c.convertMatchPattern(e)
			if err != nil {
				return ir.Pattern{}, err
			}
			elems = append(elems, ep)
		}
		pat := ir.Pattern{Kind: ir.PatVector, Elements: elems}
		if mp.Rest != "" {
			id := c.allocID()
			c.define(mp.Rest, id)
			pat.Rest = mp.Rest
			pat.RestID = id
		}
		return pat, nil

	case ast.MatchMap:
		entries := make([]ir.MapPatternEntry, 0, len(mp.MapEntries))
		for _, e := range mp.MapEntries {
			ep, err := c.convertMatchPattern(e.Pattern)
			if err != nil {
				return ir.Pattern{}, err
			}
			entries = append(entries, ir.MapPatternEntry{Key: convMapKeyLit(e.Key), Pattern: ep})
		}
		pat := ir.Pattern{Kind: ir.PatMap, MapEntries: entries}
		if mp.MapRest != "" {
			id := c.allocID()
			c.define(mp.MapRest, id)
			pat.MapRest = mp.MapRest
			pat.MapRestID = id
		}
		return pat, nil

	case ast.MatchAs:
		inner, err := c.convertMatchPattern(*mp.AsInner)
		if err != nil {
			return ir.Pattern{}, err
		}
		id := c.allocID()
		c.define(mp.AsName, id)
		return ir.Pattern{Kind: ir.PatAs, AsInner: &inner, BindingID: id, Name: mp.AsName}, nil

	default:
		return ir.Pattern{}, errors.ConvIllegalPattern("unknown match pattern kind")
	}
}
