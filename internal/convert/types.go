package convert

import (
	"github.com/rtfs-lang/rtfs/internal/ast"
	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/types"
)

// resolveType structurally resolves a surface TypeExpr into types.Type,
// expanding named aliases through c.aliases. nil input resolves to
// types.Any: an absent annotation means unconstrained.
func (c *Context) resolveType(t ast.TypeExpr) (types.Type, *errors.Report) {
	if t == nil {
		return types.Any, nil
	}
	switch te := t.(type) {
	case *ast.PrimitiveType:
		switch te.Kind {
		case ast.TInt:
			return types.Int(), nil
		case ast.TFloat:
			return types.Float(), nil
		case ast.TString:
			return types.String(), nil
		case ast.TBool:
			return types.Bool(), nil
		case ast.TNil:
			return types.Nil(), nil
		case ast.TKeyword:
			return types.Keyword(), nil
		case ast.TSymbol:
			return types.Symbol(), nil
		}
		return types.Any, nil

	case *ast.VectorType:
		elem, err := c.resolveType(te.Element)
		if err != nil {
			return types.Type{}, err
		}
		return types.Vector(elem), nil

	case *ast.MapType:
		entries := make([]types.MapEntry, 0, len(te.Entries))
		for _, e := range te.Entries {
			v, err := c.resolveType(e.Value)
			if err != nil {
				return types.Type{}, err
			}
			entries = append(entries, types.MapEntry{Key: e.Key, Value: v, Optional: e.Optional})
		}
		var wildcard *types.Type
		if te.Wildcard != nil {
			w, err := c.resolveType(te.Wildcard)
			if err != nil {
				return types.Type{}, err
			}
			wildcard = &w
		}
		return types.Type{Kind: types.KMap, Entries: entries, Wildcard: wildcard}, nil

	case *ast.FunctionType:
		params := make([]types.Type, 0, len(te.Params))
		for _, p := range te.Params {
			pt, err := c.resolveType(p)
			if err != nil {
				return types.Type{}, err
			}
			params = append(params, pt)
		}
		var variadic *types.Type
		if te.VariadicTail != nil {
			v, err := c.resolveType(te.VariadicTail)
			if err != nil {
				return types.Type{}, err
			}
			variadic = &v
		}
		ret, err := c.resolveType(te.Return)
		if err != nil {
			return types.Type{}, err
		}
		return types.Function(params, variadic, ret), nil

	case *ast.ResourceType:
		return types.Resource(te.Tag), nil

	case *ast.UnionType:
		opts, err := c.resolveTypeList(te.Options)
		if err != nil {
			return types.Type{}, err
		}
		return types.Union(opts), nil

	case *ast.IntersectionType:
		opts, err := c.resolveTypeList(te.Options)
		if err != nil {
			return types.Type{}, err
		}
		return types.Intersection(opts), nil

	case *ast.LiteralType:
		return types.Literal(te.Value), nil

	case *ast.AnyType:
		return types.Any, nil

	case *ast.NeverType:
		return types.Never, nil

	case *ast.AliasType:
		return c.resolveAlias(te.Name)

	default:
		return types.Any, nil
	}
}

func (c *Context) resolveTypeList(in []ast.TypeExpr) ([]types.Type, *errors.Report) {
	out := make([]types.Type, 0, len(in))
	for _, t := range in {
		rt, err := c.resolveType(t)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, nil
}

// resolveAlias expands a named type alias, detecting cycles via aliasStack
// so resolution terminates even on self-referential or mutually-referential
// alias chains.
func (c *Context) resolveAlias(name string) (types.Type, *errors.Report) {
	for _, seen := range c.aliasStack {
		if seen == name {
			return types.Type{}, errors.ConvCyclicTypeAlias(name)
		}
	}
	target, ok := c.aliases[name]
	if !ok {
		return types.Type{}, errors.ConvUnknownTypeAlias(name)
	}
	if target.Kind != types.KAlias {
		return target, nil
	}
	c.aliasStack = append(c.aliasStack, name)
	resolved, err := c.resolveAlias(target.AliasName)
	c.aliasStack = c.aliasStack[:len(c.aliasStack)-1]
	return resolved, err
}
