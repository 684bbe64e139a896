package eval

import (
	"context"

	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/ir"
)

func (e *Evaluator) evalVectorIndex(ctx context.Context, n *ir.VectorIndex, env *Environment) (Value, *errors.Report) {
	target, err := e.evalCtx(ctx, n.Target, env)
	if err != nil {
		return nil, err
	}
	vec, ok := target.(*VectorValue)
	if !ok {
		return nil, errors.TypeError("vector", target.Type(), "destructure")
	}
	if n.FromRest {
		if n.Index > len(vec.Elements) {
			return nil, errors.IndexOutOfBounds(n.Index, len(vec.Elements))
		}
		rest := append([]Value{}, vec.Elements[n.Index:]...)
		return &VectorValue{Elements: rest}, nil
	}
	if n.Index < 0 || n.Index >= len(vec.Elements) {
		return nil, errors.IndexOutOfBounds(n.Index, len(vec.Elements))
	}
	return vec.Elements[n.Index], nil
}

func (e *Evaluator) evalMapLookup(ctx context.Context, n *ir.MapLookup, env *Environment) (Value, *errors.Report) {
	target, err := e.evalCtx(ctx, n.Target, env)
	if err != nil {
		return nil, err
	}
	m, ok := target.(*MapValue)
	if !ok {
		return nil, errors.TypeError("map", target.Type(), "destructure")
	}
	v, present := m.Get(mapKeyToValue(n.Key))
	if present {
		return v, nil
	}
	if n.Default != nil {
		return e.evalCtx(ctx, n.Default, env)
	}
	return Nil, nil
}

func (e *Evaluator) evalMapRestOf(ctx context.Context, n *ir.MapRestOf, env *Environment) (Value, *errors.Report) {
	target, err := e.evalCtx(ctx, n.Target, env)
	if err != nil {
		return nil, err
	}
	m, ok := target.(*MapValue)
	if !ok {
		return nil, errors.TypeError("map", target.Type(), "destructure")
	}
	excluded := map[string]bool{}
	for _, k := range n.Excluding {
		kv := mapKeyToValue(k)
		kk, _ := mapKey(kv)
		excluded[kk] = true
	}
	rest := NewMap()
	m.Each(func(k, v Value) {
		kk, _ := mapKey(k)
		if !excluded[kk] {
			rest.Set(k, v)
		}
	})
	return rest, nil
}
