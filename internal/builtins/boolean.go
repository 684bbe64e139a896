package builtins

import (
	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/eval"
)

func booleanPrimitives() []Primitive {
	return []Primitive{
		{
			Name:  "not",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 1},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				return &eval.BoolValue{Value: !eval.Truthy(args[0])}, nil
			},
		},
		{
			Name:  "and",
			Arity: eval.Arity{Kind: eval.ArityAny},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				var last eval.Value = &eval.BoolValue{Value: true}
				for _, a := range args {
					if !eval.Truthy(a) {
						return a, nil
					}
					last = a
				}
				return last, nil
			},
		},
		{
			Name:  "or",
			Arity: eval.Arity{Kind: eval.ArityAny},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				for _, a := range args {
					if eval.Truthy(a) {
						return a, nil
					}
				}
				return &eval.BoolValue{Value: false}, nil
			},
		},
	}
}
