package builtins

import (
	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/eval"
)

func resultPrimitives() []Primitive {
	return []Primitive{
		{
			Name:  "ok",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 1},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				return &eval.ResultValue{Ok: true, Value: args[0]}, nil
			},
		},
		{
			Name:  "error",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 1},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				return &eval.ResultValue{Ok: false, Err: args[0]}, nil
			},
		},
		{
			Name:  "ok?",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 1},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				r, isRes := args[0].(*eval.ResultValue)
				return &eval.BoolValue{Value: isRes && r.Ok}, nil
			},
		},
		{
			Name:  "error?",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 1},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				r, isRes := args[0].(*eval.ResultValue)
				return &eval.BoolValue{Value: isRes && !r.Ok}, nil
			},
		},
		{
			Name:  "unwrap",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 1},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				r, isRes := args[0].(*eval.ResultValue)
				if !isRes {
					return nil, errors.TypeError("result", args[0].Type(), "unwrap")
				}
				if !r.Ok {
					return nil, errors.ApplicationError("unwrap-error", "unwrap of error result", r.Err.String())
				}
				return r.Value, nil
			},
		},
	}
}
