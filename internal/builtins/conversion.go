package builtins

import (
	"strconv"

	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/eval"
)

func conversionPrimitives() []Primitive {
	return []Primitive{
		{
			Name:  "int",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 1},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				switch v := args[0].(type) {
				case *eval.IntValue:
					return v, nil
				case *eval.FloatValue:
					return &eval.IntValue{Value: int64(v.Value)}, nil
				case *eval.StringValue:
					n, err := strconv.ParseInt(v.Value, 10, 64)
					if err != nil {
						return nil, errors.InvalidArgument("cannot convert string to int: " + v.Value)
					}
					return &eval.IntValue{Value: n}, nil
				default:
					return nil, errors.TypeError("int, float or string", args[0].Type(), "int")
				}
			},
		},
		{
			Name:  "float",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 1},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				switch v := args[0].(type) {
				case *eval.FloatValue:
					return v, nil
				case *eval.IntValue:
					return &eval.FloatValue{Value: float64(v.Value)}, nil
				case *eval.StringValue:
					f, err := strconv.ParseFloat(v.Value, 64)
					if err != nil {
						return nil, errors.InvalidArgument("cannot convert string to float: " + v.Value)
					}
					return &eval.FloatValue{Value: f}, nil
				default:
					return nil, errors.TypeError("int, float or string", args[0].Type(), "float")
				}
			},
		},
	}
}
