package builtins

import (
	"strconv"
	"strings"

	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/eval"
)

func asString(v eval.Value, op string) (string, *errors.Report) {
	s, ok := v.(*eval.StringValue)
	if !ok {
		return "", errors.TypeError("string", v.Type(), op)
	}
	return s.Value, nil
}

func stringPrimitives() []Primitive {
	return []Primitive{
		{
			Name:  "str/concat",
			Arity: eval.Arity{Kind: eval.ArityAny},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				var b strings.Builder
				for _, a := range args {
					b.WriteString(a.String())
				}
				return &eval.StringValue{Value: b.String()}, nil
			},
		},
		{
			Name:  "str/len",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 1},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				s, err := asString(args[0], "str/len")
				if err != nil {
					return nil, err
				}
				return &eval.IntValue{Value: int64(len([]rune(s)))}, nil
			},
		},
		{
			Name:  "str/upper",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 1},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				s, err := asString(args[0], "str/upper")
				if err != nil {
					return nil, err
				}
				return &eval.StringValue{Value: strings.ToUpper(s)}, nil
			},
		},
		{
			Name:  "str/split",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 2},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				s, err := asString(args[0], "str/split")
				if err != nil {
					return nil, err
				}
				sep, err := asString(args[1], "str/split")
				if err != nil {
					return nil, err
				}
				parts := strings.Split(s, sep)
				elems := make([]eval.Value, len(parts))
				for i, p := range parts {
					elems[i] = &eval.StringValue{Value: p}
				}
				return &eval.VectorValue{Elements: elems}, nil
			},
		},
		{
			Name:  "str/from-int",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 1},
			Pure:  true,
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				iv, ok := args[0].(*eval.IntValue)
				if !ok {
					return nil, errors.TypeError("int", args[0].Type(), "str/from-int")
				}
				return &eval.StringValue{Value: strconv.FormatInt(iv.Value, 10)}, nil
			},
		},
	}
}
