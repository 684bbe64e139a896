package builtins

import (
	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/eval"
)

func numPair(args []eval.Value, op string) (a, b float64, bothInt bool, err *errors.Report) {
	ia, aInt := args[0].(*eval.IntValue)
	ib, bInt := args[1].(*eval.IntValue)
	if aInt && bInt {
		return float64(ia.Value), float64(ib.Value), true, nil
	}
	af, aok := numericValue(args[0])
	bf, bok := numericValue(args[1])
	if !aok {
		return 0, 0, false, errors.TypeError("int or float", args[0].Type(), op)
	}
	if !bok {
		return 0, 0, false, errors.TypeError("int or float", args[1].Type(), op)
	}
	return af, bf, false, nil
}

func numericValue(v eval.Value) (float64, bool) {
	switch x := v.(type) {
	case *eval.IntValue:
		return float64(x.Value), true
	case *eval.FloatValue:
		return x.Value, true
	default:
		return 0, false
	}
}

func arithReduce(name string, identity int64, op func(a, b float64) float64, intOp func(a, b int64) int64) Primitive {
	return Primitive{
		Name:  name,
		Arity: eval.Arity{Kind: eval.ArityAtLeast, Min: 0},
		Pure:  true,
		Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
			if len(args) == 0 {
				return &eval.IntValue{Value: identity}, nil
			}
			acc := args[0]
			if _, ok := numericValue(acc); !ok {
				return nil, errors.TypeError("int or float", acc.Type(), name)
			}
			for _, next := range args[1:] {
				a, b, bothInt, err := numPair([]eval.Value{acc, next}, name)
				if err != nil {
					return nil, err
				}
				if bothInt {
					acc = &eval.IntValue{Value: intOp(int64(a), int64(b))}
				} else {
					acc = &eval.FloatValue{Value: op(a, b)}
				}
			}
			return acc, nil
		},
	}
}

func arithmeticPrimitives() []Primitive {
	out := []Primitive{
		arithReduce("+", 0, func(a, b float64) float64 { return a + b }, func(a, b int64) int64 { return a + b }),
		arithReduce("*", 1, func(a, b float64) float64 { return a * b }, func(a, b int64) int64 { return a * b }),
	}

	out = append(out, Primitive{
		Name:  "-",
		Arity: eval.Arity{Kind: eval.ArityAtLeast, Min: 1},
		Pure:  true,
		Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
			if len(args) == 1 {
				a, ok := numericValue(args[0])
				if !ok {
					return nil, errors.TypeError("int or float", args[0].Type(), "-")
				}
				if iv, isInt := args[0].(*eval.IntValue); isInt {
					return &eval.IntValue{Value: -iv.Value}, nil
				}
				return &eval.FloatValue{Value: -a}, nil
			}
			acc := args[0]
			for _, next := range args[1:] {
				a, b, bothInt, err := numPair([]eval.Value{acc, next}, "-")
				if err != nil {
					return nil, err
				}
				if bothInt {
					acc = &eval.IntValue{Value: int64(a) - int64(b)}
				} else {
					acc = &eval.FloatValue{Value: a - b}
				}
			}
			return acc, nil
		},
	})

	out = append(out, Primitive{
		Name:  "/",
		Arity: eval.Arity{Kind: eval.ArityAtLeast, Min: 2},
		Pure:  true,
		Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
			acc := args[0]
			for _, next := range args[1:] {
				a, b, bothInt, err := numPair([]eval.Value{acc, next}, "/")
				if err != nil {
					return nil, err
				}
				if b == 0 {
					return nil, errors.DivisionByZero()
				}
				if bothInt && int64(a)%int64(b) == 0 {
					acc = &eval.IntValue{Value: int64(a) / int64(b)}
				} else {
					acc = &eval.FloatValue{Value: a / b}
				}
			}
			return acc, nil
		},
	})

	out = append(out, Primitive{
		Name:  "mod",
		Arity: eval.Arity{Kind: eval.ArityExact, Min: 2},
		Pure:  true,
		Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
			a, aok := args[0].(*eval.IntValue)
			b, bok := args[1].(*eval.IntValue)
			if !aok || !bok {
				return nil, errors.TypeError("int", "non-int", "mod")
			}
			if b.Value == 0 {
				return nil, errors.DivisionByZero()
			}
			return &eval.IntValue{Value: a.Value % b.Value}, nil
		},
	})

	return out
}
