package builtins

import (
	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/eval"
)

func compareChain(name string, ok func(cmp int) bool) Primitive {
	return Primitive{
		Name:  name,
		Arity: eval.Arity{Kind: eval.ArityAtLeast, Min: 2},
		Pure:  true,
		Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
			for i := 0; i+1 < len(args); i++ {
				cmp, err := compareValues(args[i], args[i+1], name)
				if err != nil {
					return nil, err
				}
				if !ok(cmp) {
					return &eval.BoolValue{Value: false}, nil
				}
			}
			return &eval.BoolValue{Value: true}, nil
		},
	}
}

func compareValues(a, b eval.Value, op string) (int, *errors.Report) {
	af, aok := numericValue(a)
	bf, bok := numericValue(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	as, aIsStr := a.(*eval.StringValue)
	bs, bIsStr := b.(*eval.StringValue)
	if aIsStr && bIsStr {
		switch {
		case as.Value < bs.Value:
			return -1, nil
		case as.Value > bs.Value:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, errors.TypeError("comparable values", a.Type(), op)
}

func comparisonPrimitives() []Primitive {
	out := []Primitive{
		compareChain("<", func(c int) bool { return c < 0 }),
		compareChain("<=", func(c int) bool { return c <= 0 }),
		compareChain(">", func(c int) bool { return c > 0 }),
		compareChain(">=", func(c int) bool { return c >= 0 }),
	}
	out = append(out, Primitive{
		Name:  "=",
		Arity: eval.Arity{Kind: eval.ArityAtLeast, Min: 2},
		Pure:  true,
		Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
			for i := 0; i+1 < len(args); i++ {
				if !eval.Equal(args[i], args[i+1]) {
					return &eval.BoolValue{Value: false}, nil
				}
			}
			return &eval.BoolValue{Value: true}, nil
		},
	})
	out = append(out, Primitive{
		Name:  "!=",
		Arity: eval.Arity{Kind: eval.ArityExact, Min: 2},
		Pure:  true,
		Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
			return &eval.BoolValue{Value: !eval.Equal(args[0], args[1])}, nil
		},
	})
	return out
}
