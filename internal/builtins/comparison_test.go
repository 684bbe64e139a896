package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtfs-lang/rtfs/internal/eval"
)

func boolOf(v eval.Value) bool { return v.(*eval.BoolValue).Value }

func TestLessThanChain(t *testing.T) {
	v, errd := call(t, "<", &eval.IntValue{Value: 1}, &eval.IntValue{Value: 2}, &eval.IntValue{Value: 3})
	require.Nil(t, errd)
	require.True(t, boolOf(v))
}

func TestLessThanChainBreaks(t *testing.T) {
	v, errd := call(t, "<", &eval.IntValue{Value: 1}, &eval.IntValue{Value: 3}, &eval.IntValue{Value: 2})
	require.Nil(t, errd)
	require.False(t, boolOf(v))
}

func TestEqualAcrossInts(t *testing.T) {
	v, errd := call(t, "=", &eval.IntValue{Value: 2}, &eval.IntValue{Value: 2})
	require.Nil(t, errd)
	require.True(t, boolOf(v))
}

func TestNotEqual(t *testing.T) {
	v, errd := call(t, "!=", &eval.IntValue{Value: 2}, &eval.IntValue{Value: 3})
	require.Nil(t, errd)
	require.True(t, boolOf(v))
}

func TestStringComparison(t *testing.T) {
	v, errd := call(t, "<", &eval.StringValue{Value: "a"}, &eval.StringValue{Value: "b"})
	require.Nil(t, errd)
	require.True(t, boolOf(v))
}

func TestComparisonOnIncomparableTypesErrors(t *testing.T) {
	_, errd := call(t, "<", &eval.IntValue{Value: 1}, &eval.BoolValue{Value: true})
	require.NotNil(t, errd)
}

func TestGreaterEqualChain(t *testing.T) {
	v, errd := call(t, ">=", &eval.IntValue{Value: 3}, &eval.IntValue{Value: 3}, &eval.IntValue{Value: 1})
	require.Nil(t, errd)
	require.True(t, boolOf(v))
}
