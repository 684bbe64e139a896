package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtfs-lang/rtfs/internal/types"
)

func TestEqualPrimitives(t *testing.T) {
	require.True(t, types.Equal(types.Int(), types.Int()))
	require.False(t, types.Equal(types.Int(), types.Float()))
	require.True(t, types.Equal(types.Any, types.Any))
}

func TestEqualVector(t *testing.T) {
	a := types.Vector(types.Int())
	b := types.Vector(types.Int())
	c := types.Vector(types.String())
	require.True(t, types.Equal(a, b))
	require.False(t, types.Equal(a, c))
}

func TestEqualFunction(t *testing.T) {
	f1 := types.Function([]types.Type{types.Int(), types.Int()}, nil, types.Int())
	f2 := types.Function([]types.Type{types.Int(), types.Int()}, nil, types.Int())
	f3 := types.Function([]types.Type{types.Int()}, nil, types.Int())
	require.True(t, types.Equal(f1, f2))
	require.False(t, types.Equal(f1, f3))
}

func TestEqualFunctionVariadic(t *testing.T) {
	tail := types.Int()
	f1 := types.Function(nil, &tail, types.Int())
	f2 := types.Function(nil, nil, types.Int())
	require.False(t, types.Equal(f1, f2))
}

func TestEqualResource(t *testing.T) {
	require.True(t, types.Equal(types.Resource("File"), types.Resource("File")))
	require.False(t, types.Equal(types.Resource("File"), types.Resource("Socket")))
}

func TestEqualUnion(t *testing.T) {
	u1 := types.Union([]types.Type{types.Int(), types.String()})
	u2 := types.Union([]types.Type{types.Int(), types.String()})
	u3 := types.Union([]types.Type{types.Int()})
	require.True(t, types.Equal(u1, u2))
	require.False(t, types.Equal(u1, u3))
}

func TestStringRendersReadably(t *testing.T) {
	require.Equal(t, "int", types.Int().String())
	require.Equal(t, "[:vector string]", types.Vector(types.String()).String())
	require.Equal(t, "[:resource File]", types.Resource("File").String())
}
