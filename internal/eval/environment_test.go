package eval_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtfs-lang/rtfs/internal/eval"
)

func TestDefineAndLookupID(t *testing.T) {
	env := eval.NewEnvironment()
	env.Define(1, "x", &eval.IntValue{Value: 42})

	v, ok := env.LookupID(1)
	require.True(t, ok)
	require.Equal(t, int64(42), v.(*eval.IntValue).Value)
}

func TestLookupIDWalksParentChain(t *testing.T) {
	root := eval.NewEnvironment()
	root.Define(1, "x", &eval.IntValue{Value: 1})
	child := root.Child()

	v, ok := child.LookupID(1)
	require.True(t, ok)
	require.Equal(t, int64(1), v.(*eval.IntValue).Value)
}

func TestLookupIDMissReturnsFalse(t *testing.T) {
	env := eval.NewEnvironment()
	_, ok := env.LookupID(999)
	require.False(t, ok)
}

func TestDefineShadowsInInnermostFrameOnly(t *testing.T) {
	root := eval.NewEnvironment()
	root.Define(1, "x", &eval.IntValue{Value: 1})
	child := root.Child()
	child.Define(1, "x", &eval.IntValue{Value: 2})

	childVal, _ := child.LookupID(1)
	rootVal, _ := root.LookupID(1)
	require.Equal(t, int64(2), childVal.(*eval.IntValue).Value)
	require.Equal(t, int64(1), rootVal.(*eval.IntValue).Value)
}

// SetID is update-through: mutating from a child frame is visible to every
// other holder of the shared parent frame (see DESIGN.md).
func TestSetIDUpdatesSharedParentFrame(t *testing.T) {
	root := eval.NewEnvironment()
	root.Define(1, "counter", &eval.IntValue{Value: 0})

	closureA := root.Child()
	closureB := root.Child()

	ok := closureA.SetID(1, &eval.IntValue{Value: 5})
	require.True(t, ok)

	v, _ := closureB.LookupID(1)
	require.Equal(t, int64(5), v.(*eval.IntValue).Value, "closureB shares root's frame and must observe the mutation")

	rv, _ := root.LookupID(1)
	require.Equal(t, int64(5), rv.(*eval.IntValue).Value)
}

func TestSetIDOnUndefinedIDReturnsFalse(t *testing.T) {
	env := eval.NewEnvironment()
	ok := env.SetID(42, &eval.IntValue{Value: 1})
	require.False(t, ok)
}

func TestSetNameMirrorsSetIDForAstWalker(t *testing.T) {
	root := eval.NewEnvironment()
	root.Define(0, "x", &eval.IntValue{Value: 1})
	child := root.Child()
	ok := child.SetName("x", &eval.IntValue{Value: 9})
	require.True(t, ok)
	v, _ := root.LookupName("x")
	require.Equal(t, int64(9), v.(*eval.IntValue).Value)
}

func TestReadOnlyViewDefineDoesNotLeakToParent(t *testing.T) {
	root := eval.NewEnvironment()
	root.Define(1, "x", &eval.IntValue{Value: 1})
	view := root.ReadOnlyView()
	view.Define(2, "y", &eval.IntValue{Value: 2})

	_, ok := root.LookupID(2)
	require.False(t, ok, "a binding made in a read-only view must not be visible to the shared parent")

	v, ok := view.LookupID(1)
	require.True(t, ok, "the read-only view still sees the enclosing scope")
	require.Equal(t, int64(1), v.(*eval.IntValue).Value)
}
