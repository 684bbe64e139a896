package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtfs-lang/rtfs/internal/optimize"
	"github.com/rtfs-lang/rtfs/internal/runtime"
)

func TestStrategyFromFlag(t *testing.T) {
	s, err := strategyFromFlag("ast")
	require.NoError(t, err)
	require.Equal(t, runtime.StrategyASTWalker, s)

	s, err = strategyFromFlag("ir-fallback")
	require.NoError(t, err)
	require.Equal(t, runtime.StrategyIRWithASTFallback, s)

	_, err = strategyFromFlag("bogus")
	require.Error(t, err)
}

func TestOptimizeLevelFromFlag(t *testing.T) {
	l, err := optimizeLevelFromFlag("aggressive")
	require.NoError(t, err)
	require.Equal(t, optimize.Aggressive, l)

	_, err = optimizeLevelFromFlag("bogus")
	require.Error(t, err)
}
