package cmd

import (
	"fmt"

	"github.com/rtfs-lang/rtfs/internal/optimize"
	"github.com/rtfs-lang/rtfs/internal/parser"
	"github.com/rtfs-lang/rtfs/internal/runtime"
)

func strategyFromFlag(s string) (runtime.Strategy, error) {
	switch s {
	case "ast":
		return runtime.StrategyASTWalker, nil
	case "ir":
		return runtime.StrategyIR, nil
	case "ir-fallback":
		return runtime.StrategyIRWithASTFallback, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q (want ast, ir, or ir-fallback)", s)
	}
}

func optimizeLevelFromFlag(s string) (optimize.Level, error) {
	switch s {
	case "none":
		return optimize.None, nil
	case "basic":
		return optimize.Basic, nil
	case "aggressive":
		return optimize.Aggressive, nil
	default:
		return 0, fmt.Errorf("unknown optimize level %q (want none, basic, or aggressive)", s)
	}
}

func newParser() *parser.Parser { return parser.New() }

func buildRuntime() (*runtime.Runtime, error) {
	strategy, err := strategyFromFlag(strategyFlag)
	if err != nil {
		return nil, err
	}
	level, err := optimizeLevelFromFlag(optimizeFlag)
	if err != nil {
		return nil, err
	}
	opts := runtime.Options{
		Strategy:      strategy,
		OptimizeLevel: level,
		ModulePaths:   modulePathFlag,
		Parser:        parser.New(),
	}
	return runtime.New(opts), nil
}
