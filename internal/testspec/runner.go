package testspec

import (
	"fmt"
	"strings"

	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/optimize"
	"github.com/rtfs-lang/rtfs/internal/parser"
	"github.com/rtfs-lang/rtfs/internal/runtime"
)

// Outcome is the observed result of running a Scenario.
type Outcome struct {
	Value string // result.String(), empty on error
	Err   string // error message, empty on success
}

// Run parses and evaluates a Scenario's Source through a fresh Runtime built
// from its Strategy/OptimizeLevel/ModulePaths.
func Run(s *Scenario) (Outcome, error) {
	p := parser.New()
	forms, err := p.ParseProgram([]byte(s.Source), s.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: parse error: %w", s.ID, err)
	}

	rt := runtime.New(runtime.Options{
		Strategy:      strategyOf(s.Strategy),
		OptimizeLevel: levelOf(s.OptimizeLevel),
		ModulePaths:   s.ModulePaths,
		Parser:        p,
	})

	result, report := rt.Evaluate(forms)
	if report != nil {
		return Outcome{Err: errors.Wrap(report).Error()}, nil
	}
	if result == nil {
		return Outcome{}, nil
	}
	return Outcome{Value: result.String()}, nil
}

// Check runs a Scenario and reports whether its observed Outcome matches
// ExpectedValue/ExpectedError.
func Check(s *Scenario) (ok bool, got Outcome, err error) {
	got, err = Run(s)
	if err != nil {
		return false, got, err
	}
	if s.ExpectedError != "" {
		return strings.Contains(got.Err, s.ExpectedError), got, nil
	}
	return got.Err == "" && got.Value == s.ExpectedValue, got, nil
}

func strategyOf(s string) runtime.Strategy {
	switch s {
	case "ast":
		return runtime.StrategyASTWalker
	case "ir-fallback":
		return runtime.StrategyIRWithASTFallback
	default:
		return runtime.StrategyIR
	}
}

func levelOf(s string) optimize.Level {
	switch s {
	case "none":
		return optimize.None
	case "aggressive":
		return optimize.Aggressive
	default:
		return optimize.Basic
	}
}
