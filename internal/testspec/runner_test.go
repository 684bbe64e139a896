package testspec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_Success(t *testing.T) {
	s := &Scenario{ID: "add", Source: "(+ 1 2)", Strategy: "ir", OptimizeLevel: "basic"}
	out, err := Run(s)
	require.NoError(t, err)
	require.Empty(t, out.Err)
	require.Equal(t, "3", out.Value)
}

func TestRun_ASTWalkerMatchesIR(t *testing.T) {
	src := "(if true 42 0)"
	ir, err := Run(&Scenario{ID: "if-ir", Source: src, Strategy: "ir"})
	require.NoError(t, err)
	ast, err := Run(&Scenario{ID: "if-ast", Source: src, Strategy: "ast"})
	require.NoError(t, err)
	require.Equal(t, ir.Value, ast.Value)
}

func TestRun_UndefinedSymbolError(t *testing.T) {
	s := &Scenario{ID: "undef", Source: "unbound-name", Strategy: "ir"}
	out, err := Run(s)
	require.NoError(t, err)
	require.NotEmpty(t, out.Err)
}

func TestCheck_ExpectedError(t *testing.T) {
	s := &Scenario{ID: "divzero", Source: "(/ 1 0)", Strategy: "ir", ExpectedError: "division"}
	ok, _, err := Check(s)
	require.NoError(t, err)
	require.True(t, ok)
}
