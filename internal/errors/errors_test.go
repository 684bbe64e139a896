package errors_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtfs-lang/rtfs/internal/errors"
)

func TestKindStringNames(t *testing.T) {
	require.Equal(t, "TypeError", errors.KindTypeError.String())
	require.Equal(t, "DivisionByZero", errors.KindDivisionByZero.String())
}

func TestConstructorsSetPhaseAndCode(t *testing.T) {
	cases := []struct {
		name  string
		rep   *errors.Report
		phase string
		code  string
		kind  errors.Kind
	}{
		{"type", errors.TypeError("int", "string", "+"), "eval", "TYP001", errors.KindTypeError},
		{"undefined", errors.UndefinedSymbol("foo"), "eval", "SYM001", errors.KindUndefinedSymbol},
		{"arity", errors.ArityMismatch("f", "exactly 2", 3), "eval", "ARI001", errors.KindArityMismatch},
		{"div0", errors.DivisionByZero(), "eval", "DIV001", errors.KindDivisionByZero},
		{"idx", errors.IndexOutOfBounds(5, 3), "eval", "IDX001", errors.KindIndexOutOfBounds},
		{"key", errors.KeyNotFound(":missing"), "eval", "KEY001", errors.KindKeyNotFound},
		{"resource", errors.ResourceError("File", "use after release"), "eval", "RES001", errors.KindResourceError},
		{"io", errors.IoError("disk full"), "eval", "IO001", errors.KindIoError},
		{"modfile", errors.ModuleFileNotFound("a.b"), "module", "MOD001", errors.KindModuleError},
		{"modcycle", errors.CircularDependency("a", []string{"a", "b", "a"}), "module", "MOD002", errors.KindModuleError},
		{"modmismatch", errors.ModuleNameMismatch("x", "y"), "module", "MOD003", errors.KindModuleError},
		{"modqual", errors.UnresolvedQualified("m", "x"), "module", "MOD004", errors.KindModuleError},
		{"invalidarg", errors.InvalidArgument("bad arg"), "eval", "ARG001", errors.KindInvalidArgument},
		{"match", errors.MatchError("no clause"), "eval", "MAT001", errors.KindMatchError},
		{"app", errors.ApplicationError(":custom", "boom", nil), "eval", "APP001", errors.KindApplicationError},
		{"nimp", errors.NotImplemented("tbd"), "eval", "NIM001", errors.KindNotImplemented},
		{"ncall", errors.NotCallable("not a fn"), "eval", "NCL001", errors.KindNotCallable},
		{"invprog", errors.InvalidProgram("bad ir"), "eval", "PRG001", errors.KindInvalidProgram},
		{"internal", errors.InternalError("oops"), "eval", "INT001", errors.KindInternalError},
		{"cnv1", errors.ConvUnresolvedIdentifier("x"), "convert", "CNV001", errors.KindUndefinedSymbol},
		{"cnv2", errors.ConvArityMismatch("fn type", 2, 3), "convert", "CNV002", errors.KindArityMismatch},
		{"cnv3", errors.ConvIllegalPattern("bad shape"), "convert", "CNV003", errors.KindInvalidProgram},
		{"cnv4", errors.ConvDuplicateBinding("x"), "convert", "CNV004", errors.KindInvalidProgram},
		{"cnv5", errors.ConvUnknownTypeAlias("Foo"), "convert", "CNV005", errors.KindInvalidProgram},
		{"cnv6", errors.ConvCyclicTypeAlias("Foo"), "convert", "CNV006", errors.KindInvalidProgram},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.phase, tc.rep.Phase)
			require.Equal(t, tc.code, tc.rep.Code)
			require.Equal(t, tc.kind, tc.rep.Kind)
			require.Equal(t, "rtfs.error/v1", tc.rep.Schema)
			require.NotEmpty(t, tc.rep.Message)
		})
	}
}

func TestWrapAndAsReportRoundTrip(t *testing.T) {
	rep := errors.DivisionByZero()
	err := errors.Wrap(rep)
	require.Error(t, err)

	got, ok := errors.AsReport(err)
	require.True(t, ok)
	require.Same(t, rep, got)
}

func TestWrapNilReportIsNilError(t *testing.T) {
	require.NoError(t, errors.Wrap(nil))
}

type fakeError struct{}

func (fakeError) Error() string { return "fake" }

func TestAsReportRejectsForeignError(t *testing.T) {
	_, ok := errors.AsReport(fakeError{})
	require.False(t, ok)
}

func TestReportErrorMessageFormat(t *testing.T) {
	rep := errors.UndefinedSymbol("x")
	err := errors.Wrap(rep)
	require.Equal(t, "SYM001: undefined symbol: x", err.Error())
}

func TestToJSONEncodesCodeAndPhase(t *testing.T) {
	rep := errors.ArityMismatch("f", "exactly 2", 3)
	js, err := rep.ToJSON()
	require.NoError(t, err)
	require.Contains(t, js, `"code":"ARI001"`)
	require.Contains(t, js, `"phase":"eval"`)
}

func TestCircularDependencyCarriesPath(t *testing.T) {
	rep := errors.CircularDependency("a", []string{"a", "b", "a"})
	require.Equal(t, []string{"a", "b", "a"}, rep.Data["path"])
}
