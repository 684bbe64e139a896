package convert_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtfs-lang/rtfs/internal/ast"
	"github.com/rtfs-lang/rtfs/internal/convert"
	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/ir"
	"github.com/rtfs-lang/rtfs/internal/parser"
	"github.com/rtfs-lang/rtfs/internal/types"
)

func convertSrc(t *testing.T, src string) []ir.Node {
	t.Helper()
	p := parser.New()
	forms, err := p.ParseProgram([]byte(src), "t.rtfs")
	require.NoError(t, err)
	prog, cerr := convert.ConvertProgram(nil, convert.Globals{}, forms)
	require.Nil(t, cerr)
	return prog.Forms
}

func mustConvertErr(t *testing.T, src string) *errors.Report {
	t.Helper()
	p := parser.New()
	forms, err := p.ParseProgram([]byte(src), "t.rtfs")
	require.NoError(t, err)
	_, cerr := convert.ConvertProgram(nil, convert.Globals{}, forms)
	require.NotNil(t, cerr)
	return cerr
}

func TestConvertLiteral(t *testing.T) {
	forms := convertSrc(t, "42")
	lit, ok := forms[0].(*ir.Literal)
	require.True(t, ok)
	require.Equal(t, int64(42), lit.Value)
}

func TestConvertUnresolvedSymbolFails(t *testing.T) {
	cerr := mustConvertErr(t, "undefined-name")
	require.Equal(t, errors.KindUndefinedSymbol, cerr.Kind)
}

func TestConvertLetBindingResolvesReference(t *testing.T) {
	forms := convertSrc(t, "(let [x 1] x)")
	let, ok := forms[0].(*ir.Let)
	require.True(t, ok)
	require.Len(t, let.Bindings, 1)

	ref, ok := let.Body[0].(*ir.VariableRef)
	require.True(t, ok)
	require.Equal(t, let.Bindings[0].Binding.NodeID, ref.BindingID)
}

func TestConvertLetVectorDestructuring(t *testing.T) {
	// [a b & rest] over a four-element vector expands to a temp binding for
	// the vector plus three flattened bindings (index 0, index 1,
	// rest-from-2), all resolvable in the body.
	forms := convertSrc(t, "(let [[a b & rest] [1 2 3 4]] a)")
	let := forms[0].(*ir.Let)
	require.Len(t, let.Bindings, 4)

	var sawRest bool
	for _, b := range let.Bindings {
		if idx, ok := b.Init.(*ir.VectorIndex); ok && idx.FromRest {
			sawRest = true
		}
	}
	require.True(t, sawRest)
}

func TestConvertLetMapDestructuringWithDefaults(t *testing.T) {
	forms := convertSrc(t, `(let [{:keys [a b] :or {b 2}} {:a 1}] a)`)
	let := forms[0].(*ir.Let)
	require.Len(t, let.Bindings, 3)
	_, isMap := let.Bindings[0].Init.(*ir.MapLit)
	require.True(t, isMap)
	for _, b := range let.Bindings[1:] {
		_, ok := b.Init.(*ir.MapLookup)
		require.True(t, ok)
	}
}

func TestConvertDuplicateBindingInPatternFails(t *testing.T) {
	cerr := mustConvertErr(t, "(let [[a a] [1 2]] a)")
	require.Equal(t, errors.KindInvalidProgram, cerr.Kind)
}

func TestConvertLambdaCaptures(t *testing.T) {
	// y is free in the lambda body, x is bound by the parameter list, so
	// Captures must name exactly y.
	forms := convertSrc(t, "(let [y 1] (fn [x] y))")
	let := forms[0].(*ir.Let)
	lambda, ok := let.Body[0].(*ir.Lambda)
	require.True(t, ok)
	require.Len(t, lambda.Captures, 1)
	require.Equal(t, "y", lambda.Captures[0].Name)
	require.Equal(t, let.Bindings[0].Binding.NodeID, lambda.Captures[0].BindingID)
}

func TestConvertLambdaDoesNotCaptureOwnParam(t *testing.T) {
	forms := convertSrc(t, "(fn [x] x)")
	lambda := forms[0].(*ir.Lambda)
	require.Empty(t, lambda.Captures)
}

func TestConvertLambdaDoesNotCaptureLocalLet(t *testing.T) {
	forms := convertSrc(t, "(fn [x] (let [y 1] y))")
	lambda := forms[0].(*ir.Lambda)
	require.Empty(t, lambda.Captures)
}

func TestConvertNestedLambdaCapturesOuterParam(t *testing.T) {
	// (fn [x] (fn [y] x)) — the inner lambda captures x from the outer.
	forms := convertSrc(t, "(fn [x] (fn [y] x))")
	outer := forms[0].(*ir.Lambda)
	inner, ok := outer.Body.(*ir.Lambda)
	require.True(t, ok)
	require.Len(t, inner.Captures, 1)
	require.Equal(t, "x", inner.Captures[0].Name)
}

func TestConvertDefnSelfRecursion(t *testing.T) {
	// The function's own name is in scope while converting its body, so a
	// direct recursive call resolves without error.
	forms := convertSrc(t, "(defn fact [n] (fact n))")
	def, ok := forms[0].(*ir.FunctionDef)
	require.True(t, ok)
	apply := def.Lambda.Body.(*ir.Apply)
	ref := apply.Fn.(*ir.VariableRef)
	require.Equal(t, def.BindingID, ref.BindingID)
}

// fakeRegistry implements convert.ModuleLookup for qualified-symbol tests.
type fakeRegistry struct {
	loaded  map[string]bool
	exports map[string][]string
	loadErr *errors.Report
}

func (f *fakeRegistry) EnsureLoaded(name string) *errors.Report {
	if f.loadErr != nil {
		return f.loadErr
	}
	if f.loaded == nil {
		f.loaded = map[string]bool{}
	}
	f.loaded[name] = true
	return nil
}

func (f *fakeRegistry) HasExport(moduleName, name string) bool {
	for _, e := range f.exports[moduleName] {
		if e == name {
			return true
		}
	}
	return false
}

func TestConvertQualifiedSymbolResolvesThroughRegistry(t *testing.T) {
	reg := &fakeRegistry{exports: map[string][]string{"math.utils": {"add"}}}
	p := parser.New()
	forms, err := p.ParseProgram([]byte("math.utils/add"), "t.rtfs")
	require.NoError(t, err)

	prog, cerr := convert.ConvertProgram(reg, convert.Globals{}, forms)
	require.Nil(t, cerr)
	ref, ok := prog.Forms[0].(*ir.ModuleRef)
	require.True(t, ok)
	require.Equal(t, "math.utils", ref.ModuleName)
	require.Equal(t, "add", ref.Name)
	require.True(t, reg.loaded["math.utils"])
}

func TestConvertQualifiedSymbolMissingExportFails(t *testing.T) {
	reg := &fakeRegistry{exports: map[string][]string{"math.utils": {"sub"}}}
	p := parser.New()
	forms, err := p.ParseProgram([]byte("math.utils/add"), "t.rtfs")
	require.NoError(t, err)

	_, cerr := convert.ConvertProgram(reg, convert.Globals{}, forms)
	require.NotNil(t, cerr)
	require.Equal(t, errors.KindUndefinedSymbol, cerr.Kind)
}

func TestConvertQualifiedSymbolLoadFailurePropagates(t *testing.T) {
	reg := &fakeRegistry{loadErr: errors.ModuleFileNotFound("math.utils")}
	p := parser.New()
	forms, err := p.ParseProgram([]byte("math.utils/add"), "t.rtfs")
	require.NoError(t, err)

	_, cerr := convert.ConvertProgram(reg, convert.Globals{}, forms)
	require.NotNil(t, cerr)
	require.Equal(t, errors.KindModuleError, cerr.Kind)
}

func TestConvertImportAlias(t *testing.T) {
	reg := &fakeRegistry{exports: map[string][]string{"collections.vector": {"push"}}}
	p := parser.New()
	forms, err := p.ParseProgram([]byte(`(import collections.vector :as vec) vec/push`), "t.rtfs")
	require.NoError(t, err)

	prog, cerr := convert.ConvertProgram(reg, convert.Globals{}, forms)
	require.Nil(t, cerr)
	ref := prog.Forms[1].(*ir.ModuleRef)
	require.Equal(t, "collections.vector", ref.ModuleName)
}

func TestConvertModuleExplicitExports(t *testing.T) {
	p := parser.New()
	forms, err := p.ParseProgram([]byte(`
		(module math.utils :exports [add]
		  (defn add [x y] (+ x y))
		  (defn internal-helper [] 1))
	`), "t.rtfs")
	require.NoError(t, err)
	mf := forms[0].(*ast.ModuleForm)

	m, cerr := convert.ConvertModule(nil, convert.Globals{Primitives: map[string]uint64{"+": 900}}, mf)
	require.Nil(t, cerr)
	require.Equal(t, []string{"add"}, m.Exports)
	require.Len(t, m.Definitions, 2)
}

func TestConvertModuleDefaultExportsEverything(t *testing.T) {
	p := parser.New()
	forms, err := p.ParseProgram([]byte(`
		(module math.utils
		  (defn add [x y] (+ x y))
		  (defn sub [x y] (+ x y)))
	`), "t.rtfs")
	require.NoError(t, err)
	mf := forms[0].(*ast.ModuleForm)

	m, cerr := convert.ConvertModule(nil, convert.Globals{Primitives: map[string]uint64{"+": 900}}, mf)
	require.Nil(t, cerr)
	require.ElementsMatch(t, []string{"add", "sub"}, m.Exports)
}

func TestConvertSeededPrimitiveResolves(t *testing.T) {
	p := parser.New()
	forms, err := p.ParseProgram([]byte("(+ 1 2)"), "t.rtfs")
	require.NoError(t, err)

	globals := convert.Globals{Primitives: map[string]uint64{"+": 777}}
	prog, cerr := convert.ConvertProgram(nil, globals, forms)
	require.Nil(t, cerr)
	apply := prog.Forms[0].(*ir.Apply)
	ref := apply.Fn.(*ir.VariableRef)
	require.Equal(t, uint64(777), ref.BindingID)
}

func TestConvertUnknownTypeAliasInLetFails(t *testing.T) {
	cerr := mustConvertErr(t, "(let [(typed x UnknownAlias) 1] x)")
	require.Equal(t, errors.KindInvalidProgram, cerr.Kind)
}

func TestConvertCyclicTypeAliasFails(t *testing.T) {
	c := convert.NewContext(nil, nil)
	c.DefineAlias("A", types.Type{Kind: types.KAlias, AliasName: "B"})
	c.DefineAlias("B", types.Type{Kind: types.KAlias, AliasName: "A"})

	p := parser.New()
	form, err := p.ParseOne([]byte("(let [(typed x A) 1] x)"), "t.rtfs")
	require.NoError(t, err)

	_, cerr := c.Convert(form)
	require.NotNil(t, cerr)
	require.Equal(t, errors.KindInvalidProgram, cerr.Kind)
}

func TestConvertNodeIDsAreUnique(t *testing.T) {
	forms := convertSrc(t, "(let [x 1 y 2] [x y])")
	seen := map[uint64]bool{}
	var walk func(n ir.Node)
	walk = func(n ir.Node) {
		ir.Visit(n, func(inner ir.Node) {
			require.False(t, seen[inner.ID()], "duplicate node id %d", inner.ID())
			seen[inner.ID()] = true
		})
	}
	for _, f := range forms {
		walk(f)
	}
}

func TestConvertFnBodyWrapsMultipleExprsInDo(t *testing.T) {
	forms := convertSrc(t, "(fn [x] 1 2 x)")
	lambda := forms[0].(*ir.Lambda)
	do, ok := lambda.Body.(*ir.Do)
	require.True(t, ok)
	require.Len(t, do.Exprs, 3)
}
