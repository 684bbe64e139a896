// Package module implements the file-based module registry: resolving a
// module name to a source file across a set of search roots, loading its
// dependencies before itself (so qualified symbols resolve during
// conversion), converting it to IR, and evaluating it to produce the
// values its exports name.
package module

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rtfs-lang/rtfs/internal/ast"
	"github.com/rtfs-lang/rtfs/internal/convert"
	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/eval"
	"github.com/rtfs-lang/rtfs/internal/ir"
)

// Parser is the collaborator that turns source bytes into a parsed module
// form. The registry never parses text itself; the embedder (and the
// package's own tests) supply the real parser.
type Parser interface {
	Parse(src []byte, path string) (ast.Node, error)
}

// Module is one loaded, converted, and evaluated compilation unit.
type Module struct {
	Name         string
	Exports      []string
	Dependencies []string
	Path         string
	IR           *ir.Module
	values       map[string]eval.Value
}

// Registry resolves, loads, converts, and evaluates modules by name,
// caching each one after its first load so a module imported by several
// others is converted and evaluated exactly once.
type Registry struct {
	roots     []string
	parser    Parser
	globals   convert.Globals
	rootEnv   *eval.Environment
	evaluator *eval.Evaluator
	modules   map[string]*Module
	loading   map[string]bool // cycle detection
	loadOrder []string        // declaration order of the in-progress load chain, for CircularDependency diagnostics
}

// NewRegistry constructs a registry that searches roots in order, uses
// parser to parse whatever file it finds, and converts and evaluates
// every module against globals and rootEnv — the same id allocator,
// primitive-id table, and primitive-populated environment the embedding
// runtime built for top-level code.
func NewRegistry(roots []string, parser Parser, globals convert.Globals, rootEnv *eval.Environment) *Registry {
	r := &Registry{
		roots:   roots,
		parser:  parser,
		globals: globals,
		rootEnv: rootEnv,
		modules: make(map[string]*Module),
		loading: make(map[string]bool),
	}
	r.evaluator = eval.NewEvaluator(r, nil)
	return r
}

// SetLogger installs the host logger the evaluator forwards log-step calls
// to while evaluating module bodies.
func (r *Registry) SetLogger(l eval.Logger) {
	r.evaluator.SetLogger(l)
}

// resolvePath turns a module name like "collections.vector" into a
// candidate file path under each search root, trying roots in declared
// order and returning the first that exists.
func (r *Registry) resolvePath(name string) (string, bool) {
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".rtfs"
	for _, root := range r.roots {
		candidate := filepath.Join(root, rel)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// EnsureLoaded loads, converts, and evaluates name (and everything it
// transitively imports) if it has not been loaded already. Implements
// convert.ModuleLookup.
func (r *Registry) EnsureLoaded(name string) *errors.Report {
	if _, ok := r.modules[name]; ok {
		return nil
	}
	if r.loading[name] {
		return errors.CircularDependency(name, append(append([]string{}, r.loadOrder...), name))
	}

	path, ok := r.resolvePath(name)
	if !ok {
		return errors.ModuleFileNotFound(name)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.ModuleFileNotFound(name)
	}
	node, perr := r.parser.Parse(src, path)
	if perr != nil {
		return errors.ModuleFileNotFound(name + ": " + perr.Error())
	}
	mf, ok := node.(*ast.ModuleForm)
	if !ok {
		return errors.ModuleNameMismatch("<non-module file>", name)
	}
	if mf.Name != name {
		return errors.ModuleNameMismatch(mf.Name, name)
	}

	r.loading[name] = true
	r.loadOrder = append(r.loadOrder, name)
	defer func() {
		delete(r.loading, name)
		r.loadOrder = r.loadOrder[:len(r.loadOrder)-1]
	}()

	var deps []string
	for _, form := range mf.Body {
		imp, ok := form.(*ast.Import)
		if !ok {
			continue
		}
		deps = append(deps, imp.ModuleName)
		if err := r.EnsureLoaded(imp.ModuleName); err != nil {
			return err
		}
	}

	compiled, cerr := convert.ConvertModule(r, r.globals, mf)
	if cerr != nil {
		return cerr
	}

	env := r.rootEnv.Child()
	if _, eerr := r.evaluator.Eval(compiled, env); eerr != nil {
		return eerr
	}

	values := make(map[string]eval.Value, len(compiled.Exports))
	for _, exported := range compiled.Exports {
		id, found := definitionBindingID(compiled, exported)
		if !found {
			continue
		}
		if v, ok := env.LookupID(id); ok {
			values[exported] = v
		}
	}

	r.modules[name] = &Module{Name: name, Exports: compiled.Exports, Dependencies: deps, Path: path, IR: compiled, values: values}
	return nil
}

func definitionBindingID(m *ir.Module, name string) (uint64, bool) {
	for _, def := range m.Definitions {
		switch d := def.(type) {
		case *ir.FunctionDef:
			if d.Name == name {
				return d.BindingID, true
			}
		case *ir.VariableDef:
			if d.Name == name {
				return d.BindingID, true
			}
		}
	}
	return 0, false
}

// HasExport implements convert.ModuleLookup.
func (r *Registry) HasExport(moduleName, name string) bool {
	m, ok := r.modules[moduleName]
	if !ok {
		return false
	}
	for _, e := range m.Exports {
		if e == name {
			return true
		}
	}
	return false
}

// ResolveExport implements eval.ModuleResolver.
func (r *Registry) ResolveExport(moduleName, name string) (eval.Value, *errors.Report) {
	if err := r.EnsureLoaded(moduleName); err != nil {
		return nil, err
	}
	m, ok := r.modules[moduleName]
	if !ok {
		return nil, errors.ModuleFileNotFound(moduleName)
	}
	v, ok := m.values[name]
	if !ok {
		return nil, errors.UnresolvedQualified(moduleName, name)
	}
	return v, nil
}

// Get returns the already-loaded module, if any.
func (r *Registry) Get(name string) (*Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}
