package convert

import (
	"github.com/rtfs-lang/rtfs/internal/ast"
	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/ir"
)

// ConvertModule compiles one parsed module file into IR. It is the entry
// point internal/module calls for every file it loads.
func ConvertModule(registry ModuleLookup, g Globals, mf *ast.ModuleForm) (*ir.Module, *errors.Report) {
	c := NewContext(registry, g.NextID)
	for name, id := range g.Primitives {
		c.SeedPrimitive(name, id)
	}
	n, err := c.convertModuleForm(mf)
	if err != nil {
		return nil, err
	}
	return n.(*ir.Module), nil
}

// convertModuleForm compiles a module's body. Definitions convert in
// declaration order, each later one able to see earlier ones (and, for a
// defn, itself) — the same semantics as a top-level program. An explicit
// :exports list is honored verbatim; omitting it exports every def/defn
// the module declares, so a one-off script module needs no export
// boilerplate.
func (c *Context) convertModuleForm(e *ast.ModuleForm) (ir.Node, *errors.Report) {
	c.pushScope()
	defer c.popScope()

	defs := make([]ir.Node, 0, len(e.Body))
	var declared []string
	for _, form := range e.Body {
		n, err := c.Convert(form)
		if err != nil {
			return nil, err
		}
		defs = append(defs, n)
		switch d := n.(type) {
		case *ir.FunctionDef:
			declared = append(declared, d.Name)
		case *ir.VariableDef:
			declared = append(declared, d.Name)
		}
	}

	exports := e.Exports
	if len(exports) == 0 {
		exports = declared
	}

	return &ir.Module{
		Base:        ir.Base{NodeID: c.allocID(), Position: e.Pos},
		Name:        e.Name,
		Exports:     exports,
		Definitions: defs,
	}, nil
}
