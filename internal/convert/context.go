// Package convert implements the AST→IR converter: name resolution
// (including namespaced module references), type resolution, and closure
// (capture) analysis.
package convert

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/types"
)

// ModuleLookup is the collaborator the converter consults to resolve a
// qualified "ns/name" reference at conversion time. internal/module
// implements it; keeping it as an interface here avoids a
// convert<->module import cycle (the module registry itself calls into
// convert to compile what it loads).
type ModuleLookup interface {
	EnsureLoaded(moduleName string) *errors.Report
	HasExport(moduleName, name string) bool
}

// scope is one frame of the lexical binding-resolution chain. level is a
// per-Context monotonic counter (Context.levelSeq) used purely to compare "was this binding
// established before this lambda's parameter scope" for capture analysis;
// it is not a true nesting depth.
type scope struct {
	parent *scope
	vars   map[string]uint64 // surface name -> binding id
	level  int
}

// lambdaFrame accumulates the free-variable (capture) set for one lambda
// currently being converted. startLevel is the level of the scope pushed
// for its parameters: any binding resolved at a lower level is free.
type lambdaFrame struct {
	startLevel int
	order      []string
	seen       map[uint64]bool
	captures   []capturedVar
}

type capturedVar struct {
	name string
	id   uint64
	typ  types.Type
}

// Context threads converter state through a single compilation unit: the
// lexical scope stack, the module registry handle, the type-alias table,
// and a monotonic node-id counter.
type Context struct {
	cur        *scope
	levelSeq   int
	lambdas    []*lambdaFrame
	registry   ModuleLookup
	aliases    map[string]types.Type
	aliasStack []string // cycle detection while resolving an alias chain
	nextID     func() uint64
	tempSeq    int
	imports    map[string]string // import alias -> module name
}

// AddImport records name (or alias, if given) as resolving to moduleName for
// subsequent qualified-symbol conversion.
func (c *Context) AddImport(moduleName, alias string) {
	if c.imports == nil {
		c.imports = make(map[string]string)
	}
	key := alias
	if key == "" {
		key = moduleName
	}
	c.imports[key] = moduleName
}

// tempName produces a name for a synthetic destructuring temp binding. The
// leading "%" can never collide with a surface identifier, which the
// parser never produces starting with that character.
func (c *Context) tempName() string {
	c.tempSeq++
	return fmt.Sprintf("%%destructure%d", c.tempSeq)
}

// Globals bundles the cross-compilation-unit state every Context in a
// single runtime must share: the monotonic id allocator and the reserved
// ids of host-registered primitives (so a bare symbol like "+" resolves
// without an explicit import). A runtime builds one Globals when it wires
// up its root environment and reuses it for every program and module it
// subsequently converts.
type Globals struct {
	NextID     func() uint64
	Primitives map[string]uint64
}

// NewContext creates a fresh top-level conversion context. registry may be
// nil for standalone expression conversion with no qualified references.
// nextID supplies fresh, globally-unique binding/node ids; when nil, the
// context uses its own private counter starting at 1. A runtime wiring
// primitives into a shared root environment MUST pass the same allocator
// it used to seed those primitives (via SeedPrimitive) — otherwise a fresh
// per-context counter could mint an id that collides with a primitive's
// reserved id in that shared environment.
func NewContext(registry ModuleLookup, nextID func() uint64) *Context {
	if nextID == nil {
		var seq uint64
		nextID = func() uint64 {
			seq++
			return seq
		}
	}
	return &Context{
		cur:      &scope{vars: make(map[string]uint64), level: 0},
		registry: registry,
		aliases:  make(map[string]types.Type),
		nextID:   nextID,
	}
}

// DefineAlias registers a named type alias visible to later TypeExpr
// resolution.
func (c *Context) DefineAlias(name string, t types.Type) {
	c.aliases[name] = t
}

// SeedPrimitive defines a primitive's reserved id at the root scope so
// converted code referencing name by its surface symbol resolves to the
// shared binding the root environment already holds.
func (c *Context) SeedPrimitive(name string, id uint64) {
	c.cur.vars[name] = id
}

func (c *Context) allocID() uint64 {
	return c.nextID()
}

// pushScope opens a new lexical frame chained to the current one.
func (c *Context) pushScope() {
	c.levelSeq++
	c.cur = &scope{parent: c.cur, vars: make(map[string]uint64), level: c.levelSeq}
}

// popScope closes the innermost frame.
func (c *Context) popScope() {
	c.cur = c.cur.parent
}

// define introduces name -> id in the innermost frame.
func (c *Context) define(name string, id uint64) {
	c.cur.vars[name] = id
}

// resolve walks the scope chain for name, returning its binding id and the
// level of the frame that defined it.
func (c *Context) resolve(name string) (id uint64, level int, ok bool) {
	for s := c.cur; s != nil; s = s.parent {
		if id, found := s.vars[name]; found {
			return id, s.level, true
		}
	}
	return 0, 0, false
}

// recordUse notifies every open lambda frame whose parameter scope started
// after the resolved binding's level that this use is a capture — free
// variables of the body minus the parameters, computed as a single
// resolution-time bookkeeping pass instead of a post-hoc free-variable
// walk.
func (c *Context) recordUse(name string, id uint64, definedAtLevel int, typ types.Type) {
	for _, lf := range c.lambdas {
		if definedAtLevel >= lf.startLevel {
			continue // bound within (or by) this lambda itself
		}
		if lf.seen[id] {
			continue
		}
		lf.seen[id] = true
		lf.order = append(lf.order, name)
		lf.captures = append(lf.captures, capturedVar{name: name, id: id, typ: typ})
	}
}

// pushLambda opens a new capture-tracking frame; call after pushScope for
// the lambda's parameters.
func (c *Context) pushLambda() *lambdaFrame {
	lf := &lambdaFrame{startLevel: c.levelSeq, seen: make(map[uint64]bool)}
	c.lambdas = append(c.lambdas, lf)
	return lf
}

func (c *Context) popLambda() {
	c.lambdas = c.lambdas[:len(c.lambdas)-1]
}

// normalizeQualified applies Unicode NFC normalization to a namespaced
// symbol's two segments so visually identical but differently-encoded
// module/import names resolve to the same registry entry.
func normalizeQualified(ns, name string) (string, string) {
	return norm.NFC.String(ns), norm.NFC.String(name)
}
