// Package ast defines the surface syntax tree consumed by the converter.
//
// Nothing in this package parses source text: the parser is an external
// collaborator that the core treats as an opaque producer of these nodes.
package ast

import "fmt"

// Pos is a source location, carried through to IR for diagnostics.
type Pos struct {
	Line   int
	Column int
	File   string
}

func (p Pos) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column) }

// Node is the base interface implemented by every AST node.
type Node interface {
	Position() Pos
	String() string
}

// Expr is any RTFS expression, including literals, symbols and special forms.
type Expr interface {
	Node
	exprNode()
}

// LiteralKind enumerates the primitive literal variants.
type LiteralKind int

const (
	IntLit LiteralKind = iota
	FloatLit
	StringLit
	BoolLit
	NilLit
)

// Literal is an integer, float, string, bool or nil constant.
type Literal struct {
	Kind  LiteralKind
	Value interface{}
	Pos   Pos
}

func (l *Literal) Position() Pos  { return l.Pos }
func (l *Literal) String() string { return fmt.Sprintf("%v", l.Value) }
func (l *Literal) exprNode()      {}

// Symbol is an identifier, optionally namespaced as "ns/name".
type Symbol struct {
	Name string
	Pos  Pos
}

func (s *Symbol) Position() Pos  { return s.Pos }
func (s *Symbol) String() string { return s.Name }
func (s *Symbol) exprNode()      {}

// Keyword is a self-evaluating tag, written ":name".
type Keyword struct {
	Name string
	Pos  Pos
}

func (k *Keyword) Position() Pos  { return k.Pos }
func (k *Keyword) String() string { return ":" + k.Name }
func (k *Keyword) exprNode()      {}

// Vector is a fixed-order sequence literal.
type Vector struct {
	Elements []Expr
	Pos      Pos
}

func (v *Vector) Position() Pos  { return v.Pos }
func (v *Vector) String() string { return fmt.Sprintf("%v", v.Elements) }
func (v *Vector) exprNode()      {}

// MapEntry is one key/value pair of a map literal; Key is a keyword, string
// or integer literal expression.
type MapEntry struct {
	Key   Expr
	Value Expr
}

// MapExpr is a map literal. Keys must be keyword, string or integer.
type MapExpr struct {
	Entries []MapEntry
	Pos     Pos
}

func (m *MapExpr) Position() Pos  { return m.Pos }
func (m *MapExpr) String() string { return fmt.Sprintf("%v", m.Entries) }
func (m *MapExpr) exprNode()      {}

// List is an unevaluated list literal (distinct from function application,
// which is represented as Apply).
type List struct {
	Elements []Expr
	Pos      Pos
}

func (l *List) Position() Pos  { return l.Pos }
func (l *List) String() string { return fmt.Sprintf("%v", l.Elements) }
func (l *List) exprNode()      {}

// Apply is function application: (f a b c).
type Apply struct {
	Fn   Expr
	Args []Expr
	Pos  Pos
}

func (a *Apply) Position() Pos  { return a.Pos }
func (a *Apply) String() string { return fmt.Sprintf("(%s %v)", a.Fn, a.Args) }
func (a *Apply) exprNode()      {}

// If is a conditional. Else is nil when omitted.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
	Pos  Pos
}

func (i *If) Position() Pos  { return i.Pos }
func (i *If) String() string { return fmt.Sprintf("(if %s %s %s)", i.Cond, i.Then, i.Else) }
func (i *If) exprNode()      {}

// Do evaluates a sequence of expressions, yielding the last.
type Do struct {
	Exprs []Expr
	Pos   Pos
}

func (d *Do) Position() Pos  { return d.Pos }
func (d *Do) String() string { return fmt.Sprintf("(do %v)", d.Exprs) }
func (d *Do) exprNode()      {}

// Binding is one (pattern, optional type, init) triple in a let form.
type Binding struct {
	Pattern Pattern
	Type    TypeExpr // nil if unannotated
	Init    Expr
}

// Let introduces bindings visible to later bindings and to the body.
type Let struct {
	Bindings []Binding
	Body     []Expr
	Pos      Pos
}

func (l *Let) Position() Pos  { return l.Pos }
func (l *Let) String() string { return fmt.Sprintf("(let %v %v)", l.Bindings, l.Body) }
func (l *Let) exprNode()      {}

// FnParam is one formal parameter of a fn form.
type FnParam struct {
	Pattern Pattern
	Type    TypeExpr
}

// Fn is a lambda expression.
type Fn struct {
	Params       []FnParam
	VariadicName string // empty if no variadic tail
	VariadicType TypeExpr
	ReturnType   TypeExpr
	Body         []Expr
	Pos          Pos
}

func (f *Fn) Position() Pos  { return f.Pos }
func (f *Fn) String() string { return fmt.Sprintf("(fn %v %v)", f.Params, f.Body) }
func (f *Fn) exprNode()      {}

// Def binds a single top-level or module-level name.
type Def struct {
	Name  string
	Type  TypeExpr
	Value Expr
	Pos   Pos
}

func (d *Def) Position() Pos  { return d.Pos }
func (d *Def) String() string { return fmt.Sprintf("(def %s %s)", d.Name, d.Value) }
func (d *Def) exprNode()      {}

// Defn is sugar for (def name (fn ...)).
type Defn struct {
	Name         string
	Params       []FnParam
	VariadicName string
	VariadicType TypeExpr
	ReturnType   TypeExpr
	Body         []Expr
	Pos          Pos
}

func (d *Defn) Position() Pos  { return d.Pos }
func (d *Defn) String() string { return fmt.Sprintf("(defn %s %v)", d.Name, d.Body) }
func (d *Defn) exprNode()      {}

// ParallelBinding is one [symbol expr] pair inside a parallel form.
type ParallelBinding struct {
	Name string
	Type TypeExpr
	Expr Expr
}

// Parallel evaluates its bindings independently, joining before returning.
type Parallel struct {
	Bindings []ParallelBinding
	Pos      Pos
}

func (p *Parallel) Position() Pos  { return p.Pos }
func (p *Parallel) String() string { return fmt.Sprintf("(parallel %v)", p.Bindings) }
func (p *Parallel) exprNode()      {}

// WithResource scopes a resource handle's lifetime to the body.
type WithResource struct {
	Name string
	Type TypeExpr
	Init Expr
	Body []Expr
	Pos  Pos
}

func (w *WithResource) Position() Pos  { return w.Pos }
func (w *WithResource) String() string { return fmt.Sprintf("(with-resource [%s] %v)", w.Name, w.Body) }
func (w *WithResource) exprNode()      {}

// CatchPatternKind distinguishes the three catch-clause selector shapes.
type CatchPatternKind int

const (
	CatchByKeyword CatchPatternKind = iota
	CatchByType
	CatchBySymbol // catch-all, also performs the binding
)

// CatchPattern selects which errors a catch clause handles.
type CatchPattern struct {
	Kind    CatchPatternKind
	Keyword string
	Type    TypeExpr
}

// CatchClause is one (catch pattern binding body...) clause.
type CatchClause struct {
	Pattern CatchPattern
	Binding string
	Body    []Expr
}

// TryCatch runs Try, dispatches errors to the first matching clause, and
// always runs Finally (if present) regardless of outcome.
type TryCatch struct {
	Try     []Expr
	Catches []CatchClause
	Finally []Expr // nil if absent
	Pos     Pos
}

func (t *TryCatch) Position() Pos  { return t.Pos }
func (t *TryCatch) String() string { return fmt.Sprintf("(try %v catch %v)", t.Try, t.Catches) }
func (t *TryCatch) exprNode()      {}

// MatchClause is one (pattern (when guard)? body...) clause.
type MatchClause struct {
	Pattern MatchPattern
	Guard   Expr // nil if absent
	Body    []Expr
}

// Match tries clauses top to bottom against a scrutinee.
type Match struct {
	Scrutinee Expr
	Clauses   []MatchClause
	Pos       Pos
}

func (m *Match) Position() Pos  { return m.Pos }
func (m *Match) String() string { return fmt.Sprintf("(match %s %v)", m.Scrutinee, m.Clauses) }
func (m *Match) exprNode()      {}

// LogStep forwards (level, id, values) to the host logger and returns the
// value of its inner expression.
type LogStep struct {
	Level  string
	ID     string
	Values []Expr
	Inner  Expr
	Pos    Pos
}

func (l *LogStep) Position() Pos  { return l.Pos }
func (l *LogStep) String() string { return fmt.Sprintf("(log-step :%s %s)", l.Level, l.Inner) }
func (l *LogStep) exprNode()      {}

// ModuleForm is a top-level module: its own name, optional export list, and
// a body of def/defn/import forms.
type ModuleForm struct {
	Name    string
	Exports []string // empty = export every def/defn in Body
	Body    []Expr   // Def, Defn, Import
	Pos     Pos
}

func (m *ModuleForm) Position() Pos  { return m.Pos }
func (m *ModuleForm) String() string { return fmt.Sprintf("(module %s)", m.Name) }
func (m *ModuleForm) exprNode()      {}

// Import is a module-level import declaration.
type Import struct {
	ModuleName string
	Alias      string // empty if none
	Pos        Pos
}

func (i *Import) Position() Pos  { return i.Pos }
func (i *Import) String() string { return fmt.Sprintf("(import %s)", i.ModuleName) }
func (i *Import) exprNode()      {}

// Task is a top-level scripted automation unit carrying intent/contracts/plan
// sub-expressions plus free-form metadata.
type Task struct {
	TaskID   string
	Metadata map[string]Expr
	Intent   Expr
	Contract Expr
	Plan     Expr
	Pos      Pos
}

func (t *Task) Position() Pos  { return t.Pos }
func (t *Task) String() string { return fmt.Sprintf("(task %s)", t.TaskID) }
func (t *Task) exprNode()      {}

// TaskContextAccess reads a field off the ambient task context, written
// "@field" in surface syntax.
type TaskContextAccess struct {
	Field string
	Pos   Pos
}

func (t *TaskContextAccess) Position() Pos  { return t.Pos }
func (t *TaskContextAccess) String() string { return "@" + t.Field }
func (t *TaskContextAccess) exprNode()      {}
