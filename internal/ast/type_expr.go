package ast

import "fmt"

// TypeExpr is a surface type annotation, resolved structurally into
// types.Type by the converter.
type TypeExpr interface {
	Node
	typeExprNode()
}

// PrimitiveKind enumerates the built-in scalar type names.
type PrimitiveKind int

const (
	TInt PrimitiveKind = iota
	TFloat
	TString
	TBool
	TNil
	TKeyword
	TSymbol
)

// PrimitiveType is one of int|float|string|bool|nil|keyword|symbol.
type PrimitiveType struct {
	Kind PrimitiveKind
	Pos  Pos
}

func (t *PrimitiveType) Position() Pos  { return t.Pos }
func (t *PrimitiveType) String() string { return fmt.Sprintf("primitive(%d)", t.Kind) }
func (t *PrimitiveType) typeExprNode()  {}

// VectorType is [:vector Element].
type VectorType struct {
	Element TypeExpr
	Pos     Pos
}

func (t *VectorType) Position() Pos  { return t.Pos }
func (t *VectorType) String() string { return fmt.Sprintf("[:vector %s]", t.Element) }
func (t *VectorType) typeExprNode()  {}

// MapTypeEntry is one keyed, optionally-optional entry of a map type.
type MapTypeEntry struct {
	Key      string
	Value    TypeExpr
	Optional bool
}

// MapType is [:map [key Type optional?]... [:* Wildcard]?].
type MapType struct {
	Entries  []MapTypeEntry
	Wildcard TypeExpr // nil if absent
	Pos      Pos
}

func (t *MapType) Position() Pos  { return t.Pos }
func (t *MapType) String() string { return fmt.Sprintf("[:map %v]", t.Entries) }
func (t *MapType) typeExprNode()  {}

// FunctionType is a function's parameter, optional variadic tail, and
// return type.
type FunctionType struct {
	Params       []TypeExpr
	VariadicTail TypeExpr // nil if absent
	Return       TypeExpr
	Pos          Pos
}

func (t *FunctionType) Position() Pos  { return t.Pos }
func (t *FunctionType) String() string { return fmt.Sprintf("[:-> %v %s]", t.Params, t.Return) }
func (t *FunctionType) typeExprNode()  {}

// ResourceType is [:resource TypeTag].
type ResourceType struct {
	Tag string
	Pos Pos
}

func (t *ResourceType) Position() Pos  { return t.Pos }
func (t *ResourceType) String() string { return fmt.Sprintf("[:resource %s]", t.Tag) }
func (t *ResourceType) typeExprNode()  {}

// UnionType is [:or T1 T2 ...].
type UnionType struct {
	Options []TypeExpr
	Pos     Pos
}

func (t *UnionType) Position() Pos  { return t.Pos }
func (t *UnionType) String() string { return fmt.Sprintf("[:or %v]", t.Options) }
func (t *UnionType) typeExprNode()  {}

// IntersectionType is [:and T1 T2 ...].
type IntersectionType struct {
	Options []TypeExpr
	Pos     Pos
}

func (t *IntersectionType) Position() Pos  { return t.Pos }
func (t *IntersectionType) String() string { return fmt.Sprintf("[:and %v]", t.Options) }
func (t *IntersectionType) typeExprNode()  {}

// LiteralType is [:val Literal], a singleton type containing one value.
type LiteralType struct {
	Value interface{}
	Pos   Pos
}

func (t *LiteralType) Position() Pos  { return t.Pos }
func (t *LiteralType) String() string { return fmt.Sprintf("[:val %v]", t.Value) }
func (t *LiteralType) typeExprNode()  {}

// AnyType is :any — the universal supertype.
type AnyType struct{ Pos Pos }

func (t *AnyType) Position() Pos  { return t.Pos }
func (t *AnyType) String() string { return ":any" }
func (t *AnyType) typeExprNode()  {}

// NeverType is :never — the empty type.
type NeverType struct{ Pos Pos }

func (t *NeverType) Position() Pos  { return t.Pos }
func (t *NeverType) String() string { return ":never" }
func (t *NeverType) typeExprNode()  {}

// AliasType references a name bound in the compilation context's type-alias
// table.
type AliasType struct {
	Name string
	Pos  Pos
}

func (t *AliasType) Position() Pos  { return t.Pos }
func (t *AliasType) String() string { return t.Name }
func (t *AliasType) typeExprNode()  {}
