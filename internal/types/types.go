// Package types defines Type, the resolved, structural type representation
// produced by the converter's type resolution step.
package types

import (
	"fmt"
	"strings"
)

// Kind discriminates the closed sum of resolved types.
type Kind int

// KAny is deliberately the zero Kind: a zero-value Type is "any", so an IR
// node built without an annotation carries the correct static type without
// every construction site having to say so.
const (
	KAny Kind = iota
	KInt
	KFloat
	KString
	KBool
	KNil
	KKeyword
	KSymbol
	KNever
	KVector
	KMap
	KFunction
	KResource
	KUnion
	KIntersection
	KLiteral
	KAlias // unresolved forward reference, resolved away before converter returns
)

// MapEntry is one keyed, optionally-optional entry of a resolved map type.
type MapEntry struct {
	Key      string
	Value    Type
	Optional bool
}

// Type is the resolved representation of a type expression. Exactly one
// field group is meaningful per Kind; Type is a plain struct (not an
// interface) so it is trivially comparable and copyable, and dispatch
// stays an exhaustive switch over a closed sum.
type Type struct {
	Kind Kind

	// KVector
	Elem *Type

	// KMap
	Entries  []MapEntry
	Wildcard *Type

	// KFunction
	Params       []Type
	VariadicTail *Type // nil if not variadic
	Return       *Type

	// KResource
	ResourceTag string

	// KUnion / KIntersection
	Options []Type

	// KLiteral
	LiteralValue interface{}

	// KAlias
	AliasName string
}

// Any is the shared singleton for the unannotated/unknown type.
var Any = Type{Kind: KAny}

// Never is the empty type (no value inhabits it).
var Never = Type{Kind: KNever}

func Int() Type     { return Type{Kind: KInt} }
func Float() Type   { return Type{Kind: KFloat} }
func String() Type  { return Type{Kind: KString} }
func Bool() Type    { return Type{Kind: KBool} }
func Nil() Type     { return Type{Kind: KNil} }
func Keyword() Type { return Type{Kind: KKeyword} }
func Symbol() Type  { return Type{Kind: KSymbol} }

func Vector(elem Type) Type { return Type{Kind: KVector, Elem: &elem} }

func Function(params []Type, variadic *Type, ret Type) Type {
	return Type{Kind: KFunction, Params: params, VariadicTail: variadic, Return: &ret}
}

func Resource(tag string) Type { return Type{Kind: KResource, ResourceTag: tag} }

func Union(options []Type) Type        { return Type{Kind: KUnion, Options: options} }
func Intersection(options []Type) Type { return Type{Kind: KIntersection, Options: options} }
func Literal(v interface{}) Type       { return Type{Kind: KLiteral, LiteralValue: v} }

// Equal reports structural equality between two resolved types.
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KVector:
		return Equal(*a.Elem, *b.Elem)
	case KMap:
		if len(a.Entries) != len(b.Entries) {
			return false
		}
		for i := range a.Entries {
			if a.Entries[i].Key != b.Entries[i].Key || a.Entries[i].Optional != b.Entries[i].Optional {
				return false
			}
			if !Equal(a.Entries[i].Value, b.Entries[i].Value) {
				return false
			}
		}
		if (a.Wildcard == nil) != (b.Wildcard == nil) {
			return false
		}
		if a.Wildcard != nil && !Equal(*a.Wildcard, *b.Wildcard) {
			return false
		}
		return true
	case KFunction:
		if len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		if (a.VariadicTail == nil) != (b.VariadicTail == nil) {
			return false
		}
		if a.VariadicTail != nil && !Equal(*a.VariadicTail, *b.VariadicTail) {
			return false
		}
		return Equal(*a.Return, *b.Return)
	case KResource:
		return a.ResourceTag == b.ResourceTag
	case KUnion, KIntersection:
		if len(a.Options) != len(b.Options) {
			return false
		}
		for i := range a.Options {
			if !Equal(a.Options[i], b.Options[i]) {
				return false
			}
		}
		return true
	case KLiteral:
		return fmt.Sprintf("%v", a.LiteralValue) == fmt.Sprintf("%v", b.LiteralValue)
	case KAlias:
		return a.AliasName == b.AliasName
	default:
		return true
	}
}

// String renders a type for diagnostics.
func (t Type) String() string {
	switch t.Kind {
	case KInt:
		return "int"
	case KFloat:
		return "float"
	case KString:
		return "string"
	case KBool:
		return "bool"
	case KNil:
		return "nil"
	case KKeyword:
		return "keyword"
	case KSymbol:
		return "symbol"
	case KAny:
		return "any"
	case KNever:
		return "never"
	case KVector:
		return fmt.Sprintf("[:vector %s]", t.Elem)
	case KMap:
		parts := make([]string, 0, len(t.Entries))
		for _, e := range t.Entries {
			opt := ""
			if e.Optional {
				opt = "?"
			}
			parts = append(parts, fmt.Sprintf("%s%s=%s", e.Key, opt, e.Value))
		}
		return fmt.Sprintf("[:map %s]", strings.Join(parts, " "))
	case KFunction:
		parts := make([]string, 0, len(t.Params))
		for _, p := range t.Params {
			parts = append(parts, p.String())
		}
		return fmt.Sprintf("[:-> (%s) %s]", strings.Join(parts, " "), t.Return)
	case KResource:
		return fmt.Sprintf("[:resource %s]", t.ResourceTag)
	case KUnion:
		parts := make([]string, 0, len(t.Options))
		for _, o := range t.Options {
			parts = append(parts, o.String())
		}
		return fmt.Sprintf("[:or %s]", strings.Join(parts, " "))
	case KIntersection:
		parts := make([]string, 0, len(t.Options))
		for _, o := range t.Options {
			parts = append(parts, o.String())
		}
		return fmt.Sprintf("[:and %s]", strings.Join(parts, " "))
	case KLiteral:
		return fmt.Sprintf("[:val %v]", t.LiteralValue)
	case KAlias:
		return t.AliasName
	default:
		return "?"
	}
}
