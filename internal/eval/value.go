// Package eval implements the tree-walking IR evaluator, its environments,
// and the runtime value representation.
package eval

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rtfs-lang/rtfs/internal/errors"
)

// Value is the closed sum of RTFS runtime values.
type Value interface {
	Type() string
	String() string
}

type IntValue struct{ Value int64 }

func (v *IntValue) Type() string   { return "int" }
func (v *IntValue) String() string { return fmt.Sprintf("%d", v.Value) }

type FloatValue struct{ Value float64 }

func (v *FloatValue) Type() string { return "float" }
func (v *FloatValue) String() string {
	if math.IsNaN(v.Value) {
		return "NaN"
	}
	return fmt.Sprintf("%g", v.Value)
}

type StringValue struct{ Value string }

func (v *StringValue) Type() string   { return "string" }
func (v *StringValue) String() string { return v.Value }

type BoolValue struct{ Value bool }

func (v *BoolValue) Type() string { return "bool" }
func (v *BoolValue) String() string {
	if v.Value {
		return "true"
	}
	return "false"
}

type KeywordValue struct{ Name string }

func (v *KeywordValue) Type() string   { return "keyword" }
func (v *KeywordValue) String() string { return ":" + v.Name }

type SymbolValue struct{ Name string }

func (v *SymbolValue) Type() string   { return "symbol" }
func (v *SymbolValue) String() string { return v.Name }

type NilValue struct{}

func (v *NilValue) Type() string   { return "nil" }
func (v *NilValue) String() string { return "nil" }

// Nil is the shared nil value singleton.
var Nil = &NilValue{}

type VectorValue struct{ Elements []Value }

func (v *VectorValue) Type() string { return "vector" }
func (v *VectorValue) String() string {
	parts := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// MapValue is a map keyed by a hashable Value (int, string, keyword, bool
// or nil — floats and nested collections are not valid keys). Keys are
// stored pre-hashed via mapKey for O(1) lookup while order preserves
// insertion order for deterministic iteration/printing.
type MapValue struct {
	entries map[string]mapEntry
	order   []string
}

type mapEntry struct {
	Key   Value
	Value Value
}

// NewMap builds an empty map value.
func NewMap() *MapValue {
	return &MapValue{entries: make(map[string]mapEntry)}
}

// IsHashableKey reports whether v may be used as a map/pattern key.
func IsHashableKey(v Value) bool {
	switch v.(type) {
	case *IntValue, *StringValue, *KeywordValue, *BoolValue, *NilValue:
		return true
	default:
		return false
	}
}

func mapKey(v Value) (string, error) {
	switch k := v.(type) {
	case *IntValue:
		return "i:" + fmt.Sprintf("%d", k.Value), nil
	case *StringValue:
		return "s:" + k.Value, nil
	case *KeywordValue:
		return "k:" + k.Name, nil
	case *BoolValue:
		return fmt.Sprintf("b:%v", k.Value), nil
	case *NilValue:
		return "n", nil
	default:
		return "", fmt.Errorf("unhashable map key type %s", v.Type())
	}
}

// Set inserts or overwrites key -> value, preserving first-insertion order.
func (m *MapValue) Set(key, value Value) error {
	k, err := mapKey(key)
	if err != nil {
		return err
	}
	if _, exists := m.entries[k]; !exists {
		m.order = append(m.order, k)
	}
	m.entries[k] = mapEntry{Key: key, Value: value}
	return nil
}

// Get looks up key, reporting whether it was present.
func (m *MapValue) Get(key Value) (Value, bool) {
	k, err := mapKey(key)
	if err != nil {
		return nil, false
	}
	e, ok := m.entries[k]
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// Len returns the number of entries.
func (m *MapValue) Len() int { return len(m.order) }

// Each calls fn for every entry in insertion order.
func (m *MapValue) Each(fn func(key, value Value)) {
	for _, k := range m.order {
		e := m.entries[k]
		fn(e.Key, e.Value)
	}
}

func (v *MapValue) Type() string { return "map" }
func (v *MapValue) String() string {
	keys := append([]string{}, v.order...)
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		e := v.entries[k]
		parts = append(parts, fmt.Sprintf("%s %s", e.Key, e.Value))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// ResourceState is the lifecycle state of a ResourceValue.
type ResourceState int

const (
	ResourceActive ResourceState = iota
	ResourceReleased
)

// ResourceValue is a scoped handle created by with-resource.
type ResourceValue struct {
	ID        uint64
	TypeTag   string
	Metadata  map[string]Value
	State     ResourceState
	ReleaseFn func(*ResourceValue) error // host release hook, may be nil
}

func (v *ResourceValue) Type() string   { return "resource" }
func (v *ResourceValue) String() string { return fmt.Sprintf("#<resource:%s %d>", v.TypeTag, v.ID) }

// ResultValue represents ok(v) / error(e).
type ResultValue struct {
	Ok    bool
	Value Value // payload when Ok
	Err   Value // error-as-map when !Ok
}

func (v *ResultValue) Type() string { return "result" }
func (v *ResultValue) String() string {
	if v.Ok {
		return fmt.Sprintf("ok(%s)", v.Value)
	}
	return fmt.Sprintf("error(%s)", v.Err)
}

// FunctionValue is either a host primitive or a user-defined closure.
type FunctionValue struct {
	// Primitive fields (Primitive != nil)
	Name      string
	Arity     Arity
	Primitive func(args []Value) (Value, *errors.Report)

	// User-defined fields (Primitive == nil)
	Params       []string
	VariadicName string      // empty if not variadic
	Body         interface{} // *ir.Lambda (IR evaluator) or the AST walker's closure body
	Env          *Environment
}

func (v *FunctionValue) Type() string { return "function" }
func (v *FunctionValue) String() string {
	if v.Primitive != nil {
		return fmt.Sprintf("#<primitive:%s>", v.Name)
	}
	return "#<function>"
}

// ArityKind enumerates the primitive arity-check shapes.
type ArityKind int

const (
	ArityExact ArityKind = iota
	ArityAtLeast
	ArityRange
	ArityAny
)

// Arity describes how many arguments a primitive accepts.
type Arity struct {
	Kind ArityKind
	Min  int
	Max  int // meaningful only for ArityRange
}

// Check reports whether n arguments satisfy a.
func (a Arity) Check(n int) bool {
	switch a.Kind {
	case ArityExact:
		return n == a.Min
	case ArityAtLeast:
		return n >= a.Min
	case ArityRange:
		return n >= a.Min && n <= a.Max
	default:
		return true
	}
}

// Truthy implements RTFS truthiness: only false and nil are falsy.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case *BoolValue:
		return x.Value
	case *NilValue:
		return false
	default:
		return true
	}
}

// Equal implements RTFS value equality, including bit-insensitive NaN=NaN.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case *IntValue:
		y, ok := b.(*IntValue)
		return ok && x.Value == y.Value
	case *FloatValue:
		y, ok := b.(*FloatValue)
		if !ok {
			return false
		}
		if math.IsNaN(x.Value) && math.IsNaN(y.Value) {
			return true
		}
		return x.Value == y.Value
	case *StringValue:
		y, ok := b.(*StringValue)
		return ok && x.Value == y.Value
	case *BoolValue:
		y, ok := b.(*BoolValue)
		return ok && x.Value == y.Value
	case *KeywordValue:
		y, ok := b.(*KeywordValue)
		return ok && x.Name == y.Name
	case *SymbolValue:
		y, ok := b.(*SymbolValue)
		return ok && x.Name == y.Name
	case *NilValue:
		_, ok := b.(*NilValue)
		return ok
	case *VectorValue:
		y, ok := b.(*VectorValue)
		if !ok || len(x.Elements) != len(y.Elements) {
			return false
		}
		for i := range x.Elements {
			if !Equal(x.Elements[i], y.Elements[i]) {
				return false
			}
		}
		return true
	case *MapValue:
		y, ok := b.(*MapValue)
		if !ok || x.Len() != y.Len() {
			return false
		}
		equal := true
		x.Each(func(k, v Value) {
			ov, present := y.Get(k)
			if !present || !Equal(v, ov) {
				equal = false
			}
		})
		return equal
	default:
		return a == b
	}
}

// ReportToValue converts a structured error report into the runtime map
// value {:error/kind ... :message ... :data ...} consumed by try-catch
// handlers that inspect the error.
func ReportToValue(r *errors.Report) Value {
	m := NewMap()
	m.Set(&KeywordValue{Name: "error/kind"}, &KeywordValue{Name: r.Kind.String()})
	m.Set(&KeywordValue{Name: "message"}, &StringValue{Value: r.Message})
	if r.Data != nil {
		data := NewMap()
		for k, v := range r.Data {
			data.Set(&KeywordValue{Name: k}, goValueToRTFS(v))
		}
		m.Set(&KeywordValue{Name: "data"}, data)
	}
	return m
}

func goValueToRTFS(v any) Value {
	switch x := v.(type) {
	case string:
		return &StringValue{Value: x}
	case int:
		return &IntValue{Value: int64(x)}
	case int64:
		return &IntValue{Value: x}
	case bool:
		return &BoolValue{Value: x}
	case []string:
		elems := make([]Value, len(x))
		for i, s := range x {
			elems[i] = &StringValue{Value: s}
		}
		return &VectorValue{Elements: elems}
	default:
		return &StringValue{Value: fmt.Sprintf("%v", x)}
	}
}
