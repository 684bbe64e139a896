// Package errors implements the structured error taxonomy shared by the
// converter and the evaluator.
//
// Every error is a *Report — a JSON-encodable value (schema, code, phase,
// message, data) wrapped so it still satisfies the Go error interface and
// survives errors.As unwrapping.
package errors

import (
	"encoding/json"
)

// Kind discriminates the closed error taxonomy.
type Kind int

const (
	KindTypeError Kind = iota
	KindUndefinedSymbol
	KindArityMismatch
	KindDivisionByZero
	KindIndexOutOfBounds
	KindKeyNotFound
	KindResourceError
	KindIoError
	KindModuleError
	KindInvalidArgument
	KindMatchError
	KindApplicationError
	KindNotImplemented
	KindNotCallable
	KindInvalidProgram
	KindInternalError
)

var kindNames = map[Kind]string{
	KindTypeError:        "TypeError",
	KindUndefinedSymbol:  "UndefinedSymbol",
	KindArityMismatch:    "ArityMismatch",
	KindDivisionByZero:   "DivisionByZero",
	KindIndexOutOfBounds: "IndexOutOfBounds",
	KindKeyNotFound:      "KeyNotFound",
	KindResourceError:    "ResourceError",
	KindIoError:          "IoError",
	KindModuleError:      "ModuleError",
	KindInvalidArgument:  "InvalidArgument",
	KindMatchError:       "MatchError",
	KindApplicationError: "ApplicationError",
	KindNotImplemented:   "NotImplemented",
	KindNotCallable:      "NotCallable",
	KindInvalidProgram:   "InvalidProgram",
	KindInternalError:    "InternalError",
}

func (k Kind) String() string { return kindNames[k] }

// Report is the canonical structured error value for RTFS. Both
// compile-time (converter) and runtime (evaluator) errors are reported this
// way.
type Report struct {
	Schema  string         `json:"schema"`
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Kind    Kind           `json:"-"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// ReportError wraps a Report so it satisfies the error interface while
// remaining recoverable via errors.As.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// Wrap turns a Report into a Go error.
func Wrap(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// AsReport extracts the *Report from an error produced by this package, if
// any.
func AsReport(err error) (*Report, bool) {
	re, ok := err.(*ReportError)
	if !ok {
		return nil, false
	}
	return re.Rep, true
}

func newReport(phase, code string, kind Kind, message string, data map[string]any) *Report {
	return &Report{Schema: "rtfs.error/v1", Code: code, Phase: phase, Kind: kind, Message: message, Data: data}
}

// --- Runtime (evaluator) constructors ---

func TypeError(expected, actual, operation string) *Report {
	return newReport("eval", "TYP001", KindTypeError, "type error in "+operation,
		map[string]any{"expected": expected, "actual": actual, "operation": operation})
}

func UndefinedSymbol(symbol string) *Report {
	return newReport("eval", "SYM001", KindUndefinedSymbol, "undefined symbol: "+symbol,
		map[string]any{"symbol": symbol})
}

func ArityMismatch(function, expected string, actual int) *Report {
	return newReport("eval", "ARI001", KindArityMismatch, "arity mismatch calling "+function,
		map[string]any{"function": function, "expected": expected, "actual": actual})
}

func DivisionByZero() *Report {
	return newReport("eval", "DIV001", KindDivisionByZero, "division by zero", nil)
}

func IndexOutOfBounds(index, length int) *Report {
	return newReport("eval", "IDX001", KindIndexOutOfBounds, "index out of bounds",
		map[string]any{"index": index, "length": length})
}

func KeyNotFound(key string) *Report {
	return newReport("eval", "KEY001", KindKeyNotFound, "key not found: "+key,
		map[string]any{"key": key})
}

func ResourceError(kind, message string) *Report {
	return newReport("eval", "RES001", KindResourceError, message,
		map[string]any{"kind": kind})
}

func IoError(message string) *Report {
	return newReport("eval", "IO001", KindIoError, message, nil)
}

func ModuleFileNotFound(name string) *Report {
	return newReport("module", "MOD001", KindModuleError, "module file not found: "+name,
		map[string]any{"module": name})
}

func CircularDependency(name string, path []string) *Report {
	return newReport("module", "MOD002", KindModuleError, "circular dependency loading "+name,
		map[string]any{"module": name, "path": path})
}

func ModuleNameMismatch(declared, expected string) *Report {
	return newReport("module", "MOD003", KindModuleError, "module name mismatch",
		map[string]any{"declared": declared, "expected": expected})
}

func UnresolvedQualified(module, name string) *Report {
	return newReport("module", "MOD004", KindModuleError, "unresolved qualified symbol "+module+"/"+name,
		map[string]any{"module": module, "name": name})
}

func InvalidArgument(message string) *Report {
	return newReport("eval", "ARG001", KindInvalidArgument, message, nil)
}

func MatchError(message string) *Report {
	return newReport("eval", "MAT001", KindMatchError, message, nil)
}

func ApplicationError(kindKeyword, message string, data any) *Report {
	d := map[string]any{"kind": kindKeyword}
	if data != nil {
		d["data"] = data
	}
	return newReport("eval", "APP001", KindApplicationError, message, d)
}

func NotImplemented(message string) *Report {
	return newReport("eval", "NIM001", KindNotImplemented, message, nil)
}

func NotCallable(message string) *Report {
	return newReport("eval", "NCL001", KindNotCallable, message, nil)
}

func InvalidProgram(message string) *Report {
	return newReport("eval", "PRG001", KindInvalidProgram, message, nil)
}

func InternalError(message string) *Report {
	return newReport("eval", "INT001", KindInternalError, message, nil)
}

// --- Converter (compile-time) constructors ---

func ConvUnresolvedIdentifier(name string) *Report {
	return newReport("convert", "CNV001", KindUndefinedSymbol, "unresolved identifier: "+name,
		map[string]any{"symbol": name})
}

func ConvArityMismatch(what string, expected, actual int) *Report {
	return newReport("convert", "CNV002", KindArityMismatch, "arity mismatch in "+what,
		map[string]any{"expected": expected, "actual": actual})
}

func ConvIllegalPattern(message string) *Report {
	return newReport("convert", "CNV003", KindInvalidProgram, "illegal pattern shape: "+message, nil)
}

func ConvDuplicateBinding(name string) *Report {
	return newReport("convert", "CNV004", KindInvalidProgram, "duplicate binding in pattern: "+name,
		map[string]any{"name": name})
}

func ConvUnknownTypeAlias(name string) *Report {
	return newReport("convert", "CNV005", KindInvalidProgram, "unknown type alias: "+name,
		map[string]any{"alias": name})
}

func ConvCyclicTypeAlias(name string) *Report {
	return newReport("convert", "CNV006", KindInvalidProgram, "cyclic type alias: "+name,
		map[string]any{"alias": name})
}

// ToJSON renders a Report deterministically for logging/transport.
func (r *Report) ToJSON() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
