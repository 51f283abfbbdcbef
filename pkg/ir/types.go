// Package ir defines the typed, tree-shaped intermediate representation
// produced by the AST→IR converter (pkg/semantic) and consumed by the
// WASM code generator (pkg/codegen). Nothing in this package constructs
// or mutates IR — it only defines the shape.
package ir

import "strings"

// Type is the sum type for source-level types (spec §3.1). Every case is
// a distinct struct; there is no shared base beyond this marker interface,
// matching the teacher's ir.Type / BasicType / PointerType convention.
type Type interface {
	isType()
	String() string
}

// BasicKind enumerates the scalar and singleton cases of Type.
type BasicKind int

const (
	KindInt BasicKind = iota
	KindFloat
	KindBool
	KindStr
	KindBytes
	KindNone
	KindRange
	KindAny
	KindUnknown
)

func (k BasicKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindStr:
		return "str"
	case KindBytes:
		return "bytes"
	case KindNone:
		return "none"
	case KindRange:
		return "range"
	case KindAny:
		return "any"
	case KindUnknown:
		return "unknown"
	default:
		return "?"
	}
}

// BasicType covers Int, Float, Bool, Str, Bytes, None, Range, Any, Unknown.
type BasicType struct{ Kind BasicKind }

func (*BasicType) isType()          {}
func (t *BasicType) String() string { return t.Kind.String() }

var (
	Int     Type = &BasicType{Kind: KindInt}
	Float   Type = &BasicType{Kind: KindFloat}
	Bool    Type = &BasicType{Kind: KindBool}
	Str     Type = &BasicType{Kind: KindStr}
	Bytes   Type = &BasicType{Kind: KindBytes}
	None    Type = &BasicType{Kind: KindNone}
	Range   Type = &BasicType{Kind: KindRange}
	Any     Type = &BasicType{Kind: KindAny}
	Unknown Type = &BasicType{Kind: KindUnknown}
)

// ListType is List(element).
type ListType struct{ Elem Type }

func (*ListType) isType()          {}
func (t *ListType) String() string { return "list[" + t.Elem.String() + "]" }

// DictType is Dict(key, value).
type DictType struct{ Key, Value Type }

func (*DictType) isType() {}
func (t *DictType) String() string {
	return "dict[" + t.Key.String() + "," + t.Value.String() + "]"
}

// TupleType is Tuple([elements]); per-position types are preserved.
type TupleType struct{ Elems []Type }

func (*TupleType) isType() {}
func (t *TupleType) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "tuple[" + strings.Join(parts, ",") + "]"
}

// ClassType is Class(name) — a heap pointer to an instance layout.
type ClassType struct{ Name string }

func (*ClassType) isType()          {}
func (t *ClassType) String() string { return "class " + t.Name }

// ModuleType is Module(name).
type ModuleType struct{ Name string }

func (*ModuleType) isType()          {}
func (t *ModuleType) String() string { return "module " + t.Name }

// GeneratorType is Generator(yielded). Not emitted (spec §9 generators);
// the converter does not produce it, and the backend rejects Yield.
type GeneratorType struct{ Yielded Type }

func (*GeneratorType) isType()          {}
func (t *GeneratorType) String() string { return "generator[" + t.Yielded.String() + "]" }

// CallableType is Callable(params, ret).
type CallableType struct {
	Params []Type
	Ret    Type
}

func (*CallableType) isType() {}
func (t *CallableType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ",") + ")->" + t.Ret.String()
}

// UnionType is Union([types]).
type UnionType struct{ Options []Type }

func (*UnionType) isType() {}
func (t *UnionType) String() string {
	parts := make([]string, len(t.Options))
	for i, o := range t.Options {
		parts[i] = o.String()
	}
	return strings.Join(parts, "|")
}

// OptionalType is Optional(t) — sugar for Union([t, None]) that keeps a
// dedicated case so the emitter can special-case null heap pointers (§3.5
// invariant i).
type OptionalType struct{ Elem Type }

func (*OptionalType) isType()          {}
func (t *OptionalType) String() string { return "optional[" + t.Elem.String() + "]" }

// IsNumeric reports whether t participates in arithmetic promotion rules (§4.3).
func IsNumeric(t Type) bool {
	b, ok := t.(*BasicType)
	return ok && (b.Kind == KindInt || b.Kind == KindFloat || b.Kind == KindBool)
}

// Resolve applies the Unknown-resolution rule from §3.1: Unknown becomes
// Int in arithmetic contexts, Any elsewhere.
func Resolve(t Type, arithmeticContext bool) Type {
	if b, ok := t.(*BasicType); ok && b.Kind == KindUnknown {
		if arithmeticContext {
			return Int
		}
		return Any
	}
	return t
}

// Equal performs a structural equality check, used by the converter when
// joining return types and by the emitter when choosing instance layouts.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch at := a.(type) {
	case *BasicType:
		bt, ok := b.(*BasicType)
		return ok && at.Kind == bt.Kind
	case *ListType:
		bt, ok := b.(*ListType)
		return ok && Equal(at.Elem, bt.Elem)
	case *DictType:
		bt, ok := b.(*DictType)
		return ok && Equal(at.Key, bt.Key) && Equal(at.Value, bt.Value)
	case *TupleType:
		bt, ok := b.(*TupleType)
		if !ok || len(at.Elems) != len(bt.Elems) {
			return false
		}
		for i := range at.Elems {
			if !Equal(at.Elems[i], bt.Elems[i]) {
				return false
			}
		}
		return true
	case *ClassType:
		bt, ok := b.(*ClassType)
		return ok && at.Name == bt.Name
	case *ModuleType:
		bt, ok := b.(*ModuleType)
		return ok && at.Name == bt.Name
	case *GeneratorType:
		bt, ok := b.(*GeneratorType)
		return ok && Equal(at.Yielded, bt.Yielded)
	case *CallableType:
		bt, ok := b.(*CallableType)
		if !ok || len(at.Params) != len(bt.Params) || !Equal(at.Ret, bt.Ret) {
			return false
		}
		for i := range at.Params {
			if !Equal(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return true
	case *UnionType:
		bt, ok := b.(*UnionType)
		if !ok || len(at.Options) != len(bt.Options) {
			return false
		}
		for i := range at.Options {
			if !Equal(at.Options[i], bt.Options[i]) {
				return false
			}
		}
		return true
	case *OptionalType:
		bt, ok := b.(*OptionalType)
		return ok && Equal(at.Elem, bt.Elem)
	default:
		return false
	}
}
