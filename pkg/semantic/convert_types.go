package semantic

import (
	"github.com/anistark/waspy/pkg/ast"
	"github.com/anistark/waspy/pkg/ir"
)

// builtinFuncs is the fixed builtin-call table (spec §4.3). Calls to
// these names never need a registered FuncSymbol.
var builtinFuncs = map[string]bool{
	"len": true, "print": true, "min": true, "max": true, "sum": true,
	"range": true, "int": true, "float": true, "str": true, "bool": true,
	"abs": true,
}

// resolveType maps a parsed annotation to its IR type. classes is the
// set of class names declared in the file, needed to distinguish a
// forward-referenced ClassType from an unknown name.
func resolveType(t ast.Type, classes map[string]bool) (ir.Type, error) {
	if t == nil {
		// spec §4.1: a missing annotation defaults to Int, not Any — the
		// call-site widening pass (widenMismatchedParams) is what promotes
		// it to Any, and only once a call site actually supplies a
		// non-integer literal.
		return ir.Int, nil
	}
	switch n := t.(type) {
	case *ast.NameType:
		switch n.Name {
		case "int":
			return ir.Int, nil
		case "float":
			return ir.Float, nil
		case "bool":
			return ir.Bool, nil
		case "str":
			return ir.Str, nil
		case "bytes":
			return ir.Bytes, nil
		case "None":
			return ir.None, nil
		case "Any":
			return ir.Any, nil
		default:
			if classes[n.Name] {
				return &ir.ClassType{Name: n.Name}, nil
			}
			return nil, newErr(ErrTypeAnnotationInvalid, t, "unknown type name %q", n.Name)
		}
	case *ast.GenericType:
		switch n.Base {
		case "List":
			if len(n.Args) != 1 {
				return nil, newErr(ErrTypeAnnotationInvalid, t, "List takes exactly one type argument")
			}
			elem, err := resolveType(n.Args[0], classes)
			if err != nil {
				return nil, err
			}
			return &ir.ListType{Elem: elem}, nil
		case "Dict":
			if len(n.Args) != 2 {
				return nil, newErr(ErrTypeAnnotationInvalid, t, "Dict takes exactly two type arguments")
			}
			key, err := resolveType(n.Args[0], classes)
			if err != nil {
				return nil, err
			}
			val, err := resolveType(n.Args[1], classes)
			if err != nil {
				return nil, err
			}
			return &ir.DictType{Key: key, Value: val}, nil
		case "Tuple":
			elems := make([]ir.Type, len(n.Args))
			for i, a := range n.Args {
				et, err := resolveType(a, classes)
				if err != nil {
					return nil, err
				}
				elems[i] = et
			}
			return &ir.TupleType{Elems: elems}, nil
		case "Optional":
			if len(n.Args) != 1 {
				return nil, newErr(ErrTypeAnnotationInvalid, t, "Optional takes exactly one type argument")
			}
			elem, err := resolveType(n.Args[0], classes)
			if err != nil {
				return nil, err
			}
			return &ir.OptionalType{Elem: elem}, nil
		case "Union":
			opts := make([]ir.Type, len(n.Args))
			for i, a := range n.Args {
				ot, err := resolveType(a, classes)
				if err != nil {
					return nil, err
				}
				opts[i] = ot
			}
			return &ir.UnionType{Options: opts}, nil
		case "Callable":
			if len(n.Args) != 2 {
				return nil, newErr(ErrTypeAnnotationInvalid, t, "Callable takes [params], return")
			}
			var params []ir.Type
			if gt, ok := n.Args[0].(*ast.GenericType); ok {
				for _, a := range gt.Args {
					pt, err := resolveType(a, classes)
					if err != nil {
						return nil, err
					}
					params = append(params, pt)
				}
			}
			ret, err := resolveType(n.Args[1], classes)
			if err != nil {
				return nil, err
			}
			return &ir.CallableType{Params: params, Ret: ret}, nil
		default:
			return nil, newErr(ErrTypeAnnotationInvalid, t, "unknown generic annotation %q", n.Base)
		}
	default:
		return nil, newErr(ErrTypeAnnotationInvalid, t, "unrecognized type node")
	}
}

// inferLiteralType returns the concrete type of e when e is a bare
// literal, or nil when e's type can't be determined without full
// evaluation. Used for the best-effort call-site widening pass (spec
// §4.1's "call site supplies a mismatched type") and for typing class
// fields from __init__ — both are shallow, syntax-driven checks, not a
// full type checker.
func inferLiteralType(e ast.Expression) ir.Type {
	switch v := e.(type) {
	case *ast.IntLiteral:
		return ir.Int
	case *ast.FloatLiteral:
		return ir.Float
	case *ast.BoolLiteral:
		return ir.Bool
	case *ast.StrLiteral:
		return ir.Str
	case *ast.BytesLiteral:
		return ir.Bytes
	case *ast.NoneLiteral:
		return ir.None
	case *ast.ListExpr:
		if len(v.Elements) == 0 {
			return nil
		}
		elem := inferLiteralType(v.Elements[0])
		if elem == nil {
			return nil
		}
		return &ir.ListType{Elem: elem}
	default:
		return nil
	}
}

// joinReturnTypes implements the unannotated-return join rule: identical
// types join to themselves, mixed numeric types join to Float, anything
// else joins to Any. An empty set joins to None (no return value).
func joinReturnTypes(types []ir.Type) ir.Type {
	if len(types) == 0 {
		return ir.None
	}
	all := types[0]
	mixedNumeric := true
	for _, t := range types {
		if !ir.Equal(t, types[0]) {
			all = nil
		}
		if !ir.IsNumeric(t) {
			mixedNumeric = false
		}
	}
	if all != nil {
		return all
	}
	if mixedNumeric {
		return ir.Float
	}
	return ir.Any
}
