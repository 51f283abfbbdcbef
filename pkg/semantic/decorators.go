package semantic

import "github.com/anistark/waspy/pkg/ir"

// DecoratorKind enumerates the fixed, name-keyed built-in decorators
// (spec §4.1, §4.4). The full registry (including user-registered
// decorators) is an external, project-level collaborator per spec §1;
// this is the minimal built-in table the converter can always rely on.
type DecoratorKind int

const (
	DecoratorMemoize DecoratorKind = iota
	DecoratorDebug
	DecoratorTimer
)

// DecoratorRegistry resolves a decorator name to its kind.
type DecoratorRegistry interface {
	Resolve(name string) (DecoratorKind, bool)
}

type builtinRegistry struct{}

func (builtinRegistry) Resolve(name string) (DecoratorKind, bool) {
	switch name {
	case "memoize":
		return DecoratorMemoize, true
	case "debug":
		return DecoratorDebug, true
	case "timer":
		return DecoratorTimer, true
	default:
		return 0, false
	}
}

// DefaultDecoratorRegistry is the built-in memoize/debug/timer table.
var DefaultDecoratorRegistry DecoratorRegistry = builtinRegistry{}

// applyMemoize rewrites fn's body in place so repeated calls with an
// equal argument tuple short-circuit through a per-function cache dict
// (spec §4.4: "wraps the function in a dict lookup keyed by argument
// tuple; miss path calls the original"). The cache is registered as a
// module-level variable so C6/C7 allocate storage for it like any other
// global.
func applyMemoize(mod *ir.Module, fn *ir.Function) {
	cacheName := "__memo_" + fn.Name
	keyVar := "__memo_key"

	keyElems := make([]ir.Expr, len(fn.Params))
	for i, p := range fn.Params {
		keyElems[i] = &ir.Var{Name: p.Name}
	}

	mod.ModuleVars = append(mod.ModuleVars, &ir.Assign{
		Target: &ir.Var{Name: cacheName},
		Value:  &ir.DictLiteral{Keys: nil, Values: nil},
	})

	preamble := []ir.Stmt{
		&ir.Assign{Target: &ir.Var{Name: keyVar}, Value: &ir.TupleLiteral{Elements: keyElems}},
		&ir.Try{
			Body: []ir.Stmt{
				&ir.Return{Value: &ir.Index{Container: &ir.Var{Name: cacheName}, Key: &ir.Var{Name: keyVar}}},
			},
			Handlers: []ir.Handler{{TypeName: "IndexError", Body: []ir.Stmt{&ir.Pass{}}}},
		},
	}

	body := instrumentReturns(fn.Body, cacheName, keyVar)
	fn.Body = append(preamble, body...)
}

// instrumentReturns recursively rewrites every Return in stmts (without
// descending into Lambda bodies, which are separate frames) so the
// returned value is cached before the function actually returns.
func instrumentReturns(stmts []ir.Stmt, cacheName, keyVar string) []ir.Stmt {
	out := make([]ir.Stmt, len(stmts))
	for i, s := range stmts {
		out[i] = instrumentReturnStmt(s, cacheName, keyVar)
	}
	return out
}

func instrumentReturnStmt(s ir.Stmt, cacheName, keyVar string) ir.Stmt {
	switch st := s.(type) {
	case *ir.Return:
		if st.Value == nil {
			return st
		}
		// Can't express "store then return the same value" as a single
		// statement without re-evaluating Value, so bind it to a temp
		// first via an Assign the emitter will see immediately before
		// the Return — both lower to straight-line code, no new IR node
		// needed.
		return &ir.Try{
			Body: []ir.Stmt{
				&ir.Assign{Target: &ir.Var{Name: "__memo_result"}, Value: st.Value},
				&ir.IndexAssign{Container: &ir.Var{Name: cacheName}, Key: &ir.Var{Name: keyVar}, Value: &ir.Var{Name: "__memo_result"}},
				&ir.Return{Value: &ir.Var{Name: "__memo_result"}},
			},
		}
	case *ir.If:
		return &ir.If{Cond: st.Cond, Then: instrumentReturns(st.Then, cacheName, keyVar), Else: instrumentReturns(st.Else, cacheName, keyVar)}
	case *ir.While:
		return &ir.While{Cond: st.Cond, Body: instrumentReturns(st.Body, cacheName, keyVar)}
	case *ir.For:
		return &ir.For{Var: st.Var, Iterable: st.Iterable, Body: instrumentReturns(st.Body, cacheName, keyVar)}
	case *ir.Try:
		handlers := make([]ir.Handler, len(st.Handlers))
		for i, h := range st.Handlers {
			handlers[i] = ir.Handler{TypeName: h.TypeName, Var: h.Var, Body: instrumentReturns(h.Body, cacheName, keyVar)}
		}
		return &ir.Try{Body: instrumentReturns(st.Body, cacheName, keyVar), Handlers: handlers, Finally: instrumentReturns(st.Finally, cacheName, keyVar)}
	case *ir.With:
		return &ir.With{CtxExpr: st.CtxExpr, AsVar: st.AsVar, Body: instrumentReturns(st.Body, cacheName, keyVar)}
	default:
		return s
	}
}
