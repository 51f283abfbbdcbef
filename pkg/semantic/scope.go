package semantic

import "github.com/anistark/waspy/pkg/ir"

// Symbol is implemented by every kind of name the converter can bind.
// Grounded on the teacher's semantic.Symbol / scope.go.
type Symbol interface {
	symbol()
}

// VarSymbol is a local variable, parameter, or module-level variable.
type VarSymbol struct {
	Name        string
	Type        ir.Type
	IsParameter bool
}

func (*VarSymbol) symbol() {}

// FuncSymbol is a module-level function.
type FuncSymbol struct {
	Name       string
	Params     []ir.Param
	ReturnType ir.Type
}

func (*FuncSymbol) symbol() {}

// ClassSymbol is a declared class.
type ClassSymbol struct {
	Name  string
	Class *ir.Class
}

func (*ClassSymbol) symbol() {}

// ModuleSymbol is an imported module namespace (spec §4.1 — import
// statements are recorded but name resolution within them is left to the
// external project resolver; this symbol is a placeholder binding so
// `mod.attr` parses without a forward-reference error).
type ModuleSymbol struct {
	Name string
}

func (*ModuleSymbol) symbol() {}

// Scope is a lexical scope with parent chaining, as in the teacher's
// semantic.Scope.
type Scope struct {
	parent  *Scope
	symbols map[string]Symbol
}

// NewScope creates a new scope nested inside parent (nil for the
// outermost/module scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: make(map[string]Symbol)}
}

// Define binds name in this scope.
func (s *Scope) Define(name string, sym Symbol) {
	s.symbols[name] = sym
}

// Lookup searches this scope and its ancestors.
func (s *Scope) Lookup(name string) Symbol {
	if sym, ok := s.symbols[name]; ok {
		return sym
	}
	if s.parent != nil {
		return s.parent.Lookup(name)
	}
	return nil
}

// LookupLocal searches only this scope.
func (s *Scope) LookupLocal(name string) Symbol {
	return s.symbols[name]
}
