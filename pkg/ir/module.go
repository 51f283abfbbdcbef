package ir

// Param is a function parameter: a name paired with its resolved type.
type Param struct {
	Name string
	Type Type
}

// Field is a class field: a name paired with its declared type, in
// declaration order (spec §3.4 — "source order of first assignment in
// __init__").
type Field struct {
	Name string
	Type Type
}

// Decorator is a resolved decorator application (spec §4.1, §4.4).
type Decorator struct {
	Name string
	Args []Expr
}

// Function is an IR function or method (spec §3.4: IRFunction).
type Function struct {
	Name       string
	Params     []Param
	ReturnType Type
	Body       []Stmt
	Decorators []Decorator
	IsMethod   bool
	OwnerClass string // "" unless IsMethod
}

// Class is an IR class (spec §3.4: IRClass). Fields are laid out in
// declaration order with no header (§3.5): field i occupies cell i.
type Class struct {
	Name    string
	Fields  []Field
	Methods []*Function
	Init    *Function // nil if the class has no __init__
}

// Module is the top-level compilation unit (spec §3.4: IRModule).
type Module struct {
	Functions  []*Function
	Classes    []*Class
	ModuleVars []*Assign
}

// NewModule returns an empty module ready for the converter to populate.
func NewModule() *Module {
	return &Module{}
}

// FindClass returns the class named name, or nil.
func (m *Module) FindClass(name string) *Class {
	for _, c := range m.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// MangledMethodName is the ClassName::method_name convention used for
// export names and call targets (spec §4.3, §4.5).
func MangledMethodName(className, methodName string) string {
	return className + "::" + methodName
}
