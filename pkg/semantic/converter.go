// Package semantic implements C2: conversion of the parsed AST
// (pkg/ast) into the typed IR (pkg/ir) the code generator consumes.
// Grounded on the teacher's pkg/semantic.Analyzer two-pass structure
// (register signatures, then analyze bodies), generalized to this
// language's type and decorator rules and converted to fail-fast error
// propagation (spec §7) instead of the teacher's error-accumulating pass.
package semantic

import (
	"github.com/anistark/waspy/pkg/ast"
	"github.com/anistark/waspy/pkg/ir"
)

// Converter holds the state threaded through one file's conversion.
type Converter struct {
	mod        *ir.Module
	global     *Scope
	decorators DecoratorRegistry
	funcSigs   map[string]*ir.Function
	classes    map[string]*ir.Class
	classNames map[string]bool
}

// NewConverter returns a Converter using the built-in decorator registry.
func NewConverter() *Converter {
	return NewConverterWithDecorators(DefaultDecoratorRegistry)
}

// NewConverterWithDecorators allows a project to plug in additional
// decorators alongside memoize/debug/timer (spec §1: the decorator
// table is an external, project-level collaborator).
func NewConverterWithDecorators(reg DecoratorRegistry) *Converter {
	return &Converter{
		mod:        ir.NewModule(),
		global:     NewScope(nil),
		decorators: reg,
		funcSigs:   make(map[string]*ir.Function),
		classes:    make(map[string]*ir.Class),
		classNames: make(map[string]bool),
	}
}

// Convert lowers file into an ir.Module, or returns the first
// CompileError encountered (fail-fast, per spec §7).
func Convert(file *ast.File) (*ir.Module, error) {
	return NewConverter().Convert(file)
}

func (c *Converter) Convert(file *ast.File) (*ir.Module, error) {
	c.classNames = collectClassNames(file)

	if err := c.registerSignatures(file, c.classNames); err != nil {
		return nil, err
	}
	c.widenMismatchedParams(file)

	for _, decl := range file.Declarations {
		switch d := decl.(type) {
		case *ast.FunctionDecl:
			fn, err := c.convertFunction(d, "")
			if err != nil {
				return nil, wrapIn(err, d.Name)
			}
			c.mod.Functions = append(c.mod.Functions, fn)
		case *ast.ClassDecl:
			cls, err := c.convertClass(d)
			if err != nil {
				return nil, wrapIn(err, d.Name)
			}
			c.mod.Classes = append(c.mod.Classes, cls)
		}
	}

	for _, imp := range file.Imports {
		c.global.Define(importBindingName(imp), &ModuleSymbol{Name: imp.Path})
	}

	return c.mod, nil
}

func importBindingName(imp *ast.ImportStmt) string {
	if imp.Alias != "" {
		return imp.Alias
	}
	return imp.Path
}

func collectClassNames(file *ast.File) map[string]bool {
	names := make(map[string]bool)
	for _, decl := range file.Declarations {
		if cd, ok := decl.(*ast.ClassDecl); ok {
			names[cd.Name] = true
		}
	}
	return names
}

// registerSignatures is pass 1: bind every module-level function and
// class/method name before any body is converted, so forward references
// and recursive/mutually-recursive calls resolve (spec §4.1).
func (c *Converter) registerSignatures(file *ast.File, classNames map[string]bool) error {
	for _, decl := range file.Declarations {
		switch d := decl.(type) {
		case *ast.FunctionDecl:
			fn, err := c.signatureOf(d, classNames)
			if err != nil {
				return err
			}
			c.funcSigs[d.Name] = fn
			c.global.Define(d.Name, &FuncSymbol{Name: d.Name, Params: fn.Params, ReturnType: fn.ReturnType})
		case *ast.ClassDecl:
			cls := &ir.Class{Name: d.Name}
			c.classes[d.Name] = cls
			c.global.Define(d.Name, &ClassSymbol{Name: d.Name, Class: cls})
			for _, member := range d.Body {
				if method, ok := member.(*ast.FunctionDecl); ok {
					fn, err := c.signatureOf(method, classNames)
					if err != nil {
						return err
					}
					fn.IsMethod = true
					fn.OwnerClass = d.Name
					c.funcSigs[ir.MangledMethodName(d.Name, method.Name)] = fn
				}
			}
		}
	}
	return nil
}

func (c *Converter) signatureOf(d *ast.FunctionDecl, classNames map[string]bool) (*ir.Function, error) {
	params := make([]ir.Param, len(d.Params))
	for i, p := range d.Params {
		if d.IsMethod && i == 0 && p.Type == nil {
			// `self` — typed once the owning class is known to the caller.
			params[i] = ir.Param{Name: p.Name, Type: ir.Unknown}
			continue
		}
		t, err := resolveType(p.Type, classNames)
		if err != nil {
			return nil, err
		}
		params[i] = ir.Param{Name: p.Name, Type: t}
	}
	var ret ir.Type
	if d.ReturnType != nil {
		t, err := resolveType(d.ReturnType, classNames)
		if err != nil {
			return nil, err
		}
		ret = t
	}
	return &ir.Function{Name: d.Name, Params: params, ReturnType: ret}, nil
}

// widenMismatchedParams is the best-effort call-site widening pass (spec
// §4.1): for every call whose argument is a bare literal of a type that
// disagrees with the callee's recorded parameter type (an unannotated
// parameter is recorded as Int), widen that parameter to Any. This never
// narrows and skips parameters that are already Any.
func (c *Converter) widenMismatchedParams(file *ast.File) {
	var walkExpr func(e ast.Expression)
	var walkBlock func(b *ast.BlockStmt)

	checkCall := func(call *ast.CallExpr) {
		ident, ok := call.Callee.(*ast.Identifier)
		if !ok {
			return
		}
		fn, ok := c.funcSigs[ident.Name]
		if !ok {
			return
		}
		for i, arg := range call.Args {
			if i >= len(fn.Params) {
				break
			}
			lit := inferLiteralType(arg)
			if lit == nil {
				continue
			}
			pt := fn.Params[i].Type
			if pt == nil || ir.Equal(pt, ir.Any) {
				continue
			}
			if !ir.Equal(pt, lit) {
				fn.Params[i].Type = ir.Any
			}
		}
	}

	walkExpr = func(e ast.Expression) {
		switch v := e.(type) {
		case *ast.BinaryExpr:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *ast.UnaryExpr:
			walkExpr(v.Operand)
		case *ast.BoolOpExpr:
			for _, o := range v.Operands {
				walkExpr(o)
			}
		case *ast.CompareExpr:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *ast.CallExpr:
			checkCall(v)
			walkExpr(v.Callee)
			for _, a := range v.Args {
				walkExpr(a)
			}
		case *ast.AttributeExpr:
			walkExpr(v.Object)
		case *ast.IndexExpr:
			walkExpr(v.Object)
			walkExpr(v.Index)
		case *ast.ListExpr:
			for _, el := range v.Elements {
				walkExpr(el)
			}
		case *ast.TupleExpr:
			for _, el := range v.Elements {
				walkExpr(el)
			}
		case *ast.TernaryExpr:
			walkExpr(v.Body)
			walkExpr(v.Cond)
			walkExpr(v.OrElse)
		}
	}

	walkStmt := func(s ast.Statement) {
		switch v := s.(type) {
		case *ast.AssignStmt:
			walkExpr(v.Value)
		case *ast.AugAssignStmt:
			walkExpr(v.Value)
		case *ast.ReturnStmt:
			if v.Value != nil {
				walkExpr(v.Value)
			}
		case *ast.ExpressionStmt:
			walkExpr(v.Expression)
		case *ast.IfStmt:
			walkExpr(v.Cond)
		case *ast.WhileStmt:
			walkExpr(v.Cond)
		case *ast.ForStmt:
			walkExpr(v.Iterable)
		case *ast.RaiseStmt:
			if v.Expr != nil {
				walkExpr(v.Expr)
			}
		}
	}

	walkBlock = func(b *ast.BlockStmt) {
		if b == nil {
			return
		}
		for _, s := range b.Statements {
			walkStmt(s)
			switch v := s.(type) {
			case *ast.IfStmt:
				walkBlock(v.Then)
				walkBlock(v.Else)
			case *ast.WhileStmt:
				walkBlock(v.Body)
			case *ast.ForStmt:
				walkBlock(v.Body)
			case *ast.TryStmt:
				walkBlock(v.Body)
				for _, h := range v.Handlers {
					walkBlock(h.Body)
				}
				walkBlock(v.Finally)
			case *ast.WithStmt:
				walkBlock(v.Body)
			}
		}
	}

	for _, decl := range file.Declarations {
		switch d := decl.(type) {
		case *ast.FunctionDecl:
			walkBlock(d.Body)
		case *ast.ClassDecl:
			for _, member := range d.Body {
				if method, ok := member.(*ast.FunctionDecl); ok {
					walkBlock(method.Body)
				}
			}
		}
	}
}

func (c *Converter) convertFunction(d *ast.FunctionDecl, ownerClass string) (*ir.Function, error) {
	sig := c.funcSigs[d.Name]
	if ownerClass != "" {
		sig = c.funcSigs[ir.MangledMethodName(ownerClass, d.Name)]
	}

	body, err := c.convertBlock(d.Body)
	if err != nil {
		return nil, err
	}
	sig.Body = body

	if d.ReturnType == nil {
		sig.ReturnType = joinReturnTypes(c.collectReturnTypes(body, sig, ownerClass))
	}

	decorators, err := c.resolveDecorators(d.Decorators)
	if err != nil {
		return nil, err
	}
	sig.Decorators = decorators

	for _, dec := range decorators {
		if kind, ok := c.decorators.Resolve(dec.Name); ok && kind == DecoratorMemoize {
			applyMemoize(c.mod, sig)
		}
	}

	return sig, nil
}

func (c *Converter) resolveDecorators(refs []*ast.DecoratorRef) ([]ir.Decorator, error) {
	out := make([]ir.Decorator, 0, len(refs))
	for _, ref := range refs {
		if _, ok := c.decorators.Resolve(ref.Name); !ok {
			return nil, newErr(ErrUnsupportedDecorator, ref, "unknown decorator %q", ref.Name)
		}
		args := make([]ir.Expr, len(ref.Args))
		for i, a := range ref.Args {
			v, err := c.convertExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		out = append(out, ir.Decorator{Name: ref.Name, Args: args})
	}
	return out, nil
}

// collectReturnTypes performs a best-effort, syntax-level scan for the
// unannotated-return-type join rule (spec §4.1). sig supplies the
// enclosing function's own (already-resolved) parameter types, so a
// return expression that's a bare parameter reference classifies
// directly; ownerClass, when non-empty, lets a `self.<field>` read
// resolve against that class's already-built field table (built from
// __init__ before any of its sibling methods are converted — see
// convertClass). Anything this scan can't classify (calls, indexing,
// containers) falls through to joinReturnTypes' Any fallback, since a
// full type checker is deliberately out of scope for this converter.
func (c *Converter) collectReturnTypes(body []ir.Stmt, sig *ir.Function, ownerClass string) []ir.Type {
	var types []ir.Type
	var walk func(stmts []ir.Stmt)
	walk = func(stmts []ir.Stmt) {
		for _, s := range stmts {
			switch st := s.(type) {
			case *ir.Return:
				if st.Value == nil {
					continue
				}
				t := c.staticExprType(st.Value, sig, ownerClass)
				if t == nil {
					t = ir.Any
				}
				types = append(types, t)
			case *ir.If:
				walk(st.Then)
				walk(st.Else)
			case *ir.While:
				walk(st.Body)
			case *ir.For:
				walk(st.Body)
			case *ir.Try:
				walk(st.Body)
				for _, h := range st.Handlers {
					walk(h.Body)
				}
				walk(st.Finally)
			case *ir.With:
				walk(st.Body)
			}
		}
	}
	walk(body)
	return types
}

// staticExprType classifies a return expression's type without a full
// type checker: literals directly, a bare Var by looking its name up in
// sig's own parameter table, a `self.<field>` Attribute by looking it up
// in ownerClass's field table, and a BinOp/UOp by recursively
// classifying its operands and applying the same arithmetic promotion
// rule wasm_expr.go's emitBinOp/exprIsFloat use at codegen time (true
// division always promotes to float; otherwise either operand being
// float promotes the result).
func (c *Converter) staticExprType(e ir.Expr, sig *ir.Function, ownerClass string) ir.Type {
	switch n := e.(type) {
	case *ir.IntConst:
		return ir.Int
	case *ir.FloatConst:
		return ir.Float
	case *ir.BoolConst:
		return ir.Bool
	case *ir.StrConst:
		return ir.Str
	case *ir.BytesConst:
		return ir.Bytes
	case *ir.NoneConst:
		return ir.None
	case *ir.Var:
		if sig == nil {
			return nil
		}
		for _, p := range sig.Params {
			if p.Name == n.Name {
				return p.Type
			}
		}
		return nil
	case *ir.Attribute:
		if ownerClass == "" {
			return nil
		}
		recv, ok := n.Receiver.(*ir.Var)
		if !ok || recv.Name != "self" {
			return nil
		}
		cls, ok := c.classes[ownerClass]
		if !ok {
			return nil
		}
		for _, f := range cls.Fields {
			if f.Name == n.Name {
				return f.Type
			}
		}
		return nil
	case *ir.UOp:
		return c.staticExprType(n.V, sig, ownerClass)
	case *ir.BinOp:
		lt := c.staticExprType(n.L, sig, ownerClass)
		rt := c.staticExprType(n.R, sig, ownerClass)
		if lt == nil || rt == nil {
			return nil
		}
		if n.Op == ir.OpDiv {
			return ir.Float
		}
		if ir.Equal(lt, ir.Float) || ir.Equal(rt, ir.Float) {
			return ir.Float
		}
		if ir.IsNumeric(lt) && ir.IsNumeric(rt) {
			return ir.Int
		}
		return nil
	default:
		return nil
	}
}

// convertClass lowers a class body: fields come from the first
// assignment to self.<name> within __init__, in source order (spec
// §3.4/§4.1); every other FunctionDecl is a method.
func (c *Converter) convertClass(d *ast.ClassDecl) (*ir.Class, error) {
	cls := c.classes[d.Name]

	var initDecl *ast.FunctionDecl
	var methodDecls []*ast.FunctionDecl
	for _, member := range d.Body {
		fd, ok := member.(*ast.FunctionDecl)
		if !ok {
			continue
		}
		if fd.Name == "__init__" {
			initDecl = fd
		} else {
			methodDecls = append(methodDecls, fd)
		}
	}

	if initDecl != nil {
		cls.Fields = fieldsFromInit(initDecl, c.funcSigs[ir.MangledMethodName(d.Name, "__init__")].Params)
		fn, err := c.convertFunction(initDecl, d.Name)
		if err != nil {
			return nil, err
		}
		if err := typeSelfParam(fn, d.Name); err != nil {
			return nil, err
		}
		cls.Init = fn
	}

	for _, method := range methodDecls {
		fn, err := c.convertFunction(method, d.Name)
		if err != nil {
			return nil, err
		}
		if err := typeSelfParam(fn, d.Name); err != nil {
			return nil, err
		}
		cls.Methods = append(cls.Methods, fn)
	}

	return cls, nil
}

func typeSelfParam(fn *ir.Function, className string) error {
	if len(fn.Params) == 0 {
		return nil
	}
	fn.Params[0].Type = &ir.ClassType{Name: className}
	return nil
}

// fieldsFromInit walks __init__'s top-level assignment statements in
// source order, recording the first assignment to each self.<name>.
// params are __init__'s resolved parameters, used to type a field
// assigned straight from a parameter.
func fieldsFromInit(d *ast.FunctionDecl, params []ir.Param) []ir.Field {
	var fields []ir.Field
	seen := make(map[string]bool)
	if d.Body == nil {
		return nil
	}
	for _, s := range d.Body.Statements {
		assign, ok := s.(*ast.AssignStmt)
		if !ok {
			continue
		}
		attr, ok := assign.Target.(*ast.AttributeExpr)
		if !ok {
			continue
		}
		recv, ok := attr.Object.(*ast.Identifier)
		if !ok || recv.Name != "self" || seen[attr.Name] {
			continue
		}
		seen[attr.Name] = true
		fields = append(fields, ir.Field{Name: attr.Name, Type: inferFieldType(assign.Value, params)})
	}
	return fields
}

// inferFieldType classifies a field from the value __init__ assigns it:
// a bare literal by inferLiteralType, a bare parameter name by that
// parameter's resolved type. Fields assigned any other expression
// default to Any, matching the converter's general stance that
// un-inferable source yields the universal type rather than a guess.
func inferFieldType(e ast.Expression, params []ir.Param) ir.Type {
	if t := inferLiteralType(e); t != nil {
		return t
	}
	if id, ok := e.(*ast.Identifier); ok {
		for _, p := range params {
			if p.Name == id.Name {
				return p.Type
			}
		}
	}
	return ir.Any
}
