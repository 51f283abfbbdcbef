package semantic

import (
	"github.com/anistark/waspy/pkg/ast"
	"github.com/anistark/waspy/pkg/ir"
)

func (c *Converter) convertBlock(b *ast.BlockStmt) ([]ir.Stmt, error) {
	if b == nil {
		return nil, nil
	}
	out := make([]ir.Stmt, 0, len(b.Statements))
	for _, s := range b.Statements {
		stmts, err := c.convertStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

// convertStmt returns a slice because a single ternary-valued Assign or
// Return lowers to one If statement, not a 1:1 node mapping.
func (c *Converter) convertStmt(s ast.Statement) ([]ir.Stmt, error) {
	switch n := s.(type) {
	case *ast.AssignStmt:
		if tern, ok := n.Value.(*ast.TernaryExpr); ok {
			return c.lowerTernaryAssign(n.Target, tern)
		}
		value, err := c.convertExpr(n.Value)
		if err != nil {
			return nil, err
		}
		switch target := n.Target.(type) {
		case *ast.Identifier:
			return one(&ir.Assign{Target: &ir.Var{Name: target.Name}, Value: value}), nil
		case *ast.IndexExpr:
			obj, err := c.convertExpr(target.Object)
			if err != nil {
				return nil, err
			}
			idx, err := c.convertExpr(target.Index)
			if err != nil {
				return nil, err
			}
			return one(&ir.IndexAssign{Container: obj, Key: idx, Value: value}), nil
		case *ast.AttributeExpr:
			obj, err := c.convertExpr(target.Object)
			if err != nil {
				return nil, err
			}
			return one(&ir.AttrAssign{Object: obj, Name: target.Name, Value: value}), nil
		default:
			return nil, newErr(ErrUnsupportedConstruct, n, "unsupported assignment target %T", n.Target)
		}

	case *ast.AugAssignStmt:
		op, ok := binOpTable[n.Op]
		if !ok {
			return nil, newErr(ErrUnsupportedOperation, n, "unknown augmented-assignment operator %q", n.Op)
		}
		target, err := c.convertExpr(n.Target)
		if err != nil {
			return nil, err
		}
		value, err := c.convertExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return one(&ir.AugAssign{Target: target, Op: op, Value: value}), nil

	case *ast.ReturnStmt:
		if tern, ok := n.Value.(*ast.TernaryExpr); ok {
			return c.lowerTernaryReturn(tern)
		}
		v, err := c.convertOptExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return one(&ir.Return{Value: v}), nil

	case *ast.IfStmt:
		cond, err := c.convertExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := c.convertBlock(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := c.convertBlock(n.Else)
		if err != nil {
			return nil, err
		}
		return one(&ir.If{Cond: cond, Then: then, Else: els}), nil

	case *ast.WhileStmt:
		cond, err := c.convertExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		body, err := c.convertBlock(n.Body)
		if err != nil {
			return nil, err
		}
		return one(&ir.While{Cond: cond, Body: body}), nil

	case *ast.ForStmt:
		iterable, err := c.convertExpr(n.Iterable)
		if err != nil {
			return nil, err
		}
		body, err := c.convertBlock(n.Body)
		if err != nil {
			return nil, err
		}
		return one(&ir.For{Var: n.Var, Iterable: iterable, Body: body}), nil

	case *ast.TryStmt:
		body, err := c.convertBlock(n.Body)
		if err != nil {
			return nil, err
		}
		handlers := make([]ir.Handler, len(n.Handlers))
		for i, h := range n.Handlers {
			hbody, err := c.convertBlock(h.Body)
			if err != nil {
				return nil, err
			}
			handlers[i] = ir.Handler{TypeName: h.TypeName, Var: h.Var, Body: hbody}
		}
		finally, err := c.convertBlock(n.Finally)
		if err != nil {
			return nil, err
		}
		return one(&ir.Try{Body: body, Handlers: handlers, Finally: finally}), nil

	case *ast.WithStmt:
		ctx, err := c.convertExpr(n.CtxExpr)
		if err != nil {
			return nil, err
		}
		body, err := c.convertBlock(n.Body)
		if err != nil {
			return nil, err
		}
		return one(&ir.With{CtxExpr: ctx, AsVar: n.AsVar, Body: body}), nil

	case *ast.RaiseStmt:
		v, err := c.convertOptExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		return one(&ir.Raise{Expr: v}), nil

	case *ast.BreakStmt:
		return one(&ir.Break{}), nil
	case *ast.ContinueStmt:
		return one(&ir.Continue{}), nil
	case *ast.PassStmt:
		return one(&ir.Pass{}), nil

	case *ast.ExpressionStmt:
		v, err := c.convertExpr(n.Expression)
		if err != nil {
			return nil, err
		}
		return one(&ir.ExprStmt{Value: v}), nil

	case *ast.ImportStmt:
		return one(&ir.ImportModule{Name: n.Path, Alias: n.Alias}), nil

	case *ast.FunctionDecl, *ast.ClassDecl:
		return nil, newErr(ErrUnsupportedConstruct, s, "nested function and class declarations are not supported")

	default:
		return nil, newErr(ErrUnsupportedConstruct, s, "unsupported statement node %T", s)
	}
}

func one(s ir.Stmt) []ir.Stmt { return []ir.Stmt{s} }

func (c *Converter) lowerTernaryAssign(target ast.Expression, tern *ast.TernaryExpr) ([]ir.Stmt, error) {
	cond, err := c.convertExpr(tern.Cond)
	if err != nil {
		return nil, err
	}
	thenAssign, err := c.convertStmt(&ast.AssignStmt{Target: target, Value: tern.Body})
	if err != nil {
		return nil, err
	}
	elseAssign, err := c.convertStmt(&ast.AssignStmt{Target: target, Value: tern.OrElse})
	if err != nil {
		return nil, err
	}
	return one(&ir.If{Cond: cond, Then: thenAssign, Else: elseAssign}), nil
}

func (c *Converter) lowerTernaryReturn(tern *ast.TernaryExpr) ([]ir.Stmt, error) {
	cond, err := c.convertExpr(tern.Cond)
	if err != nil {
		return nil, err
	}
	thenV, err := c.convertExpr(tern.Body)
	if err != nil {
		return nil, err
	}
	elseV, err := c.convertExpr(tern.OrElse)
	if err != nil {
		return nil, err
	}
	return one(&ir.If{
		Cond: cond,
		Then: []ir.Stmt{&ir.Return{Value: thenV}},
		Else: []ir.Stmt{&ir.Return{Value: elseV}},
	}), nil
}
