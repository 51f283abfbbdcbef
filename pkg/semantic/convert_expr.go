package semantic

import (
	"github.com/anistark/waspy/pkg/ast"
	"github.com/anistark/waspy/pkg/ir"
)

var binOpTable = map[string]ir.BinOpKind{
	"+": ir.OpAdd, "-": ir.OpSub, "*": ir.OpMul, "/": ir.OpDiv,
	"//": ir.OpFloorDiv, "%": ir.OpMod, "**": ir.OpPow,
	"&": ir.OpBitAnd, "|": ir.OpBitOr, "^": ir.OpBitXor,
	"<<": ir.OpShl, ">>": ir.OpShr,
}

var cmpOpTable = map[string]ir.CompareOp{
	"==": ir.CmpEq, "!=": ir.CmpNe, "<": ir.CmpLt, ">": ir.CmpGt, "<=": ir.CmpLe, ">=": ir.CmpGe,
}

func (c *Converter) convertExpr(e ast.Expression) (ir.Expr, error) {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return &ir.IntConst{Value: n.Value}, nil
	case *ast.FloatLiteral:
		return &ir.FloatConst{Value: n.Value}, nil
	case *ast.BoolLiteral:
		return &ir.BoolConst{Value: n.Value}, nil
	case *ast.StrLiteral:
		return &ir.StrConst{Value: n.Value}, nil
	case *ast.BytesLiteral:
		return &ir.BytesConst{Value: n.Value}, nil
	case *ast.NoneLiteral:
		return &ir.NoneConst{}, nil
	case *ast.Identifier:
		return &ir.Var{Name: n.Name}, nil

	case *ast.BinaryExpr:
		op, ok := binOpTable[n.Op]
		if !ok {
			return nil, newErr(ErrUnsupportedOperation, n, "unknown binary operator %q", n.Op)
		}
		l, err := c.convertExpr(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := c.convertExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return &ir.BinOp{Op: op, L: l, R: r}, nil

	case *ast.UnaryExpr:
		var op ir.UnaryOpKind
		switch n.Op {
		case "-":
			op = ir.OpNeg
		case "+":
			op = ir.OpPos
		case "not":
			op = ir.OpNot
		case "~":
			op = ir.OpInvert
		default:
			return nil, newErr(ErrUnsupportedOperation, n, "unknown unary operator %q", n.Op)
		}
		v, err := c.convertExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		return &ir.UOp{Op: op, V: v}, nil

	case *ast.BoolOpExpr:
		var op ir.BoolOpKind
		switch n.Op {
		case "and":
			op = ir.OpAnd
		case "or":
			op = ir.OpOr
		default:
			return nil, newErr(ErrUnsupportedOperation, n, "unknown boolean operator %q", n.Op)
		}
		operands := make([]ir.Expr, len(n.Operands))
		for i, o := range n.Operands {
			v, err := c.convertExpr(o)
			if err != nil {
				return nil, err
			}
			operands[i] = v
		}
		return &ir.BoolOp{Op: op, Operands: operands}, nil

	case *ast.CompareExpr:
		op, ok := cmpOpTable[n.Op]
		if !ok {
			return nil, newErr(ErrUnsupportedOperation, n, "unknown comparison operator %q", n.Op)
		}
		l, err := c.convertExpr(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := c.convertExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return &ir.Compare{Op: op, L: l, R: r}, nil

	case *ast.CallExpr:
		return c.convertCall(n)

	case *ast.AttributeExpr:
		obj, err := c.convertExpr(n.Object)
		if err != nil {
			return nil, err
		}
		return &ir.Attribute{Receiver: obj, Name: n.Name}, nil

	case *ast.IndexExpr:
		obj, err := c.convertExpr(n.Object)
		if err != nil {
			return nil, err
		}
		idx, err := c.convertExpr(n.Index)
		if err != nil {
			return nil, err
		}
		return &ir.Index{Container: obj, Key: idx}, nil

	case *ast.SliceExpr:
		obj, err := c.convertExpr(n.Object)
		if err != nil {
			return nil, err
		}
		start, err := c.convertOptExpr(n.Start)
		if err != nil {
			return nil, err
		}
		stop, err := c.convertOptExpr(n.Stop)
		if err != nil {
			return nil, err
		}
		step, err := c.convertOptExpr(n.Step)
		if err != nil {
			return nil, err
		}
		return &ir.Slice{Container: obj, Start: start, Stop: stop, Step: step}, nil

	case *ast.ListExpr:
		elems := make([]ir.Expr, len(n.Elements))
		for i, el := range n.Elements {
			v, err := c.convertExpr(el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &ir.ListLiteral{Elements: elems}, nil

	case *ast.DictExpr:
		keys := make([]ir.Expr, len(n.Keys))
		vals := make([]ir.Expr, len(n.Values))
		for i := range n.Keys {
			k, err := c.convertExpr(n.Keys[i])
			if err != nil {
				return nil, err
			}
			v, err := c.convertExpr(n.Values[i])
			if err != nil {
				return nil, err
			}
			keys[i], vals[i] = k, v
		}
		return &ir.DictLiteral{Keys: keys, Values: vals}, nil

	case *ast.TupleExpr:
		elems := make([]ir.Expr, len(n.Elements))
		for i, el := range n.Elements {
			v, err := c.convertExpr(el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &ir.TupleLiteral{Elements: elems}, nil

	case *ast.FStringExpr:
		parts := make([]ir.FStringPart, len(n.Parts))
		for i, p := range n.Parts {
			if p.Expr == nil {
				parts[i] = ir.FStringPart{Literal: p.Literal}
				continue
			}
			v, err := c.convertExpr(p.Expr)
			if err != nil {
				return nil, err
			}
			parts[i] = ir.FStringPart{Expr: v}
		}
		return &ir.FString{Parts: parts}, nil

	case *ast.FormatPercentExpr:
		format, err := c.convertExpr(n.Format)
		if err != nil {
			return nil, err
		}
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			v, err := c.convertExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return &ir.FormatPercent{Format: format, Args: args}, nil

	case *ast.LambdaExpr:
		return c.convertLambda(n)

	case *ast.ListCompExpr:
		iterable, err := c.convertExpr(n.Iterable)
		if err != nil {
			return nil, err
		}
		elem, err := c.convertExpr(n.Element)
		if err != nil {
			return nil, err
		}
		cond, err := c.convertOptExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		return &ir.ListComp{Element: elem, IterVar: n.IterVar, Iterable: iterable, Cond: cond}, nil

	case *ast.YieldExpr:
		v, err := c.convertOptExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &ir.Yield{Value: v}, nil

	case *ast.AwaitExpr:
		return nil, newErr(ErrUnsupportedConstruct, n, "await is reserved and never emitted")

	case *ast.TernaryExpr:
		// The IR has no ternary expression node, and rewriting it as
		// (cond and body) or orelse is unsound for non-bool operands, so
		// ternaries lower through a synthetic If at the statement level
		// instead — see convertStmt's AssignStmt and ReturnStmt handling,
		// which special-case a TernaryExpr value. Reaching here means the
		// ternary sits anywhere else.
		return nil, newErr(ErrUnsupportedConstruct, n, "ternary expression outside of an assignment or return is not supported")

	default:
		return nil, newErr(ErrUnsupportedConstruct, e, "unsupported expression node %T", e)
	}
}

func (c *Converter) convertOptExpr(e ast.Expression) (ir.Expr, error) {
	if e == nil {
		return nil, nil
	}
	return c.convertExpr(e)
}

func (c *Converter) convertCall(n *ast.CallExpr) (ir.Expr, error) {
	args := make([]ir.Expr, len(n.Args))
	for i, a := range n.Args {
		v, err := c.convertExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch callee := n.Callee.(type) {
	case *ast.Identifier:
		if callee.Name == "range" {
			switch len(args) {
			case 1:
				return &ir.RangeCall{Start: &ir.IntConst{Value: 0}, Stop: args[0], Step: &ir.IntConst{Value: 1}}, nil
			case 2:
				return &ir.RangeCall{Start: args[0], Stop: args[1], Step: &ir.IntConst{Value: 1}}, nil
			case 3:
				return &ir.RangeCall{Start: args[0], Stop: args[1], Step: args[2]}, nil
			default:
				return nil, newErr(ErrUnsupportedOperation, n, "range expects 1 to 3 arguments")
			}
		}
		if builtinFuncs[callee.Name] {
			return &ir.Call{Callee: callee.Name, Args: args}, nil
		}
		if _, ok := c.funcSigs[callee.Name]; ok {
			return &ir.Call{Callee: callee.Name, Args: args}, nil
		}
		if _, ok := c.classes[callee.Name]; ok {
			return &ir.Call{Callee: callee.Name, Args: args}, nil // constructor call
		}
		return nil, newErr(ErrUnknownFunction, n, "call to undeclared function %q", callee.Name)

	case *ast.AttributeExpr:
		recv, err := c.convertExpr(callee.Object)
		if err != nil {
			return nil, err
		}
		return &ir.MethodCall{Receiver: recv, Name: callee.Name, Args: args}, nil

	default:
		return nil, newErr(ErrUnsupportedConstruct, n, "call target must be a name or attribute")
	}
}

func (c *Converter) convertLambda(n *ast.LambdaExpr) (ir.Expr, error) {
	captured := freeVarsOf(n)
	params := make([]ir.Param, len(n.Params))
	bound := make(map[string]bool, len(n.Params))
	for i, p := range n.Params {
		t, err := resolveType(p.Type, c.classNames)
		if err != nil {
			return nil, err
		}
		params[i] = ir.Param{Name: p.Name, Type: t}
		bound[p.Name] = true
	}
	var free []string
	for _, name := range captured {
		if !bound[name] {
			free = append(free, name)
		}
	}
	if len(free) > 0 {
		return nil, newErr(ErrUnsupportedConstruct, n, "closure-with-capture")
	}
	body, err := c.convertExpr(n.Body)
	if err != nil {
		return nil, err
	}
	return &ir.Lambda{Params: params, Body: []ir.Stmt{&ir.Return{Value: body}}, Captured: nil}, nil
}

// freeVarsOf collects every identifier referenced in a lambda body,
// param binding filtering happens in convertLambda.
func freeVarsOf(n *ast.LambdaExpr) []string {
	var names []string
	var walk func(e ast.Expression)
	walk = func(e ast.Expression) {
		switch v := e.(type) {
		case *ast.Identifier:
			names = append(names, v.Name)
		case *ast.BinaryExpr:
			walk(v.Left)
			walk(v.Right)
		case *ast.UnaryExpr:
			walk(v.Operand)
		case *ast.BoolOpExpr:
			for _, o := range v.Operands {
				walk(o)
			}
		case *ast.CompareExpr:
			walk(v.Left)
			walk(v.Right)
		case *ast.CallExpr:
			walk(v.Callee)
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.AttributeExpr:
			walk(v.Object)
		case *ast.IndexExpr:
			walk(v.Object)
			walk(v.Index)
		case *ast.TernaryExpr:
			walk(v.Body)
			walk(v.Cond)
			walk(v.OrElse)
		}
	}
	walk(n.Body)
	return names
}
