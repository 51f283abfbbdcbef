package frontend

import (
	"fmt"

	"github.com/anistark/waspy/pkg/ast"
)

// Parse turns source text into an ast.File, the input shape pkg/semantic
// converts into IR.
func Parse(name, src string) (*ast.File, error) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, name: name}
	return p.parseFile()
}

type parser struct {
	toks []token
	pos  int
	name string
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) at(k tokKind) bool { return p.cur().kind == k }

func (p *parser) atOp(s string) bool {
	return p.cur().kind == tokOp && p.cur().text == s
}

func (p *parser) atKw(s string) bool {
	return p.cur().kind == tokKeyword && p.cur().text == s
}

func (p *parser) advance() token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expectOp(s string) (token, error) {
	if !p.atOp(s) {
		return token{}, p.errf("expected %q, got %q", s, p.cur().text)
	}
	return p.advance(), nil
}

func (p *parser) expectKw(s string) (token, error) {
	if !p.atKw(s) {
		return token{}, p.errf("expected keyword %q, got %q", s, p.cur().text)
	}
	return p.advance(), nil
}

func (p *parser) expectName() (token, error) {
	if !p.at(tokName) {
		return token{}, p.errf("expected identifier, got %q", p.cur().text)
	}
	return p.advance(), nil
}

func (p *parser) errf(format string, args ...interface{}) error {
	pos := p.cur().pos
	return fmt.Errorf("%s:%d:%d: %s", p.name, pos.Line, pos.Column, fmt.Sprintf(format, args...))
}

func (p *parser) skipNewlines() {
	for p.at(tokNewline) {
		p.advance()
	}
}

func (p *parser) parseFile() (*ast.File, error) {
	start := p.cur().pos
	f := &ast.File{Name: p.name, StartPos: start}
	p.skipNewlines()
	for !p.at(tokEOF) {
		decl, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		if imp, ok := decl.(*ast.ImportStmt); ok {
			f.Imports = append(f.Imports, imp)
		} else {
			f.Declarations = append(f.Declarations, decl.(ast.Declaration))
		}
		p.skipNewlines()
	}
	f.EndPos = p.cur().pos
	return f, nil
}

func (p *parser) parseDeclaration() (ast.Statement, error) {
	switch {
	case p.atOp("@"):
		return p.parseDecoratedFunction()
	case p.atKw("def"):
		return p.parseFunctionDecl(false)
	case p.atKw("class"):
		return p.parseClassDecl()
	case p.atKw("import"), p.atKw("from"):
		return p.parseImport()
	default:
		return p.parseStatement()
	}
}

func (p *parser) parseImport() (ast.Statement, error) {
	start := p.cur().pos
	if p.atKw("import") {
		p.advance()
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		path := name.text
		alias := ""
		if p.atKw("as") {
			p.advance()
			a, err := p.expectName()
			if err != nil {
				return nil, err
			}
			alias = a.text
		}
		return &ast.ImportStmt{Path: path, Alias: alias, StartPos: start, EndPos: p.cur().pos}, nil
	}
	p.advance() // from
	path, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKw("import"); err != nil {
		return nil, err
	}
	imp := &ast.ImportStmt{Path: path.text, IsFrom: true, StartPos: start}
	if p.atOp("*") {
		p.advance()
		imp.IsStar = true
		imp.EndPos = p.cur().pos
		return imp, nil
	}
	for {
		n, err := p.expectName()
		if err != nil {
			return nil, err
		}
		imp.Names = append(imp.Names, n.text)
		if !p.atOp(",") {
			break
		}
		p.advance()
	}
	imp.EndPos = p.cur().pos
	return imp, nil
}

func (p *parser) parseDecoratedFunction() (ast.Statement, error) {
	var decs []*ast.DecoratorRef
	for p.atOp("@") {
		dstart := p.cur().pos
		p.advance()
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		dec := &ast.DecoratorRef{Name: name.text, StartPos: dstart}
		if p.atOp("(") {
			p.advance()
			for !p.atOp(")") {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				dec.Args = append(dec.Args, arg)
				if p.atOp(",") {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expectOp(")"); err != nil {
				return nil, err
			}
		}
		dec.EndPos = p.cur().pos
		decs = append(decs, dec)
		p.skipNewlines()
	}
	fn, err := p.parseFunctionDecl(false)
	if err != nil {
		return nil, err
	}
	fn.(*ast.FunctionDecl).Decorators = decs
	return fn, nil
}

func (p *parser) parseFunctionDecl(isMethod bool) (ast.Statement, error) {
	start := p.cur().pos
	if _, err := p.expectKw("def"); err != nil {
		return nil, err
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp("("); err != nil {
		return nil, err
	}
	var params []*ast.Parameter
	for !p.atOp(")") {
		pstart := p.cur().pos
		pname, err := p.expectName()
		if err != nil {
			return nil, err
		}
		param := &ast.Parameter{Name: pname.text, StartPos: pstart}
		if p.atOp(":") {
			p.advance()
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			param.Type = t
		}
		param.EndPos = p.cur().pos
		params = append(params, param)
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}
	var retType ast.Type
	if p.atOp("->") {
		p.advance()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		retType = t
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDecl{
		Name: name.text, Params: params, ReturnType: retType, Body: body,
		IsMethod: isMethod, StartPos: start, EndPos: p.cur().pos,
	}, nil
}

func (p *parser) parseClassDecl() (ast.Statement, error) {
	start := p.cur().pos
	p.advance() // class
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if p.atOp("(") {
		p.advance()
		for !p.atOp(")") {
			if _, err := p.parseExpr(); err != nil {
				return nil, err
			}
			if p.atOp(",") {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expectOp(")"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	if _, err := p.expectIndent(); err != nil {
		return nil, err
	}
	var body []ast.Statement
	for !p.at(tokDedent) && !p.at(tokEOF) {
		if p.atKw("def") {
			m, err := p.parseFunctionDecl(true)
			if err != nil {
				return nil, err
			}
			body = append(body, m)
		} else if p.atKw("pass") {
			p.advance()
		} else {
			s, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			body = append(body, s)
		}
		p.skipNewlines()
	}
	if p.at(tokDedent) {
		p.advance()
	}
	return &ast.ClassDecl{Name: name.text, Body: body, StartPos: start, EndPos: p.cur().pos}, nil
}

func (p *parser) expectIndent() (token, error) {
	if !p.at(tokIndent) {
		return token{}, p.errf("expected an indented block")
	}
	return p.advance(), nil
}

// parseType parses type annotations: bare names and Generic[Args, ...].
func (p *parser) parseType() (ast.Type, error) {
	start := p.cur().pos
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if !p.atOp("[") {
		return &ast.NameType{Name: name.text, StartPos: start, EndPos: p.cur().pos}, nil
	}
	p.advance()
	gt := &ast.GenericType{Base: name.text, StartPos: start}
	for !p.atOp("]") {
		if p.atOp("[") {
			// Callable[[T...], R] — nested arg list, parsed as a
			// synthetic generic named "" for its element types.
			p.advance()
			inner := &ast.GenericType{Base: ""}
			for !p.atOp("]") {
				t, err := p.parseType()
				if err != nil {
					return nil, err
				}
				inner.Args = append(inner.Args, t)
				if p.atOp(",") {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expectOp("]"); err != nil {
				return nil, err
			}
			gt.Args = append(gt.Args, inner)
		} else if p.atOp("...") {
			p.advance()
			gt.Args = append(gt.Args, &ast.NameType{Name: "..."})
		} else {
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			gt.Args = append(gt.Args, t)
		}
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectOp("]"); err != nil {
		return nil, err
	}
	gt.EndPos = p.cur().pos
	return gt, nil
}

func (p *parser) parseBlock() (*ast.BlockStmt, error) {
	start := p.cur().pos
	// A single-line suite: `if x: return 1`.
	if !p.at(tokNewline) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.BlockStmt{Statements: []ast.Statement{s}, StartPos: start, EndPos: p.cur().pos}, nil
	}
	p.skipNewlines()
	if _, err := p.expectIndent(); err != nil {
		return nil, err
	}
	var stmts []ast.Statement
	for !p.at(tokDedent) && !p.at(tokEOF) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		p.skipNewlines()
	}
	if p.at(tokDedent) {
		p.advance()
	}
	return &ast.BlockStmt{Statements: stmts, StartPos: start, EndPos: p.cur().pos}, nil
}

func (p *parser) parseStatement() (ast.Statement, error) {
	switch {
	case p.atKw("if"):
		return p.parseIf()
	case p.atKw("while"):
		return p.parseWhile()
	case p.atKw("for"):
		return p.parseFor()
	case p.atKw("try"):
		return p.parseTry()
	case p.atKw("with"):
		return p.parseWith()
	case p.atKw("return"):
		return p.parseReturn()
	case p.atKw("raise"):
		return p.parseRaise()
	case p.atKw("break"):
		start := p.advance().pos
		return &ast.BreakStmt{StartPos: start, EndPos: p.cur().pos}, nil
	case p.atKw("continue"):
		start := p.advance().pos
		return &ast.ContinueStmt{StartPos: start, EndPos: p.cur().pos}, nil
	case p.atKw("pass"):
		start := p.advance().pos
		return &ast.PassStmt{StartPos: start, EndPos: p.cur().pos}, nil
	case p.atKw("import"), p.atKw("from"):
		return p.parseImport()
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *parser) parseIf() (ast.Statement, error) {
	start := p.cur().pos
	p.advance() // if
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Cond: cond, Then: then, StartPos: start}
	if p.atKw("elif") {
		elifStart := p.cur().pos
		nested, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		inner := nested.(*ast.IfStmt)
		inner.StartPos = elifStart
		stmt.Else = &ast.BlockStmt{Statements: []ast.Statement{inner}, StartPos: elifStart, EndPos: p.cur().pos}
	} else if p.atKw("else") {
		p.advance()
		if _, err := p.expectOp(":"); err != nil {
			return nil, err
		}
		els, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.Else = els
	}
	stmt.EndPos = p.cur().pos
	return stmt, nil
}

func (p *parser) parseWhile() (ast.Statement, error) {
	start := p.cur().pos
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body, StartPos: start, EndPos: p.cur().pos}, nil
}

func (p *parser) parseFor() (ast.Statement, error) {
	start := p.cur().pos
	p.advance() // for
	v, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKw("in"); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Var: v.text, Iterable: iter, Body: body, StartPos: start, EndPos: p.cur().pos}, nil
}

func (p *parser) parseTry() (ast.Statement, error) {
	start := p.cur().pos
	p.advance() // try
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.TryStmt{Body: body, StartPos: start}
	for p.atKw("except") {
		hstart := p.cur().pos
		p.advance()
		h := &ast.ExceptHandler{StartPos: hstart}
		if !p.atOp(":") {
			t, err := p.expectName()
			if err != nil {
				return nil, err
			}
			h.TypeName = t.text
			if p.atKw("as") {
				p.advance()
				v, err := p.expectName()
				if err != nil {
					return nil, err
				}
				h.Var = v.text
			}
		}
		if _, err := p.expectOp(":"); err != nil {
			return nil, err
		}
		hbody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		h.Body = hbody
		h.EndPos = p.cur().pos
		stmt.Handlers = append(stmt.Handlers, h)
	}
	if p.atKw("finally") {
		p.advance()
		if _, err := p.expectOp(":"); err != nil {
			return nil, err
		}
		fbody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.Finally = fbody
	}
	stmt.EndPos = p.cur().pos
	return stmt, nil
}

func (p *parser) parseWith() (ast.Statement, error) {
	start := p.cur().pos
	p.advance() // with
	ctx, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	asVar := ""
	if p.atKw("as") {
		p.advance()
		v, err := p.expectName()
		if err != nil {
			return nil, err
		}
		asVar = v.text
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WithStmt{CtxExpr: ctx, AsVar: asVar, Body: body, StartPos: start, EndPos: p.cur().pos}, nil
}

func (p *parser) parseReturn() (ast.Statement, error) {
	start := p.advance().pos // return
	if p.at(tokNewline) || p.at(tokDedent) || p.at(tokEOF) {
		return &ast.ReturnStmt{StartPos: start, EndPos: p.cur().pos}, nil
	}
	v, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Value: v, StartPos: start, EndPos: p.cur().pos}, nil
}

func (p *parser) parseRaise() (ast.Statement, error) {
	start := p.advance().pos // raise
	if p.at(tokNewline) || p.at(tokDedent) || p.at(tokEOF) {
		return &ast.RaiseStmt{StartPos: start, EndPos: p.cur().pos}, nil
	}
	v, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.RaiseStmt{Expr: v, StartPos: start, EndPos: p.cur().pos}, nil
}

var augOps = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "//=": "//", "%=": "%",
	"**=": "**", "&=": "&", "|=": "|", "^=": "^", "<<=": "<<", ">>=": ">>",
}

func (p *parser) parseExprOrAssignStmt() (ast.Statement, error) {
	start := p.cur().pos
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.atOp("=") {
		p.advance()
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Target: e, Value: v, StartPos: start, EndPos: p.cur().pos}, nil
	}
	if p.at(tokOp) {
		if op, ok := augOps[p.cur().text]; ok {
			p.advance()
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return &ast.AugAssignStmt{Target: e, Op: op, Value: v, StartPos: start, EndPos: p.cur().pos}, nil
		}
	}
	return &ast.ExpressionStmt{Expression: e, StartPos: start, EndPos: p.cur().pos}, nil
}

// ---- Expressions (precedence climbing) ----

func (p *parser) parseExpr() (ast.Expression, error) {
	return p.parseTernary()
}

func (p *parser) parseTernary() (ast.Expression, error) {
	start := p.cur().pos
	body, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.atKw("if") {
		p.advance()
		cond, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKw("else"); err != nil {
			return nil, err
		}
		orElse, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		return &ast.TernaryExpr{Body: body, Cond: cond, OrElse: orElse, StartPos: start, EndPos: p.cur().pos}, nil
	}
	return body, nil
}

func (p *parser) parseOr() (ast.Expression, error) {
	start := p.cur().pos
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if !p.atKw("or") {
		return left, nil
	}
	operands := []ast.Expression{left}
	for p.atKw("or") {
		p.advance()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, r)
	}
	return &ast.BoolOpExpr{Op: "or", Operands: operands, StartPos: start, EndPos: p.cur().pos}, nil
}

func (p *parser) parseAnd() (ast.Expression, error) {
	start := p.cur().pos
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	if !p.atKw("and") {
		return left, nil
	}
	operands := []ast.Expression{left}
	for p.atKw("and") {
		p.advance()
		r, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		operands = append(operands, r)
	}
	return &ast.BoolOpExpr{Op: "and", Operands: operands, StartPos: start, EndPos: p.cur().pos}, nil
}

func (p *parser) parseNot() (ast.Expression, error) {
	if p.atKw("not") {
		start := p.advance().pos
		v, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: "not", Operand: v, StartPos: start, EndPos: p.cur().pos}, nil
	}
	return p.parseComparison()
}

var compareOps = map[string]bool{"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true}

func (p *parser) parseComparison() (ast.Expression, error) {
	start := p.cur().pos
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	if p.at(tokOp) && compareOps[p.cur().text] {
		op := p.advance().text
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		return &ast.CompareExpr{Left: left, Op: op, Right: right, StartPos: start, EndPos: p.cur().pos}, nil
	}
	return left, nil
}

func (p *parser) parseBitOr() (ast.Expression, error) {
	return p.parseBinaryLevel([]string{"|"}, p.parseBitXor)
}
func (p *parser) parseBitXor() (ast.Expression, error) {
	return p.parseBinaryLevel([]string{"^"}, p.parseBitAnd)
}
func (p *parser) parseBitAnd() (ast.Expression, error) {
	return p.parseBinaryLevel([]string{"&"}, p.parseShift)
}
func (p *parser) parseShift() (ast.Expression, error) {
	return p.parseBinaryLevel([]string{"<<", ">>"}, p.parseAdd)
}
func (p *parser) parseAdd() (ast.Expression, error) {
	return p.parseBinaryLevel([]string{"+", "-"}, p.parseMul)
}
func (p *parser) parseMul() (ast.Expression, error) {
	return p.parseBinaryLevel([]string{"*", "/", "//", "%"}, p.parseUnary)
}

func (p *parser) parseBinaryLevel(ops []string, next func() (ast.Expression, error)) (ast.Expression, error) {
	start := p.cur().pos
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.at(tokOp) && containsStr(ops, p.cur().text) {
		op := p.advance().text
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: op, Right: right, StartPos: start, EndPos: p.cur().pos}
	}
	return left, nil
}

func containsStr(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func (p *parser) parseUnary() (ast.Expression, error) {
	if p.atOp("-") || p.atOp("+") || p.atOp("~") {
		start := p.cur().pos
		op := p.advance().text
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: op, Operand: v, StartPos: start, EndPos: p.cur().pos}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (ast.Expression, error) {
	start := p.cur().pos
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.atOp("**") {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Left: left, Op: "**", Right: right, StartPos: start, EndPos: p.cur().pos}, nil
	}
	return left, nil
}

func (p *parser) parsePostfix() (ast.Expression, error) {
	start := p.cur().pos
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.atOp("."):
			p.advance()
			n, err := p.expectName()
			if err != nil {
				return nil, err
			}
			e = &ast.AttributeExpr{Object: e, Name: n.text, StartPos: start, EndPos: p.cur().pos}
		case p.atOp("("):
			p.advance()
			var args []ast.Expression
			for !p.atOp(")") {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.atOp(",") {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expectOp(")"); err != nil {
				return nil, err
			}
			e = &ast.CallExpr{Callee: e, Args: args, StartPos: start, EndPos: p.cur().pos}
		case p.atOp("["):
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp("]"); err != nil {
				return nil, err
			}
			e = &ast.IndexExpr{Object: e, Index: idx, StartPos: start, EndPos: p.cur().pos}
		default:
			return e, nil
		}
	}
}

func (p *parser) parsePrimary() (ast.Expression, error) {
	start := p.cur().pos
	switch {
	case p.at(tokInt):
		t := p.advance()
		return &ast.IntLiteral{Value: t.ival, StartPos: start, EndPos: p.cur().pos}, nil
	case p.at(tokFloat):
		t := p.advance()
		return &ast.FloatLiteral{Value: t.fval, StartPos: start, EndPos: p.cur().pos}, nil
	case p.at(tokString):
		t := p.advance()
		return &ast.StrLiteral{Value: t.text, StartPos: start, EndPos: p.cur().pos}, nil
	case p.at(tokBytes):
		t := p.advance()
		return &ast.BytesLiteral{Value: []byte(t.text), StartPos: start, EndPos: p.cur().pos}, nil
	case p.atKw("True"):
		p.advance()
		return &ast.BoolLiteral{Value: true, StartPos: start, EndPos: p.cur().pos}, nil
	case p.atKw("False"):
		p.advance()
		return &ast.BoolLiteral{Value: false, StartPos: start, EndPos: p.cur().pos}, nil
	case p.atKw("None"):
		p.advance()
		return &ast.NoneLiteral{StartPos: start, EndPos: p.cur().pos}, nil
	case p.at(tokName):
		t := p.advance()
		return &ast.Identifier{Name: t.text, StartPos: start, EndPos: p.cur().pos}, nil
	case p.atOp("("):
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.atOp(",") {
			elems := []ast.Expression{e}
			for p.atOp(",") {
				p.advance()
				if p.atOp(")") {
					break
				}
				n, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				elems = append(elems, n)
			}
			if _, err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return &ast.TupleExpr{Elements: elems, StartPos: start, EndPos: p.cur().pos}, nil
		}
		if _, err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return e, nil
	case p.atOp("["):
		p.advance()
		var elems []ast.Expression
		for !p.atOp("]") {
			el, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
			if p.atOp(",") {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return &ast.ListExpr{Elements: elems, StartPos: start, EndPos: p.cur().pos}, nil
	case p.atOp("{"):
		p.advance()
		d := &ast.DictExpr{StartPos: start}
		for !p.atOp("}") {
			k, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp(":"); err != nil {
				return nil, err
			}
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, k)
			d.Values = append(d.Values, v)
			if p.atOp(",") {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expectOp("}"); err != nil {
			return nil, err
		}
		d.EndPos = p.cur().pos
		return d, nil
	default:
		return nil, p.errf("unexpected token %q", p.cur().text)
	}
}
