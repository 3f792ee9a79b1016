// Package parser implements a recursive-descent parser over a Python-3
// grammar subset, modeled on hand-written parser
// (pkgs/parser/parser.go, runtime/parser/parser.go) — precedence-climbing
// expression parsing plus a dedicated errors.go for structured syntax
// errors carrying line/column.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ivarvong/pyex-sub003/pkgs/ast"
	"github.com/ivarvong/pyex-sub003/pkgs/lexer"
	"github.com/ivarvong/pyex-sub003/pkgs/token"
)

// Parser consumes a token stream and produces an *ast.Module.
type Parser struct {
	toks []token.Token
	pos  int
}

// Parse lexes and parses source text into a module AST.
func Parse(source string) (mod *ast.Module, err error) {
	toks, lexErr := lexer.Lex(source)
	if lexErr != nil {
		return nil, lexErr
	}
	return ParseTokens(toks)
}

// ParseTokens parses an already-lexed token stream (used by f-string
// interpolation re-lexing and tests).
func ParseTokens(toks []token.Token) (mod *ast.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*Error); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()
	p := &Parser{toks: toks}
	return p.parseModule(), nil
}

func (p *Parser) parseModule() *ast.Module {
	p.skipNewlines()
	var stmts []ast.Stmt
	for !p.at(token.EOF) {
		stmts = append(stmts, p.parseStatement())
		p.skipNewlines()
	}
	return ast.NewModule(1, stmts)
}

// --- token helpers ---

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) curType() token.Type { return p.toks[p.pos].Type }

func (p *Parser) at(t token.Type) bool { return p.curType() == t }

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) eat(t token.Type) token.Token {
	if !p.at(t) {
		p.fail(fmt.Sprintf("expected %s, got %s", t, p.curType()))
	}
	return p.advance()
}

func (p *Parser) fail(msg string) {
	tok := p.cur()
	panic(&Error{Message: msg, Line: tok.Line, Col: tok.Col})
}

func (p *Parser) skipNewlines() {
	for p.at(token.NEWLINE) {
		p.advance()
	}
}

// parseBlock parses `: NEWLINE INDENT stmt+ DEDENT`, or a single
// simple-statement suite on the same line (`if x: y = 1`).
func (p *Parser) parseBlock() []ast.Stmt {
	p.eat(token.COLON)
	if !p.at(token.NEWLINE) {
		s := p.parseSimpleStatement()
		return []ast.Stmt{s}
	}
	p.eat(token.NEWLINE)
	p.skipNewlines()
	p.eat(token.INDENT)
	var stmts []ast.Stmt
	for !p.at(token.DEDENT) && !p.at(token.EOF) {
		stmts = append(stmts, p.parseStatement())
		p.skipNewlines()
	}
	p.eat(token.DEDENT)
	return stmts
}

// --- statements ---

func (p *Parser) parseStatement() ast.Stmt {
	switch p.curType() {
	case token.DEF:
		return p.parseDef(nil)
	case token.CLASS:
		return p.parseClass(nil)
	case token.AT:
		return p.parseDecorated()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.TRY:
		return p.parseTry()
	case token.WITH:
		return p.parseWith()
	case token.MATCH:
		if s, ok := p.tryParseMatch(); ok {
			return s
		}
	}
	return p.parseSimpleStatement()
}

func (p *Parser) parseDecorated() ast.Stmt {
	var decorators []ast.Expr
	for p.at(token.AT) {
		p.advance()
		decorators = append(decorators, p.parseExpr())
		p.eat(token.NEWLINE)
		p.skipNewlines()
	}
	switch p.curType() {
	case token.DEF:
		return p.parseDef(decorators)
	case token.CLASS:
		return p.parseClass(decorators)
	}
	p.fail("expected function or class definition after decorator")
	return nil
}

func (p *Parser) parseDef(decorators []ast.Expr) ast.Stmt {
	line := p.cur().Line
	p.eat(token.DEF)
	name := p.eat(token.NAME).Value
	p.eat(token.LPAREN)
	params := p.parseParams()
	p.eat(token.RPAREN)
	if p.at(token.ARROW) {
		p.advance()
		p.parseExpr() // return-type annotation, accepted but not enforced
	}
	body := p.parseBlock()
	d := &ast.Def{Name: name, Params: params, Body: body, Decorators: decorators, IsGenerator: containsYield(body)}
	d.SetLine(line)
	return d
}

func (p *Parser) parseParams() []ast.Param {
	var params []ast.Param
	for !p.at(token.RPAREN) {
		var param ast.Param
		if p.at(token.STAR) {
			p.advance()
			param.IsStar = true
		} else if p.at(token.DOUBLESTAR) {
			p.advance()
			param.IsDouble = true
		}
		param.Name = p.eat(token.NAME).Value
		if p.at(token.COLON) {
			p.advance()
			p.parseExpr() // type annotation, accepted but unenforced
		}
		if p.at(token.ASSIGN) {
			p.advance()
			param.Default = p.parseExpr()
		}
		params = append(params, param)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return params
}

func (p *Parser) parseClass(decorators []ast.Expr) ast.Stmt {
	line := p.cur().Line
	p.eat(token.CLASS)
	name := p.eat(token.NAME).Value
	var bases []ast.Expr
	if p.at(token.LPAREN) {
		p.advance()
		for !p.at(token.RPAREN) {
			bases = append(bases, p.parseExpr())
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.eat(token.RPAREN)
	}
	body := p.parseBlock()
	return &ast.ClassDef{Name: name, Bases: bases, Body: body, Decorators: decorators, Base: baseAt(line)}
}

func (p *Parser) parseIf() ast.Stmt {
	line := p.cur().Line
	p.eat(token.IF)
	var clauses []ast.IfClause
	cond := p.parseNamedExpr()
	body := p.parseBlock()
	clauses = append(clauses, ast.IfClause{Cond: cond, Body: body})
	for p.at(token.ELIF) {
		p.advance()
		c := p.parseNamedExpr()
		b := p.parseBlock()
		clauses = append(clauses, ast.IfClause{Cond: c, Body: b})
	}
	var elseBody []ast.Stmt
	if p.at(token.ELSE) {
		p.advance()
		elseBody = p.parseBlock()
	}
	return &ast.If{Clauses: clauses, Else: elseBody, Base: baseAt(line)}
}

func (p *Parser) parseWhile() ast.Stmt {
	line := p.cur().Line
	p.eat(token.WHILE)
	cond := p.parseNamedExpr()
	body := p.parseBlock()
	var elseBody []ast.Stmt
	if p.at(token.ELSE) {
		p.advance()
		elseBody = p.parseBlock()
	}
	return &ast.While{Cond: cond, Body: body, Else: elseBody, Base: baseAt(line)}
}

func (p *Parser) parseFor() ast.Stmt {
	line := p.cur().Line
	p.eat(token.FOR)
	target := p.parseTargetList()
	p.eat(token.IN)
	iter := p.parseExprList()
	body := p.parseBlock()
	var elseBody []ast.Stmt
	if p.at(token.ELSE) {
		p.advance()
		elseBody = p.parseBlock()
	}
	return &ast.For{Target: target, Iter: iter, Body: body, Else: elseBody, Base: baseAt(line)}
}

func (p *Parser) parseTry() ast.Stmt {
	line := p.cur().Line
	p.eat(token.TRY)
	body := p.parseBlock()
	var handlers []ast.ExceptHandler
	for p.at(token.EXCEPT) {
		p.advance()
		var h ast.ExceptHandler
		if !p.at(token.COLON) {
			h.Type = p.parseExpr()
			if p.at(token.AS) {
				p.advance()
				h.As = p.eat(token.NAME).Value
			}
		}
		h.Body = p.parseBlock()
		handlers = append(handlers, h)
	}
	var elseBody, finallyBody []ast.Stmt
	if p.at(token.ELSE) {
		p.advance()
		elseBody = p.parseBlock()
	}
	if p.at(token.FINALLY) {
		p.advance()
		finallyBody = p.parseBlock()
	}
	return &ast.Try{Body: body, Handlers: handlers, Else: elseBody, Finally: finallyBody, Base: baseAt(line)}
}

func (p *Parser) parseWith() ast.Stmt {
	line := p.cur().Line
	p.eat(token.WITH)
	var items []ast.WithItem
	for {
		ctx := p.parseExpr()
		var as ast.Expr
		if p.at(token.AS) {
			p.advance()
			as = p.parseTarget()
		}
		items = append(items, ast.WithItem{Ctx: ctx, As: as})
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	body := p.parseBlock()
	return &ast.With{Items: items, Body: body, Base: baseAt(line)}
}

// parseSimpleStatement parses one non-compound statement, stopping at a
// NEWLINE (inserted by the lexer's semicolon expansion for `;`-joined
// statements on one physical line).
func (p *Parser) parseSimpleStatement() ast.Stmt {
	line := p.cur().Line
	var s ast.Stmt
	switch p.curType() {
	case token.PASS:
		p.advance()
		s = &ast.Pass{Base: baseAt(line)}
	case token.BREAK:
		p.advance()
		s = &ast.Break{Base: baseAt(line)}
	case token.CONTINUE:
		p.advance()
		s = &ast.Continue{Base: baseAt(line)}
	case token.RETURN:
		p.advance()
		var v ast.Expr
		if !p.at(token.NEWLINE) && !p.at(token.EOF) {
			v = p.parseExprList()
		}
		s = &ast.Return{Value: v, Base: baseAt(line)}
	case token.RAISE:
		p.advance()
		var exc, cause ast.Expr
		if !p.at(token.NEWLINE) && !p.at(token.EOF) {
			exc = p.parseExpr()
			if p.at(token.FROM) {
				p.advance()
				cause = p.parseExpr()
			}
		}
		s = &ast.Raise{Exc: exc, Cause: cause, Base: baseAt(line)}
	case token.IMPORT:
		s = p.parseImport()
	case token.FROM:
		s = p.parseFromImport()
	case token.DEL:
		p.advance()
		var targets []ast.Expr
		targets = append(targets, p.parseTarget())
		for p.at(token.COMMA) {
			p.advance()
			targets = append(targets, p.parseTarget())
		}
		s = &ast.Del{Targets: targets, Base: baseAt(line)}
	case token.ASSERT:
		p.advance()
		cond := p.parseExpr()
		var msg ast.Expr
		if p.at(token.COMMA) {
			p.advance()
			msg = p.parseExpr()
		}
		s = &ast.Assert{Cond: cond, Msg: msg, Base: baseAt(line)}
	case token.GLOBAL:
		p.advance()
		names := []string{p.eat(token.NAME).Value}
		for p.at(token.COMMA) {
			p.advance()
			names = append(names, p.eat(token.NAME).Value)
		}
		s = &ast.Global{Names: names, Base: baseAt(line)}
	case token.NONLOCAL:
		p.advance()
		names := []string{p.eat(token.NAME).Value}
		for p.at(token.COMMA) {
			p.advance()
			names = append(names, p.eat(token.NAME).Value)
		}
		s = &ast.Nonlocal{Names: names, Base: baseAt(line)}
	case token.YIELD:
		s = &ast.ExprStmt{X: p.parseYield(), Base: baseAt(line)}
	default:
		s = p.parseExprOrAssign()
	}
	if p.at(token.NEWLINE) {
		p.advance()
	} else if !p.at(token.EOF) && !p.at(token.DEDENT) {
		p.fail(fmt.Sprintf("unexpected token %s after statement", p.curType()))
	}
	return s
}

func (p *Parser) parseImport() ast.Stmt {
	line := p.cur().Line
	p.eat(token.IMPORT)
	var mods []ast.ImportAlias
	for {
		name := p.parseDottedName()
		alias := ""
		if p.at(token.AS) {
			p.advance()
			alias = p.eat(token.NAME).Value
		}
		mods = append(mods, ast.ImportAlias{Name: name, Alias: alias})
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return &ast.Import{Modules: mods, Base: baseAt(line)}
}

func (p *Parser) parseFromImport() ast.Stmt {
	line := p.cur().Line
	p.eat(token.FROM)
	mod := p.parseDottedName()
	p.eat(token.IMPORT)
	var names []ast.ImportAlias
	if p.at(token.STAR) {
		p.advance()
		names = append(names, ast.ImportAlias{Name: "*"})
	} else {
		paren := p.at(token.LPAREN)
		if paren {
			p.advance()
		}
		for {
			n := p.eat(token.NAME).Value
			alias := ""
			if p.at(token.AS) {
				p.advance()
				alias = p.eat(token.NAME).Value
			}
			names = append(names, ast.ImportAlias{Name: n, Alias: alias})
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if paren {
			p.eat(token.RPAREN)
		}
	}
	return &ast.FromImport{Module: mod, Names: names, Base: baseAt(line)}
}

func (p *Parser) parseDottedName() string {
	parts := []string{p.eat(token.NAME).Value}
	for p.at(token.DOT) {
		p.advance()
		parts = append(parts, p.eat(token.NAME).Value)
	}
	return strings.Join(parts, ".")
}

// parseExprOrAssign handles plain/augmented/annotated/multi/chained
// assignment, subscript/attribute assignment, and bare expression
// statements — all of which start by parsing a expression list.
func (p *Parser) parseExprOrAssign() ast.Stmt {
	line := p.cur().Line
	first := p.parseExprList()

	if p.at(token.COLON) {
		p.advance()
		ann := p.parseExpr()
		var val ast.Expr
		if p.at(token.ASSIGN) {
			p.advance()
			val = p.parseExprList()
		}
		return &ast.AnnotatedAssign{Target: first, Annotation: ann, Value: val, Base: baseAt(line)}
	}

	if op, ok := augOp(p.curType()); ok {
		p.advance()
		val := p.parseExprList()
		return &ast.AugAssign{Target: first, Op: op, Value: val, Base: baseAt(line)}
	}

	if p.at(token.ASSIGN) {
		targets := []ast.Expr{first}
		var value ast.Expr
		for p.at(token.ASSIGN) {
			p.advance()
			value = p.parseExprList()
			if p.at(token.ASSIGN) {
				targets = append(targets, value)
			}
		}
		if len(targets) == 1 {
			return &ast.Assign{Target: targets[0], Value: value, Base: baseAt(line)}
		}
		return &ast.MultiAssign{Targets: targets, Value: value, Base: baseAt(line)}
	}

	return &ast.ExprStmt{X: first, Base: baseAt(line)}
}

func augOp(t token.Type) (string, bool) {
	switch t {
	case token.PLUSEQ:
		return "+", true
	case token.MINUSEQ:
		return "-", true
	case token.STAREQ:
		return "*", true
	case token.SLASHEQ:
		return "/", true
	case token.DOUBLESLASHEQ:
		return "//", true
	case token.PERCENTEQ:
		return "%", true
	case token.AMPEQ:
		return "&", true
	case token.PIPEEQ:
		return "|", true
	case token.CARETEQ:
		return "^", true
	case token.LSHIFTEQ:
		return "<<", true
	case token.RSHIFTEQ:
		return ">>", true
	case token.DOUBLESTAREQ:
		return "**", true
	}
	return "", false
}

// parseTarget parses a single assignment target (name, attribute,
// subscript, or a starred/tuple/list pattern for unpacking).
func (p *Parser) parseTarget() ast.Expr {
	if p.at(token.STAR) {
		line := p.cur().Line
		p.advance()
		inner := p.parseTarget()
		return &ast.TupleExpr{Elems: []ast.Expr{inner}, Star: 0, Base: baseAt(line)}
	}
	if p.at(token.LPAREN) || p.at(token.LBRACKET) {
		return p.parseTargetList()
	}
	return p.parsePostfix(p.parseAtom())
}

func (p *Parser) parseTargetList() ast.Expr {
	line := p.cur().Line
	closing := token.RPAREN
	opened := false
	if p.at(token.LPAREN) {
		p.advance()
		opened = true
	} else if p.at(token.LBRACKET) {
		p.advance()
		closing = token.RBRACKET
		opened = true
	}
	var elems []ast.Expr
	star := -1
	for {
		if opened && (p.at(closing)) {
			break
		}
		if p.at(token.STAR) {
			p.advance()
			star = len(elems)
			elems = append(elems, p.parseTarget())
		} else {
			elems = append(elems, p.parseTarget())
		}
		if p.at(token.COMMA) {
			p.advance()
			if !opened && (p.at(token.IN) || p.at(token.ASSIGN) || p.at(token.NEWLINE)) {
				break
			}
			continue
		}
		break
	}
	if opened {
		p.eat(closing)
	}
	if len(elems) == 1 && star == -1 && !opened {
		return elems[0]
	}
	return &ast.TupleExpr{Elems: elems, Star: star, Base: baseAt(line)}
}

// --- expressions ---

func (p *Parser) parseExprList() ast.Expr {
	line := p.cur().Line
	first := p.parseExpr()
	if !p.at(token.COMMA) {
		return first
	}
	elems := []ast.Expr{first}
	for p.at(token.COMMA) {
		p.advance()
		if p.atExprListEnd() {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	return &ast.TupleExpr{Elems: elems, Star: -1, Base: baseAt(line)}
}

func (p *Parser) atExprListEnd() bool {
	switch p.curType() {
	case token.NEWLINE, token.EOF, token.COLON, token.ASSIGN, token.RPAREN, token.RBRACKET, token.RBRACE:
		return true
	}
	return false
}

func (p *Parser) parseExpr() ast.Expr { return p.parseTernary() }

// parseNamedExpr allows a bare walrus at statement-condition position.
func (p *Parser) parseNamedExpr() ast.Expr { return p.parseExpr() }

func (p *Parser) parseTernary() ast.Expr {
	if p.at(token.LAMBDA) {
		return p.parseLambda()
	}
	cond := p.parseOr()
	if p.at(token.IF) {
		line := p.cur().Line
		p.advance()
		test := p.parseOr()
		p.eat(token.ELSE)
		elseV := p.parseExpr()
		return &ast.Ternary{Cond: test, Then: cond, Else: elseV, Base: baseAt(line)}
	}
	if p.at(token.WALRUS) {
		// walrus target must have been a Var
		if v, ok := cond.(*ast.Var); ok {
			line := p.cur().Line
			p.advance()
			val := p.parseExpr()
			return &ast.Walrus{Name: v.Name, Value: val, Base: baseAt(line)}
		}
	}
	return cond
}

func (p *Parser) parseLambda() ast.Expr {
	line := p.cur().Line
	p.eat(token.LAMBDA)
	var params []ast.Param
	for !p.at(token.COLON) {
		var param ast.Param
		if p.at(token.STAR) {
			p.advance()
			param.IsStar = true
		} else if p.at(token.DOUBLESTAR) {
			p.advance()
			param.IsDouble = true
		}
		param.Name = p.eat(token.NAME).Value
		if p.at(token.ASSIGN) {
			p.advance()
			param.Default = p.parseExpr()
		}
		params = append(params, param)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.eat(token.COLON)
	body := p.parseExpr()
	return &ast.Lambda{Params: params, Body: body, Base: baseAt(line)}
}

func (p *Parser) parseOr() ast.Expr {
	l := p.parseAnd()
	for p.at(token.OR) {
		line := p.cur().Line
		p.advance()
		r := p.parseAnd()
		l = &ast.BinOp{Op: "or", L: l, R: r, Base: baseAt(line)}
	}
	return l
}

func (p *Parser) parseAnd() ast.Expr {
	l := p.parseNot()
	for p.at(token.AND) {
		line := p.cur().Line
		p.advance()
		r := p.parseNot()
		l = &ast.BinOp{Op: "and", L: l, R: r, Base: baseAt(line)}
	}
	return l
}

func (p *Parser) parseNot() ast.Expr {
	if p.at(token.NOT) {
		line := p.cur().Line
		p.advance()
		return &ast.UnaryOp{Op: "not", X: p.parseNot(), Base: baseAt(line)}
	}
	return p.parseComparison()
}

var compareOps = map[token.Type]string{
	token.LT: "<", token.GT: ">", token.LE: "<=", token.GE: ">=",
	token.EQ: "==", token.NE: "!=",
}

func (p *Parser) parseComparison() ast.Expr {
	line := p.cur().Line
	first := p.parseBitOr()
	var ops []string
	var operands = []ast.Expr{first}
	for {
		if op, ok := compareOps[p.curType()]; ok {
			p.advance()
			ops = append(ops, op)
			operands = append(operands, p.parseBitOr())
			continue
		}
		if p.at(token.IN) {
			p.advance()
			ops = append(ops, "in")
			operands = append(operands, p.parseBitOr())
			continue
		}
		if p.at(token.NOT) {
			save := p.pos
			p.advance()
			if p.at(token.IN) {
				p.advance()
				ops = append(ops, "not in")
				operands = append(operands, p.parseBitOr())
				continue
			}
			p.pos = save
		}
		if p.at(token.IS) {
			p.advance()
			if p.at(token.NOT) {
				p.advance()
				ops = append(ops, "is not")
			} else {
				ops = append(ops, "is")
			}
			operands = append(operands, p.parseBitOr())
			continue
		}
		break
	}
	if len(ops) == 0 {
		return first
	}
	return &ast.ChainedCompare{Ops: ops, Operands: operands, Base: baseAt(line)}
}

func (p *Parser) parseBinaryLevel(next func() ast.Expr, ops map[token.Type]string) ast.Expr {
	l := next()
	for {
		op, ok := ops[p.curType()]
		if !ok {
			break
		}
		line := p.cur().Line
		p.advance()
		r := next()
		l = &ast.BinOp{Op: op, L: l, R: r, Base: baseAt(line)}
	}
	return l
}

func (p *Parser) parseBitOr() ast.Expr {
	return p.parseBinaryLevel(p.parseBitXor, map[token.Type]string{token.PIPE: "|"})
}
func (p *Parser) parseBitXor() ast.Expr {
	return p.parseBinaryLevel(p.parseBitAnd, map[token.Type]string{token.CARET: "^"})
}
func (p *Parser) parseBitAnd() ast.Expr {
	return p.parseBinaryLevel(p.parseShift, map[token.Type]string{token.AMP: "&"})
}
func (p *Parser) parseShift() ast.Expr {
	return p.parseBinaryLevel(p.parseAddSub, map[token.Type]string{token.LSHIFT: "<<", token.RSHIFT: ">>"})
}
func (p *Parser) parseAddSub() ast.Expr {
	return p.parseBinaryLevel(p.parseMulDiv, map[token.Type]string{token.PLUS: "+", token.MINUS: "-"})
}
func (p *Parser) parseMulDiv() ast.Expr {
	return p.parseBinaryLevel(p.parseUnary, map[token.Type]string{
		token.STAR: "*", token.SLASH: "/", token.DOUBLESLASH: "//", token.PERCENT: "%",
	})
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.curType() {
	case token.MINUS, token.PLUS, token.TILDE:
		line := p.cur().Line
		op := p.curType().String()
		p.advance()
		return &ast.UnaryOp{Op: op, X: p.parseUnary(), Base: baseAt(line)}
	}
	return p.parsePower()
}

func (p *Parser) parsePower() ast.Expr {
	base := p.parsePostfix(p.parseAtom())
	if p.at(token.DOUBLESTAR) {
		line := p.cur().Line
		p.advance()
		exp := p.parseUnary() // right-associative
		return &ast.BinOp{Op: "**", L: base, R: exp, Base: baseAt(line)}
	}
	return base
}

func (p *Parser) parsePostfix(x ast.Expr) ast.Expr {
	for {
		switch p.curType() {
		case token.DOT:
			line := p.cur().Line
			p.advance()
			name := p.eat(token.NAME).Value
			x = &ast.GetAttr{X: x, Attr: name, Base: baseAt(line)}
		case token.LPAREN:
			x = p.parseCall(x)
		case token.LBRACKET:
			x = p.parseSubscript(x)
		default:
			return x
		}
	}
}

func (p *Parser) parseCall(fn ast.Expr) ast.Expr {
	line := p.cur().Line
	p.eat(token.LPAREN)
	call := &ast.Call{Func: fn, Base: baseAt(line)}
	for !p.at(token.RPAREN) {
		if p.at(token.STAR) {
			p.advance()
			call.StarArg = p.parseExpr()
		} else if p.at(token.DOUBLESTAR) {
			p.advance()
			call.DoubleStarArg = p.parseExpr()
		} else if p.at(token.NAME) && p.peekIsAssignAfterName() {
			name := p.advance().Value
			p.eat(token.ASSIGN)
			call.Keywords = append(call.Keywords, ast.Keyword{Name: name, Value: p.parseExpr()})
		} else {
			e := p.parseExpr()
			if g, ok := e.(*ast.GenExpr); ok && len(call.Args) == 0 && call.StarArg == nil {
				call.Args = append(call.Args, g)
			} else {
				call.Args = append(call.Args, e)
			}
		}
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.eat(token.RPAREN)
	return call
}

func (p *Parser) peekIsAssignAfterName() bool {
	return p.pos+1 < len(p.toks) && p.toks[p.pos+1].Type == token.ASSIGN
}

func (p *Parser) parseSubscript(x ast.Expr) ast.Expr {
	line := p.cur().Line
	p.eat(token.LBRACKET)
	if p.isSliceAhead() {
		var lo, hi, step ast.Expr
		if !p.at(token.COLON) {
			lo = p.parseExpr()
		}
		p.eat(token.COLON)
		if !p.at(token.COLON) && !p.at(token.RBRACKET) {
			hi = p.parseExpr()
		}
		if p.at(token.COLON) {
			p.advance()
			if !p.at(token.RBRACKET) {
				step = p.parseExpr()
			}
		}
		p.eat(token.RBRACKET)
		return &ast.Subscript{X: x, Index: &ast.SliceExpr{Lo: lo, Hi: hi, Step: step, Base: baseAt(line)}, Base: baseAt(line)}
	}
	idx := p.parseExprList()
	p.eat(token.RBRACKET)
	return &ast.Subscript{X: x, Index: idx, Base: baseAt(line)}
}

// isSliceAhead scans forward (without consuming) to see whether a ':'
// appears before the matching ']' at bracket depth 0.
func (p *Parser) isSliceAhead() bool {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].Type {
		case token.LBRACKET, token.LPAREN, token.LBRACE:
			depth++
		case token.RBRACKET:
			if depth == 0 {
				return false
			}
			depth--
		case token.RPAREN, token.RBRACE:
			depth--
		case token.COLON:
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

func (p *Parser) parseYield() ast.Expr {
	line := p.cur().Line
	p.eat(token.YIELD)
	if p.at(token.FROM) {
		p.advance()
		return &ast.Yield{Value: p.parseExpr(), From: true, Base: baseAt(line)}
	}
	if p.atExprListEnd() {
		return &ast.Yield{Base: baseAt(line)}
	}
	return &ast.Yield{Value: p.parseExprList(), Base: baseAt(line)}
}

func (p *Parser) parseAtom() ast.Expr {
	line := p.cur().Line
	switch p.curType() {
	case token.YIELD:
		return p.parseYield()
	case token.INT:
		v := p.advance().Value
		l := &ast.Lit{Kind: ast.LitInt, Base: baseAt(line)}
		l.Int = v
		return l
	case token.FLOAT:
		v := p.advance().Value
		f, _ := strconv.ParseFloat(v, 64)
		l := &ast.Lit{Kind: ast.LitFloat, Base: baseAt(line)}
		l.Float = f
		return l
	case token.STRING:
		v := p.advance().Value
		return p.concatAdjacentStrings(v, line)
	case token.FSTRING_START:
		v := p.advance().Value
		return p.parseFString(v, line)
	case token.TRUE, token.FALSE:
		v := p.advance().Type == token.TRUE
		l := &ast.Lit{Kind: ast.LitBool, Base: baseAt(line)}
		l.Bool = v
		return l
	case token.NONE:
		p.advance()
		return &ast.Lit{Kind: ast.LitNone, Base: baseAt(line)}
	case token.NAME:
		name := p.advance().Value
		return &ast.Var{Name: name, Base: baseAt(line)}
	case token.LPAREN:
		return p.parseParenOrTupleOrGen()
	case token.LBRACKET:
		return p.parseListOrComp()
	case token.LBRACE:
		return p.parseDictOrSetOrComp()
	case token.MINUS, token.PLUS, token.TILDE:
		return p.parseUnary()
	}
	p.fail(fmt.Sprintf("unexpected token %s", p.curType()))
	return nil
}

// concatAdjacentStrings implements Python's implicit adjacent-string-literal
// concatenation ("a" "b" == "ab").
func (p *Parser) concatAdjacentStrings(first string, line int) ast.Expr {
	s := unquote(first)
	for p.at(token.STRING) {
		s += unquote(p.advance().Value)
	}
	l := &ast.Lit{Kind: ast.LitStr, Base: baseAt(line)}
	l.Str = s
	return l
}

func unquote(raw string) string {
	if len(raw) >= 6 && (strings.HasPrefix(raw, `"""`) || strings.HasPrefix(raw, "'''")) {
		return raw[3 : len(raw)-3]
	}
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return raw
}

// parseFString splits the lexer's single f-string token body into literal
// and `{expr}` parts, recursively re-lexing and re-parsing each expression
// substring, ("f-string interpolations parsed
// recursively").
func (p *Parser) parseFString(raw string, line int) ast.Expr {
	body := unquote(raw)
	var parts []ast.FStringPart
	var lit strings.Builder
	i := 0
	for i < len(body) {
		c := body[i]
		switch {
		case c == '{' && i+1 < len(body) && body[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(body) && body[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case c == '{':
			if lit.Len() > 0 {
				parts = append(parts, ast.FStringPart{Literal: lit.String()})
				lit.Reset()
			}
			depth := 1
			j := i + 1
			for j < len(body) && depth > 0 {
				switch body[j] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						goto doneExpr
					}
				}
				j++
			}
		doneExpr:
			exprSrc := body[i+1 : j]
			spec := ""
			if idx := strings.LastIndex(exprSrc, "!"); idx >= 0 && idx == len(exprSrc)-2 {
				// conversion flag, ignored beyond acceptance
				exprSrc = exprSrc[:idx]
			}
			if idx := strings.Index(exprSrc, ":"); idx >= 0 && !isSliceContext(exprSrc, idx) {
				spec = exprSrc[idx+1:]
				exprSrc = exprSrc[:idx]
			}
			sub, err := Parse(exprSrc)
			if err != nil {
				p.fail(fmt.Sprintf("invalid f-string expression %q: %v", exprSrc, err))
			}
			var e ast.Expr
			if len(sub.Stmts) == 1 {
				if es, ok := sub.Stmts[0].(*ast.ExprStmt); ok {
					e = es.X
				}
			}
			parts = append(parts, ast.FStringPart{Expr: e, Spec: spec})
			i = j + 1
		default:
			lit.WriteByte(c)
			i++
		}
	}
	if lit.Len() > 0 {
		parts = append(parts, ast.FStringPart{Literal: lit.String()})
	}
	return &ast.FString{Parts: parts, Base: baseAt(line)}
}

func isSliceContext(s string, colonIdx int) bool {
	depth := 0
	for i := 0; i < colonIdx; i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		}
	}
	return depth > 0
}

func (p *Parser) parseParenOrTupleOrGen() ast.Expr {
	line := p.cur().Line
	p.eat(token.LPAREN)
	if p.at(token.RPAREN) {
		p.advance()
		return &ast.TupleExpr{Elems: nil, Star: -1, Base: baseAt(line)}
	}
	first := p.parseExpr()
	if p.at(token.FOR) {
		clauses := p.parseCompClauses()
		p.eat(token.RPAREN)
		return &ast.GenExpr{Elt: first, Clauses: clauses, Base: baseAt(line)}
	}
	if !p.at(token.COMMA) {
		p.eat(token.RPAREN)
		return first
	}
	elems := []ast.Expr{first}
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.RPAREN) {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	p.eat(token.RPAREN)
	return &ast.TupleExpr{Elems: elems, Star: -1, Base: baseAt(line)}
}

func (p *Parser) parseListOrComp() ast.Expr {
	line := p.cur().Line
	p.eat(token.LBRACKET)
	if p.at(token.RBRACKET) {
		p.advance()
		return &ast.ListExpr{Base: baseAt(line)}
	}
	first := p.parseExpr()
	if p.at(token.FOR) {
		clauses := p.parseCompClauses()
		p.eat(token.RBRACKET)
		return &ast.ListComp{Elt: first, Clauses: clauses, Base: baseAt(line)}
	}
	elems := []ast.Expr{first}
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.RBRACKET) {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	p.eat(token.RBRACKET)
	return &ast.ListExpr{Elems: elems, Base: baseAt(line)}
}

func (p *Parser) parseDictOrSetOrComp() ast.Expr {
	line := p.cur().Line
	p.eat(token.LBRACE)
	if p.at(token.RBRACE) {
		p.advance()
		return &ast.DictExpr{Base: baseAt(line)}
	}
	if p.at(token.DOUBLESTAR) {
		p.advance()
		spread := p.parseOr()
		d := &ast.DictExpr{Base: baseAt(line)}
		d.Keys = append(d.Keys, nil)
		d.Values = append(d.Values, spread)
		for p.at(token.COMMA) {
			p.advance()
			p.parseDictEntry(d)
		}
		p.eat(token.RBRACE)
		return d
	}
	first := p.parseExpr()
	if p.at(token.COLON) {
		p.advance()
		val := p.parseExpr()
		if p.at(token.FOR) {
			clauses := p.parseCompClauses()
			p.eat(token.RBRACE)
			return &ast.DictComp{Key: first, Value: val, Clauses: clauses, Base: baseAt(line)}
		}
		d := &ast.DictExpr{Base: baseAt(line)}
		d.Keys = append(d.Keys, first)
		d.Values = append(d.Values, val)
		for p.at(token.COMMA) {
			p.advance()
			if p.at(token.RBRACE) {
				break
			}
			p.parseDictEntry(d)
		}
		p.eat(token.RBRACE)
		return d
	}
	if p.at(token.FOR) {
		clauses := p.parseCompClauses()
		p.eat(token.RBRACE)
		return &ast.SetComp{Elt: first, Clauses: clauses, Base: baseAt(line)}
	}
	elems := []ast.Expr{first}
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.RBRACE) {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	p.eat(token.RBRACE)
	return &ast.SetExpr{Elems: elems, Base: baseAt(line)}
}

func (p *Parser) parseDictEntry(d *ast.DictExpr) {
	if p.at(token.DOUBLESTAR) {
		p.advance()
		d.Keys = append(d.Keys, nil)
		d.Values = append(d.Values, p.parseOr())
		return
	}
	k := p.parseExpr()
	p.eat(token.COLON)
	v := p.parseExpr()
	d.Keys = append(d.Keys, k)
	d.Values = append(d.Values, v)
}

func (p *Parser) parseCompClauses() []ast.Comprehension {
	var clauses []ast.Comprehension
	for p.at(token.FOR) {
		p.advance()
		target := p.parseTargetList()
		p.eat(token.IN)
		iter := p.parseOr()
		var ifs []ast.Expr
		for p.at(token.IF) {
			p.advance()
			ifs = append(ifs, p.parseOr())
		}
		clauses = append(clauses, ast.Comprehension{Target: target, Iter: iter, Ifs: ifs})
	}
	return clauses
}

// --- match/case ---

func (p *Parser) tryParseMatch() (ast.Stmt, bool) {
	save := p.pos
	line := p.cur().Line
	p.advance() // 'match' is lexed as NAME-like keyword token.MATCH
	if !p.looksLikeMatchHeader() {
		p.pos = save
		return nil, false
	}
	subject := p.parseExprList()
	p.eat(token.COLON)
	p.eat(token.NEWLINE)
	p.skipNewlines()
	p.eat(token.INDENT)
	var cases []ast.MatchCase
	for p.at(token.CASE) {
		p.advance()
		pat := p.parsePattern()
		var guard ast.Expr
		if p.at(token.IF) {
			p.advance()
			guard = p.parseExpr()
		}
		body := p.parseBlock()
		cases = append(cases, ast.MatchCase{Pattern: pat, Guard: guard, Body: body})
		p.skipNewlines()
	}
	p.eat(token.DEDENT)
	return &ast.Match{Subject: subject, Cases: cases, Base: baseAt(line)}, true
}

// looksLikeMatchHeader distinguishes `match expr:` from a statement that
// merely begins with an identifier named "match" used as a plain call.
func (p *Parser) looksLikeMatchHeader() bool {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].Type {
		case token.LPAREN, token.LBRACKET, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACKET, token.RBRACE:
			depth--
		case token.COLON:
			if depth == 0 {
				return i+1 < len(p.toks) && p.toks[i+1].Type == token.NEWLINE
			}
		case token.NEWLINE:
			return false
		}
	}
	return false
}

func (p *Parser) parsePattern() ast.Pattern {
	first := p.parseOrPattern()
	return first
}

func (p *Parser) parseOrPattern() ast.Pattern {
	first := p.parseAtomPattern()
	if !p.at(token.PIPE) {
		return first
	}
	options := []ast.Pattern{first}
	for p.at(token.PIPE) {
		p.advance()
		options = append(options, p.parseAtomPattern())
	}
	return ast.OrPattern{Options: options}
}

func (p *Parser) parseAtomPattern() ast.Pattern {
	switch p.curType() {
	case token.NAME:
		name := p.cur().Value
		if name == "_" {
			p.advance()
			return ast.WildcardPattern{}
		}
		// Class pattern: Name(...) or Name.Attr(...)
		save := p.pos
		expr := p.parsePostfixNameOnly()
		if p.at(token.LPAREN) {
			p.advance()
			cp := ast.ClassPattern{Class: expr, Keyword: map[string]ast.Pattern{}}
			for !p.at(token.RPAREN) {
				if p.at(token.NAME) && p.peekIsAssignAfterNamePattern() {
					kw := p.advance().Value
					p.eat(token.ASSIGN)
					cp.Keyword[kw] = p.parsePattern()
				} else {
					cp.Positional = append(cp.Positional, p.parsePattern())
				}
				if p.at(token.COMMA) {
					p.advance()
					continue
				}
				break
			}
			p.eat(token.RPAREN)
			return cp
		}
		if _, ok := expr.(*ast.Var); ok && save == p.pos-1 {
			return ast.CapturePattern{Name: name}
		}
		return ast.LiteralPattern{Value: expr}
	case token.LBRACKET:
		p.advance()
		var elems []ast.Pattern
		star := -1
		starAs := ""
		for !p.at(token.RBRACKET) {
			if p.at(token.STAR) {
				p.advance()
				star = len(elems)
				starAs = p.eat(token.NAME).Value
				elems = append(elems, ast.CapturePattern{Name: starAs})
			} else {
				elems = append(elems, p.parsePattern())
			}
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.eat(token.RBRACKET)
		return ast.SequencePattern{Elems: elems, Star: star, StarAs: starAs}
	case token.LBRACE:
		p.advance()
		var keys []ast.Expr
		var values []ast.Pattern
		for !p.at(token.RBRACE) {
			k := p.parseOr()
			p.eat(token.COLON)
			v := p.parsePattern()
			keys = append(keys, k)
			values = append(values, v)
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.eat(token.RBRACE)
		return ast.MappingPattern{Keys: keys, Values: values}
	default:
		return ast.LiteralPattern{Value: p.parseOr()}
	}
}

func (p *Parser) parsePostfixNameOnly() ast.Expr {
	line := p.cur().Line
	name := p.advance().Value
	x := ast.Expr(&ast.Var{Name: name, Base: baseAt(line)})
	for p.at(token.DOT) {
		p.advance()
		attr := p.eat(token.NAME).Value
		x = &ast.GetAttr{X: x, Attr: attr, Base: baseAt(line)}
	}
	return x
}

func (p *Parser) peekIsAssignAfterNamePattern() bool {
	return p.pos+1 < len(p.toks) && p.toks[p.pos+1].Type == token.ASSIGN
}

func containsYield(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		if stmtHasYield(s) {
			return true
		}
	}
	return false
}

func stmtHasYield(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.ExprStmt:
		return exprHasYield(n.X)
	case *ast.Assign:
		return exprHasYield(n.Value)
	case *ast.If:
		for _, c := range n.Clauses {
			if containsYield(c.Body) {
				return true
			}
		}
		return containsYield(n.Else)
	case *ast.While:
		return containsYield(n.Body) || containsYield(n.Else)
	case *ast.For:
		return containsYield(n.Body) || containsYield(n.Else)
	case *ast.Try:
		if containsYield(n.Body) || containsYield(n.Else) || containsYield(n.Finally) {
			return true
		}
		for _, h := range n.Handlers {
			if containsYield(h.Body) {
				return true
			}
		}
		return false
	case *ast.With:
		return containsYield(n.Body)
	}
	return false
}

func exprHasYield(e ast.Expr) bool {
	_, ok := e.(*ast.Yield)
	return ok
}

// baseAt is a tiny helper so literal struct construction can set the
// unexported embedded base field from other files in this package.
func baseAt(line int) ast.EmbeddableBase { return ast.NewBase(line) }
