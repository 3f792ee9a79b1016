package parser

import (
	"testing"

	"github.com/ivarvong/pyex-sub003/pkgs/ast"
)

func TestParseSimpleAssignment(t *testing.T) {
	t.Parallel()
	mod, err := Parse("x = 1\n")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(mod.Stmts) != 1 {
		t.Fatalf("Stmts = %d, want 1", len(mod.Stmts))
	}
	assign, ok := mod.Stmts[0].(*ast.Assign)
	if !ok {
		t.Fatalf("Stmts[0] = %T, want *ast.Assign", mod.Stmts[0])
	}
	target, ok := assign.Target.(*ast.Var)
	if !ok || target.Name != "x" {
		t.Fatalf("Target = %v, want Var(x)", assign.Target)
	}
	lit, ok := assign.Value.(*ast.Lit)
	if !ok || lit.Kind != ast.LitInt || lit.Int != "1" {
		t.Fatalf("Value = %v, want Lit(int 1)", assign.Value)
	}
}

func TestParseIfElse(t *testing.T) {
	t.Parallel()
	mod, err := Parse("if x:\n    y = 1\nelse:\n    y = 2\n")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ifStmt, ok := mod.Stmts[0].(*ast.If)
	if !ok {
		t.Fatalf("Stmts[0] = %T, want *ast.If", mod.Stmts[0])
	}
	if len(ifStmt.Clauses) != 1 {
		t.Fatalf("Clauses = %d, want 1", len(ifStmt.Clauses))
	}
	if len(ifStmt.Clauses[0].Body) != 1 || len(ifStmt.Else) != 1 {
		t.Fatalf("If body/else sizes = %d/%d, want 1/1", len(ifStmt.Clauses[0].Body), len(ifStmt.Else))
	}
}

func TestParseBinOpPrecedence(t *testing.T) {
	t.Parallel()
	// 1 + 2 * 3 must parse as 1 + (2 * 3), not (1 + 2) * 3.
	mod, err := Parse("x = 1 + 2 * 3\n")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	assign := mod.Stmts[0].(*ast.Assign)
	top, ok := assign.Value.(*ast.BinOp)
	if !ok || top.Op != "+" {
		t.Fatalf("top = %v, want BinOp(+)", assign.Value)
	}
	right, ok := top.R.(*ast.BinOp)
	if !ok || right.Op != "*" {
		t.Fatalf("top.R = %v, want BinOp(*)", top.R)
	}
}

func TestParseFunctionDefWithDefaultParam(t *testing.T) {
	t.Parallel()
	mod, err := Parse("def f(a, b=2):\n    return a + b\n")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	def, ok := mod.Stmts[0].(*ast.Def)
	if !ok {
		t.Fatalf("Stmts[0] = %T, want *ast.Def", mod.Stmts[0])
	}
	if def.Name != "f" || len(def.Params) != 2 {
		t.Fatalf("Def = %+v, want name f with 2 params", def)
	}
	if def.Params[0].Default != nil {
		t.Fatalf("Params[0].Default = %v, want nil", def.Params[0].Default)
	}
	if def.Params[1].Default == nil {
		t.Fatalf("Params[1].Default = nil, want a default expr")
	}
}

func TestParseCallWithArgsAndKeyword(t *testing.T) {
	t.Parallel()
	mod, err := Parse("f(1, 2, key=3)\n")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	stmt, ok := mod.Stmts[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("Stmts[0] = %T, want *ast.ExprStmt", mod.Stmts[0])
	}
	call, ok := stmt.X.(*ast.Call)
	if !ok {
		t.Fatalf("X = %T, want *ast.Call", stmt.X)
	}
	if len(call.Args) != 2 {
		t.Fatalf("Args = %d, want 2", len(call.Args))
	}
}

func TestParseListComprehension(t *testing.T) {
	t.Parallel()
	mod, err := Parse("x = [v for v in y if v]\n")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	assign := mod.Stmts[0].(*ast.Assign)
	comp, ok := assign.Value.(*ast.ListComp)
	if !ok {
		t.Fatalf("Value = %T, want *ast.ListComp", assign.Value)
	}
	if len(comp.Clauses) != 1 || len(comp.Clauses[0].Ifs) != 1 {
		t.Fatalf("ListComp clauses = %+v, want 1 clause with 1 if", comp.Clauses)
	}
}

func TestParseForLoop(t *testing.T) {
	t.Parallel()
	mod, err := Parse("for i in range(3):\n    print(i)\n")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	forStmt, ok := mod.Stmts[0].(*ast.For)
	if !ok {
		t.Fatalf("Stmts[0] = %T, want *ast.For", mod.Stmts[0])
	}
	if len(forStmt.Body) != 1 {
		t.Fatalf("Body = %d stmts, want 1", len(forStmt.Body))
	}
}

func TestParseTryExceptFinally(t *testing.T) {
	t.Parallel()
	src := "try:\n    risky()\nexcept ValueError as e:\n    handle(e)\nfinally:\n    cleanup()\n"
	mod, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	tryStmt, ok := mod.Stmts[0].(*ast.Try)
	if !ok {
		t.Fatalf("Stmts[0] = %T, want *ast.Try", mod.Stmts[0])
	}
	if len(tryStmt.Handlers) != 1 {
		t.Fatalf("Handlers = %d, want 1", len(tryStmt.Handlers))
	}
	excType, ok := tryStmt.Handlers[0].Type.(*ast.Var)
	if !ok || excType.Name != "ValueError" || tryStmt.Handlers[0].As != "e" {
		t.Fatalf("Handler = %+v, want ValueError as e", tryStmt.Handlers[0])
	}
	if len(tryStmt.Finally) != 1 {
		t.Fatalf("Finally = %d stmts, want 1", len(tryStmt.Finally))
	}
}

func TestParseSyntaxErrorReportsLine(t *testing.T) {
	t.Parallel()
	_, err := Parse("x = \n")
	if err == nil {
		t.Fatalf("expected a syntax error for a dangling assignment")
	}
	if _, ok := err.(*Error); !ok {
		t.Fatalf("err = %T, want *parser.Error", err)
	}
}
