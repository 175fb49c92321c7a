// Package tiebreaks computes per-line tie-break datasets from Go source.
package tiebreaks

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/inspector"
)

func isArithmeticOp(op token.Token) bool {
	return op == token.ADD || op == token.SUB || op == token.MUL || op == token.QUO || op == token.REM
}

func isComparisonOp(op token.Token) bool {
	return op == token.LSS || op == token.GTR || op == token.LEQ ||
		op == token.GEQ || op == token.EQL || op == token.NEQ
}

func isLogicalOp(op token.Token) bool {
	return op == token.LAND || op == token.LOR
}

func isBitwiseOp(op token.Token) bool {
	return op == token.AND || op == token.OR || op == token.XOR ||
		op == token.SHL || op == token.SHR || op == token.AND_NOT
}

func isAssignOp(op token.Token) bool {
	switch op {
	case token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN, token.QUO_ASSIGN, token.REM_ASSIGN,
		token.AND_ASSIGN, token.OR_ASSIGN, token.XOR_ASSIGN, token.SHL_ASSIGN, token.SHR_ASSIGN,
		token.AND_NOT_ASSIGN:
		return true
	}

	return false
}

func isUnaryOp(op token.Token) bool {
	return op == token.SUB || op == token.ADD || op == token.NOT || op == token.XOR
}

func isBooleanLiteral(name string) bool {
	return name == "true" || name == "false"
}

// countMutants returns how many mutable operators and operands node holds.
func countMutants(node ast.Node) int {
	if node == nil {
		return 0
	}

	total := 0

	ast.Inspect(node, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.BinaryExpr:
			if isArithmeticOp(x.Op) || isComparisonOp(x.Op) || isLogicalOp(x.Op) || isBitwiseOp(x.Op) {
				total++
			}
		case *ast.UnaryExpr:
			if isUnaryOp(x.Op) {
				total++
			}
		case *ast.AssignStmt:
			if isAssignOp(x.Tok) {
				total++
			}
		case *ast.IncDecStmt:
			total++
		case *ast.Ident:
			if isBooleanLiteral(x.Name) {
				total++
			}
		}

		return true
	})

	return total
}

func countExprs(exprs []ast.Expr) int {
	total := 0
	for _, expr := range exprs {
		total += countMutants(expr)
	}

	return total
}

var simpleStmtTypes = []ast.Node{
	(*ast.AssignStmt)(nil),
	(*ast.ExprStmt)(nil),
	(*ast.IncDecStmt)(nil),
	(*ast.DeclStmt)(nil),
	(*ast.SendStmt)(nil),
	(*ast.GoStmt)(nil),
	(*ast.DeferStmt)(nil),
	(*ast.ReturnStmt)(nil),
}

func newInspector(file *ast.File) *inspector.Inspector {
	return inspector.New([]*ast.File{file})
}
