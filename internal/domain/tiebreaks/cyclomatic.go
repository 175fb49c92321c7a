package tiebreaks

import (
	"go/ast"
	"go/token"

	m "afluent.dev/pkg/afluent/internal/model"
)

// Cyclomatic assigns every line of a function the function's cyclomatic
// complexity. Function literals count towards their enclosing declaration.
func Cyclomatic(fset *token.FileSet, file *ast.File) m.LineScores {
	scores := emptyScores(fset, file)

	newInspector(file).Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		decl := n.(*ast.FuncDecl)
		if decl.Body == nil {
			return
		}

		start, end := span(fset, decl)
		fill(scores, start, end, float64(complexity(decl.Body)))
	})

	return scores
}

func complexity(body *ast.BlockStmt) int {
	total := 1

	ast.Inspect(body, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt:
			total++
		case *ast.CaseClause:
			if x.List != nil {
				total++
			}
		case *ast.CommClause:
			if x.Comm != nil {
				total++
			}
		case *ast.BinaryExpr:
			if isLogicalOp(x.Op) {
				total++
			}
		}

		return true
	})

	return total
}
