package tiebreaks

import (
	"go/ast"
	"go/token"

	m "afluent.dev/pkg/afluent/internal/model"
)

// Logical assigns every line of a simple statement the number of mutable
// operators in that statement. Inner statements (inside function literals)
// overwrite their enclosing statement on the lines they share.
func Logical(fset *token.FileSet, file *ast.File) m.LineScores {
	scores := emptyScores(fset, file)

	newInspector(file).Preorder(simpleStmtTypes, func(n ast.Node) {
		start, end := span(fset, n)
		fill(scores, start, end, float64(statementMutants(n)))
	})

	return scores
}

func statementMutants(n ast.Node) int {
	if ret, ok := n.(*ast.ReturnStmt); ok {
		return countExprs(ret.Results)
	}

	return countMutants(n)
}
