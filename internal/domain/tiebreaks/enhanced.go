package tiebreaks

import (
	"go/ast"
	"go/token"
	"math"

	m "afluent.dev/pkg/afluent/internal/model"
)

var enhancedTypes = append([]ast.Node{
	(*ast.FuncDecl)(nil),
	(*ast.IfStmt)(nil),
	(*ast.ForStmt)(nil),
	(*ast.RangeStmt)(nil),
	(*ast.SwitchStmt)(nil),
}, simpleStmtTypes...)

// Enhanced averages the mutant counts of every construct enclosing a line,
// statement-level and block-level alike. Constructs are weighted by nesting:
// the innermost one weighs the most, the outermost weighs 1.
func Enhanced(fset *token.FileSet, file *ast.File) m.LineScores {
	scores := emptyScores(fset, file)
	owners := make(map[int][]float64)

	newInspector(file).Preorder(enhancedTypes, func(n ast.Node) {
		value := float64(nodeMutants(n))
		start, end := span(fset, n)

		for line := start; line <= end; line++ {
			owners[line] = append(owners[line], value)
		}
	})

	for line, values := range owners {
		scores[line] = weightedAverage(values)
	}

	return scores
}

// nodeMutants is the density of one construct. Declarations count their
// parameters, block statements count only their header.
func nodeMutants(n ast.Node) int {
	switch x := n.(type) {
	case *ast.FuncDecl:
		return x.Type.Params.NumFields()
	case *ast.IfStmt:
		return countMutants(x.Cond)
	case *ast.ForStmt:
		return countMutants(x.Cond)
	case *ast.RangeStmt:
		return 0
	case *ast.SwitchStmt:
		return countMutants(x.Tag)
	default:
		return statementMutants(n)
	}
}

// weightedAverage weighs values in reverse of visit order: the last visited
// (innermost) value gets weight len(values).
func weightedAverage(values []float64) float64 {
	var sum, weights float64

	for i, value := range values {
		weight := float64(i + 1)
		sum += weight * value
		weights += weight
	}

	if weights == 0 {
		return 0
	}

	return math.Round(sum/weights*10000) / 10000
}
