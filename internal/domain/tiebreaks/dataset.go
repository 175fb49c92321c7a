package tiebreaks

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"

	m "afluent.dev/pkg/afluent/internal/model"
)

// ErrUnsupportedStrategy is returned for strategies that need no source analysis.
var ErrUnsupportedStrategy = errors.New("strategy has no source dataset")

// Compute builds the dataset of strategy for file. Every line of the file
// is present, lines outside any scored construct hold 0.
func Compute(fset *token.FileSet, file *ast.File, strategy m.Tiebreak) (m.LineScores, error) {
	switch strategy {
	case m.TiebreakCyclomatic:
		return Cyclomatic(fset, file), nil
	case m.TiebreakLogical:
		return Logical(fset, file), nil
	case m.TiebreakEnhanced:
		return Enhanced(fset, file), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, strategy)
	}
}

func emptyScores(fset *token.FileSet, file *ast.File) m.LineScores {
	scores := make(m.LineScores)

	tf := fset.File(file.Pos())
	if tf == nil {
		return scores
	}

	for line := 1; line <= tf.LineCount(); line++ {
		scores[line] = 0
	}

	return scores
}

// span returns the first and last line of node.
func span(fset *token.FileSet, node ast.Node) (int, int) {
	return fset.Position(node.Pos()).Line, fset.Position(node.End()).Line
}

func fill(scores m.LineScores, start, end int, value float64) {
	for line := start; line <= end; line++ {
		scores[line] = value
	}
}
