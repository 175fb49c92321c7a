package tiebreaks

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "afluent.dev/pkg/afluent/internal/model"
)

const sample = `package sample

var enabled = true

func Classify(a, b int) string {
	if a > b && b > 0 {
		return "up"
	}
	for i := 0; i < a; i++ {
		b += i * 2
	}
	return "flat"
}

func Sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total = total + x
	}
	return total
}
`

func parse(t *testing.T, src string) (*token.FileSet, *ast.File) {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "sample.go", src, 0)
	require.NoError(t, err)

	return fset, file
}

func TestCyclomatic(t *testing.T) {
	fset, file := parse(t, sample)

	scores := Cyclomatic(fset, file)

	assert.Equal(t, 0.0, scores[3], "package-level var")
	// 1 + if + && + for
	assert.Equal(t, 4.0, scores[5])
	assert.Equal(t, 4.0, scores[13])
	// 1 + range
	assert.Equal(t, 2.0, scores[15])
	assert.Equal(t, 2.0, scores[21])
}

func TestLogical(t *testing.T) {
	fset, file := parse(t, sample)

	scores := Logical(fset, file)

	assert.Equal(t, 0.0, scores[5], "function header")
	assert.Equal(t, 0.0, scores[6], "if header is not a simple statement")
	assert.Equal(t, 0.0, scores[7], "literal return")
	// b += i * 2: op-assign and multiply
	assert.Equal(t, 2.0, scores[10])
	// total = total + x
	assert.Equal(t, 1.0, scores[18])
}

func TestEnhanced(t *testing.T) {
	fset, file := parse(t, sample)

	scores := Enhanced(fset, file)

	// func (2 params) only
	assert.Equal(t, 2.0, scores[5])
	// func(2, w1) + if(a > b, &&, b > 0 = 3, w2) => (2 + 6) / 3
	assert.InDelta(t, 2.6667, scores[6], 1e-9)
	// func(2, w1) + for(i < a = 1, w2) + stmt(2, w3) => (2 + 2 + 6) / 6
	assert.InDelta(t, 1.6667, scores[10], 1e-9)
	assert.Zero(t, scores[3])
}

func TestCompute(t *testing.T) {
	fset, file := parse(t, sample)

	for _, strategy := range []m.Tiebreak{m.TiebreakCyclomatic, m.TiebreakLogical, m.TiebreakEnhanced} {
		t.Run(string(strategy), func(t *testing.T) {
			scores, err := Compute(fset, file, strategy)
			require.NoError(t, err)
			assert.Len(t, scores, 21)
		})
	}

	_, err := Compute(fset, file, m.TiebreakRandom)
	require.ErrorIs(t, err, ErrUnsupportedStrategy)
}
