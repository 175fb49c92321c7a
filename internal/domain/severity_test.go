package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	m "afluent.dev/pkg/afluent/internal/model"
)

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		name    string
		formula m.Formula
		score   float64
		rank    int
		total   int
		want    m.Severity
	}{
		{"bounded one", m.FormulaTarantula, 1, 10, 20, m.SeveritySevere},
		{"bounded zero", m.FormulaJaccard, 0, 1, 20, m.SeveritySafe},
		{"bounded top rank", m.FormulaOchiai, 0.5, 1, 20, m.SeverityRisky},
		{"bounded low rank", m.FormulaOchiai, 0.5, 16, 20, m.SeverityMild},
		{"op2 high", m.FormulaOp2, 2, 20, 20, m.SeveritySevere},
		{"op2 risky", m.FormulaOp2, 1.0, 20, 20, m.SeverityRisky},
		{"op2 mild", m.FormulaOp2, 0.3, 1, 20, m.SeverityMild},
		{"op2 safe", m.FormulaOp2, 0.1, 1, 20, m.SeveritySafe},
		{"op2 boundary falls through", m.FormulaOp2, 1.3, 1, 20, m.SeverityRisky},
		{"op2 negative falls through", m.FormulaOp2, -0.5, 20, 20, m.SeverityMild},
		{"mccon one", m.FormulaMcCon, 1, 20, 20, m.SeveritySevere},
		{"mccon positive", m.FormulaMcCon, 0.4, 20, 20, m.SeverityRisky},
		{"minus negative", m.FormulaMinus, -0.4, 1, 20, m.SeverityMild},
		{"minus floor", m.FormulaMinus, -1, 1, 20, m.SeveritySafe},
		{"mccon zero falls through", m.FormulaMcCon, 0, 2, 20, m.SeverityRisky},
		{"dstar infinite", m.FormulaDStar, math.Inf(1), 20, 20, m.SeveritySevere},
		{"dstar zero", m.FormulaDStar, 0, 1, 20, m.SeveritySafe},
		{"dstar legacy sentinel is ranked", m.FormulaDStar, 999999999, 16, 20, m.SeverityMild},
		{"kulczynski uses rank", m.FormulaKulczynski, 0, 4, 20, m.SeverityRisky},
		{"zoltar uses rank", m.FormulaZoltar, 0.9, 5, 20, m.SeverityMild},
		{"empty ranking", m.FormulaZoltar, 0.9, 0, 0, m.SeverityMild},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySeverity(tt.formula, tt.score, tt.rank, tt.total))
		})
	}
}
