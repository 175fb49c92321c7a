package domain

import (
	"math"

	m "afluent.dev/pkg/afluent/internal/model"
)

// topShare is the share of ranks treated as risky by the fallback rule.
const topShare = 0.2

var boundedFormulas = map[m.Formula]bool{
	m.FormulaTarantula:   true,
	m.FormulaOchiai:      true,
	m.FormulaOchiai2:     true,
	m.FormulaBarinel:     true,
	m.FormulaJaccard:     true,
	m.FormulaKulczynski2: true,
}

// ClassifySeverity buckets a score for display. Rules are tried per formula
// family first; anything they leave open is decided by rank position.
func ClassifySeverity(formula m.Formula, score float64, rank, total int) m.Severity {
	if severity, ok := familySeverity(formula, score); ok {
		return severity
	}

	if total > 0 && float64(rank)/float64(total) <= topShare {
		return m.SeverityRisky
	}

	return m.SeverityMild
}

func familySeverity(formula m.Formula, score float64) (m.Severity, bool) {
	switch {
	case boundedFormulas[formula]:
		switch score {
		case 1:
			return m.SeveritySevere, true
		case 0:
			return m.SeveritySafe, true
		}

	case formula == m.FormulaOp2:
		switch {
		case score > 1.3:
			return m.SeveritySevere, true
		case score >= 1.0 && score < 1.3:
			return m.SeverityRisky, true
		case score >= 0.3 && score < 1.0:
			return m.SeverityMild, true
		case score > 0 && score < 0.3:
			return m.SeveritySafe, true
		}

	case formula == m.FormulaMcCon || formula == m.FormulaMinus:
		switch {
		case score == 1:
			return m.SeveritySevere, true
		case score > 0 && score < 1:
			return m.SeverityRisky, true
		case score > -1 && score < 0:
			return m.SeverityMild, true
		case score == -1:
			return m.SeveritySafe, true
		}

	case formula == m.FormulaDStar:
		switch {
		case math.IsInf(score, 1):
			return m.SeveritySevere, true
		case score <= 0:
			return m.SeveritySafe, true
		}
	}

	return "", false
}
