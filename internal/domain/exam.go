package domain

import (
	"math"

	m "afluent.dev/pkg/afluent/internal/model"
)

// ExamScore is the share of ranked lines a developer would not have to
// inspect before reaching the faulty one, as a percentage.
func ExamScore(rank, total int) float64 {
	if total <= 0 || rank <= 0 || rank > total {
		return 0
	}

	return float64(total-rank+1) / float64(total) * 100
}

// SummarizeExam aggregates the EXAM scores of several runs of one formula.
// StdDev is the sample standard deviation, 0 for fewer than two runs.
func SummarizeExam(formula m.Formula, scores []float64) m.ExamResult {
	result := m.ExamResult{
		Formula: formula,
		Runs:    len(scores),
		Scores:  append([]float64{}, scores...),
	}

	if len(scores) == 0 {
		return result
	}

	var sum float64
	for _, score := range scores {
		sum += score
	}

	result.Mean = sum / float64(len(scores))

	if len(scores) < 2 {
		return result
	}

	var squares float64
	for _, score := range scores {
		d := score - result.Mean
		squares += d * d
	}

	result.StdDev = math.Sqrt(squares / float64(len(scores)-1))

	return result
}
