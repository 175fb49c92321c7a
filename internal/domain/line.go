package domain

import (
	m "afluent.dev/pkg/afluent/internal/model"
)

// ScoreNotComputed is the value of a formula score that has not been scored yet.
const ScoreNotComputed = -1.0

// LineID is a stable handle to a Line inside its Spectrum.
type LineID int

// Line accumulates the tests that covered one source line and the scores
// derived from them.
type Line struct {
	Path      m.Path
	Number    int
	PassedBy  []string
	FailedBy  []string
	SkippedBy []string
	Scores    map[m.Formula]float64
	Tiebreaks map[m.Tiebreak]float64
}

func newLine(path m.Path, number int) Line {
	scores := make(map[m.Formula]float64, len(formulaTable))
	for name := range formulaTable {
		scores[name] = ScoreNotComputed
	}

	tiebreaks := make(map[m.Tiebreak]float64, 3)
	for _, strategy := range m.AllTiebreaks() {
		if strategy.NeedsDataset() {
			tiebreaks[strategy] = 0
		}
	}

	return Line{
		Path:      path,
		Number:    number,
		PassedBy:  []string{},
		FailedBy:  []string{},
		SkippedBy: []string{},
		Scores:    scores,
		Tiebreaks: tiebreaks,
	}
}

// addTest records that testID covered the line with the given outcome.
// The outcome must already be validated.
func (l *Line) addTest(outcome m.Outcome, testID string) {
	switch outcome {
	case m.OutcomePassed:
		l.PassedBy = append(l.PassedBy, testID)
	case m.OutcomeFailed:
		l.FailedBy = append(l.FailedBy, testID)
	case m.OutcomeSkipped:
		l.SkippedBy = append(l.SkippedBy, testID)
	}
}

// Score returns the stored score for formula, or ScoreNotComputed.
func (l *Line) Score(formula m.Formula) float64 {
	score, ok := l.Scores[formula]
	if !ok {
		return ScoreNotComputed
	}

	return score
}

// Tiebreak returns the tie-break score for strategy, 0 when absent.
func (l *Line) Tiebreak(strategy m.Tiebreak) float64 {
	return l.Tiebreaks[strategy]
}

func (l *Line) inputs(totals m.Totals, power float64) FormulaInputs {
	return FormulaInputs{
		EF:    len(l.FailedBy),
		EP:    len(l.PassedBy),
		NP:    totals.Passed,
		NF:    totals.Failed,
		Power: power,
	}
}

func (l *Line) record() m.LineRecord {
	scores := make(map[m.Formula]m.Score, len(l.Scores))
	for name, score := range l.Scores {
		scores[name] = m.Score(score)
	}

	tiebreaks := make(map[m.Tiebreak]float64, len(l.Tiebreaks))
	for name, score := range l.Tiebreaks {
		tiebreaks[name] = score
	}

	return m.LineRecord{
		PassedBy:  append([]string{}, l.PassedBy...),
		FailedBy:  append([]string{}, l.FailedBy...),
		SkippedBy: append([]string{}, l.SkippedBy...),
		Scores:    scores,
		Tiebreaks: tiebreaks,
	}
}
