package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "afluent.dev/pkg/afluent/internal/model"
)

type stubProvider struct {
	datasets map[m.Path]m.LineScores
	calls    []m.Path
	err      error
}

func (p *stubProvider) Dataset(path m.Path, _ m.Tiebreak) (m.LineScores, error) {
	p.calls = append(p.calls, path)
	if p.err != nil {
		return nil, p.err
	}

	dataset, ok := p.datasets[path]
	if !ok {
		return nil, ErrDatasetUnavailable
	}

	return dataset, nil
}

func TestNewSpectrum_Reassembly(t *testing.T) {
	records := Records{
		{TestID: "t1", Outcome: m.OutcomePassed, Coverage: map[m.Path][]int{"f.py": {3, 6}}},
		{TestID: "t2", Outcome: m.OutcomeFailed, Coverage: map[m.Path][]int{"f.py": {6}}},
	}

	spectrum, err := NewSpectrum(records)
	require.NoError(t, err)

	assert.Equal(t, m.Totals{Passed: 1, Failed: 1}, spectrum.Totals())

	line3, ok := spectrum.Line("f.py", 3)
	require.True(t, ok)
	assert.Equal(t, []string{"t1"}, line3.PassedBy)
	assert.Empty(t, line3.FailedBy)

	line6, ok := spectrum.Line("f.py", 6)
	require.True(t, ok)
	assert.Equal(t, []string{"t1"}, line6.PassedBy)
	assert.Equal(t, []string{"t2"}, line6.FailedBy)

	file, ok := spectrum.File("f.py")
	require.True(t, ok)
	assert.Equal(t, []int{3, 6}, file.LineNumbers())
}

func TestNewSpectrum_LinesStartUnscored(t *testing.T) {
	spectrum, err := NewSpectrum(Records{
		{TestID: "t1", Outcome: m.OutcomeSkipped, Coverage: map[m.Path][]int{"a.go": {1}}},
	})
	require.NoError(t, err)

	line, ok := spectrum.Line("a.go", 1)
	require.True(t, ok)
	assert.Equal(t, []string{"t1"}, line.SkippedBy)

	for _, name := range m.AllFormulas() {
		assert.Equal(t, ScoreNotComputed, line.Score(name), name)
	}

	assert.Zero(t, line.Tiebreak(m.TiebreakCyclomatic))
}

func TestNewSpectrum_DuplicateLinesCountOnce(t *testing.T) {
	spectrum, err := NewSpectrum(Records{
		{TestID: "t1", Outcome: m.OutcomeFailed, Coverage: map[m.Path][]int{"a.go": {4, 4, 5}}},
	})
	require.NoError(t, err)

	line, ok := spectrum.Line("a.go", 4)
	require.True(t, ok)
	assert.Equal(t, []string{"t1"}, line.FailedBy)
	assert.Equal(t, 2, spectrum.Len())
}

func TestNewSpectrum_Empty(t *testing.T) {
	spectrum, err := NewSpectrum(Records{})
	require.NoError(t, err)

	assert.Empty(t, spectrum.Files())
	assert.Equal(t, m.Totals{}, spectrum.Totals())

	require.NoError(t, spectrum.Score(DefaultDStarPower))

	ranked, err := spectrum.Rank(NewSeededRanker(1), m.FormulaOchiai, m.TiebreakRandom)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestNewSpectrum_UnknownOutcome(t *testing.T) {
	spectrum, err := NewSpectrum(Records{
		{TestID: "t1", Outcome: m.OutcomePassed, Coverage: map[m.Path][]int{"a.go": {1}}},
		{TestID: "t2", Outcome: "unknown", Coverage: map[m.Path][]int{"b.go": {2}}},
	})

	require.ErrorIs(t, err, ErrUnknownOutcome)
	assert.Nil(t, spectrum)
}

func TestNewSpectrum_UnknownOutcomeCreatesNoLines(t *testing.T) {
	s := &Spectrum{fileIndex: make(map[m.Path]int)}

	err := s.reassemble(m.ExecutionRecord{
		TestID:   "t1",
		Outcome:  "unknown",
		Coverage: map[m.Path][]int{"a.go": {1, 2}},
	})

	require.ErrorIs(t, err, ErrUnknownOutcome)
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Files())
	assert.Equal(t, m.Totals{}, s.Totals())
}

func TestNewSpectrum_TiebreakDataset(t *testing.T) {
	provider := &stubProvider{datasets: map[m.Path]m.LineScores{
		"a.go": {1: 4, 2: 7},
	}}

	spectrum, err := NewSpectrum(Records{
		{TestID: "t1", Outcome: m.OutcomeFailed, Coverage: map[m.Path][]int{"a.go": {1, 2, 3}, "b.go": {1}}},
		{TestID: "t2", Outcome: m.OutcomePassed, Coverage: map[m.Path][]int{"a.go": {1}}},
	}, WithTiebreaks(provider, m.TiebreakCyclomatic))
	require.NoError(t, err)

	assert.Equal(t, []m.Path{"a.go", "b.go"}, provider.calls)

	line, _ := spectrum.Line("a.go", 2)
	assert.Equal(t, 7.0, line.Tiebreak(m.TiebreakCyclomatic))

	line, _ = spectrum.Line("a.go", 3)
	assert.Zero(t, line.Tiebreak(m.TiebreakCyclomatic))

	file, _ := spectrum.File("b.go")
	assert.False(t, file.HasDataset())
}

func TestNewSpectrum_RandomSkipsDatasetFetch(t *testing.T) {
	provider := &stubProvider{}

	_, err := NewSpectrum(Records{
		{TestID: "t1", Outcome: m.OutcomeFailed, Coverage: map[m.Path][]int{"a.go": {1}}},
	}, WithTiebreaks(provider, m.TiebreakRandom))
	require.NoError(t, err)

	assert.Empty(t, provider.calls)
}

func TestNewSpectrum_ProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("disk on fire")}

	_, err := NewSpectrum(Records{
		{TestID: "t1", Outcome: m.OutcomeFailed, Coverage: map[m.Path][]int{"a.go": {1}}},
	}, WithTiebreaks(provider, m.TiebreakLogical))
	require.ErrorContains(t, err, "disk on fire")
}

func TestSpectrum_Score(t *testing.T) {
	spectrum, err := NewSpectrum(Records{
		{TestID: "t1", Outcome: m.OutcomePassed, Coverage: map[m.Path][]int{"a.go": {1, 2}}},
		{TestID: "t2", Outcome: m.OutcomeFailed, Coverage: map[m.Path][]int{"a.go": {2}}},
	})
	require.NoError(t, err)

	require.NoError(t, spectrum.Score(DefaultDStarPower, m.FormulaTarantula))

	line1, _ := spectrum.Line("a.go", 1)
	line2, _ := spectrum.Line("a.go", 2)
	assert.Equal(t, 0.0, line1.Score(m.FormulaTarantula))
	assert.Equal(t, 0.5, line2.Score(m.FormulaTarantula))
	assert.Equal(t, ScoreNotComputed, line2.Score(m.FormulaOchiai))

	require.NoError(t, spectrum.Score(2))
	assert.Equal(t, 1.0, line2.Score(m.FormulaDStar))
	assert.Equal(t, 0.5, line2.Score(m.FormulaTarantula))
}

func TestSpectrum_ScoreUnknownFormula(t *testing.T) {
	spectrum, err := NewSpectrum(Records{
		{TestID: "t1", Outcome: m.OutcomeFailed, Coverage: map[m.Path][]int{"a.go": {1}}},
	})
	require.NoError(t, err)

	err = spectrum.Score(DefaultDStarPower, m.FormulaOchiai, "bogus")
	require.ErrorIs(t, err, ErrUnknownFormula)

	line, _ := spectrum.Line("a.go", 1)
	assert.Equal(t, ScoreNotComputed, line.Score(m.FormulaOchiai))
}

func TestSpectrum_Report(t *testing.T) {
	spectrum, err := NewSpectrum(Records{
		{TestID: "t1", Outcome: m.OutcomePassed, Coverage: map[m.Path][]int{"a.go": {1, 2}}},
		{TestID: "t2", Outcome: m.OutcomeFailed, Coverage: map[m.Path][]int{"a.go": {2}}},
	})
	require.NoError(t, err)
	require.NoError(t, spectrum.Score(DefaultDStarPower))

	ranking, err := spectrum.Report(NewSeededRanker(1), m.FormulaOchiai, m.TiebreakCyclomatic,
		[]m.Formula{m.FormulaOchiai, m.FormulaTarantula})
	require.NoError(t, err)

	require.Len(t, ranking.Lines, 2)
	assert.Equal(t, 2, ranking.Lines[0].Number)
	assert.Equal(t, 1, ranking.Lines[0].Rank)
	assert.Equal(t, []float64{0.7071, 0.5}, ranking.Lines[0].Scores)
	assert.Equal(t, []m.Severity{m.SeverityMild, m.SeverityMild}, ranking.Lines[0].Severities)
	assert.Equal(t, []m.Severity{m.SeveritySafe, m.SeveritySafe}, ranking.Lines[1].Severities)
	assert.Equal(t, m.Totals{Passed: 1, Failed: 1}, ranking.Totals)
}

func TestSpectrum_ReportRejectsUnscoredFormula(t *testing.T) {
	spectrum, err := NewSpectrum(Records{
		{TestID: "t1", Outcome: m.OutcomeFailed, Coverage: map[m.Path][]int{"a.go": {1}}},
	})
	require.NoError(t, err)
	require.NoError(t, spectrum.Score(DefaultDStarPower, m.FormulaOchiai))

	assert.True(t, spectrum.Scored(m.FormulaOchiai))
	assert.False(t, spectrum.Scored(m.FormulaMcCon))

	_, err = spectrum.Report(NewSeededRanker(1), m.FormulaOchiai, m.TiebreakRandom,
		[]m.Formula{m.FormulaOchiai, m.FormulaMcCon})
	require.ErrorIs(t, err, ErrFormulaNotScored)

	_, err = spectrum.Report(NewSeededRanker(1), m.FormulaMinus, m.TiebreakRandom, []m.Formula{m.FormulaOchiai})
	require.ErrorIs(t, err, ErrFormulaNotScored)

	ranking, err := spectrum.Report(NewSeededRanker(1), m.FormulaOchiai, m.TiebreakRandom, []m.Formula{m.FormulaOchiai})
	require.NoError(t, err)
	assert.Equal(t, []m.Severity{m.SeveritySevere}, ranking.Lines[0].Severities)
}

func TestSpectrum_ReportNilRanker(t *testing.T) {
	spectrum, err := NewSpectrum(Records{
		{TestID: "t1", Outcome: m.OutcomePassed, Coverage: map[m.Path][]int{"a.go": {1, 2}}},
		{TestID: "t2", Outcome: m.OutcomeFailed, Coverage: map[m.Path][]int{"a.go": {2}}},
	})
	require.NoError(t, err)
	require.NoError(t, spectrum.Score(DefaultDStarPower))

	ranked, err := spectrum.Rank(nil, m.FormulaOchiai, m.TiebreakRandom)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, positions(ranked))

	ranking, err := spectrum.Report(nil, m.FormulaOchiai, m.TiebreakRandom, []m.Formula{m.FormulaOchiai})
	require.NoError(t, err)
	assert.Equal(t, 2, ranking.Lines[0].Number)
}

func TestSpectrum_ReportFromSharedOrder(t *testing.T) {
	records := make(Records, 0, 1)
	records = append(records, m.ExecutionRecord{
		TestID:   "t1",
		Outcome:  m.OutcomeFailed,
		Coverage: map[m.Path][]int{"a.go": {1, 2, 3, 4, 5}},
	})

	spectrum, err := NewSpectrum(records)
	require.NoError(t, err)
	require.NoError(t, spectrum.Score(DefaultDStarPower))

	order := NewSeededRanker(7).Permute(spectrum.Lines(), m.TiebreakRandom)

	ranking, err := spectrum.ReportFrom(order, m.FormulaOchiai, m.TiebreakRandom, []m.Formula{m.FormulaOchiai})
	require.NoError(t, err)

	byTarantula, err := SortLines(order, m.FormulaTarantula, m.TiebreakRandom)
	require.NoError(t, err)

	for i, row := range ranking.Lines {
		assert.Equal(t, row.Number, byTarantula[i].Number, "rank %d", row.Rank)
	}
}

func TestSpectrum_Dump(t *testing.T) {
	spectrum, err := NewSpectrum(Records{
		{TestID: "t1", Outcome: m.OutcomeFailed, Coverage: map[m.Path][]int{"a.go": {1}}},
	})
	require.NoError(t, err)
	require.NoError(t, spectrum.Score(DefaultDStarPower))

	dump := spectrum.Dump()
	require.Contains(t, dump.Files, m.Path("a.go"))

	record := dump.Files["a.go"][1]
	assert.Equal(t, []string{"t1"}, record.FailedBy)
	assert.Equal(t, m.Score(1), record.Scores[m.FormulaOchiai])
	assert.Equal(t, m.Totals{Failed: 1}, dump.Totals)
}
