package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	m "afluent.dev/pkg/afluent/internal/model"
)

// RecordSource yields execution records in processing order.
type RecordSource interface {
	Range(fn func(index uint64, record m.ExecutionRecord) error) error
}

// Records adapts an in-memory slice to RecordSource.
type Records []m.ExecutionRecord

// Range calls fn for every record in slice order.
func (r Records) Range(fn func(index uint64, record m.ExecutionRecord) error) error {
	for i, record := range r {
		if err := fn(uint64(i), record); err != nil {
			return err
		}
	}

	return nil
}

// TiebreakProvider supplies precomputed per-line tie-break scores for a file.
// Implementations return ErrDatasetUnavailable when they have nothing for path.
type TiebreakProvider interface {
	Dataset(path m.Path, strategy m.Tiebreak) (m.LineScores, error)
}

// SpectrumOption configures NewSpectrum.
type SpectrumOption func(*Spectrum)

// WithTiebreaks makes reassembly fetch the dataset of strategy once per file.
// Strategies that need no dataset (random) never trigger a fetch.
func WithTiebreaks(provider TiebreakProvider, strategy m.Tiebreak) SpectrumOption {
	return func(s *Spectrum) {
		s.provider = provider
		s.strategy = strategy
	}
}

// Spectrum is the aggregated coverage and outcome data of one test run.
// Lines live in a single arena and are addressed through LineID handles.
// A Spectrum is not safe for concurrent mutation.
type Spectrum struct {
	files     []*SourceFile
	fileIndex map[m.Path]int
	lines     []Line
	totals    m.Totals
	provider  TiebreakProvider
	strategy  m.Tiebreak
	scored    map[m.Formula]struct{}
}

// NewSpectrum reassembles records into a spectrum. The whole batch fails on
// the first invalid record; no partially built spectrum is returned.
func NewSpectrum(records RecordSource, opts ...SpectrumOption) (*Spectrum, error) {
	s := &Spectrum{
		fileIndex: make(map[m.Path]int),
		scored:    make(map[m.Formula]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if records == nil {
		return s, nil
	}

	err := records.Range(func(_ uint64, record m.ExecutionRecord) error {
		return s.reassemble(record)
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("reassembled spectrum",
		"files", len(s.files),
		"lines", len(s.lines),
		"passed", s.totals.Passed,
		"failed", s.totals.Failed,
		"skipped", s.totals.Skipped,
	)

	return s, nil
}

func (s *Spectrum) reassemble(record m.ExecutionRecord) error {
	if !record.Outcome.Valid() {
		return fmt.Errorf("%w: %q for test case %q", ErrUnknownOutcome, record.Outcome, record.TestID)
	}

	switch record.Outcome {
	case m.OutcomePassed:
		s.totals.Passed++
	case m.OutcomeFailed:
		s.totals.Failed++
	case m.OutcomeSkipped:
		s.totals.Skipped++
	}

	paths := make([]m.Path, 0, len(record.Coverage))
	for path := range record.Coverage {
		paths = append(paths, path)
	}

	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	for _, path := range paths {
		file, err := s.fileFor(path)
		if err != nil {
			return err
		}

		s.updateFile(file, record.Coverage[path], record.Outcome, record.TestID)
	}

	return nil
}

func (s *Spectrum) fileFor(path m.Path) (*SourceFile, error) {
	if idx, ok := s.fileIndex[path]; ok {
		return s.files[idx], nil
	}

	dataset, err := s.fetchDataset(path)
	if err != nil {
		return nil, err
	}

	file := newSourceFile(path, dataset)
	s.fileIndex[path] = len(s.files)
	s.files = append(s.files, file)

	return file, nil
}

func (s *Spectrum) fetchDataset(path m.Path) (m.LineScores, error) {
	if s.provider == nil || !s.strategy.NeedsDataset() {
		return nil, nil
	}

	dataset, err := s.provider.Dataset(path, s.strategy)
	if errors.Is(err, ErrDatasetUnavailable) {
		slog.Debug("no tie-break dataset, using zero", "path", path, "strategy", s.strategy)
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("load %s dataset for %s: %w", s.strategy, path, err)
	}

	return dataset, nil
}

func (s *Spectrum) updateFile(file *SourceFile, numbers []int, outcome m.Outcome, testID string) {
	seen := make(map[int]struct{}, len(numbers))

	for _, number := range numbers {
		if _, dup := seen[number]; dup {
			continue
		}

		seen[number] = struct{}{}

		id, ok := file.lineID(number)
		if !ok {
			id = LineID(len(s.lines))
			line := newLine(file.Path, number)

			if s.strategy.NeedsDataset() {
				line.Tiebreaks[s.strategy] = file.tiebreakFor(number)
			}

			s.lines = append(s.lines, line)
			file.addLine(number, id)
		}

		s.lines[id].addTest(outcome, testID)
	}
}

// Totals returns the passed, failed and skipped test counts of the run.
func (s *Spectrum) Totals() m.Totals {
	return s.totals
}

// Strategy returns the tie-break strategy datasets were fetched for.
func (s *Spectrum) Strategy() m.Tiebreak {
	return s.strategy
}

// Len returns the number of covered lines.
func (s *Spectrum) Len() int {
	return len(s.lines)
}

// Files returns the source files sorted by path.
func (s *Spectrum) Files() []*SourceFile {
	files := append([]*SourceFile{}, s.files...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return files
}

// File returns the source file for path.
func (s *Spectrum) File(path m.Path) (*SourceFile, bool) {
	idx, ok := s.fileIndex[path]
	if !ok {
		return nil, false
	}

	return s.files[idx], true
}

// Get resolves a handle to its line.
func (s *Spectrum) Get(id LineID) *Line {
	return &s.lines[id]
}

// Line returns the line at path:number, if any test covered it.
func (s *Spectrum) Line(path m.Path, number int) (*Line, bool) {
	file, ok := s.File(path)
	if !ok {
		return nil, false
	}

	id, ok := file.lineID(number)
	if !ok {
		return nil, false
	}

	return s.Get(id), true
}

// Lines returns every line in reassembly order.
func (s *Spectrum) Lines() []*Line {
	lines := make([]*Line, len(s.lines))
	for i := range s.lines {
		lines[i] = &s.lines[i]
	}

	return lines
}

// Score computes the requested formulas (all registered ones when none are
// given) for every line using the run-wide totals. It can be re-run, e.g.
// with another D* power.
func (s *Spectrum) Score(power float64, formulas ...m.Formula) error {
	names, funcs, err := ResolveFormulas(formulas)
	if err != nil {
		return err
	}

	for i := range s.lines {
		line := &s.lines[i]
		in := line.inputs(s.totals, power)

		for j, name := range names {
			line.Scores[name] = funcs[j](in)
		}
	}

	for _, name := range names {
		s.scored[name] = struct{}{}
	}

	slog.Debug("scored spectrum", "lines", len(s.lines), "formulas", names, "power", power)

	return nil
}

// Scored reports whether Score has computed formula.
func (s *Spectrum) Scored(formula m.Formula) bool {
	_, ok := s.scored[formula]
	return ok
}

// Rank orders every line of the spectrum with ranker.
func (s *Spectrum) Rank(ranker *Ranker, primary m.Formula, strategy m.Tiebreak) ([]*Line, error) {
	return ranker.Rank(s.Lines(), primary, strategy)
}

// Report ranks the spectrum by primary and projects each line onto the
// requested formulas, with a severity per score. Every formula involved
// must have been scored.
func (s *Spectrum) Report(ranker *Ranker, primary m.Formula, strategy m.Tiebreak, formulas []m.Formula) (m.Ranking, error) {
	if err := validateRanking(primary, strategy); err != nil {
		return m.Ranking{}, err
	}

	return s.ReportFrom(ranker.Permute(s.Lines(), strategy), primary, strategy, formulas)
}

// ReportFrom is Report over an order obtained from Ranker.Permute, so the
// same random permutation can back several rankings of one run.
func (s *Spectrum) ReportFrom(order []*Line, primary m.Formula, strategy m.Tiebreak, formulas []m.Formula) (m.Ranking, error) {
	if err := validateRanking(primary, strategy); err != nil {
		return m.Ranking{}, err
	}

	names, _, err := ResolveFormulas(formulas)
	if err != nil {
		return m.Ranking{}, err
	}

	for _, name := range append([]m.Formula{primary}, names...) {
		if !s.Scored(name) {
			return m.Ranking{}, fmt.Errorf("%w: %q", ErrFormulaNotScored, name)
		}
	}

	ranked, err := SortLines(order, primary, strategy)
	if err != nil {
		return m.Ranking{}, err
	}

	total := len(ranked)
	rows := make([]m.RankedLine, 0, total)

	for i, line := range ranked {
		rank := i + 1
		scores := make([]float64, len(names))
		severities := make([]m.Severity, len(names))

		for j, name := range names {
			scores[j] = line.Score(name)
			severities[j] = ClassifySeverity(name, scores[j], rank, total)
		}

		rows = append(rows, m.RankedLine{
			Path:       line.Path,
			Number:     line.Number,
			Rank:       rank,
			Scores:     scores,
			Severities: severities,
			Tiebreak:   line.Tiebreak(strategy),
		})
	}

	return m.Ranking{
		Primary:  primary,
		Tiebreak: strategy,
		Formulas: names,
		Lines:    rows,
		Totals:   s.totals,
	}, nil
}

// Dump returns the full line state keyed by file path then line number.
func (s *Spectrum) Dump() m.Dump {
	files := make(map[m.Path]map[int]m.LineRecord, len(s.files))

	for _, file := range s.files {
		records := make(map[int]m.LineRecord, file.Len())
		for number, id := range file.lines {
			records[number] = s.lines[id].record()
		}

		files[file.Path] = records
	}

	return m.Dump{
		Totals: s.totals,
		Files:  files,
	}
}
