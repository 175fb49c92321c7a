package domain

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"afluent.dev/pkg/afluent/internal/adapter"
	"afluent.dev/pkg/afluent/internal/controller"
	m "afluent.dev/pkg/afluent/internal/model"
	"afluent.dev/pkg/afluent/pkg"
)

// ReportBaseName is the file name, without extension, of written reports.
const ReportBaseName = "afluent-report"

// InputArgs locate the results of one test run.
type InputArgs struct {
	Path   m.Path
	Format string
	// ProfileDir holds per-test coverprofiles for the go format.
	ProfileDir string
	// TrimPrefix is cut from coverprofile paths.
	TrimPrefix string
	Exclude    []string
}

// RankArgs configure a ranking run.
type RankArgs struct {
	Input    InputArgs
	Formulas []m.Formula
	Primary  m.Formula
	Power    float64
	Tiebreak m.Tiebreak
	// Seed drives the random tie-break; 0 picks a time based seed.
	Seed  int64
	Limit int
	// Root resolves covered paths for source analysis.
	Root    m.Path
	Threads int
	// DatasetFile replaces source analysis with precomputed datasets.
	DatasetFile string
	// Report is the report kind to write into Output; empty writes none.
	Report  string
	Output  m.Path
	Version string
}

// MergeArgs configure a shard merge.
type MergeArgs struct {
	Output m.Path
	Inputs []InputArgs
}

// EvalArgs select the known faulty line to evaluate rankings against.
type EvalArgs struct {
	Bug      string
	Formulas []m.Formula
	// Source limits the runs to those ranked from this input; empty takes all.
	Source string
}

// Workflow runs the afluent commands.
type Workflow interface {
	Rank(ctx context.Context, args RankArgs) error
	List(ctx context.Context, args InputArgs) error
	Merge(ctx context.Context, args MergeArgs) error
	View(ctx context.Context) error
	Eval(ctx context.Context, args EvalArgs) error
	Watch(ctx context.Context, args RankArgs) error
}

type workflow struct {
	adapter.SourceFSAdapter
	controller.UI
	TiebreakAnalyzer
	history adapter.HistoryStore
	watcher adapter.FileWatcher
}

// NewWorkflow creates a Workflow. history and watcher may be nil when the
// commands using them are not needed.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	ui controller.UI,
	analyzer TiebreakAnalyzer,
	history adapter.HistoryStore,
	watcher adapter.FileWatcher,
) Workflow {
	return &workflow{
		SourceFSAdapter:  fsAdapter,
		UI:               ui,
		TiebreakAnalyzer: analyzer,
		history:          history,
		watcher:          watcher,
	}
}

// Rank localizes the faulty lines of one test run.
func (w *workflow) Rank(ctx context.Context, args RankArgs) error {
	formulas, err := rankFormulas(args.Formulas, args.Primary)
	if err != nil {
		return err
	}

	if _, err := ParseTiebreak(string(args.Tiebreak)); err != nil {
		return err
	}

	records, err := w.loadRecords(ctx, args.Input)
	if err != nil {
		return err
	}
	defer closeSpill(records)

	provider, err := w.datasets(ctx, args, records)
	if err != nil {
		return err
	}

	spectrum, err := NewSpectrum(records, WithTiebreaks(provider, args.Tiebreak))
	if err != nil {
		return fmt.Errorf("reassemble %s: %w", args.Input.Path, err)
	}

	if spectrum.Totals().Failed == 0 {
		w.DisplayAllPassed(ctx, spectrum.Totals())
		return nil
	}

	if err := spectrum.Score(args.Power, formulas...); err != nil {
		return err
	}

	order := NewSeededRanker(args.Seed).Permute(spectrum.Lines(), args.Tiebreak)

	ranking, err := spectrum.ReportFrom(order, args.Primary, args.Tiebreak, args.Formulas)
	if err != nil {
		return err
	}

	if err := w.DisplayRanking(ctx, ranking, args.Limit); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	if err := w.writeReport(args, ranking, spectrum.Dump()); err != nil {
		return err
	}

	return w.recordRun(ctx, args, spectrum, order, ranking.Formulas)
}

// rankFormulas are the formulas to score: the requested ones plus primary.
func rankFormulas(requested []m.Formula, primary m.Formula) ([]m.Formula, error) {
	names, _, err := ResolveFormulas(requested)
	if err != nil {
		return nil, err
	}

	if _, err := LookupFormula(primary); err != nil {
		return nil, err
	}

	for _, name := range names {
		if name == primary {
			return names, nil
		}
	}

	return append(names, primary), nil
}

func (w *workflow) loadRecords(ctx context.Context, input InputArgs) (pkg.FileSpill[m.ExecutionRecord], error) {
	filter, err := adapter.NewPathFilter(input.Exclude)
	if err != nil {
		return nil, err
	}

	loader, err := adapter.NewRecordLoader(input.Format, adapter.LoaderOptions{
		Filter:     filter,
		ProfileDir: input.ProfileDir,
		TrimPrefix: input.TrimPrefix,
	})
	if err != nil {
		return nil, err
	}

	records, err := pkg.NewFileSpill[m.ExecutionRecord]()
	if err != nil {
		return nil, fmt.Errorf("create record spill: %w", err)
	}

	count, err := loader.Load(ctx, input.Path, records)
	if err != nil {
		closeSpill(records)
		return nil, fmt.Errorf("load %s: %w", input.Path, err)
	}

	slog.Info("loaded test results", "path", input.Path, "format", input.Format, "records", count)

	return records, nil
}

func closeSpill(records pkg.FileSpill[m.ExecutionRecord]) {
	if err := records.Close(); err != nil {
		slog.Warn("failed to remove record spill", "path", records.Path(), "error", err)
	}
}

func (w *workflow) datasets(ctx context.Context, args RankArgs, records RecordSource) (TiebreakProvider, error) {
	if !args.Tiebreak.NeedsDataset() {
		return nil, nil
	}

	if args.DatasetFile != "" {
		datasets, err := adapter.LoadDatasets(args.DatasetFile)
		if err != nil {
			return nil, err
		}

		return TiebreakDatasets(datasets), nil
	}

	if w.TiebreakAnalyzer == nil {
		return nil, nil
	}

	paths, err := coveredPaths(records)
	if err != nil {
		return nil, err
	}

	return w.Analyze(ctx, AnalyzeArgs{
		Paths:    paths,
		Strategy: args.Tiebreak,
		Root:     args.Root,
		Threads:  args.Threads,
	})
}

func (w *workflow) writeReport(args RankArgs, ranking m.Ranking, dump m.Dump) error {
	if args.Report == "" {
		return nil
	}

	writer, err := adapter.NewReportWriter(args.Report, args.Version, args.Limit)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := writer.Write(&buf, ranking, dump); err != nil {
		return fmt.Errorf("render %s report: %w", args.Report, err)
	}

	path := m.Path(filepath.Join(string(args.Output), ReportBaseName+"."+writer.Extension()))
	if err := w.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	slog.Info("wrote report", "path", path, "kind", args.Report)

	return nil
}

// recordRun stores where every line landed under every formula so that
// later evaluations need no re-run. Every formula is sorted from the order
// the displayed ranking came from.
func (w *workflow) recordRun(ctx context.Context, args RankArgs, spectrum *Spectrum, order []*Line, formulas []m.Formula) error {
	if w.history == nil {
		return nil
	}

	ranks := make([]adapter.LineRank, 0, spectrum.Len()*len(formulas))

	for _, formula := range formulas {
		ranked, err := SortLines(order, formula, args.Tiebreak)
		if err != nil {
			return err
		}

		for i, line := range ranked {
			ranks = append(ranks, adapter.LineRank{
				Formula: formula,
				Path:    line.Path,
				Number:  line.Number,
				Rank:    i + 1,
			})
		}
	}

	id, err := w.history.RecordRun(ctx, m.RunSummary{
		Source:    string(args.Input.Path),
		Tiebreak:  args.Tiebreak,
		Totals:    spectrum.Totals(),
		Lines:     spectrum.Len(),
		CreatedAt: time.Now().UTC(),
	}, ranks)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	slog.Debug("recorded run", "id", id, "ranks", len(ranks))

	return nil
}

// List shows how many lines of every file the run covered.
func (w *workflow) List(ctx context.Context, args InputArgs) error {
	records, err := w.loadRecords(ctx, args)
	if err != nil {
		return err
	}
	defer closeSpill(records)

	spectrum, err := NewSpectrum(records)
	if err != nil {
		return fmt.Errorf("reassemble %s: %w", args.Path, err)
	}

	return w.DisplayFiles(ctx, FileSummaries(spectrum), spectrum.Totals())
}

// FileSummaries counts covered and failing-covered lines per file.
func FileSummaries(spectrum *Spectrum) []m.FileSummary {
	files := spectrum.Files()
	summaries := make([]m.FileSummary, 0, len(files))

	for _, file := range files {
		summary := m.FileSummary{Path: file.Path, Lines: file.Len()}

		for _, number := range file.LineNumbers() {
			if line, ok := spectrum.Line(file.Path, number); ok && len(line.FailedBy) > 0 {
				summary.FailingLines++
			}
		}

		summaries = append(summaries, summary)
	}

	return summaries
}

// uniqueSink rejects a test id seen before.
type uniqueSink struct {
	adapter.RecordSink
	seen map[string]m.Path
	from m.Path
}

func (s *uniqueSink) Append(record m.ExecutionRecord) error {
	if first, dup := s.seen[record.TestID]; dup {
		return fmt.Errorf("%w: %q in %s and %s", ErrDuplicateTest, record.TestID, first, s.from)
	}

	s.seen[record.TestID] = s.from

	return s.RecordSink.Append(record)
}

// Merge concatenates the reports of several shards into one afluent report.
func (w *workflow) Merge(ctx context.Context, args MergeArgs) error {
	records, err := pkg.NewFileSpill[m.ExecutionRecord]()
	if err != nil {
		return fmt.Errorf("create record spill: %w", err)
	}
	defer closeSpill(records)

	sink := &uniqueSink{RecordSink: records, seen: make(map[string]m.Path)}

	for _, input := range args.Inputs {
		loader, err := adapter.NewRecordLoader(input.Format, adapter.LoaderOptions{
			ProfileDir: input.ProfileDir,
			TrimPrefix: input.TrimPrefix,
		})
		if err != nil {
			return err
		}

		sink.from = input.Path

		if _, err := loader.Load(ctx, input.Path, sink); err != nil {
			return fmt.Errorf("load %s: %w", input.Path, err)
		}
	}

	var buf bytes.Buffer
	if err := adapter.WriteAFLuentReport(&buf, records); err != nil {
		return fmt.Errorf("encode merged report: %w", err)
	}

	if err := w.WriteFile(args.Output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write merged report: %w", err)
	}

	w.DisplayMessage(ctx, "Merged %d test cases from %d reports into %s", records.Len(), len(args.Inputs), args.Output)

	return nil
}

// View shows the recorded ranking runs.
func (w *workflow) View(ctx context.Context) error {
	if w.history == nil {
		return fmt.Errorf("view: no history store configured")
	}

	runs, err := w.history.Runs(ctx)
	if err != nil {
		return err
	}

	return w.DisplayRuns(ctx, runs)
}

// Eval computes per-formula EXAM scores of a known faulty line across the
// recorded runs that ranked by each formula.
func (w *workflow) Eval(ctx context.Context, args EvalArgs) error {
	if w.history == nil {
		return fmt.Errorf("eval: no history store configured")
	}

	path, number, err := ParseLocation(args.Bug)
	if err != nil {
		return err
	}

	formulas, _, err := ResolveFormulas(args.Formulas)
	if err != nil {
		return err
	}

	results := make([]m.ExamResult, 0, len(formulas))

	for _, formula := range formulas {
		ranks, err := w.history.BugRanks(ctx, adapter.BugQuery{
			Formula: formula,
			Source:  args.Source,
			Path:    path,
			Line:    number,
		})
		if err != nil {
			return err
		}

		scores := make([]float64, 0, len(ranks))
		for _, rank := range ranks {
			scores = append(scores, ExamScore(rank.Rank, rank.Total))
		}

		results = append(results, SummarizeExam(formula, scores))
	}

	return w.DisplayExam(ctx, args.Bug, results)
}

// ParseLocation splits "path:line".
func ParseLocation(location string) (m.Path, int, error) {
	idx := strings.LastIndex(location, ":")
	if idx <= 0 || idx == len(location)-1 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}

	number, err := strconv.Atoi(location[idx+1:])
	if err != nil || number <= 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}

	return m.Path(location[:idx]), number, nil
}

// Watch ranks once and again every time the input file changes, until ctx
// is done.
func (w *workflow) Watch(ctx context.Context, args RankArgs) error {
	if w.watcher == nil {
		return fmt.Errorf("watch: no file watcher configured")
	}

	if err := w.Rank(ctx, args); err != nil {
		return err
	}

	return w.watcher.Watch(ctx, args.Input.Path, func() error {
		w.DisplayMessage(ctx, "\n%s changed, ranking again", args.Input.Path)
		return w.Rank(ctx, args)
	})
}
