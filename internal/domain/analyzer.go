package domain

import (
	"context"
	"fmt"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"afluent.dev/pkg/afluent/internal/adapter"
	"afluent.dev/pkg/afluent/internal/domain/tiebreaks"
	m "afluent.dev/pkg/afluent/internal/model"
)

// TiebreakDatasets is an in-memory TiebreakProvider.
type TiebreakDatasets map[m.Tiebreak]m.Dataset

// Dataset returns the scores of path, or ErrDatasetUnavailable.
func (d TiebreakDatasets) Dataset(path m.Path, strategy m.Tiebreak) (m.LineScores, error) {
	scores, ok := d[strategy][path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetUnavailable, path)
	}

	return scores, nil
}

// AnalyzeArgs select the files and strategy to compute datasets for.
type AnalyzeArgs struct {
	Paths    []m.Path
	Strategy m.Tiebreak
	// Root resolves relative coverage paths.
	Root    m.Path
	Threads int
}

// TiebreakAnalyzer computes tie-break datasets from Go sources.
type TiebreakAnalyzer interface {
	Analyze(ctx context.Context, args AnalyzeArgs) (TiebreakDatasets, error)
}

type tiebreakAnalyzer struct {
	adapter.SourceFSAdapter
	adapter.GoFileAdapter
	cache adapter.TiebreakCache
}

// NewTiebreakAnalyzer creates a TiebreakAnalyzer. Results are cached by
// file content hash in cache.
func NewTiebreakAnalyzer(fs adapter.SourceFSAdapter, goFiles adapter.GoFileAdapter, cache adapter.TiebreakCache) TiebreakAnalyzer {
	if cache == nil {
		cache = adapter.NopTiebreakCache{}
	}

	return &tiebreakAnalyzer{
		SourceFSAdapter: fs,
		GoFileAdapter:   goFiles,
		cache:           cache,
	}
}

// Analyze computes the dataset of args.Strategy for every Go file in
// args.Paths in parallel. Files that are missing or do not parse are
// skipped; the spectrum then ranks their lines with a zero tie-break.
func (a *tiebreakAnalyzer) Analyze(ctx context.Context, args AnalyzeArgs) (TiebreakDatasets, error) {
	datasets := TiebreakDatasets{args.Strategy: m.Dataset{}}
	if !args.Strategy.NeedsDataset() {
		return datasets, nil
	}

	threads := args.Threads
	if threads <= 0 {
		threads = 1
	}

	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(threads)

	for _, path := range args.Paths {
		if !a.IsGoSource(path) {
			continue
		}

		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			scores, err := a.analyzeFile(resolve(args.Root, path), args.Strategy)
			if err != nil {
				return err
			}

			if scores == nil {
				return nil
			}

			mu.Lock()
			datasets[args.Strategy][path] = scores
			mu.Unlock()

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("computed tie-break datasets", "strategy", args.Strategy, "files", len(datasets[args.Strategy]))

	return datasets, nil
}

func (a *tiebreakAnalyzer) analyzeFile(path m.Path, strategy m.Tiebreak) (m.LineScores, error) {
	hash, err := a.HashFile(path)
	if os.IsNotExist(err) {
		slog.Warn("covered file not found, tie-break is zero", "path", path)
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}

	scores, hit, err := a.cache.Get(hash, strategy)
	if err != nil {
		return nil, err
	}

	if hit {
		slog.Debug("tie-break cache hit", "path", path, "strategy", strategy)
		return scores, nil
	}

	src, err := a.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	fset := token.NewFileSet()

	file, err := a.Parse(fset, string(path), src)
	if err != nil {
		slog.Warn("cannot parse covered file, tie-break is zero", "path", path, "error", err)
		return nil, nil
	}

	scores, err = tiebreaks.Compute(fset, file, strategy)
	if err != nil {
		return nil, err
	}

	if err := a.cache.Put(hash, strategy, scores); err != nil {
		return nil, fmt.Errorf("cache %s dataset for %s: %w", strategy, path, err)
	}

	return scores, nil
}

func resolve(root, path m.Path) m.Path {
	if root == "" || filepath.IsAbs(string(path)) {
		return path
	}

	return m.Path(filepath.Join(string(root), string(path)))
}

// coveredPaths lists every distinct path covered by records, sorted.
func coveredPaths(records RecordSource) ([]m.Path, error) {
	seen := make(map[m.Path]struct{})

	err := records.Range(func(_ uint64, record m.ExecutionRecord) error {
		for path := range record.Coverage {
			seen[path] = struct{}{}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	paths := make([]m.Path, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}

	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	return paths, nil
}
