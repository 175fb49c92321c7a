package adapter

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/tools/cover"

	m "afluent.dev/pkg/afluent/internal/model"
)

// Input formats understood by NewRecordLoader.
const (
	FormatAFLuent = "afluent"
	FormatGoTest  = "go"
)

// ErrMalformedReport is returned when a per-test report cannot be decoded.
var ErrMalformedReport = errors.New("malformed per-test report")

// RecordSink receives execution records in load order. A FileSpill of
// records satisfies it.
type RecordSink interface {
	Append(record m.ExecutionRecord) error
}

// RecordLoader reads the results of one test run.
type RecordLoader interface {
	// Load streams the records stored at path into sink and returns how
	// many were appended.
	Load(ctx context.Context, path m.Path, sink RecordSink) (int, error)
}

// PathFilter drops coverage of files matching any of its patterns.
type PathFilter struct {
	patterns []*regexp.Regexp
}

// NewPathFilter compiles exclusion patterns.
func NewPathFilter(patterns []string) (*PathFilter, error) {
	filter := &PathFilter{}

	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", pattern, err)
		}

		filter.patterns = append(filter.patterns, re)
	}

	return filter, nil
}

// Excluded reports whether coverage of path must be dropped.
func (f *PathFilter) Excluded(path m.Path) bool {
	if f == nil {
		return false
	}

	for _, re := range f.patterns {
		if re.MatchString(string(path)) {
			return true
		}
	}

	return false
}

func (f *PathFilter) apply(coverage map[m.Path][]int) map[m.Path][]int {
	for path := range coverage {
		if f.Excluded(path) {
			delete(coverage, path)
		}
	}

	return coverage
}

// LoaderOptions configure NewRecordLoader.
type LoaderOptions struct {
	Filter *PathFilter
	// ProfileDir holds one coverprofile per test for the go format, filed
	// as <Package>/<Test>.cover or <Test>.cover.
	ProfileDir string
	// TrimPrefix is cut from coverprofile file names, usually the module path.
	TrimPrefix string
}

// NewRecordLoader returns the loader for format.
func NewRecordLoader(format string, opts LoaderOptions) (RecordLoader, error) {
	switch format {
	case "", FormatAFLuent:
		return &afluentLoader{filter: opts.Filter}, nil
	case FormatGoTest:
		return &goTestLoader{
			filter:     opts.Filter,
			profileDir: opts.ProfileDir,
			trimPrefix: opts.TrimPrefix,
		}, nil
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

// afluentLoader reads the per-test JSON report:
//
//	{"test_name": {"result": "passed", "coverage": {"file": [1, 2]}}, ...}
//
// The object is decoded token by token so test order is kept and the whole
// document never sits in memory at once.
type afluentLoader struct {
	filter *PathFilter
}

type afluentEntry struct {
	Result   string           `json:"result"`
	Coverage map[m.Path][]int `json:"coverage"`
}

func (l *afluentLoader) Load(ctx context.Context, path m.Path, sink RecordSink) (int, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return 0, fmt.Errorf("open report: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	return l.decode(ctx, f, sink)
}

func (l *afluentLoader) decode(ctx context.Context, r io.Reader, sink RecordSink) (int, error) {
	dec := json.NewDecoder(bufio.NewReader(r))

	if err := expectDelim(dec, '{'); err != nil {
		return 0, err
	}

	count := 0

	for dec.More() {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		tok, err := dec.Token()
		if err != nil {
			return count, fmt.Errorf("%w: %w", ErrMalformedReport, err)
		}

		testID, ok := tok.(string)
		if !ok {
			return count, fmt.Errorf("%w: expected test name, got %v", ErrMalformedReport, tok)
		}

		var entry afluentEntry
		if err := dec.Decode(&entry); err != nil {
			return count, fmt.Errorf("%w: test %q: %w", ErrMalformedReport, testID, err)
		}

		record := m.ExecutionRecord{
			TestID:   testID,
			Outcome:  m.Outcome(entry.Result),
			Coverage: l.filter.apply(entry.Coverage),
		}

		if err := sink.Append(record); err != nil {
			return count, err
		}

		count++
	}

	if err := expectDelim(dec, '}'); err != nil {
		return count, err
	}

	slog.Debug("loaded afluent report", "tests", count)

	return count, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedReport, err)
	}

	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrMalformedReport, want, tok)
	}

	return nil
}

// goTestLoader reads a `go test -json` event stream and pairs every
// top-level test with its coverprofile: <ProfileDir>/<Package>/<Test>.cover
// when present, else <ProfileDir>/<Test>.cover. The package directory keeps
// same-named tests of different packages apart.
type goTestLoader struct {
	filter     *PathFilter
	profileDir string
	trimPrefix string
}

type testEvent struct {
	Action  string `json:"Action"`
	Package string `json:"Package"`
	Test    string `json:"Test"`
}

var actionOutcomes = map[string]m.Outcome{
	"pass": m.OutcomePassed,
	"fail": m.OutcomeFailed,
	"skip": m.OutcomeSkipped,
}

func (l *goTestLoader) Load(ctx context.Context, path m.Path, sink RecordSink) (int, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return 0, fmt.Errorf("open test events: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	count, malformed := 0, 0

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event testEvent
		if err := json.Unmarshal(line, &event); err != nil {
			malformed++
			continue
		}

		outcome, terminal := actionOutcomes[event.Action]
		// subtests share their parent's coverprofile
		if !terminal || event.Test == "" || strings.Contains(event.Test, "/") {
			continue
		}

		coverage, err := l.coverage(event)
		if err != nil {
			return count, err
		}

		record := m.ExecutionRecord{
			TestID:   testID(event),
			Outcome:  outcome,
			Coverage: l.filter.apply(coverage),
		}

		if err := sink.Append(record); err != nil {
			return count, err
		}

		count++
	}

	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("scan test events: %w", err)
	}

	if malformed > 0 {
		slog.Warn("skipped malformed test events", "count", malformed)
	}

	slog.Debug("loaded go test events", "tests", count)

	return count, nil
}

func testID(event testEvent) string {
	if event.Package == "" {
		return event.Test
	}

	return event.Package + "." + event.Test
}

func (l *goTestLoader) coverage(event testEvent) (map[m.Path][]int, error) {
	if l.profileDir == "" {
		return map[m.Path][]int{}, nil
	}

	profilePath, ok := l.profilePath(event)
	if !ok {
		slog.Warn("no coverprofile for test", "test", testID(event), "dir", l.profileDir)
		return map[m.Path][]int{}, nil
	}

	profiles, err := cover.ParseProfiles(profilePath)
	if err != nil {
		return nil, fmt.Errorf("parse coverprofile %s: %w", profilePath, err)
	}

	return l.profileLines(profiles), nil
}

// profilePath finds the coverprofile of event, preferring the one filed
// under its package.
func (l *goTestLoader) profilePath(event testEvent) (string, bool) {
	name := event.Test + ".cover"
	candidates := []string{filepath.Join(l.profileDir, name)}

	if event.Package != "" {
		candidates = append([]string{filepath.Join(l.profileDir, filepath.FromSlash(event.Package), name)}, candidates...)
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}

	return "", false
}

// profileLines expands executed blocks into the set of lines they span.
func (l *goTestLoader) profileLines(profiles []*cover.Profile) map[m.Path][]int {
	coverage := make(map[m.Path][]int)

	for _, profile := range profiles {
		lines := make(map[int]struct{})

		for _, block := range profile.Blocks {
			if block.Count == 0 {
				continue
			}

			for line := block.StartLine; line <= block.EndLine; line++ {
				lines[line] = struct{}{}
			}
		}

		if len(lines) == 0 {
			continue
		}

		path := m.Path(strings.TrimPrefix(strings.TrimPrefix(profile.FileName, l.trimPrefix), "/"))

		numbers := coverage[path]
		for line := range lines {
			numbers = append(numbers, line)
		}

		sort.Ints(numbers)
		coverage[path] = numbers
	}

	return coverage
}
