package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	m "afluent.dev/pkg/afluent/internal/model"
)

// LineRank is the position of one line under one formula in a recorded run.
type LineRank struct {
	Formula m.Formula
	Path    m.Path
	Number  int
	Rank    int
}

// BugQuery selects the runs and the line BugRanks looks at. An empty Source
// matches runs of every source.
type BugQuery struct {
	Formula m.Formula
	Source  string
	Path    m.Path
	Line    int
}

// BugRank is where a known faulty line landed in one recorded run. Rank is
// 0 when no test covered the line in that run.
type BugRank struct {
	RunID string
	Rank  int
	Total int
}

// HistoryStore keeps ranking runs so EXAM scores can be computed across them.
type HistoryStore interface {
	RecordRun(ctx context.Context, run m.RunSummary, ranks []LineRank) (string, error)
	Runs(ctx context.Context) ([]m.RunSummary, error)
	BugRanks(ctx context.Context, query BugQuery) ([]BugRank, error)
	Close() error
}

// SQLiteHistoryStore implements HistoryStore with SQLite.
type SQLiteHistoryStore struct {
	db *sql.DB
}

// NewSQLiteHistoryStore opens the database at path and applies migrations.
func NewSQLiteHistoryStore(ctx context.Context, path string) (*SQLiteHistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteHistoryStore{db: db}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteHistoryStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			tiebreak TEXT NOT NULL,
			passed INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			lines INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS line_ranks (
			run_id TEXT NOT NULL,
			formula TEXT NOT NULL,
			path TEXT NOT NULL,
			line INTEGER NOT NULL,
			rank INTEGER NOT NULL,
			PRIMARY KEY (run_id, formula, path, line),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_line_ranks_lookup ON line_ranks(formula, path, line)`,
		`CREATE INDEX IF NOT EXISTS idx_line_ranks_run_formula ON line_ranks(run_id, formula)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migrate history: %w", err)
		}
	}

	return nil
}

// RecordRun stores run and its ranks in one transaction and returns the new
// run id. A zero CreatedAt is set to now.
func (s *SQLiteHistoryStore) RecordRun(ctx context.Context, run m.RunSummary, ranks []LineRank) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, tiebreak, passed, failed, skipped, lines, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, string(run.Tiebreak),
		run.Totals.Passed, run.Totals.Failed, run.Totals.Skipped,
		run.Lines, run.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO line_ranks (run_id, formula, path, line, rank) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare ranks: %w", err)
	}

	defer func() {
		_ = stmt.Close()
	}()

	for _, rank := range ranks {
		if _, err := stmt.ExecContext(ctx, run.ID, string(rank.Formula), string(rank.Path), rank.Number, rank.Rank); err != nil {
			return "", fmt.Errorf("insert rank %s:%d: %w", rank.Path, rank.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	return run.ID, nil
}

// Runs lists recorded runs, oldest first.
func (s *SQLiteHistoryStore) Runs(ctx context.Context) ([]m.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, tiebreak, passed, failed, skipped, lines, created_at
		 FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var runs []m.RunSummary

	for rows.Next() {
		var (
			run      m.RunSummary
			tiebreak string
		)

		err := rows.Scan(&run.ID, &run.Source, &tiebreak,
			&run.Totals.Passed, &run.Totals.Failed, &run.Totals.Skipped,
			&run.Lines, &run.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.Tiebreak = m.Tiebreak(tiebreak)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// BugRanks returns the rank of the queried line in every recorded run that
// ranked by the queried formula. Runs that never scored the formula are left
// out rather than counted as uncovered.
func (s *SQLiteHistoryStore) BugRanks(ctx context.Context, query BugQuery) ([]BugRank, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, COALESCE(lr.rank, 0), r.lines
		 FROM runs r
		 LEFT JOIN line_ranks lr
		   ON lr.run_id = r.id AND lr.formula = ? AND lr.path = ? AND lr.line = ?
		 WHERE EXISTS (SELECT 1 FROM line_ranks x WHERE x.run_id = r.id AND x.formula = ?)
		   AND (? = '' OR r.source = ?)
		 ORDER BY r.created_at, r.id`,
		string(query.Formula), string(query.Path), query.Line,
		string(query.Formula),
		query.Source, query.Source)
	if err != nil {
		return nil, fmt.Errorf("query bug ranks: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var ranks []BugRank

	for rows.Next() {
		var rank BugRank
		if err := rows.Scan(&rank.RunID, &rank.Rank, &rank.Total); err != nil {
			return nil, fmt.Errorf("scan bug rank: %w", err)
		}

		ranks = append(ranks, rank)
	}

	return ranks, rows.Err()
}

// Close closes the database.
func (s *SQLiteHistoryStore) Close() error {
	return s.db.Close()
}
