package controller

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	m "afluent.dev/pkg/afluent/internal/model"
)

// SimpleUI prints plain tables to the command's output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayAllPassed reports a run without failing tests.
func (s *SimpleUI) DisplayAllPassed(ctx context.Context, totals m.Totals) {
	if ctx.Err() != nil {
		return
	}

	s.printf("All %d tests passed (%d skipped), nothing to localize.\n", totals.Passed, totals.Skipped)
}

// DisplayRanking prints the top limit lines of ranking; limit <= 0 prints all.
func (s *SimpleUI) DisplayRanking(ctx context.Context, ranking m.Ranking, limit int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderRankingTable(s.cmd.OutOrStdout(), ranking, limit))

	return nil
}

// DisplayFiles prints per-file coverage counts.
func (s *SimpleUI) DisplayFiles(ctx context.Context, files []m.FileSummary, totals m.Totals) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderFilesTable(files, totals))

	return nil
}

// DisplayRuns prints recorded runs.
func (s *SimpleUI) DisplayRuns(ctx context.Context, runs []m.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(runs) == 0 {
		s.printf("No recorded runs.\n")
		return nil
	}

	s.printf("%s", renderRunsTable(runs))

	return nil
}

// DisplayExam prints EXAM scores of bug per formula.
func (s *SimpleUI) DisplayExam(ctx context.Context, bug string, results []m.ExamResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderExamTable(bug, results))

	return nil
}

// DisplayMessage prints a formatted line.
func (s *SimpleUI) DisplayMessage(ctx context.Context, format string, args ...any) {
	if ctx.Err() != nil {
		return
	}

	s.printf(format+"\n", args...)
}

func (s *SimpleUI) printf(format string, args ...any) {
	fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
