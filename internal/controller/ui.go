// Package controller renders workflow results for the terminal.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "afluent.dev/pkg/afluent/internal/model"
)

// UI displays the results of the afluent commands. Implementations can
// print plain tables or run an interactive pager.
type UI interface {
	DisplayAllPassed(ctx context.Context, totals m.Totals)
	DisplayRanking(ctx context.Context, ranking m.Ranking, limit int) error
	DisplayFiles(ctx context.Context, files []m.FileSummary, totals m.Totals) error
	DisplayRuns(ctx context.Context, runs []m.RunSummary) error
	DisplayExam(ctx context.Context, bug string, results []m.ExamResult) error
	DisplayMessage(ctx context.Context, format string, args ...any)
}

// NewUI returns the interactive UI when stdout is a terminal.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
