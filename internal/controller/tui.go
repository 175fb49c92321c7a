package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "afluent.dev/pkg/afluent/internal/model"
)

// pagerChrome is the number of rows taken by the title and help lines.
const pagerChrome = 3

// TUI prints short output directly and pages long output with Bubble Tea.
type TUI struct {
	output io.Writer
	height int
	width  int
}

// NewTUI creates a new TUI writing to the command's output.
func NewTUI(cmd *cobra.Command) *TUI {
	t := &TUI{output: cmd.OutOrStdout()}

	if f, ok := t.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			t.width = width
			t.height = height
		}
	}

	return t
}

// DisplayAllPassed reports a run without failing tests.
func (t *TUI) DisplayAllPassed(ctx context.Context, totals m.Totals) {
	if ctx.Err() != nil {
		return
	}

	style := lipgloss.NewRenderer(t.output).NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	fmt.Fprintln(t.output, style.Render(
		fmt.Sprintf("All %d tests passed (%d skipped), nothing to localize.", totals.Passed, totals.Skipped)))
}

// DisplayRanking shows the top limit lines of ranking, paging when they do
// not fit the terminal.
func (t *TUI) DisplayRanking(ctx context.Context, ranking m.Ranking, limit int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	title := fmt.Sprintf("afluent: suspicious lines by %s", formulaTitle(ranking.Primary))

	return t.page(ctx, title, renderRankingTable(t.output, ranking, limit))
}

// DisplayFiles shows per-file coverage counts.
func (t *TUI) DisplayFiles(ctx context.Context, files []m.FileSummary, totals m.Totals) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.page(ctx, "afluent: covered files", renderFilesTable(files, totals))
}

// DisplayRuns shows recorded runs.
func (t *TUI) DisplayRuns(ctx context.Context, runs []m.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(runs) == 0 {
		_, err := fmt.Fprintln(t.output, "No recorded runs.")
		return err
	}

	return t.page(ctx, "afluent: recorded runs", renderRunsTable(runs))
}

// DisplayExam shows EXAM scores of bug per formula.
func (t *TUI) DisplayExam(ctx context.Context, bug string, results []m.ExamResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.page(ctx, "afluent: evaluation", renderExamTable(bug, results))
}

// DisplayMessage prints a formatted line.
func (t *TUI) DisplayMessage(ctx context.Context, format string, args ...any) {
	if ctx.Err() != nil {
		return
	}

	fmt.Fprintf(t.output, format+"\n", args...)
}

func (t *TUI) page(ctx context.Context, title, content string) error {
	model := newPagerModel(title, content, t.width, t.height)

	if !model.needsPagination() {
		_, err := fmt.Fprint(t.output, content)
		return err
	}

	program := tea.NewProgram(model, tea.WithOutput(t.output), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run pager: %w", err)
	}

	return nil
}

// pagerModel scrolls pre-rendered content in a viewport.
type pagerModel struct {
	title    string
	content  string
	lines    int
	height   int
	viewport viewport.Model
	help     help.Model
	quitting bool
}

func newPagerModel(title, content string, width, height int) pagerModel {
	vp := viewport.New(width, max(height-pagerChrome, 1))
	vp.SetContent(content)

	return pagerModel{
		title:    title,
		content:  content,
		lines:    strings.Count(content, "\n") + 1,
		height:   height,
		viewport: vp,
		help:     help.New(),
	}
}

func (p pagerModel) needsPagination() bool {
	if p.height <= 0 {
		return false
	}

	return p.lines > p.height-pagerChrome
}

func (p pagerModel) Init() tea.Cmd {
	return nil
}

func (p pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.height = msg.Height
		p.viewport.Width = msg.Width
		p.viewport.Height = max(msg.Height-pagerChrome, 1)
		p.help.Width = msg.Width

		return p, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			p.quitting = true
			return p, tea.Quit
		case key.Matches(msg, keys.Top):
			p.viewport.GotoTop()
			return p, nil
		case key.Matches(msg, keys.Bottom):
			p.viewport.GotoBottom()
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)

	return p, cmd
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"})
)

func (p pagerModel) View() string {
	if p.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(p.title))
	fmt.Fprintf(&b, "  %3.f%%\n", p.viewport.ScrollPercent()*100)
	b.WriteString(p.viewport.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(p.help.View(keys)))

	return b.String()
}
