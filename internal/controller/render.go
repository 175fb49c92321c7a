package controller

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"afluent.dev/pkg/afluent/internal/adapter"
	m "afluent.dev/pkg/afluent/internal/model"
)

var displayNames = map[m.Formula]string{
	m.FormulaDStar: "DStar",
	m.FormulaMcCon: "McCon",
}

var titleCaser = cases.Title(language.English)

// formulaTitle is the column header of a formula.
func formulaTitle(formula m.Formula) string {
	if name, ok := displayNames[formula]; ok {
		return name
	}

	return titleCaser.String(string(formula))
}

// palette colours severities for one output. A renderer bound to a
// non-terminal writer drops the colours.
type palette struct {
	styles map[m.Severity]lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)

	return palette{
		styles: map[m.Severity]lipgloss.Style{
			m.SeveritySevere: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			m.SeverityRisky:  r.NewStyle().Foreground(lipgloss.Color("11")),
			m.SeverityMild:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}),
			m.SeveritySafe:   r.NewStyle().Foreground(lipgloss.Color("10")),
		},
	}
}

func (p palette) score(score float64, severity m.Severity) string {
	style, ok := p.styles[severity]
	if !ok {
		return adapter.FormatScore(score)
	}

	return style.Render(adapter.FormatScore(score))
}

func renderRankingTable(w io.Writer, ranking m.Ranking, limit int) string {
	var buf bytes.Buffer

	colors := newPalette(w)

	header := []string{"Rank", "Path", "Line"}
	alignment := []int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT}

	for _, formula := range ranking.Formulas {
		header = append(header, formulaTitle(formula))
		alignment = append(alignment, tablewriter.ALIGN_RIGHT)
	}

	table := tablewriter.NewWriter(&buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment(alignment)

	lines := ranking.Lines
	if limit > 0 && len(lines) > limit {
		lines = lines[:limit]
	}

	for _, line := range lines {
		row := []string{strconv.Itoa(line.Rank), string(line.Path), strconv.Itoa(line.Number)}
		for i, score := range line.Scores {
			row = append(row, colors.score(score, line.Severities[i]))
		}

		table.Append(row)
	}

	table.Render()

	return fmt.Sprintf("%s\n%s", summaryLine(ranking, len(lines)), buf.String())
}

func summaryLine(ranking m.Ranking, shown int) string {
	return fmt.Sprintf("Top %d of %d lines by %s (tie-break %s), tests: %d passed, %d failed, %d skipped\n",
		shown, len(ranking.Lines), formulaTitle(ranking.Primary), ranking.Tiebreak,
		ranking.Totals.Passed, ranking.Totals.Failed, ranking.Totals.Skipped)
}

func renderFilesTable(files []m.FileSummary, totals m.Totals) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Path", "Covered Lines", "Failing Lines"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER})

	covered, failing := 0, 0

	for _, file := range files {
		table.Append([]string{string(file.Path), strconv.Itoa(file.Lines), strconv.Itoa(file.FailingLines)})
		covered += file.Lines
		failing += file.FailingLines
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(files)),
		strconv.Itoa(covered),
		strconv.Itoa(failing),
	})

	table.Render()

	return fmt.Sprintf("Tests: %d passed, %d failed, %d skipped\n\n%s",
		totals.Passed, totals.Failed, totals.Skipped, buf.String())
}

func renderRunsTable(runs []m.RunSummary) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Run", "Source", "Tie-break", "Passed", "Failed", "Skipped", "Lines", "Recorded"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoFormatHeaders(false)

	for _, run := range runs {
		table.Append([]string{
			shortID(run.ID),
			run.Source,
			string(run.Tiebreak),
			strconv.Itoa(run.Totals.Passed),
			strconv.Itoa(run.Totals.Failed),
			strconv.Itoa(run.Totals.Skipped),
			strconv.Itoa(run.Lines),
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}

	table.Render()

	return buf.String()
}

func renderExamTable(bug string, results []m.ExamResult) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Formula", "Runs", "Mean EXAM", "Std Dev"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})

	for _, result := range results {
		table.Append([]string{
			formulaTitle(result.Formula),
			strconv.Itoa(result.Runs),
			fmt.Sprintf("%.2f%%", result.Mean),
			fmt.Sprintf("%.2f", result.StdDev),
		})
	}

	table.Render()

	return fmt.Sprintf("EXAM scores for %s\n\n%s", bug, buf.String())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
