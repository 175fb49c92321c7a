package adapter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	m "afluent.dev/pkg/afluent/internal/model"
)

// Report kinds accepted by NewReportWriter.
const (
	ReportJSON  = "json"
	ReportCSV   = "csv"
	ReportSARIF = "sarif"
)

const (
	toolName    = "afluent"
	sarifSchema = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"
)

// ReportWriter persists a ranking.
type ReportWriter interface {
	// Extension is the file extension of the produced report, without dot.
	Extension() string
	Write(w io.Writer, ranking m.Ranking, dump m.Dump) error
}

// NewReportWriter returns the writer for kind. limit caps the number of
// SARIF results; 0 means all.
func NewReportWriter(kind, version string, limit int) (ReportWriter, error) {
	switch kind {
	case ReportJSON:
		return jsonReportWriter{}, nil
	case ReportCSV:
		return csvReportWriter{}, nil
	case ReportSARIF:
		return sarifReportWriter{version: version, limit: limit}, nil
	default:
		return nil, fmt.Errorf("unknown report type %q", kind)
	}
}

type jsonReportWriter struct{}

type jsonRankedLine struct {
	Path     m.Path                   `json:"path"`
	Line     int                      `json:"line"`
	Rank     int                      `json:"rank"`
	Scores   map[m.Formula]m.Score    `json:"scores"`
	Severity map[m.Formula]m.Severity `json:"severity"`
	Tiebreak float64                  `json:"tiebreak"`
}

type jsonReport struct {
	Totals   m.Totals                        `json:"totals"`
	Primary  m.Formula                       `json:"primary"`
	Tiebreak m.Tiebreak                      `json:"tiebreak"`
	Formulas []m.Formula                     `json:"formulas"`
	Ranking  []jsonRankedLine                `json:"ranking"`
	Files    map[m.Path]map[int]m.LineRecord `json:"files"`
}

func (jsonReportWriter) Extension() string { return "json" }

func (jsonReportWriter) Write(w io.Writer, ranking m.Ranking, dump m.Dump) error {
	report := jsonReport{
		Totals:   ranking.Totals,
		Primary:  ranking.Primary,
		Tiebreak: ranking.Tiebreak,
		Formulas: ranking.Formulas,
		Ranking:  make([]jsonRankedLine, 0, len(ranking.Lines)),
		Files:    dump.Files,
	}

	for _, line := range ranking.Lines {
		row := jsonRankedLine{
			Path:     line.Path,
			Line:     line.Number,
			Rank:     line.Rank,
			Scores:   make(map[m.Formula]m.Score, len(ranking.Formulas)),
			Severity: make(map[m.Formula]m.Severity, len(ranking.Formulas)),
			Tiebreak: line.Tiebreak,
		}

		for i, formula := range ranking.Formulas {
			row.Scores[formula] = m.Score(line.Scores[i])
			row.Severity[formula] = line.Severities[i]
		}

		report.Ranking = append(report.Ranking, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(report)
}

type csvReportWriter struct{}

func (csvReportWriter) Extension() string { return "csv" }

func (csvReportWriter) Write(w io.Writer, ranking m.Ranking, _ m.Dump) error {
	cw := csv.NewWriter(w)

	header := []string{"path", "line", "rank"}
	for _, formula := range ranking.Formulas {
		header = append(header, string(formula))
	}

	if err := cw.Write(header); err != nil {
		return err
	}

	for _, line := range ranking.Lines {
		row := []string{string(line.Path), strconv.Itoa(line.Number), strconv.Itoa(line.Rank)}
		for _, score := range line.Scores {
			row = append(row, FormatScore(score))
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// FormatScore renders a score for tables and CSV cells.
func FormatScore(score float64) string {
	switch {
	case math.IsInf(score, 1):
		return "Infinity"
	case math.IsInf(score, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(score, 'f', -1, 64)
	}
}

type sarifReportWriter struct {
	version string
	limit   int
}

type sarifDocument struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Rank      float64         `json:"rank"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

var sarifLevels = map[m.Severity]string{
	m.SeveritySevere: "error",
	m.SeverityRisky:  "warning",
	m.SeverityMild:   "note",
	m.SeveritySafe:   "none",
}

func (sarifReportWriter) Extension() string { return "sarif" }

func (s sarifReportWriter) Write(w io.Writer, ranking m.Ranking, _ m.Dump) error {
	column := 0
	for i, formula := range ranking.Formulas {
		if formula == ranking.Primary {
			column = i
			break
		}
	}

	lines := ranking.Lines
	if s.limit > 0 && len(lines) > s.limit {
		lines = lines[:s.limit]
	}

	results := make([]sarifResult, 0, len(lines))

	for _, line := range lines {
		var (
			score    float64
			severity m.Severity
		)

		if column < len(line.Scores) {
			score = line.Scores[column]
			severity = line.Severities[column]
		}

		results = append(results, sarifResult{
			RuleID: "suspicious-line/" + string(ranking.Primary),
			Level:  sarifLevels[severity],
			Rank:   sarifRank(line.Rank, len(ranking.Lines)),
			Message: sarifMessage{Text: fmt.Sprintf("rank %d by %s (score %s, %s)",
				line.Rank, ranking.Primary, FormatScore(score), severity)},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: string(line.Path)},
					Region:           sarifRegion{StartLine: line.Number},
				},
			}},
		})
	}

	doc := sarifDocument{
		Version: "2.1.0",
		Schema:  sarifSchema,
		Runs: []sarifRun{{
			Tool:    sarifTool{Driver: sarifDriver{Name: toolName, Version: s.version}},
			Results: results,
		}},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	_, err = w.Write(append(data, '\n'))

	return err
}

// sarifRank maps position 1..total onto SARIF's 100..0 priority scale.
func sarifRank(rank, total int) float64 {
	if total <= 1 {
		return 100
	}

	return math.Round(float64(total-rank)/float64(total-1)*1000) / 10
}
