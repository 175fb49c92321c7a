package model

import "time"

// Totals counts test cases per outcome across a whole run.
type Totals struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// RankedLine is one row of a ranking: a line, its position and the scores
// of every requested formula in request order.
type RankedLine struct {
	Path       Path
	Number     int
	Rank       int
	Scores     []float64
	Severities []Severity
	Tiebreak   float64
}

// Ranking is the ordered output of a ranking pass.
type Ranking struct {
	Primary  Formula
	Tiebreak Tiebreak
	Formulas []Formula
	Lines    []RankedLine
	Totals   Totals
}

// LineRecord is the serialisable form of a line's accumulated state.
type LineRecord struct {
	PassedBy  []string             `json:"passed_by"`
	FailedBy  []string             `json:"failed_by"`
	SkippedBy []string             `json:"skipped_by"`
	Scores    map[Formula]Score    `json:"scores"`
	Tiebreaks map[Tiebreak]float64 `json:"tiebreaks"`
}

// Dump is the full state of a spectrum keyed by file path then line number.
type Dump struct {
	Totals Totals                      `json:"totals"`
	Files  map[Path]map[int]LineRecord `json:"files"`
}

// RunSummary describes one recorded ranking run.
type RunSummary struct {
	ID        string
	Source    string
	Tiebreak  Tiebreak
	Totals    Totals
	Lines     int
	CreatedAt time.Time
}

// ExamResult aggregates EXAM scores of one formula over recorded runs.
type ExamResult struct {
	Formula Formula
	Runs    int
	Scores  []float64
	Mean    float64
	StdDev  float64
}

// FileSummary counts the covered lines of one file.
type FileSummary struct {
	Path Path
	// Lines is the number of covered lines.
	Lines int
	// FailingLines is the number of lines covered by at least one failing test.
	FailingLines int
}
