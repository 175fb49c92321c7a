// Package model defines the data structures shared by the fault localization
// workflow, its adapters and its UI.
package model

// Path represents a file system path as it appears in coverage data.
type Path string

// File represents a source code file under analysis.
type File struct {
	ShortPath Path
	FullPath  Path
	Hash      string
}

// LineScores maps a line number to a tie-break score for one file.
type LineScores map[int]float64

// Dataset maps a file path to its per-line tie-break scores for one strategy.
type Dataset map[Path]LineScores
