package domain

import (
	"sort"

	m "afluent.dev/pkg/afluent/internal/model"
)

// SourceFile owns the covered lines of one file path.
type SourceFile struct {
	Path    m.Path
	lines   map[int]LineID
	order   []int
	dataset m.LineScores
}

func newSourceFile(path m.Path, dataset m.LineScores) *SourceFile {
	return &SourceFile{
		Path:    path,
		lines:   make(map[int]LineID),
		dataset: dataset,
	}
}

// Len returns the number of covered lines in the file.
func (f *SourceFile) Len() int {
	return len(f.lines)
}

// LineNumbers returns the covered line numbers in ascending order.
func (f *SourceFile) LineNumbers() []int {
	numbers := append([]int{}, f.order...)
	sort.Ints(numbers)

	return numbers
}

// HasDataset reports whether a tie-break dataset was supplied for the file.
func (f *SourceFile) HasDataset() bool {
	return f.dataset != nil
}

func (f *SourceFile) lineID(number int) (LineID, bool) {
	id, ok := f.lines[number]
	return id, ok
}

func (f *SourceFile) addLine(number int, id LineID) {
	f.lines[number] = id
	f.order = append(f.order, number)
}

// tiebreakFor looks up the dataset score of a line, 0 when absent.
func (f *SourceFile) tiebreakFor(number int) float64 {
	if f.dataset == nil {
		return 0
	}

	return f.dataset[number]
}
