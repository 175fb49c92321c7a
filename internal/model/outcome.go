package model

// Outcome is the result of a single test case.
type Outcome string

const (
	// OutcomePassed marks a test case that passed.
	OutcomePassed Outcome = "passed"
	// OutcomeFailed marks a test case that failed.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped marks a test case that was skipped after starting to run.
	OutcomeSkipped Outcome = "skipped"
)

// Valid reports whether o is one of the three recognised outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePassed, OutcomeFailed, OutcomeSkipped:
		return true
	default:
		return false
	}
}

// ExecutionRecord holds what one test case covered and how it ended.
// Outcome is kept verbatim from the harness; validation happens when the
// record is reassembled into a spectrum.
type ExecutionRecord struct {
	TestID   string
	Outcome  Outcome
	Coverage map[Path][]int
}
