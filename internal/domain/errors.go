package domain

import "errors"

var (
	// ErrUnknownOutcome is returned when a record's outcome is not passed, failed or skipped.
	ErrUnknownOutcome = errors.New("unknown test outcome")

	// ErrUnknownFormula is returned when a score or ranking names an unregistered formula.
	ErrUnknownFormula = errors.New("unknown suspiciousness formula")

	// ErrUnknownTiebreak is returned when a ranking names an unsupported tie-break strategy.
	ErrUnknownTiebreak = errors.New("unknown tie-break strategy")

	// ErrFormulaNotScored is returned when a report names a formula the spectrum has not scored.
	ErrFormulaNotScored = errors.New("formula not scored")

	// ErrDatasetUnavailable is returned by a TiebreakProvider that has no
	// dataset for a file. Reassembly treats it as "all zero".
	ErrDatasetUnavailable = errors.New("tie-break dataset unavailable")
)

var (
	// ErrDuplicateTest is returned when merged reports contain the same test id twice.
	ErrDuplicateTest = errors.New("duplicate test case")

	// ErrInvalidLocation is returned for a bug location that is not path:line.
	ErrInvalidLocation = errors.New("invalid line location, want path:line")
)
