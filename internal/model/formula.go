package model

// Formula names a suspiciousness formula.
type Formula string

// Registered suspiciousness formulas.
const (
	FormulaTarantula   Formula = "tarantula"
	FormulaOchiai      Formula = "ochiai"
	FormulaOchiai2     Formula = "ochiai2"
	FormulaDStar       Formula = "dstar"
	FormulaOp2         Formula = "op2"
	FormulaBarinel     Formula = "barinel"
	FormulaJaccard     Formula = "jaccard"
	FormulaKulczynski  Formula = "kulczynski"
	FormulaKulczynski2 Formula = "kulczynski2"
	FormulaMcCon       Formula = "mccon"
	FormulaZoltar      Formula = "zoltar"
	FormulaMinus       Formula = "minus"
)

// AllFormulas lists every formula in report column order.
func AllFormulas() []Formula {
	return []Formula{
		FormulaTarantula,
		FormulaOchiai,
		FormulaOchiai2,
		FormulaDStar,
		FormulaOp2,
		FormulaBarinel,
		FormulaJaccard,
		FormulaKulczynski,
		FormulaKulczynski2,
		FormulaMcCon,
		FormulaZoltar,
		FormulaMinus,
	}
}

// DefaultFormulas are used when the caller does not name any.
func DefaultFormulas() []Formula {
	return []Formula{FormulaDStar, FormulaTarantula, FormulaOchiai, FormulaOchiai2}
}

// Tiebreak names a strategy for ordering lines with equal scores.
type Tiebreak string

// Supported tie-break strategies.
const (
	TiebreakRandom     Tiebreak = "random"
	TiebreakCyclomatic Tiebreak = "cyclomatic"
	TiebreakLogical    Tiebreak = "logical"
	TiebreakEnhanced   Tiebreak = "enhanced"
)

// AllTiebreaks lists every supported strategy.
func AllTiebreaks() []Tiebreak {
	return []Tiebreak{TiebreakRandom, TiebreakCyclomatic, TiebreakLogical, TiebreakEnhanced}
}

// NeedsDataset reports whether the strategy consumes a static analysis dataset.
func (t Tiebreak) NeedsDataset() bool {
	return t == TiebreakCyclomatic || t == TiebreakLogical || t == TiebreakEnhanced
}

// Severity is a presentation bucket for a score.
type Severity string

// Severity buckets from least to most suspicious.
const (
	SeveritySafe   Severity = "safe"
	SeverityMild   Severity = "mild"
	SeverityRisky  Severity = "risky"
	SeveritySevere Severity = "severe"
)
