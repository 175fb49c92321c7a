package domain

import (
	"fmt"
	"math"

	m "afluent.dev/pkg/afluent/internal/model"
)

// DefaultDStarPower is the exponent used by D* unless the caller overrides it.
const DefaultDStarPower = 3

// FormulaInputs are the spectrum counts a formula is computed from.
//
//	EF: failed tests covering the line
//	EP: passed tests covering the line
//	NP: passed tests in the run
//	NF: failed tests in the run
type FormulaInputs struct {
	EF    int
	EP    int
	NP    int
	NF    int
	Power float64
}

// FormulaFunc computes a suspiciousness score from spectrum counts.
type FormulaFunc func(in FormulaInputs) float64

var formulaTable = map[m.Formula]FormulaFunc{
	m.FormulaTarantula:   func(in FormulaInputs) float64 { return Tarantula(in.EF, in.EP, in.NP, in.NF) },
	m.FormulaOchiai:      func(in FormulaInputs) float64 { return Ochiai(in.EF, in.EP, in.NF) },
	m.FormulaOchiai2:     func(in FormulaInputs) float64 { return Ochiai2(in.EF, in.EP, in.NP, in.NF) },
	m.FormulaDStar:       func(in FormulaInputs) float64 { return DStar(in.EF, in.EP, in.NF, in.Power) },
	m.FormulaOp2:         func(in FormulaInputs) float64 { return Op2(in.EF, in.EP, in.NP) },
	m.FormulaBarinel:     func(in FormulaInputs) float64 { return Barinel(in.EF, in.EP, in.NP, in.NF) },
	m.FormulaJaccard:     func(in FormulaInputs) float64 { return Jaccard(in.EF, in.EP, in.NP, in.NF) },
	m.FormulaKulczynski:  func(in FormulaInputs) float64 { return Kulczynski(in.EF, in.EP, in.NP, in.NF) },
	m.FormulaKulczynski2: func(in FormulaInputs) float64 { return Kulczynski2(in.EF, in.EP, in.NP, in.NF) },
	m.FormulaMcCon:       func(in FormulaInputs) float64 { return McCon(in.EF, in.EP, in.NP, in.NF) },
	m.FormulaZoltar:      func(in FormulaInputs) float64 { return Zoltar(in.EF, in.EP, in.NP, in.NF) },
	m.FormulaMinus:       func(in FormulaInputs) float64 { return Minus(in.EF, in.EP, in.NP, in.NF) },
}

// LookupFormula resolves a formula name to its scoring function.
func LookupFormula(name m.Formula) (FormulaFunc, error) {
	fn, ok := formulaTable[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormula, name)
	}

	return fn, nil
}

// ResolveFormulas validates names and returns their functions in order.
// An empty list resolves to every registered formula.
func ResolveFormulas(names []m.Formula) ([]m.Formula, []FormulaFunc, error) {
	if len(names) == 0 {
		names = m.AllFormulas()
	}

	funcs := make([]FormulaFunc, 0, len(names))

	for _, name := range names {
		fn, err := LookupFormula(name)
		if err != nil {
			return nil, nil, err
		}

		funcs = append(funcs, fn)
	}

	return names, funcs, nil
}

func round4(x float64) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}

	return math.Round(x*10000) / 10000
}

// Tarantula computes (ef/nf) / (ep/np + ef/nf).
func Tarantula(ef, ep, np, nf int) float64 {
	if np == 0 {
		return 1
	}

	if nf == 0 {
		return 0
	}

	failedRatio := float64(ef) / float64(nf)
	passedRatio := float64(ep) / float64(np)

	// only skipped tests covered the line
	if failedRatio+passedRatio == 0 {
		return 0
	}

	return round4(failedRatio / (passedRatio + failedRatio))
}

// Ochiai computes ef / sqrt(nf * (ep + ef)).
func Ochiai(ef, ep, nf int) float64 {
	if nf == 0 || ef == 0 {
		return 0
	}

	return round4(float64(ef) / math.Sqrt(float64(nf)*float64(ep+ef)))
}

// Ochiai2 computes (ef*anp) / sqrt((ep+ef) * (anp+anf) * nf * np).
func Ochiai2(ef, ep, np, nf int) float64 {
	if np == 0 {
		return 1
	}

	anf := nf - ef
	anp := np - ep

	if anp+anf == 0 || nf == 0 || ep+ef == 0 {
		return 0
	}

	denominator := math.Sqrt(float64(ep+ef) * float64(anp+anf) * float64(nf) * float64(np))

	return round4(float64(ef*anp) / denominator)
}

// DStar computes ef^p / (ep + anf). A zero denominator yields +Inf.
func DStar(ef, ep, nf int, power float64) float64 {
	denominator := ep + (nf - ef)
	if denominator == 0 {
		return math.Inf(1)
	}

	return round4(math.Pow(float64(ef), power) / float64(denominator))
}

// Op2 computes ef - ep/(np+1).
func Op2(ef, ep, np int) float64 {
	return round4(float64(ef) - float64(ep)/float64(np+1))
}

// Barinel computes 1 - ep/(ep+ef).
func Barinel(ef, ep, _, _ int) float64 {
	if ep+ef == 0 {
		return 0
	}

	return round4(1 - float64(ep)/float64(ep+ef))
}

// Jaccard computes ef / (nf + ep).
func Jaccard(ef, ep, _, nf int) float64 {
	if nf+ep == 0 {
		return 0
	}

	return round4(float64(ef) / float64(nf+ep))
}

// Kulczynski computes ef / (anf + ep).
func Kulczynski(ef, ep, _, nf int) float64 {
	denominator := (nf - ef) + ep
	if denominator == 0 {
		return 0
	}

	return round4(float64(ef) / float64(denominator))
}

// Kulczynski2 computes 0.5*(ef/nf) + 0.5*(ef/(ef+ep)); a term with a zero
// denominator contributes nothing.
func Kulczynski2(ef, ep, _, nf int) float64 {
	var failedTerm, coverTerm float64

	if nf != 0 {
		failedTerm = float64(ef) / float64(nf)
	}

	if ef+ep != 0 {
		coverTerm = float64(ef) / float64(ef+ep)
	}

	return round4(0.5*failedTerm + 0.5*coverTerm)
}

// McCon computes (ef^2 - ep*anf) / ((ef+ep) * nf).
func McCon(ef, ep, _, nf int) float64 {
	if ef+ep == 0 || nf == 0 {
		return 0
	}

	anf := nf - ef
	numerator := float64(ef*ef) - float64(ep*anf)

	return round4(numerator / float64((ef+ep)*nf))
}

// Zoltar computes ef / (ef + anf + ep + 10000*anf*ep/ef).
func Zoltar(ef, ep, _, nf int) float64 {
	if ef == 0 {
		return 0
	}

	anf := nf - ef
	denominator := float64(ef+anf+ep) + float64(10000*anf*ep)/float64(ef)

	if denominator == 0 {
		return 0
	}

	return round4(float64(ef) / denominator)
}

// Minus computes the Tarantula-style failed affinity minus the same
// affinity for not covering the line:
//
//	f = ef/nf, p = ep/np
//	minus = f/(f+p) - (1-f)/((1-f)+(1-p))
//
// A ratio with a zero total is 0 and a term with a zero denominator is 0.
func Minus(ef, ep, np, nf int) float64 {
	var failedRatio, passedRatio float64

	if nf != 0 {
		failedRatio = float64(ef) / float64(nf)
	}

	if np != 0 {
		passedRatio = float64(ep) / float64(np)
	}

	var covered, uncovered float64

	if failedRatio+passedRatio != 0 {
		covered = failedRatio / (failedRatio + passedRatio)
	}

	if d := (1 - failedRatio) + (1 - passedRatio); d != 0 {
		uncovered = (1 - failedRatio) / d
	}

	return round4(covered - uncovered)
}
