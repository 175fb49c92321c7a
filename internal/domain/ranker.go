package domain

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	m "afluent.dev/pkg/afluent/internal/model"
)

// Shuffler permutes a sequence in place. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Ranker orders lines by suspiciousness.
type Ranker struct {
	shuffler Shuffler
}

// NewRanker returns a ranker that draws the random tie-break permutation
// from shuffler. A nil shuffler gets a time-seeded source.
func NewRanker(shuffler Shuffler) *Ranker {
	if shuffler == nil {
		return NewSeededRanker(0)
	}

	return &Ranker{shuffler: shuffler}
}

// NewSeededRanker returns a ranker backed by a math/rand source. A zero
// seed picks a time-based one.
func NewSeededRanker(seed int64) *Ranker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Ranker{shuffler: rand.New(rand.NewSource(seed))} //nolint:gosec // ordering only
}

// Rank returns lines ordered most suspicious first. The input slice is not
// modified. Both names are validated before any work is done.
func (r *Ranker) Rank(lines []*Line, primary m.Formula, strategy m.Tiebreak) ([]*Line, error) {
	if err := validateRanking(primary, strategy); err != nil {
		return nil, err
	}

	return SortLines(r.Permute(lines, strategy), primary, strategy)
}

// Permute returns a copy of lines in the order ties are broken from. Only
// random reorders, drawing a fresh permutation on every call; rank several
// formulas of one run from a single Permute result so they agree on ties.
// A nil ranker uses a time-seeded source.
func (r *Ranker) Permute(lines []*Line, strategy m.Tiebreak) []*Line {
	order := append([]*Line{}, lines...)

	if strategy != m.TiebreakRandom {
		return order
	}

	if r == nil {
		r = NewSeededRanker(0)
	}

	r.shuffler.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	return order
}

// SortLines orders a copy of lines most suspicious first without drawing a
// permutation: lines tied under random keep their input order.
func SortLines(lines []*Line, primary m.Formula, strategy m.Tiebreak) ([]*Line, error) {
	if err := validateRanking(primary, strategy); err != nil {
		return nil, err
	}

	ranked := append([]*Line{}, lines...)

	if strategy == m.TiebreakRandom {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Score(primary) > ranked[j].Score(primary)
		})

		return ranked, nil
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := ranked[i].Score(primary), ranked[j].Score(primary)
		if si != sj {
			return si > sj
		}

		return ranked[i].Tiebreak(strategy) > ranked[j].Tiebreak(strategy)
	})

	return ranked, nil
}

func validateRanking(primary m.Formula, strategy m.Tiebreak) error {
	if _, err := LookupFormula(primary); err != nil {
		return err
	}

	if !validTiebreak(strategy) {
		return fmt.Errorf("%w: %q", ErrUnknownTiebreak, strategy)
	}

	return nil
}

func validTiebreak(strategy m.Tiebreak) bool {
	for _, known := range m.AllTiebreaks() {
		if strategy == known {
			return true
		}
	}

	return false
}

// ParseTiebreak validates a strategy name.
func ParseTiebreak(name string) (m.Tiebreak, error) {
	strategy := m.Tiebreak(name)
	if !validTiebreak(strategy) {
		return "", fmt.Errorf("%w: %q", ErrUnknownTiebreak, name)
	}

	return strategy, nil
}

// ParseFormulas validates formula names, keeping their order.
func ParseFormulas(names []string) ([]m.Formula, error) {
	formulas := make([]m.Formula, 0, len(names))

	for _, name := range names {
		formula := m.Formula(name)
		if _, err := LookupFormula(formula); err != nil {
			return nil, err
		}

		formulas = append(formulas, formula)
	}

	return formulas, nil
}
