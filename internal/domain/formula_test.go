package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "afluent.dev/pkg/afluent/internal/model"
)

func TestFormulas(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"tarantula covered only by failing", Tarantula(1, 0, 1, 1), 1},
		{"tarantula covered only by passing", Tarantula(0, 1, 1, 1), 0},
		{"tarantula mixed", Tarantula(3, 1, 6, 4), 0.8182},
		{"tarantula no passing tests", Tarantula(2, 0, 0, 3), 1},
		{"tarantula no failing tests", Tarantula(0, 2, 3, 0), 0},
		{"ochiai full", Ochiai(1, 0, 1), 1},
		{"ochiai mixed", Ochiai(3, 2, 6), 0.5477},
		{"ochiai not failing", Ochiai(0, 1, 6), 0},
		{"dstar finite", DStar(3, 2, 6, 3), 5.4},
		{"ochiai2 mixed", Ochiai2(3, 2, 7, 6), 0.366},
		{"ochiai2 nothing covered", Ochiai2(0, 0, 7, 0), 0},
		{"op2", Op2(5, 2, 4), 4.6},
		{"barinel", Barinel(20, 10, 6, 12), 0.6667},
		{"jaccard", Jaccard(19, 1, 2, 5), 3.1667},
		{"kulczynski", Kulczynski(5, 9, 14, 5), 0.5556},
		{"kulczynski2", Kulczynski2(12, 20, 1, 6), 1.1875},
		{"mccon", McCon(18, 12, 12, 1), 17.6},
		{"zoltar", Zoltar(13, 3, 20, 11), -0.0028},
		{"minus mixed", Minus(3, 1, 6, 4), 0.5874},
		{"minus failing only", Minus(1, 0, 1, 1), 1},
		{"minus passing only", Minus(0, 1, 1, 1), -1},
		{"ochiai2 no passing tests", Ochiai2(2, 0, 0, 3), 1},
		{"ochiai2 every test covers the line", Ochiai2(2, 3, 3, 2), 0},
		{"op2 no passing tests", Op2(3, 2, 0), 1},
		{"barinel not covered", Barinel(0, 0, 5, 5), 0},
		{"jaccard no failing and not passed", Jaccard(0, 0, 5, 0), 0},
		{"kulczynski every failure covers the line", Kulczynski(3, 0, 5, 3), 0},
		{"kulczynski2 no failing tests", Kulczynski2(2, 2, 3, 0), 0.25},
		{"kulczynski2 not covered", Kulczynski2(0, 0, 3, 4), 0},
		{"mccon not covered", McCon(0, 0, 3, 4), 0},
		{"mccon no failing tests", McCon(2, 1, 3, 0), 0},
		{"zoltar not covered by failing", Zoltar(0, 3, 5, 4), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.got, 1e-9)
		})
	}
}

func TestDStar_ZeroDenominatorIsInfinite(t *testing.T) {
	assert.True(t, math.IsInf(DStar(6, 0, 6, 3), 1))
}

func TestFormulas_Deterministic(t *testing.T) {
	in := FormulaInputs{EF: 3, EP: 2, NP: 7, NF: 6, Power: DefaultDStarPower}

	for _, name := range m.AllFormulas() {
		t.Run(string(name), func(t *testing.T) {
			fn, err := LookupFormula(name)
			require.NoError(t, err)
			assert.Equal(t, fn(in), fn(in))
		})
	}
}

func TestLookupFormula_Unknown(t *testing.T) {
	_, err := LookupFormula("bogus")
	require.ErrorIs(t, err, ErrUnknownFormula)
}

func TestResolveFormulas(t *testing.T) {
	names, funcs, err := ResolveFormulas(nil)
	require.NoError(t, err)
	assert.Equal(t, m.AllFormulas(), names)
	assert.Len(t, funcs, len(names))

	names, _, err = ResolveFormulas([]m.Formula{m.FormulaOchiai, m.FormulaDStar})
	require.NoError(t, err)
	assert.Equal(t, []m.Formula{m.FormulaOchiai, m.FormulaDStar}, names)

	_, _, err = ResolveFormulas([]m.Formula{m.FormulaOchiai, "bogus"})
	require.ErrorIs(t, err, ErrUnknownFormula)
}
