package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"afluent.dev/pkg/afluent/internal/domain"
	m "afluent.dev/pkg/afluent/internal/model"
)

func TestRankCmd_Defaults(t *testing.T) {
	mockWorkflow, needs := useMockWorkflow(t)

	var got domain.RankArgs

	mockWorkflow.On("Rank", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(domain.RankArgs) }).
		Return(nil).Once()

	_, err := runCommand(t, newRankCmd(), "rank")
	require.NoError(t, err)

	assert.Equal(t, workflowNeeds{history: true, cache: true}, *needs)
	assert.Equal(t, m.Path(defaultInputPath), got.Input.Path)
	assert.Equal(t, "afluent", got.Input.Format)
	assert.Equal(t, m.DefaultFormulas(), got.Formulas)
	assert.Equal(t, m.FormulaDStar, got.Primary)
	assert.Equal(t, 3.0, got.Power)
	assert.Equal(t, m.TiebreakRandom, got.Tiebreak)
	assert.Equal(t, 20, got.Limit)
	assert.Equal(t, m.Path(".afluent"), got.Output)
	assert.Empty(t, got.Report)
}

func TestRankCmd_Flags(t *testing.T) {
	mockWorkflow, _ := useMockWorkflow(t)

	mockWorkflow.On("Rank", mock.Anything, mock.MatchedBy(func(args domain.RankArgs) bool {
		return args.Input.Path == "shard.json" &&
			args.Input.Format == "go" &&
			args.Input.ProfileDir == "profiles" &&
			assert.ObjectsAreEqual([]m.Formula{m.FormulaOchiai, m.FormulaOp2}, args.Formulas) &&
			args.Primary == m.FormulaOp2 &&
			args.Power == 2 &&
			args.Tiebreak == m.TiebreakLogical &&
			args.Seed == 42 &&
			args.Limit == 5 &&
			args.Report == "sarif" &&
			args.Output == "out" &&
			assert.ObjectsAreEqual([]string{"vendor/"}, args.Input.Exclude)
	})).Return(nil).Once()

	_, err := runCommand(t, newRankCmd(),
		"--output", "out", "-x", "vendor/",
		"run", "shard.json",
		"--format", "go", "--profiles", "profiles",
		"-m", "ochiai,op2", "-p", "op2",
		"--dstar-pow", "2", "-t", "logical", "--seed", "42",
		"-n", "5", "-r", "sarif",
	)
	require.NoError(t, err)
}

func TestRankCmd_RejectsUnknownNames(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"formula", []string{"rank", "-m", "nope"}, domain.ErrUnknownFormula},
		{"tiebreak", []string{"rank", "-t", "nope"}, domain.ErrUnknownTiebreak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useMockWorkflow(t)

			_, err := runCommand(t, newRankCmd(), tt.args...)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWatchCmd_UsesWatcher(t *testing.T) {
	mockWorkflow, needs := useMockWorkflow(t)

	mockWorkflow.On("Watch", mock.Anything, mock.MatchedBy(func(args domain.RankArgs) bool {
		return args.Input.Path == "live.json" && args.Tiebreak == m.TiebreakEnhanced
	})).Return(nil).Once()

	_, err := runCommand(t, newWatchCmd(), "watch", "live.json", "-t", "enhanced")
	require.NoError(t, err)
	assert.True(t, needs.watcher)
}
