package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"afluent.dev/pkg/afluent/internal/domain"
	m "afluent.dev/pkg/afluent/internal/model"
)

func TestListCmd(t *testing.T) {
	mockWorkflow, needs := useMockWorkflow(t)

	mockWorkflow.On("List", mock.Anything, mock.MatchedBy(func(args domain.InputArgs) bool {
		return args.Path == "run.json" && args.Format == "afluent"
	})).Return(nil).Once()

	_, err := runCommand(t, newListCmd(), "list", "run.json")
	require.NoError(t, err)
	assert.Equal(t, workflowNeeds{}, *needs)
}

func TestMergeCmd(t *testing.T) {
	mockWorkflow, _ := useMockWorkflow(t)

	mockWorkflow.On("Merge", mock.Anything, mock.MatchedBy(func(args domain.MergeArgs) bool {
		return args.Output == "all.json" &&
			len(args.Inputs) == 2 &&
			args.Inputs[0].Path == "a.json" &&
			args.Inputs[1].Path == "b.json"
	})).Return(nil).Once()

	_, err := runCommand(t, newMergeCmd(), "merge", "all.json", "a.json", "b.json")
	require.NoError(t, err)
}

func TestMergeCmd_NeedsInputs(t *testing.T) {
	useMockWorkflow(t)

	_, err := runCommand(t, newMergeCmd(), "merge", "all.json")
	require.Error(t, err)
}

func TestViewCmd(t *testing.T) {
	mockWorkflow, needs := useMockWorkflow(t)
	mockWorkflow.On("View", mock.Anything).Return(nil).Once()

	_, err := runCommand(t, newViewCmd(), "view")
	require.NoError(t, err)
	assert.True(t, needs.history)
}

func TestEvalCmd(t *testing.T) {
	mockWorkflow, needs := useMockWorkflow(t)

	mockWorkflow.On("Eval", mock.Anything, domain.EvalArgs{
		Bug:      "calc.go:12",
		Formulas: []m.Formula{m.FormulaOchiai},
	}).Return(nil).Once()

	_, err := runCommand(t, newEvalCmd(), "eval", "--bug", "calc.go:12", "-m", "ochiai")
	require.NoError(t, err)
	assert.True(t, needs.history)
}

func TestEvalCmd_Source(t *testing.T) {
	mockWorkflow, _ := useMockWorkflow(t)

	mockWorkflow.On("Eval", mock.Anything, domain.EvalArgs{
		Bug:      "calc.go:12",
		Formulas: []m.Formula{m.FormulaOchiai},
		Source:   "results.json",
	}).Return(nil).Once()

	_, err := runCommand(t, newEvalCmd(), "eval", "--bug", "calc.go:12", "-m", "ochiai", "--source", "results.json")
	require.NoError(t, err)
}

func TestEvalCmd_RequiresBug(t *testing.T) {
	useMockWorkflow(t)

	_, err := runCommand(t, newEvalCmd(), "eval")
	require.Error(t, err)
}
