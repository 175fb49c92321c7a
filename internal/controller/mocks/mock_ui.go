// Package mocks provides testify mocks of the controller interfaces.
package mocks

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	m "afluent.dev/pkg/afluent/internal/model"
)

// MockUI is a mock of controller.UI.
type MockUI struct {
	mock.Mock
}

func (_m *MockUI) DisplayAllPassed(ctx context.Context, totals m.Totals) {
	_m.Called(ctx, totals)
}

func (_m *MockUI) DisplayRanking(ctx context.Context, ranking m.Ranking, limit int) error {
	ret := _m.Called(ctx, ranking, limit)
	return ret.Error(0)
}

func (_m *MockUI) DisplayFiles(ctx context.Context, files []m.FileSummary, totals m.Totals) error {
	ret := _m.Called(ctx, files, totals)
	return ret.Error(0)
}

func (_m *MockUI) DisplayRuns(ctx context.Context, runs []m.RunSummary) error {
	ret := _m.Called(ctx, runs)
	return ret.Error(0)
}

func (_m *MockUI) DisplayExam(ctx context.Context, bug string, results []m.ExamResult) error {
	ret := _m.Called(ctx, bug, results)
	return ret.Error(0)
}

// DisplayMessage records the formatted message as its only argument
// besides ctx.
func (_m *MockUI) DisplayMessage(ctx context.Context, format string, args ...any) {
	_m.Called(ctx, fmt.Sprintf(format, args...))
}
