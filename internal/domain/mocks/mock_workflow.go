// Package mocks provides testify mocks of the domain interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"afluent.dev/pkg/afluent/internal/domain"
)

// MockWorkflow is a mock of domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

// NewMockWorkflow creates a MockWorkflow whose expectations are asserted
// when the test ends.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	mockWorkflow := &MockWorkflow{}
	mockWorkflow.Mock.Test(t)

	t.Cleanup(func() { mockWorkflow.AssertExpectations(t) })

	return mockWorkflow
}

func (_m *MockWorkflow) Rank(ctx context.Context, args domain.RankArgs) error {
	return _m.Called(ctx, args).Error(0)
}

func (_m *MockWorkflow) List(ctx context.Context, args domain.InputArgs) error {
	return _m.Called(ctx, args).Error(0)
}

func (_m *MockWorkflow) Merge(ctx context.Context, args domain.MergeArgs) error {
	return _m.Called(ctx, args).Error(0)
}

func (_m *MockWorkflow) View(ctx context.Context) error {
	return _m.Called(ctx).Error(0)
}

func (_m *MockWorkflow) Eval(ctx context.Context, args domain.EvalArgs) error {
	return _m.Called(ctx, args).Error(0)
}

func (_m *MockWorkflow) Watch(ctx context.Context, args domain.RankArgs) error {
	return _m.Called(ctx, args).Error(0)
}
