package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rickcedwhat/assignment-checker/internal/service"
)

type MockGraderService struct {
	mock.Mock
}

func (m *MockGraderService) CheckAssignment(ctx context.Context, in service.CheckAssignmentInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *MockGraderService) SolveQuestion(ctx context.Context, files []service.NamedFile) (string, error) {
	args := m.Called(ctx, files)
	return args.String(0), args.Error(1)
}
