package mocks

import (
	"context"

	"skillhub/internal/ai"

	"github.com/stretchr/testify/mock"
)

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, content string, suggestedName string) ai.Result {
	args := m.Called(ctx, content, suggestedName)
	return args.Get(0).(ai.Result)
}
