package mocks

import (
	"context"

	"skillhub/internal/model"
	"skillhub/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockSkillService struct {
	mock.Mock
}

func (m *MockSkillService) Submit(ctx context.Context, in service.SubmitInput) (*model.Skill, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Skill), args.Error(1)
}

func (m *MockSkillService) Get(ctx context.Context, id string) (*model.Skill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Skill), args.Error(1)
}

func (m *MockSkillService) Search(ctx context.Context, p service.SearchParams) (*service.SkillSearchResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SkillSearchResult), args.Error(1)
}

func (m *MockSkillService) FetchContent(ctx context.Context, id string) (*service.SkillContent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SkillContent), args.Error(1)
}
