package mocks

import (
	"context"

	"skillhub/internal/model"
	"skillhub/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockSkillRepository struct {
	mock.Mock
}

func (m *MockSkillRepository) Create(ctx context.Context, skill *model.Skill) (*model.Skill, error) {
	args := m.Called(ctx, skill)
	if f, ok := args.Get(0).(func(context.Context, *model.Skill) *model.Skill); ok {
		return f(ctx, skill), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Skill), args.Error(1)
}

func (m *MockSkillRepository) FindByID(ctx context.Context, id string) (*model.Skill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Skill), args.Error(1)
}

func (m *MockSkillRepository) Search(ctx context.Context, sq repository.SearchQuery) (*repository.PageResult[model.Skill], error) {
	args := m.Called(ctx, sq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Skill]), args.Error(1)
}

func (m *MockSkillRepository) IncrementDownloads(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
