package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	"skillhub/internal/ai"
	aiMocks "skillhub/internal/ai/mocks"
	"skillhub/internal/model"
	"skillhub/internal/repository"
	repoMocks "skillhub/internal/repository/mocks"
	"skillhub/internal/storage"
	storeMocks "skillhub/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validInput() SubmitInput {
	return SubmitInput{
		Content:     "# How to write good tests\nAlways assert behavior.",
		AuthorName:  "Jo",
		AuthorEmail: "jo@x.com",
	}
}

func processedResult() ai.Result {
	return ai.Result{
		Name:              "Testing Guide",
		Description:       "A guide to testing",
		Keywords:          []string{"testing"},
		Categories:        []string{"testing"},
		ModificationsMade: []string{},
		QualityScore:      0.8,
		SanitizedContent:  "sanitized body",
	}
}

func TestSkillService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSkillRepository)
		mProc := new(aiMocks.MockProcessor)
		svc := NewSkillService(mStore, mRepo, mProc)

		in := validInput()

		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "skills/") && strings.HasSuffix(key, ".md") && !strings.Contains(key, "-processed")
		}), mock.Anything, mock.Anything).
			Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				return storage.ObjectInfo{Key: key, URL: "https://cdn.example.com/" + key}
			}, nil).Once()

		mProc.On("Process", ctx, in.Content, "").Return(processedResult()).Once()

		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasSuffix(key, "-processed.md")
		}), mock.Anything, mock.Anything).
			Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				return storage.ObjectInfo{Key: key, URL: "https://cdn.example.com/" + key}
			}, nil).Once()

		mRepo.On("Create", ctx, mock.MatchedBy(func(s *model.Skill) bool {
			return s.Name == "Testing Guide" &&
				s.Downloads == 0 &&
				s.OriginalURL != "" &&
				s.ProcessedURL != "" &&
				s.OriginalURL != s.ProcessedURL &&
				s.UploadedAt.Equal(s.UpdatedAt)
		})).Return(func(ctx context.Context, s *model.Skill) *model.Skill { return s }, nil).Once()

		skill, err := svc.Submit(ctx, in)

		require.NoError(t, err)
		assert.NotEmpty(t, skill.ID)
		assert.Equal(t, "Jo", skill.Author.Name)
		assert.Equal(t, 0.8, skill.AIProcessed.QualityScore)
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
		mProc.AssertExpectations(t)
	})

	t.Run("degraded processing still creates the record", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSkillRepository)
		mProc := new(aiMocks.MockProcessor)
		svc := NewSkillService(mStore, mRepo, mProc)

		in := validInput()
		fallback := ai.Result{
			Name:              "Untitled Skill",
			Description:       "AI processing failed - skill uploaded as-is",
			Keywords:          []string{},
			Categories:        []string{"uncategorized"},
			ModificationsMade: []string{"AI processing failed - manual review recommended"},
			QualityScore:      0.5,
			SanitizedContent:  in.Content,
		}

		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				return storage.ObjectInfo{Key: key, URL: "https://cdn.example.com/" + key}
			}, nil).Twice()
		mProc.On("Process", ctx, in.Content, "").Return(fallback).Once()
		mRepo.On("Create", ctx, mock.MatchedBy(func(s *model.Skill) bool {
			return s.AIProcessed.QualityScore == 0.5 &&
				len(s.Categories) == 1 && s.Categories[0] == "uncategorized"
		})).Return(func(ctx context.Context, s *model.Skill) *model.Skill { return s }, nil).Once()

		skill, err := svc.Submit(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, "Untitled Skill", skill.Name)
		mRepo.AssertExpectations(t)
	})

	t.Run("validation lists every violated constraint", func(t *testing.T) {
		svc := NewSkillService(nil, nil, nil)

		_, err := svc.Submit(ctx, SubmitInput{
			Content:     "short",
			AuthorName:  "J",
			AuthorEmail: "not-an-email",
		})

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		fields := make([]string, len(ve.Violations))
		for i, v := range ve.Violations {
			fields[i] = v.Field
		}
		assert.Contains(t, fields, "Content")
		assert.Contains(t, fields, "AuthorName")
		assert.Contains(t, fields, "AuthorEmail")
	})

	t.Run("validation runs before any side effect", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSkillRepository)
		mProc := new(aiMocks.MockProcessor)
		svc := NewSkillService(mStore, mRepo, mProc)

		_, err := svc.Submit(ctx, SubmitInput{Content: "tiny", AuthorName: "Jo", AuthorEmail: "jo@x.com"})

		assert.Error(t, err)
		mStore.AssertNotCalled(t, "Put")
		mProc.AssertNotCalled(t, "Process")
		mRepo.AssertNotCalled(t, "Create")
	})

	t.Run("original store failure aborts before processing", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSkillRepository)
		mProc := new(aiMocks.MockProcessor)
		svc := NewSkillService(mStore, mRepo, mProc)

		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("bucket gone")).Once()

		_, err := svc.Submit(ctx, validInput())

		assert.ErrorContains(t, err, "store original artifact")
		mProc.AssertNotCalled(t, "Process")
		mRepo.AssertNotCalled(t, "Create")
	})

	t.Run("processed store failure aborts without compensation", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSkillRepository)
		mProc := new(aiMocks.MockProcessor)
		svc := NewSkillService(mStore, mRepo, mProc)

		in := validInput()
		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return !strings.Contains(key, "-processed")
		}), mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{Key: "skills/x.md", URL: "https://cdn.example.com/skills/x.md"}, nil).Once()
		mProc.On("Process", ctx, in.Content, "").Return(processedResult()).Once()
		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.Contains(key, "-processed")
		}), mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("write failed")).Once()

		_, err := svc.Submit(ctx, in)

		assert.ErrorContains(t, err, "store processed artifact")
		// The already-written original artifact is left in place.
		mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		mRepo.AssertNotCalled(t, "Create")
	})

	t.Run("repository failure surfaces", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSkillRepository)
		mProc := new(aiMocks.MockProcessor)
		svc := NewSkillService(mStore, mRepo, mProc)

		in := validInput()
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				return storage.ObjectInfo{Key: key, URL: "https://cdn.example.com/" + key}
			}, nil).Twice()
		mProc.On("Process", ctx, in.Content, "").Return(processedResult()).Once()
		mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail")).Once()

		_, err := svc.Submit(ctx, in)

		assert.ErrorContains(t, err, "save skill record")
	})
}

func TestSkillService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockSkillRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   "valid-id",
			setupMocks: func(mRepo *repoMocks.MockSkillRepository) {
				mRepo.On("FindByID", ctx, "valid-id").Return(&model.Skill{ID: "valid-id"}, nil)
			},
		},
		{
			name:       "validation - empty id",
			id:         "",
			setupMocks: func(mRepo *repoMocks.MockSkillRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found - mapping sql.ErrNoRows",
			id:   "missing-id",
			setupMocks: func(mRepo *repoMocks.MockSkillRepository) {
				mRepo.On("FindByID", ctx, "missing-id").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "generic repository error",
			id:   "error-id",
			setupMocks: func(mRepo *repoMocks.MockSkillRepository) {
				mRepo.On("FindByID", ctx, "error-id").Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockSkillRepository)
			svc := NewSkillService(nil, mRepo, nil)

			tt.setupMocks(mRepo)

			skill, err := svc.Get(ctx, tt.id)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrIDRequired) || errors.Is(tt.wantErr, ErrNotFound) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Error(t, err)
				}
				assert.Nil(t, skill)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.id, skill.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestSkillService_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path with pagination math", func(t *testing.T) {
		mRepo := new(repoMocks.MockSkillRepository)
		svc := NewSkillService(nil, mRepo, nil)

		mRepo.On("Search", ctx, repository.SearchQuery{
			Query: "git", Category: "devops", Sort: repository.SortPopular,
			Limit: 20, Offset: 20,
		}).Return(&repository.PageResult[model.Skill]{
			Items: []model.Skill{{ID: "1"}},
			Total: 41,
		}, nil).Once()

		res, err := svc.Search(ctx, SearchParams{
			Query: "git", Category: "devops", Sort: "popular", Page: 2, Limit: 20,
		})

		require.NoError(t, err)
		assert.Equal(t, 41, res.Total)
		assert.Equal(t, 2, res.Page)
		assert.Equal(t, 3, res.TotalPages)
		mRepo.AssertExpectations(t)
	})

	t.Run("defaults applied for page and limit", func(t *testing.T) {
		mRepo := new(repoMocks.MockSkillRepository)
		svc := NewSkillService(nil, mRepo, nil)

		mRepo.On("Search", ctx, repository.SearchQuery{Limit: 20, Offset: 0}).
			Return(&repository.PageResult[model.Skill]{Items: []model.Skill{}, Total: 0}, nil).Once()

		res, err := svc.Search(ctx, SearchParams{Page: 0, Limit: 0})

		require.NoError(t, err)
		assert.Equal(t, 1, res.Page)
		assert.Equal(t, 20, res.Limit)
	})

	t.Run("limit capped", func(t *testing.T) {
		mRepo := new(repoMocks.MockSkillRepository)
		svc := NewSkillService(nil, mRepo, nil)

		mRepo.On("Search", ctx, repository.SearchQuery{Limit: 100, Offset: 0}).
			Return(&repository.PageResult[model.Skill]{Items: []model.Skill{}, Total: 0}, nil).Once()

		_, err := svc.Search(ctx, SearchParams{Limit: 5000})

		assert.NoError(t, err)
		mRepo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockSkillRepository)
		svc := NewSkillService(nil, mRepo, nil)

		mRepo.On("Search", ctx, mock.Anything).Return(nil, errors.New("db fail")).Once()

		_, err := svc.Search(ctx, SearchParams{})

		assert.Error(t, err)
	})
}

func TestSkillService_FetchContent(t *testing.T) {
	ctx := context.Background()

	skill := &model.Skill{
		ID:           "skill-1",
		Name:         "Testing Guide",
		Author:       model.Author{Name: "Jo", Email: "jo@x.com"},
		ProcessedURL: "https://cdn.example.com/skills/abc-processed.md",
	}

	t.Run("happy path increments after read", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSkillRepository)
		svc := NewSkillService(mStore, mRepo, nil)

		mRepo.On("FindByID", ctx, "skill-1").Return(skill, nil).Once()
		mStore.On("Get", ctx, "skills/abc-processed.md").
			Return(io.NopCloser(strings.NewReader("sanitized body")), storage.ObjectInfo{}, nil).Once()
		mRepo.On("IncrementDownloads", ctx, "skill-1").Return(nil).Once()

		res, err := svc.FetchContent(ctx, "skill-1")

		require.NoError(t, err)
		assert.Equal(t, []byte("sanitized body"), res.Content)
		assert.Equal(t, "Testing Guide", res.SkillName)
		assert.Equal(t, "Jo", res.AuthorName)
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("empty id", func(t *testing.T) {
		svc := NewSkillService(nil, nil, nil)

		_, err := svc.FetchContent(ctx, "")

		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("record not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockSkillRepository)
		svc := NewSkillService(nil, mRepo, nil)

		mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows).Once()

		_, err := svc.FetchContent(ctx, "missing")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing artifact does not touch the counter", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSkillRepository)
		svc := NewSkillService(mStore, mRepo, nil)

		mRepo.On("FindByID", ctx, "skill-1").Return(skill, nil).Once()
		mStore.On("Get", ctx, "skills/abc-processed.md").
			Return(nil, storage.ObjectInfo{}, storage.ErrObjectMissing).Once()

		_, err := svc.FetchContent(ctx, "skill-1")

		assert.ErrorIs(t, err, ErrContentMissing)
		mRepo.AssertNotCalled(t, "IncrementDownloads", mock.Anything, mock.Anything)
	})

	t.Run("increment failure surfaces", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockSkillRepository)
		svc := NewSkillService(mStore, mRepo, nil)

		mRepo.On("FindByID", ctx, "skill-1").Return(skill, nil).Once()
		mStore.On("Get", ctx, "skills/abc-processed.md").
			Return(io.NopCloser(strings.NewReader("body")), storage.ObjectInfo{}, nil).Once()
		mRepo.On("IncrementDownloads", ctx, "skill-1").Return(errors.New("db fail")).Once()

		_, err := svc.FetchContent(ctx, "skill-1")

		assert.ErrorContains(t, err, "increment downloads")
	})
}
