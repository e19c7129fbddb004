package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"skillhub/internal/ai"
	"skillhub/internal/model"
	"skillhub/internal/repository"
	"skillhub/internal/storage"
)

var (
	ErrIDRequired     = errors.New("id is required")
	ErrNotFound       = errors.New("skill not found")
	ErrContentMissing = errors.New("skill content missing")
)

const artifactContentType = "text/markdown"

// SubmitInput is the caller-supplied payload for a new skill submission.
// Validation tags mirror the ingestion preconditions; everything is checked
// before any side effect.
type SubmitInput struct {
	Content           string `json:"content" validate:"required,min=10,max=100000"`
	AuthorName        string `json:"authorName" validate:"required,min=2,max=100"`
	AuthorEmail       string `json:"authorEmail" validate:"required,email"`
	AuthorDescription string `json:"authorDescription" validate:"omitempty,max=500"`
	SkillName         string `json:"skillName" validate:"omitempty,min=2,max=100"`
}

// FieldViolation describes one failed validation constraint.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated constraint of a submission.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Field + ": " + v.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// SearchParams is the service-level search request.
type SearchParams struct {
	Query    string
	Category string
	Sort     string
	Page     int
	Limit    int
}

// SkillSearchResult is the service-level DTO for paginated search results.
type SkillSearchResult struct {
	Items      []model.Skill `json:"skills"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

// SkillContent is a retrieved processed artifact plus display metadata.
type SkillContent struct {
	Content    []byte
	SkillName  string
	AuthorName string
}

// SkillService defines the use cases for submitting and retrieving skills.
type SkillService interface {
	// Submit validates the input, stores the original artifact, processes the
	// content, stores the sanitized artifact, and persists the record. It
	// fails only on validation or on a fatal store error; processing itself
	// degrades instead of failing.
	Submit(ctx context.Context, in SubmitInput) (*model.Skill, error)

	// Get returns a single skill by its ID.
	Get(ctx context.Context, id string) (*model.Skill, error)

	// Search returns a filtered, sorted page of skills.
	Search(ctx context.Context, p SearchParams) (*SkillSearchResult, error)

	// FetchContent reads the processed artifact for a skill and increments
	// its download counter.
	FetchContent(ctx context.Context, id string) (*SkillContent, error)
}

// skillService is a concrete implementation of SkillService.
type skillService struct {
	store     storage.Storage
	repo      repository.SkillRepository
	processor ai.Processor
	validate  *validator.Validate
}

// NewSkillService constructs a new SkillService.
func NewSkillService(store storage.Storage, repo repository.SkillRepository, processor ai.Processor) SkillService {
	return &skillService{
		store:     store,
		repo:      repo,
		processor: processor,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *skillService) Submit(ctx context.Context, in SubmitInput) (*model.Skill, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, asValidationError(err)
	}

	// One artifact identifier for both blobs; the keys differ by suffix.
	artifactID := uuid.New().String()
	originalKey := "skills/" + artifactID + ".md"
	processedKey := "skills/" + artifactID + "-processed.md"

	origInfo, err := s.store.Put(ctx, originalKey, strings.NewReader(in.Content), storage.PutObjectOptions{
		Size:        int64(len(in.Content)),
		ContentType: artifactContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("store original artifact: %w", err)
	}

	processed := s.processor.Process(ctx, in.Content, in.SkillName)

	// A failure from here on leaves the original blob behind; there is no
	// compensating delete.
	procInfo, err := s.store.Put(ctx, processedKey, strings.NewReader(processed.SanitizedContent), storage.PutObjectOptions{
		Size:        int64(len(processed.SanitizedContent)),
		ContentType: artifactContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("store processed artifact: %w", err)
	}

	now := time.Now().UTC()
	skill := &model.Skill{
		ID:          uuid.New().String(),
		Name:        processed.Name,
		Description: processed.Description,
		Author: model.Author{
			Name:        in.AuthorName,
			Email:       in.AuthorEmail,
			Description: in.AuthorDescription,
		},
		Keywords:     processed.Keywords,
		Categories:   processed.Categories,
		OriginalURL:  origInfo.URL,
		ProcessedURL: procInfo.URL,
		AIProcessed: model.AIProcessing{
			SecurityIssuesFound: processed.SecurityIssuesFound,
			ModificationsMade:   processed.ModificationsMade,
			QualityScore:        processed.QualityScore,
		},
		Downloads:  0,
		UploadedAt: now,
		UpdatedAt:  now,
	}

	stored, err := s.repo.Create(ctx, skill)
	if err != nil {
		return nil, fmt.Errorf("save skill record: %w", err)
	}
	return stored, nil
}

// Get returns a skill by ID, mapping missing rows to ErrNotFound.
func (s *skillService) Get(ctx context.Context, id string) (*model.Skill, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	skill, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return skill, nil
}

// Search normalizes pagination and delegates to the repository.
func (s *skillService) Search(ctx context.Context, p SearchParams) (*SkillSearchResult, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}

	res, err := s.repo.Search(ctx, repository.SearchQuery{
		Query:    p.Query,
		Category: p.Category,
		Sort:     p.Sort,
		Limit:    p.Limit,
		Offset:   (p.Page - 1) * p.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &SkillSearchResult{
		Items:      res.Items,
		Total:      res.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: (res.Total + p.Limit - 1) / p.Limit,
	}, nil
}

// FetchContent resolves the processed artifact for a skill, increments the
// download counter, and returns the blob with display metadata. The counter
// is only bumped after a successful read.
func (s *skillService) FetchContent(ctx context.Context, id string) (*SkillContent, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	skill, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	key := storage.KeyFromURL(skill.ProcessedURL)
	rc, _, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectMissing) {
			return nil, fmt.Errorf("%w: %s", ErrContentMissing, key)
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	if err := s.repo.IncrementDownloads(ctx, id); err != nil {
		return nil, fmt.Errorf("increment downloads: %w", err)
	}

	return &SkillContent{
		Content:    content,
		SkillName:  skill.Name,
		AuthorName: skill.Author.Name,
	}, nil
}

// asValidationError converts validator output into the service's own error
// type so handlers never depend on the validator package.
func asValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Violations = append(ve.Violations, FieldViolation{
			Field:   fe.Field(),
			Message: violationMessage(fe),
		})
	}
	return ve
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}
