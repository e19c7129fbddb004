package repository

import (
	"context"

	"skillhub/internal/model"
)

// Sort modes accepted by Search. Anything else falls back to SortRecent.
const (
	SortRecent  = "recent"
	SortPopular = "popular"
	SortQuality = "quality"
)

// SearchQuery holds the filter contract consumed by the search operation.
// Query is matched case-insensitively against name, description, keywords
// and categories; Category, when set, must match one of the record's
// categories exactly.
type SearchQuery struct {
	Query    string
	Category string
	Sort     string
	Limit    int
	Offset   int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}

// SkillRepository defines data access for skill records using SQL queries only.
// No business logic here — strictly persistence operations.
type SkillRepository interface {
	// Create inserts a new skill record and returns the stored row.
	Create(ctx context.Context, skill *model.Skill) (*model.Skill, error)

	// FindByID returns a skill by its ID.
	FindByID(ctx context.Context, id string) (*model.Skill, error)

	// Search returns a filtered, sorted, paginated list of skills and the
	// total matching row count.
	Search(ctx context.Context, sq SearchQuery) (*PageResult[model.Skill], error)

	// IncrementDownloads atomically bumps the download counter and the
	// updated_at timestamp for a skill. The increment is delegated to the
	// database so concurrent downloads never lose updates.
	IncrementDownloads(ctx context.Context, id string) error
}
