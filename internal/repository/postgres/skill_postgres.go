package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"skillhub/internal/model"
	"skillhub/internal/repository"
)

// SkillPostgres is a PostgreSQL implementation of repository.SkillRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// List-valued fields (keywords, categories, modifications) are stored as JSONB.
type SkillPostgres struct {
	db *sql.DB
}

// NewSkillPostgres creates a new SkillPostgres repository.
func NewSkillPostgres(db *sql.DB) *SkillPostgres {
	return &SkillPostgres{db: db}
}

var _ repository.SkillRepository = (*SkillPostgres)(nil)

const skillColumns = `id, name, description, author_name, author_email, author_description,
		keywords, categories, original_url, processed_url,
		security_issues_found, modifications_made, quality_score,
		downloads, uploaded_at, updated_at`

// Create inserts a new skill row and returns the stored record.
func (r *SkillPostgres) Create(ctx context.Context, skill *model.Skill) (*model.Skill, error) {
	const q = `
		INSERT INTO skills (id, name, description, author_name, author_email, author_description,
			keywords, categories, original_url, processed_url,
			security_issues_found, modifications_made, quality_score,
			downloads, uploaded_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + skillColumns

	keywords, err := json.Marshal(emptyIfNil(skill.Keywords))
	if err != nil {
		return nil, fmt.Errorf("marshal keywords: %w", err)
	}
	categories, err := json.Marshal(emptyIfNil(skill.Categories))
	if err != nil {
		return nil, fmt.Errorf("marshal categories: %w", err)
	}
	modifications, err := json.Marshal(emptyIfNil(skill.AIProcessed.ModificationsMade))
	if err != nil {
		return nil, fmt.Errorf("marshal modifications: %w", err)
	}

	row := r.db.QueryRowContext(ctx, q,
		skill.ID,
		skill.Name,
		skill.Description,
		skill.Author.Name,
		skill.Author.Email,
		nullIfEmpty(skill.Author.Description),
		keywords,
		categories,
		skill.OriginalURL,
		skill.ProcessedURL,
		skill.AIProcessed.SecurityIssuesFound,
		modifications,
		skill.AIProcessed.QualityScore,
		skill.Downloads,
		skill.UploadedAt,
		skill.UpdatedAt,
	)
	return scanSkill(row)
}

// FindByID fetches a single skill by its ID.
func (r *SkillPostgres) FindByID(ctx context.Context, id string) (*model.Skill, error) {
	q := `SELECT ` + skillColumns + ` FROM skills WHERE id = $1`
	return scanSkill(r.db.QueryRowContext(ctx, q, id))
}

// Search returns skills matching the query using ILIKE across text fields
// and an optional exact category filter, with LIMIT/OFFSET pagination and a
// total count. Sort modes map to a fixed ORDER BY whitelist.
func (r *SkillPostgres) Search(ctx context.Context, sq repository.SearchQuery) (*repository.PageResult[model.Skill], error) {
	const where = `
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%'
			OR description ILIKE '%' || $1 || '%'
			OR keywords::text ILIKE '%' || $1 || '%'
			OR categories::text ILIKE '%' || $1 || '%')
		AND ($2 = '' OR categories ? $2)`

	var total int
	qCount := `SELECT COUNT(*) FROM skills` + where
	if err := r.db.QueryRowContext(ctx, qCount, sq.Query, sq.Category).Scan(&total); err != nil {
		return nil, err
	}

	var orderBy string
	switch sq.Sort {
	case repository.SortPopular:
		orderBy = "downloads DESC, id DESC"
	case repository.SortQuality:
		orderBy = "quality_score DESC, id DESC"
	default:
		orderBy = "uploaded_at DESC, id DESC"
	}

	qList := `SELECT ` + skillColumns + ` FROM skills` + where +
		` ORDER BY ` + orderBy + ` LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, qList, sq.Query, sq.Category, sq.Limit, sq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Skill, 0)
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Skill]{
		Items: items,
		Total: total,
	}, nil
}

// IncrementDownloads delegates the counter bump to the database so the
// read-modify-write happens atomically inside a single UPDATE.
func (r *SkillPostgres) IncrementDownloads(ctx context.Context, id string) error {
	const q = `UPDATE skills SET downloads = downloads + 1, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, time.Now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSkill(row rowScanner) (*model.Skill, error) {
	var (
		s             model.Skill
		authorDesc    sql.NullString
		keywords      []byte
		categories    []byte
		modifications []byte
	)
	if err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.Author.Name,
		&s.Author.Email,
		&authorDesc,
		&keywords,
		&categories,
		&s.OriginalURL,
		&s.ProcessedURL,
		&s.AIProcessed.SecurityIssuesFound,
		&modifications,
		&s.AIProcessed.QualityScore,
		&s.Downloads,
		&s.UploadedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Author.Description = authorDesc.String
	if err := json.Unmarshal(keywords, &s.Keywords); err != nil {
		return nil, fmt.Errorf("unmarshal keywords: %w", err)
	}
	if err := json.Unmarshal(categories, &s.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	if err := json.Unmarshal(modifications, &s.AIProcessed.ModificationsMade); err != nil {
		return nil, fmt.Errorf("unmarshal modifications: %w", err)
	}
	return &s, nil
}

func emptyIfNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
