package model

import "time"

// Author identifies who submitted a skill. It is caller-supplied and never
// derived from model output.
type Author struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Description string `json:"description,omitempty"`
}

// AIProcessing records what the content processor did to a submission.
type AIProcessing struct {
	SecurityIssuesFound bool     `json:"securityIssuesFound"`
	ModificationsMade   []string `json:"modificationsMade"`
	QualityScore        float64  `json:"qualityScore"`
}

// Skill is the unit of publication: a submitted text artifact plus the
// metadata extracted for it. This is a pure domain model with no
// persistence-specific dependencies or tags; it is shared across the HTTP,
// service, and repository layers.
type Skill struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Author       Author       `json:"author"`
	Keywords     []string     `json:"keywords"`
	Categories   []string     `json:"categories"`
	OriginalURL  string       `json:"originalUrl"`
	ProcessedURL string       `json:"processedUrl"`
	AIProcessed  AIProcessing `json:"aiProcessed"`
	Downloads    int64        `json:"downloads"`
	UploadedAt   time.Time    `json:"uploadedAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
