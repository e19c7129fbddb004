package ai

import "context"

// Package ai invokes a generative model to extract metadata from submitted
// skill content and, for small enough inputs, produce a sanitized copy.

const (
	// Content above this size is not sent to the model in full; only a
	// truncated preview is analyzed and no sanitization is requested.
	largeContentThreshold = 10_000
	previewLength         = 8_000
	truncationMarker      = "\n\n[... content truncated for analysis ...]"

	// Metadata-only responses are small; cap tokens accordingly.
	largeContentMaxTokens = 2048
)

// Result is the processor's output. Process always produces one: a failed
// model call or unparseable response degrades to the fallback rather than
// surfacing an error.
type Result struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Keywords            []string `json:"keywords"`
	Categories          []string `json:"categories"`
	SecurityIssuesFound bool     `json:"securityIssuesFound"`
	ModificationsMade   []string `json:"modificationsMade"`
	QualityScore        float64  `json:"qualityScore"`
	SanitizedContent    string   `json:"sanitizedContent"`
}

// Processor extracts metadata and a sanitized copy from skill content.
type Processor interface {
	// Process never fails; see Result.
	Process(ctx context.Context, content string, suggestedName string) Result
}

// fallbackResult is the deterministic terminal state for any processing
// failure. The record is still created; ModificationsMade flags it for
// manual review.
func fallbackResult(content, suggestedName string) Result {
	name := suggestedName
	if name == "" {
		name = "Untitled Skill"
	}
	return Result{
		Name:                name,
		Description:         "AI processing failed - skill uploaded as-is",
		Keywords:            []string{},
		Categories:          []string{"uncategorized"},
		SecurityIssuesFound: false,
		ModificationsMade:   []string{"AI processing failed - manual review recommended"},
		QualityScore:        0.5,
		SanitizedContent:    content,
	}
}
