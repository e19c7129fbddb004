package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"skillhub/internal/config"
)

// messageCreator is the slice of the Anthropic client the processor needs.
// Kept narrow so tests can stub the model call.
type messageCreator interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicProcessor implements Processor on top of the Anthropic Messages API.
type AnthropicProcessor struct {
	messages    messageCreator
	model       string
	maxTokens   int64
	temperature float64
}

var _ Processor = (*AnthropicProcessor)(nil)

// NewAnthropic creates a processor backed by the Anthropic API. A custom
// base URL can point it at any compatible gateway.
func NewAnthropic(cfg config.AnthropicConfig) *AnthropicProcessor {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	return &AnthropicProcessor{
		messages:    &client.Messages,
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}
}

// Process extracts metadata and (for small content) a sanitized copy.
// It never returns an error: any failure in the model call or response
// parsing degrades to the deterministic fallback result.
func (p *AnthropicProcessor) Process(ctx context.Context, content, suggestedName string) Result {
	res, err := p.attempt(ctx, content, suggestedName)
	if err != nil {
		log.Printf("ai processing failed, using fallback: %v", err)
		return fallbackResult(content, suggestedName)
	}
	return *res
}

func (p *AnthropicProcessor) attempt(ctx context.Context, content, suggestedName string) (*Result, error) {
	large := len(content) > largeContentThreshold

	maxTokens := p.maxTokens
	if large {
		maxTokens = largeContentMaxTokens
	}

	msg, err := p.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(p.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(content, suggestedName, large))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("model invocation: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("model returned no text content")
	}

	parsed, err := parseResponse(sb.String())
	if err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	// Large content is never sanitized by the model; the original is served
	// verbatim as the processed artifact.
	sanitized := content
	if !large && parsed.SanitizedContent != "" {
		sanitized = parsed.SanitizedContent
	}

	return &Result{
		Name:                parsed.Name,
		Description:         parsed.Description,
		Keywords:            parsed.Keywords,
		Categories:          parsed.Categories,
		SecurityIssuesFound: parsed.SecurityIssuesFound,
		ModificationsMade:   parsed.ModificationsMade,
		QualityScore:        *parsed.QualityScore,
		SanitizedContent:    sanitized,
	}, nil
}
