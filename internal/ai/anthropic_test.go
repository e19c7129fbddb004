package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessages stubs the Anthropic Messages API.
type fakeMessages struct {
	lastParams anthropic.MessageNewParams
	text       string
	err        error
}

func (f *fakeMessages) New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Type: "text", Text: f.text}},
	}, nil
}

func newTestProcessor(fm *fakeMessages) *AnthropicProcessor {
	return &AnthropicProcessor{
		messages:    fm,
		model:       "claude-test",
		maxTokens:   32768,
		temperature: 0.3,
	}
}

func TestProcess_SmallContent(t *testing.T) {
	fm := &fakeMessages{text: validJSON}
	p := newTestProcessor(fm)

	res := p.Process(context.Background(), "# My skill\nDo things.", "")

	assert.Equal(t, "Git Helper", res.Name)
	assert.Equal(t, 0.9, res.QualityScore)
	// Small content takes the model's sanitized output.
	assert.Equal(t, "cleaned", res.SanitizedContent)
	assert.Equal(t, int64(32768), fm.lastParams.MaxTokens)

	require.Len(t, fm.lastParams.Messages, 1)
	prompt := fm.lastParams.Messages[0].Content[0].OfText.Text
	assert.Contains(t, prompt, "Security scan")
	assert.Contains(t, prompt, "# My skill")
}

func TestProcess_LargeContent(t *testing.T) {
	fm := &fakeMessages{text: validJSON}
	p := newTestProcessor(fm)

	content := strings.Repeat("x", largeContentThreshold+1)
	res := p.Process(context.Background(), content, "")

	// Oversized input keeps the original bytes as the sanitized output,
	// whatever the model returned.
	assert.Equal(t, content, res.SanitizedContent)
	assert.Equal(t, "Git Helper", res.Name)
	assert.Equal(t, int64(largeContentMaxTokens), fm.lastParams.MaxTokens)

	prompt := fm.lastParams.Messages[0].Content[0].OfText.Text
	assert.NotContains(t, prompt, "Security scan")
	assert.Contains(t, prompt, truncationMarker)
}

func TestProcess_ThresholdBoundary(t *testing.T) {
	fm := &fakeMessages{text: validJSON}
	p := newTestProcessor(fm)

	// Exactly at the threshold is still "small" and gets sanitized.
	content := strings.Repeat("x", largeContentThreshold)
	res := p.Process(context.Background(), content, "")

	assert.Equal(t, "cleaned", res.SanitizedContent)
	assert.Equal(t, int64(32768), fm.lastParams.MaxTokens)
}

func TestProcess_SuggestedNameInPrompt(t *testing.T) {
	fm := &fakeMessages{text: validJSON}
	p := newTestProcessor(fm)

	p.Process(context.Background(), "content here that is long enough", "React Tips")

	prompt := fm.lastParams.Messages[0].Content[0].OfText.Text
	assert.Contains(t, prompt, `or use "React Tips"`)
}

func TestProcess_ModelErrorFallsBack(t *testing.T) {
	fm := &fakeMessages{err: errors.New("api unavailable")}
	p := newTestProcessor(fm)

	res := p.Process(context.Background(), "some content", "My Skill")

	assert.Equal(t, "My Skill", res.Name)
	assert.Equal(t, "AI processing failed - skill uploaded as-is", res.Description)
	assert.Equal(t, []string{"uncategorized"}, res.Categories)
	assert.Equal(t, []string{"AI processing failed - manual review recommended"}, res.ModificationsMade)
	assert.Equal(t, 0.5, res.QualityScore)
	assert.False(t, res.SecurityIssuesFound)
	assert.Equal(t, "some content", res.SanitizedContent)
}

func TestProcess_UnparseableResponseFallsBack(t *testing.T) {
	fm := &fakeMessages{text: "I'm sorry, I can't help with that."}
	p := newTestProcessor(fm)

	res := p.Process(context.Background(), "some content", "")

	assert.Equal(t, "Untitled Skill", res.Name)
	assert.Equal(t, "some content", res.SanitizedContent)
	assert.Equal(t, 0.5, res.QualityScore)
}

func TestProcess_EmptySanitizedContentKeepsOriginal(t *testing.T) {
	fm := &fakeMessages{text: `{"name":"n","description":"d"}`}
	p := newTestProcessor(fm)

	res := p.Process(context.Background(), "original body", "")

	assert.Equal(t, "original body", res.SanitizedContent)
	assert.Equal(t, 0.5, res.QualityScore)
	assert.Empty(t, res.Keywords)
}

func TestProcess_RepairChainEndToEnd(t *testing.T) {
	fm := &fakeMessages{text: "<think>planning</think>Here you go:\n```json\n" + validJSON + "\n```"}
	p := newTestProcessor(fm)

	res := p.Process(context.Background(), "body", "")

	assert.Equal(t, "Git Helper", res.Name)
	assert.Equal(t, "cleaned", res.SanitizedContent)
}
