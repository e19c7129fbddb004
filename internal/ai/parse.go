package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// modelResponse mirrors the JSON object the model is instructed to return.
// QualityScore is a pointer so a missing field can be defaulted to 0.5
// without clobbering an explicit low score.
type modelResponse struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Keywords            []string `json:"keywords"`
	Categories          []string `json:"categories"`
	SecurityIssuesFound bool     `json:"securityIssuesFound"`
	ModificationsMade   []string `json:"modificationsMade"`
	QualityScore        *float64 `json:"qualityScore"`
	SanitizedContent    string   `json:"sanitizedContent"`
}

var (
	errMissingFields = errors.New("model response missing required fields")

	reasoningRe   = regexp.MustCompile(`(?s)<think>.*?</think>`)
	fencedJSONRe  = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	fencedPlainRe = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// extractJSON repairs a non-conforming model response into something
// json.Unmarshal can work with. Strategies are applied in order: strip any
// delimited reasoning segment, prefer a fenced code block, and as a last
// resort slice from the first '{' to the last '}'.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(reasoningRe.ReplaceAllString(raw, ""))

	jsonStr := raw
	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		jsonStr = m[1]
	} else if m := fencedPlainRe.FindStringSubmatch(raw); m != nil {
		jsonStr = m[1]
	}

	if !strings.HasPrefix(strings.TrimSpace(jsonStr), "{") {
		first := strings.Index(raw, "{")
		last := strings.LastIndex(raw, "}")
		if first != -1 && last > first {
			jsonStr = raw[first : last+1]
		}
	}

	return strings.TrimSpace(jsonStr)
}

// parseResponse runs the repair chain and decodes the result. A response
// without a name or description is a hard failure of this attempt; list and
// score fields are defaulted on partial success.
func parseResponse(raw string) (*modelResponse, error) {
	var res modelResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &res); err != nil {
		return nil, err
	}
	if res.Name == "" || res.Description == "" {
		return nil, errMissingFields
	}

	if res.Keywords == nil {
		res.Keywords = []string{}
	}
	if res.Categories == nil {
		res.Categories = []string{}
	}
	if res.ModificationsMade == nil {
		res.ModificationsMade = []string{}
	}
	if res.QualityScore == nil {
		half := 0.5
		res.QualityScore = &half
	}
	return &res, nil
}
