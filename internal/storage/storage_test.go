package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name    string
		locator string
		want    string
	}{
		{
			name:    "public locator",
			locator: "https://cdn.example.com/skills/abc-123.md",
			want:    "skills/abc-123.md",
		},
		{
			name:    "processed artifact",
			locator: "https://cdn.example.com/bucket/skills/abc-123-processed.md",
			want:    "skills/abc-123-processed.md",
		},
		{
			name:    "trailing slash",
			locator: "https://cdn.example.com/skills/abc.md/",
			want:    "skills/abc.md",
		},
		{
			name:    "bare key passes through",
			locator: "skills/abc.md",
			want:    "skills/abc.md",
		},
		{
			name:    "single segment returned unchanged",
			locator: "abc.md",
			want:    "abc.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyFromURL(tt.locator))
		})
	}
}
