package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesImageIntent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"direct keyword", "show me the image again", true},
		{"case insensitive", "DESCRIBE THIS for me", true},
		{"keyword inside word", "this looks familiar", true},
		{"photo", "is this photo recent?", true},
		{"no keyword", "what is the capital of France", false},
		{"empty", "", false},
		// "look" is a substring of "looking": the heuristic is advisory and
		// this false positive is accepted behavior.
		{"documented false positive", "what is the weather looking like", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesImageIntent(tt.text, DefaultImageKeywords))
		})
	}
}

func TestMatchesImageIntentCustomKeywords(t *testing.T) {
	assert.True(t, MatchesImageIntent("zeig mir das Bild", []string{"bild"}))
	assert.False(t, MatchesImageIntent("show me the image", []string{"bild"}))
	assert.False(t, MatchesImageIntent("anything", nil))
	assert.False(t, MatchesImageIntent("anything", []string{""}))
}
