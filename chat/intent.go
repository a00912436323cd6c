package chat

import "strings"

// DefaultImageKeywords are the substrings that bias a plain-text query toward
// image mode once an image has been uploaded in the session. The list is
// configurable per session via WithImageKeywords.
var DefaultImageKeywords = []string{
	"image",
	"picture",
	"photo",
	"look",
	"similar",
	"describe this",
	"what does this look like",
	"appears",
	"contains",
	"shows",
	"depicts",
}

// MatchesImageIntent reports whether text reads like an image-contextual
// query, by case-insensitive substring match against keywords. It is
// advisory only: short keywords like "look" will match unrelated queries
// ("what is the weather looking like"), and callers must treat a positive
// as a hint, never as authority.
func MatchesImageIntent(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
