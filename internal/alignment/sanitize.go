package alignment

import (
	"regexp"
	"strings"
)

const (
	MaxFieldLength  = 200
	MaxOutputLength = 300

	// Placeholder replaces any prompt field that is empty after sanitising.
	Placeholder = "Not specified"
	// FallbackAlignment is returned instead of an empty model answer.
	FallbackAlignment = "Great potential match! Review the project details to see where your skills align."
	// OwnerAlignment is returned without calling the model when the viewer owns the project.
	OwnerAlignment = "This is your project! You're already perfectly aligned as the owner."
)

var (
	angleBrackets = strings.NewReplacer("<", "", ">", "")
	emphasis      = strings.NewReplacer("*", "", "_", "", "~", "", "`", "")
	lineBreaks    = regexp.MustCompile(`[\r\n]+`)
)

// SanitizeField prepares a free-text value for interpolation into the prompt.
// The result never contains angle brackets, is at most MaxFieldLength runes
// and is never empty. SanitizeField(SanitizeField(s)) == SanitizeField(s).
func SanitizeField(s string) string {
	s = strings.TrimSpace(angleBrackets.Replace(s))
	s = strings.TrimSpace(truncate(s, MaxFieldLength))
	if s == "" {
		return Placeholder
	}
	return s
}

// SanitizeOutput turns raw model output into a single plain-text line of at
// most MaxOutputLength runes, falling back to FallbackAlignment when nothing is left.
func SanitizeOutput(s string) string {
	s = emphasis.Replace(s)
	s = lineBreaks.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(truncate(s, MaxOutputLength))
	if s == "" {
		return FallbackAlignment
	}
	return s
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
