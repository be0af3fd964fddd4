package draft

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MaxSlugLength = 80
	fallbackSlug  = "course"
)

var (
	slugStrip     = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugSeparator = regexp.MustCompile(`[\s_-]+`)
)

// Slugify lower-cases s, drops punctuation and joins words with single hyphens.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSeparator.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	s = truncate(s, MaxSlugLength)
	if s == "" {
		return fallbackSlug
	}
	return s
}

// SlugCandidate returns the n-th probe for base: base, base-2, base-3 and so on.
func SlugCandidate(base string, n int) string {
	if n <= 1 {
		return base
	}
	suffix := fmt.Sprintf("-%d", n)
	return truncate(base, MaxSlugLength-len(suffix)) + suffix
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimRight(string(runes[:limit]), "-")
}
