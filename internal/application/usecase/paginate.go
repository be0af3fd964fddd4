package usecase

import (
	"regexp"
	"strings"
)

var blankLine = regexp.MustCompile(`\n[ \t]*\n\s*`)

// nextBlock splits off the first paragraph block of body.
func nextBlock(body string) (block, rest string) {
	body = strings.TrimSpace(strings.ReplaceAll(body, "\r\n", "\n"))
	loc := blankLine.FindStringIndex(body)
	if loc == nil {
		return body, ""
	}
	return strings.TrimSpace(body[:loc[0]]), strings.TrimSpace(body[loc[1]:])
}
