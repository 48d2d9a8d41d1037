package blogservice

import (
	"regexp"
	"strings"
)

var scriptTagRX = regexp.MustCompile(`(?is)<\s*script[^>]*>(.*?)<\s*/\s*script\s*>`)

// sanitizeComment drops script blocks and surrounding whitespace.
func sanitizeComment(comment string) string {
	return strings.TrimSpace(scriptTagRX.ReplaceAllString(comment, ""))
}
