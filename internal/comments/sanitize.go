package comments

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/emilythestrangee/ystore/backend/internal/apperr"
)

const MaxBodyLength = 4000

// Comments are plain text; every tag is stripped.
var policy = bluemonday.StrictPolicy()

// sanitizeBody strips markup and returns the remaining text unescaped, so
// the stored body is what the author typed minus any tags.
func sanitizeBody(body string) (string, error) {
	clean := strings.TrimSpace(html.UnescapeString(policy.Sanitize(strings.TrimSpace(body))))
	if clean == "" {
		return "", apperr.InvalidArgument("Comment body is required")
	}
	if utf8.RuneCountInString(clean) > MaxBodyLength {
		return "", apperr.InvalidArgument("Comment body is too long")
	}
	return clean, nil
}
