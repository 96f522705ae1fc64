package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/todosoa/pkg/domain"
)

var (
	// DefaultMaxTitleSize is 4KB (conservative default)
	DefaultMaxTitleSize = 4096
	// EnvMaxTitleSize is the environment variable to override the default
	EnvMaxTitleSize = "TODOSOA_MAX_TITLE_SIZE"
)

// SanitizeTitle enforces the size limit, validates UTF-8 and strips control
// characters. Titles are single line, so newlines and tabs go as well.
// Rejections wrap domain.ErrMalformedBody.
func SanitizeTitle(title string) (string, error) {
	limit := maxTitleSize()
	if len(title) > limit {
		// reject rather than truncate: a stored title is never a silent prefix
		return "", fmt.Errorf("%w: title size=%d limit=%d", domain.ErrMalformedBody, len(title), limit)
	}

	if !utf8.ValidString(title) {
		return "", fmt.Errorf("%w: title contains invalid UTF-8", domain.ErrMalformedBody)
	}

	clean := true
	for _, r := range title {
		if unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return title, nil
	}

	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func maxTitleSize() int {
	if val := os.Getenv(EnvMaxTitleSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxTitleSize
}
