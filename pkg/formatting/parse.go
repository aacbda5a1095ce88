package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrParseFailed is returned when content holds no decodable JSON, bare or
// inside a markdown code fence.
var ErrParseFailed = errors.New("failed to parse response")

var fence = regexp.MustCompile("(?s)```[A-Za-z]*\\s*\\n?(.*?)\\n?```")

// Unfence returns the body of the first markdown code fence in content, or
// the trimmed content when there is none.
func Unfence(content string) string {
	content = strings.TrimSpace(content)
	if m := fence.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return content
}

// Parse decodes content as JSON into T, unwrapping a markdown code fence
// first when the bare text does not decode. The error never carries the
// content itself.
func Parse[T any](content string) (T, error) {
	var result T
	trimmed := strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(trimmed), &result); err == nil {
		return result, nil
	}

	var zero T
	if inner := Unfence(trimmed); inner != trimmed {
		if err := json.Unmarshal([]byte(inner), &zero); err == nil {
			return zero, nil
		}
	}

	return zero, fmt.Errorf("%w: no JSON in %d-byte response", ErrParseFailed, len(trimmed))
}

// Truncate shortens s to at most n bytes, cutting on a rune boundary, and
// marks the cut with an ellipsis.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
