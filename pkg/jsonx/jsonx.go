// Package jsonx decodes JSON emitted by language models, which often wrap
// the payload in markdown fences or prose.
package jsonx

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrEmpty = errors.New("jsonx: empty input")

	fencePattern         = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyPattern       = regexp.MustCompile(`([{,]\s*)([A-Za-z_]\w*)(\s*:)`)
	controlCharPattern   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// Decode tries, in order: the raw input, the first fenced block, the first
// balanced object in the text, and finally a repaired version of that
// object (trailing commas, unquoted keys, control characters).
func Decode(input string, target any) error {
	s := strings.TrimSpace(strings.TrimPrefix(input, "\ufeff"))
	if s == "" {
		return ErrEmpty
	}

	candidates := []string{s}
	if m := fencePattern.FindStringSubmatch(s); len(m) > 1 {
		candidates = append(candidates, m[1])
	}
	if obj := firstBalanced(s, '{', '}'); obj != "" {
		candidates = append(candidates, obj, repair(obj))
	}

	for _, c := range candidates {
		if err := json.Unmarshal([]byte(c), target); err == nil {
			return nil
		}
	}
	return fmt.Errorf("jsonx: no decodable object in %q", truncate(s, 80))
}

// firstBalanced returns the first open..close span, skipping brackets that
// appear inside string literals.
func firstBalanced(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func repair(s string) string {
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	s = bareKeyPattern.ReplaceAllString(s, `$1"$2"$3`)
	return controlCharPattern.ReplaceAllString(s, "")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
