// Package placeholder extracts `{{field.path}}` substitution points from
// free-form template text.
package placeholder

import (
	"regexp"
	"strings"
)

// Pattern matches a double-brace delimited dotted identifier. Whitespace
// inside the braces is tolerated; anything else (unbalanced braces, empty
// segments, punctuation) is not a placeholder.
var Pattern = regexp.MustCompile(`\{\{\s*(\w+(?:\.\w+)*)\s*\}\}`)

// Token is a single placeholder occurrence.
type Token struct {
	FieldID string
	Start   int
	End     int
}

// Parse returns the distinct field identifiers referenced by content, in
// order of first appearance. Malformed tokens are skipped.
func Parse(content string) []string {
	matches := Pattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		id := match[1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Tokens returns every placeholder occurrence with its byte offsets,
// including repeats.
func Tokens(content string) []Token {
	indexes := Pattern.FindAllStringSubmatchIndex(content, -1)
	if len(indexes) == 0 {
		return nil
	}
	out := make([]Token, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, Token{
			FieldID: content[idx[2]:idx[3]],
			Start:   idx[0],
			End:     idx[1],
		})
	}
	return out
}

// Format renders fieldID as a canonical placeholder.
func Format(fieldID string) string {
	return "{{" + strings.TrimSpace(fieldID) + "}}"
}

// Source rebuilds a minimal template text that references ids in order.
// Parse(Source(ids)) returns ids with duplicates removed.
func Source(ids []string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, Format(id))
	}
	return strings.Join(parts, " ")
}

// Leaf returns the final dot-separated segment of a field identifier.
func Leaf(fieldID string) string {
	if idx := strings.LastIndex(fieldID, "."); idx >= 0 {
		return fieldID[idx+1:]
	}
	return fieldID
}
