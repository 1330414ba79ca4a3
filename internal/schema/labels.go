package schema

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-contractgen/pkg/placeholder"
)

var splitWordsPattern = regexp.MustCompile(`[_\-\s]+`)

// DefaultLabeler derives a label from the leaf segment of a field id:
// underscores become spaces and each word gets an upper-case first letter.
// Camel case is preserved, so `businessName` stays `BusinessName`.
func DefaultLabeler(fieldID string) string {
	leaf := strings.ReplaceAll(placeholder.Leaf(fieldID), "_", " ")
	words := strings.Split(leaf, " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = upperFirst(word)
	}
	return strings.Join(words, " ")
}

// HumanizeLabeler splits the leaf segment on underscores, dashes and camel
// case boundaries: `totalCost` becomes `Total Cost`.
func HumanizeLabeler(fieldID string) string {
	name := placeholder.Leaf(fieldID)
	if name == "" {
		return ""
	}

	words := splitWordsPattern.Split(name, -1)
	var segments []string
	for _, word := range words {
		if word == "" {
			continue
		}
		segments = append(segments, titleCase(splitCamel(word)))
	}
	return strings.TrimSpace(strings.Join(segments, " "))
}

func splitCamel(input string) string {
	var out strings.Builder
	for i, r := range input {
		if i > 0 && isBoundary(input, i, r) {
			out.WriteRune(' ')
		}
		out.WriteRune(r)
	}
	return out.String()
}

func isBoundary(input string, index int, r rune) bool {
	prev, _ := utf8.DecodeLastRuneInString(input[:index])
	return (unicode.IsLower(prev) && unicode.IsUpper(r)) ||
		(unicode.IsLetter(prev) && unicode.IsDigit(r)) ||
		(unicode.IsDigit(prev) && unicode.IsLetter(r))
}

func titleCase(word string) string {
	parts := strings.Fields(word)
	for i, part := range parts {
		parts[i] = upperFirst(strings.ToLower(part))
	}
	return strings.Join(parts, " ")
}

// upperFirst upper-cases the first rune of word, which may span several bytes.
func upperFirst(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}
