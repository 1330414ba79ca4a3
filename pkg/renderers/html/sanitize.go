package html

import (
	stdhtml "html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-contractgen/pkg/document"
)

var (
	bodyPolicyOnce sync.Once
	bodyPolicy     *bluemonday.Policy

	paragraphBreak = regexp.MustCompile(`\n{2,}`)
)

// sanitizeMarkup runs generated markup through the body policy. Only the
// elements emitted by bodyMarkup survive.
func sanitizeMarkup(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(bodySanitizer().Sanitize(trimmed))
}

func bodySanitizer() *bluemonday.Policy {
	bodyPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("p", "br", "span", "strong", "em")
		policy.AllowAttrs("class").OnElements("p", "span")
		policy.AllowAttrs("data-field").Matching(regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)).OnElements("span")
		bodyPolicy = policy
	})
	return bodyPolicy
}

// bodyMarkup converts document segments into paragraphs. Template text and
// field values are escaped separately; blank lines in template text start a
// new paragraph and single newlines become line breaks.
func bodyMarkup(segments []document.Segment) string {
	var (
		paragraphs []string
		current    strings.Builder
	)
	flush := func() {
		content := trimBreaks(current.String())
		current.Reset()
		if content != "" {
			paragraphs = append(paragraphs, "<p>"+content+"</p>")
		}
	}

	for _, segment := range segments {
		text := strings.ReplaceAll(segment.Text, "\r\n", "\n")
		switch segment.Kind {
		case document.SegmentValue:
			current.WriteString(`<span class="field" data-field="`)
			current.WriteString(stdhtml.EscapeString(segment.FieldID))
			current.WriteString(`">`)
			current.WriteString(lineBreaks(stdhtml.EscapeString(text)))
			current.WriteString(`</span>`)
		case document.SegmentUnresolved:
			current.WriteString(`<span class="unresolved" data-field="`)
			current.WriteString(stdhtml.EscapeString(segment.FieldID))
			current.WriteString(`">`)
			current.WriteString(stdhtml.EscapeString(text))
			current.WriteString(`</span>`)
		default:
			for idx, part := range paragraphBreak.Split(text, -1) {
				if idx > 0 {
					flush()
				}
				current.WriteString(lineBreaks(stdhtml.EscapeString(part)))
			}
		}
	}
	flush()
	return sanitizeMarkup(strings.Join(paragraphs, "\n"))
}

func clauseMarkup(clause string) string {
	text := strings.TrimSpace(strings.ReplaceAll(clause, "\r\n", "\n"))
	return sanitizeMarkup(lineBreaks(stdhtml.EscapeString(text)))
}

func lineBreaks(escaped string) string {
	return strings.ReplaceAll(escaped, "\n", "<br>")
}

func trimBreaks(content string) string {
	content = strings.TrimSpace(content)
	for {
		switch {
		case strings.HasPrefix(content, "<br>"):
			content = strings.TrimSpace(strings.TrimPrefix(content, "<br>"))
		case strings.HasSuffix(content, "<br>"):
			content = strings.TrimSpace(strings.TrimSuffix(content, "<br>"))
		default:
			return content
		}
	}
}
