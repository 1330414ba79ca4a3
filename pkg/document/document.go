// Package document merges contract field values into template text.
package document

import (
	"strings"

	"github.com/goliatone/go-contractgen/pkg/model"
)

// SegmentKind classifies a piece of merged output.
type SegmentKind string

const (
	// SegmentLiteral is template text copied verbatim.
	SegmentLiteral SegmentKind = "literal"
	// SegmentValue is a formatted field value.
	SegmentValue SegmentKind = "value"
	// SegmentUnresolved is the marker left for a placeholder without a value.
	SegmentUnresolved SegmentKind = "unresolved"
)

// Segment is a contiguous piece of the merged body. Renderers that produce
// markup use segments to escape field values independently of template text.
type Segment struct {
	Kind    SegmentKind `json:"kind"`
	FieldID string      `json:"fieldId,omitempty"`
	Text    string      `json:"text"`
}

// Document is the result of merging a contract into its template.
type Document struct {
	ContractID string        `json:"contractId"`
	TemplateID string        `json:"templateId"`
	Title      string        `json:"title"`
	Status     model.Status  `json:"status"`
	Parties    []model.Party `json:"parties,omitempty"`
	Segments   []Segment     `json:"segments"`
	Clauses    []string      `json:"clauses,omitempty"`
	Unresolved []string      `json:"unresolved,omitempty"`
}

// Body returns the merged template content without legal clauses.
func (d Document) Body() string {
	var b strings.Builder
	for _, segment := range d.Segments {
		b.WriteString(segment.Text)
	}
	return b.String()
}

// Text returns the merged body followed by the legal clauses, each separated
// by a blank line.
func (d Document) Text() string {
	body := d.Body()
	if len(d.Clauses) == 0 {
		return body
	}
	parts := make([]string, 0, len(d.Clauses)+1)
	parts = append(parts, strings.TrimRight(body, "\n"))
	parts = append(parts, d.Clauses...)
	return strings.Join(parts, "\n\n")
}

// Complete reports whether every placeholder was resolved.
func (d Document) Complete() bool {
	return len(d.Unresolved) == 0
}
