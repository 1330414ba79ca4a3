package contractgen

import (
	"github.com/goliatone/go-contractgen/pkg/builtins"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/placeholder"
	"github.com/goliatone/go-contractgen/pkg/schema"
)

// ParseTemplate decodes a YAML or JSON template draft. source is only used in
// error messages.
func ParseTemplate(data []byte, source string) (model.TemplateDraft, error) {
	return builtins.ParseDraft(data, source)
}

// Placeholders lists the distinct field ids referenced by content in order of
// first appearance.
func Placeholders(content string) []string {
	return placeholder.Parse(content)
}

// NewSchemaBuilder constructs the builder that derives field descriptors from
// a draft.
func NewSchemaBuilder(options ...schema.BuilderOption) schema.Builder {
	return schema.NewBuilder(options...)
}
