package contractgen

import (
	"io/fs"

	"github.com/goliatone/go-contractgen/pkg/builtins"
	"github.com/goliatone/go-contractgen/pkg/renderers/html"
)

// EmbeddedTemplates exposes the HTML page templates so callers can extend
// them and pass the result to html.WithTemplatesFS.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// BuiltinTemplates exposes the YAML drafts seeded into every engine.
func BuiltinTemplates() fs.FS {
	return builtins.EmbeddedFS()
}
