package builtins

import (
	"embed"
	"io/fs"

	"github.com/goliatone/go-contractgen/pkg/model"
)

//go:embed templates/*.yaml
var embedded embed.FS

// EmbeddedFS returns the bundled template definitions.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Drafts loads the bundled templates.
func Drafts() ([]model.TemplateDraft, error) {
	return LoadFS(EmbeddedFS())
}
