// Package render defines the seam between generated documents and the
// format-specific renderers used by the export pipeline.
package render

import (
	"context"

	"github.com/goliatone/go-contractgen/pkg/document"
)

// Renderer converts a generated document into a single output format.
// Implementations must be deterministic for identical input and must not
// retain the document after Render returns.
type Renderer interface {
	// Name is the format identifier used for dispatch, e.g. "html".
	Name() string
	ContentType() string
	// Extension is the file extension without the leading dot.
	Extension() string
	Render(ctx context.Context, doc document.Document, options Options) ([]byte, error)
}
