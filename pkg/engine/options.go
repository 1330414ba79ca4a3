package engine

import (
	"io/fs"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-contractgen/pkg/document"
	"github.com/goliatone/go-contractgen/pkg/events"
	"github.com/goliatone/go-contractgen/pkg/render"
	"github.com/goliatone/go-contractgen/pkg/renderers/pdf"
	"github.com/goliatone/go-contractgen/pkg/schema"
	"github.com/goliatone/go-contractgen/pkg/store"
)

// Option customises the engine configuration.
type Option func(*Engine)

// WithStore backs templates and contracts with s. Defaults to an in-memory
// store.
func WithStore(s store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithRendererRegistry injects the export renderers. When omitted the engine
// registers the html and docx renderers, plus pdf when a printer is set.
func WithRendererRegistry(registry *render.Registry) Option {
	return func(e *Engine) {
		e.renderers = registry
	}
}

// WithPDFPrinter enables the pdf format in the default renderer registry.
func WithPDFPrinter(printer pdf.Printer) Option {
	return func(e *Engine) {
		e.printer = printer
	}
}

// WithRenderOptions sets presentation options shared by every export.
func WithRenderOptions(options render.Options) Option {
	return func(e *Engine) {
		e.renderOptions = options
	}
}

// WithThemeSelector resolves the export theme through selector instead of
// the embedded themes.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(e *Engine) {
		e.themeSelector = selector
	}
}

// WithTheme names the theme and variant used for html and pdf exports. An
// empty name selects the selector's default theme. Ignored when the render
// options already carry a resolved theme.
func WithTheme(name, variant string) Option {
	return func(e *Engine) {
		e.themeName = strings.TrimSpace(name)
		e.themeVariant = strings.TrimSpace(variant)
	}
}

// WithExportTimeout bounds each render call.
func WithExportTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.exportTimeout = timeout
	}
}

// WithFormatter overrides currency and date formatting in generated
// documents.
func WithFormatter(formatter document.Formatter) Option {
	return func(e *Engine) {
		e.formatter = formatter
	}
}

// WithUnresolvedMarker overrides the marker left for missing values.
func WithUnresolvedMarker(fn func(fieldID string) string) Option {
	return func(e *Engine) {
		e.marker = fn
	}
}

// WithSchemaBuilder overrides the field schema builder used on upload.
func WithSchemaBuilder(builder schema.Builder) Option {
	return func(e *Engine) {
		e.builder = builder
	}
}

// WithBuiltinsFS supplies the built-in template definitions seeded on
// construction. Pass nil to disable seeding.
func WithBuiltinsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.builtinsFS = fsys
		e.builtinsSpecified = true
	}
}

// WithBus sets the event bus lifecycle events are published on.
func WithBus(bus *events.Bus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source of the registry and contract manager.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator overrides id generation for templates and contracts.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}
