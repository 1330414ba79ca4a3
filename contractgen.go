// Package contractgen turns reusable contract templates with {{field.id}}
// placeholders into filled-in documents.
//
// The root package re-exports the engine constructor and the core types so
// most callers need a single import:
//
//	eng, err := contractgen.New(ctx, contractgen.WithPDFPrinter(pdf.NewRodPrinter()))
//	c, err := eng.CreateContract(ctx, "builtin-va-paving", contractgen.Input{...})
//	artifact, err := eng.ExportContract(ctx, c.ID, "pdf")
package contractgen

import (
	"context"

	"github.com/goliatone/go-contractgen/pkg/contract"
	"github.com/goliatone/go-contractgen/pkg/document"
	"github.com/goliatone/go-contractgen/pkg/engine"
	"github.com/goliatone/go-contractgen/pkg/export"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/render"
)

type (
	Engine          = engine.Engine
	Option          = engine.Option
	Template        = model.Template
	TemplateDraft   = model.TemplateDraft
	FieldDescriptor = model.FieldDescriptor
	Contract        = model.Contract
	Party           = model.Party
	Value           = model.Value
	Violation       = model.Violation
	Input           = contract.Input
	Update          = contract.Update
	Document        = document.Document
	Artifact        = export.Artifact
	RenderOptions   = render.Options
)

// New constructs an Engine with the built-in templates seeded. See the
// engine package for the available options.
func New(ctx context.Context, options ...Option) (*Engine, error) {
	return engine.New(ctx, options...)
}

var (
	WithStore            = engine.WithStore
	WithPDFPrinter       = engine.WithPDFPrinter
	WithRendererRegistry = engine.WithRendererRegistry
	WithRenderOptions    = engine.WithRenderOptions
	WithTheme            = engine.WithTheme
	WithThemeSelector    = engine.WithThemeSelector
	WithExportTimeout    = engine.WithExportTimeout
	WithFormatter        = engine.WithFormatter
	WithUnresolvedMarker = engine.WithUnresolvedMarker
	WithBuiltinsFS       = engine.WithBuiltinsFS
	WithLogger           = engine.WithLogger
)
