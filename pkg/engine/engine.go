package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-contractgen/pkg/builtins"
	"github.com/goliatone/go-contractgen/pkg/contract"
	"github.com/goliatone/go-contractgen/pkg/document"
	"github.com/goliatone/go-contractgen/pkg/events"
	"github.com/goliatone/go-contractgen/pkg/export"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/registry"
	"github.com/goliatone/go-contractgen/pkg/render"
	"github.com/goliatone/go-contractgen/pkg/renderers/docx"
	"github.com/goliatone/go-contractgen/pkg/renderers/html"
	"github.com/goliatone/go-contractgen/pkg/renderers/pdf"
	"github.com/goliatone/go-contractgen/pkg/schema"
	"github.com/goliatone/go-contractgen/pkg/store"
)

// Engine is the single entry point for the dashboard. It holds no state of
// its own beyond the wired components.
type Engine struct {
	store             store.Store
	renderers         *render.Registry
	printer           pdf.Printer
	renderOptions     render.Options
	themeSelector     theme.ThemeSelector
	themeName         string
	themeVariant      string
	exportTimeout     time.Duration
	formatter         document.Formatter
	marker            func(string) string
	builder           schema.Builder
	builtinsFS        fs.FS
	builtinsSpecified bool
	bus               *events.Bus
	logger            *zap.Logger
	now               func() time.Time
	newID             func() string

	templates *registry.Registry
	contracts *contract.Manager
	pipeline  *export.Pipeline
}

// New constructs an Engine applying any provided options and seeds the
// built-in templates. Missing dependencies are initialised with the default
// implementations.
func New(ctx context.Context, options ...Option) (*Engine, error) {
	if ctx == nil {
		return nil, errors.New("engine: context is required")
	}
	e := &Engine{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if err := e.applyDefaults(); err != nil {
		return nil, err
	}
	if err := e.seed(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) applyDefaults() error {
	if e.store == nil {
		e.store = store.NewMemory()
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.bus == nil {
		e.bus = events.NewBus(events.WithLogger(e.logger))
	}
	if !e.builtinsSpecified {
		e.builtinsFS = builtins.EmbeddedFS()
	}
	if e.renderers == nil {
		renderers, err := e.defaultRenderers()
		if err != nil {
			return err
		}
		e.renderers = renderers
	}
	if e.renderOptions.Theme == nil {
		if err := e.resolveTheme(); err != nil {
			return err
		}
	}

	e.templates = registry.New(
		registry.WithStore(e.store),
		registry.WithBuilder(e.builder),
		registry.WithPublisher(e.bus),
		registry.WithLogger(e.logger.Named("registry")),
		registry.WithClock(e.now),
		registry.WithIDGenerator(e.newID),
	)
	e.pipeline = export.NewPipeline(
		export.WithRegistry(e.renderers),
		export.WithRenderOptions(e.renderOptions),
		export.WithTimeout(e.exportTimeout),
		export.WithLogger(e.logger.Named("export")),
	)

	generator := document.NewGenerator(
		document.WithFormatter(e.formatter),
		document.WithUnresolvedMarker(e.marker),
		document.WithLogger(e.logger.Named("document")),
	)
	contracts, err := contract.New(e.templates,
		contract.WithStore(e.store),
		contract.WithGenerator(generator),
		contract.WithPipeline(e.pipeline),
		contract.WithPublisher(e.bus),
		contract.WithLogger(e.logger.Named("contract")),
		contract.WithClock(e.now),
		contract.WithIDGenerator(e.newID),
	)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	e.contracts = contracts
	return nil
}

func (e *Engine) resolveTheme() error {
	selector := e.themeSelector
	if selector == nil {
		embedded, err := html.DefaultThemeSelector()
		if err != nil {
			return fmt.Errorf("engine: default theme: %w", err)
		}
		selector = embedded
	}
	cfg, err := html.ResolveTheme(selector, e.themeName, e.themeVariant)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	e.renderOptions.Theme = cfg
	return nil
}

func (e *Engine) defaultRenderers() (*render.Registry, error) {
	htmlRenderer, err := html.New()
	if err != nil {
		return nil, fmt.Errorf("engine: default html renderer: %w", err)
	}
	renderers := []render.Renderer{htmlRenderer, docx.New()}
	if e.printer != nil {
		pdfRenderer, err := pdf.New(e.printer, pdf.WithHTMLRenderer(htmlRenderer))
		if err != nil {
			return nil, fmt.Errorf("engine: default pdf renderer: %w", err)
		}
		renderers = append(renderers, pdfRenderer)
	}
	registry, err := render.NewRegistry(renderers...)
	if err != nil {
		return nil, fmt.Errorf("engine: renderer registry: %w", err)
	}
	return registry, nil
}

func (e *Engine) seed(ctx context.Context) error {
	if e.builtinsFS == nil {
		return nil
	}
	drafts, err := builtins.LoadFS(e.builtinsFS)
	if err != nil {
		return fmt.Errorf("engine: load built-in templates: %w", err)
	}
	if err := e.templates.Seed(ctx, drafts); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// Events returns the bus lifecycle events are published on.
func (e *Engine) Events() *events.Bus {
	return e.bus
}

// UploadTemplate derives the field schema of draft and stores the template.
func (e *Engine) UploadTemplate(ctx context.Context, draft model.TemplateDraft) (model.Template, error) {
	return e.templates.Upload(ctx, draft)
}

// EditTemplate replaces the template stored under id.
func (e *Engine) EditTemplate(ctx context.Context, id string, draft model.TemplateDraft) (model.Template, error) {
	return e.templates.Edit(ctx, id, draft)
}

// DeactivateTemplate hides a custom template from new contracts.
func (e *Engine) DeactivateTemplate(ctx context.Context, id string) (model.Template, error) {
	return e.templates.Deactivate(ctx, id)
}

// Templates lists every template, built-ins included, in insertion order.
func (e *Engine) Templates(ctx context.Context) ([]model.Template, error) {
	return e.templates.List(ctx)
}

// Template returns the template stored under id.
func (e *Engine) Template(ctx context.Context, id string) (model.Template, bool, error) {
	return e.templates.Get(ctx, id)
}

// ActiveTemplateFor picks the template to use for a category.
func (e *Engine) ActiveTemplateFor(ctx context.Context, kind model.TemplateType) (model.Template, bool, error) {
	return e.templates.ActiveTemplateFor(ctx, kind)
}

// TemplateSchema describes the field values of template id as an OpenAPI
// object schema.
func (e *Engine) TemplateSchema(ctx context.Context, id string) (*openapi3.Schema, error) {
	tpl, ok, err := e.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &model.NotFoundError{Kind: "template", ID: id}
	}
	return schema.OpenAPI(tpl), nil
}

// CreateContract starts a draft contract for an active template.
func (e *Engine) CreateContract(ctx context.Context, templateID string, input contract.Input) (model.Contract, error) {
	return e.contracts.Create(ctx, templateID, input)
}

// UpdateContract replaces values or parties and re-validates.
func (e *Engine) UpdateContract(ctx context.Context, id string, update contract.Update) (model.Contract, error) {
	return e.contracts.Update(ctx, id, update)
}

// TransitionContract moves a contract forward in its lifecycle.
func (e *Engine) TransitionContract(ctx context.Context, id string, status model.Status) (model.Contract, error) {
	return e.contracts.Transition(ctx, id, status)
}

// Contract returns the contract stored under id.
func (e *Engine) Contract(ctx context.Context, id string) (model.Contract, bool, error) {
	return e.contracts.Get(ctx, id)
}

// Contracts lists every contract in insertion order.
func (e *Engine) Contracts(ctx context.Context) ([]model.Contract, error) {
	return e.contracts.List(ctx)
}

// ValidateValues checks values against a template without storing them.
func (e *Engine) ValidateValues(ctx context.Context, templateID string, values map[string]model.Value) ([]model.Violation, error) {
	return e.contracts.Validate(ctx, templateID, values)
}

// GenerateDocument merges a contract into its template.
func (e *Engine) GenerateDocument(ctx context.Context, contractID string) (document.Document, error) {
	return e.contracts.Generate(ctx, contractID)
}

// GenerateContractDocument returns the merged text of a contract, legal
// clauses included.
func (e *Engine) GenerateContractDocument(ctx context.Context, contractID string) (string, error) {
	doc, err := e.contracts.Generate(ctx, contractID)
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}

// PreviewDocument merges values into a template without creating a
// contract.
func (e *Engine) PreviewDocument(ctx context.Context, templateID string, input contract.Input) (document.Document, []model.Violation, error) {
	return e.contracts.Preview(ctx, templateID, input)
}

// ExportContract renders a contract in format.
func (e *Engine) ExportContract(ctx context.Context, contractID, format string) (export.Artifact, error) {
	return e.contracts.Export(ctx, contractID, format)
}

// ExportAll renders a contract in several formats concurrently.
func (e *Engine) ExportAll(ctx context.Context, contractID string, formats ...string) ([]export.Artifact, error) {
	return e.contracts.ExportAll(ctx, contractID, formats...)
}

// ExportDocument renders an already generated document, for previews of
// values that have not been stored.
func (e *Engine) ExportDocument(ctx context.Context, doc document.Document, format string) (export.Artifact, error) {
	return e.pipeline.Export(ctx, doc, format)
}

// Formats lists the export formats available.
func (e *Engine) Formats() []string {
	return e.pipeline.Formats()
}
