// Package html renders generated contracts as standalone HTML pages.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-contractgen/pkg/document"
	"github.com/goliatone/go-contractgen/pkg/render"
	rendertemplate "github.com/goliatone/go-contractgen/pkg/render/template"
	"github.com/goliatone/go-contractgen/pkg/render/template/pongo"
)

type Option func(*config)

type config struct {
	templateFS   fs.FS
	templateName string
	stylesheet   string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS. The bundle
// must contain the page template at DocumentTemplate unless WithTemplate is
// also used.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplate overrides the page template path.
func WithTemplate(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.templateName = trimmed
		}
	}
}

// WithStylesheet replaces the embedded default stylesheet.
func WithStylesheet(css string) Option {
	return func(cfg *config) {
		cfg.stylesheet = css
	}
}

type Renderer struct {
	templates    rendertemplate.TemplateRenderer
	templateName string
	stylesheet   string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:   TemplatesFS(),
		templateName: DocumentTemplate,
		stylesheet:   defaultStylesheet(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	engine, err := pongo.New(
		pongo.WithName("contractgen-html"),
		pongo.WithFS(cfg.templateFS),
		pongo.WithExtension(".html"),
	)
	if err != nil {
		return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
	}

	return &Renderer{
		templates:    engine,
		templateName: cfg.templateName,
		stylesheet:   cfg.stylesheet,
	}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *Renderer) Extension() string {
	return "html"
}

// Render produces a complete HTML page for doc.
func (r *Renderer) Render(ctx context.Context, doc document.Document, options render.Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}

	result, err := r.templates.RenderTemplate(r.pageTemplate(options), r.viewData(doc, options))
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}

// pageTemplate honours a theme partial override of the page template.
func (r *Renderer) pageTemplate(options render.Options) string {
	if options.Theme == nil {
		return r.templateName
	}
	if name := strings.TrimSpace(options.Theme.Partials[PagePartial]); name != "" && name != DocumentTemplate {
		return name
	}
	return r.templateName
}

func (r *Renderer) viewData(doc document.Document, options render.Options) map[string]any {
	stylesheet := r.stylesheet
	if strings.TrimSpace(options.Stylesheet) != "" {
		stylesheet = options.Stylesheet
	}

	parties := make([]any, 0, len(doc.Parties))
	for _, party := range doc.Parties {
		parties = append(parties, map[string]any{
			"role":    party.Role,
			"name":    party.Name,
			"company": party.Company,
		})
	}

	clauses := make([]any, 0, len(doc.Clauses))
	for _, clause := range doc.Clauses {
		if markup := clauseMarkup(clause); markup != "" {
			clauses = append(clauses, markup)
		}
	}

	var themeName, themeVariant string
	if options.Theme != nil {
		themeName, themeVariant = options.Theme.Theme, options.Theme.Variant
	}

	return map[string]any{
		"theme":         themeName,
		"theme_variant": themeVariant,
		"theme_vars":    cssVariables(options.Theme),
		"logo":          themeAsset(options.Theme, "logo"),
		"title":         doc.Title,
		"contract_id":   doc.ContractID,
		"template_id":   doc.TemplateID,
		"status":        string(doc.Status),
		"author":        options.Author,
		"highlight":     options.HighlightUnresolved,
		"stylesheet":    strings.ReplaceAll(stylesheet, "</", `<\/`),
		"parties":       parties,
		"body":          bodyMarkup(doc.Segments),
		"clauses":       clauses,
	}
}
