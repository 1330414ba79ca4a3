// Package pdf prints the HTML rendition of a contract to PDF through a
// pluggable Printer.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-contractgen/pkg/document"
	"github.com/goliatone/go-contractgen/pkg/render"
	"github.com/goliatone/go-contractgen/pkg/renderers/html"
)

var pdfMagic = []byte("%PDF-")

// PageOptions carries paged-output settings to a Printer.
type PageOptions struct {
	Title     string
	Landscape bool
}

// Printer converts an HTML page to PDF bytes.
type Printer interface {
	PrintPDF(ctx context.Context, markup []byte, options PageOptions) ([]byte, error)
}

// PrinterFunc adapts a function to Printer.
type PrinterFunc func(ctx context.Context, markup []byte, options PageOptions) ([]byte, error)

func (f PrinterFunc) PrintPDF(ctx context.Context, markup []byte, options PageOptions) ([]byte, error) {
	return f(ctx, markup, options)
}

type Option func(*Renderer)

// WithHTMLRenderer replaces the renderer used to produce the printable page.
func WithHTMLRenderer(renderer render.Renderer) Option {
	return func(r *Renderer) {
		if renderer != nil {
			r.markup = renderer
		}
	}
}

type Renderer struct {
	printer Printer
	markup  render.Renderer
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a PDF renderer around printer.
func New(printer Printer, options ...Option) (*Renderer, error) {
	if printer == nil {
		return nil, errors.New("pdf renderer: printer is nil")
	}
	r := &Renderer{printer: printer}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.markup == nil {
		markup, err := html.New()
		if err != nil {
			return nil, fmt.Errorf("pdf renderer: configure html renderer: %w", err)
		}
		r.markup = markup
	}
	return r, nil
}

func (r *Renderer) Name() string {
	return "pdf"
}

func (r *Renderer) ContentType() string {
	return "application/pdf"
}

func (r *Renderer) Extension() string {
	return "pdf"
}

// Render renders doc to HTML and prints it. Output that does not start with
// the PDF header is rejected.
func (r *Renderer) Render(ctx context.Context, doc document.Document, options render.Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := r.markup.Render(ctx, doc, options)
	if err != nil {
		return nil, fmt.Errorf("pdf renderer: render page: %w", err)
	}

	out, err := r.printer.PrintPDF(ctx, page, PageOptions{
		Title:     doc.Title,
		Landscape: options.Landscape,
	})
	if err != nil {
		return nil, fmt.Errorf("pdf renderer: print: %w", err)
	}
	if !bytes.HasPrefix(out, pdfMagic) {
		return nil, errors.New("pdf renderer: printer returned non-PDF output")
	}
	return out, nil
}
