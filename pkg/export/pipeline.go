// Package export dispatches generated documents to format renderers and
// packages the results with consistent metadata.
package export

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-contractgen/pkg/document"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/render"
)

const fallbackBaseName = "document"

// Artifact is a rendered document plus the metadata needed to serve or
// store it.
type Artifact struct {
	ContractID  string `json:"contractId"`
	Format      string `json:"format"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// Pipeline renders documents through the registered renderers. It never
// mutates the document it is given.
type Pipeline struct {
	registry    *render.Registry
	options     render.Options
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger
}

// NewPipeline constructs a Pipeline. Without WithRegistry the pipeline has no
// renderers and every export fails with model.ErrUnsupportedFormat.
func NewPipeline(options ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	if p.registry == nil {
		p.registry, _ = render.NewRegistry()
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Formats lists the formats the pipeline can export.
func (p *Pipeline) Formats() []string {
	return p.registry.List()
}

// Export renders doc in format. Every failure, including an unknown format
// or a cancelled context, is returned as *model.ExportError.
func (p *Pipeline) Export(ctx context.Context, doc document.Document, format string) (Artifact, error) {
	format = strings.ToLower(strings.TrimSpace(format))

	renderer, err := p.registry.Get(format)
	if err != nil {
		return Artifact{}, &model.ExportError{Format: format, Cause: err}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return Artifact{}, &model.ExportError{Format: format, Cause: err}
	}

	started := time.Now()
	data, err := renderer.Render(ctx, doc, p.options)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		p.logger.Warn("export failed",
			zap.String("contract_id", doc.ContractID),
			zap.String("format", format),
			zap.Error(err),
		)
		return Artifact{}, &model.ExportError{Format: format, Cause: err}
	}

	p.logger.Debug("export rendered",
		zap.String("contract_id", doc.ContractID),
		zap.String("format", format),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return Artifact{
		ContractID:  doc.ContractID,
		Format:      format,
		Filename:    Filename(doc.ContractID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

// ExportAll renders doc in every requested format concurrently. Artifacts
// are returned in the order the formats were given; the first failure
// cancels the remaining renders.
func (p *Pipeline) ExportAll(ctx context.Context, doc document.Document, formats ...string) ([]Artifact, error) {
	if len(formats) == 0 {
		formats = p.Formats()
	}

	artifacts := make([]Artifact, len(formats))
	group, groupCtx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		group.SetLimit(p.concurrency)
	}
	for idx, format := range formats {
		group.Go(func() error {
			artifact, err := p.Export(groupCtx, doc, format)
			if err != nil {
				return err
			}
			artifacts[idx] = artifact
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// Filename derives the artifact name from the contract id and extension.
func Filename(contractID, extension string) string {
	base := strings.TrimSpace(contractID)
	if base == "" {
		base = fallbackBaseName
	}
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, base)
	extension = strings.TrimPrefix(strings.TrimSpace(extension), ".")
	if extension == "" {
		return base
	}
	return base + "." + extension
}
