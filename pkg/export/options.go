package export

import (
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-contractgen/pkg/render"
)

// Option configures the Pipeline.
type Option func(*Pipeline)

// WithRegistry sets the renderer registry used for format dispatch.
func WithRegistry(registry *render.Registry) Option {
	return func(p *Pipeline) {
		if registry != nil {
			p.registry = registry
		}
	}
}

// WithRenderOptions sets the presentation options passed to every renderer.
func WithRenderOptions(options render.Options) Option {
	return func(p *Pipeline) {
		p.options = options
	}
}

// WithTimeout bounds each render call. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		if timeout >= 0 {
			p.timeout = timeout
		}
	}
}

// WithConcurrency limits the renders ExportAll runs at once. Values below one
// mean unlimited.
func WithConcurrency(limit int) Option {
	return func(p *Pipeline) {
		p.concurrency = limit
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}
