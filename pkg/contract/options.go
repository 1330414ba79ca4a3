package contract

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-contractgen/pkg/document"
	"github.com/goliatone/go-contractgen/pkg/events"
	"github.com/goliatone/go-contractgen/pkg/export"
	"github.com/goliatone/go-contractgen/pkg/store"
)

// Option configures the Manager.
type Option func(*Manager)

// WithStore sets the contract store. Defaults to an in-memory store.
func WithStore(s store.ContractStore) Option {
	return func(m *Manager) {
		if s != nil {
			m.store = s
		}
	}
}

// WithGenerator overrides the document generator.
func WithGenerator(g *document.Generator) Option {
	return func(m *Manager) {
		if g != nil {
			m.generator = g
		}
	}
}

// WithPipeline sets the export pipeline. Without one, exports fail with
// model.ErrUnsupportedFormat.
func WithPipeline(p *export.Pipeline) Option {
	return func(m *Manager) {
		if p != nil {
			m.pipeline = p
		}
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(m *Manager) {
		if p != nil {
			m.publisher = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator overrides contract id generation.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

func (m *Manager) applyDefaults() {
	if m.store == nil {
		m.store = store.NewMemory()
	}
	if m.generator == nil {
		m.generator = document.NewGenerator()
	}
	if m.pipeline == nil {
		m.pipeline = export.NewPipeline()
	}
	if m.publisher == nil {
		m.publisher = events.Discard
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
}
