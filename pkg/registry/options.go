package registry

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-contractgen/pkg/events"
	"github.com/goliatone/go-contractgen/pkg/schema"
	"github.com/goliatone/go-contractgen/pkg/store"
)

// Option configures the Registry.
type Option func(*Registry)

// WithStore sets the backing template store. Defaults to an in-memory store.
func WithStore(s store.TemplateStore) Option {
	return func(r *Registry) {
		if s != nil {
			r.store = s
		}
	}
}

// WithBuilder overrides the schema builder used on upload.
func WithBuilder(b schema.Builder) Option {
	return func(r *Registry) {
		if b != nil {
			r.builder = b
		}
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(r *Registry) {
		if p != nil {
			r.publisher = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides template id generation.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

func (r *Registry) applyDefaults() {
	if r.store == nil {
		r.store = store.NewMemory()
	}
	if r.builder == nil {
		r.builder = schema.NewBuilder()
	}
	if r.publisher == nil {
		r.publisher = events.Discard
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.now == nil {
		r.now = func() time.Time { return time.Now().UTC() }
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
}
