// Package events carries lifecycle notifications out of the engine. The
// engine only publishes; subscribers register callbacks or receive events on
// a channel.
package events

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind names a lifecycle notification.
type Kind string

const (
	TemplateUploaded    Kind = "templateUploaded"
	TemplateDeactivated Kind = "templateDeactivated"
	ContractCreated     Kind = "contractCreated"
	ContractUpdated     Kind = "contractUpdated"
)

// Event is a fire-and-forget notification.
type Event struct {
	Kind       Kind      `json:"kind"`
	TemplateID string    `json:"templateId,omitempty"`
	ContractID string    `json:"contractId,omitempty"`
	Status     string    `json:"status,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher is what the engine components depend on.
type Publisher interface {
	Publish(evt Event)
}

// Handler receives published events.
type Handler func(Event)

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// Option configures the Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report handler panics and dropped
// channel deliveries.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Bus fans events out to subscribers synchronously, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	next     uint64
	order    []uint64
	handlers map[uint64]Handler
	logger   *zap.Logger
}

var _ Publisher = (*Bus)(nil)

// NewBus returns an empty bus.
func NewBus(options ...Option) *Bus {
	b := &Bus{
		handlers: make(map[uint64]Handler),
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is safe.
func (b *Bus) Subscribe(fn Handler) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.next++
	id := b.next
	b.handlers[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

// Channel delivers events on a buffered channel. Delivery never blocks the
// publisher: when the buffer is full the event is dropped. The cancel
// function unsubscribes and closes the channel.
func (b *Bus) Channel(size int) (<-chan Event, func()) {
	if size < 1 {
		size = 1
	}
	ch := make(chan Event, size)
	var (
		mu     sync.Mutex
		closed bool
	)
	unsubscribe := b.Subscribe(func(evt Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- evt:
		default:
			b.logger.Warn("events: channel full, dropping event", zap.String("kind", string(evt.Kind)))
		}
	})
	cancel := func() {
		unsubscribe()
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}
	return ch, cancel
}

// Publish calls every handler with evt. A panicking handler is logged and
// does not stop delivery to the others.
func (b *Bus) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.deliver(handler, evt)
	}
}

// Len reports the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

func (b *Bus) deliver(handler Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("events: handler panicked",
				zap.String("kind", string(evt.Kind)),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	handler(evt)
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}
