package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// HandlerFunc is a type-erased job handler that accepts a raw JSON
// payload and returns an optional JSON-serializable result.
type HandlerFunc func(ctx context.Context, payload []byte) (any, error)

// Options configures a job definition.
type Options struct {
	Queue      string
	MaxRetries int
}

// Option mutates job Options.
type Option func(*Options)

// WithQueue sets the queue a job is enqueued to and dequeued from.
func WithQueue(queue string) Option {
	return func(o *Options) { o.Queue = queue }
}

// WithMaxRetries sets how many times a failed job is retried before it
// is marked failed for good.
func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

// DefaultOptions returns the options applied when a definition sets none.
func DefaultOptions() Options {
	return Options{Queue: "default", MaxRetries: 3}
}

// Definition is a typed job definition with a handler function.
// T is the payload type and must be JSON-serializable.
type Definition[T any] struct {
	Name    string
	Handler func(ctx context.Context, payload T) (any, error)
	Opts    Options
}

// NewDefinition creates a typed job definition.
func NewDefinition[T any](name string, handler func(ctx context.Context, payload T) (any, error), opts ...Option) *Definition[T] {
	def := &Definition[T]{
		Name:    name,
		Handler: handler,
		Opts:    DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&def.Opts)
	}
	return def
}

// Registry maps job names to type-erased handler functions.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	opts     map[string]Options
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
		opts:     make(map[string]Options),
	}
}

// RegisterDefinition registers a typed job definition. The generic
// handler is wrapped in a closure that JSON-unmarshals the payload into
// T before calling the typed handler.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func RegisterDefinition[T any](r *Registry, def *Definition[T]) {
	handler := func(ctx context.Context, payload []byte) (any, error) {
		var t T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &t); err != nil {
				return nil, fmt.Errorf("unmarshal payload for job %q: %w", def.Name, err)
			}
		}
		return def.Handler(ctx, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[def.Name] = handler
	r.opts[def.Name] = def.Opts
}

// Get returns the handler for the given job name.
func (r *Registry) Get(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// GetOptions returns the options the job was registered with.
func (r *Registry) GetOptions(name string) (Options, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.opts[name]
	return o, ok
}

// Names returns all registered job names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
