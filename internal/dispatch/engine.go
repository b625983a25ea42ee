package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Engine ties the registry, store, and worker pool together. It is both
// the enqueuing client used by front-ends and the worker runtime started
// on the creation host.
type Engine struct {
	store    Store
	registry *Registry
	pool     *Pool
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

type engineConfig struct {
	backoff      BackoffStrategy
	concurrency  int
	queues       []string
	pollInterval time.Duration
}

// WithBackoff sets the retry backoff strategy.
func WithBackoff(bo BackoffStrategy) EngineOption {
	return func(c *engineConfig) { c.backoff = bo }
}

// WithConcurrency sets the worker pool size.
func WithConcurrency(n int) EngineOption {
	return func(c *engineConfig) { c.concurrency = n }
}

// WithQueues sets the queues workers poll.
func WithQueues(queues []string) EngineOption {
	return func(c *engineConfig) { c.queues = queues }
}

// WithEnginePollInterval sets the idle worker poll interval.
func WithEnginePollInterval(d time.Duration) EngineOption {
	return func(c *engineConfig) { c.pollInterval = d }
}

// NewEngine creates an engine over the given store.
func NewEngine(store Store, logger *slog.Logger, opts ...EngineOption) *Engine {
	cfg := engineConfig{
		backoff:      DefaultBackoff(),
		concurrency:  4,
		queues:       []string{"default"},
		pollInterval: time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	registry := NewRegistry()
	executor := NewExecutor(registry, store, cfg.backoff, logger)
	pool := NewPool(store, executor, logger,
		WithPoolConcurrency(cfg.concurrency),
		WithPoolQueues(cfg.queues),
		WithPollInterval(cfg.pollInterval),
	)

	return &Engine{
		store:    store,
		registry: registry,
		pool:     pool,
		logger:   logger,
	}
}

// Register adds a typed job definition to the engine's registry.
func Register[T any](e *Engine, def *Definition[T]) {
	RegisterDefinition(e.registry, def)
}

// Enqueue submits a named job with a JSON-serializable payload and
// returns the stored job as its handle. It does not wait for execution;
// a handler may call Enqueue to chain further work fire-and-forget.
func (e *Engine) Enqueue(ctx context.Context, name string, payload any) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("dispatch: marshal payload: %w", err)
	}

	opts, ok := e.registry.GetOptions(name)
	if !ok {
		opts = DefaultOptions()
	}

	now := time.Now().UTC()
	j := &Job{
		ID:         NewJobID(),
		Name:       name,
		Queue:      opts.Queue,
		Payload:    raw,
		State:      StatePending,
		MaxRetries: opts.MaxRetries,
		RunAt:      now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.store.EnqueueJob(ctx, j); err != nil {
		return nil, err
	}

	e.logger.Debug("job enqueued",
		slog.String("job_id", j.ID),
		slog.String("job_name", name),
		slog.String("queue", j.Queue),
	)
	return j, nil
}

// GetJob retrieves a job by ID.
func (e *Engine) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return e.store.GetJob(ctx, jobID)
}

// Progress returns the ordered status log of a job.
func (e *Engine) Progress(ctx context.Context, jobID string) ([]string, error) {
	return e.store.GetStatus(ctx, jobID)
}

// Start launches the worker pool.
func (e *Engine) Start(ctx context.Context) error {
	return e.pool.Start(ctx)
}

// Stop shuts the worker pool down, cancelling active jobs when the
// context expires.
func (e *Engine) Stop(ctx context.Context) error {
	return e.pool.Stop(ctx)
}
