package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pool manages a set of concurrent worker goroutines that poll the store
// for jobs and execute them through the Executor.
type Pool struct {
	store        Store
	executor     *Executor
	concurrency  int
	queues       []string
	pollInterval time.Duration
	logger       *slog.Logger

	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	activeMu sync.Mutex
	active   map[string]context.CancelFunc
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolConcurrency sets the number of concurrent worker goroutines.
func WithPoolConcurrency(n int) PoolOption {
	return func(p *Pool) { p.concurrency = n }
}

// WithPoolQueues sets the queues the pool will poll.
func WithPoolQueues(queues []string) PoolOption {
	return func(p *Pool) { p.queues = queues }
}

// WithPollInterval sets how often idle workers poll for new jobs.
func WithPollInterval(d time.Duration) PoolOption {
	return func(p *Pool) { p.pollInterval = d }
}

// NewPool creates a worker pool.
func NewPool(store Store, executor *Executor, logger *slog.Logger, opts ...PoolOption) *Pool {
	p := &Pool{
		store:        store,
		executor:     executor,
		concurrency:  4,
		queues:       []string{"default"},
		pollInterval: time.Second,
		logger:       logger,
		stopCh:       make(chan struct{}),
		active:       make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the worker goroutines. It returns immediately.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true

	p.logger.Info("worker pool starting",
		slog.Int("concurrency", p.concurrency),
		slog.Any("queues", p.queues),
	)

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.dequeueLoop()
	}
	return nil
}

// Stop signals all workers to stop and waits for them to finish. If the
// context expires first, active jobs are cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out, cancelling active jobs")
		p.cancelActiveJobs()
		p.wg.Wait()
	}
	return nil
}

func (p *Pool) dequeueLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		jobs, err := p.store.DequeueJobs(context.Background(), p.queues, 1)
		if err != nil {
			p.logger.Error("dequeue error", slog.String("error", err.Error()))
			p.sleep()
			continue
		}
		if len(jobs) == 0 {
			p.sleep()
			continue
		}

		j := jobs[0]
		ctx, cancel := context.WithCancel(context.Background())
		p.trackJob(j.ID, cancel)

		if execErr := p.executor.Execute(ctx, j); execErr != nil {
			p.logger.Debug("job execution failed",
				slog.String("job_id", j.ID),
				slog.String("job_name", j.Name),
				slog.String("error", execErr.Error()),
			)
		}

		p.untrackJob(j.ID)
		cancel()
	}
}

func (p *Pool) sleep() {
	select {
	case <-time.After(p.pollInterval):
	case <-p.stopCh:
	}
}

func (p *Pool) trackJob(jobID string, cancel context.CancelFunc) {
	p.activeMu.Lock()
	p.active[jobID] = cancel
	p.activeMu.Unlock()
}

func (p *Pool) untrackJob(jobID string) {
	p.activeMu.Lock()
	delete(p.active, jobID)
	p.activeMu.Unlock()
}

func (p *Pool) cancelActiveJobs() {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	for jobID, cancel := range p.active {
		p.logger.Warn("cancelling active job", slog.String("job_id", jobID))
		cancel()
	}
}
