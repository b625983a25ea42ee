package dispatch

import (
	"context"
	"errors"
)

var (
	ErrJobNotFound      = errors.New("dispatch: job not found")
	ErrJobAlreadyExists = errors.New("dispatch: job already exists")
	ErrNoHandler        = errors.New("dispatch: no handler registered")
)

// Store is the durable job queue shared by all workers. Implementations
// must make the dequeue claim atomic: of N workers polling the same
// queue, exactly one receives a given job.
type Store interface {
	// EnqueueJob persists a new job and makes it visible to workers
	// once its RunAt time has passed.
	EnqueueJob(ctx context.Context, j *Job) error
	// DequeueJobs claims up to limit due jobs from the given queues and
	// marks them running. A claim is permanent: if the claiming worker
	// dies mid-job, the job stays running and is never redelivered.
	// Retries only cover failures the handler returns.
	DequeueJobs(ctx context.Context, queues []string, limit int) ([]*Job, error)
	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*Job, error)
	// UpdateJob persists changes to an existing job. Jobs updated back
	// to a pending or retrying state become dequeueable again at RunAt.
	UpdateJob(ctx context.Context, j *Job) error
	// AppendStatus appends one line to the job's ordered progress log.
	AppendStatus(ctx context.Context, jobID string, line string) error
	// GetStatus returns the job's progress log in append order.
	GetStatus(ctx context.Context, jobID string) ([]string, error)
}
