package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Executor runs a single job through its registered handler, then
// handles result persistence, retry scheduling, and state updates.
type Executor struct {
	registry *Registry
	store    Store
	backoff  BackoffStrategy
	logger   *slog.Logger
}

// NewExecutor creates an Executor with the given dependencies.
func NewExecutor(registry *Registry, store Store, bo BackoffStrategy, logger *slog.Logger) *Executor {
	if bo == nil {
		bo = DefaultBackoff()
	}
	return &Executor{
		registry: registry,
		store:    store,
		backoff:  bo,
		logger:   logger,
	}
}

// Execute runs a job.
// On success: marks completed and stores the handler's JSON result.
// On failure with retries remaining: marks retrying with backoff.
// On failure with retries exhausted: marks failed.
func (e *Executor) Execute(ctx context.Context, j *Job) error {
	handler, ok := e.registry.Get(j.Name)
	if !ok {
		j.State = StateFailed
		j.LastError = fmt.Sprintf("no handler registered for job %q", j.Name)
		if updateErr := e.store.UpdateJob(ctx, j); updateErr != nil {
			return updateErr
		}
		return ErrNoHandler
	}

	ctx = WithReporter(ctx, &Reporter{store: e.store, jobID: j.ID, logger: e.logger})

	result, err := handler(ctx, j.Payload)

	now := time.Now().UTC()
	if err != nil {
		return e.handleFailure(ctx, j, err, now)
	}
	return e.handleSuccess(ctx, j, result, now)
}

func (e *Executor) handleSuccess(ctx context.Context, j *Job, result any, now time.Time) error {
	j.State = StateCompleted
	j.CompletedAt = &now

	if result != nil {
		raw, marshalErr := json.Marshal(result)
		if marshalErr != nil {
			e.logger.Error("failed to marshal job result",
				slog.String("job_id", j.ID),
				slog.String("job_name", j.Name),
				slog.String("error", marshalErr.Error()),
			)
		} else {
			j.Result = raw
		}
	}

	if updateErr := e.store.UpdateJob(ctx, j); updateErr != nil {
		e.logger.Error("failed to update job after success",
			slog.String("job_id", j.ID),
			slog.String("job_name", j.Name),
			slog.String("error", updateErr.Error()),
		)
		return updateErr
	}
	return nil
}

func (e *Executor) handleFailure(ctx context.Context, j *Job, handlerErr error, now time.Time) error {
	j.RetryCount++
	j.LastError = handlerErr.Error()

	if j.RetryCount <= j.MaxRetries {
		delay := e.backoff.Delay(j.RetryCount)
		j.RunAt = now.Add(delay)
		j.State = StateRetrying

		if updateErr := e.store.UpdateJob(ctx, j); updateErr != nil {
			e.logger.Error("failed to update job for retry",
				slog.String("job_id", j.ID),
				slog.String("error", updateErr.Error()),
			)
			return updateErr
		}

		e.logger.Info("job scheduled for retry",
			slog.String("job_id", j.ID),
			slog.String("job_name", j.Name),
			slog.Int("attempt", j.RetryCount),
			slog.Int("max_retries", j.MaxRetries),
			slog.Duration("delay", delay),
		)
		return fmt.Errorf("job %s retry %d/%d: %w", j.Name, j.RetryCount, j.MaxRetries, handlerErr)
	}

	j.State = StateFailed
	if updateErr := e.store.UpdateJob(ctx, j); updateErr != nil {
		e.logger.Error("failed to update job as failed",
			slog.String("job_id", j.ID),
			slog.String("error", updateErr.Error()),
		)
		return updateErr
	}

	e.logger.Warn("job failed after exhausting retries",
		slog.String("job_id", j.ID),
		slog.String("job_name", j.Name),
		slog.Int("retry_count", j.RetryCount),
		slog.String("error", handlerErr.Error()),
	)
	return handlerErr
}
