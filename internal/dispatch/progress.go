package dispatch

import (
	"context"
	"log/slog"
)

// Reporter appends lines to a job's ordered progress log. Reporting is
// advisory: a failed append is logged and swallowed, never surfaced to
// the job's state machine.
type Reporter struct {
	store  Store
	jobID  string
	logger *slog.Logger
}

// Report appends one status line to the job's log.
func (r *Reporter) Report(line string) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.AppendStatus(context.Background(), r.jobID, line); err != nil {
		r.logger.Warn("progress report failed",
			slog.String("job_id", r.jobID),
			slog.String("error", err.Error()),
		)
	}
}

type reporterCtxKey struct{}

// WithReporter attaches a progress reporter to the context. The executor
// does this before invoking a handler.
func WithReporter(ctx context.Context, r *Reporter) context.Context {
	return context.WithValue(ctx, reporterCtxKey{}, r)
}

// ReporterFromContext returns the job's progress reporter. Outside a job
// (e.g. in tests calling a handler directly) it returns a no-op reporter,
// so callers never need a nil check.
func ReporterFromContext(ctx context.Context) *Reporter {
	if r, ok := ctx.Value(reporterCtxKey{}).(*Reporter); ok {
		return r
	}
	return &Reporter{}
}
