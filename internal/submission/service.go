// Package submission coordinates the lifecycle of a new account request:
// automatic validation, optional staff moderation, and final creation.
// Requests are submitted from untrusted front-ends; everything here runs
// on the trusted creation host, driven through the job dispatcher so
// submission and processing stay decoupled.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cg505/ocflib/internal/account"
	"github.com/cg505/ocflib/internal/dispatch"
	"github.com/cg505/ocflib/internal/events"
	"github.com/cg505/ocflib/internal/provision"
	"github.com/cg505/ocflib/internal/repositories"
	"github.com/cg505/ocflib/internal/validate"
	"github.com/cg505/ocflib/model"
)

// Enqueuer submits follow-up jobs fire-and-forget. Satisfied by
// *dispatch.Engine.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any) (*dispatch.Job, error)
}

// Notifier informs the requester of a staff decision.
type Notifier interface {
	SendRejected(req account.NewAccountRequest, reason string) error
}

// Service implements the account request state machine. All
// dependencies are injected at construction; there is no lazily
// initialized global state.
type Service struct {
	repo      repositories.PendingRequestRepository
	validator validate.Validator
	creator   provision.Creator
	notifier  Notifier
	publisher events.Publisher
	enqueuer  Enqueuer
	creds     account.Credentials
	logger    *slog.Logger
}

// NewService creates the orchestrator. The enqueuer is wired separately
// by RegisterJobs since the engine that executes these jobs is also the
// engine they enqueue into.
func NewService(
	repo repositories.PendingRequestRepository,
	validator validate.Validator,
	creator provision.Creator,
	notifier Notifier,
	publisher events.Publisher,
	creds account.Credentials,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		creator:   creator,
		notifier:  notifier,
		publisher: publisher,
		creds:     creds,
		logger:    logger,
	}
}

// CreateAccount validates a request and either rejects it, flags it back
// to the submitter, stores it for staff review, or provisions it.
//
// Re-execution after redelivery is safe: revalidation re-detects
// whatever state the first run left behind.
func (s *Service) CreateAccount(ctx context.Context, req account.NewAccountRequest) (*account.NewAccountResponse, error) {
	progress := dispatch.ReporterFromContext(ctx)

	progress.Report("Validating account request")
	errs, warnings, err := s.validator.Validate(ctx, req)
	if err != nil {
		// Infrastructure failure, not a verdict. Fail the job and let
		// the dispatcher's retry policy deal with it.
		return nil, err
	}
	progress.Report("Validated account request")

	if len(errs) > 0 {
		// Fatal errors cannot be bypassed, even with staff approval.
		return &account.NewAccountResponse{
			Status: account.StatusRejected,
			Errors: append(errs, warnings...),
		}, nil
	}

	if len(warnings) > 0 {
		switch req.HandleWarnings {
		case account.WarningsSubmit:
			return s.submitForReview(ctx, req, warnings, progress)
		case account.WarningsWarn:
			return &account.NewAccountResponse{
				Status: account.StatusFlagged,
				Errors: warnings,
			}, nil
		}
		// WarningsCreate: the caller explicitly asked to create anyway.
	}

	progress.Report("Creating account")
	if err := s.creator.Create(ctx, req, s.creds, progress.Report); err != nil {
		return nil, fmt.Errorf("create account %q: %w", req.Username, err)
	}
	progress.Report("Created account")

	s.publish(ctx, events.AccountCreated{Request: req})
	return &account.NewAccountResponse{
		Status: account.StatusCreated,
		Errors: []string{},
	}, nil
}

func (s *Service) submitForReview(ctx context.Context, req account.NewAccountRequest, warnings []string, progress *dispatch.Reporter) (*account.NewAccountResponse, error) {
	progress.Report("Submitting account for staff approval")

	row := model.PendingRequestFromRequest(req)
	if err := s.repo.Create(ctx, row); err != nil {
		if errors.Is(err, repositories.ErrDuplicateUsername) {
			// Lost a read-then-write race: another submission inserted
			// the username between our dedup check and this insert.
			// Same verdict as if the validator had caught it.
			conflict := fmt.Sprintf("username %q is already pending creation", req.Username)
			return &account.NewAccountResponse{
				Status: account.StatusRejected,
				Errors: append([]string{conflict}, warnings...),
			}, nil
		}
		return nil, fmt.Errorf("store pending request %q: %w", req.Username, err)
	}

	s.publish(ctx, events.AccountSubmitted{Request: req, Reasons: warnings})
	progress.Report("Submitted account for staff approval")

	return &account.NewAccountResponse{
		Status: account.StatusPending,
		Errors: warnings,
	}, nil
}

// GetPendingRequests returns every stored request awaiting a decision,
// in the store's natural order.
func (s *Service) GetPendingRequests(ctx context.Context) ([]*model.PendingRequest, error) {
	return s.repo.Find(ctx)
}

// ApproveRequest takes the stored row out of the store and re-enqueues
// create_account with warnings forced through, since a human already
// reviewed them. The approval succeeds as soon as the creation job is
// enqueued; creation itself is a separate unit of work with its own
// failure reporting.
func (s *Service) ApproveRequest(ctx context.Context, username string) error {
	progress := dispatch.ReporterFromContext(ctx)

	row, err := s.takeRow(ctx, username)
	if err != nil {
		return err
	}
	req := row.ToRequest(account.WarningsCreate)

	if _, err := s.enqueuer.Enqueue(ctx, JobCreateAccount, req); err != nil {
		return fmt.Errorf("approve %q: enqueue creation: %w", username, err)
	}
	progress.Report(fmt.Sprintf("Queued approved account %q for creation", username))

	s.publish(ctx, events.AccountApproved{Request: req})
	return nil
}

// RejectRequest takes the stored row out of the store and notifies the
// requester. An empty reason falls back to a stock message; the reason
// taxonomy is whatever the deciding staff tooling supplies.
func (s *Service) RejectRequest(ctx context.Context, username string, reason string) error {
	progress := dispatch.ReporterFromContext(ctx)

	row, err := s.takeRow(ctx, username)
	if err != nil {
		return err
	}
	req := row.ToRequest(account.WarningsCreate)

	if reason == "" {
		reason = "staff declined the request"
	}
	if err := s.notifier.SendRejected(req, reason); err != nil {
		return fmt.Errorf("reject %q: send notification: %w", username, err)
	}
	progress.Report(fmt.Sprintf("Notified %s of rejection", req.Email))

	s.publish(ctx, events.AccountRejected{Request: req, Reason: reason})
	return nil
}

// takeRow removes the stored request in the same unit of work that reads
// it, so a racing decision observes no row and fails cleanly instead of
// double-processing.
func (s *Service) takeRow(ctx context.Context, username string) (*model.PendingRequest, error) {
	row, err := s.repo.TakeByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, username)
		}
		return nil, err
	}
	return row, nil
}

// publish broadcasts a lifecycle event fire-and-forget. A broker outage
// must not fail the decision that already took effect.
func (s *Service) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("event publish failed",
			slog.String("event", evt.EventName()),
			slog.String("error", err.Error()),
		)
	}
}
