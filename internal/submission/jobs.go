package submission

import (
	"context"

	"github.com/cg505/ocflib/internal/account"
	"github.com/cg505/ocflib/internal/dispatch"
	"github.com/cg505/ocflib/params"
)

// Job names exposed to front-ends and staff tooling.
const (
	JobCreateAccount      = "create_account"
	JobGetPendingRequests = "get_pending_requests"
	JobApproveRequest     = "approve_request"
	JobRejectRequest      = "reject_request"
)

// DecisionPayload is the payload of approve_request and reject_request.
// Reason is only meaningful for rejections and may be empty.
type DecisionPayload struct {
	Username string `json:"username"`
	Reason   string `json:"reason,omitempty"`
}

// RegisterJobs binds the four lifecycle jobs to the engine and gives the
// service its enqueuer, closing the loop that lets approve_request chain
// into create_account.
func RegisterJobs(e *dispatch.Engine, svc *Service) {
	svc.enqueuer = e

	dispatch.Register(e, dispatch.NewDefinition(JobCreateAccount,
		func(ctx context.Context, req account.NewAccountRequest) (any, error) {
			return svc.CreateAccount(ctx, req)
		},
		dispatch.WithQueue(params.JobDefaultQueue),
		dispatch.WithMaxRetries(params.JobMaxRetries),
	))

	dispatch.Register(e, dispatch.NewDefinition(JobGetPendingRequests,
		func(ctx context.Context, _ struct{}) (any, error) {
			return svc.GetPendingRequests(ctx)
		},
		dispatch.WithQueue(params.JobDefaultQueue),
		dispatch.WithMaxRetries(params.JobMaxRetries),
	))

	// Decisions are not safe under naive redelivery: once the row is
	// deleted, a redelivered decision would act on stale data. No
	// automatic retries; a redelivered run fails fast on the missing row.
	dispatch.Register(e, dispatch.NewDefinition(JobApproveRequest,
		func(ctx context.Context, p DecisionPayload) (any, error) {
			return nil, svc.ApproveRequest(ctx, p.Username)
		},
		dispatch.WithQueue(params.JobDefaultQueue),
		dispatch.WithMaxRetries(0),
	))

	dispatch.Register(e, dispatch.NewDefinition(JobRejectRequest,
		func(ctx context.Context, p DecisionPayload) (any, error) {
			return nil, svc.RejectRequest(ctx, p.Username, p.Reason)
		},
		dispatch.WithQueue(params.JobDefaultQueue),
		dispatch.WithMaxRetries(0),
	))
}
