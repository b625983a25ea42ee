package account

// Status is the outcome of a create_account invocation.
type Status string

const (
	// StatusCreated means the account was created successfully.
	StatusCreated Status = "created"
	// StatusFlagged means the request was flagged and not submitted; the
	// response carries the warnings and the caller may resubmit with
	// WarningsSubmit or WarningsCreate.
	StatusFlagged Status = "flagged"
	// StatusPending means the request was flagged and stored; staff will
	// review it and the requester will hear back by mail.
	StatusPending Status = "pending"
	// StatusRejected means the request can never be created as submitted.
	StatusRejected Status = "rejected"
)

// NewAccountResponse is the result of a create_account job.
type NewAccountResponse struct {
	Status Status `json:"status"`
	// Errors holds fatal errors followed by warnings, in the order the
	// validator produced them.
	Errors []string `json:"errors"`
}
