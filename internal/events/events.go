// Package events broadcasts account lifecycle events to interested
// subscribers. Publishing is fire-and-forget: no acknowledgment is
// observed and a lost subscriber never blocks the publisher.
package events

import (
	"context"

	"github.com/cg505/ocflib/internal/account"
)

// Event is one of the closed set of lifecycle event variants. Each
// variant carries its own payload; there is no string-tagged dispatch.
type Event interface {
	EventName() string
}

// AccountSubmitted is published when a flagged request is stored for
// staff review. Reasons holds the warnings that flagged it.
type AccountSubmitted struct {
	Request account.NewAccountRequest `json:"request"`
	Reasons []string                  `json:"reasons"`
}

func (AccountSubmitted) EventName() string { return "account_submitted" }

// AccountCreated is published after the provisioner finishes an account.
type AccountCreated struct {
	Request account.NewAccountRequest `json:"request"`
}

func (AccountCreated) EventName() string { return "account_created" }

// AccountApproved is published when staff approve a stored request.
type AccountApproved struct {
	Request account.NewAccountRequest `json:"request"`
}

func (AccountApproved) EventName() string { return "account_approved" }

// AccountRejected is published when staff reject a stored request.
type AccountRejected struct {
	Request account.NewAccountRequest `json:"request"`
	Reason  string                    `json:"reason"`
}

func (AccountRejected) EventName() string { return "account_rejected" }

// Publisher broadcasts lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}
