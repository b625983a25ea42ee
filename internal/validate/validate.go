// Package validate classifies account requests before anything is
// created or stored. Fatal errors can never be bypassed; warnings are
// advisory and the front-end decides what to do with them.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/cg505/ocflib/internal/account"
	"github.com/cg505/ocflib/params"
)

// Validator classifies a request into fatal errors and non-fatal
// warnings, both in a stable order. The returned error is for
// infrastructure failures only (e.g. the store is unreachable), never
// for a merely invalid request.
type Validator interface {
	Validate(ctx context.Context, req account.NewAccountRequest) (errors []string, warnings []string, err error)
}

// PendingChecker is the slice of the pending store the validator needs
// for its dedup predicates.
type PendingChecker interface {
	UsernamePending(ctx context.Context, username string) (bool, error)
	UserHasRequestPending(ctx context.Context, req account.NewAccountRequest) (bool, error)
}

var usernameRegex = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

// RequestValidator is the default rule set.
type RequestValidator struct {
	pending PendingChecker
}

// NewRequestValidator creates a validator over the given pending store.
func NewRequestValidator(pending PendingChecker) *RequestValidator {
	return &RequestValidator{pending: pending}
}

func (v *RequestValidator) Validate(ctx context.Context, req account.NewAccountRequest) ([]string, []string, error) {
	var errs, warnings []string

	errs = append(errs, syntaxErrors(req)...)

	if !req.IsGroup && req.CalNetUID == 0 {
		errs = append(errs, "an individual request must include a CalNet UID")
	}
	if req.IsGroup && req.CalNetUID != 0 {
		errs = append(errs, "a group request must not include a CalNet UID")
	}

	// The unique index on user_name backs this check up: two requests
	// that both pass here still cannot both insert.
	pending, err := v.pending.UsernamePending(ctx, req.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("validate: username pending check: %w", err)
	}
	if pending {
		errs = append(errs, fmt.Sprintf("username %q is already pending creation", req.Username))
	}

	if strings.Contains(strings.ToLower(req.Username), "ocf") {
		warnings = append(warnings, "username contains the letters 'ocf'")
	}

	hasPending, err := v.pending.UserHasRequestPending(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("validate: requester pending check: %w", err)
	}
	if hasPending {
		warnings = append(warnings, "you already have an account request pending review")
	}

	return errs, warnings, nil
}

// syntaxErrors checks fields one at a time in a fixed order so the
// resulting message list is stable.
func syntaxErrors(req account.NewAccountRequest) []string {
	var errs []string

	checks := []struct {
		field string
		err   error
	}{
		{"username", validation.Validate(req.Username,
			validation.Required,
			validation.Length(params.UsernameMinLength, params.UsernameMaxLength),
			validation.Match(usernameRegex).Error("must start with a letter and contain only lowercase letters and digits"),
		)},
		{"real name", validation.Validate(req.RealName,
			validation.Required,
			validation.Length(1, params.RealNameMaxLength),
		)},
		{"email", validation.Validate(req.Email,
			validation.Required,
			validation.Length(1, params.EmailMaxLength),
			is.Email,
		)},
		{"password", validation.Validate(req.EncryptedPassword,
			validation.Required,
			validation.Length(params.EncryptedPasswordLength, params.EncryptedPasswordLength).
				Error("encrypted blob has the wrong size"),
		)},
	}

	for _, c := range checks {
		if c.err != nil {
			errs = append(errs, fmt.Sprintf("%s: %s", c.field, c.err.Error()))
		}
	}
	return errs
}
