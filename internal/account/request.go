package account

// HandleWarnings tells create_account what to do when validation produces
// non-fatal warnings.
type HandleWarnings string

const (
	// WarningsCreate creates the account anyway.
	WarningsCreate HandleWarnings = "create"
	// WarningsSubmit stores the request for staff approval.
	WarningsSubmit HandleWarnings = "submit"
	// WarningsWarn returns the warnings to the caller without creating
	// or submitting anything.
	WarningsWarn HandleWarnings = "warn"
)

// NewAccountRequest describes a requested account. It is immutable once
// constructed and travels as a job payload, so every field is
// JSON-serializable.
type NewAccountRequest struct {
	// Username is the requested account name.
	Username string `json:"username"`
	// RealName is the user's real name, or the group's display name.
	RealName string `json:"real_name"`
	// IsGroup reports whether this is a group account.
	IsGroup bool `json:"is_group"`
	// CalNetUID is the university identity number of an individual.
	// Zero for group accounts.
	CalNetUID int `json:"calnet_uid"`
	// CalLinkOID is the student-organization identity number of a group.
	// Zero means no organization affiliation.
	CalLinkOID int `json:"callink_oid"`
	// Email is the contact address for the requester.
	Email string `json:"email"`
	// EncryptedPassword is the RSA-encrypted password blob. Only the
	// trusted creation host holds the key to recover it.
	EncryptedPassword []byte `json:"encrypted_password"`
	// HandleWarnings selects the behavior when validation warns.
	HandleWarnings HandleWarnings `json:"handle_warnings"`
}

// WithHandleWarnings returns a copy of the request with a different
// warnings mode. The receiver is not modified.
func (r NewAccountRequest) WithHandleWarnings(mode HandleWarnings) NewAccountRequest {
	r.HandleWarnings = mode
	return r
}
