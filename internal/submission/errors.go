package submission

import "errors"

var (
	// ErrRequestNotFound means approve/reject named a username with no
	// stored row. This legitimately happens when two decisions race or
	// a decision job is redelivered after the row was already taken.
	ErrRequestNotFound = errors.New("no pending request for that username")
)
