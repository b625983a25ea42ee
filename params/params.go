package params

import "time"

const (
	// UsernameMinLength and UsernameMaxLength bound account usernames.
	UsernameMinLength = 3
	UsernameMaxLength = 16

	// RealNameMaxLength bounds the real name column of a stored request.
	RealNameMaxLength = 255

	// EmailMaxLength bounds the email column of a stored request.
	EmailMaxLength = 255

	// EncryptedPasswordLength is the exact size of the RSA-encrypted
	// password blob stored with a pending request.
	EncryptedPasswordLength = 512

	WorkerPollInterval  = time.Second
	WorkerStopTimeout   = 30 * time.Second
	JobDefaultQueue     = "default"
	JobMaxRetries       = 3
	EventStreamMaxLen   = 10000
	ProgressLogMaxLines = 256
)
