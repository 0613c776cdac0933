package event

import "errors"

// All error kinds are recoverable and user-facing; the system stays usable
// after any of them.
var (
	// ErrNotInRoster is returned when an official registration is attempted
	// for a name absent from the roster. The operator should use the
	// walk-in flow instead.
	ErrNotInRoster = errors.New("name not found in the official roster")

	// ErrAlreadyRegistered is returned when the exact person (same name,
	// same phone) has already been registered.
	ErrAlreadyRegistered = errors.New("this person is already registered")

	// ErrMissingField is returned when a walk-in registration is submitted
	// without a name or phone number.
	ErrMissingField = errors.New("name and phone number are required")

	// ErrInvalidUploadFormat is returned when a roster upload has no valid
	// (name, phone) rows, or contains duplicate (name, phone) pairs.
	ErrInvalidUploadFormat = errors.New("invalid roster format")

	// ErrStorageQuota is returned when a settings write (template assets)
	// exceeds the configured storage budget.
	ErrStorageQuota = errors.New("storage quota exceeded")
)
