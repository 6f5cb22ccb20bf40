package service

import "errors"

// ValidationError is a rejection of a write because a field value or a
// domain invariant check failed. The message identifies the failing rule
// and is safe to surface to the caller.
type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

// Validation errors surfaced by the write paths. The first failing check
// wins; none are retried.
var (
	ErrInvalidDistance = ValidationError("Invalid distance value")
	ErrInvalidDuration = ValidationError("Invalid duration value")
	ErrNonZeroOffset   = ValidationError("Timezone offset is not zero")
	ErrStartNotDefined = ValidationError("Start time not defined")
	ErrUserNotDefined  = ValidationError("User not defined")
	ErrDuplicateDay    = ValidationError("Another session already exists for this user+day")

	ErrInvalidUsername = ValidationError("Invalid username value")
	ErrInvalidPassword = ValidationError("Invalid password value")
)

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

// Non-validation service errors.
var (
	ErrForbidden            = errors.New("forbidden")
	ErrUserAlreadyExists    = errors.New("user with this username already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid username or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)
