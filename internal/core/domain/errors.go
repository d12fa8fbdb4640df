package domain

import "errors"

// Failure taxonomy. Handlers map these onto HTTP statuses; adapters map
// storage errors onto them so callers never see driver errors directly.
var (
	// validation failures
	ErrWeakSecret   = errors.New("password must be at least 6 characters")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrMissingField = errors.New("missing required field")

	// auth failures: deliberately generic so callers cannot tell an
	// unknown email from a bad password, or why a token was refused
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")

	// authenticated but insufficient role
	ErrForbidden = errors.New("forbidden")

	// conflict failures
	ErrDuplicateIdentity    = errors.New("an account with this email already exists")
	ErrDuplicatePetition    = errors.New("a pending admin request already exists")
	ErrAlreadyPrivileged    = errors.New("account already holds admin privileges")
	ErrRequestNotActionable = errors.New("request not found or already decided")

	// not found
	ErrAccountNotFound = errors.New("account not found")

	// storage unreachable; callers may retry
	ErrDependency = errors.New("storage dependency unavailable")
)
