package common

import "errors"

// Errors shared by the services. Handlers translate them into HTTP statuses.
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("operation not permitted for this user")
	ErrConflict        = errors.New("record conflicts with an existing one")
)
