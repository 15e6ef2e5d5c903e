package ghost

import (
	"errors"
	"fmt"
)

// ErrMemberNotFound is returned when a member id does not exist.
var ErrMemberNotFound = errors.New("ghost member not found")

// APIError describes a non-2xx response from the Ghost Admin API.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ghost: %s %s returned %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}

// LinkageError is returned when a member's note blob cannot be parsed into a
// Stripe linkage.
type LinkageError struct {
	Reason string
	Err    error
}

func (e *LinkageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ghost: invalid stripe linkage: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("ghost: invalid stripe linkage: %s", e.Reason)
}

func (e *LinkageError) Unwrap() error {
	return e.Err
}
