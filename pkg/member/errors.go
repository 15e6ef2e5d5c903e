package member

import "errors"

var (
	// ErrProductMismatch is returned when a subscription belongs to a product
	// line this service is not responsible for. No store access happens.
	ErrProductMismatch = errors.New("subscription product does not match configured product")

	// ErrMemberConflict is returned when more than one member record shares an
	// email. The store state is corrupted; it is never auto-resolved.
	ErrMemberConflict = errors.New("multiple members share one email")
)
