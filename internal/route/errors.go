package route

import "errors"

// Sentinel errors for route graph operations. They signal caller bugs and are
// never retried.
var (
	// ErrInvalidState is returned when a mutation would break a structural
	// invariant, e.g. assigning a customer that is already routed.
	ErrInvalidState = errors.New("invalid route state")

	// ErrOutOfRange is returned for an index outside [0, route length].
	ErrOutOfRange = errors.New("route index out of range")

	// ErrPreconditionViolated is returned when a derived field is read
	// before propagation has run for that customer.
	ErrPreconditionViolated = errors.New("shadow state not propagated")
)
