package friendship

import "errors"

// Operation failures surfaced by the orchestrator. Every failure is scoped to
// the single operation that produced it; callers map these to their transport.
var (
	// ErrNotFound means the friendship id is unknown.
	ErrNotFound = errors.New("friendship not found")

	// ErrConflict means a pending or established record already exists for
	// the pair.
	ErrConflict = errors.New("friendship already exists for this pair")

	// ErrUnauthorized means the caller is not the party allowed to perform
	// the operation.
	ErrUnauthorized = errors.New("caller is not the counterpart of this friendship")

	// ErrUpstream means the user or notification service call failed.
	ErrUpstream = errors.New("upstream service call failed")

	// ErrInvalidInput means an identifier was malformed.
	ErrInvalidInput = errors.New("invalid input")
)
