package bridge

import "errors"

var (
	// ErrInvalidAmount rejects a zero or missing source amount.
	ErrInvalidAmount = errors.New("source amount must be greater than zero")

	// ErrValueMismatch rejects a call whose attached value does not equal
	// the required total exactly.
	ErrValueMismatch = errors.New("attached value does not match required total")

	// ErrSlippageExceeded fails a request whose swap output is below the
	// minimum destination amount.
	ErrSlippageExceeded = errors.New("output amount below minimum destination amount")

	// ErrUnauthorizedConfigChange rejects a fee-config mutation from a
	// caller that is not the authorized operator.
	ErrUnauthorizedConfigChange = errors.New("caller is not authorized to change fee configuration")

	// ErrExternalCollaboratorFailure wraps swap adapter or router failures.
	ErrExternalCollaboratorFailure = errors.New("external collaborator call failed")
)
