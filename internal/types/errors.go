package types

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every component. Wrap with fmt.Errorf("...: %w", err)
// and test with errors.Is.
var (
	// ErrInvalidInput marks a caller contract violation (empty history, zero price).
	ErrInvalidInput = errors.New("invalid input")

	// ErrCorruptState marks durable state that exists but cannot be trusted.
	ErrCorruptState = errors.New("corrupt state")

	// ErrIOFailure marks a storage read/write failure or a storage timeout.
	ErrIOFailure = errors.New("io failure")
)

var (
	// ErrPendingDecision is returned when a decision is recorded while the
	// previous one has not been learned from yet.
	ErrPendingDecision = fmt.Errorf("%w: a pending decision must be evaluated first", ErrInvalidInput)

	// ErrAlreadyEvaluated is returned when evaluation fields are written twice.
	ErrAlreadyEvaluated = fmt.Errorf("%w: decision already evaluated", ErrCorruptState)

	// ErrRecordNotFound is returned when a ledger id does not exist.
	ErrRecordNotFound = fmt.Errorf("%w: decision record not found", ErrCorruptState)
)
