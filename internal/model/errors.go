package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrNoEligibleParticipants = errors.New("no eligible participants")
	ErrInvalidSelectionMethod = errors.New("invalid selection method")
	ErrTransactionFailed      = errors.New("transaction failed")
)

// NotFoundError reports a missing meeting or participant.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// TransactionFailedError reports an aborted atomic write. Nothing from the
// operation was committed, so the caller may retry.
type TransactionFailedError struct {
	Op  string
	Err error
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("%s: transaction failed: %v", e.Op, e.Err)
}

func (e *TransactionFailedError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransactionFailed) match.
func (e *TransactionFailedError) Is(target error) bool {
	return target == ErrTransactionFailed
}

// IsRetryable reports whether err is transient infrastructure contention.
// Caller-input errors are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
