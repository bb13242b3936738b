package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed posting or query input.
	ErrValidation = errors.New("accounting: validation failed")
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrTooFewLines indicates less than two lines on a manual journal.
	ErrTooFewLines = errors.New("accounting: journal requires at least two lines")
	// ErrNotFound indicates a missing account, posting or period.
	ErrNotFound = errors.New("accounting: not found")
	// ErrNoOutstandingBalance rejects a payment against a settled counterparty.
	ErrNoOutstandingBalance = errors.New("accounting: counterparty has no outstanding balance")
	// ErrAmountExceedsBalance rejects a payment larger than the outstanding balance.
	ErrAmountExceedsBalance = errors.New("accounting: payment exceeds outstanding balance")
	// ErrConcurrencyConflict indicates the store aborted a serialized write; retry the whole operation.
	ErrConcurrencyConflict = errors.New("accounting: concurrent update detected")
	// ErrPersistence wraps store failures.
	ErrPersistence = errors.New("accounting: persistence failure")
	// ErrDuplicateReference indicates a payment reference already posted for the counterparty.
	ErrDuplicateReference = errors.New("accounting: reference already posted")
	// ErrPeriodClosed indicates the posting date falls inside a closed period.
	ErrPeriodClosed = errors.New("accounting: period closed")
	// ErrAlreadyReversed indicates the posting already has a reversal.
	ErrAlreadyReversed = errors.New("accounting: posting already reversed")
	// ErrAccountReferenced blocks class or side changes on accounts with entries.
	ErrAccountReferenced = errors.New("accounting: account referenced by journal entries")
	// ErrDuplicateCode indicates the account code is taken.
	ErrDuplicateCode = errors.New("accounting: account code already registered")
	// ErrMappingNotFound indicates account mapping missing.
	ErrMappingNotFound = errors.New("accounting: account mapping not found")
	// ErrSourceConflict indicates the source link already exists.
	ErrSourceConflict = errors.New("accounting: source link conflict")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("accounting: %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFound wraps ErrNotFound with the missing identifier.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

// Persistence wraps a driver error so callers can match ErrPersistence.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
