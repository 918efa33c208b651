package model

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolNotFound means the pool is not initialized on-chain. Distinct
	// from an initialized pool with zero liquidity.
	ErrPoolNotFound = errors.New("pool not found")

	// ErrPositionNotFound means the position token id does not exist.
	ErrPositionNotFound = errors.New("position not found")

	// ErrPoolUnavailable means pool state could not be read, typically a
	// node or transport failure. The pool may well exist; dependent write
	// planning must not proceed.
	ErrPoolUnavailable = errors.New("pool unavailable")

	// ErrNoLiquidPool means no candidate pool configuration has liquidity.
	ErrNoLiquidPool = errors.New("no liquid pool")

	// ErrQuoteUnavailable means no quoting path produced a usable figure.
	// Callers must not substitute a default numeric value.
	ErrQuoteUnavailable = errors.New("quote unavailable")
)

// ValidationError reports malformed input: tick out of bounds, a disallowed
// fee tier, a fraction outside (0, 1]. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError for a field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// RevertError carries the best-effort decoded reason for a reverted
// execution transaction. Selector is always set; Reason may be empty when
// decoding failed at every level.
type RevertError struct {
	Selector string
	Reason   string
	Inner    *RevertError
}

func (e *RevertError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("reverted: %s: %s", e.describe(), e.Inner.Error())
	}
	return "reverted: " + e.describe()
}

func (e *RevertError) describe() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "selector " + e.Selector
}
