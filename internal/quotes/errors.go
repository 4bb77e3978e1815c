package quotes

import (
	"errors"
	"fmt"

	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
	"github.com/ryancalacsan/quotecraft-sub000/validation"
)

var (
	// ErrNotFound covers both a missing record and a record outside the
	// caller's ownership/session scope; callers cannot tell the two apart.
	ErrNotFound = errors.New("quote not found")

	// ErrConflict means the atomic conditional write affected zero rows:
	// someone else already moved the quote. Callers should not retry.
	ErrConflict = errors.New("quote is no longer available")

	// ErrExpired is returned when a quote's validity window has passed.
	ErrExpired = errors.New("quote has expired")

	// ErrNoItems rejects checkout on a quote without line items.
	ErrNoItems = errors.New("quote has no line items")
)

// ValidationError carries field-scoped violations back to the caller.
type ValidationError struct {
	Fields validation.Violations
}

func (e *ValidationError) Error() string { return "validation failed" }

// TransitionError reports a status precondition failure (editing a non-draft,
// accepting a non-sent quote, ...). Each case carries its own user-facing
// message.
type TransitionError struct {
	From models.QuoteStatus
	Msg  string
}

func (e *TransitionError) Error() string { return e.Msg }

// UpstreamError wraps an infrastructure failure from the persistence layer or
// the payment processor. Logged with context; surfaced generically.
type UpstreamError struct {
	Op      string
	QuoteID uint
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: quote %d: %v", e.Op, e.QuoteID, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(op string, quoteID uint, err error) error {
	return &UpstreamError{Op: op, QuoteID: quoteID, Err: err}
}
