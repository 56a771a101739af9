package checkout

import (
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// ErrSubmissionInFlight is returned when a submission is already running
// for the same cart.
var ErrSubmissionInFlight = pkgerrors.New(pkgerrors.CodeConflict, "a checkout submission is already in progress")

// ValidationError lists every required field that was missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout: missing required fields: %s", strings.Join(e.Fields, ", "))
}

// Unwrap exposes the shared error code so HTTP handlers can map it.
func (e *ValidationError) Unwrap() error {
	details := make(map[string]string, len(e.Fields))
	for _, field := range e.Fields {
		if field == fieldCart {
			details[field] = "must contain at least one item"
			continue
		}
		details[field] = "is required"
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "checkout details are incomplete").WithDetails(details)
}

// EmptyCartError is what a submission of an empty cart fails with.
func EmptyCartError() *ValidationError {
	return &ValidationError{Fields: []string{fieldCart}}
}

// SubmissionError reports that the order message was not acknowledged.
// The cart is left intact so the shopper can retry.
type SubmissionError struct {
	Cause error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("checkout: order not delivered: %v", e.Cause)
}

func (e *SubmissionError) Unwrap() error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, e.Cause, "order could not be delivered, please try again")
}
