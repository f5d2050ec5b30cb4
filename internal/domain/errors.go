package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the analytics core. The boundary layer translates these
// into user-facing responses; nothing here is retried internally.
var (
	// ErrNotFound: a portfolio, position or rule reference does not exist or
	// does not belong to the requesting owner.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientData: fewer price observations than the calculation
	// needs and no documented neutral default applies.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUpstreamUnavailable: the external price/broker collaborator is
	// unreachable. Retry policy belongs to the data-ingestion side.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNumericalFailure: a solver failed to converge or a matrix required
	// by the chosen method is singular.
	ErrNumericalFailure = errors.New("numerical failure")
)

// NumericalError wraps ErrNumericalFailure with the optimization or risk
// method that failed, so callers can surface "method X did not converge"
// without this core silently substituting a different method.
func NumericalError(method string, reason string) error {
	return fmt.Errorf("%s: %s: %w", method, reason, ErrNumericalFailure)
}
