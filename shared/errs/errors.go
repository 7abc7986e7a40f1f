// Package errs holds the sentinel errors shared by every service. Handlers map
// them to HTTP status codes with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// Lookup errors.
	ErrUserNotFound   = errors.New("user not found")
	ErrAlertNotFound  = errors.New("alert not found")
	ErrBudgetNotFound = errors.New("budget not found")
	ErrLinkNotFound   = errors.New("link not found")

	// Input errors.
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidURL   = fmt.Errorf("%w: url must be absolute with a host", ErrInvalidInput)
	ErrEmailExists  = errors.New("email already exists")

	// Auth errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")

	// Upstream and storage errors.
	ErrUnparseableSMS   = errors.New("could not process the transaction from SMS")
	ErrUpstreamDegraded = errors.New("upstream degraded")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Store wraps a driver error so callers can match it against ErrStoreUnavailable
// while the original cause stays in the chain.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// Upstream wraps an AI or network failure as ErrUpstreamDegraded.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamDegraded, err)
}
