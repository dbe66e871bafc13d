package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated indicates the backend rejected the bearer token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrEmptyCart indicates an operation that requires a non-empty cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrSessionExpired indicates the page session was evicted; any in-flight
	// result for it must be discarded.
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidSort indicates an unrecognized sort key.
	ErrInvalidSort = errors.New("invalid sort key")

	// ErrOutOfStock indicates a wishlist item that cannot be added to the cart.
	ErrOutOfStock = errors.New("product out of stock")
)

// APIError carries a business error reported by the remote store with
// success=false. Message is surfaced to the user verbatim when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote store error (status %d)", e.Status)
	}
	return e.Message
}
