// Package badge holds the cart/wishlist count badges shown in page chrome.
// The counts are a best-effort display cache, deliberately not reconciled
// with the authoritative cart state a page holds.
package badge

import (
	"context"
	"errors"
)

// Counts are the chrome badge values for one customer.
type Counts struct {
	Cart     int `json:"cart_count"`
	Wishlist int `json:"wishlist_count"`
}

// Store is the volatile cache the badge counts live in.
type Store interface {
	Get(ctx context.Context, key string) (*Counts, error)
	Set(ctx context.Context, key string, counts Counts) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")
