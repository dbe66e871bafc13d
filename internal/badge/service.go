package badge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"furnistore/internal/domain"
)

type countFetcher interface {
	FetchCart(ctx context.Context, token string, sort domain.SortKey) (*domain.CartView, error)
	FetchWishlist(ctx context.Context, token string) (*domain.WishlistView, error)
}

// Service serves badge counts from the store, refreshing whole on a miss.
// Concurrent misses for the same customer collapse into one refresh.
type Service struct {
	store   Store
	fetcher countFetcher
	logger  *log.Logger
	group   singleflight.Group
}

func NewService(store Store, fetcher countFetcher, logger *log.Logger) *Service {
	return &Service{store: store, fetcher: fetcher, logger: logger}
}

// Counts returns the badge counts for the customer behind token. On a cache
// miss the cart and wishlist are fetched concurrently and the result cached.
func (s *Service) Counts(ctx context.Context, token string) (Counts, error) {
	key := customerKey(token)

	counts, err := s.store.Get(ctx, key)
	if err == nil {
		return *counts, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Printf("badge store read failed, refreshing: %v", err)
	}

	fresh, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.refresh(ctx, key, token)
	})
	if err != nil {
		return Counts{}, err
	}
	return fresh.(Counts), nil
}

// Record folds the counts a mutation response carried into the cached value.
// Missing fields keep their previous value; failures are logged and dropped,
// never surfaced, since the badge is display-only.
func (s *Service) Record(ctx context.Context, token string, cartCount, wishlistCount *int) {
	if cartCount == nil && wishlistCount == nil {
		return
	}
	key := customerKey(token)

	counts := Counts{}
	if prev, err := s.store.Get(ctx, key); err == nil {
		counts = *prev
	}
	if cartCount != nil {
		counts.Cart = *cartCount
	}
	if wishlistCount != nil {
		counts.Wishlist = *wishlistCount
	}
	if err := s.store.Set(ctx, key, counts); err != nil {
		s.logger.Printf("badge store write failed: %v", err)
	}
}

// Invalidate drops the cached counts, e.g. after an order clears the cart.
func (s *Service) Invalidate(ctx context.Context, token string) {
	if err := s.store.Delete(ctx, customerKey(token)); err != nil {
		s.logger.Printf("badge store delete failed: %v", err)
	}
}

func (s *Service) refresh(ctx context.Context, key, token string) (Counts, error) {
	var counts Counts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		view, err := s.fetcher.FetchCart(gctx, token, domain.SortDefault)
		if err != nil {
			return err
		}
		counts.Cart = len(view.Items)
		return nil
	})
	g.Go(func() error {
		view, err := s.fetcher.FetchWishlist(gctx, token)
		if err != nil {
			return err
		}
		counts.Wishlist = len(view.Items)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Counts{}, err
	}

	if err := s.store.Set(ctx, key, counts); err != nil {
		s.logger.Printf("badge store write failed: %v", err)
	}
	return counts, nil
}

// customerKey hashes the bearer token so raw credentials never become cache
// keys.
func customerKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
