package session

import (
	"context"
	"log"
	"sync"

	"furnistore/internal/domain"
	"furnistore/internal/storeapi"
)

type wishlistClient interface {
	FetchWishlist(ctx context.Context, token string) (*domain.WishlistView, error)
	RemoveWishlistItem(ctx context.Context, token string, itemID int64) (*storeapi.MutationResult, error)
	AddToCart(ctx context.Context, token string, productID int64, quantity int) (*storeapi.MutationResult, error)
}

// WishlistSession owns one page's wishlist state, with the same per-item
// in-flight discipline as the cart session.
type WishlistSession struct {
	client wishlistClient
	token  string
	logger *log.Logger

	mu      sync.Mutex
	items   []domain.WishlistItem
	primed  bool
	closed  bool
	pending map[int64]bool
}

func NewWishlistSession(client wishlistClient, token string, logger *log.Logger) *WishlistSession {
	return &WishlistSession{
		client:  client,
		token:   token,
		logger:  logger,
		pending: make(map[int64]bool),
	}
}

// Refresh replaces the local wishlist with the remote store's current state.
func (s *WishlistSession) Refresh(ctx context.Context) (domain.WishlistView, error) {
	view, err := s.client.FetchWishlist(ctx, s.token)
	if err != nil {
		return s.View(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.WishlistView{}, domain.ErrSessionExpired
	}
	s.items = append([]domain.WishlistItem(nil), view.Items...)
	s.primed = true
	return s.viewLocked(), nil
}

// View returns the current projection with the item count recomputed.
func (s *WishlistSession) View() domain.WishlistView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Removing reports the wishlist-item ids with a removal in flight.
func (s *WishlistSession) Removing() map[int64]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]bool, len(s.pending))
	for id, busy := range s.pending {
		if busy {
			out[id] = true
		}
	}
	return out
}

// Remove deletes a wishlist entry and filters it out of the local sequence on
// success. Removing an unknown id is a no-op, and so is a second removal for
// an item already in flight.
func (s *WishlistSession) Remove(ctx context.Context, itemID int64) (domain.WishlistView, *storeapi.MutationResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.WishlistView{}, nil, domain.ErrSessionExpired
	}
	if s.indexLocked(itemID) < 0 && !s.primed {
		// No snapshot yet; prime once before treating the id as unknown.
		s.mu.Unlock()
		if _, err := s.Refresh(ctx); err != nil {
			return s.View(), nil, err
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return domain.WishlistView{}, nil, domain.ErrSessionExpired
		}
	}
	if s.indexLocked(itemID) < 0 {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, nil, nil
	}
	if s.pending[itemID] {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, nil, nil
	}
	s.pending[itemID] = true
	s.mu.Unlock()

	res, err := s.client.RemoveWishlistItem(ctx, s.token, itemID)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, itemID)
	if s.closed {
		return domain.WishlistView{}, res, domain.ErrSessionExpired
	}
	if err != nil {
		return s.viewLocked(), nil, err
	}
	if idx := s.indexLocked(itemID); idx >= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	}
	return s.viewLocked(), res, nil
}

// AddToCart moves one unit of a wishlist item into the cart. Items the
// backend reported out of stock are rejected locally without a remote call.
// The item stays on the wishlist.
func (s *WishlistSession) AddToCart(ctx context.Context, itemID int64, quantity int) (*storeapi.MutationResult, error) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.ErrSessionExpired
	}
	idx := s.indexLocked(itemID)
	if idx < 0 && !s.primed {
		s.mu.Unlock()
		if _, err := s.Refresh(ctx); err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, domain.ErrSessionExpired
		}
		idx = s.indexLocked(itemID)
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	item := s.items[idx]
	s.mu.Unlock()

	if !item.InStock {
		return nil, domain.ErrOutOfStock
	}
	return s.client.AddToCart(ctx, s.token, item.ProductID, quantity)
}

// Close marks the session dead; late responses are discarded.
func (s *WishlistSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *WishlistSession) viewLocked() domain.WishlistView {
	items := append([]domain.WishlistItem(nil), s.items...)
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return domain.WishlistView{Items: items, ItemCount: len(items)}
}

func (s *WishlistSession) indexLocked(itemID int64) int {
	for i, item := range s.items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}
