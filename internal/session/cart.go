package session

import (
	"context"
	"log"
	"sync"

	"furnistore/internal/domain"
	"furnistore/internal/storeapi"
)

type cartClient interface {
	FetchCart(ctx context.Context, token string, sort domain.SortKey) (*domain.CartView, error)
	UpdateCartItem(ctx context.Context, token string, itemID int64, quantity int) (*storeapi.MutationResult, error)
	RemoveCartItem(ctx context.Context, token string, itemID int64) (*storeapi.MutationResult, error)
}

// CartSession owns one page's cart state: a disposable local copy of the
// server-authoritative cart, mutated optimistically and rebuilt on every
// refresh. Edits to different line items may be in flight at the same time;
// edits to the same line item are queued behind a per-item gate so a stale
// response can never overwrite a newer one.
type CartSession struct {
	client cartClient
	token  string
	logger *log.Logger

	mu     sync.Mutex
	items  []domain.LineItem
	sort   domain.SortKey
	gen    uint64
	closed bool
	gates  map[int64]*itemGate
}

type itemGate struct {
	ch   chan struct{}
	refs int
}

// NewCartSession builds a session bound to one customer token. The session
// holds no data until the first Refresh.
func NewCartSession(client cartClient, token string, logger *log.Logger) *CartSession {
	return &CartSession{
		client: client,
		token:  token,
		logger: logger,
		gates:  make(map[int64]*itemGate),
	}
}

// Refresh replaces the local cart wholesale with the remote store's current
// state, ordered by sort. Changing the sort key is a full re-fetch; the
// session never re-sorts locally.
func (s *CartSession) Refresh(ctx context.Context, sort domain.SortKey) (domain.CartView, error) {
	if !sort.Valid() {
		return s.View(), domain.ErrInvalidSort
	}
	view, err := s.client.FetchCart(ctx, s.token, sort)
	if err != nil {
		return s.View(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.CartView{}, domain.ErrSessionExpired
	}
	s.gen++
	s.sort = sort
	s.items = append([]domain.LineItem(nil), view.Items...)
	return s.viewLocked(), nil
}

// View returns the current projection with aggregates recomputed from the
// line-item set.
func (s *CartSession) View() domain.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Sort returns the key the current item ordering was fetched with.
func (s *CartSession) Sort() domain.SortKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sort
}

// Updating reports the line-item ids with an edit in flight or queued. The
// caller renders these as disabled; other items remain editable.
func (s *CartSession) Updating() map[int64]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]bool, len(s.gates))
	for id, g := range s.gates {
		if g.refs > 0 {
			out[id] = true
		}
	}
	return out
}

// SetQuantity applies an absolute quantity to a line item: one remote update,
// then an optimistic local replacement of quantity and subtotal derived from
// the request rather than a re-fetch. A quantity below 1 is a removal, never
// a zero-quantity line. On failure the prior state is left untouched.
func (s *CartSession) SetQuantity(ctx context.Context, itemID int64, quantity int) (domain.CartView, *storeapi.MutationResult, error) {
	if quantity < 1 {
		return s.Remove(ctx, itemID)
	}

	if err := s.acquire(ctx, itemID); err != nil {
		return s.View(), nil, err
	}
	defer s.release(itemID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.CartView{}, nil, domain.ErrSessionExpired
	}
	idx := indexOf(s.items, itemID)
	if idx < 0 && s.gen == 0 {
		// The session holds no snapshot yet, e.g. right after an eviction or
		// an edge restart. Prime it once before deciding the item is gone.
		sort := s.sort
		s.mu.Unlock()
		if _, err := s.Refresh(ctx, sort); err != nil {
			return s.View(), nil, err
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return domain.CartView{}, nil, domain.ErrSessionExpired
		}
		idx = indexOf(s.items, itemID)
	}
	if idx < 0 {
		s.mu.Unlock()
		return s.viewUnlocked(), nil, domain.ErrNotFound
	}
	price := s.items[idx].ProductPrice
	gen := s.gen
	s.mu.Unlock()

	res, err := s.client.UpdateCartItem(ctx, s.token, itemID, quantity)
	if err != nil {
		return s.View(), nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.CartView{}, res, domain.ErrSessionExpired
	}
	// A refresh landed while the update was in flight; its snapshot already
	// reflects server truth, so the optimistic write is dropped.
	if s.gen == gen {
		if idx := indexOf(s.items, itemID); idx >= 0 {
			s.items[idx].Quantity = quantity
			s.items[idx].Subtotal = price * float64(quantity)
		}
	}
	return s.viewLocked(), res, nil
}

// Remove deletes a line item: one remote call, then the line is filtered out
// of the local sequence so aggregates recompute correctly. Removing an id the
// session does not hold is a no-op.
func (s *CartSession) Remove(ctx context.Context, itemID int64) (domain.CartView, *storeapi.MutationResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.CartView{}, nil, domain.ErrSessionExpired
	}
	miss := indexOf(s.items, itemID) < 0
	unprimed := s.gen == 0
	sort := s.sort
	s.mu.Unlock()

	if miss && unprimed {
		if _, err := s.Refresh(ctx, sort); err != nil {
			return s.View(), nil, err
		}
		s.mu.Lock()
		miss = indexOf(s.items, itemID) < 0
		s.mu.Unlock()
	}
	if miss {
		return s.View(), nil, nil
	}

	if err := s.acquire(ctx, itemID); err != nil {
		return s.View(), nil, err
	}
	defer s.release(itemID)

	s.mu.Lock()
	gen := s.gen
	if indexOf(s.items, itemID) < 0 {
		// A queued earlier removal already took it out.
		view := s.viewLocked()
		s.mu.Unlock()
		return view, nil, nil
	}
	s.mu.Unlock()

	res, err := s.client.RemoveCartItem(ctx, s.token, itemID)
	if err != nil {
		return s.View(), nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.CartView{}, res, domain.ErrSessionExpired
	}
	if s.gen == gen {
		if idx := indexOf(s.items, itemID); idx >= 0 {
			s.items = append(s.items[:idx], s.items[idx+1:]...)
		}
	}
	return s.viewLocked(), res, nil
}

// Close marks the session dead. Late-arriving responses are discarded rather
// than applied to a view nobody is looking at.
func (s *CartSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *CartSession) viewLocked() domain.CartView {
	items := append([]domain.LineItem(nil), s.items...)
	return domain.NewCartView(items)
}

func (s *CartSession) viewUnlocked() domain.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// acquire takes the per-item gate, queueing behind any edit already in
// flight for the same item.
func (s *CartSession) acquire(ctx context.Context, itemID int64) error {
	s.mu.Lock()
	g, ok := s.gates[itemID]
	if !ok {
		g = &itemGate{ch: make(chan struct{}, 1)}
		s.gates[itemID] = g
	}
	g.refs++
	s.mu.Unlock()

	select {
	case g.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		g.refs--
		if g.refs == 0 {
			delete(s.gates, itemID)
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}

func (s *CartSession) release(itemID int64) {
	s.mu.Lock()
	g := s.gates[itemID]
	g.refs--
	if g.refs == 0 {
		delete(s.gates, itemID)
	}
	s.mu.Unlock()
	<-g.ch
}

func indexOf(items []domain.LineItem, itemID int64) int {
	for i, item := range items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}
