package session

import (
	"log"
	"sync"
	"time"
)

// StoreClient is the slice of the remote store client the sessions consume.
type StoreClient interface {
	cartClient
	wishlistClient
}

// Manager keeps one cart and one wishlist session per bearer token, scoped to
// a sliding TTL. Evicted sessions are closed so any in-flight result for them
// is discarded instead of applied.
type Manager struct {
	client StoreClient
	logger *log.Logger
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	carts     map[string]*cartEntry
	wishlists map[string]*wishlistEntry
}

type cartEntry struct {
	sess    *CartSession
	expires time.Time
}

type wishlistEntry struct {
	sess    *WishlistSession
	expires time.Time
}

func NewManager(client StoreClient, ttl time.Duration, logger *log.Logger) *Manager {
	return &Manager{
		client:    client,
		logger:    logger,
		ttl:       ttl,
		now:       time.Now,
		carts:     make(map[string]*cartEntry),
		wishlists: make(map[string]*wishlistEntry),
	}
}

// Cart returns the live cart session for token, creating one if needed. Each
// access slides the session's expiry.
func (m *Manager) Cart(token string) *CartSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweepLocked(now)

	e, ok := m.carts[token]
	if !ok {
		e = &cartEntry{sess: NewCartSession(m.client, token, m.logger)}
		m.carts[token] = e
	}
	e.expires = now.Add(m.ttl)
	return e.sess
}

// Wishlist returns the live wishlist session for token, creating one if
// needed.
func (m *Manager) Wishlist(token string) *WishlistSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweepLocked(now)

	e, ok := m.wishlists[token]
	if !ok {
		e = &wishlistEntry{sess: NewWishlistSession(m.client, token, m.logger)}
		m.wishlists[token] = e
	}
	e.expires = now.Add(m.ttl)
	return e.sess
}

// Drop closes and removes both sessions for token, e.g. after a 401 from the
// remote store invalidates the bearer token.
func (m *Manager) Drop(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.carts[token]; ok {
		e.sess.Close()
		delete(m.carts, token)
	}
	if e, ok := m.wishlists[token]; ok {
		e.sess.Close()
		delete(m.wishlists, token)
	}
}

func (m *Manager) sweepLocked(now time.Time) {
	for token, e := range m.carts {
		if now.After(e.expires) {
			e.sess.Close()
			delete(m.carts, token)
		}
	}
	for token, e := range m.wishlists {
		if now.After(e.expires) {
			e.sess.Close()
			delete(m.wishlists, token)
		}
	}
}
