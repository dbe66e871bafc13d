package httpserver

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"furnistore/internal/badge"
	"furnistore/internal/domain"
	"furnistore/internal/session"
	"furnistore/internal/storeapi"
)

type handlers struct {
	sessions      *session.Manager
	store         *storeapi.Client
	badges        *badge.Service
	logger        *log.Logger
	loginURL      string
	redirectDelay time.Duration
	checkoutTTL   time.Duration
	now           func() time.Time

	mu        sync.Mutex
	checkouts map[string]*finalizerEntry
}

func newHandlers(deps Deps, logger *log.Logger) *handlers {
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &handlers{
		sessions:      deps.Sessions,
		store:         deps.Store,
		badges:        deps.Badges,
		logger:        logger,
		loginURL:      deps.LoginURL,
		redirectDelay: deps.RedirectDelay,
		checkoutTTL:   ttl,
		now:           time.Now,
		checkouts:     make(map[string]*finalizerEntry),
	}
}

type cartPayload struct {
	domain.CartView
	Sort     domain.SortKey  `json:"sort"`
	Updating map[string]bool `json:"updating"`
}

func (h *handlers) cartData(sess *session.CartSession, view domain.CartView) cartPayload {
	return cartPayload{CartView: view, Sort: sess.Sort(), Updating: updatingKeys(sess.Updating())}
}

func (h *handlers) getCart(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated)
		return
	}

	sort := domain.SortKey(c.Query("sort"))
	sess := h.sessions.Cart(token)
	view, err := sess.Refresh(c.Request.Context(), sort)
	if err != nil {
		h.dropOnAuthFailure(token, err)
		h.respondError(c, err)
		return
	}
	respondOK(c, h.cartData(sess, view))
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *handlers) updateCartItem(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated)
		return
	}
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}

	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "quantity required"})
		return
	}

	sess := h.sessions.Cart(token)
	view, res, err := sess.SetQuantity(c.Request.Context(), itemID, *req.Quantity)
	if err != nil {
		h.dropOnAuthFailure(token, err)
		h.respondError(c, err)
		return
	}
	h.recordCounts(c, token, res)
	respondOK(c, h.cartData(sess, view))
}

func (h *handlers) removeCartItem(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated)
		return
	}
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}

	sess := h.sessions.Cart(token)
	view, res, err := sess.Remove(c.Request.Context(), itemID)
	if err != nil {
		h.dropOnAuthFailure(token, err)
		h.respondError(c, err)
		return
	}
	h.recordCounts(c, token, res)
	respondOK(c, h.cartData(sess, view))
}

type addToCartRequest struct {
	Quantity int `json:"quantity"`
}

func (h *handlers) addProductToCart(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated)
		return
	}
	productID, ok := pathID(c, "productID")
	if !ok {
		return
	}

	var req addToCartRequest
	_ = c.ShouldBindJSON(&req)
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	res, err := h.store.AddToCart(c.Request.Context(), token, productID, req.Quantity)
	if err != nil {
		h.dropOnAuthFailure(token, err)
		h.respondError(c, err)
		return
	}
	h.recordCounts(c, token, res)
	respondOK(c, res)
}

// dropOnAuthFailure evicts the customer's sessions and checkout flow once the
// backend rejects their token; stale optimistic state must not survive
// re-login.
func (h *handlers) dropOnAuthFailure(token string, err error) {
	if errors.Is(err, domain.ErrUnauthenticated) {
		h.sessions.Drop(token)
		h.dropFinalizer(token)
	}
}

func (h *handlers) recordCounts(c *gin.Context, token string, res *storeapi.MutationResult) {
	if res == nil {
		return
	}
	h.badges.Record(c.Request.Context(), token, res.CartCount, res.WishlistCount)
}
