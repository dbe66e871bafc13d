package httpserver

import (
	"github.com/gin-gonic/gin"

	"furnistore/internal/domain"
	"furnistore/internal/session"
)

type wishlistPayload struct {
	domain.WishlistView
	Removing map[string]bool `json:"removing"`
}

func wishlistData(sess *session.WishlistSession, view domain.WishlistView) wishlistPayload {
	return wishlistPayload{WishlistView: view, Removing: updatingKeys(sess.Removing())}
}

func (h *handlers) getWishlist(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated)
		return
	}

	sess := h.sessions.Wishlist(token)
	view, err := sess.Refresh(c.Request.Context())
	if err != nil {
		h.dropOnAuthFailure(token, err)
		h.respondError(c, err)
		return
	}
	respondOK(c, wishlistData(sess, view))
}

func (h *handlers) removeWishlistItem(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated)
		return
	}
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}

	sess := h.sessions.Wishlist(token)
	view, res, err := sess.Remove(c.Request.Context(), itemID)
	if err != nil {
		h.dropOnAuthFailure(token, err)
		h.respondError(c, err)
		return
	}
	h.recordCounts(c, token, res)
	respondOK(c, wishlistData(sess, view))
}

func (h *handlers) addWishlistItemToCart(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated)
		return
	}
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}

	var req addToCartRequest
	_ = c.ShouldBindJSON(&req)

	sess := h.sessions.Wishlist(token)
	res, err := sess.AddToCart(c.Request.Context(), itemID, req.Quantity)
	if err != nil {
		h.dropOnAuthFailure(token, err)
		h.respondError(c, err)
		return
	}
	h.recordCounts(c, token, res)
	respondOK(c, res)
}

func (h *handlers) addProductToWishlist(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated)
		return
	}
	productID, ok := pathID(c, "productID")
	if !ok {
		return
	}

	res, err := h.store.AddToWishlist(c.Request.Context(), token, productID)
	if err != nil {
		h.dropOnAuthFailure(token, err)
		h.respondError(c, err)
		return
	}
	h.recordCounts(c, token, res)
	respondOK(c, res)
}
