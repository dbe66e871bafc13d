package httpserver

import (
	"github.com/gin-gonic/gin"

	"furnistore/internal/domain"
)

func (h *handlers) getOrder(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated)
		return
	}
	orderID, ok := pathID(c, "orderID")
	if !ok {
		return
	}

	detail, err := h.store.FetchOrder(c.Request.Context(), token, orderID)
	if err != nil {
		h.dropOnAuthFailure(token, err)
		h.respondError(c, err)
		return
	}
	respondOK(c, detail)
}

func (h *handlers) listOrders(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated)
		return
	}

	history, err := h.store.FetchUserOrders(c.Request.Context(), token)
	if err != nil {
		h.dropOnAuthFailure(token, err)
		h.respondError(c, err)
		return
	}
	respondOK(c, history)
}

func (h *handlers) getBadge(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated)
		return
	}

	counts, err := h.badges.Counts(c.Request.Context(), token)
	if err != nil {
		h.dropOnAuthFailure(token, err)
		h.respondError(c, err)
		return
	}
	respondOK(c, counts)
}
