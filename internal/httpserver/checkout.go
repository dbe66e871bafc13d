package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"furnistore/internal/checkout"
	"furnistore/internal/domain"
)

type finalizerEntry struct {
	fin     *checkout.Finalizer
	expires time.Time
}

// finalizer returns the live checkout flow for token, creating one if needed.
// The flow is shared across requests so the single-submit guard holds even
// when the user double-clicks across two HTTP calls. Flows carry the same
// sliding TTL as the page sessions; an abandoned checkout is closed and
// evicted on sweep rather than kept alive with its cart snapshot and any
// armed redirect timer.
func (h *handlers) finalizer(token string) *checkout.Finalizer {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	h.sweepFinalizersLocked(now)

	e, ok := h.checkouts[token]
	if !ok {
		e = &finalizerEntry{fin: checkout.NewFinalizer(h.store, token, h.redirectDelay, func(target string) {
			h.logger.Printf("checkout redirect fired: %s", target)
		}, h.logger)}
		h.checkouts[token] = e
	}
	e.expires = now.Add(h.checkoutTTL)
	return e.fin
}

func (h *handlers) dropFinalizer(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e, ok := h.checkouts[token]; ok {
		e.fin.Close()
		delete(h.checkouts, token)
	}
}

func (h *handlers) sweepFinalizersLocked(now time.Time) {
	for token, e := range h.checkouts {
		if now.After(e.expires) {
			e.fin.Close()
			delete(h.checkouts, token)
		}
	}
}

type checkoutPayload struct {
	Cart domain.CartView `json:"cart"`
	Flow checkout.State  `json:"state"`
	// The storefront offers a single payment method.
	PaymentMethod string `json:"payment_method"`
}

func (h *handlers) loadCheckout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated)
		return
	}

	fin := h.finalizer(token)
	cart, err := fin.Load(c.Request.Context())
	if err != nil {
		h.dropOnAuthFailure(token, err)
		h.respondError(c, err)
		return
	}
	respondOK(c, checkoutPayload{Cart: cart, Flow: fin.State(), PaymentMethod: domain.PaymentMethodCOD})
}

type submitRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	Email           string                 `json:"email"`
}

func (h *handlers) submitCheckout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.respondError(c, domain.ErrUnauthenticated)
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid checkout payload"})
		return
	}

	fin := h.finalizer(token)
	conf, err := fin.Submit(c.Request.Context(), req.ShippingAddress, req.Email)
	if err != nil {
		h.dropOnAuthFailure(token, err)
		h.respondError(c, err)
		return
	}

	// The backend cleared the cart; retire the flow and the stale badge.
	h.dropFinalizer(token)
	h.sessions.Drop(token)
	h.badges.Invalidate(c.Request.Context(), token)
	respondCreated(c, conf)
}
