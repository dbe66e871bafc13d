package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"furnistore/internal/checkout"
	"furnistore/internal/domain"
	"furnistore/internal/storeapi"
)

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// respondError converts a failure into envelope state. An unauthenticated
// failure carries the login target and the notice delay so the page can show
// the message before redirecting; an empty checkout cart carries its
// grace-period redirect the same way.
func (h *handlers) respondError(c *gin.Context, err error) {
	var verr *checkout.ValidationError
	var apiErr *domain.APIError

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{
			"success":        false,
			"error":          "Please login to continue",
			"login_url":      h.loginURL,
			"retry_after_ms": h.redirectDelay.Milliseconds(),
		})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not found"})
	case errors.Is(err, domain.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{
			"success":        false,
			"error":          "Your cart is empty",
			"redirect":       "/cart",
			"retry_after_ms": h.redirectDelay.Milliseconds(),
		})
	case errors.Is(err, domain.ErrInvalidSort):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown sort option"})
	case errors.Is(err, domain.ErrOutOfStock):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "This product is out of stock"})
	case errors.Is(err, checkout.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Your order is already being placed"})
	case errors.Is(err, domain.ErrSessionExpired):
		c.JSON(http.StatusGone, gin.H{"success": false, "error": "Session expired. Please reload the page."})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Please fill in all fields", "missing": verr.Missing})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": apiErr.Error()})
	case storeapi.IsTransient(err):
		h.logger.Printf("remote store call failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Temporary problem talking to the store. Please try again."})
	default:
		h.logger.Printf("unexpected failure: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Something went wrong. Please try again."})
	}
}

// bearerToken pulls the forwarded OAuth bearer token off the request. The
// edge never mints tokens; it only relays them to the remote store.
func bearerToken(c *gin.Context) (string, bool) {
	const prefix = "Bearer "
	auth := c.GetHeader("Authorization")
	if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
		return "", false
	}
	return auth[len(prefix):], true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func updatingKeys(ids map[int64]bool) map[string]bool {
	out := make(map[string]bool, len(ids))
	for id := range ids {
		out[strconv.FormatInt(id, 10)] = true
	}
	return out
}
