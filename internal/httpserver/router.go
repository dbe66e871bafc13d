package httpserver

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// buildRouter wires routes for the storefront edge.
func buildRouter(logger *log.Logger, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Redis))

	h := newHandlers(deps, logger)
	api := router.Group("/api")
	{
		api.GET("/cart", h.getCart)
		api.PUT("/cart/items/:itemID", h.updateCartItem)
		api.DELETE("/cart/items/:itemID", h.removeCartItem)
		api.POST("/cart/products/:productID", h.addProductToCart)

		api.GET("/wishlist", h.getWishlist)
		api.DELETE("/wishlist/items/:itemID", h.removeWishlistItem)
		api.POST("/wishlist/items/:itemID/cart", h.addWishlistItemToCart)
		api.POST("/wishlist/products/:productID", h.addProductToWishlist)

		api.GET("/checkout", h.loadCheckout)
		api.POST("/checkout", h.submitCheckout)

		api.GET("/orders", h.listOrders)
		api.GET("/orders/:orderID", h.getOrder)

		api.GET("/badge", h.getBadge)
	}

	return router
}
