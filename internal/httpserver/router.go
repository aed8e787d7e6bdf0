package httpserver

import (
	"context"
	"errors"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shophub-gateway/internal/client/cartservice"
	"shophub-gateway/internal/client/productservice"
	"shophub-gateway/internal/domain"
	"shophub-gateway/internal/session"
)

type authService interface {
	Login(ctx context.Context, email, password string) (session.Session, error)
	Current(ctx context.Context) (session.Session, error)
	Logout(ctx context.Context) error
}

type guestCartStore interface {
	List(ctx context.Context) ([]domain.CartLine, error)
	Add(ctx context.Context, line domain.CartLine, stockLimit int) error
	SetQuantity(ctx context.Context, key domain.LineKey, quantity, stockLimit int) error
	Remove(ctx context.Context, key domain.LineKey) error
	Clear(ctx context.Context) error
}

type productCatalog interface {
	Get(ctx context.Context, productID string) (*productservice.Product, error)
}

type cartBackend interface {
	Get(ctx context.Context, token, userID string) ([]domain.CartLine, error)
	Add(ctx context.Context, token string, line cartservice.Line) error
	Update(ctx context.Context, token string, line cartservice.Line) error
	Remove(ctx context.Context, token string, line cartservice.Line) error
	Clear(ctx context.Context, token, userID string) error
}

// Deps carries the gateway's collaborators into the router.
type Deps struct {
	AuthSvc   authService
	GuestCart guestCartStore
	Products  productCatalog
	Carts     cartBackend
	StorePing func(context.Context) error
}

// buildRouter wires routes for the gateway.
func buildRouter(logger *log.Logger, deps Deps) (*gin.Engine, error) {
	switch {
	case deps.AuthSvc == nil:
		return nil, errors.New("auth service required")
	case deps.GuestCart == nil:
		return nil, errors.New("guest cart store required")
	case deps.Products == nil:
		return nil, errors.New("product catalog required")
	case deps.Carts == nil:
		return nil, errors.New("cart backend required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestIDMiddleware(), gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	// Browser-facing; the storefront origin is not known at build time.
	router.Use(cors.Default())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.StorePing))

	router.POST("/auth/login", loginHandler(deps.AuthSvc))
	router.POST("/auth/logout", logoutHandler(deps.AuthSvc))
	router.GET("/auth/me", meHandler(deps.AuthSvc))

	router.GET("/cart", getCartHandler(logger, deps))
	router.POST("/cart/items", addItemHandler(logger, deps))
	router.PUT("/cart/items/quantity", setQuantityHandler(logger, deps))
	router.DELETE("/cart/items", removeItemHandler(logger, deps))
	router.DELETE("/cart", clearCartHandler(deps))

	return router, nil
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
