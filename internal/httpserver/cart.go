package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"shophub-gateway/internal/client/cartservice"
	"shophub-gateway/internal/domain"
)

type cartResponse struct {
	Items    []domain.CartLine `json:"items"`
	Subtotal float64           `json:"subtotal"`
}

type itemRequest struct {
	ProductID  string `json:"productId" binding:"required"`
	MerchantID string `json:"merchantId" binding:"required"`
}

type quantityRequest struct {
	ProductID  string `json:"productId" binding:"required"`
	MerchantID string `json:"merchantId" binding:"required"`
	Quantity   int    `json:"quantity"`
}

func getCartHandler(logger *log.Logger, deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess, err := deps.AuthSvc.Current(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return
		}

		var lines []domain.CartLine
		if sess.Authenticated() {
			lines, err = deps.Carts.Get(ctx, sess.AccessToken, sess.UserID)
			if err != nil {
				logger.Printf("get server cart for user %s: %v", sess.UserID, err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "cart service unavailable"})
				return
			}
		} else {
			lines, err = deps.GuestCart.List(ctx)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
				return
			}
		}

		if lines == nil {
			lines = []domain.CartLine{}
		}
		c.JSON(http.StatusOK, cartResponse{Items: lines, Subtotal: domain.Subtotal(lines)})
	}
}

func addItemHandler(logger *log.Logger, deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req itemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productId and merchantId required"})
			return
		}

		ctx := c.Request.Context()
		product, err := deps.Products.Get(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			logger.Printf("fetch product %s: %v", req.ProductID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "product service unavailable"})
			return
		}
		offer, err := product.Offer(req.MerchantID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "merchant does not offer this product"})
			return
		}

		sess, err := deps.AuthSvc.Current(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return
		}

		if !sess.Authenticated() {
			line := domain.CartLine{
				ProductID:  product.ID,
				MerchantID: offer.MerchantID,
				Price:      offer.Price,
				Name:       product.Name,
				ImageURL:   product.ImageURL,
				Brand:      product.Brand,
			}
			if err := deps.GuestCart.Add(ctx, line, offer.Stock); err != nil {
				if domain.IsStockExceeded(err) {
					c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "add to cart failed"})
				return
			}
			c.Status(http.StatusNoContent)
			return
		}

		if err := addServerItem(ctx, deps, sess.AccessToken, sess.UserID, req, offer.Price, offer.Stock); err != nil {
			if domain.IsStockExceeded(err) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			logger.Printf("add server cart item for user %s: %v", sess.UserID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "cart service unavailable"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// addServerItem mirrors the guest upsert against the Cart Service: one unit
// per call, existing lines incremented via an absolute-quantity update.
func addServerItem(ctx context.Context, deps Deps, token, userID string, req itemRequest, price float64, stock int) error {
	lines, err := deps.Carts.Get(ctx, token, userID)
	if err != nil {
		return err
	}

	key := domain.LineKey{ProductID: req.ProductID, MerchantID: req.MerchantID}
	for _, line := range lines {
		if line.Key() == key {
			if line.Quantity+1 > stock {
				return &domain.StockExceededError{Available: stock}
			}
			return deps.Carts.Update(ctx, token, cartservice.Line{
				UserID:     userID,
				ProductID:  req.ProductID,
				MerchantID: req.MerchantID,
				Price:      line.Price,
				Quantity:   line.Quantity + 1,
			})
		}
	}

	if stock < 1 {
		return &domain.StockExceededError{Available: stock}
	}
	return deps.Carts.Add(ctx, token, cartservice.Line{
		UserID:     userID,
		ProductID:  req.ProductID,
		MerchantID: req.MerchantID,
		Price:      price,
		Quantity:   1,
	})
}

func setQuantityHandler(logger *log.Logger, deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req quantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productId and merchantId required"})
			return
		}

		ctx := c.Request.Context()
		key := domain.LineKey{ProductID: req.ProductID, MerchantID: req.MerchantID}

		stock := 0
		if req.Quantity > 0 {
			product, err := deps.Products.Get(ctx, req.ProductID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
					return
				}
				logger.Printf("fetch product %s: %v", req.ProductID, err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "product service unavailable"})
				return
			}
			offer, err := product.Offer(req.MerchantID)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "merchant does not offer this product"})
				return
			}
			stock = offer.Stock
		}

		sess, err := deps.AuthSvc.Current(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return
		}

		if !sess.Authenticated() {
			if err := deps.GuestCart.SetQuantity(ctx, key, req.Quantity, stock); err != nil {
				switch {
				case domain.IsStockExceeded(err):
					c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				case errors.Is(err, domain.ErrNotFound):
					c.JSON(http.StatusNotFound, gin.H{"error": "line not in cart"})
				default:
					c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
				}
				return
			}
			c.Status(http.StatusNoContent)
			return
		}

		if err := setServerQuantity(ctx, deps, sess.AccessToken, sess.UserID, key, req.Quantity, stock); err != nil {
			switch {
			case domain.IsStockExceeded(err):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			case errors.Is(err, domain.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "line not in cart"})
			default:
				logger.Printf("set server quantity for user %s: %v", sess.UserID, err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "cart service unavailable"})
			}
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func setServerQuantity(ctx context.Context, deps Deps, token, userID string, key domain.LineKey, quantity, stock int) error {
	lines, err := deps.Carts.Get(ctx, token, userID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if line.Key() != key {
			continue
		}
		payload := cartservice.Line{
			UserID:     userID,
			ProductID:  line.ProductID,
			MerchantID: line.MerchantID,
			Price:      line.Price,
			Quantity:   line.Quantity,
		}
		if quantity <= 0 {
			return deps.Carts.Remove(ctx, token, payload)
		}
		if quantity > stock {
			return &domain.StockExceededError{Available: stock}
		}
		payload.Quantity = quantity
		return deps.Carts.Update(ctx, token, payload)
	}
	return domain.ErrNotFound
}

func removeItemHandler(logger *log.Logger, deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req itemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productId and merchantId required"})
			return
		}

		ctx := c.Request.Context()
		key := domain.LineKey{ProductID: req.ProductID, MerchantID: req.MerchantID}

		sess, err := deps.AuthSvc.Current(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return
		}

		if !sess.Authenticated() {
			if err := deps.GuestCart.Remove(ctx, key); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed"})
				return
			}
			c.Status(http.StatusNoContent)
			return
		}

		// The remove endpoint needs the full line, so resolve it first.
		lines, err := deps.Carts.Get(ctx, sess.AccessToken, sess.UserID)
		if err != nil {
			logger.Printf("get server cart for user %s: %v", sess.UserID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "cart service unavailable"})
			return
		}
		for _, line := range lines {
			if line.Key() != key {
				continue
			}
			err := deps.Carts.Remove(ctx, sess.AccessToken, cartservice.Line{
				UserID:     sess.UserID,
				ProductID:  line.ProductID,
				MerchantID: line.MerchantID,
				Price:      line.Price,
				Quantity:   line.Quantity,
			})
			if err != nil {
				logger.Printf("remove server cart item for user %s: %v", sess.UserID, err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "cart service unavailable"})
				return
			}
			break
		}
		c.Status(http.StatusNoContent)
	}
}

func clearCartHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess, err := deps.AuthSvc.Current(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return
		}

		if sess.Authenticated() {
			if err := deps.Carts.Clear(ctx, sess.AccessToken, sess.UserID); err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": "cart service unavailable"})
				return
			}
			c.Status(http.StatusNoContent)
			return
		}

		if err := deps.GuestCart.Clear(ctx); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "clear failed"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
