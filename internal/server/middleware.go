package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"brazadash/internal/domain"
	"brazadash/internal/usecase"
)

const (
	ctxRequestID  = "request_id"
	ctxPrincipal  = "principal"
	ctxRestaurant = "restaurant"
)

// RequestID propagates X-Request-ID or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(ctxRequestID)),
		}
		if p, ok := principal(c); ok {
			fields = append(fields, zap.String("user_id", p.UserID))
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// Auth requires a valid bearer token and stores the caller's principal.
func Auth(auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abort(c, http.StatusUnauthorized, "Unauthorized", "bearer token required")
			return
		}
		p, err := auth.Verify(strings.TrimSpace(token))
		if err != nil {
			abort(c, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}
		c.Set(ctxPrincipal, p)
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principal(c)
		if !p.IsAdmin() {
			abort(c, http.StatusForbidden, "Forbidden", "admin only")
			return
		}
		c.Next()
	}
}

// RequireApprovedVendor resolves the caller's restaurant and rejects callers
// without one or whose restaurant is not approved yet.
func RequireApprovedVendor(catalog *usecase.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := principal(c)
		r, err := catalog.Repo.GetRestaurantByOwner(c.Request.Context(), p.UserID)
		if err != nil {
			var nf domain.ErrNotFound
			if errors.As(err, &nf) {
				abort(c, http.StatusForbidden, "Forbidden", "no restaurant for this account")
				return
			}
			respondErr(c, err)
			c.Abort()
			return
		}
		if !r.IsApproved {
			abort(c, http.StatusForbidden, "Forbidden", "restaurant not approved")
			return
		}
		c.Set(ctxRestaurant, r)
		c.Next()
	}
}

func principal(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(ctxPrincipal)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

func restaurant(c *gin.Context) *domain.Restaurant {
	v, _ := c.Get(ctxRestaurant)
	r, _ := v.(*domain.Restaurant)
	return r
}

func userID(c *gin.Context) string {
	p, _ := principal(c)
	return p.UserID
}
