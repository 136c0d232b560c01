package api

import (
	"net/http"
	"strconv"
	"time"

	"coffeehouse-api/internal/util"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Context keys set by the auth middleware
const (
	ctxUserID  = "userID"
	ctxIsAdmin = "isAdmin"
	ctxTokenID = "tokenID"
)

// Session cookie names. Two names distinguish a regular session from an
// admin session.
const (
	userCookie  = "token"
	adminCookie = "adminToken"
)

// authRequired resolves the session cookie into an authenticated identity.
// The admin cookie wins when both are present.
func (h *Handler) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil {
			token, err = c.Cookie(userCookie)
		}
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		claims, err := h.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxIsAdmin, claims.IsAdmin)
		c.Set(ctxTokenID, claims.ID)
		c.Next()
	}
}

// adminRequired gates the back office. The admin claim alone is not trusted;
// the account's admin flag is re-checked so a demoted admin loses access
// before their token expires.
func (h *Handler) adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ctxIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		userID := c.MustGet(ctxUserID).(primitive.ObjectID)
		user, err := h.auth.CurrentUser(c.Request.Context(), userID)
		if err != nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Next()
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
