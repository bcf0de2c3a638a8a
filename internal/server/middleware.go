package server

import (
	"fmt"
	"strings"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"
	authhandler "auction-marketplace/services/auth/handler"
	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

// SessionVerifier resolves a session token to its user
type SessionVerifier interface {
	Verify(token string) (models.User, error)
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":    c.Request.Method,
		"path":      c.Request.URL.Path,
		"status":    c.Writer.Status(),
		"latency":   time.Since(start).String(),
		"client_ip": c.ClientIP(),
		"user_id":   helpers.CurrentUserID(c),
	})
}

// SessionMiddleware attaches the signed-in user, if any, to the request.
// Anonymous requests pass through untouched.
func SessionMiddleware(sessions SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.Next()
			return
		}

		user, err := sessions.Verify(token)
		if err != nil {
			utils.Warn("SessionMiddleware: rejected session token", map[string]any{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		c.Set(helpers.UserKey, user)
		c.Next()
	}
}

// sessionToken prefers the cookie and falls back to a bearer header
func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(authhandler.CookieName); err == nil && token != "" {
		return token
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// RequireAuth rejects requests that carry no valid session
func RequireAuth(c *gin.Context) {
	if _, ok := helpers.CurrentUser(c); !ok {
		helpers.RespondError(c, "RequireAuth", fmt.Errorf("server: %w - %s", biddingerrors.ErrUnauthenticated, c.Request.URL.Path), nil)
		c.Abort()
		return
	}
	c.Next()
}
