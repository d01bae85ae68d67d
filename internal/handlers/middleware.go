package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// tokenMiddleware enforces the shared API token when one is configured.
// Browsers cannot set headers on a WebSocket upgrade, so ?token= is accepted too.
func (h *Handler) tokenMiddleware(c *gin.Context) {
	if h.opts.APIToken == "" {
		c.Next()
		return
	}

	token := c.Query("token")
	if token == "" {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing Authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid Authorization header format",
			})
			return
		}
		token = parts[1]
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(h.opts.APIToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid token",
		})
		return
	}
	c.Next()
}
