package api

import (
	"net/http"
	"strings"

	"invest-ledger-go/internal/auth"

	"github.com/gin-gonic/gin"
)

const claimsContextKey = "authClaims"

// requireAdmin rejects requests without a valid admin bearer token.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Request.Header.Get("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(header, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			c.Abort()
			return
		}

		claims, err := s.auth.Validate(header[len(bearer):])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		if claims.Role != auth.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// claimsFrom returns the validated claims stored by requireAdmin, or
// nil on unauthenticated routes.
func claimsFrom(c *gin.Context) *auth.Claims {
	raw, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := raw.(*auth.Claims)
	return claims
}
