package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	keyUserID   = "user_id"
	keyUsername = "username"
	keyRole     = "user_role"
)

func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "Authorization header required"
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
		return "", "Invalid authorization header format"
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", "Token is empty"
	}
	return token, ""
}

// AuthMiddleware requires a valid access token and stores its identity on
// the request context.
func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := bearerToken(c.GetHeader("Authorization"))
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": problem})
			return
		}

		claims, err := parseAs(tokenString, tokenTypeAccess, accessTokenSecret)
		if err != nil {
			msg := "Invalid or malformed token"
			switch {
			case errors.Is(err, ErrTokenExpired):
				msg = "Token expired"
			case errors.Is(err, ErrInvalidTokenType):
				msg = "Access token required"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(keyUserID, claims.UserID)
		c.Set(keyUsername, claims.Username)
		c.Set(keyRole, claims.Role)

		c.Next()
	}
}

// RequireRole lets the request through when the caller holds any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User role not found"})
			return
		}

		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}

// RequireMember only admits socio logins that carry a member code.
func RequireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User role not found"})
			return
		}
		if _, ok := id.MemberCode(); !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Member login required"})
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) (int, bool) {
	userID, exists := c.Get(keyUserID)
	if !exists {
		return 0, false
	}

	id, ok := userID.(int)
	return id, ok
}

func GetRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(keyRole)
	if !exists {
		return "", false
	}

	r, ok := role.(string)
	return r, ok
}

// CurrentIdentity rebuilds the caller's identity from the request context.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		return Identity{}, false
	}
	role, ok := GetRole(c)
	if !ok {
		return Identity{}, false
	}
	username := c.GetString(keyUsername)
	return Identity{UserID: userID, Username: username, Role: role}, true
}
