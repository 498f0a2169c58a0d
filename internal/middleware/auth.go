package middleware

import (
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/sapbridge/sapbridge-api/internal/services"
)

// Context keys set by Auth and read by handlers via GetUserID and
// GetUserEmail.
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

// bearerToken extracts the credential from an Authorization header.
// The scheme comparison is case insensitive per RFC 7235.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	return token, true
}

// Auth authenticates dashboard requests with an access token. API key
// authentication is a separate middleware with its own header parsing.
func Auth(jwtService *services.JWTService) drift.HandlerFunc {
	return func(c *drift.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			c.Unauthorized("invalid authorization header format")
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)

		c.Next()
	}
}

// GetUserID returns the authenticated user id, or uuid.Nil on routes
// that never passed through Auth.
func GetUserID(c *drift.Context) uuid.UUID {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	if v, ok := c.Get(UserEmailKey); ok {
		if email, ok := v.(string); ok {
			return email
		}
	}
	return ""
}
