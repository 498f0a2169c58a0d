package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/sapbridge/sapbridge-api/internal/models"
	"github.com/sapbridge/sapbridge-api/internal/services"
)

const (
	APIKeyKey      = "api_key"
	APIKeyOrgIDKey = "api_key_organization_id"
)

// APIKeyVerifier defines the methods needed by the API key middleware
type APIKeyVerifier interface {
	Verify(ctx context.Context, plainKey string) (*models.APIKey, error)
}

// APIKeyAuth creates middleware that authenticates requests using API keys
func APIKeyAuth(verifier APIKeyVerifier) drift.HandlerFunc {
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

		if !strings.HasPrefix(token, "sb_") {
			c.Unauthorized("invalid api key format")
			return
		}

		key, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrAPIKeyRevoked):
				c.Unauthorized("api key has been revoked")
			case errors.Is(err, services.ErrAPIKeyExpired):
				c.Unauthorized("api key has expired")
			default:
				c.Unauthorized("invalid api key")
			}
			return
		}

		c.Set(APIKeyKey, key)
		c.Set(APIKeyOrgIDKey, key.OrganizationID)
		c.Next()
	}
}

// GetAPIKey retrieves the verified key record from context (set by APIKeyAuth)
func GetAPIKey(c *drift.Context) *models.APIKey {
	if v, ok := c.Get(APIKeyKey); ok {
		if key, ok := v.(*models.APIKey); ok {
			return key
		}
	}
	return nil
}

// GetAPIKeyOrgID retrieves the key's organization ID from context
func GetAPIKeyOrgID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(APIKeyOrgIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}
