package models

import (
	"time"

	"github.com/google/uuid"
)

type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeOAuth2 AuthType = "oauth2"
	AuthTypeCustom AuthType = "custom"
	AuthTypeAPIKey AuthType = "api_key"
)

func (t AuthType) Valid() bool {
	switch t {
	case AuthTypeNone, AuthTypeBasic, AuthTypeOAuth2, AuthTypeCustom, AuthTypeAPIKey:
		return true
	}
	return false
}

// AuthConfig stores third-party credentials for outbound SAP calls.
// Config holds non-secret settings as plain JSON; Secrets maps secret
// field names to ciphertext and never leaves the services layer.
type AuthConfig struct {
	ID             uuid.UUID         `json:"id"`
	OrganizationID uuid.UUID         `json:"organization_id"`
	Name           string            `json:"name"`
	AuthType       AuthType          `json:"auth_type"`
	Config         map[string]string `json:"config"`
	Secrets        map[string]string `json:"-"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// HasCredentials is what read paths expose instead of secret material.
func (c *AuthConfig) HasCredentials() bool {
	return len(c.Secrets) > 0
}
