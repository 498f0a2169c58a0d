package dto

import (
	"time"

	"github.com/google/uuid"
)

type GrantRequest struct {
	ServiceID   uuid.UUID           `json:"service_id"`
	Permissions map[string][]string `json:"permissions"`
}

type CreateAPIKeyRequest struct {
	Name               string         `json:"name"`
	Environment        string         `json:"environment"`
	Description        *string        `json:"description,omitempty"`
	RateLimitPerMinute int            `json:"rate_limit_per_minute,omitempty"`
	RateLimitPerDay    int            `json:"rate_limit_per_day,omitempty"`
	ExpiresAt          *time.Time     `json:"expires_at,omitempty"`
	Grants             []GrantRequest `json:"grants,omitempty"`
}

type UpdateAPIKeyRequest struct {
	Name               *string    `json:"name,omitempty"`
	Description        *string    `json:"description,omitempty"`
	RateLimitPerMinute *int       `json:"rate_limit_per_minute,omitempty"`
	RateLimitPerDay    *int       `json:"rate_limit_per_day,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
}

type RevokeAPIKeyRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type APIKeyResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Environment        string          `json:"environment"`
	Description        *string         `json:"description,omitempty"`
	MaskedKey          string          `json:"masked_key"`
	RateLimitPerMinute int             `json:"rate_limit_per_minute"`
	RateLimitPerDay    int             `json:"rate_limit_per_day"`
	ExpiresAt          *time.Time      `json:"expires_at,omitempty"`
	RevokedAt          *time.Time      `json:"revoked_at,omitempty"`
	RevokedReason      *string         `json:"revoked_reason,omitempty"`
	LastUsedAt         *time.Time      `json:"last_used_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	Grants             []GrantResponse `json:"grants,omitempty"`
}

// APIKeyCreatedResponse is the only response that ever carries the raw
// key. It is not reconstructable afterwards.
type APIKeyCreatedResponse struct {
	APIKeyResponse
	Key string `json:"key"`
}

type GrantResponse struct {
	ID          uuid.UUID           `json:"id"`
	APIKeyID    uuid.UUID           `json:"api_key_id"`
	ServiceID   uuid.UUID           `json:"service_id"`
	Permissions map[string][]string `json:"permissions"`
	CreatedAt   time.Time           `json:"created_at"`
}

type UpdateGrantRequest struct {
	Permissions map[string][]string `json:"permissions"`
}
