package models

import (
	"time"

	"github.com/google/uuid"
)

// API key environments. The environment is embedded in the visible key
// prefix so a leaked prod key is recognizable at a glance.
const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

type APIKey struct {
	ID                 uuid.UUID  `json:"id"`
	OrganizationID     uuid.UUID  `json:"organization_id"`
	Environment        string     `json:"environment"`
	Name               string     `json:"name"`
	Description        *string    `json:"description,omitempty"`
	KeyHash            string     `json:"-"`
	KeyPrefix          string     `json:"key_prefix"`
	KeyLast4           string     `json:"key_last4"`
	RateLimitPerMinute int        `json:"rate_limit_per_minute"`
	RateLimitPerDay    int        `json:"rate_limit_per_day"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	RevokedAt          *time.Time `json:"revoked_at,omitempty"`
	RevokedReason      *string    `json:"revoked_reason,omitempty"`
	LastUsedAt         *time.Time `json:"last_used_at,omitempty"`
	CreatedBy          uuid.UUID  `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (k *APIKey) Revoked() bool {
	return k.RevokedAt != nil
}

func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}

// MaskedKey is the only representation of the secret available after
// issuance, e.g. "sb_prod_1f0a9c2b3d4e...8f31".
func (k *APIKey) MaskedKey() string {
	return k.KeyPrefix + "..." + k.KeyLast4
}

func IsValidEnvironment(env string) bool {
	switch env {
	case EnvDev, EnvStaging, EnvProd:
		return true
	}
	return false
}
