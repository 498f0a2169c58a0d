package dto

import (
	"time"

	"github.com/google/uuid"
)

// CredentialFields carries submitted credential material. It only ever
// travels request-side; responses expose HasCredentials instead.
type CredentialFields struct {
	Username     string          `json:"username,omitempty"`
	Password     string          `json:"password,omitempty"`
	ClientID     string          `json:"client_id,omitempty"`
	ClientSecret string          `json:"client_secret,omitempty"`
	TokenURL     string          `json:"token_url,omitempty"`
	Scope        string          `json:"scope,omitempty"`
	HeaderName   string          `json:"header_name,omitempty"`
	HeaderValue  string          `json:"header_value,omitempty"`
	APIKey       string          `json:"api_key,omitempty"`
	Raw          []RawCredential `json:"raw,omitempty"`
}

type RawCredential struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Secret *bool  `json:"secret,omitempty"`
}

type CreateAuthConfigRequest struct {
	Name        string           `json:"name"`
	AuthType    string           `json:"auth_type"`
	Credentials CredentialFields `json:"credentials"`
}

type UpdateAuthConfigRequest struct {
	Name        *string           `json:"name,omitempty"`
	AuthType    *string           `json:"auth_type,omitempty"`
	Credentials *CredentialFields `json:"credentials,omitempty"`
}

type AuthConfigResponse struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	AuthType       string            `json:"auth_type"`
	Config         map[string]string `json:"config"`
	HasCredentials bool              `json:"has_credentials"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
