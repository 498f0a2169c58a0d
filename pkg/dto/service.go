package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateServiceRequest struct {
	Name         string     `json:"name"`
	BaseURL      string     `json:"base_url"`
	ServicePath  string     `json:"service_path"`
	AuthConfigID *uuid.UUID `json:"auth_config_id,omitempty"`
}

type UpdateServiceRequest struct {
	Name            *string    `json:"name,omitempty"`
	BaseURL         *string    `json:"base_url,omitempty"`
	ServicePath     *string    `json:"service_path,omitempty"`
	AuthConfigID    *uuid.UUID `json:"auth_config_id,omitempty"`
	ClearAuthConfig bool       `json:"clear_auth_config,omitempty"`
}

type ServiceResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	BaseURL             string     `json:"base_url"`
	ServicePath         string     `json:"service_path"`
	AuthConfigID        *uuid.UUID `json:"auth_config_id,omitempty"`
	ODataVersion        *string    `json:"odata_version,omitempty"`
	Entities            []string   `json:"entities"`
	EntitiesRefreshedAt *time.Time `json:"entities_refreshed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IntrospectionResult reports the outcome of a metadata refresh without
// failing the surrounding request.
type IntrospectionResult struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Version string `json:"odata_version,omitempty"`
}

type RefreshEntitiesResponse struct {
	Service       ServiceResponse     `json:"service"`
	Introspection IntrospectionResult `json:"introspection"`
}
