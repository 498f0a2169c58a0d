package models

import (
	"time"

	"github.com/google/uuid"
)

// OData protocol versions distinguished by the metadata introspector.
const (
	ODataV2 = "v2"
	ODataV4 = "v4"
)

// Service is an onboarded SAP OData service. Entities is the catalog
// discovered from the service's $metadata document, never hand-authored.
type Service struct {
	ID                  uuid.UUID  `json:"id"`
	OrganizationID      uuid.UUID  `json:"organization_id"`
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
