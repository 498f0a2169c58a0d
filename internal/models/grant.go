package models

import (
	"time"

	"github.com/google/uuid"
)

// Grant actions. Read is the only action the proxy currently forwards;
// the set is stored per entity so write actions can be added per grant.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// EntityWildcard grants an action set across every entity of a service.
const EntityWildcard = "*"

// PermissionSet maps an entity set name (or EntityWildcard) to the
// actions an API key may perform against it.
type PermissionSet map[string][]string

func (p PermissionSet) Allows(entity, action string) bool {
	for _, set := range []string{entity, EntityWildcard} {
		for _, a := range p[set] {
			if a == action {
				return true
			}
		}
	}
	return false
}

type AccessGrant struct {
	ID          uuid.UUID     `json:"id"`
	APIKeyID    uuid.UUID     `json:"api_key_id"`
	ServiceID   uuid.UUID     `json:"service_id"`
	Permissions PermissionSet `json:"permissions"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// UsageCounts is the per-kind breakdown of rows still referencing an
// entity whose deletion was requested.
type UsageCounts struct {
	Grants   int64 `json:"grants"`
	Services int64 `json:"services"`
}

func (u UsageCounts) Total() int64 {
	return u.Grants + u.Services
}
