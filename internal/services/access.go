package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sapbridge/sapbridge-api/internal/database"
	"github.com/sapbridge/sapbridge-api/internal/models"
)

// Context resolution outcomes. Each is a distinct condition the route
// layer maps to its own response; none overlap.
var (
	ErrNoIdentity     = errors.New("no authenticated identity")
	ErrNoOrganization = errors.New("no organization resolvable for this user")
	ErrAmbiguousOrg   = errors.New("user belongs to multiple organizations, one must be selected")
	ErrNotMember      = errors.New("not a member of this organization")
)

// MembershipCache is the read accelerant in front of the membership
// table. Implementations must degrade to a miss when unavailable.
type MembershipCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Del(ctx context.Context, key string)
}

// Static role → permission table. Owner implicitly holds everything.
// Permissions gate control-plane operations; they are unrelated to the
// per-key entity grants the ledger manages.
var rolePermissions = map[string][]string{
	models.RoleAdmin: {
		"organization:read",
		"members:*",
		"services:*",
		"auth_configs:*",
		"api_keys:*",
		"grants:*",
	},
	models.RoleDeveloper: {
		"organization:read",
		"members:read",
		"services:read",
		"auth_configs:read",
		"api_keys:read",
		"grants:read",
	},
}

type AccessContext struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Role           string    `json:"role"`
}

type AccessService struct {
	db    *database.DB
	cache MembershipCache
	ttl   time.Duration
}

func NewAccessService(db *database.DB, cache MembershipCache, ttl time.Duration) *AccessService {
	return &AccessService{db: db, cache: cache, ttl: ttl}
}

// ResolveContext establishes which organization a request acts on and
// the caller's role in it. With no explicit selection, a single
// membership is auto-selected; several memberships are never guessed
// between.
func (s *AccessService) ResolveContext(ctx context.Context, userID uuid.UUID, requestedOrgID *uuid.UUID) (*AccessContext, error) {
	if userID == uuid.Nil {
		return nil, ErrNoIdentity
	}

	memberships, err := s.memberships(ctx, userID)
	if err != nil {
		return nil, err
	}

	if requestedOrgID != nil {
		for _, m := range memberships {
			if m.OrganizationID == *requestedOrgID {
				return &AccessContext{OrganizationID: m.OrganizationID, Role: m.Role}, nil
			}
		}
		return nil, ErrNotMember
	}

	switch len(memberships) {
	case 0:
		return nil, ErrNoOrganization
	case 1:
		return &AccessContext{OrganizationID: memberships[0].OrganizationID, Role: memberships[0].Role}, nil
	default:
		return nil, ErrAmbiguousOrg
	}
}

// HasPermission matches a "resource:action" permission string against
// the static table: exact match, a literal "*", or "resource:*".
func (s *AccessService) HasPermission(role, permission string) bool {
	if role == models.RoleOwner {
		return true
	}

	resource, _, ok := strings.Cut(permission, ":")
	if !ok {
		return false
	}

	for _, held := range rolePermissions[role] {
		if held == permission || held == "*" || held == resource+":*" {
			return true
		}
	}
	return false
}

// InvalidateUser drops the cached membership list. Membership
// mutations call this after the durable write commits, never before,
// so a concurrent reader cannot re-populate the cache with stale rows.
func (s *AccessService) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	s.cache.Del(ctx, membershipCacheKey(userID))
}

func (s *AccessService) memberships(ctx context.Context, userID uuid.UUID) ([]AccessContext, error) {
	key := membershipCacheKey(userID)

	if cached, ok := s.cache.Get(ctx, key); ok {
		var memberships []AccessContext
		if err := json.Unmarshal([]byte(cached), &memberships); err == nil {
			return memberships, nil
		}
		// Unreadable entry, drop it and fall through to the store.
		s.cache.Del(ctx, key)
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT organization_id, role
		FROM organization_members
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := []AccessContext{}
	for rows.Next() {
		var m AccessContext
		if err := rows.Scan(&m.OrganizationID, &m.Role); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}

	if encoded, err := json.Marshal(memberships); err == nil {
		s.cache.Set(ctx, key, string(encoded), s.ttl)
	}

	return memberships, nil
}

func membershipCacheKey(userID uuid.UUID) string {
	return "memberships:" + userID.String()
}
