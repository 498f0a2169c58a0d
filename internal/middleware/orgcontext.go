package middleware

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/sapbridge/sapbridge-api/internal/services"
)

const (
	// OrgHeader selects the organization a request acts on when the
	// user belongs to more than one.
	OrgHeader = "X-Organization-Id"

	AccessContextKey = "access_context"
)

// AccessResolver defines the methods needed by the organization middleware
type AccessResolver interface {
	ResolveContext(ctx context.Context, userID uuid.UUID, requestedOrgID *uuid.UUID) (*services.AccessContext, error)
	HasPermission(role, permission string) bool
}

// OrgContext resolves the acting organization and the caller's role in
// it. Must run after Auth.
func OrgContext(access AccessResolver) drift.HandlerFunc {
	return func(c *drift.Context) {
		userID := GetUserID(c)

		var requestedOrgID *uuid.UUID
		if header := c.GetHeader(OrgHeader); header != "" {
			orgID, err := uuid.Parse(header)
			if err != nil {
				c.BadRequest("invalid organization id")
				return
			}
			requestedOrgID = &orgID
		}

		ac, err := access.ResolveContext(c.Request.Context(), userID, requestedOrgID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrNoIdentity):
				c.Unauthorized("not authenticated")
			case errors.Is(err, services.ErrNoOrganization):
				c.Forbidden("user does not belong to any organization")
			case errors.Is(err, services.ErrAmbiguousOrg):
				c.BadRequest("multiple organizations, select one via " + OrgHeader)
			case errors.Is(err, services.ErrNotMember):
				c.Forbidden("not a member of this organization")
			default:
				c.InternalServerError("failed to resolve organization")
			}
			return
		}

		c.Set(AccessContextKey, ac)
		c.Next()
	}
}

// RequirePermission gates a route on the caller's role in the resolved
// organization. Must run after OrgContext.
func RequirePermission(access AccessResolver, permission string) drift.HandlerFunc {
	return func(c *drift.Context) {
		ac := GetAccessContext(c)
		if ac == nil {
			c.Forbidden("no organization context")
			return
		}
		if !access.HasPermission(ac.Role, permission) {
			c.Forbidden("insufficient permissions")
			return
		}
		c.Next()
	}
}

// GetAccessContext retrieves the resolved organization context (set by OrgContext)
func GetAccessContext(c *drift.Context) *services.AccessContext {
	if v, ok := c.Get(AccessContextKey); ok {
		if ac, ok := v.(*services.AccessContext); ok {
			return ac
		}
	}
	return nil
}

// GetOrgID retrieves the resolved organization ID from context
func GetOrgID(c *drift.Context) uuid.UUID {
	if ac := GetAccessContext(c); ac != nil {
		return ac.OrganizationID
	}
	return uuid.Nil
}
