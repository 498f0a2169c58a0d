package handlers

import (
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/sapbridge/sapbridge-api/internal/middleware"
	"github.com/sapbridge/sapbridge-api/internal/models"
	"github.com/sapbridge/sapbridge-api/pkg/dto"
)

// GrantHandler manages the per-key access grants after issuance. Every
// route resolves the owning api key first so a grant id from another
// organization dead-ends in a 404.
type GrantHandler struct {
	grantService  GrantServiceInterface
	apiKeyService APIKeyServiceInterface
}

func NewGrantHandler(grantService GrantServiceInterface, apiKeyService APIKeyServiceInterface) *GrantHandler {
	return &GrantHandler{
		grantService:  grantService,
		apiKeyService: apiKeyService,
	}
}

func (h *GrantHandler) List(c *drift.Context) {
	key, ok := h.resolveKey(c)
	if !ok {
		return
	}

	grants, err := h.grantService.ListByAPIKey(c.Request.Context(), key.ID)
	if err != nil {
		c.InternalServerError("failed to list grants")
		return
	}

	response := make([]dto.GrantResponse, len(grants))
	for i, g := range grants {
		response[i] = grantResponse(g)
	}

	_ = c.JSON(200, response)
}

func (h *GrantHandler) Create(c *drift.Context) {
	key, ok := h.resolveKey(c)
	if !ok {
		return
	}

	var req dto.GrantRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	grant, err := h.grantService.Grant(c.Request.Context(), key.ID, req.ServiceID, key.OrganizationID, models.PermissionSet(req.Permissions))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(201, grantResponse(*grant))
}

func (h *GrantHandler) Update(c *drift.Context) {
	key, ok := h.resolveKey(c)
	if !ok {
		return
	}

	grantID, err := uuid.Parse(c.Param("grantId"))
	if err != nil {
		c.BadRequest("invalid grant id")
		return
	}

	var req dto.UpdateGrantRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	grant, err := h.grantService.UpdateGrant(c.Request.Context(), grantID, key.ID, models.PermissionSet(req.Permissions))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, grantResponse(*grant))
}

func (h *GrantHandler) Revoke(c *drift.Context) {
	key, ok := h.resolveKey(c)
	if !ok {
		return
	}

	grantID, err := uuid.Parse(c.Param("grantId"))
	if err != nil {
		c.BadRequest("invalid grant id")
		return
	}

	if err := h.grantService.RevokeGrant(c.Request.Context(), grantID, key.ID); err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "grant revoked"})
}

func (h *GrantHandler) resolveKey(c *drift.Context) (*models.APIKey, bool) {
	orgID := middleware.GetOrgID(c)

	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		c.BadRequest("invalid key id")
		return nil, false
	}

	key, err := h.apiKeyService.GetByID(c.Request.Context(), keyID, orgID)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return key, true
}
