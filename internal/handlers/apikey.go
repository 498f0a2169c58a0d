package handlers

import (
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/sapbridge/sapbridge-api/internal/middleware"
	"github.com/sapbridge/sapbridge-api/internal/models"
	"github.com/sapbridge/sapbridge-api/internal/services"
	"github.com/sapbridge/sapbridge-api/pkg/dto"
)

type APIKeyHandler struct {
	apiKeyService APIKeyServiceInterface
	grantService  GrantServiceInterface
}

func NewAPIKeyHandler(apiKeyService APIKeyServiceInterface, grantService GrantServiceInterface) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyService: apiKeyService,
		grantService:  grantService,
	}
}

func (h *APIKeyHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	orgID := middleware.GetOrgID(c)

	var req dto.CreateAPIKeyRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	input := services.IssueKeyInput{
		OrganizationID:     orgID,
		Environment:        req.Environment,
		Name:               req.Name,
		Description:        req.Description,
		RateLimitPerMinute: req.RateLimitPerMinute,
		RateLimitPerDay:    req.RateLimitPerDay,
		ExpiresAt:          req.ExpiresAt,
		CreatedBy:          userID,
	}

	var (
		key      *models.APIKey
		plainKey string
		grants   []models.AccessGrant
		err      error
	)

	ctx := c.Request.Context()

	if len(req.Grants) > 0 {
		grantInputs := make([]services.GrantInput, len(req.Grants))
		for i, g := range req.Grants {
			grantInputs[i] = services.GrantInput{
				ServiceID:   g.ServiceID,
				Permissions: models.PermissionSet(g.Permissions),
			}
		}
		key, plainKey, grants, err = h.apiKeyService.IssueWithGrants(ctx, input, grantInputs)
	} else {
		key, plainKey, err = h.apiKeyService.Issue(ctx, input)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := dto.APIKeyCreatedResponse{
		APIKeyResponse: apiKeyResponse(key, grants),
		Key:            plainKey,
	}

	_ = c.JSON(201, response)
}

func (h *APIKeyHandler) List(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	keys, err := h.apiKeyService.List(c.Request.Context(), orgID)
	if err != nil {
		c.InternalServerError("failed to list api keys")
		return
	}

	response := make([]dto.APIKeyResponse, len(keys))
	for i := range keys {
		response[i] = apiKeyResponse(&keys[i], nil)
	}

	_ = c.JSON(200, response)
}

func (h *APIKeyHandler) Get(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		c.BadRequest("invalid key id")
		return
	}

	ctx := c.Request.Context()

	key, err := h.apiKeyService.GetByID(ctx, keyID, orgID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	grants, err := h.grantService.ListByAPIKey(ctx, key.ID)
	if err != nil {
		c.InternalServerError("failed to list grants")
		return
	}

	_ = c.JSON(200, apiKeyResponse(key, grants))
}

func (h *APIKeyHandler) Update(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		c.BadRequest("invalid key id")
		return
	}

	var req dto.UpdateAPIKeyRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	key, err := h.apiKeyService.Update(c.Request.Context(), keyID, orgID, services.UpdateKeyInput{
		Name:               req.Name,
		Description:        req.Description,
		RateLimitPerMinute: req.RateLimitPerMinute,
		RateLimitPerDay:    req.RateLimitPerDay,
		ExpiresAt:          req.ExpiresAt,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, apiKeyResponse(key, nil))
}

func (h *APIKeyHandler) Revoke(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		c.BadRequest("invalid key id")
		return
	}

	// The reason body is optional
	var req dto.RevokeAPIKeyRequest
	_ = c.BindJSON(&req)

	if err := h.apiKeyService.Revoke(c.Request.Context(), keyID, orgID, req.Reason); err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "api key revoked"})
}

func apiKeyResponse(key *models.APIKey, grants []models.AccessGrant) dto.APIKeyResponse {
	response := dto.APIKeyResponse{
		ID:                 key.ID,
		Name:               key.Name,
		Environment:        key.Environment,
		Description:        key.Description,
		MaskedKey:          key.MaskedKey(),
		RateLimitPerMinute: key.RateLimitPerMinute,
		RateLimitPerDay:    key.RateLimitPerDay,
		ExpiresAt:          key.ExpiresAt,
		RevokedAt:          key.RevokedAt,
		RevokedReason:      key.RevokedReason,
		LastUsedAt:         key.LastUsedAt,
		CreatedAt:          key.CreatedAt,
	}
	for _, g := range grants {
		response.Grants = append(response.Grants, grantResponse(g))
	}
	return response
}

func grantResponse(g models.AccessGrant) dto.GrantResponse {
	return dto.GrantResponse{
		ID:          g.ID,
		APIKeyID:    g.APIKeyID,
		ServiceID:   g.ServiceID,
		Permissions: map[string][]string(g.Permissions),
		CreatedAt:   g.CreatedAt,
	}
}
