package handlers

import (
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/sapbridge/sapbridge-api/internal/middleware"
	"github.com/sapbridge/sapbridge-api/internal/models"
	"github.com/sapbridge/sapbridge-api/internal/services"
	"github.com/sapbridge/sapbridge-api/pkg/dto"
)

// AuthConfigHandler exposes stored SAP credentials. Secrets are
// write-only through this surface: responses carry HasCredentials and
// the non-secret config, never decrypted values.
type AuthConfigHandler struct {
	authConfigService AuthConfigServiceInterface
}

func NewAuthConfigHandler(authConfigService AuthConfigServiceInterface) *AuthConfigHandler {
	return &AuthConfigHandler{authConfigService: authConfigService}
}

func (h *AuthConfigHandler) Create(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	var req dto.CreateAuthConfigRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	cfg, err := h.authConfigService.Create(c.Request.Context(), orgID, req.Name, models.AuthType(req.AuthType), credentialFields(req.Credentials))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(201, authConfigResponse(cfg))
}

func (h *AuthConfigHandler) List(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	configs, err := h.authConfigService.List(c.Request.Context(), orgID)
	if err != nil {
		c.InternalServerError("failed to list auth configurations")
		return
	}

	response := make([]dto.AuthConfigResponse, len(configs))
	for i := range configs {
		response[i] = authConfigResponse(&configs[i])
	}

	_ = c.JSON(200, response)
}

func (h *AuthConfigHandler) Get(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	configID, err := uuid.Parse(c.Param("configId"))
	if err != nil {
		c.BadRequest("invalid auth config id")
		return
	}

	cfg, err := h.authConfigService.GetByID(c.Request.Context(), configID, orgID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, authConfigResponse(cfg))
}

func (h *AuthConfigHandler) Update(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	configID, err := uuid.Parse(c.Param("configId"))
	if err != nil {
		c.BadRequest("invalid auth config id")
		return
	}

	var req dto.UpdateAuthConfigRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	input := services.UpdateAuthConfigInput{Name: req.Name}
	if req.AuthType != nil {
		authType := models.AuthType(*req.AuthType)
		input.AuthType = &authType
	}
	if req.Credentials != nil {
		fields := credentialFields(*req.Credentials)
		input.Fields = &fields
	}

	cfg, err := h.authConfigService.Update(c.Request.Context(), configID, orgID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, authConfigResponse(cfg))
}

func (h *AuthConfigHandler) Delete(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	configID, err := uuid.Parse(c.Param("configId"))
	if err != nil {
		c.BadRequest("invalid auth config id")
		return
	}

	if err := h.authConfigService.Delete(c.Request.Context(), configID, orgID); err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "auth configuration deleted"})
}

func credentialFields(in dto.CredentialFields) services.CredentialFields {
	fields := services.CredentialFields{
		Username:     in.Username,
		Password:     in.Password,
		ClientID:     in.ClientID,
		ClientSecret: in.ClientSecret,
		TokenURL:     in.TokenURL,
		Scope:        in.Scope,
		HeaderName:   in.HeaderName,
		HeaderValue:  in.HeaderValue,
		APIKey:       in.APIKey,
	}
	for _, raw := range in.Raw {
		fields.Raw = append(fields.Raw, services.RawCredential{
			Key:    raw.Key,
			Value:  raw.Value,
			Secret: raw.Secret,
		})
	}
	return fields
}

func authConfigResponse(cfg *models.AuthConfig) dto.AuthConfigResponse {
	return dto.AuthConfigResponse{
		ID:             cfg.ID,
		Name:           cfg.Name,
		AuthType:       string(cfg.AuthType),
		Config:         cfg.Config,
		HasCredentials: cfg.HasCredentials(),
		CreatedAt:      cfg.CreatedAt,
		UpdatedAt:      cfg.UpdatedAt,
	}
}
