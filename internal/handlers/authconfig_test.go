package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sapbridge/sapbridge-api/internal/middleware"
	"github.com/sapbridge/sapbridge-api/internal/models"
	"github.com/sapbridge/sapbridge-api/internal/services"
	"github.com/sapbridge/sapbridge-api/pkg/dto"
	"github.com/sapbridge/sapbridge-api/tests/testutil"
)

func TestAuthConfigHandler_Create_NeverEchoesSecrets(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockConfigs := new(testutil.MockAuthConfigService)
	handler := NewAuthConfigHandler(mockConfigs)

	cfg := &models.AuthConfig{
		ID:             uuid.New(),
		OrganizationID: identity.orgID,
		Name:           "sap basic",
		AuthType:       models.AuthTypeBasic,
		Config:         map[string]string{"username": "SAPUSER"},
		Secrets:        map[string]string{"password": "AAAA-ciphertext"},
	}

	mockConfigs.On("Create", mock.Anything, identity.orgID, "sap basic", models.AuthTypeBasic,
		services.CredentialFields{Username: "SAPUSER", Password: "hunter2-secret"}).
		Return(cfg, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Post("/auth-configs", handler.Create)

	rec := postJSON(t, app, "/auth-configs", dto.CreateAuthConfigRequest{
		Name:     "sap basic",
		AuthType: "basic",
		Credentials: dto.CredentialFields{
			Username: "SAPUSER",
			Password: "hunter2-secret",
		},
	}, identity.authHeaders())

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.AuthConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, cfg.ID, response.ID)
	assert.True(t, response.HasCredentials)
	assert.Equal(t, "SAPUSER", response.Config["username"])

	// Neither the plaintext nor the ciphertext may surface
	assert.NotContains(t, rec.Body.String(), "hunter2-secret")
	assert.NotContains(t, rec.Body.String(), "ciphertext")

	mockConfigs.AssertExpectations(t)
}

func TestAuthConfigHandler_Create_InvalidAuthType(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockConfigs := new(testutil.MockAuthConfigService)
	handler := NewAuthConfigHandler(mockConfigs)

	mockConfigs.On("Create", mock.Anything, identity.orgID, "bad", models.AuthType("kerberos"), mock.Anything).
		Return(nil, services.NewValidationError("auth_type"))

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Post("/auth-configs", handler.Create)

	rec := postJSON(t, app, "/auth-configs", dto.CreateAuthConfigRequest{
		Name:     "bad",
		AuthType: "kerberos",
	}, identity.authHeaders())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "auth_type")
}

func TestAuthConfigHandler_Update_PartialCredentials(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockConfigs := new(testutil.MockAuthConfigService)
	handler := NewAuthConfigHandler(mockConfigs)

	configID := uuid.New()
	updated := &models.AuthConfig{
		ID:       configID,
		Name:     "sap basic",
		AuthType: models.AuthTypeBasic,
		Config:   map[string]string{"username": "NEWUSER"},
		Secrets:  map[string]string{"password": "kept-ciphertext"},
	}

	// Only the username changes; the absent password field must reach
	// the service as nil so the stored secret survives.
	mockConfigs.On("Update", mock.Anything, configID, identity.orgID,
		mock.MatchedBy(func(input services.UpdateAuthConfigInput) bool {
			return input.Fields != nil &&
				input.Fields.Username == "NEWUSER" &&
				input.Fields.Password == ""
		})).
		Return(updated, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Patch("/auth-configs/:configId", handler.Update)

	rec := patchJSON(t, app, "/auth-configs/"+configID.String(), dto.UpdateAuthConfigRequest{
		Credentials: &dto.CredentialFields{Username: "NEWUSER"},
	}, identity.authHeaders())

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.AuthConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.HasCredentials)
	assert.NotContains(t, rec.Body.String(), "kept-ciphertext")

	mockConfigs.AssertExpectations(t)
}

func TestAuthConfigHandler_Get_OtherOrgIsNotFound(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleDeveloper)
	mockConfigs := new(testutil.MockAuthConfigService)
	handler := NewAuthConfigHandler(mockConfigs)

	configID := uuid.New()
	mockConfigs.On("GetByID", mock.Anything, configID, identity.orgID).Return(nil, services.ErrNotFound)

	app := drift.New()
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Get("/auth-configs/:configId", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/auth-configs/"+configID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+identity.token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthConfigHandler_Delete_BlockedByUsage(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockConfigs := new(testutil.MockAuthConfigService)
	handler := NewAuthConfigHandler(mockConfigs)

	configID := uuid.New()
	mockConfigs.On("Delete", mock.Anything, configID, identity.orgID).
		Return(&services.UsageError{Usage: models.UsageCounts{Services: 2}})

	app := drift.New()
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Delete("/auth-configs/:configId", handler.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/auth-configs/"+configID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+identity.token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	usage, ok := response["usage"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), usage["services"])
}
