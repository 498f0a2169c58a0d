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

func setupGrantTest(identity *orgTestIdentity) (*testutil.MockGrantService, *testutil.MockAPIKeyService, *GrantHandler, *models.APIKey) {
	mockGrants := new(testutil.MockGrantService)
	mockAPIKeys := new(testutil.MockAPIKeyService)
	handler := NewGrantHandler(mockGrants, mockAPIKeys)
	key := &models.APIKey{ID: uuid.New(), OrganizationID: identity.orgID, Name: "ci key"}
	return mockGrants, mockAPIKeys, handler, key
}

func TestGrantHandler_Create(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockGrants, mockAPIKeys, handler, key := setupGrantTest(identity)

	serviceID := uuid.New()
	grant := &models.AccessGrant{
		ID:          uuid.New(),
		APIKeyID:    key.ID,
		ServiceID:   serviceID,
		Permissions: models.PermissionSet{"SalesOrderSet": {models.ActionRead, models.ActionUpdate}},
	}

	mockAPIKeys.On("GetByID", mock.Anything, key.ID, identity.orgID).Return(key, nil)
	mockGrants.On("Grant", mock.Anything, key.ID, serviceID, identity.orgID,
		models.PermissionSet{"SalesOrderSet": {models.ActionRead, models.ActionUpdate}}).Return(grant, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Post("/api-keys/:keyId/grants", handler.Create)

	rec := postJSON(t, app, "/api-keys/"+key.ID.String()+"/grants", dto.GrantRequest{
		ServiceID:   serviceID,
		Permissions: map[string][]string{"SalesOrderSet": {models.ActionRead, models.ActionUpdate}},
	}, identity.authHeaders())

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.GrantResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, grant.ID, response.ID)
	assert.Equal(t, []string{models.ActionRead, models.ActionUpdate}, response.Permissions["SalesOrderSet"])

	mockGrants.AssertExpectations(t)
}

func TestGrantHandler_Create_DuplicateService(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockGrants, mockAPIKeys, handler, key := setupGrantTest(identity)

	serviceID := uuid.New()
	mockAPIKeys.On("GetByID", mock.Anything, key.ID, identity.orgID).Return(key, nil)
	mockGrants.On("Grant", mock.Anything, key.ID, serviceID, identity.orgID, mock.Anything).
		Return(nil, services.ErrGrantExists)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Post("/api-keys/:keyId/grants", handler.Create)

	rec := postJSON(t, app, "/api-keys/"+key.ID.String()+"/grants", dto.GrantRequest{
		ServiceID:   serviceID,
		Permissions: map[string][]string{"*": {"read"}},
	}, identity.authHeaders())

	assert.Equal(t, http.StatusConflict, rec.Code)
}

// A grant request naming a service from another organization comes
// back as a 404, the same response an unknown service id gets.
func TestGrantHandler_Create_ForeignServiceIsNotFound(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockGrants, mockAPIKeys, handler, key := setupGrantTest(identity)

	foreignServiceID := uuid.New()
	mockAPIKeys.On("GetByID", mock.Anything, key.ID, identity.orgID).Return(key, nil)
	mockGrants.On("Grant", mock.Anything, key.ID, foreignServiceID, identity.orgID, mock.Anything).
		Return(nil, services.ErrNotFound)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Post("/api-keys/:keyId/grants", handler.Create)

	rec := postJSON(t, app, "/api-keys/"+key.ID.String()+"/grants", dto.GrantRequest{
		ServiceID:   foreignServiceID,
		Permissions: map[string][]string{"*": {"read"}},
	}, identity.authHeaders())

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGrantHandler_ForeignKeyIsNotFound(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockGrants, mockAPIKeys, handler, _ := setupGrantTest(identity)

	// The key belongs to a different organization; the scoped lookup
	// fails before any grant operation runs.
	foreignKeyID := uuid.New()
	mockAPIKeys.On("GetByID", mock.Anything, foreignKeyID, identity.orgID).Return(nil, services.ErrNotFound)

	app := drift.New()
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Get("/api-keys/:keyId/grants", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/api-keys/"+foreignKeyID.String()+"/grants", nil)
	req.Header.Set("Authorization", "Bearer "+identity.token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockGrants.AssertNotCalled(t, "ListByAPIKey", mock.Anything, mock.Anything)
}

func TestGrantHandler_Update(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockGrants, mockAPIKeys, handler, key := setupGrantTest(identity)

	grantID := uuid.New()
	updated := &models.AccessGrant{
		ID:          grantID,
		APIKeyID:    key.ID,
		Permissions: models.PermissionSet{"CustomerSet": {models.ActionRead}},
	}

	mockAPIKeys.On("GetByID", mock.Anything, key.ID, identity.orgID).Return(key, nil)
	mockGrants.On("UpdateGrant", mock.Anything, grantID, key.ID,
		models.PermissionSet{"CustomerSet": {models.ActionRead}}).Return(updated, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Patch("/api-keys/:keyId/grants/:grantId", handler.Update)

	rec := patchJSON(t, app, "/api-keys/"+key.ID.String()+"/grants/"+grantID.String(),
		dto.UpdateGrantRequest{Permissions: map[string][]string{"CustomerSet": {models.ActionRead}}},
		identity.authHeaders())

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.GrantResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, []string{models.ActionRead}, response.Permissions["CustomerSet"])
}

func TestGrantHandler_Revoke(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockGrants, mockAPIKeys, handler, key := setupGrantTest(identity)

	grantID := uuid.New()
	mockAPIKeys.On("GetByID", mock.Anything, key.ID, identity.orgID).Return(key, nil)
	mockGrants.On("RevokeGrant", mock.Anything, grantID, key.ID).Return(nil)

	app := drift.New()
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Delete("/api-keys/:keyId/grants/:grantId", handler.Revoke)

	req := httptest.NewRequest(http.MethodDelete, "/api-keys/"+key.ID.String()+"/grants/"+grantID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+identity.token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockGrants.AssertExpectations(t)
}
