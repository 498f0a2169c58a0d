package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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

func TestServiceHandler_Create(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockServices := new(testutil.MockServiceService)
	handler := NewServiceHandler(mockServices)

	svc := &models.Service{
		ID:          uuid.New(),
		Name:        "crm-prod",
		BaseURL:     "https://sap.example.com",
		ServicePath: "/sap/opu/odata/sap/CRM_SRV",
	}

	mockServices.On("Create", mock.Anything, identity.orgID, services.CreateServiceInput{
		Name:        "crm-prod",
		BaseURL:     "https://sap.example.com",
		ServicePath: "/sap/opu/odata/sap/CRM_SRV",
	}).Return(svc, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Post("/services", handler.Create)

	rec := postJSON(t, app, "/services", dto.CreateServiceRequest{
		Name:        "crm-prod",
		BaseURL:     "https://sap.example.com",
		ServicePath: "/sap/opu/odata/sap/CRM_SRV",
	}, identity.authHeaders())

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.ServiceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, svc.ID, response.ID)
	assert.NotNil(t, response.Entities)
	assert.Empty(t, response.Entities)

	mockServices.AssertExpectations(t)
}

func TestServiceHandler_Create_DuplicateName(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockServices := new(testutil.MockServiceService)
	handler := NewServiceHandler(mockServices)

	mockServices.On("Create", mock.Anything, identity.orgID, mock.Anything).
		Return(nil, services.ErrServiceExists)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Post("/services", handler.Create)

	rec := postJSON(t, app, "/services", dto.CreateServiceRequest{
		Name:        "crm-prod",
		BaseURL:     "https://sap.example.com",
		ServicePath: "/sap/opu/odata/sap/CRM_SRV",
	}, identity.authHeaders())

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServiceHandler_RefreshEntities_Success(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleDeveloper)
	mockServices := new(testutil.MockServiceService)
	handler := NewServiceHandler(mockServices)

	refreshedAt := time.Now()
	serviceID := uuid.New()
	odataVersion := "2.0"
	svc := &models.Service{
		ID:                  serviceID,
		Name:                "crm-prod",
		ODataVersion:        &odataVersion,
		Entities:            []string{"SalesOrderSet", "CustomerSet"},
		EntitiesRefreshedAt: &refreshedAt,
	}

	mockServices.On("RefreshEntities", mock.Anything, serviceID, identity.orgID).
		Return(svc, services.MetadataResult{ODataVersion: "2.0"}, nil)

	app := drift.New()
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Post("/services/:serviceId/refresh", handler.RefreshEntities)

	req := httptest.NewRequest(http.MethodPost, "/services/"+serviceID.String()+"/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+identity.token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.RefreshEntitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Introspection.OK)
	assert.Equal(t, "2.0", response.Introspection.Version)
	assert.Equal(t, []string{"SalesOrderSet", "CustomerSet"}, response.Service.Entities)
}

func TestServiceHandler_RefreshEntities_FailureIsData(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleDeveloper)
	mockServices := new(testutil.MockServiceService)
	handler := NewServiceHandler(mockServices)

	serviceID := uuid.New()
	odataVersion := "2.0"
	svc := &models.Service{
		ID:           serviceID,
		Name:         "crm-prod",
		ODataVersion: &odataVersion,
		Entities:     []string{"SalesOrderSet"},
	}

	mockServices.On("RefreshEntities", mock.Anything, serviceID, identity.orgID).
		Return(svc, services.MetadataResult{Error: "metadata request returned status 503"}, nil)

	app := drift.New()
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Post("/services/:serviceId/refresh", handler.RefreshEntities)

	req := httptest.NewRequest(http.MethodPost, "/services/"+serviceID.String()+"/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+identity.token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	// Introspection failure is payload, not an HTTP error; the stored
	// catalog is untouched.
	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.RefreshEntitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.False(t, response.Introspection.OK)
	assert.Contains(t, response.Introspection.Error, "503")
	assert.Equal(t, []string{"SalesOrderSet"}, response.Service.Entities)
}

func TestServiceHandler_Delete_BlockedByGrants(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockServices := new(testutil.MockServiceService)
	handler := NewServiceHandler(mockServices)

	serviceID := uuid.New()
	mockServices.On("Delete", mock.Anything, serviceID, identity.orgID).
		Return(&services.UsageError{Usage: models.UsageCounts{Grants: 3}})

	app := drift.New()
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Delete("/services/:serviceId", handler.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/services/"+serviceID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+identity.token)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	usage, ok := response["usage"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), usage["grants"])
}

func TestServiceHandler_Update_ClearAuthConfig(t *testing.T) {
	identity := newOrgTestIdentity(t, models.RoleAdmin)
	mockServices := new(testutil.MockServiceService)
	handler := NewServiceHandler(mockServices)

	serviceID := uuid.New()
	svc := &models.Service{ID: serviceID, Name: "crm-prod", AuthConfigID: nil}

	mockServices.On("Update", mock.Anything, serviceID, identity.orgID,
		services.UpdateServiceInput{ClearAuthConfig: true}).Return(svc, nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(identity.jwtSvc))
	app.Use(middleware.OrgContext(identity.access))
	app.Patch("/services/:serviceId", handler.Update)

	rec := patchJSON(t, app, "/services/"+serviceID.String(),
		dto.UpdateServiceRequest{ClearAuthConfig: true}, identity.authHeaders())

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.ServiceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Nil(t, response.AuthConfigID)
}
