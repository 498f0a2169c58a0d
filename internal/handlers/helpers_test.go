package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sapbridge/sapbridge-api/internal/services"
	"github.com/sapbridge/sapbridge-api/tests/testutil"
)

// orgTestIdentity bundles the fixed user and membership an org-scoped
// handler test runs as.
type orgTestIdentity struct {
	userID uuid.UUID
	orgID  uuid.UUID
	jwtSvc *services.JWTService
	access *testutil.MockAccessService
	token  string
}

func newOrgTestIdentity(t *testing.T, role string) *orgTestIdentity {
	t.Helper()

	jwtSvc := services.NewJWTService("test-secret-key", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()
	orgID := uuid.New()

	access := new(testutil.MockAccessService)
	access.On("ResolveContext", mock.Anything, userID, (*uuid.UUID)(nil)).
		Return(&services.AccessContext{OrganizationID: orgID, Role: role}, nil)

	return &orgTestIdentity{
		userID: userID,
		orgID:  orgID,
		jwtSvc: jwtSvc,
		access: access,
		token:  generateTestToken(t, jwtSvc, userID, "test@example.com"),
	}
}

func (id *orgTestIdentity) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + id.token}
}

func patchJSON(t *testing.T, app http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, path, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}
