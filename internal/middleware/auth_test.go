package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sapbridge/sapbridge-api/internal/services"
)

func newTestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key", 15*time.Minute, 24*time.Hour)
}

func generateTestToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, email string) string {
	t.Helper()
	pair, err := jwtSvc.GenerateTokenPair(userID, email)
	require.NoError(t, err)
	return pair.AccessToken
}

// protectedApp mounts Auth in front of a route that records the
// identity it saw.
func protectedApp(jwtSvc *services.JWTService, seenID *uuid.UUID, seenEmail *string) http.Handler {
	app := drift.New()
	app.Use(Auth(jwtSvc))
	app.Get("/protected", func(c *drift.Context) {
		if seenID != nil {
			*seenID = GetUserID(c)
		}
		if seenEmail != nil {
			*seenEmail = GetUserEmail(c)
		}
		_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	return app
}

func requestProtected(app http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestAuth_RejectsBadHeaders(t *testing.T) {
	jwtSvc := newTestJWTService()
	app := protectedApp(jwtSvc, nil, nil)

	tests := []struct {
		name          string
		authorization string
		wantBody      string
	}{
		{"missing header", "", "missing authorization header"},
		{"wrong scheme", "Token some-token", "invalid authorization header format"},
		{"no token", "Bearer", "invalid authorization header format"},
		{"garbage token", "Bearer invalid-token", "invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := requestProtected(app, tt.authorization)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	jwtSvc := services.NewJWTService("test-secret-key", time.Millisecond, 24*time.Hour)
	token := generateTestToken(t, jwtSvc, uuid.New(), "dev@sapbridge.io")

	time.Sleep(10 * time.Millisecond)

	rec := requestProtected(protectedApp(jwtSvc, nil, nil), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestAuth_WrongSecret(t *testing.T) {
	signer := services.NewJWTService("secret-1", 15*time.Minute, 24*time.Hour)
	verifier := services.NewJWTService("secret-2", 15*time.Minute, 24*time.Hour)
	token := generateTestToken(t, signer, uuid.New(), "dev@sapbridge.io")

	rec := requestProtected(protectedApp(verifier, nil, nil), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ValidToken(t *testing.T) {
	jwtSvc := newTestJWTService()
	userID := uuid.New()
	token := generateTestToken(t, jwtSvc, userID, "dev@sapbridge.io")

	var seenID uuid.UUID
	var seenEmail string
	rec := requestProtected(protectedApp(jwtSvc, &seenID, &seenEmail), "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, seenID)
	assert.Equal(t, "dev@sapbridge.io", seenEmail)
}

func TestAuth_BearerCaseInsensitive(t *testing.T) {
	jwtSvc := newTestJWTService()
	token := generateTestToken(t, jwtSvc, uuid.New(), "dev@sapbridge.io")
	app := protectedApp(jwtSvc, nil, nil)

	for _, scheme := range []string{"bearer", "BEARER", "BeArEr"} {
		t.Run(scheme, func(t *testing.T) {
			rec := requestProtected(app, scheme+" "+token)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

// Outside of Auth the accessors return zero values instead of
// panicking.
func TestIdentityAccessors_NotSet(t *testing.T) {
	app := drift.New()

	var seenID uuid.UUID
	var seenEmail string
	app.Get("/open", func(c *drift.Context) {
		seenID = GetUserID(c)
		seenEmail = GetUserEmail(c)
		_ = c.JSON(http.StatusOK, nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, uuid.Nil, seenID)
	assert.Equal(t, "", seenEmail)
}
