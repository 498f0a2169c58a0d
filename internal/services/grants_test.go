package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/sapbridge/sapbridge-api/internal/database"
	"github.com/sapbridge/sapbridge-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGrantService(t *testing.T) (*GrantService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewGrantService(db), mock
}

func grantRowColumns() []string {
	return []string{"id", "api_key_id", "service_id", "permissions", "created_at", "updated_at"}
}

func expectServiceInOrg(mock pgxmock.PgxPoolIface, serviceID, orgID uuid.UUID, exists bool) {
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM services`).
		WithArgs(serviceID, orgID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(exists))
}

func TestGrantService_Grant(t *testing.T) {
	svc, mock := setupGrantService(t)
	ctx := context.Background()
	apiKeyID := uuid.New()
	serviceID := uuid.New()
	orgID := uuid.New()
	grantID := uuid.New()
	now := time.Now()
	permissions := models.PermissionSet{
		"Orders":    {models.ActionRead, models.ActionCreate},
		"Customers": {models.ActionRead},
	}

	expectServiceInOrg(mock, serviceID, orgID, true)
	rows := pgxmock.NewRows(grantRowColumns()).
		AddRow(grantID, apiKeyID, serviceID, permissions, now, now)
	mock.ExpectQuery(`INSERT INTO access_grants`).
		WithArgs(apiKeyID, serviceID, permissions).
		WillReturnRows(rows)

	grant, err := svc.Grant(ctx, apiKeyID, serviceID, orgID, permissions)

	require.NoError(t, err)
	assert.Equal(t, grantID, grant.ID)
	assert.Equal(t, permissions, grant.Permissions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A service id from another organization is rejected before any row is
// written, and reads the same as a service that does not exist.
func TestGrantService_Grant_ForeignServiceIsNotFound(t *testing.T) {
	svc, mock := setupGrantService(t)
	ctx := context.Background()
	apiKeyID := uuid.New()
	foreignServiceID := uuid.New()
	orgID := uuid.New()

	expectServiceInOrg(mock, foreignServiceID, orgID, false)

	_, err := svc.Grant(ctx, apiKeyID, foreignServiceID, orgID, models.PermissionSet{"Orders": {models.ActionRead}})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantService_Grant_Duplicate(t *testing.T) {
	svc, mock := setupGrantService(t)
	ctx := context.Background()
	apiKeyID := uuid.New()
	serviceID := uuid.New()
	orgID := uuid.New()
	permissions := models.PermissionSet{"Orders": {models.ActionRead}}

	expectServiceInOrg(mock, serviceID, orgID, true)
	mock.ExpectQuery(`INSERT INTO access_grants`).
		WithArgs(apiKeyID, serviceID, permissions).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := svc.Grant(ctx, apiKeyID, serviceID, orgID, permissions)

	assert.ErrorIs(t, err, ErrGrantExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantService_Grant_EmptyPermissions(t *testing.T) {
	svc, mock := setupGrantService(t)
	ctx := context.Background()

	_, err := svc.Grant(ctx, uuid.New(), uuid.New(), uuid.New(), models.PermissionSet{})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "permissions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantService_UpdateGrant(t *testing.T) {
	svc, mock := setupGrantService(t)
	ctx := context.Background()
	grantID := uuid.New()
	apiKeyID := uuid.New()
	serviceID := uuid.New()
	now := time.Now()
	permissions := models.PermissionSet{models.EntityWildcard: {models.ActionRead}}

	rows := pgxmock.NewRows(grantRowColumns()).
		AddRow(grantID, apiKeyID, serviceID, permissions, now, now)
	mock.ExpectQuery(`UPDATE access_grants`).
		WithArgs(permissions, grantID, apiKeyID).
		WillReturnRows(rows)

	grant, err := svc.UpdateGrant(ctx, grantID, apiKeyID, permissions)

	require.NoError(t, err)
	assert.Equal(t, permissions, grant.Permissions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantService_UpdateGrant_NotFound(t *testing.T) {
	svc, mock := setupGrantService(t)
	ctx := context.Background()
	grantID := uuid.New()
	apiKeyID := uuid.New()
	permissions := models.PermissionSet{"Orders": {models.ActionRead}}

	mock.ExpectQuery(`UPDATE access_grants`).
		WithArgs(permissions, grantID, apiKeyID).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.UpdateGrant(ctx, grantID, apiKeyID, permissions)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantService_RevokeGrant(t *testing.T) {
	svc, mock := setupGrantService(t)
	ctx := context.Background()
	grantID := uuid.New()
	apiKeyID := uuid.New()

	mock.ExpectExec(`DELETE FROM access_grants`).
		WithArgs(grantID, apiKeyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := svc.RevokeGrant(ctx, grantID, apiKeyID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantService_RevokeGrant_NotFound(t *testing.T) {
	svc, mock := setupGrantService(t)
	ctx := context.Background()
	grantID := uuid.New()
	apiKeyID := uuid.New()

	mock.ExpectExec(`DELETE FROM access_grants`).
		WithArgs(grantID, apiKeyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := svc.RevokeGrant(ctx, grantID, apiKeyID)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantService_ListByAPIKey(t *testing.T) {
	svc, mock := setupGrantService(t)
	ctx := context.Background()
	apiKeyID := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows(grantRowColumns()).
		AddRow(uuid.New(), apiKeyID, uuid.New(), models.PermissionSet{"Orders": {models.ActionRead}}, now, now).
		AddRow(uuid.New(), apiKeyID, uuid.New(), models.PermissionSet{"Products": {models.ActionRead}}, now, now)
	mock.ExpectQuery(`SELECT .+ FROM access_grants`).
		WithArgs(apiKeyID).
		WillReturnRows(rows)

	grants, err := svc.ListByAPIKey(ctx, apiKeyID)

	require.NoError(t, err)
	assert.Len(t, grants, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantService_ServiceUsage(t *testing.T) {
	svc, mock := setupGrantService(t)
	ctx := context.Background()
	serviceID := uuid.New()

	rows := pgxmock.NewRows([]string{"count"}).AddRow(int64(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM access_grants`).
		WithArgs(serviceID).
		WillReturnRows(rows)

	usage, err := svc.ServiceUsage(ctx, serviceID)

	require.NoError(t, err)
	assert.Equal(t, int64(3), usage.Grants)
	assert.Equal(t, int64(3), usage.Total())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantService_AuthConfigUsage(t *testing.T) {
	svc, mock := setupGrantService(t)
	ctx := context.Background()
	authConfigID := uuid.New()

	rows := pgxmock.NewRows([]string{"count"}).AddRow(int64(2))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM services`).
		WithArgs(authConfigID).
		WillReturnRows(rows)

	usage, err := svc.AuthConfigUsage(ctx, authConfigID)

	require.NoError(t, err)
	assert.Equal(t, int64(2), usage.Services)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionSet_Allows(t *testing.T) {
	perms := models.PermissionSet{
		"Orders":              {models.ActionRead, models.ActionCreate},
		models.EntityWildcard: {models.ActionRead},
	}

	assert.True(t, perms.Allows("Orders", models.ActionCreate))
	assert.True(t, perms.Allows("Orders", models.ActionRead))
	assert.False(t, perms.Allows("Orders", models.ActionDelete))

	// Unlisted entities fall back to the wildcard entry.
	assert.True(t, perms.Allows("Customers", models.ActionRead))
	assert.False(t, perms.Allows("Customers", models.ActionUpdate))

	assert.False(t, models.PermissionSet{}.Allows("Orders", models.ActionRead))
}
