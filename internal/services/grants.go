package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sapbridge/sapbridge-api/internal/database"
	"github.com/sapbridge/sapbridge-api/internal/models"
)

var ErrGrantExists = errors.New("a grant already exists for this api key and service")

// GrantService is the ledger mapping API keys to per-service entity
// permissions. Uniqueness of (api_key_id, service_id) is enforced by
// the database, so concurrent creations have exactly one winner.
type GrantService struct {
	db *database.DB
}

func NewGrantService(db *database.DB) *GrantService {
	return &GrantService{db: db}
}

// Grant binds a service to an api key. The service must live in the
// same organization as the key; a foreign or unknown service id is a
// plain not-found, indistinguishable from a service that never existed.
func (s *GrantService) Grant(ctx context.Context, apiKeyID, serviceID, organizationID uuid.UUID, permissions models.PermissionSet) (*models.AccessGrant, error) {
	if len(permissions) == 0 {
		return nil, NewValidationError("permissions")
	}

	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM services WHERE id = $1 AND organization_id = $2)
	`, serviceID, organizationID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	var grant models.AccessGrant
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO access_grants (api_key_id, service_id, permissions)
		VALUES ($1, $2, $3)
		RETURNING id, api_key_id, service_id, permissions, created_at, updated_at
	`, apiKeyID, serviceID, permissions).Scan(
		&grant.ID, &grant.APIKeyID, &grant.ServiceID,
		&grant.Permissions, &grant.CreatedAt, &grant.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrGrantExists
		}
		return nil, err
	}
	return &grant, nil
}

// UpdateGrant replaces the grant's permission map.
func (s *GrantService) UpdateGrant(ctx context.Context, grantID, apiKeyID uuid.UUID, permissions models.PermissionSet) (*models.AccessGrant, error) {
	if len(permissions) == 0 {
		return nil, NewValidationError("permissions")
	}

	var grant models.AccessGrant
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE access_grants
		SET permissions = $1, updated_at = NOW()
		WHERE id = $2 AND api_key_id = $3
		RETURNING id, api_key_id, service_id, permissions, created_at, updated_at
	`, permissions, grantID, apiKeyID).Scan(
		&grant.ID, &grant.APIKeyID, &grant.ServiceID,
		&grant.Permissions, &grant.CreatedAt, &grant.UpdatedAt,
	)
	if err != nil {
		return nil, ErrNotFound
	}
	return &grant, nil
}

func (s *GrantService) RevokeGrant(ctx context.Context, grantID, apiKeyID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM access_grants WHERE id = $1 AND api_key_id = $2
	`, grantID, apiKeyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GrantService) ListByAPIKey(ctx context.Context, apiKeyID uuid.UUID) ([]models.AccessGrant, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, api_key_id, service_id, permissions, created_at, updated_at
		FROM access_grants
		WHERE api_key_id = $1
		ORDER BY created_at ASC
	`, apiKeyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []models.AccessGrant
	for rows.Next() {
		var grant models.AccessGrant
		if err := rows.Scan(
			&grant.ID, &grant.APIKeyID, &grant.ServiceID,
			&grant.Permissions, &grant.CreatedAt, &grant.UpdatedAt,
		); err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	return grants, nil
}

// ServiceUsage counts the rows keeping a service alive; a service with
// non-zero usage cannot be deleted.
func (s *GrantService) ServiceUsage(ctx context.Context, serviceID uuid.UUID) (models.UsageCounts, error) {
	var usage models.UsageCounts
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM access_grants WHERE service_id = $1
	`, serviceID).Scan(&usage.Grants)
	return usage, err
}

// AuthConfigUsage counts services still referencing an auth
// configuration.
func (s *GrantService) AuthConfigUsage(ctx context.Context, authConfigID uuid.UUID) (models.UsageCounts, error) {
	var usage models.UsageCounts
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM services WHERE auth_config_id = $1
	`, authConfigID).Scan(&usage.Services)
	return usage, err
}
