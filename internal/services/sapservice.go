package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sapbridge/sapbridge-api/internal/database"
	"github.com/sapbridge/sapbridge-api/internal/models"
)

var ErrServiceExists = errors.New("a service with this name already exists")

// ServiceService is the registry of onboarded SAP OData services and
// their discovered entity catalogs.
type ServiceService struct {
	db          *database.DB
	grants      *GrantService
	authConfigs *AuthConfigService
	metadata    *MetadataService
}

func NewServiceService(db *database.DB, grants *GrantService, authConfigs *AuthConfigService, metadata *MetadataService) *ServiceService {
	return &ServiceService{db: db, grants: grants, authConfigs: authConfigs, metadata: metadata}
}

type CreateServiceInput struct {
	Name         string
	BaseURL      string
	ServicePath  string
	AuthConfigID *uuid.UUID
}

type UpdateServiceInput struct {
	Name            *string
	BaseURL         *string
	ServicePath     *string
	AuthConfigID    *uuid.UUID
	ClearAuthConfig bool
}

func (s *ServiceService) Create(ctx context.Context, orgID uuid.UUID, input CreateServiceInput) (*models.Service, error) {
	var fields []string
	if strings.TrimSpace(input.Name) == "" {
		fields = append(fields, "name")
	}
	if strings.TrimSpace(input.BaseURL) == "" {
		fields = append(fields, "base_url")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	// The referenced auth config must live in the same organization.
	if input.AuthConfigID != nil {
		if _, err := s.authConfigs.GetByID(ctx, *input.AuthConfigID, orgID); err != nil {
			return nil, err
		}
	}

	var svc models.Service
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO services (organization_id, name, base_url, service_path, auth_config_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+serviceColumns+`
	`, orgID, input.Name, input.BaseURL, input.ServicePath, input.AuthConfigID).Scan(serviceScanDest(&svc)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrServiceExists
		}
		return nil, err
	}
	return &svc, nil
}

func (s *ServiceService) GetByID(ctx context.Context, id, orgID uuid.UUID) (*models.Service, error) {
	var svc models.Service
	err := s.db.Pool.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE id = $1 AND organization_id = $2
	`, id, orgID).Scan(serviceScanDest(&svc)...)
	if err != nil {
		return nil, ErrNotFound
	}
	return &svc, nil
}

func (s *ServiceService) List(ctx context.Context, orgID uuid.UUID) ([]models.Service, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		var svc models.Service
		if err := rows.Scan(serviceScanDest(&svc)...); err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, nil
}

func (s *ServiceService) Update(ctx context.Context, id, orgID uuid.UUID, input UpdateServiceInput) (*models.Service, error) {
	existing, err := s.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	name := existing.Name
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, NewValidationError("name")
		}
		name = *input.Name
	}
	baseURL := existing.BaseURL
	if input.BaseURL != nil {
		baseURL = *input.BaseURL
	}
	servicePath := existing.ServicePath
	if input.ServicePath != nil {
		servicePath = *input.ServicePath
	}
	authConfigID := existing.AuthConfigID
	if input.ClearAuthConfig {
		authConfigID = nil
	} else if input.AuthConfigID != nil {
		if _, err := s.authConfigs.GetByID(ctx, *input.AuthConfigID, orgID); err != nil {
			return nil, err
		}
		authConfigID = input.AuthConfigID
	}

	var svc models.Service
	err = s.db.Pool.QueryRow(ctx, `
		UPDATE services
		SET name = $1, base_url = $2, service_path = $3, auth_config_id = $4, updated_at = NOW()
		WHERE id = $5 AND organization_id = $6
		RETURNING `+serviceColumns+`
	`, name, baseURL, servicePath, authConfigID, id, orgID).Scan(serviceScanDest(&svc)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrServiceExists
		}
		return nil, ErrNotFound
	}
	return &svc, nil
}

// Delete refuses while grants still reference the service so an API
// key can never hold permissions against a dangling target.
func (s *ServiceService) Delete(ctx context.Context, id, orgID uuid.UUID) error {
	usage, err := s.grants.ServiceUsage(ctx, id)
	if err != nil {
		return err
	}
	if usage.Total() > 0 {
		return &UsageError{Usage: usage}
	}

	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM services WHERE id = $1 AND organization_id = $2
	`, id, orgID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RefreshEntities re-introspects the remote $metadata document and
// stores the discovered catalog. An introspection failure is returned
// in the result and leaves the stored catalog untouched.
func (s *ServiceService) RefreshEntities(ctx context.Context, id, orgID uuid.UUID) (*models.Service, MetadataResult, error) {
	svc, err := s.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, MetadataResult{}, err
	}

	var auth *OutboundAuth
	if svc.AuthConfigID != nil {
		auth, err = s.authConfigs.ResolveAuth(ctx, *svc.AuthConfigID, orgID)
		if err != nil {
			return nil, MetadataResult{}, err
		}
	}

	result := s.metadata.FetchMetadata(ctx, svc.BaseURL, svc.ServicePath, auth)
	if !result.OK() {
		return svc, result, nil
	}

	entities := make([]string, 0, len(result.Entities))
	for _, e := range result.Entities {
		entities = append(entities, e.Name)
	}

	var updated models.Service
	err = s.db.Pool.QueryRow(ctx, `
		UPDATE services
		SET entities = $1, odata_version = $2, entities_refreshed_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND organization_id = $4
		RETURNING `+serviceColumns+`
	`, entities, result.ODataVersion, id, orgID).Scan(serviceScanDest(&updated)...)
	if err != nil {
		return nil, MetadataResult{}, err
	}
	return &updated, result, nil
}

const serviceColumns = `id, organization_id, name, base_url, service_path, auth_config_id,
		odata_version, entities, entities_refreshed_at, created_at, updated_at`

func serviceScanDest(svc *models.Service) []any {
	return []any{
		&svc.ID, &svc.OrganizationID, &svc.Name, &svc.BaseURL, &svc.ServicePath,
		&svc.AuthConfigID, &svc.ODataVersion, &svc.Entities, &svc.EntitiesRefreshedAt,
		&svc.CreatedAt, &svc.UpdatedAt,
	}
}
