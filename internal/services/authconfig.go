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

var ErrAuthConfigExists = errors.New("an auth configuration with this name already exists")

type AuthConfigService struct {
	db     *database.DB
	codec  *CredentialCodec
	crypto *CryptoService
	grants *GrantService
}

func NewAuthConfigService(db *database.DB, codec *CredentialCodec, crypto *CryptoService, grants *GrantService) *AuthConfigService {
	return &AuthConfigService{db: db, codec: codec, crypto: crypto, grants: grants}
}

type UpdateAuthConfigInput struct {
	Name     *string
	AuthType *models.AuthType
	Fields   *CredentialFields
}

func (s *AuthConfigService) Create(ctx context.Context, orgID uuid.UUID, name string, authType models.AuthType, fields CredentialFields) (*models.AuthConfig, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name")
	}
	if !authType.Valid() {
		return nil, NewValidationError("auth_type")
	}

	config, secrets, err := s.codec.BuildForCreate(authType, fields)
	if err != nil {
		return nil, err
	}

	var cfg models.AuthConfig
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO auth_configs (organization_id, name, auth_type, config, secrets)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, organization_id, name, auth_type, config, secrets, created_at, updated_at
	`, orgID, name, authType, config, secrets).Scan(
		&cfg.ID, &cfg.OrganizationID, &cfg.Name, &cfg.AuthType,
		&cfg.Config, &cfg.Secrets, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAuthConfigExists
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *AuthConfigService) GetByID(ctx context.Context, id, orgID uuid.UUID) (*models.AuthConfig, error) {
	var cfg models.AuthConfig
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, organization_id, name, auth_type, config, secrets, created_at, updated_at
		FROM auth_configs
		WHERE id = $1 AND organization_id = $2
	`, id, orgID).Scan(
		&cfg.ID, &cfg.OrganizationID, &cfg.Name, &cfg.AuthType,
		&cfg.Config, &cfg.Secrets, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, ErrNotFound
	}
	return &cfg, nil
}

func (s *AuthConfigService) List(ctx context.Context, orgID uuid.UUID) ([]models.AuthConfig, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, organization_id, name, auth_type, config, secrets, created_at, updated_at
		FROM auth_configs
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []models.AuthConfig
	for rows.Next() {
		var cfg models.AuthConfig
		if err := rows.Scan(
			&cfg.ID, &cfg.OrganizationID, &cfg.Name, &cfg.AuthType,
			&cfg.Config, &cfg.Secrets, &cfg.CreatedAt, &cfg.UpdatedAt,
		); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Update applies partial-update semantics: a nil field set touches
// nothing but the name, and omitted secrets keep their stored values.
func (s *AuthConfigService) Update(ctx context.Context, id, orgID uuid.UUID, input UpdateAuthConfigInput) (*models.AuthConfig, error) {
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

	authType := existing.AuthType
	if input.AuthType != nil {
		if !input.AuthType.Valid() {
			return nil, NewValidationError("auth_type")
		}
		authType = *input.AuthType
	}

	config := existing.Config
	secrets := existing.Secrets
	if input.Fields != nil || authType != existing.AuthType {
		fields := CredentialFields{}
		if input.Fields != nil {
			fields = *input.Fields
		}
		config, secrets, err = s.codec.BuildForUpdate(authType, fields, existing)
		if err != nil {
			return nil, err
		}
	}

	var cfg models.AuthConfig
	err = s.db.Pool.QueryRow(ctx, `
		UPDATE auth_configs
		SET name = $1, auth_type = $2, config = $3, secrets = $4, updated_at = NOW()
		WHERE id = $5 AND organization_id = $6
		RETURNING id, organization_id, name, auth_type, config, secrets, created_at, updated_at
	`, name, authType, config, secrets, id, orgID).Scan(
		&cfg.ID, &cfg.OrganizationID, &cfg.Name, &cfg.AuthType,
		&cfg.Config, &cfg.Secrets, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAuthConfigExists
		}
		return nil, ErrNotFound
	}
	return &cfg, nil
}

// Delete refuses while any service still references the configuration.
func (s *AuthConfigService) Delete(ctx context.Context, id, orgID uuid.UUID) error {
	usage, err := s.grants.AuthConfigUsage(ctx, id)
	if err != nil {
		return err
	}
	if usage.Total() > 0 {
		return &UsageError{Usage: usage}
	}

	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM auth_configs WHERE id = $1 AND organization_id = $2
	`, id, orgID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveAuth decrypts the stored credentials just-in-time into the
// shape the metadata introspector injects into outbound requests.
// Plaintext values stay in memory only.
func (s *AuthConfigService) ResolveAuth(ctx context.Context, id, orgID uuid.UUID) (*OutboundAuth, error) {
	cfg, err := s.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	plain := map[string]string{}
	for key, ciphertext := range cfg.Secrets {
		value, err := s.crypto.Decrypt(ciphertext)
		if err != nil {
			return nil, err
		}
		plain[key] = value
	}

	auth := &OutboundAuth{Type: cfg.AuthType}
	switch cfg.AuthType {
	case models.AuthTypeBasic:
		auth.Username = cfg.Config[FieldUsername]
		auth.Password = plain[FieldPassword]
	case models.AuthTypeOAuth2:
		auth.ClientID = cfg.Config[FieldClientID]
		auth.ClientSecret = plain[FieldClientSecret]
		auth.TokenURL = cfg.Config[FieldTokenURL]
		auth.Scope = cfg.Config[FieldScope]
	case models.AuthTypeAPIKey:
		auth.HeaderName = cfg.Config[FieldHeaderName]
		auth.HeaderValue = plain[FieldAPIKey]
	case models.AuthTypeCustom:
		auth.HeaderName = cfg.Config[FieldHeaderName]
		auth.HeaderValue = plain[FieldHeaderValue]
	}
	return auth, nil
}
