package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sapbridge/sapbridge-api/internal/database"
	"github.com/sapbridge/sapbridge-api/internal/models"
)

var (
	ErrAPIKeyInvalid  = errors.New("invalid api key")
	ErrAPIKeyRevoked  = errors.New("api key has been revoked")
	ErrAPIKeyExpired  = errors.New("api key has expired")
	ErrAPIKeyNotFound = errors.New("api key not found")
)

const (
	apiKeyScheme    = "sb"
	apiKeyRandomLen = 32
	apiKeyIDLen     = 12

	defaultRateLimitPerMinute = 60
	defaultRateLimitPerDay    = 10000
)

type APIKeyService struct {
	db *database.DB
}

func NewAPIKeyService(db *database.DB) *APIKeyService {
	return &APIKeyService{db: db}
}

type IssueKeyInput struct {
	OrganizationID     uuid.UUID
	Environment        string
	Name               string
	Description        *string
	RateLimitPerMinute int
	RateLimitPerDay    int
	ExpiresAt          *time.Time
	CreatedBy          uuid.UUID
}

type GrantInput struct {
	ServiceID   uuid.UUID
	Permissions models.PermissionSet
}

// generateKey builds the raw secret in the format
// sb_<env>_<id12>_<64 hex chars>. The prefix embeds the key's id so
// verification resolves the row with a single indexed lookup before
// the constant-time hash comparison.
func generateKey(keyID uuid.UUID, environment string) (plainKey, keyHash, keyPrefix, last4 string) {
	idPart := strings.ReplaceAll(keyID.String(), "-", "")[:apiKeyIDLen]
	keyPrefix = fmt.Sprintf("%s_%s_%s", apiKeyScheme, environment, idPart)

	randomBytes := make([]byte, apiKeyRandomLen)
	_, _ = rand.Read(randomBytes)
	randomPart := hex.EncodeToString(randomBytes)

	plainKey = keyPrefix + "_" + randomPart
	keyHash = hashKey(plainKey)
	last4 = plainKey[len(plainKey)-4:]
	return plainKey, keyHash, keyPrefix, last4
}

func hashKey(plainKey string) string {
	hash := sha256.Sum256([]byte(plainKey))
	return hex.EncodeToString(hash[:])
}

// Issue creates an API key and returns the record together with the
// raw secret. This is the only moment the raw secret exists; only the
// hash and the prefix/last4 display fragments are persisted.
func (s *APIKeyService) Issue(ctx context.Context, input IssueKeyInput) (*models.APIKey, string, error) {
	if err := validateIssueInput(&input); err != nil {
		return nil, "", err
	}

	keyID := uuid.New()
	plainKey, keyHash, keyPrefix, last4 := generateKey(keyID, input.Environment)

	var key models.APIKey
	err := s.db.Pool.QueryRow(ctx, insertAPIKeySQL,
		keyID, input.OrganizationID, input.Environment, input.Name, input.Description,
		keyHash, keyPrefix, last4,
		input.RateLimitPerMinute, input.RateLimitPerDay, input.ExpiresAt, input.CreatedBy,
	).Scan(apiKeyScanDest(&key)...)
	if err != nil {
		return nil, "", err
	}

	return &key, plainKey, nil
}

// IssueWithGrants creates a key and its initial grants as one atomic
// unit. Every referenced service must exist in the key's organization;
// any mismatch aborts the whole batch.
func (s *APIKeyService) IssueWithGrants(ctx context.Context, input IssueKeyInput, grants []GrantInput) (*models.APIKey, string, []models.AccessGrant, error) {
	if err := validateIssueInput(&input); err != nil {
		return nil, "", nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, g := range grants {
		var exists bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM services WHERE id = $1 AND organization_id = $2)
		`, g.ServiceID, input.OrganizationID).Scan(&exists)
		if err != nil {
			return nil, "", nil, err
		}
		if !exists {
			return nil, "", nil, ErrNotFound
		}
	}

	keyID := uuid.New()
	plainKey, keyHash, keyPrefix, last4 := generateKey(keyID, input.Environment)

	var key models.APIKey
	err = tx.QueryRow(ctx, insertAPIKeySQL,
		keyID, input.OrganizationID, input.Environment, input.Name, input.Description,
		keyHash, keyPrefix, last4,
		input.RateLimitPerMinute, input.RateLimitPerDay, input.ExpiresAt, input.CreatedBy,
	).Scan(apiKeyScanDest(&key)...)
	if err != nil {
		return nil, "", nil, err
	}

	created := make([]models.AccessGrant, 0, len(grants))
	for _, g := range grants {
		var grant models.AccessGrant
		err := tx.QueryRow(ctx, `
			INSERT INTO access_grants (api_key_id, service_id, permissions)
			VALUES ($1, $2, $3)
			RETURNING id, api_key_id, service_id, permissions, created_at, updated_at
		`, key.ID, g.ServiceID, g.Permissions).Scan(
			&grant.ID, &grant.APIKeyID, &grant.ServiceID,
			&grant.Permissions, &grant.CreatedAt, &grant.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return nil, "", nil, ErrGrantExists
			}
			return nil, "", nil, err
		}
		created = append(created, grant)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &key, plainKey, created, nil
}

// Verify resolves a presented raw secret to its key. The prefix lookup
// narrows to one row, then the stored hash is compared in constant
// time. Revoked and expired keys fail with distinct reasons.
func (s *APIKeyService) Verify(ctx context.Context, plainKey string) (*models.APIKey, error) {
	prefix, ok := splitKeyPrefix(plainKey)
	if !ok {
		return nil, ErrAPIKeyInvalid
	}

	var key models.APIKey
	err := s.db.Pool.QueryRow(ctx, `
		SELECT `+apiKeyColumns+`
		FROM api_keys
		WHERE key_prefix = $1
	`, prefix).Scan(apiKeyScanDest(&key)...)
	if err != nil {
		return nil, ErrAPIKeyInvalid
	}

	if subtle.ConstantTimeCompare([]byte(key.KeyHash), []byte(hashKey(plainKey))) != 1 {
		return nil, ErrAPIKeyInvalid
	}
	if key.Revoked() {
		return nil, ErrAPIKeyRevoked
	}
	if key.Expired(time.Now()) {
		return nil, ErrAPIKeyExpired
	}

	// Update last used timestamp (fire and forget)
	go func() {
		_, _ = s.db.Pool.Exec(context.Background(), `
			UPDATE api_keys SET last_used_at = NOW() WHERE id = $1
		`, key.ID)
	}()

	return &key, nil
}

func (s *APIKeyService) GetByID(ctx context.Context, keyID, orgID uuid.UUID) (*models.APIKey, error) {
	var key models.APIKey
	err := s.db.Pool.QueryRow(ctx, `
		SELECT `+apiKeyColumns+`
		FROM api_keys
		WHERE id = $1 AND organization_id = $2
	`, keyID, orgID).Scan(apiKeyScanDest(&key)...)
	if err != nil {
		return nil, ErrNotFound
	}
	return &key, nil
}

func (s *APIKeyService) List(ctx context.Context, orgID uuid.UUID) ([]models.APIKey, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+apiKeyColumns+`
		FROM api_keys
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var key models.APIKey
		if err := rows.Scan(apiKeyScanDest(&key)...); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

type UpdateKeyInput struct {
	Name               *string
	Description        *string
	RateLimitPerMinute *int
	RateLimitPerDay    *int
	ExpiresAt          *time.Time
}

// Update touches metadata only. The secret hash and the revocation
// state are immutable through this path.
func (s *APIKeyService) Update(ctx context.Context, keyID, orgID uuid.UUID, input UpdateKeyInput) (*models.APIKey, error) {
	existing, err := s.GetByID(ctx, keyID, orgID)
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
	description := existing.Description
	if input.Description != nil {
		description = input.Description
	}
	perMinute := existing.RateLimitPerMinute
	if input.RateLimitPerMinute != nil {
		perMinute = *input.RateLimitPerMinute
	}
	perDay := existing.RateLimitPerDay
	if input.RateLimitPerDay != nil {
		perDay = *input.RateLimitPerDay
	}
	expiresAt := existing.ExpiresAt
	if input.ExpiresAt != nil {
		expiresAt = input.ExpiresAt
	}

	var key models.APIKey
	err = s.db.Pool.QueryRow(ctx, `
		UPDATE api_keys
		SET name = $1, description = $2, rate_limit_per_minute = $3, rate_limit_per_day = $4, expires_at = $5
		WHERE id = $6 AND organization_id = $7
		RETURNING `+apiKeyColumns+`
	`, name, description, perMinute, perDay, expiresAt, keyID, orgID).Scan(apiKeyScanDest(&key)...)
	if err != nil {
		return nil, ErrNotFound
	}
	return &key, nil
}

// Revoke is one-way and idempotent: revoking an already-revoked key
// reports success without touching revoked_at.
func (s *APIKeyService) Revoke(ctx context.Context, keyID, orgID uuid.UUID, reason *string) error {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE api_keys
		SET revoked_at = NOW(), revoked_reason = $1
		WHERE id = $2 AND organization_id = $3 AND revoked_at IS NULL
	`, reason, keyID, orgID)
	if err != nil {
		return err
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM api_keys WHERE id = $1 AND organization_id = $2)
	`, keyID, orgID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func validateIssueInput(input *IssueKeyInput) error {
	var fields []string
	if strings.TrimSpace(input.Name) == "" {
		fields = append(fields, "name")
	}
	if !models.IsValidEnvironment(input.Environment) {
		fields = append(fields, "environment")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	if input.RateLimitPerMinute <= 0 {
		input.RateLimitPerMinute = defaultRateLimitPerMinute
	}
	if input.RateLimitPerDay <= 0 {
		input.RateLimitPerDay = defaultRateLimitPerDay
	}
	return nil
}

// splitKeyPrefix extracts "sb_<env>_<id12>" from a raw secret without
// inspecting the random part.
func splitKeyPrefix(plainKey string) (string, bool) {
	parts := strings.Split(plainKey, "_")
	if len(parts) != 4 || parts[0] != apiKeyScheme {
		return "", false
	}
	if !models.IsValidEnvironment(parts[1]) || len(parts[2]) != apiKeyIDLen {
		return "", false
	}
	return strings.Join(parts[:3], "_"), true
}

const apiKeyColumns = `id, organization_id, environment, name, description,
		key_hash, key_prefix, key_last4,
		rate_limit_per_minute, rate_limit_per_day,
		expires_at, revoked_at, revoked_reason, last_used_at, created_by, created_at`

const insertAPIKeySQL = `
		INSERT INTO api_keys (
			id, organization_id, environment, name, description,
			key_hash, key_prefix, key_last4,
			rate_limit_per_minute, rate_limit_per_day, expires_at, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + apiKeyColumns

func apiKeyScanDest(key *models.APIKey) []any {
	return []any{
		&key.ID, &key.OrganizationID, &key.Environment, &key.Name, &key.Description,
		&key.KeyHash, &key.KeyPrefix, &key.KeyLast4,
		&key.RateLimitPerMinute, &key.RateLimitPerDay,
		&key.ExpiresAt, &key.RevokedAt, &key.RevokedReason, &key.LastUsedAt,
		&key.CreatedBy, &key.CreatedAt,
	}
}
