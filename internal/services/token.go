package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sapbridge/sapbridge-api/internal/database"
)

// TokenService persists refresh token hashes. Only the sha256 hex of a
// refresh token ever reaches the table, so a database dump cannot be
// replayed as live sessions.
type TokenService struct {
	db *database.DB
}

func NewTokenService(db *database.DB) *TokenService {
	return &TokenService{db: db}
}

func (s *TokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	query := `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`
	if _, err := s.db.Pool.Exec(ctx, query, userID, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// ValidateRefreshToken resolves a stored hash back to its user. A
// revoked or expired token errors the same way as an unknown one.
func (s *TokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	query := `SELECT user_id FROM refresh_tokens WHERE token_hash = $1 AND expires_at > NOW()`

	var userID uuid.UUID
	if err := s.db.Pool.QueryRow(ctx, query, tokenHash).Scan(&userID); err != nil {
		return uuid.Nil, fmt.Errorf("refresh token not found: %w", err)
	}
	return userID, nil
}

func (s *TokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	return err
}

// RevokeAllUserTokens backs the logout-everywhere endpoint.
func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}

// CleanupExpired is run on a timer from main. Rows past expiry are
// already unusable, this just keeps the table small.
func (s *TokenService) CleanupExpired(ctx context.Context) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < NOW()`)
	return err
}
