package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sapbridge/sapbridge-api/internal/database"
	"github.com/sapbridge/sapbridge-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Create(ctx context.Context, email, name, password string) (*models.User, error) {
	if email == "" || name == "" || len(password) < 8 {
		return nil, NewValidationError("email", "name", "password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user models.User
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, global_role, created_at, updated_at
	`, email, name, string(hash)).Scan(
		&user.ID, &user.Email, &user.Name, &user.GlobalRole, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// Authenticate runs the bcrypt comparison even when the email is
// unknown so both paths cost roughly the same.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, global_role, created_at, updated_at
		FROM users WHERE email = $1
	`, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.GlobalRole, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000uGyyddU0i1xbxOBwW3A0R.n5rMFvynG"), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, name, global_role, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.GlobalRole, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, name, global_role, created_at, updated_at
		FROM users WHERE email = $1
	`, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.GlobalRole, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE users SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, email, name, global_role, created_at, updated_at
	`, name, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.GlobalRole, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
