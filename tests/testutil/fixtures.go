package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sapbridge/sapbridge-api/internal/database"
	"github.com/sapbridge/sapbridge-api/internal/models"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email: fmt.Sprintf("user%d@example.com", f.counter),
		Name:  fmt.Sprintf("Test User %d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("test-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	ctx := context.Background()
	err = f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, global_role, created_at, updated_at
	`, user.Email, user.Name, string(hash)).Scan(
		&user.ID, &user.Email, &user.Name, &user.GlobalRole, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// CreateOrganization creates a test organization with the given owner
func (f *Fixtures) CreateOrganization(t *testing.T, owner *models.User, opts ...OrgOption) *models.Organization {
	t.Helper()
	f.counter++

	org := &models.Organization{
		Name:    fmt.Sprintf("Test Org %d", f.counter),
		OwnerID: owner.ID,
	}

	for _, opt := range opts {
		opt(org)
	}

	ctx := context.Background()
	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO organizations (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, name, owner_id, created_at, updated_at
	`, org.Name, org.OwnerID).Scan(&org.ID, &org.Name, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
	`, org.ID, owner.ID, models.RoleOwner)
	if err != nil {
		t.Fatalf("failed to add owner as member: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	return org
}

// OrgOption configures a test organization
type OrgOption func(*models.Organization)

// WithOrgName sets the organization's name
func WithOrgName(name string) OrgOption {
	return func(o *models.Organization) {
		o.Name = name
	}
}

// AddMember adds a member to an organization with the given role
func (f *Fixtures) AddMember(t *testing.T, org *models.Organization, user *models.User, role string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (organization_id, user_id) DO NOTHING
	`, org.ID, user.ID, role)
	if err != nil {
		t.Fatalf("failed to add organization member: %v", err)
	}
}

// CreateService creates a test SAP service registration
func (f *Fixtures) CreateService(t *testing.T, org *models.Organization, opts ...ServiceOption) *models.Service {
	t.Helper()
	f.counter++

	svc := &models.Service{
		OrganizationID: org.ID,
		Name:           fmt.Sprintf("Test Service %d", f.counter),
		BaseURL:        "https://sap.example.com",
		ServicePath:    fmt.Sprintf("/sap/opu/odata/iwbep/SVC_%d", f.counter),
	}

	for _, opt := range opts {
		opt(svc)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO services (organization_id, name, base_url, service_path, auth_config_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, svc.OrganizationID, svc.Name, svc.BaseURL, svc.ServicePath, svc.AuthConfigID).Scan(
		&svc.ID, &svc.CreatedAt, &svc.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	return svc
}

// ServiceOption configures a test service
type ServiceOption func(*models.Service)

// WithServiceName sets the service's name
func WithServiceName(name string) ServiceOption {
	return func(s *models.Service) {
		s.Name = name
	}
}

// WithBaseURL sets the service's base URL
func WithBaseURL(url string) ServiceOption {
	return func(s *models.Service) {
		s.BaseURL = url
	}
}

// WithAuthConfig references a stored auth configuration
func WithAuthConfig(id uuid.UUID) ServiceOption {
	return func(s *models.Service) {
		s.AuthConfigID = &id
	}
}

// CreateRefreshToken creates a test refresh token
func (f *Fixtures) CreateRefreshToken(t *testing.T, userID uuid.UUID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}
}
