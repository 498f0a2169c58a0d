package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sapbridge/sapbridge-api/internal/models"
	"github.com/sapbridge/sapbridge-api/internal/services"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	Create(ctx context.Context, email, name, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error)
}

// OrganizationServiceInterface defines the methods used by handlers from OrganizationService
type OrganizationServiceInterface interface {
	Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Organization, error)
	GetByID(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)
	GetUserOrganizations(ctx context.Context, userID uuid.UUID) ([]models.Organization, []string, error)
	Update(ctx context.Context, orgID uuid.UUID, name string) (*models.Organization, error)
	Delete(ctx context.Context, orgID uuid.UUID) error
	GetMembers(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationMember, error)
	UpdateMemberRole(ctx context.Context, orgID, userID uuid.UUID, role string) error
	RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error
	CreateInvite(ctx context.Context, orgID, inviterID, inviteeID uuid.UUID, role string) (*models.OrganizationInvite, error)
	GetUserPendingInvites(ctx context.Context, userID uuid.UUID) ([]models.OrganizationInvite, error)
	AcceptInvite(ctx context.Context, inviteID, userID uuid.UUID) error
	DeclineInvite(ctx context.Context, inviteID, userID uuid.UUID) error
	CancelInvite(ctx context.Context, inviteID, orgID uuid.UUID) error
}

// APIKeyServiceInterface defines the methods used by handlers from APIKeyService
type APIKeyServiceInterface interface {
	Issue(ctx context.Context, input services.IssueKeyInput) (*models.APIKey, string, error)
	IssueWithGrants(ctx context.Context, input services.IssueKeyInput, grants []services.GrantInput) (*models.APIKey, string, []models.AccessGrant, error)
	GetByID(ctx context.Context, keyID, orgID uuid.UUID) (*models.APIKey, error)
	List(ctx context.Context, orgID uuid.UUID) ([]models.APIKey, error)
	Update(ctx context.Context, keyID, orgID uuid.UUID, input services.UpdateKeyInput) (*models.APIKey, error)
	Revoke(ctx context.Context, keyID, orgID uuid.UUID, reason *string) error
}

// GrantServiceInterface defines the methods used by handlers from GrantService
type GrantServiceInterface interface {
	Grant(ctx context.Context, apiKeyID, serviceID, organizationID uuid.UUID, permissions models.PermissionSet) (*models.AccessGrant, error)
	UpdateGrant(ctx context.Context, grantID, apiKeyID uuid.UUID, permissions models.PermissionSet) (*models.AccessGrant, error)
	RevokeGrant(ctx context.Context, grantID, apiKeyID uuid.UUID) error
	ListByAPIKey(ctx context.Context, apiKeyID uuid.UUID) ([]models.AccessGrant, error)
}

// AuthConfigServiceInterface defines the methods used by handlers from AuthConfigService
type AuthConfigServiceInterface interface {
	Create(ctx context.Context, orgID uuid.UUID, name string, authType models.AuthType, fields services.CredentialFields) (*models.AuthConfig, error)
	GetByID(ctx context.Context, id, orgID uuid.UUID) (*models.AuthConfig, error)
	List(ctx context.Context, orgID uuid.UUID) ([]models.AuthConfig, error)
	Update(ctx context.Context, id, orgID uuid.UUID, input services.UpdateAuthConfigInput) (*models.AuthConfig, error)
	Delete(ctx context.Context, id, orgID uuid.UUID) error
}

// ServiceServiceInterface defines the methods used by handlers from ServiceService
type ServiceServiceInterface interface {
	Create(ctx context.Context, orgID uuid.UUID, input services.CreateServiceInput) (*models.Service, error)
	GetByID(ctx context.Context, id, orgID uuid.UUID) (*models.Service, error)
	List(ctx context.Context, orgID uuid.UUID) ([]models.Service, error)
	Update(ctx context.Context, id, orgID uuid.UUID, input services.UpdateServiceInput) (*models.Service, error)
	Delete(ctx context.Context, id, orgID uuid.UUID) error
	RefreshEntities(ctx context.Context, id, orgID uuid.UUID) (*models.Service, services.MetadataResult, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// EmailServiceInterface defines the methods used by handlers from EmailService
type EmailServiceInterface interface {
	SendOrganizationInvite(to, orgName, inviterName, inviteURL string) error
}
