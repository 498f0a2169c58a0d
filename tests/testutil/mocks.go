package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/sapbridge/sapbridge-api/internal/models"
	"github.com/sapbridge/sapbridge-api/internal/services"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, email, name, password string) (*models.User, error) {
	args := m.Called(ctx, email, name, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockOrganizationService mocks the OrganizationService
type MockOrganizationService struct {
	mock.Mock
}

func (m *MockOrganizationService) Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, name, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationService) GetByID(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationService) GetUserOrganizations(ctx context.Context, userID uuid.UUID) ([]models.Organization, []string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Organization), args.Get(1).([]string), args.Error(2)
}

func (m *MockOrganizationService) Update(ctx context.Context, orgID uuid.UUID, name string) (*models.Organization, error) {
	args := m.Called(ctx, orgID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationService) Delete(ctx context.Context, orgID uuid.UUID) error {
	args := m.Called(ctx, orgID)
	return args.Error(0)
}

func (m *MockOrganizationService) GetMembers(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationMember, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrganizationMember), args.Error(1)
}

func (m *MockOrganizationService) UpdateMemberRole(ctx context.Context, orgID, userID uuid.UUID, role string) error {
	args := m.Called(ctx, orgID, userID, role)
	return args.Error(0)
}

func (m *MockOrganizationService) RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error {
	args := m.Called(ctx, orgID, userID)
	return args.Error(0)
}

func (m *MockOrganizationService) CreateInvite(ctx context.Context, orgID, inviterID, inviteeID uuid.UUID, role string) (*models.OrganizationInvite, error) {
	args := m.Called(ctx, orgID, inviterID, inviteeID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrganizationInvite), args.Error(1)
}

func (m *MockOrganizationService) GetUserPendingInvites(ctx context.Context, userID uuid.UUID) ([]models.OrganizationInvite, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrganizationInvite), args.Error(1)
}

func (m *MockOrganizationService) AcceptInvite(ctx context.Context, inviteID, userID uuid.UUID) error {
	args := m.Called(ctx, inviteID, userID)
	return args.Error(0)
}

func (m *MockOrganizationService) DeclineInvite(ctx context.Context, inviteID, userID uuid.UUID) error {
	args := m.Called(ctx, inviteID, userID)
	return args.Error(0)
}

func (m *MockOrganizationService) CancelInvite(ctx context.Context, inviteID, orgID uuid.UUID) error {
	args := m.Called(ctx, inviteID, orgID)
	return args.Error(0)
}

// MockAPIKeyService mocks the APIKeyService
type MockAPIKeyService struct {
	mock.Mock
}

func (m *MockAPIKeyService) Issue(ctx context.Context, input services.IssueKeyInput) (*models.APIKey, string, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.APIKey), args.String(1), args.Error(2)
}

func (m *MockAPIKeyService) IssueWithGrants(ctx context.Context, input services.IssueKeyInput, grants []services.GrantInput) (*models.APIKey, string, []models.AccessGrant, error) {
	args := m.Called(ctx, input, grants)
	if args.Get(0) == nil {
		return nil, "", nil, args.Error(3)
	}
	return args.Get(0).(*models.APIKey), args.String(1), args.Get(2).([]models.AccessGrant), args.Error(3)
}

func (m *MockAPIKeyService) GetByID(ctx context.Context, keyID, orgID uuid.UUID) (*models.APIKey, error) {
	args := m.Called(ctx, keyID, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockAPIKeyService) List(ctx context.Context, orgID uuid.UUID) ([]models.APIKey, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.APIKey), args.Error(1)
}

func (m *MockAPIKeyService) Update(ctx context.Context, keyID, orgID uuid.UUID, input services.UpdateKeyInput) (*models.APIKey, error) {
	args := m.Called(ctx, keyID, orgID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockAPIKeyService) Revoke(ctx context.Context, keyID, orgID uuid.UUID, reason *string) error {
	args := m.Called(ctx, keyID, orgID, reason)
	return args.Error(0)
}

// MockGrantService mocks the GrantService
type MockGrantService struct {
	mock.Mock
}

func (m *MockGrantService) Grant(ctx context.Context, apiKeyID, serviceID, organizationID uuid.UUID, permissions models.PermissionSet) (*models.AccessGrant, error) {
	args := m.Called(ctx, apiKeyID, serviceID, organizationID, permissions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessGrant), args.Error(1)
}

func (m *MockGrantService) UpdateGrant(ctx context.Context, grantID, apiKeyID uuid.UUID, permissions models.PermissionSet) (*models.AccessGrant, error) {
	args := m.Called(ctx, grantID, apiKeyID, permissions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessGrant), args.Error(1)
}

func (m *MockGrantService) RevokeGrant(ctx context.Context, grantID, apiKeyID uuid.UUID) error {
	args := m.Called(ctx, grantID, apiKeyID)
	return args.Error(0)
}

func (m *MockGrantService) ListByAPIKey(ctx context.Context, apiKeyID uuid.UUID) ([]models.AccessGrant, error) {
	args := m.Called(ctx, apiKeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccessGrant), args.Error(1)
}

// MockAuthConfigService mocks the AuthConfigService
type MockAuthConfigService struct {
	mock.Mock
}

func (m *MockAuthConfigService) Create(ctx context.Context, orgID uuid.UUID, name string, authType models.AuthType, fields services.CredentialFields) (*models.AuthConfig, error) {
	args := m.Called(ctx, orgID, name, authType, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthConfig), args.Error(1)
}

func (m *MockAuthConfigService) GetByID(ctx context.Context, id, orgID uuid.UUID) (*models.AuthConfig, error) {
	args := m.Called(ctx, id, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthConfig), args.Error(1)
}

func (m *MockAuthConfigService) List(ctx context.Context, orgID uuid.UUID) ([]models.AuthConfig, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuthConfig), args.Error(1)
}

func (m *MockAuthConfigService) Update(ctx context.Context, id, orgID uuid.UUID, input services.UpdateAuthConfigInput) (*models.AuthConfig, error) {
	args := m.Called(ctx, id, orgID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthConfig), args.Error(1)
}

func (m *MockAuthConfigService) Delete(ctx context.Context, id, orgID uuid.UUID) error {
	args := m.Called(ctx, id, orgID)
	return args.Error(0)
}

// MockServiceService mocks the ServiceService
type MockServiceService struct {
	mock.Mock
}

func (m *MockServiceService) Create(ctx context.Context, orgID uuid.UUID, input services.CreateServiceInput) (*models.Service, error) {
	args := m.Called(ctx, orgID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *MockServiceService) GetByID(ctx context.Context, id, orgID uuid.UUID) (*models.Service, error) {
	args := m.Called(ctx, id, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *MockServiceService) List(ctx context.Context, orgID uuid.UUID) ([]models.Service, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Service), args.Error(1)
}

func (m *MockServiceService) Update(ctx context.Context, id, orgID uuid.UUID, input services.UpdateServiceInput) (*models.Service, error) {
	args := m.Called(ctx, id, orgID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *MockServiceService) Delete(ctx context.Context, id, orgID uuid.UUID) error {
	args := m.Called(ctx, id, orgID)
	return args.Error(0)
}

func (m *MockServiceService) RefreshEntities(ctx context.Context, id, orgID uuid.UUID) (*models.Service, services.MetadataResult, error) {
	args := m.Called(ctx, id, orgID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(services.MetadataResult), args.Error(2)
	}
	return args.Get(0).(*models.Service), args.Get(1).(services.MetadataResult), args.Error(2)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error) {
	args := m.Called(userID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockJWTService) ValidateRefreshToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockJWTService) RefreshExpiry() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockEmailService mocks the EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendOrganizationInvite(to, orgName, inviterName, inviteURL string) error {
	args := m.Called(to, orgName, inviterName, inviteURL)
	return args.Error(0)
}

// MockAccessService mocks the membership resolver used by middleware
type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) ResolveContext(ctx context.Context, userID uuid.UUID, requestedOrgID *uuid.UUID) (*services.AccessContext, error) {
	args := m.Called(ctx, userID, requestedOrgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AccessContext), args.Error(1)
}

func (m *MockAccessService) HasPermission(role, permission string) bool {
	args := m.Called(role, permission)
	return args.Bool(0)
}
