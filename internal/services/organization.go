package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sapbridge/sapbridge-api/internal/database"
	"github.com/sapbridge/sapbridge-api/internal/models"
)

var (
	ErrAlreadyMember     = errors.New("user is already a member of this organization")
	ErrInviteNotFound    = errors.New("invite not found")
	ErrCannotRemoveOwner = errors.New("the organization owner cannot be removed")
)

// MembershipInvalidator drops cached membership state for a user.
// Called after the durable write commits, never before.
type MembershipInvalidator interface {
	InvalidateUser(ctx context.Context, userID uuid.UUID)
}

type OrganizationService struct {
	db     *database.DB
	access MembershipInvalidator
}

func NewOrganizationService(db *database.DB, access MembershipInvalidator) *OrganizationService {
	return &OrganizationService{db: db, access: access}
}

func (s *OrganizationService) Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Organization, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var org models.Organization
	err = tx.QueryRow(ctx, `
		INSERT INTO organizations (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, name, owner_id, created_at, updated_at
	`, name, ownerID).Scan(&org.ID, &org.Name, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
	`, org.ID, ownerID, models.RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner as member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.access.InvalidateUser(ctx, ownerID)
	return &org, nil
}

func (s *OrganizationService) GetByID(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, name, owner_id, created_at, updated_at
		FROM organizations WHERE id = $1
	`, orgID).Scan(&org.ID, &org.Name, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	return &org, nil
}

func (s *OrganizationService) GetUserOrganizations(ctx context.Context, userID uuid.UUID) ([]models.Organization, []string, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT o.id, o.name, o.owner_id, o.created_at, o.updated_at, om.role
		FROM organizations o
		JOIN organization_members om ON o.id = om.organization_id
		WHERE om.user_id = $1
		ORDER BY o.created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var orgs []models.Organization
	var roles []string
	for rows.Next() {
		var org models.Organization
		var role string
		if err := rows.Scan(&org.ID, &org.Name, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt, &role); err != nil {
			return nil, nil, err
		}
		orgs = append(orgs, org)
		roles = append(roles, role)
	}
	return orgs, roles, nil
}

func (s *OrganizationService) Update(ctx context.Context, orgID uuid.UUID, name string) (*models.Organization, error) {
	var org models.Organization
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE organizations SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, name, owner_id, created_at, updated_at
	`, name, orgID).Scan(&org.ID, &org.Name, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	return &org, nil
}

func (s *OrganizationService) Delete(ctx context.Context, orgID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, orgID)
	return err
}

func (s *OrganizationService) GetMembers(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationMember, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT om.id, om.organization_id, om.user_id, om.role, om.created_at,
		       u.id, u.email, u.name, u.global_role, u.created_at, u.updated_at
		FROM organization_members om
		JOIN users u ON om.user_id = u.id
		WHERE om.organization_id = $1
		ORDER BY om.created_at
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.OrganizationMember
	for rows.Next() {
		var member models.OrganizationMember
		var user models.User
		if err := rows.Scan(
			&member.ID, &member.OrganizationID, &member.UserID, &member.Role, &member.CreatedAt,
			&user.ID, &user.Email, &user.Name, &user.GlobalRole, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		member.User = &user
		members = append(members, member)
	}
	return members, nil
}

func (s *OrganizationService) UpdateMemberRole(ctx context.Context, orgID, userID uuid.UUID, role string) error {
	if !models.IsValidRole(role) || role == models.RoleOwner {
		return NewValidationError("role")
	}

	result, err := s.db.Pool.Exec(ctx, `
		UPDATE organization_members SET role = $1
		WHERE organization_id = $2 AND user_id = $3 AND role != $4
	`, role, orgID, userID, models.RoleOwner)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.access.InvalidateUser(ctx, userID)
	return nil
}

func (s *OrganizationService) RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM organization_members
		WHERE organization_id = $1 AND user_id = $2 AND role != $3
	`, orgID, userID, models.RoleOwner)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		// Zero rows is either the owner (protected by the role filter)
		// or someone who was never a member.
		var isMember bool
		err := s.db.Pool.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM organization_members WHERE organization_id = $1 AND user_id = $2)
		`, orgID, userID).Scan(&isMember)
		if err != nil {
			return err
		}
		if isMember {
			return ErrCannotRemoveOwner
		}
		return ErrNotFound
	}

	s.access.InvalidateUser(ctx, userID)
	return nil
}

func (s *OrganizationService) CreateInvite(ctx context.Context, orgID, inviterID, inviteeID uuid.UUID, role string) (*models.OrganizationInvite, error) {
	if !models.IsValidRole(role) || role == models.RoleOwner {
		return nil, NewValidationError("role")
	}

	var isMember bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM organization_members WHERE organization_id = $1 AND user_id = $2)
	`, orgID, inviteeID).Scan(&isMember)
	if err != nil {
		return nil, err
	}
	if isMember {
		return nil, ErrAlreadyMember
	}

	var invite models.OrganizationInvite
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO organization_invites (organization_id, inviter_id, invitee_id, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (organization_id, invitee_id)
		DO UPDATE SET status = 'pending', role = $4, inviter_id = $2, updated_at = NOW()
		RETURNING id, organization_id, inviter_id, invitee_id, role, status, created_at, updated_at
	`, orgID, inviterID, inviteeID, role).Scan(
		&invite.ID, &invite.OrganizationID, &invite.InviterID, &invite.InviteeID,
		&invite.Role, &invite.Status, &invite.CreatedAt, &invite.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	return &invite, nil
}

func (s *OrganizationService) GetUserPendingInvites(ctx context.Context, userID uuid.UUID) ([]models.OrganizationInvite, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT i.id, i.organization_id, i.inviter_id, i.invitee_id, i.role, i.status,
		       i.created_at, i.updated_at, o.name, u.name
		FROM organization_invites i
		JOIN organizations o ON i.organization_id = o.id
		JOIN users u ON i.inviter_id = u.id
		WHERE i.invitee_id = $1 AND i.status = 'pending'
		ORDER BY i.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.OrganizationInvite
	for rows.Next() {
		var invite models.OrganizationInvite
		if err := rows.Scan(
			&invite.ID, &invite.OrganizationID, &invite.InviterID, &invite.InviteeID,
			&invite.Role, &invite.Status, &invite.CreatedAt, &invite.UpdatedAt,
			&invite.OrganizationName, &invite.InviterName,
		); err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, nil
}

// AcceptInvite adds the membership and marks the invite accepted in
// one transaction; the cache entry is dropped only after commit.
func (s *OrganizationService) AcceptInvite(ctx context.Context, inviteID, userID uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orgID uuid.UUID
	var role string
	err = tx.QueryRow(ctx, `
		UPDATE organization_invites SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND invitee_id = $2 AND status = 'pending'
		RETURNING organization_id, role
	`, inviteID, userID).Scan(&orgID, &role)
	if err != nil {
		return ErrInviteNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (organization_id, user_id) DO NOTHING
	`, orgID, userID, role)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.access.InvalidateUser(ctx, userID)
	return nil
}

func (s *OrganizationService) DeclineInvite(ctx context.Context, inviteID, userID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE organization_invites SET status = 'declined', updated_at = NOW()
		WHERE id = $1 AND invitee_id = $2 AND status = 'pending'
	`, inviteID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrInviteNotFound
	}
	return nil
}

func (s *OrganizationService) CancelInvite(ctx context.Context, inviteID, orgID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM organization_invites WHERE id = $1 AND organization_id = $2 AND status = 'pending'
	`, inviteID, orgID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrInviteNotFound
	}
	return nil
}
