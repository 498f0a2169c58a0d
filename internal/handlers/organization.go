package handlers

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/sapbridge/sapbridge-api/internal/middleware"
	"github.com/sapbridge/sapbridge-api/internal/models"
	"github.com/sapbridge/sapbridge-api/pkg/dto"
)

type OrganizationHandler struct {
	orgService   OrganizationServiceInterface
	userService  UserServiceInterface
	emailService EmailServiceInterface
	baseURL      string
}

func NewOrganizationHandler(orgService OrganizationServiceInterface, userService UserServiceInterface, emailService EmailServiceInterface, baseURL string) *OrganizationHandler {
	return &OrganizationHandler{
		orgService:   orgService,
		userService:  userService,
		emailService: emailService,
		baseURL:      baseURL,
	}
}

func (h *OrganizationHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateOrganizationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	org, err := h.orgService.Create(c.Request.Context(), req.Name, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(201, dto.OrganizationResponse{
		ID:        org.ID,
		Name:      org.Name,
		OwnerID:   org.OwnerID,
		Role:      models.RoleOwner,
		CreatedAt: org.CreatedAt,
	})
}

func (h *OrganizationHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	orgs, roles, err := h.orgService.GetUserOrganizations(c.Request.Context(), userID)
	if err != nil {
		c.InternalServerError("failed to get organizations")
		return
	}

	response := make([]dto.OrganizationResponse, len(orgs))
	for i, org := range orgs {
		response[i] = dto.OrganizationResponse{
			ID:        org.ID,
			Name:      org.Name,
			OwnerID:   org.OwnerID,
			Role:      roles[i],
			CreatedAt: org.CreatedAt,
		}
	}

	_ = c.JSON(200, response)
}

func (h *OrganizationHandler) Get(c *drift.Context) {
	ac := middleware.GetAccessContext(c)
	if ac == nil {
		c.Forbidden("no organization context")
		return
	}

	org, err := h.orgService.GetByID(c.Request.Context(), ac.OrganizationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, dto.OrganizationResponse{
		ID:        org.ID,
		Name:      org.Name,
		OwnerID:   org.OwnerID,
		Role:      ac.Role,
		CreatedAt: org.CreatedAt,
	})
}

func (h *OrganizationHandler) Update(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	var req dto.UpdateOrganizationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	org, err := h.orgService.Update(c.Request.Context(), orgID, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, dto.OrganizationResponse{
		ID:        org.ID,
		Name:      org.Name,
		OwnerID:   org.OwnerID,
		CreatedAt: org.CreatedAt,
	})
}

func (h *OrganizationHandler) Delete(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	if err := h.orgService.Delete(c.Request.Context(), orgID); err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "organization deleted"})
}

func (h *OrganizationHandler) GetMembers(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	members, err := h.orgService.GetMembers(c.Request.Context(), orgID)
	if err != nil {
		c.InternalServerError("failed to get members")
		return
	}

	response := make([]dto.MemberResponse, 0, len(members))
	for _, m := range members {
		item := dto.MemberResponse{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.CreatedAt,
		}
		if m.User != nil {
			item.Email = m.User.Email
			item.Name = m.User.Name
		}
		response = append(response, item)
	}

	_ = c.JSON(200, response)
}

func (h *OrganizationHandler) UpdateMemberRole(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	var req dto.UpdateMemberRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if err := h.orgService.UpdateMemberRole(c.Request.Context(), orgID, memberID, req.Role); err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "role updated"})
}

func (h *OrganizationHandler) RemoveMember(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	if err := h.orgService.RemoveMember(c.Request.Context(), orgID, memberID); err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "member removed"})
}

func (h *OrganizationHandler) CreateInvite(c *drift.Context) {
	userID := middleware.GetUserID(c)
	orgID := middleware.GetOrgID(c)

	var req dto.CreateInviteRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Email == "" {
		c.BadRequest("email is required")
		return
	}

	ctx := c.Request.Context()

	invitee, err := h.userService.GetByEmail(ctx, req.Email)
	if err != nil {
		c.NotFound("user with this email not found")
		return
	}

	invite, err := h.orgService.CreateInvite(ctx, orgID, userID, invitee.ID, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Delivery failure must not fail the invite; it stays visible in
	// the invitee's pending list either way.
	if org, orgErr := h.orgService.GetByID(ctx, orgID); orgErr == nil {
		inviterName := "Someone"
		if inviter, invErr := h.userService.GetByID(ctx, userID); invErr == nil {
			inviterName = inviter.Name
		}
		inviteURL := fmt.Sprintf("%s/invites/%s", h.baseURL, invite.ID)
		_ = h.emailService.SendOrganizationInvite(invitee.Email, org.Name, inviterName, inviteURL)
	}

	_ = c.JSON(201, dto.InviteResponse{
		ID:             invite.ID,
		OrganizationID: invite.OrganizationID,
		Role:           invite.Role,
		Status:         invite.Status,
		CreatedAt:      invite.CreatedAt,
	})
}

func (h *OrganizationHandler) CancelInvite(c *drift.Context) {
	orgID := middleware.GetOrgID(c)

	inviteID, err := uuid.Parse(c.Param("inviteId"))
	if err != nil {
		c.BadRequest("invalid invite id")
		return
	}

	if err := h.orgService.CancelInvite(c.Request.Context(), inviteID, orgID); err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "invite cancelled"})
}

func (h *OrganizationHandler) ListMyInvites(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	invites, err := h.orgService.GetUserPendingInvites(c.Request.Context(), userID)
	if err != nil {
		c.InternalServerError("failed to get invites")
		return
	}

	response := make([]dto.InviteResponse, len(invites))
	for i, inv := range invites {
		response[i] = dto.InviteResponse{
			ID:               inv.ID,
			OrganizationID:   inv.OrganizationID,
			OrganizationName: inv.OrganizationName,
			InviterName:      inv.InviterName,
			Role:             inv.Role,
			Status:           inv.Status,
			CreatedAt:        inv.CreatedAt,
		}
	}

	_ = c.JSON(200, response)
}

func (h *OrganizationHandler) AcceptInvite(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	inviteID, err := uuid.Parse(c.Param("inviteId"))
	if err != nil {
		c.BadRequest("invalid invite id")
		return
	}

	if err := h.orgService.AcceptInvite(c.Request.Context(), inviteID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "invite accepted"})
}

func (h *OrganizationHandler) DeclineInvite(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	inviteID, err := uuid.Parse(c.Param("inviteId"))
	if err != nil {
		c.BadRequest("invalid invite id")
		return
	}

	if err := h.orgService.DeclineInvite(c.Request.Context(), inviteID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "invite declined"})
}
