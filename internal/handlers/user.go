package handlers

import (
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/sapbridge/sapbridge-api/internal/middleware"
	"github.com/sapbridge/sapbridge-api/internal/models"
	"github.com/sapbridge/sapbridge-api/pkg/dto"
)

type UserHandler struct {
	userService UserServiceInterface
}

func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.NotFound("user not found")
		return
	}

	_ = c.JSON(200, userResponse(user))
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	user, err := h.userService.Update(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = c.JSON(200, userResponse(user))
}

func userResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		GlobalRole: user.GlobalRole,
	}
}
