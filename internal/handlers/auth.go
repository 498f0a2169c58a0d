package handlers

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/sapbridge/sapbridge-api/internal/middleware"
	"github.com/sapbridge/sapbridge-api/internal/services"
	"github.com/sapbridge/sapbridge-api/pkg/dto"
)

type AuthHandler struct {
	userService  UserServiceInterface
	jwtService   JWTServiceInterface
	tokenService TokenServiceInterface
}

func NewAuthHandler(userService UserServiceInterface, jwtService JWTServiceInterface, tokenService TokenServiceInterface) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		jwtService:   jwtService,
		tokenService: tokenService,
	}
}

func (h *AuthHandler) Register(c *drift.Context) {
	var req dto.RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.Create(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			_ = c.JSON(409, map[string]string{"error": err.Error()})
			return
		}
		respondServiceError(c, err)
		return
	}

	h.issueTokens(c, user.ID, user.Email)
}

func (h *AuthHandler) Login(c *drift.Context) {
	var req dto.LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		c.BadRequest("email and password are required")
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Unauthorized("invalid email or password")
		return
	}

	h.issueTokens(c, user.ID, user.Email)
}

func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.Unauthorized("invalid refresh token")
		return
	}

	tokenHash := services.HashToken(req.RefreshToken)
	ctx := c.Request.Context()

	storedUserID, err := h.tokenService.ValidateRefreshToken(ctx, tokenHash)
	if err != nil || storedUserID != userID {
		c.Unauthorized("refresh token not found or expired")
		return
	}

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	// Rotate: the presented refresh token is single use
	if err := h.tokenService.RevokeRefreshToken(ctx, tokenHash); err != nil {
		c.InternalServerError("failed to revoke old token")
		return
	}

	h.issueTokens(c, user.ID, user.Email)
}

func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken != "" {
		tokenHash := services.HashToken(req.RefreshToken)
		_ = h.tokenService.RevokeRefreshToken(c.Request.Context(), tokenHash)
	}

	_ = c.JSON(200, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.tokenService.RevokeAllUserTokens(c.Request.Context(), userID); err != nil {
		c.InternalServerError("failed to revoke tokens")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "all sessions logged out"})
}

func (h *AuthHandler) issueTokens(c *drift.Context, userID uuid.UUID, email string) {
	tokenPair, err := h.jwtService.GenerateTokenPair(userID, email)
	if err != nil {
		c.InternalServerError("failed to generate tokens")
		return
	}

	tokenHash := services.HashToken(tokenPair.RefreshToken)
	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.StoreRefreshToken(c.Request.Context(), userID, tokenHash, expiresAt); err != nil {
		c.InternalServerError("failed to store refresh token")
		return
	}

	_ = c.JSON(200, dto.TokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}
