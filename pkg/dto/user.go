package dto

import "github.com/google/uuid"

// UserResponse is the account as seen by its owner. Organization roles
// are not part of it, they live on the membership listings.
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	GlobalRole string    `json:"global_role"`
}

type UpdateUserRequest struct {
	Name string `json:"name"`
}
