package handlers

import (
	"errors"
	"net/http"

	"github.com/m1z23r/drift/pkg/drift"

	"github.com/sapbridge/sapbridge-api/internal/services"
)

// respondServiceError maps the services error taxonomy onto HTTP
// responses. Unknown errors deliberately collapse to a generic 500 so
// no internal detail leaks out.
func respondServiceError(c *drift.Context, err error) {
	var validationErr *services.ValidationError
	var usageErr *services.UsageError

	switch {
	case errors.As(err, &validationErr):
		c.BadRequest(validationErr.Error())
	case errors.As(err, &usageErr):
		_ = c.JSON(http.StatusConflict, map[string]any{
			"error": usageErr.Error(),
			"usage": usageErr.Usage,
		})
	case errors.Is(err, services.ErrNotFound):
		c.NotFound("not found")
	case errors.Is(err, services.ErrGrantExists),
		errors.Is(err, services.ErrAuthConfigExists),
		errors.Is(err, services.ErrServiceExists),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrEmailTaken):
		_ = c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrInviteNotFound):
		c.NotFound(err.Error())
	case errors.Is(err, services.ErrCannotRemoveOwner):
		c.BadRequest(err.Error())
	default:
		c.InternalServerError("internal error")
	}
}
