package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sapbridge/sapbridge-api/internal/models"
)

// ErrNotFound covers both a genuinely absent record and a record owned
// by another organization. Callers cannot tell the two apart, which
// keeps cross-tenant existence unguessable.
var ErrNotFound = errors.New("not found")

// ValidationError reports the specific fields that were missing or
// malformed so the caller can fix its request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// UsageError blocks a deletion while other entities still reference
// the target; Usage carries the breakdown the caller must resolve.
type UsageError struct {
	Usage models.UsageCounts
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("still referenced: %d grants, %d services", e.Usage.Grants, e.Usage.Services)
}
