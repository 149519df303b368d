package http

import (
	"errors"
	"net/http"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
)

// StatusFor maps an application error to its HTTP status
func StatusFor(err error) int {
	var (
		inputErr     *port.InputError
		conflictErr  *port.LockConflictError
		forbiddenErr *port.ForbiddenError
	)

	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.As(err, &conflictErr), errors.As(err, &forbiddenErr), errors.Is(err, port.ErrNotLocked):
		return http.StatusForbidden
	case errors.Is(err, port.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	default:
		// configuration gaps and persistence failures
		return http.StatusInternalServerError
	}
}
