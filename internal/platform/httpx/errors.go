package httpx

import (
	"errors"
	"net/http"

	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// OperationFailed details never reach the client; callers log them.
func RespondError(w http.ResponseWriter, err error) {
	var validation *shared.ValidationError
	switch {
	case errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthenticated", "authentication required")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthenticated", "invalid credentials")
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
	case errors.As(err, &validation):
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Fields: validation.Fields,
		})
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
