package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/atlas-admin/atlas-admin/internal/platform/httpx"
	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// Middleware wires the admin gate for HTTP handlers.
type Middleware struct {
	Engine *Engine
	Logger *slog.Logger
}

// RequireAdmin rejects requests whose session carries no principal (401)
// or whose principal does not hold the admin role (403), uniformly for
// every management endpoint behind it.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principalID, ok := shared.PrincipalFromContext(r.Context())
		if !ok {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		if err := m.Engine.RequireAdmin(r.Context(), principalID); err != nil {
			var opErr *shared.OperationError
			if m.Logger != nil && errors.As(err, &opErr) {
				m.Logger.Error("admin gate", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
