package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atlas-admin/atlas-admin/internal/audit"
	"github.com/atlas-admin/atlas-admin/internal/auth"
	"github.com/atlas-admin/atlas-admin/internal/observability"
	"github.com/atlas-admin/atlas-admin/internal/permissions"
	"github.com/atlas-admin/atlas-admin/internal/rbac"
	"github.com/atlas-admin/atlas-admin/internal/roles"
	"github.com/atlas-admin/atlas-admin/internal/shared"
	"github.com/atlas-admin/atlas-admin/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *permissions.Handler
	AuditHandler       *audit.Handler
	RBACMiddleware     rbac.Middleware
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router for the management API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(LoginRateLimiter(params.Config)).Group(func(r chi.Router) {
				params.AuthHandler.MountRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireAdmin)
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/roles", params.RolesHandler.MountRoutes)
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
			r.Route("/activity", params.AuditHandler.MountRoutes)
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
