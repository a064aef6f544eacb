package audit

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atlas-admin/atlas-admin/internal/platform/httpx"
	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// Handler serves the activity feed endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the activity route on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.recent)
}

func (h *Handler) recent(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.service.Recent(r.Context(), principalID, limit)
	if err != nil {
		var opErr *shared.OperationError
		if errors.As(err, &opErr) {
			h.logger.Error("recent activity", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httpx.JSON(w, http.StatusOK, map[string][]Entry{"activity": entries})
}
