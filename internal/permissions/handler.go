package permissions

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atlas-admin/atlas-admin/internal/platform/httpx"
	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// Handler wires the permission catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers permission routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/", h.update)
	r.Delete("/", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	result, err := h.service.List(r.Context(), principalID)
	if err != nil {
		h.respondError(w, "list permissions", err)
		return
	}
	if result == nil {
		result = []Permission{}
	}
	httpx.JSON(w, http.StatusOK, map[string][]Permission{"permissions": result})
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	IsActive    *bool  `json:"isActive"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	perm, err := h.service.Create(r.Context(), principalID, CreatePermissionInput{
		Name:        req.Name,
		Description: req.Description,
		Resource:    req.Resource,
		Action:      req.Action,
		IsActive:    isActive,
	})
	if err != nil {
		h.respondError(w, "create permission", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]*Permission{"permission": perm})
}

type updateRequest struct {
	PermissionID int64   `json:"permissionId"`
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Resource     *string `json:"resource"`
	Action       *string `json:"action"`
	IsActive     *bool   `json:"isActive"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	perm, err := h.service.Update(r.Context(), principalID, req.PermissionID, PermissionPatch{
		Name:        req.Name,
		Description: req.Description,
		Resource:    req.Resource,
		Action:      req.Action,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.respondError(w, "update permission", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]*Permission{"permission": perm})
}

type deleteRequest struct {
	PermissionID int64 `json:"permissionId"`
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	var req deleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	if err := h.service.Delete(r.Context(), principalID, req.PermissionID); err != nil {
		h.respondError(w, "delete permission", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var opErr *shared.OperationError
	if errors.As(err, &opErr) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
