package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atlas-admin/atlas-admin/internal/platform/httpx"
	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// Handler wires the role management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers role routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/", h.update)
	r.Delete("/", h.delete)
	r.Route("/{roleID}/permissions", func(r chi.Router) {
		r.Get("/", h.listPermissions)
		r.Post("/", h.assignPermissions)
		r.Delete("/", h.unassignPermissions)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	result, err := h.service.List(r.Context(), principalID)
	if err != nil {
		h.respondError(w, "list roles", err)
		return
	}
	if result == nil {
		result = []Role{}
	}
	httpx.JSON(w, http.StatusOK, map[string][]Role{"roles": result})
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
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
	role, err := h.service.Create(r.Context(), principalID, req.Name, req.Description, isActive)
	if err != nil {
		h.respondError(w, "create role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]*Role{"role": role})
}

type updateRequest struct {
	RoleID      int64   `json:"roleId"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	role, err := h.service.Update(r.Context(), principalID, req.RoleID, RolePatch{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.respondError(w, "update role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]*Role{"role": role})
}

type deleteRequest struct {
	RoleID int64 `json:"roleId"`
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	var req deleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	if err := h.service.Delete(r.Context(), principalID, req.RoleID); err != nil {
		h.respondError(w, "delete role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

type permissionIDsRequest struct {
	PermissionIDs []int64 `json:"permissionIds"`
}

type permissionCountResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	roleID, err := roleIDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ids, err := h.service.ListPermissionIDs(r.Context(), principalID, roleID)
	if err != nil {
		h.respondError(w, "list role permissions", err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	httpx.JSON(w, http.StatusOK, map[string][]int64{"permissionIds": ids})
}

func (h *Handler) assignPermissions(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	roleID, err := roleIDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req permissionIDsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	count, err := h.service.AssignPermissions(r.Context(), principalID, roleID, req.PermissionIDs)
	if err != nil {
		h.respondError(w, "assign permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, permissionCountResponse{Success: true, Count: count})
}

func (h *Handler) unassignPermissions(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	roleID, err := roleIDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req permissionIDsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	count, err := h.service.UnassignPermissions(r.Context(), principalID, roleID, req.PermissionIDs)
	if err != nil {
		h.respondError(w, "unassign permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, permissionCountResponse{Success: true, Count: count})
}

func roleIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.NewValidationError("roleId", "must be a positive integer")
	}
	return id, nil
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var opErr *shared.OperationError
	if errors.As(err, &opErr) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
