package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atlas-admin/atlas-admin/internal/platform/httpx"
	"github.com/atlas-admin/atlas-admin/internal/shared"
)

// Handler wires the user management endpoints. Ids travel in the request
// body, matching the console's original wire shape.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/", h.update)
	r.Patch("/", h.patch)
	r.Delete("/", h.delete)
}

type listResponse struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	result, pagination, err := h.service.List(r.Context(), principalID, page, perPage)
	if err != nil {
		h.respondError(w, "list users", err)
		return
	}
	if result == nil {
		result = []User{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Users: result, Pagination: pagination})
}

type createRequest struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	RoleID   int64    `json:"roleId"`
	Profile  *Profile `json:"profile"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	user, err := h.service.Create(r.Context(), principalID, CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		RoleID:   req.RoleID,
		Profile:  req.Profile,
	})
	if err != nil {
		h.respondError(w, "create user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]*User{"user": user})
}

type updateRequest struct {
	UserID   int64    `json:"userId"`
	Email    *string  `json:"email"`
	Name     *string  `json:"name"`
	Password *string  `json:"password"`
	RoleID   *int64   `json:"roleId"`
	Profile  *Profile `json:"profile"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	user, err := h.service.Update(r.Context(), principalID, req.UserID, UpdateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		RoleID:   req.RoleID,
		Profile:  req.Profile,
	})
	if err != nil {
		h.respondError(w, "update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]*User{"user": user})
}

type patchRequest struct {
	UserID   int64  `json:"userId"`
	IsActive *bool  `json:"isActive"`
	RoleID   *int64 `json:"roleId"`
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	var req patchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	user, err := h.service.Patch(r.Context(), principalID, req.UserID, PatchUserInput{
		IsActive: req.IsActive,
		RoleID:   req.RoleID,
	})
	if err != nil {
		h.respondError(w, "patch user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]*User{"user": user})
}

type deleteRequest struct {
	UserID int64 `json:"userId"`
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principalID, _ := shared.PrincipalFromContext(r.Context())
	var req deleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	if err := h.service.Delete(r.Context(), principalID, req.UserID); err != nil {
		h.respondError(w, "delete user", err)
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
