package tenant

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/covenant-hq/covenant/internal/platform/httpx"
)

// Handler serves the tenant administration endpoints.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the tenant admin handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validator: validator.New()}
}

type provisionRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// MountRoutes registers tenant admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Provision)
	r.Get("/{tenantID}", h.Get)
	r.Post("/{tenantID}/disable", h.Disable)
	r.Post("/{tenantID}/enable", h.Enable)
}

func (h *Handler) Provision(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	t, err := h.service.Provision(r.Context(), req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) Disable(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Disable(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Enable(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Enable(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Tenant", "tenant id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.RespondError(w, fmt.Errorf("%w: tenant", httpx.ErrNotFound))
		return
	}
	httpx.RespondError(w, err)
}
