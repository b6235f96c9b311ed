package staff

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/simtunkin/simtunkin/internal/authz"
	"github.com/simtunkin/simtunkin/internal/platform/httpx"
	"github.com/simtunkin/simtunkin/internal/shared"
)

// Handler manages staff endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validator: validator.New()}
}

// MountRoutes registers staff routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermStaffRead))
		r.Get("/", h.listStaff)
		r.Get("/{id}", h.getStaff)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermStaffCreate))
		r.Post("/", h.createStaff)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermStaffUpdate))
		r.Put("/{id}", h.updateStaff)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermStaffDelete))
		r.Delete("/{id}", h.deleteStaff)
	})
}

type staffPayload struct {
	NIP      string `json:"nip" validate:"required,max=30"`
	Name     string `json:"name" validate:"required,max=150"`
	Position string `json:"position" validate:"max=100"`
	Unit     string `json:"unit" validate:"max=100"`
	Grade    string `json:"grade" validate:"max=20"`
}

func (h *Handler) listStaff(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	items, pagination, err := h.service.ListStaff(r.Context(), r.URL.Query().Get("unit"), page, perPage)
	if err != nil {
		h.logger.Error("list staff", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"staff": items, "pagination": pagination})
}

func (h *Handler) getStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	item, err := h.service.GetStaff(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, item)
}

func (h *Handler) createStaff(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	actor, _ := authz.IdentityFromContext(r.Context())
	created, err := h.service.CreateStaff(r.Context(), actor.UserID, Staff{
		NIP: payload.NIP, Name: payload.Name, Position: payload.Position, Unit: payload.Unit, Grade: payload.Grade,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) updateStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	actor, _ := authz.IdentityFromContext(r.Context())
	updated, err := h.service.UpdateStaff(r.Context(), actor.UserID, id, Staff{
		Name: payload.Name, Position: payload.Position, Unit: payload.Unit, Grade: payload.Grade,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, updated)
}

func (h *Handler) deleteStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	actor, _ := authz.IdentityFromContext(r.Context())
	if err := h.service.DeleteStaff(r.Context(), actor.UserID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (staffPayload, bool) {
	var payload staffPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return payload, false
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return payload, false
	}
	return payload, true
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
