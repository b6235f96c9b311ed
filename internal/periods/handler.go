package periods

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/simtunkin/simtunkin/internal/authz"
	"github.com/simtunkin/simtunkin/internal/platform/httpx"
)

// Handler manages period endpoints.
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

// MountRoutes registers period routes. Reading is shared by content and
// taxonomy managers; writes belong to taxonomy management.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermPeriodsRead))
		r.Get("/", h.listPeriods)
		r.Get("/{id}", h.getPeriod)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermPeriodsCreate))
		r.Post("/", h.createPeriod)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermPeriodsUpdate))
		r.Put("/{id}", h.updatePeriod)
		r.Post("/{id}/close", h.closePeriod)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermPeriodsDelete))
		r.Delete("/{id}", h.deletePeriod)
	})
}

type periodPayload struct {
	Name      string `json:"name" validate:"required,max=150"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (p periodPayload) toPeriod() Period {
	start, _ := time.Parse("2006-01-02", p.StartDate)
	end, _ := time.Parse("2006-01-02", p.EndDate)
	return Period{Name: p.Name, StartDate: start, EndDate: end}
}

func (h *Handler) listPeriods(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListPeriods(r.Context())
	if err != nil {
		h.logger.Error("list periods", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, items)
}

func (h *Handler) getPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	item, err := h.service.GetPeriod(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, item)
}

func (h *Handler) createPeriod(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	actor, _ := authz.IdentityFromContext(r.Context())
	created, err := h.service.CreatePeriod(r.Context(), actor.UserID, payload.toPeriod())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) updatePeriod(w http.ResponseWriter, r *http.Request) {
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
	updated, err := h.service.UpdatePeriod(r.Context(), actor.UserID, id, payload.toPeriod())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, updated)
}

func (h *Handler) closePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	actor, _ := authz.IdentityFromContext(r.Context())
	closed, err := h.service.ClosePeriod(r.Context(), actor.UserID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, closed)
}

func (h *Handler) deletePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	actor, _ := authz.IdentityFromContext(r.Context())
	if err := h.service.DeletePeriod(r.Context(), actor.UserID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (periodPayload, bool) {
	var payload periodPayload
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
