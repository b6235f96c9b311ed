package records

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

// Handler manages performance record endpoints.
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

// MountRoutes registers record routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermRecordsRead))
		r.Get("/", h.listRecords)
		r.Get("/totals", h.periodTotals)
		r.Get("/{id}", h.getRecord)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermRecordsCreate))
		r.Post("/", h.createRecord)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermRecordsUpdate))
		r.Put("/{id}", h.updateRecord)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermRecordsDelete))
		r.Delete("/{id}", h.deleteRecord)
	})
}

type createRecordPayload struct {
	StaffID  int64   `json:"staff_id" validate:"required,min=1"`
	TaskID   int64   `json:"task_id" validate:"required,min=1"`
	PeriodID int64   `json:"period_id" validate:"required,min=1"`
	Score    float64 `json:"score" validate:"min=0,max=100"`
}

type updateRecordPayload struct {
	Score float64 `json:"score" validate:"min=0,max=100"`
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	periodID, err := queryID(r, "period_id")
	if err != nil || periodID == 0 {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	staffID, _ := queryID(r, "staff_id")
	page, perPage := shared.PageParams(r)
	items, pagination, err := h.service.ListRecords(r.Context(), periodID, staffID, page, perPage)
	if err != nil {
		h.logger.Error("list records", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"records": items, "pagination": pagination})
}

func (h *Handler) periodTotals(w http.ResponseWriter, r *http.Request) {
	periodID, err := queryID(r, "period_id")
	if err != nil || periodID == 0 {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	totals, err := h.service.PeriodTotals(r.Context(), periodID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, totals)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	rec, err := h.service.GetRecord(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, rec)
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	var payload createRecordPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	actor, _ := authz.IdentityFromContext(r.Context())
	created, err := h.service.CreateRecord(r.Context(), actor.UserID, Record{
		StaffID: payload.StaffID, TaskID: payload.TaskID, PeriodID: payload.PeriodID, Score: payload.Score,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var payload updateRecordPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	actor, _ := authz.IdentityFromContext(r.Context())
	updated, err := h.service.UpdateRecord(r.Context(), actor.UserID, id, payload.Score)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, updated)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	actor, _ := authz.IdentityFromContext(r.Context())
	if err := h.service.DeleteRecord(r.Context(), actor.UserID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func queryID(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
