package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/simtunkin/simtunkin/internal/auth"
	"github.com/simtunkin/simtunkin/internal/authz"
	"github.com/simtunkin/simtunkin/internal/observability"
	"github.com/simtunkin/simtunkin/internal/periods"
	"github.com/simtunkin/simtunkin/internal/records"
	"github.com/simtunkin/simtunkin/internal/roles"
	"github.com/simtunkin/simtunkin/internal/shared"
	"github.com/simtunkin/simtunkin/internal/staff"
	"github.com/simtunkin/simtunkin/internal/tasks"
	"github.com/simtunkin/simtunkin/internal/users"
	"github.com/simtunkin/simtunkin/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler    *auth.Handler
	RolesHandler   *roles.Handler
	UsersHandler   *users.Handler
	StaffHandler   *staff.Handler
	TasksHandler   *tasks.Handler
	PeriodsHandler *periods.Handler
	RecordsHandler *records.Handler
	JobHandler     *jobs.Handler

	AuthzMiddleware authz.Middleware
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
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

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Everything below requires a verified identity; each handler then
	// declares its own permission requirements per route.
	r.Group(func(r chi.Router) {
		r.Use(params.AuthzMiddleware.Authenticate)

		r.Route("/roles", params.RolesHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/staff", params.StaffHandler.MountRoutes)
		r.Route("/tasks", params.TasksHandler.MountRoutes)
		r.Route("/periods", params.PeriodsHandler.MountRoutes)
		r.Route("/records", params.RecordsHandler.MountRoutes)

		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
