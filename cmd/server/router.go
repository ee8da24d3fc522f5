package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/scheduler-platform/scheduler-api/internal/api"
	"github.com/scheduler-platform/scheduler-api/internal/api/middleware"
)

// routerDeps are the handlers and guards the router mounts. audit may be nil.
type routerDeps struct {
	tasks        *api.TaskHandler
	auth         *api.AuthHandler
	health       *api.HealthHandler
	session      *middleware.SessionMiddleware
	idempotency  *middleware.IdempotencyMiddleware
	audit        *middleware.AuditMiddleware
	loginLimiter *middleware.IPRateLimiter
}

// newRouter builds the HTTP routes. Audit wraps everything outside the
// session guard so rejected requests are recorded too; idempotency sits
// inside it so replays are scoped to authenticated mutations.
func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceMiddleware)
	if d.audit != nil {
		r.Use(d.audit.Handle)
	}
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", d.health.Check)

		r.Route("/v1", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.With(d.loginLimiter.Limit).Post("/verify", d.auth.Verify)
				r.Get("/validate/{accessToken}", d.auth.ValidateToken)
				r.With(d.session.Authenticate).Post("/logout", d.auth.Logout)
			})

			r.Group(func(r chi.Router) {
				r.Use(d.session.Authenticate)

				r.Get("/tasks", d.tasks.ListTasks)
				r.Get("/tasks/ping", d.tasks.PingEngine)

				r.Group(func(r chi.Router) {
					r.Use(d.idempotency.Handle)
					r.Post("/tasks", d.tasks.CreateTask)
					r.Delete("/tasks/{id}", d.tasks.DeleteTask)
				})
			})
		})
	})

	return r
}
