package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sebdah/goldie/v2"

	"github.com/scheduler-platform/scheduler-api/internal/api/shared"
)

// assertGolden compares a response body with testdata/golden/<name>.golden.
// Run with -update to regenerate.
func assertGolden(t *testing.T, name string, body []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, body)
}

// asSubject injects an authenticated session the way the session guard does.
func asSubject(subject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subject != "" {
				r = r.WithContext(shared.WithSession(r.Context(), subject, "tok-"+subject))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newTaskRouter(h *TaskHandler, subject string) http.Handler {
	r := chi.NewRouter()
	r.Use(asSubject(subject))
	r.Post("/v1/tasks", h.CreateTask)
	r.Get("/v1/tasks", h.ListTasks)
	r.Get("/v1/tasks/ping", h.PingEngine)
	r.Delete("/v1/tasks/{id}", h.DeleteTask)
	return r
}

func newAuthRouter(h *AuthHandler, subject string) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/auth/verify", h.Verify)
	r.Get("/v1/auth/validate/{accessToken}", h.ValidateToken)
	r.With(asSubject(subject)).Post("/v1/auth/logout", h.Logout)
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
