package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/willr196/vergo-db-sub002/internal/server/service"
	"github.com/willr196/vergo-db-sub002/internal/shared/models"
)

type Router struct {
	services *service.Services
	log      zerolog.Logger
}

func NewRouter(services *service.Services, log zerolog.Logger) http.Handler {
	r := &Router{services: services, log: log}
	mux := chi.NewRouter()

	mux.Get("/health", r.handleHealth)

	mux.Post("/api/v1/auth/jobseeker/register", r.registerHandler(models.UserTypeJobSeeker))
	mux.Post("/api/v1/auth/client/register", r.registerHandler(models.UserTypeClient))
	mux.Post("/api/v1/auth/jobseeker/login", r.loginHandler(models.UserTypeJobSeeker))
	mux.Post("/api/v1/auth/client/login", r.loginHandler(models.UserTypeClient))
	mux.Post("/api/v1/auth/jobseeker/refresh", r.handleRefresh)
	mux.Post("/api/v1/auth/client/refresh", r.handleRefresh)
	mux.Post("/api/v1/auth/logout", r.handleLogout)

	mux.Group(func(pr chi.Router) {
		pr.Use(r.authMiddleware)
		pr.Get("/api/v1/jobs", r.handleListJobs)
		pr.Post("/api/v1/jobs/{id}/apply", r.handleApply)
		pr.Delete("/api/v1/applications/{id}", r.handleWithdraw)
		pr.Get("/api/v1/profile", r.handleGetProfile)
		pr.Put("/api/v1/profile", r.handleUpdateProfile)
	})

	return mux
}

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the {ok:false, error, code} failure envelope.
func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg, "code": code})
}
