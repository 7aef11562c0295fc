package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/willr196/vergo-db-sub002/internal/server/repository"
	"github.com/willr196/vergo-db-sub002/internal/shared/models"
)

type jobsResponse struct {
	OK   bool         `json:"ok"`
	Jobs []models.Job `json:"jobs"`
}

type profileResponse struct {
	OK   bool        `json:"ok"`
	User models.User `json:"user"`
}

type applicationResponse struct {
	OK          bool               `json:"ok"`
	Application models.Application `json:"application"`
}

func (r *Router) handleListJobs(w http.ResponseWriter, req *http.Request) {
	jobs, err := r.services.Market.ListJobs(req.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list jobs", "internal")
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	writeJSON(w, http.StatusOK, jobsResponse{OK: true, Jobs: jobs})
}

func (r *Router) handleApply(w http.ResponseWriter, req *http.Request) {
	jobID := chi.URLParam(req, "id")
	app, err := r.services.Market.Apply(req.Context(), getUserID(req.Context()), jobID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "job not found", "not_found")
		case errors.Is(err, repository.ErrAlreadyApplied):
			writeError(w, http.StatusConflict, "already applied", "already_applied")
		default:
			writeError(w, http.StatusInternalServerError, "could not apply", "internal")
		}
		return
	}
	writeJSON(w, http.StatusCreated, applicationResponse{OK: true, Application: app})
}

func (r *Router) handleWithdraw(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	err := r.services.Market.Withdraw(req.Context(), getUserID(req.Context()), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "application not found", "not_found")
		case errors.Is(err, repository.ErrAlreadyWithdrawn):
			writeError(w, http.StatusConflict, "already withdrawn", "already_withdrawn")
		default:
			writeError(w, http.StatusInternalServerError, "could not withdraw", "internal")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (r *Router) handleGetProfile(w http.ResponseWriter, req *http.Request) {
	user, err := r.services.Market.Profile(req.Context(), getUserID(req.Context()))
	if err != nil {
		writeError(w, http.StatusNotFound, "profile not found", "not_found")
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{OK: true, User: user})
}

func (r *Router) handleUpdateProfile(w http.ResponseWriter, req *http.Request) {
	var body models.User
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", "bad_request")
		return
	}
	user, err := r.services.Market.UpdateProfile(req.Context(), getUserID(req.Context()), body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not update profile", "bad_request")
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{OK: true, User: user})
}
