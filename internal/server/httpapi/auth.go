package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/willr196/vergo-db-sub002/internal/server/repository"
	"github.com/willr196/vergo-db-sub002/internal/server/service"
	"github.com/willr196/vergo-db-sub002/internal/shared/models"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	OK                  bool         `json:"ok"`
	Token               string       `json:"token,omitempty"`
	RefreshToken        string       `json:"refreshToken,omitempty"`
	User                *models.User `json:"user,omitempty"`
	PendingVerification bool         `json:"pending_verification,omitempty"`
}

func (r *Router) registerHandler(ut models.UserType) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body credentialsRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json", "bad_request")
			return
		}
		user, err := r.services.Auth.Register(req.Context(), ut, body.Email, body.Password, body.FullName, body.Phone, body.Company)
		if err != nil {
			status := http.StatusBadRequest
			code := "bad_request"
			if errors.Is(err, repository.ErrDuplicateEmail) {
				status = http.StatusConflict
				code = "duplicate_email"
			}
			writeError(w, status, err.Error(), code)
			return
		}
		if !user.Verified {
			writeJSON(w, http.StatusCreated, authResponse{OK: true, PendingVerification: true})
			return
		}
		user, tokens, err := r.services.Auth.Login(req.Context(), ut, body.Email, body.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not establish session", "internal")
			return
		}
		writeJSON(w, http.StatusCreated, authResponse{
			OK:           true,
			Token:        tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			User:         &user,
		})
	}
}

func (r *Router) loginHandler(ut models.UserType) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body credentialsRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json", "bad_request")
			return
		}
		user, tokens, err := r.services.Auth.Login(req.Context(), ut, body.Email, body.Password)
		if err != nil {
			code := "invalid_credentials"
			if errors.Is(err, service.ErrPendingVerification) {
				code = "pending_verification"
			}
			writeError(w, http.StatusUnauthorized, err.Error(), code)
			return
		}
		writeJSON(w, http.StatusOK, authResponse{
			OK:           true,
			Token:        tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			User:         &user,
		})
	}
}

func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	var body refreshRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", "bad_request")
		return
	}
	tokens, err := r.services.Auth.Refresh(req.Context(), body.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error(), "invalid_refresh")
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	var body refreshRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", "bad_request")
		return
	}
	_ = r.services.Auth.Logout(req.Context(), body.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
