package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"storegate/internal/auth"
	"storegate/internal/services/accounts"
)

type signupReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

func Signup(svc *accounts.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ident, sess, err := svc.Signup(r.Context(), req.Email, req.Password, req.FullName)
		switch {
		case errors.Is(err, accounts.ErrEmailTaken):
			http.Error(w, "email already registered", http.StatusConflict)
			return
		case errors.Is(err, accounts.ErrValidation):
			http.Error(w, "email and password required", http.StatusBadRequest)
			return
		case err != nil:
			lg.Errorw("signup failed", "error", err)
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		respondStatus(w, http.StatusCreated, map[string]any{
			"id":         ident.ID,
			"email":      ident.Email,
			"token":      sess.Token,
			"expires_at": sess.ExpiresAt,
		})
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(svc *accounts.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ident, sess, err := svc.Login(r.Context(), req.Email, req.Password)
		switch {
		case errors.Is(err, accounts.ErrAccountLocked):
			http.Error(w, "account locked", http.StatusForbidden)
			return
		case errors.Is(err, accounts.ErrInvalidCredentials):
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		case err != nil:
			lg.Errorw("login failed", "error", err)
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{
			"id":         ident.ID,
			"email":      ident.Email,
			"token":      sess.Token,
			"expires_at": sess.ExpiresAt,
		})
	}
}

func Logout(svc *accounts.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		token := strings.TrimPrefix(h, "Bearer ")
		found := svc.Logout(r.Context(), token)
		respondJSON(w, map[string]any{"logged_out": found})
	}
}

func Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.FromContext(r.Context())
		respondJSON(w, map[string]any{
			"id":    p.ID,
			"email": p.Email,
			"role":  p.Role,
		})
	}
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func ChangePassword(svc *accounts.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err := svc.ChangePassword(r.Context(), auth.Subject(r.Context()), req.CurrentPassword, req.NewPassword)
		switch {
		case errors.Is(err, accounts.ErrInvalidCredentials):
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		case errors.Is(err, accounts.ErrValidation):
			http.Error(w, "new password required", http.StatusBadRequest)
			return
		case err != nil:
			lg.Errorw("password change failed", "error", err)
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"changed": true})
	}
}
