package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storegate/internal/auth"
	"storegate/internal/models"
	"storegate/internal/services/accounts"
)

func ListUsers(svc *accounts.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idents, err := svc.ListIdentities(r.Context(), 0)
		if err != nil {
			lg.Errorw("identity listing failed", "error", err)
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		respondJSON(w, idents)
	}
}

type changeRoleReq struct {
	Role   models.Role `json:"role"`
	Reason string      `json:"reason,omitempty"`
}

func ChangeRole(svc *accounts.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req changeRoleReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !req.Role.Valid() {
			http.Error(w, "unknown role", http.StatusBadRequest)
			return
		}
		ok, err := svc.ChangeRole(r.Context(), id, req.Role, auth.Subject(r.Context()), req.Reason)
		if err != nil {
			lg.Errorw("role change failed", "identity_id", id, "error", err)
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		respondJSON(w, map[string]any{"changed": true, "role": req.Role})
	}
}

type changeStatusReq struct {
	Status models.IdentityStatus `json:"status"`
}

func ChangeStatus(svc *accounts.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req changeStatusReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ok, err := svc.ChangeStatus(r.Context(), id, req.Status, auth.Subject(r.Context()))
		switch {
		case errors.Is(err, accounts.ErrValidation):
			http.Error(w, "invalid status transition", http.StatusBadRequest)
			return
		case err != nil:
			lg.Errorw("status change failed", "identity_id", id, "error", err)
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		respondJSON(w, map[string]any{"changed": true, "status": req.Status})
	}
}
