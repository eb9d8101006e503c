package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"storegate/internal/audit"
	"storegate/internal/auth"
	"storegate/internal/models"
)

// MyLogs returns recent audit events. Regular users see their own events;
// admins can pass ?all=1 to see recent events for everyone.
func MyLogs(rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.FromContext(r.Context())
		identityID := p.ID
		if r.URL.Query().Get("all") == "1" && p.HasRole(models.RoleAdmin) {
			identityID = ""
		}
		events, err := rec.Recent(r.Context(), identityID, 200)
		if err != nil {
			lg.Errorw("audit listing failed", "error", err)
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		respondJSON(w, events)
	}
}
