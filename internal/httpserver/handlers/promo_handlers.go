package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storegate/internal/auth"
	"storegate/internal/services/enforce"
	"storegate/internal/tenant"
)

// ValidatePromo re-derives promotion validity for the request's storefront
// and the caller's current role.
func ValidatePromo(engine *enforce.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site := tenant.SiteFromContext(r.Context())
		p := auth.FromContext(r.Context())
		promoID := chi.URLParam(r, "id")
		respondJSON(w, engine.ValidatePromotion(r.Context(), promoID, site.SiteID, p.Role))
	}
}

type trackUsageReq struct {
	OrderID        string `json:"order_id"`
	DiscountAmount int64  `json:"discount_amount"`
}

func TrackPromoUsage(engine *enforce.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promoID := chi.URLParam(r, "id")
		var req trackUsageReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.OrderID == "" || req.DiscountAmount < 0 {
			http.Error(w, "order_id and non-negative discount_amount required", http.StatusBadRequest)
			return
		}
		engine.TrackPromoUsage(r.Context(), promoID, req.OrderID, auth.Subject(r.Context()), req.DiscountAmount)
		respondStatus(w, http.StatusAccepted, map[string]any{"tracked": true})
	}
}
