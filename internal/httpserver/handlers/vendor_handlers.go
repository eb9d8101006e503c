package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storegate/internal/services/enforce"
)

func VendorGoLive(engine *enforce.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID := chi.URLParam(r, "id")
		respondJSON(w, engine.VendorGoLiveStatus(r.Context(), vendorID))
	}
}

// EnforceSubscription runs the billing compensation for one vendor, as the
// external scheduler does on its periodic sweep.
func EnforceSubscription(engine *enforce.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID := chi.URLParam(r, "id")
		current := engine.EnforceVendorSubscription(r.Context(), vendorID)
		respondJSON(w, map[string]any{"vendor_id": vendorID, "subscription_current": current})
	}
}
