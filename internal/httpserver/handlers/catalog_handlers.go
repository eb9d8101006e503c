package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"storegate/internal/services/enforce"
	"storegate/internal/tenant"
)

// VisibleProducts lists product ids visible on the request's storefront.
func VisibleProducts(engine *enforce.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site := tenant.SiteFromContext(r.Context())
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		ids := engine.VisibleProductsForSite(r.Context(), site.SiteID, limit)
		respondJSON(w, map[string]any{"site_id": site.SiteID, "product_ids": ids})
	}
}

func ProductVisibility(engine *enforce.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site := tenant.SiteFromContext(r.Context())
		productID := chi.URLParam(r, "id")
		respondJSON(w, engine.ProductVisibility(r.Context(), productID, site.SiteID))
	}
}

func CategoryVisibility(engine *enforce.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site := tenant.SiteFromContext(r.Context())
		categoryID := chi.URLParam(r, "id")
		respondJSON(w, map[string]any{
			"category_id": categoryID,
			"is_visible":  engine.CategoryVisibility(r.Context(), categoryID, site.SiteID),
		})
	}
}
