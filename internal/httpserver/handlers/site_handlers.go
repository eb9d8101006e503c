package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storegate/internal/tenant"
)

// CurrentSite reports the tenant resolved from the request host.
func CurrentSite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site := tenant.SiteFromContext(r.Context())
		if site == nil {
			http.Error(w, "unknown storefront domain", http.StatusNotFound)
			return
		}
		respondJSON(w, site)
	}
}

func ListSiteDomains(resolver *tenant.Resolver, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID := chi.URLParam(r, "id")
		domains, err := resolver.ListDomains(r.Context(), siteID)
		if err != nil {
			lg.Errorw("domain listing failed", "site_id", siteID, "error", err)
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		primary, err := resolver.PrimaryDomain(r.Context(), siteID)
		if err != nil {
			lg.Errorw("primary domain lookup failed", "site_id", siteID, "error", err)
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{"site_id": siteID, "domains": domains, "primary": primary})
	}
}

// ClearSiteCache purges the resolver cache after domain mutations.
func ClearSiteCache(resolver *tenant.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolver.ClearCache(r.Context())
		respondJSON(w, map[string]any{"cleared": true})
	}
}
