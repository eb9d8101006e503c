package tenant

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type ctxKey string

const siteKey ctxKey = "resolvedSite"

func WithSite(ctx context.Context, site *ResolvedSite) context.Context {
	return context.WithValue(ctx, siteKey, site)
}

// SiteFromContext returns the request's tenant, or nil when the host did not
// resolve.
func SiteFromContext(ctx context.Context) *ResolvedSite {
	if v, ok := ctx.Value(siteKey).(*ResolvedSite); ok {
		return v
	}
	return nil
}

// Middleware resolves the Host header once per request. Resolution failures
// leave the request without a tenant; downstream checks fail closed.
func Middleware(r *Resolver, lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			site, err := r.ResolveFromHost(req.Context(), req.Host)
			if err != nil {
				lg.Warnw("site resolution failed", "host", req.Host, "error", err)
			}
			if site != nil {
				req = req.WithContext(WithSite(req.Context(), site))
			}
			next.ServeHTTP(w, req)
		})
	}
}

// RequireSite rejects storefront routes whose host did not resolve to a
// tenant.
func RequireSite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SiteFromContext(r.Context()) == nil {
			http.Error(w, "unknown storefront domain", http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
