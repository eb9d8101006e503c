package tenant

import (
	"context"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"storegate/internal/models"
)

// DefaultTTL bounds how stale a cached resolution can be; domain mutations
// elsewhere either clear the cache or accept up to this staleness.
const DefaultTTL = 5 * time.Minute

// ResolvedSite is the tenant context derived from a storefront hostname.
type ResolvedSite struct {
	SiteID    string `json:"site_id"`
	SiteName  string `json:"site_name"`
	SiteSlug  string `json:"site_slug"`
	Domain    string `json:"domain"`
	IsPrimary bool   `json:"is_primary"`
}

type Store interface {
	DomainByName(ctx context.Context, domain string) (*models.SiteDomain, error)
	SiteByID(ctx context.Context, id string) (*models.Site, error)
	DomainsForSite(ctx context.Context, siteID string) ([]models.SiteDomain, error)
}

// Resolver maps inbound hostnames to tenant identity through an injected
// TTL cache.
type Resolver struct {
	store Store
	cache Cache
	lg    *zap.SugaredLogger
	ttl   time.Duration
}

func NewResolver(store Store, cache Cache, lg *zap.SugaredLogger, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{store: store, cache: cache, lg: lg, ttl: ttl}
}

// NormalizeDomain lower-cases the input and strips a trailing :port.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	if host, _, err := net.SplitHostPort(d); err == nil {
		d = host
	}
	return d
}

// Resolve maps a domain to its site. Unknown and non-active domains both
// resolve to nil; only infrastructure failures surface as errors.
func (r *Resolver) Resolve(ctx context.Context, domain string) (*ResolvedSite, error) {
	d := NormalizeDomain(domain)
	if d == "" {
		return nil, nil
	}
	if hit, ok := r.cache.Get(ctx, d); ok {
		return hit, nil
	}
	row, err := r.store.DomainByName(ctx, d)
	if err != nil {
		return nil, err
	}
	if row == nil || row.Status != models.DomainActive {
		return nil, nil
	}
	site, err := r.store.SiteByID(ctx, row.SiteID)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, nil
	}
	resolved := &ResolvedSite{
		SiteID:    site.ID,
		SiteName:  site.Name,
		SiteSlug:  site.Slug,
		Domain:    row.Domain,
		IsPrimary: row.IsPrimary,
	}
	r.cache.Set(ctx, d, resolved, r.ttl)
	return resolved, nil
}

// ResolveFromHost resolves a raw Host header value.
func (r *Resolver) ResolveFromHost(ctx context.Context, hostHeader string) (*ResolvedSite, error) {
	return r.Resolve(ctx, hostHeader)
}

// ClearCache purges every cached resolution. There is no per-key
// invalidation.
func (r *Resolver) ClearCache(ctx context.Context) {
	r.cache.Clear(ctx)
}

// ListDomains returns the site's active domains, primary first.
func (r *Resolver) ListDomains(ctx context.Context, siteID string) ([]string, error) {
	rows, err := r.store.DomainsForSite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	domains := make([]string, 0, len(rows))
	for _, row := range rows {
		domains = append(domains, row.Domain)
	}
	return domains, nil
}

// PrimaryDomain returns the site's active primary domain, or "" when the
// site has none.
func (r *Resolver) PrimaryDomain(ctx context.Context, siteID string) (string, error) {
	rows, err := r.store.DomainsForSite(ctx, siteID)
	if err != nil {
		return "", err
	}
	for _, row := range rows {
		if row.IsPrimary {
			return row.Domain, nil
		}
	}
	return "", nil
}
