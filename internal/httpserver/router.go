package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"storegate/internal/audit"
	"storegate/internal/auth"
	"storegate/internal/httpserver/handlers"
	"storegate/internal/models"
	"storegate/internal/services/accounts"
	"storegate/internal/services/enforce"
	"storegate/internal/tenant"
)

type Deps struct {
	Accounts *accounts.Service
	Engine   *enforce.Engine
	Resolver *tenant.Resolver
	Audit    *audit.Recorder
	Logger   *zap.SugaredLogger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)
	r.Use(tenant.Middleware(d.Resolver, d.Logger))

	r.Post("/v1/auth/signup", handlers.Signup(d.Accounts, d.Logger))
	r.Post("/v1/auth/login", handlers.Login(d.Accounts, d.Logger))
	r.Get("/v1/site", handlers.CurrentSite())

	r.Group(func(protected chi.Router) {
		protected.Use(auth.SessionAuth(d.Accounts))
		protected.Get("/v1/me", handlers.Me())
		protected.Post("/v1/auth/logout", handlers.Logout(d.Accounts))
		protected.Post("/v1/auth/password", handlers.ChangePassword(d.Accounts, d.Logger))
		protected.Get("/v1/logs", handlers.MyLogs(d.Audit, d.Logger))

		protected.Group(func(storefront chi.Router) {
			storefront.Use(tenant.RequireSite)
			storefront.Get("/v1/catalog/products", handlers.VisibleProducts(d.Engine))
			storefront.Get("/v1/catalog/products/{id}/visibility", handlers.ProductVisibility(d.Engine))
			storefront.Get("/v1/catalog/categories/{id}/visibility", handlers.CategoryVisibility(d.Engine))
			storefront.Get("/v1/promotions/{id}/validate", handlers.ValidatePromo(d.Engine))
			storefront.Post("/v1/promotions/{id}/usage", handlers.TrackPromoUsage(d.Engine))
		})

		protected.Group(func(vendorOps chi.Router) {
			vendorOps.Use(auth.RequireRole(models.RoleVendor, models.RoleAdmin))
			vendorOps.Get("/v1/vendors/{id}/go-live", handlers.VendorGoLive(d.Engine))
			vendorOps.Post("/v1/vendors/{id}/enforce-subscription", handlers.EnforceSubscription(d.Engine))
		})

		protected.Group(func(admin chi.Router) {
			admin.Use(auth.RequireRole(models.RoleAdmin))
			admin.Get("/v1/admin/users", handlers.ListUsers(d.Accounts, d.Logger))
			admin.Post("/v1/admin/users/{id}/role", handlers.ChangeRole(d.Accounts, d.Logger))
			admin.Post("/v1/admin/users/{id}/status", handlers.ChangeStatus(d.Accounts, d.Logger))
			admin.Get("/v1/sites/{id}/domains", handlers.ListSiteDomains(d.Resolver, d.Logger))
			admin.Post("/v1/admin/cache/clear", handlers.ClearSiteCache(d.Resolver))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
