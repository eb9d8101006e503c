package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"storegate/internal/audit"
	"storegate/internal/auth"
	"storegate/internal/httpserver"
	"storegate/internal/logger"
	"storegate/internal/models"
	"storegate/internal/roles"
	"storegate/internal/services/accounts"
	"storegate/internal/services/enforce"
	"storegate/internal/session"
	"storegate/internal/tenant"
)

func main() {
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		lg.Fatalw("DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.Identity{}, &models.Credential{}, &models.Session{},
		&models.RoleAssignment{}, &models.AuditEvent{},
		&models.Site{}, &models.SiteDomain{},
		&models.Product{}, &models.Category{},
		&models.SiteProductVisibility{}, &models.SiteCategoryVisibility{},
		&models.Vendor{}, &models.VendorSubscription{}, &models.VendorAgreement{},
		&models.Promotion{}, &models.PromoUsage{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	recorder := audit.NewRecorder(audit.NewStore(db), lg)
	ledger := roles.NewLedger(roles.NewStore(db))
	sessions := session.NewManager(session.NewStore(db), ledger, recorder, lg, envDuration("SESSION_TTL", session.DefaultTTL))
	accountsSvc := accounts.NewService(accounts.NewStore(db), sessions, ledger, recorder, lg)
	resolver := tenant.NewResolver(tenant.NewStore(db), siteCache(lg), lg, envDuration("SITE_CACHE_TTL", tenant.DefaultTTL))
	engine := enforce.NewEngine(enforce.NewStore(db), recorder, lg)

	seedDefaultAdmin(db, ledger, lg)

	router := httpserver.NewRouter(httpserver.Deps{
		Accounts: accountsSvc,
		Engine:   engine,
		Resolver: resolver,
		Audit:    recorder,
		Logger:   lg,
	})

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	lg.Infow("listening", "port", port)
	if err := srv.ListenAndServe(); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}

// siteCache prefers redis when configured so resolutions are shared across
// instances; otherwise the in-process cache is used.
func siteCache(lg *zap.SugaredLogger) tenant.Cache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return tenant.NewMemoryCache()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		lg.Warnw("redis unreachable, falling back to memory cache", "addr", addr, "error", err)
		return tenant.NewMemoryCache()
	}
	return tenant.NewRedisCache(client, lg)
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return fallback
}

func seedDefaultAdmin(db *gorm.DB, ledger *roles.Ledger, lg *zap.SugaredLogger) {
	email := "admin@storegate.local"
	var count int64
	db.Model(&models.Identity{}).Where("LOWER(email) = ?", email).Count(&count)
	if count > 0 {
		return
	}
	now := time.Now()
	ident := models.Identity{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  "Platform Admin",
		Status:    models.IdentityActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
	}
	salt := auth.GenerateSalt()
	cred := models.Credential{
		ID:           uuid.NewString(),
		IdentityID:   ident.ID,
		PasswordHash: auth.HashPassword(password, salt),
		Salt:         salt,
		MustChange:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ident).Error; err != nil {
			return err
		}
		return tx.Create(&cred).Error
	}); err != nil {
		lg.Warnw("admin seed failed", "error", err)
		return
	}
	if _, err := ledger.Assign(context.Background(), ident.ID, models.RoleAdmin, "system", "bootstrap"); err != nil {
		lg.Warnw("admin role seed failed", "error", err)
		return
	}
	lg.Infow("seeded default admin", "email", email)
}
