package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"

	"unimerch_back_end/internal/accounts"
	"unimerch_back_end/internal/cache"
	"unimerch_back_end/internal/config"
	"unimerch_back_end/internal/database"
	"unimerch_back_end/internal/handlers"
	"unimerch_back_end/internal/handlers/admin"
	"unimerch_back_end/internal/handlers/product"
	"unimerch_back_end/internal/handlers/user"
	"unimerch_back_end/internal/inventory"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/orders"
	"unimerch_back_end/internal/permissions"
	"unimerch_back_end/internal/routes"
	"unimerch_back_end/internal/services"
	"unimerch_back_end/internal/utils"
)

type auditStore interface {
	Record(ctx context.Context, e models.AuditLog) error
	Recent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ PostgreSQL: %v", err)
	}
	defer db.Close()
	store := database.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("❌ Schema migration failed: %v", err)
	}

	rdb, err := cache.NewRedis(ctx, cfg.RedisHost, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("❌ Redis: %v", err)
	}
	defer rdb.Close()

	checks := healthChecks{
		"postgres": store.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}

	var audit auditStore = database.NewMemoryAudit(1000)
	if cfg.ScyllaEnabled() {
		scylla, err := database.NewScyllaAudit(cfg.Scylla)
		if err != nil {
			log.Printf("⚠️ ScyllaDB unavailable, audit log kept in memory: %v", err)
		} else {
			defer scylla.Close()
			audit = scylla
			checks["scylla"] = scylla.Ping
		}
	}

	// --- Permissions ---
	roles, err := permissions.LoadCatalog(cfg.RolesFile)
	if err != nil {
		log.Fatalf("❌ Role catalog: %v", err)
	}
	gate := permissions.NewGate(store, roles, audit)

	// --- Caches and side channels ---
	profiles := cache.NewProfiles(rdb, store, cfg.CacheTTL)
	tokens := cache.NewTokens(rdb)
	broadcaster := cache.NewStatusBroadcaster(rdb)

	orderOpts := []orders.Option{orders.WithPublishers(broadcaster)}
	if cfg.AMQPURL != "" {
		publisher, err := services.NewEventPublisher(cfg.AMQPURL)
		if err != nil {
			log.Printf("⚠️ RabbitMQ unavailable, order events stay on Redis: %v", err)
		} else {
			defer publisher.Close()
			orderOpts = append(orderOpts, orders.WithPublishers(publisher))
		}
	}
	if cfg.SMTPEnabled() {
		orderOpts = append(orderOpts, orders.WithNotifier(utils.NewMailer(cfg.SMTP)))
		log.Println("✅ SMTP notifications enabled")
	} else {
		log.Println("⚠️ SMTP not configured, status emails disabled")
	}

	var invOpts []inventory.Option
	if cfg.ElasticURL != "" {
		es, err := services.NewElastic(cfg.ElasticURL, cfg.ElasticUser, cfg.ElasticPassword)
		if err != nil {
			log.Printf("⚠️ Elasticsearch unavailable, search disabled: %v", err)
		} else {
			invOpts = append(invOpts, inventory.WithIndex(services.NewProductIndex(es)))
		}
	}
	if cfg.MinIOEnabled() {
		images, err := services.NewImageStore(ctx, cfg.MinIO)
		if err != nil {
			log.Printf("⚠️ MinIO unavailable, image upload disabled: %v", err)
		} else {
			invOpts = append(invOpts, inventory.WithImages(images))
			checks["minio"] = images.Ping
		}
	}

	// --- Services ---
	orderSvc := orders.NewService(store, store, store, profiles, gate, orderOpts...)
	invSvc := inventory.NewService(store, profiles, gate, invOpts...)
	accSvc := accounts.NewService(store, profiles, gate, roles, audit)

	initOAuth(cfg)

	// --- HTTP ---
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	upgrader := user.NewUpgrader(cfg.CORSOrigins)
	routes.RegisterRoutes(r, routes.Deps{
		JWTSecret:   cfg.JWTSecret,
		Revocations: tokens,
		Gate:        gate,
		Redis:       rdb,
		Auth:        handlers.NewAuthHandler(accSvc, tokens, cfg.JWTSecret),
		Payments:    handlers.NewPaymentHandler(orderSvc, cfg.StripeWebhookSecret),
		Products:    product.NewHandler(invSvc),
		Orders:      user.NewOrderHandler(orderSvc, broadcaster, upgrader),
		Admin:       admin.NewOrderHandler(orderSvc, broadcaster, upgrader),
		Users:       admin.NewUserHandler(accSvc, roles),
		Health:      checks.Handler,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Println("🚀 UniMerch API listening on port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Graceful shutdown failed: %v", err)
	}
}

func initOAuth(cfg *config.Config) {
	providers := cfg.OAuthProviders()
	if len(providers) == 0 {
		log.Println("⚠️ No OAuth provider configured")
		return
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   len(cfg.BaseURL) > 5 && cfg.BaseURL[:5] == "https",
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	goth.UseProviders(providers...)
	log.Printf("✅ %d OAuth provider(s) enabled", len(providers))
}
