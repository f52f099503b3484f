package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pms/internal/db"
	"pms/internal/domain/appraisal"
	"pms/internal/domain/auth"
	"pms/internal/domain/cycle"
	"pms/internal/domain/notifications"
	"pms/internal/domain/org"
	"pms/internal/domain/reports"
	"pms/internal/domain/template"
	"pms/internal/platform/config"
	cryptoutil "pms/internal/platform/crypto"
	"pms/internal/platform/email"
	appraisalhandler "pms/internal/transport/http/handlers/appraisal"
	authhandler "pms/internal/transport/http/handlers/auth"
	cyclehandler "pms/internal/transport/http/handlers/cycle"
	notificationshandler "pms/internal/transport/http/handlers/notifications"
	orghandler "pms/internal/transport/http/handlers/org"
	reportshandler "pms/internal/transport/http/handlers/reports"
	"pms/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	cryptoSvc, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		log.Fatalf("crypto init failed: %v", err)
	}

	authStore := auth.NewStore(pool)
	orgStore := &org.Store{DB: pool}
	templateStore := &template.Store{DB: pool}
	appraisalStore := &appraisal.Store{DB: pool}
	cycleStore := &cycle.Store{DB: pool}
	notificationStore := &notifications.Store{DB: pool}

	notifySvc := notifications.NewService(notificationStore, email.New(cfg))
	orgSvc := org.NewService(orgStore, authStore)
	appraisalSvc := appraisal.NewService(appraisalStore, notifySvc)
	cycleSvc := cycle.NewService(cycleStore, orgStore, templateStore, appraisalStore, notifySvc)
	reportsSvc := reports.NewService(cycleStore, appraisalStore)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authStore, cfg.JWTSecret, cryptoSvc).RegisterRoutes(r)
		orghandler.NewHandler(orgSvc, authStore).RegisterRoutes(r)
		cyclehandler.NewHandler(cycleSvc, appraisalSvc, authStore).RegisterRoutes(r)
		appraisalhandler.NewHandler(appraisalSvc, authStore).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc, authStore).RegisterRoutes(r)
		notificationshandler.NewHandler(notifySvc).RegisterRoutes(r)
	})

	log.Printf("PMS server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
