package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"worktime/internal/domain/audit"
	"worktime/internal/domain/auth"
	"worktime/internal/domain/company"
	"worktime/internal/domain/leave"
	"worktime/internal/domain/notifications"
	"worktime/internal/domain/push"
	"worktime/internal/domain/reports"
	"worktime/internal/domain/workmode"
	"worktime/internal/platform/config"
	"worktime/internal/platform/db"
	"worktime/internal/platform/email"
	"worktime/internal/platform/i18n"
	"worktime/internal/platform/jobs"
	"worktime/internal/platform/metrics"
	adminhandler "worktime/internal/transport/http/handlers/admin"
	authhandler "worktime/internal/transport/http/handlers/auth"
	leavehandler "worktime/internal/transport/http/handlers/leave"
	notificationshandler "worktime/internal/transport/http/handlers/notifications"
	pushhandler "worktime/internal/transport/http/handlers/push"
	reportshandler "worktime/internal/transport/http/handlers/reports"
	workmodehandler "worktime/internal/transport/http/handlers/workmode"
	"worktime/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler

	cancel context.CancelFunc
}

// New wires the whole application: database, change feed, background jobs
// and the HTTP surface. The returned App owns the pool and the background
// goroutines; Close releases both.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrationsDir()); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	i18n.Init(cfg.DefaultLocale)

	appCtx, cancel := context.WithCancel(context.Background())

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	authStore := auth.NewStore(pool)
	perms := middleware.NewCachedPermissionStore(authStore, cfg.PermissionCacheTTL)
	companyStore := company.NewStore(pool)
	auditSvc := audit.New(pool)

	wmStore := workmode.NewStore(pool)
	wmService := workmode.NewService(wmStore, authStore)
	broker := workmode.NewBroker()

	listener := workmode.NewListener(pool, broker)
	listener.Resync = func(ctx context.Context) {
		// After a reconnect, replay every company's current config so
		// subscribers converge without waiting for the next change.
		ids, err := companyStore.CompanyIDs(ctx)
		if err != nil {
			slog.Warn("resync company list failed", "err", err)
			return
		}
		for _, companyID := range ids {
			cfg, err := wmStore.GetConfig(ctx, companyID)
			if err != nil {
				slog.Warn("resync config load failed", "companyId", companyID, "err", err)
				continue
			}
			broker.Publish(workmode.ModeChange{
				CompanyID: cfg.CompanyID,
				Mode:      cfg.CurrentMode,
				Reason:    cfg.ActiveBreakReason,
				Version:   cfg.Version,
			})
		}
	}
	go listener.Run(appCtx)

	notifyStore := notifications.NewStore(pool)
	notifySvc := notifications.New(notifyStore, email.New(cfg), cfg.EmailFrom)

	pushStore := push.NewStore(pool)
	var pushPool *push.WorkerPool
	if cfg.PushEnabled {
		pushPool = push.NewWorkerPool(cfg.PushWorkers, pushStore, webpush.Options{
			Subscriber:      cfg.VAPIDSubject,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             60,
		})
		pushPool.Start(appCtx)
	}

	var leaveStore leave.RequestStore
	if cfg.LeaveStore == "postgres" {
		leaveStore = leave.NewPGStore(pool)
	} else {
		leaveStore = leave.NewMemoryStore()
	}
	leaveSvc := leave.NewService(leaveStore)

	reportsSvc := reports.New(pool)

	jobsSvc := jobs.New(pool, cfg, wmStore)
	jobsSvc.Start(appCtx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, authStore))
	router.Use(middleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))

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
		r.Use(middleware.Idempotency(cfg.IdempotencyTTL))

		authHandler := authhandler.NewHandler(authStore, cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		workmodeHandler := workmodehandler.NewHandler(wmService, broker, perms, notifySvc, auditSvc, pushPool, cfg.StreamHeartbeat)
		workmodeHandler.Metrics = collector
		workmodeHandler.RegisterRoutes(r)

		leaveHandler := leavehandler.NewHandler(leaveSvc, companyStore, perms, notifySvc, auditSvc)
		leaveHandler.RegisterRoutes(r)

		notificationsHandler := notificationshandler.NewHandler(notifySvc)
		notificationsHandler.RegisterRoutes(r)

		pushHandler := pushhandler.NewHandler(pushStore, perms, cfg.VAPIDPublicKey)
		pushHandler.RegisterRoutes(r)

		reportsHandler := reportshandler.NewHandler(reportsSvc, companyStore, perms)
		reportsHandler.RegisterRoutes(r)

		adminHandler := adminhandler.NewHandler(collector, perms)
		adminHandler.RegisterRoutes(r)
	})

	return &App{
		Config: cfg,
		DB:     pool,
		Router: router,
		cancel: cancel,
	}, nil
}

func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func Run() {
	cfg := config.Load()

	app, err := New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	log.Printf("worktime server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// migrationsDir walks up from the working directory so the server starts
// from the repo root and tests start from their package directory.
func migrationsDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "migrations"
	}
	for {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "migrations"
		}
		dir = parent
	}
}
