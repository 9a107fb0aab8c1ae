package entrypoint

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/config"
	"github.com/mrlokans/bookclub/internal/database"
	"github.com/mrlokans/bookclub/internal/database/notifications"
	"github.com/mrlokans/bookclub/internal/database/users"
	http_controllers "github.com/mrlokans/bookclub/internal/http"
	"github.com/mrlokans/bookclub/internal/logging"
	"github.com/mrlokans/bookclub/internal/scheduler"
	"github.com/mrlokans/bookclub/internal/storage"
	"github.com/mrlokans/bookclub/internal/storage/providers"
	"github.com/mrlokans/bookclub/internal/tasks"
	"github.com/mrlokans/bookclub/internal/telemetry"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve listens until SIGINT or SIGTERM, then drains the server within the
// configured shutdown timeout.
func Serve(handler http.Handler, cfg *config.Config, log *logging.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	log.Info("Shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	// Background workers stop after the last request has been answered.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info("Server exiting")
	return nil
}

// Run wires every component from cfg and serves the API until interrupted.
func Run(cfg *config.Config, version string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if schedule := cfg.Tasks.TokenCleanupSchedule; schedule != "" {
		if err := scheduler.ValidateSchedule(schedule); err != nil {
			return fmt.Errorf("invalid TOKEN_CLEANUP_SCHEDULE: %w", err)
		}
	}

	log, err := logging.New(string(cfg.Global.LogMode), cfg.Global.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting bookclub", "version", version, "mode", cfg.Global.LogMode)
	if cfg.Global.LogMode == config.LogModeProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Demo.Enabled {
		log.Warn("Demo mode enabled - write operations will be blocked")
	}

	if cfg.Auth.JWTSecret == "" {
		secret, err := generateSecret()
		if err != nil {
			return err
		}
		cfg.Auth.JWTSecret = secret
		log.Warn("Generated a JWT secret; tokens will not survive a restart (set AUTH_JWT_SECRET to persist)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Telemetry, version, log)
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", "error", err)
		}
	}()

	authService := auth.NewService(db.DB, cfg.Auth)
	authMiddleware := auth.NewMiddleware(authService, log.With("component", "auth"))
	authController := auth.NewAuthController(authService, authMiddleware, cfg.Auth, log.With("component", "auth"))
	defer authController.Stop()

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		admin, created, err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Username, cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
		if created {
			log.Info("Created bootstrap admin", "user_id", admin.ID, "email", admin.Email)
		}
	}

	coverStorage, err := providers.New(ctx, cfg.Storage)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		log.Warn("Object storage is not configured; cover uploads are disabled")
		coverStorage = nil
	case err != nil:
		return fmt.Errorf("failed to initialize object storage: %w", err)
	default:
		log.Info("Object storage initialized", "driver", cfg.Storage.Driver, "bucket", cfg.Storage.Bucket)
	}

	userRepo := users.NewRepository(db.DB)
	notificationRepo := notifications.NewRepository(db.DB)

	var (
		notifier   http_controllers.ReviewNotifier
		purger     scheduler.PurgeEnqueuer
		taskClient *tasks.Client
	)
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(tasks.DatabasePath(cfg.Database.Path), tasks.FromConfig(cfg.Tasks), log)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error("Error closing task client", "error", err)
			}
		}()
		taskClient.Register(
			tasks.NewNotifyFriendsQueue(userRepo, notificationRepo, log),
			tasks.NewPurgeTokensQueue(authService, log),
		)
		go taskClient.Start(ctx)
		notifier, purger = taskClient, taskClient
	} else {
		log.Info("Task queue disabled; notifications are sent inline")
		notifier = tasks.NewInlineNotifier(userRepo, notificationRepo, log)
		purger = scheduler.PurgeFunc(func(ctx context.Context) error {
			_, err := authService.PurgeExpiredTokens(ctx)
			return err
		})
	}

	purgeScheduler := scheduler.NewTokenPurgeScheduler(cfg.Tasks.TokenCleanupSchedule, purger, log)
	if err := purgeScheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start token purge scheduler: %w", err)
	}

	var metrics *telemetry.HTTPMetrics
	if cfg.Telemetry.MetricsEnabled {
		metrics, err = telemetry.NewDefaultHTTPMetrics()
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		DB:               db.DB,
		Database:         db,
		AuthService:      authService,
		AuthMiddleware:   authMiddleware,
		AuthController:   authController,
		Storage:          coverStorage,
		ReviewNotifier:   notifier,
		Metrics:          metrics,
		TracingEnabled:   cfg.Telemetry.TracingEnabled,
		ServiceName:      cfg.Telemetry.ServiceName,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		Logger:           log.With("component", "http"),
		Version:          version,
		DemoMode:         cfg.Demo.Enabled,
	})

	onShutdown := func(ctx context.Context) {
		purgeScheduler.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn("Tracer shutdown failed", "error", err)
		}
	}

	return Serve(router, cfg, log, onShutdown)
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
