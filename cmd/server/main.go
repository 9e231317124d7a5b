package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/gallery-cms/internal/api"
	"github.com/dom/gallery-cms/internal/config"
	"github.com/dom/gallery-cms/internal/csrf"
	"github.com/dom/gallery-cms/internal/logging"
	"github.com/dom/gallery-cms/internal/repository"
	"github.com/dom/gallery-cms/internal/repository/gormstore"
	"github.com/dom/gallery-cms/internal/service"
	"github.com/dom/gallery-cms/internal/session"
	"github.com/dom/gallery-cms/internal/web"
	"gorm.io/gorm/logger"
)

const sessionSweepInterval = 15 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", logging.Err(err))
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, log); err != nil {
		log.Error("server exited", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	gormLevel := logger.Warn
	if logging.ParseLevel(cfg.LogLevel) == slog.LevelDebug {
		gormLevel = logger.Info
	}
	db, err := gormstore.NewConnection(cfg.DatabaseDriver, cfg.DatabaseURL, gormLevel)
	if err != nil {
		return err
	}

	// Initialize repositories
	repos := gormstore.NewRepositories(db)

	// Session store
	var store session.Store = repos.Session
	if cfg.SessionStore == config.SessionStoreRedis {
		client, err := session.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		store = session.NewRedisStore(client, "")
	} else {
		go sweepSessions(ctx, repos.Session, log)
	}

	// Initialize services
	services := service.NewServices(repos, cfg, log)
	if created, err := services.Auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return err
	} else if created {
		log.Info("created bootstrap admin", "username", cfg.AdminUsername)
	}

	sessions := session.NewManager(store, cfg.Session(), log)
	guard := csrf.New(cfg.CSRF(), log)
	views, err := web.NewViews(guard, log)
	if err != nil {
		return err
	}

	// Initialize router
	router := api.NewRouter(services, sessions, guard, views, log)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "environment", cfg.Environment, "session_store", cfg.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}

// sweepSessions removes expired database sessions until ctx ends. Redis
// expires its keys on its own.
func sweepSessions(ctx context.Context, repo repository.SessionRepository, log *slog.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := repo.DeleteExpired(ctx, now)
			if err != nil {
				log.Warn("session sweep failed", logging.Err(err))
				continue
			}
			if n > 0 {
				log.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
