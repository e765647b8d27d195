package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/collections-app/internal/auth"
	"github.com/ayush/collections-app/internal/collections"
	"github.com/ayush/collections-app/internal/config"
	"github.com/ayush/collections-app/internal/logger"
	"github.com/ayush/collections-app/internal/server"
	"github.com/ayush/collections-app/internal/session"
	"github.com/ayush/collections-app/internal/store"
)

// repository is satisfied by both storage backends.
type repository interface {
	auth.UserStore
	collections.Repository
	server.Pinger
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogJSON)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()

	// ── Storage ──────────────────────────────────────────────
	var repo repository
	switch cfg.StorageBackend {
	case config.BackendMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		repo = store.NewMemoryStore()
	default:
		pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connect", "error", err)
			os.Exit(1)
		}
		defer pgPool.Close()
		pgStore := store.NewPostgresStore(pgPool)
		if err := pgStore.Ping(ctx); err != nil {
			log.Error("postgres ping", "error", err)
			os.Exit(1)
		}
		if cfg.MigrateOnStart {
			if err := pgStore.Migrate(ctx, "up"); err != nil {
				log.Error("postgres migrate", "error", err)
				os.Exit(1)
			}
		}
		repo = pgStore
	}

	// ── Sessions ─────────────────────────────────────────────
	var sessionStore session.Store
	switch cfg.SessionBackend {
	case config.BackendMemory:
		log.Warn("using in-memory sessions; logins are lost on restart")
		sessionStore = session.NewMemoryStore()
	default:
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Error("redis connect", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		sessionStore = session.NewRedisStore(rdb)
	}
	sessions := session.NewManager(sessionStore, cfg.SessionCookie, cfg.SessionSecure, log)

	// ── Router ───────────────────────────────────────────────
	handler, err := server.NewRouter(server.Deps{
		Users:       repo,
		Collections: repo,
		Health:      repo,
		Hasher:      auth.NewHasher(cfg.BcryptCost),
		Sessions:    sessions,
		Logger:      log,
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   true,
	})
	if err != nil {
		log.Error("build router", "error", err)
		os.Exit(1)
	}

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}
