package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amciuday/internal/config"
	"amciuday/internal/db"
	"amciuday/internal/ingredient"
	"amciuday/internal/logger"
	"amciuday/internal/ratelimit"
	"amciuday/internal/server"
	"amciuday/internal/store"
	"log/slog"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	engine, err := ingredient.Load(cfg.SynonymsPath)
	if err != nil {
		log.Error("synonym_table_load_failed", "error", err, "path", cfg.SynonymsPath)
		os.Exit(1)
	}
	for _, w := range engine.Table().Warnings() {
		log.Warn("synonym_table_warning", "warning", w)
	}

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Error("db_migrate_failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := store.New(pool)
	checkFingerprint(ctx, st, engine.Table().Fingerprint(), log)

	limiter := ratelimit.New(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	srv := server.New(cfg, st, engine, limiter, log)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("api_listen", "addr", cfg.HTTPAddr, "env", cfg.Env, "admin_enabled", cfg.AdminEnabled())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http_server_error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	log.Info("api_shutdown")
}

// checkFingerprint records the table fingerprint on a fresh database and
// warns when stored keys were computed with a different table.
func checkFingerprint(ctx context.Context, st *store.Store, current string, log *slog.Logger) {
	stored, err := st.TableFingerprint(ctx)
	if err != nil {
		log.Error("fingerprint_read_failed", "error", err)
		return
	}
	switch stored {
	case current:
	case "":
		if err := st.SetTableFingerprint(ctx, current); err != nil {
			log.Error("fingerprint_write_failed", "error", err)
		}
	default:
		log.Warn("renormalize_required", "stored_fingerprint", stored, "table_fingerprint", current)
	}
}
