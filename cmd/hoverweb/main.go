// Command hoverweb serves the step-by-step chart extraction wizard.
//
// Usage:
//
//	hoverweb -listen :8080
//	hoverweb -config hovertable.yaml -db runs.db
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/hovertable/hovertable/hover"
	"github.com/hovertable/hovertable/journal"
	"github.com/hovertable/hovertable/shield"
	"github.com/hovertable/hovertable/tipparse"
	"github.com/hovertable/hovertable/wizard"
)

func main() {
	listen := flag.String("listen", ":8080", "listen address")
	configPath := flag.String("config", "", "path to hovertable.yaml config file")
	dbPath := flag.String("db", "", "journal database path (overrides config)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *listen, *configPath, *dbPath); err != nil {
		logger.Error("hoverweb: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, listen, configPath, dbPath string) error {
	cfg := hover.DefaultConfig()
	if configPath != "" {
		loaded, err := hover.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if dbPath != "" {
		cfg.Journal.Path = dbPath
	}

	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer db.Close()

	parser := tipparse.New(tipparse.Options{
		FallbackYear:    cfg.Parse.FallbackYear,
		ExcludedDomains: cfg.Parse.ExcludedDomains,
	})

	session := hover.NewSession(cfg, logger)
	defer session.Close()

	srv := wizard.NewServer(session, journal.NewStore(db), parser, logger)

	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(logger) {
		r.Use(mw)
	}
	r.Mount("/", srv.Router())

	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("hoverweb: listening", "addr", listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
