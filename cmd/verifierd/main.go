// Command verifierd runs the AI content verification service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/storage/postgres"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/config"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/pkg/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewDefault("verifierd").WithError(err).Fatal("load config")
	}

	log, err := logger.New(cfg.Logging, "verifierd")
	if err != nil {
		logger.NewDefault("verifierd").WithError(err).Fatal("build logger")
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("verifier exited")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := app.Deps{}
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		store := postgres.New(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		deps.Store = store
		log.Info("using postgres verification store")
	} else {
		log.Info("no database configured; using in-memory verification store")
	}

	application, err := app.New(cfg, deps, log)
	if err != nil {
		return err
	}

	if err := application.Gateway.Connect(ctx); err != nil {
		log.WithError(err).Warn("ledger unreachable at startup; writes will degrade to stub receipts")
	}

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: application.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
