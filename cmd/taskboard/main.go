package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/logging"
	"taskboard/internal/server"
	"taskboard/internal/storage"
	"taskboard/internal/storage/mongodb"
	"taskboard/internal/storage/sqlite"
	"taskboard/internal/tasks"
	"taskboard/internal/users"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Info("taskboard starting", slog.String("env", cfg.Env), slog.String("db_driver", cfg.Database.Driver))

	store, err := openStore(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := server.New(server.Services{
		Auth:  auth.NewService(store, cfg.Auth, logger),
		Tasks: tasks.NewService(store, logger),
		Users: users.NewService(store, logger),
	}, logger, server.Options{
		StaticDir:   cfg.StaticDir,
		Development: cfg.Development(),
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				logger.Info("shutting down")
				if err := httpServer.Shutdown(ctx); err != nil {
					return fmt.Errorf("shutdown http server: %w", err)
				}
				if err := store.Close(); err != nil {
					return fmt.Errorf("close store: %w", err)
				}
				return nil
			},
		},
	)

	exitCode := <-wait
	logger.Info("server stopped", slog.Int("exit_code", exitCode))
	_ = logCloser.Close()
	os.Exit(exitCode)
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return mongodb.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.Timeout, logger)
	case config.DriverSQLite:
		return sqlite.Open(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
