// Command todod serves the shared todo list over HTTP/JSON and pushes live
// snapshots to connected shells.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/nhle/todolist/internal/api"
	"github.com/nhle/todolist/internal/logging"
	"github.com/nhle/todolist/internal/model"
	"github.com/nhle/todolist/internal/store"
	appsync "github.com/nhle/todolist/internal/sync"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := mainInner(os.Args[1:]); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner(args []string) error {
	flags := pflag.NewFlagSet("todod", pflag.ContinueOnError)
	configPath := flags.String("config", model.DefaultConfigPath(), "path to the YAML config file")
	flags.String("addr", "", "the address to listen on (env TODO_SERVER_ADDR)")
	flags.String("db", "", "path to the SQLite database (env TODO_SERVER_DB_PATH)")
	flags.String("auth-token", "", "require this bearer token on every request (env TODO_SERVER_AUTH_TOKEN)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := model.LoadConfig(*configPath, flags, map[string]string{
		"server.addr":       "addr",
		"server.db_path":    "db",
		"server.auth_token": "auth-token",
		"log.level":         "log-level",
		"log.format":        "log-format",
	})
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	slog.Info("Opening database", "path", cfg.Server.DBPath)
	db, err := store.NewSQLiteStore(cfg.Server.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	hub := appsync.NewHub()
	defer hub.Close()
	todos := appsync.NewLiveStore(db, hub, logger)

	opts := []api.Option{api.WithLogger(logger)}
	if cfg.Server.AuthToken != "" {
		opts = append(opts, api.WithAuthToken(cfg.Server.AuthToken))
	} else {
		slog.Warn("no auth token configured; the API is open to anyone who can reach it")
	}
	srv := api.NewServer(todos, opts...)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("Listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("server listen failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("Signal caught, shutting down")
	}

	// Closing the hub first ends every WebSocket stream so Shutdown does
	// not wait on them.
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		_ = httpServer.Close()
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
