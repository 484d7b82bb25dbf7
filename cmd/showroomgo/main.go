package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"showroomgo/internal/api"
	"showroomgo/pkg/config"
	"showroomgo/pkg/db"
	"showroomgo/pkg/logging"
	"showroomgo/pkg/params"
	"showroomgo/pkg/persist"
	"showroomgo/pkg/store"
	"showroomgo/pkg/version"
)

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

const configPath = "configs/showroom.yaml"

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if _, err := config.Load(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", configPath)
		return
	}

	if err := run(context.Background(), configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Optional .env next to the binary, mainly for development overrides.
	_ = godotenv.Load()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if addr := os.Getenv("SHOWROOM_ADDR"); addr != "" {
		appCfg.Server.Address = addr
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("ShowroomGo Started", "version", version.Version)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	model, err := params.New()
	if err != nil {
		return fmt.Errorf("failed to build parameter model: %w", err)
	}

	persistStore := persist.New(st, model, time.Duration(appCfg.Persist.Debounce))
	if persistStore.Load(ctx) {
		slog.Info("Restored persisted parameters")
	} else {
		slog.Info("No persisted parameters, using defaults")
	}
	// Establish the durable slot so a crash before the first edit still
	// leaves a readable payload.
	persistStore.SaveNow(ctx, "init")

	hub := api.NewEventHub()
	paramsH := api.NewParamsHandler(model, persistStore, hub)

	return runServer(ctx, appCfg, paramsH, hub, persistStore)
}

func initDB(appCfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func runServer(ctx context.Context, cfg *config.Config, paramsH *api.ParamsHandler, hub *api.EventHub, persistStore *persist.Store) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address, cfg.Viewer, paramsH, hub, shutdownFunc)
	srv.Handler = loggingMiddleware(srv.Handler)

	err := runServerLifecycle(ctx, srv, quit)

	// Final flush after the server stops accepting writes.
	hub.Close()
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	persistStore.Close(flushCtx)

	return err
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
