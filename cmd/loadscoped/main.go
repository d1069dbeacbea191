// Command loadscoped is the Loadscope API service.
// It serves the scoring, strategy, suggestion and question endpoints and a
// health check.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/loadscope/loadscope/internal/api"
	"github.com/loadscope/loadscope/internal/logging"
	"github.com/loadscope/loadscope/internal/source"
	"github.com/loadscope/loadscope/pkg/advisor"
	"github.com/loadscope/loadscope/pkg/config"
	"github.com/loadscope/loadscope/pkg/textgen"
)

func main() {
	configPath := flag.String("config", envOrDefault("LOADSCOPE_CONFIG", ""), "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting loadscoped", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	return nil
}

// newServer wires the API handler from the config. The returned cleanup
// releases cloud clients opened by the loadout source.
func newServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*http.Server, func(), error) {
	gen, err := textgen.NewFromOptions(ctx, cfg.TextGenOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("text generation: %w", err)
	}
	if gen != nil {
		logger.Info("text generation enabled", zap.String("backend", gen.Name()))
	} else {
		logger.Info("text generation disabled, answering from rules")
	}

	engine := cfg.Engine()
	advisorCfg := cfg.Advisor(gen, logger)
	advisorCfg.Engine = engine

	router := source.NewServiceRouter(cfg.Source)

	handler := api.NewHandler(api.Options{
		Engine:     engine,
		Dispatcher: advisor.New(advisorCfg),
		Cache:      api.NewAnswerCache(cfg.Server.CacheSize),
		Source:     router,
		Logger:     logger,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: api.Chain(mux,
			api.CORS(cfg.Server.AllowedOrigins),
			api.RequestLogger(logger),
			api.APIKeyAuth(cfg.Server.APIKey),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}
	cleanup := func() {
		if err := router.Close(); err != nil {
			logger.Warn("closing loadout source", zap.Error(err))
		}
	}
	return srv, cleanup, nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
