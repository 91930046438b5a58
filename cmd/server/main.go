package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fruitshop/backend/internal/app"
	"fruitshop/backend/internal/config"
	"fruitshop/backend/internal/httpapi"
	"fruitshop/backend/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fruitshop: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if err := validateSecurityConfig(cfg); err != nil {
		return fmt.Errorf("invalid security configuration: %w", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	a, err := app.New(startCtx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close storage", zap.Error(err))
		}
	}()

	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTTL)
	api := httpapi.New(a.Backend, auth,
		httpapi.WithLogger(log.Named("http")),
		httpapi.WithAllowedOrigin(cfg.AllowedOrigin),
		httpapi.WithRegistry(a.Registry),
	)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("fruitshop backend listening",
			zap.String("addr", cfg.Address()),
			zap.String("env", cfg.Env),
			zap.Bool("remote", a.Gateway.RemoteEnabled()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case s := <-sig:
		log.Info("shutting down", zap.String("signal", s.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}

// validateSecurityConfig insists on a real signing secret outside
// development and refuses a remote base URL that points back at this server.
func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		if cfg.IsProduction() {
			return fmt.Errorf("FRUITSHOP_AUTH_SECRET must be set and at least 32 characters")
		}
		if cfg.AuthSecret != "" {
			return fmt.Errorf("FRUITSHOP_AUTH_SECRET is shorter than 32 characters")
		}
	}
	if cfg.IsProduction() && strings.TrimSpace(cfg.AllowedOrigin) == "*" {
		return fmt.Errorf("wildcard allowed origin is not permitted in production")
	}
	if cfg.RemoteBaseURL != "" {
		self := []string{
			"http://127.0.0.1" + cfg.Address(),
			"http://localhost" + cfg.Address(),
		}
		for _, s := range self {
			if strings.HasPrefix(strings.TrimRight(cfg.RemoteBaseURL, "/"), s) {
				return fmt.Errorf("remote base url %q points at this server", cfg.RemoteBaseURL)
			}
		}
	}
	return nil
}
