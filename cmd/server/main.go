package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/impostor-party/server/internal/config"
	"github.com/impostor-party/server/internal/httpapi"
	"github.com/impostor-party/server/internal/session"
	"github.com/impostor-party/server/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	var st *store.Store
	if cfg.DatabaseURL != "" {
		st, err = store.Open(cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
	} else {
		log.Warn("DATABASE_URL not set, running without persistence")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A nil *store.Store wrapped in the interface would not compare equal
	// to nil inside the coordinator, so only assign when one exists.
	var sink session.Store
	if st != nil {
		sink = st
	}
	coord := session.NewCoordinator(ctx, sink, log, session.Config{
		DisconnectGrace: cfg.DisconnectGrace,
		GuessTimeout:    cfg.GuessTimeout,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpapi.SetupRoutes(coord, st, log, cfg.CORSOrigin, cfg.WSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}

func buildLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if cfg.Env == "production" {
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(level)
		return zc.Build()
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
