package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/Debabrta24/AgreesmartFinalSIH/internal/api/http"
	"github.com/Debabrta24/AgreesmartFinalSIH/internal/scheduler"
)

func runServe(ctx context.Context) error {
	a, err := build(ctx)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	// Optional warmer keeping configured locations fresh.
	sched := scheduler.New(a.cfg.WarmLocations, a.cfg.WarmInterval, a.resolver, a.logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewServer(a.resolver, a.records, httpapi.Options{
		Logger:    a.logger,
		Gatherer:  a.registry,
		AccessLog: true,
	})

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("port", a.cfg.Port))
		errCh <- app.Listen(":" + a.cfg.Port)
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("fiber server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("error during shutdown", zap.Error(err))
		return err
	}
	a.logger.Info("server stopped")
	return nil
}
