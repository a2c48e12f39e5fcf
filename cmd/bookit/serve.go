package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/bookit/internal/config"
	"github.com/Freeeeeet/bookit/internal/controller"
	"github.com/Freeeeeet/bookit/internal/notify"
	"github.com/Freeeeeet/bookit/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	logger := rt.logger
	logger.Info("Starting bookit",
		zap.String("version", version),
		zap.String("environment", rt.cfg.Environment),
		zap.String("driver", rt.cfg.DBDriver),
	)

	if rt.cfg.AutoMigrate {
		if _, err := rt.db.Migrate(ctx, logger); err != nil {
			logger.Error("Failed to run migrations", zap.Error(err))
			return err
		}
	}

	alerter, err := newAlerter(rt.cfg, logger)
	if err != nil {
		return err
	}

	reservations := service.NewReservationService(
		rt.db.Experiences,
		service.NewBookingRecorder(rt.db.Bookings, logger),
		service.NewCompensator(rt.db.Experiences, alerter, logger),
		rt.cfg.Location(),
		logger,
	)
	handlers := controller.NewHandlers(
		service.NewCatalogService(rt.db.Experiences, rt.db.Bookings),
		reservations,
		service.NewPromoService(),
		logger,
	)

	if rt.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              rt.cfg.HTTPAddr,
		Handler:           controller.NewRouter(handlers, rt.cfg.CORSOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}

func newAlerter(cfg *config.Config, logger *zap.Logger) (service.Alerter, error) {
	if !cfg.AlertsEnabled() {
		logger.Warn("Telegram alerts are disabled, inventory deficits will only be logged")
		return notify.NopAlerter{}, nil
	}

	alerter, err := notify.NewTelegramAlerter(cfg.TelegramToken, cfg.AlertChatID, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Telegram alerts enabled", zap.Int64("chat_id", cfg.AlertChatID))
	return alerter, nil
}
