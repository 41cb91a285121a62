package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/config"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/logger"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/scheduler"
)

const (
	shutdownTimeout  = 15 * time.Second
	jobTimeout       = 5 * time.Minute
	reconcileSpec    = "@every 10m"
	limiterSweepTick = time.Minute
)

// Run serves the HTTP API and the background jobs until SIGINT or SIGTERM
func Run(cfg *config.Config) error {
	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	gin.SetMode(cfg.GinMode)

	c, err := NewContainer(cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := scheduler.New(log, jobTimeout)
	if err := jobs.AddSweep(cfg.SweepSchedule, c.SweepSvc); err != nil {
		return err
	}
	if err := jobs.AddReconcile(reconcileSpec, c.PurchaseSvc); err != nil {
		return err
	}
	jobs.Start()

	go c.Limiter.Run(ctx, limiterSweepTick)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	jobs.Stop(shutdownCtx)
	c.Wait()
	return nil
}

// RunSweep performs a single expiration sweep and returns its report
func RunSweep(cfg *config.Config) (*domain.SweepReport, error) {
	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	c, err := NewContainer(cfg, log)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := c.SweepSvc.Run(ctx)
	c.Wait()
	return report, err
}
