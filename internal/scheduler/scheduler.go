package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"go.uber.org/zap"
)

// Scheduler runs the periodic marketplace jobs on a cron clock
type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration
}

// New creates a scheduler. Every job run is bounded by timeout.
func New(log *zap.Logger, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DiscardLogger),
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		log:     log,
		timeout: timeout,
	}
}

// AddSweep schedules the listing sweep
func (s *Scheduler) AddSweep(spec string, sweep domain.SweepService) error {
	if _, err := s.cron.AddFunc(spec, s.sweepJob(sweep)); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", spec, err)
	}
	s.log.Info("sweep scheduled", zap.String("spec", spec))
	return nil
}

// AddReconcile schedules re-verification of stale pending purchases
func (s *Scheduler) AddReconcile(spec string, purchases domain.PurchaseService) error {
	if _, err := s.cron.AddFunc(spec, s.reconcileJob(purchases)); err != nil {
		return fmt.Errorf("schedule reconcile %q: %w", spec, err)
	}
	s.log.Info("purchase reconcile scheduled", zap.String("spec", spec))
	return nil
}

func (s *Scheduler) sweepJob(sweep domain.SweepService) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		report, err := sweep.Run(ctx)
		if err != nil {
			s.log.Error("sweep failed", zap.Error(err))
			return
		}
		if report.Skipped {
			s.log.Debug("sweep skipped")
		}
	}
}

func (s *Scheduler) reconcileJob(purchases domain.PurchaseService) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if _, err := purchases.ReconcilePending(ctx); err != nil {
			s.log.Error("purchase reconcile failed", zap.Error(err))
		}
	}
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the clock and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with jobs still running")
	}
}
