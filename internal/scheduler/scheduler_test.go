package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sweepFunc func(ctx context.Context) (*domain.SweepReport, error)

func (f sweepFunc) Run(ctx context.Context) (*domain.SweepReport, error) { return f(ctx) }

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New(zap.NewNop(), time.Minute)

	err := s.AddSweep("every tuesday", sweepFunc(func(ctx context.Context) (*domain.SweepReport, error) {
		return &domain.SweepReport{}, nil
	}))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "every tuesday")

	assert.Error(t, s.AddReconcile("61 * * * *", mocks.NewMockPurchaseService()))
}

func TestScheduler_ValidSpecs(t *testing.T) {
	s := New(zap.NewNop(), time.Minute)
	require.NoError(t, s.AddSweep("@hourly", sweepFunc(func(ctx context.Context) (*domain.SweepReport, error) {
		return &domain.SweepReport{}, nil
	})))
	require.NoError(t, s.AddReconcile("*/5 * * * *", mocks.NewMockPurchaseService()))
	assert.Len(t, s.cron.Entries(), 2)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestScheduler_SweepJobBoundsContext(t *testing.T) {
	s := New(zap.NewNop(), 50*time.Millisecond)
	var sawDeadline atomic.Bool

	job := s.sweepJob(sweepFunc(func(ctx context.Context) (*domain.SweepReport, error) {
		_, ok := ctx.Deadline()
		sawDeadline.Store(ok)
		return nil, errors.New("database unavailable")
	}))
	job()

	assert.True(t, sawDeadline.Load())
}

func TestScheduler_ReconcileJob(t *testing.T) {
	s := New(zap.NewNop(), time.Second)
	purchases := mocks.NewMockPurchaseService()
	var calls atomic.Int32
	purchases.ReconcilePendingFunc = func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 2, nil
	}

	s.reconcileJob(purchases)()
	assert.Equal(t, int32(1), calls.Load())
}
