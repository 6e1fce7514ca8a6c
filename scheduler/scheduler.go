package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Scorer scores predictions whose weekend gained results since the last
// run.
type Scorer interface {
	ScorePending(ctx context.Context) (int, error)
}

// Scheduler runs the scoring sweep on a fixed interval.
type Scheduler struct {
	s        gocron.Scheduler
	scorer   Scorer
	interval time.Duration
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func New(scorer Scorer, interval time.Duration, log *zap.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{s: s, scorer: scorer, interval: interval, log: log, ctx: ctx, cancel: cancel}, nil
}

func (s *Scheduler) Start() error {
	_, err := s.s.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.sweep),
		gocron.WithName("score-pending"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create scoring sweep job: %w", err)
	}
	s.s.Start()
	s.log.Info("scoring sweep scheduled", zap.Duration("interval", s.interval))
	return nil
}

// Stop cancels a running sweep and waits for the scheduler to exit.
func (s *Scheduler) Stop() error {
	s.cancel()
	return s.s.Shutdown()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(s.ctx, s.interval)
	defer cancel()

	start := time.Now()
	n, err := s.scorer.ScorePending(ctx)
	if err != nil {
		s.log.Error("scoring sweep failed", zap.Error(err), zap.Int("scored", n))
		return
	}
	if n > 0 {
		s.log.Info("scoring sweep", zap.Int("scored", n), zap.Duration("took", time.Since(start)))
	}
}
