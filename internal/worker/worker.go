package worker

import (
	"context"
	"fmt"
	"time"

	"story-playback/internal/metrics"
	"story-playback/internal/stories"
	"story-playback/internal/viewer"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	JobExpireStories = "expire-stories"
	JobReapSessions  = "reap-sessions"
)

// JobFunc is one run of a periodic job.
type JobFunc func(ctx context.Context) error

// Worker runs periodic maintenance jobs on a gocron scheduler.
type Worker struct {
	scheduler gocron.Scheduler
	clock     clockwork.Clock
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewWorker(clock clockwork.Clock, logger *zap.Logger) (*Worker, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	scheduler, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		scheduler: scheduler,
		clock:     clock,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Every schedules fn under name. Overlapping runs of the same job are
// skipped rather than queued.
func (w *Worker) Every(name string, interval time.Duration, fn JobFunc) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	_, err := w.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { w.run(name, fn) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	w.logger.Info("job scheduled", zap.String("job", name), zap.Duration("interval", interval))
	return nil
}

func (w *Worker) Start() {
	w.scheduler.Start()
	w.logger.Info("worker started")
}

func (w *Worker) Shutdown() error {
	w.cancel()
	err := w.scheduler.Shutdown()
	w.logger.Info("worker stopped")
	return err
}

func (w *Worker) run(name string, fn JobFunc) {
	start := w.clock.Now()
	err := fn(w.ctx)
	duration := w.clock.Since(start)

	metrics.WorkerLatencySeconds.WithLabelValues(name).Observe(duration.Seconds())
	if err != nil {
		w.logger.Error("job failed", zap.String("job", name), zap.Error(err))
		return
	}
	w.logger.Debug("job finished", zap.String("job", name), zap.Duration("duration", duration))
}

// ExpireStories drops live segments past their lifetime and archives the
// organic ones.
func ExpireStories(svc *stories.Service, clock clockwork.Clock, logger *zap.Logger) JobFunc {
	return func(ctx context.Context) error {
		res, err := svc.ExpireBefore(ctx, clock.Now())
		if err != nil {
			return err
		}
		if res.Expired > 0 {
			metrics.StoriesExpiredTotal.Add(float64(res.Expired))
			metrics.StoriesArchivedTotal.Add(float64(res.Archived))
			logger.Info("stories expired",
				zap.Int("count", res.Expired),
				zap.Int("archived", res.Archived))
		}
		return nil
	}
}

// ReapSessions closes finished and idle viewer sessions.
func ReapSessions(m *viewer.Manager, clock clockwork.Clock) JobFunc {
	return func(context.Context) error {
		m.Reap(clock.Now())
		return nil
	}
}
