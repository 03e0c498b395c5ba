package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/yoypulse/pkg/logger"
	"github.com/angelmondragon/yoypulse/pkg/metrics"
)

const defaultInterval = time.Minute

// ServiceParams configure the scheduler. JobTimeout bounds each job run and
// defaults to Interval so a slow warehouse read cannot stack cycles.
// Standby jobs run instead of Registry on cycles where another holder has
// the lock.
type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Standby    *Registry
	Lock       Lock
	Metrics    *metrics.JobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service ticks every Interval and runs the registered jobs in order while
// holding Lock.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	standby    *Registry
	lock       Lock
	metrics    *metrics.JobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

var errJobPanicked = errors.New("job panicked")

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("scheduler: logger is required")
	}
	s := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		standby:    params.Standby,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.standby == nil {
		s.standby = NewRegistry()
	}
	if s.lock == nil {
		s.lock = NewLocalLock()
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = s.interval
	}
	return s, nil
}

func (s *Service) Interval() time.Duration { return s.interval }

// Run fires a first cycle right away and then one per tick. It returns the
// context error once ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"jobs":        s.registry.Names(),
		"interval_ms": s.interval.Milliseconds(),
	})
	s.logg.Info(ctx, "scheduler started")
	defer s.logg.Info(ctx, "scheduler stopped")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := s.RunCycle(ctx); err != nil && ctx.Err() == nil {
			s.logg.Error(ctx, "scheduler cycle failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle runs each job once. Only a lock error is returned: job failures
// are logged and counted. A cycle that finds the lock taken skips the
// registered jobs and runs the standby jobs.
func (s *Service) RunCycle(ctx context.Context) error {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire scheduler lock: %w", err)
	}
	if !acquired {
		s.logg.Debug(ctx, "scheduler lock busy, skipping cycle")
		for _, name := range s.registry.Names() {
			s.metrics.IncSkipped(name)
		}
		s.runAll(ctx, s.standby)
		return nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "release scheduler lock", err)
		}
	}()

	s.runAll(ctx, s.registry)
	return nil
}

func (s *Service) runAll(ctx context.Context, r *Registry) {
	for _, job := range r.Jobs() {
		if ctx.Err() != nil {
			return
		}
		s.runJob(ctx, job)
	}
}

func (s *Service) runJob(ctx context.Context, job Job) {
	name := job.Name()
	jobCtx, cancel := context.WithTimeout(s.logg.WithField(ctx, "job", name), s.jobTimeout)
	defer cancel()

	start := time.Now()
	err := safeRun(jobCtx, job)
	elapsed := time.Since(start)
	s.metrics.ObserveDuration(name, elapsed)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.metrics.IncFailure(name)
		s.logg.Error(jobCtx, "scheduled job failed", err)
		return
	}
	s.metrics.IncSuccess(name)
	s.logg.Debug(jobCtx, "scheduled job done")
}

// safeRun turns a job panic into an error so one bad job cannot stop the
// scheduler goroutine.
func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", errJobPanicked, rec)
		}
	}()
	return job.Run(ctx)
}
