// Package autosave periodically re-persists the whole itinerary.
package autosave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultSchedule = "@every 10m"
	DefaultTimeout  = 2 * time.Minute
)

type Saver interface {
	Autosave(ctx context.Context) error
}

type Scheduler struct {
	saver    Saver
	schedule string
	timeout  time.Duration
	parser   cron.Parser
	loc      *time.Location
	c        *cron.Cron
}

type Option func(*Scheduler)

// WithTimeout bounds a single autosave run.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewScheduler validates schedule, a standard five-field cron expression or
// a descriptor such as "@every 10m". An empty schedule uses DefaultSchedule.
func NewScheduler(saver Saver, schedule string, opts ...Option) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	s := &Scheduler{
		saver:    saver,
		schedule: schedule,
		timeout:  DefaultTimeout,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid autosave schedule %q: %w", schedule, err)
	}

	return s, nil
}

func (s *Scheduler) Schedule() string {
	return s.schedule
}

// Start registers the job and starts the cron runner. Runs that overlap a
// slow predecessor are skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn))
	s.c = cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(s.loc),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	job := cron.FuncJob(func() {
		_ = s.RunOnce(ctx)
	})
	if _, err := s.c.AddJob(s.schedule, job); err != nil {
		return fmt.Errorf("failed to register autosave job: %w", err)
	}

	s.c.Start()

	slog.InfoContext(ctx, "autosave scheduler started",
		slog.String("schedule", s.schedule),
		slog.Duration("timeout", s.timeout),
	)
	return nil
}

// Stop halts the runner and waits for a running autosave, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.c == nil {
		return
	}

	select {
	case <-s.c.Stop().Done():
		slog.InfoContext(ctx, "autosave scheduler stopped")
	case <-ctx.Done():
		slog.WarnContext(ctx, "autosave scheduler stop timed out",
			slog.String("error", ctx.Err().Error()),
		)
	}
}

// RunOnce performs one bounded autosave.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.saver.Autosave(runCtx); err != nil {
		slog.ErrorContext(runCtx, "autosave run failed",
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}
