// Package scheduler drives the daemon mode: scheduled morning and evening
// reports at fixed clock times and a periodic dynamic change check between
// them.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/henemm/weather-email-autobot/internal/config"
	"github.com/henemm/weather-email-autobot/internal/observability"
	"github.com/henemm/weather-email-autobot/internal/report"
)

// Runner executes one report invocation; implemented by pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, kind report.Kind) error
}

// Scheduler fires report invocations at their configured times.
type Scheduler struct {
	runner  Runner
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	morning  [2]int
	evening  [2]int
	interval time.Duration
}

// New validates the schedule and builds a Scheduler.
func New(runner Runner, cfg *config.Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) (*Scheduler, error) {
	morning, err := config.ParseClockTime(cfg.Schedule.Morning)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule.morning: %v", config.ErrConfig, err)
	}
	evening, err := config.ParseClockTime(cfg.Schedule.Evening)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule.evening: %v", config.ErrConfig, err)
	}
	if cfg.Schedule.DynamicIntervalMin <= 0 {
		return nil, fmt.Errorf("%w: schedule.dynamic_interval_min must be positive", config.ErrConfig)
	}

	return &Scheduler{
		runner:   runner,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		morning:  morning,
		evening:  evening,
		interval: time.Duration(cfg.Schedule.DynamicIntervalMin) * time.Minute,
	}, nil
}

// Run loops until the context is cancelled. A failed invocation is logged
// and the loop continues; one bad run must not stop the day's reports.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"morning", fmt.Sprintf("%02d:%02d", s.morning[0], s.morning[1]),
		"evening", fmt.Sprintf("%02d:%02d", s.evening[0], s.evening[1]),
		"dynamic_interval", s.interval,
	)
	s.metrics.SchedulerActive.Set(1)
	defer s.metrics.SchedulerActive.Set(0)

	for {
		now := s.clock.Now()
		next, kind := s.nextEvent(now)

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-s.clock.After(next.Sub(now)):
		}

		s.logger.Debug("invocation due", "kind", string(kind), "at", next)
		if err := s.runner.Run(ctx, kind); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("invocation failed", "kind", string(kind), "error", err)
		}
	}
}

// nextEvent picks the earliest upcoming trigger. A dynamic tick that lands
// exactly on a scheduled time yields to the scheduled report.
func (s *Scheduler) nextEvent(now time.Time) (time.Time, report.Kind) {
	next, kind := nextDaily(now, s.morning), report.KindMorning

	if evening := nextDaily(now, s.evening); evening.Before(next) {
		next, kind = evening, report.KindEvening
	}
	if dynamic := now.Truncate(s.interval).Add(s.interval); dynamic.Before(next) {
		next, kind = dynamic, report.KindDynamic
	}
	return next, kind
}

// nextDaily returns the next occurrence of a wall-clock time, today or
// tomorrow.
func nextDaily(now time.Time, hm [2]int) time.Time {
	y, m, d := now.Date()
	t := time.Date(y, m, d, hm[0], hm[1], 0, 0, now.Location())
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
