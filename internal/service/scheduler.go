package service

import (
	"context"
	"time"

	"github.com/juju/clock"
	"go.uber.org/zap"
)

// NotificationRunner es lo que el scheduler dispara una vez por dia.
type NotificationRunner interface {
	RunChecks(ctx context.Context) (RunReport, error)
}

// DailyScheduler ejecuta el runner todos los dias a hour:minute en loc.
type DailyScheduler struct {
	logger *zap.Logger
	clock  clock.Clock
	loc    *time.Location
	hour   int
	minute int
	runner NotificationRunner
}

func NewDailyScheduler(logger *zap.Logger, clk clock.Clock, loc *time.Location, hour, minute int, runner NotificationRunner) *DailyScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.WallClock
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DailyScheduler{
		logger: logger,
		clock:  clk,
		loc:    loc,
		hour:   hour,
		minute: minute,
		runner: runner,
	}
}

// Run bloquea hasta que ctx se cancele.
func (s *DailyScheduler) Run(ctx context.Context) {
	for {
		now := s.clock.Now()
		next := NextRun(now, s.loc, s.hour, s.minute)
		s.logger.Info("next notification run scheduled", zap.Time("at", next))
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(next.Sub(now)):
		}
		if _, err := s.runner.RunChecks(ctx); err != nil {
			s.logger.Error("scheduled notification run failed", zap.Error(err))
		}
	}
}

// NextRun devuelve el proximo hour:minute estrictamente posterior a now.
func NextRun(now time.Time, loc *time.Location, hour, minute int) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}
