package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Scheduler fires one cycle per configured wall-clock time of day, in the
// clinic's timezone. The position of the time in the sorted list is the cycle
// index, so the daily keyword partition lines up with the run times.
type Scheduler struct {
	logger   *slog.Logger
	engine   *Engine
	times    []dayTime
	location *time.Location
}

type dayTime struct {
	hour   int
	minute int
}

func NewScheduler(logger *slog.Logger, eng *Engine, times []string, location *time.Location) (*Scheduler, error) {
	parsed := make([]dayTime, 0, len(times))
	for _, value := range times {
		t, err := time.Parse("15:04", value)
		if err != nil {
			return nil, fmt.Errorf("parse cycle time %q: %w", value, err)
		}
		parsed = append(parsed, dayTime{hour: t.Hour(), minute: t.Minute()})
	}
	sort.Slice(parsed, func(i, j int) bool {
		if parsed[i].hour != parsed[j].hour {
			return parsed[i].hour < parsed[j].hour
		}
		return parsed[i].minute < parsed[j].minute
	})

	return &Scheduler{
		logger:   logger,
		engine:   eng,
		times:    parsed,
		location: location,
	}, nil
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started", "runs_per_day", len(s.times))

	for {
		runAt, cycle := s.nextRun(time.Now().In(s.location))
		s.logger.Info("next scheduled cycle", "at", runAt.Format(time.RFC3339), "cycle", cycle)

		timer := time.NewTimer(time.Until(runAt))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return
		case <-timer.C:
		}

		if _, err := s.engine.StartCycle(ctx, cycle); err != nil {
			if errors.Is(err, ErrAlreadyRunning) {
				s.logger.Warn("scheduled cycle skipped, another run in progress", "cycle", cycle)
				continue
			}
			s.logger.Error("failed to start scheduled cycle", "cycle", cycle, "error", err)
		}
	}
}

// nextRun returns the first configured time strictly after now, rolling over
// to tomorrow's first slot when the day is spent.
func (s *Scheduler) nextRun(now time.Time) (time.Time, int) {
	for i, t := range s.times {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), t.hour, t.minute, 0, 0, s.location)
		if candidate.After(now) {
			return candidate, i
		}
	}

	first := s.times[0]
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), first.hour, first.minute, 0, 0, s.location), 0
}
