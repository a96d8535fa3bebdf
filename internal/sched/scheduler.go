// Package sched runs the weekly catalog refresh: at the configured
// weekday and time it triggers a full scrape followed by a backup.
package sched

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is the work the scheduler fires, typically a full scrape plus
// backup. The context is cancelled when the scheduler stops.
type Job func(ctx context.Context) error

// Config describes the weekly schedule.
type Config struct {
	Enabled  bool
	Day      string // weekday name, e.g. "sunday"
	At       string // wall-clock time "HH:MM"
	Timezone string // IANA zone name; empty means UTC
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Status reports the scheduler's state for the status endpoint.
type Status struct {
	Enabled bool      `json:"enabled"`
	Running bool      `json:"running"`
	NextRun time.Time `json:"next_run,omitzero"`
}

// Scheduler triggers a job once per week at a fixed local time.
type Scheduler struct {
	day    time.Weekday
	hour   int
	minute int
	loc    *time.Location
	job    Job
	logger *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	nextRun time.Time
	enabled bool
}

// New builds a scheduler from config. A disabled config yields a
// scheduler whose Start is a no-op, so callers need no special casing.
func New(cfg Config, job Job, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{job: job, logger: logger, enabled: cfg.Enabled}
	if !cfg.Enabled {
		return s, nil
	}

	day, ok := weekdays[strings.ToLower(cfg.Day)]
	if !ok {
		return nil, fmt.Errorf("unknown weekday %q", cfg.Day)
	}
	s.day = day

	if _, err := fmt.Sscanf(cfg.At, "%d:%d", &s.hour, &s.minute); err != nil {
		return nil, fmt.Errorf("parse schedule time %q: %w", cfg.At, err)
	}
	if s.hour < 0 || s.hour > 23 || s.minute < 0 || s.minute > 59 {
		return nil, fmt.Errorf("schedule time %q out of range", cfg.At)
	}

	s.loc = time.UTC
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
		}
		s.loc = loc
	}
	return s, nil
}

// Start launches the scheduling loop. Safe to call on a disabled
// scheduler; repeated calls while running are ignored.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.nextRun = s.nextAfter(time.Now().In(s.loc))

	s.logger.Info("scheduler started",
		zap.String("day", s.day.String()),
		zap.String("at", fmt.Sprintf("%02d:%02d", s.hour, s.minute)),
		zap.Time("next_run", s.nextRun))

	go s.loop(ctx)
}

// Stop cancels the loop and waits for any in-flight job to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("scheduler stopped")
}

// Status reports whether the loop is running and when it fires next.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{Enabled: s.enabled, Running: s.cancel != nil}
	if st.Running {
		st.NextRun = s.nextRun
	}
	return st
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	for {
		s.mu.Lock()
		next := s.nextRun
		s.mu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.logger.Info("scheduled refresh starting")
		if err := s.job(ctx); err != nil {
			s.logger.Error("scheduled refresh failed", zap.Error(err))
		} else {
			s.logger.Info("scheduled refresh completed")
		}

		s.mu.Lock()
		s.nextRun = s.nextAfter(time.Now().In(s.loc))
		s.mu.Unlock()
	}
}

// nextAfter finds the next occurrence of the configured weekday and time
// strictly after now.
func (s *Scheduler) nextAfter(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, s.loc)
	daysAhead := (int(s.day) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, daysAhead)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
