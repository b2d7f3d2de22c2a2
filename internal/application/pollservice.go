// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

// refreshRequest represents a manual refresh trigger. An empty team refreshes
// every team.
type refreshRequest struct {
	team string
	done chan error
}

// PollService periodically re-analyzes every stored team and records a
// snapshot per run. Each team is scheduled on its own adaptive interval
// derived from how recently its work items changed.
type PollService struct {
	health    *HealthService
	interval  time.Duration
	refreshCh chan refreshRequest
	now       func() time.Time
	logger    *slog.Logger

	mu        sync.RWMutex
	schedules map[string]*teamSchedule
}

// NewPollService creates a new PollService. interval is the scheduler tick:
// how often the loop checks which teams are due.
func NewPollService(health *HealthService, interval time.Duration, logger *slog.Logger) *PollService {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &PollService{
		health:    health,
		interval:  interval,
		refreshCh: make(chan refreshRequest),
		now:       time.Now,
		logger:    logger,
		schedules: make(map[string]*teamSchedule),
	}
}

// Start begins the polling loop. It polls every team immediately, then on each
// tick polls the teams whose schedule is due. It also listens for manual
// refresh requests. Start blocks until the context is canceled.
func (s *PollService) Start(ctx context.Context) {
	if err := s.pollTeams(ctx, true); err != nil {
		s.logger.Error("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("poll service stopped")
			return
		case <-ticker.C:
			if err := s.pollTeams(ctx, false); err != nil {
				s.logger.Error("poll cycle failed", "error", err)
			}
		case req := <-s.refreshCh:
			req.done <- s.handleRefresh(ctx, req)
		}
	}
}

// RefreshTeam triggers an immediate analysis of one team, bypassing its
// schedule. It blocks until the refresh completes or the context is canceled.
func (s *PollService) RefreshTeam(ctx context.Context, team string) error {
	done := make(chan error, 1)
	req := refreshRequest{team: team, done: done}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshAll triggers an immediate analysis of every team.
func (s *PollService) RefreshAll(ctx context.Context) error {
	return s.RefreshTeam(ctx, "")
}

// Schedules returns a copy of the current per-team schedules.
func (s *PollService) Schedules() map[string]ScheduleInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]ScheduleInfo, len(s.schedules))
	for name, sched := range s.schedules {
		out[name] = ScheduleInfo{
			Tier:       sched.tier,
			NextPollAt: sched.nextPollAt,
			LastPolled: sched.lastPolled,
		}
	}
	return out
}

// pollTeams polls every stored team whose schedule is due, or every team when
// force is set. Schedules of deleted teams are dropped.
func (s *PollService) pollTeams(ctx context.Context, force bool) error {
	start := s.now()

	names, err := s.health.teamStore.ListNames(ctx)
	if err != nil {
		return err
	}
	s.pruneSchedules(names)

	var polled, pollErrors int
	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !force && !s.isDue(name, s.now()) {
			continue
		}

		polled++
		if err := s.pollTeam(ctx, name); err != nil {
			s.logger.Error("team poll failed", "team", name, "error", err)
			pollErrors++
		}
	}

	s.logger.Info("poll cycle complete",
		"teams", len(names),
		"polled", polled,
		"errors", pollErrors,
		"duration", s.now().Sub(start).Round(time.Millisecond),
	)

	return nil
}

// pollTeam analyzes one team, records its snapshot and reschedules it from the
// freshest item activity. A failed run is retried on the active-tier interval.
func (s *PollService) pollTeam(ctx context.Context, team string) error {
	report, err := s.health.Analyze(ctx, HealthRequest{Team: team})
	if errors.Is(err, driven.ErrTeamNotFound) {
		return err
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sched, ok := s.schedules[team]
	if !ok {
		sched = &teamSchedule{tier: TierActive}
		s.schedules[team] = sched
	}
	sched.lastPolled = now

	if err != nil {
		sched.nextPollAt = now.Add(tierInterval(TierActive))
		return err
	}

	sched.tier = classifyActivity(freshestActivity(*report), now)
	sched.nextPollAt = now.Add(tierInterval(sched.tier))

	s.logger.Debug("team polled",
		"team", team,
		"health_score", report.Summary.HealthScore,
		"alerts", len(report.Alerts),
		"tier", sched.tier.String(),
		"next_poll_at", sched.nextPollAt,
	)
	return nil
}

func (s *PollService) isDue(team string, now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sched, ok := s.schedules[team]
	if !ok {
		return true
	}
	return !now.Before(sched.nextPollAt)
}

func (s *PollService) pruneSchedules(names []string) {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.schedules {
		if !keep[name] {
			delete(s.schedules, name)
		}
	}
}

// handleRefresh dispatches a manual refresh request.
func (s *PollService) handleRefresh(ctx context.Context, req refreshRequest) error {
	if req.team != "" {
		return s.pollTeam(ctx, req.team)
	}
	return s.pollTeams(ctx, true)
}
