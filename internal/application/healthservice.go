package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

// ErrNoWorkItemSource is returned when an analysis is requested before any
// remote source has been configured (no credentials).
var ErrNoWorkItemSource = errors.New("no work item source configured: run `adoctl auth login`")

// HealthRequest describes one team health run.
type HealthRequest struct {
	Team string
	// Overrides are applied on top of the stored global and team thresholds.
	Overrides model.ThresholdOverrides
	// IncludeCompleted fetches completed items too, which feeds the activity
	// summary's closed counts.
	IncludeCompleted bool
	// SkipRecord disables writing a snapshot of the report.
	SkipRecord bool
}

// TeamStatus pairs a team name with its most recent snapshot (nil if none).
type TeamStatus struct {
	Name   string
	Latest *model.HealthSnapshot
}

// HealthService loads team configuration, fetches work items and runs the
// HealthAnalyzer. It depends only on port interfaces.
type HealthService struct {
	teamStore      driven.TeamStore
	thresholdStore driven.ThresholdStore
	source         driven.WorkItemSource
	snapshotStore  driven.SnapshotStore
	analyzerOpts   []AnalyzerOption
	logger         *slog.Logger
}

// NewHealthService creates a new HealthService. source and snapshotStore may be
// nil: without a source Analyze fails with ErrNoWorkItemSource, without a
// snapshot store nothing is recorded.
func NewHealthService(
	teamStore driven.TeamStore,
	thresholdStore driven.ThresholdStore,
	source driven.WorkItemSource,
	snapshotStore driven.SnapshotStore,
	logger *slog.Logger,
	analyzerOpts ...AnalyzerOption,
) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		teamStore:      teamStore,
		thresholdStore: thresholdStore,
		source:         source,
		snapshotStore:  snapshotStore,
		analyzerOpts:   analyzerOpts,
		logger:         logger,
	}
}

// EffectiveThresholdsFor returns the resolved thresholds for a team: global
// defaults, then stored team overrides, then the caller's overrides. Store
// failures fall back to the previous layer (non-fatal).
func (s *HealthService) EffectiveThresholdsFor(ctx context.Context, team string, overrides model.ThresholdOverrides) model.HealthThresholds {
	global, err := s.thresholdStore.GetGlobalThresholds(ctx)
	if err != nil {
		s.logger.Warn("failed to get global thresholds, using defaults", "error", err)
		global = model.DefaultHealthThresholds()
	}

	teamOverrides, err := s.teamStore.GetThresholdOverrides(ctx, team)
	if err != nil {
		s.logger.Warn("failed to get team threshold overrides, using global thresholds", "team", team, "error", err)
		// Zero overrides inherit every global value.
	}

	return global.Apply(teamOverrides).Apply(overrides)
}

// Analyze runs a health analysis for the requested team. It returns
// driven.ErrTeamNotFound (wrapped) when the team has not been configured.
func (s *HealthService) Analyze(ctx context.Context, req HealthRequest) (*model.TeamHealthReport, error) {
	if s.source == nil {
		return nil, ErrNoWorkItemSource
	}

	team, err := s.teamStore.Get(ctx, req.Team)
	if err != nil {
		return nil, fmt.Errorf("load team %q: %w", req.Team, err)
	}

	categories, err := s.teamStore.GetStateCategories(ctx, team.Name)
	if err != nil {
		s.logger.Warn("failed to get state categories, using defaults", "team", team.Name, "error", err)
		categories = model.DefaultStateCategories()
	}

	thresholds := s.EffectiveThresholdsFor(ctx, team.Name, req.Overrides)

	items, err := s.source.FetchTeamWorkItems(ctx, driven.WorkItemQuery{
		Members:           team.Members,
		ActiveOnly:        !req.IncludeCompleted,
		CompletedStates:   categories.Completed,
		IncludeUnassigned: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch work items for team %q: %w", team.Name, err)
	}

	s.logger.Debug("analyzing team health",
		"team", team.Name,
		"members", len(team.Members),
		"items", len(items),
		"stale_days", thresholds.StaleDays,
		"max_items", thresholds.MaxItemsPerPerson,
		"min_items", thresholds.MinItemsPerPerson,
	)

	analyzer := NewHealthAnalyzer(thresholds, categories, s.analyzerOpts...)
	report := analyzer.Analyze(items, *team)

	if !req.SkipRecord {
		s.record(ctx, report)
	}

	return &report, nil
}

// record stores a snapshot of the report. Failures are logged, never returned.
func (s *HealthService) record(ctx context.Context, report model.TeamHealthReport) {
	if s.snapshotStore == nil {
		return
	}

	encoded, err := json.Marshal(report)
	if err != nil {
		s.logger.Warn("failed to encode report for snapshot", "team", report.Team.Name, "error", err)
		encoded = nil
	}

	id, err := s.snapshotStore.Record(ctx, model.NewHealthSnapshot(report, encoded))
	if err != nil {
		s.logger.Warn("failed to record health snapshot", "team", report.Team.Name, "error", err)
		return
	}
	s.logger.Debug("health snapshot recorded", "team", report.Team.Name, "snapshot_id", id)
}

// Team returns a stored team roster.
func (s *HealthService) Team(ctx context.Context, name string) (*model.TeamConfig, error) {
	team, err := s.teamStore.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load team %q: %w", name, err)
	}
	return team, nil
}

// History returns stored snapshots for a team, newest first.
func (s *HealthService) History(ctx context.Context, team string, limit int) ([]model.HealthSnapshot, error) {
	if s.snapshotStore == nil {
		return []model.HealthSnapshot{}, nil
	}
	if _, err := s.teamStore.Get(ctx, team); err != nil {
		return nil, fmt.Errorf("load team %q: %w", team, err)
	}

	snaps, err := s.snapshotStore.ListByTeam(ctx, team, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for team %q: %w", team, err)
	}
	return snaps, nil
}

// LatestReport decodes the report stored with the team's newest snapshot.
// It returns nil, nil when nothing usable has been recorded yet.
func (s *HealthService) LatestReport(ctx context.Context, team string) (*model.TeamHealthReport, error) {
	if _, err := s.teamStore.Get(ctx, team); err != nil {
		return nil, fmt.Errorf("load team %q: %w", team, err)
	}
	if s.snapshotStore == nil {
		return nil, nil
	}

	latest, err := s.snapshotStore.Latest(ctx, team)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot for team %q: %w", team, err)
	}
	if latest == nil || len(latest.Report) == 0 {
		return nil, nil
	}

	var report model.TeamHealthReport
	if err := json.Unmarshal(latest.Report, &report); err != nil {
		s.logger.Warn("stored report is unreadable", "team", team, "snapshot_id", latest.ID, "error", err)
		return nil, nil
	}
	return &report, nil
}

// Teams lists every configured team with its latest snapshot.
func (s *HealthService) Teams(ctx context.Context) ([]TeamStatus, error) {
	names, err := s.teamStore.ListNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	statuses := make([]TeamStatus, 0, len(names))
	for _, name := range names {
		status := TeamStatus{Name: name}
		if s.snapshotStore != nil {
			latest, err := s.snapshotStore.Latest(ctx, name)
			if err != nil {
				s.logger.Warn("failed to get latest snapshot", "team", name, "error", err)
			}
			status.Latest = latest
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
