package sqlite

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SnapshotStore = (*SnapshotRepo)(nil)

// SnapshotRepo is the SQLite implementation of the SnapshotStore port interface.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new SnapshotRepo backed by the given DB.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Record stores a snapshot for an existing team and returns its ID.
// Returns driven.ErrTeamNotFound (wrapped) for an unknown team.
func (r *SnapshotRepo) Record(ctx context.Context, s model.HealthSnapshot) (int64, error) {
	const query = `
		INSERT INTO health_snapshots
			(team_id, generated_at, health_score, active_items, alert_count, warning_count, info_count, report)
		SELECT id, ?, ?, ?, ?, ?, ?, ? FROM teams WHERE name = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		formatTime(s.GeneratedAt),
		s.HealthScore,
		s.ActiveItems,
		s.AlertCount,
		s.WarningCount,
		s.InfoCount,
		s.Report,
		s.TeamName,
	)
	if err != nil {
		return 0, fmt.Errorf("record snapshot for team %q: %w", s.TeamName, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("record snapshot for team %q: %w", s.TeamName, driven.ErrTeamNotFound)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record snapshot for team %q: last insert id: %w", s.TeamName, err)
	}
	return id, nil
}

// ListByTeam returns the team's snapshots, newest first. limit <= 0 returns all.
func (r *SnapshotRepo) ListByTeam(ctx context.Context, team string, limit int) ([]model.HealthSnapshot, error) {
	query := `
		SELECT s.id, t.name, s.generated_at, s.health_score, s.active_items,
		       s.alert_count, s.warning_count, s.info_count, s.report
		FROM health_snapshots s
		JOIN teams t ON t.id = s.team_id
		WHERE t.name = ?
		ORDER BY s.generated_at DESC, s.id DESC
	`
	args := []any{team}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for team %q: %w", team, err)
	}
	defer rows.Close()

	snaps := []model.HealthSnapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

// Latest returns the newest snapshot for the team, or nil if there is none.
func (r *SnapshotRepo) Latest(ctx context.Context, team string) (*model.HealthSnapshot, error) {
	snaps, err := r.ListByTeam(ctx, team, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

func scanSnapshot(s scanner) (*model.HealthSnapshot, error) {
	var snap model.HealthSnapshot
	var generatedAt string

	err := s.Scan(
		&snap.ID,
		&snap.TeamName,
		&generatedAt,
		&snap.HealthScore,
		&snap.ActiveItems,
		&snap.AlertCount,
		&snap.WarningCount,
		&snap.InfoCount,
		&snap.Report,
	)
	if err != nil {
		return nil, err
	}

	snap.GeneratedAt, err = parseTime(generatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse generated_at: %w", err)
	}
	return &snap, nil
}
