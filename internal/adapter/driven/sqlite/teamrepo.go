package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TeamStore = (*TeamRepo)(nil)

// TeamRepo is the SQLite implementation of the TeamStore port interface.
// Member aliases and state category lists are stored as JSON arrays.
type TeamRepo struct {
	db *DB
}

// NewTeamRepo creates a new TeamRepo backed by the given DB.
func NewTeamRepo(db *DB) *TeamRepo {
	return &TeamRepo{db: db}
}

// Create inserts a team and its roster in one transaction.
func (r *TeamRepo) Create(ctx context.Context, team model.TeamConfig) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO teams (name) VALUES (?)`, team.Name)
	if err != nil {
		return fmt.Errorf("create team %q: %w", team.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("create team %q: %w", team.Name, driven.ErrTeamAlreadyExists)
	}
	teamID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create team %q: last insert id: %w", team.Name, err)
	}

	for i, m := range team.Members {
		if err := upsertMember(ctx, tx, teamID, i, m); err != nil {
			return fmt.Errorf("create team %q: %w", team.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit team %q: %w", team.Name, err)
	}
	return nil
}

// Get returns the team with its members in roster order.
func (r *TeamRepo) Get(ctx context.Context, name string) (*model.TeamConfig, error) {
	teamID, err := r.teamID(ctx, r.db.Reader, name)
	if err != nil {
		return nil, err
	}

	const query = `SELECT name, email, aliases FROM team_members WHERE team_id = ? ORDER BY position, id`
	rows, err := r.db.Reader.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("query members of team %q: %w", name, err)
	}
	defer rows.Close()

	team := &model.TeamConfig{Name: name, Members: []model.TeamMember{}}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member of team %q: %w", name, err)
		}
		team.Members = append(team.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members of team %q: %w", name, err)
	}

	return team, nil
}

// ListNames returns every team name in alphabetical order.
func (r *TeamRepo) ListNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.Reader.QueryContext(ctx, `SELECT name FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan team name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return names, nil
}

// Delete removes a team. Members, settings and snapshots cascade.
func (r *TeamRepo) Delete(ctx context.Context, name string) error {
	res, err := r.db.Writer.ExecContext(ctx, `DELETE FROM teams WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete team %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete team %q: %w", name, driven.ErrTeamNotFound)
	}
	return nil
}

// AddMember inserts the member, or replaces the one with the same email while
// keeping its roster position.
func (r *TeamRepo) AddMember(ctx context.Context, team string, member model.TeamMember) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	teamID, err := r.teamID(ctx, tx, team)
	if err != nil {
		return err
	}

	var next int
	const posQuery = `SELECT COALESCE(MAX(position) + 1, 0) FROM team_members WHERE team_id = ?`
	if err := tx.QueryRowContext(ctx, posQuery, teamID).Scan(&next); err != nil {
		return fmt.Errorf("next member position for team %q: %w", team, err)
	}

	if err := upsertMember(ctx, tx, teamID, next, member); err != nil {
		return fmt.Errorf("add member to team %q: %w", team, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit member of team %q: %w", team, err)
	}
	return nil
}

// RemoveMember deletes the member with the given email (case-insensitive).
func (r *TeamRepo) RemoveMember(ctx context.Context, team string, email string) error {
	teamID, err := r.teamID(ctx, r.db.Reader, team)
	if err != nil {
		return err
	}

	res, err := r.db.Writer.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = ? AND email = ?`, teamID, email)
	if err != nil {
		return fmt.Errorf("remove member %q from team %q: %w", email, team, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("remove member %q from team %q: %w", email, team, driven.ErrMemberNotFound)
	}
	return nil
}

// GetStateCategories returns the team's state categories, or the defaults when
// none are stored.
func (r *TeamRepo) GetStateCategories(ctx context.Context, team string) (model.StateCategories, error) {
	teamID, err := r.teamID(ctx, r.db.Reader, team)
	if err != nil {
		return model.DefaultStateCategories(), err
	}

	const query = `SELECT active, blocked, completed FROM team_state_categories WHERE team_id = ?`
	var active, blocked, completed string
	err = r.db.Reader.QueryRowContext(ctx, query, teamID).Scan(&active, &blocked, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultStateCategories(), nil
	}
	if err != nil {
		return model.DefaultStateCategories(), fmt.Errorf("get state categories for team %q: %w", team, err)
	}

	var c model.StateCategories
	for _, f := range []struct {
		raw string
		dst *[]string
	}{{active, &c.Active}, {blocked, &c.Blocked}, {completed, &c.Completed}} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return model.DefaultStateCategories(), fmt.Errorf("decode state categories for team %q: %w", team, err)
		}
	}
	return c, nil
}

// SetStateCategories replaces the team's state categories.
func (r *TeamRepo) SetStateCategories(ctx context.Context, team string, categories model.StateCategories) error {
	teamID, err := r.teamID(ctx, r.db.Reader, team)
	if err != nil {
		return err
	}

	encoded := make([]string, 0, 3)
	for _, states := range [][]string{categories.Active, categories.Blocked, categories.Completed} {
		raw, err := json.Marshal(nonNil(states))
		if err != nil {
			return fmt.Errorf("encode state categories for team %q: %w", team, err)
		}
		encoded = append(encoded, string(raw))
	}

	const query = `INSERT OR REPLACE INTO team_state_categories (team_id, active, blocked, completed) VALUES (?, ?, ?, ?)`
	if _, err := r.db.Writer.ExecContext(ctx, query, teamID, encoded[0], encoded[1], encoded[2]); err != nil {
		return fmt.Errorf("set state categories for team %q: %w", team, err)
	}
	return nil
}

// GetThresholdOverrides returns the per-team threshold overrides.
// Returns zero-value overrides (all nil pointers) when no override exists.
func (r *TeamRepo) GetThresholdOverrides(ctx context.Context, team string) (model.ThresholdOverrides, error) {
	teamID, err := r.teamID(ctx, r.db.Reader, team)
	if err != nil {
		return model.ThresholdOverrides{}, err
	}

	const query = `
		SELECT stale_days, stuck_in_state_days, max_items_per_person, min_items_per_person, high_priority_days
		FROM team_thresholds
		WHERE team_id = ?
	`

	var stale, stuck, maxItems, minItems, highPriority sql.NullInt64
	err = r.db.Reader.QueryRowContext(ctx, query, teamID).Scan(&stale, &stuck, &maxItems, &minItems, &highPriority)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ThresholdOverrides{}, nil
	}
	if err != nil {
		return model.ThresholdOverrides{}, fmt.Errorf("get threshold overrides for team %q: %w", team, err)
	}

	return model.ThresholdOverrides{
		StaleDays:         nullIntPtr(stale),
		StuckInStateDays:  nullIntPtr(stuck),
		MaxItemsPerPerson: nullIntPtr(maxItems),
		MinItemsPerPerson: nullIntPtr(minItems),
		HighPriorityDays:  nullIntPtr(highPriority),
	}, nil
}

// SetThresholdOverrides replaces the per-team threshold overrides. Nil fields
// are stored as NULL, which means "inherit the global value".
func (r *TeamRepo) SetThresholdOverrides(ctx context.Context, team string, o model.ThresholdOverrides) error {
	teamID, err := r.teamID(ctx, r.db.Reader, team)
	if err != nil {
		return err
	}

	const query = `
		INSERT OR REPLACE INTO team_thresholds (team_id, stale_days, stuck_in_state_days, max_items_per_person, min_items_per_person, high_priority_days)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Writer.ExecContext(ctx, query, teamID,
		intPtrValue(o.StaleDays),
		intPtrValue(o.StuckInStateDays),
		intPtrValue(o.MaxItemsPerPerson),
		intPtrValue(o.MinItemsPerPerson),
		intPtrValue(o.HighPriorityDays),
	)
	if err != nil {
		return fmt.Errorf("set threshold overrides for team %q: %w", team, err)
	}
	return nil
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *TeamRepo) teamID(ctx context.Context, q queryRower, name string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM teams WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("team %q: %w", name, driven.ErrTeamNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get team %q: %w", name, err)
	}
	return id, nil
}

func upsertMember(ctx context.Context, tx *sql.Tx, teamID int64, position int, m model.TeamMember) error {
	email := strings.TrimSpace(m.Email)
	if email == "" {
		return fmt.Errorf("member %q has no email", m.Name)
	}

	aliases, err := json.Marshal(nonNil(m.Aliases))
	if err != nil {
		return fmt.Errorf("encode aliases for %q: %w", email, err)
	}

	const query = `
		INSERT INTO team_members (team_id, position, name, email, aliases)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(team_id, email) DO UPDATE SET
			name = excluded.name,
			aliases = excluded.aliases
	`
	if _, err := tx.ExecContext(ctx, query, teamID, position, m.Name, email, string(aliases)); err != nil {
		return fmt.Errorf("upsert member %q: %w", email, err)
	}
	return nil
}

func scanMember(s scanner) (model.TeamMember, error) {
	var m model.TeamMember
	var aliases string
	if err := s.Scan(&m.Name, &m.Email, &aliases); err != nil {
		return model.TeamMember{}, err
	}
	if err := json.Unmarshal([]byte(aliases), &m.Aliases); err != nil {
		return model.TeamMember{}, fmt.Errorf("decode aliases: %w", err)
	}
	if len(m.Aliases) == 0 {
		m.Aliases = nil
	}
	return m, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func intPtrValue(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
