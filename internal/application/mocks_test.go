package application_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockTeamStore struct {
	mu          sync.Mutex
	teams       map[string]model.TeamConfig
	categories  map[string]model.StateCategories
	overrides   map[string]model.ThresholdOverrides
	overrideErr error
}

func newMockTeamStore(teams ...model.TeamConfig) *mockTeamStore {
	m := &mockTeamStore{
		teams:      make(map[string]model.TeamConfig),
		categories: make(map[string]model.StateCategories),
		overrides:  make(map[string]model.ThresholdOverrides),
	}
	for _, t := range teams {
		m.teams[t.Name] = t
	}
	return m
}

func (m *mockTeamStore) Create(_ context.Context, team model.TeamConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[team.Name]; ok {
		return driven.ErrTeamAlreadyExists
	}
	m.teams[team.Name] = team
	return nil
}

func (m *mockTeamStore) Get(_ context.Context, name string) (*model.TeamConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[name]
	if !ok {
		return nil, driven.ErrTeamNotFound
	}
	return &t, nil
}

func (m *mockTeamStore) ListNames(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.teams))
	for n := range m.teams {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockTeamStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[name]; !ok {
		return driven.ErrTeamNotFound
	}
	delete(m.teams, name)
	return nil
}

func (m *mockTeamStore) AddMember(_ context.Context, team string, member model.TeamMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[team]
	if !ok {
		return driven.ErrTeamNotFound
	}
	t.Members = append(t.Members, member)
	m.teams[team] = t
	return nil
}

func (m *mockTeamStore) RemoveMember(_ context.Context, _ string, _ string) error {
	return driven.ErrMemberNotFound
}

func (m *mockTeamStore) GetStateCategories(_ context.Context, team string) (model.StateCategories, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.categories[team]; ok {
		return c, nil
	}
	return model.DefaultStateCategories(), nil
}

func (m *mockTeamStore) SetStateCategories(_ context.Context, team string, c model.StateCategories) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[team] = c
	return nil
}

func (m *mockTeamStore) GetThresholdOverrides(_ context.Context, team string) (model.ThresholdOverrides, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overrideErr != nil {
		return model.ThresholdOverrides{}, m.overrideErr
	}
	return m.overrides[team], nil
}

func (m *mockTeamStore) SetThresholdOverrides(_ context.Context, team string, o model.ThresholdOverrides) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[team] = o
	return nil
}

type mockThresholdStore struct {
	global model.HealthThresholds
	err    error
}

func (m *mockThresholdStore) GetGlobalThresholds(_ context.Context) (model.HealthThresholds, error) {
	if m.err != nil {
		return model.HealthThresholds{}, m.err
	}
	return m.global, nil
}

func (m *mockThresholdStore) SetGlobalThresholds(_ context.Context, t model.HealthThresholds) error {
	m.global = t
	return nil
}

type mockWorkItemSource struct {
	mu      sync.Mutex
	items   []model.WorkItem
	err     error
	queries []driven.WorkItemQuery
}

func (m *mockWorkItemSource) FetchTeamWorkItems(_ context.Context, q driven.WorkItemQuery) ([]model.WorkItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func (m *mockWorkItemSource) GetWorkItem(_ context.Context, id int) (*model.WorkItem, error) {
	for _, it := range m.items {
		if it.ID == id {
			it := it
			return &it, nil
		}
	}
	return nil, fmt.Errorf("work item %d: %w", id, driven.ErrWorkItemNotFound)
}

func (m *mockWorkItemSource) ListWorkItems(_ context.Context, _ driven.WorkItemFilter) ([]model.WorkItem, error) {
	return m.items, nil
}

func (m *mockWorkItemSource) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

type mockSnapshotStore struct {
	mu        sync.Mutex
	snapshots []model.HealthSnapshot
	err       error
}

func (m *mockSnapshotStore) Record(_ context.Context, s model.HealthSnapshot) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	s.ID = int64(len(m.snapshots) + 1)
	m.snapshots = append(m.snapshots, s)
	return s.ID, nil
}

func (m *mockSnapshotStore) ListByTeam(_ context.Context, team string, limit int) ([]model.HealthSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.HealthSnapshot
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		if m.snapshots[i].TeamName == team {
			out = append(out, m.snapshots[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockSnapshotStore) Latest(ctx context.Context, team string) (*model.HealthSnapshot, error) {
	snaps, err := m.ListByTeam(ctx, team, 1)
	if err != nil || len(snaps) == 0 {
		return nil, err
	}
	return &snaps[0], nil
}

func (m *mockSnapshotStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}

var errBoom = errors.New("boom")
