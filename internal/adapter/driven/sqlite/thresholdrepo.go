package sqlite

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ThresholdStore = (*ThresholdRepo)(nil)

// Keys of the global_thresholds table.
const (
	keyStaleDays         = "stale_days"
	keyStuckInStateDays  = "stuck_in_state_days"
	keyMaxItemsPerPerson = "max_items_per_person"
	keyMinItemsPerPerson = "min_items_per_person"
	keyHighPriorityDays  = "high_priority_days"
)

// ThresholdRepo is the SQLite implementation of the ThresholdStore port interface.
type ThresholdRepo struct {
	db *DB
}

// NewThresholdRepo creates a new ThresholdRepo backed by the given DB.
func NewThresholdRepo(db *DB) *ThresholdRepo {
	return &ThresholdRepo{db: db}
}

// GetGlobalThresholds returns the current global threshold defaults.
// Falls back to model.DefaultHealthThresholds() for any missing or unparsable key.
func (r *ThresholdRepo) GetGlobalThresholds(ctx context.Context) (model.HealthThresholds, error) {
	const query = `SELECT key, value FROM global_thresholds`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return model.DefaultHealthThresholds(), fmt.Errorf("query global_thresholds: %w", err)
	}
	defer rows.Close()

	thresholds := model.DefaultHealthThresholds()
	fields := thresholdFields(&thresholds)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return model.DefaultHealthThresholds(), fmt.Errorf("scan global_thresholds row: %w", err)
		}
		dst, ok := fields[key]
		if !ok {
			continue
		}
		if v, err := strconv.Atoi(value); err == nil {
			*dst = v
		}
	}
	if err := rows.Err(); err != nil {
		return model.DefaultHealthThresholds(), fmt.Errorf("iterate global_thresholds: %w", err)
	}

	return thresholds, nil
}

// SetGlobalThresholds persists the global threshold defaults using a transaction.
func (r *ThresholdRepo) SetGlobalThresholds(ctx context.Context, thresholds model.HealthThresholds) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `INSERT OR REPLACE INTO global_thresholds (key, value) VALUES (?, ?)`
	for key, v := range thresholdFields(&thresholds) {
		if _, err := tx.ExecContext(ctx, upsert, key, strconv.Itoa(*v)); err != nil {
			return fmt.Errorf("upsert global_thresholds %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit global_thresholds: %w", err)
	}
	return nil
}

func thresholdFields(t *model.HealthThresholds) map[string]*int {
	return map[string]*int{
		keyStaleDays:         &t.StaleDays,
		keyStuckInStateDays:  &t.StuckInStateDays,
		keyMaxItemsPerPerson: &t.MaxItemsPerPerson,
		keyMinItemsPerPerson: &t.MinItemsPerPerson,
		keyHighPriorityDays:  &t.HighPriorityDays,
	}
}
