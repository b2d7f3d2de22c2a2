package driven

import (
	"context"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

// SnapshotStore defines the driven port for health report history.
type SnapshotStore interface {
	Record(ctx context.Context, snapshot model.HealthSnapshot) (int64, error)
	// ListByTeam returns the newest snapshots first. limit <= 0 means no limit.
	ListByTeam(ctx context.Context, team string, limit int) ([]model.HealthSnapshot, error)
	// Latest returns nil, nil when the team has no snapshots.
	Latest(ctx context.Context, team string) (*model.HealthSnapshot, error)
}
