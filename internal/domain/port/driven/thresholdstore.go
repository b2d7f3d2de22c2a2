package driven

import (
	"context"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

// ThresholdStore defines the driven port for global health threshold defaults.
type ThresholdStore interface {
	// GetGlobalThresholds returns model.DefaultHealthThresholds() for any value
	// that has not been saved.
	GetGlobalThresholds(ctx context.Context) (model.HealthThresholds, error)
	SetGlobalThresholds(ctx context.Context, thresholds model.HealthThresholds) error
}
