package driven

import "context"

// SettingsStore defines the driven port for CLI key/value settings.
// Get returns ("", nil) for a key that has never been set.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}
