package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

// Sentinel errors returned by TeamStore implementations.
var (
	// ErrTeamNotFound indicates the requested team has not been configured.
	ErrTeamNotFound = errors.New("team not found")

	// ErrTeamAlreadyExists indicates a team with the same name already exists.
	ErrTeamAlreadyExists = errors.New("team already exists")

	// ErrMemberNotFound indicates the member email is not on the roster.
	ErrMemberNotFound = errors.New("team member not found")
)

// TeamStore defines the driven port for team roster persistence.
// Create returns ErrTeamAlreadyExists if the name is taken; every other method
// returns ErrTeamNotFound for an unknown team.
type TeamStore interface {
	Create(ctx context.Context, team model.TeamConfig) error
	Get(ctx context.Context, name string) (*model.TeamConfig, error)
	ListNames(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error

	// AddMember inserts or replaces the member with the same email.
	AddMember(ctx context.Context, team string, member model.TeamMember) error
	// RemoveMember returns ErrMemberNotFound if the email is not on the roster.
	RemoveMember(ctx context.Context, team string, email string) error

	// GetStateCategories returns model.DefaultStateCategories() when the team
	// has none stored.
	GetStateCategories(ctx context.Context, team string) (model.StateCategories, error)
	SetStateCategories(ctx context.Context, team string, categories model.StateCategories) error

	// GetThresholdOverrides returns zero-value overrides (all nil) when none exist.
	GetThresholdOverrides(ctx context.Context, team string) (model.ThresholdOverrides, error)
	SetThresholdOverrides(ctx context.Context, team string, overrides model.ThresholdOverrides) error
}
