package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

var (
	alice = model.TeamMember{Name: "Alice Smith", Email: "alice@contoso.com", Aliases: []string{"asmith@contoso.com"}}
	bob   = model.TeamMember{Name: "Bob Jones", Email: "bob@contoso.com"}
	carol = model.TeamMember{Name: "Carol White", Email: "carol@contoso.com"}
)

func TestTeamRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepo(db)
	ctx := context.Background()

	err := repo.Create(ctx, model.TeamConfig{Name: "platform", Members: []model.TeamMember{bob, alice}})
	require.NoError(t, err)

	team, err := repo.Get(ctx, "platform")
	require.NoError(t, err)
	assert.Equal(t, "platform", team.Name)
	// Roster order is preserved.
	assert.Equal(t, []model.TeamMember{bob, alice}, team.Members)
}

func TestTeamRepo_CreateDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, model.TeamConfig{Name: "platform"}))
	err := repo.Create(ctx, model.TeamConfig{Name: "platform"})
	assert.ErrorIs(t, err, driven.ErrTeamAlreadyExists)
}

func TestTeamRepo_CreateRejectsMemberWithoutEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepo(db)
	ctx := context.Background()

	err := repo.Create(ctx, model.TeamConfig{Name: "platform", Members: []model.TeamMember{{Name: "Nobody"}}})
	require.Error(t, err)

	// The transaction rolled back, so the team does not exist.
	_, err = repo.Get(ctx, "platform")
	assert.ErrorIs(t, err, driven.ErrTeamNotFound)
}

func TestTeamRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepo(db)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, driven.ErrTeamNotFound)
}

func TestTeamRepo_EmptyRosterIsNotNil(t *testing.T) {
	db := setupTestDB(t)
	createTeam(t, db, "empty")

	team, err := NewTeamRepo(db).Get(context.Background(), "empty")
	require.NoError(t, err)
	assert.NotNil(t, team.Members)
	assert.Empty(t, team.Members)
}

func TestTeamRepo_ListNames(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepo(db)

	names, err := repo.ListNames(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)

	createTeam(t, db, "platform")
	createTeam(t, db, "data")

	names, err = repo.ListNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"data", "platform"}, names)
}

func TestTeamRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepo(db)
	ctx := context.Background()
	createTeam(t, db, "platform", alice)

	require.NoError(t, repo.Delete(ctx, "platform"))

	_, err := repo.Get(ctx, "platform")
	assert.ErrorIs(t, err, driven.ErrTeamNotFound)

	err = repo.Delete(ctx, "platform")
	assert.ErrorIs(t, err, driven.ErrTeamNotFound)

	// Members cascade; recreating the team starts with an empty roster.
	createTeam(t, db, "platform")
	team, err := repo.Get(ctx, "platform")
	require.NoError(t, err)
	assert.Empty(t, team.Members)
}

func TestTeamRepo_AddMember(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepo(db)
	ctx := context.Background()
	createTeam(t, db, "platform", alice, bob)

	require.NoError(t, repo.AddMember(ctx, "platform", carol))

	team, err := repo.Get(ctx, "platform")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@contoso.com", "bob@contoso.com", "carol@contoso.com"}, team.Emails())
}

func TestTeamRepo_AddMemberReplacesSameEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepo(db)
	ctx := context.Background()
	createTeam(t, db, "platform", alice, bob)

	renamed := model.TeamMember{Name: "Alice Cooper", Email: "ALICE@contoso.com", Aliases: []string{"ac"}}
	require.NoError(t, repo.AddMember(ctx, "platform", renamed))

	team, err := repo.Get(ctx, "platform")
	require.NoError(t, err)
	require.Len(t, team.Members, 2)
	// Position and stored email are kept; name and aliases are replaced.
	assert.Equal(t, "Alice Cooper", team.Members[0].Name)
	assert.Equal(t, "alice@contoso.com", team.Members[0].Email)
	assert.Equal(t, []string{"ac"}, team.Members[0].Aliases)
}

func TestTeamRepo_AddMemberUnknownTeam(t *testing.T) {
	db := setupTestDB(t)
	err := NewTeamRepo(db).AddMember(context.Background(), "nope", alice)
	assert.ErrorIs(t, err, driven.ErrTeamNotFound)
}

func TestTeamRepo_RemoveMember(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepo(db)
	ctx := context.Background()
	createTeam(t, db, "platform", alice, bob)

	require.NoError(t, repo.RemoveMember(ctx, "platform", "Alice@Contoso.com"))

	team, err := repo.Get(ctx, "platform")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob@contoso.com"}, team.Emails())

	err = repo.RemoveMember(ctx, "platform", "alice@contoso.com")
	assert.ErrorIs(t, err, driven.ErrMemberNotFound)

	err = repo.RemoveMember(ctx, "nope", "bob@contoso.com")
	assert.ErrorIs(t, err, driven.ErrTeamNotFound)
}

func TestTeamRepo_StateCategories(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepo(db)
	ctx := context.Background()
	createTeam(t, db, "platform")

	got, err := repo.GetStateCategories(ctx, "platform")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultStateCategories(), got)

	want := model.StateCategories{
		Active:    []string{"Doing"},
		Blocked:   []string{"Impeded"},
		Completed: []string{"Shipped", "Cut"},
	}
	require.NoError(t, repo.SetStateCategories(ctx, "platform", want))

	got, err = repo.GetStateCategories(ctx, "platform")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = repo.GetStateCategories(ctx, "nope")
	assert.ErrorIs(t, err, driven.ErrTeamNotFound)
}

func TestTeamRepo_ThresholdOverrides(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepo(db)
	ctx := context.Background()
	createTeam(t, db, "platform")

	t.Run("none stored", func(t *testing.T) {
		got, err := repo.GetThresholdOverrides(ctx, "platform")
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("partial overrides round trip", func(t *testing.T) {
		stale, minItems := 21, 0
		want := model.ThresholdOverrides{StaleDays: &stale, MinItemsPerPerson: &minItems}
		require.NoError(t, repo.SetThresholdOverrides(ctx, "platform", want))

		got, err := repo.GetThresholdOverrides(ctx, "platform")
		require.NoError(t, err)
		require.NotNil(t, got.StaleDays)
		assert.Equal(t, 21, *got.StaleDays)
		require.NotNil(t, got.MinItemsPerPerson)
		assert.Equal(t, 0, *got.MinItemsPerPerson)
		assert.Nil(t, got.MaxItemsPerPerson)
		assert.Nil(t, got.HighPriorityDays)
		assert.Nil(t, got.StuckInStateDays)
	})

	t.Run("unknown team", func(t *testing.T) {
		_, err := repo.GetThresholdOverrides(ctx, "nope")
		assert.ErrorIs(t, err, driven.ErrTeamNotFound)
		err = repo.SetThresholdOverrides(ctx, "nope", model.ThresholdOverrides{})
		assert.ErrorIs(t, err, driven.ErrTeamNotFound)
	})
}

func TestTeamRepo_SetStateCategoriesEncodesEmptyLists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepo(db)
	ctx := context.Background()
	createTeam(t, db, "platform")

	require.NoError(t, repo.SetStateCategories(ctx, "platform", model.StateCategories{Blocked: []string{"On Hold"}}))

	var active, blocked, completed string
	err := db.Reader.QueryRowContext(ctx,
		`SELECT c.active, c.blocked, c.completed FROM team_state_categories c JOIN teams t ON t.id = c.team_id WHERE t.name = ?`,
		"platform",
	).Scan(&active, &blocked, &completed)
	require.NoError(t, err)
	assert.Equal(t, "[]", active)
	assert.Equal(t, `["On Hold"]`, blocked)
	assert.Equal(t, "[]", completed)
}
