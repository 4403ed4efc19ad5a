package identity_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []any{
		(*identity.Account)(nil),
		(*identity.Role)(nil),
		(*identity.AccountRole)(nil),
		(*identity.Post)(nil),
	} {
		_, err = db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	return db
}

func seedAccount(t *testing.T, repo identity.RepositoryManager, email string) *identity.Account {
	t.Helper()

	created, err := repo.Accounts().Create(context.Background(), &identity.Account{
		Name:              "Seed",
		Email:             email,
		PasswordHash:      "digest",
		EmailConfirmToken: identity.NewOpaqueToken(),
	})
	require.NoError(t, err)
	return created
}

func TestBunAccountsRoundTrip(t *testing.T) {
	repo := identity.NewRepositoryManager(newTestDB(t))
	repo.MustValidate()
	ctx := context.Background()

	created := seedAccount(t, repo, "a@x.com")
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.NotNil(t, created.JoinedAt)

	byID, err := repo.Accounts().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	byEmail, err := repo.Accounts().GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	exists, err := repo.Accounts().ExistsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Accounts().ExistsByEmail(ctx, "ghost@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Accounts().GetByEmail(ctx, "ghost@x.com")
	require.Error(t, err)
}

func TestBunAccountsInviteTransition(t *testing.T) {
	repo := identity.NewRepositoryManager(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Accounts().Create(ctx, &identity.Account{
		Email:       "b@x.com",
		InviteToken: identity.NewOpaqueToken(),
	})
	require.NoError(t, err)

	updated, err := repo.Accounts().AcceptInvite(ctx, created.ID, "B", "digest")
	require.NoError(t, err)
	assert.True(t, updated.InviteAccepted)
	assert.Empty(t, updated.InviteToken)
	assert.Equal(t, "B", updated.Name)
	assert.Equal(t, "digest", updated.PasswordHash)

	_, err = repo.Accounts().AcceptInvite(ctx, uuid.New(), "B", "digest")
	require.Error(t, err)
}

func TestBunAccountsConfirmEmailClearsToken(t *testing.T) {
	repo := identity.NewRepositoryManager(newTestDB(t))
	ctx := context.Background()

	created := seedAccount(t, repo, "a@x.com")

	updated, err := repo.Accounts().ConfirmEmail(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, updated.EmailConfirmed)
	assert.Empty(t, updated.EmailConfirmToken)
}

func TestBunAccountsResetTokenLifecycle(t *testing.T) {
	repo := identity.NewRepositoryManager(newTestDB(t))
	ctx := context.Background()

	created := seedAccount(t, repo, "a@x.com")

	token := identity.NewOpaqueToken()
	expires := time.Now().Add(identity.ResetTokenTTL)
	require.NoError(t, repo.Accounts().SetResetToken(ctx, created.ID, token, expires))

	stored, err := repo.Accounts().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, token, stored.ResetToken)
	require.NotNil(t, stored.ResetExpires)
	assert.True(t, stored.HasPendingReset(time.Now()))

	require.NoError(t, repo.Accounts().RedeemResetToken(ctx, created.ID, "new-digest"))

	stored, err = repo.Accounts().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ResetToken)
	assert.Nil(t, stored.ResetExpires)
	assert.Equal(t, "new-digest", stored.PasswordHash)
	assert.False(t, stored.HasPendingReset(time.Now()))
}

func TestBunAccountsUpdateProfileKeepsCredentials(t *testing.T) {
	repo := identity.NewRepositoryManager(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Accounts().Create(ctx, &identity.Account{
		Name:              "Before",
		Email:             "a@x.com",
		PasswordHash:      "digest",
		EmailConfirmToken: identity.NewOpaqueToken(),
		InviteAccepted:    true,
	})
	require.NoError(t, err)

	updated, err := repo.Accounts().UpdateProfile(ctx, created.ID, "Renamed", "renamed@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "renamed@x.com", updated.Email)

	// Only name and email change; credentials and lifecycle state survive.
	assert.Equal(t, "digest", updated.PasswordHash)
	assert.Equal(t, created.EmailConfirmToken, updated.EmailConfirmToken)
	assert.True(t, updated.InviteAccepted)
	require.NotNil(t, updated.JoinedAt)
}

func TestBunAccountsTouchLastLogin(t *testing.T) {
	repo := identity.NewRepositoryManager(newTestDB(t))
	ctx := context.Background()

	created := seedAccount(t, repo, "a@x.com")
	require.Nil(t, created.LastLogin)

	require.NoError(t, repo.Accounts().TouchLastLogin(ctx, created.ID))

	stored, err := repo.Accounts().GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.WithinDuration(t, time.Now(), *stored.LastLogin, time.Minute)
}

func TestBunRolesAndAssignments(t *testing.T) {
	repo := identity.NewRepositoryManager(newTestDB(t))
	ctx := context.Background()

	account := seedAccount(t, repo, "a@x.com")

	role, err := repo.Roles().Create(ctx, &identity.Role{Name: identity.DefaultRoleName})
	require.NoError(t, err)

	roleID, err := repo.Roles().FindIDByName(ctx, identity.DefaultRoleName)
	require.NoError(t, err)
	assert.Equal(t, role.ID, roleID)

	_, err = repo.Roles().FindIDByName(ctx, "no-such-role")
	require.Error(t, err)
	assert.True(t, identity.IsErrorKind(err, identity.TextCodeRoleNotFound))

	exists, err := repo.Roles().AssignmentExists(ctx, account.ID, roleID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Roles().CreateAssignment(ctx, account.ID, roleID)
	require.NoError(t, err)

	exists, err = repo.Roles().AssignmentExists(ctx, account.ID, roleID)
	require.NoError(t, err)
	assert.True(t, exists)

	assignments, err := repo.Roles().ListAssignments(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	// The role relation comes back loaded in the same query.
	assert.Equal(t, identity.DefaultRoleName, assignments[0].RoleName())
}

func TestBunFindRoleLeavesSentinelUntouched(t *testing.T) {
	repo := identity.NewRepositoryManager(newTestDB(t))
	ctx := context.Background()

	_, first := repo.Roles().FindIDByName(ctx, "ghost-role-one")
	require.Error(t, first)
	_, second := repo.Roles().FindIDByName(ctx, "ghost-role-two")
	require.Error(t, second)

	// Each failure carries its own metadata; the shared sentinel stays bare.
	var richErr *goerrors.Error
	require.True(t, goerrors.As(first, &richErr))
	assert.Equal(t, "ghost-role-one", richErr.Metadata["name"])
	require.True(t, goerrors.As(second, &richErr))
	assert.Equal(t, "ghost-role-two", richErr.Metadata["name"])

	assert.Nil(t, identity.ErrRoleNotFound.Metadata)
}

func TestBunPostsOwnership(t *testing.T) {
	repo := identity.NewRepositoryManager(newTestDB(t))
	ctx := context.Background()

	owner := seedAccount(t, repo, "owner@x.com")
	other := seedAccount(t, repo, "other@x.com")

	post, err := repo.Posts().Create(ctx, &identity.Post{
		Title:     "t",
		Text:      "x",
		AccountID: owner.ID,
	})
	require.NoError(t, err)

	posts, err := repo.Posts().List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	owns, err := repo.Posts().OwnerExists(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, owns)

	owns, err = repo.Posts().OwnerExists(ctx, post.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, owns)
}

func TestBunRunInTx(t *testing.T) {
	repo := identity.NewRepositoryManager(newTestDB(t))
	ctx := context.Background()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewSelect().Model((*identity.Account)(nil)).Count(ctx)
		return err
	})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = repo.RunInTx(cancelled, nil, func(ctx context.Context, tx bun.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
