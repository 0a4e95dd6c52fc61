package repository

import (
	"context"
	"testing"

	"headspace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "  alice  ", Email: "alice@example.com"}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, "alice", user.Username, "username should be trimmed")
	assert.NotZero(t, user.ID)

	tests := []struct {
		name string
		user models.User
	}{
		{"duplicate username", models.User{Username: "alice", Email: "other@example.com"}},
		{"duplicate email", models.User{Username: "bob", Email: "alice@example.com"}},
		{"missing username", models.User{Email: "carol@example.com"}},
		{"missing email", models.User{Username: "carol"}},
		{"malformed email", models.User{Username: "carol", Email: "not-an-email"}},
		{"email without tld", models.User{Username: "carol", Email: "carol@host"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.user
			err := repo.Create(ctx, &u)
			require.Error(t, err)
			assert.True(t, models.IsValidation(err), "expected validation error, got %v", err)
		})
	}

	// A valid second user still goes through
	second := &models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, repo.Create(ctx, second))
}

func TestUserRepository_GetByID_Populates(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	users := NewUserRepository(db)
	thoughts := NewThoughtRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	bob := &models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	thought := &models.Thought{ThoughtText: "hello", Username: "alice"}
	require.NoError(t, thoughts.Create(ctx, thought, alice.ID))

	_, err := users.AddFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	got, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, got.Thoughts, 1)
	assert.Equal(t, "hello", got.Thoughts[0].ThoughtText)
	require.Len(t, got.Friends, 1)
	assert.Equal(t, "bob", got.Friends[0].Username)
	assert.Equal(t, 1, got.FriendCount())

	_, err = users.GetByID(ctx, 9999)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestUserRepository_GetByID_DropsDanglingRefs(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, alice))

	// Friend id that was never created: tolerated at write time,
	// dropped at read time.
	_, err := users.AddFriend(ctx, alice.ID, 4242)
	require.NoError(t, err)

	got, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Friends, "dangling friend id should be dropped from populated records")
	assert.Equal(t, 1, got.FriendCount(), "friendCount reflects the stored list, dangling or not")
}

func TestUserRepository_Update(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, repo.Create(ctx, alice))

	// Partial update: omitted email is preserved
	newName := "alicia"
	updated, err := repo.Update(ctx, alice.ID, UserPatch{Username: &newName})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "alice@example.com", updated.Email)

	badEmail := "nope"
	_, err = repo.Update(ctx, alice.ID, UserPatch{Email: &badEmail})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))

	_, err = repo.Update(ctx, 9999, UserPatch{Username: &newName})
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestUserRepository_AddFriend_Idempotent(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	bob := &models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, bob))

	first, err := repo.AddFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.FriendCount())

	second, err := repo.AddFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, second.FriendCount(), "adding the same friend twice must not duplicate")

	// And the stored row agrees
	got, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID}, []uint(got.FriendIDs))

	_, err = repo.AddFriend(ctx, 9999, bob.ID)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestUserRepository_RemoveFriend(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	bob := &models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, bob))

	_, err := repo.AddFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	removed, err := repo.RemoveFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, removed.FriendCount())

	// Removing an absent id is a no-op, not an error
	again, err := repo.RemoveFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.FriendCount())
}

func TestUserRepository_Delete_CascadesThoughts(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	users := NewUserRepository(db)
	thoughts := NewThoughtRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, alice))

	t1 := &models.Thought{ThoughtText: "first", Username: "alice"}
	t2 := &models.Thought{ThoughtText: "second", Username: "alice"}
	require.NoError(t, thoughts.Create(ctx, t1, alice.ID))
	require.NoError(t, thoughts.Create(ctx, t2, alice.ID))

	require.NoError(t, users.Delete(ctx, alice.ID))

	_, err := users.GetByID(ctx, alice.ID)
	assert.True(t, models.IsNotFound(err))

	for _, id := range []uint{t1.ID, t2.ID} {
		_, err := thoughts.GetByID(ctx, id)
		assert.True(t, models.IsNotFound(err), "thought %d should be cascade-deleted", id)
	}

	err = users.Delete(ctx, alice.ID)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}
