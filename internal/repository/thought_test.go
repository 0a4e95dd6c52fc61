package repository

import (
	"context"
	"strings"
	"testing"

	"headspace/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThoughtRepository_Create(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	users := NewUserRepository(db)
	thoughts := NewThoughtRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, alice))

	thought := &models.Thought{ThoughtText: "hello world", Username: "alice"}
	require.NoError(t, thoughts.Create(ctx, thought, alice.ID))
	assert.NotZero(t, thought.ID)
	assert.False(t, thought.CreatedAt.IsZero())

	// The thought id lands in exactly the owner's list
	owner, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{thought.ID}, []uint(owner.ThoughtIDs))

	tests := []struct {
		name    string
		thought models.Thought
		ownerID uint
		code    string
	}{
		{"missing text", models.Thought{Username: "alice"}, alice.ID, models.CodeValidation},
		{"text too long", models.Thought{ThoughtText: strings.Repeat("x", 281), Username: "alice"}, alice.ID, models.CodeValidation},
		{"missing username", models.Thought{ThoughtText: "hi"}, alice.ID, models.CodeValidation},
		{"unknown owner", models.Thought{ThoughtText: "hi", Username: "ghost"}, 9999, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := tt.thought
			err := thoughts.Create(ctx, &th, tt.ownerID)
			require.Error(t, err)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}

	// Exactly 280 characters is still valid
	edge := &models.Thought{ThoughtText: strings.Repeat("y", 280), Username: "alice"}
	require.NoError(t, thoughts.Create(ctx, edge, alice.ID))
}

func TestThoughtRepository_Update(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	users := NewUserRepository(db)
	thoughts := NewThoughtRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, alice))
	thought := &models.Thought{ThoughtText: "original", Username: "alice"}
	require.NoError(t, thoughts.Create(ctx, thought, alice.ID))

	// Partial update preserves omitted fields
	newText := "edited"
	updated, err := thoughts.Update(ctx, thought.ID, ThoughtPatch{ThoughtText: &newText})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.ThoughtText)
	assert.Equal(t, "alice", updated.Username)

	empty := ""
	_, err = thoughts.Update(ctx, thought.ID, ThoughtPatch{ThoughtText: &empty})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))

	_, err = thoughts.Update(ctx, 9999, ThoughtPatch{ThoughtText: &newText})
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestThoughtRepository_Delete_PullsFromOwnerByUsername(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	users := NewUserRepository(db)
	thoughts := NewThoughtRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, alice))

	t1 := &models.Thought{ThoughtText: "keep", Username: "alice"}
	t2 := &models.Thought{ThoughtText: "drop", Username: "alice"}
	require.NoError(t, thoughts.Create(ctx, t1, alice.ID))
	require.NoError(t, thoughts.Create(ctx, t2, alice.ID))

	require.NoError(t, thoughts.Delete(ctx, t2.ID))

	owner, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{t1.ID}, []uint(owner.ThoughtIDs))

	_, err = thoughts.GetByID(ctx, t2.ID)
	assert.True(t, models.IsNotFound(err))

	err = thoughts.Delete(ctx, t2.ID)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestThoughtRepository_Delete_MissingOwnerTolerated(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	users := NewUserRepository(db)
	thoughts := NewThoughtRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, alice))
	thought := &models.Thought{ThoughtText: "orphan-to-be", Username: "alice"}
	require.NoError(t, thoughts.Create(ctx, thought, alice.ID))

	// Rename the author; the stored username on the thought now dangles.
	newName := "renamed"
	_, err := users.Update(ctx, alice.ID, UserPatch{Username: &newName})
	require.NoError(t, err)

	// Delete still succeeds; no user matches the stale username, so the
	// pull is silently skipped.
	require.NoError(t, thoughts.Delete(ctx, thought.ID))
}

func TestThoughtRepository_Reactions(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	users := NewUserRepository(db)
	thoughts := NewThoughtRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, alice))
	thought := &models.Thought{ThoughtText: "react to me", Username: "alice"}
	require.NoError(t, thoughts.Create(ctx, thought, alice.ID))

	reaction := &models.Reaction{ReactionBody: "nice!", Username: "bob"}
	updated, err := thoughts.AddReaction(ctx, thought.ID, reaction)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ReactionCount())
	assert.NotEqual(t, uuid.Nil, reaction.ReactionID, "reaction id is generated on append")
	assert.False(t, reaction.CreatedAt.IsZero(), "createdAt defaults on append")

	// Count is derived from the stored list, not cached anywhere
	reloaded, err := thoughts.GetByID(ctx, thought.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.ReactionCount())

	// Removing an unknown reaction id is a no-op that returns the thought
	unchanged, err := thoughts.RemoveReaction(ctx, thought.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1, unchanged.ReactionCount())

	removed, err := thoughts.RemoveReaction(ctx, thought.ID, reaction.ReactionID)
	require.NoError(t, err)
	assert.Equal(t, 0, removed.ReactionCount())

	// Validation failures never touch the thought
	_, err = thoughts.AddReaction(ctx, thought.ID, &models.Reaction{Username: "bob"})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
	_, err = thoughts.AddReaction(ctx, thought.ID, &models.Reaction{
		ReactionBody: strings.Repeat("z", 281), Username: "bob",
	})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))

	_, err = thoughts.AddReaction(ctx, 9999, &models.Reaction{ReactionBody: "hi", Username: "bob"})
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
	_, err = thoughts.RemoveReaction(ctx, 9999, uuid.New())
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

// Mirrors the full lifecycle: user, thought, reaction, removal, cascade.
func TestSocialGraphLifecycle(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	users := NewUserRepository(db)
	thoughts := NewThoughtRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@x.com"}
	require.NoError(t, users.Create(ctx, alice))

	thought := &models.Thought{ThoughtText: "hello", Username: "alice"}
	require.NoError(t, thoughts.Create(ctx, thought, alice.ID))

	got, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, got.Thoughts, 1)

	reaction := &models.Reaction{ReactionBody: "nice!", Username: "bob"}
	withReaction, err := thoughts.AddReaction(ctx, thought.ID, reaction)
	require.NoError(t, err)
	assert.Equal(t, 1, withReaction.ReactionCount())

	withoutReaction, err := thoughts.RemoveReaction(ctx, thought.ID, reaction.ReactionID)
	require.NoError(t, err)
	assert.Equal(t, 0, withoutReaction.ReactionCount())

	require.NoError(t, users.Delete(ctx, alice.ID))
	_, err = thoughts.GetByID(ctx, thought.ID)
	assert.True(t, models.IsNotFound(err))
}
