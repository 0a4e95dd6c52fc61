package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"headspace/internal/cache"
	"headspace/internal/middleware"
	"headspace/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ThoughtPatch carries a partial update; nil fields are preserved.
type ThoughtPatch struct {
	ThoughtText *string
	Username    *string
}

// ThoughtRepository defines persistence operations for thoughts and their
// embedded reactions.
type ThoughtRepository interface {
	Create(ctx context.Context, thought *models.Thought, ownerID uint) error
	GetByID(ctx context.Context, id uint) (*models.Thought, error)
	List(ctx context.Context) ([]models.Thought, error)
	Update(ctx context.Context, id uint, patch ThoughtPatch) (*models.Thought, error)
	Delete(ctx context.Context, id uint) error
	AddReaction(ctx context.Context, thoughtID uint, reaction *models.Reaction) (*models.Thought, error)
	RemoveReaction(ctx context.Context, thoughtID uint, reactionID uuid.UUID) (*models.Thought, error)
}

type thoughtRepository struct {
	db *gorm.DB
}

// NewThoughtRepository returns a new ThoughtRepository implementation.
func NewThoughtRepository(db *gorm.DB) ThoughtRepository {
	return &thoughtRepository{db: db}
}

// Create inserts the thought and appends its id to the owner's thought list.
// The append is a second, independent write: if it fails the thought exists
// without being listed under any user. The orphan is logged, not rolled back.
func (r *thoughtRepository) Create(ctx context.Context, thought *models.Thought, ownerID uint) error {
	if err := thought.Validate(); err != nil {
		return err
	}

	var owner models.User
	if err := r.db.WithContext(ctx).First(&owner, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("User", ownerID)
		}
		return models.NewInternalError(err)
	}

	if thought.Reactions == nil {
		thought.Reactions = []models.Reaction{}
	}
	if err := r.db.WithContext(ctx).Create(thought).Error; err != nil {
		return models.NewInternalError(err)
	}

	owner.ThoughtIDs = append(owner.ThoughtIDs, thought.ID)
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", owner.ID).
		Update("thoughts", owner.ThoughtIDs).Error; err != nil {
		middleware.Logger.WarnContext(ctx, "thought created but not linked to author",
			slog.Uint64("thought_id", uint64(thought.ID)),
			slog.Uint64("user_id", uint64(owner.ID)),
			slog.String("error", err.Error()),
		)
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, owner.ID)
	return nil
}

func (r *thoughtRepository) GetByID(ctx context.Context, id uint) (*models.Thought, error) {
	var thought models.Thought
	if err := r.db.WithContext(ctx).First(&thought, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Thought", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &thought, nil
}

func (r *thoughtRepository) List(ctx context.Context) ([]models.Thought, error) {
	var thoughts []models.Thought
	if err := r.db.WithContext(ctx).Order("id").Find(&thoughts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return thoughts, nil
}

func (r *thoughtRepository) Update(ctx context.Context, id uint, patch ThoughtPatch) (*models.Thought, error) {
	var thought models.Thought
	if err := r.db.WithContext(ctx).First(&thought, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Thought", id)
		}
		return nil, models.NewInternalError(err)
	}

	if patch.ThoughtText != nil {
		thought.ThoughtText = *patch.ThoughtText
	}
	if patch.Username != nil {
		thought.Username = *patch.Username
	}
	if err := thought.Validate(); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Save(&thought).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateThought(ctx, id)
	return &thought, nil
}

// Delete removes the thought, then pulls its id from the owning user's
// thought list. The owner is matched by the thought's stored username:
// usernames are unique, so at most one user can own it. A missing owner is
// tolerated (the reference would simply dangle). The pull is a second,
// independent write and is not rolled back on failure.
func (r *thoughtRepository) Delete(ctx context.Context, id uint) error {
	var thought models.Thought
	if err := r.db.WithContext(ctx).First(&thought, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Thought", id)
		}
		return models.NewInternalError(err)
	}

	if err := r.db.WithContext(ctx).Delete(&models.Thought{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateThought(ctx, id)

	var owner models.User
	err := r.db.WithContext(ctx).Where("username = ?", thought.Username).First(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return models.NewInternalError(err)
	}

	kept := owner.ThoughtIDs[:0:0]
	for _, tid := range owner.ThoughtIDs {
		if tid != id {
			kept = append(kept, tid)
		}
	}
	if len(kept) == len(owner.ThoughtIDs) {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", owner.ID).
		Update("thoughts", kept).Error; err != nil {
		middleware.Logger.WarnContext(ctx, "thought deleted but still listed under author",
			slog.Uint64("thought_id", uint64(id)),
			slog.Uint64("user_id", uint64(owner.ID)),
			slog.String("error", err.Error()),
		)
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, owner.ID)
	return nil
}

// AddReaction appends a reaction to the thought's embedded list. Identity and
// timestamp are assigned here; the id is unique within this thought only.
func (r *thoughtRepository) AddReaction(ctx context.Context, thoughtID uint, reaction *models.Reaction) (*models.Thought, error) {
	if err := reaction.Validate(); err != nil {
		return nil, err
	}

	var thought models.Thought
	if err := r.db.WithContext(ctx).First(&thought, thoughtID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Thought", thoughtID)
		}
		return nil, models.NewInternalError(err)
	}

	reaction.ReactionID = uuid.New()
	if reaction.CreatedAt.IsZero() {
		reaction.CreatedAt = time.Now()
	}
	thought.Reactions = append(thought.Reactions, *reaction)

	if err := r.db.WithContext(ctx).Model(&models.Thought{}).Where("id = ?", thoughtID).
		Update("reactions", thought.Reactions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateThought(ctx, thoughtID)
	return &thought, nil
}

// RemoveReaction pulls every reaction with the given id from the list.
// Removing an id that is not present is a no-op returning the unchanged
// thought, not an error.
func (r *thoughtRepository) RemoveReaction(ctx context.Context, thoughtID uint, reactionID uuid.UUID) (*models.Thought, error) {
	var thought models.Thought
	if err := r.db.WithContext(ctx).First(&thought, thoughtID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Thought", thoughtID)
		}
		return nil, models.NewInternalError(err)
	}

	kept := thought.Reactions[:0:0]
	for _, rx := range thought.Reactions {
		if rx.ReactionID != reactionID {
			kept = append(kept, rx)
		}
	}
	if len(kept) == len(thought.Reactions) {
		return &thought, nil
	}
	thought.Reactions = kept

	if err := r.db.WithContext(ctx).Model(&models.Thought{}).Where("id = ?", thoughtID).
		Update("reactions", thought.Reactions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateThought(ctx, thoughtID)
	return &thought, nil
}
